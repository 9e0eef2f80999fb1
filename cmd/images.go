package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/glazing-tools/catalogpilot/internal/catalog"
	"github.com/glazing-tools/catalogpilot/internal/config"
	"github.com/glazing-tools/catalogpilot/internal/matcher"
	"github.com/glazing-tools/catalogpilot/internal/uploader"
)

// newImagesCmd creates the images command group
func newImagesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "images",
		Short: "Match product photos to parts and upload them",
	}

	cmd.AddCommand(newImagesUploadCmd())
	cmd.AddCommand(newImagesMatchCmd())

	return cmd
}

// imageFamily resolves the image settings of family and applies a --policy
// override.
func imageFamily(cfg *config.Config, family, policy string) (config.ImageFamily, error) {
	fam, err := cfg.Images.Family(catalog.Family(family))
	if err != nil {
		return fam, err
	}
	if policy != "" {
		p, err := matcher.ParsePolicy(policy)
		if err != nil {
			return fam, err
		}
		fam.Policy = p
	}
	return fam, nil
}

// newImagesUploadCmd creates the images upload command for attaching photos to parts
func newImagesUploadCmd() *cobra.Command {
	var family, dir, policy string
	var rf runFlags

	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Upload the best matching photo to every part without an image",
		Long: `Upload walks the part list of a family. Parts that already show a real
thumbnail are left alone; every other part gets the photo from --dir whose
name matches best under the family's matching policy. Parts with no match are
highlighted in red and listed at the end.`,
		Example: `  # Upload glass photos with the configured policy
  catalogpilot images upload --family glass --dir ./photos/glass --server live

  # Require exact names for ironmongery
  catalogpilot images upload --family ironmongery --dir ./photos --policy exact`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, server, err := prepare(cmd, &rf)
			if err != nil {
				return err
			}
			fam, err := imageFamily(cfg, family, policy)
			if err != nil {
				return err
			}

			t := &uploader.Task{
				Family:     family,
				Fs:         afero.NewOsFs(),
				ImageDir:   dir,
				Layout:     fam.Layout,
				Policy:     fam.Policy,
				Exclusions: fam.Exclusions,
				Timeouts:   cfg.Timeouts(),
			}
			if err := runTask(cmd.Context(), cmd.OutOrStdout(), cfg, server, t); err != nil {
				return err
			}

			tally := t.Tally()
			fmt.Fprintf(cmd.OutOrStdout(), "rows=%d already=%d uploaded=%d unmatched=%d failed=%d\n",
				tally.Rows, tally.AlreadyHadImage, tally.Uploaded, tally.Unmatched, tally.Failed)
			for _, name := range tally.UnmatchedNames {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s %s\n", color.RedString("no photo:"), name)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&family, "family", "", "Part list to upload to: glass or ironmongery (required)")
	cmd.Flags().StringVar(&dir, "dir", "", "Directory of product photos (required)")
	cmd.Flags().StringVar(&policy, "policy", "", "Matching policy: exact, loose-any or loose-half (overrides config)")
	addRunFlags(cmd, &rf)
	_ = cmd.MarkFlagRequired("family")
	_ = cmd.MarkFlagRequired("dir")
	return cmd
}

// newImagesMatchCmd creates the images match command for previewing matches offline
func newImagesMatchCmd() *cobra.Command {
	var family, dir, policy, namesPath string

	cmd := &cobra.Command{
		Use:   "match",
		Short: "Show which photo each part name would get, without a browser",
		Long: `Match runs the photo matcher offline. Part names are read one per line from
--names (or standard input) and printed next to the photo they would receive.`,
		Example: `  # Preview ironmongery matches
  catalogpilot images match --family ironmongery --dir ./photos --names parts.txt`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, nil)
			if err != nil {
				return err
			}
			fam, err := imageFamily(cfg, family, policy)
			if err != nil {
				return err
			}

			fs := afero.NewOsFs()
			pool, err := matcher.Scan(fs, dir)
			if err != nil {
				return err
			}

			var data []byte
			if namesPath == "" || namesPath == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = afero.ReadFile(fs, namesPath)
			}
			if err != nil {
				return fmt.Errorf("failed to read part names: %w", err)
			}

			var names []string
			for _, line := range strings.Split(string(data), "\n") {
				if name := matcher.CleanDisplayName(line); name != "" {
					names = append(names, name)
				}
			}

			m := matcher.New(fam.Policy, fam.Exclusions)
			printMatches(cmd, m.MatchAll(names, pool))
			return nil
		},
	}

	cmd.Flags().StringVar(&family, "family", "", "Family whose policy to use: glass or ironmongery (required)")
	cmd.Flags().StringVar(&dir, "dir", "", "Directory of product photos (required)")
	cmd.Flags().StringVar(&policy, "policy", "", "Matching policy: exact, loose-any or loose-half (overrides config)")
	cmd.Flags().StringVar(&namesPath, "names", "", "File with one part name per line (default stdin)")
	_ = cmd.MarkFlagRequired("family")
	_ = cmd.MarkFlagRequired("dir")
	return cmd
}

func printMatches(cmd *cobra.Command, results []matcher.Result) {
	out := cmd.OutOrStdout()
	matched := 0
	for _, r := range results {
		if !r.Matched {
			fmt.Fprintf(out, "%-40s %s\n", r.Target, color.RedString("-"))
			continue
		}
		matched++
		fmt.Fprintf(out, "%-40s %s\n", r.Target, filepath.Base(r.Image.Path))
	}
	fmt.Fprintf(out, "\n%d of %d parts matched\n", matched, len(results))
}
