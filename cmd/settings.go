package cmd

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/glazing-tools/catalogpilot/internal/settings"
)

// newSettingsCmd creates the settings command group
func newSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Capture and replay drawing board settings",
		Long: `Settings reads every control of the drawing board tiles into a CSV, and
replays such a CSV onto another server.

Without --tile the file holds one row per tile: a "Drawing Title" column
followed by one "Tab | Label | Kind" column per control. With --tile a single
tile is read or written in the two-column Property,Value form.`,
	}

	cmd.AddCommand(newSettingsCaptureCmd())
	cmd.AddCommand(newSettingsInjectCmd())

	return cmd
}

// newSettingsCaptureCmd creates the settings capture command for writing tile settings to CSV
func newSettingsCaptureCmd() *cobra.Command {
	var out, tile string
	var rf runFlags

	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Write the settings of the drawing board tiles to CSV",
		Example: `  # Capture every tile
  catalogpilot settings capture --out settings.csv --server staging

  # Capture one tile as Property,Value rows
  catalogpilot settings capture --out casement.csv --tile "Casement 2 pane"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, server, err := prepare(cmd, &rf)
			if err != nil {
				return err
			}
			t := &settings.CaptureTask{
				Fs:       afero.NewOsFs(),
				OutPath:  out,
				Tile:     tile,
				Layout:   cfg.Settings,
				Timeouts: cfg.Timeouts(),
			}
			return runTask(cmd.Context(), cmd.OutOrStdout(), cfg, server, t)
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "CSV file to write (required)")
	cmd.Flags().StringVar(&tile, "tile", "", "Capture only the tile with this title")
	addRunFlags(cmd, &rf)
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

// newSettingsInjectCmd creates the settings inject command for replaying a settings CSV
func newSettingsInjectCmd() *cobra.Command {
	var in, tile string
	var rf runFlags

	cmd := &cobra.Command{
		Use:   "inject",
		Short: "Apply a settings CSV to the drawing board",
		Long: `Inject creates one tile per row of a wide settings CSV and sets each
captured control. With --tile the CSV is read in the Property,Value form and
applied to the existing tile of that title. Controls that no longer exist are
skipped, not failed.`,
		Example: `  # Recreate captured tiles on the live server
  catalogpilot settings inject --in settings.csv --server live`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, server, err := prepare(cmd, &rf)
			if err != nil {
				return err
			}
			t := &settings.InjectTask{
				Fs:       afero.NewOsFs(),
				InPath:   in,
				Tile:     tile,
				Layout:   cfg.Settings,
				Timeouts: cfg.Timeouts(),
			}
			if err := runTask(cmd.Context(), cmd.OutOrStdout(), cfg, server, t); err != nil {
				return err
			}
			r := t.Result()
			fmt.Fprintf(cmd.OutOrStdout(), "applied=%d skipped=%d failed=%d\n", r.Applied, r.Skipped, r.Failed)
			for _, f := range r.Failures {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", f)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&in, "in", "i", "", "CSV file to read (required)")
	cmd.Flags().StringVar(&tile, "tile", "", "Apply to the existing tile with this title")
	addRunFlags(cmd, &rf)
	_ = cmd.MarkFlagRequired("in")
	return cmd
}
