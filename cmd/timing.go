package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/glazing-tools/catalogpilot/internal/timing"
)

// newTimingCmd creates the timing command for measuring page load times
func newTimingCmd() *cobra.Command {
	var iterations int
	var noParquet bool
	var rf runFlags

	cmd := &cobra.Command{
		Use:   "timing",
		Short: "Measure how long the main pages take to load",
		Long: `Timing logs in and loads every configured page several times, waiting for
each page's ready element. Raw samples are written as Parquet to the timing
directory and a summary table is printed.`,
		Example: `  # Ten loads per page
  catalogpilot timing --iterations 10 --server live`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, server, err := prepare(cmd, &rf)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("iterations") {
				cfg.Timing.Iterations = iterations
			}

			t := &timing.Task{
				Targets:    cfg.Timing.Pages,
				Iterations: cfg.Timing.Iterations,
				Timeouts:   cfg.Timeouts(),
			}
			if !noParquet {
				t.OutPath = cfg.TimingOutPath(time.Now())
			}
			if err := runTask(cmd.Context(), cmd.OutOrStdout(), cfg, server, t); err != nil {
				return err
			}
			timing.PrintSummary(cmd.OutOrStdout(), t.Summaries())
			return nil
		},
	}

	cmd.Flags().IntVarP(&iterations, "iterations", "n", 5, "Loads per page (overrides config)")
	cmd.Flags().BoolVar(&noParquet, "no-parquet", false, "Do not write raw samples")
	addRunFlags(cmd, &rf)
	return cmd
}
