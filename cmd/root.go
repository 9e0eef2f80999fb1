package cmd

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/glazing-tools/catalogpilot/internal/config"
)

// NewRootCmd creates the catalogpilot root command with every subcommand attached
func NewRootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "catalogpilot",
		Short: "Browser automation for the vendor CRM part catalogs",
		Long: `Catalogpilot drives the vendor CRM in a real browser.

It imports glass, ironmongery and timber catalogs from CSV, attaches product
photos to parts, captures and replays drawing settings, and measures how long
the main pages take to load.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}

	cmd.PersistentFlags().String("config", config.DefaultPath, "Path to the YAML configuration file")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")

	cmd.AddCommand(newImportCmd())
	cmd.AddCommand(newImagesCmd())
	cmd.AddCommand(newSettingsCmd())
	cmd.AddCommand(newTimingCmd())
	cmd.AddCommand(newServersCmd())
	cmd.AddCommand(newTasksCmd())

	return cmd
}
