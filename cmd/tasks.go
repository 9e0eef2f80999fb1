package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/glazing-tools/catalogpilot/internal/catalog"
	"github.com/glazing-tools/catalogpilot/internal/task"
)

// taskRegistry lists every task the CLI can run, by report name.
func taskRegistry() *task.Registry {
	reg := task.NewRegistry()
	for _, f := range []catalog.Family{catalog.FamilyGlass, catalog.FamilyIronmongery, catalog.FamilyTimber} {
		reg.Register("import-"+string(f), fmt.Sprintf("Import the %s catalog from CSV", f))
	}
	for _, f := range []catalog.Family{catalog.FamilyGlass, catalog.FamilyIronmongery} {
		reg.Register("upload-images-"+string(f), fmt.Sprintf("Attach product photos to %s parts", f))
	}
	reg.Register("settings-capture", "Write drawing board settings to CSV")
	reg.Register("settings-inject", "Apply a settings CSV to the drawing board")
	reg.Register("timing", "Measure page load times")
	return reg
}

// newTasksCmd creates the tasks command listing every automation task
func newTasksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tasks",
		Short: "List the automation tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := taskRegistry()
			for _, name := range reg.Names() {
				desc, _ := reg.Describe(name)
				fmt.Fprintf(cmd.OutOrStdout(), "%-28s %s\n", name, desc)
			}
			return nil
		},
	}
}
