package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/glazing-tools/catalogpilot/internal/catalog"
	"github.com/glazing-tools/catalogpilot/internal/importer"
)

// newImportCmd creates the import command group with one subcommand per catalog family
func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a catalog CSV through the add-part dialogs",
		Long: `Import reads a catalog CSV and creates one part per row through the
vendor's add dialog. A failing row is dismissed and the import moves on to
the next one; the tally is printed at the end and written to the run report.`,
	}

	cmd.AddCommand(newImportFamilyCmd(catalog.FamilyGlass, "partNo, partName, unit, cost, obscure"))
	cmd.AddCommand(newImportFamilyCmd(catalog.FamilyIronmongery, "partNo, name, cost, unit, type, notes"))
	cmd.AddCommand(newImportFamilyCmd(catalog.FamilyTimber, "component, group, loop, active, stocked, ... , material, comment"))

	return cmd
}

// newImportFamilyCmd creates the import command for one catalog family
func newImportFamilyCmd(family catalog.Family, columns string) *cobra.Command {
	var csvPath string
	var strictUnits bool
	var rf runFlags

	cmd := &cobra.Command{
		Use:   string(family),
		Short: fmt.Sprintf("Import the %s catalog", family),
		Long: fmt.Sprintf(`Import the %s catalog from a CSV. The first line is a header; the columns are:

  %s`, family, columns),
		Example: fmt.Sprintf(`  # Import against a saved server
  catalogpilot import %[1]s --csv %[1]s.csv --server live

  # Watch the browser while importing
  catalogpilot import %[1]s --csv %[1]s.csv --headless=false`, family),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, server, err := prepare(cmd, &rf)
			if err != nil {
				return err
			}
			layout, err := cfg.Import.Layout(family)
			if err != nil {
				return err
			}
			opts := cfg.ImportOptions()
			if cmd.Flags().Changed("strict-units") {
				opts.StrictUnits = strictUnits
			}

			t := &importer.Task{
				Family:  family,
				CSVPath: csvPath,
				Layout:  layout,
				Options: opts,
			}
			if err := runTask(cmd.Context(), cmd.OutOrStdout(), cfg, server, t); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.Tally())
			return nil
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "", "Path to the catalog CSV (required)")
	cmd.Flags().BoolVar(&strictUnits, "strict-units", false, "Fail rows whose unit is not offered instead of picking the first unit")
	addRunFlags(cmd, &rf)
	_ = cmd.MarkFlagRequired("csv")
	return cmd
}
