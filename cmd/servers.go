package cmd

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/glazing-tools/catalogpilot/internal/config"
	"github.com/glazing-tools/catalogpilot/internal/servers"
)

// newServersCmd creates the servers command group for editing the server list
func newServersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "servers",
		Short: "Manage the saved server list",
		Long: `Servers edits the CSV list of CRM servers that --server refers to.
Passwords are stored encrypted with a key derived from ` + config.EnvPassphrase + `.`,
	}

	cmd.AddCommand(newServersAddCmd())
	cmd.AddCommand(newServersListCmd())
	cmd.AddCommand(newServersRemoveCmd())

	return cmd
}

// openServers loads the configured server list.
func openServers(cmd *cobra.Command) (*config.Config, *servers.Registry, *servers.Cipher, error) {
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return nil, nil, nil, err
	}
	c := servers.NewCipher(config.Passphrase())
	reg, err := servers.Load(appFs, cfg.Servers, c)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, reg, c, nil
}

// newServersAddCmd creates the servers add command
func newServersAddCmd() *cobra.Command {
	var s servers.Server

	cmd := &cobra.Command{
		Use:   "add [name]",
		Short: "Add or replace a server",
		Long: `Add saves a server under a name. Fields not given as flags are asked for
interactively; the password is read without echo.`,
		Example: `  catalogpilot servers add live --url https://crm.example.com --username ann`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, reg, c, err := openServers(cmd)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				s.Name = args[0]
			}

			prompt := &servers.Prompt{In: cmd.InOrStdin(), Out: cmd.OutOrStdout()}
			completed, err := prompt.Complete(s)
			if err != nil {
				return err
			}

			_, replaced := reg.Get(completed.Name)
			reg.Set(completed)
			if err := servers.Save(appFs, cfg.Servers, reg, c); err != nil {
				return err
			}

			verb := "Added"
			if replaced {
				verb = "Replaced"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s server %s (%s)\n", verb, completed.Name, completed.URL)
			return nil
		},
	}

	cmd.Flags().StringVar(&s.URL, "url", "", "Base URL of the CRM")
	cmd.Flags().StringVar(&s.Username, "username", "", "Login user name")
	cmd.Flags().StringVar(&s.Password, "password", "", "Login password (prompted when omitted)")
	return cmd
}

// newServersListCmd creates the servers list command
func newServersListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved servers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, reg, _, err := openServers(cmd)
			if err != nil {
				return err
			}
			all := reg.All()
			if len(all) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No servers saved. Add one with 'catalogpilot servers add'.")
				return nil
			}
			bold := color.New(color.Bold)
			bold.Fprintf(cmd.OutOrStdout(), "%-16s %-40s %s\n", "NAME", "URL", "USERNAME")
			for _, s := range all {
				fmt.Fprintf(cmd.OutOrStdout(), "%-16s %-40s %s\n", s.Name, s.URL, s.Username)
			}
			return nil
		},
	}
}

// newServersRemoveCmd creates the servers remove command
func newServersRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <name>",
		Aliases: []string{"rm"},
		Short:   "Remove a saved server",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, reg, c, err := openServers(cmd)
			if err != nil {
				return err
			}
			name := strings.TrimSpace(args[0])
			if !reg.Delete(name) {
				return fmt.Errorf("unknown server %q", name)
			}
			if err := servers.Save(appFs, cfg.Servers, reg, c); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed server %s\n", name)
			return nil
		},
	}
}
