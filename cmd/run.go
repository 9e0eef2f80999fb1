package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/glazing-tools/catalogpilot/internal/browser"
	"github.com/glazing-tools/catalogpilot/internal/config"
	"github.com/glazing-tools/catalogpilot/internal/progress"
	"github.com/glazing-tools/catalogpilot/internal/report"
	"github.com/glazing-tools/catalogpilot/internal/servers"
	"github.com/glazing-tools/catalogpilot/internal/task"
)

// appFs backs the server list. Tests replace it.
var appFs = afero.NewOsFs()

// openPage launches the browser for a task run. Tests replace it.
var openPage = func(ctx context.Context, opts browser.Options) (browser.Page, func() error, error) {
	session, err := browser.Launch(ctx, opts)
	if err != nil {
		return nil, nil, err
	}
	return session.Page(), session.Close, nil
}

// runFlags are shared by every command that drives the browser.
type runFlags struct {
	server    string
	headless  bool
	reportDir string
}

func addRunFlags(cmd *cobra.Command, rf *runFlags) {
	cmd.Flags().StringVarP(&rf.server, "server", "s", "", "Server name from the server list (defaults to "+config.EnvServerURL+")")
	cmd.Flags().BoolVar(&rf.headless, "headless", true, "Run the browser without a window")
	cmd.Flags().StringVar(&rf.reportDir, "report-dir", "", "Directory for run reports (overrides config)")
}

// loadConfig reads the configuration named by --config and applies the run
// flags that were set explicitly.
func loadConfig(cmd *cobra.Command, rf *runFlags) (*config.Config, error) {
	path := config.DefaultPath
	if f := cmd.Flag("config"); f != nil {
		path = f.Value.String()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if rf == nil {
		return cfg, nil
	}
	if cmd.Flags().Changed("headless") {
		cfg.Browser.Headless = rf.headless
	}
	if rf.reportDir != "" {
		cfg.ReportDir = rf.reportDir
	}
	return cfg, nil
}

// resolveServer picks the server a task runs against: a named entry of the
// server list, or the CATALOGPILOT_SERVER_URL environment when no name is
// given.
func resolveServer(fs afero.Fs, cfg *config.Config, name string) (servers.Server, error) {
	if name == "" {
		url := os.Getenv(config.EnvServerURL)
		if url == "" {
			return servers.Server{}, fmt.Errorf("no server given: use --server or set %s", config.EnvServerURL)
		}
		return servers.Server{
			URL:      url,
			Username: os.Getenv(config.EnvUsername),
			Password: os.Getenv(config.EnvPassword),
		}, nil
	}

	reg, err := servers.Load(fs, cfg.Servers, servers.NewCipher(config.Passphrase()))
	if err != nil {
		return servers.Server{}, err
	}
	s, ok := reg.Get(name)
	if !ok {
		return servers.Server{}, fmt.Errorf("unknown server %q (see 'catalogpilot servers list')", name)
	}
	return s, nil
}

// runTask logs in to server, runs t and writes the run report.
func runTask(ctx context.Context, out io.Writer, cfg *config.Config, server servers.Server, t task.Task) error {
	rep := report.New(t.Name(), server.Name, server.URL)

	err := execute(ctx, out, cfg, server, t)

	var summary any
	if s, ok := t.(task.Summarizer); ok {
		summary = s.Summary()
	}
	rep.Finish(err, summary)
	if cfg.ReportDir != "" {
		if path, saveErr := rep.Save(cfg.ReportDir); saveErr != nil {
			slog.Warn("Failed to write run report", "error", saveErr)
		} else {
			slog.Info("Run report written", "path", path)
		}
	}
	return err
}

func execute(ctx context.Context, out io.Writer, cfg *config.Config, server servers.Server, t task.Task) error {
	page, closePage, err := openPage(ctx, cfg.Browser)
	if err != nil {
		return err
	}
	defer func() {
		if err := closePage(); err != nil {
			slog.Warn("Failed to close browser", "error", err)
		}
	}()

	creds := browser.Credentials{Username: server.Username, Password: server.Password}
	if err := browser.Login(ctx, page, server.URL, creds, cfg.Login, cfg.Timeouts()); err != nil {
		return task.Setupf("%v", err)
	}

	sink := progress.NewAsync(progress.NewTerminal(out), 0)
	defer sink.Close()
	return task.Run(ctx, t, page, server.URL, sink)
}

// prepare loads the configuration and resolves the server for a task command.
func prepare(cmd *cobra.Command, rf *runFlags) (*config.Config, servers.Server, error) {
	cfg, err := loadConfig(cmd, rf)
	if err != nil {
		return nil, servers.Server{}, err
	}
	server, err := resolveServer(appFs, cfg, rf.server)
	if err != nil {
		return nil, servers.Server{}, err
	}
	return cfg, server, nil
}
