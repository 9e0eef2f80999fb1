// Package config loads catalogpilot.yaml and the CATALOGPILOT_* environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/glazing-tools/catalogpilot/internal/browser"
	"github.com/glazing-tools/catalogpilot/internal/catalog"
	"github.com/glazing-tools/catalogpilot/internal/importer"
	"github.com/glazing-tools/catalogpilot/internal/matcher"
	"github.com/glazing-tools/catalogpilot/internal/retry"
	"github.com/glazing-tools/catalogpilot/internal/settings"
	"github.com/glazing-tools/catalogpilot/internal/timing"
	"github.com/glazing-tools/catalogpilot/internal/uploader"
)

// DefaultPath is read when --config is not given.
const DefaultPath = "catalogpilot.yaml"

// Environment variables.
const (
	EnvServerURL  = "CATALOGPILOT_SERVER_URL"
	EnvUsername   = "CATALOGPILOT_USERNAME"
	EnvPassword   = "CATALOGPILOT_PASSWORD"
	EnvPassphrase = "CATALOGPILOT_PASSPHRASE"
	EnvHeadless   = "CATALOGPILOT_HEADLESS"
)

type Config struct {
	Browser   browser.Options      `yaml:"browser"`
	Retry     retry.Policy         `yaml:"retry"`
	Login     browser.LoginForm    `yaml:"login"`
	Import    Import               `yaml:"import"`
	Images    Images               `yaml:"images"`
	Settings  settings.BoardLayout `yaml:"settings"`
	Timing    Timing               `yaml:"timing"`
	Servers   string               `yaml:"servers"`
	ReportDir string               `yaml:"report_dir"`
}

type Import struct {
	StrictUnits bool            `yaml:"strict_units"`
	Glass       importer.Layout `yaml:"glass"`
	Ironmongery importer.Layout `yaml:"ironmongery"`
	Timber      importer.Layout `yaml:"timber"`
}

// Layout returns the dialog layout of family.
func (i Import) Layout(family catalog.Family) (importer.Layout, error) {
	switch family {
	case catalog.FamilyGlass:
		return i.Glass, nil
	case catalog.FamilyIronmongery:
		return i.Ironmongery, nil
	case catalog.FamilyTimber:
		return i.Timber, nil
	}
	return importer.Layout{}, fmt.Errorf("unknown catalog family %q", family)
}

// ImageFamily configures photo matching for one part list.
type ImageFamily struct {
	Policy     matcher.Policy  `yaml:"policy"`
	Exclusions []string        `yaml:"exclusions"`
	Layout     uploader.Layout `yaml:"layout"`
}

type Images struct {
	Glass       ImageFamily `yaml:"glass"`
	Ironmongery ImageFamily `yaml:"ironmongery"`
}

// Family returns the image settings of family. Timber rules carry no photos.
func (i Images) Family(family catalog.Family) (ImageFamily, error) {
	switch family {
	case catalog.FamilyGlass:
		return i.Glass, nil
	case catalog.FamilyIronmongery:
		return i.Ironmongery, nil
	}
	return ImageFamily{}, fmt.Errorf("no image upload for family %q", family)
}

type Timing struct {
	Iterations int             `yaml:"iterations"`
	Pages      []timing.Target `yaml:"pages"`
	OutDir     string          `yaml:"out_dir"`
}

// Default returns a configuration that drives the stock vendor UI.
func Default() *Config {
	layouts := importer.DefaultLayouts()
	return &Config{
		Browser: browser.Options{
			Headless: true,
			Width:    1600,
			Height:   1000,
			Timeouts: browser.DefaultTimeouts(),
		},
		Retry: retry.DefaultPolicy(),
		Login: browser.LoginForm{
			Path:         "/login",
			Username:     "input[name=username]",
			Password:     "input[name=password]",
			Submit:       "button[type=submit]",
			SuccessURL:   "/dashboard",
			ErrorMessage: "div.alert-danger",
		},
		Import: Import{
			Glass:       layouts[catalog.FamilyGlass],
			Ironmongery: layouts[catalog.FamilyIronmongery],
			Timber:      layouts[catalog.FamilyTimber],
		},
		Images: Images{
			Glass: ImageFamily{
				Policy:     matcher.PolicyLooseAny,
				Exclusions: matcher.DefaultExclusions,
				Layout:     uploader.DefaultLayout("/stock/glass"),
			},
			Ironmongery: ImageFamily{
				Policy:     matcher.PolicyLooseHalf,
				Exclusions: matcher.DefaultExclusions,
				Layout:     uploader.DefaultLayout("/stock/ironmongery"),
			},
		},
		Settings: settings.DefaultBoardLayout(),
		Timing: Timing{
			Iterations: 5,
			Pages:      timing.DefaultTargets(),
			OutDir:     "timings",
		},
		Servers:   "servers.csv",
		ReportDir: "reports",
	}
}

// Load overlays the YAML file at path on Default and applies the
// environment. A missing file is not an error when path is DefaultPath.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist) && path == DefaultPath:
		slog.Debug("No config file, using defaults", "path", path)
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
		slog.Debug("Loaded config", "path", path)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvHeadless); v != "" {
		headless, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvHeadless, err)
		}
		c.Browser.Headless = headless
	}
	return nil
}

// Validate rejects settings no task can run with.
func (c *Config) Validate() error {
	for name, fam := range map[string]ImageFamily{"glass": c.Images.Glass, "ironmongery": c.Images.Ironmongery} {
		if _, err := matcher.ParsePolicy(string(fam.Policy)); err != nil {
			return fmt.Errorf("images.%s.policy: %w", name, err)
		}
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be at least 1, got %d", c.Retry.MaxAttempts)
	}
	if c.Browser.Timeouts.Short <= 0 || c.Browser.Timeouts.Default <= 0 {
		return fmt.Errorf("browser timeouts must be positive")
	}
	return nil
}

// Timeouts returns the configured wait bounds.
func (c *Config) Timeouts() browser.Timeouts {
	return c.Browser.Timeouts
}

// ImportOptions builds importer options from the configuration.
func (c *Config) ImportOptions() importer.Options {
	return importer.Options{
		Retry:       c.Retry,
		Sleeper:     retry.RealSleeper{},
		Timeouts:    c.Browser.Timeouts,
		StrictUnits: c.Import.StrictUnits,
	}
}

// TimingOutPath returns the Parquet file a timing run started at t writes.
func (c *Config) TimingOutPath(t time.Time) string {
	if c.Timing.OutDir == "" {
		return ""
	}
	return filepath.Join(c.Timing.OutDir, "timing-"+t.Format("2006-01-02_15-04-05")+".parquet")
}

// Passphrase returns the server list passphrase from the environment.
func Passphrase() string {
	return os.Getenv(EnvPassphrase)
}
