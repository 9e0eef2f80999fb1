package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/glazing-tools/catalogpilot/internal/browser"
	"github.com/glazing-tools/catalogpilot/internal/browser/browsertest"
	"github.com/glazing-tools/catalogpilot/internal/config"
	"github.com/glazing-tools/catalogpilot/internal/importer"
	"github.com/glazing-tools/catalogpilot/internal/servers"
	"github.com/glazing-tools/catalogpilot/internal/task"
)

// execRoot runs the root command with args and returns its output.
func execRoot(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func useMemFs(t *testing.T) afero.Fs {
	t.Helper()
	prev := appFs
	appFs = afero.NewMemMapFs()
	t.Cleanup(func() { appFs = prev })
	return appFs
}

func usePage(t *testing.T, page *browsertest.Page) {
	t.Helper()
	prev := openPage
	openPage = func(ctx context.Context, opts browser.Options) (browser.Page, func() error, error) {
		return page, func() error { return nil }, nil
	}
	t.Cleanup(func() { openPage = prev })
}

func TestTasksCmd(t *testing.T) {
	out, err := execRoot(t, "", "tasks")
	if err != nil {
		t.Fatalf("tasks failed: %v", err)
	}
	for _, name := range []string{"import-glass", "import-timber", "upload-images-ironmongery", "settings-inject", "timing"} {
		if !strings.Contains(out, name) {
			t.Errorf("Expected %s in task list, got %q", name, out)
		}
	}
	if strings.Contains(out, "upload-images-timber") {
		t.Error("Timber has no image upload")
	}
}

func TestServersCmd(t *testing.T) {
	fs := useMemFs(t)
	t.Setenv(config.EnvPassphrase, "test passphrase")

	out, err := execRoot(t, "", "servers", "add", "live", "--url", "https://crm.example.com", "--username", "ann", "--password", "pw")
	if err != nil {
		t.Fatalf("servers add failed: %v", err)
	}
	if !strings.Contains(out, "Added server live") {
		t.Errorf("Unexpected output %q", out)
	}

	raw, err := afero.ReadFile(fs, "servers.csv")
	if err != nil {
		t.Fatalf("Expected server list to be written: %v", err)
	}
	if strings.Contains(string(raw), ",pw") || !strings.Contains(string(raw), servers.EncryptedPrefix) {
		t.Errorf("Expected an encrypted password, got %q", raw)
	}

	reg, err := servers.Load(fs, "servers.csv", servers.NewCipher("test passphrase"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if s, ok := reg.Get("LIVE"); !ok || s.Password != "pw" || s.Username != "ann" {
		t.Errorf("Unexpected stored server %+v", s)
	}

	out, err = execRoot(t, "", "servers", "list")
	if err != nil || !strings.Contains(out, "https://crm.example.com") {
		t.Errorf("Expected server in list, got %q (%v)", out, err)
	}

	if _, err := execRoot(t, "", "servers", "remove", "live"); err != nil {
		t.Fatalf("servers remove failed: %v", err)
	}
	out, _ = execRoot(t, "", "servers", "list")
	if !strings.Contains(out, "No servers saved") {
		t.Errorf("Expected empty list, got %q", out)
	}
	if _, err := execRoot(t, "", "servers", "remove", "live"); err == nil {
		t.Error("Expected error removing an unknown server")
	}
}

func TestServersAddPrompts(t *testing.T) {
	fs := useMemFs(t)

	out, err := execRoot(t, "staging\nhttps://staging.example.com\nbob\nsecret\n", "servers", "add")
	if err != nil {
		t.Fatalf("servers add failed: %v", err)
	}
	if !strings.Contains(out, "Added server staging (https://staging.example.com)") {
		t.Errorf("Unexpected output %q", out)
	}

	reg, err := servers.Load(fs, "servers.csv", servers.NewCipher(""))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if s, ok := reg.Get("staging"); !ok || s.Password != "secret" {
		t.Errorf("Unexpected stored server %+v", s)
	}
}

func TestResolveServer(t *testing.T) {
	fs := afero.NewMemMapFs()
	cfg := config.Default()
	c := servers.NewCipher("")

	reg := servers.NewRegistry()
	reg.Set(servers.Server{Name: "Live", URL: "https://crm.example.com", Username: "ann", Password: "pw"})
	if err := servers.Save(fs, cfg.Servers, reg, c); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	s, err := resolveServer(fs, cfg, "live")
	if err != nil || s.URL != "https://crm.example.com" || s.Password != "pw" {
		t.Errorf("Unexpected server %+v (%v)", s, err)
	}
	if _, err := resolveServer(fs, cfg, "nope"); err == nil {
		t.Error("Expected error for unknown server")
	}

	t.Setenv(config.EnvServerURL, "")
	if _, err := resolveServer(fs, cfg, ""); err == nil {
		t.Error("Expected error when no server is given")
	}

	t.Setenv(config.EnvServerURL, "https://env.example.com")
	t.Setenv(config.EnvUsername, "env-user")
	t.Setenv(config.EnvPassword, "env-pass")
	s, err = resolveServer(fs, cfg, "")
	if err != nil || s.URL != "https://env.example.com" || s.Username != "env-user" || s.Password != "env-pass" {
		t.Errorf("Unexpected env server %+v (%v)", s, err)
	}
}

func writeGlassCSV(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "glass.csv")
	content := "partNo,partName,unit,cost,obscure\nG-1,Clear 4mm,each,12.50,no\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write CSV: %v", err)
	}
	return path
}

func readReport(t *testing.T, dir string) map[string]any {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) != 1 {
		t.Fatalf("Expected one report in %s, got %v (%v)", dir, entries, err)
	}
	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	if err != nil {
		t.Fatalf("Failed to read report: %v", err)
	}
	var rep map[string]any
	if err := yaml.Unmarshal(data, &rep); err != nil {
		t.Fatalf("Failed to parse report: %v", err)
	}
	return rep
}

func TestImportCmd(t *testing.T) {
	useMemFs(t)
	t.Setenv(config.EnvServerURL, "https://crm.example.com")
	t.Setenv(config.EnvUsername, "ann")
	t.Setenv(config.EnvPassword, "pw")

	layout := config.Default().Import.Glass
	page := browsertest.New()
	page.OptionLists[layout.Fields[importer.FieldUnit]] = []string{"each", "pair"}
	page.OptionLists[layout.Fields[importer.FieldAllocatedUnit]] = []string{"each", "pair"}
	usePage(t, page)

	reports := filepath.Join(t.TempDir(), "reports")
	out, err := execRoot(t, "", "import", "glass", "--csv", writeGlassCSV(t), "--report-dir", reports)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if !strings.Contains(out, "1 of 1 imported, 0 failed") {
		t.Errorf("Expected tally in output, got %q", out)
	}
	if page.Values[`input[name=username]`] != "ann" {
		t.Errorf("Expected login with env credentials, got %v", page.Values)
	}
	if page.Values[layout.Fields[importer.FieldPartNumber]] != "G-1" {
		t.Errorf("Expected part number to be filled, got %v", page.Values)
	}

	rep := readReport(t, reports)
	if rep["task"] != "import-glass" || rep["status"] != "ok" {
		t.Errorf("Unexpected report %v", rep)
	}
	summary, _ := rep["summary"].(map[string]any)
	if summary["succeeded"] != 1 {
		t.Errorf("Expected succeeded 1 in report summary, got %v", summary)
	}
}

func TestImportCmdLoginRejected(t *testing.T) {
	useMemFs(t)
	t.Setenv(config.EnvServerURL, "https://crm.example.com")

	page := browsertest.New()
	page.FailNext("url", "/dashboard", browser.ErrTimeout)
	usePage(t, page)

	reports := filepath.Join(t.TempDir(), "reports")
	_, err := execRoot(t, "", "import", "glass", "--csv", writeGlassCSV(t), "--report-dir", reports)
	if !errors.Is(err, task.ErrSetup) {
		t.Fatalf("Expected setup error, got %v", err)
	}
	if len(page.Ops("click")) != 1 {
		t.Errorf("Expected only the login click, got %d clicks", len(page.Ops("click")))
	}

	rep := readReport(t, reports)
	if rep["status"] != "failed" {
		t.Errorf("Expected failed report, got %v", rep)
	}
}

func TestImportCmdRequiresCSV(t *testing.T) {
	if _, err := execRoot(t, "", "import", "timber"); err == nil {
		t.Error("Expected error without --csv")
	}
}
