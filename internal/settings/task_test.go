package settings

import (
	"context"
	"errors"
	"testing"

	"github.com/spf13/afero"

	"github.com/glazing-tools/catalogpilot/internal/browser"
	"github.com/glazing-tools/catalogpilot/internal/browser/browsertest"
	"github.com/glazing-tools/catalogpilot/internal/progress"
	"github.com/glazing-tools/catalogpilot/internal/task"
)

// boardPage scripts a board with one tile whose editor has a single tab and a
// single text row.
func boardPage(l BoardLayout) *browsertest.Page {
	sel := l.Controls
	page := browsertest.New()

	page.Counts[l.Tile] = 1
	page.Texts[browser.Within(browser.Nth(l.Tile, 0), l.Title)] = "Casement"

	page.Counts[sel.Tab] = 1
	page.Texts[browser.Nth(sel.Tab, 0)] = "Frame"

	rows := browser.Within(sel.Pane, sel.Row)
	row := browser.Nth(rows, 0)
	page.Counts[rows] = 1
	page.Texts[browser.Within(row, sel.Label)] = "Width"
	page.Counts[browser.Within(row, sel.Text)] = 1
	page.Values[browser.Within(row, sel.Text)] = "100"

	page.Counts[browser.RowWithLabel(rows, sel.Label, "Width")] = 1
	return page
}

func TestCaptureTask(t *testing.T) {
	l := DefaultBoardLayout()
	page := boardPage(l)
	fs := afero.NewMemMapFs()

	tk := &CaptureTask{Fs: fs, OutPath: "/out/tiles.csv", Layout: l, Timeouts: browser.DefaultTimeouts()}
	if err := fs.MkdirAll("/out", 0755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}
	if err := tk.Execute(context.Background(), page, "https://crm.example.com", progress.Nop{}); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	data, err := afero.ReadFile(fs, "/out/tiles.csv")
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}
	want := "\"Drawing Title\",\"Frame | Width | Text Field\"\n\"Casement\",\"100\"\n"
	if string(data) != want {
		t.Errorf("Expected %q, got %q", want, string(data))
	}
	if !page.Called("hidden", l.Editor) {
		t.Error("Expected the editor to be closed after capture")
	}
}

func TestCaptureTaskSingleTile(t *testing.T) {
	l := DefaultBoardLayout()
	page := boardPage(l)
	fs := afero.NewMemMapFs()

	tk := &CaptureTask{Fs: fs, OutPath: "/tile.csv", Tile: "Casement", Layout: l, Timeouts: browser.DefaultTimeouts()}
	if err := tk.Execute(context.Background(), page, "https://crm.example.com", progress.Nop{}); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	data, err := afero.ReadFile(fs, "/tile.csv")
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}
	want := "\"Property\",\"Value\"\n\"Frame | Width | Text Field\",\"100\"\n"
	if string(data) != want {
		t.Errorf("Expected %q, got %q", want, string(data))
	}
}

func TestInjectTask(t *testing.T) {
	l := DefaultBoardLayout()
	page := boardPage(l)
	fs := afero.NewMemMapFs()
	csv := "\"Drawing Title\",\"Frame | Width | Text Field\",\"Frame | Colour | Dropdown\"\n" +
		"\"Sash\",\"120\",\"White\"\n"
	if err := afero.WriteFile(fs, "/in.csv", []byte(csv), 0644); err != nil {
		t.Fatalf("Failed to create input: %v", err)
	}

	tk := &InjectTask{Fs: fs, InPath: "/in.csv", Layout: l, Timeouts: browser.DefaultTimeouts()}
	if err := tk.Execute(context.Background(), page, "https://crm.example.com", progress.Nop{}); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	fills := page.Ops("fill")
	if len(fills) != 2 || fills[0].Selector != l.NewTitle || fills[0].Value != "Sash" || fills[1].Value != "120" {
		t.Errorf("Expected title then width filled, got %+v", fills)
	}
	res := tk.Result()
	if res.Applied != 1 || res.Skipped != 1 || res.Failed != 0 {
		t.Errorf("Expected 1 applied and the missing colour skipped, got %+v", res)
	}
	if !page.Called("click", l.Save) {
		t.Error("Expected the tile to be saved")
	}
}

func TestInjectTaskMissingFile(t *testing.T) {
	tk := &InjectTask{Fs: afero.NewMemMapFs(), InPath: "/missing.csv", Layout: DefaultBoardLayout()}
	err := tk.Execute(context.Background(), browsertest.New(), "https://crm.example.com", progress.Nop{})
	if !errors.Is(err, task.ErrSetup) {
		t.Errorf("Expected ErrSetup, got %v", err)
	}
}
