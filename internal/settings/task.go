package settings

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/afero"

	"github.com/glazing-tools/catalogpilot/internal/browser"
	"github.com/glazing-tools/catalogpilot/internal/progress"
	"github.com/glazing-tools/catalogpilot/internal/task"
)

// BoardLayout locates the drawing-board tile list and the settings editor.
// Title and Open are relative to one tile.
type BoardLayout struct {
	ListPath string    `yaml:"list_path"`
	Tile     string    `yaml:"tile"`
	Title    string    `yaml:"title"`
	Open     string    `yaml:"open"`
	Editor   string    `yaml:"editor"`
	Save     string    `yaml:"save"`
	Close    string    `yaml:"close"`
	NewTile  string    `yaml:"new_tile"`
	NewTitle string    `yaml:"new_title"`
	Create   string    `yaml:"create"`
	Controls Selectors `yaml:"controls"`
}

// DefaultBoardLayout returns the selectors of the stock drawing board.
func DefaultBoardLayout() BoardLayout {
	return BoardLayout{
		ListPath: "/drawing-board/tiles",
		Tile:     "div.tile-list div.tile",
		Title:    "span.tile-title",
		Open:     "a.tile-settings",
		Editor:   "div.modal.tile-settings",
		Save:     "div.modal.tile-settings button.save",
		Close:    "div.modal.tile-settings button.close",
		NewTile:  "button#newTile",
		NewTitle: "div.modal.new-tile input[name=title]",
		Create:   "div.modal.new-tile button[type=submit]",
		Controls: DefaultSelectors(),
	}
}

type board struct {
	page     browser.Page
	layout   BoardLayout
	timeouts browser.Timeouts
}

func (b board) load(ctx context.Context, baseURL string) error {
	listURL := browser.JoinURL(baseURL, b.layout.ListPath)
	if err := b.page.Goto(ctx, listURL); err != nil {
		return task.Setupf("failed to open %s: %v", listURL, err)
	}
	if err := b.page.WaitVisible(ctx, b.layout.NewTile, b.timeouts.Default); err != nil {
		return task.Setupf("drawing board did not load: %v", err)
	}
	return nil
}

func (b board) titles(ctx context.Context) ([]string, error) {
	n, err := b.page.Count(ctx, b.layout.Tile)
	if err != nil {
		return nil, fmt.Errorf("failed to count tiles: %w", err)
	}
	titles := make([]string, 0, n)
	for i := 0; i < n; i++ {
		title, err := b.page.Text(ctx, browser.Within(browser.Nth(b.layout.Tile, i), b.layout.Title))
		if err != nil {
			return nil, fmt.Errorf("failed to read tile %d: %w", i, err)
		}
		titles = append(titles, strings.TrimSpace(title))
	}
	return titles, nil
}

// open opens the settings editor of the tile titled title.
func (b board) open(ctx context.Context, title string) error {
	tile := browser.RowWithLabel(b.layout.Tile, b.layout.Title, title)
	if err := b.page.Click(ctx, browser.Within(tile, b.layout.Open)); err != nil {
		return fmt.Errorf("failed to open tile %q: %w", title, err)
	}
	return b.page.WaitVisible(ctx, b.layout.Editor, b.timeouts.Default)
}

// create adds a tile called title and leaves its editor open.
func (b board) create(ctx context.Context, title string) error {
	if err := b.page.Click(ctx, b.layout.NewTile); err != nil {
		return fmt.Errorf("failed to start a new tile: %w", err)
	}
	if err := b.page.WaitVisible(ctx, b.layout.NewTitle, b.timeouts.Short); err != nil {
		return fmt.Errorf("new tile dialog did not appear: %w", err)
	}
	if err := b.page.Fill(ctx, b.layout.NewTitle, title); err != nil {
		return err
	}
	if err := b.page.Click(ctx, b.layout.Create); err != nil {
		return fmt.Errorf("failed to create tile %q: %w", title, err)
	}
	return b.page.WaitVisible(ctx, b.layout.Editor, b.timeouts.Default)
}

func (b board) close(ctx context.Context, button string) error {
	if err := b.page.Click(ctx, button); err != nil {
		return err
	}
	return b.page.WaitHidden(ctx, b.layout.Editor, b.timeouts.Default)
}

func (b board) tree() *PageTree {
	return NewPageTree(b.page, b.layout.Controls, b.timeouts)
}

// CaptureTask writes the settings of every tile to OutPath in the wide form.
// When Tile is set only that tile is captured, in the Property,Value form.
type CaptureTask struct {
	Fs       afero.Fs
	OutPath  string
	Tile     string
	Layout   BoardLayout
	Timeouts browser.Timeouts

	captured int
	failed   []string
}

var _ task.Task = (*CaptureTask)(nil)

func (t *CaptureTask) Name() string { return "settings-capture" }

func (t *CaptureTask) Summary() any {
	return struct {
		Captured int      `yaml:"tiles_captured"`
		Failed   []string `yaml:"tiles_failed,omitempty"`
		Output   string   `yaml:"output"`
	}{t.captured, t.failed, t.OutPath}
}

func (t *CaptureTask) Execute(ctx context.Context, page browser.Page, baseURL string, sink progress.Sink) error {
	fs := t.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	b := board{page: page, layout: t.Layout, timeouts: t.Timeouts}
	sink.ShowProgress("Capture settings", "Opening drawing board")
	if err := b.load(ctx, baseURL); err != nil {
		return err
	}

	titles := []string{t.Tile}
	if t.Tile == "" {
		var err error
		if titles, err = b.titles(ctx); err != nil {
			return task.Setupf("%v", err)
		}
	}
	sink.SetMainProgressMax(len(titles))

	c := NewCollection()
	for i, title := range titles {
		if ctx.Err() != nil {
			break
		}
		sink.UpdateStatus("Capturing " + title)
		entries, err := t.captureTile(ctx, b, title)
		if err != nil {
			slog.Error("Failed to capture tile", "tile", title, "error", err)
			t.failed = append(t.failed, title)
		} else {
			c.Add(title, entries)
			t.captured++
		}
		sink.UpdateMainProgress(i + 1)
	}

	if t.Tile != "" && len(c.Tiles) == 0 {
		return fmt.Errorf("failed to capture tile %q", t.Tile)
	}

	f, err := fs.Create(t.OutPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", t.OutPath, err)
	}
	defer f.Close()

	if t.Tile != "" {
		err = WriteProperties(f, c.Tiles[0].Entries)
	} else {
		err = WriteWide(f, c)
	}
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", t.OutPath, err)
	}

	sink.UpdateStatus(fmt.Sprintf("Captured %d tiles to %s", t.captured, t.OutPath))
	slog.Info("Settings captured", "tiles", t.captured, "failed", len(t.failed), "keys", len(c.Header()), "out", t.OutPath)
	return nil
}

func (t *CaptureTask) captureTile(ctx context.Context, b board, title string) (*Entries, error) {
	if err := b.open(ctx, title); err != nil {
		return nil, err
	}
	entries, err := Capture(ctx, b.tree())
	if closeErr := b.close(ctx, t.Layout.Close); closeErr != nil {
		slog.Warn("Failed to close settings editor", "tile", title, "error", closeErr)
	}
	return entries, err
}

// InjectTask replays a wide settings file by creating one tile per row. When
// Tile is set the file is read in the Property,Value form and applied to the
// existing tile of that title.
type InjectTask struct {
	Fs       afero.Fs
	InPath   string
	Tile     string
	Layout   BoardLayout
	Timeouts browser.Timeouts

	result InjectResult
	tiles  int
}

var _ task.Task = (*InjectTask)(nil)

func (t *InjectTask) Name() string { return "settings-inject" }

func (t *InjectTask) Summary() any {
	return struct {
		Tiles        int `yaml:"tiles"`
		InjectResult `yaml:",inline"`
	}{t.tiles, t.result}
}

// Result returns the combined counts of the last run.
func (t *InjectTask) Result() InjectResult {
	return t.result
}

func (t *InjectTask) read(fs afero.Fs) (*Collection, error) {
	f, err := fs.Open(t.InPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if t.Tile == "" {
		return ReadWide(f)
	}
	entries, err := ReadProperties(f)
	if err != nil {
		return nil, err
	}
	c := NewCollection()
	c.Add(t.Tile, entries)
	return c, nil
}

func (t *InjectTask) Execute(ctx context.Context, page browser.Page, baseURL string, sink progress.Sink) error {
	fs := t.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	c, err := t.read(fs)
	if err != nil {
		return task.Setupf("failed to read %s: %v", t.InPath, err)
	}
	if len(c.Tiles) == 0 {
		return task.Setupf("%s holds no tiles", t.InPath)
	}

	b := board{page: page, layout: t.Layout, timeouts: t.Timeouts}
	sink.ShowProgress("Inject settings", fmt.Sprintf("%d tiles", len(c.Tiles)))
	if err := b.load(ctx, baseURL); err != nil {
		return err
	}
	sink.SetMainProgressMax(len(c.Tiles))

	for i, tile := range c.Tiles {
		if ctx.Err() != nil {
			break
		}
		sink.UpdateStatus("Injecting " + tile.Title)

		var err error
		if t.Tile != "" {
			err = b.open(ctx, tile.Title)
		} else {
			err = b.create(ctx, tile.Title)
		}
		if err != nil {
			slog.Error("Failed to prepare tile", "tile", tile.Title, "error", err)
			t.result.Failed += tile.Entries.Len()
			t.result.Failures = append(t.result.Failures, fmt.Sprintf("%s: %v", tile.Title, err))
			sink.UpdateMainProgress(i + 1)
			continue
		}

		res := Inject(ctx, b.tree(), tile.Entries)
		t.result.add(res)
		t.tiles++
		slog.Info("Injected tile", "tile", tile.Title, "applied", res.Applied, "skipped", res.Skipped, "failed", res.Failed)

		if err := b.close(ctx, t.Layout.Save); err != nil {
			slog.Error("Failed to save tile", "tile", tile.Title, "error", err)
			t.result.Failures = append(t.result.Failures, fmt.Sprintf("%s: save: %v", tile.Title, err))
		}
		sink.UpdateMainProgress(i + 1)
	}

	sink.UpdateStatus(fmt.Sprintf("Injected %d tiles: %d applied, %d skipped, %d failed",
		t.tiles, t.result.Applied, t.result.Skipped, t.result.Failed))
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("injection interrupted: %w", err)
	}
	return nil
}
