package importer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/glazing-tools/catalogpilot/internal/browser"
	"github.com/glazing-tools/catalogpilot/internal/catalog"
	"github.com/glazing-tools/catalogpilot/internal/progress"
	"github.com/glazing-tools/catalogpilot/internal/task"
)

// Task imports one CSV file of a single family.
type Task struct {
	Family  catalog.Family
	CSVPath string
	Layout  Layout
	Options Options

	tally     Tally
	malformed int
}

var _ task.Task = (*Task)(nil)

func (t *Task) Name() string {
	return "import-" + string(t.Family)
}

// Summary returns the tally of the last run together with the number of CSV
// rows that were rejected before import.
func (t *Task) Summary() any {
	return struct {
		Tally         `yaml:",inline"`
		MalformedRows int `yaml:"malformed_rows"`
	}{t.tally, t.malformed}
}

// Tally returns the counts of the last run.
func (t *Task) Tally() Tally {
	return t.tally
}

func (t *Task) load() ([]catalog.Item, int, error) {
	switch t.Family {
	case catalog.FamilyGlass:
		b, err := catalog.LoadGlass(t.CSVPath)
		if err != nil {
			return nil, 0, err
		}
		return catalog.Items(b.Items), len(b.Malformed), nil
	case catalog.FamilyIronmongery:
		b, err := catalog.LoadIronmongery(t.CSVPath)
		if err != nil {
			return nil, 0, err
		}
		return catalog.Items(b.Items), len(b.Malformed), nil
	case catalog.FamilyTimber:
		b, err := catalog.LoadTimber(t.CSVPath)
		if err != nil {
			return nil, 0, err
		}
		return catalog.Items(b.Items), len(b.Malformed), nil
	}
	return nil, 0, fmt.Errorf("unknown catalog family %q", t.Family)
}

func (t *Task) Execute(ctx context.Context, page browser.Page, baseURL string, sink progress.Sink) error {
	sink.ShowProgress("Import "+string(t.Family), "Reading "+t.CSVPath)

	items, malformed, err := t.load()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return task.Setupf("no CSV file at %s", t.CSVPath)
		}
		return task.Setupf("%v", err)
	}
	t.malformed = malformed
	if len(items) == 0 {
		return task.Setupf("%s contains no importable rows", t.CSVPath)
	}
	slog.Info("Loaded catalog items", "family", t.Family, "items", len(items), "malformed", malformed)

	listURL := browser.JoinURL(baseURL, t.Layout.ListPath)
	if err := page.Goto(ctx, listURL); err != nil {
		return task.Setupf("failed to open %s: %v", listURL, err)
	}
	if err := page.WaitVisible(ctx, t.Layout.AddButton, t.Options.Timeouts.Default); err != nil {
		return task.Setupf("part list did not load: %v", err)
	}

	t.tally = New(page, t.Layout, t.Options).Run(ctx, items, sink)
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("import interrupted: %w", err)
	}
	return nil
}
