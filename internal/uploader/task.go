package uploader

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/afero"

	"github.com/glazing-tools/catalogpilot/internal/browser"
	"github.com/glazing-tools/catalogpilot/internal/matcher"
	"github.com/glazing-tools/catalogpilot/internal/progress"
	"github.com/glazing-tools/catalogpilot/internal/task"
)

// Task uploads photos from ImageDir to one part list.
type Task struct {
	Family     string
	Fs         afero.Fs
	ImageDir   string
	Layout     Layout
	Policy     matcher.Policy
	Exclusions []string
	Timeouts   browser.Timeouts

	tally Tally
}

var _ task.Task = (*Task)(nil)

func (t *Task) Name() string {
	return "upload-images-" + t.Family
}

func (t *Task) Summary() any {
	return t.tally
}

// Tally returns the counts of the last run.
func (t *Task) Tally() Tally {
	return t.tally
}

func (t *Task) Execute(ctx context.Context, page browser.Page, baseURL string, sink progress.Sink) error {
	sink.ShowProgress("Upload images", "Scanning "+t.ImageDir)

	fs := t.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	pool, err := matcher.Scan(fs, t.ImageDir)
	if err != nil {
		return task.Setupf("%v", err)
	}
	if len(pool) == 0 {
		return task.Setupf("no images found in %s", t.ImageDir)
	}

	listURL := browser.JoinURL(baseURL, t.Layout.ListPath)
	if err := page.Goto(ctx, listURL); err != nil {
		return task.Setupf("failed to open %s: %v", listURL, err)
	}
	if err := page.WaitVisible(ctx, t.Layout.Row, t.Timeouts.Default); err != nil {
		return task.Setupf("part list did not load: %v", err)
	}

	html, err := page.Content(ctx)
	if err != nil {
		return fmt.Errorf("failed to read part list: %w", err)
	}
	rows, err := ParseRows(html, t.Layout)
	if err != nil {
		return err
	}
	slog.Info("Found part rows", "rows", len(rows), "images", len(pool), "policy", t.Policy)

	m := matcher.New(t.Policy, t.Exclusions)
	t.tally = New(page, t.Layout, m, pool, t.Timeouts).Run(ctx, rows, sink)
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("upload interrupted: %w", err)
	}
	return nil
}
