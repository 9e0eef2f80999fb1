package uploader

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/glazing-tools/catalogpilot/internal/browser"
	"github.com/glazing-tools/catalogpilot/internal/matcher"
	"github.com/glazing-tools/catalogpilot/internal/progress"
	"github.com/glazing-tools/catalogpilot/internal/retry"
)

// unmatchedColor marks rows no photo could be found for.
const unmatchedColor = "red"

// Tally counts the outcome of an upload run.
type Tally struct {
	Rows            int      `yaml:"rows"`
	AlreadyHadImage int      `yaml:"already_had_image"`
	Uploaded        int      `yaml:"uploaded"`
	Unmatched       int      `yaml:"unmatched"`
	Failed          int      `yaml:"failed"`
	UnmatchedNames  []string `yaml:"unmatched_names,omitempty"`
}

func (t Tally) String() string {
	return fmt.Sprintf("%d rows: %d uploaded, %d already had an image, %d unmatched, %d failed",
		t.Rows, t.Uploaded, t.AlreadyHadImage, t.Unmatched, t.Failed)
}

// Uploader matches rows against a fixed image pool and uploads the winners.
type Uploader struct {
	page     browser.Page
	layout   Layout
	matcher  *matcher.Matcher
	pool     []matcher.Candidate
	timeouts browser.Timeouts
}

func New(page browser.Page, l Layout, m *matcher.Matcher, pool []matcher.Candidate, timeouts browser.Timeouts) *Uploader {
	return &Uploader{page: page, layout: l, matcher: m, pool: pool, timeouts: timeouts}
}

// Run processes rows in order. Per-row failures are logged and counted.
func (u *Uploader) Run(ctx context.Context, rows []PartRow, sink progress.Sink) Tally {
	tally := Tally{Rows: len(rows)}
	sink.SetMainProgressMax(len(rows))

	for i, row := range rows {
		if ctx.Err() != nil {
			slog.Warn("Upload cancelled", "remaining", len(rows)-i)
			break
		}
		sink.UpdateStepProgress(i+1, row.Name)
		u.process(ctx, row, &tally)
		sink.UpdateMainProgress(i + 1)
	}

	sink.UpdateStatus(tally.String())
	slog.Info("Image upload finished",
		"rows", tally.Rows,
		"uploaded", tally.Uploaded,
		"already_had_image", tally.AlreadyHadImage,
		"unmatched", tally.Unmatched,
		"failed", tally.Failed)
	return tally
}

func (u *Uploader) process(ctx context.Context, row PartRow, tally *Tally) {
	if HasRealImage(row.Thumbnail, u.layout) {
		tally.AlreadyHadImage++
		return
	}

	rowSel := browser.Nth(u.layout.Row, row.Index)
	candidate, ok := u.matcher.Best(row.Name, u.pool)
	if !ok {
		tally.Unmatched++
		tally.UnmatchedNames = append(tally.UnmatchedNames, row.Name)
		slog.Warn("No image matches part", "name", row.Name, "row", row.Index)
		retry.BestEffort(ctx, "highlight unmatched row", func(ctx context.Context) error {
			return u.page.Highlight(ctx, rowSel, unmatchedColor)
		})
		return
	}

	slog.Debug("Matched image", "name", row.Name, "image", candidate.Path)
	err := u.upload(ctx, rowSel, candidate.Path)
	if err != nil {
		slog.Warn("Upload failed, retrying after scroll", "name", row.Name, "error", err)
		retry.BestEffort(ctx, "close upload dialog", func(ctx context.Context) error {
			return u.page.Press(ctx, "body", "Escape")
		})
		if scrollErr := u.page.ScrollIntoView(ctx, rowSel); scrollErr != nil {
			slog.Debug("Scroll into view failed", "row", row.Index, "error", scrollErr)
		}
		err = u.upload(ctx, rowSel, candidate.Path)
	}
	if err != nil {
		tally.Failed++
		slog.Error("Failed to upload image", "name", row.Name, "image", candidate.Path, "error", err)
		return
	}
	tally.Uploaded++
}

func (u *Uploader) upload(ctx context.Context, rowSel, imagePath string) error {
	if err := u.page.Click(ctx, browser.Within(rowSel, u.layout.UploadButton)); err != nil {
		return fmt.Errorf("failed to open upload dialog: %w", err)
	}
	if err := u.page.WaitAttached(ctx, u.layout.FileInput, u.timeouts.Short); err != nil {
		return fmt.Errorf("file input did not appear: %w", err)
	}
	if err := u.page.Clear(ctx, u.layout.FileInput); err != nil {
		return fmt.Errorf("failed to clear file input: %w", err)
	}
	if err := u.page.SetInputFiles(ctx, u.layout.FileInput, imagePath); err != nil {
		return fmt.Errorf("failed to set file: %w", err)
	}
	if err := u.page.WaitHidden(ctx, u.layout.UploadDialog, u.timeouts.Default); err != nil {
		return fmt.Errorf("upload dialog did not close: %w", err)
	}
	return nil
}
