// Package timing measures how long vendor pages take to become usable.
package timing

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/glazing-tools/catalogpilot/internal/browser"
	"github.com/glazing-tools/catalogpilot/internal/progress"
	"github.com/glazing-tools/catalogpilot/internal/task"
)

// Target is a page to time. The page counts as loaded once Ready is visible.
type Target struct {
	Name  string `yaml:"name"`
	Path  string `yaml:"path"`
	Ready string `yaml:"ready"`
}

// DefaultTargets returns the pages timed when none are configured.
func DefaultTargets() []Target {
	return []Target{
		{Name: "dashboard", Path: "/dashboard", Ready: "div.dashboard"},
		{Name: "glass", Path: "/stock/glass", Ready: "table.parts"},
		{Name: "ironmongery", Path: "/stock/ironmongery", Ready: "table.parts"},
		{Name: "drawing-board", Path: "/drawing-board/tiles", Ready: "div.tile-list"},
	}
}

// Sample is one measured page load, as stored in the Parquet export.
type Sample struct {
	Page       string `parquet:"page"`
	Iteration  int32  `parquet:"iteration"`
	StartedAt  int64  `parquet:"started_at_ms"`
	DurationUs int64  `parquet:"duration_us"`
	Error      string `parquet:"error"`
}

// Duration returns the measured load time.
func (s Sample) Duration() time.Duration {
	return time.Duration(s.DurationUs) * time.Microsecond
}

// WriteSamples writes samples to a Parquet file, creating parent directories.
func WriteSamples(path string, samples []Sample) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := parquet.WriteFile(path, samples); err != nil {
		return fmt.Errorf("failed to write parquet: %w", err)
	}
	return nil
}

// ReadSamples loads a file written by WriteSamples.
func ReadSamples(path string) ([]Sample, error) {
	samples, err := parquet.ReadFile[Sample](path)
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet: %w", err)
	}
	return samples, nil
}

// Task loads every target Iterations times.
type Task struct {
	Targets    []Target
	Iterations int
	OutPath    string
	Timeouts   browser.Timeouts

	// Now defaults to time.Now.
	Now func() time.Time

	samples   []Sample
	summaries []Summary
}

var _ task.Task = (*Task)(nil)

func (t *Task) Name() string { return "timing" }

func (t *Task) Summary() any {
	return struct {
		Output string    `yaml:"output,omitempty"`
		Pages  []Summary `yaml:"pages"`
	}{t.OutPath, t.summaries}
}

// Summaries returns the aggregated results of the last run.
func (t *Task) Summaries() []Summary {
	return t.summaries
}

func (t *Task) Execute(ctx context.Context, page browser.Page, baseURL string, sink progress.Sink) error {
	if len(t.Targets) == 0 {
		return task.Setupf("no pages configured for timing")
	}
	iterations := t.Iterations
	if iterations < 1 {
		iterations = 1
	}
	now := t.Now
	if now == nil {
		now = time.Now
	}

	sink.ShowProgress("Timing", fmt.Sprintf("%d pages x %d", len(t.Targets), iterations))
	sink.SetMainProgressMax(len(t.Targets) * iterations)
	sink.SetStepProgressMax(iterations)

	t.samples = t.samples[:0]
	done := 0
	for _, target := range t.Targets {
		for i := 0; i < iterations; i++ {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("timing interrupted: %w", err)
			}
			sink.UpdateStepProgress(i+1, target.Name)

			s := t.measure(ctx, page, baseURL, target, i, now)
			if s.Error != "" {
				slog.Warn("Page load failed", "page", target.Name, "iteration", i, "error", s.Error)
			} else {
				slog.Debug("Page loaded", "page", target.Name, "iteration", i, "duration", s.Duration())
			}
			t.samples = append(t.samples, s)

			done++
			sink.UpdateMainProgress(done)
		}
	}

	t.summaries = Summarize(t.samples)
	for _, s := range t.summaries {
		sink.UpdateStatus(fmt.Sprintf("%s: median %s, p95 %s (%d ok, %d failed)",
			s.Page, round(s.Median), round(s.P95), s.Count, s.Failures))
	}

	if t.OutPath != "" {
		if err := WriteSamples(t.OutPath, t.samples); err != nil {
			return err
		}
		slog.Info("Timing samples written", "path", t.OutPath, "samples", len(t.samples))
	}
	return nil
}

func (t *Task) measure(ctx context.Context, page browser.Page, baseURL string, target Target, iteration int, now func() time.Time) Sample {
	start := now()
	s := Sample{
		Page:      target.Name,
		Iteration: int32(iteration),
		StartedAt: start.UnixMilli(),
	}

	err := page.Goto(ctx, browser.JoinURL(baseURL, target.Path))
	if err == nil && target.Ready != "" {
		err = page.WaitVisible(ctx, target.Ready, t.Timeouts.Default)
	}
	s.DurationUs = now().Sub(start).Microseconds()
	if err != nil {
		s.Error = err.Error()
	}
	return s
}
