package timing

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/glazing-tools/catalogpilot/internal/browser"
	"github.com/glazing-tools/catalogpilot/internal/browser/browsertest"
	"github.com/glazing-tools/catalogpilot/internal/progress"
	"github.com/glazing-tools/catalogpilot/internal/task"
)

func ms(n int64) int64 { return n * 1000 }

func TestSummarize(t *testing.T) {
	samples := []Sample{
		{Page: "glass", DurationUs: ms(300)},
		{Page: "dashboard", DurationUs: ms(100)},
		{Page: "glass", DurationUs: ms(100)},
		{Page: "glass", DurationUs: ms(200)},
		{Page: "glass", Error: "timeout"},
		{Page: "glass", DurationUs: ms(1000)},
	}

	got := Summarize(samples)
	if len(got) != 2 {
		t.Fatalf("Expected 2 summaries, got %d", len(got))
	}
	if got[0].Page != "glass" || got[1].Page != "dashboard" {
		t.Errorf("Expected pages in order of first appearance, got %s, %s", got[0].Page, got[1].Page)
	}

	glass := got[0]
	if glass.Count != 4 || glass.Failures != 1 {
		t.Errorf("Expected 4 ok and 1 failure, got %d and %d", glass.Count, glass.Failures)
	}
	if glass.Min != 100*time.Millisecond || glass.Max != time.Second {
		t.Errorf("Unexpected min/max %v/%v", glass.Min, glass.Max)
	}
	if glass.Mean != 400*time.Millisecond {
		t.Errorf("Expected mean 400ms, got %v", glass.Mean)
	}
	if glass.Median != 200*time.Millisecond {
		t.Errorf("Expected median 200ms, got %v", glass.Median)
	}
	if glass.P95 != time.Second {
		t.Errorf("Expected p95 1s, got %v", glass.P95)
	}
}

func TestSummarizeAllFailed(t *testing.T) {
	got := Summarize([]Sample{{Page: "x", Error: "boom"}})
	if len(got) != 1 || got[0].Count != 0 || got[0].Failures != 1 || got[0].Mean != 0 {
		t.Errorf("Unexpected summary %+v", got)
	}
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	PrintSummary(&buf, []Summary{{Page: "a-very-long-page-name-that-overflows", Count: 2, Median: 1500 * time.Microsecond}})
	out := buf.String()
	if !strings.Contains(out, "PAGE TIMINGS") {
		t.Error("Expected a title")
	}
	if !strings.Contains(out, "a-very-long-page-name-t~") {
		t.Errorf("Expected truncated page name, got %q", out)
	}
	if !strings.Contains(out, "2ms") {
		t.Errorf("Expected median rounded to milliseconds, got %q", out)
	}
}

// fakeClock advances by step on every call.
type fakeClock struct {
	t    time.Time
	step time.Duration
}

func (c *fakeClock) Now() time.Time {
	now := c.t
	c.t = c.t.Add(c.step)
	return now
}

func TestTaskExecute(t *testing.T) {
	page := browsertest.New()
	page.FailNext("visible", "table.parts", nil, errors.New("timed out"))

	clock := &fakeClock{t: time.Unix(1700000000, 0), step: 250 * time.Millisecond}
	out := filepath.Join(t.TempDir(), "timings", "run.parquet")
	tk := &Task{
		Targets:    []Target{{Name: "glass", Path: "/stock/glass", Ready: "table.parts"}},
		Iterations: 3,
		OutPath:    out,
		Timeouts:   browser.DefaultTimeouts(),
		Now:        clock.Now,
	}

	rec := &progress.Recorder{}
	if err := tk.Execute(context.Background(), page, "https://crm.example.com", rec); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if len(page.Ops("goto")) != 3 {
		t.Errorf("Expected 3 page loads, got %d", len(page.Ops("goto")))
	}
	sums := tk.Summaries()
	if len(sums) != 1 || sums[0].Count != 2 || sums[0].Failures != 1 {
		t.Fatalf("Unexpected summaries %+v", sums)
	}
	if sums[0].Median != 250*time.Millisecond {
		t.Errorf("Expected 250ms per load, got %v", sums[0].Median)
	}
	if ev, ok := rec.Last("main"); !ok || ev.Value != 3 {
		t.Errorf("Expected main progress 3, got %+v", ev)
	}

	samples, err := ReadSamples(out)
	if err != nil {
		t.Fatalf("ReadSamples failed: %v", err)
	}
	if len(samples) != 3 {
		t.Fatalf("Expected 3 samples on disk, got %d", len(samples))
	}
	if samples[1].Error == "" || samples[1].Iteration != 1 {
		t.Errorf("Expected the second sample to record the failure, got %+v", samples[1])
	}
	if samples[0].StartedAt != time.Unix(1700000000, 0).UnixMilli() {
		t.Errorf("Unexpected start time %d", samples[0].StartedAt)
	}
}

func TestTaskNoTargets(t *testing.T) {
	err := (&Task{}).Execute(context.Background(), browsertest.New(), "", progress.Nop{})
	if !errors.Is(err, task.ErrSetup) {
		t.Errorf("Expected ErrSetup, got %v", err)
	}
}
