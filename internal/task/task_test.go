package task

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/glazing-tools/catalogpilot/internal/browser"
	"github.com/glazing-tools/catalogpilot/internal/browser/browsertest"
	"github.com/glazing-tools/catalogpilot/internal/progress"
)

type funcTask struct {
	name string
	fn   func(ctx context.Context, page browser.Page) error
}

func (f funcTask) Name() string { return f.name }

func (f funcTask) Execute(ctx context.Context, page browser.Page, baseURL string, sink progress.Sink) error {
	return f.fn(ctx, page)
}

func TestRunSuccess(t *testing.T) {
	rec := &progress.Recorder{}
	called := false
	tk := funcTask{name: "ok", fn: func(ctx context.Context, page browser.Page) error {
		called = true
		return page.Goto(ctx, "https://crm.example.com/parts")
	}}

	page := browsertest.New()
	if err := Run(context.Background(), tk, page, "https://crm.example.com", rec); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !called {
		t.Error("Expected task to execute")
	}
	if _, ok := rec.Last("status"); ok {
		t.Error("Expected no failure status on success")
	}
}

func TestRunRecoversPanic(t *testing.T) {
	rec := &progress.Recorder{}
	tk := funcTask{name: "boom", fn: func(context.Context, browser.Page) error {
		panic("selector table is nil")
	}}

	err := Run(context.Background(), tk, browsertest.New(), "", rec)
	if err == nil {
		t.Fatal("Expected error from panicking task")
	}
	if !strings.Contains(err.Error(), "selector table is nil") {
		t.Errorf("Expected panic value in error, got %v", err)
	}
	ev, ok := rec.Last("status")
	if !ok || !strings.Contains(ev.Message, "boom failed") {
		t.Errorf("Expected failure status on sink, got %+v", ev)
	}
}

func TestRunSetupError(t *testing.T) {
	tk := funcTask{name: "import", fn: func(context.Context, browser.Page) error {
		return Setupf("no CSV file at %s", "parts.csv")
	}}

	err := Run(context.Background(), tk, browsertest.New(), "", progress.Nop{})
	if !errors.Is(err, ErrSetup) {
		t.Errorf("Expected ErrSetup, got %v", err)
	}
	if !strings.Contains(err.Error(), "parts.csv") {
		t.Errorf("Expected file name in error, got %v", err)
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register("timing", "Measure page load times")
	r.Register("import-glass", "Import glass parts")

	names := r.Names()
	if len(names) != 2 || names[0] != "import-glass" || names[1] != "timing" {
		t.Errorf("Expected sorted names, got %v", names)
	}
	if d, ok := r.Describe("timing"); !ok || d != "Measure page load times" {
		t.Errorf("Unexpected description %q (ok=%v)", d, ok)
	}
	if _, ok := r.Describe("missing"); ok {
		t.Error("Expected missing task to be absent")
	}
}
