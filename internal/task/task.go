// Package task defines the unit of work the CLI runs against a logged-in
// browser page.
package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sort"
	"sync"

	"github.com/glazing-tools/catalogpilot/internal/browser"
	"github.com/glazing-tools/catalogpilot/internal/progress"
)

// ErrSetup marks failures that stop a task before its main loop: missing
// input files, an empty image directory, a page that never loads.
var ErrSetup = errors.New("task setup failed")

// Task is one automation job. Execute runs on the caller's goroutine and
// reports progress through sink only.
type Task interface {
	Name() string
	Execute(ctx context.Context, page browser.Page, baseURL string, sink progress.Sink) error
}

// Summarizer is implemented by tasks whose outcome belongs in the run report.
// Summary is called after Execute returns.
type Summarizer interface {
	Summary() any
}

// Setupf builds an error wrapping ErrSetup.
func Setupf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrSetup, fmt.Sprintf(format, args...))
}

// Run executes t, turning a panic into an error and reporting the outcome on
// sink. It never panics itself.
func Run(ctx context.Context, t Task, page browser.Page, baseURL string, sink progress.Sink) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Task panicked", "task", t.Name(), "panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("task %s panicked: %v", t.Name(), r)
		}
		if err != nil {
			sink.UpdateStatus(fmt.Sprintf("%s failed: %v", t.Name(), err))
		}
	}()

	slog.Info("Starting task", "task", t.Name(), "base_url", baseURL)
	if err := t.Execute(ctx, page, baseURL, sink); err != nil {
		if errors.Is(err, ErrSetup) {
			slog.Error("Task could not start", "task", t.Name(), "error", err)
		} else {
			slog.Error("Task failed", "task", t.Name(), "error", err)
		}
		return err
	}
	slog.Info("Task finished", "task", t.Name())
	return nil
}

// Registry holds the task names the CLI exposes with a short description.
type Registry struct {
	mu    sync.RWMutex
	descs map[string]string
}

func NewRegistry() *Registry {
	return &Registry{descs: make(map[string]string)}
}

func (r *Registry) Register(name, description string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.descs[name] = description
}

func (r *Registry) Describe(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.descs[name]
	return d, ok
}

// Names returns the registered names sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.descs))
	for name := range r.descs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
