// Package report writes one YAML file per task run.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Report describes one task run.
type Report struct {
	RunID      string `yaml:"run_id"`
	Task       string `yaml:"task"`
	Server     string `yaml:"server,omitempty"`
	BaseURL    string `yaml:"base_url"`
	StartedAt  string `yaml:"started_at"`
	FinishedAt string `yaml:"finished_at"`
	Duration   string `yaml:"duration"`
	Status     string `yaml:"status"`
	Error      string `yaml:"error,omitempty"`
	Summary    any    `yaml:"summary,omitempty"`

	started time.Time
	now     func() time.Time
}

// New starts a report for a run beginning now.
func New(taskName, server, baseURL string) *Report {
	return newAt(taskName, server, baseURL, time.Now)
}

func newAt(taskName, server, baseURL string, now func() time.Time) *Report {
	started := now()
	return &Report{
		RunID:     uuid.New().String(),
		Task:      taskName,
		Server:    server,
		BaseURL:   baseURL,
		StartedAt: started.Format(time.RFC3339),
		started:   started,
		now:       now,
	}
}

// Finish records the outcome. summary is whatever the task reported.
func (r *Report) Finish(err error, summary any) {
	finished := r.now()
	r.FinishedAt = finished.Format(time.RFC3339)
	r.Duration = finished.Sub(r.started).Round(time.Millisecond).String()
	r.Summary = summary
	r.Status = StatusOK
	if err != nil {
		r.Status = StatusFailed
		r.Error = err.Error()
	}
}

// Save writes the report to dir as <task>-<timestamp>.yaml and returns the
// path written.
func (r *Report) Save(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	timestamp := r.started.Format("2006-01-02_15-04-05")
	filename := filepath.Join(dir, fmt.Sprintf("%s-%s.yaml", r.Task, timestamp))

	data, err := yaml.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write YAML file: %w", err)
	}
	return filename, nil
}
