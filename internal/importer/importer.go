// Package importer drives the vendor's add-part dialog once per catalog item.
package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/glazing-tools/catalogpilot/internal/browser"
	"github.com/glazing-tools/catalogpilot/internal/catalog"
	"github.com/glazing-tools/catalogpilot/internal/progress"
	"github.com/glazing-tools/catalogpilot/internal/retry"
)

// ErrUnitNotOffered is returned in strict mode when the dialog does not list
// the requested unit.
var ErrUnitNotOffered = errors.New("unit not offered by dialog")

// Options tune an Importer.
type Options struct {
	Retry    retry.Policy
	Sleeper  retry.Sleeper
	Timeouts browser.Timeouts
	// StrictUnits fails an item whose unit is not offered instead of falling
	// back to the first option.
	StrictUnits bool
}

// DefaultOptions returns the retry policy and timeouts used by the CLI.
func DefaultOptions() Options {
	return Options{
		Retry:    retry.DefaultPolicy(),
		Sleeper:  retry.RealSleeper{},
		Timeouts: browser.DefaultTimeouts(),
	}
}

// Failure records why one item was not imported.
type Failure struct {
	Key   string `yaml:"key"`
	Error string `yaml:"error"`
}

// Tally counts the outcome of a batch.
type Tally struct {
	Total     int       `yaml:"total"`
	Attempted int       `yaml:"attempted"`
	Submitted int       `yaml:"submitted"`
	Succeeded int       `yaml:"succeeded"`
	Failed    int       `yaml:"failed"`
	Skipped   int       `yaml:"skipped"`
	Fallbacks int       `yaml:"unit_fallbacks"`
	Failures  []Failure `yaml:"failures,omitempty"`
}

func (t Tally) String() string {
	s := fmt.Sprintf("%d of %d imported, %d failed", t.Succeeded, t.Total, t.Failed)
	if t.Skipped > 0 {
		s += fmt.Sprintf(", %d skipped", t.Skipped)
	}
	if t.Fallbacks > 0 {
		s += fmt.Sprintf(", %d unit fallbacks", t.Fallbacks)
	}
	return s
}

// Importer imports items one at a time through the add dialog described by
// its Layout.
type Importer struct {
	page   browser.Page
	layout Layout
	opts   Options
}

func New(page browser.Page, layout Layout, opts Options) *Importer {
	if opts.Sleeper == nil {
		opts.Sleeper = retry.RealSleeper{}
	}
	return &Importer{page: page, layout: layout, opts: opts}
}

// Run imports items in order. A failing item is logged, its dialog is
// dismissed and the batch moves on. Cancellation stops the batch between
// items; the remaining items are counted as skipped.
func (im *Importer) Run(ctx context.Context, items []catalog.Item, sink progress.Sink) Tally {
	tally := Tally{Total: len(items)}
	sink.SetMainProgressMax(len(items))

	for i, item := range items {
		if ctx.Err() != nil {
			tally.Skipped = len(items) - i
			slog.Warn("Import cancelled", "remaining", tally.Skipped)
			break
		}

		tally.Attempted++
		sink.UpdateStatus(fmt.Sprintf("Importing %s (%d/%d)", item.Key(), i+1, len(items)))

		submitted, err := im.importOne(ctx, item, &tally)
		if submitted {
			tally.Submitted++
		}
		if err != nil {
			tally.Failed++
			tally.Failures = append(tally.Failures, Failure{Key: item.Key(), Error: err.Error()})
			slog.Error("Failed to import item", "key", item.Key(), "family", item.Family(), "error", err)
			im.dismiss(ctx)
		} else {
			tally.Succeeded++
			slog.Debug("Imported item", "key", item.Key())
		}

		sink.UpdateMainProgress(i + 1)
	}

	sink.UpdateStatus(tally.String())
	slog.Info("Import finished",
		"total", tally.Total,
		"succeeded", tally.Succeeded,
		"failed", tally.Failed,
		"skipped", tally.Skipped,
		"unit_fallbacks", tally.Fallbacks)
	return tally
}

func (im *Importer) importOne(ctx context.Context, item catalog.Item, tally *Tally) (submitted bool, err error) {
	steps, err := Plan(item)
	if err != nil {
		return false, err
	}

	retry.BestEffort(ctx, "scroll to top", im.page.ScrollToTop)

	err = retry.Do(ctx, im.opts.Retry, im.opts.Sleeper, "open add dialog", func(int) error {
		if err := im.page.Click(ctx, im.layout.AddButton); err != nil {
			return err
		}
		return im.page.WaitVisible(ctx, im.layout.Dialog, im.opts.Timeouts.Short)
	})
	if err != nil {
		return false, err
	}

	for _, step := range steps {
		if err := im.apply(ctx, step, tally); err != nil {
			return false, fmt.Errorf("failed to set %s: %w", step.Field, err)
		}
	}

	if err := im.page.Click(ctx, im.layout.Submit); err != nil {
		return false, fmt.Errorf("failed to submit: %w", err)
	}
	if err := im.page.WaitHidden(ctx, im.layout.Dialog, im.opts.Timeouts.Default); err != nil {
		return true, fmt.Errorf("dialog did not close after submit: %w", err)
	}

	retry.BestEffort(ctx, "scroll to top", im.page.ScrollToTop)
	return true, nil
}

func (im *Importer) apply(ctx context.Context, step Step, tally *Tally) error {
	sel, err := im.layout.Selector(step.Field)
	if err != nil {
		return err
	}

	switch step.Kind {
	case StepFill:
		return im.page.Fill(ctx, sel, step.Value)
	case StepCheck:
		return im.page.SetChecked(ctx, sel, step.Checked)
	case StepSelect:
		if step.UnitFallback {
			return im.selectUnit(ctx, sel, step.Value, tally)
		}
		if step.Value == "" {
			return nil
		}
		return im.page.SelectLabel(ctx, sel, step.Value)
	}
	return fmt.Errorf("unknown step kind %v", step.Kind)
}

// selectUnit picks the option matching unit case-insensitively. When the unit
// is not offered the first option is used and the fallback is counted, unless
// StrictUnits is set.
func (im *Importer) selectUnit(ctx context.Context, sel, unit string, tally *Tally) error {
	options, err := im.page.Options(ctx, sel)
	if err != nil {
		return err
	}
	for _, opt := range options {
		if strings.EqualFold(strings.TrimSpace(opt), strings.TrimSpace(unit)) {
			return im.page.SelectLabel(ctx, sel, opt)
		}
	}

	if im.opts.StrictUnits {
		return fmt.Errorf("%w: %q (offered %v)", ErrUnitNotOffered, unit, options)
	}
	if len(options) == 0 {
		return fmt.Errorf("unit dropdown %s has no options", sel)
	}

	slog.Warn("Unit not offered, using first option", "unit", unit, "fallback", options[0])
	tally.Fallbacks++
	return im.page.SelectLabel(ctx, sel, options[0])
}

// dismiss closes a dialog left open by a failed item so the next item starts
// from the list page.
func (im *Importer) dismiss(ctx context.Context) {
	retry.BestEffort(ctx, "dismiss add dialog", func(ctx context.Context) error {
		err := im.page.Click(ctx, im.layout.Close)
		if err == nil {
			return nil
		}
		slog.Debug("Close button unavailable, pressing Escape", "error", err)
		return im.page.Press(ctx, "body", "Escape")
	})
}
