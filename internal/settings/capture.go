package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
)

// Capture reads every tab of the open tile. A tab that cannot be opened or
// read is logged and left out; only cancellation aborts the capture.
func Capture(ctx context.Context, tree Tree) (*Entries, error) {
	tabs, err := tree.Tabs(ctx)
	if err != nil {
		return nil, err
	}

	entries := NewEntries()
	for _, tab := range tabs {
		if err := tree.OpenTab(ctx, tab); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			slog.Warn("Skipping tab that would not open", "tab", tab, "error", err)
			continue
		}
		rows, err := tree.Rows(ctx)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			slog.Warn("Skipping unreadable tab", "tab", tab, "error", err)
			continue
		}

		for _, p := range rows {
			if p.Label == "" {
				continue
			}
			kind, value, ok := Classify(p)
			if !ok {
				if kind == Dropdown {
					slog.Warn("Skipping dropdown with nothing selected", "tab", tab, "label", p.Label)
				} else if kind != 0 {
					slog.Debug("Skipping setting without a value", "tab", tab, "label", p.Label, "kind", kind)
				}
				continue
			}
			entries.Set(Key{Tab: tab, Label: p.Label, Kind: kind}.String(), value)
		}
	}

	slog.Debug("Captured settings", "tabs", len(tabs), "entries", entries.Len())
	return entries, nil
}

// InjectResult counts the outcome of Inject.
type InjectResult struct {
	Applied  int      `yaml:"applied"`
	Skipped  int      `yaml:"skipped"`
	Failed   int      `yaml:"failed"`
	Failures []string `yaml:"failures,omitempty"`
}

func (r *InjectResult) add(o InjectResult) {
	r.Applied += o.Applied
	r.Skipped += o.Skipped
	r.Failed += o.Failed
	r.Failures = append(r.Failures, o.Failures...)
}

type setter func(ctx context.Context, tree Tree, label, value string) error

var setters = map[ControlKind]setter{
	Checkbox: func(ctx context.Context, tree Tree, label, value string) error {
		checked, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("checkbox value %q is not a boolean", value)
		}
		return tree.SetCheckbox(ctx, label, checked)
	},
	Dropdown: func(ctx context.Context, tree Tree, label, value string) error {
		return tree.SelectOption(ctx, label, value)
	},
	Text: func(ctx context.Context, tree Tree, label, value string) error {
		return tree.SetText(ctx, label, value)
	},
	Radio: func(ctx context.Context, tree Tree, label, value string) error {
		return tree.SelectRadio(ctx, label, value)
	},
}

// Inject applies entries to the open tile, switching tabs as the keys
// require. Malformed keys and labels the tile does not have are skipped;
// every other failure is counted and injection carries on.
func Inject(ctx context.Context, tree Tree, entries *Entries) InjectResult {
	var res InjectResult
	openTab := ""
	tabOK := false

	for _, raw := range entries.Keys() {
		if ctx.Err() != nil {
			break
		}
		value, _ := entries.Get(raw)

		key, err := ParseKey(raw)
		if err != nil {
			slog.Warn("Skipping setting", "key", raw, "error", err)
			res.Skipped++
			continue
		}

		if key.Tab != openTab {
			openTab = key.Tab
			tabOK = true
			if err := tree.OpenTab(ctx, key.Tab); err != nil {
				slog.Warn("Cannot open settings tab", "tab", key.Tab, "error", err)
				tabOK = false
			}
		}
		if !tabOK {
			res.Skipped++
			continue
		}

		if err := setters[key.Kind](ctx, tree, key.Label, value); err != nil {
			if errors.Is(err, ErrNoControl) {
				slog.Warn("Setting not found on tile", "key", raw)
				res.Skipped++
				continue
			}
			slog.Error("Failed to apply setting", "key", raw, "value", value, "error", err)
			res.Failed++
			res.Failures = append(res.Failures, fmt.Sprintf("%s: %v", raw, err))
			continue
		}
		res.Applied++
	}
	return res
}
