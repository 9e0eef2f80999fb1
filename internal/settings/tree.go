package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/glazing-tools/catalogpilot/internal/browser"
)

// ErrNoControl is returned when no row on the open tab carries the label.
var ErrNoControl = errors.New("no control with that label")

// Probe is what a row of the settings editor exposes.
type Probe struct {
	Label string

	HasCheckbox bool
	Checked     bool

	HasDropdown bool
	Selected    string

	HasText bool
	Text    string

	HasRadio bool
	Radio    string
}

// Tree is the live settings editor of one tile, organised in tabs of
// labelled rows.
type Tree interface {
	Tabs(ctx context.Context) ([]string, error)
	OpenTab(ctx context.Context, tab string) error
	Rows(ctx context.Context) ([]Probe, error)

	SetText(ctx context.Context, label, value string) error
	SelectOption(ctx context.Context, label, value string) error
	SetCheckbox(ctx context.Context, label string, checked bool) error
	SelectRadio(ctx context.Context, label, value string) error
}

func isPlaceholder(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "-- select --", "--select--", "-- no selection --", "no selection",
		"(none)", "none selected", "please select":
		return true
	}
	return false
}

// Classify decides how a row is captured. Checkboxes win over dropdowns,
// dropdowns over text fields and text fields over radio groups. ok is false
// when the row has nothing worth capturing.
func Classify(p Probe) (kind ControlKind, value string, ok bool) {
	switch {
	case p.HasCheckbox:
		if p.Checked {
			return Checkbox, "true", true
		}
		return Checkbox, "false", true
	case p.HasDropdown:
		if isPlaceholder(p.Selected) {
			return Dropdown, "", false
		}
		return Dropdown, strings.TrimSpace(p.Selected), true
	case p.HasText:
		if isPlaceholder(p.Text) {
			return Text, "", false
		}
		return Text, strings.TrimSpace(p.Text), true
	case p.HasRadio:
		if p.Radio == "" {
			return Radio, "", false
		}
		return Radio, p.Radio, true
	}
	return 0, "", false
}

// Selectors locate the settings editor. Row selectors are relative to Pane,
// control selectors relative to one row.
type Selectors struct {
	Tab      string `yaml:"tab"`
	Pane     string `yaml:"pane"`
	Row      string `yaml:"row"`
	Label    string `yaml:"label"`
	Checkbox string `yaml:"checkbox"`
	Dropdown string `yaml:"dropdown"`
	Text     string `yaml:"text"`
	Radio    string `yaml:"radio"`
}

// DefaultSelectors returns the selectors of the stock settings editor.
func DefaultSelectors() Selectors {
	return Selectors{
		Tab:      "ul.settings-tabs li a",
		Pane:     "div.settings-pane.active",
		Row:      "div.setting-row",
		Label:    "label.setting-label",
		Checkbox: "input[type=checkbox]",
		Dropdown: "select",
		Text:     "input[type=text], input[type=number], textarea",
		Radio:    "input[type=radio]",
	}
}

// PageTree implements Tree over a browser page.
type PageTree struct {
	page     browser.Page
	sel      Selectors
	timeouts browser.Timeouts
}

var _ Tree = (*PageTree)(nil)

func NewPageTree(page browser.Page, sel Selectors, timeouts browser.Timeouts) *PageTree {
	return &PageTree{page: page, sel: sel, timeouts: timeouts}
}

func (t *PageTree) Tabs(ctx context.Context) ([]string, error) {
	n, err := t.page.Count(ctx, t.sel.Tab)
	if err != nil {
		return nil, fmt.Errorf("failed to count tabs: %w", err)
	}
	tabs := make([]string, 0, n)
	for i := 0; i < n; i++ {
		name, err := t.page.Text(ctx, browser.Nth(t.sel.Tab, i))
		if err != nil {
			return nil, fmt.Errorf("failed to read tab %d: %w", i, err)
		}
		tabs = append(tabs, strings.TrimSpace(name))
	}
	return tabs, nil
}

func (t *PageTree) OpenTab(ctx context.Context, tab string) error {
	if err := t.page.Click(ctx, fmt.Sprintf("%s:text-is(%q)", t.sel.Tab, tab)); err != nil {
		return fmt.Errorf("failed to open tab %q: %w", tab, err)
	}
	return t.page.WaitVisible(ctx, t.sel.Pane, t.timeouts.Short)
}

func (t *PageTree) rows() string {
	return browser.Within(t.sel.Pane, t.sel.Row)
}

// Rows probes every row of the open pane. A row that cannot be probed is
// logged and left out.
func (t *PageTree) Rows(ctx context.Context) ([]Probe, error) {
	n, err := t.page.Count(ctx, t.rows())
	if err != nil {
		return nil, fmt.Errorf("failed to count rows: %w", err)
	}

	probes := make([]Probe, 0, n)
	for i := 0; i < n; i++ {
		p, err := t.probe(ctx, browser.Nth(t.rows(), i))
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			slog.Warn("Skipping unreadable settings row", "row", i, "error", err)
			continue
		}
		probes = append(probes, p)
	}
	return probes, nil
}

func (t *PageTree) has(ctx context.Context, row, control string) (bool, error) {
	n, err := t.page.Count(ctx, browser.Within(row, control))
	return n > 0, err
}

func (t *PageTree) probe(ctx context.Context, row string) (Probe, error) {
	var p Probe
	label, err := t.page.Text(ctx, browser.Within(row, t.sel.Label))
	if err != nil {
		return p, err
	}
	p.Label = strings.TrimSpace(label)

	if p.HasCheckbox, err = t.has(ctx, row, t.sel.Checkbox); err != nil {
		return p, err
	}
	if p.HasCheckbox {
		p.Checked, err = t.page.IsChecked(ctx, browser.Within(row, t.sel.Checkbox))
		return p, err
	}

	if p.HasDropdown, err = t.has(ctx, row, t.sel.Dropdown); err != nil {
		return p, err
	}
	if p.HasDropdown {
		p.Selected, err = t.page.SelectedLabel(ctx, browser.Within(row, t.sel.Dropdown))
		return p, err
	}

	if p.HasText, err = t.has(ctx, row, t.sel.Text); err != nil {
		return p, err
	}
	if p.HasText {
		p.Text, err = t.page.Value(ctx, browser.Within(row, t.sel.Text))
		return p, err
	}

	radios, err := t.page.Count(ctx, browser.Within(row, t.sel.Radio))
	if err != nil {
		return p, err
	}
	p.HasRadio = radios > 0
	for i := 0; i < radios; i++ {
		radio := browser.Nth(browser.Within(row, t.sel.Radio), i)
		checked, err := t.page.IsChecked(ctx, radio)
		if err != nil {
			return p, err
		}
		if checked {
			p.Radio, err = t.page.Value(ctx, radio)
			return p, err
		}
	}
	return p, nil
}

// row finds the row labelled label on the open tab.
func (t *PageTree) row(ctx context.Context, label string) (string, error) {
	sel := browser.RowWithLabel(t.rows(), t.sel.Label, label)
	n, err := t.page.Count(ctx, sel)
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", fmt.Errorf("%w: %q", ErrNoControl, label)
	}
	return browser.Nth(sel, 0), nil
}

func (t *PageTree) SetText(ctx context.Context, label, value string) error {
	row, err := t.row(ctx, label)
	if err != nil {
		return err
	}
	return t.page.Fill(ctx, browser.Within(row, t.sel.Text), value)
}

func (t *PageTree) SelectOption(ctx context.Context, label, value string) error {
	row, err := t.row(ctx, label)
	if err != nil {
		return err
	}
	return t.page.SelectLabel(ctx, browser.Within(row, t.sel.Dropdown), value)
}

func (t *PageTree) SetCheckbox(ctx context.Context, label string, checked bool) error {
	row, err := t.row(ctx, label)
	if err != nil {
		return err
	}
	return t.page.SetChecked(ctx, browser.Within(row, t.sel.Checkbox), checked)
}

func (t *PageTree) SelectRadio(ctx context.Context, label, value string) error {
	row, err := t.row(ctx, label)
	if err != nil {
		return err
	}
	radio := fmt.Sprintf("%s[value=%q]", t.sel.Radio, value)
	return t.page.SetChecked(ctx, browser.Within(row, radio), true)
}
