// Package browsertest provides a scripted browser.Page for tests.
package browsertest

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/glazing-tools/catalogpilot/internal/browser"
)

// Call records one operation performed on the page.
type Call struct {
	Op       string
	Selector string
	Value    string
}

// Page is an in-memory browser.Page. Reads are served from the exported maps;
// writes update them and every operation is appended to Calls.
type Page struct {
	mu sync.Mutex

	Calls       []Call
	Current     string
	HTML        string
	OptionLists map[string][]string
	Selected    map[string]string
	Checked     map[string]bool
	Counts      map[string]int
	Texts       map[string]string
	Values      map[string]string

	// Errors maps "op selector" to the errors returned by successive calls.
	// A nil entry lets that call succeed.
	Errors map[string][]error
	// FailFunc is consulted before every operation when set.
	FailFunc func(op, selector string) error
}

var _ browser.Page = (*Page)(nil)

// New returns an empty page.
func New() *Page {
	return &Page{
		OptionLists: make(map[string][]string),
		Selected:    make(map[string]string),
		Checked:     make(map[string]bool),
		Counts:      make(map[string]int),
		Texts:       make(map[string]string),
		Values:      make(map[string]string),
		Errors:      make(map[string][]error),
	}
}

// FailNext queues errs for the next calls of op on selector.
func (p *Page) FailNext(op, selector string, errs ...error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	key := op + " " + selector
	p.Errors[key] = append(p.Errors[key], errs...)
}

// Ops returns the recorded calls of one operation kind.
func (p *Page) Ops(op string) []Call {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []Call
	for _, c := range p.Calls {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// Called reports whether op was performed on selector.
func (p *Page) Called(op, selector string) bool {
	for _, c := range p.Ops(op) {
		if c.Selector == selector {
			return true
		}
	}
	return false
}

func (p *Page) record(ctx context.Context, op, selector, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	p.Calls = append(p.Calls, Call{Op: op, Selector: selector, Value: value})
	key := op + " " + selector
	var queued error
	if errs := p.Errors[key]; len(errs) > 0 {
		queued = errs[0]
		p.Errors[key] = errs[1:]
	}
	fail := p.FailFunc
	p.mu.Unlock()

	if queued != nil {
		return queued
	}
	if fail != nil {
		return fail(op, selector)
	}
	return nil
}

func (p *Page) Goto(ctx context.Context, url string) error {
	if err := p.record(ctx, "goto", url, ""); err != nil {
		return err
	}
	p.mu.Lock()
	p.Current = url
	p.mu.Unlock()
	return nil
}

func (p *Page) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Current
}

func (p *Page) Content(ctx context.Context) (string, error) {
	if err := p.record(ctx, "content", "", ""); err != nil {
		return "", err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.HTML, nil
}

func (p *Page) Click(ctx context.Context, selector string) error {
	return p.record(ctx, "click", selector, "")
}

func (p *Page) Fill(ctx context.Context, selector, value string) error {
	if err := p.record(ctx, "fill", selector, value); err != nil {
		return err
	}
	p.mu.Lock()
	p.Values[selector] = value
	p.mu.Unlock()
	return nil
}

func (p *Page) Clear(ctx context.Context, selector string) error {
	if err := p.record(ctx, "clear", selector, ""); err != nil {
		return err
	}
	p.mu.Lock()
	p.Values[selector] = ""
	p.mu.Unlock()
	return nil
}

func (p *Page) Press(ctx context.Context, selector, key string) error {
	return p.record(ctx, "press", selector, key)
}

func (p *Page) Options(ctx context.Context, selector string) ([]string, error) {
	if err := p.record(ctx, "options", selector, ""); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.OptionLists[selector]), nil
}

func (p *Page) SelectedLabel(ctx context.Context, selector string) (string, error) {
	if err := p.record(ctx, "selected", selector, ""); err != nil {
		return "", err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Selected[selector], nil
}

func (p *Page) SelectLabel(ctx context.Context, selector, label string) error {
	if err := p.record(ctx, "select", selector, label); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if opts, ok := p.OptionLists[selector]; ok && !slices.Contains(opts, label) {
		return fmt.Errorf("no option %q in %s", label, selector)
	}
	p.Selected[selector] = label
	return nil
}

func (p *Page) SetChecked(ctx context.Context, selector string, checked bool) error {
	if err := p.record(ctx, "check", selector, fmt.Sprint(checked)); err != nil {
		return err
	}
	p.mu.Lock()
	p.Checked[selector] = checked
	p.mu.Unlock()
	return nil
}

func (p *Page) IsChecked(ctx context.Context, selector string) (bool, error) {
	if err := p.record(ctx, "checked", selector, ""); err != nil {
		return false, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Checked[selector], nil
}

func (p *Page) Count(ctx context.Context, selector string) (int, error) {
	if err := p.record(ctx, "count", selector, ""); err != nil {
		return 0, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Counts[selector], nil
}

func (p *Page) Text(ctx context.Context, selector string) (string, error) {
	if err := p.record(ctx, "text", selector, ""); err != nil {
		return "", err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Texts[selector], nil
}

func (p *Page) Value(ctx context.Context, selector string) (string, error) {
	if err := p.record(ctx, "value", selector, ""); err != nil {
		return "", err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Values[selector], nil
}

func (p *Page) SetInputFiles(ctx context.Context, selector, path string) error {
	if err := p.record(ctx, "files", selector, path); err != nil {
		return err
	}
	p.mu.Lock()
	p.Values[selector] = path
	p.mu.Unlock()
	return nil
}

func (p *Page) ScrollToTop(ctx context.Context) error {
	return p.record(ctx, "scrolltop", "", "")
}

func (p *Page) ScrollIntoView(ctx context.Context, selector string) error {
	return p.record(ctx, "scroll", selector, "")
}

func (p *Page) Highlight(ctx context.Context, selector, color string) error {
	return p.record(ctx, "highlight", selector, color)
}

func (p *Page) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	return p.record(ctx, "visible", selector, timeout.String())
}

func (p *Page) WaitAttached(ctx context.Context, selector string, timeout time.Duration) error {
	return p.record(ctx, "attached", selector, timeout.String())
}

func (p *Page) WaitHidden(ctx context.Context, selector string, timeout time.Duration) error {
	return p.record(ctx, "hidden", selector, timeout.String())
}

func (p *Page) WaitURL(ctx context.Context, fragment string, timeout time.Duration) error {
	return p.record(ctx, "url", fragment, timeout.String())
}
