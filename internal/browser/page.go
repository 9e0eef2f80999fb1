package browser

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrTimeout is returned when a bounded wait expires.
var ErrTimeout = errors.New("timed out waiting for page condition")

// Timeouts bounds every explicit wait. Short is used for optional or fallback
// lookups, Default for primary navigation and dialog completion.
type Timeouts struct {
	Short   time.Duration `yaml:"short"`
	Default time.Duration `yaml:"default"`
}

// DefaultTimeouts returns the timeouts used when nothing is configured.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Short:   3 * time.Second,
		Default: 15 * time.Second,
	}
}

// Page is the page automation capability the tasks are written against.
// Selectors use Playwright selector syntax, so scoped and indexed lookups can
// be expressed with Nth, Within and RowWithLabel.
type Page interface {
	Goto(ctx context.Context, url string) error
	URL() string
	Content(ctx context.Context) (string, error)

	Click(ctx context.Context, selector string) error
	Fill(ctx context.Context, selector, value string) error
	Clear(ctx context.Context, selector string) error
	Press(ctx context.Context, selector, key string) error

	// Options returns the visible text of every option of a select control.
	Options(ctx context.Context, selector string) ([]string, error)
	// SelectedLabel returns the visible text of the selected option, or "".
	SelectedLabel(ctx context.Context, selector string) (string, error)
	SelectLabel(ctx context.Context, selector, label string) error

	SetChecked(ctx context.Context, selector string, checked bool) error
	IsChecked(ctx context.Context, selector string) (bool, error)

	Count(ctx context.Context, selector string) (int, error)
	Text(ctx context.Context, selector string) (string, error)
	Value(ctx context.Context, selector string) (string, error)
	SetInputFiles(ctx context.Context, selector, path string) error

	ScrollToTop(ctx context.Context) error
	ScrollIntoView(ctx context.Context, selector string) error
	Highlight(ctx context.Context, selector, color string) error

	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error
	// WaitAttached waits for the element to exist in the DOM, visible or not.
	// Styled uploaders usually hide their file input.
	WaitAttached(ctx context.Context, selector string, timeout time.Duration) error
	WaitHidden(ctx context.Context, selector string, timeout time.Duration) error
	WaitURL(ctx context.Context, fragment string, timeout time.Duration) error
}

// Nth scopes selector to its i-th match (zero based).
func Nth(selector string, i int) string {
	return fmt.Sprintf("%s >> nth=%d", selector, i)
}

// Within scopes child to matches inside parent.
func Within(parent, child string) string {
	return parent + " >> " + child
}

// RowWithLabel selects the rows matched by rowSelector that contain a label
// element whose text is exactly label.
func RowWithLabel(rowSelector, labelSelector, label string) string {
	return fmt.Sprintf("%s:has(%s:text-is(%q))", rowSelector, labelSelector, label)
}
