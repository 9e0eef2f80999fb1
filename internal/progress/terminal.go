package progress

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"
)

//nolint:gochecknoglobals
var (
	colorTitle  = color.New(color.FgCyan, color.Bold)
	colorFaint  = color.New(color.Faint)
	colorStatus = color.New(color.FgGreen)
)

// DefaultWidth of the rendered progress bars.
const DefaultWidth = 30

// Terminal renders progress as one line per update. Hidden terminals drop
// every update except Close.
type Terminal struct {
	mu      sync.Mutex
	out     io.Writer
	width   int
	hidden  bool
	mainMax int
	stepMax int
	main    int
}

// NewTerminal writes progress lines to out.
func NewTerminal(out io.Writer) *Terminal {
	return &Terminal{out: out, width: DefaultWidth}
}

func (t *Terminal) printf(format string, args ...any) {
	if t.hidden {
		return
	}
	fmt.Fprintf(t.out, format, args...)
}

func (t *Terminal) ShowProgress(title, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.printf("%s %s\n", colorTitle.Sprint(title), message)
}

func (t *Terminal) SetMainProgressMax(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.mainMax = n
	t.main = 0
}

func (t *Terminal) SetStepProgressMax(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stepMax = n
}

func (t *Terminal) UpdateMainProgress(value int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.main = value
	t.printf("%s %s\n", Bar(value, t.mainMax, t.width), colorFaint.Sprintf("%d/%d", value, t.mainMax))
}

func (t *Terminal) UpdateStepProgress(value int, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.printf("  %s %s\n", colorFaint.Sprintf("[%d/%d]", value, t.stepMax), message)
}

func (t *Terminal) UpdateStatus(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.printf("%s %s\n", colorStatus.Sprint("•"), message)
}

func (t *Terminal) SetVisible(visible bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.hidden = !visible
}

func (t *Terminal) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.mainMax > 0 && !t.hidden {
		fmt.Fprintln(t.out, colorStatus.Sprint("✓")+" done")
	}
}

// Bar renders value/max as a fixed-width bar such as [=====>    ].
func Bar(value, max, width int) string {
	if width < 1 {
		width = DefaultWidth
	}
	if max <= 0 {
		return "[" + strings.Repeat(" ", width) + "]"
	}
	if value < 0 {
		value = 0
	}
	if value > max {
		value = max
	}
	filled := value * width / max
	var b strings.Builder
	b.WriteByte('[')
	switch {
	case filled >= width:
		b.WriteString(strings.Repeat("=", width))
	case filled > 0:
		b.WriteString(strings.Repeat("=", filled-1))
		b.WriteByte('>')
		b.WriteString(strings.Repeat(" ", width-filled))
	default:
		b.WriteString(strings.Repeat(" ", width))
	}
	b.WriteByte(']')
	return b.String()
}
