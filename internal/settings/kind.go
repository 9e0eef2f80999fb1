// Package settings captures the drawing-board settings of a tile into CSV and
// replays them onto another tile.
package settings

import (
	"fmt"
	"strings"
)

// ControlKind is the type of input a setting is edited with.
type ControlKind int

const (
	Checkbox ControlKind = iota + 1
	Dropdown
	Text
	Radio
)

// String returns the token used in setting keys.
func (k ControlKind) String() string {
	switch k {
	case Checkbox:
		return "Checkbox"
	case Dropdown:
		return "Dropdown"
	case Text:
		return "Text Field"
	case Radio:
		return "Radio"
	}
	return fmt.Sprintf("ControlKind(%d)", int(k))
}

// ParseKind reads a key token. Case and inner whitespace are ignored, so
// "text field", "TextField" and " Text  Field " are all Text.
func ParseKind(s string) (ControlKind, error) {
	token := strings.ToLower(strings.Join(strings.Fields(s), ""))
	switch token {
	case "checkbox":
		return Checkbox, nil
	case "dropdown":
		return Dropdown, nil
	case "textfield", "text":
		return Text, nil
	case "radio":
		return Radio, nil
	}
	return 0, fmt.Errorf("unknown control kind %q", s)
}
