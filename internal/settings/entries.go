package settings

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedKey is returned for keys without tab, label and kind.
var ErrMalformedKey = errors.New("malformed setting key")

const keySep = " | "

// Key identifies one control: "<tab> | <label> | <kind>".
type Key struct {
	Tab   string
	Label string
	Kind  ControlKind
}

func (k Key) String() string {
	return k.Tab + keySep + k.Label + keySep + k.Kind.String()
}

// ParseKey splits a key string. A label containing the separator is kept
// whole: the first part is the tab and the last part the kind.
func ParseKey(s string) (Key, error) {
	parts := strings.Split(s, "|")
	if len(parts) < 3 {
		return Key{}, fmt.Errorf("%w: %q has %d parts, want tab | label | kind", ErrMalformedKey, s, len(parts))
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	kind, err := ParseKind(parts[len(parts)-1])
	if err != nil {
		return Key{}, fmt.Errorf("%w: %v", ErrMalformedKey, err)
	}
	return Key{
		Tab:   parts[0],
		Label: strings.Join(parts[1:len(parts)-1], keySep),
		Kind:  kind,
	}, nil
}

// Entries is an insertion-ordered map of setting key to value. Setting an
// existing key replaces its value in place.
type Entries struct {
	keys   []string
	values map[string]string
}

func NewEntries() *Entries {
	return &Entries{values: make(map[string]string)}
}

func (e *Entries) Set(key, value string) {
	if _, ok := e.values[key]; !ok {
		e.keys = append(e.keys, key)
	}
	e.values[key] = value
}

func (e *Entries) Get(key string) (string, bool) {
	v, ok := e.values[key]
	return v, ok
}

// Keys returns the keys in first-insertion order.
func (e *Entries) Keys() []string {
	out := make([]string, len(e.keys))
	copy(out, e.keys)
	return out
}

func (e *Entries) Len() int {
	return len(e.keys)
}

// Tile is the captured settings of one drawing-board tile.
type Tile struct {
	Title   string
	Entries *Entries
}

// Collection accumulates tiles and the union of their keys in first-seen
// order, which becomes the wide CSV header.
type Collection struct {
	Tiles  []Tile
	header []string
	seen   map[string]struct{}
}

func NewCollection() *Collection {
	return &Collection{seen: make(map[string]struct{})}
}

func (c *Collection) Add(title string, entries *Entries) {
	c.Tiles = append(c.Tiles, Tile{Title: title, Entries: entries})
	for _, k := range entries.Keys() {
		if _, ok := c.seen[k]; ok {
			continue
		}
		c.seen[k] = struct{}{}
		c.header = append(c.header, k)
	}
}

// Header returns every key seen so far.
func (c *Collection) Header() []string {
	out := make([]string, len(c.header))
	copy(out, c.header)
	return out
}
