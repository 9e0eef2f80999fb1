package settings

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Column headers of the two CSV forms.
const (
	TitleColumn    = "Drawing Title"
	PropertyColumn = "Property"
	ValueColumn    = "Value"
)

// writeQuoted writes one record with every field quote-wrapped and embedded
// quotes doubled.
func writeQuoted(w *bufio.Writer, fields []string) error {
	for i, f := range fields {
		if i > 0 {
			if err := w.WriteByte(','); err != nil {
				return err
			}
		}
		if _, err := w.WriteString(`"` + strings.ReplaceAll(f, `"`, `""`) + `"`); err != nil {
			return err
		}
	}
	return w.WriteByte('\n')
}

// WriteWide writes one row per tile under a header of TitleColumn followed by
// every key in the collection. Keys a tile lacks are written as empty cells.
func WriteWide(w io.Writer, c *Collection) error {
	bw := bufio.NewWriter(w)
	header := c.Header()

	if err := writeQuoted(bw, append([]string{TitleColumn}, header...)); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, tile := range c.Tiles {
		row := make([]string, 0, len(header)+1)
		row = append(row, tile.Title)
		for _, key := range header {
			v, _ := tile.Entries.Get(key)
			row = append(row, v)
		}
		if err := writeQuoted(bw, row); err != nil {
			return fmt.Errorf("failed to write tile %q: %w", tile.Title, err)
		}
	}
	return bw.Flush()
}

func newReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	return cr
}

// ReadWide reads a file written by WriteWide. Empty cells are treated as
// absent keys.
func ReadWide(r io.Reader) (*Collection, error) {
	records, err := newReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read settings csv: %w", err)
	}
	if len(records) == 0 {
		return nil, errors.New("settings csv is empty")
	}

	header := records[0]
	if len(header) == 0 || !strings.EqualFold(strings.TrimSpace(header[0]), TitleColumn) {
		return nil, fmt.Errorf("settings csv must start with a %q column", TitleColumn)
	}

	c := NewCollection()
	for _, rec := range records[1:] {
		if len(rec) == 0 || strings.TrimSpace(rec[0]) == "" {
			continue
		}
		entries := NewEntries()
		for j := 1; j < len(rec) && j < len(header); j++ {
			if rec[j] != "" {
				entries.Set(header[j], rec[j])
			}
		}
		c.Add(rec[0], entries)
	}
	return c, nil
}

// WriteProperties writes one tile in the two-column Property,Value form.
func WriteProperties(w io.Writer, e *Entries) error {
	bw := bufio.NewWriter(w)
	if err := writeQuoted(bw, []string{PropertyColumn, ValueColumn}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, key := range e.Keys() {
		v, _ := e.Get(key)
		if err := writeQuoted(bw, []string{key, v}); err != nil {
			return fmt.Errorf("failed to write %q: %w", key, err)
		}
	}
	return bw.Flush()
}

// ReadProperties reads a file written by WriteProperties. The header row is
// skipped; rows with fewer than two columns are ignored.
func ReadProperties(r io.Reader) (*Entries, error) {
	records, err := newReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read settings csv: %w", err)
	}

	e := NewEntries()
	for i, rec := range records {
		if i == 0 || len(rec) < 2 {
			continue
		}
		e.Set(rec[0], rec[1])
	}
	return e, nil
}
