package catalog

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// MalformedRowError describes a data line that could not become an item.
type MalformedRowError struct {
	Line    int
	Columns int
	Want    int
	Err     error
}

func (e *MalformedRowError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("line %d: %d columns, at least %d required", e.Line, e.Columns, e.Want)
}

func (e *MalformedRowError) Unwrap() error {
	return e.Err
}

// Schema describes how to turn one positional CSV row into a T.
type Schema[T any] struct {
	Name string
	// MinColumns is the number of mandatory leading columns.
	MinColumns int
	// Build receives the trimmed row, already padded with "" up to Width.
	Build func(row []string) (T, error)
	// Width is the full column count; missing trailing columns are padded.
	Width int
}

// Batch is the decoded content of one CSV file.
type Batch[T any] struct {
	Items     []T
	Malformed []*MalformedRowError
}

// Decode reads every data line of r. The first line is a header and is
// discarded without inspection. Each physical line is one record, so an
// unbalanced quote spoils only its own line. Malformed rows are logged,
// recorded in the batch and skipped; only I/O failures abort decoding.
func Decode[T any](r io.Reader, schema Schema[T]) (*Batch[T], error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	batch := &Batch[T]{}
	line := 0
	for scanner.Scan() {
		line++
		if line == 1 {
			continue
		}

		text := strings.TrimSuffix(scanner.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}

		row, err := parseLine(text)
		if err != nil {
			batch.reject(schema.Name, &MalformedRowError{Line: line, Err: err})
			continue
		}

		if len(row) < schema.MinColumns {
			batch.reject(schema.Name, &MalformedRowError{Line: line, Columns: len(row), Want: schema.MinColumns})
			continue
		}

		item, err := schema.Build(normalizeRow(row, schema.Width))
		if err != nil {
			batch.reject(schema.Name, &MalformedRowError{Line: line, Columns: len(row), Want: schema.MinColumns, Err: err})
			continue
		}
		batch.Items = append(batch.Items, item)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s csv: %w", schema.Name, err)
	}

	slog.Debug("Decoded csv", "schema", schema.Name, "items", len(batch.Items), "malformed", len(batch.Malformed))
	return batch, nil
}

// maxLineSize bounds one CSV line.
const maxLineSize = 1024 * 1024

// parseLine splits one physical line with the quote-aware CSV dialect.
func parseLine(text string) ([]string, error) {
	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	row, err := reader.Read()
	if err != nil {
		return nil, err
	}
	return row, nil
}

func (b *Batch[T]) reject(schema string, e *MalformedRowError) {
	slog.Warn("Skipping malformed row", "schema", schema, "line", e.Line, "error", e.Error())
	b.Malformed = append(b.Malformed, e)
}

func normalizeRow(row []string, width int) []string {
	n := len(row)
	if width > n {
		n = width
	}
	out := make([]string, n)
	for i, v := range row {
		out[i] = strings.TrimSpace(v)
	}
	return out
}

// DecodeFile opens path and decodes it with schema.
func DecodeFile[T any](path string, schema Schema[T]) (*Batch[T], error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s csv: %w", schema.Name, err)
	}
	defer file.Close()

	return Decode(file, schema)
}

// defaultFlag is the value absent boolean-like columns take.
const defaultFlag = "No"

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

var errPartNumberEmpty = errors.New("part number is empty")

// GlassSchema decodes partNo, partName, unit, cost, obscure?.
var GlassSchema = Schema[GlassItem]{
	Name:       "glass",
	MinColumns: 4,
	Width:      5,
	Build: func(row []string) (GlassItem, error) {
		if row[0] == "" {
			return GlassItem{}, errPartNumberEmpty
		}
		return GlassItem{
			PartNumber: row[0],
			Name:       row[1],
			Unit:       row[2],
			Cost:       row[3],
			Obscure:    orDefault(row[4], defaultFlag),
		}, nil
	},
}

// IronmongerySchema decodes partNo, name, cost, unit, type, notes?.
var IronmongerySchema = Schema[IronmongeryItem]{
	Name:       "ironmongery",
	MinColumns: 5,
	Width:      6,
	Build: func(row []string) (IronmongeryItem, error) {
		if row[0] == "" {
			return IronmongeryItem{}, errPartNumberEmpty
		}
		return IronmongeryItem{
			PartNumber: row[0],
			Name:       row[1],
			Cost:       row[2],
			Unit:       row[3],
			Type:       row[4],
			Notes:      row[5],
		}, nil
	},
}

// TimberSchema decodes the fourteen timber rule columns. Component and Group
// are mandatory.
var TimberSchema = Schema[TimberRule]{
	Name:       "timber",
	MinColumns: 2,
	Width:      len(TimberColumns),
	Build: func(row []string) (TimberRule, error) {
		if row[0] == "" {
			return TimberRule{}, errors.New("component is empty")
		}
		return TimberRule{
			Component:   row[0],
			Group:       row[1],
			Loop:        row[2],
			Active:      orDefault(row[3], defaultFlag),
			Stocked:     orDefault(row[4], defaultFlag),
			SortOrder:   row[5],
			Condition:   row[6],
			Quantity:    row[7],
			FinalLength: row[8],
			RoughLength: row[9],
			Width:       row[10],
			Thickness:   row[11],
			Material:    row[12],
			Comment:     row[13],
		}, nil
	},
}

// LoadGlass decodes a glass CSV file.
func LoadGlass(path string) (*Batch[GlassItem], error) {
	return DecodeFile(path, GlassSchema)
}

// LoadIronmongery decodes an ironmongery CSV file.
func LoadIronmongery(path string) (*Batch[IronmongeryItem], error) {
	return DecodeFile(path, IronmongerySchema)
}

// LoadTimber decodes a timber rule CSV file.
func LoadTimber(path string) (*Batch[TimberRule], error) {
	return DecodeFile(path, TimberSchema)
}
