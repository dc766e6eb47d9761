package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrUnsupportedFormat is returned for an unknown export format.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// Format is an export file format.
type Format string

const (
	FormatCSV     Format = "csv"
	FormatParquet Format = "parquet"
)

// ParseFormat parses a format name case-insensitively. An empty name is CSV.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "csv":
		return FormatCSV, nil
	case "parquet":
		return FormatParquet, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	if f == FormatParquet {
		return "application/vnd.apache.parquet"
	}
	return "text/csv; charset=utf-8"
}

// Extension returns the file extension of the format, with the dot.
func (f Format) Extension() string {
	return "." + string(f)
}

// Column kinds understood by the Parquet writer.
const (
	KindString = "string"
	KindNumber = "number"
	KindBool   = "bool"
	KindOther  = "other"
)

// Column describes one exported column.
type Column struct {
	Key    string
	Header string
	Kind   string
}

// Data is the exported content: columns plus, per row, the raw values and
// their display text. Values[i] and Text[i] have one entry per column.
type Data struct {
	Name    string
	Columns []Column
	Values  [][]any
	Text    [][]string
}

// Write writes d in format f.
func Write(w io.Writer, f Format, d Data) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, d)
	case FormatParquet:
		return WriteParquet(w, d)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, string(f))
	}
}

// WriteCSV writes a header row of column headers followed by the display
// text of every row.
func WriteCSV(w io.Writer, d Data) error {
	cw := csv.NewWriter(w)

	headers := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		headers[i] = c.Header
	}
	if err := cw.Write(headers); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, row := range d.Text {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
