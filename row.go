package tableboard

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// Row is a single record of a dataset: an ordered mapping from field name
// to value.
//
// Row preserves the order in which its keys were first seen, because the
// first row of a dataset determines column order (see [InferColumns]).
// Rows decoded from JSON or YAML keep the document's key order.
//
// Values are normalised to string, int64, float64, bool, nil, or nested
// []any / map[string]any. Row is immutable after construction.
type Row struct {
	keys   []string
	values map[string]any
}

// NewRow creates a [Row] from alternating key-value arguments.
//
// Keys must be strings. A repeated key keeps its first position and takes
// the last value.
//
// Example:
//
//	row, err := tableboard.NewRow("date", "2024-01-01", "flow_rate", 2.5)
//
// Returns an error if an odd number of arguments is provided or a key is
// not a string.
func NewRow(keyValues ...any) (Row, error) {
	if len(keyValues)%2 != 0 {
		return Row{}, fmt.Errorf("%w: NewRow requires an even number of arguments (key-value pairs)", ErrInvalidRow)
	}

	r := Row{
		keys:   make([]string, 0, len(keyValues)/2),
		values: make(map[string]any, len(keyValues)/2),
	}
	for i := 0; i < len(keyValues); i += 2 {
		key, ok := keyValues[i].(string)
		if !ok {
			return Row{}, fmt.Errorf("%w: key at position %d is %T, want string", ErrInvalidRow, i, keyValues[i])
		}
		r.set(key, normalizeValue(keyValues[i+1]))
	}
	return r, nil
}

// MustRow is like [NewRow] but panics on error.
//
// Use this for literal fixtures and mock datasets.
func MustRow(keyValues ...any) Row {
	r, err := NewRow(keyValues...)
	if err != nil {
		panic("tableboard: " + err.Error())
	}
	return r
}

// RowFromMap creates a [Row] from a map.
//
// Go maps have no key order, so keys are sorted alphabetically. Use
// [NewRow] or JSON/YAML decoding when column order matters.
func RowFromMap(m map[string]any) Row {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	r := Row{
		keys:   make([]string, 0, len(keys)),
		values: make(map[string]any, len(keys)),
	}
	for _, k := range keys {
		r.set(k, normalizeValue(m[k]))
	}
	return r
}

func (r *Row) set(key string, value any) {
	if r.values == nil {
		r.values = make(map[string]any)
	}
	if _, exists := r.values[key]; !exists {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
}

// Keys returns a copy of the row's keys in insertion order.
func (r Row) Keys() []string {
	cp := make([]string, len(r.keys))
	copy(cp, r.keys)
	return cp
}

// Len returns the number of fields in the row.
func (r Row) Len() int {
	return len(r.keys)
}

// Get returns the value stored under key and whether the key exists.
func (r Row) Get(key string) (any, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Text returns the display text of the value under key, or an empty
// string if the key is missing.
func (r Row) Text(key string) string {
	v, ok := r.values[key]
	if !ok {
		return ""
	}
	return FormatValue(v)
}

// MarshalJSON encodes the row as a JSON object in key order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(r.values[k])
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object into the row, preserving key order.
// A JSON null decodes to an empty row.
func (r *Row) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRow, err)
	}
	if tok == nil {
		*r = Row{}
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("%w: expected JSON object, got %v", ErrInvalidRow, tok)
	}

	decoded := Row{values: make(map[string]any)}
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidRow, err)
		}
		key, ok := kt.(string)
		if !ok {
			return fmt.Errorf("%w: expected object key, got %v", ErrInvalidRow, kt)
		}

		var raw any
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("%w: field %q: %v", ErrInvalidRow, key, err)
		}
		decoded.set(key, normalizeValue(raw))
	}

	// consume closing brace
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRow, err)
	}

	*r = decoded
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler, preserving mapping key order.
func (r *Row) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("%w: expected mapping, got line %d", ErrInvalidRow, node.Line)
	}

	decoded := Row{values: make(map[string]any, len(node.Content)/2)}
	for i := 0; i+1 < len(node.Content); i += 2 {
		var key string
		if err := node.Content[i].Decode(&key); err != nil {
			return fmt.Errorf("%w: line %d: %v", ErrInvalidRow, node.Content[i].Line, err)
		}
		var value any
		if err := node.Content[i+1].Decode(&value); err != nil {
			return fmt.Errorf("%w: field %q: %v", ErrInvalidRow, key, err)
		}
		decoded.set(key, normalizeValue(value))
	}

	*r = decoded
	return nil
}

// normalizeValue converts decoded values into the small set of types the
// engine compares and formats.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case nil, string, bool, int64, float64:
		return val
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	case int:
		return int64(val)
	case int8:
		return int64(val)
	case int16:
		return int64(val)
	case int32:
		return int64(val)
	case uint:
		return normalizeValue(uint64(val))
	case uint8:
		return int64(val)
	case uint16:
		return int64(val)
	case uint32:
		return int64(val)
	case uint64:
		if val > math.MaxInt64 {
			return float64(val)
		}
		return int64(val)
	case float32:
		return float64(val)
	case time.Time:
		if val.Hour() == 0 && val.Minute() == 0 && val.Second() == 0 && val.Nanosecond() == 0 {
			return val.Format(time.DateOnly)
		}
		return val.Format(time.RFC3339)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalizeValue(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = normalizeValue(item)
		}
		return out
	case fmt.Stringer:
		return val.String()
	default:
		return val
	}
}

// copyRows returns a shallow copy of the slice.
func copyRows(rows []Row) []Row {
	if rows == nil {
		return nil
	}
	cp := make([]Row, len(rows))
	copy(cp, rows)
	return cp
}
