package tableboard

import (
	"encoding/json"
	"errors"
	"fmt"
)

// DefaultClassName is the display class of a column without an override.
const DefaultClassName = "center"

// Kind is the value category of a column, inferred from the first row.
type Kind string

const (
	// KindString is a text column. Missing and null first values also
	// infer as text.
	KindString Kind = "string"

	// KindNumber is a numeric column (int64 or float64 values).
	KindNumber Kind = "number"

	// KindBool is a boolean column.
	KindBool Kind = "bool"

	// KindOther is a column of nested arrays or objects.
	KindOther Kind = "other"
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	return string(k)
}

func kindOf(v any) Kind {
	switch v.(type) {
	case int64, float64:
		return KindNumber
	case bool:
		return KindBool
	case []any, map[string]any:
		return KindOther
	default:
		return KindString
	}
}

// Column describes how one field is labelled, sorted and formatted.
//
// Column is immutable after creation. The formatter is held both as a
// spec string (so the column serializes) and as the resolved function.
type Column struct {
	key           string
	header        string
	sortable      bool
	formatterSpec string
	format        Formatter
	className     string
	kind          Kind
}

// Key returns the row field this column reads.
func (c Column) Key() string {
	return c.key
}

// Header returns the display label. Defaults to the key.
func (c Column) Header() string {
	return c.header
}

// Sortable reports whether the column accepts sort requests.
func (c Column) Sortable() bool {
	return c.sortable
}

// FormatterSpec returns the formatter spec string, or "" for identity.
func (c Column) FormatterSpec() string {
	return c.formatterSpec
}

// ClassName returns the display class hint. Defaults to [DefaultClassName].
func (c Column) ClassName() string {
	return c.className
}

// Kind returns the inferred value category.
func (c Column) Kind() Kind {
	return c.kind
}

// Format renders a cell value with the column's formatter.
func (c Column) Format(v any) string {
	if c.format == nil {
		return FormatValue(v)
	}
	return c.format(v)
}

type columnJSON struct {
	Key       string `json:"key"`
	Header    string `json:"header"`
	Sortable  bool   `json:"sortable"`
	Formatter string `json:"formatter,omitempty"`
	Class     string `json:"class"`
	Kind      Kind   `json:"kind,omitempty"`
}

// MarshalJSON encodes the column descriptor. The formatter is emitted by
// spec string.
func (c Column) MarshalJSON() ([]byte, error) {
	return json.Marshal(columnJSON{
		Key:       c.key,
		Header:    c.header,
		Sortable:  c.sortable,
		Formatter: c.formatterSpec,
		Class:     c.className,
		Kind:      c.kind,
	})
}

// UnmarshalJSON decodes a column descriptor and resolves its formatter
// against [DefaultFormatters]. Unknown formatters fall back to identity.
func (c *Column) UnmarshalJSON(data []byte) error {
	var raw columnJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Key == "" {
		return errors.New("column key cannot be empty")
	}

	col := Column{
		key:           raw.Key,
		header:        raw.Header,
		sortable:      raw.Sortable,
		formatterSpec: raw.Formatter,
		className:     raw.Class,
		kind:          raw.Kind,
	}
	if col.header == "" {
		col.header = col.key
	}
	if col.className == "" {
		col.className = DefaultClassName
	}
	if col.kind == "" {
		col.kind = KindString
	}
	if f, err := DefaultFormatters.Resolve(raw.Formatter); err == nil {
		col.format = f
	} else {
		col.formatterSpec = ""
	}

	*c = col
	return nil
}

// ColumnOption configures a [Column] built with [NewColumn].
type ColumnOption func(*columnConfig) error

type columnConfig struct {
	header        string
	sortable      bool
	formatterSpec string
	format        Formatter
	className     string
	kind          Kind
}

// NewColumn creates an explicit column descriptor for key.
//
// Defaults match inference: header is the key, the column is sortable,
// values render as-is and the class is [DefaultClassName].
//
// Example:
//
//	col, err := tableboard.NewColumn("flow_rate",
//	    tableboard.WithHeader("Flow rate"),
//	    tableboard.WithFormatter("suffix: m³/s"),
//	)
func NewColumn(key string, opts ...ColumnOption) (Column, error) {
	if key == "" {
		return Column{}, errors.New("column key cannot be empty")
	}

	cfg := &columnConfig{
		header:    key,
		sortable:  true,
		format:    FormatValue,
		className: DefaultClassName,
		kind:      KindString,
	}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return Column{}, fmt.Errorf("column %q: %w", key, err)
		}
	}

	return Column{
		key:           key,
		header:        cfg.header,
		sortable:      cfg.sortable,
		formatterSpec: cfg.formatterSpec,
		format:        cfg.format,
		className:     cfg.className,
		kind:          cfg.kind,
	}, nil
}

// MustColumn is like [NewColumn] but panics on error.
func MustColumn(key string, opts ...ColumnOption) Column {
	c, err := NewColumn(key, opts...)
	if err != nil {
		panic("tableboard: " + err.Error())
	}
	return c
}

// WithHeader sets the display label.
func WithHeader(header string) ColumnOption {
	return func(cfg *columnConfig) error {
		if header == "" {
			return errors.New("header cannot be empty")
		}
		cfg.header = header
		return nil
	}
}

// WithSortable sets whether the column accepts sort requests.
func WithSortable(sortable bool) ColumnOption {
	return func(cfg *columnConfig) error {
		cfg.sortable = sortable
		return nil
	}
}

// WithFormatter sets the formatter by spec, resolved against
// [DefaultFormatters].
func WithFormatter(spec string) ColumnOption {
	return func(cfg *columnConfig) error {
		f, err := DefaultFormatters.Resolve(spec)
		if err != nil {
			return err
		}
		cfg.formatterSpec = spec
		cfg.format = f
		return nil
	}
}

// WithFormatterFunc sets an in-memory formatter. The name is what the
// column serializes as; it does not need to be registered.
func WithFormatterFunc(name string, f Formatter) ColumnOption {
	return func(cfg *columnConfig) error {
		if f == nil {
			return errors.New("formatter cannot be nil")
		}
		cfg.formatterSpec = name
		cfg.format = f
		return nil
	}
}

// WithClassName sets the display class hint.
func WithClassName(className string) ColumnOption {
	return func(cfg *columnConfig) error {
		if className == "" {
			return errors.New("class name cannot be empty")
		}
		cfg.className = className
		return nil
	}
}

// WithKind sets the value category used for typed export.
func WithKind(kind Kind) ColumnOption {
	return func(cfg *columnConfig) error {
		switch kind {
		case KindString, KindNumber, KindBool, KindOther:
			cfg.kind = kind
			return nil
		default:
			return fmt.Errorf("invalid kind %q", kind)
		}
	}
}

func copyColumns(cols []Column) []Column {
	if cols == nil {
		return nil
	}
	cp := make([]Column, len(cols))
	copy(cp, cols)
	return cp
}
