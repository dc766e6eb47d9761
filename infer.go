package tableboard

import (
	"errors"
	"fmt"
	"sort"
)

// ColumnConfig is a partial override for one inferred column.
//
// Zero values mean "not set": an empty Header keeps the key, a nil
// Sortable keeps the column sortable, an empty Formatter renders values
// as-is and an empty ClassName keeps [DefaultClassName].
type ColumnConfig struct {
	Header    string `yaml:"header,omitempty" json:"header,omitempty"`
	Sortable  *bool  `yaml:"sortable,omitempty" json:"sortable,omitempty"`
	Formatter string `yaml:"formatter,omitempty" json:"formatter,omitempty"`
	ClassName string `yaml:"class,omitempty" json:"class,omitempty"`
}

// Bool returns a pointer to b, for [ColumnConfig.Sortable].
func Bool(b bool) *bool {
	return &b
}

// InferColumns derives column descriptors from rows, using
// [DefaultFormatters] to resolve formatter overrides.
//
// One column is produced per key of the first row, in that row's key
// order; later rows do not add columns. Overrides for keys the first row
// lacks are ignored. An empty rows slice yields an empty (non-nil) slice.
//
// Unknown formatter specs fall back to identity. Use
// [ValidateColumnConfig] to reject them up front.
func InferColumns(rows []Row, overrides map[string]ColumnConfig) []Column {
	return DefaultFormatters.InferColumns(rows, overrides)
}

// InferColumns is like the package-level [InferColumns] but resolves
// formatters against r.
func (r *FormatterRegistry) InferColumns(rows []Row, overrides map[string]ColumnConfig) []Column {
	if len(rows) == 0 {
		return []Column{}
	}

	first := rows[0]
	cols := make([]Column, 0, first.Len())
	for _, key := range first.keys {
		col := Column{
			key:       key,
			header:    key,
			sortable:  true,
			format:    FormatValue,
			className: DefaultClassName,
			kind:      kindOf(first.values[key]),
		}

		if o, ok := overrides[key]; ok {
			if o.Header != "" {
				col.header = o.Header
			}
			if o.Sortable != nil {
				col.sortable = *o.Sortable
			}
			if o.Formatter != "" {
				if f, err := r.Resolve(o.Formatter); err == nil {
					col.formatterSpec = o.Formatter
					col.format = f
				}
			}
			if o.ClassName != "" {
				col.className = o.ClassName
			}
		}

		cols = append(cols, col)
	}
	return cols
}

// ValidateColumnConfig checks that every formatter override resolves
// against [DefaultFormatters]. All failures are reported together.
func ValidateColumnConfig(overrides map[string]ColumnConfig) error {
	return DefaultFormatters.ValidateColumnConfig(overrides)
}

// ValidateColumnConfig checks overrides against r.
func (r *FormatterRegistry) ValidateColumnConfig(overrides map[string]ColumnConfig) error {
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var errs []error
	for _, k := range keys {
		if k == "" {
			errs = append(errs, errors.New("columns: key cannot be empty"))
			continue
		}
		if spec := overrides[k].Formatter; spec != "" {
			if _, err := r.Resolve(spec); err != nil {
				errs = append(errs, fmt.Errorf("columns.%s: %w", k, err))
			}
		}
	}
	return errors.Join(errs...)
}
