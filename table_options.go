package tableboard

import (
	"errors"
	"fmt"
	"time"
)

// tableConfig holds mutable state during table construction.
type tableConfig struct {
	caption       string
	rows          []Row
	hasRows       bool
	source        LoadFunc
	columns       []Column
	overrides     map[string]ColumnConfig
	registry      *FormatterRegistry
	pageSize      int
	idField       string
	features      Features
	noDataMessage string
	actionLabel   string
	onAction      func()
	onFilter      func(FilterRequest)
	hooks         Hooks
	interval      time.Duration
	loaderOpts    []LoaderOption
}

// TableOption is a function that configures a [Table] during construction.
//
// TableOption implements the functional options pattern, allowing optional
// configuration to be passed to [NewTable]. Options return an error if
// validation fails.
type TableOption func(*tableConfig) error

// Features toggles table operations. A disabled feature turns the
// corresponding operations into no-ops.
type Features struct {
	Pagination   bool `json:"pagination" yaml:"pagination"`
	Sorting      bool `json:"sorting" yaml:"sorting"`
	Filtering    bool `json:"filtering" yaml:"filtering"`
	GlobalSearch bool `json:"global_search" yaml:"global_search"`
	RowSelection bool `json:"row_selection" yaml:"row_selection"`
	DateFilter   bool `json:"date_filter" yaml:"date_filter"`
}

// DefaultFeatures enables pagination, sorting and column filtering.
// Global search, row selection and the date filter are off.
func DefaultFeatures() Features {
	return Features{
		Pagination: true,
		Sorting:    true,
		Filtering:  true,
	}
}

// Hooks are notifications to the collaborator that owns the
// authoritative dataset. The table never creates, edits or deletes rows
// itself. Nil hooks are skipped.
type Hooks struct {
	OnView   func(id string)
	OnEdit   func(id string)
	OnDelete func(id string)
	OnAdd    func()
	OnSearch func(term string)
}

// FilterRequest is passed to the filter handler when the user applies the
// toolbar filters. Empty values are nil.
type FilterRequest struct {
	DateRange  *string `json:"dateRange,omitempty"`
	SearchTerm *string `json:"searchTerm,omitempty"`
}

// WithRows sets a static dataset. Columns are inferred from the first
// row unless [WithColumns] is also given.
//
// A table has either static rows or a [WithSource] load func, not both.
func WithRows(rows ...Row) TableOption {
	return func(cfg *tableConfig) error {
		cfg.rows = append(cfg.rows, rows...)
		cfg.hasRows = true
		return nil
	}
}

// WithSource sets the load func. The table starts in [LoadIdle] and loads
// on [Table.Start].
//
// Returns an error if fn is nil.
func WithSource(fn LoadFunc) TableOption {
	return func(cfg *tableConfig) error {
		if fn == nil {
			return errors.New("source cannot be nil")
		}
		cfg.source = fn
		return nil
	}
}

// WithColumns sets explicit column descriptors, used whenever a dataset
// carries no columns of its own.
func WithColumns(cols ...Column) TableOption {
	return func(cfg *tableConfig) error {
		seen := make(map[string]bool, len(cols))
		for _, c := range cols {
			if c.key == "" {
				return errors.New("column key cannot be empty")
			}
			if seen[c.key] {
				return fmt.Errorf("duplicate column key: %q", c.key)
			}
			seen[c.key] = true
		}
		cfg.columns = append(cfg.columns, cols...)
		return nil
	}
}

// WithColumnConfig sets per-key overrides applied when columns are
// inferred. Overrides for keys absent from the data are ignored.
//
// [NewTable] returns an error if a formatter spec does not resolve.
func WithColumnConfig(overrides map[string]ColumnConfig) TableOption {
	return func(cfg *tableConfig) error {
		if cfg.overrides == nil {
			cfg.overrides = make(map[string]ColumnConfig, len(overrides))
		}
		for k, v := range overrides {
			cfg.overrides[k] = v
		}
		return nil
	}
}

// WithFormatterRegistry resolves formatter overrides against r instead of
// [DefaultFormatters].
func WithFormatterRegistry(r *FormatterRegistry) TableOption {
	return func(cfg *tableConfig) error {
		if r == nil {
			return errors.New("formatter registry cannot be nil")
		}
		cfg.registry = r
		return nil
	}
}

// WithPageSize sets the number of rows per page. Defaults to 10.
//
// Returns an error if n is zero or negative.
func WithPageSize(n int) TableOption {
	return func(cfg *tableConfig) error {
		if n <= 0 {
			return errors.New("page size must be positive")
		}
		cfg.pageSize = n
		return nil
	}
}

// WithIDField sets the row field used as the row ID. Defaults to "id".
// Rows without a non-empty value in that field, and rows repeating an ID
// already used by an earlier row, are identified by their position in the
// dataset as "#<index>".
func WithIDField(field string) TableOption {
	return func(cfg *tableConfig) error {
		if field == "" {
			return errors.New("ID field cannot be empty")
		}
		cfg.idField = field
		return nil
	}
}

// WithFeatures replaces the table's feature flags. See [DefaultFeatures].
func WithFeatures(f Features) TableOption {
	return func(cfg *tableConfig) error {
		cfg.features = f
		return nil
	}
}

// WithNoDataMessage sets the message shown when no rows are displayed.
// Defaults to "No data available.".
func WithNoDataMessage(msg string) TableOption {
	return func(cfg *tableConfig) error {
		cfg.noDataMessage = msg
		return nil
	}
}

// WithCaption sets the table's display title. Defaults to the table name.
func WithCaption(caption string) TableOption {
	return func(cfg *tableConfig) error {
		cfg.caption = caption
		return nil
	}
}

// WithActionLabel sets the label of the toolbar action button. Defaults
// to "Action".
func WithActionLabel(label string) TableOption {
	return func(cfg *tableConfig) error {
		if label == "" {
			return errors.New("action label cannot be empty")
		}
		cfg.actionLabel = label
		return nil
	}
}

// WithActionHandler sets the handler run by [Table.TriggerAction].
func WithActionHandler(fn func()) TableOption {
	return func(cfg *tableConfig) error {
		cfg.onAction = fn
		return nil
	}
}

// WithFilterHandler sets the handler run by [Table.ApplyFilters].
func WithFilterHandler(fn func(FilterRequest)) TableOption {
	return func(cfg *tableConfig) error {
		cfg.onFilter = fn
		return nil
	}
}

// WithHooks sets the row notification hooks.
func WithHooks(h Hooks) TableOption {
	return func(cfg *tableConfig) error {
		cfg.hooks = h
		return nil
	}
}

// WithInterval sets how often a [Board] refreshes this table. Zero means
// the board's global refresh interval.
//
// Returns an error if d is negative.
func WithInterval(d time.Duration) TableOption {
	return func(cfg *tableConfig) error {
		if d < 0 {
			return errors.New("interval cannot be negative")
		}
		cfg.interval = d
		return nil
	}
}

// WithLoaderOptions passes options to the table's [Loader].
func WithLoaderOptions(opts ...LoaderOption) TableOption {
	return func(cfg *tableConfig) error {
		cfg.loaderOpts = append(cfg.loaderOpts, opts...)
		return nil
	}
}
