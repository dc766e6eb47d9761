package tableboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/jpalmerr/tableboard/internal/engine"
)

const (
	defaultIDField       = "id"
	defaultNoDataMessage = "No data available."
	defaultActionLabel   = "Action"
)

// Table owns one dataset, its column descriptors and its view state.
//
// A Table is created with [NewTable] from either static rows ([WithRows])
// or a load func ([WithSource]). Every mutation recomputes the derived
// view (filter, then sort, then paginate); none of them modify the rows or
// columns. A fresh dataset resets the view state.
//
// All methods are safe for concurrent use. Mutations are applied in the
// order they acquire the table's lock.
type Table struct {
	name          string
	caption       string
	overrides     map[string]ColumnConfig
	registry      *FormatterRegistry
	explicit      []Column
	pageSize      int
	idField       string
	features      Features
	noDataMessage string
	actionLabel   string
	onAction      func()
	onFilter      func(FilterRequest)
	hooks         Hooks
	interval      time.Duration
	loader        *Loader
	logger        *slog.Logger

	mu      sync.RWMutex
	columns []Column
	rows    []Row
	ids     []string
	input   engine.Input
	state   engine.State
}

// NewTable creates a [Table] with the given name and options.
//
// The name identifies the table on a [Board] and in the HTTP API, so it
// must be non-empty. Exactly one of [WithRows] or [WithSource] must be
// given.
//
// Example:
//
//	tbl, err := tableboard.NewTable("flow",
//	    tableboard.WithSource(tableboard.FileSource("flow.json")),
//	    tableboard.WithColumnConfig(map[string]tableboard.ColumnConfig{
//	        "flow_rate": {Header: "Flow rate", Formatter: "suffix: m³/s"},
//	    }),
//	)
func NewTable(name string, opts ...TableOption) (*Table, error) {
	if name == "" {
		return nil, errors.New("table name cannot be empty")
	}

	cfg := &tableConfig{
		pageSize:      engine.DefaultPageSize,
		idField:       defaultIDField,
		features:      DefaultFeatures(),
		noDataMessage: defaultNoDataMessage,
		actionLabel:   defaultActionLabel,
		registry:      DefaultFormatters,
	}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("table %q: %w", name, err)
		}
	}

	if cfg.hasRows && cfg.source != nil {
		return nil, fmt.Errorf("table %q: rows and source are mutually exclusive", name)
	}
	if !cfg.hasRows && cfg.source == nil {
		return nil, fmt.Errorf("table %q: rows or source is required", name)
	}
	if err := cfg.registry.ValidateColumnConfig(cfg.overrides); err != nil {
		return nil, fmt.Errorf("table %q: %w", name, err)
	}

	caption := cfg.caption
	if caption == "" {
		caption = name
	}

	t := &Table{
		name:          name,
		caption:       caption,
		overrides:     cfg.overrides,
		registry:      cfg.registry,
		explicit:      cfg.columns,
		pageSize:      cfg.pageSize,
		idField:       cfg.idField,
		features:      cfg.features,
		noDataMessage: cfg.noDataMessage,
		actionLabel:   cfg.actionLabel,
		onAction:      cfg.onAction,
		onFilter:      cfg.onFilter,
		hooks:         cfg.hooks,
		interval:      cfg.interval,
		logger:        slog.Default(),
	}

	if cfg.source != nil {
		loader, err := NewLoader(cfg.source, cfg.loaderOpts...)
		if err != nil {
			return nil, fmt.Errorf("table %q: %w", name, err)
		}
		loader.name = name
		loader.prepare = t.prepare
		loader.commit = t.commit
		t.loader = loader
		t.logger = loader.logger
		t.apply(Dataset{})
	} else {
		t.apply(t.prepare(Dataset{Rows: cfg.rows}))
	}

	return t, nil
}

// MustTable is like [NewTable] but panics on error.
func MustTable(name string, opts ...TableOption) *Table {
	t, err := NewTable(name, opts...)
	if err != nil {
		panic("tableboard: " + err.Error())
	}
	return t
}

// Name returns the table's identifier.
func (t *Table) Name() string {
	return t.name
}

// Caption returns the table's display title.
func (t *Table) Caption() string {
	return t.caption
}

// Interval returns the table's refresh interval, 0 for the board default.
func (t *Table) Interval() time.Duration {
	return t.interval
}

// Features returns the table's feature flags.
func (t *Table) Features() Features {
	return t.features
}

// Loader returns the table's loader, or nil for a static table.
func (t *Table) Loader() *Loader {
	return t.loader
}

// prepare fills in columns for a loaded dataset. An empty dataset has no
// columns; a dataset without columns uses the explicit columns or infers
// them from the first row.
func (t *Table) prepare(ds Dataset) Dataset {
	if len(ds.Rows) == 0 {
		return Dataset{Columns: []Column{}, Rows: []Row{}}
	}
	if len(ds.Columns) == 0 {
		if len(t.explicit) > 0 {
			ds.Columns = copyColumns(t.explicit)
		} else {
			ds.Columns = t.registry.InferColumns(ds.Rows, t.overrides)
		}
	}
	return ds
}

// commit is called by the loader, under its lock, after each resolution.
func (t *Table) commit(snap LoadSnapshot) {
	if snap.State != LoadLoaded {
		return
	}
	t.apply(snap.Dataset)
}

// apply replaces the dataset and resets the view state.
func (t *Table) apply(ds Dataset) {
	columns := ds.Columns
	if columns == nil {
		columns = []Column{}
	}
	rows := ds.Rows
	if rows == nil {
		rows = []Row{}
	}

	ids := t.rowIDs(rows)
	records := make([]engine.Record, len(rows))
	for i, r := range rows {
		records[i] = r
	}

	engineCols := make([]engine.Column, len(columns))
	for i, c := range columns {
		engineCols[i] = engine.Column{Key: c.key, Sortable: c.sortable, Format: c.Format}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.columns = columns
	t.rows = rows
	t.ids = ids
	t.input = engine.Input{
		Columns:  engineCols,
		Rows:     records,
		IDs:      ids,
		Features: t.engineFeatures(),
	}
	t.state = engine.NewState(t.pageSize)
}

// rowIDs assigns every row an ID that is unique within the dataset. A row
// keeps the text of its ID field unless that is empty or already taken,
// in which case it gets its position prefixed with "#".
func (t *Table) rowIDs(rows []Row) []string {
	ids := make([]string, len(rows))
	taken := make(map[string]bool, len(rows))
	for i, r := range rows {
		if id := r.Text(t.idField); id != "" && !taken[id] {
			ids[i] = id
			taken[id] = true
		}
	}
	for i := range rows {
		if ids[i] != "" {
			continue
		}
		id := "#" + strconv.Itoa(i)
		for taken[id] {
			id = "#" + id
		}
		ids[i] = id
		taken[id] = true
	}
	return ids
}

func (t *Table) engineFeatures() engine.Features {
	return engine.Features{
		Sorting:      t.features.Sorting,
		Filtering:    t.features.Filtering,
		GlobalSearch: t.features.GlobalSearch,
		Pagination:   t.features.Pagination,
		RowSelection: t.features.RowSelection,
	}
}

// SetData replaces the dataset directly, as a successful load would.
// Columns are inferred when ds has none.
func (t *Table) SetData(ds Dataset) {
	t.apply(t.prepare(ds))
}

func (t *Table) dispatch(a engine.Action) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = engine.Reduce(t.state, a, t.input)
}

// SetSort cycles the sort on key: ascending first, then descending, then
// ascending again. Unknown or unsortable keys are ignored. The current
// page is kept.
func (t *Table) SetSort(key string) {
	t.dispatch(engine.SortBy{Key: key})
}

// SetFilterText sets the case-insensitive substring filter of one column.
// Empty text clears it. Resets to page 1.
func (t *Table) SetFilterText(key, text string) {
	t.dispatch(engine.FilterColumn{Key: key, Text: text})
}

// SetGlobalFilterText sets the filter matched against every visible
// column. Empty text clears it. Resets to page 1.
func (t *Table) SetGlobalFilterText(text string) {
	t.dispatch(engine.FilterGlobal{Text: text})
}

// SetPage moves to page n, clamped to the valid range.
func (t *Table) SetPage(n int) {
	t.dispatch(engine.GoToPage{Page: n})
}

// NextPage moves forward one page if possible.
func (t *Table) NextPage() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = engine.Reduce(t.state, engine.GoToPage{Page: t.state.Page + 1}, t.input)
}

// PreviousPage moves back one page if possible.
func (t *Table) PreviousPage() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = engine.Reduce(t.state, engine.GoToPage{Page: t.state.Page - 1}, t.input)
}

// SetPageSize changes the page size. Non-positive sizes are ignored.
func (t *Table) SetPageSize(n int) {
	t.dispatch(engine.ResizePage{Size: n})
}

// ToggleRowSelection flips the selection of the row with id.
func (t *Table) ToggleRowSelection(id string) {
	t.dispatch(engine.ToggleRow{ID: id})
}

// ToggleSelectAllOnPage selects or deselects every row on the current page.
func (t *Table) ToggleSelectAllOnPage(selected bool) {
	t.dispatch(engine.SelectPage{Selected: selected})
}

// SetColumnVisibility shows or hides a column. Hidden columns still
// accept sorts and column filters but are skipped by the global filter.
func (t *Table) SetColumnVisibility(key string, visible bool) {
	t.dispatch(engine.ShowColumn{Key: key, Visible: visible})
}

// Reset restores the default view state.
func (t *Table) Reset() {
	t.dispatch(engine.Reset{PageSize: t.pageSize})
}

// SelectedIDs returns the selected row IDs in dataset order.
func (t *Table) SelectedIDs() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]string, 0, len(t.state.Selected))
	for _, id := range t.ids {
		if t.state.Selected[id] {
			out = append(out, id)
		}
	}
	return out
}

// Columns returns the current column descriptors.
func (t *Table) Columns() []Column {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return copyColumns(t.columns)
}

// Rows returns the current dataset rows.
func (t *Table) Rows() []Row {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return copyRows(t.rows)
}

// Filtered returns the visible columns and every row passing the current
// filters, in sorted order, ignoring pagination.
func (t *Table) Filtered() ([]Column, []Row) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	all := t.state.Clone()
	in := t.input
	in.Features.Pagination = false
	v := engine.Compute(all, in)

	rows := make([]Row, len(v.Rows))
	for i, idx := range v.Rows {
		rows[i] = t.rows[idx]
	}
	return t.visibleColumnsLocked(), rows
}

func (t *Table) visibleColumnsLocked() []Column {
	cols := make([]Column, 0, len(t.columns))
	for _, c := range t.columns {
		if t.state.IsVisible(c.key) {
			cols = append(cols, c)
		}
	}
	return cols
}

// Start performs the initial load of a sourced table. It is a no-op for
// static tables and after the first call.
func (t *Table) Start(ctx context.Context) {
	if t.loader != nil {
		t.loader.Start(ctx)
	}
}

// Trigger starts a load unless one is in flight. It reports whether a load
// was started; static tables never load.
func (t *Table) Trigger(ctx context.Context) bool {
	if t.loader == nil {
		return false
	}
	return t.loader.Trigger(ctx)
}

// Refresh starts a load even if one is in flight. It reports whether the
// table has a source to load from.
func (t *Table) Refresh(ctx context.Context) bool {
	if t.loader == nil {
		return false
	}
	t.loader.Refresh(ctx)
	return true
}

// Wait blocks until no load is in flight.
func (t *Table) Wait(ctx context.Context) error {
	if t.loader == nil {
		return nil
	}
	return t.loader.Wait(ctx)
}

// SetExternalLoading sets the caller-owned loading flag shown by
// [View.Loading].
func (t *Table) SetExternalLoading(loading bool) {
	if t.loader != nil {
		t.loader.SetExternalLoading(loading)
	}
}

// ApplyFilters passes the toolbar filter values to the filter handler.
// It does not change the table's own filters.
func (t *Table) ApplyFilters(dateRange, searchTerm string) {
	if t.onFilter == nil {
		return
	}
	var req FilterRequest
	if dateRange != "" {
		req.DateRange = &dateRange
	}
	if searchTerm != "" {
		req.SearchTerm = &searchTerm
	}
	t.safeCall("filter handler", func() { t.onFilter(req) })
}

// TriggerAction runs the action handler, if any.
func (t *Table) TriggerAction() {
	if t.onAction == nil {
		return
	}
	t.safeCall("action handler", t.onAction)
}

// Search sets the global filter, resets to page 1 and notifies the
// OnSearch hook. It is a no-op when global search is disabled.
func (t *Table) Search(term string) {
	if !t.features.GlobalSearch {
		return
	}
	t.SetGlobalFilterText(term)
	if t.hooks.OnSearch != nil {
		t.safeCall("search hook", func() { t.hooks.OnSearch(term) })
	}
}

// ViewRow notifies the OnView hook for the row with id.
func (t *Table) ViewRow(id string) error {
	return t.rowHook(id, "view hook", t.hooks.OnView)
}

// EditRow notifies the OnEdit hook for the row with id.
func (t *Table) EditRow(id string) error {
	return t.rowHook(id, "edit hook", t.hooks.OnEdit)
}

// DeleteRow notifies the OnDelete hook for the row with id. The row is not
// removed; the hook's owner reloads the table.
func (t *Table) DeleteRow(id string) error {
	return t.rowHook(id, "delete hook", t.hooks.OnDelete)
}

// AddRow notifies the OnAdd hook.
func (t *Table) AddRow() {
	if t.hooks.OnAdd != nil {
		t.safeCall("add hook", t.hooks.OnAdd)
	}
}

func (t *Table) rowHook(id, what string, hook func(string)) error {
	t.mu.RLock()
	known := slices.Contains(t.ids, id)
	t.mu.RUnlock()

	if !known {
		return fmt.Errorf("%w: %q", ErrRowNotFound, id)
	}
	if hook != nil {
		t.safeCall(what, func() { hook(id) })
	}
	return nil
}

// safeCall runs a caller-supplied handler with panic recovery.
func (t *Table) safeCall(what string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			t.logger.Error(what+" panicked",
				"panic", r,
				"table", t.name,
			)
		}
	}()
	fn()
}
