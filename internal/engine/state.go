package engine

// DefaultPageSize is the page size of a freshly loaded table.
const DefaultPageSize = 10

// Direction is a sort direction.
type Direction string

const (
	// Ascending sorts smallest first.
	Ascending Direction = "asc"

	// Descending sorts largest first.
	Descending Direction = "desc"
)

// SortSpec is an active sort on one column.
type SortSpec struct {
	Key       string    `json:"key"`
	Direction Direction `json:"direction"`
}

// State is the view state of one table.
//
// State values are treated as immutable: [Reduce] returns a new State and
// never modifies the maps of its input.
type State struct {
	// Sort is the active sort, nil for none.
	Sort *SortSpec

	// Filters holds per-column filter text keyed by column key.
	Filters map[string]string

	// GlobalFilter is matched against every visible column.
	GlobalFilter string

	// Page is the 1-based current page.
	Page int

	// PageSize is the number of rows per page, always > 0.
	PageSize int

	// Selected holds the IDs of selected rows.
	Selected map[string]bool

	// Hidden holds the keys of hidden columns. Absent keys are visible.
	Hidden map[string]bool
}

// NewState returns the default view state: no sort, no filters, page 1,
// empty selection and all columns visible. A non-positive pageSize uses
// [DefaultPageSize].
func NewState(pageSize int) State {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return State{
		Filters:  map[string]string{},
		Page:     1,
		PageSize: pageSize,
		Selected: map[string]bool{},
		Hidden:   map[string]bool{},
	}
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	cp := s
	if s.Sort != nil {
		sortCopy := *s.Sort
		cp.Sort = &sortCopy
	}
	cp.Filters = cloneMap(s.Filters)
	cp.Selected = cloneMap(s.Selected)
	cp.Hidden = cloneMap(s.Hidden)
	return cp
}

// IsSelected reports whether the row with id is selected.
func (s State) IsSelected(id string) bool {
	return s.Selected[id]
}

// IsVisible reports whether the column with key is visible.
func (s State) IsVisible(key string) bool {
	return !s.Hidden[key]
}

func cloneMap[V any](m map[string]V) map[string]V {
	cp := make(map[string]V, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}
