package tableboard

import (
	"sort"

	"github.com/jpalmerr/tableboard/internal/engine"
)

// View is the renderable state of a [Table]: the current page of rows and
// everything a presentation layer needs to draw controls around it.
type View struct {
	Name          string            `json:"name"`
	Caption       string            `json:"caption"`
	Columns       []ColumnView      `json:"columns"`
	Rows          []RowView         `json:"rows"`
	Page          int               `json:"page"`
	TotalPages    int               `json:"total_pages"`
	PageSize      int               `json:"page_size"`
	Filtered      int               `json:"filtered"`
	Total         int               `json:"total"`
	CanPrevious   bool              `json:"can_previous"`
	CanNext       bool              `json:"can_next"`
	AllSelected   bool              `json:"all_page_selected"`
	PageButtons   []PageButton      `json:"page_buttons"`
	Sort          *SortSpec         `json:"sort"`
	Filters       map[string]string `json:"filters"`
	GlobalFilter  string            `json:"global_filter"`
	Selected      []string          `json:"selected"`
	Hidden        []string          `json:"hidden"`
	State         LoadState         `json:"state"`
	Loading       bool              `json:"loading"`
	Error         string            `json:"error,omitempty"`
	Empty         bool              `json:"empty"`
	NoDataMessage string            `json:"no_data_message"`
	ActionLabel   string            `json:"action_label"`
	Features      Features          `json:"features"`
}

// ColumnView is a visible column header.
type ColumnView struct {
	Key       string `json:"key"`
	Header    string `json:"header"`
	Sortable  bool   `json:"sortable"`
	ClassName string `json:"class"`
	Kind      Kind   `json:"kind"`

	// Direction is "asc" or "desc" when the table is sorted by this
	// column, empty otherwise.
	Direction string `json:"direction,omitempty"`
}

// RowView is one displayed row.
type RowView struct {
	ID       string `json:"id"`
	Selected bool   `json:"selected"`
	Cells    []Cell `json:"cells"`
}

// Cell is one formatted value.
type Cell struct {
	Key       string `json:"key"`
	Text      string `json:"text"`
	ClassName string `json:"class"`
}

// PageButton is one entry of the pagination control. Ellipsis entries
// have Page 0.
type PageButton struct {
	Page     int  `json:"page"`
	Ellipsis bool `json:"ellipsis,omitempty"`
	Current  bool `json:"current,omitempty"`
}

// SortSpec is the active sort.
type SortSpec struct {
	Key       string `json:"key"`
	Direction string `json:"direction"`
}

// View computes the current page and control state.
//
// While the last load failed, the view carries the error and no rows.
func (t *Table) View() View {
	state := LoadLoaded
	loading := false
	errMsg := ""
	if t.loader != nil {
		snap := t.loader.Snapshot()
		state = snap.State
		loading = t.loader.IsLoading()
		if snap.State == LoadFailed {
			errMsg = snap.Error
		}
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	ev := engine.Compute(t.state, t.input)

	v := View{
		Name:          t.name,
		Caption:       t.caption,
		Page:          ev.Page,
		TotalPages:    ev.TotalPages,
		PageSize:      ev.PageSize,
		Filtered:      ev.Filtered,
		Total:         ev.Total,
		CanPrevious:   ev.CanPrevious,
		CanNext:       ev.CanNext,
		AllSelected:   ev.AllPageSelected,
		Filters:       make(map[string]string, len(t.state.Filters)),
		GlobalFilter:  t.state.GlobalFilter,
		Selected:      []string{},
		Hidden:        []string{},
		State:         state,
		Loading:       loading,
		Error:         errMsg,
		NoDataMessage: t.noDataMessage,
		ActionLabel:   t.actionLabel,
		Features:      t.features,
	}

	if t.state.Sort != nil {
		v.Sort = &SortSpec{Key: t.state.Sort.Key, Direction: string(t.state.Sort.Direction)}
	}
	for k, f := range t.state.Filters {
		v.Filters[k] = f
	}
	for id := range t.state.Selected {
		v.Selected = append(v.Selected, id)
	}
	sort.Strings(v.Selected)
	for k := range t.state.Hidden {
		v.Hidden = append(v.Hidden, k)
	}
	sort.Strings(v.Hidden)

	for _, b := range ev.Buttons {
		v.PageButtons = append(v.PageButtons, PageButton{Page: b.Page, Ellipsis: b.Ellipsis, Current: b.Current})
	}

	cols := t.visibleColumnsLocked()
	v.Columns = make([]ColumnView, len(cols))
	for i, c := range cols {
		cv := ColumnView{
			Key:       c.key,
			Header:    c.header,
			Sortable:  c.sortable && t.features.Sorting,
			ClassName: c.className,
			Kind:      c.kind,
		}
		if v.Sort != nil && v.Sort.Key == c.key {
			cv.Direction = v.Sort.Direction
		}
		v.Columns[i] = cv
	}

	v.Rows = []RowView{}
	if errMsg == "" {
		for _, idx := range ev.Rows {
			row := t.rows[idx]
			rv := RowView{
				ID:       t.ids[idx],
				Selected: t.state.Selected[t.ids[idx]],
				Cells:    make([]Cell, len(cols)),
			}
			for i, c := range cols {
				cell := Cell{Key: c.key, ClassName: c.className}
				// a field the row lacks renders empty, whatever the formatter
				if val, ok := row.Get(c.key); ok {
					cell.Text = c.Format(val)
				}
				rv.Cells[i] = cell
			}
			v.Rows = append(v.Rows, rv)
		}
	}
	v.Empty = len(v.Rows) == 0

	return v
}
