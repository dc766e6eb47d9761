package engine

// Action is a user intent applied by [Reduce].
type Action interface {
	isAction()
}

// SortBy cycles the sort on a column: none or another key gives
// ascending, ascending gives descending, descending gives ascending.
type SortBy struct{ Key string }

// FilterColumn sets the filter text of one column. Empty text clears it.
type FilterColumn struct {
	Key  string
	Text string
}

// FilterGlobal sets the global filter text. Empty text clears it.
type FilterGlobal struct{ Text string }

// GoToPage moves to a page, clamped to the valid range.
type GoToPage struct{ Page int }

// ResizePage changes the page size. Non-positive sizes are ignored.
type ResizePage struct{ Size int }

// ToggleRow flips the selection of one row.
type ToggleRow struct{ ID string }

// SelectPage selects or deselects every row on the current page.
type SelectPage struct{ Selected bool }

// ShowColumn sets the visibility of one column.
type ShowColumn struct {
	Key     string
	Visible bool
}

// Reset restores the default state with the given page size.
type Reset struct{ PageSize int }

func (SortBy) isAction()       {}
func (FilterColumn) isAction() {}
func (FilterGlobal) isAction() {}
func (GoToPage) isAction()     {}
func (ResizePage) isAction()   {}
func (ToggleRow) isAction()    {}
func (SelectPage) isAction()   {}
func (ShowColumn) isAction()   {}
func (Reset) isAction()        {}

// Reduce applies a to s over in and returns the next state.
//
// Reduce never modifies s. Actions that target unknown columns, unsortable
// columns or disabled features return an unchanged copy.
func Reduce(s State, a Action, in Input) State {
	next := s.Clone()

	switch act := a.(type) {
	case SortBy:
		col, ok := in.column(act.Key)
		if !in.Features.Sorting || !ok || !col.Sortable {
			return next
		}
		switch {
		case next.Sort == nil || next.Sort.Key != act.Key:
			next.Sort = &SortSpec{Key: act.Key, Direction: Ascending}
		case next.Sort.Direction == Ascending:
			next.Sort.Direction = Descending
		default:
			next.Sort.Direction = Ascending
		}

	case FilterColumn:
		if !in.Features.Filtering {
			return next
		}
		if _, ok := in.column(act.Key); !ok {
			return next
		}
		if act.Text == "" {
			delete(next.Filters, act.Key)
		} else {
			next.Filters[act.Key] = act.Text
		}
		next.Page = 1

	case FilterGlobal:
		if !in.Features.GlobalSearch {
			return next
		}
		next.GlobalFilter = act.Text
		next.Page = 1

	case GoToPage:
		if !in.Features.Pagination {
			return next
		}
		next.Page = clamp(act.Page, 1, totalPages(len(filteredIndexes(next, in)), next.PageSize))

	case ResizePage:
		if act.Size <= 0 {
			return next
		}
		next.PageSize = act.Size
		next.Page = clamp(next.Page, 1, totalPages(len(filteredIndexes(next, in)), next.PageSize))

	case ToggleRow:
		if !in.Features.RowSelection || !knownID(in, act.ID) {
			return next
		}
		if next.Selected[act.ID] {
			delete(next.Selected, act.ID)
		} else {
			next.Selected[act.ID] = true
		}

	case SelectPage:
		if !in.Features.RowSelection {
			return next
		}
		for _, i := range Compute(next, in).Rows {
			if act.Selected {
				next.Selected[in.IDs[i]] = true
			} else {
				delete(next.Selected, in.IDs[i])
			}
		}

	case ShowColumn:
		if _, ok := in.column(act.Key); !ok {
			return next
		}
		if act.Visible {
			delete(next.Hidden, act.Key)
		} else {
			next.Hidden[act.Key] = true
		}

	case Reset:
		return NewState(act.PageSize)
	}

	return next
}

func knownID(in Input, id string) bool {
	for _, known := range in.IDs {
		if known == id {
			return true
		}
	}
	return false
}
