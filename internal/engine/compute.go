package engine

import (
	"cmp"
	"slices"
	"strings"

	"golang.org/x/text/cases"
)

// View is the derived view of a table.
type View struct {
	// Rows holds indexes into Input.Rows for the current page, in
	// display order.
	Rows []int

	// Filtered is the number of rows passing all filters.
	Filtered int

	// Total is the number of rows in the dataset.
	Total int

	// Page is the current page after clamping.
	Page int

	// TotalPages is at least 1, even for an empty result.
	TotalPages int

	PageSize int

	CanPrevious bool
	CanNext     bool

	// AllPageSelected is true when the page is non-empty and every row on
	// it is selected.
	AllPageSelected bool

	Buttons []PageButton
}

// Compute derives the current view: filter, then sort, then paginate.
func Compute(s State, in Input) View {
	ordered := sortedIndexes(s, in, filteredIndexes(s, in))

	v := View{
		Filtered: len(ordered),
		Total:    len(in.Rows),
		PageSize: s.PageSize,
	}
	if v.PageSize <= 0 {
		v.PageSize = DefaultPageSize
	}

	if !in.Features.Pagination {
		v.Rows = ordered
		v.Page = 1
		v.TotalPages = 1
	} else {
		v.TotalPages = totalPages(len(ordered), v.PageSize)
		v.Page = clamp(s.Page, 1, v.TotalPages)
		start := (v.Page - 1) * v.PageSize
		end := min(start+v.PageSize, len(ordered))
		v.Rows = ordered[start:end]
	}

	v.CanPrevious = v.Page > 1
	v.CanNext = v.Page < v.TotalPages
	v.Buttons = PageButtons(v.Page, v.TotalPages)

	if len(v.Rows) > 0 {
		v.AllPageSelected = true
		for _, i := range v.Rows {
			if !s.Selected[in.IDs[i]] {
				v.AllPageSelected = false
				break
			}
		}
	}
	return v
}

// totalPages returns ceil(n/size), at least 1.
func totalPages(n, size int) int {
	if n == 0 {
		return 1
	}
	return (n + size - 1) / size
}

func clamp(n, lo, hi int) int {
	return max(lo, min(n, hi))
}

func filteredIndexes(s State, in Input) []int {
	type filter struct {
		col   Column
		query string
	}

	// A new Caser per call: Casers are stateful.
	fold := cases.Fold()

	var colFilters []filter
	if in.Features.Filtering {
		for key, text := range s.Filters {
			if text == "" {
				continue
			}
			col, ok := in.column(key)
			if !ok {
				continue
			}
			colFilters = append(colFilters, filter{col: col, query: fold.String(text)})
		}
	}

	global := ""
	if in.Features.GlobalSearch {
		global = fold.String(s.GlobalFilter)
	}

	out := make([]int, 0, len(in.Rows))
	for i, row := range in.Rows {
		keep := true
		for _, f := range colFilters {
			if !cellMatches(fold, row, f.col, f.query) {
				keep = false
				break
			}
		}
		if keep && global != "" {
			keep = false
			for _, col := range in.Columns {
				if s.Hidden[col.Key] {
					continue
				}
				if cellMatches(fold, row, col, global) {
					keep = true
					break
				}
			}
		}
		if keep {
			out = append(out, i)
		}
	}
	return out
}

// cellMatches reports whether the formatted or raw text of the cell
// contains the already folded query.
func cellMatches(fold cases.Caser, row Record, col Column, query string) bool {
	raw := row.Text(col.Key)
	if strings.Contains(fold.String(raw), query) {
		return true
	}
	if col.Format == nil {
		return false
	}
	v, _ := row.Get(col.Key)
	formatted := col.Format(v)
	return formatted != raw && strings.Contains(fold.String(formatted), query)
}

func sortedIndexes(s State, in Input, idx []int) []int {
	if s.Sort == nil || !in.Features.Sorting {
		return idx
	}
	col, ok := in.column(s.Sort.Key)
	if !ok || !col.Sortable {
		return idx
	}

	desc := s.Sort.Direction == Descending
	slices.SortStableFunc(idx, func(a, b int) int {
		av, aok := in.Rows[a].Get(col.Key)
		bv, bok := in.Rows[b].Get(col.Key)
		aMissing := !aok || av == nil
		bMissing := !bok || bv == nil

		// Missing values sort last in both directions.
		switch {
		case aMissing && bMissing:
			return 0
		case aMissing:
			return 1
		case bMissing:
			return -1
		}

		c := compareValues(av, bv, in.Rows[a].Text(col.Key), in.Rows[b].Text(col.Key))
		if desc {
			return -c
		}
		return c
	})
	return idx
}

// compareValues orders numbers before bools before everything else. Within
// a kind, numbers compare numerically, bools false before true and the
// rest by text.
func compareValues(a, b any, aText, bText string) int {
	if c := cmp.Compare(kindRank(a), kindRank(b)); c != 0 {
		return c
	}
	switch av := a.(type) {
	case int64:
		if bv, ok := b.(int64); ok {
			return cmp.Compare(av, bv)
		}
	case bool:
		bv := b.(bool)
		switch {
		case av == bv:
			return 0
		case !av:
			return -1
		default:
			return 1
		}
	}
	if af, ok := number(a); ok {
		bf, _ := number(b)
		return cmp.Compare(af, bf)
	}
	return strings.Compare(aText, bText)
}

func kindRank(v any) int {
	switch v.(type) {
	case int64, float64:
		return 0
	case bool:
		return 1
	default:
		return 2
	}
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
