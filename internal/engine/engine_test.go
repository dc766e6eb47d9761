package engine

import (
	"fmt"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRecord map[string]any

func (r testRecord) Get(key string) (any, bool) {
	v, ok := r[key]
	return v, ok
}

func (r testRecord) Text(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

func newInput(rows []testRecord, cols ...Column) Input {
	in := Input{Columns: cols, Features: DefaultFeatures()}
	in.Features.GlobalSearch = true
	in.Features.RowSelection = true
	for i, r := range rows {
		in.Rows = append(in.Rows, r)
		in.IDs = append(in.IDs, strconv.Itoa(i))
	}
	return in
}

func keysOf(in Input, v View, key string) []any {
	out := make([]any, 0, len(v.Rows))
	for _, i := range v.Rows {
		val, _ := in.Rows[i].Get(key)
		out = append(out, val)
	}
	return out
}

func TestCompute_StableSort(t *testing.T) {
	in := newInput([]testRecord{
		{"k": "b", "n": int64(1)},
		{"k": "a", "n": int64(1)},
		{"k": "a", "n": int64(2)},
	}, Column{Key: "k", Sortable: true}, Column{Key: "n", Sortable: true})

	s := Reduce(NewState(10), SortBy{Key: "k"}, in)
	v := Compute(s, in)

	assert.Equal(t, []int{1, 2, 0}, v.Rows)
}

func TestReduce_SortCycle(t *testing.T) {
	in := newInput([]testRecord{
		{"n": int64(3)}, {"n": int64(1)}, {"n": int64(2)},
	}, Column{Key: "n", Sortable: true})

	s := Reduce(NewState(10), SortBy{Key: "n"}, in)
	require.NotNil(t, s.Sort)
	assert.Equal(t, Ascending, s.Sort.Direction)
	first := Compute(s, in).Rows

	s = Reduce(s, SortBy{Key: "n"}, in)
	assert.Equal(t, Descending, s.Sort.Direction)
	assert.Equal(t, []any{int64(3), int64(2), int64(1)}, keysOf(in, Compute(s, in), "n"))

	s = Reduce(s, SortBy{Key: "n"}, in)
	assert.Equal(t, Ascending, s.Sort.Direction)
	assert.Equal(t, first, Compute(s, in).Rows)
}

func TestReduce_SortIgnored(t *testing.T) {
	in := newInput([]testRecord{{"n": int64(1)}}, Column{Key: "n", Sortable: false})

	tests := []struct {
		name string
		in   Input
		key  string
	}{
		{"unsortable column", in, "n"},
		{"unknown column", in, "missing"},
		{"sorting disabled", func() Input {
			cp := in
			cp.Columns = []Column{{Key: "n", Sortable: true}}
			cp.Features.Sorting = false
			return cp
		}(), "n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Reduce(NewState(10), SortBy{Key: tt.key}, tt.in)
			assert.Nil(t, s.Sort)
		})
	}
}

func TestCompute_SortMissingLast(t *testing.T) {
	in := newInput([]testRecord{
		{"n": nil}, {"n": int64(2)}, {}, {"n": 1.5},
	}, Column{Key: "n", Sortable: true})

	s := Reduce(NewState(10), SortBy{Key: "n"}, in)
	assert.Equal(t, []int{3, 1, 0, 2}, Compute(s, in).Rows)

	s = Reduce(s, SortBy{Key: "n"}, in)
	assert.Equal(t, []int{1, 3, 0, 2}, Compute(s, in).Rows)
}

func TestCompute_SortMixedKinds(t *testing.T) {
	in := newInput([]testRecord{
		{"v": true}, {"v": false}, {"v": "b"}, {"v": "a"},
	}, Column{Key: "v", Sortable: true})

	s := Reduce(NewState(10), SortBy{Key: "v"}, in)
	// bools before text, each ordered among themselves
	assert.Equal(t, []any{false, true, "a", "b"}, keysOf(in, Compute(s, in), "v"))
}

func TestCompute_SortNumbersBeforeText(t *testing.T) {
	in := newInput([]testRecord{
		{"v": int64(10)}, {"v": "5"}, {"v": int64(9)}, {"v": 9.5}, {"v": true},
	}, Column{Key: "v", Sortable: true})

	s := Reduce(NewState(10), SortBy{Key: "v"}, in)
	assert.Equal(t, []any{int64(9), 9.5, int64(10), true, "5"}, keysOf(in, Compute(s, in), "v"))

	s = Reduce(s, SortBy{Key: "v"}, in)
	assert.Equal(t, []any{"5", true, int64(10), 9.5, int64(9)}, keysOf(in, Compute(s, in), "v"))
}

func TestReduce_FilterResetsPage(t *testing.T) {
	rows := make([]testRecord, 25)
	for i := range rows {
		rows[i] = testRecord{"name": fmt.Sprintf("row-%02d", i)}
	}
	in := newInput(rows, Column{Key: "name", Sortable: true})

	s := Reduce(NewState(10), GoToPage{Page: 3}, in)
	require.Equal(t, 3, s.Page)

	s = Reduce(s, FilterColumn{Key: "name", Text: "ROW-1"}, in)
	assert.Equal(t, 1, s.Page)

	v := Compute(s, in)
	assert.Equal(t, 10, v.Filtered)
	assert.Equal(t, 25, v.Total)
}

func TestReduce_FilterToZeroRows(t *testing.T) {
	in := newInput([]testRecord{{"name": "alpha"}, {"name": "beta"}}, Column{Key: "name"})

	s := Reduce(NewState(1), GoToPage{Page: 2}, in)
	require.Equal(t, 2, s.Page)

	s = Reduce(s, FilterColumn{Key: "name", Text: "zzz"}, in)
	v := Compute(s, in)

	assert.Equal(t, 1, s.Page)
	assert.Equal(t, 1, v.Page)
	assert.Equal(t, 1, v.TotalPages)
	assert.Empty(t, v.Rows)
	assert.Equal(t, []PageButton{{Page: 1, Current: true}}, v.Buttons)
	assert.False(t, v.AllPageSelected)
}

func TestReduce_FilterEmptyClears(t *testing.T) {
	in := newInput([]testRecord{{"name": "alpha"}, {"name": "beta"}}, Column{Key: "name"})

	s := Reduce(NewState(10), FilterColumn{Key: "name", Text: "alp"}, in)
	assert.Equal(t, 1, Compute(s, in).Filtered)

	s = Reduce(s, FilterColumn{Key: "name", Text: ""}, in)
	assert.Equal(t, 2, Compute(s, in).Filtered)
	assert.Empty(t, s.Filters)
}

func TestCompute_FilterMatchesFormattedText(t *testing.T) {
	status := Column{Key: "status", Format: func(v any) string {
		if v == "active" {
			return "Hoạt động"
		}
		return "Ngừng hoạt động"
	}}
	in := newInput([]testRecord{{"status": "active"}, {"status": "inactive"}}, status)

	s := Reduce(NewState(10), FilterColumn{Key: "status", Text: "HOẠT"}, in)
	assert.Equal(t, 2, Compute(s, in).Filtered)

	s = Reduce(s, FilterColumn{Key: "status", Text: "ngừng"}, in)
	assert.Equal(t, []int{1}, Compute(s, in).Rows)

	s = Reduce(s, FilterColumn{Key: "status", Text: "inact"}, in)
	assert.Equal(t, []int{1}, Compute(s, in).Rows)
}

func TestCompute_GlobalFilterVisibleColumnsOnly(t *testing.T) {
	in := newInput([]testRecord{
		{"name": "pump", "site": "north"},
		{"name": "valve", "site": "south"},
	}, Column{Key: "name"}, Column{Key: "site"})

	s := Reduce(NewState(10), FilterGlobal{Text: "SOUTH"}, in)
	assert.Equal(t, []int{1}, Compute(s, in).Rows)

	s = Reduce(s, ShowColumn{Key: "site", Visible: false}, in)
	assert.Empty(t, Compute(s, in).Rows)

	// column filters still reach hidden columns
	s = Reduce(s, FilterGlobal{Text: ""}, in)
	s = Reduce(s, FilterColumn{Key: "site", Text: "north"}, in)
	assert.Equal(t, []int{0}, Compute(s, in).Rows)
}

func TestReduce_GlobalFilterDisabled(t *testing.T) {
	in := newInput([]testRecord{{"name": "a"}}, Column{Key: "name"})
	in.Features.GlobalSearch = false

	s := Reduce(NewState(10), FilterGlobal{Text: "zzz"}, in)
	assert.Equal(t, "", s.GlobalFilter)
	assert.Equal(t, 1, Compute(s, in).Filtered)
}

func TestPagination_EndToEnd(t *testing.T) {
	rows := make([]testRecord, 25)
	for i := range rows {
		rows[i] = testRecord{"n": int64(i)}
	}
	in := newInput(rows, Column{Key: "n", Sortable: true})

	s := Reduce(NewState(10), GoToPage{Page: 3}, in)
	v := Compute(s, in)
	assert.Equal(t, 3, v.Page)
	assert.Equal(t, 3, v.TotalPages)
	assert.Equal(t, []int{20, 21, 22, 23, 24}, v.Rows)
	assert.True(t, v.CanPrevious)
	assert.False(t, v.CanNext)

	s = Reduce(s, GoToPage{Page: 4}, in)
	assert.Equal(t, 3, s.Page)

	s = Reduce(s, GoToPage{Page: -2}, in)
	assert.Equal(t, 1, s.Page)
}

func TestReduce_SortKeepsPage(t *testing.T) {
	rows := make([]testRecord, 25)
	for i := range rows {
		rows[i] = testRecord{"n": int64(i)}
	}
	in := newInput(rows, Column{Key: "n", Sortable: true})

	s := Reduce(NewState(10), GoToPage{Page: 2}, in)
	s = Reduce(s, SortBy{Key: "n"}, in)
	s = Reduce(s, SortBy{Key: "n"}, in)

	v := Compute(s, in)
	assert.Equal(t, 2, v.Page)
	assert.Equal(t, 14, v.Rows[0])
}

func TestReduce_ResizePageReclamps(t *testing.T) {
	rows := make([]testRecord, 25)
	for i := range rows {
		rows[i] = testRecord{"n": int64(i)}
	}
	in := newInput(rows, Column{Key: "n"})

	s := Reduce(NewState(10), GoToPage{Page: 3}, in)
	s = Reduce(s, ResizePage{Size: 25}, in)
	assert.Equal(t, 25, s.PageSize)
	assert.Equal(t, 1, s.Page)

	s = Reduce(s, ResizePage{Size: 0}, in)
	assert.Equal(t, 25, s.PageSize)
}

func TestCompute_PaginationDisabled(t *testing.T) {
	rows := make([]testRecord, 25)
	for i := range rows {
		rows[i] = testRecord{"n": int64(i)}
	}
	in := newInput(rows, Column{Key: "n"})
	in.Features.Pagination = false

	v := Compute(Reduce(NewState(10), GoToPage{Page: 2}, in), in)
	assert.Len(t, v.Rows, 25)
	assert.Equal(t, 1, v.TotalPages)
}

func TestSelection_SurvivesViewChanges(t *testing.T) {
	rows := make([]testRecord, 25)
	for i := range rows {
		rows[i] = testRecord{"n": int64(i)}
	}
	in := newInput(rows, Column{Key: "n", Sortable: true})

	s := Reduce(NewState(10), ToggleRow{ID: "3"}, in)
	s = Reduce(s, SortBy{Key: "n"}, in)
	s = Reduce(s, SortBy{Key: "n"}, in)
	s = Reduce(s, GoToPage{Page: 3}, in)
	s = Reduce(s, FilterColumn{Key: "n", Text: "2"}, in)

	assert.True(t, s.IsSelected("3"))

	s = Reduce(s, ToggleRow{ID: "3"}, in)
	assert.False(t, s.IsSelected("3"))
}

func TestSelection_Page(t *testing.T) {
	rows := make([]testRecord, 15)
	for i := range rows {
		rows[i] = testRecord{"n": int64(i)}
	}
	in := newInput(rows, Column{Key: "n"})

	s := Reduce(NewState(10), SelectPage{Selected: true}, in)
	assert.Len(t, s.Selected, 10)
	assert.True(t, Compute(s, in).AllPageSelected)

	s = Reduce(s, GoToPage{Page: 2}, in)
	assert.False(t, Compute(s, in).AllPageSelected)

	s = Reduce(s, GoToPage{Page: 1}, in)
	s = Reduce(s, SelectPage{Selected: false}, in)
	assert.Empty(t, s.Selected)
}

func TestSelection_Disabled(t *testing.T) {
	in := newInput([]testRecord{{"n": int64(1)}}, Column{Key: "n"})
	in.Features.RowSelection = false

	s := Reduce(NewState(10), ToggleRow{ID: "0"}, in)
	assert.Empty(t, s.Selected)

	s = Reduce(s, SelectPage{Selected: true}, in)
	assert.Empty(t, s.Selected)
}

func TestReduce_UnknownRowIgnored(t *testing.T) {
	in := newInput([]testRecord{{"n": int64(1)}}, Column{Key: "n"})
	s := Reduce(NewState(10), ToggleRow{ID: "99"}, in)
	assert.Empty(t, s.Selected)
}

func TestReduce_DoesNotMutateInput(t *testing.T) {
	in := newInput([]testRecord{{"n": int64(1)}}, Column{Key: "n", Sortable: true})
	s := NewState(10)

	_ = Reduce(s, FilterColumn{Key: "n", Text: "1"}, in)
	_ = Reduce(s, ToggleRow{ID: "0"}, in)
	_ = Reduce(s, ShowColumn{Key: "n", Visible: false}, in)

	assert.Empty(t, s.Filters)
	assert.Empty(t, s.Selected)
	assert.Empty(t, s.Hidden)
}

func TestReduce_Reset(t *testing.T) {
	in := newInput([]testRecord{{"n": int64(1)}, {"n": int64(2)}}, Column{Key: "n", Sortable: true})

	s := Reduce(NewState(1), SortBy{Key: "n"}, in)
	s = Reduce(s, ToggleRow{ID: "1"}, in)
	s = Reduce(s, GoToPage{Page: 2}, in)
	s = Reduce(s, Reset{PageSize: 5}, in)

	assert.Nil(t, s.Sort)
	assert.Empty(t, s.Selected)
	assert.Equal(t, 1, s.Page)
	assert.Equal(t, 5, s.PageSize)
}

func TestPageButtons(t *testing.T) {
	tests := []struct {
		name    string
		current int
		total   int
		want    []int
	}{
		{"zero pages", 1, 0, []int{1}},
		{"one page", 1, 1, []int{1}},
		{"two pages", 1, 2, []int{1, 2}},
		{"three pages", 2, 3, []int{1, 2, 3}},
		{"four pages", 1, 4, []int{1, 2, 3, 4}},
		{"five pages", 1, 5, []int{1, 2, 0, 4, 5}},
		{"window does not slide", 6, 12, []int{1, 2, 0, 11, 12}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buttons := PageButtons(tt.current, tt.total)
			got := make([]int, len(buttons))
			for i, b := range buttons {
				got[i] = b.Page
				if b.Ellipsis {
					assert.Zero(t, b.Page)
				}
				if b.Page == tt.current && b.Page != 0 {
					assert.True(t, b.Current)
				}
			}
			assert.Equal(t, tt.want, got)
		})
	}
}
