package tui

import (
	"context"
	"fmt"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpalmerr/tableboard"
)

func stationRows(n int) []tableboard.Row {
	rows := make([]tableboard.Row, n)
	for i := range rows {
		rows[i] = tableboard.MustRow(
			"id", i+1,
			"name", fmt.Sprintf("n%d", i+1),
			"flow", float64(i)+0.5,
		)
	}
	return rows
}

func newStations(t *testing.T, n int, opts ...tableboard.TableOption) *tableboard.Table {
	t.Helper()
	opts = append([]tableboard.TableOption{
		tableboard.WithRows(stationRows(n)...),
		tableboard.WithCaption("Stations"),
	}, opts...)
	tbl, err := tableboard.NewTable("stations", opts...)
	require.NoError(t, err)
	return tbl
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(b *Browser, msgs ...tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	for _, msg := range msgs {
		_, cmd = b.Update(msg)
	}
	return cmd
}

func TestRender(t *testing.T) {
	out := Render(newStations(t, 12).View())

	assert.Contains(t, out, "Stations")
	assert.Contains(t, out, "name")
	assert.Contains(t, out, "n1")
	assert.Contains(t, out, "n10")
	assert.NotContains(t, out, "n11")
	assert.Contains(t, out, "Page 1 of 2")
	assert.Contains(t, out, "12 of 12 rows")
}

func TestRender_SortMarker(t *testing.T) {
	tbl := newStations(t, 3)
	tbl.SetSort("name")
	assert.Contains(t, Render(tbl.View()), "name ▲")

	tbl.SetSort("name")
	assert.Contains(t, Render(tbl.View()), "name ▼")
}

func TestRender_NoData(t *testing.T) {
	tbl := newStations(t, 3, tableboard.WithNoDataMessage("Nothing flowing"))
	tbl.SetFilterText("name", "zzz")

	out := Render(tbl.View())
	assert.Contains(t, out, "Nothing flowing")
	assert.Contains(t, out, "0 of 3 rows")
}

func TestRender_SelectionColumn(t *testing.T) {
	features := tableboard.DefaultFeatures()
	features.RowSelection = true
	tbl := newStations(t, 3, tableboard.WithFeatures(features))
	tbl.ToggleRowSelection("2")

	out := Render(tbl.View())
	assert.Contains(t, out, "[x]")
	assert.Contains(t, out, "[ ]")
	assert.Contains(t, out, "1 selected")
}

func TestFooter(t *testing.T) {
	tests := []struct {
		name string
		view tableboard.View
		want string
	}{
		{
			name: "paged",
			view: tableboard.View{Page: 2, TotalPages: 5, Filtered: 42, Total: 50, Features: tableboard.Features{Pagination: true}},
			want: "Page 2 of 5 · 42 of 50 rows",
		},
		{
			name: "unpaged with selection and search",
			view: tableboard.View{Filtered: 3, Total: 9, Selected: []string{"a"}, GlobalFilter: "north"},
			want: `3 of 9 rows · 1 selected · search "north"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Footer(tt.view))
		})
	}
}

func TestBrowser_SortFocusedColumn(t *testing.T) {
	b := NewBrowser(context.Background(), newStations(t, 3))

	press(b, runes("s"))
	require.NotNil(t, b.view.Sort)
	assert.Equal(t, "id", b.view.Sort.Key)
	assert.Equal(t, "asc", b.view.Sort.Direction)

	press(b, tea.KeyMsg{Type: tea.KeyRight}, runes("s"))
	assert.Equal(t, "name", b.view.Sort.Key)

	press(b, tea.KeyMsg{Type: tea.KeyLeft}, tea.KeyMsg{Type: tea.KeyLeft})
	assert.Equal(t, 0, b.focus)
}

func TestBrowser_Paging(t *testing.T) {
	b := NewBrowser(context.Background(), newStations(t, 25))

	press(b, runes("n"))
	assert.Equal(t, 2, b.view.Page)

	press(b, runes("n"), runes("n"))
	assert.Equal(t, 3, b.view.Page)

	press(b, runes("p"))
	assert.Equal(t, 2, b.view.Page)
}

func TestBrowser_FilterInput(t *testing.T) {
	b := NewBrowser(context.Background(), newStations(t, 12))

	press(b, tea.KeyMsg{Type: tea.KeyRight}, runes("f"))
	require.Equal(t, inputFilter, b.mode)

	press(b, runes("n1"), tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, inputNone, b.mode)
	assert.Equal(t, "n1", b.view.Filters["name"])
	// n1, n10, n11, n12
	assert.Equal(t, 4, b.view.Filtered)
}

func TestBrowser_EscCancelsInput(t *testing.T) {
	b := NewBrowser(context.Background(), newStations(t, 12))

	press(b, runes("f"), runes("3"), tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, inputNone, b.mode)
	assert.Empty(t, b.view.Filters)
}

func TestBrowser_SearchRequiresFeature(t *testing.T) {
	b := NewBrowser(context.Background(), newStations(t, 12))
	press(b, runes("/"))
	assert.Equal(t, inputNone, b.mode)

	features := tableboard.DefaultFeatures()
	features.GlobalSearch = true
	b = NewBrowser(context.Background(), newStations(t, 12, tableboard.WithFeatures(features)))

	press(b, runes("/"))
	require.Equal(t, inputSearch, b.mode)
	press(b, runes("n12"), tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, "n12", b.view.GlobalFilter)
	assert.Equal(t, 1, b.view.Filtered)
}

func TestBrowser_Selection(t *testing.T) {
	features := tableboard.DefaultFeatures()
	features.RowSelection = true
	b := NewBrowser(context.Background(), newStations(t, 12, tableboard.WithFeatures(features)))

	press(b, tea.KeyMsg{Type: tea.KeySpace})
	assert.Equal(t, []string{"1"}, b.view.Selected)

	press(b, tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeySpace})
	assert.Equal(t, []string{"1", "2"}, b.view.Selected)

	press(b, runes("a"))
	assert.True(t, b.view.AllSelected)
	assert.Len(t, b.view.Selected, 10)
}

func TestBrowser_HideAndShowColumns(t *testing.T) {
	b := NewBrowser(context.Background(), newStations(t, 3))

	press(b, runes("x"))
	assert.Equal(t, []string{"id"}, b.view.Hidden)
	assert.Len(t, b.view.Columns, 2)

	press(b, runes("X"))
	assert.Empty(t, b.view.Hidden)
	assert.Len(t, b.view.Columns, 3)
}

func TestBrowser_Reset(t *testing.T) {
	b := NewBrowser(context.Background(), newStations(t, 25))

	press(b, runes("s"), runes("n"))
	require.NotNil(t, b.view.Sort)

	press(b, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Nil(t, b.view.Sort)
	assert.Equal(t, 1, b.view.Page)
}

func TestBrowser_Quit(t *testing.T) {
	b := NewBrowser(context.Background(), newStations(t, 3))

	cmd := press(b, runes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, b.View())
}

func TestBrowser_View(t *testing.T) {
	b := NewBrowser(context.Background(), newStations(t, 3))
	press(b, tea.WindowSizeMsg{Width: 80, Height: 20})

	out := b.View()
	assert.Contains(t, out, "Stations")
	assert.Contains(t, out, "n2")
	assert.Contains(t, out, "3 of 3 rows")
	assert.Contains(t, out, "q quit")
}

func TestBrowser_PicksUpLoads(t *testing.T) {
	src := tableboard.StaticSource(stationRows(2)...)
	tbl, err := tableboard.NewTable("stations", tableboard.WithSource(src))
	require.NoError(t, err)

	b := NewBrowser(context.Background(), tbl)
	assert.Equal(t, 0, b.view.Total)

	_, err = tbl.Loader().Load(context.Background())
	require.NoError(t, err)

	press(b, pollMsg{})
	assert.Equal(t, 2, b.view.Total)
}
