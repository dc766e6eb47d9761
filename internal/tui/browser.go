package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jpalmerr/tableboard"
)

const (
	// pollInterval is how often the browser re-reads the table so that
	// background loads show up.
	pollInterval = 250 * time.Millisecond

	maxColumnWidth = 40
	minColumnWidth = 3

	defaultWidth  = 100
	defaultHeight = 24

	// chromeHeight is the lines used by title, footer, input and help.
	chromeHeight = 7

	filterCharLimit = 120

	focusMarker = "›"
)

// Key bindings.
const (
	keyQuit       = "q"
	keyCtrlC      = "ctrl+c"
	keyLeft       = "left"
	keyRight      = "right"
	keySort       = "s"
	keyFilter     = "f"
	keySearch     = "/"
	keyNext       = "n"
	keyPrevious   = "p"
	keyPageDown   = "pgdown"
	keyPageUp     = "pgup"
	keyToggle     = " "
	keySelectPage = "a"
	keyHide       = "x"
	keyShowAll    = "X"
	keyRefresh    = "r"
	keyReset      = "esc"
	keyEnter      = "enter"
)

type inputMode int

const (
	inputNone inputMode = iota
	inputFilter
	inputSearch
)

type pollMsg struct{}

// Browser is an interactive Bubble Tea model over a table.
//
// The focused column (moved with left/right) is the target of sort,
// filter and hide. Row selection acts on the row under the cursor.
type Browser struct {
	ctx   context.Context
	table *tableboard.Table

	view    tableboard.View
	grid    table.Model
	input   textinput.Model
	spinner spinner.Model

	mode     inputMode
	focus    int
	width    int
	height   int
	quitting bool
}

// NewBrowser creates a browser over t. ctx is used for reloads.
func NewBrowser(ctx context.Context, t *tableboard.Table) *Browser {
	ti := textinput.New()
	ti.CharLimit = filterCharLimit

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	b := &Browser{
		ctx:     ctx,
		table:   t,
		input:   ti,
		spinner: sp,
		width:   defaultWidth,
		height:  defaultHeight,
	}
	b.grid = table.New(table.WithFocused(true))
	b.refreshView()
	return b
}

// Init starts polling the table and the loading spinner.
func (b *Browser) Init() tea.Cmd {
	return tea.Batch(poll(), b.spinner.Tick)
}

func poll() tea.Cmd {
	return tea.Tick(pollInterval, func(time.Time) tea.Msg { return pollMsg{} })
}

// Update handles messages and updates the model state.
func (b *Browser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		b.width, b.height = msg.Width, msg.Height
		b.refreshView()
		return b, nil

	case pollMsg:
		b.refreshView()
		return b, poll()

	case spinner.TickMsg:
		var cmd tea.Cmd
		b.spinner, cmd = b.spinner.Update(msg)
		return b, cmd

	case tea.KeyMsg:
		if b.mode != inputNone {
			return b.handleInput(msg)
		}
		return b.handleKey(msg)
	}
	return b, nil
}

func (b *Browser) handleInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case keyEnter:
		text := b.input.Value()
		if b.mode == inputSearch {
			b.table.Search(text)
		} else if key := b.focusedKey(); key != "" {
			b.table.SetFilterText(key, text)
		}
		b.closeInput()
		return b, nil
	case keyReset:
		b.closeInput()
		return b, nil
	case keyCtrlC:
		b.quitting = true
		return b, tea.Quit
	}

	var cmd tea.Cmd
	b.input, cmd = b.input.Update(msg)
	return b, cmd
}

func (b *Browser) closeInput() {
	b.mode = inputNone
	b.input.Blur()
	b.input.SetValue("")
	b.refreshView()
}

func (b *Browser) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	features := b.table.Features()

	switch msg.String() {
	case keyQuit, keyCtrlC:
		b.quitting = true
		return b, tea.Quit
	case keyLeft:
		if b.focus > 0 {
			b.focus--
		}
	case keyRight:
		if b.focus < len(b.view.Columns)-1 {
			b.focus++
		}
	case keySort:
		b.table.SetSort(b.focusedKey())
	case keyFilter:
		if features.Filtering && b.focusedKey() != "" {
			b.openInput(inputFilter, "Filter "+b.view.Columns[b.focus].Header+": ", b.view.Filters[b.focusedKey()])
			return b, textinput.Blink
		}
	case keySearch:
		if features.GlobalSearch {
			b.openInput(inputSearch, "Search: ", b.view.GlobalFilter)
			return b, textinput.Blink
		}
	case keyNext, keyPageDown:
		b.table.NextPage()
	case keyPrevious, keyPageUp:
		b.table.PreviousPage()
	case keyToggle:
		if id, ok := b.cursorID(); ok {
			b.table.ToggleRowSelection(id)
		}
	case keySelectPage:
		b.table.ToggleSelectAllOnPage(!b.view.AllSelected)
	case keyHide:
		if key := b.focusedKey(); key != "" && len(b.view.Columns) > 1 {
			b.table.SetColumnVisibility(key, false)
		}
	case keyShowAll:
		for _, key := range b.view.Hidden {
			b.table.SetColumnVisibility(key, true)
		}
	case keyRefresh:
		b.table.Refresh(b.ctx)
	case keyReset:
		b.table.Reset()
	default:
		var cmd tea.Cmd
		b.grid, cmd = b.grid.Update(msg)
		return b, cmd
	}

	b.refreshView()
	return b, nil
}

func (b *Browser) openInput(mode inputMode, prompt, value string) {
	b.mode = mode
	b.input.Prompt = prompt
	b.input.SetValue(value)
	b.input.CursorEnd()
	b.input.Focus()
}

func (b *Browser) focusedKey() string {
	if b.focus < 0 || b.focus >= len(b.view.Columns) {
		return ""
	}
	return b.view.Columns[b.focus].Key
}

func (b *Browser) cursorID() (string, bool) {
	i := b.grid.Cursor()
	if i < 0 || i >= len(b.view.Rows) {
		return "", false
	}
	return b.view.Rows[i].ID, true
}

// refreshView re-reads the table and rebuilds the grid.
func (b *Browser) refreshView() {
	b.view = b.table.View()
	if b.focus >= len(b.view.Columns) {
		b.focus = max(0, len(b.view.Columns)-1)
	}

	cursor := b.grid.Cursor()
	selection := b.view.Features.RowSelection

	widths := columnWidths(b.view, selection)
	cols := make([]table.Column, 0, len(widths))
	if selection {
		cols = append(cols, table.Column{Title: " ", Width: widths[0]})
		widths = widths[1:]
	}
	for i, c := range b.view.Columns {
		title := headerText(c)
		if i == b.focus {
			title = focusMarker + title
		}
		cols = append(cols, table.Column{Title: title, Width: widths[i]})
	}

	rows := make([]table.Row, len(b.view.Rows))
	for i, r := range b.view.Rows {
		row := make(table.Row, 0, len(cols))
		if selection {
			row = append(row, checkbox(r.Selected))
		}
		for _, c := range r.Cells {
			row = append(row, c.Text)
		}
		rows[i] = row
	}

	// columns before rows so row length always matches
	b.grid.SetRows(nil)
	b.grid.SetColumns(cols)
	b.grid.SetRows(rows)
	b.grid.SetHeight(max(1, b.height-chromeHeight))
	if cursor >= len(rows) {
		cursor = len(rows) - 1
	}
	b.grid.SetCursor(max(0, cursor))

	styles := table.DefaultStyles()
	styles.Selected = selectedRowStyle
	b.grid.SetStyles(styles)
}

func columnWidths(v tableboard.View, selection bool) []int {
	widths := make([]int, 0, len(v.Columns)+1)
	if selection {
		widths = append(widths, minColumnWidth)
	}
	for i, c := range v.Columns {
		w := lipgloss.Width(focusMarker + headerText(c))
		for _, r := range v.Rows {
			w = max(w, lipgloss.Width(r.Cells[i].Text))
		}
		widths = append(widths, min(max(w, minColumnWidth), maxColumnWidth))
	}
	return widths
}

// View renders the browser.
func (b *Browser) View() string {
	if b.quitting {
		return ""
	}

	var s strings.Builder
	title := b.view.Caption
	if b.view.Loading {
		title = fmt.Sprintf("%s %s", title, b.spinner.View())
	}
	s.WriteString(titleStyle.Render(title))
	s.WriteString("\n")

	if msg, isErr := message(b.view); msg != "" {
		style := mutedStyle
		if isErr {
			style = errorStyle
		}
		s.WriteString(style.Render(msg))
	} else {
		s.WriteString(b.grid.View())
	}
	s.WriteString("\n")
	s.WriteString(mutedStyle.Render(Footer(b.view)))
	if key := b.focusedKey(); key != "" {
		s.WriteString(" ")
		s.WriteString(focusedHeaderStyle.Render(b.view.Columns[b.focus].Header))
	}
	s.WriteString("\n")

	if b.mode != inputNone {
		s.WriteString(b.input.View())
		s.WriteString("\n")
	}
	s.WriteString(mutedStyle.Render(help(b.view.Features)))
	return s.String()
}

func help(f tableboard.Features) string {
	parts := []string{"←/→ column", "↑/↓ row"}
	if f.Sorting {
		parts = append(parts, "s sort")
	}
	if f.Filtering {
		parts = append(parts, "f filter")
	}
	if f.GlobalSearch {
		parts = append(parts, "/ search")
	}
	if f.Pagination {
		parts = append(parts, "n/p page")
	}
	if f.RowSelection {
		parts = append(parts, "space select", "a select page")
	}
	parts = append(parts, "x hide", "X show all", "r reload", "esc reset", "q quit")
	return strings.Join(parts, " · ")
}

// Run starts an interactive browser over t and blocks until the user
// quits.
func Run(ctx context.Context, t *tableboard.Table) error {
	p := tea.NewProgram(NewBrowser(ctx, t), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
