package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/jpalmerr/tableboard"
)

// Render draws a table view as bordered text: caption, column headers
// with sort markers, the page's rows and a pagination footer. A failed
// load, a load in progress or an empty result is shown as a single
// message row.
func Render(v tableboard.View) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(v.Caption))
	b.WriteString("\n")

	headers := make([]string, len(v.Columns))
	for i, c := range v.Columns {
		headers[i] = headerText(c)
	}
	if v.Features.RowSelection {
		headers = append([]string{" "}, headers...)
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(headers...)

	offset := 0
	if v.Features.RowSelection {
		offset = 1
	}

	if msg, isErr := message(v); msg != "" {
		style := mutedStyle
		if isErr {
			style = errorStyle
		}
		b.WriteString(t.String())
		b.WriteString("\n")
		b.WriteString(style.Render(msg))
		b.WriteString("\n")
	} else {
		for _, r := range v.Rows {
			cells := make([]string, 0, len(r.Cells)+offset)
			if v.Features.RowSelection {
				cells = append(cells, checkbox(r.Selected))
			}
			for _, c := range r.Cells {
				cells = append(cells, c.Text)
			}
			t.Row(cells...)
		}
		t.StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col < offset || col-offset >= len(v.Columns) {
				return cellStyle
			}
			return cellStyle.Align(alignment(v.Columns[col-offset].ClassName))
		})
		b.WriteString(t.String())
		b.WriteString("\n")
	}

	b.WriteString(mutedStyle.Render(Footer(v)))
	return b.String()
}

// Footer summarizes paging and filtering, e.g.
// "Page 2 of 5 · 42 of 50 rows · 3 selected".
func Footer(v tableboard.View) string {
	parts := []string{}
	if v.Features.Pagination {
		parts = append(parts, fmt.Sprintf("Page %d of %d", v.Page, v.TotalPages))
	}
	parts = append(parts, fmt.Sprintf("%d of %d rows", v.Filtered, v.Total))
	if n := len(v.Selected); n > 0 {
		parts = append(parts, fmt.Sprintf("%d selected", n))
	}
	if v.GlobalFilter != "" {
		parts = append(parts, fmt.Sprintf("search %q", v.GlobalFilter))
	}
	return strings.Join(parts, " · ")
}

func headerText(c tableboard.ColumnView) string {
	switch c.Direction {
	case "asc":
		return c.Header + " ▲"
	case "desc":
		return c.Header + " ▼"
	default:
		return c.Header
	}
}

func checkbox(selected bool) string {
	if selected {
		return "[x]"
	}
	return "[ ]"
}

// message returns the text shown instead of rows, if any.
func message(v tableboard.View) (string, bool) {
	switch {
	case v.Error != "":
		return v.Error, true
	case v.Loading && len(v.Rows) == 0:
		return "Loading…", false
	case v.Empty:
		return v.NoDataMessage, false
	default:
		return "", false
	}
}
