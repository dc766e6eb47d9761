package tableboard

import (
	"context"
	"fmt"

	"github.com/jpalmerr/tableboard/internal/export"
	"github.com/jpalmerr/tableboard/internal/server"
)

// boardTables adapts a [Board] to the dashboard server. ctx is the board's
// run context, used for reloads the dashboard requests.
type boardTables struct {
	board *Board
	ctx   context.Context
}

func (bt *boardTables) table(name string) (*Table, error) {
	t, err := bt.board.Table(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", server.ErrNotFound, err)
	}
	return t, nil
}

func (bt *boardTables) List() []server.Summary {
	out := make([]server.Summary, len(bt.board.tables))
	for i, t := range bt.board.tables {
		v := t.View()
		out[i] = server.Summary{
			Name:    t.name,
			Caption: t.caption,
			State:   v.State.String(),
			Loading: v.Loading,
			Rows:    v.Total,
			Error:   v.Error,
		}
	}
	return out
}

func (bt *boardTables) View(name string) (any, error) {
	t, err := bt.table(name)
	if err != nil {
		return nil, err
	}
	return t.View(), nil
}

func (bt *boardTables) Apply(name string, a server.Action) (any, error) {
	t, err := bt.table(name)
	if err != nil {
		return nil, err
	}
	if err := applyAction(t, a); err != nil {
		return nil, err
	}
	return t.View(), nil
}

// applyAction maps a dashboard action onto the table operation.
func applyAction(t *Table, a server.Action) error {
	switch a.Type {
	case "sort":
		t.SetSort(a.Key)
	case "filter":
		t.SetFilterText(a.Key, a.Text)
	case "search":
		t.Search(a.Text)
	case "page":
		t.SetPage(a.Page)
	case "next":
		t.NextPage()
	case "previous":
		t.PreviousPage()
	case "page_size":
		t.SetPageSize(a.Size)
	case "toggle_row":
		t.ToggleRowSelection(a.ID)
	case "select_page":
		if a.Selected == nil {
			return fmt.Errorf("%w: select_page requires selected", server.ErrInvalidAction)
		}
		t.ToggleSelectAllOnPage(*a.Selected)
	case "column":
		if a.Visible == nil {
			return fmt.Errorf("%w: column requires visible", server.ErrInvalidAction)
		}
		t.SetColumnVisibility(a.Key, *a.Visible)
	case "reset":
		t.Reset()
	case "apply_filters":
		t.ApplyFilters(a.DateRange, a.SearchTerm)
	case "action":
		t.TriggerAction()
	case "add":
		t.AddRow()
	case "view", "edit", "delete":
		hook := map[string]func(string) error{
			"view":   t.ViewRow,
			"edit":   t.EditRow,
			"delete": t.DeleteRow,
		}[a.Type]
		if err := hook(a.ID); err != nil {
			return fmt.Errorf("%w: %w", server.ErrInvalidAction, err)
		}
	default:
		return fmt.Errorf("%w: unknown type %q", server.ErrInvalidAction, a.Type)
	}
	return nil
}

func (bt *boardTables) Refresh(name string) error {
	t, err := bt.table(name)
	if err != nil {
		return err
	}
	t.Refresh(bt.ctx)
	return nil
}

func (bt *boardTables) Export(name string) (export.Data, error) {
	t, err := bt.table(name)
	if err != nil {
		return export.Data{}, err
	}
	return t.exportData(), nil
}
