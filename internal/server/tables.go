package server

import (
	"errors"

	"github.com/jpalmerr/tableboard/internal/export"
)

var (
	// ErrNotFound reports an unknown table name.
	ErrNotFound = errors.New("table not found")

	// ErrInvalidAction reports an action the table cannot apply.
	ErrInvalidAction = errors.New("invalid action")
)

// Summary is one entry of the table list.
type Summary struct {
	Name    string `json:"name"`
	Caption string `json:"caption"`
	State   string `json:"state"`
	Loading bool   `json:"loading"`
	Rows    int    `json:"rows"`
	Error   string `json:"error,omitempty"`
}

// Action is a user intent posted by the dashboard.
//
// Type selects the operation; the other fields are its arguments:
//
//	sort           Key
//	filter         Key, Text
//	search         Text
//	page           Page
//	page_size      Size
//	toggle_row     ID
//	select_page    Selected
//	column         Key, Visible
//	reset
//	apply_filters  DateRange, SearchTerm
//	action
//	view, edit, delete  ID
//	add
type Action struct {
	Type       string `json:"type"`
	Key        string `json:"key,omitempty"`
	Text       string `json:"text,omitempty"`
	Page       int    `json:"page,omitempty"`
	Size       int    `json:"size,omitempty"`
	ID         string `json:"id,omitempty"`
	Visible    *bool  `json:"visible,omitempty"`
	Selected   *bool  `json:"selected,omitempty"`
	DateRange  string `json:"dateRange,omitempty"`
	SearchTerm string `json:"searchTerm,omitempty"`
}

// Tables is the server's view of the board.
//
// Implementations return errors wrapping [ErrNotFound] for unknown names
// and [ErrInvalidAction] for unsupported actions.
type Tables interface {
	List() []Summary
	View(name string) (any, error)
	Apply(name string, action Action) (any, error)
	Refresh(name string) error
	Export(name string) (export.Data, error)
}
