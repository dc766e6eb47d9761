// Package tui renders tables in the terminal.
//
// [Render] draws the current page of a table once, for the render command.
// [Browser] is an interactive Bubble Tea model over a live table: the same
// sort, filter, paging and selection operations as the web dashboard,
// driven from the keyboard.
package tui
