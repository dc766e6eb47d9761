// Package engine implements the table view computation for tableboard.
//
// This package is internal to tableboard and holds the pure parts of the
// table engine: view state, a reducer that applies user actions to that
// state, and the derived view (filter, then sort, then paginate).
//
// The main components are:
//
//   - [State]: sort, filters, page, selection and column visibility
//   - [Reduce]: applies an [Action] to a State and returns the next State
//   - [Compute]: derives the visible page of rows from a State and [Input]
//   - [PageButtons]: the page-button set shown by pagination controls
//
// Nothing here performs I/O or holds locks. The public tableboard.Table
// wraps these functions behind a mutex.
package engine
