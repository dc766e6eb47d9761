// Package server provides the HTTP server for the table dashboard and its
// JSON API.
//
// Routes:
//
//   - GET  /                             embedded dashboard
//   - GET  /api/tables                   summaries of every table
//   - GET  /api/tables/{name}            the table's current view
//   - POST /api/tables/{name}/actions    apply a view action, returns the new view
//   - POST /api/tables/{name}/refresh    start a reload
//   - GET  /api/tables/{name}/export     filtered rows as CSV or Parquet
//   - GET  /api/sse                      load events as Server-Sent Events
//
// The server shuts down gracefully on context cancellation, with a
// 5-second timeout for in-flight requests. Users of the tableboard library
// do not use this package directly; the board starts it.
package server
