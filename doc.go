// Package tableboard provides an embeddable data table: it loads rows from
// static data, files or JSON APIs, infers columns from the first row, and
// derives a sorted, filtered and paginated view with row selection.
//
// TableBoard is designed as an SDK-first library. Tables are immutable
// configurations plus mutable view state, configured with the functional
// options pattern. A [Board] serves several tables over HTTP with a web
// dashboard, and the tableboard command serves them from a YAML file.
//
// # Quick Start
//
// Create a table from a JSON endpoint and serve it:
//
//	src, _ := tableboard.HTTPSource("https://api.example.com/flow")
//	flow, _ := tableboard.NewTable("flow", tableboard.WithSource(src))
//	board, _ := tableboard.New(tableboard.WithTable(flow))
//
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	board.Start(ctx) // blocks until context is cancelled
//
// Tables are usable without a Board:
//
//	tbl := tableboard.MustTable("stations", tableboard.WithRows(rows...))
//	tbl.SetSort("flow_rate")
//	tbl.SetFilterText("river", "tyne")
//	v := tbl.View()
//
// # Columns
//
// When a dataset carries no columns, one [Column] is inferred per key of
// the first row, in that row's key order. [Row] preserves the key order of
// JSON and YAML objects. Inferred columns are adjusted with
// [WithColumnConfig]; formatters are named by spec strings resolved
// against a [FormatterRegistry]:
//
//	tableboard.WithColumnConfig(map[string]tableboard.ColumnConfig{
//	    "flow_rate": {Header: "Flow rate", Formatter: "number:2"},
//	    "active":    {Formatter: "bool:On/Off", Sortable: tableboard.Bool(false)},
//	})
//
// # View state
//
// Every mutation recomputes the view in a fixed order: column filters and
// the global filter, then sort, then pagination. Sorting cycles ascending
// and descending and keeps the current page; filtering and resizing reset
// to page 1. A new dataset resets all view state.
//
// # Loading
//
// A sourced table owns a [Loader] that runs its [LoadFunc] on a goroutine
// and moves through [LoadIdle], [LoadLoading], [LoadLoaded] and
// [LoadFailed]. A failed load keeps the previous rows but the view shows
// the error instead. Several sources are provided: [StaticSource],
// [FileSource], [HTTPSource], [GridSource] and [DelayedSource].
//
// # Architecture
//
// TableBoard consists of several internal packages (under internal/):
//
//   - internal/engine: The pure filter, sort and paginate reducer
//   - internal/poller: HTTP client and the refresh scheduler
//   - internal/store: Load events with pub/sub for real-time updates
//   - internal/server: HTTP server with REST API and Server-Sent Events
//   - internal/export: CSV and Parquet export
//   - internal/tui: Terminal rendering and the interactive browser
//   - dashboard: Embedded web UI assets
//
// The internal packages are not part of the public API and may change
// without notice.
package tableboard
