// Package poller fetches and refreshes table data for tableboard.
//
// This package is internal to tableboard. It provides the pooled HTTP
// client behind HTTP data sources and the scheduler that refreshes
// sourced tables on their intervals with a bounded worker pool.
//
// The main components are:
//
//   - [Client]: HTTP client wrapper with per-request timeouts and a body limit
//   - [Scheduler]: runs [Target] refreshes on a GCD tick
//   - [Result]: outcome of one refresh
//
// Users of the tableboard library should not need to interact with this
// package directly. Configuration is done through the main tableboard package.
package poller
