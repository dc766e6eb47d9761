// Package store keeps the latest load event of every table and fans events
// out to subscribers.
//
// The board records an [Event] each time a table load resolves (or starts)
// and the dashboard server streams them to browsers over Server-Sent
// Events. Subscribers receive events via buffered channels with
// non-blocking sends: a slow subscriber misses events rather than
// blocking the load path.
package store
