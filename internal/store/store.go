package store

import "time"

// Event is the storage representation of one table load transition,
// shaped for JSON (REST API and SSE). It is decoupled from the
// tableboard types so the packages can evolve independently.
type Event struct {
	// Table is the table's unique name.
	Table string `json:"table"`

	// State is the load state: "idle", "loading", "loaded" or "failed".
	State string `json:"state"`

	// LoadID identifies the load that produced the event.
	LoadID string `json:"load_id"`

	// Generation counts loads started on the table, starting at 1.
	Generation uint64 `json:"generation"`

	// Rows is the number of rows in the loaded dataset.
	Rows int `json:"rows"`

	// Columns is the number of columns in the loaded dataset.
	Columns int `json:"columns"`

	// DurationMs is the load duration in milliseconds, 0 while loading.
	DurationMs int64 `json:"duration_ms"`

	// At is when the transition happened.
	At time.Time `json:"at"`

	// Error is the user-facing failure message, nil unless State is "failed".
	Error *string `json:"error"`
}

// Store defines storage and subscription for table events.
//
// Implementations must be safe for concurrent access.
type Store interface {
	// Update stores an event and notifies all subscribers. Events are
	// keyed by Table, so later events replace earlier ones.
	Update(event Event)

	// Get returns the latest event for a table.
	Get(table string) (Event, bool)

	// GetAll returns the latest event of every table, ordered by table name.
	GetAll() []Event

	// Subscribe returns a buffered channel of events. Slow consumers may
	// miss events. Callers must Unsubscribe when done.
	Subscribe() <-chan Event

	// Unsubscribe removes a subscription and closes its channel. Safe to
	// call with an unknown or already removed channel.
	Unsubscribe(ch <-chan Event)
}
