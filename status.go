package tableboard

import (
	"context"
	"time"
)

// LoadState represents the lifecycle of a table's data load.
//
// LoadState is a string type holding one of four predefined values:
// [LoadIdle], [LoadLoading], [LoadLoaded], or [LoadFailed]. Using a string
// type keeps JSON output and logs readable.
type LoadState string

const (
	// LoadIdle indicates no load has started yet.
	LoadIdle LoadState = "idle"

	// LoadLoading indicates a load is in flight.
	LoadLoading LoadState = "loading"

	// LoadLoaded indicates the last resolved load succeeded.
	LoadLoaded LoadState = "loaded"

	// LoadFailed indicates the last resolved load failed.
	LoadFailed LoadState = "failed"
)

// String returns the string representation of the load state.
func (s LoadState) String() string {
	return string(s)
}

// DefaultLoadError is the message shown when a failed load carries no
// message of its own.
const DefaultLoadError = "Failed to load data"

// Dataset is the result of a load: column descriptors and rows.
//
// Columns may be nil, in which case the table infers them from the first
// row using its column overrides. A Dataset with no rows always has no
// columns.
type Dataset struct {
	Columns []Column
	Rows    []Row
}

// LoadFunc fetches a table's data.
//
// The function captures any query parameters it needs. A returned error is
// shown inline as the table's error message; the load never crashes the
// board.
//
// # Panic Safety
//
// LoadFunc is called within a panic recovery boundary. A panicking
// LoadFunc moves the loader to [LoadFailed] with a message containing a
// correlation ID, and the stack trace is logged.
type LoadFunc func(ctx context.Context) (Dataset, error)

// LoadSnapshot describes a loader's state after a transition.
//
// LoadSnapshot is passed to state callbacks and returned by
// [Loader.Snapshot]. It is a copy; modifying it does not affect the loader.
type LoadSnapshot struct {
	// Table is the name of the owning table, empty for a standalone loader.
	Table string

	// State is the loader's own state (external loading is not included).
	State LoadState

	// Dataset is the most recently loaded data. It is kept when a later
	// load fails.
	Dataset Dataset

	// Error is the failure message when State is [LoadFailed].
	Error string

	// LoadID identifies the load that produced this snapshot (a ULID).
	LoadID string

	// Generation counts loads started by this loader.
	Generation uint64

	// StartedAt is when the load began.
	StartedAt time.Time

	// FinishedAt is when the load resolved. Zero while loading.
	FinishedAt time.Time
}

// Duration returns how long the load took, or 0 while it is in flight.
func (s LoadSnapshot) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}
