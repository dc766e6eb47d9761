package tableboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// Loader wraps a [LoadFunc] in the idle/loading/loaded/failed state
// machine.
//
// Loads run on their own goroutines. [Loader.Trigger] does nothing while a
// load is in flight; [Loader.Refresh] always starts another load. When
// overlapping loads resolve, the last one to resolve wins, unless the
// loader was built with [WithStaleGuard], in which case only the most
// recently started load may commit.
//
// All methods are safe for concurrent use.
type Loader struct {
	fn         LoadFunc
	name       string
	logger     *slog.Logger
	staleGuard bool
	external   func() bool
	callbacks  []func(LoadSnapshot)

	// prepare normalizes a successful dataset before it is committed.
	prepare func(Dataset) Dataset

	// commit runs under mu after every resolved transition, so the owner
	// sees commits in the same order as the loader state.
	commit func(LoadSnapshot)

	mu              sync.Mutex
	started         bool
	state           LoadState
	dataset         Dataset
	errMsg          string
	loadID          string
	generation      uint64
	startedAt       time.Time
	finishedAt      time.Time
	inFlight        int
	idle            chan struct{}
	externalLoading bool
}

// LoaderOption configures a [Loader] during construction.
type LoaderOption func(*loaderConfig) error

type loaderConfig struct {
	logger     *slog.Logger
	staleGuard bool
	external   func() bool
	callbacks  []func(LoadSnapshot)
}

// WithLoaderLogger sets the logger used for load events and recovered
// panics. Defaults to [slog.Default].
func WithLoaderLogger(logger *slog.Logger) LoaderOption {
	return func(cfg *loaderConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithStaleGuard makes the loader discard resolutions of loads that are
// no longer the most recently started one.
func WithStaleGuard() LoaderOption {
	return func(cfg *loaderConfig) error {
		cfg.staleGuard = true
		return nil
	}
}

// WithExternalLoading supplies a loading flag owned by the caller.
// [Loader.IsLoading] reports true while either the loader or fn reports
// loading.
func WithExternalLoading(fn func() bool) LoaderOption {
	return func(cfg *loaderConfig) error {
		if fn == nil {
			return errors.New("external loading func cannot be nil")
		}
		cfg.external = fn
		return nil
	}
}

// WithStateCallback registers a function called on every state
// transition, in registration order.
//
// Callbacks run on the loading goroutine after the transition is
// committed. They must not block. Panics are recovered and logged.
// Nil callbacks are ignored.
func WithStateCallback(cb func(LoadSnapshot)) LoaderOption {
	return func(cfg *loaderConfig) error {
		if cb == nil {
			return nil
		}
		cfg.callbacks = append(cfg.callbacks, cb)
		return nil
	}
}

// NewLoader creates a [Loader] in the [LoadIdle] state.
//
// Returns an error if fn is nil or an option is invalid.
//
// Example:
//
//	loader, err := tableboard.NewLoader(func(ctx context.Context) (tableboard.Dataset, error) {
//	    return tableboard.Dataset{Rows: rows}, nil
//	}, tableboard.WithStaleGuard())
func NewLoader(fn LoadFunc, opts ...LoaderOption) (*Loader, error) {
	if fn == nil {
		return nil, errors.New("load func cannot be nil")
	}

	cfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Loader{
		fn:         fn,
		logger:     logger,
		staleGuard: cfg.staleGuard,
		external:   cfg.external,
		callbacks:  cfg.callbacks,
		state:      LoadIdle,
		dataset:    Dataset{Columns: []Column{}, Rows: []Row{}},
	}, nil
}

// Start performs the initial load. Only the first call has any effect.
// It reports whether a load was started.
func (l *Loader) Start(ctx context.Context) bool {
	l.mu.Lock()
	if l.started {
		l.mu.Unlock()
		return false
	}
	l.started = true
	l.mu.Unlock()

	return l.Trigger(ctx)
}

// Trigger starts a load unless one is already in flight. It reports
// whether a load was started.
func (l *Loader) Trigger(ctx context.Context) bool {
	l.mu.Lock()
	if l.state == LoadLoading {
		l.mu.Unlock()
		return false
	}
	l.started = true
	snap := l.beginLocked()
	l.mu.Unlock()

	l.notify(snap)
	go l.run(ctx, snap.Generation, snap.LoadID)
	return true
}

// Refresh starts a load even if others are in flight.
func (l *Loader) Refresh(ctx context.Context) {
	l.mu.Lock()
	l.started = true
	snap := l.beginLocked()
	l.mu.Unlock()

	l.notify(snap)
	go l.run(ctx, snap.Generation, snap.LoadID)
}

// beginLocked moves to loading and returns the new snapshot. l.mu must be
// held.
func (l *Loader) beginLocked() LoadSnapshot {
	l.generation++
	l.loadID = ulid.Make().String()
	l.state = LoadLoading
	l.startedAt = time.Now()
	l.finishedAt = time.Time{}
	if l.inFlight == 0 {
		l.idle = make(chan struct{})
	}
	l.inFlight++
	return l.snapshotLocked()
}

func (l *Loader) run(ctx context.Context, gen uint64, loadID string) {
	// the load stays in flight until its callbacks have run
	defer l.done()

	if ctx == nil {
		ctx = context.Background()
	}

	ds, err := l.invokeSafe(ctx, loadID)
	if err == nil && l.prepare != nil {
		ds = l.prepare(ds)
	}

	l.mu.Lock()
	stale := l.staleGuard && gen != l.generation
	var snap LoadSnapshot
	if !stale {
		l.finishedAt = time.Now()
		l.loadID = loadID
		if err != nil {
			l.state = LoadFailed
			l.errMsg = loadErrorMessage(err)
		} else {
			l.state = LoadLoaded
			l.errMsg = ""
			l.dataset = ds
		}
		snap = l.snapshotLocked()
		if l.commit != nil {
			l.commit(snap)
		}
	}
	l.mu.Unlock()

	if stale {
		l.logger.Debug("discarded stale load",
			"table", l.name,
			"load_id", loadID,
			"generation", gen,
		)
		return
	}

	if err != nil {
		l.logger.Warn("load failed",
			"table", l.name,
			"load_id", loadID,
			"error", snap.Error,
		)
	} else {
		l.logger.Debug("load completed",
			"table", l.name,
			"load_id", loadID,
			"rows", len(snap.Dataset.Rows),
			"duration_ms", snap.Duration().Milliseconds(),
		)
	}
	l.notify(snap)
}

// done marks one load as resolved and wakes waiters once none remain.
func (l *Loader) done() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.inFlight--
	if l.inFlight == 0 && l.idle != nil {
		close(l.idle)
		l.idle = nil
	}
}

// invokeSafe calls the load func with panic recovery.
// A panic is logged with its stack under a correlation ID, and the load
// fails with an error carrying the same ID.
func (l *Loader) invokeSafe(ctx context.Context, loadID string) (ds Dataset, err error) {
	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()
			l.logger.Error("load func panic",
				"table", l.name,
				"load_id", loadID,
				"correlation_id", correlationID,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
			ds = Dataset{}
			err = fmt.Errorf("load panic (correlation_id: %s)", correlationID)
		}
	}()
	return l.fn(ctx)
}

func loadErrorMessage(err error) string {
	if msg := err.Error(); msg != "" {
		return msg
	}
	return DefaultLoadError
}

func (l *Loader) notify(snap LoadSnapshot) {
	l.mu.Lock()
	callbacks := l.callbacks
	l.mu.Unlock()

	for _, cb := range callbacks {
		invokeCallbackSafe(cb, snap, l.logger)
	}
}

// addCallback registers cb after construction. The board uses it to
// observe the loaders of the tables it owns.
func (l *Loader) addCallback(cb func(LoadSnapshot)) {
	l.mu.Lock()
	l.callbacks = append(slices.Clip(l.callbacks), cb)
	l.mu.Unlock()
}

// invokeCallbackSafe calls a state callback with panic recovery.
// Panics are logged but do not propagate.
func invokeCallbackSafe(cb func(LoadSnapshot), snap LoadSnapshot, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("load callback panicked",
				"panic", r,
				"table", snap.Table,
				"state", snap.State.String(),
			)
		}
	}()
	cb(snap)
}

// IsLoading reports whether the loader is loading or the external
// loading flag is set.
func (l *Loader) IsLoading() bool {
	l.mu.Lock()
	own := l.state == LoadLoading || l.externalLoading
	external := l.external
	l.mu.Unlock()

	if own {
		return true
	}
	return external != nil && external()
}

// SetExternalLoading sets the caller-owned loading flag.
func (l *Loader) SetExternalLoading(loading bool) {
	l.mu.Lock()
	l.externalLoading = loading
	l.mu.Unlock()
}

// State returns the loader's own state.
func (l *Loader) State() LoadState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Snapshot returns the loader's current state.
func (l *Loader) Snapshot() LoadSnapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshotLocked()
}

func (l *Loader) snapshotLocked() LoadSnapshot {
	return LoadSnapshot{
		Table:      l.name,
		State:      l.state,
		Dataset:    Dataset{Columns: copyColumns(l.dataset.Columns), Rows: copyRows(l.dataset.Rows)},
		Error:      l.errMsg,
		LoadID:     l.loadID,
		Generation: l.generation,
		StartedAt:  l.startedAt,
		FinishedAt: l.finishedAt,
	}
}

// Wait blocks until no load is in flight or ctx is done. A load is in
// flight until its state callbacks have returned.
func (l *Loader) Wait(ctx context.Context) error {
	for {
		l.mu.Lock()
		idle := l.idle
		l.mu.Unlock()

		if idle == nil {
			return nil
		}

		select {
		case <-idle:
			// a new load may have started since; check again
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Load triggers a load if none is in flight, waits for every in-flight
// load to resolve and returns the resulting snapshot.
func (l *Loader) Load(ctx context.Context) (LoadSnapshot, error) {
	l.Trigger(ctx)
	if err := l.Wait(ctx); err != nil {
		return LoadSnapshot{}, err
	}
	return l.Snapshot(), nil
}
