package tableboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jpalmerr/tableboard/dashboard"
	"github.com/jpalmerr/tableboard/internal/poller"
	"github.com/jpalmerr/tableboard/internal/server"
	"github.com/jpalmerr/tableboard/internal/store"
)

const (
	defaultPort           = 8080
	defaultMaxConcurrency = 4
)

// Board is the orchestrator that loads tables, refreshes them and serves
// the dashboard.
//
// A Board is created with [New] and started with [Board.Start]. Tables
// are loaded when the board starts, then refreshed on their interval (or
// the board's [WithRefreshInterval]) by a scheduler that runs at most
// [WithMaxConcurrency] loads at once. Every load transition is published
// to the dashboard as a live event.
//
// The typical lifecycle is:
//
//	board, err := tableboard.New(tableboard.WithTable(tbl))
//	if err != nil {
//	    slog.Error("failed to create board", "error", err)
//	    os.Exit(1)
//	}
//
//	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//
//	board.Start(ctx) // blocks until context cancelled
type Board struct {
	title           string
	tables          []*Table
	byName          map[string]*Table
	refreshInterval time.Duration
	port            int
	maxConcurrency  int
	logger          *slog.Logger
	loadCallbacks   []func(LoadSnapshot)
	events          *store.MemoryStore
}

// New creates a [Board] with the given options.
//
// At least one table must be configured via [WithTable] or [WithTables],
// and table names must be unique. Defaults:
//   - Refresh interval: 0 (tables load once unless they set their own interval)
//   - Port: 8080
//   - Max concurrency: 4
//
// Returns an error if no tables are configured or an option is invalid.
func New(opts ...Option) (*Board, error) {
	cfg := &boardConfig{
		tables:         []*Table{},
		port:           defaultPort,
		maxConcurrency: defaultMaxConcurrency,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if len(cfg.tables) == 0 {
		return nil, errors.New("at least one table is required")
	}

	byName := make(map[string]*Table, len(cfg.tables))
	for _, t := range cfg.tables {
		if t == nil {
			return nil, errors.New("table cannot be nil")
		}
		if _, dup := byName[t.name]; dup {
			return nil, fmt.Errorf("duplicate table name: %q", t.name)
		}
		byName[t.name] = t
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	b := &Board{
		title:           cfg.title,
		tables:          cfg.tables,
		byName:          byName,
		refreshInterval: cfg.refreshInterval,
		port:            cfg.port,
		maxConcurrency:  cfg.maxConcurrency,
		logger:          logger,
		loadCallbacks:   cfg.loadCallbacks,
		events:          store.NewMemoryStore(),
	}

	for _, t := range b.tables {
		if t.loader == nil {
			b.events.Update(staticEvent(t))
			continue
		}
		t.loader.addCallback(b.recordLoad)
	}

	return b, nil
}

// Start loads every table, schedules refreshes and serves the dashboard.
//
// Start blocks until ctx is cancelled. Sourced tables load immediately,
// then every refresh interval. The HTTP server listens on the configured
// port and shuts down gracefully on cancellation.
//
// Returns nil on graceful shutdown. Returns an error if the HTTP server
// fails to start.
func (b *Board) Start(ctx context.Context) error {
	b.logger.Info("tableboard starting", "table_count", len(b.tables))
	if b.refreshInterval > 0 {
		b.logger.Info("refresh configured", "interval", b.refreshInterval.String())
	}
	b.logger.Info("dashboard available", "url", fmt.Sprintf("http://localhost:%d", b.port))

	if ctx.Err() != nil {
		return nil
	}

	scheduler := poller.NewScheduler(b.targets(), b.refreshInterval, b.maxConcurrency, b.logger)
	scheduler.Start(ctx)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for result := range scheduler.Results() {
			attrs := []any{
				"table", result.Name,
				"duration_ms", result.Duration.Milliseconds(),
			}
			if result.Err != nil {
				b.logger.Warn("refresh completed with error", append(attrs, "error", result.Err.Error())...)
			} else {
				b.logger.Debug("refresh completed", attrs...)
			}
		}
	}()

	cleanup := func() {
		scheduler.Stop()
		wg.Wait()
	}

	httpServer := server.NewServer(&boardTables{board: b, ctx: ctx}, b.events, b.port, dashboard.Assets, b.title, b.logger)
	if err := httpServer.Start(ctx); err != nil {
		cleanup()
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	<-ctx.Done()
	cleanup()
	b.logger.Info("tableboard stopped")
	return nil
}

// targets converts the sourced tables to scheduler targets.
func (b *Board) targets() []poller.Target {
	targets := make([]poller.Target, 0, len(b.tables))
	for _, t := range b.tables {
		if t.loader == nil {
			continue
		}
		targets = append(targets, poller.Target{
			Name:     t.name,
			Interval: t.interval,
			Refresh:  t.loadAndWait,
		})
	}
	return targets
}

// loadAndWait triggers a load, waits for it and reports a failed load as
// an error.
func (t *Table) loadAndWait(ctx context.Context) error {
	t.loader.Trigger(ctx)
	if err := t.loader.Wait(ctx); err != nil {
		return err
	}
	if snap := t.loader.Snapshot(); snap.State == LoadFailed {
		return errors.New(snap.Error)
	}
	return nil
}

// recordLoad publishes a load transition and runs the load callbacks.
func (b *Board) recordLoad(snap LoadSnapshot) {
	b.events.Update(snapshotEvent(snap))
	for _, cb := range b.loadCallbacks {
		invokeCallbackSafe(cb, snap, b.logger)
	}
}

func snapshotEvent(snap LoadSnapshot) store.Event {
	at := snap.FinishedAt
	if at.IsZero() {
		at = snap.StartedAt
	}
	e := store.Event{
		Table:      snap.Table,
		State:      snap.State.String(),
		LoadID:     snap.LoadID,
		Generation: snap.Generation,
		Rows:       len(snap.Dataset.Rows),
		Columns:    len(snap.Dataset.Columns),
		DurationMs: snap.Duration().Milliseconds(),
		At:         at,
	}
	if snap.State == LoadFailed {
		msg := snap.Error
		e.Error = &msg
	}
	return e
}

func staticEvent(t *Table) store.Event {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return store.Event{
		Table:   t.name,
		State:   LoadLoaded.String(),
		Rows:    len(t.rows),
		Columns: len(t.columns),
		At:      time.Now(),
	}
}

// Table returns the table with the given name, or an error wrapping
// [ErrTableNotFound].
func (b *Board) Table(name string) (*Table, error) {
	t, ok := b.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrTableNotFound, name)
	}
	return t, nil
}

// Tables returns the board's tables in registration order.
//
// The returned slice is a copy; the tables themselves are shared.
func (b *Board) Tables() []*Table {
	cp := make([]*Table, len(b.tables))
	copy(cp, b.tables)
	return cp
}

// Refresh starts a reload of the named table. Static tables are left
// unchanged.
func (b *Board) Refresh(ctx context.Context, name string) error {
	t, err := b.Table(name)
	if err != nil {
		return err
	}
	t.Refresh(ctx)
	return nil
}

// Title returns the dashboard title.
func (b *Board) Title() string {
	return b.title
}

// Port returns the configured HTTP port for the dashboard server.
func (b *Board) Port() int {
	return b.port
}

// RefreshInterval returns the board-wide refresh interval, 0 when tables
// load only once by default.
func (b *Board) RefreshInterval() time.Duration {
	return b.refreshInterval
}
