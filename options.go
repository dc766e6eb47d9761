package tableboard

import (
	"errors"
	"log/slog"
	"time"
)

// boardConfig holds mutable state during Board construction.
type boardConfig struct {
	title           string
	tables          []*Table
	refreshInterval time.Duration
	port            int
	maxConcurrency  int
	logger          *slog.Logger
	loadCallbacks   []func(LoadSnapshot)
}

// Option configures a [Board] during construction.
//
// Option implements the functional options pattern for [New]. Options
// return an error if validation fails.
type Option func(*boardConfig) error

// WithTable adds a single [Table] to the board.
//
// Can be called multiple times. At least one table must be configured for
// [New] to succeed.
func WithTable(t *Table) Option {
	return func(cfg *boardConfig) error {
		if t == nil {
			return errors.New("table cannot be nil")
		}
		cfg.tables = append(cfg.tables, t)
		return nil
	}
}

// WithTables adds several tables at once. Equivalent to calling
// [WithTable] for each.
//
// Example:
//
//	board, err := tableboard.New(
//	    tableboard.WithTables(stations, alarms, flow),
//	)
func WithTables(tables ...*Table) Option {
	return func(cfg *boardConfig) error {
		for _, t := range tables {
			if t == nil {
				return errors.New("table cannot be nil")
			}
		}
		cfg.tables = append(cfg.tables, tables...)
		return nil
	}
}

// WithRefreshInterval sets how often sourced tables reload. A table's own
// [WithInterval] takes precedence.
//
// Zero (the default) means tables load once when the board starts.
// Returns an error if the duration is negative or below one second.
func WithRefreshInterval(d time.Duration) Option {
	return func(cfg *boardConfig) error {
		if d < 0 {
			return errors.New("refresh interval cannot be negative")
		}
		if d != 0 && d < time.Second {
			return errors.New("refresh interval must be at least 1 second")
		}
		cfg.refreshInterval = d
		return nil
	}
}

// WithPort sets the HTTP port for the dashboard server. Defaults to 8080.
//
// Returns an error if the port is outside the valid range (1-65535).
func WithPort(port int) Option {
	return func(cfg *boardConfig) error {
		if port < 1 || port > 65535 {
			return errors.New("port must be between 1 and 65535")
		}
		cfg.port = port
		return nil
	}
}

// WithMaxConcurrency sets how many table loads the scheduler runs at
// once. Defaults to 4.
//
// Returns an error if the value is zero or negative.
func WithMaxConcurrency(n int) Option {
	return func(cfg *boardConfig) error {
		if n <= 0 {
			return errors.New("max concurrency must be positive")
		}
		cfg.maxConcurrency = n
		return nil
	}
}

// WithLogger sets the [slog.Logger] used by the board, its scheduler and
// its server. If not specified, [slog.Default] is used.
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *boardConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithLoadCallback registers a function called on every load transition
// of every sourced table on the board.
//
// Callbacks run on the loading goroutine, in registration order, after
// the transition is published to the dashboard. They must not block.
// Panics are recovered and logged.
//
// Example:
//
//	board, err := tableboard.New(
//	    tableboard.WithTable(flow),
//	    tableboard.WithLoadCallback(func(s tableboard.LoadSnapshot) {
//	        if s.State == tableboard.LoadFailed {
//	            log.Printf("ALERT: %s failed to load: %s", s.Table, s.Error)
//	        }
//	    }),
//	)
//
// Nil callbacks are silently ignored.
func WithLoadCallback(cb func(LoadSnapshot)) Option {
	return func(cfg *boardConfig) error {
		if cb == nil {
			return nil
		}
		cfg.loadCallbacks = append(cfg.loadCallbacks, cb)
		return nil
	}
}

// WithTitle sets the dashboard title shown in the browser tab and header.
// Defaults to "TableBoard".
func WithTitle(title string) Option {
	return func(cfg *boardConfig) error {
		cfg.title = title
		return nil
	}
}
