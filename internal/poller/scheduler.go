package poller

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Target is one refreshable table.
//
// This is the poller-internal view of a table, decoupled from the
// tableboard types to avoid circular dependencies.
type Target struct {
	// Name identifies the target. Names must be unique.
	Name string

	// Interval is the target's refresh interval. Zero means the scheduler's
	// global interval.
	Interval time.Duration

	// Refresh loads the target's data and blocks until it resolves.
	Refresh func(ctx context.Context) error
}

// Result is the outcome of one refresh.
type Result struct {
	Name      string
	StartedAt time.Time
	Duration  time.Duration
	Err       error
}

// Scheduler refreshes targets on their intervals.
//
// All targets are refreshed immediately on start. After that the
// scheduler ticks at the GCD of the targets' intervals and refreshes only
// the targets that are due, running at most maxConcurrency refreshes at
// once. A global interval of zero disables periodic refreshes for targets
// without their own interval.
//
// All lifecycle methods (Start, Stop) are safe for concurrent use.
type Scheduler struct {
	targets        []Target
	interval       time.Duration
	maxConcurrency int
	results        chan Result
	logger         *slog.Logger
	cancel         context.CancelFunc
	wg             sync.WaitGroup

	mu        sync.Mutex
	started   bool
	stopped   bool
	closeOnce sync.Once

	lastRefreshedAt map[string]time.Time
	baseInterval    time.Duration
}

// NewScheduler creates a [Scheduler]. Results are available via
// [Scheduler.Results] once it is started with [Scheduler.Start].
func NewScheduler(targets []Target, interval time.Duration, maxConcurrency int, logger *slog.Logger) *Scheduler {
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		targets:        targets,
		interval:       interval,
		maxConcurrency: maxConcurrency,
		results:        make(chan Result, len(targets)),
		logger:         logger,
	}
}

// Results returns the channel of refresh outcomes. It is closed when the
// scheduler stops; consumers should drain it until then.
func (s *Scheduler) Results() <-chan Result {
	return s.results
}

func (s *Scheduler) intervalOf(t Target) time.Duration {
	if t.Interval > 0 {
		return t.Interval
	}
	return s.interval
}

// calculateBaseInterval returns the GCD of all positive intervals, floored
// at one second, or 0 when no target refreshes periodically.
func (s *Scheduler) calculateBaseInterval() time.Duration {
	var result time.Duration
	for _, t := range s.targets {
		d := s.intervalOf(t)
		if d <= 0 {
			continue
		}
		if result == 0 {
			result = d
			continue
		}
		result = gcdDuration(result, d)
	}

	if result > 0 && result < time.Second {
		result = time.Second
	}
	return result
}

func gcdDuration(a, b time.Duration) time.Duration {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// Start begins refreshing in a background goroutine and returns
// immediately. It runs until [Scheduler.Stop] is called or ctx is done.
//
// Start is idempotent. If Stop was called before Start, Start is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started || s.stopped {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.lastRefreshedAt = make(map[string]time.Time, len(s.targets))
	s.baseInterval = s.calculateBaseInterval()

	if ctx == nil {
		ctx = context.Background()
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		defer s.closeOnce.Do(func() { close(s.results) })

		s.refreshDue(runCtx, true)

		if s.baseInterval == 0 {
			<-runCtx.Done()
			return
		}

		ticker := time.NewTicker(s.baseInterval)
		defer ticker.Stop()

		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				s.refreshDue(runCtx, false)
			}
		}
	}()
}

// Stop halts the scheduler and waits for in-flight refreshes and the
// loop to finish, then closes the results channel.
//
// Stop is idempotent. Calling Stop before Start is a safe no-op.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.stopped {
		s.stopped = true
		if s.cancel != nil {
			s.cancel()
		}
	}
	s.mu.Unlock()

	s.wg.Wait()

	s.closeOnce.Do(func() { close(s.results) })
}

// refreshDue refreshes the targets that are due, or all of them when
// immediate is set.
//
// lastRefreshedAt is set when a refresh STARTS, so the effective interval
// of a slow target is its interval plus its load time.
func (s *Scheduler) refreshDue(ctx context.Context, immediate bool) {
	now := time.Now()
	due := make([]Target, 0, len(s.targets))

	s.mu.Lock()
	for _, t := range s.targets {
		interval := s.intervalOf(t)
		last, seen := s.lastRefreshedAt[t.Name]
		if immediate || (interval > 0 && (!seen || now.Sub(last) >= interval)) {
			due = append(due, t)
			s.lastRefreshedAt[t.Name] = now
		}
	}
	s.mu.Unlock()

	if len(due) == 0 {
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrency)
	for _, t := range due {
		g.Go(func() error {
			result := s.refresh(gctx, t)
			select {
			case s.results <- result:
			case <-ctx.Done():
			}
			// refresh failures are reported as results, never as group errors
			return nil
		})
	}
	_ = g.Wait()
}

// refresh runs one target with panic recovery.
func (s *Scheduler) refresh(ctx context.Context, t Target) (result Result) {
	result = Result{Name: t.Name, StartedAt: time.Now()}

	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()
			s.logger.Error("refresh panic",
				"table", t.Name,
				"correlation_id", correlationID,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
			result.Err = fmt.Errorf("refresh panic (correlation_id: %s)", correlationID)
		}
		result.Duration = time.Since(result.StartedAt)
	}()

	if t.Refresh == nil {
		return result
	}
	result.Err = t.Refresh(ctx)
	return result
}
