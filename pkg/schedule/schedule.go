package schedule

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"metron/pkg/logx"
)

// Job is the unit of work a schedule re-executes. The context derives from
// the one passed to Start, plus the optional per-run Timeout; it is never
// cancelled by Stop, so a job that has begun always finishes on its own.
type Job func(ctx context.Context) error

// Recorder receives one HistoryItem per completed run, in run order.
// Implementations must be safe for concurrent use across schedules.
type Recorder interface {
	Record(ctx context.Context, item HistoryItem) error
}

// Options configures a Schedule. The zero value is usable: unnamed schedule,
// no-op logger, in-memory history only, no per-run timeout.
type Options struct {
	// Name identifies the job in notifications, history, and log fields.
	Name string

	Logger logx.Logger

	// Recorder, when set, persists every run outcome (see internal/history).
	Recorder Recorder

	// HistorySize bounds the in-memory run history (default 200).
	HistorySize int

	// Timeout, when > 0, bounds each run's context. Enforcement is
	// cooperative: the job must honor its context.
	Timeout time.Duration
}

// Schedule is the public handle controlling one job's recurring execution.
//
// Mutating operations (Start, Stop, StopWait, Reset, SetRule) are serialized
// by the handle's own guard; Running, NextRun, and Snapshot are cheap
// snapshot reads that bypass it.
type Schedule struct {
	mu sync.Mutex
	c  *core
}

// New builds a stopped schedule for the given job and rule.
func New(job Job, rule Rule, opt Options) (*Schedule, error) {
	if job == nil {
		return nil, errors.New("job required")
	}
	if rule == nil {
		return nil, ErrNoRule
	}

	name := strings.TrimSpace(opt.Name)
	if name == "" {
		name = "schedule"
	}
	histSize := opt.HistorySize
	if histSize <= 0 {
		histSize = defaultHistorySize
	}

	return &Schedule{
		c: &core{
			name:     name,
			job:      job,
			rule:     rule,
			log:      opt.Logger,
			rec:      opt.Recorder,
			timeout:  opt.Timeout,
			histSize: histSize,
			// A burst of 3 keeps the first failures visible, then at most
			// one warning per 10s.
			failLim: rate.NewLimiter(rate.Every(10*time.Second), 3),
		},
	}, nil
}

// Start begins execution. It is idempotent: starting an already-running
// schedule changes nothing. Returns ErrExhausted when the rule yields no
// future run, and ErrStopping while a previous worker is still winding down.
//
// ctx is the lifetime context handed to job runs; cancelling it does NOT
// stop the schedule (use Stop/StopWait), it only cancels job contexts.
func (s *Schedule) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.start(ctx)
}

// Stop requests a stop and returns immediately. The worker exits at its next
// wake-up, or after the in-flight run (if any) completes.
func (s *Schedule) Stop() {
	s.mu.Lock()
	s.c.requestStop()
	s.mu.Unlock()
}

// StopWait requests a stop and blocks until the worker has fully exited or
// ctx is done, whichever comes first. It reports whether the worker exited:
// false means ctx elapsed first and the worker is still finishing in the
// background (Running stays true until it does).
func (s *Schedule) StopWait(ctx context.Context) bool {
	s.mu.Lock()
	done := s.c.requestStop()
	s.mu.Unlock()

	if done == nil {
		return true
	}
	select {
	case <-done:
		return true
	case <-ctx.Done():
		return false
	}
}

// Reset clears scheduling state (next run, one-shot fired flags) so the
// attached rule evaluates from scratch on the next Start.
// Returns ErrRunning while active.
func (s *Schedule) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.reset()
}

// SetRule replaces the attached rule. Returns ErrRunning while active.
func (s *Schedule) SetRule(r Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.setRule(r)
}

// Running reports whether the schedule is active. It stays true from Start
// until the worker has fully exited, including the wind-down after a stop.
func (s *Schedule) Running() bool { return s.c.running() }

// NextRun returns the next scheduled instant. ok is false when the schedule
// is stopped or the rule is exhausted.
func (s *Schedule) NextRun() (next time.Time, ok bool) { return s.c.nextRun() }

// OnRunStarted subscribes to run-started notifications. The callback runs
// synchronously on the worker and must not block significantly.
func (s *Schedule) OnRunStarted(fn func(RunStart)) (unsubscribe func()) {
	return s.c.obs.onStarted(fn)
}

// OnRunEnded subscribes to run-ended notifications; every ended notification
// is preceded by its paired started notification.
func (s *Schedule) OnRunEnded(fn func(RunEnd)) (unsubscribe func()) {
	return s.c.obs.onEnded(fn)
}

// Snapshot returns a point-in-time view of the schedule's state and recent
// run history.
func (s *Schedule) Snapshot() Snapshot { return s.c.snapshot() }
