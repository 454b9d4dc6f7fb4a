package schedule

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"metron/pkg/logx"
)

// core owns the mutable scheduling state for one schedule: the active flag,
// the next-run instant, the attached rule, and the channels coordinating the
// background worker. All of it is guarded by mu, which is never held across
// a sleep or a job execution.
type core struct {
	name     string
	job      Job
	log      logx.Logger
	rec      Recorder
	timeout  time.Duration
	histSize int

	// failLim throttles repeated failure warnings for tight schedules so a
	// permanently broken job cannot flood the log.
	failLim *rate.Limiter

	obs observers

	mu       sync.Mutex
	active   bool
	stopping bool
	next     time.Time
	rule     Rule
	stopCh   chan struct{} // closed to request stop
	done     chan struct{} // closed when the worker has fully exited

	// inFlight is set/cleared by the worker around each execution; the
	// controller only observes it (Snapshot). Separate lock so observation
	// never contends with a state transition.
	run runState

	hmu     sync.Mutex
	history []HistoryItem
}

type runState struct {
	mu      sync.Mutex
	running bool
}

func (r *runState) set(v bool) {
	r.mu.Lock()
	r.running = v
	r.mu.Unlock()
}

func (r *runState) get() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// start computes the first next-run instant and spawns the worker.
// Idempotent while active.
func (c *core) start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active {
		if c.stopping {
			// A stop was requested and the worker is winding down; this
			// schedule will stop no matter what, so a restart must wait.
			return ErrStopping
		}
		return nil
	}
	if c.done != nil {
		// A previous worker may still be winding down after a timed-out
		// blocking stop. Restarting is blocked until it has fully exited.
		select {
		case <-c.done:
			c.done = nil
		default:
			return ErrStopping
		}
	}
	if c.rule == nil {
		return ErrNoRule
	}

	next := c.rule.Next(time.Now())
	if next.IsZero() {
		return ErrExhausted
	}

	c.active = true
	c.stopping = false
	c.next = next
	c.stopCh = make(chan struct{})
	c.done = make(chan struct{})

	go c.runLoop(ctx, c.stopCh, c.done)

	c.log.Debug("schedule started",
		logx.String("schedule", c.name),
		logx.Time("next_run", next))
	return nil
}

// requestStop sets the cancellation flag and returns the channel that closes
// when the worker has fully exited. The returned channel is nil when there
// is no worker to wait for.
func (c *core) requestStop() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.active {
		return c.done
	}
	if !c.stopping {
		c.stopping = true
		close(c.stopCh)
		c.log.Debug("stop requested", logx.String("schedule", c.name))
	}
	return c.done
}

// reset clears the next-run instant and re-arms any stateful rule so the
// same rule evaluates from scratch on the next start.
func (c *core) reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active {
		return ErrRunning
	}
	c.next = time.Time{}
	if r, ok := c.rule.(resettable); ok {
		r.reset()
	}
	return nil
}

func (c *core) setRule(r Rule) error {
	if r == nil {
		return ErrNoRule
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active {
		return ErrRunning
	}
	c.rule = r
	c.next = time.Time{}
	return nil
}

func (c *core) running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

func (c *core) nextRun() (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.next, !c.next.IsZero()
}
