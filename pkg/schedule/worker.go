package schedule

import (
	"context"
	"fmt"
	"time"

	"metron/pkg/logx"
)

// runLoop is the per-schedule worker. Exactly one instance runs per active
// schedule; it exits on a stop request or when the rule is exhausted, and
// flips the active flag false only on its way out so a restart cannot race
// a winding-down worker.
func (c *core) runLoop(ctx context.Context, stopCh <-chan struct{}, done chan struct{}) {
	defer close(done)
	defer c.windDown()

	for {
		c.mu.Lock()
		next := c.next
		rule := c.rule
		c.mu.Unlock()

		// Negative means we are late (a long previous run, clock drift):
		// run immediately rather than skipping.
		d := time.Until(next)
		if d < 0 {
			d = 0
		}

		tmr := time.NewTimer(d)
		select {
		case <-stopCh:
			if !tmr.Stop() {
				<-tmr.C
			}
			return
		case <-tmr.C:
		}

		// Close the race where a stop landed while the timer was firing:
		// never begin a run once the flag is set.
		select {
		case <-stopCh:
			return
		default:
		}

		start := time.Now()
		c.runOnce(ctx, next, start)

		// The next instant derives from this run's start time, not "now",
		// so run duration does not drift the cadence.
		n := rule.Next(start)
		if n.IsZero() {
			return
		}
		c.mu.Lock()
		c.next = n
		c.mu.Unlock()
	}
}

// windDown marks the schedule stopped. Runs in the worker's exit path,
// immediately before done is closed.
func (c *core) windDown() {
	c.mu.Lock()
	c.active = false
	c.stopping = false
	c.next = time.Time{}
	c.mu.Unlock()
	c.log.Debug("schedule stopped", logx.String("schedule", c.name))
}

// runOnce executes the job exactly once: marks the run in flight, emits the
// paired notifications, and records the outcome. Failures (including panics)
// are contained here; the loop always survives them.
func (c *core) runOnce(ctx context.Context, scheduledAt, start time.Time) {
	c.run.set(true)
	defer c.run.set(false)

	c.obs.notifyStarted(RunStart{Name: c.name, ScheduledAt: scheduledAt, StartedAt: start})

	err := c.invoke(ctx)

	end := time.Now()
	dur := end.Sub(start)

	item := HistoryItem{
		Name:        c.name,
		ScheduledAt: scheduledAt,
		Started:     start,
		Duration:    dur,
	}
	if err != nil {
		item.Error = err.Error()
		if c.failLim.Allow() {
			c.log.Warn("run failed",
				logx.String("schedule", c.name),
				logx.Err(err),
				logx.Duration("dur", dur))
		}
	} else {
		// Avoid noisy logs for very frequent jobs: only elevate to INFO
		// when the run took noticeable time.
		if dur >= 750*time.Millisecond {
			c.log.Info("run completed", logx.String("schedule", c.name), logx.Duration("dur", dur))
		} else {
			c.log.Debug("run completed", logx.String("schedule", c.name), logx.Duration("dur", dur))
		}
	}

	c.appendHistory(item)
	if c.rec != nil {
		if rerr := c.rec.Record(ctx, item); rerr != nil {
			c.log.Warn("run history record failed",
				logx.String("schedule", c.name),
				logx.Err(rerr))
		}
	}

	c.obs.notifyEnded(RunEnd{
		Name:      c.name,
		StartedAt: start,
		EndedAt:   end,
		Duration:  dur,
		Err:       err,
	})
}

// invoke runs the job with the optional per-run timeout applied. A panic in
// the job is converted to an error so it surfaces through the end
// notification like any other failure.
func (c *core) invoke(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()

	runCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return c.job(runCtx)
}
