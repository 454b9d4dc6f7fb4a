package schedule

import (
	"sync"
	"time"
)

// RunStart describes the beginning of one execution.
type RunStart struct {
	Name        string
	ScheduledAt time.Time // the instant the run was scheduled for
	StartedAt   time.Time // the instant it actually began
}

// RunEnd describes the completion of one execution. Err is nil on success;
// a job panic is reported here as an error, never propagated.
type RunEnd struct {
	Name      string
	StartedAt time.Time
	EndedAt   time.Time
	Duration  time.Duration
	Err       error
}

// observers is a small multicast list for run notifications.
//
// Contract:
//   - Callbacks run synchronously on the worker; they must not block.
//   - Unsubscribe is idempotent and safe to call concurrently.
//
// Dispatch snapshots the subscriber set under the lock and invokes outside
// it, so a callback may subscribe/unsubscribe without deadlocking.
type observers struct {
	mu      sync.Mutex
	seq     uint64
	started map[uint64]func(RunStart)
	ended   map[uint64]func(RunEnd)
}

func (o *observers) onStarted(fn func(RunStart)) (unsubscribe func()) {
	o.mu.Lock()
	if o.started == nil {
		o.started = map[uint64]func(RunStart){}
	}
	o.seq++
	id := o.seq
	o.started[id] = fn
	o.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			o.mu.Lock()
			delete(o.started, id)
			o.mu.Unlock()
		})
	}
}

func (o *observers) onEnded(fn func(RunEnd)) (unsubscribe func()) {
	o.mu.Lock()
	if o.ended == nil {
		o.ended = map[uint64]func(RunEnd){}
	}
	o.seq++
	id := o.seq
	o.ended[id] = fn
	o.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			o.mu.Lock()
			delete(o.ended, id)
			o.mu.Unlock()
		})
	}
}

func (o *observers) notifyStarted(ev RunStart) {
	o.mu.Lock()
	fns := make([]func(RunStart), 0, len(o.started))
	for _, fn := range o.started {
		fns = append(fns, fn)
	}
	o.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}

func (o *observers) notifyEnded(ev RunEnd) {
	o.mu.Lock()
	fns := make([]func(RunEnd), 0, len(o.ended))
	for _, fn := range o.ended {
		fns = append(fns, fn)
	}
	o.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}
