package schedule

import "errors"

var (
	// ErrRunning is returned by Reset and SetRule while the schedule is active.
	ErrRunning = errors.New("schedule is running")

	// ErrStopping is returned by Start while a previous worker is still
	// winding down after a stop request.
	ErrStopping = errors.New("schedule is stopping")

	// ErrNoRule is returned when no recurrence rule is configured.
	ErrNoRule = errors.New("recurrence rule required")

	// ErrExhausted is returned by Start when the rule yields no future run
	// (e.g. a one-shot that has already fired and was not Reset).
	ErrExhausted = errors.New("recurrence rule exhausted")
)
