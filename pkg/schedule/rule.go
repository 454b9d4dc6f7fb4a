package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Rule computes the next run instant from a reference instant.
//
// Next returns the zero time when the rule has no further run (a one-shot
// that already fired). For every non-zero result the contract is strict:
// Next(after) is after `after`, never equal or earlier.
//
// Rules built by this package are safe for use by a single schedule at a
// time; the stateful ones (one-shot, interval with initial delay) guard
// their flags internally.
type Rule interface {
	Next(after time.Time) time.Time
}

// resettable is implemented by stateful rules so Schedule.Reset can re-arm
// them without the caller rebuilding the rule.
type resettable interface {
	reset()
}

// ---- one-shot ----

type onceRule struct {
	at    time.Time
	delay time.Duration
	rel   bool // delay-based; resolved against the reference instant

	mu    sync.Mutex
	fired bool
}

func (r *onceRule) Next(after time.Time) time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fired {
		return time.Time{}
	}
	r.fired = true
	if r.rel {
		return after.Add(r.delay)
	}
	// An absolute instant already in the past is returned as-is; the worker
	// clamps the sleep to zero and runs immediately (catch-up semantics).
	return r.at
}

func (r *onceRule) reset() {
	r.mu.Lock()
	r.fired = false
	r.mu.Unlock()
}

// ---- fixed interval ----

type intervalRule struct {
	every   time.Duration
	initial time.Duration

	mu    sync.Mutex
	first bool
}

func (r *intervalRule) Next(after time.Time) time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.first {
		r.first = false
		if r.initial > 0 {
			return after.Add(r.initial)
		}
	}
	return after.Add(r.every)
}

func (r *intervalRule) reset() {
	r.mu.Lock()
	r.first = true
	r.mu.Unlock()
}

// ---- daily at time(s) of day ----

// timeOfDay is a local wall-clock time. Seconds are intentionally not
// supported: the string forms are HH:MM, matching crontab granularity.
type timeOfDay struct {
	hour   int
	minute int
}

func (t timeOfDay) on(day time.Time, loc *time.Location) time.Time {
	c := time.Date(day.Year(), day.Month(), day.Day(), t.hour, t.minute, 0, 0, loc)
	if c.Hour() == t.hour && c.Minute() == t.minute {
		return c
	}
	// The wall clock fell into a DST gap and time.Date normalized it to an
	// instant on the wrong side of the transition (possibly before the
	// requested time). Scan forward for the first wall clock that exists;
	// that is the end of the gap, the nearest valid instant at or after the
	// requested one. Gaps are at most a couple of hours.
	for k := 1; k <= 3*60; k++ {
		cand := time.Date(day.Year(), day.Month(), day.Day(), t.hour, t.minute+k, 0, 0, loc)
		want := (t.hour*60 + t.minute + k) % (24 * 60)
		if cand.Hour()*60+cand.Minute() == want {
			return cand
		}
	}
	return c
}

type dailyRule struct {
	times []timeOfDay // sorted ascending, deduplicated at build time
	loc   *time.Location
}

func (r *dailyRule) Next(after time.Time) time.Time {
	local := after.In(r.loc)
	// Today, then tomorrow. Two days always suffice: tomorrow's earliest
	// configured time is strictly after any instant today. Take the minimum
	// over the day's candidates rather than the first sorted hit, since a
	// DST gap can shift a candidate past a later configured time.
	for d := 0; d <= 1; d++ {
		day := local.AddDate(0, 0, d)
		var best time.Time
		for _, tod := range r.times {
			cand := tod.on(day, r.loc)
			if cand.After(after) && (best.IsZero() || cand.Before(best)) {
				best = cand
			}
		}
		if !best.IsZero() {
			return best
		}
	}
	return time.Time{} // unreachable
}

// ---- weekly on days at a time of day ----

type weeklyRule struct {
	days [7]bool // indexed by time.Weekday
	at   timeOfDay
	loc  *time.Location
}

func (r *weeklyRule) Next(after time.Time) time.Time {
	local := after.In(r.loc)
	// Scan forward day by day. Today only matches when its weekday is
	// configured and the time of day has not yet passed; offset 7 covers a
	// single configured weekday whose time already passed today.
	for d := 0; d <= 7; d++ {
		day := local.AddDate(0, 0, d)
		if !r.days[day.Weekday()] {
			continue
		}
		if cand := r.at.on(day, r.loc); cand.After(after) {
			return cand
		}
	}
	return time.Time{} // unreachable
}

// ---- cron expression ----

type cronRule struct {
	sched cron.Schedule
	loc   *time.Location
}

func (r *cronRule) Next(after time.Time) time.Time {
	return r.sched.Next(after.In(r.loc))
}

// cronParser allows both 5-field and 6-field (with seconds) specs plus
// descriptors like "@hourly" and "@every 55m".
var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// ---- helpers ----

func parseHHMM(s string) (timeOfDay, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return timeOfDay{}, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return timeOfDay{}, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return timeOfDay{}, fmt.Errorf("invalid minute in %q", s)
	}
	return timeOfDay{hour: h, minute: m}, nil
}
