package schedule

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// The builders below accumulate configuration and validate it in Build.
// The built Rule is a separate immutable value; a builder can be discarded
// or reused after Build without affecting rules it already produced.

// ---- one-shot ----

type OnceBuilder struct {
	at    time.Time
	delay time.Duration
	rel   bool
	set   bool
}

// Once starts a one-shot rule. Configure exactly one of At or After.
func Once() *OnceBuilder { return &OnceBuilder{} }

// At fires at an absolute instant.
func (b *OnceBuilder) At(t time.Time) *OnceBuilder {
	b.at = t
	b.rel = false
	b.set = true
	return b
}

// After fires once the given duration has elapsed from the moment the
// schedule evaluates the rule (normally Start).
func (b *OnceBuilder) After(d time.Duration) *OnceBuilder {
	b.delay = d
	b.rel = true
	b.set = true
	return b
}

func (b *OnceBuilder) Build() (Rule, error) {
	if !b.set {
		return nil, errors.New("one-shot rule needs At or After")
	}
	if b.rel && b.delay < 0 {
		return nil, errors.New("one-shot delay must be >= 0")
	}
	if !b.rel && b.at.IsZero() {
		return nil, errors.New("one-shot instant must be set")
	}
	return &onceRule{at: b.at, delay: b.delay, rel: b.rel}, nil
}

// ---- fixed interval ----

type IntervalBuilder struct {
	every   time.Duration
	initial time.Duration
}

// Every starts a fixed-interval rule.
func Every(d time.Duration) *IntervalBuilder { return &IntervalBuilder{every: d} }

// After delays the first run by the given duration instead of a full
// interval. Subsequent runs use the interval.
func (b *IntervalBuilder) After(initial time.Duration) *IntervalBuilder {
	b.initial = initial
	return b
}

func (b *IntervalBuilder) Build() (Rule, error) {
	if b.every <= 0 {
		return nil, errors.New("interval must be > 0")
	}
	if b.initial < 0 {
		return nil, errors.New("initial delay must be >= 0")
	}
	return &intervalRule{every: b.every, initial: b.initial, first: true}, nil
}

// ---- daily ----

type DailyBuilder struct {
	times []string
	loc   *time.Location
}

// Daily starts a daily rule; add wall-clock times with At.
func Daily() *DailyBuilder { return &DailyBuilder{} }

// At adds one or more HH:MM times of day. Duplicates are deduplicated.
func (b *DailyBuilder) At(times ...string) *DailyBuilder {
	b.times = append(b.times, times...)
	return b
}

// In sets the location used for wall-clock comparisons (default time.Local).
func (b *DailyBuilder) In(loc *time.Location) *DailyBuilder {
	b.loc = loc
	return b
}

func (b *DailyBuilder) Build() (Rule, error) {
	if len(b.times) == 0 {
		return nil, errors.New("daily rule needs at least one time of day")
	}
	seen := map[timeOfDay]bool{}
	times := make([]timeOfDay, 0, len(b.times))
	for _, raw := range b.times {
		tod, err := parseHHMM(raw)
		if err != nil {
			return nil, err
		}
		if seen[tod] {
			continue
		}
		seen[tod] = true
		times = append(times, tod)
	}
	sort.Slice(times, func(i, j int) bool {
		if times[i].hour != times[j].hour {
			return times[i].hour < times[j].hour
		}
		return times[i].minute < times[j].minute
	})
	return &dailyRule{times: times, loc: location(b.loc)}, nil
}

// ---- weekly ----

type WeeklyBuilder struct {
	days []time.Weekday
	at   string
	loc  *time.Location
}

// Weekly starts a weekly rule on the given weekdays; set the time with At.
func Weekly(days ...time.Weekday) *WeeklyBuilder { return &WeeklyBuilder{days: days} }

// On adds more weekdays.
func (b *WeeklyBuilder) On(days ...time.Weekday) *WeeklyBuilder {
	b.days = append(b.days, days...)
	return b
}

// At sets the HH:MM time of day.
func (b *WeeklyBuilder) At(hhmm string) *WeeklyBuilder {
	b.at = hhmm
	return b
}

// In sets the location used for wall-clock comparisons (default time.Local).
func (b *WeeklyBuilder) In(loc *time.Location) *WeeklyBuilder {
	b.loc = loc
	return b
}

func (b *WeeklyBuilder) Build() (Rule, error) {
	if len(b.days) == 0 {
		return nil, errors.New("weekly rule needs at least one weekday")
	}
	var days [7]bool
	for _, d := range b.days {
		if d < time.Sunday || d > time.Saturday {
			return nil, fmt.Errorf("invalid weekday %d", int(d))
		}
		days[d] = true
	}
	if b.at == "" {
		return nil, errors.New("weekly rule needs a time of day")
	}
	tod, err := parseHHMM(b.at)
	if err != nil {
		return nil, err
	}
	return &weeklyRule{days: days, at: tod, loc: location(b.loc)}, nil
}

// ---- cron ----

type CronBuilder struct {
	expr string
	loc  *time.Location
}

// Cron starts a rule from a cron expression: 5-field (min hour dom mon dow),
// 6-field with seconds, or descriptors like "@hourly" and "@every 55m".
func Cron(expr string) *CronBuilder { return &CronBuilder{expr: expr} }

// In sets the location the expression is evaluated in (default time.Local).
func (b *CronBuilder) In(loc *time.Location) *CronBuilder {
	b.loc = loc
	return b
}

func (b *CronBuilder) Build() (Rule, error) {
	sched, err := cronParser.Parse(b.expr)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", b.expr, err)
	}
	return &cronRule{sched: sched, loc: location(b.loc)}, nil
}

func location(loc *time.Location) *time.Location {
	if loc == nil {
		return time.Local
	}
	return loc
}
