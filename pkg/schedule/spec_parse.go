package schedule

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ParseRule parses a schedule string from a config file into a Rule.
//
// Supported forms:
//   - Cron (crontab.guru-style): "*/5 * * * *", "55 * * * *", "@hourly", "@every 55m"
//   - Interval duration: "55m", "2h30m"
//   - Interval HH:MM: "00:50" (50 minutes), "02:30" (2 hours 30 minutes)
//   - Daily: "daily@07:30" or "daily@07:30,19:00"
//   - Weekly: "weekly:mon,fri@09:00"
//   - One-shot: "once:+10m" (relative) or "once:2026-01-02T15:04:05Z" (RFC3339)
//
// Optional prefixes:
//   - "cron:" forces cron parsing
//   - "interval:" or "every:" forces interval parsing
//
// loc sets the location for wall-clock rules (daily, weekly, cron);
// nil means time.Local.
func ParseRule(raw string, loc *time.Location) (Rule, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, fmt.Errorf("schedule required")
	}

	// Prefixes (explicit)
	low := strings.ToLower(s)
	switch {
	case strings.HasPrefix(low, "cron:"):
		expr := strings.TrimSpace(s[len("cron:"):])
		if expr == "" {
			return nil, fmt.Errorf("cron schedule required after 'cron:'")
		}
		return Cron(expr).In(loc).Build()

	case strings.HasPrefix(low, "interval:"):
		return parseIntervalRule(s[len("interval:"):])
	case strings.HasPrefix(low, "every:"):
		return parseIntervalRule(s[len("every:"):])

	case strings.HasPrefix(low, "daily@"):
		spec := strings.TrimSpace(s[len("daily@"):])
		if spec == "" {
			return nil, fmt.Errorf("time of day required after 'daily@'")
		}
		return Daily().At(strings.Split(spec, ",")...).In(loc).Build()

	case strings.HasPrefix(low, "weekly:"):
		return parseWeeklyRule(s[len("weekly:"):], loc)

	case strings.HasPrefix(low, "once:"):
		return parseOnceRule(s[len("once:"):])
	}

	// Heuristics:
	// - any whitespace or leading '@' => cron
	if strings.ContainsAny(s, " \t\n\r") || strings.HasPrefix(s, "@") {
		return Cron(s).In(loc).Build()
	}

	// - HH:MM => interval duration
	if reHHMM.MatchString(s) {
		d, err := parseHHMMDuration(s)
		if err != nil {
			return nil, err
		}
		return Every(d).Build()
	}

	// - Go duration => interval duration
	if d, err := time.ParseDuration(s); err == nil {
		return Every(d).Build()
	}

	return nil, fmt.Errorf(
		"invalid schedule %q (use cron like '*/5 * * * *', a duration like '55m', 'daily@HH:MM', 'weekly:mon@HH:MM', or 'once:+10m')",
		raw,
	)
}

var reHHMM = regexp.MustCompile(`^\s*(\d{1,3}):(\d{2})\s*$`)

func parseIntervalRule(v string) (Rule, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, fmt.Errorf("interval required")
	}
	if reHHMM.MatchString(v) {
		d, err := parseHHMMDuration(v)
		if err != nil {
			return nil, err
		}
		return Every(d).Build()
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return nil, fmt.Errorf("invalid interval %q (use HH:MM or Go duration like '55m'/'2h30m')", v)
	}
	return Every(d).Build()
}

// parseHHMMDuration reads an interval in the compact HH:MM form, where
// "02:30" means 2 hours 30 minutes. Hours may exceed a day (up to 999).
func parseHHMMDuration(v string) (time.Duration, error) {
	m := reHHMM.FindStringSubmatch(v)
	if len(m) != 3 {
		return 0, fmt.Errorf("invalid HH:MM %q", v)
	}
	var hh int
	for i := 0; i < len(m[1]); i++ {
		hh = hh*10 + int(m[1][i]-'0')
	}
	mm := int(m[2][0]-'0')*10 + int(m[2][1]-'0')
	if mm > 59 {
		return 0, fmt.Errorf("invalid minutes in %q", v)
	}
	d := time.Duration(hh)*time.Hour + time.Duration(mm)*time.Minute
	if d <= 0 {
		return 0, fmt.Errorf("interval must be > 0")
	}
	return d, nil
}

func parseWeeklyRule(v string, loc *time.Location) (Rule, error) {
	days, at, ok := strings.Cut(strings.TrimSpace(v), "@")
	if !ok {
		return nil, fmt.Errorf("invalid weekly schedule %q, expected 'weekly:mon,fri@09:00'", v)
	}
	b := Weekly().At(strings.TrimSpace(at)).In(loc)
	for _, name := range strings.Split(days, ",") {
		wd, err := parseWeekday(name)
		if err != nil {
			return nil, err
		}
		b.On(wd)
	}
	return b.Build()
}

func parseOnceRule(v string) (Rule, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, fmt.Errorf("instant required after 'once:'")
	}
	if strings.HasPrefix(v, "+") {
		d, err := time.ParseDuration(v[1:])
		if err != nil {
			return nil, fmt.Errorf("invalid delay %q (use 'once:+10m')", v)
		}
		return Once().After(d).Build()
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, fmt.Errorf("invalid instant %q (use RFC3339 or 'once:+10m')", v)
	}
	return Once().At(t).Build()
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

func parseWeekday(s string) (time.Weekday, error) {
	wd, ok := weekdayNames[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, fmt.Errorf("invalid weekday %q", s)
	}
	return wd, nil
}
