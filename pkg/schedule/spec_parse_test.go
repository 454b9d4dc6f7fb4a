package schedule

import (
	"testing"
	"time"
)

func TestParseRuleVariants(t *testing.T) {
	t.Parallel()
	ref := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		raw  string
		want time.Time
	}{
		{name: "cron", raw: "*/5 * * * *", want: ref.Add(5 * time.Minute)},
		{name: "prefixed cron", raw: "cron:0 0 * * *", want: time.Date(2026, 8, 21, 0, 0, 0, 0, time.UTC)},
		{name: "descriptor", raw: "@hourly", want: ref.Add(time.Hour)},
		{name: "duration", raw: "10m", want: ref.Add(10 * time.Minute)},
		{name: "prefixed interval", raw: "interval:45s", want: ref.Add(45 * time.Second)},
		{name: "every alias", raw: "every:2h30m", want: ref.Add(2*time.Hour + 30*time.Minute)},
		{name: "hhmm interval", raw: "01:30", want: ref.Add(90 * time.Minute)},
		{name: "daily", raw: "daily@19:00", want: time.Date(2026, 8, 20, 19, 0, 0, 0, time.UTC)},
		{name: "daily multiple", raw: "daily@07:30,14:00", want: time.Date(2026, 8, 20, 14, 0, 0, 0, time.UTC)},
		{name: "weekly", raw: "weekly:fri@09:00", want: time.Date(2026, 8, 21, 9, 0, 0, 0, time.UTC)},
		{name: "once relative", raw: "once:+10m", want: ref.Add(10 * time.Minute)},
		{name: "once absolute", raw: "once:2026-09-01T08:00:00Z", want: time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			r, err := ParseRule(tt.raw, time.UTC)
			if err != nil {
				t.Fatalf("ParseRule(%q) error: %v", tt.raw, err)
			}
			if got := r.Next(ref); !got.Equal(tt.want) {
				t.Fatalf("Next = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseRuleInvalid(t *testing.T) {
	t.Parallel()
	for _, raw := range []string{
		"",
		"not-a-schedule",
		"cron:",
		"interval:nope",
		"daily@",
		"daily@25:00",
		"weekly:someday@09:00",
		"weekly:mon",
		"once:yesterday",
		"01:60",
	} {
		if _, err := ParseRule(raw, time.UTC); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestParseHHMMDuration(t *testing.T) {
	t.Parallel()
	d, err := parseHHMMDuration("02:30")
	if err != nil {
		t.Fatalf("parseHHMMDuration error: %v", err)
	}
	if want := 2*time.Hour + 30*time.Minute; d != want {
		t.Fatalf("duration = %v, want %v", d, want)
	}

	if _, err := parseHHMMDuration("00:00"); err == nil {
		t.Fatal("expected error for zero interval")
	}
}
