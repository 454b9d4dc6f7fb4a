package schedule

import (
	"testing"
	"time"
)

func TestIntervalNext(t *testing.T) {
	t.Parallel()
	r, err := Every(10 * time.Minute).Build()
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}

	ref := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		got := r.Next(ref)
		if want := ref.Add(10 * time.Minute); !got.Equal(want) {
			t.Fatalf("Next(%v) = %v, want %v", ref, got, want)
		}
		ref = got
	}
}

func TestIntervalInitialDelay(t *testing.T) {
	t.Parallel()
	r, err := Every(time.Hour).After(5 * time.Minute).Build()
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}

	ref := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	first := r.Next(ref)
	if want := ref.Add(5 * time.Minute); !first.Equal(want) {
		t.Fatalf("first Next = %v, want %v", first, want)
	}
	second := r.Next(first)
	if want := first.Add(time.Hour); !second.Equal(want) {
		t.Fatalf("second Next = %v, want %v", second, want)
	}
}

func TestOnceFiresOnce(t *testing.T) {
	t.Parallel()
	at := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	r, err := Once().At(at).Build()
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}

	ref := at.Add(-time.Hour)
	if got := r.Next(ref); !got.Equal(at) {
		t.Fatalf("Next = %v, want %v", got, at)
	}
	if got := r.Next(at); !got.IsZero() {
		t.Fatalf("second Next = %v, want zero", got)
	}

	// reset re-arms the rule
	r.(resettable).reset()
	if got := r.Next(ref); !got.Equal(at) {
		t.Fatalf("Next after reset = %v, want %v", got, at)
	}
}

func TestOnceRelative(t *testing.T) {
	t.Parallel()
	r, err := Once().After(30 * time.Minute).Build()
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	ref := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	if got, want := r.Next(ref), ref.Add(30*time.Minute); !got.Equal(want) {
		t.Fatalf("Next = %v, want %v", got, want)
	}
}

func TestOncePastInstantReturnedAsIs(t *testing.T) {
	t.Parallel()
	at := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	r, err := Once().At(at).Build()
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	if got := r.Next(time.Now()); !got.Equal(at) {
		t.Fatalf("Next = %v, want the past instant %v", got, at)
	}
}

func TestDailyNext(t *testing.T) {
	t.Parallel()
	r, err := Daily().At("07:30", "19:00").In(time.UTC).Build()
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}

	day := func(h, m int) time.Time {
		return time.Date(2026, 8, 20, h, m, 0, 0, time.UTC)
	}

	tests := []struct {
		name  string
		after time.Time
		want  time.Time
	}{
		{name: "before both", after: day(6, 0), want: day(7, 30)},
		{name: "between", after: day(8, 0), want: day(19, 0)},
		{name: "exactly at first", after: day(7, 30), want: day(19, 0)},
		{name: "after both", after: day(19, 30), want: day(7, 30).AddDate(0, 0, 1)},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Next(tt.after); !got.Equal(tt.want) {
				t.Fatalf("Next(%v) = %v, want %v", tt.after, got, tt.want)
			}
		})
	}
}

func TestWeeklyNext(t *testing.T) {
	t.Parallel()
	r, err := Weekly(time.Monday, time.Friday).At("09:00").In(time.UTC).Build()
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}

	// 2026-08-19 is a Wednesday.
	wed := time.Date(2026, 8, 19, 12, 0, 0, 0, time.UTC)
	fri := time.Date(2026, 8, 21, 9, 0, 0, 0, time.UTC)
	mon := time.Date(2026, 8, 24, 9, 0, 0, 0, time.UTC)

	if got := r.Next(wed); !got.Equal(fri) {
		t.Fatalf("Next(wed) = %v, want %v", got, fri)
	}
	if got := r.Next(fri.Add(time.Hour)); !got.Equal(mon) {
		t.Fatalf("Next(fri 10:00) = %v, want %v", got, mon)
	}
	// Single weekday whose time passed today wraps a full week.
	single, err := Weekly(time.Monday).At("09:00").In(time.UTC).Build()
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	if got, want := single.Next(mon.Add(time.Minute)), mon.AddDate(0, 0, 7); !got.Equal(want) {
		t.Fatalf("Next(mon 09:01) = %v, want %v", got, want)
	}
}

// loadNewYork loads a zone with a 02:00->03:00 spring-forward gap
// (2026-03-08) and a repeated 01:00-02:00 hour (2026-11-01).
func loadNewYork(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("LoadLocation error: %v", err)
	}
	return loc
}

func TestDailySpringForwardGap(t *testing.T) {
	t.Parallel()
	ny := loadNewYork(t)
	r, err := Daily().At("02:30").In(ny).Build()
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}

	// 02:30 does not exist on 2026-03-08; the nearest valid instant not
	// before it is the end of the gap, 03:00 EDT.
	after := time.Date(2026, 3, 8, 1, 0, 0, 0, ny)
	want := time.Date(2026, 3, 8, 3, 0, 0, 0, ny)
	got := r.Next(after)
	if !got.Equal(want) {
		t.Fatalf("Next = %v, want %v", got, want)
	}
	if got.Before(after) || !got.After(after) {
		t.Fatalf("Next = %v is not strictly after %v", got, after)
	}
	if h, m := got.Hour(), got.Minute(); h != 3 || m != 0 {
		t.Fatalf("Next resolved to wall clock %02d:%02d, want 03:00", h, m)
	}
}

func TestDailySpringForwardGapMinimumOverTimes(t *testing.T) {
	t.Parallel()
	ny := loadNewYork(t)
	r, err := Daily().At("02:30", "03:00").In(ny).Build()
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}

	// Both candidates resolve to 03:00 EDT on the gap day; the result must
	// be that minimum, never an instant inside or before the gap.
	after := time.Date(2026, 3, 8, 1, 0, 0, 0, ny)
	want := time.Date(2026, 3, 8, 3, 0, 0, 0, ny)
	if got := r.Next(after); !got.Equal(want) {
		t.Fatalf("Next = %v, want %v", got, want)
	}
}

func TestDailyFallBackRepeatedHour(t *testing.T) {
	t.Parallel()
	ny := loadNewYork(t)
	r, err := Daily().At("01:30").In(ny).Build()
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}

	// 01:30 occurs twice on 2026-11-01. The rule picks one of them, fires
	// once, and the following occurrence is the next day.
	after := time.Date(2026, 11, 1, 0, 0, 0, 0, ny)
	got := r.Next(after)
	if !got.After(after) {
		t.Fatalf("Next = %v is not strictly after %v", got, after)
	}
	if h, m := got.Hour(), got.Minute(); h != 1 || m != 30 {
		t.Fatalf("Next resolved to wall clock %02d:%02d, want 01:30", h, m)
	}
	if y, mo, d := got.Date(); y != 2026 || mo != time.November || d != 1 {
		t.Fatalf("Next = %v, want 2026-11-01", got)
	}
	next := r.Next(got)
	if y, mo, d := next.Date(); y != 2026 || mo != time.November || d != 2 {
		t.Fatalf("following Next = %v, want 2026-11-02 (the repeated hour fires once)", next)
	}
}

func TestWeeklySpringForwardGap(t *testing.T) {
	t.Parallel()
	ny := loadNewYork(t)
	r, err := Weekly(time.Sunday).At("02:30").In(ny).Build()
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}

	// 2026-03-08 is the gap Sunday; 02:30 resolves to 03:00 EDT.
	after := time.Date(2026, 3, 7, 12, 0, 0, 0, ny)
	want := time.Date(2026, 3, 8, 3, 0, 0, 0, ny)
	if got := r.Next(after); !got.Equal(want) {
		t.Fatalf("Next = %v, want %v", got, want)
	}
}

func TestCronNext(t *testing.T) {
	t.Parallel()
	r, err := Cron("*/15 * * * *").In(time.UTC).Build()
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	after := time.Date(2026, 8, 20, 12, 7, 0, 0, time.UTC)
	want := time.Date(2026, 8, 20, 12, 15, 0, 0, time.UTC)
	if got := r.Next(after); !got.Equal(want) {
		t.Fatalf("Next = %v, want %v", got, want)
	}
}

func TestBuilderValidation(t *testing.T) {
	t.Parallel()
	if _, err := Every(0).Build(); err == nil {
		t.Fatal("expected error for zero interval")
	}
	if _, err := Every(-time.Second).Build(); err == nil {
		t.Fatal("expected error for negative interval")
	}
	if _, err := Once().Build(); err == nil {
		t.Fatal("expected error for unset one-shot")
	}
	if _, err := Daily().Build(); err == nil {
		t.Fatal("expected error for daily without times")
	}
	if _, err := Daily().At("25:00").Build(); err == nil {
		t.Fatal("expected error for invalid hour")
	}
	if _, err := Weekly().At("09:00").Build(); err == nil {
		t.Fatal("expected error for weekly without days")
	}
	if _, err := Weekly(time.Monday).Build(); err == nil {
		t.Fatal("expected error for weekly without time")
	}
	if _, err := Cron("not a cron").Build(); err == nil {
		t.Fatal("expected error for invalid cron expression")
	}
}

func TestParseHHMM(t *testing.T) {
	t.Parallel()
	tod, err := parseHHMM("23:15")
	if err != nil {
		t.Fatalf("parseHHMM error: %v", err)
	}
	if tod.hour != 23 || tod.minute != 15 {
		t.Fatalf("unexpected result: %d:%d", tod.hour, tod.minute)
	}

	if _, err := parseHHMM("24:00"); err == nil {
		t.Fatal("expected error for invalid hour")
	}
	if _, err := parseHHMM("12:60"); err == nil {
		t.Fatal("expected error for invalid minute")
	}
}
