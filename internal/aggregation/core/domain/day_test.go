package domain

import (
	"testing"
	"time"
)

const initialDay = int64(1443657600) // 2015-10-01

func TestDayStart(t *testing.T) {
	cases := []struct {
		name string
		ts   int64
		want int64
	}{
		{"midnight", initialDay, initialDay},
		{"mid-day", initialDay + 300, initialDay},
		{"last second", initialDay + DayLength - 1, initialDay},
		{"next midnight", initialDay + DayLength, initialDay + DayLength},
		{"before epoch", -1, -DayLength},
	}

	for _, tc := range cases {
		if got := DayStart(tc.ts); got != tc.want {
			t.Fatalf("%s: DayStart(%d) = %d, want %d", tc.name, tc.ts, got, tc.want)
		}
	}
}

func TestToday_IgnoresHostTimezone(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*60*60)
	// 2015-10-02 01:00 in UTC+9 is still 2015-10-01 in UTC.
	now := time.Date(2015, 10, 2, 1, 0, 0, 0, loc)

	if got := Today(now); got != initialDay {
		t.Fatalf("expected %d, got %d", initialDay, got)
	}
}

func TestWindow_HalfOpen(t *testing.T) {
	w := WindowFor(initialDay)

	if !w.Contains(initialDay) {
		t.Fatalf("window must contain its start")
	}
	if !w.Contains(w.End - 1) {
		t.Fatalf("window must contain end-1")
	}
	if w.Contains(w.End) {
		t.Fatalf("window must not contain its end")
	}
	if w.Contains(initialDay - 1) {
		t.Fatalf("window must not contain start-1")
	}
}

func TestIsDayStartAndFormat(t *testing.T) {
	if !IsDayStart(initialDay) {
		t.Fatalf("expected %d to be a day start", initialDay)
	}
	if IsDayStart(initialDay + 1) {
		t.Fatalf("expected %d not to be a day start", initialDay+1)
	}
	if got := FormatDay(initialDay); got != "2015-10-01" {
		t.Fatalf("expected 2015-10-01, got %s", got)
	}
}
