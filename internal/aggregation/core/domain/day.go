package domain

import "time"

// DayLength is one UTC calendar day in seconds. No leap-second or DST
// adjustment is ever applied.
const DayLength int64 = 24 * 60 * 60

// DayStart returns the UTC midnight at or before ts (unix seconds).
func DayStart(ts int64) int64 {
	r := ts % DayLength
	if r < 0 {
		r += DayLength
	}
	return ts - r
}

// IsDayStart reports whether ts is exactly a UTC midnight.
func IsDayStart(ts int64) bool {
	return DayStart(ts) == ts
}

// Today returns the UTC midnight of the day containing now.
func Today(now time.Time) int64 {
	return DayStart(now.Unix())
}

// FormatDay renders a day as YYYY-MM-DD in UTC.
func FormatDay(day int64) string {
	return time.Unix(day, 0).UTC().Format(time.DateOnly)
}

// Window is the half-open interval [Start, End) covered by one day.
type Window struct {
	Start int64
	End   int64
}

func WindowFor(day int64) Window {
	return Window{Start: day, End: day + DayLength}
}

func (w Window) Contains(ts int64) bool {
	return ts >= w.Start && ts < w.End
}
