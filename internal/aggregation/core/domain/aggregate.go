package domain

import "panopticon-aggregator/internal/telemetry"

// DailyAggregate is the single persisted summary of one day.
type DailyAggregate struct {
	Day               int64
	Sums              []*int64 // aligned with telemetry.MetricColumns
	ActiveHomeservers int64
	ServerContext     *string // reserved, always nil
}

// Sum returns the summed value for the named metric column.
func (a DailyAggregate) Sum(column string) *int64 {
	i := telemetry.MetricIndex(column)
	if i < 0 || i >= len(a.Sums) {
		return nil
	}
	return a.Sums[i]
}

// Summarize builds the aggregate for day out of candidate snapshots.
//
// Snapshots outside the day's window are ignored, then only the latest
// snapshot per homeserver is kept, then snapshots that do not qualify are
// dropped. Each metric is summed over what remains; a metric with no
// non-null contribution stays nil so that "no data" differs from zero.
func Summarize(day int64, snaps []Snapshot) DailyAggregate {
	w := WindowFor(day)

	inWindow := make([]Snapshot, 0, len(snaps))
	for _, s := range snaps {
		if w.Contains(s.LocalTimestamp) {
			inWindow = append(inWindow, s)
		}
	}

	agg := DailyAggregate{
		Day:  day,
		Sums: make([]*int64, len(telemetry.MetricColumns)),
	}

	for _, s := range LatestPerHomeserver(inWindow) {
		if !s.Qualifies() {
			continue
		}
		agg.ActiveHomeservers++

		for i := range agg.Sums {
			v := s.Metric(i)
			if v == nil {
				continue
			}
			if agg.Sums[i] == nil {
				agg.Sums[i] = new(int64)
			}
			*agg.Sums[i] += *v
		}
	}

	return agg
}
