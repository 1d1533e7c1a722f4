package domain

import (
	"sort"

	"panopticon-aggregator/internal/telemetry"
)

// Snapshot is the check-in chosen to represent one homeserver within a day.
// Metrics is aligned with telemetry.MetricColumns; nil means the homeserver
// did not report that counter.
type Snapshot struct {
	Homeserver     string
	LocalTimestamp int64
	Metrics        []*int64
}

// Metric returns the value at column index i, or nil when absent.
func (s Snapshot) Metric(i int) *int64 {
	if i < 0 || i >= len(s.Metrics) {
		return nil
	}
	return s.Metrics[i]
}

// Qualifies reports whether the snapshot counts towards a daily aggregate.
// Homeservers with no users are idle or standby installations.
func (s Snapshot) Qualifies() bool {
	v := s.Metric(telemetry.PrimaryMetric)
	return v != nil && *v != 0
}

// LatestPerHomeserver keeps, for each homeserver, the snapshot with the
// greatest LocalTimestamp. On a tie the snapshot seen first wins. The result
// is sorted by homeserver.
func LatestPerHomeserver(snaps []Snapshot) []Snapshot {
	latest := make(map[string]Snapshot, len(snaps))
	for _, s := range snaps {
		cur, ok := latest[s.Homeserver]
		if !ok || s.LocalTimestamp > cur.LocalTimestamp {
			latest[s.Homeserver] = s
		}
	}

	out := make([]Snapshot, 0, len(latest))
	for _, s := range latest {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Homeserver < out[j].Homeserver
	})
	return out
}
