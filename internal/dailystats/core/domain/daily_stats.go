package domain

// DailyStats is one persisted aggregate row as seen by analytics readers.
type DailyStats struct {
	Day               int64    // UTC midnight, unix seconds
	Metrics           []*int64 // aligned with telemetry.MetricColumns; nil = no data
	ActiveHomeservers int64
}
