// Package telemetry describes the shape of homeserver check-in tables and of
// the daily aggregate table built from them.
package telemetry

import "regexp"

const (
	// AggregateTable holds one row per UTC day.
	AggregateTable = "aggregate_stats"

	// DefaultSourceTable is the table the ingestion endpoint writes to.
	DefaultSourceTable = "stats"

	// ActiveHomeserversColumn counts the homeservers that contributed to a day.
	ActiveHomeserversColumn = "daily_active_homeservers"
	ServerContextColumn     = "server_context"
)

// MetricColumns is the fixed set of counters summed per day. Order matters:
// snapshots and aggregates store their values positionally.
var MetricColumns = []string{
	"total_users",
	"total_nonbridged_users",
	"total_room_count",
	"daily_active_users",
	"daily_active_rooms",
	"daily_messages",
	"daily_sent_messages",
	"daily_active_e2ee_rooms",
	"daily_e2ee_messages",
	"daily_sent_e2ee_messages",
	"monthly_active_users",
	"r30_users_all",
	"r30_users_android",
	"r30_users_ios",
	"r30_users_electron",
	"r30_users_web",
	"r30v2_users_all",
	"r30v2_users_android",
	"r30v2_users_ios",
	"r30v2_users_electron",
	"r30v2_users_web",
	"daily_user_type_native",
	"daily_user_type_bridged",
	"daily_user_type_guest",
}

// PrimaryMetric is the index of total_users in MetricColumns. A snapshot
// only counts towards a day when this value is non-null and non-zero.
const PrimaryMetric = 0

// MetricIndex returns the position of name in MetricColumns, or -1.
func MetricIndex(name string) int {
	for i, c := range MetricColumns {
		if c == name {
			return i
		}
	}
	return -1
}

var identifierPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// ValidIdentifier reports whether name can be spliced into SQL as a table
// name without quoting.
func ValidIdentifier(name string) bool {
	return len(name) <= 63 && identifierPattern.MatchString(name)
}
