package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"panopticon-aggregator/internal/aggregation/core/domain"
	"panopticon-aggregator/internal/aggregation/core/ports"
	"panopticon-aggregator/internal/telemetry"
)

// latestSnapshotsSQL picks the newest check-in of each homeserver inside a
// window. Equal timestamps fall back to insertion order (highest id).
func latestSnapshotsSQL(d Dialect, table string) string {
	metrics := strings.Join(telemetry.MetricColumns, ", ")
	return fmt.Sprintf(`
SELECT homeserver, local_timestamp, %[1]s
FROM (
    SELECT homeserver, local_timestamp, %[1]s,
        ROW_NUMBER() OVER (
            PARTITION BY homeserver
            ORDER BY local_timestamp DESC, id DESC
        ) AS rn
    FROM %[2]s
    WHERE homeserver IS NOT NULL
      AND local_timestamp >= %[3]s
      AND local_timestamp < %[4]s
) latest
WHERE rn = 1
ORDER BY homeserver`, metrics, table, d.Placeholder(1), d.Placeholder(2))
}

type SnapshotReader struct {
	db      DB
	dialect Dialect
	tables  []string
}

var _ ports.SnapshotReaderPort = (*SnapshotReader)(nil)

// NewSnapshotReader reads check-ins from the given source tables, in order.
func NewSnapshotReader(db DB, dialect Dialect, tables []string) (*SnapshotReader, error) {
	if len(tables) == 0 {
		return nil, fmt.Errorf("snapshot reader: no source tables")
	}
	for _, t := range tables {
		if !telemetry.ValidIdentifier(t) {
			return nil, fmt.Errorf("snapshot reader: invalid table name %q", t)
		}
	}
	return &SnapshotReader{db: db, dialect: dialect, tables: tables}, nil
}

func (r *SnapshotReader) ReadSnapshots(ctx context.Context, w domain.Window) ([]domain.Snapshot, error) {
	var out []domain.Snapshot
	for _, table := range r.tables {
		snaps, err := r.readTable(ctx, table, w)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", table, err)
		}
		out = append(out, snaps...)
	}
	return out, nil
}

func (r *SnapshotReader) readTable(ctx context.Context, table string, w domain.Window) ([]domain.Snapshot, error) {
	rows, err := r.db.QueryContext(ctx, latestSnapshotsSQL(r.dialect, table), w.Start, w.End)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snaps []domain.Snapshot
	for rows.Next() {
		var s domain.Snapshot
		values := make([]sql.NullInt64, len(telemetry.MetricColumns))

		dest := make([]any, 0, len(values)+2)
		dest = append(dest, &s.Homeserver, &s.LocalTimestamp)
		for i := range values {
			dest = append(dest, &values[i])
		}

		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}

		s.Metrics = make([]*int64, len(values))
		for i, v := range values {
			if v.Valid {
				n := v.Int64
				s.Metrics[i] = &n
			}
		}
		snaps = append(snaps, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return snaps, nil
}
