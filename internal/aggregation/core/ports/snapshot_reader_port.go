package ports

import (
	"context"

	"panopticon-aggregator/internal/aggregation/core/domain"
)

type SnapshotReaderPort interface {
	// ReadSnapshots returns the latest check-in of every homeserver whose
	// local_timestamp falls inside w, per source table. A homeserver may
	// appear once for each table it reports to; tables are returned in
	// configuration order.
	ReadSnapshots(ctx context.Context, w domain.Window) ([]domain.Snapshot, error)
}
