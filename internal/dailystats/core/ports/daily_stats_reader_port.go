package ports

import (
	"context"

	"panopticon-aggregator/internal/dailystats/core/domain"
)

type StatsFilter struct {
	From int64 // inclusive, unix second
	To   int64 // exclusive, unix second
}

type DailyStatsReaderPort interface {
	QueryRange(ctx context.Context, f StatsFilter) ([]domain.DailyStats, error)

	// GetDay returns nil, nil when the day has not been aggregated.
	GetDay(ctx context.Context, day int64) (*domain.DailyStats, error)

	// Latest returns nil, nil when nothing has been aggregated yet.
	Latest(ctx context.Context) (*domain.DailyStats, error)

	Ping(ctx context.Context) error
}
