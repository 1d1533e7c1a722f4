package ports

import (
	"context"
	"errors"

	"panopticon-aggregator/internal/aggregation/core/domain"
)

var (
	// ErrDayAlreadyAggregated means a row for the day exists already. The
	// driver never attempts this on its own, so it signals a second writer
	// or a tampered store.
	ErrDayAlreadyAggregated = errors.New("day already aggregated")

	// ErrSchemaMismatch means the aggregate table exists with another layout.
	ErrSchemaMismatch = errors.New("aggregate table layout mismatch")
)

type AggregateStorePort interface {
	// LatestDay:
	//   ok = false, err = nil -> no aggregate rows yet
	//   ok = true,  err = nil -> day is the most recent aggregated day
	LatestDay(ctx context.Context) (day int64, ok bool, err error)

	// InsertAggregate persists a in a single atomic statement. It returns
	// ErrDayAlreadyAggregated (wrapped) when the day already has a row.
	InsertAggregate(ctx context.Context, a *domain.DailyAggregate) error
}

type SchemaManagerPort interface {
	EnsureSchema(ctx context.Context) error
}
