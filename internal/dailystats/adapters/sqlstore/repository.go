package sqlstore

import (
	"context"
	"database/sql"
	"strings"

	aggsql "panopticon-aggregator/internal/aggregation/adapters/sqlstore"
	"panopticon-aggregator/internal/dailystats/core/domain"
	"panopticon-aggregator/internal/dailystats/core/ports"
	"panopticon-aggregator/internal/telemetry"
)

type RowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

type DB interface {
	QueryContext(ctx context.Context, query string, args ...any) (RowScanner, error)
	PingContext(ctx context.Context) error
}

type DailyStatsRepository struct {
	db      DB
	dialect aggsql.Dialect
}

func NewDailyStatsRepository(db DB, dialect aggsql.Dialect) *DailyStatsRepository {
	return &DailyStatsRepository{db: db, dialect: dialect}
}

var _ ports.DailyStatsReaderPort = (*DailyStatsRepository)(nil)

var selectStatsSQL = `
SELECT
    day,
    ` + strings.Join(telemetry.MetricColumns, ",\n    ") + `,
    ` + telemetry.ActiveHomeserversColumn + `
FROM ` + telemetry.AggregateTable

func (r *DailyStatsRepository) QueryRange(ctx context.Context, f ports.StatsFilter) ([]domain.DailyStats, error) {
	query := selectStatsSQL + `
WHERE day >= ` + r.dialect.Placeholder(1) + ` AND day < ` + r.dialect.Placeholder(2) + `
ORDER BY day`

	return r.query(ctx, query, f.From, f.To)
}

func (r *DailyStatsRepository) GetDay(ctx context.Context, day int64) (*domain.DailyStats, error) {
	query := selectStatsSQL + `
WHERE day = ` + r.dialect.Placeholder(1)

	return r.queryOne(ctx, query, day)
}

func (r *DailyStatsRepository) Latest(ctx context.Context) (*domain.DailyStats, error) {
	query := selectStatsSQL + `
ORDER BY day DESC
LIMIT 1`

	return r.queryOne(ctx, query)
}

func (r *DailyStatsRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *DailyStatsRepository) queryOne(ctx context.Context, query string, args ...any) (*domain.DailyStats, error) {
	res, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if len(res) == 0 {
		return nil, nil
	}
	return &res[0], nil
}

func (r *DailyStatsRepository) query(ctx context.Context, query string, args ...any) ([]domain.DailyStats, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.DailyStats
	for rows.Next() {
		var (
			s      domain.DailyStats
			active sql.NullInt64
		)
		values := make([]sql.NullInt64, len(telemetry.MetricColumns))

		dest := make([]any, 0, len(values)+2)
		dest = append(dest, &s.Day)
		for i := range values {
			dest = append(dest, &values[i])
		}
		dest = append(dest, &active)

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
		s.ActiveHomeservers = active.Int64

		out = append(out, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return out, nil
}
