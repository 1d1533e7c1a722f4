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

const latestDaySQL = `SELECT MAX(day) FROM ` + telemetry.AggregateTable

func insertAggregateSQL(d Dialect) string {
	cols := append([]string{"day"}, aggregateColumns()...)
	marks := make([]string, len(cols))
	for i := range cols {
		marks[i] = d.Placeholder(i + 1)
	}
	return `INSERT INTO ` + telemetry.AggregateTable + ` (
    ` + strings.Join(cols, ", ") + `
) VALUES (` + strings.Join(marks, ", ") + `)`
}

type AggregateRepository struct {
	db      DB
	dialect Dialect
}

func NewAggregateRepository(db DB, dialect Dialect) *AggregateRepository {
	return &AggregateRepository{db: db, dialect: dialect}
}

var _ ports.AggregateStorePort = (*AggregateRepository)(nil)

func (r *AggregateRepository) LatestDay(ctx context.Context) (int64, bool, error) {
	rows, err := r.db.QueryContext(ctx, latestDaySQL)
	if err != nil {
		return 0, false, err
	}
	defer rows.Close()

	var day sql.NullInt64
	if rows.Next() {
		if err := rows.Scan(&day); err != nil {
			return 0, false, err
		}
	}
	if err := rows.Err(); err != nil {
		return 0, false, err
	}

	return day.Int64, day.Valid, nil
}

// InsertAggregate writes a in one statement. No ON CONFLICT clause: a
// second row for the same day must fail.
func (r *AggregateRepository) InsertAggregate(ctx context.Context, a *domain.DailyAggregate) error {
	args := make([]any, 0, len(telemetry.MetricColumns)+3)
	args = append(args, a.Day)
	for i := range telemetry.MetricColumns {
		var v sql.NullInt64
		if i < len(a.Sums) && a.Sums[i] != nil {
			v = sql.NullInt64{Int64: *a.Sums[i], Valid: true}
		}
		args = append(args, v)
	}
	args = append(args, a.ActiveHomeservers)

	var serverContext sql.NullString
	if a.ServerContext != nil {
		serverContext = sql.NullString{String: *a.ServerContext, Valid: true}
	}
	args = append(args, serverContext)

	if _, err := r.db.ExecContext(ctx, insertAggregateSQL(r.dialect), args...); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("day %s: %w", domain.FormatDay(a.Day), ports.ErrDayAlreadyAggregated)
		}
		return err
	}
	return nil
}
