package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	aggsql "panopticon-aggregator/internal/aggregation/adapters/sqlstore"
	"panopticon-aggregator/internal/dailystats/core/ports"
	"panopticon-aggregator/internal/telemetry"
)

const day = int64(1443657600)

// fakeRowScanner implements RowScanner for tests.
type fakeRowScanner struct {
	rows []fakeRow
	i    int
	err  error
}

type fakeRow struct {
	values []any
}

func (f *fakeRowScanner) Next() bool {
	return f.i < len(f.rows)
}

func (f *fakeRowScanner) Scan(dest ...any) error {
	if f.i >= len(f.rows) {
		return errors.New("no more rows")
	}
	row := f.rows[f.i]
	if len(dest) != len(row.values) {
		return errors.New("dest length mismatch")
	}
	for i := range dest {
		switch d := dest[i].(type) {
		case *int64:
			v, ok := row.values[i].(int64)
			if !ok {
				return errors.New("type assertion to int64 failed")
			}
			*d = v
		case *sql.NullInt64:
			if row.values[i] == nil {
				*d = sql.NullInt64{}
				continue
			}
			v, ok := row.values[i].(int64)
			if !ok {
				return errors.New("type assertion to int64 failed")
			}
			*d = sql.NullInt64{Int64: v, Valid: true}
		default:
			return errors.New("unsupported dest type")
		}
	}
	f.i++
	return nil
}

func (f *fakeRowScanner) Err() error {
	return f.err
}

func (f *fakeRowScanner) Close() error {
	return nil
}

// fakeDB implements DB interface.
type fakeDB struct {
	QueryFn   func(ctx context.Context, query string, args ...any) (RowScanner, error)
	PingErr   error
	lastQuery string
	lastArgs  []any
	called    bool
}

func (f *fakeDB) QueryContext(ctx context.Context, query string, args ...any) (RowScanner, error) {
	f.called = true
	f.lastQuery = query
	f.lastArgs = args
	if f.QueryFn != nil {
		return f.QueryFn(ctx, query, args...)
	}
	return &fakeRowScanner{}, nil
}

func (f *fakeDB) PingContext(ctx context.Context) error {
	return f.PingErr
}

// statsRow builds a scanned aggregate row with total_users set and every
// other metric null.
func statsRow(d, totalUsers, active int64) fakeRow {
	values := []any{d}
	for i := range telemetry.MetricColumns {
		if i == telemetry.PrimaryMetric {
			values = append(values, totalUsers)
		} else {
			values = append(values, nil)
		}
	}
	values = append(values, active)
	return fakeRow{values: values}
}

// ------------------------------------------------------------
// RANGE
// ------------------------------------------------------------

func TestDailyStatsRepository_QueryRange(t *testing.T) {
	db := &fakeDB{
		QueryFn: func(ctx context.Context, query string, args ...any) (RowScanner, error) {
			if !strings.Contains(query, "FROM aggregate_stats") {
				t.Fatalf("unexpected query: %s", query)
			}
			if !strings.Contains(query, "day >= $1 AND day < $2") {
				t.Fatalf("expected half-open range in query, got: %s", query)
			}
			return &fakeRowScanner{rows: []fakeRow{
				statsRow(day, 4, 2),
				statsRow(day+86400, 6, 3),
			}}, nil
		},
	}

	repo := NewDailyStatsRepository(db, aggsql.Postgres)

	res, err := repo.QueryRange(context.Background(), ports.StatsFilter{From: day, To: day + 2*86400})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res) != 2 {
		t.Fatalf("expected 2 days, got %d", len(res))
	}
	if *res[1].Metrics[telemetry.PrimaryMetric] != 6 || res[1].ActiveHomeservers != 3 {
		t.Fatalf("unexpected second row: %+v", res[1])
	}
	if res[0].Metrics[1] != nil {
		t.Fatalf("expected null metric to stay nil")
	}
	if db.lastArgs[0] != day || db.lastArgs[1] != day+2*86400 {
		t.Fatalf("unexpected args: %v", db.lastArgs)
	}
}

func TestDailyStatsRepository_SQLitePlaceholders(t *testing.T) {
	db := &fakeDB{}
	repo := NewDailyStatsRepository(db, aggsql.SQLite)

	if _, err := repo.QueryRange(context.Background(), ports.StatsFilter{From: day, To: day + 86400}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(db.lastQuery, "day >= ? AND day < ?") {
		t.Fatalf("expected ? placeholders, got: %s", db.lastQuery)
	}
}

// ------------------------------------------------------------
// SINGLE DAY / LATEST
// ------------------------------------------------------------

func TestDailyStatsRepository_GetDay_NotFound(t *testing.T) {
	repo := NewDailyStatsRepository(&fakeDB{}, aggsql.Postgres)

	res, err := repo.GetDay(context.Background(), day)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res != nil {
		t.Fatalf("expected nil for missing day, got %+v", res)
	}
}

func TestDailyStatsRepository_Latest(t *testing.T) {
	db := &fakeDB{
		QueryFn: func(ctx context.Context, query string, args ...any) (RowScanner, error) {
			if !strings.Contains(query, "ORDER BY day DESC") || !strings.Contains(query, "LIMIT 1") {
				t.Fatalf("unexpected query: %s", query)
			}
			return &fakeRowScanner{rows: []fakeRow{statsRow(day, 1, 1)}}, nil
		},
	}

	res, err := NewDailyStatsRepository(db, aggsql.Postgres).Latest(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res == nil || res.Day != day {
		t.Fatalf("unexpected result: %+v", res)
	}
}

// ------------------------------------------------------------
// DB ERROR
// ------------------------------------------------------------

func TestDailyStatsRepository_DBError(t *testing.T) {
	db := &fakeDB{
		QueryFn: func(ctx context.Context, query string, args ...any) (RowScanner, error) {
			return nil, errors.New("db failure")
		},
	}

	res, err := NewDailyStatsRepository(db, aggsql.Postgres).GetDay(context.Background(), day)
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
	if err.Error() != "db failure" {
		t.Fatalf("expected db failure, got %v", err)
	}
	if res != nil {
		t.Fatalf("expected nil result on error")
	}
}

func TestDailyStatsRepository_RowsError(t *testing.T) {
	db := &fakeDB{
		QueryFn: func(ctx context.Context, query string, args ...any) (RowScanner, error) {
			return &fakeRowScanner{err: errors.New("stream broken")}, nil
		},
	}

	if _, err := NewDailyStatsRepository(db, aggsql.Postgres).QueryRange(
		context.Background(), ports.StatsFilter{From: day, To: day + 86400},
	); err == nil {
		t.Fatalf("expected error, got nil")
	}
}

func TestDailyStatsRepository_Ping(t *testing.T) {
	repo := NewDailyStatsRepository(&fakeDB{PingErr: errors.New("down")}, aggsql.Postgres)

	if err := repo.Ping(context.Background()); err == nil {
		t.Fatalf("expected ping error")
	}
}
