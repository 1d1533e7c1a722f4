package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	"panopticon-aggregator/internal/aggregation/adapters/sqlstore"
	"panopticon-aggregator/internal/aggregation/core/usecase"
	"panopticon-aggregator/internal/config"
)

// openDB opens and pings the configured store.
func openDB(ctx context.Context, cfg config.Database) (*sql.DB, sqlstore.Dialect, error) {
	dialect, err := sqlstore.ParseDialect(cfg.Driver)
	if err != nil {
		return nil, "", err
	}

	db, err := sql.Open(dialect.DriverName(), cfg.DataSourceName())
	if err != nil {
		return nil, "", fmt.Errorf("open %s: %w", dialect, err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, "", fmt.Errorf("ping %s: %w", dialect, err)
	}
	return db, dialect, nil
}

// aggregator bundles the wired aggregation components.
type aggregator struct {
	schema *sqlstore.SchemaManager
	driver *usecase.AggregationDriver
}

func newAggregator(db *sql.DB, dialect sqlstore.Dialect, cfg *config.Config, logger *slog.Logger) (*aggregator, error) {
	initialDay, err := cfg.Aggregation.InitialDayUnix()
	if err != nil {
		return nil, err
	}

	sqlDB := sqlstore.NewSQLDB(db)

	reader, err := sqlstore.NewSnapshotReader(sqlDB, dialect, cfg.Aggregation.SourceTables)
	if err != nil {
		return nil, err
	}
	store := sqlstore.NewAggregateRepository(sqlDB, dialect)

	driver, err := usecase.NewAggregationDriver(store, reader, initialDay, usecase.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	return &aggregator{
		schema: sqlstore.NewSchemaManager(sqlDB, dialect),
		driver: driver,
	}, nil
}

// runtime is everything a command needs once startup has succeeded.
type runtime struct {
	cfg     *config.Config
	logger  *slog.Logger
	db      *sql.DB
	dialect sqlstore.Dialect
	agg     *aggregator
}

func (r *runtime) Close() error {
	return r.db.Close()
}

// bootstrap loads config, opens the database and ensures the aggregate
// table exists with the expected layout.
func bootstrap(ctx context.Context, opts *RootOptions, cmd *cobra.Command) (*runtime, error) {
	cfg, logger, err := opts.load(cmd)
	if err != nil {
		return nil, err
	}

	db, dialect, err := openDB(ctx, cfg.Database)
	if err != nil {
		logger.Error("database unavailable", "driver", cfg.Database.Driver, "error", err)
		return nil, err
	}

	agg, err := newAggregator(db, dialect, cfg, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := agg.schema.EnsureSchema(ctx); err != nil {
		logger.Error("aggregate table not usable", "error", err)
		_ = db.Close()
		return nil, err
	}
	logger.Debug("aggregate table ready", "driver", string(dialect))

	return &runtime{cfg: cfg, logger: logger, db: db, dialect: dialect, agg: agg}, nil
}
