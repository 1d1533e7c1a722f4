package sqlstore

import (
	"context"
	"fmt"
	"strings"

	"panopticon-aggregator/internal/aggregation/core/ports"
	"panopticon-aggregator/internal/telemetry"
)

// aggregateColumns lists every column of the aggregate table after day.
func aggregateColumns() []string {
	cols := make([]string, 0, len(telemetry.MetricColumns)+2)
	cols = append(cols, telemetry.MetricColumns...)
	cols = append(cols, telemetry.ActiveHomeserversColumn, telemetry.ServerContextColumn)
	return cols
}

func createAggregateTableSQL() string {
	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS " + telemetry.AggregateTable + " (\n")
	b.WriteString("    day BIGINT NOT NULL PRIMARY KEY,\n")
	for _, c := range telemetry.MetricColumns {
		b.WriteString("    " + c + " BIGINT,\n")
	}
	b.WriteString("    " + telemetry.ActiveHomeserversColumn + " BIGINT,\n")
	b.WriteString("    " + telemetry.ServerContextColumn + " TEXT\n")
	b.WriteString(")")
	return b.String()
}

func verifyAggregateTableSQL() string {
	return "SELECT day, " + strings.Join(aggregateColumns(), ", ") +
		" FROM " + telemetry.AggregateTable + " WHERE 1 = 0"
}

type SchemaManager struct {
	db      DB
	dialect Dialect
}

func NewSchemaManager(db DB, dialect Dialect) *SchemaManager {
	return &SchemaManager{db: db, dialect: dialect}
}

var _ ports.SchemaManagerPort = (*SchemaManager)(nil)

// EnsureSchema creates the aggregate table when it is missing and checks
// that an existing one carries every expected column. The catalog lookup
// keeps the server from emitting "already exists" notices on every start.
func (m *SchemaManager) EnsureSchema(ctx context.Context) error {
	exists, err := m.tableExists(ctx, telemetry.AggregateTable)
	if err != nil {
		return fmt.Errorf("look up %s: %w", telemetry.AggregateTable, err)
	}

	if !exists {
		if _, err := m.db.ExecContext(ctx, createAggregateTableSQL()); err != nil {
			return fmt.Errorf("create %s: %w", telemetry.AggregateTable, err)
		}
	}

	rows, err := m.db.QueryContext(ctx, verifyAggregateTableSQL())
	if err != nil {
		return fmt.Errorf("%w: %v", ports.ErrSchemaMismatch, err)
	}
	return rows.Close()
}

func (m *SchemaManager) tableExists(ctx context.Context, name string) (bool, error) {
	rows, err := m.db.QueryContext(ctx, m.dialect.tableExistsSQL(), name)
	if err != nil {
		return false, err
	}
	defer rows.Close()

	var n int64
	if rows.Next() {
		if err := rows.Scan(&n); err != nil {
			return false, err
		}
	}
	if err := rows.Err(); err != nil {
		return false, err
	}
	return n > 0, nil
}
