package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"lakeagent/internal/domain"
)

// Compile-time check.
var _ domain.StatementExecutor = (*LocalWarehouse)(nil)

// LocalWarehouse executes statements against an embedded DuckDB database.
// It is the default warehouse when no Databricks credentials are configured,
// so the whole system can run on a laptop.
type LocalWarehouse struct {
	db     *sql.DB
	logger *slog.Logger
}

// OpenLocal opens (or creates) the DuckDB database at path and makes sure
// the medallion schemas exist. The caller must blank-import the duckdb
// driver. An empty path opens an in-memory database.
func OpenLocal(path string, logger *slog.Logger) (*LocalWarehouse, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping duckdb: %w", err)
	}
	for _, schema := range []string{"bronze", "silver", "gold"} {
		if _, err := db.Exec("CREATE SCHEMA IF NOT EXISTS " + schema); err != nil {
			db.Close()
			return nil, fmt.Errorf("create schema %s: %w", schema, err)
		}
	}
	return &LocalWarehouse{db: db, logger: logger}, nil
}

// DB exposes the underlying connection for callers that need raw access,
// such as the seeder.
func (w *LocalWarehouse) DB() *sql.DB {
	return w.db
}

// Close releases the database handle.
func (w *LocalWarehouse) Close() error {
	return w.db.Close()
}

// Execute runs a single SQL statement. Row-returning statements are read
// fully into memory; everything else reports the affected row count.
func (w *LocalWarehouse) Execute(ctx context.Context, sqlText string) (*domain.QueryResult, error) {
	if returnsRows(sqlText) {
		return w.query(ctx, sqlText)
	}

	res, err := w.db.ExecContext(ctx, sqlText)
	if err != nil {
		return nil, fmt.Errorf("execute statement: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		affected = 0
	}
	return &domain.QueryResult{
		Columns:  []string{},
		Rows:     [][]interface{}{},
		RowCount: int(affected),
	}, nil
}

func (w *LocalWarehouse) query(ctx context.Context, sqlText string) (*domain.QueryResult, error) {
	rows, err := w.db.QueryContext(ctx, sqlText)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	out := &domain.QueryResult{Columns: cols, Rows: [][]interface{}{}}
	for rows.Next() {
		vals := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		for i, v := range vals {
			if b, ok := v.([]byte); ok {
				vals[i] = string(b)
			}
		}
		out.Rows = append(out.Rows, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	out.RowCount = len(out.Rows)
	return out, nil
}

// rowReturningPrefixes covers statements that produce a result set,
// including DuckDB's FROM-first and SUMMARIZE forms.
var rowReturningPrefixes = []string{
	"SELECT", "WITH", "SHOW", "DESCRIBE", "EXPLAIN",
	"PRAGMA", "FROM", "SUMMARIZE", "VALUES", "CALL",
}

func returnsRows(sqlText string) bool {
	upper := strings.ToUpper(strings.TrimSpace(sqlText))
	for _, prefix := range rowReturningPrefixes {
		if strings.HasPrefix(upper, prefix) {
			return true
		}
	}
	return false
}
