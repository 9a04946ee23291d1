package warehouse

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"lakeagent/internal/domain"
)

// Dialect selects the metadata statements the schema reader issues.
type Dialect string

const (
	DialectDatabricks Dialect = "databricks"
	DialectDuckDB     Dialect = "duckdb"
)

// Compile-time check.
var _ domain.SchemaProvider = (*SchemaReader)(nil)

// SchemaReader discovers tables, columns, and row counts by running
// metadata statements through a StatementExecutor. It works against
// whichever warehouse backs the executor.
type SchemaReader struct {
	exec    domain.StatementExecutor
	dialect Dialect
	catalog string
}

// NewSchemaReader builds a reader for the given dialect. catalog is the
// warehouse catalog that qualifies table names on Databricks; DuckDB
// statements address schema.table directly.
func NewSchemaReader(exec domain.StatementExecutor, dialect Dialect, catalog string) *SchemaReader {
	if catalog == "" {
		catalog = domain.DefaultCatalog
	}
	return &SchemaReader{exec: exec, dialect: dialect, catalog: catalog}
}

// ListTables returns the table names in a schema, in warehouse order.
func (r *SchemaReader) ListTables(ctx context.Context, schema string) ([]string, error) {
	switch r.dialect {
	case DialectDatabricks:
		return r.listTablesDatabricks(ctx, schema)
	default:
		return r.listTablesDuckDB(ctx, schema)
	}
}

func (r *SchemaReader) listTablesDatabricks(ctx context.Context, schema string) ([]string, error) {
	res, err := r.exec.Execute(ctx, fmt.Sprintf("SHOW TABLES IN %s.%s", r.catalog, schema))
	if err != nil {
		return nil, err
	}

	// SHOW TABLES yields (database, tableName, isTemporary).
	idx := columnIndex(res.Columns, "tableName", "table_name", "name")
	if idx < 0 {
		if len(res.Columns) == 1 {
			idx = 0
		} else {
			return nil, fmt.Errorf("unexpected SHOW TABLES columns: %v", res.Columns)
		}
	}

	names := make([]string, 0, len(res.Rows))
	for _, row := range res.Rows {
		if idx >= len(row) {
			continue
		}
		if name := cellString(row[idx]); name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

func (r *SchemaReader) listTablesDuckDB(ctx context.Context, schema string) ([]string, error) {
	stmt := fmt.Sprintf(
		"SELECT table_name FROM information_schema.tables WHERE table_schema = '%s' ORDER BY table_name",
		escapeLiteral(schema),
	)
	res, err := r.exec.Execute(ctx, stmt)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(res.Rows))
	for _, row := range res.Rows {
		if len(row) == 0 {
			continue
		}
		if name := cellString(row[0]); name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

// DescribeTable returns the column layout of a table. Row counts are not
// part of DESCRIBE output; callers use CountRows for that.
func (r *SchemaReader) DescribeTable(ctx context.Context, name domain.TableName) (*domain.TableSchema, error) {
	var stmt string
	switch r.dialect {
	case DialectDatabricks:
		stmt = fmt.Sprintf("DESCRIBE TABLE %s.%s", r.catalog, name.Qualified())
	default:
		stmt = fmt.Sprintf(
			"SELECT column_name, data_type FROM information_schema.columns WHERE table_schema = '%s' AND table_name = '%s' ORDER BY ordinal_position",
			escapeLiteral(name.Schema), escapeLiteral(name.Table),
		)
	}

	res, err := r.exec.Execute(ctx, stmt)
	if err != nil {
		return nil, err
	}

	schema := &domain.TableSchema{Name: name}
	seen := map[string]bool{}
	for _, row := range res.Rows {
		if len(row) == 0 {
			continue
		}
		colName := cellString(row[0])
		// DESCRIBE TABLE appends a blank separator row and a `# Partition
		// Information` section that repeats the partition columns.
		if colName == "" || strings.HasPrefix(colName, "#") {
			continue
		}
		key := strings.ToLower(colName)
		if seen[key] {
			continue
		}
		seen[key] = true

		col := domain.SchemaColumn{Name: colName}
		if len(row) > 1 {
			col.DataType = cellString(row[1])
		}
		if len(row) > 2 {
			col.Comment = cellString(row[2])
		}
		schema.Columns = append(schema.Columns, col)
	}

	if len(schema.Columns) == 0 {
		return nil, fmt.Errorf("table %s has no columns", name.Qualified())
	}
	return schema, nil
}

// CountRows runs SELECT COUNT(*) against the table.
func (r *SchemaReader) CountRows(ctx context.Context, name domain.TableName) (int64, error) {
	target := name.Qualified()
	if r.dialect == DialectDatabricks {
		target = r.catalog + "." + target
	}

	res, err := r.exec.Execute(ctx, "SELECT COUNT(*) FROM "+target)
	if err != nil {
		return 0, err
	}
	if len(res.Rows) == 0 || len(res.Rows[0]) == 0 {
		return 0, fmt.Errorf("count rows in %s: empty result", target)
	}
	n, err := cellInt64(res.Rows[0][0])
	if err != nil {
		return 0, fmt.Errorf("count rows in %s: %w", target, err)
	}
	return n, nil
}

func columnIndex(cols []string, names ...string) int {
	for i, col := range cols {
		for _, name := range names {
			if strings.EqualFold(col, name) {
				return i
			}
		}
	}
	return -1
}

func cellString(v interface{}) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case []byte:
		return string(s)
	default:
		return fmt.Sprint(s)
	}
}

func cellInt64(v interface{}) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case uint64:
		return int64(n), nil
	case float64:
		return int64(n), nil
	case string:
		return strconv.ParseInt(n, 10, 64)
	case []byte:
		return strconv.ParseInt(string(n), 10, 64)
	default:
		return 0, fmt.Errorf("cannot read %T as integer", v)
	}
}

func escapeLiteral(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
