package warehouse

import (
	"context"
	"path/filepath"
	"testing"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestWarehouse(t *testing.T) *LocalWarehouse {
	t.Helper()
	w, err := OpenLocal(filepath.Join(t.TempDir(), "test.duckdb"), discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })
	return w
}

func TestOpenLocal_CreatesMedallionSchemas(t *testing.T) {
	w := openTestWarehouse(t)

	res, err := w.Execute(context.Background(),
		"SELECT schema_name FROM information_schema.schemata WHERE schema_name IN ('bronze', 'silver', 'gold') ORDER BY schema_name")
	require.NoError(t, err)
	require.Equal(t, 3, res.RowCount)
	assert.Equal(t, "bronze", res.Rows[0][0])
	assert.Equal(t, "gold", res.Rows[1][0])
	assert.Equal(t, "silver", res.Rows[2][0])
}

func TestLocalWarehouse_Execute(t *testing.T) {
	w := openTestWarehouse(t)
	ctx := context.Background()

	t.Run("ddl returns no rows", func(t *testing.T) {
		res, err := w.Execute(ctx, "CREATE TABLE bronze.raw_orders (id INTEGER, amount DOUBLE, region VARCHAR)")
		require.NoError(t, err)
		assert.Empty(t, res.Columns)
		assert.Empty(t, res.Rows)
	})

	t.Run("insert then select round-trips", func(t *testing.T) {
		_, err := w.Execute(ctx, "INSERT INTO bronze.raw_orders VALUES (1, 10.5, 'EMEA'), (2, 20.0, 'APAC')")
		require.NoError(t, err)

		res, err := w.Execute(ctx, "SELECT id, amount, region FROM bronze.raw_orders ORDER BY id")
		require.NoError(t, err)
		assert.Equal(t, []string{"id", "amount", "region"}, res.Columns)
		require.Equal(t, 2, res.RowCount)
		assert.EqualValues(t, 1, res.Rows[0][0])
		assert.EqualValues(t, 10.5, res.Rows[0][1])
		assert.Equal(t, "EMEA", res.Rows[0][2])
	})

	t.Run("null cells scan as nil", func(t *testing.T) {
		res, err := w.Execute(ctx, "SELECT NULL AS empty")
		require.NoError(t, err)
		require.Equal(t, 1, res.RowCount)
		assert.Nil(t, res.Rows[0][0])
	})

	t.Run("query error surfaces", func(t *testing.T) {
		_, err := w.Execute(ctx, "SELECT * FROM bronze.no_such_table")
		require.Error(t, err)
	})

	t.Run("statement error surfaces", func(t *testing.T) {
		_, err := w.Execute(ctx, "CREATE TABLE bronze.raw_orders (id INTEGER)")
		require.Error(t, err, "table already exists")
	})
}

func TestReturnsRows(t *testing.T) {
	cases := []struct {
		sql  string
		want bool
	}{
		{"SELECT 1", true},
		{"  select id from t", true},
		{"WITH x AS (SELECT 1) SELECT * FROM x", true},
		{"SHOW TABLES", true},
		{"DESCRIBE silver.orders", true},
		{"FROM silver.orders", true},
		{"SUMMARIZE silver.orders", true},
		{"CREATE TABLE t (id INTEGER)", false},
		{"INSERT INTO t VALUES (1)", false},
		{"DROP TABLE t", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, returnsRows(tc.sql), "sql: %s", tc.sql)
	}
}
