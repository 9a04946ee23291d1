package db

import (
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunMigrations_CreatesSchema(t *testing.T) {
	writeDB, readDB := OpenTestSQLite(t)
	_ = writeDB

	for _, table := range []string{"catalog_snapshot", "jobs", "conversation_messages", "plan_runs"} {
		var name string
		err := readDB.QueryRow(
			`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		require.NoError(t, err, "table %s should exist after migrations", table)
		assert.Equal(t, table, name)
	}
}

func TestRunMigrations_Idempotent(t *testing.T) {
	writeDB, _ := OpenTestSQLite(t)
	require.NoError(t, RunMigrations(writeDB), "re-running migrations is a no-op")
}
