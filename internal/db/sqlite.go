// Package db provides database connectivity helpers and migration support.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"
)

// poolMode selects write-safety and sizing for a SQLite pool.
type poolMode string

const (
	modeWrite poolMode = "write"
	modeRead  poolMode = "read"
)

const (
	busyTimeoutMS   = "5000"
	pingTimeout     = 5 * time.Second
	defaultReadConn = 4
)

// OpenSQLite opens a *sql.DB pool for the given SQLite file path.
//
// Write pools are pinned to a single connection with _txlock=immediate so
// writers queue instead of failing on SQLITE_BUSY; read pools fan out to
// maxOpen connections (0 picks the default of 4). Both run in WAL mode with
// synchronous=NORMAL, busy_timeout=5000ms, and foreign keys enforced.
func OpenSQLite(path string, mode string, maxOpen int) (*sql.DB, error) {
	pm := poolMode(mode)
	if pm != modeRead && pm != modeWrite {
		return nil, fmt.Errorf("invalid SQLite mode %q: must be \"read\" or \"write\"", mode)
	}

	pool, err := sql.Open("sqlite3", buildDSN(path, string(pm)))
	if err != nil {
		return nil, fmt.Errorf("open sqlite (%s): %w", pm, err)
	}

	if pm == modeWrite {
		pool.SetMaxOpenConns(1)
		pool.SetMaxIdleConns(1)
	} else {
		if maxOpen <= 0 {
			maxOpen = defaultReadConn
		}
		pool.SetMaxOpenConns(maxOpen)
		pool.SetMaxIdleConns(maxOpen)
	}
	pool.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := pool.PingContext(ctx); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("ping sqlite (%s): %w", pm, err)
	}

	return pool, nil
}

// OpenSQLitePair opens the write pool and read pool the catalog repositories
// expect: a single-connection writer and a wider reader over the same file.
func OpenSQLitePair(path string, readMaxOpen int) (writeDB, readDB *sql.DB, err error) {
	writeDB, err = OpenSQLite(path, string(modeWrite), 0)
	if err != nil {
		return nil, nil, err
	}

	readDB, err = OpenSQLite(path, string(modeRead), readMaxOpen)
	if err != nil {
		_ = writeDB.Close()
		return nil, nil, err
	}

	return writeDB, readDB, nil
}

func buildDSN(path string, mode string) string {
	params := url.Values{}
	params.Set("_journal_mode", "WAL")
	params.Set("_busy_timeout", busyTimeoutMS)
	params.Set("_synchronous", "NORMAL")
	params.Set("_foreign_keys", "on")

	if mode == string(modeWrite) {
		params.Set("_txlock", "immediate")
	}

	return path + "?" + params.Encode()
}
