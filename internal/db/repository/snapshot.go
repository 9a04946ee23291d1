package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"lakeagent/internal/domain"
)

// Snapshot payload kinds; one row per kind in catalog_snapshot.
const (
	kindTables        = "tables"
	kindColumns       = "columns"
	kindRelationships = "relationships"
	kindTerms         = "terms"
)

// SnapshotRepo persists the full catalog contents as one JSON payload per
// registry kind. It implements domain.SnapshotStore: Load at startup, Save
// after every catalog mutation.
type SnapshotRepo struct {
	writeDB *sql.DB
	readDB  *sql.DB
}

var _ domain.SnapshotStore = (*SnapshotRepo)(nil)

// NewSnapshotRepo creates a SnapshotRepo over the write/read pool pair.
func NewSnapshotRepo(writeDB, readDB *sql.DB) *SnapshotRepo {
	return &SnapshotRepo{writeDB: writeDB, readDB: readDB}
}

// Load reads the stored snapshot. A database with no snapshot rows yields an
// empty snapshot, not an error: first boot starts from nothing.
func (r *SnapshotRepo) Load(ctx context.Context) (*domain.Snapshot, error) {
	rows, err := r.readDB.QueryContext(ctx, `SELECT kind, payload FROM catalog_snapshot`)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	snap := &domain.Snapshot{}
	for rows.Next() {
		var kind, payload string
		if err := rows.Scan(&kind, &payload); err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}
		var dest interface{}
		switch kind {
		case kindTables:
			dest = &snap.Tables
		case kindColumns:
			dest = &snap.Columns
		case kindRelationships:
			dest = &snap.Relationships
		case kindTerms:
			dest = &snap.Terms
		default:
			continue
		}
		if err := json.Unmarshal([]byte(payload), dest); err != nil {
			return nil, fmt.Errorf("decode snapshot kind %q: %w", kind, err)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	return snap, nil
}

// Save writes all four registry kinds in a single transaction, so a reader
// never observes a half-saved catalog.
func (r *SnapshotRepo) Save(ctx context.Context, snap *domain.Snapshot) error {
	payloads := []struct {
		kind string
		data interface{}
	}{
		{kindTables, snap.Tables},
		{kindColumns, snap.Columns},
		{kindRelationships, snap.Relationships},
		{kindTerms, snap.Terms},
	}

	tx, err := r.writeDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot save: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, p := range payloads {
		raw, err := json.Marshal(p.data)
		if err != nil {
			return fmt.Errorf("encode snapshot kind %q: %w", p.kind, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO catalog_snapshot (kind, payload, updated_at)
			VALUES (?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT (kind) DO UPDATE SET
				payload    = excluded.payload,
				updated_at = CURRENT_TIMESTAMP`,
			p.kind, string(raw))
		if err != nil {
			return fmt.Errorf("save snapshot kind %q: %w", p.kind, mapDBError(err))
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot save: %w", err)
	}
	return nil
}
