package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"lakeagent/internal/domain"
)

const defaultSyncWorkers = 4

// Syncer pulls live schemas out of the warehouse and publishes them into the
// Store. A sync never deletes: tables that disappeared from the warehouse stay
// registered, relationships and glossary terms are carried over untouched, and
// manual annotations on surviving tables and columns win over re-inference.
type Syncer struct {
	store    *Store
	provider domain.SchemaProvider
	logger   *slog.Logger
	schemas  []string
	workers  int
}

// NewSyncer builds a Syncer over the default layer schemas, bronze through
// gold.
func NewSyncer(store *Store, provider domain.SchemaProvider, logger *slog.Logger) *Syncer {
	return &Syncer{
		store:    store,
		provider: provider,
		logger:   logger,
		schemas:  []string{string(domain.LayerBronze), string(domain.LayerSilver), string(domain.LayerGold)},
		workers:  defaultSyncWorkers,
	}
}

// SyncResult summarizes one sync pass.
type SyncResult struct {
	Tables   int      `json:"tables"`
	Columns  int      `json:"columns"`
	Schemas  []string `json:"schemas"`
	Skipped  []string `json:"skipped,omitempty"`
	Duration string   `json:"duration"`
}

type describedTable struct {
	schema   *domain.TableSchema
	rowCount int64
	err      error
}

// Sync lists every table in each layer schema, describes them with bounded
// parallelism, merges the results into the current catalog contents, and
// publishes the merged snapshot in a single swap. Tables that fail to describe
// are skipped with a warning; a schema listing failure aborts the whole sync
// and leaves the catalog unchanged.
func (y *Syncer) Sync(ctx context.Context) (*SyncResult, error) {
	start := time.Now()
	result := &SyncResult{Schemas: y.schemas}

	var described []describedTable
	var names []domain.TableName
	for _, schema := range y.schemas {
		listed, err := y.provider.ListTables(ctx, schema)
		if err != nil {
			return nil, fmt.Errorf("list tables in %s: %w", schema, err)
		}
		for _, t := range listed {
			names = append(names, domain.TableName{Catalog: domain.DefaultCatalog, Schema: schema, Table: t})
		}
	}

	described = make([]describedTable, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(y.workers)
	for i, name := range names {
		g.Go(func() error {
			schema, err := y.provider.DescribeTable(gctx, name)
			if err != nil {
				described[i] = describedTable{err: err}
				return nil
			}
			rows := schema.RowCount
			if rows == 0 {
				if counted, err := y.provider.CountRows(gctx, name); err != nil {
					y.logger.Warn("row count failed", "table", name.String(), "error", err)
				} else {
					rows = counted
				}
			}
			described[i] = describedTable{schema: schema, rowCount: rows}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	snap := y.store.Export()
	for i, d := range described {
		if d.err != nil {
			y.logger.Warn("describe failed, skipping table", "table", names[i].String(), "error", d.err)
			result.Skipped = append(result.Skipped, names[i].String())
			continue
		}
		mergeTable(snap, names[i], d)
		result.Tables++
		result.Columns += len(d.schema.Columns)
	}

	if err := y.store.Replace(ctx, snap); err != nil {
		return nil, err
	}

	result.Duration = time.Since(start).Round(time.Millisecond).String()
	y.logger.Info("catalog sync complete",
		"tables", result.Tables,
		"columns", result.Columns,
		"skipped", len(result.Skipped),
		"duration", result.Duration)
	return result, nil
}

// mergeTable upserts one described table into the snapshot. Existing entries
// keep their registration slot and any manual annotations; brand-new tables
// get inferred classifications.
func mergeTable(snap *domain.Snapshot, name domain.TableName, d describedTable) {
	key := name.String()

	var prev *domain.Table
	for i := range snap.Tables {
		if snap.Tables[i].Name.String() == key {
			prev = &snap.Tables[i]
			break
		}
	}

	table := domain.Table{
		Name:      name,
		Layer:     domain.Layer(name.Schema),
		Type:      InferTableType(name.Table),
		Domain:    InferDomain(name.Table),
		RowCount:  d.rowCount,
		UpdatedAt: time.Now().UTC(),
	}
	if prev != nil {
		if prev.Type != "" {
			table.Type = prev.Type
		}
		if prev.Domain != "" {
			table.Domain = prev.Domain
		}
		table.Description = prev.Description
		table.PrimaryKeys = prev.PrimaryKeys
		table.Tags = prev.Tags
		*prev = table
	} else {
		snap.Tables = append(snap.Tables, table)
	}

	prevCols := make(map[string]domain.Column)
	kept := snap.Columns[:0]
	for _, c := range snap.Columns {
		if c.Table.String() == key {
			prevCols[strings.ToLower(c.Name)] = c
			continue
		}
		kept = append(kept, c)
	}
	snap.Columns = kept

	for _, sc := range d.schema.Columns {
		col := domain.Column{
			Table:       name,
			Name:        sc.Name,
			DataType:    sc.DataType,
			Nullable:    true,
			Role:        InferColumnRole(sc.Name, sc.DataType),
			Sensitivity: InferSensitivity(sc.Name),
			Comment:     sc.Comment,
		}
		if old, ok := prevCols[strings.ToLower(sc.Name)]; ok {
			if old.Role != "" {
				col.Role = old.Role
			}
			if old.Sensitivity != "" {
				col.Sensitivity = old.Sensitivity
			}
			col.Nullable = old.Nullable
			col.FKTarget = old.FKTarget
			col.CodedValues = old.CodedValues
			col.Stats = old.Stats
			if col.Comment == "" {
				col.Comment = old.Comment
			}
		}
		snap.Columns = append(snap.Columns, col)
	}
}
