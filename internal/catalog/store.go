// Package catalog owns the in-memory registries of tables, columns,
// relationships, and glossary terms, plus the heuristics and graph queries
// that operate on them. The Store is an explicitly owned handle passed into
// every component; there is no ambient global catalog.
package catalog

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"lakeagent/internal/domain"
)

// Store holds the catalog registries. Reads are guarded by an RWMutex so the
// HTTP read path is safe; bulk rebuilds (startup load, warehouse sync) build
// the replacement registries off to the side and publish them in one swap, so
// readers observe either the pre-rebuild or post-rebuild state in full.
//
// Iteration order over tables, relationships, and terms is registration
// order. That order is load-bearing: the auto-detector, graph tie-breaks, and
// first-match term resolution all depend on it being stable.
type Store struct {
	mu sync.RWMutex

	tableIdx  map[string]int // rendered name → index into tables
	tables    []domain.Table
	columns   map[string][]domain.Column // rendered table name → columns in declared order
	rels      []domain.Relationship
	relIdx    map[string]int // endpoint pair key → index into rels
	terms     []domain.BusinessTerm
	termIdx   map[string]int // lowercased term → index into terms
	persister domain.SnapshotStore
}

// NewStore creates an empty Store. persister may be nil, in which case
// mutations are not persisted (useful in tests); otherwise every successful
// mutation invokes its save hook.
func NewStore(persister domain.SnapshotStore) *Store {
	return &Store{
		tableIdx:  make(map[string]int),
		columns:   make(map[string][]domain.Column),
		relIdx:    make(map[string]int),
		termIdx:   make(map[string]int),
		persister: persister,
	}
}

// RegisterTable adds or overwrites a table and its columns. The composite
// name is the identity: re-registration with the same name overwrites
// attributes last-write-wins but keeps the original registration slot, so
// iteration order, and everything derived from it, is unaffected.
func (s *Store) RegisterTable(ctx context.Context, table domain.Table, columns []domain.Column) error {
	if table.Name.IsZero() {
		return domain.ErrValidation("table name is required")
	}
	if table.Layer != "" && !table.Layer.Valid() {
		return domain.ErrValidation("layer %q must be one of bronze, silver, gold", table.Layer)
	}
	if table.Layer == "" {
		table.Layer = domain.Layer(table.Name.Schema)
	}
	if table.Type == "" {
		table.Type = InferTableType(table.Name.Table)
	}
	if table.Domain == "" {
		table.Domain = InferDomain(table.Name.Table)
	}
	table.UpdatedAt = time.Now().UTC()

	for i := range columns {
		columns[i].Table = table.Name
		if columns[i].Role == "" {
			columns[i].Role = InferColumnRole(columns[i].Name, columns[i].DataType)
		}
		if columns[i].Sensitivity == "" {
			columns[i].Sensitivity = InferSensitivity(columns[i].Name)
		}
	}

	s.mu.Lock()
	key := table.Name.String()
	if i, ok := s.tableIdx[key]; ok {
		s.tables[i] = table
	} else {
		s.tableIdx[key] = len(s.tables)
		s.tables = append(s.tables, table)
	}
	if columns != nil {
		s.columns[key] = columns
	}
	s.mu.Unlock()

	return s.save(ctx)
}

// GetTable looks a table up by its rendered name.
func (s *Store) GetTable(name string) (domain.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i, ok := s.tableIdx[name]; ok {
		return s.tables[i], nil
	}
	return domain.Table{}, domain.ErrNotFound("table %q is not registered", name)
}

// Tables returns all registered tables in registration order.
func (s *Store) Tables() []domain.Table {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Table, len(s.tables))
	copy(out, s.tables)
	return out
}

// FindTables returns tables matching the filter, in registration order. All
// set filters are AND-combined; the text filter matches name, description,
// domain, or any tag as a case-insensitive substring.
func (s *Store) FindTables(filter domain.TableFilter) []domain.Table {
	s.mu.RLock()
	defer s.mu.RUnlock()

	text := strings.ToLower(filter.Text)
	var out []domain.Table
	for _, t := range s.tables {
		if filter.Layer != "" && t.Layer != filter.Layer {
			continue
		}
		if filter.Domain != "" && !strings.EqualFold(t.Domain, filter.Domain) {
			continue
		}
		if len(filter.Tags) > 0 && !hasAllTags(t.Tags, filter.Tags) {
			continue
		}
		if text != "" && !tableMatchesText(t, text) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func tableMatchesText(t domain.Table, lowered string) bool {
	if strings.Contains(strings.ToLower(t.Name.String()), lowered) {
		return true
	}
	if strings.Contains(strings.ToLower(t.Description), lowered) {
		return true
	}
	if strings.Contains(strings.ToLower(t.Domain), lowered) {
		return true
	}
	for _, tag := range t.Tags {
		if strings.Contains(strings.ToLower(tag), lowered) {
			return true
		}
	}
	return false
}

func hasAllTags(have, want []string) bool {
	for _, w := range want {
		found := false
		for _, h := range have {
			if strings.EqualFold(h, w) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// GetColumns returns the columns of a table in declared order. An unknown
// table yields an empty slice, not an error.
func (s *Store) GetColumns(tableName string) []domain.Column {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cols := s.columns[tableName]
	out := make([]domain.Column, len(cols))
	copy(out, cols)
	return out
}

// GetColumn looks up a single column by (table name, column name).
func (s *Store) GetColumn(tableName, columnName string) (domain.Column, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.columns[tableName] {
		if strings.EqualFold(c.Name, columnName) {
			return c, nil
		}
	}
	return domain.Column{}, domain.ErrNotFound("column %q not found on table %q", columnName, tableName)
}

// FindColumnsByRole returns every column with the given role, in table
// registration order then declared column order. schemaFilter, when
// non-empty, restricts results to tables in that schema.
func (s *Store) FindColumnsByRole(role domain.ColumnRole, schemaFilter string) []domain.Column {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Column
	for _, t := range s.tables {
		if schemaFilter != "" && !strings.EqualFold(t.Name.Schema, schemaFilter) {
			continue
		}
		for _, c := range s.columns[t.Name.String()] {
			if c.Role == role {
				out = append(out, c)
			}
		}
	}
	return out
}

// AddRelationship registers an edge. Both endpoints are dangling name
// references: they are not resolved against the table registry, so an edge
// may legitimately point at a table registered later (or never). An edge with
// the same endpoints as an existing one overwrites it in place,
// last-write-wins, keeping its slot in iteration order.
func (s *Store) AddRelationship(ctx context.Context, rel domain.Relationship) error {
	if rel.Source.Table == "" || rel.Source.Column == "" || rel.Target.Table == "" || rel.Target.Column == "" {
		return domain.ErrValidation("relationship endpoints are required")
	}
	if rel.Cardinality == "" {
		rel.Cardinality = domain.CardinalityManyToOne
	}
	if !rel.Cardinality.Valid() {
		return domain.ErrValidation("cardinality %q is not a known cardinality", rel.Cardinality)
	}

	s.mu.Lock()
	key := rel.Source.String() + "->" + rel.Target.String()
	if i, ok := s.relIdx[key]; ok {
		s.rels[i] = rel
	} else {
		s.relIdx[key] = len(s.rels)
		s.rels = append(s.rels, rel)
	}
	s.mu.Unlock()

	return s.save(ctx)
}

// Relationships returns all edges in registration order.
func (s *Store) Relationships() []domain.Relationship {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Relationship, len(s.rels))
	copy(out, s.rels)
	return out
}

// RelationshipsFor returns every edge that touches the table on either end,
// in registration order.
func (s *Store) RelationshipsFor(tableName string) []domain.Relationship {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Relationship
	for _, r := range s.rels {
		if r.Source.Table == tableName || r.Target.Table == tableName {
			out = append(out, r)
		}
	}
	return out
}

// Stats summarizes registry sizes for health and UI surfaces.
type Stats struct {
	Tables        int `json:"tables"`
	Columns       int `json:"columns"`
	Relationships int `json:"relationships"`
	Terms         int `json:"terms"`
}

// Stats returns current registry sizes.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cols := 0
	for _, c := range s.columns {
		cols += len(c)
	}
	return Stats{
		Tables:        len(s.tables),
		Columns:       cols,
		Relationships: len(s.rels),
		Terms:         len(s.terms),
	}
}

// Export copies the full catalog contents out as a Snapshot.
func (s *Store) Export() *domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.exportLocked()
}

func (s *Store) exportLocked() *domain.Snapshot {
	snap := &domain.Snapshot{
		Tables:        make([]domain.Table, len(s.tables)),
		Relationships: make([]domain.Relationship, len(s.rels)),
		Terms:         make([]domain.BusinessTerm, len(s.terms)),
	}
	copy(snap.Tables, s.tables)
	copy(snap.Relationships, s.rels)
	copy(snap.Terms, s.terms)
	for _, t := range s.tables {
		snap.Columns = append(snap.Columns, s.columns[t.Name.String()]...)
	}
	return snap
}

// Import replaces the entire catalog with the snapshot contents in one swap.
// It is used for the startup load and does not invoke the save hook; the
// data just came from the persistence collaborator.
func (s *Store) Import(snap *domain.Snapshot) {
	tableIdx, tables, columns, relIdx, rels, termIdx, terms := buildRegistries(snap)

	s.mu.Lock()
	s.tableIdx, s.tables = tableIdx, tables
	s.columns = columns
	s.relIdx, s.rels = relIdx, rels
	s.termIdx, s.terms = termIdx, terms
	s.mu.Unlock()
}

// Replace swaps the catalog for the snapshot contents and persists the
// result. Warehouse sync uses it to publish a fully built rebuild atomically.
func (s *Store) Replace(ctx context.Context, snap *domain.Snapshot) error {
	s.Import(snap)
	return s.save(ctx)
}

// buildRegistries constructs fresh registry structures from a snapshot,
// entirely off to the side of any live state.
func buildRegistries(snap *domain.Snapshot) (
	map[string]int, []domain.Table,
	map[string][]domain.Column,
	map[string]int, []domain.Relationship,
	map[string]int, []domain.BusinessTerm,
) {
	tableIdx := make(map[string]int, len(snap.Tables))
	tables := make([]domain.Table, 0, len(snap.Tables))
	for _, t := range snap.Tables {
		key := t.Name.String()
		if i, ok := tableIdx[key]; ok {
			tables[i] = t
			continue
		}
		tableIdx[key] = len(tables)
		tables = append(tables, t)
	}

	columns := make(map[string][]domain.Column, len(snap.Tables))
	for _, c := range snap.Columns {
		key := c.Table.String()
		columns[key] = append(columns[key], c)
	}

	relIdx := make(map[string]int, len(snap.Relationships))
	rels := make([]domain.Relationship, 0, len(snap.Relationships))
	for _, r := range snap.Relationships {
		key := r.Source.String() + "->" + r.Target.String()
		if i, ok := relIdx[key]; ok {
			rels[i] = r
			continue
		}
		relIdx[key] = len(rels)
		rels = append(rels, r)
	}

	termIdx := make(map[string]int, len(snap.Terms))
	terms := make([]domain.BusinessTerm, 0, len(snap.Terms))
	for _, t := range snap.Terms {
		key := strings.ToLower(t.Term)
		if i, ok := termIdx[key]; ok {
			terms[i] = t
			continue
		}
		termIdx[key] = len(terms)
		terms = append(terms, t)
	}

	return tableIdx, tables, columns, relIdx, rels, termIdx, terms
}

// save invokes the persistence collaborator's save hook with the current
// contents. The mutation that triggered it has already been applied.
func (s *Store) save(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}
	snap := s.Export()
	if err := s.persister.Save(ctx, snap); err != nil {
		return fmt.Errorf("save catalog: %w", err)
	}
	return nil
}
