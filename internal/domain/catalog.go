package domain

import (
	"fmt"
	"strings"
	"time"
)

// DefaultCatalog is the warehouse catalog used when a table name omits the
// catalog part.
const DefaultCatalog = "main"

// Layer is a data-maturity tier assigned to a table.
type Layer string

const (
	LayerBronze Layer = "bronze"
	LayerSilver Layer = "silver"
	LayerGold   Layer = "gold"
)

// Valid reports whether l is one of the known layers.
func (l Layer) Valid() bool {
	switch l {
	case LayerBronze, LayerSilver, LayerGold:
		return true
	}
	return false
}

// Beneath returns the layer directly below l in the medallion hierarchy.
// Bronze has nothing beneath it.
func (l Layer) Beneath() (Layer, bool) {
	switch l {
	case LayerGold:
		return LayerSilver, true
	case LayerSilver:
		return LayerBronze, true
	}
	return "", false
}

// TableType is the structural classification of a table.
type TableType string

const (
	TableTypeFact      TableType = "fact"
	TableTypeDimension TableType = "dimension"
	TableTypeAggregate TableType = "aggregate"
	TableTypeSnapshot  TableType = "snapshot"
	TableTypeRaw       TableType = "raw"
)

// ColumnRole is the semantic role of a column.
type ColumnRole string

const (
	RolePrimaryKey ColumnRole = "primary_key"
	RoleForeignKey ColumnRole = "foreign_key"
	RoleMeasure    ColumnRole = "measure"
	RoleAttribute  ColumnRole = "attribute"
	RoleTimestamp  ColumnRole = "timestamp"
	RoleIdentifier ColumnRole = "identifier"
	RoleDerived    ColumnRole = "derived"
)

// Sensitivity classifies how a column's values may be exposed.
type Sensitivity string

const (
	SensitivityPublic       Sensitivity = "public"
	SensitivityInternal     Sensitivity = "internal"
	SensitivityConfidential Sensitivity = "confidential"
	SensitivityPII          Sensitivity = "pii"
)

// Cardinality tags a relationship edge.
type Cardinality string

const (
	CardinalityOneToOne   Cardinality = "ONE_TO_ONE"
	CardinalityOneToMany  Cardinality = "ONE_TO_MANY"
	CardinalityManyToOne  Cardinality = "MANY_TO_ONE"
	CardinalityManyToMany Cardinality = "MANY_TO_MANY"
)

// Valid reports whether c is a known cardinality tag.
func (c Cardinality) Valid() bool {
	switch c {
	case CardinalityOneToOne, CardinalityOneToMany, CardinalityManyToOne, CardinalityManyToMany:
		return true
	}
	return false
}

// TableName is the three-part identity of a table: catalog, schema (the
// medallion layer), and table. It is globally unique and forms the lookup key
// everywhere else; it never changes after registration.
type TableName struct {
	Catalog string `json:"catalog"`
	Schema  string `json:"schema"`
	Table   string `json:"table"`
}

// String renders the fully qualified catalog.schema.table form.
func (n TableName) String() string {
	return n.Catalog + "." + n.Schema + "." + n.Table
}

// Qualified renders the schema.table form used in warehouse statements.
func (n TableName) Qualified() string {
	return n.Schema + "." + n.Table
}

// IsZero reports whether the name is empty.
func (n TableName) IsZero() bool {
	return n.Catalog == "" && n.Schema == "" && n.Table == ""
}

// ParseTableName parses "catalog.schema.table" or "schema.table"; the
// one-part form is rejected because the schema carries the layer.
func ParseTableName(s string) (TableName, error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	switch len(parts) {
	case 3:
		return TableName{Catalog: parts[0], Schema: parts[1], Table: parts[2]}, nil
	case 2:
		return TableName{Catalog: DefaultCatalog, Schema: parts[0], Table: parts[1]}, nil
	}
	return TableName{}, ErrValidation("table name %q must be schema.table or catalog.schema.table", s)
}

// Table is a registered warehouse table. Attributes are overwritten in place
// by re-registration (last-write-wins); the name is the stable identity.
type Table struct {
	Name        TableName `json:"name"`
	Layer       Layer     `json:"layer"`
	Type        TableType `json:"type"`
	Domain      string    `json:"domain"`
	Description string    `json:"description,omitempty"`
	PrimaryKeys []string  `json:"primary_keys,omitempty"`
	RowCount    int64     `json:"row_count,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	UpdatedAt   time.Time `json:"updated_at,omitempty"`
}

// ColumnStats holds optional profiling statistics for a column.
type ColumnStats struct {
	DistinctCount int64    `json:"distinct_count,omitempty"`
	NullRatio     float64  `json:"null_ratio,omitempty"`
	SampleValues  []string `json:"sample_values,omitempty"`
}

// Column belongs to exactly one table; (owning table name, column name) is
// its identity.
type Column struct {
	Table       TableName         `json:"table"`
	Name        string            `json:"name"`
	DataType    string            `json:"data_type"`
	Nullable    bool              `json:"nullable"`
	Role        ColumnRole        `json:"role"`
	Sensitivity Sensitivity       `json:"sensitivity,omitempty"`
	FKTarget    string            `json:"fk_target,omitempty"` // "table.column"
	CodedValues map[string]string `json:"coded_values,omitempty"`
	Stats       *ColumnStats      `json:"stats,omitempty"`
	Comment     string            `json:"comment,omitempty"`
}

// ColumnRef names one end of a relationship. Table is a rendered table name,
// deliberately a dangling reference: it may point at a table not yet, or no
// longer, registered, and consumers must treat resolution as fallible.
type ColumnRef struct {
	Table  string `json:"table"`
	Column string `json:"column"`
}

func (r ColumnRef) String() string {
	return r.Table + "." + r.Column
}

// Relationship is a directed edge between two columns. Source/target are
// labeled directionally but the edge is undirected for traversal: both ends
// can be the traversal origin.
type Relationship struct {
	Source      ColumnRef   `json:"source"`
	Target      ColumnRef   `json:"target"`
	Cardinality Cardinality `json:"cardinality"`
	Enforced    bool        `json:"enforced"`  // true only if backed by a real constraint
	Validated   bool        `json:"validated"` // true only if runtime-checked
}

// JoinClause renders the ON condition for this relationship.
func (r Relationship) JoinClause() string {
	return fmt.Sprintf("%s = %s", r.Source, r.Target)
}

// TermKind classifies a glossary term.
type TermKind string

const (
	TermKindMetric     TermKind = "metric"
	TermKindDimension  TermKind = "dimension"
	TermKindFilter     TermKind = "filter"
	TermKindEntity     TermKind = "entity"
	TermKindTimePeriod TermKind = "time_period"
)

// BusinessTerm maps a controlled-vocabulary phrase to a concrete data
// expression and source columns. A term matches request text when the term
// phrase or any alias occurs as a case-insensitive substring of the text;
// not the reverse.
type BusinessTerm struct {
	Term       string   `json:"term"`
	Aliases    []string `json:"aliases,omitempty"`
	Kind       TermKind `json:"kind"`
	Expression string   `json:"expression"`
	Tables     []string `json:"tables,omitempty"`
	Columns    []string `json:"columns,omitempty"`
	Definition string   `json:"definition,omitempty"`
}

// Matches reports whether the term phrase or any alias occurs as a
// case-insensitive substring of text. Short aliases can false-positive inside
// unrelated words; that permissiveness is a documented precision/recall
// trade-off.
func (t BusinessTerm) Matches(text string) bool {
	lower := strings.ToLower(text)
	if t.Term != "" && strings.Contains(lower, strings.ToLower(t.Term)) {
		return true
	}
	for _, alias := range t.Aliases {
		if alias != "" && strings.Contains(lower, strings.ToLower(alias)) {
			return true
		}
	}
	return false
}

// TableFilter narrows FindTables results. All set fields are AND-combined;
// Text matches name, description, domain, or any tag as a case-insensitive
// substring.
type TableFilter struct {
	Text   string
	Layer  Layer
	Domain string
	Tags   []string
}

// Snapshot is the persistence collaborator's unit of exchange: the full
// catalog contents as plain values. The on-disk format is the collaborator's
// concern.
type Snapshot struct {
	Tables        []Table        `json:"tables"`
	Columns       []Column       `json:"columns"`
	Relationships []Relationship `json:"relationships"`
	Terms         []BusinessTerm `json:"terms"`
}

// RegisterTableRequest is the boundary input for registering a table.
type RegisterTableRequest struct {
	Name        string   `json:"name"`
	Layer       string   `json:"layer,omitempty"`
	Type        string   `json:"type,omitempty"`
	Domain      string   `json:"domain,omitempty"`
	Description string   `json:"description,omitempty"`
	PrimaryKeys []string `json:"primary_keys,omitempty"`
	RowCount    int64    `json:"row_count,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// Validate checks the request for structural problems.
func (r *RegisterTableRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrValidation("name is required")
	}
	if _, err := ParseTableName(r.Name); err != nil {
		return err
	}
	if r.Layer != "" && !Layer(r.Layer).Valid() {
		return ErrValidation("layer %q must be one of bronze, silver, gold", r.Layer)
	}
	return nil
}

// AddRelationshipRequest is the boundary input for registering an edge.
type AddRelationshipRequest struct {
	SourceTable  string `json:"source_table"`
	SourceColumn string `json:"source_column"`
	TargetTable  string `json:"target_table"`
	TargetColumn string `json:"target_column"`
	Cardinality  string `json:"cardinality,omitempty"`
	Enforced     bool   `json:"enforced,omitempty"`
	Validated    bool   `json:"validated,omitempty"`
}

// Validate checks the request for structural problems.
func (r *AddRelationshipRequest) Validate() error {
	if r.SourceTable == "" || r.SourceColumn == "" {
		return ErrValidation("source_table and source_column are required")
	}
	if r.TargetTable == "" || r.TargetColumn == "" {
		return ErrValidation("target_table and target_column are required")
	}
	if r.Cardinality != "" && !Cardinality(r.Cardinality).Valid() {
		return ErrValidation("cardinality %q is not a known cardinality", r.Cardinality)
	}
	return nil
}

// AddTermRequest is the boundary input for registering a glossary term.
type AddTermRequest struct {
	Term       string   `json:"term"`
	Aliases    []string `json:"aliases,omitempty"`
	Kind       string   `json:"kind,omitempty"`
	Expression string   `json:"expression,omitempty"`
	Tables     []string `json:"tables,omitempty"`
	Columns    []string `json:"columns,omitempty"`
	Definition string   `json:"definition,omitempty"`
}

// Validate checks the request for structural problems.
func (r *AddTermRequest) Validate() error {
	if strings.TrimSpace(r.Term) == "" {
		return ErrValidation("term is required")
	}
	return nil
}
