package domain

import "context"

// The catalog core has no wire protocol of its own; it talks to four
// collaborators through the ports below. Implementations live outside the
// core (internal/warehouse, internal/llm, internal/db/repository) and their
// outputs are validated at the boundary before entering the registries.

// QueryResult is a warehouse result set in row-major order.
type QueryResult struct {
	Columns  []string        `json:"columns"`
	Rows     [][]interface{} `json:"rows"`
	RowCount int             `json:"row_count"`
}

// StatementExecutor runs a SQL statement against the warehouse. The core
// never calls it; the agent and scheduler do, after planning.
type StatementExecutor interface {
	Execute(ctx context.Context, sqlText string) (*QueryResult, error)
}

// SchemaColumn is one column of a warehouse-reported table schema.
type SchemaColumn struct {
	Name     string `json:"name"`
	DataType string `json:"data_type"`
	Comment  string `json:"comment,omitempty"`
}

// TableSchema is the execution/profiling collaborator's description of one
// table, fed pull-style into catalog sync.
type TableSchema struct {
	Name     TableName      `json:"name"`
	Columns  []SchemaColumn `json:"columns"`
	RowCount int64          `json:"row_count,omitempty"`
}

// SchemaProvider supplies table schemas and optional row statistics per
// layer schema. Timeout policy belongs to the implementation, not the core.
type SchemaProvider interface {
	ListTables(ctx context.Context, schema string) ([]string, error)
	DescribeTable(ctx context.Context, name TableName) (*TableSchema, error)
	CountRows(ctx context.Context, name TableName) (int64, error)
}

// TextGenerator receives the plan context and produces executable SQL text;
// a capability the core deliberately does not implement.
type TextGenerator interface {
	GenerateSQL(ctx context.Context, plan *QueryPlan) (string, error)
}

// TableRanker narrows the candidate table list for a request. Its output is
// untrusted: every returned name is validated against the catalog before use,
// and unknown names are dropped.
type TableRanker interface {
	RankTables(ctx context.Context, request string, candidates []Table) ([]string, error)
}

// ScheduleParser turns a natural-language scheduling request into a cron
// expression.
type ScheduleParser interface {
	ParseSchedule(ctx context.Context, text string) (*ScheduleSpec, error)
}

// SnapshotStore is the persistence collaborator: Load at startup, Save after
// mutation. Format and location are its concern, not the core's.
type SnapshotStore interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, snap *Snapshot) error
}
