package domain

import "time"

// JoinStep is one traversal hop in a join path. From and To are rendered
// table names; Rel may be traversed in either direction, so From is not
// necessarily Rel.Source.Table.
type JoinStep struct {
	From string       `json:"from"`
	To   string       `json:"to"`
	Rel  Relationship `json:"relationship"`
}

// JoinPath is an ordered chain of relationships connecting a start table to
// an end table. A zero-length path denotes start == end.
type JoinPath struct {
	From  string     `json:"from"`
	To    string     `json:"to"`
	Steps []JoinStep `json:"steps"`
}

// HopCount is the number of relationship traversals in the path.
func (p JoinPath) HopCount() int { return len(p.Steps) }

// RelatedTable pairs a table discovered by a neighborhood query with the hop
// distance and the path used to reach it.
type RelatedTable struct {
	Table string   `json:"table"`
	Hops  int      `json:"hops"`
	Path  JoinPath `json:"path"`
}

// PlanTable bundles a table with its registered columns for plan context.
type PlanTable struct {
	Table   Table    `json:"table"`
	Columns []Column `json:"columns"`
}

// SupportingTable is a non-primary plan table. JoinPath is nil when the table
// is unreachable from the primary within the hop bound; such tables stay in
// the plan as standalone context rather than failing it.
type SupportingTable struct {
	Table    Table     `json:"table"`
	Columns  []Column  `json:"columns"`
	JoinPath *JoinPath `json:"join_path,omitempty"`
}

// QueryPlan is the planner's structured output: everything a downstream SQL
// generator needs, with no SQL of its own. GeneratedSQL is filled in later by
// the text-generation collaborator when one is configured.
type QueryPlan struct {
	ID           string            `json:"id"`
	Request      string            `json:"request"`
	TargetLayer  Layer             `json:"target_layer"`
	SourceLayer  Layer             `json:"source_layer"`
	Primary      PlanTable         `json:"primary"`
	Supporting   []SupportingTable `json:"supporting,omitempty"`
	Terms        []BusinessTerm    `json:"terms,omitempty"`
	TargetTable  string            `json:"target_table"`
	GeneratedSQL string            `json:"generated_sql,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
}

// ScheduleSpec is a parsed recurring-run request.
type ScheduleSpec struct {
	Cron    string `json:"cron"`
	Summary string `json:"summary"`
}
