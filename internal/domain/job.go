package domain

import "time"

// PlanRunStatus tracks a plan through its confirm/execute lifecycle.
type PlanRunStatus string

const (
	PlanStatusPlanned   PlanRunStatus = "planned"
	PlanStatusExecuted  PlanRunStatus = "executed"
	PlanStatusFailed    PlanRunStatus = "failed"
	PlanStatusCancelled PlanRunStatus = "cancelled"
)

// PlanRun is the persisted record of one planning attempt and its outcome.
type PlanRun struct {
	ID         string        `json:"id"`
	Request    string        `json:"request"`
	PlanJSON   string        `json:"plan_json"`
	SQLText    string        `json:"sql_text,omitempty"`
	Status     PlanRunStatus `json:"status"`
	Error      string        `json:"error,omitempty"`
	Rows       int64         `json:"rows,omitempty"`
	ExecutedAt *time.Time    `json:"executed_at,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
}

// Job is a scheduled transform: a cron expression plus the SQL to run. The
// request text is kept so the UI can show what the job was asked to do.
type Job struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Cron       string     `json:"cron"`
	Request    string     `json:"request"`
	SQLText    string     `json:"sql_text"`
	Enabled    bool       `json:"enabled"`
	LastRunAt  *time.Time `json:"last_run_at,omitempty"`
	LastStatus string     `json:"last_status,omitempty"`
	LastError  string     `json:"last_error,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Validate checks the job for structural problems. Cron syntax is validated
// by the scheduler on registration, not here.
func (j *Job) Validate() error {
	if j.Name == "" {
		return ErrValidation("job name is required")
	}
	if j.Cron == "" {
		return ErrValidation("cron expression is required")
	}
	if j.SQLText == "" && j.Request == "" {
		return ErrValidation("either sql_text or request is required")
	}
	return nil
}

// ConversationMessage is one turn of an agent chat session.
type ConversationMessage struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
