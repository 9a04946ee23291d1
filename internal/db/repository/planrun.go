package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"lakeagent/internal/domain"
)

// PlanRunRepo persists planning attempts and their execution outcomes.
type PlanRunRepo struct {
	writeDB *sql.DB
	readDB  *sql.DB
}

// NewPlanRunRepo creates a PlanRunRepo over the write/read pool pair.
func NewPlanRunRepo(writeDB, readDB *sql.DB) *PlanRunRepo {
	return &PlanRunRepo{writeDB: writeDB, readDB: readDB}
}

const planRunColumns = `id, request, plan_json, sql_text, status, error, rows, executed_at, created_at`

// Create inserts a new plan run in status "planned".
func (r *PlanRunRepo) Create(ctx context.Context, run *domain.PlanRun) error {
	if run.Status == "" {
		run.Status = domain.PlanStatusPlanned
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	_, err := r.writeDB.ExecContext(ctx, `
		INSERT INTO plan_runs (id, request, plan_json, sql_text, status, error, rows, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Request, run.PlanJSON, run.SQLText, string(run.Status), run.Error, run.Rows, run.CreatedAt)
	if err != nil {
		return fmt.Errorf("create plan run: %w", mapDBError(err))
	}
	return nil
}

// Get looks a plan run up by id.
func (r *PlanRunRepo) Get(ctx context.Context, id string) (*domain.PlanRun, error) {
	row := r.readDB.QueryRowContext(ctx,
		`SELECT `+planRunColumns+` FROM plan_runs WHERE id = ?`, id)
	return scanPlanRun(row)
}

// List returns the most recent plan runs, newest first.
func (r *PlanRunRepo) List(ctx context.Context, limit int) ([]domain.PlanRun, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.readDB.QueryContext(ctx,
		`SELECT `+planRunColumns+` FROM plan_runs ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list plan runs: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var runs []domain.PlanRun
	for rows.Next() {
		run, err := scanPlanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// SetSQL records the generated SQL for a planned run.
func (r *PlanRunRepo) SetSQL(ctx context.Context, id, sqlText string) error {
	res, err := r.writeDB.ExecContext(ctx,
		`UPDATE plan_runs SET sql_text = ? WHERE id = ?`, sqlText, id)
	if err != nil {
		return fmt.Errorf("set plan sql: %w", mapDBError(err))
	}
	return requirePlanRow(res, id)
}

// MarkExecuted transitions a run to executed with its row count.
func (r *PlanRunRepo) MarkExecuted(ctx context.Context, id string, rowCount int64) error {
	return r.finish(ctx, id, domain.PlanStatusExecuted, "", rowCount)
}

// MarkFailed transitions a run to failed with the error message.
func (r *PlanRunRepo) MarkFailed(ctx context.Context, id, errMsg string) error {
	return r.finish(ctx, id, domain.PlanStatusFailed, errMsg, 0)
}

// MarkCancelled transitions a run to cancelled.
func (r *PlanRunRepo) MarkCancelled(ctx context.Context, id string) error {
	return r.finish(ctx, id, domain.PlanStatusCancelled, "", 0)
}

func (r *PlanRunRepo) finish(ctx context.Context, id string, status domain.PlanRunStatus, errMsg string, rowCount int64) error {
	res, err := r.writeDB.ExecContext(ctx, `
		UPDATE plan_runs
		SET status = ?, error = ?, rows = ?, executed_at = ?
		WHERE id = ?`,
		string(status), errMsg, rowCount, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("finish plan run: %w", mapDBError(err))
	}
	return requirePlanRow(res, id)
}

func requirePlanRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound("plan run %q not found", id)
	}
	return nil
}

func scanPlanRun(row rowScanner) (*domain.PlanRun, error) {
	var run domain.PlanRun
	var status string
	var executedAt sql.NullTime
	err := row.Scan(&run.ID, &run.Request, &run.PlanJSON, &run.SQLText,
		&status, &run.Error, &run.Rows, &executedAt, &run.CreatedAt)
	if err != nil {
		return nil, mapDBError(err)
	}
	run.Status = domain.PlanRunStatus(status)
	if executedAt.Valid {
		t := executedAt.Time
		run.ExecutedAt = &t
	}
	return &run, nil
}
