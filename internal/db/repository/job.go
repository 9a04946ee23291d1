package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"lakeagent/internal/domain"
)

// JobRepo persists scheduled transform jobs.
type JobRepo struct {
	writeDB *sql.DB
	readDB  *sql.DB
}

// NewJobRepo creates a JobRepo over the write/read pool pair.
func NewJobRepo(writeDB, readDB *sql.DB) *JobRepo {
	return &JobRepo{writeDB: writeDB, readDB: readDB}
}

const jobColumns = `id, name, cron, request, sql_text, enabled, last_run_at, last_status, last_error, created_at, updated_at`

// Create inserts a new job. A duplicate name maps to a ConflictError.
func (r *JobRepo) Create(ctx context.Context, job *domain.Job) error {
	if err := job.Validate(); err != nil {
		return err
	}
	now := time.Now().UTC()
	job.CreatedAt = now
	job.UpdatedAt = now
	_, err := r.writeDB.ExecContext(ctx, `
		INSERT INTO jobs (id, name, cron, request, sql_text, enabled, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID, job.Name, job.Cron, job.Request, job.SQLText, boolToInt(job.Enabled), now, now)
	if err != nil {
		return fmt.Errorf("create job: %w", mapDBError(err))
	}
	return nil
}

// Get looks a job up by id.
func (r *JobRepo) Get(ctx context.Context, id string) (*domain.Job, error) {
	row := r.readDB.QueryRowContext(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	return scanJob(row)
}

// List returns all jobs, newest first.
func (r *JobRepo) List(ctx context.Context) ([]domain.Job, error) {
	rows, err := r.readDB.QueryContext(ctx,
		`SELECT `+jobColumns+` FROM jobs ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var jobs []domain.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

// ListEnabled returns only enabled jobs, in creation order; the scheduler
// reload path.
func (r *JobRepo) ListEnabled(ctx context.Context) ([]domain.Job, error) {
	rows, err := r.readDB.QueryContext(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE enabled = 1 ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list enabled jobs: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var jobs []domain.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

// SetEnabled flips a job's enabled flag.
func (r *JobRepo) SetEnabled(ctx context.Context, id string, enabled bool) error {
	res, err := r.writeDB.ExecContext(ctx,
		`UPDATE jobs SET enabled = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		boolToInt(enabled), id)
	if err != nil {
		return fmt.Errorf("set job enabled: %w", mapDBError(err))
	}
	return requireRow(res, id)
}

// RecordRun stores the outcome of one execution.
func (r *JobRepo) RecordRun(ctx context.Context, id string, at time.Time, status, errMsg string) error {
	res, err := r.writeDB.ExecContext(ctx, `
		UPDATE jobs
		SET last_run_at = ?, last_status = ?, last_error = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		at.UTC(), status, errMsg, id)
	if err != nil {
		return fmt.Errorf("record job run: %w", mapDBError(err))
	}
	return requireRow(res, id)
}

// Delete removes a job.
func (r *JobRepo) Delete(ctx context.Context, id string) error {
	res, err := r.writeDB.ExecContext(ctx, `DELETE FROM jobs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete job: %w", mapDBError(err))
	}
	return requireRow(res, id)
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound("job %q not found", id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanJob(row rowScanner) (*domain.Job, error) {
	var job domain.Job
	var enabled int64
	var lastRunAt sql.NullTime
	err := row.Scan(&job.ID, &job.Name, &job.Cron, &job.Request, &job.SQLText,
		&enabled, &lastRunAt, &job.LastStatus, &job.LastError, &job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		return nil, mapDBError(err)
	}
	job.Enabled = enabled != 0
	if lastRunAt.Valid {
		t := lastRunAt.Time
		job.LastRunAt = &t
	}
	return &job, nil
}
