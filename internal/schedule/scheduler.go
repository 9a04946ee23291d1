// Package schedule runs stored jobs on their cron expressions.
package schedule

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"lakeagent/internal/domain"
)

// JobSource lists the jobs to schedule and records run outcomes.
type JobSource interface {
	ListEnabled(ctx context.Context) ([]domain.Job, error)
	RecordRun(ctx context.Context, id string, at time.Time, status, errMsg string) error
}

// RunFunc executes one job on its cron tick.
type RunFunc func(ctx context.Context, job domain.Job) error

const (
	runStatusSucceeded = "succeeded"
	runStatusFailed    = "failed"
)

// Scheduler manages cron-based job execution. A failing job is recorded and
// logged; it never stops the scheduler or other jobs.
type Scheduler struct {
	cron    *cron.Cron
	jobs    JobSource
	run     RunFunc
	logger  *slog.Logger
	mu      sync.Mutex
	entries map[string]cron.EntryID // job ID → cron entry
}

// NewScheduler creates a job scheduler. run is invoked on every tick.
func NewScheduler(jobs JobSource, run RunFunc, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		jobs:    jobs,
		run:     run,
		logger:  logger,
		entries: make(map[string]cron.EntryID),
	}
}

// Start loads all enabled jobs and starts the cron scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadJobs(ctx); err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("job scheduler started", "jobs", len(s.entries))
	return nil
}

// Stop stops the cron scheduler and waits for in-flight runs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("job scheduler stopped")
}

// Reload clears all cron entries and reloads enabled jobs from the source.
// Jobs disabled since the last load drop out; new and changed ones are
// re-registered.
func (s *Scheduler) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, entryID := range s.entries {
		s.cron.Remove(entryID)
	}
	s.entries = make(map[string]cron.EntryID)

	return s.loadJobs(ctx)
}

// Add registers one job, replacing any existing entry with the same ID. It
// returns an error when the cron expression does not parse.
func (s *Scheduler) Add(job domain.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.add(job)
}

// Remove drops a job's cron entry. Unknown ids are a no-op.
func (s *Scheduler) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entryID, ok := s.entries[id]; ok {
		s.cron.Remove(entryID)
		delete(s.entries, id)
	}
}

// Len reports the number of registered cron entries.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// loadJobs queries enabled jobs and adds them to cron. A job with an invalid
// cron expression is skipped with a warning; it must not block the rest.
// Callers hold s.mu.
func (s *Scheduler) loadJobs(ctx context.Context) error {
	jobs, err := s.jobs.ListEnabled(ctx)
	if err != nil {
		return err
	}

	for _, job := range jobs {
		if err := s.add(job); err != nil {
			s.logger.Warn("invalid cron expression, job skipped",
				"job", job.Name,
				"cron", job.Cron,
				"error", err,
			)
		}
	}
	return nil
}

// add registers one job's cron entry. Callers hold s.mu.
func (s *Scheduler) add(job domain.Job) error {
	entryID, err := s.cron.AddFunc(job.Cron, func() {
		s.execute(job)
	})
	if err != nil {
		return err
	}

	if old, ok := s.entries[job.ID]; ok {
		s.cron.Remove(old)
	}
	s.entries[job.ID] = entryID
	s.logger.Info("scheduled job", "job", job.Name, "cron", job.Cron)
	return nil
}

// execute runs one job and records the outcome. Cron ticks have no caller
// context, so runs start from a background one.
func (s *Scheduler) execute(job domain.Job) {
	ctx := context.Background()

	status, errMsg := runStatusSucceeded, ""
	if err := s.run(ctx, job); err != nil {
		status, errMsg = runStatusFailed, err.Error()
		s.logger.Warn("scheduled job failed",
			"job", job.Name,
			"error", err,
		)
	} else {
		s.logger.Info("scheduled job succeeded", "job", job.Name)
	}

	if err := s.jobs.RecordRun(ctx, job.ID, time.Now().UTC(), status, errMsg); err != nil {
		s.logger.Warn("recording job run failed", "job", job.Name, "error", err)
	}
}
