package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lakeagent/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

type recordedRun struct {
	id     string
	status string
	errMsg string
}

type mockJobSource struct {
	listFn   func(ctx context.Context) ([]domain.Job, error)
	recorded []recordedRun
}

func (m *mockJobSource) ListEnabled(ctx context.Context) ([]domain.Job, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockJobSource) RecordRun(_ context.Context, id string, _ time.Time, status, errMsg string) error {
	m.recorded = append(m.recorded, recordedRun{id: id, status: status, errMsg: errMsg})
	return nil
}

func noopRun(_ context.Context, _ domain.Job) error { return nil }

func TestScheduler_Start(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		jobs      []domain.Job
		sourceErr error
		wantErr   bool
		wantCount int
	}{
		{
			name: "loads enabled jobs",
			jobs: []domain.Job{
				{ID: "j1", Name: "daily-revenue", Cron: "0 6 * * *"},
			},
			wantCount: 1,
		},
		{
			name:      "no jobs succeeds",
			jobs:      []domain.Job{},
			wantCount: 0,
		},
		{
			name:      "source error propagates",
			sourceErr: fmt.Errorf("database is locked"),
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			source := &mockJobSource{
				listFn: func(_ context.Context) ([]domain.Job, error) {
					if tt.sourceErr != nil {
						return nil, tt.sourceErr
					}
					return tt.jobs, nil
				},
			}

			scheduler := NewScheduler(source, noopRun, discardLogger())
			t.Cleanup(scheduler.Stop)

			err := scheduler.Start(context.Background())
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantCount, scheduler.Len())
			}
		})
	}
}

func TestScheduler_Reload(t *testing.T) {
	t.Parallel()

	callCount := 0
	source := &mockJobSource{
		listFn: func(_ context.Context) ([]domain.Job, error) {
			callCount++
			if callCount == 1 {
				return []domain.Job{
					{ID: "j1", Name: "etl-a", Cron: "* * * * *"},
				}, nil
			}
			return []domain.Job{
				{ID: "j2", Name: "etl-b", Cron: "*/5 * * * *"},
				{ID: "j3", Name: "etl-c", Cron: "* * * * *"},
			}, nil
		},
	}

	scheduler := NewScheduler(source, noopRun, discardLogger())
	t.Cleanup(scheduler.Stop)

	require.NoError(t, scheduler.Start(context.Background()))
	assert.Len(t, scheduler.entries, 1)

	require.NoError(t, scheduler.Reload(context.Background()))
	assert.Len(t, scheduler.entries, 2)

	_, hasJ1 := scheduler.entries["j1"]
	assert.False(t, hasJ1, "job dropped from the source should be removed after reload")
	_, hasJ2 := scheduler.entries["j2"]
	assert.True(t, hasJ2)
	_, hasJ3 := scheduler.entries["j3"]
	assert.True(t, hasJ3)
}

func TestScheduler_InvalidCronSkipped(t *testing.T) {
	t.Parallel()

	source := &mockJobSource{
		listFn: func(_ context.Context) ([]domain.Job, error) {
			return []domain.Job{
				{ID: "bad", Name: "bad-cron", Cron: "whenever"},
				{ID: "good", Name: "good-cron", Cron: "*/5 * * * *"},
			}, nil
		},
	}

	scheduler := NewScheduler(source, noopRun, discardLogger())
	t.Cleanup(scheduler.Stop)

	require.NoError(t, scheduler.Start(context.Background()))
	assert.Len(t, scheduler.entries, 1)
	_, hasGood := scheduler.entries["good"]
	assert.True(t, hasGood, "valid cron job should be registered")
	_, hasBad := scheduler.entries["bad"]
	assert.False(t, hasBad, "invalid cron job should be skipped")
}

func TestScheduler_AddAndRemove(t *testing.T) {
	t.Parallel()

	scheduler := NewScheduler(&mockJobSource{}, noopRun, discardLogger())
	t.Cleanup(scheduler.Stop)

	require.NoError(t, scheduler.Add(domain.Job{ID: "j1", Name: "nightly", Cron: "0 2 * * *"}))
	assert.Equal(t, 1, scheduler.Len())

	// Re-adding the same job replaces its entry instead of stacking a second.
	require.NoError(t, scheduler.Add(domain.Job{ID: "j1", Name: "nightly", Cron: "0 3 * * *"}))
	assert.Equal(t, 1, scheduler.Len())

	err := scheduler.Add(domain.Job{ID: "j2", Name: "broken", Cron: "not a cron"})
	require.Error(t, err)
	assert.Equal(t, 1, scheduler.Len())

	scheduler.Remove("j1")
	assert.Equal(t, 0, scheduler.Len())

	assert.NotPanics(t, func() { scheduler.Remove("unknown") })
}

func TestScheduler_ExecuteRecordsOutcome(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		source := &mockJobSource{}
		scheduler := NewScheduler(source, noopRun, discardLogger())

		scheduler.execute(domain.Job{ID: "j1", Name: "daily"})

		require.Len(t, source.recorded, 1)
		assert.Equal(t, "j1", source.recorded[0].id)
		assert.Equal(t, runStatusSucceeded, source.recorded[0].status)
		assert.Empty(t, source.recorded[0].errMsg)
	})

	t.Run("failure is recorded and does not stop later runs", func(t *testing.T) {
		t.Parallel()
		source := &mockJobSource{}
		calls := 0
		run := func(_ context.Context, _ domain.Job) error {
			calls++
			if calls == 1 {
				return errors.New("warehouse unreachable")
			}
			return nil
		}
		scheduler := NewScheduler(source, run, discardLogger())

		scheduler.execute(domain.Job{ID: "j1", Name: "daily"})
		scheduler.execute(domain.Job{ID: "j1", Name: "daily"})

		require.Len(t, source.recorded, 2)
		assert.Equal(t, runStatusFailed, source.recorded[0].status)
		assert.Contains(t, source.recorded[0].errMsg, "warehouse unreachable")
		assert.Equal(t, runStatusSucceeded, source.recorded[1].status)
	})
}

func TestScheduler_Stop(t *testing.T) {
	t.Parallel()

	scheduler := NewScheduler(&mockJobSource{}, noopRun, discardLogger())
	require.NoError(t, scheduler.Start(context.Background()))

	assert.NotPanics(t, scheduler.Stop)
}
