package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lakeagent/internal/domain"
)

func testJob(id, name string) *domain.Job {
	return &domain.Job{
		ID:      id,
		Name:    name,
		Cron:    "0 6 * * *",
		Request: "clean raw_customers",
		SQLText: "CREATE OR REPLACE TABLE silver.customers AS SELECT * FROM bronze.raw_customers",
		Enabled: true,
	}
}

func TestJobRepo_CreateAndGet(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()

	job := testJob("job-1", "nightly-clean")
	require.NoError(t, r.jobs.Create(ctx, job))

	got, err := r.jobs.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, "nightly-clean", got.Name)
	assert.Equal(t, "0 6 * * *", got.Cron)
	assert.True(t, got.Enabled)
	assert.Nil(t, got.LastRunAt)

	t.Run("not found returns NotFoundError", func(t *testing.T) {
		_, err := r.jobs.Get(ctx, "missing")
		var nf *domain.NotFoundError
		assert.ErrorAs(t, err, &nf)
	})

	t.Run("duplicate name returns ConflictError", func(t *testing.T) {
		err := r.jobs.Create(ctx, testJob("job-2", "nightly-clean"))
		var conflict *domain.ConflictError
		assert.ErrorAs(t, err, &conflict)
	})

	t.Run("invalid job rejected", func(t *testing.T) {
		err := r.jobs.Create(ctx, &domain.Job{ID: "job-3", Name: "no-cron"})
		var verr *domain.ValidationError
		assert.ErrorAs(t, err, &verr)
	})
}

func TestJobRepo_ListAndEnabledFilter(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()

	require.NoError(t, r.jobs.Create(ctx, testJob("job-a", "first")))
	require.NoError(t, r.jobs.Create(ctx, testJob("job-b", "second")))
	require.NoError(t, r.jobs.SetEnabled(ctx, "job-a", false))

	all, err := r.jobs.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	enabled, err := r.jobs.ListEnabled(ctx)
	require.NoError(t, err)
	require.Len(t, enabled, 1)
	assert.Equal(t, "job-b", enabled[0].ID)
}

func TestJobRepo_RecordRun(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()

	require.NoError(t, r.jobs.Create(ctx, testJob("job-r", "recorded")))

	at := time.Now().UTC()
	require.NoError(t, r.jobs.RecordRun(ctx, "job-r", at, "failed", "table not found"))

	got, err := r.jobs.Get(ctx, "job-r")
	require.NoError(t, err)
	require.NotNil(t, got.LastRunAt)
	assert.WithinDuration(t, at, *got.LastRunAt, time.Second)
	assert.Equal(t, "failed", got.LastStatus)
	assert.Equal(t, "table not found", got.LastError)

	var nf *domain.NotFoundError
	err = r.jobs.RecordRun(ctx, "missing", at, "succeeded", "")
	assert.ErrorAs(t, err, &nf)
}

func TestJobRepo_Delete(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()

	require.NoError(t, r.jobs.Create(ctx, testJob("job-d", "doomed")))
	require.NoError(t, r.jobs.Delete(ctx, "job-d"))

	var nf *domain.NotFoundError
	_, err := r.jobs.Get(ctx, "job-d")
	assert.ErrorAs(t, err, &nf)
	err = r.jobs.Delete(ctx, "job-d")
	assert.ErrorAs(t, err, &nf)
}
