package agent

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lakeagent/internal/catalog"
	"lakeagent/internal/db"
	"lakeagent/internal/db/repository"
	"lakeagent/internal/domain"
	"lakeagent/internal/planner"
)

type fakeGenerator struct {
	sql   string
	err   error
	calls int
}

func (f *fakeGenerator) GenerateSQL(_ context.Context, _ *domain.QueryPlan) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.sql, nil
}

type fakeExecutor struct {
	err error
	got []string
}

func (f *fakeExecutor) Execute(_ context.Context, sqlText string) (*domain.QueryResult, error) {
	f.got = append(f.got, sqlText)
	if f.err != nil {
		return nil, f.err
	}
	return &domain.QueryResult{RowCount: 42}, nil
}

type fakeParser struct {
	spec *domain.ScheduleSpec
	err  error
	got  string
}

func (f *fakeParser) ParseSchedule(_ context.Context, text string) (*domain.ScheduleSpec, error) {
	f.got = text
	if f.err != nil {
		return nil, f.err
	}
	return f.spec, nil
}

type fakeScheduler struct {
	added []domain.Job
}

func (f *fakeScheduler) Add(job domain.Job) error {
	f.added = append(f.added, job)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// starStore registers a silver star schema plus the revenue term, enough for
// a gold summary plan with one joined dimension.
func starStore(t *testing.T) *catalog.Store {
	t.Helper()
	ctx := context.Background()
	s := catalog.NewStore(nil)

	register := func(name string, rowCount int64, cols ...domain.Column) {
		tn, err := domain.ParseTableName(name)
		require.NoError(t, err)
		require.NoError(t, s.RegisterTable(ctx, domain.Table{Name: tn, RowCount: rowCount}, cols))
	}
	register("silver.orders", 4500,
		domain.Column{Name: "order_id", DataType: "bigint"},
		domain.Column{Name: "customer_id", DataType: "bigint"},
		domain.Column{Name: "total_amount", DataType: "decimal(18,2)"},
	)
	register("silver.dim_customers", 120,
		domain.Column{Name: "customer_id", DataType: "bigint"},
		domain.Column{Name: "region", DataType: "varchar"},
	)
	require.NoError(t, s.AddRelationship(ctx, domain.Relationship{
		Source: domain.ColumnRef{Table: "main.silver.orders", Column: "customer_id"},
		Target: domain.ColumnRef{Table: "main.silver.dim_customers", Column: "customer_id"},
	}))
	require.NoError(t, s.AddTerm(ctx, domain.BusinessTerm{
		Term: "revenue", Expression: "SUM(orders.total_amount)",
	}))
	return s
}

type fixture struct {
	agent         *Agent
	store         *catalog.Store
	planner       *planner.Planner
	jobs          *repository.JobRepo
	planRuns      *repository.PlanRunRepo
	conversations *repository.ConversationRepo
	generator     *fakeGenerator
	executor      *fakeExecutor
	parser        *fakeParser
	scheduler     *fakeScheduler
}

func newFixture(t *testing.T, store *catalog.Store) *fixture {
	t.Helper()
	writeDB, readDB := db.OpenTestSQLite(t)
	f := &fixture{
		store:         store,
		planner:       planner.New(store, nil, discardLogger()),
		jobs:          repository.NewJobRepo(writeDB, readDB),
		planRuns:      repository.NewPlanRunRepo(writeDB, readDB),
		conversations: repository.NewConversationRepo(writeDB, readDB),
		generator:     &fakeGenerator{sql: "CREATE OR REPLACE TABLE gold.orders_summary AS SELECT 1 AS n"},
		executor:      &fakeExecutor{},
		parser:        &fakeParser{spec: &domain.ScheduleSpec{Cron: "0 6 * * *", Summary: "every day at 06:00"}},
		scheduler:     &fakeScheduler{},
	}
	f.agent = New(Config{
		Store:          f.store,
		Planner:        f.planner,
		Generator:      f.generator,
		ScheduleParser: f.parser,
		Executor:       f.executor,
		Scheduler:      f.scheduler,
		Jobs:           f.jobs,
		PlanRuns:       f.planRuns,
		Conversations:  f.conversations,
		Logger:         discardLogger(),
	})
	return f
}

func setupAgent(t *testing.T) *fixture {
	t.Helper()
	return newFixture(t, starStore(t))
}

func TestHandle_EmptyMessage(t *testing.T) {
	f := setupAgent(t)

	_, err := f.agent.Handle(context.Background(), "s1", "   ")
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestHandle_GreetingSkipsModel(t *testing.T) {
	f := setupAgent(t)

	reply, err := f.agent.Handle(context.Background(), "s1", "hello")
	require.NoError(t, err)
	assert.Equal(t, "s1", reply.SessionID)
	assert.Contains(t, reply.Text, "plain-language requests")
	assert.Equal(t, 0, f.generator.calls)
	assert.Empty(t, f.executor.got)
}

func TestHandle_Help(t *testing.T) {
	f := setupAgent(t)

	reply, err := f.agent.Handle(context.Background(), "s1", "what can you do?")
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "Confirm or discard")
	assert.Equal(t, 0, f.generator.calls)
}

func TestHandle_AppendsConversationTurns(t *testing.T) {
	f := setupAgent(t)
	ctx := context.Background()

	reply, err := f.agent.Handle(ctx, "", "hello")
	require.NoError(t, err)
	require.NotEmpty(t, reply.SessionID)

	msgs, err := f.conversations.History(ctx, reply.SessionID, 10)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "user", msgs[0].Role)
	assert.Equal(t, "hello", msgs[0].Content)
	assert.Equal(t, "assistant", msgs[1].Role)
	assert.Equal(t, reply.Text, msgs[1].Content)
}

func TestHandle_TransformDraftsPendingPlan(t *testing.T) {
	f := setupAgent(t)
	ctx := context.Background()

	reply, err := f.agent.Handle(ctx, "s1", "build a revenue summary by region")
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "gold.orders_summary")
	assert.Contains(t, reply.Text, "term: revenue = SUM(orders.total_amount)")
	assert.Contains(t, reply.Text, f.generator.sql)
	assert.Contains(t, reply.Text, `Reply "yes" to run it`)

	plan := f.agent.PendingPlan("s1")
	require.NotNil(t, plan)
	assert.Equal(t, "gold.orders_summary", plan.TargetTable)
	assert.Equal(t, f.generator.sql, plan.GeneratedSQL)

	run, err := f.planRuns.Get(ctx, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PlanStatusPlanned, run.Status)
	assert.Equal(t, f.generator.sql, run.SQLText)
	assert.NotEmpty(t, run.PlanJSON)
}

func TestHandle_TransformWithoutGenerator(t *testing.T) {
	f := setupAgent(t)
	ctx := context.Background()

	a := New(Config{
		Store:         f.store,
		Planner:       f.planner,
		Executor:      f.executor,
		Jobs:          f.jobs,
		PlanRuns:      f.planRuns,
		Conversations: f.conversations,
		Logger:        discardLogger(),
	})

	reply, err := a.Handle(ctx, "s1", "build a revenue summary by region")
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "SQL generation is not configured")
	assert.Nil(t, a.PendingPlan("s1"))

	runs, err := f.planRuns.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, domain.PlanStatusPlanned, runs[0].Status)
	assert.Empty(t, runs[0].SQLText)
}

func TestHandle_TransformNoTablesInLayer(t *testing.T) {
	f := newFixture(t, catalog.NewStore(nil))

	reply, err := f.agent.Handle(context.Background(), "s1", "clean the raw files")
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "bronze")
	assert.Contains(t, reply.Text, "catalog sync")
	assert.Equal(t, 0, f.generator.calls)
	assert.Nil(t, f.agent.PendingPlan("s1"))
}

func TestHandle_TransformGenerationFailure(t *testing.T) {
	f := setupAgent(t)
	ctx := context.Background()
	f.generator.err = errors.New("model overloaded")

	reply, err := f.agent.Handle(ctx, "s1", "build a revenue summary by region")
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "SQL generation failed")
	assert.Contains(t, reply.Text, "model overloaded")
	assert.Nil(t, f.agent.PendingPlan("s1"))

	runs, err := f.planRuns.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, domain.PlanStatusPlanned, runs[0].Status)
}

func TestHandle_ConfirmRunsPendingPlan(t *testing.T) {
	f := setupAgent(t)
	ctx := context.Background()

	_, err := f.agent.Handle(ctx, "s1", "build a revenue summary by region")
	require.NoError(t, err)
	plan := f.agent.PendingPlan("s1")
	require.NotNil(t, plan)

	reply, err := f.agent.Handle(ctx, "s1", "yes")
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "gold.orders_summary is ready (42 rows)")
	require.Len(t, f.executor.got, 1)
	assert.Equal(t, f.generator.sql, f.executor.got[0])
	assert.Nil(t, f.agent.PendingPlan("s1"))

	run, err := f.planRuns.Get(ctx, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PlanStatusExecuted, run.Status)
	assert.EqualValues(t, 42, run.Rows)
	require.NotNil(t, run.ExecutedAt)

	table, err := f.store.GetTable("main.gold.orders_summary")
	require.NoError(t, err)
	assert.Equal(t, domain.LayerGold, table.Layer)
	assert.EqualValues(t, 42, table.RowCount)
	assert.Contains(t, table.Description, "build a revenue summary by region")
}

func TestHandle_ConfirmWithoutPending(t *testing.T) {
	f := setupAgent(t)

	reply, err := f.agent.Handle(context.Background(), "s1", "yes")
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "nothing waiting for confirmation")
	assert.Empty(t, f.executor.got)
}

func TestHandle_ConfirmExecutionFailure(t *testing.T) {
	f := setupAgent(t)
	ctx := context.Background()

	_, err := f.agent.Handle(ctx, "s1", "build a revenue summary by region")
	require.NoError(t, err)
	plan := f.agent.PendingPlan("s1")
	require.NotNil(t, plan)

	f.executor.err = errors.New("TABLE_OR_VIEW_NOT_FOUND: silver.orders")
	reply, err := f.agent.Handle(ctx, "s1", "yes")
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "Execution failed")
	assert.Contains(t, reply.Text, "TABLE_OR_VIEW_NOT_FOUND")
	assert.Nil(t, f.agent.PendingPlan("s1"))

	run, err := f.planRuns.Get(ctx, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PlanStatusFailed, run.Status)
	assert.Contains(t, run.Error, "TABLE_OR_VIEW_NOT_FOUND")

	// The failed plan does not linger; a second confirm has nothing to run.
	reply, err = f.agent.Handle(ctx, "s1", "yes")
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "nothing waiting for confirmation")
}

func TestHandle_CancelDiscardsPlan(t *testing.T) {
	f := setupAgent(t)
	ctx := context.Background()

	_, err := f.agent.Handle(ctx, "s1", "build a revenue summary by region")
	require.NoError(t, err)
	plan := f.agent.PendingPlan("s1")
	require.NotNil(t, plan)

	reply, err := f.agent.Handle(ctx, "s1", "no")
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "Discarded the plan")
	assert.Nil(t, f.agent.PendingPlan("s1"))
	assert.Empty(t, f.executor.got)

	run, err := f.planRuns.Get(ctx, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PlanStatusCancelled, run.Status)
}

func TestHandle_CancelWithoutPending(t *testing.T) {
	f := setupAgent(t)

	reply, err := f.agent.Handle(context.Background(), "s1", "cancel that")
	require.NoError(t, err)
	assert.Equal(t, "Nothing to cancel.", reply.Text)
}

func TestHandle_ScheduleCreatesJob(t *testing.T) {
	f := setupAgent(t)
	ctx := context.Background()

	reply, err := f.agent.Handle(ctx, "s1", "schedule a daily revenue refresh")
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "Scheduled chat-")
	assert.Contains(t, reply.Text, "0 6 * * *")
	assert.Equal(t, "schedule a daily revenue refresh", f.parser.got)

	jobs, err := f.jobs.List(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	job := jobs[0]
	assert.True(t, strings.HasPrefix(job.Name, "chat-"), "job name %q", job.Name)
	assert.Equal(t, "0 6 * * *", job.Cron)
	assert.Equal(t, "schedule a daily revenue refresh", job.Request)
	assert.True(t, job.Enabled)

	require.Len(t, f.scheduler.added, 1)
	assert.Equal(t, job.ID, f.scheduler.added[0].ID)
}

func TestHandle_ScheduleRejectsBadCron(t *testing.T) {
	f := setupAgent(t)
	ctx := context.Background()
	f.parser.spec = &domain.ScheduleSpec{Cron: "whenever it feels right", Summary: "?"}

	reply, err := f.agent.Handle(ctx, "s1", "schedule a daily revenue refresh")
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "not a valid cron expression")

	jobs, err := f.jobs.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, jobs)
	assert.Empty(t, f.scheduler.added)
}

func TestHandle_ScheduleWithoutParser(t *testing.T) {
	f := setupAgent(t)

	a := New(Config{
		Store:         f.store,
		Planner:       f.planner,
		Executor:      f.executor,
		Jobs:          f.jobs,
		PlanRuns:      f.planRuns,
		Conversations: f.conversations,
		Logger:        discardLogger(),
	})

	reply, err := a.Handle(context.Background(), "s1", "schedule a daily revenue refresh")
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "isn't configured")

	jobs, err := f.jobs.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestHandle_StatusListsJobsAndPending(t *testing.T) {
	f := setupAgent(t)
	ctx := context.Background()

	_, err := f.agent.Handle(ctx, "s1", "schedule a daily revenue refresh")
	require.NoError(t, err)
	_, err = f.agent.Handle(ctx, "s1", "build a revenue summary by region")
	require.NoError(t, err)

	reply, err := f.agent.Handle(ctx, "s1", "status")
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "1 scheduled job(s)")
	assert.Contains(t, reply.Text, "chat-")
	assert.Contains(t, reply.Text, "0 6 * * *")
	assert.Contains(t, reply.Text, `A plan for "build a revenue summary by region" is waiting`)
}

func TestHandle_StatusEmpty(t *testing.T) {
	f := setupAgent(t)

	reply, err := f.agent.Handle(context.Background(), "s1", "status")
	require.NoError(t, err)
	assert.Equal(t, "No scheduled jobs.", reply.Text)
}

func TestRunJob_DirectSQL(t *testing.T) {
	f := setupAgent(t)
	ctx := context.Background()

	job := domain.Job{ID: "j1", Name: "nightly-load", Cron: "0 2 * * *", SQLText: "INSERT INTO gold.daily SELECT 1"}
	require.NoError(t, f.agent.RunJob(ctx, job))

	require.Len(t, f.executor.got, 1)
	assert.Equal(t, job.SQLText, f.executor.got[0])
	assert.Equal(t, 0, f.generator.calls)

	runs, err := f.planRuns.List(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestRunJob_PlansWhenJobHasNoSQL(t *testing.T) {
	f := setupAgent(t)
	ctx := context.Background()

	job := domain.Job{ID: "j2", Name: "daily-revenue", Cron: "0 6 * * *", Request: "build a revenue summary by region"}
	require.NoError(t, f.agent.RunJob(ctx, job))

	require.Len(t, f.executor.got, 1)
	assert.Equal(t, f.generator.sql, f.executor.got[0])
	assert.Equal(t, 1, f.generator.calls)

	runs, err := f.planRuns.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, domain.PlanStatusExecuted, runs[0].Status)
	assert.Equal(t, f.generator.sql, runs[0].SQLText)

	_, err = f.store.GetTable("main.gold.orders_summary")
	assert.NoError(t, err)
}

func TestRunJob_NoGeneratorErrors(t *testing.T) {
	f := setupAgent(t)

	a := New(Config{
		Store:         f.store,
		Planner:       f.planner,
		Executor:      f.executor,
		Jobs:          f.jobs,
		PlanRuns:      f.planRuns,
		Conversations: f.conversations,
		Logger:        discardLogger(),
	})

	err := a.RunJob(context.Background(), domain.Job{ID: "j3", Name: "broken", Cron: "@daily", Request: "build a revenue summary by region"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no generator is configured")
	assert.Empty(t, f.executor.got)
}
