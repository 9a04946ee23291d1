// Package agent implements the conversational surface: it classifies each
// chat message, drives the planner and the SQL generator, and holds the
// per-session pending plan that a user confirms or discards. Replies for
// canned intents are assembled in Go without a model call.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"lakeagent/internal/catalog"
	"lakeagent/internal/domain"
	"lakeagent/internal/planner"
)

// JobStore persists scheduled jobs.
type JobStore interface {
	Create(ctx context.Context, job *domain.Job) error
	List(ctx context.Context) ([]domain.Job, error)
}

// PlanAudit records the lifecycle of generated plans.
type PlanAudit interface {
	Create(ctx context.Context, run *domain.PlanRun) error
	SetSQL(ctx context.Context, id, sqlText string) error
	MarkExecuted(ctx context.Context, id string, rowCount int64) error
	MarkFailed(ctx context.Context, id, errMsg string) error
	MarkCancelled(ctx context.Context, id string) error
}

// ConversationLog persists chat turns.
type ConversationLog interface {
	Append(ctx context.Context, msg *domain.ConversationMessage) error
}

// JobScheduler registers new jobs with the running cron scheduler.
type JobScheduler interface {
	Add(job domain.Job) error
}

// Config holds the agent's collaborators. Generator, ScheduleParser, and
// Scheduler may be nil; the agent degrades to plan-only replies without them.
type Config struct {
	Store          *catalog.Store
	Planner        *planner.Planner
	Generator      domain.TextGenerator
	ScheduleParser domain.ScheduleParser
	Executor       domain.StatementExecutor
	Scheduler      JobScheduler
	Jobs           JobStore
	PlanRuns       PlanAudit
	Conversations  ConversationLog
	Logger         *slog.Logger
}

// Agent is safe for concurrent sessions; the pending-plan slot is per
// session id.
type Agent struct {
	store          *catalog.Store
	planner        *planner.Planner
	generator      domain.TextGenerator
	scheduleParser domain.ScheduleParser
	executor       domain.StatementExecutor
	scheduler      JobScheduler
	jobs           JobStore
	planRuns       PlanAudit
	conversations  ConversationLog
	logger         *slog.Logger

	mu      sync.Mutex
	pending map[string]*domain.QueryPlan
}

// New builds the agent from its collaborators.
func New(cfg Config) *Agent {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Agent{
		store:          cfg.Store,
		planner:        cfg.Planner,
		generator:      cfg.Generator,
		scheduleParser: cfg.ScheduleParser,
		executor:       cfg.Executor,
		scheduler:      cfg.Scheduler,
		jobs:           cfg.Jobs,
		planRuns:       cfg.PlanRuns,
		conversations:  cfg.Conversations,
		logger:         logger,
		pending:        map[string]*domain.QueryPlan{},
	}
}

// Reply is one agent turn. SessionID echoes the caller's session or carries
// the fresh one minted for a first message.
type Reply struct {
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
}

const greetingReply = `Hi! I turn plain-language requests into warehouse transformations.
Try "build a revenue summary by region", or "schedule a daily clean of raw_orders". Say "help" for more.`

const helpReply = `Here's what I can do:
  - Transform: describe what you want ("clean raw_customers", "build a revenue summary by region") and I'll plan it, draft the SQL, and wait for your go-ahead.
  - Confirm or discard: reply "yes" to run the drafted SQL, "no" to drop it.
  - Schedule: include a recurrence ("every morning at 6") and I'll register a cron job.
  - Status: ask for "status" or "list jobs" to see scheduled jobs and any plan waiting on you.`

// Handle processes one chat message and returns the agent's reply.
func (a *Agent) Handle(ctx context.Context, sessionID, message string) (*Reply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, domain.ErrValidation("message is required")
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	if err := a.conversations.Append(ctx, &domain.ConversationMessage{
		SessionID: sessionID, Role: "user", Content: message,
	}); err != nil {
		return nil, err
	}

	var text string
	var err error
	switch classify(message) {
	case intentGreeting:
		text = greetingReply
	case intentHelp:
		text = helpReply
	case intentStatus:
		text, err = a.handleStatus(ctx, sessionID)
	case intentSchedule:
		text, err = a.handleSchedule(ctx, message)
	case intentConfirm:
		text, err = a.handleConfirm(ctx, sessionID)
	case intentCancel:
		text, err = a.handleCancel(ctx, sessionID)
	default:
		text, err = a.handleTransform(ctx, sessionID, message)
	}
	if err != nil {
		return nil, err
	}

	if err := a.conversations.Append(ctx, &domain.ConversationMessage{
		SessionID: sessionID, Role: "assistant", Content: text,
	}); err != nil {
		return nil, err
	}
	return &Reply{SessionID: sessionID, Text: text}, nil
}

func (a *Agent) handleTransform(ctx context.Context, sessionID, message string) (string, error) {
	plan, err := a.planner.Plan(ctx, message)
	if err != nil {
		var noTables *domain.NoRelevantTablesError
		if errors.As(err, &noTables) {
			return fmt.Sprintf(
				"I couldn't find any tables in the %s layer matching that request. Run a catalog sync first so I know what's in the warehouse.",
				noTables.Layer), nil
		}
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			return "I couldn't plan that: " + verr.Message, nil
		}
		return "", err
	}

	planJSON, _ := json.Marshal(plan)
	if err := a.planRuns.Create(ctx, &domain.PlanRun{
		ID:       plan.ID,
		Request:  plan.Request,
		PlanJSON: string(planJSON),
	}); err != nil {
		return "", err
	}

	summary := planSummary(plan)

	if a.generator == nil {
		return summary + "\n\nSQL generation is not configured, so this stays a plan. Set ANTHROPIC_API_KEY to let me draft and run the SQL.", nil
	}

	sqlText, err := a.generator.GenerateSQL(ctx, plan)
	if err != nil {
		a.logger.Warn("sql generation failed", "plan_id", plan.ID, "error", err)
		return summary + "\n\nI drafted the plan but SQL generation failed: " + err.Error(), nil
	}
	plan.GeneratedSQL = sqlText
	if err := a.planRuns.SetSQL(ctx, plan.ID, sqlText); err != nil {
		return "", err
	}

	a.mu.Lock()
	a.pending[sessionID] = plan
	a.mu.Unlock()

	return summary + "\n\n" + sqlText + "\n\nReply \"yes\" to run it, or \"no\" to discard.", nil
}

func (a *Agent) handleConfirm(ctx context.Context, sessionID string) (string, error) {
	a.mu.Lock()
	plan := a.pending[sessionID]
	delete(a.pending, sessionID)
	a.mu.Unlock()

	if plan == nil {
		return "There's nothing waiting for confirmation. Describe a transformation and I'll draft one.", nil
	}

	res, err := a.executor.Execute(ctx, plan.GeneratedSQL)
	if err != nil {
		a.logger.Warn("transform execution failed", "plan_id", plan.ID, "error", err)
		if mErr := a.planRuns.MarkFailed(ctx, plan.ID, err.Error()); mErr != nil {
			return "", mErr
		}
		return "Execution failed: " + err.Error(), nil
	}

	if err := a.planRuns.MarkExecuted(ctx, plan.ID, int64(res.RowCount)); err != nil {
		return "", err
	}
	if err := a.registerTarget(ctx, plan, int64(res.RowCount)); err != nil {
		a.logger.Warn("target table registration failed", "table", plan.TargetTable, "error", err)
	}

	return fmt.Sprintf("Done: %s is ready (%d rows).", plan.TargetTable, res.RowCount), nil
}

func (a *Agent) handleCancel(ctx context.Context, sessionID string) (string, error) {
	a.mu.Lock()
	plan := a.pending[sessionID]
	delete(a.pending, sessionID)
	a.mu.Unlock()

	if plan == nil {
		return "Nothing to cancel.", nil
	}
	if err := a.planRuns.MarkCancelled(ctx, plan.ID); err != nil {
		return "", err
	}
	return fmt.Sprintf("Discarded the plan for %q.", plan.Request), nil
}

func (a *Agent) handleSchedule(ctx context.Context, message string) (string, error) {
	if a.scheduleParser == nil {
		return "Scheduling needs the language model and it isn't configured. Set ANTHROPIC_API_KEY and try again.", nil
	}

	spec, err := a.scheduleParser.ParseSchedule(ctx, message)
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			return "I couldn't turn that into a schedule: " + verr.Message, nil
		}
		return "", err
	}
	if _, err := cron.ParseStandard(spec.Cron); err != nil {
		return fmt.Sprintf("The model proposed %q, which is not a valid cron expression. Try rephrasing the schedule.", spec.Cron), nil
	}

	job := domain.Job{
		ID:      uuid.NewString(),
		Cron:    spec.Cron,
		Request: message,
		Enabled: true,
	}
	job.Name = "chat-" + job.ID[:8]

	if err := a.jobs.Create(ctx, &job); err != nil {
		return "", err
	}
	if a.scheduler != nil {
		if err := a.scheduler.Add(job); err != nil {
			return "", err
		}
	}
	return fmt.Sprintf("Scheduled %s: %s (cron %s).", job.Name, spec.Summary, spec.Cron), nil
}

func (a *Agent) handleStatus(ctx context.Context, sessionID string) (string, error) {
	jobs, err := a.jobs.List(ctx)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	if len(jobs) == 0 {
		b.WriteString("No scheduled jobs.")
	} else {
		fmt.Fprintf(&b, "%d scheduled job(s):\n", len(jobs))
		for _, job := range jobs {
			state := "enabled"
			if !job.Enabled {
				state = "disabled"
			}
			fmt.Fprintf(&b, "  - %s: %s (%s)", job.Name, job.Cron, state)
			if job.LastStatus != "" {
				fmt.Fprintf(&b, ", last run %s", job.LastStatus)
			}
			b.WriteString("\n")
		}
	}

	a.mu.Lock()
	pendingPlan := a.pending[sessionID]
	a.mu.Unlock()
	if pendingPlan != nil {
		fmt.Fprintf(&b, "\nA plan for %q is waiting for your confirmation.", pendingPlan.Request)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

// RunJob executes a stored job outside any chat session: directly when the
// job carries SQL, otherwise through the full plan → generate → execute
// path. The scheduler calls this on every cron tick.
func (a *Agent) RunJob(ctx context.Context, job domain.Job) error {
	sqlText := job.SQLText
	var plan *domain.QueryPlan

	if sqlText == "" {
		p, err := a.planner.Plan(ctx, job.Request)
		if err != nil {
			return fmt.Errorf("plan %q: %w", job.Request, err)
		}
		if a.generator == nil {
			return fmt.Errorf("job %s has no SQL and no generator is configured", job.Name)
		}
		s, err := a.generator.GenerateSQL(ctx, p)
		if err != nil {
			return fmt.Errorf("generate sql: %w", err)
		}
		plan, sqlText = p, s
	}

	res, err := a.executor.Execute(ctx, sqlText)
	if err != nil {
		return fmt.Errorf("execute: %w", err)
	}

	if plan != nil {
		plan.GeneratedSQL = sqlText
		planJSON, _ := json.Marshal(plan)
		if err := a.planRuns.Create(ctx, &domain.PlanRun{
			ID:       plan.ID,
			Request:  plan.Request,
			PlanJSON: string(planJSON),
			SQLText:  sqlText,
		}); err != nil {
			return err
		}
		if err := a.planRuns.MarkExecuted(ctx, plan.ID, int64(res.RowCount)); err != nil {
			return err
		}
		if err := a.registerTarget(ctx, plan, int64(res.RowCount)); err != nil {
			a.logger.Warn("target table registration failed", "table", plan.TargetTable, "error", err)
		}
	}
	return nil
}

// PendingPlan returns the plan awaiting confirmation for a session, nil when
// there is none.
func (a *Agent) PendingPlan(sessionID string) *domain.QueryPlan {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pending[sessionID]
}

func (a *Agent) registerTarget(ctx context.Context, plan *domain.QueryPlan, rows int64) error {
	name, err := domain.ParseTableName(plan.TargetTable)
	if err != nil {
		return err
	}
	table := domain.Table{
		Name:        name,
		Layer:       plan.TargetLayer,
		Description: "Created by transform: " + plan.Request,
		RowCount:    rows,
	}
	return a.store.RegisterTable(ctx, table, nil)
}

func planSummary(plan *domain.QueryPlan) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Here's the plan for %q:\n", plan.Request)
	fmt.Fprintf(&b, "  target: %s (%s layer, built from %s)\n", plan.TargetTable, plan.TargetLayer, plan.SourceLayer)
	fmt.Fprintf(&b, "  primary: %s (%s, %d rows)\n", plan.Primary.Table.Name, plan.Primary.Table.Type, plan.Primary.Table.RowCount)
	for _, sup := range plan.Supporting {
		if sup.JoinPath != nil {
			fmt.Fprintf(&b, "  join: %s (%d hop(s))\n", sup.Table.Name, sup.JoinPath.HopCount())
		} else {
			fmt.Fprintf(&b, "  context: %s (no join path found)\n", sup.Table.Name)
		}
	}
	for _, term := range plan.Terms {
		fmt.Fprintf(&b, "  term: %s", term.Term)
		if term.Expression != "" {
			fmt.Fprintf(&b, " = %s", term.Expression)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
