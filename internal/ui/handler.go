// Package ui renders the server-side HTML console: catalog browsing, the
// business glossary, agent chat, and scheduled jobs, backed by the same
// services as the JSON API. Pages are gomponents trees with datastar quick
// filters; all state lives server-side.
package ui

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	gomponents "maragu.dev/gomponents"

	"lakeagent/internal/agent"
	"lakeagent/internal/catalog"
	"lakeagent/internal/db/repository"
	"lakeagent/internal/domain"
	"lakeagent/internal/middleware"
)

// JobScheduler mirrors the running cron registry so the jobs page can apply
// enable and disable toggles immediately.
type JobScheduler interface {
	Add(job domain.Job) error
	Remove(id string)
}

// Config carries the handler's collaborators and auth settings. Syncer and
// Scheduler may be nil; the affected controls degrade instead of failing.
type Config struct {
	Store         *catalog.Store
	Syncer        *catalog.Syncer
	Agent         *agent.Agent
	Conversations *repository.ConversationRepo
	Jobs          *repository.JobRepo
	PlanRuns      *repository.PlanRunRepo
	Scheduler     JobScheduler
	JWTSecret     []byte
	APIKeys       []string
	Production    bool
	Logger        *slog.Logger
}

// Handler serves the console pages under /ui.
type Handler struct {
	store         *catalog.Store
	syncer        *catalog.Syncer
	agent         *agent.Agent
	conversations *repository.ConversationRepo
	jobs          *repository.JobRepo
	planRuns      *repository.PlanRunRepo
	scheduler     JobScheduler
	jwtSecret     []byte
	apiKeys       []string
	production    bool
	logger        *slog.Logger
}

// NewHandler builds the console handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		store:         cfg.Store,
		syncer:        cfg.Syncer,
		agent:         cfg.Agent,
		conversations: cfg.Conversations,
		jobs:          cfg.Jobs,
		planRuns:      cfg.PlanRuns,
		scheduler:     cfg.Scheduler,
		jwtSecret:     cfg.JWTSecret,
		apiKeys:       cfg.APIKeys,
		production:    cfg.Production,
		logger:        logger,
	}
}

func renderHTML(w http.ResponseWriter, status int, node gomponents.Node) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = node.Render(w)
}

func principalFromContext(ctx context.Context) string {
	if name, ok := middleware.PrincipalFromContext(ctx); ok && strings.TrimSpace(name) != "" {
		return name
	}
	return "unknown"
}
