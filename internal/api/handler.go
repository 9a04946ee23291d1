// Package api serves the JSON HTTP surface under /v1: catalog metadata,
// graph queries, the business glossary, planning, agent chat, and scheduled
// jobs.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"lakeagent/internal/agent"
	"lakeagent/internal/catalog"
	"lakeagent/internal/db/repository"
	"lakeagent/internal/domain"
	"lakeagent/internal/planner"
)

// JobScheduler is the running cron registry that jobs are added to and
// removed from as they are created and deleted over the API.
type JobScheduler interface {
	Add(job domain.Job) error
	Remove(id string)
}

// Config carries the handler's collaborators. Syncer, Generator, and
// Scheduler may be nil; the affected endpoints degrade or report the missing
// configuration instead of failing at startup.
type Config struct {
	Store     *catalog.Store
	Syncer    *catalog.Syncer
	Planner   *planner.Planner
	Generator domain.TextGenerator
	Agent     *agent.Agent
	Jobs      *repository.JobRepo
	PlanRuns  *repository.PlanRunRepo
	Scheduler JobScheduler
	Logger    *slog.Logger
}

// Handler holds the wired services behind the HTTP surface.
type Handler struct {
	store     *catalog.Store
	syncer    *catalog.Syncer
	planner   *planner.Planner
	generator domain.TextGenerator
	agent     *agent.Agent
	jobs      *repository.JobRepo
	planRuns  *repository.PlanRunRepo
	scheduler JobScheduler
	logger    *slog.Logger
}

// NewHandler builds the handler from its collaborators.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		store:     cfg.Store,
		syncer:    cfg.Syncer,
		planner:   cfg.Planner,
		generator: cfg.Generator,
		agent:     cfg.Agent,
		jobs:      cfg.Jobs,
		planRuns:  cfg.PlanRuns,
		scheduler: cfg.Scheduler,
		logger:    logger,
	}
}

// MountRoutes registers the /v1 endpoints on r. The health probe stays
// outside the auth group so probes reach it without credentials.
func MountRoutes(r chi.Router, h *Handler, authMiddleware func(http.Handler) http.Handler) {
	r.Get("/health", h.Health)

	r.Group(func(r chi.Router) {
		if authMiddleware != nil {
			r.Use(authMiddleware)
		}
		r.Get("/tables", h.TablesList)
		r.Post("/tables", h.TablesRegister)
		r.Get("/tables/{tableName}", h.TablesDetail)
		r.Get("/relationships", h.RelationshipsList)
		r.Post("/relationships", h.RelationshipsAdd)
		r.Post("/catalog/sync", h.CatalogSync)
		r.Post("/catalog/detect", h.CatalogDetect)
		r.Get("/join-path", h.JoinPath)
		r.Get("/related-tables", h.RelatedTables)
		r.Get("/glossary", h.GlossaryList)
		r.Post("/glossary", h.GlossaryAdd)
		r.Get("/glossary/resolve", h.GlossaryResolve)
		r.Post("/plans", h.PlansCreate)
		r.Get("/plans/{planID}", h.PlansGet)
		r.Post("/chat", h.Chat)
		r.Get("/jobs", h.JobsList)
		r.Post("/jobs", h.JobsCreate)
		r.Delete("/jobs/{jobID}", h.JobsDelete)
	})
}

type healthResponse struct {
	Status  string        `json:"status"`
	Catalog catalog.Stats `json:"catalog"`
}

// Health reports liveness plus current catalog registry sizes.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Catalog: h.store.Stats()})
}
