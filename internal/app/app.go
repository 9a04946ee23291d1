// Package app wires repositories, the catalog store, services, the agent,
// and the HTTP surfaces into a runnable application. main() provides the
// things this package should not create itself: config, database pools, and
// the warehouse collaborators.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"lakeagent/internal/agent"
	"lakeagent/internal/api"
	"lakeagent/internal/catalog"
	"lakeagent/internal/config"
	"lakeagent/internal/db/repository"
	"lakeagent/internal/domain"
	"lakeagent/internal/middleware"
	"lakeagent/internal/planner"
	"lakeagent/internal/schedule"
	"lakeagent/internal/ui"
)

// Deps holds the external dependencies main() must provide. Warehouse is
// required; the remaining collaborators may be nil and the affected features
// degrade instead of failing at startup.
type Deps struct {
	Cfg     *config.Config
	WriteDB *sql.DB
	ReadDB  *sql.DB

	Warehouse      domain.StatementExecutor
	Schemas        domain.SchemaProvider // nil disables warehouse sync
	Generator      domain.TextGenerator  // nil degrades plans to plan-only
	Ranker         domain.TableRanker    // nil falls back to heuristic discovery
	ScheduleParser domain.ScheduleParser // nil disables chat-driven scheduling

	Logger *slog.Logger
}

// App is the fully wired application.
type App struct {
	Store     *catalog.Store
	Syncer    *catalog.Syncer
	Planner   *planner.Planner
	Agent     *agent.Agent
	Scheduler *schedule.Scheduler
	Router    chi.Router
}

// New wires the application and loads the catalog snapshot from the
// metastore. It does not start the scheduler or the HTTP listener; the
// caller owns those lifecycles.
func New(ctx context.Context, deps Deps) (*App, error) {
	cfg := deps.Cfg
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// Repositories: write pool for mutating repos, read pool for the
	// read-heavy surfaces.
	snapshotRepo := repository.NewSnapshotRepo(deps.WriteDB, deps.ReadDB)
	jobRepo := repository.NewJobRepo(deps.WriteDB, deps.ReadDB)
	planRunRepo := repository.NewPlanRunRepo(deps.WriteDB, deps.ReadDB)
	conversationRepo := repository.NewConversationRepo(deps.WriteDB, deps.ReadDB)

	// Catalog store, restored from the last persisted snapshot.
	store := catalog.NewStore(snapshotRepo)
	snap, err := snapshotRepo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog snapshot: %w", err)
	}
	store.Import(snap)
	stats := store.Stats()
	logger.Info("catalog restored",
		"tables", stats.Tables,
		"relationships", stats.Relationships,
		"terms", stats.Terms,
	)

	var syncer *catalog.Syncer
	if deps.Schemas != nil {
		syncer = catalog.NewSyncer(store, deps.Schemas, logger.With("component", "syncer"))
	}

	plannerSvc := planner.New(store, deps.Ranker, logger.With("component", "planner"))

	// The agent and the scheduler reference each other: chat-created jobs
	// register with the scheduler, and cron ticks run through the agent.
	var agentSvc *agent.Agent
	scheduler := schedule.NewScheduler(jobRepo, func(ctx context.Context, job domain.Job) error {
		return agentSvc.RunJob(ctx, job)
	}, logger.With("component", "scheduler"))

	agentSvc = agent.New(agent.Config{
		Store:          store,
		Planner:        plannerSvc,
		Generator:      deps.Generator,
		ScheduleParser: deps.ScheduleParser,
		Executor:       deps.Warehouse,
		Scheduler:      scheduler,
		Jobs:           jobRepo,
		PlanRuns:       planRunRepo,
		Conversations:  conversationRepo,
		Logger:         logger.With("component", "agent"),
	})

	apiHandler := api.NewHandler(api.Config{
		Store:     store,
		Syncer:    syncer,
		Planner:   plannerSvc,
		Generator: deps.Generator,
		Agent:     agentSvc,
		Jobs:      jobRepo,
		PlanRuns:  planRunRepo,
		Scheduler: scheduler,
		Logger:    logger.With("component", "api"),
	})

	uiHandler := ui.NewHandler(ui.Config{
		Store:         store,
		Syncer:        syncer,
		Agent:         agentSvc,
		Conversations: conversationRepo,
		Jobs:          jobRepo,
		PlanRuns:      planRunRepo,
		Scheduler:     scheduler,
		JWTSecret:     []byte(cfg.JWTSecret),
		APIKeys:       cfg.APIKeys,
		Production:    cfg.IsProduction(),
		Logger:        logger.With("component", "ui"),
	})

	return &App{
		Store:     store,
		Syncer:    syncer,
		Planner:   plannerSvc,
		Agent:     agentSvc,
		Scheduler: scheduler,
		Router:    buildRouter(cfg, apiHandler, uiHandler),
	}, nil
}

func buildRouter(cfg *config.Config, apiHandler *api.Handler, uiHandler *ui.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.RateLimiter(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		Burst:             cfg.RateLimitBurst,
	}))

	r.Get("/healthz", apiHandler.Health)

	auth := middleware.AuthMiddleware([]byte(cfg.JWTSecret), cfg.APIKeys)
	r.Route("/v1", func(r chi.Router) {
		api.MountRoutes(r, apiHandler, auth)
	})

	r.Route("/ui", func(r chi.Router) {
		ui.MountRoutes(r, uiHandler)
	})
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/ui", http.StatusSeeOther)
	})

	return r
}
