package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"lakeagent/internal/config"
	"lakeagent/internal/db"
	"lakeagent/internal/llm"
	"lakeagent/internal/seed"
	"lakeagent/internal/warehouse"
)

const shutdownGrace = 10 * time.Second

// Run assembles the application from config and serves it until the context
// is cancelled or SIGINT/SIGTERM arrives: metastore open + migrations,
// warehouse and LLM collaborators, app wiring, cron scheduler, HTTP listener
// with graceful shutdown, final catalog flush.
func Run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	writeDB, readDB, err := db.OpenSQLitePair(cfg.MetaDBPath, 4)
	if err != nil {
		return fmt.Errorf("open metastore: %w", err)
	}
	defer writeDB.Close()
	defer readDB.Close()

	if err := db.RunMigrations(writeDB); err != nil {
		return fmt.Errorf("migrate metastore: %w", err)
	}

	deps := Deps{
		Cfg:     cfg,
		WriteDB: writeDB,
		ReadDB:  readDB,
		Logger:  logger,
	}

	if cfg.UseDatabricks() {
		client := warehouse.NewDatabricksClient(cfg.Databricks, logger.With("component", "databricks"))
		deps.Warehouse = client
		deps.Schemas = warehouse.NewSchemaReader(client, warehouse.DialectDatabricks, cfg.CatalogName)
		logger.Info("warehouse: databricks", "host", cfg.Databricks.Host, "warehouse_id", cfg.Databricks.WarehouseID)
	} else {
		local, err := warehouse.OpenLocal(cfg.DuckDBPath, logger.With("component", "duckdb"))
		if err != nil {
			return fmt.Errorf("open local warehouse: %w", err)
		}
		defer local.Close()
		deps.Warehouse = local
		deps.Schemas = warehouse.NewSchemaReader(local, warehouse.DialectDuckDB, cfg.CatalogName)
		logger.Info("warehouse: embedded duckdb", "path", cfg.DuckDBPath)

		if !cfg.IsProduction() {
			if err := seed.Warehouse(ctx, local, logger); err != nil {
				logger.Warn("demo warehouse seeding failed", "error", err)
			}
		}
	}

	if cfg.Anthropic.Configured() {
		client := llm.NewClient(cfg.Anthropic, logger.With("component", "llm"))
		deps.Generator = client
		deps.Ranker = client
		deps.ScheduleParser = client
		logger.Info("text generation enabled", "model", cfg.Anthropic.Model)
	} else {
		logger.Warn("ANTHROPIC_API_KEY not set; planning works, SQL generation and ranking are disabled")
	}

	application, err := New(ctx, deps)
	if err != nil {
		return err
	}

	if !cfg.IsProduction() && application.Store.Stats().Terms == 0 {
		if err := seed.Glossary(ctx, application.Store, logger); err != nil {
			logger.Warn("glossary seeding failed", "error", err)
		}
	}

	if err := application.Scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer application.Scheduler.Stop()

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           application.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server listening", "addr", cfg.ListenAddr)
		var err error
		if cfg.TLSCertFile != "" && cfg.TLSKeyFile != "" {
			err = srv.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
		} else {
			err = srv.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	runErr := g.Wait()

	// Final flush so the on-disk snapshot reflects the last in-memory state.
	flushCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := application.Store.Replace(flushCtx, application.Store.Export()); err != nil {
		logger.Warn("final catalog flush failed", "error", err)
	}

	return runErr
}
