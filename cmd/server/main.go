// Package main is the entry point for the lakeagent server binary.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	_ "github.com/duckdb/duckdb-go/v2"
	_ "github.com/mattn/go-sqlite3"

	"lakeagent/internal/app"
	"lakeagent/internal/config"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Printf("warning: could not load .env: %v", err)
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	for _, warning := range cfg.Warnings {
		logger.Warn(warning)
	}

	if err := app.Run(context.Background(), cfg, logger); err != nil {
		logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}
