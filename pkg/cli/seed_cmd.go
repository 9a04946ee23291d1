package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"lakeagent/internal/catalog"
	"lakeagent/internal/config"
	"lakeagent/internal/db"
	"lakeagent/internal/db/repository"
	"lakeagent/internal/seed"
	"lakeagent/internal/warehouse"
)

func newSeedCmd() *cobra.Command {
	var (
		envFile       string
		skipWarehouse bool
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed the demo warehouse and glossary without a running server",
		Long:  "Create the demo lakehouse schemas and data in the local DuckDB warehouse and load the starter glossary into the metastore. Safe to run repeatedly: existing tables and terms are left alone.",
		Example: `  lakeagent seed
  lakeagent seed --skip-warehouse --env-file ./deploy.env`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.LoadDotEnv(envFile); err != nil {
				_, _ = os.Stderr.WriteString("warning: could not load " + envFile + ": " + err.Error() + "\n")
			}

			cfg, err := config.LoadFromEnv()
			if err != nil {
				return err
			}
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: cfg.SlogLevel(),
			}))

			ctx := cmd.Context()

			writeDB, readDB, err := db.OpenSQLitePair(cfg.MetaDBPath, 2)
			if err != nil {
				return fmt.Errorf("open metastore: %w", err)
			}
			defer writeDB.Close()
			defer readDB.Close()

			if err := db.RunMigrations(writeDB); err != nil {
				return fmt.Errorf("migrate metastore: %w", err)
			}

			snapshotRepo := repository.NewSnapshotRepo(writeDB, readDB)
			store := catalog.NewStore(snapshotRepo)
			snap, err := snapshotRepo.Load(ctx)
			if err != nil {
				return fmt.Errorf("load catalog snapshot: %w", err)
			}
			store.Import(snap)

			if err := seed.Glossary(ctx, store, logger); err != nil {
				return fmt.Errorf("seed glossary: %w", err)
			}

			switch {
			case skipWarehouse:
				logger.Info("warehouse seeding skipped")
			case cfg.UseDatabricks():
				logger.Info("warehouse is databricks; demo data is only seeded into the embedded warehouse")
			default:
				local, err := warehouse.OpenLocal(cfg.DuckDBPath, logger.With("component", "duckdb"))
				if err != nil {
					return fmt.Errorf("open local warehouse: %w", err)
				}
				defer local.Close()
				if err := seed.Warehouse(ctx, local, logger); err != nil {
					return fmt.Errorf("seed warehouse: %w", err)
				}
			}

			stats := store.Stats()
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Seeded: %d tables, %d relationships, %d glossary terms\n",
				stats.Tables, stats.Relationships, stats.Terms)
			return nil
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", ".env", "Env file to load before reading the environment")
	cmd.Flags().BoolVar(&skipWarehouse, "skip-warehouse", false, "Seed only the glossary, not the demo warehouse data")

	return cmd
}
