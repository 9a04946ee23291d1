package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"lakeagent/internal/app"
	"lakeagent/internal/config"
)

func newServeCmd() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the lakeagent server in the foreground",
		Long:  "Start the API and console server using configuration from the environment. Blocks until SIGINT or SIGTERM.",
		Example: `  lakeagent serve
  LAKEAGENT_PORT=9090 lakeagent serve --env-file ./deploy.env`,
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
			slog.SetDefault(logger)
			for _, warning := range cfg.Warnings {
				logger.Warn(warning)
			}

			return app.Run(context.Background(), cfg, logger)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", ".env", "Env file to load before reading the environment")

	return cmd
}
