// Package cli implements the lakeagent command-line interface: a thin client
// over the /v1 API plus local helpers for configuration, token minting, and
// running the server in-process.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
)

// Execute runs the CLI.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		output, _ := rootCmd.PersistentFlags().GetString("output")
		if output == "json" {
			errObj := map[string]interface{}{
				"error": err.Error(),
			}
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				errObj["http_status"] = apiErr.HTTPStatus
				errObj["code"] = apiErr.Code
			}
			_ = printJSON(os.Stdout, errObj)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	var (
		host    string
		apiKey  string
		token   string
		output  string
		profile string
	)

	rootCmd := &cobra.Command{
		Use:           "lakeagent",
		Short:         "Lakehouse metadata catalog CLI",
		Long:          "Command-line interface for the lakeagent metadata catalog and query planner API.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// The profile file is optional; a missing one resolves like an
			// empty default profile.
			cfg, err := LoadUserConfig()
			if err != nil {
				cfg = &UserConfig{
					CurrentProfile: "default",
					Profiles:       map[string]Profile{},
				}
			}
			p := cfg.ActiveProfile(profile)

			// Precedence per setting: flag > LAKEAGENT_* env > profile.
			resolve := func(flag, envVar, profileValue string, dst *string) {
				if cmd.Flags().Changed(flag) {
					return
				}
				if v := os.Getenv(envVar); v != "" {
					*dst = v
					return
				}
				if profileValue != "" {
					*dst = profileValue
				}
			}
			resolve("host", "LAKEAGENT_HOST", p.Host, &host)
			resolve("api-key", "LAKEAGENT_API_KEY", p.APIKey, &apiKey)
			resolve("token", "LAKEAGENT_TOKEN", p.Token, &token)
			resolve("output", "LAKEAGENT_OUTPUT", p.Output, &output)

			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&host, "host", "http://localhost:8080", "API host URL")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "API key for authentication")
	rootCmd.PersistentFlags().StringVar(&token, "token", "", "JWT token for authentication")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "Output format (table, json)")
	rootCmd.PersistentFlags().StringVarP(&profile, "profile", "p", "", "Config profile to use")

	client := NewClient(host, apiKey, token)

	// Wire PersistentPreRun to update client after config resolution
	originalPreRun := rootCmd.PersistentPreRunE
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if originalPreRun != nil {
			if err := originalPreRun(cmd, args); err != nil {
				return err
			}
		}
		if err := validateOutputFormat(output); err != nil {
			return err
		}
		client.BaseURL = host
		client.APIKey = apiKey
		client.Token = token
		return nil
	}

	// API-backed commands
	rootCmd.AddCommand(newTablesCmd(client))
	rootCmd.AddCommand(newRelationshipsCmd(client))
	rootCmd.AddCommand(newCatalogCmd(client))
	rootCmd.AddCommand(newGraphCmd(client))
	rootCmd.AddCommand(newGlossaryCmd(client))
	rootCmd.AddCommand(newPlanCmd(client))
	rootCmd.AddCommand(newChatCmd(client))
	rootCmd.AddCommand(newJobsCmd(client))

	// Local commands
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newSeedCmd())
	rootCmd.AddCommand(newConfigureCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newAuthCmd())

	// Shell completions
	rootCmd.AddCommand(newCompletionCmd())

	return rootCmd
}

func newCompletionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			default:
				return fmt.Errorf("unsupported shell: %s", args[0])
			}
		},
	}
	return cmd
}
