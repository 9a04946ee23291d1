package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration profiles",
	}

	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigSetProfileCmd())
	cmd.AddCommand(newConfigUseProfileCmd())

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	var reveal bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Display current configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := LoadUserConfig()
			if err != nil {
				return fmt.Errorf("no configuration at %s: %w", ConfigPath(), err)
			}
			if !reveal {
				cfg = maskConfig(cfg)
			}

			if getOutputFormat(cmd) == "json" {
				return printJSON(os.Stdout, cfg)
			}
			rendered, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("marshal config: %w", err)
			}
			_, _ = os.Stdout.Write(rendered)
			return nil
		},
	}

	cmd.Flags().BoolVar(&reveal, "reveal", false, "Show sensitive values unmasked")

	return cmd
}

// maskConfig copies the config with credentials masked for display.
func maskConfig(cfg *UserConfig) *UserConfig {
	masked := &UserConfig{
		CurrentProfile: cfg.CurrentProfile,
		Profiles:       make(map[string]Profile, len(cfg.Profiles)),
	}
	for name, p := range cfg.Profiles {
		p.APIKey = maskSecret(p.APIKey)
		p.Token = maskSecret(p.Token)
		masked.Profiles[name] = p
	}
	return masked
}

// maskSecret keeps the first and last four characters of long secrets and
// hides short ones entirely.
func maskSecret(s string) string {
	switch {
	case s == "":
		return ""
	case len(s) <= 10:
		return "****"
	default:
		return s[:4] + "****" + s[len(s)-4:]
	}
}

func newConfigSetProfileCmd() *cobra.Command {
	var values Profile
	var name string

	cmd := &cobra.Command{
		Use:   "set-profile",
		Short: "Create or update a configuration profile",
		Example: `  lakeagent config set-profile --name prod --host https://lakeagent.example.com --api-key k-prod
  lakeagent config set-profile --name local --host http://localhost:8080 --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("output-format") {
				if err := validateOutputFormat(values.Output); err != nil {
					return err
				}
			}

			cfg, err := LoadUserConfig()
			if err != nil {
				cfg = &UserConfig{
					CurrentProfile: "default",
					Profiles:       map[string]Profile{},
				}
			}

			// Only flagged fields overwrite; the rest of the profile is kept.
			p := cfg.Profiles[name]
			if cmd.Flags().Changed("host") {
				p.Host = values.Host
			}
			if cmd.Flags().Changed("api-key") {
				p.APIKey = values.APIKey
			}
			if cmd.Flags().Changed("token") {
				p.Token = values.Token
			}
			if cmd.Flags().Changed("output-format") {
				p.Output = values.Output
			}
			cfg.Profiles[name] = p

			if err := SaveUserConfig(cfg); err != nil {
				return err
			}

			if getOutputFormat(cmd) == "json" {
				return printJSON(os.Stdout, map[string]string{
					"status":  "ok",
					"profile": name,
					"path":    ConfigPath(),
				})
			}
			_, _ = fmt.Fprintf(os.Stdout, "Profile %q saved to %s\n", name, ConfigPath())
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Profile name (required)")
	cmd.Flags().StringVar(&values.Host, "host", "", "API host URL")
	cmd.Flags().StringVar(&values.APIKey, "api-key", "", "API key")
	cmd.Flags().StringVar(&values.Token, "token", "", "JWT token")
	cmd.Flags().StringVar(&values.Output, "output-format", "", "Default output format for this profile")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newConfigUseProfileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use-profile <name>",
		Short: "Set the active configuration profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			cfg, err := LoadUserConfig()
			if err != nil {
				return fmt.Errorf("no config found: %w", err)
			}
			if _, ok := cfg.Profiles[name]; !ok {
				return fmt.Errorf("profile %q not found in %s", name, ConfigPath())
			}

			cfg.CurrentProfile = name
			if err := SaveUserConfig(cfg); err != nil {
				return err
			}

			if getOutputFormat(cmd) == "json" {
				return printJSON(os.Stdout, map[string]string{
					"status":         "ok",
					"active_profile": name,
				})
			}
			_, _ = fmt.Fprintf(os.Stdout, "Active profile set to %q\n", name)
			return nil
		},
	}
}
