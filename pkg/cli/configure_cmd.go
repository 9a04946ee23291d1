package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newConfigureCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "configure",
		Short: "Interactively set up a configuration profile",
		Long:  "Prompt for the API host and credentials and save them as a profile. The API key is read without echo; leave it empty to keep or clear the stored value.",
		Example: `  lakeagent configure
  lakeagent configure --name prod`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := LoadUserConfig()
			if err != nil {
				cfg = &UserConfig{
					CurrentProfile: "default",
					Profiles:       map[string]Profile{},
				}
			}
			p := cfg.Profiles[name]

			reader := bufio.NewReader(os.Stdin)

			currentHost := p.Host
			if currentHost == "" {
				currentHost = "http://localhost:8080"
			}
			_, _ = fmt.Fprintf(os.Stderr, "API host [%s]: ", currentHost)
			hostLine, err := reader.ReadString('\n')
			if err != nil {
				return fmt.Errorf("read host: %w", err)
			}
			if host := strings.TrimSpace(hostLine); host != "" {
				p.Host = host
			} else {
				p.Host = currentHost
			}

			_, _ = fmt.Fprint(os.Stderr, "API key (empty keeps current): ")
			rawKey, err := term.ReadPassword(int(os.Stdin.Fd()))
			_, _ = fmt.Fprintln(os.Stderr)
			if err != nil {
				return fmt.Errorf("read api key: %w", err)
			}
			if key := strings.TrimSpace(string(rawKey)); key != "" {
				p.APIKey = key
			}

			_, _ = fmt.Fprintf(os.Stderr, "Default output format (table/json) [%s]: ", valueOr(p.Output, "table"))
			outLine, err := reader.ReadString('\n')
			if err != nil {
				return fmt.Errorf("read output format: %w", err)
			}
			if out := strings.TrimSpace(outLine); out != "" {
				if err := validateOutputFormat(out); err != nil {
					return err
				}
				p.Output = out
			}

			cfg.Profiles[name] = p
			cfg.CurrentProfile = name
			if err := SaveUserConfig(cfg); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(os.Stdout, "Profile %q saved to %s and made active\n", name, ConfigPath())
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "default", "Profile name to create or update")

	return cmd
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
