package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authentication helpers",
	}

	cmd.AddCommand(newAuthTokenCmd())
	return cmd
}

func newAuthTokenCmd() *cobra.Command {
	var (
		principal string
		secret    string
		expires   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Generate a dev-mode JWT token and save it to the active profile",
		Long:  "Generate an HS256 JWT token signed with the server's shared secret. When --secret is omitted the secret is read interactively without echo. The token is saved to the active profile automatically.",
		Example: `  # Generate a token for admin and save it to the active profile
  lakeagent auth token --principal admin --secret dev-secret-do-not-use-in-production

  # Prompt for the secret instead of passing it on the command line
  lakeagent auth token --principal admin --expires 48h`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if secret == "" {
				_, _ = fmt.Fprint(os.Stderr, "Signing secret: ")
				raw, err := term.ReadPassword(int(os.Stdin.Fd()))
				_, _ = fmt.Fprintln(os.Stderr)
				if err != nil {
					return fmt.Errorf("read secret: %w", err)
				}
				secret = string(raw)
			}
			if secret == "" {
				return fmt.Errorf("a signing secret is required")
			}

			now := time.Now()
			claims := jwt.MapClaims{
				"sub": principal,
				"iat": now.Unix(),
				"exp": now.Add(expires).Unix(),
			}

			token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
			signed, err := token.SignedString([]byte(secret))
			if err != nil {
				return fmt.Errorf("sign token: %w", err)
			}

			// Save to active profile
			cfg, err := LoadUserConfig()
			if err != nil {
				cfg = &UserConfig{Profiles: make(map[string]Profile)}
			}
			profileName := cfg.CurrentProfile
			if profileName == "" {
				profileName = "default"
				cfg.CurrentProfile = profileName
			}
			if cfg.Profiles == nil {
				cfg.Profiles = make(map[string]Profile)
			}
			p := cfg.Profiles[profileName]
			p.Token = signed
			cfg.Profiles[profileName] = p
			if err := SaveUserConfig(cfg); err != nil {
				return fmt.Errorf("save config: %w", err)
			}

			_, _ = fmt.Fprintln(os.Stdout, signed)
			return nil
		},
	}

	cmd.Flags().StringVar(&principal, "principal", "", "Principal name (JWT sub claim)")
	cmd.Flags().StringVar(&secret, "secret", "", "JWT signing secret (HS256); prompted when omitted")
	cmd.Flags().DurationVar(&expires, "expires", 24*time.Hour, "Token expiry duration")
	_ = cmd.MarkFlagRequired("principal")

	return cmd
}
