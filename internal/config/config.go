// Package config handles application configuration and environment loading.
package config

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

const insecureDevSecret = "dev-secret-do-not-use-in-production"

// DatabricksConfig holds warehouse connection settings for the Databricks
// SQL statement API.
type DatabricksConfig struct {
	Host        string        // workspace URL (e.g., https://adb-123.azuredatabricks.net)
	Token       string        // personal access token; never logged
	WarehouseID string        // SQL warehouse id statements run on
	Timeout     time.Duration // per-statement wall clock budget (default: 2m)
	PollEvery   time.Duration // polling interval for pending statements (default: 1s)
}

// Configured returns true when all fields required to reach the warehouse
// are present.
func (d *DatabricksConfig) Configured() bool {
	return d.Host != "" && d.Token != "" && d.WarehouseID != ""
}

// AnthropicConfig holds settings for the text-generation collaborator.
type AnthropicConfig struct {
	APIKey     string  // never logged
	Model      string  // default: claude-sonnet-4-20250514
	MaxTokens  int     // completion budget per call (default: 4096)
	PerMinute  float64 // sustained request rate limit (default: 30/min)
	MaxRetries int     // retries on 429/5xx (default: 3)
}

// Configured returns true when the API key is present.
func (a *AnthropicConfig) Configured() bool { return a.APIKey != "" }

// Config holds the configuration for the HTTP API, the local metadata store,
// and the warehouse/LLM collaborators.
type Config struct {
	MetaDBPath        string // path to SQLite metadata file (catalog snapshot, jobs, conversations)
	DuckDBPath        string // path to the local DuckDB warehouse file (default "lakeagent.duckdb")
	CatalogName       string // warehouse catalog tables are registered under (default "main")
	ListenAddr        string // HTTP listen address (default ":8080")
	TLSCertFile       string // TLS certificate file path (optional)
	TLSKeyFile        string // TLS private key file path (optional)
	AllowInsecureHTTP bool   // allow non-TLS listener in production (for trusted TLS termination)
	JWTSecret         string // HS256 secret for API tokens and UI session cookies
	APIKeys           []string
	LogLevel          string // log level: debug, info, warn, error (default "info")
	Env               string // environment: "development" (default) or "production"

	// Rate limiting
	RateLimitRPS   float64 // sustained requests per second (default 100)
	RateLimitBurst int     // burst capacity (default 200)

	// CORS
	CORSAllowedOrigins []string // allowed origins for CORS (default: ["*"])

	// Databricks holds warehouse connection settings. When absent the
	// server runs against the embedded DuckDB warehouse instead.
	Databricks DatabricksConfig

	// Anthropic holds text-generation settings. When absent, planning
	// still works; SQL generation and chat degrade to plan-only replies.
	Anthropic AnthropicConfig

	// Warnings collects non-fatal warnings generated during config loading.
	// These are logged by the caller after the logger is initialised.
	Warnings []string
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// IsProduction returns true when the server is running in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// UseDatabricks returns true when statements should run on Databricks rather
// than the embedded DuckDB warehouse.
func (c *Config) UseDatabricks() bool {
	return c.Databricks.Configured()
}

// LoadFromEnv loads configuration from environment variables. Databricks and
// Anthropic variables are optional; the app can start without them.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		MetaDBPath:  os.Getenv("META_DB_PATH"),
		DuckDBPath:  os.Getenv("DUCKDB_PATH"),
		CatalogName: os.Getenv("CATALOG_NAME"),
		ListenAddr:  os.Getenv("LISTEN_ADDR"),
		TLSCertFile: os.Getenv("TLS_CERT_FILE"),
		TLSKeyFile:  os.Getenv("TLS_KEY_FILE"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		LogLevel:    os.Getenv("LOG_LEVEL"),
		Env:         os.Getenv("ENV"),
	}

	// Rate limiting
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RateLimitRPS = f
		}
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimitBurst = n
		}
	}

	if v := os.Getenv("API_KEYS"); v != "" {
		keys := strings.Split(v, ",")
		for i := range keys {
			keys[i] = strings.TrimSpace(keys[i])
		}
		cfg.APIKeys = compactNonEmpty(keys)
	}

	// CORS
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		origins := strings.Split(v, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		cfg.CORSAllowedOrigins = origins
	}
	if strings.EqualFold(os.Getenv("ALLOW_INSECURE_HTTP"), "true") {
		cfg.AllowInsecureHTTP = true
	}

	// Databricks warehouse
	cfg.Databricks = DatabricksConfig{
		Host:        strings.TrimRight(os.Getenv("DATABRICKS_HOST"), "/"),
		Token:       os.Getenv("DATABRICKS_TOKEN"),
		WarehouseID: os.Getenv("DATABRICKS_WAREHOUSE_ID"),
	}
	if v := os.Getenv("DATABRICKS_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Databricks.Timeout = d
		}
	}
	if v := os.Getenv("DATABRICKS_POLL_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Databricks.PollEvery = d
		}
	}

	// Anthropic text generation
	cfg.Anthropic = AnthropicConfig{
		APIKey: os.Getenv("ANTHROPIC_API_KEY"),
		Model:  os.Getenv("ANTHROPIC_MODEL"),
	}
	if v := os.Getenv("ANTHROPIC_MAX_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Anthropic.MaxTokens = n
		}
	}
	if v := os.Getenv("ANTHROPIC_REQUESTS_PER_MINUTE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Anthropic.PerMinute = f
		}
	}
	if v := os.Getenv("ANTHROPIC_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Anthropic.MaxRetries = n
		}
	}

	// Defaults
	if cfg.MetaDBPath == "" {
		cfg.MetaDBPath = "lakeagent_meta.sqlite"
	}
	if cfg.DuckDBPath == "" {
		cfg.DuckDBPath = "lakeagent.duckdb"
	}
	if cfg.CatalogName == "" {
		cfg.CatalogName = "main"
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if (cfg.TLSCertFile == "") != (cfg.TLSKeyFile == "") {
		return nil, fmt.Errorf("both TLS_CERT_FILE and TLS_KEY_FILE must be set together")
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = insecureDevSecret
		cfg.Warnings = append(cfg.Warnings, "JWT_SECRET not set; using insecure default. Set JWT_SECRET in production!")
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.RateLimitRPS == 0 {
		cfg.RateLimitRPS = 100
	}
	if cfg.RateLimitBurst == 0 {
		cfg.RateLimitBurst = 200
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{"*"}
	}
	if cfg.Databricks.Timeout == 0 {
		cfg.Databricks.Timeout = 2 * time.Minute
	}
	if cfg.Databricks.PollEvery == 0 {
		cfg.Databricks.PollEvery = time.Second
	}
	if cfg.Anthropic.Model == "" {
		cfg.Anthropic.Model = "claude-sonnet-4-20250514"
	}
	if cfg.Anthropic.MaxTokens == 0 {
		cfg.Anthropic.MaxTokens = 4096
	}
	if cfg.Anthropic.PerMinute == 0 {
		cfg.Anthropic.PerMinute = 30
	}
	if cfg.Anthropic.MaxRetries == 0 {
		cfg.Anthropic.MaxRetries = 3
	}
	if !cfg.Databricks.Configured() {
		cfg.Warnings = append(cfg.Warnings, "Databricks is not configured; statements run on the embedded DuckDB warehouse")
	}
	if !cfg.Anthropic.Configured() {
		cfg.Warnings = append(cfg.Warnings, "ANTHROPIC_API_KEY not set; SQL generation and chat run in plan-only mode")
	}

	// Production mode: insecure defaults are fatal errors.
	if cfg.IsProduction() {
		if cfg.JWTSecret == insecureDevSecret {
			return nil, fmt.Errorf("JWT_SECRET must be set in production (ENV=production)")
		}
		if len(cfg.APIKeys) == 0 {
			return nil, fmt.Errorf("API_KEYS must be set in production (ENV=production)")
		}
		if len(cfg.CORSAllowedOrigins) == 1 && cfg.CORSAllowedOrigins[0] == "*" {
			return nil, fmt.Errorf("CORS wildcard (*) is not allowed in production (ENV=production)")
		}
		if cfg.TLSCertFile == "" && !cfg.AllowInsecureHTTP {
			return nil, fmt.Errorf("TLS_CERT_FILE/TLS_KEY_FILE must be set in production unless ALLOW_INSECURE_HTTP=true")
		}
	}

	return cfg, nil
}

func compactNonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// LoadDotEnv reads a .env file and sets any variables not already in the environment.
// Lines must be in KEY=VALUE format. Comments (#) and blank lines are skipped.
func LoadDotEnv(path string) error {
	f, err := os.Open(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		if os.IsNotExist(err) {
			return nil // .env not found is not an error
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		value = stripQuotes(value)
		// Only set if not already in the environment (env vars take precedence)
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("setenv %s: %w", key, err)
			}
		}
	}
	return scanner.Err()
}

// stripQuotes removes surrounding double or single quotes from a value.
// Only strips if both the first and last characters are matching quotes.
func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
