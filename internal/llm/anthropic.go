// Package llm implements the language-model collaborators behind the
// planner and the conversational agent: SQL generation from query plans,
// relevance ranking of candidate tables, and schedule parsing. All three
// run on the Anthropic messages API.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"lakeagent/internal/config"
	"lakeagent/internal/domain"
)

const (
	defaultBaseURL = "https://api.anthropic.com"
	messagesPath   = "/v1/messages"
	apiVersion     = "2023-06-01"

	retryBaseWait = 500 * time.Millisecond
	retryMaxWait  = 15 * time.Second
)

// Compile-time checks.
var (
	_ domain.TextGenerator  = (*Client)(nil)
	_ domain.TableRanker    = (*Client)(nil)
	_ domain.ScheduleParser = (*Client)(nil)
)

// Client talks to the Anthropic messages API. Requests pass through a rate
// limiter sized from the configured per-minute budget, and 429/5xx responses
// are retried with exponential backoff. The API key is never logged.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	maxTokens  int
	maxRetries int
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger

	// retryWait is the initial backoff between retried requests.
	// Overridable in tests.
	retryWait time.Duration
}

// NewClient builds a client from the Anthropic section of the configuration.
func NewClient(cfg config.AnthropicConfig, logger *slog.Logger) *Client {
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	perMinute := cfg.PerMinute
	if perMinute <= 0 {
		perMinute = 30
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &Client{
		baseURL:    defaultBaseURL,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		maxTokens:  maxTokens,
		maxRetries: maxRetries,
		httpClient: &http.Client{Timeout: 2 * time.Minute},
		limiter:    rate.NewLimiter(rate.Every(time.Duration(float64(time.Minute)/perMinute)), 4),
		logger:     logger,
		retryWait:  retryBaseWait,
	}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messageRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []message `json:"messages"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type messageResponse struct {
	Content    []contentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

type apiErrorBody struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// httpError carries a non-2xx response so retry logic can inspect the status.
type httpError struct {
	StatusCode int
	Message    string
}

func (e *httpError) Error() string {
	return fmt.Sprintf("anthropic http %d: %s", e.StatusCode, e.Message)
}

// complete sends one system+user exchange and returns the concatenated text
// blocks of the reply.
func (c *Client) complete(ctx context.Context, system, user string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	req := messageRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		System:    system,
		Messages:  []message{{Role: "user", Content: user}},
	}

	var resp messageResponse
	if err := c.do(ctx, &req, &resp); err != nil {
		return "", err
	}

	var out strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			out.WriteString(block.Text)
		}
	}
	if out.Len() == 0 {
		return "", fmt.Errorf("anthropic reply has no text content (stop_reason %s)", resp.StopReason)
	}

	c.logger.Debug("anthropic completion",
		"model", c.model,
		"input_tokens", resp.Usage.InputTokens,
		"output_tokens", resp.Usage.OutputTokens,
		"stop_reason", resp.StopReason,
	)
	return out.String(), nil
}

func (c *Client) do(ctx context.Context, body, out interface{}) error {
	wait := c.retryWait

	for attempt := 0; ; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		resp, raw, err := c.doOnce(ctx, body)
		if err == nil {
			if uErr := json.Unmarshal(raw, out); uErr != nil {
				return fmt.Errorf("decode response: %w", uErr)
			}
			return nil
		}

		if !isRetryable(err) || attempt == c.maxRetries {
			return err
		}

		sleep := wait
		if ra := retryAfter(resp); ra > 0 {
			sleep = ra
		}
		if sleep > retryMaxWait {
			sleep = retryMaxWait
		}

		c.logger.Warn("anthropic request retrying",
			"attempt", attempt+1,
			"max_retries", c.maxRetries,
			"sleep", sleep.String(),
			"error", err.Error(),
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(sleep):
		}
		wait *= 2
	}
}

func (c *Client) doOnce(ctx context.Context, body interface{}) (*http.Response, []byte, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+messagesPath, &buf)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", apiVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}

	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, nil, readErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(raw))
		var apiErr apiErrorBody
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error.Message != "" {
			msg = apiErr.Error.Type + ": " + apiErr.Error.Message
		}
		return resp, raw, &httpError{StatusCode: resp.StatusCode, Message: msg}
	}
	return resp, raw, nil
}

func isRetryable(err error) bool {
	he, ok := err.(*httpError)
	if !ok {
		// Transport errors (connection reset, timeout) are worth retrying.
		return true
	}
	return he.StatusCode == http.StatusTooManyRequests || he.StatusCode >= 500
}

func retryAfter(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}
	v := resp.Header.Get("Retry-After")
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
