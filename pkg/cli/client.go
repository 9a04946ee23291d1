package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// APIError is a non-2xx answer from the server, decoded from the JSON error
// envelope when one was sent.
type APIError struct {
	HTTPStatus int
	Code       int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("API error (HTTP %d): %s", e.HTTPStatus, e.Message)
	}
	return fmt.Sprintf("API error (HTTP %d)", e.HTTPStatus)
}

// Client is an HTTP client for the lakeagent API. Fields are mutated by the
// root command after flag/env/profile resolution.
type Client struct {
	BaseURL    string
	APIKey     string
	Token      string
	HTTPClient *http.Client
}

// NewClient builds a client for the given host.
func NewClient(baseURL, apiKey, token string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Token:   token,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Do sends one request. The path is relative to /v1; query and body may be
// nil. The caller owns the response body.
func (c *Client) Do(method, path string, query url.Values, body interface{}) (*http.Response, error) {
	endpoint := strings.TrimRight(c.BaseURL, "/") + "/v1" + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	} else if c.APIKey != "" {
		req.Header.Set("X-API-Key", c.APIKey)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s %s: %w", method, path, err)
	}
	return resp, nil
}

// JSON sends one request and decodes a 2xx response into out. Non-2xx
// responses come back as *APIError; out may be nil when the caller does not
// need the body.
func (c *Client) JSON(method, path string, query url.Values, body, out interface{}) error {
	resp, err := c.Do(method, path, query, body)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// decodeAPIError turns a non-2xx response into an *APIError, falling back to
// the raw body when the envelope does not parse.
func decodeAPIError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	var envelope struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &envelope); err == nil && envelope.Message != "" {
		return &APIError{HTTPStatus: resp.StatusCode, Code: envelope.Code, Message: envelope.Message}
	}
	return &APIError{HTTPStatus: resp.StatusCode, Message: strings.TrimSpace(string(data))}
}

// listEnvelope mirrors the API's collection wrapper.
type listEnvelope[T any] struct {
	Data  []T `json:"data"`
	Total int `json:"total"`
}
