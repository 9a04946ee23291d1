// Package warehouse provides statement execution against the configured
// SQL warehouse: either a Databricks SQL warehouse reached over the
// statement execution API, or an embedded DuckDB database for local
// development. Both satisfy domain.StatementExecutor so the rest of the
// system never knows which one it is talking to.
package warehouse

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"lakeagent/internal/config"
	"lakeagent/internal/domain"
)

// Statement execution states reported by the Databricks API.
const (
	statePending   = "PENDING"
	stateRunning   = "RUNNING"
	stateSucceeded = "SUCCEEDED"
	stateFailed    = "FAILED"
	stateCanceled  = "CANCELED"
	stateClosed    = "CLOSED"
)

const (
	statementsPath = "/api/2.0/sql/statements"

	// How long the warehouse should hold the submit call open before we
	// switch to polling. The API accepts 0s-50s.
	submitWaitTimeout = "30s"

	maxRetries    = 3
	retryBaseWait = 500 * time.Millisecond
	retryMaxWait  = 10 * time.Second
)

// Compile-time check.
var _ domain.StatementExecutor = (*DatabricksClient)(nil)

// DatabricksClient executes SQL statements on a Databricks SQL warehouse
// via the statement execution REST API. Statements are submitted with a
// short server-side wait and then polled until they reach a terminal state.
type DatabricksClient struct {
	host        string
	token       string
	warehouseID string
	timeout     time.Duration
	pollEvery   time.Duration
	httpClient  *http.Client
	logger      *slog.Logger

	// retryWait is the initial backoff between retried requests.
	// Overridable in tests.
	retryWait time.Duration
}

// NewDatabricksClient builds a client from the Databricks section of the
// configuration. The token is kept in memory only and never logged.
func NewDatabricksClient(cfg config.DatabricksConfig, logger *slog.Logger) *DatabricksClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	pollEvery := cfg.PollEvery
	if pollEvery <= 0 {
		pollEvery = time.Second
	}
	return &DatabricksClient{
		host:        cfg.Host,
		token:       cfg.Token,
		warehouseID: cfg.WarehouseID,
		timeout:     timeout,
		pollEvery:   pollEvery,
		httpClient:  &http.Client{Timeout: timeout},
		logger:      logger,
		retryWait:   retryBaseWait,
	}
}

type statementRequest struct {
	Statement   string `json:"statement"`
	WarehouseID string `json:"warehouse_id"`
	WaitTimeout string `json:"wait_timeout,omitempty"`
	Disposition string `json:"disposition,omitempty"`
	Format      string `json:"format,omitempty"`
}

type statementError struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
}

type statementStatus struct {
	State string          `json:"state"`
	Error *statementError `json:"error,omitempty"`
}

type manifestColumn struct {
	Name     string `json:"name"`
	TypeText string `json:"type_text"`
	Position int    `json:"position"`
}

type statementManifest struct {
	Schema struct {
		Columns []manifestColumn `json:"columns"`
	} `json:"schema"`
	TotalRowCount int64 `json:"total_row_count"`
}

type statementResult struct {
	// JSON_ARRAY disposition: every cell is a string, NULL cells are null.
	DataArray [][]*string `json:"data_array"`
	RowCount  int64       `json:"row_count"`
}

type statementResponse struct {
	StatementID string             `json:"statement_id"`
	Status      statementStatus    `json:"status"`
	Manifest    *statementManifest `json:"manifest,omitempty"`
	Result      *statementResult   `json:"result,omitempty"`
}

// httpError carries a non-2xx response so retry logic can inspect the status.
type httpError struct {
	StatusCode int
	Body       string
}

func (e *httpError) Error() string {
	return fmt.Sprintf("databricks http %d: %s", e.StatusCode, e.Body)
}

// Execute submits sqlText to the warehouse and blocks until the statement
// reaches a terminal state or the configured timeout expires.
func (c *DatabricksClient) Execute(ctx context.Context, sqlText string) (*domain.QueryResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req := statementRequest{
		Statement:   sqlText,
		WarehouseID: c.warehouseID,
		WaitTimeout: submitWaitTimeout,
		Disposition: "INLINE",
		Format:      "JSON_ARRAY",
	}

	var resp statementResponse
	if err := c.do(ctx, http.MethodPost, statementsPath, req, &resp); err != nil {
		return nil, fmt.Errorf("submit statement: %w", err)
	}

	c.logger.Debug("statement submitted",
		"statement_id", resp.StatementID,
		"state", resp.Status.State,
	)

	for resp.Status.State == statePending || resp.Status.State == stateRunning {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("statement %s: %w", resp.StatementID, ctx.Err())
		case <-time.After(c.pollEvery):
		}
		if err := c.do(ctx, http.MethodGet, statementsPath+"/"+resp.StatementID, nil, &resp); err != nil {
			return nil, fmt.Errorf("poll statement %s: %w", resp.StatementID, err)
		}
	}

	switch resp.Status.State {
	case stateSucceeded:
		return buildResult(&resp), nil
	case stateFailed, stateCanceled, stateClosed:
		msg := "no error detail"
		if resp.Status.Error != nil {
			msg = resp.Status.Error.Message
			if resp.Status.Error.ErrorCode != "" {
				msg = resp.Status.Error.ErrorCode + ": " + msg
			}
		}
		return nil, fmt.Errorf("statement %s %s: %s", resp.StatementID, resp.Status.State, msg)
	default:
		return nil, fmt.Errorf("statement %s: unexpected state %q", resp.StatementID, resp.Status.State)
	}
}

func buildResult(resp *statementResponse) *domain.QueryResult {
	out := &domain.QueryResult{Columns: []string{}, Rows: [][]interface{}{}}
	if resp.Manifest != nil {
		out.Columns = make([]string, len(resp.Manifest.Schema.Columns))
		for i, col := range resp.Manifest.Schema.Columns {
			out.Columns[i] = col.Name
		}
	}
	if resp.Result != nil {
		out.Rows = make([][]interface{}, len(resp.Result.DataArray))
		for i, raw := range resp.Result.DataArray {
			row := make([]interface{}, len(raw))
			for j, cell := range raw {
				if cell != nil {
					row[j] = *cell
				}
			}
			out.Rows[i] = row
		}
		out.RowCount = len(out.Rows)
	}
	return out
}

// do performs one API call with retries on 429 and 5xx responses.
func (c *DatabricksClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	wait := c.retryWait

	for attempt := 0; ; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		resp, raw, err := c.doOnce(ctx, method, path, body)
		if err == nil {
			if out == nil {
				return nil
			}
			if uErr := json.Unmarshal(raw, out); uErr != nil {
				return fmt.Errorf("decode response: %w", uErr)
			}
			return nil
		}

		if !isRetryable(err) || attempt == maxRetries {
			return err
		}

		sleep := wait
		if ra := retryAfter(resp); ra > 0 {
			sleep = ra
		}
		if sleep > retryMaxWait {
			sleep = retryMaxWait
		}

		c.logger.Warn("databricks request retrying",
			"path", path,
			"attempt", attempt+1,
			"max_retries", maxRetries,
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

func (c *DatabricksClient) doOnce(ctx context.Context, method, path string, body interface{}) (*http.Response, []byte, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.host+path, &buf)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
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
		return resp, raw, &httpError{StatusCode: resp.StatusCode, Body: string(raw)}
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
