package cli

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// === NewClient ===

func TestNewClient_TrailingSlash(t *testing.T) {
	c := NewClient("http://localhost:8080/", "", "")
	assert.Equal(t, "http://localhost:8080", c.BaseURL)
}

func TestNewClient_SetsTimeout(t *testing.T) {
	c := NewClient("http://localhost:8080", "", "")
	require.NotNil(t, c.HTTPClient)
	assert.Equal(t, 30*time.Second, c.HTTPClient.Timeout)
}

// === Client.Do ===

func TestDo_PrefixesV1(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, "", "")
	resp, err := c.Do(http.MethodGet, "/tables", nil, nil)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "/v1/tables", gotPath)
}

func TestDo_QueryParams(t *testing.T) {
	var gotRawQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRawQuery = r.URL.RawQuery
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, "", "")
	q := url.Values{}
	q.Set("layer", "gold")
	q.Set("max_hops", "3")

	resp, err := c.Do(http.MethodGet, "/tables", q, nil)
	require.NoError(t, err)
	resp.Body.Close()

	parsed, err := url.ParseQuery(gotRawQuery)
	require.NoError(t, err)
	assert.Equal(t, "gold", parsed.Get("layer"))
	assert.Equal(t, "3", parsed.Get("max_hops"))
}

func TestDo_WithBody(t *testing.T) {
	var (
		gotContentType string
		gotBody        []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, "", "")
	body := map[string]string{"name": "silver.orders"}
	resp, err := c.Do(http.MethodPost, "/tables", nil, body)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "application/json", gotContentType)

	var parsed map[string]string
	require.NoError(t, json.Unmarshal(gotBody, &parsed))
	assert.Equal(t, "silver.orders", parsed["name"])
}

func TestDo_NoBodyOmitsContentType(t *testing.T) {
	var gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, "", "")
	resp, err := c.Do(http.MethodGet, "/tables", nil, nil)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Empty(t, gotContentType)
}

// === Client.JSON ===

func TestJSON_DecodesEnvelopeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"code":409,"message":"relationship already exists"}`))
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, "", "")
	err := c.JSON(http.MethodPost, "/relationships", nil, map[string]string{}, nil)
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.HTTPStatus)
	assert.Equal(t, http.StatusConflict, apiErr.Code)
	assert.Equal(t, "relationship already exists", apiErr.Message)
}

func TestJSON_NonEnvelopeErrorKeepsRawBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream unavailable"))
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, "", "")
	err := c.JSON(http.MethodGet, "/tables", nil, nil, nil)
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.HTTPStatus)
	assert.Contains(t, apiErr.Message, "upstream unavailable")
}

func TestJSON_DecodesSuccessBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"term":"revenue"}],"total":1}`))
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, "", "")
	var out listEnvelope[map[string]string]
	require.NoError(t, c.JSON(http.MethodGet, "/glossary", nil, nil, &out))

	assert.Equal(t, 1, out.Total)
	require.Len(t, out.Data, 1)
	assert.Equal(t, "revenue", out.Data[0]["term"])
}

func TestJSON_NilOutSkipsDecode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, "", "")
	assert.NoError(t, c.JSON(http.MethodDelete, "/jobs/j1", nil, nil, nil))
}
