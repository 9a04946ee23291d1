package api

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lakeagent/internal/catalog"
	"lakeagent/internal/domain"
)

func TestAPI_PlansCreate(t *testing.T) {
	env := newTestServer(t, starStore(t))

	resp := doRequest(t, http.MethodPost, env.srv.URL+"/v1/plans", `{"request":"build a revenue summary by region"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	plan := decodeBody[domain.QueryPlan](t, resp)
	assert.NotEmpty(t, plan.ID)
	assert.Equal(t, domain.LayerGold, plan.TargetLayer)
	assert.Equal(t, "gold.orders_summary", plan.TargetTable)
	assert.Equal(t, "main.silver.orders", plan.Primary.Table.Name.String())
	assert.Equal(t, env.generator.sql, plan.GeneratedSQL)

	run, err := env.planRuns.Get(context.Background(), plan.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PlanStatusPlanned, run.Status)
	assert.Equal(t, env.generator.sql, run.SQLText)
	assert.NotEmpty(t, run.PlanJSON)
}

func TestAPI_PlansCreate_NoGenerator(t *testing.T) {
	env := newTestServer(t, starStore(t))
	env.handler.generator = nil

	resp := doRequest(t, http.MethodPost, env.srv.URL+"/v1/plans", `{"request":"build a revenue summary by region"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	plan := decodeBody[domain.QueryPlan](t, resp)
	assert.Empty(t, plan.GeneratedSQL)
}

func TestAPI_PlansCreate_GenerationFailureDowngrades(t *testing.T) {
	env := newTestServer(t, starStore(t))
	env.generator.err = errors.New("model overloaded")

	resp := doRequest(t, http.MethodPost, env.srv.URL+"/v1/plans", `{"request":"build a revenue summary by region"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	plan := decodeBody[domain.QueryPlan](t, resp)
	assert.Empty(t, plan.GeneratedSQL)

	run, err := env.planRuns.Get(context.Background(), plan.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PlanStatusPlanned, run.Status)
	assert.Empty(t, run.SQLText)
}

func TestAPI_PlansCreate_NoTablesInLayer(t *testing.T) {
	env := newTestServer(t, catalog.NewStore(nil))

	resp := doRequest(t, http.MethodPost, env.srv.URL+"/v1/plans", `{"request":"clean the raw files"}`)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	body := decodeBody[errorBody](t, resp)
	assert.Equal(t, http.StatusUnprocessableEntity, body.Code)
	assert.Contains(t, body.Message, "bronze")
}

func TestAPI_PlansCreate_EmptyRequest(t *testing.T) {
	env := newTestServer(t, starStore(t))

	resp := doRequest(t, http.MethodPost, env.srv.URL+"/v1/plans", `{"request":""}`)
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_PlansGet(t *testing.T) {
	env := newTestServer(t, starStore(t))

	created := doRequest(t, http.MethodPost, env.srv.URL+"/v1/plans", `{"request":"build a revenue summary by region"}`)
	require.Equal(t, http.StatusCreated, created.StatusCode)
	plan := decodeBody[domain.QueryPlan](t, created)

	t.Run("found", func(t *testing.T) {
		resp := doRequest(t, http.MethodGet, env.srv.URL+"/v1/plans/"+plan.ID, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		run := decodeBody[domain.PlanRun](t, resp)
		assert.Equal(t, plan.ID, run.ID)
		assert.Equal(t, "build a revenue summary by region", run.Request)
	})

	t.Run("unknown id is 404", func(t *testing.T) {
		resp := doRequest(t, http.MethodGet, env.srv.URL+"/v1/plans/not-a-plan", "")
		defer resp.Body.Close() //nolint:errcheck
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestAPI_Chat(t *testing.T) {
	env := newTestServer(t, starStore(t))

	t.Run("greeting mints a conversation", func(t *testing.T) {
		resp := doRequest(t, http.MethodPost, env.srv.URL+"/v1/chat", `{"message":"hello"}`)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body := decodeBody[chatResponse](t, resp)
		assert.NotEmpty(t, body.ConversationID)
		assert.Contains(t, body.Reply, "plain-language requests")
	})

	t.Run("transform then confirm", func(t *testing.T) {
		resp := doRequest(t, http.MethodPost, env.srv.URL+"/v1/chat",
			`{"conversation_id":"s1","message":"build a revenue summary by region"}`)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body := decodeBody[chatResponse](t, resp)
		assert.Equal(t, "s1", body.ConversationID)
		assert.Contains(t, body.Reply, `Reply "yes" to run it`)

		resp = doRequest(t, http.MethodPost, env.srv.URL+"/v1/chat", `{"conversation_id":"s1","message":"yes"}`)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body = decodeBody[chatResponse](t, resp)
		assert.Contains(t, body.Reply, "gold.orders_summary is ready")
		require.Len(t, env.executor.got, 1)
		assert.Equal(t, env.generator.sql, env.executor.got[0])
	})

	t.Run("empty message is 400", func(t *testing.T) {
		resp := doRequest(t, http.MethodPost, env.srv.URL+"/v1/chat", `{"message":"  "}`)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)

		body := decodeBody[errorBody](t, resp)
		assert.Equal(t, http.StatusBadRequest, body.Code)
	})

	t.Run("malformed body is 400", func(t *testing.T) {
		resp := doRequest(t, http.MethodPost, env.srv.URL+"/v1/chat", `{"message":`)
		defer resp.Body.Close() //nolint:errcheck
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}
