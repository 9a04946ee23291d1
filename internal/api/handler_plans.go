package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"lakeagent/internal/domain"
)

type createPlanRequest struct {
	Request string `json:"request"`
}

// PlansCreate plans a transformation request and records the attempt. When a
// SQL generator is configured the draft statement rides along in the plan;
// a generation failure downgrades the response to plan-only rather than
// failing it.
func (h *Handler) PlansCreate(w http.ResponseWriter, r *http.Request) {
	var req createPlanRequest
	if err := decodeJSON(r, &req); err != nil {
		h.renderError(w, r, err)
		return
	}

	plan, err := h.planner.Plan(r.Context(), req.Request)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	planJSON, _ := json.Marshal(plan)
	if err := h.planRuns.Create(r.Context(), &domain.PlanRun{
		ID:       plan.ID,
		Request:  plan.Request,
		PlanJSON: string(planJSON),
	}); err != nil {
		h.renderError(w, r, err)
		return
	}

	if h.generator != nil {
		sqlText, err := h.generator.GenerateSQL(r.Context(), plan)
		if err != nil {
			h.logger.Warn("sql generation failed", "plan_id", plan.ID, "error", err)
		} else {
			plan.GeneratedSQL = sqlText
			if err := h.planRuns.SetSQL(r.Context(), plan.ID, sqlText); err != nil {
				h.renderError(w, r, err)
				return
			}
		}
	}

	writeJSON(w, http.StatusCreated, plan)
}

// PlansGet returns the recorded lifecycle of one planning attempt.
func (h *Handler) PlansGet(w http.ResponseWriter, r *http.Request) {
	run, err := h.planRuns.Get(r.Context(), chi.URLParam(r, "planID"))
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

type chatRequest struct {
	ConversationID string `json:"conversation_id,omitempty"`
	Message        string `json:"message"`
}

type chatResponse struct {
	ConversationID string `json:"conversation_id"`
	Reply          string `json:"reply"`
}

// Chat hands one message to the agent. A missing conversation_id starts a
// fresh session; the minted id comes back in the response for the caller to
// carry forward.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		h.renderError(w, r, err)
		return
	}

	reply, err := h.agent.Handle(r.Context(), req.ConversationID, req.Message)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{ConversationID: reply.SessionID, Reply: reply.Text})
}
