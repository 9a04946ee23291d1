package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"lakeagent/internal/domain"
)

// JobsList returns all scheduled jobs, newest first.
func (h *Handler) JobsList(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.jobs.List(r.Context())
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list(jobs))
}

type createJobRequest struct {
	Name    string `json:"name"`
	Cron    string `json:"cron"`
	Request string `json:"request,omitempty"`
	SQLText string `json:"sql_text,omitempty"`
	Enabled *bool  `json:"enabled,omitempty"`
}

// JobsCreate registers a scheduled job and, when enabled, adds it to the
// running cron scheduler. The cron expression is checked before anything is
// written so an invalid schedule never leaves a job row behind.
func (h *Handler) JobsCreate(w http.ResponseWriter, r *http.Request) {
	var req createJobRequest
	if err := decodeJSON(r, &req); err != nil {
		h.renderError(w, r, err)
		return
	}
	if req.Cron != "" {
		if _, err := cron.ParseStandard(req.Cron); err != nil {
			h.renderError(w, r, domain.ErrValidation("cron expression %q is invalid: %v", req.Cron, err))
			return
		}
	}

	job := domain.Job{
		ID:      uuid.NewString(),
		Name:    req.Name,
		Cron:    req.Cron,
		Request: req.Request,
		SQLText: req.SQLText,
		Enabled: req.Enabled == nil || *req.Enabled,
	}
	if err := h.jobs.Create(r.Context(), &job); err != nil {
		h.renderError(w, r, err)
		return
	}
	if job.Enabled && h.scheduler != nil {
		if err := h.scheduler.Add(job); err != nil {
			h.renderError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusCreated, job)
}

// JobsDelete removes a job and unhooks it from the scheduler.
func (h *Handler) JobsDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "jobID")
	if err := h.jobs.Delete(r.Context(), id); err != nil {
		h.renderError(w, r, err)
		return
	}
	if h.scheduler != nil {
		h.scheduler.Remove(id)
	}
	w.WriteHeader(http.StatusNoContent)
}
