package api

import (
	"net/http"

	"lakeagent/internal/domain"
)

// GlossaryList returns all business terms in registration order.
func (h *Handler) GlossaryList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, list(h.store.Terms()))
}

// GlossaryAdd registers a business term, replacing the definition in place
// when the term name is already known.
func (h *Handler) GlossaryAdd(w http.ResponseWriter, r *http.Request) {
	var req domain.AddTermRequest
	if err := decodeJSON(r, &req); err != nil {
		h.renderError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		h.renderError(w, r, err)
		return
	}

	term := domain.BusinessTerm{
		Term:       req.Term,
		Aliases:    req.Aliases,
		Kind:       domain.TermKind(req.Kind),
		Expression: req.Expression,
		Tables:     req.Tables,
		Columns:    req.Columns,
		Definition: req.Definition,
	}
	if err := h.store.AddTerm(r.Context(), term); err != nil {
		h.renderError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, term)
}

// GlossaryResolve finds the first registered term whose phrase or alias
// occurs in the q parameter text.
func (h *Handler) GlossaryResolve(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		h.renderError(w, r, domain.ErrValidation("q is required"))
		return
	}
	term, err := h.store.ResolveTerm(q)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, term)
}
