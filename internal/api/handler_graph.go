package api

import (
	"errors"
	"net/http"
	"strconv"

	"lakeagent/internal/domain"
)

const defaultMaxHops = 3

func maxHopsFromQuery(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("max_hops")
	if raw == "" {
		return defaultMaxHops, nil
	}
	hops, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.ErrValidation("max_hops %q must be an integer", raw)
	}
	return hops, nil
}

type joinPathResponse struct {
	Reachable bool             `json:"reachable"`
	From      string           `json:"from"`
	To        string           `json:"to"`
	MaxHops   int              `json:"max_hops"`
	Path      *domain.JoinPath `json:"path,omitempty"`
}

// JoinPath returns a shortest join path between two tables. An unreachable
// pair is a planning outcome, not a lookup failure: it renders as a 200 with
// reachable=false.
func (h *Handler) JoinPath(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("from") == "" || q.Get("to") == "" {
		h.renderError(w, r, domain.ErrValidation("from and to are required"))
		return
	}
	from, err := normalizeTableName(q.Get("from"))
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	to, err := normalizeTableName(q.Get("to"))
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	maxHops, err := maxHopsFromQuery(r)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	path, err := h.store.FindJoinPath(from, to, maxHops)
	if err != nil {
		if errors.As(err, new(*domain.UnreachableError)) {
			writeJSON(w, http.StatusOK, joinPathResponse{From: from, To: to, MaxHops: maxHops})
			return
		}
		h.renderError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, joinPathResponse{Reachable: true, From: from, To: to, MaxHops: maxHops, Path: &path})
}

// RelatedTables returns every table reachable from the given one within
// max_hops relationship traversals, nearest first.
func (h *Handler) RelatedTables(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("from") == "" {
		h.renderError(w, r, domain.ErrValidation("from is required"))
		return
	}
	from, err := normalizeTableName(r.URL.Query().Get("from"))
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	maxHops, err := maxHopsFromQuery(r)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list(h.store.RelatedTables(from, maxHops)))
}
