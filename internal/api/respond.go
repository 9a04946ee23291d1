package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"lakeagent/internal/domain"
)

// errorBody is the JSON error envelope. Code repeats the HTTP status so a
// decoded body stands on its own without the response it arrived in.
type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{Code: status, Message: message})
}

// renderError maps a domain error onto its HTTP status. Anything unmapped is
// an internal error: logged with the request path, reported to the client
// without the underlying detail.
func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.As(err, new(*domain.NotFoundError)):
		status = http.StatusNotFound
	case errors.As(err, new(*domain.ValidationError)):
		status = http.StatusBadRequest
	case errors.As(err, new(*domain.ConflictError)):
		status = http.StatusConflict
	case errors.As(err, new(*domain.NoRelevantTablesError)):
		status = http.StatusUnprocessableEntity
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}

// decodeJSON reads the request body into dst, mapping malformed JSON to a
// ValidationError so it renders as a 400.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domain.ErrValidation("invalid JSON body: %v", err)
	}
	return nil
}

// listResponse wraps collection results the way every list endpoint returns
// them.
type listResponse[T any] struct {
	Data  []T `json:"data"`
	Total int `json:"total"`
}

func list[T any](items []T) listResponse[T] {
	if items == nil {
		items = []T{}
	}
	return listResponse[T]{Data: items, Total: len(items)}
}
