package ui

import (
	"errors"
	"net/http"
	"strings"

	"lakeagent/internal/domain"
)

func (h *Handler) renderServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	title := "Unexpected Error"
	message := "An unexpected error occurred while loading this page."

	var notFound *domain.NotFoundError
	var validation *domain.ValidationError
	var conflict *domain.ConflictError
	var noTables *domain.NoRelevantTablesError
	if errors.As(err, &notFound) {
		status = http.StatusNotFound
		title = "Not Found"
		message = notFound.Error()
	} else if errors.As(err, &validation) {
		status = http.StatusBadRequest
		title = "Invalid Request"
		message = validation.Error()
	} else if errors.As(err, &conflict) {
		status = http.StatusConflict
		title = "Conflict"
		message = conflict.Error()
	} else if errors.As(err, &noTables) {
		status = http.StatusUnprocessableEntity
		title = "Nothing to Plan"
		message = noTables.Error()
	} else {
		h.logger.Error("page render failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}

	renderHTML(w, status, errorPage(title, message))
}

func stringsJoin(values []string) string {
	if len(values) == 0 {
		return "-"
	}
	out := values[0]
	for i := 1; i < len(values); i++ {
		out += ", " + values[i]
	}
	return out
}

func dash(v string) string {
	if strings.TrimSpace(v) == "" {
		return "-"
	}
	return v
}
