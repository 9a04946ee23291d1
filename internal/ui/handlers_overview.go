package ui

import (
	"net/http"
	"strconv"
)

func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	stats := h.store.Stats()

	jobs, err := h.jobs.List(r.Context())
	if err != nil {
		h.renderServiceError(w, r, err)
		return
	}
	enabled := 0
	for i := range jobs {
		if jobs[i].Enabled {
			enabled++
		}
	}

	runs, err := h.planRuns.List(r.Context(), 10)
	if err != nil {
		h.renderServiceError(w, r, err)
		return
	}
	planRows := make([]planRunRowData, 0, len(runs))
	for i := range runs {
		run := runs[i]
		rows := "-"
		if run.Rows > 0 {
			rows = strconv.FormatInt(run.Rows, 10)
		}
		planRows = append(planRows, planRunRowData{
			ID:      run.ID,
			Request: run.Request,
			Status:  string(run.Status),
			Rows:    rows,
			Created: formatTime(run.CreatedAt),
		})
	}

	renderHTML(w, http.StatusOK, overviewPage(principalFromContext(r.Context()), overviewPageData{
		Tables:        strconv.Itoa(stats.Tables),
		Columns:       strconv.Itoa(stats.Columns),
		Relationships: strconv.Itoa(stats.Relationships),
		Terms:         strconv.Itoa(stats.Terms),
		Jobs:          strconv.Itoa(len(jobs)),
		EnabledJobs:   strconv.Itoa(enabled),
		RecentPlans:   planRows,
	}))
}
