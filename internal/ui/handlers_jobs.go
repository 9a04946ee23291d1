package ui

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) JobsList(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.jobs.List(r.Context())
	if err != nil {
		h.renderServiceError(w, r, err)
		return
	}

	rows := make([]jobRowData, 0, len(jobs))
	for i := range jobs {
		j := jobs[i]
		request := j.Request
		if request == "" {
			request = j.SQLText
		}
		toggleLabel := "Disable"
		if !j.Enabled {
			toggleLabel = "Enable"
		}
		rows = append(rows, jobRowData{
			Filter:      j.Name + " " + j.Request,
			Name:        j.Name,
			Cron:        j.Cron,
			Request:     request,
			Enabled:     j.Enabled,
			LastRun:     formatTimePtr(j.LastRunAt),
			LastStatus:  dash(j.LastStatus),
			LastError:   j.LastError,
			ToggleLabel: toggleLabel,
			ToggleURL:   "/ui/jobs/" + url.PathEscape(j.ID) + "/toggle",
			DeleteURL:   "/ui/jobs/" + url.PathEscape(j.ID) + "/delete",
		})
	}

	renderHTML(w, http.StatusOK, jobsPage(jobsPageData{
		Principal:     principalFromContext(r.Context()),
		Rows:          rows,
		Notice:        strings.TrimSpace(r.URL.Query().Get("notice")),
		CSRFFieldFunc: csrfFieldProvider(r),
	}))
}

func (h *Handler) JobsToggle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "jobID")
	job, err := h.jobs.Get(r.Context(), id)
	if err != nil {
		h.renderServiceError(w, r, err)
		return
	}

	enabled := !job.Enabled
	if err := h.jobs.SetEnabled(r.Context(), id, enabled); err != nil {
		h.renderServiceError(w, r, err)
		return
	}

	notice := "Disabled job " + job.Name + "."
	if h.scheduler != nil {
		if enabled {
			job.Enabled = true
			if err := h.scheduler.Add(*job); err != nil {
				h.renderServiceError(w, r, err)
				return
			}
		} else {
			h.scheduler.Remove(id)
		}
	}
	if enabled {
		notice = "Enabled job " + job.Name + "."
	}

	http.Redirect(w, r, "/ui/jobs?notice="+url.QueryEscape(notice), http.StatusSeeOther)
}

func (h *Handler) JobsDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "jobID")
	job, err := h.jobs.Get(r.Context(), id)
	if err != nil {
		h.renderServiceError(w, r, err)
		return
	}

	if err := h.jobs.Delete(r.Context(), id); err != nil {
		h.renderServiceError(w, r, err)
		return
	}
	if h.scheduler != nil {
		h.scheduler.Remove(id)
	}

	http.Redirect(w, r, "/ui/jobs?notice="+url.QueryEscape("Deleted job "+job.Name+"."), http.StatusSeeOther)
}
