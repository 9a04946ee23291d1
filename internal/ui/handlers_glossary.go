package ui

import (
	"net/http"
	"net/url"
	"strings"

	"lakeagent/internal/domain"
)

func (h *Handler) GlossaryList(w http.ResponseWriter, r *http.Request) {
	terms := h.store.Terms()
	rows := make([]termRowData, 0, len(terms))
	for i := range terms {
		t := terms[i]
		rows = append(rows, termRowData{
			Filter:     t.Term + " " + strings.Join(t.Aliases, " ") + " " + string(t.Kind),
			Term:       t.Term,
			Aliases:    stringsJoin(t.Aliases),
			Kind:       string(t.Kind),
			Expression: dash(t.Expression),
			Tables:     stringsJoin(t.Tables),
			Definition: dash(t.Definition),
		})
	}

	renderHTML(w, http.StatusOK, glossaryPage(glossaryPageData{
		Principal:     principalFromContext(r.Context()),
		Rows:          rows,
		Query:         strings.TrimSpace(r.URL.Query().Get("resolve")),
		Resolved:      h.resolveRows(r),
		Notice:        strings.TrimSpace(r.URL.Query().Get("notice")),
		CSRFFieldFunc: csrfFieldProvider(r),
	}))
}

// resolveRows runs the resolve query from the form, when present, through
// ExtractTerms so the page shows every matching term, not just the first.
func (h *Handler) resolveRows(r *http.Request) []termRowData {
	query := strings.TrimSpace(r.URL.Query().Get("resolve"))
	if query == "" {
		return nil
	}
	matches := h.store.ExtractTerms(query)
	rows := make([]termRowData, 0, len(matches))
	for i := range matches {
		t := matches[i]
		rows = append(rows, termRowData{
			Term:       t.Term,
			Aliases:    stringsJoin(t.Aliases),
			Kind:       string(t.Kind),
			Expression: dash(t.Expression),
			Tables:     stringsJoin(t.Tables),
			Definition: dash(t.Definition),
		})
	}
	return rows
}

func (h *Handler) GlossaryAdd(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRenderBadRequest(w, r) {
		return
	}

	req := domain.AddTermRequest{
		Term:       formString(r.Form, "term"),
		Aliases:    formCSV(r.Form, "aliases"),
		Kind:       formString(r.Form, "kind"),
		Expression: formString(r.Form, "expression"),
		Tables:     formCSV(r.Form, "tables"),
		Columns:    formCSV(r.Form, "columns"),
		Definition: formString(r.Form, "definition"),
	}
	if err := req.Validate(); err != nil {
		h.renderServiceError(w, r, err)
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
		h.renderServiceError(w, r, err)
		return
	}

	http.Redirect(w, r, "/ui/glossary?notice="+url.QueryEscape("Added term "+req.Term+"."), http.StatusSeeOther)
}
