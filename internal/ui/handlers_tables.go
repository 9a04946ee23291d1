package ui

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"lakeagent/internal/domain"
)

const defaultJoinPathHops = 3

// canonicalName renders a user-typed table name in the registered
// catalog.schema.table form.
func canonicalName(raw string) (string, error) {
	name, err := domain.ParseTableName(raw)
	if err != nil {
		return "", err
	}
	return name.String(), nil
}

func (h *Handler) TablesList(w http.ResponseWriter, r *http.Request) {
	filter := domain.TableFilter{
		Text:   strings.TrimSpace(r.URL.Query().Get("q")),
		Domain: strings.TrimSpace(r.URL.Query().Get("domain")),
	}
	if layer := strings.TrimSpace(r.URL.Query().Get("layer")); layer != "" {
		if !domain.Layer(layer).Valid() {
			renderHTML(w, http.StatusBadRequest, errorPage("Invalid Request", fmt.Sprintf("layer %q must be one of bronze, silver, gold", layer)))
			return
		}
		filter.Layer = domain.Layer(layer)
	}

	tables := h.store.FindTables(filter)
	rows := make([]tableRowData, 0, len(tables))
	for i := range tables {
		t := tables[i]
		name := t.Name.String()
		rows = append(rows, tableRowData{
			Filter:  name + " " + t.Domain + " " + strings.Join(t.Tags, " "),
			Name:    name,
			URL:     "/ui/tables/" + url.PathEscape(name),
			Layer:   string(t.Layer),
			Type:    string(t.Type),
			Domain:  dash(t.Domain),
			Rows:    strconv.FormatInt(t.RowCount, 10),
			Updated: formatTime(t.UpdatedAt),
		})
	}

	renderHTML(w, http.StatusOK, tablesListPage(tablesListPageData{
		Principal:     principalFromContext(r.Context()),
		Rows:          rows,
		ActiveLayer:   string(filter.Layer),
		SyncAvailable: h.syncer != nil,
		Notice:        strings.TrimSpace(r.URL.Query().Get("notice")),
		CSRFFieldFunc: csrfFieldProvider(r),
	}))
}

func (h *Handler) TablesDetail(w http.ResponseWriter, r *http.Request) {
	name, err := canonicalName(chi.URLParam(r, "tableName"))
	if err != nil {
		h.renderServiceError(w, r, err)
		return
	}
	table, err := h.store.GetTable(name)
	if err != nil {
		h.renderServiceError(w, r, err)
		return
	}

	columns := h.store.GetColumns(name)
	columnRows := make([]columnRowData, 0, len(columns))
	for i := range columns {
		c := columns[i]
		columnRows = append(columnRows, columnRowData{
			Name:        c.Name,
			DataType:    c.DataType,
			Nullable:    fmt.Sprintf("%t", c.Nullable),
			Role:        string(c.Role),
			Sensitivity: dash(string(c.Sensitivity)),
			FKTarget:    dash(c.FKTarget),
			Comment:     dash(c.Comment),
		})
	}

	rels := h.store.RelationshipsFor(name)
	relRows := make([]relationshipRowData, 0, len(rels))
	for i := range rels {
		rel := rels[i]
		relRows = append(relRows, relationshipRowData{
			Source:      rel.Source.String(),
			Target:      rel.Target.String(),
			Cardinality: string(rel.Cardinality),
			Enforced:    fmt.Sprintf("%t", rel.Enforced),
		})
	}

	related := h.store.RelatedTables(name, defaultJoinPathHops)
	relatedRows := make([]relatedRowData, 0, len(related))
	for i := range related {
		rt := related[i]
		relatedRows = append(relatedRows, relatedRowData{
			Table: rt.Table,
			URL:   "/ui/tables/" + url.PathEscape(rt.Table),
			Hops:  strconv.Itoa(rt.Hops),
		})
	}

	renderHTML(w, http.StatusOK, tableDetailPage(tableDetailPageData{
		Principal:     principalFromContext(r.Context()),
		Name:          name,
		Layer:         string(table.Layer),
		Type:          string(table.Type),
		Domain:        dash(table.Domain),
		Description:   dash(table.Description),
		PrimaryKeys:   stringsJoin(table.PrimaryKeys),
		Tags:          stringsJoin(table.Tags),
		RowCount:      strconv.FormatInt(table.RowCount, 10),
		Updated:       formatTime(table.UpdatedAt),
		Columns:       columnRows,
		Relationships: relRows,
		Related:       relatedRows,
	}))
}

func (h *Handler) TablesSync(w http.ResponseWriter, r *http.Request) {
	if h.syncer == nil {
		renderHTML(w, http.StatusServiceUnavailable, errorPage("Sync Unavailable", "No warehouse is configured to sync from."))
		return
	}
	result, err := h.syncer.Sync(r.Context())
	if err != nil {
		h.renderServiceError(w, r, err)
		return
	}
	notice := fmt.Sprintf("Synced %d tables and %d columns in %s.", result.Tables, result.Columns, result.Duration)
	if len(result.Skipped) > 0 {
		notice += fmt.Sprintf(" Skipped: %s.", strings.Join(result.Skipped, ", "))
	}
	http.Redirect(w, r, "/ui/tables?notice="+url.QueryEscape(notice), http.StatusSeeOther)
}

func (h *Handler) TablesDetect(w http.ResponseWriter, r *http.Request) {
	detections, err := h.store.AutoDetect(r.Context())
	if err != nil {
		h.renderServiceError(w, r, err)
		return
	}
	notice := fmt.Sprintf("Detected %d relationships from column naming.", len(detections))
	http.Redirect(w, r, "/ui/tables?notice="+url.QueryEscape(notice), http.StatusSeeOther)
}

func (h *Handler) JoinPath(w http.ResponseWriter, r *http.Request) {
	from := strings.TrimSpace(r.URL.Query().Get("from"))
	to := strings.TrimSpace(r.URL.Query().Get("to"))
	if from == "" || to == "" {
		renderHTML(w, http.StatusBadRequest, errorPage("Invalid Request", "Both from and to tables are required."))
		return
	}

	maxHops := defaultJoinPathHops
	if raw := strings.TrimSpace(r.URL.Query().Get("max_hops")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			renderHTML(w, http.StatusBadRequest, errorPage("Invalid Request", fmt.Sprintf("max_hops %q must be an integer.", raw)))
			return
		}
		maxHops = parsed
	}

	fromName, err := canonicalName(from)
	if err != nil {
		h.renderServiceError(w, r, err)
		return
	}
	toName, err := canonicalName(to)
	if err != nil {
		h.renderServiceError(w, r, err)
		return
	}

	d := joinPathPageData{
		Principal: principalFromContext(r.Context()),
		From:      fromName,
		To:        toName,
		MaxHops:   strconv.Itoa(maxHops),
	}

	path, err := h.store.FindJoinPath(fromName, toName, maxHops)
	if err != nil {
		if errors.As(err, new(*domain.UnreachableError)) {
			renderHTML(w, http.StatusOK, joinPathPage(d))
			return
		}
		h.renderServiceError(w, r, err)
		return
	}

	d.Reachable = true
	d.Steps = make([]joinStepRowData, 0, len(path.Steps))
	for i := range path.Steps {
		step := path.Steps[i]
		d.Steps = append(d.Steps, joinStepRowData{
			Index:       strconv.Itoa(i + 1),
			From:        step.From,
			To:          step.To,
			On:          step.Rel.JoinClause(),
			Cardinality: string(step.Rel.Cardinality),
		})
	}
	renderHTML(w, http.StatusOK, joinPathPage(d))
}
