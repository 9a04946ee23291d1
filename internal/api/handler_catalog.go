package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"lakeagent/internal/domain"
)

// normalizeTableName renders a user-supplied table reference in the
// catalog's fully qualified form.
func normalizeTableName(raw string) (string, error) {
	name, err := domain.ParseTableName(raw)
	if err != nil {
		return "", err
	}
	return name.String(), nil
}

// TablesList returns registered tables, narrowed by the optional q, layer,
// domain, and tag query parameters.
func (h *Handler) TablesList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.TableFilter{
		Text:   q.Get("q"),
		Domain: q.Get("domain"),
	}
	if layer := q.Get("layer"); layer != "" {
		if !domain.Layer(layer).Valid() {
			h.renderError(w, r, domain.ErrValidation("layer %q must be one of bronze, silver, gold", layer))
			return
		}
		filter.Layer = domain.Layer(layer)
	}
	if tags, ok := q["tag"]; ok {
		filter.Tags = tags
	}
	writeJSON(w, http.StatusOK, list(h.store.FindTables(filter)))
}

// registerTableRequest extends the boundary request with the columns to
// record alongside the table. Column roles and sensitivity are inferred when
// left empty.
type registerTableRequest struct {
	domain.RegisterTableRequest
	Columns []domain.Column `json:"columns,omitempty"`
}

// TablesRegister registers a table, overwriting attributes in place when the
// name is already known.
func (h *Handler) TablesRegister(w http.ResponseWriter, r *http.Request) {
	var req registerTableRequest
	if err := decodeJSON(r, &req); err != nil {
		h.renderError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		h.renderError(w, r, err)
		return
	}

	name, err := domain.ParseTableName(req.Name)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	table := domain.Table{
		Name:        name,
		Layer:       domain.Layer(req.Layer),
		Type:        domain.TableType(req.Type),
		Domain:      req.Domain,
		Description: req.Description,
		PrimaryKeys: req.PrimaryKeys,
		RowCount:    req.RowCount,
		Tags:        req.Tags,
	}
	if err := h.store.RegisterTable(r.Context(), table, req.Columns); err != nil {
		h.renderError(w, r, err)
		return
	}

	registered, err := h.store.GetTable(name.String())
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, registered)
}

type tableDetail struct {
	Table         domain.Table          `json:"table"`
	Columns       []domain.Column       `json:"columns"`
	Relationships []domain.Relationship `json:"relationships"`
}

// TablesDetail returns one table with its columns and every relationship
// touching it.
func (h *Handler) TablesDetail(w http.ResponseWriter, r *http.Request) {
	name, err := normalizeTableName(chi.URLParam(r, "tableName"))
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	table, err := h.store.GetTable(name)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	cols := h.store.GetColumns(name)
	if cols == nil {
		cols = []domain.Column{}
	}
	rels := h.store.RelationshipsFor(name)
	if rels == nil {
		rels = []domain.Relationship{}
	}
	writeJSON(w, http.StatusOK, tableDetail{Table: table, Columns: cols, Relationships: rels})
}

// RelationshipsList returns all edges, or only those touching the table
// named by the optional table query parameter.
func (h *Handler) RelationshipsList(w http.ResponseWriter, r *http.Request) {
	table := strings.TrimSpace(r.URL.Query().Get("table"))
	if table == "" {
		writeJSON(w, http.StatusOK, list(h.store.Relationships()))
		return
	}
	name, err := normalizeTableName(table)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list(h.store.RelationshipsFor(name)))
}

// RelationshipsAdd registers a directed edge between two columns. Table
// references are normalized, so silver.orders and main.silver.orders name
// the same endpoint.
func (h *Handler) RelationshipsAdd(w http.ResponseWriter, r *http.Request) {
	var req domain.AddRelationshipRequest
	if err := decodeJSON(r, &req); err != nil {
		h.renderError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		h.renderError(w, r, err)
		return
	}

	source, err := normalizeTableName(req.SourceTable)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	target, err := normalizeTableName(req.TargetTable)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	rel := domain.Relationship{
		Source:      domain.ColumnRef{Table: source, Column: req.SourceColumn},
		Target:      domain.ColumnRef{Table: target, Column: req.TargetColumn},
		Cardinality: domain.Cardinality(req.Cardinality),
		Enforced:    req.Enforced,
		Validated:   req.Validated,
	}
	if err := h.store.AddRelationship(r.Context(), rel); err != nil {
		h.renderError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rel)
}

// CatalogSync pulls live schemas out of the warehouse and merges them into
// the catalog.
func (h *Handler) CatalogSync(w http.ResponseWriter, r *http.Request) {
	if h.syncer == nil {
		writeError(w, http.StatusServiceUnavailable, "no warehouse is configured to sync from")
		return
	}
	result, err := h.syncer.Sync(r.Context())
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// CatalogDetect scans registered columns for shared join keys, registers the
// synthesized relationships, and returns them with any ambiguity notes.
func (h *Handler) CatalogDetect(w http.ResponseWriter, r *http.Request) {
	detections, err := h.store.AutoDetect(r.Context())
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list(detections))
}
