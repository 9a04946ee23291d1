package ui

import (
	gomponents "maragu.dev/gomponents"
	data "maragu.dev/gomponents-datastar"
	html "maragu.dev/gomponents/html"
)

type tableRowData struct {
	Filter  string
	Name    string
	URL     string
	Layer   string
	Type    string
	Domain  string
	Rows    string
	Updated string
}

type tablesListPageData struct {
	Principal     string
	Rows          []tableRowData
	ActiveLayer   string
	SyncAvailable bool
	Notice        string
	CSRFFieldFunc func() gomponents.Node
}

func layerFilterLink(label, layer, active string) gomponents.Node {
	href := "/ui/tables"
	if layer != "" {
		href += "?layer=" + layer
	}
	className := "btn btn-sm"
	if layer == active {
		className += " btn-primary"
	}
	return html.A(html.Href(href), html.Class(className), gomponents.Text(label))
}

func tablesListPage(d tablesListPageData) gomponents.Node {
	tableRows := make([]gomponents.Node, 0, len(d.Rows))
	for i := range d.Rows {
		row := d.Rows[i]
		tableRows = append(tableRows, html.Tr(
			data.Show(containsExpr(row.Filter)),
			html.Td(html.A(html.Href(row.URL), gomponents.Text(row.Name))),
			html.Td(layerLabel(row.Layer)),
			html.Td(gomponents.Text(row.Type)),
			html.Td(gomponents.Text(row.Domain)),
			html.Td(gomponents.Text(row.Rows)),
			html.Td(gomponents.Text(row.Updated)),
		))
	}

	actions := []gomponents.Node{
		layerFilterLink("All", "", d.ActiveLayer),
		layerFilterLink("Bronze", "bronze", d.ActiveLayer),
		layerFilterLink("Silver", "silver", d.ActiveLayer),
		layerFilterLink("Gold", "gold", d.ActiveLayer),
	}
	if d.SyncAvailable {
		actions = append(actions, html.Form(
			html.Method("post"),
			html.Action("/ui/tables/sync"),
			d.CSRFFieldFunc(),
			html.Button(html.Type("submit"), html.Class(secondaryButtonClass()), gomponents.Text("Sync from warehouse")),
		))
	}
	actions = append(actions, html.Form(
		html.Method("post"),
		html.Action("/ui/tables/detect"),
		d.CSRFFieldFunc(),
		html.Button(html.Type("submit"), html.Class(secondaryButtonClass()), gomponents.Text("Detect relationships")),
	))

	body := []gomponents.Node{
		noticeCard(d.Notice),
		quickFilterCard("Filter by name, domain, or tag", actions...),
	}
	if len(d.Rows) == 0 {
		body = append(body, emptyStateCard("No tables registered yet. Sync from the warehouse or register one over the API.", "", ""))
	} else {
		body = append(body, html.Div(
			html.Class(cardClass("table-wrap")),
			html.Table(
				html.THead(html.Tr(
					html.Th(gomponents.Text("Table")),
					html.Th(gomponents.Text("Layer")),
					html.Th(gomponents.Text("Type")),
					html.Th(gomponents.Text("Domain")),
					html.Th(gomponents.Text("Rows")),
					html.Th(gomponents.Text("Updated")),
				)),
				html.TBody(gomponents.Group(tableRows)),
			),
		))
	}
	body = append(body, joinPathFormCard("", ""))

	return appPage("Tables", "tables", d.Principal, body...)
}

func layerLabel(layer string) gomponents.Node {
	tone := ""
	switch layer {
	case "bronze":
		tone = "attention"
	case "silver":
		tone = "secondary"
	case "gold":
		tone = "success"
	}
	return statusLabel(layer, tone)
}

type columnRowData struct {
	Name        string
	DataType    string
	Nullable    string
	Role        string
	Sensitivity string
	FKTarget    string
	Comment     string
}

type relationshipRowData struct {
	Source      string
	Target      string
	Cardinality string
	Enforced    string
}

type relatedRowData struct {
	Table string
	URL   string
	Hops  string
}

type tableDetailPageData struct {
	Principal     string
	Name          string
	Layer         string
	Type          string
	Domain        string
	Description   string
	PrimaryKeys   string
	Tags          string
	RowCount      string
	Updated       string
	Columns       []columnRowData
	Relationships []relationshipRowData
	Related       []relatedRowData
}

func tableDetailPage(d tableDetailPageData) gomponents.Node {
	columnRows := make([]gomponents.Node, 0, len(d.Columns))
	for i := range d.Columns {
		c := d.Columns[i]
		columnRows = append(columnRows, html.Tr(
			html.Td(html.Code(gomponents.Text(c.Name))),
			html.Td(gomponents.Text(c.DataType)),
			html.Td(gomponents.Text(c.Nullable)),
			html.Td(gomponents.Text(c.Role)),
			html.Td(gomponents.Text(c.Sensitivity)),
			html.Td(gomponents.Text(c.FKTarget)),
			html.Td(gomponents.Text(c.Comment)),
		))
	}

	relRows := make([]gomponents.Node, 0, len(d.Relationships))
	for i := range d.Relationships {
		r := d.Relationships[i]
		relRows = append(relRows, html.Tr(
			html.Td(html.Code(gomponents.Text(r.Source))),
			html.Td(html.Code(gomponents.Text(r.Target))),
			html.Td(gomponents.Text(r.Cardinality)),
			html.Td(gomponents.Text(r.Enforced)),
		))
	}

	relatedRows := make([]gomponents.Node, 0, len(d.Related))
	for i := range d.Related {
		rt := d.Related[i]
		relatedRows = append(relatedRows, html.Tr(
			html.Td(html.A(html.Href(rt.URL), gomponents.Text(rt.Table))),
			html.Td(gomponents.Text(rt.Hops)),
		))
	}

	relSection := gomponents.Node(emptyStateCard("No relationships touch this table. Run relationship detection or add one over the API.", "", ""))
	if len(relRows) > 0 {
		relSection = html.Div(
			html.Class(cardClass("table-wrap")),
			html.H2(gomponents.Text("Relationships")),
			html.Table(
				html.THead(html.Tr(
					html.Th(gomponents.Text("Source")),
					html.Th(gomponents.Text("Target")),
					html.Th(gomponents.Text("Cardinality")),
					html.Th(gomponents.Text("Enforced")),
				)),
				html.TBody(gomponents.Group(relRows)),
			),
		)
	}

	relatedSection := gomponents.Node(nil)
	if len(relatedRows) > 0 {
		relatedSection = html.Div(
			html.Class(cardClass("table-wrap")),
			html.H2(gomponents.Text("Reachable tables")),
			html.Table(
				html.THead(html.Tr(
					html.Th(gomponents.Text("Table")),
					html.Th(gomponents.Text("Hops")),
				)),
				html.TBody(gomponents.Group(relatedRows)),
			),
		)
	}

	return appPage(
		"Table: "+d.Name,
		"tables",
		d.Principal,
		html.Div(
			html.Class(cardClass()),
			html.Div(html.Class("d-flex flex-wrap gap-2 mb-2"), layerLabel(d.Layer), statusLabel(d.Type, "")),
			html.P(gomponents.Text(d.Description)),
			html.P(html.Class(mutedClass()), gomponents.Text("Domain: "+d.Domain)),
			html.P(html.Class(mutedClass()), gomponents.Text("Primary keys: "+d.PrimaryKeys)),
			html.P(html.Class(mutedClass()), gomponents.Text("Tags: "+d.Tags)),
			html.P(html.Class(mutedClass()), gomponents.Text("Rows: "+d.RowCount+" · Updated: "+d.Updated)),
		),
		html.Div(
			html.Class(cardClass("table-wrap")),
			html.H2(gomponents.Text("Columns")),
			html.Table(
				html.THead(html.Tr(
					html.Th(gomponents.Text("Column")),
					html.Th(gomponents.Text("Type")),
					html.Th(gomponents.Text("Nullable")),
					html.Th(gomponents.Text("Role")),
					html.Th(gomponents.Text("Sensitivity")),
					html.Th(gomponents.Text("FK target")),
					html.Th(gomponents.Text("Comment")),
				)),
				html.TBody(gomponents.Group(columnRows)),
			),
		),
		relSection,
		relatedSection,
		joinPathFormCard(d.Name, ""),
	)
}

type joinStepRowData struct {
	Index       string
	From        string
	To          string
	On          string
	Cardinality string
}

type joinPathPageData struct {
	Principal string
	From      string
	To        string
	MaxHops   string
	Reachable bool
	Steps     []joinStepRowData
}

func joinPathFormCard(from, to string) gomponents.Node {
	return html.Div(
		html.Class(cardClass()),
		html.H2(gomponents.Text("Join path")),
		html.Form(
			html.Method("get"),
			html.Action("/ui/join-path"),
			html.Class("d-flex flex-wrap flex-items-end gap-2"),
			html.Div(
				html.Label(gomponents.Text("From")),
				html.Input(html.Type("text"), html.Name("from"), html.Class("form-control"), html.Value(from), html.Placeholder("silver.orders"), html.Required()),
			),
			html.Div(
				html.Label(gomponents.Text("To")),
				html.Input(html.Type("text"), html.Name("to"), html.Class("form-control"), html.Value(to), html.Placeholder("silver.dim_customers"), html.Required()),
			),
			html.Div(
				html.Label(gomponents.Text("Max hops")),
				html.Input(html.Type("number"), html.Name("max_hops"), html.Class("form-control"), html.Value("3"), html.Min("0")),
			),
			html.Button(html.Type("submit"), html.Class(primaryButtonClass()), gomponents.Text("Find path")),
		),
	)
}

func joinPathPage(d joinPathPageData) gomponents.Node {
	result := gomponents.Node(nil)
	if !d.Reachable {
		result = html.Div(
			html.Class(cardClass()),
			html.P(gomponents.Text("No join path connects "+d.From+" and "+d.To+" within "+d.MaxHops+" hops.")),
			html.P(html.Class(mutedClass()), gomponents.Text("The tables can still be used side by side; they just cannot be joined through registered relationships.")),
		)
	} else if len(d.Steps) == 0 {
		result = html.Div(
			html.Class(cardClass()),
			html.P(gomponents.Text("Start and end are the same table: a zero-hop path.")),
		)
	} else {
		stepRows := make([]gomponents.Node, 0, len(d.Steps))
		for i := range d.Steps {
			s := d.Steps[i]
			stepRows = append(stepRows, html.Tr(
				html.Td(gomponents.Text(s.Index)),
				html.Td(html.Code(gomponents.Text(s.From))),
				html.Td(html.Code(gomponents.Text(s.To))),
				html.Td(html.Code(gomponents.Text(s.On))),
				html.Td(gomponents.Text(s.Cardinality)),
			))
		}
		result = html.Div(
			html.Class(cardClass("table-wrap")),
			html.H2(gomponents.Text(d.From+" → "+d.To)),
			html.Table(
				html.THead(html.Tr(
					html.Th(gomponents.Text("Hop")),
					html.Th(gomponents.Text("From")),
					html.Th(gomponents.Text("To")),
					html.Th(gomponents.Text("On")),
					html.Th(gomponents.Text("Cardinality")),
				)),
				html.TBody(gomponents.Group(stepRows)),
			),
		)
	}

	return appPage(
		"Join Path",
		"tables",
		d.Principal,
		joinPathFormCard(d.From, d.To),
		result,
	)
}
