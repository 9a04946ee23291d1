package ui

import (
	gomponents "maragu.dev/gomponents"
	data "maragu.dev/gomponents-datastar"
	html "maragu.dev/gomponents/html"
)

type termRowData struct {
	Filter     string
	Term       string
	Aliases    string
	Kind       string
	Expression string
	Tables     string
	Definition string
}

type glossaryPageData struct {
	Principal     string
	Rows          []termRowData
	Query         string
	Resolved      []termRowData
	Notice        string
	CSRFFieldFunc func() gomponents.Node
}

func termTable(rows []termRowData, filtered bool) gomponents.Node {
	tableRows := make([]gomponents.Node, 0, len(rows))
	for i := range rows {
		row := rows[i]
		attrs := []gomponents.Node{}
		if filtered {
			attrs = append(attrs, data.Show(containsExpr(row.Filter)))
		}
		attrs = append(attrs,
			html.Td(html.Strong(gomponents.Text(row.Term))),
			html.Td(gomponents.Text(row.Aliases)),
			html.Td(statusLabel(row.Kind, "")),
			html.Td(html.Code(gomponents.Text(row.Expression))),
			html.Td(gomponents.Text(row.Tables)),
			html.Td(gomponents.Text(row.Definition)),
		)
		tableRows = append(tableRows, html.Tr(attrs...))
	}
	return html.Table(
		html.THead(html.Tr(
			html.Th(gomponents.Text("Term")),
			html.Th(gomponents.Text("Aliases")),
			html.Th(gomponents.Text("Kind")),
			html.Th(gomponents.Text("Expression")),
			html.Th(gomponents.Text("Tables")),
			html.Th(gomponents.Text("Definition")),
		)),
		html.TBody(gomponents.Group(tableRows)),
	)
}

func glossaryPage(d glossaryPageData) gomponents.Node {
	resolveCard := html.Div(
		html.Class(cardClass()),
		html.H2(gomponents.Text("Resolve against request text")),
		html.P(html.Class(mutedClass()), gomponents.Text("Paste a request and see which terms it mentions. Matching is case-insensitive substring over terms and aliases.")),
		html.Form(
			html.Method("get"),
			html.Action("/ui/glossary"),
			html.Class("d-flex flex-wrap flex-items-end gap-2"),
			html.Input(html.Type("text"), html.Name("resolve"), html.Class("form-control flex-1"), html.Value(d.Query), html.Placeholder("show revenue by region for active customers")),
			html.Button(html.Type("submit"), html.Class(primaryButtonClass()), gomponents.Text("Resolve")),
		),
	)

	resolvedSection := gomponents.Node(nil)
	if d.Query != "" {
		if len(d.Resolved) == 0 {
			resolvedSection = emptyStateCard("No glossary terms matched that text.", "", "")
		} else {
			resolvedSection = html.Div(
				html.Class(cardClass("table-wrap")),
				html.H2(gomponents.Text("Matched terms")),
				termTable(d.Resolved, false),
			)
		}
	}

	addCard := html.Div(
		html.Class(cardClass()),
		html.H2(gomponents.Text("Add term")),
		html.Form(
			html.Method("post"),
			html.Action("/ui/glossary"),
			html.Class("d-flex flex-column gap-2"),
			d.CSRFFieldFunc(),
			html.Div(
				html.Class("d-flex flex-wrap gap-2"),
				html.Div(html.Label(gomponents.Text("Term")), html.Input(html.Type("text"), html.Name("term"), html.Class("form-control"), html.Required())),
				html.Div(html.Label(gomponents.Text("Aliases (comma separated)")), html.Input(html.Type("text"), html.Name("aliases"), html.Class("form-control"))),
				html.Div(html.Label(gomponents.Text("Kind")), html.Select(
					html.Name("kind"),
					html.Class("form-select"),
					html.Option(html.Value("metric"), gomponents.Text("metric")),
					html.Option(html.Value("dimension"), gomponents.Text("dimension")),
					html.Option(html.Value("filter"), gomponents.Text("filter")),
					html.Option(html.Value("entity"), gomponents.Text("entity")),
					html.Option(html.Value("time_period"), gomponents.Text("time_period")),
				)),
			),
			html.Div(
				html.Class("d-flex flex-wrap gap-2"),
				html.Div(html.Label(gomponents.Text("Expression")), html.Input(html.Type("text"), html.Name("expression"), html.Class("form-control"), html.Placeholder("SUM(order_amount)"))),
				html.Div(html.Label(gomponents.Text("Tables (comma separated)")), html.Input(html.Type("text"), html.Name("tables"), html.Class("form-control"))),
				html.Div(html.Label(gomponents.Text("Columns (comma separated)")), html.Input(html.Type("text"), html.Name("columns"), html.Class("form-control"))),
			),
			html.Div(html.Label(gomponents.Text("Definition")), html.Input(html.Type("text"), html.Name("definition"), html.Class("form-control"))),
			html.Div(html.Button(html.Type("submit"), html.Class(primaryButtonClass()), gomponents.Text("Add term"))),
		),
	)

	listSection := gomponents.Node(emptyStateCard("The glossary is empty. Add a term below or load the seed glossary.", "", ""))
	if len(d.Rows) > 0 {
		listSection = html.Div(
			html.Class(cardClass("table-wrap")),
			termTable(d.Rows, true),
		)
	}

	return appPage(
		"Glossary",
		"glossary",
		d.Principal,
		noticeCard(d.Notice),
		resolveCard,
		resolvedSection,
		quickFilterCard("Filter terms"),
		listSection,
		addCard,
	)
}
