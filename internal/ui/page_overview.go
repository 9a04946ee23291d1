package ui

import (
	gomponents "maragu.dev/gomponents"
	html "maragu.dev/gomponents/html"
)

type planRunRowData struct {
	ID      string
	Request string
	Status  string
	Rows    string
	Created string
}

type overviewPageData struct {
	Tables        string
	Columns       string
	Relationships string
	Terms         string
	Jobs          string
	EnabledJobs   string
	RecentPlans   []planRunRowData
}

func statCard(value, label, href string) gomponents.Node {
	return html.A(
		html.Href(href),
		html.Class(cardClass("stat-card")),
		html.Strong(html.Class("stat-value"), gomponents.Text(value)),
		html.Span(html.Class(mutedClass()), gomponents.Text(label)),
	)
}

func overviewPage(principal string, d overviewPageData) gomponents.Node {
	planRows := make([]gomponents.Node, 0, len(d.RecentPlans))
	for i := range d.RecentPlans {
		row := d.RecentPlans[i]
		planRows = append(planRows, html.Tr(
			html.Td(html.Code(gomponents.Text(row.ID))),
			html.Td(gomponents.Text(row.Request)),
			html.Td(planStatusLabel(row.Status)),
			html.Td(gomponents.Text(row.Rows)),
			html.Td(gomponents.Text(row.Created)),
		))
	}

	plansSection := gomponents.Node(emptyStateCard("No plans yet. Ask the agent to build something.", "Open chat", "/ui/chat"))
	if len(planRows) > 0 {
		plansSection = html.Div(
			html.Class(cardClass("table-wrap")),
			html.H2(gomponents.Text("Recent plans")),
			html.Table(
				html.THead(html.Tr(
					html.Th(gomponents.Text("Plan")),
					html.Th(gomponents.Text("Request")),
					html.Th(gomponents.Text("Status")),
					html.Th(gomponents.Text("Rows")),
					html.Th(gomponents.Text("Created")),
				)),
				html.TBody(gomponents.Group(planRows)),
			),
		)
	}

	return appPage(
		"Overview",
		"home",
		principal,
		html.Div(
			html.Class("grid"),
			statCard(d.Tables, "Tables", "/ui/tables"),
			statCard(d.Columns, "Columns", "/ui/tables"),
			statCard(d.Relationships, "Relationships", "/ui/tables"),
			statCard(d.Terms, "Glossary terms", "/ui/glossary"),
			statCard(d.Jobs, "Jobs ("+d.EnabledJobs+" enabled)", "/ui/jobs"),
		),
		plansSection,
	)
}

func planStatusLabel(status string) gomponents.Node {
	tone := ""
	switch status {
	case "executed":
		tone = "success"
	case "failed":
		tone = "danger"
	case "cancelled":
		tone = "secondary"
	}
	return statusLabel(status, tone)
}
