package ui

import (
	gomponents "maragu.dev/gomponents"
	data "maragu.dev/gomponents-datastar"
	html "maragu.dev/gomponents/html"
)

type jobRowData struct {
	Filter      string
	Name        string
	Cron        string
	Request     string
	Enabled     bool
	LastRun     string
	LastStatus  string
	LastError   string
	ToggleLabel string
	ToggleURL   string
	DeleteURL   string
}

type jobsPageData struct {
	Principal     string
	Rows          []jobRowData
	Notice        string
	CSRFFieldFunc func() gomponents.Node
}

func jobStatusLabel(status string) gomponents.Node {
	tone := ""
	switch status {
	case "ok":
		tone = "success"
	case "error":
		tone = "danger"
	}
	return statusLabel(status, tone)
}

func jobsPage(d jobsPageData) gomponents.Node {
	rows := make([]gomponents.Node, 0, len(d.Rows))
	for i := range d.Rows {
		row := d.Rows[i]
		enabled := statusLabel("enabled", "success")
		if !row.Enabled {
			enabled = statusLabel("disabled", "secondary")
		}
		lastRun := gomponents.Text(row.LastRun)
		status := gomponents.Node(jobStatusLabel(row.LastStatus))
		if row.LastError != "" {
			status = html.Span(jobStatusLabel(row.LastStatus), html.Span(html.Class(mutedClass()), gomponents.Text(" "+row.LastError)))
		}
		rows = append(rows, html.Tr(
			data.Show(containsExpr(row.Filter)),
			html.Td(html.Strong(gomponents.Text(row.Name))),
			html.Td(html.Code(gomponents.Text(row.Cron))),
			html.Td(gomponents.Text(row.Request)),
			html.Td(enabled),
			html.Td(lastRun),
			html.Td(status),
			html.Td(
				html.Div(
					html.Class("d-flex gap-2"),
					html.Form(html.Method("post"), html.Action(row.ToggleURL), d.CSRFFieldFunc(),
						html.Button(html.Type("submit"), html.Class(secondaryButtonClass()), gomponents.Text(row.ToggleLabel))),
					html.Form(html.Method("post"), html.Action(row.DeleteURL), d.CSRFFieldFunc(),
						html.Button(html.Type("submit"), html.Class(secondaryButtonClass()), gomponents.Text("Delete"))),
				),
			),
		))
	}

	listSection := gomponents.Node(emptyStateCard(
		`No scheduled jobs. Ask the agent to schedule one: "clean raw_orders every morning at 6".`,
		"Open chat", "/ui/chat"))
	if len(rows) > 0 {
		listSection = html.Div(
			html.Class(cardClass("table-wrap")),
			html.Table(
				html.THead(html.Tr(
					html.Th(gomponents.Text("Job")),
					html.Th(gomponents.Text("Schedule")),
					html.Th(gomponents.Text("Request")),
					html.Th(gomponents.Text("State")),
					html.Th(gomponents.Text("Last run")),
					html.Th(gomponents.Text("Last status")),
					html.Th(gomponents.Text("Actions")),
				)),
				html.TBody(gomponents.Group(rows)),
			),
		)
	}

	return appPage(
		"Jobs",
		"jobs",
		d.Principal,
		noticeCard(d.Notice),
		quickFilterCard("Filter by job name or request"),
		listSection,
	)
}
