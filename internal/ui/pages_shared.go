package ui

import (
	"strconv"
	"strings"
	"time"

	. "maragu.dev/gomponents"
	data "maragu.dev/gomponents-datastar"
	. "maragu.dev/gomponents/html"
)

type navItem struct {
	Label string
	Href  string
	Key   string
	Icon  string
}

var navItems = []navItem{
	{Label: "Overview", Href: "/ui", Key: "home", Icon: "house"},
	{Label: "Tables", Href: "/ui/tables", Key: "tables", Icon: "table-2"},
	{Label: "Glossary", Href: "/ui/glossary", Key: "glossary", Icon: "book-open"},
	{Label: "Chat", Href: "/ui/chat", Key: "chat", Icon: "message-square"},
	{Label: "Jobs", Href: "/ui/jobs", Key: "jobs", Icon: "calendar-clock"},
}

func pageHead(title string) Node {
	return Head(
		Meta(Charset("utf-8")),
		Meta(Name("viewport"), Content("width=device-width, initial-scale=1")),
		TitleEl(Text(title+" | LakeAgent")),
		Link(Rel("icon"), Href("data:,")),
		Link(Rel("preconnect"), Href("https://fonts.googleapis.com")),
		Link(Rel("preconnect"), Href("https://fonts.gstatic.com"), Attr("crossorigin", "")),
		Link(Rel("stylesheet"), Href("https://fonts.googleapis.com/css2?family=Inter:wght@400;500;600;700&display=swap")),
		Link(Rel("stylesheet"), Href("https://cdn.jsdelivr.net/npm/@primer/css@22.1.0/dist/primer.min.css")),
		Link(Rel("stylesheet"), Href("/ui/static/app.css")),
		Script(Src("https://unpkg.com/lucide@latest/dist/umd/lucide.min.js")),
		Script(
			Type("module"),
			Src("https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0-RC.7/bundles/datastar.js"),
		),
	)
}

func appPage(title, active, principal string, body ...Node) Node {
	nav := make([]Node, 0, len(navItems))
	for _, item := range navItems {
		className := "app-nav-link Link--secondary d-flex flex-items-center"
		if item.Key == active {
			className += " active"
		}
		nav = append(nav, A(
			Href(item.Href),
			Class(className),
			I(Class("nav-icon"), Attr("data-lucide", item.Icon), Attr("aria-hidden", "true")),
			Span(Text(item.Label)),
		))
	}

	if principal == "" {
		principal = "unknown"
	}

	return HTML(
		Lang("en"),
		Attr("data-color-mode", "auto"),
		Attr("data-light-theme", "light"),
		Attr("data-dark-theme", "dark"),
		pageHead(title),
		Body(
			Main(Class("app-shell"),
				Aside(
					Class("app-sidebar"),
					Div(
						Class("brand"),
						Strong(Text("LakeAgent")),
						P(Class("color-fg-muted text-small mb-0"), Text("Plain-language lakehouse transforms")),
					),
					Nav(Class("app-nav"), Group(nav)),
				),
				Section(
					Class("app-main"),
					Div(
						Class("topbar"),
						Div(
							H1(Class("page-title"), Text(title)),
						),
						Div(
							P(Class("color-fg-muted text-small mb-2"), Text("Signed in as "+principal)),
							Form(
								Method("post"),
								Action("/ui/logout"),
								Button(Type("submit"), Class("btn btn-sm"), Text("Sign out")),
							),
						),
					),
					Div(Class("content"), Group(body)),
				),
			),
			Script(Raw("if (window.lucide) { window.lucide.createIcons(); }")),
		),
	)
}

func errorPage(title, message string) Node {
	return HTML(
		Lang("en"),
		Attr("data-color-mode", "auto"),
		Attr("data-light-theme", "light"),
		Attr("data-dark-theme", "dark"),
		pageHead(title),
		Body(
			Main(
				Class("layout"),
				H1(Class("page-title"), Text(title)),
				P(Text(message)),
				P(A(Href("/ui"), Text("Back to overview"))),
			),
			Script(Raw("if (window.lucide) { window.lucide.createIcons(); }")),
		),
	)
}

func formatTime(ts time.Time) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Format(time.RFC3339)
}

func formatTimePtr(ts *time.Time) string {
	if ts == nil || ts.IsZero() {
		return "-"
	}
	return ts.Format(time.RFC3339)
}

func containsExpr(value string) string {
	lower := strings.ToLower(value)
	return "$q === '' || " + strconv.Quote(lower) + ".includes($q.toLowerCase())"
}

func cardClass(extra ...string) string {
	parts := []string{"Box", "p-3", "mb-3", "card"}
	parts = append(parts, extra...)
	return strings.Join(parts, " ")
}

func mutedClass() string {
	return "color-fg-muted text-small"
}

func primaryButtonClass() string {
	return "btn btn-primary"
}

func secondaryButtonClass() string {
	return "btn"
}

func quickFilterCard(placeholder string, extraControls ...Node) Node {
	controls := []Node{
		Div(
			Class("d-flex flex-items-center gap-2 flex-1"),
			Label(Class("sr-only"), Text("Quick filter")),
			Input(Type("search"), Class("form-control"), Placeholder(placeholder), data.Bind("q"), AutoComplete("off")),
		),
	}
	controls = append(controls, extraControls...)
	return Div(
		Class(cardClass("toolbar")),
		data.Signals(map[string]any{"q": ""}),
		Div(Class("d-flex flex-wrap flex-items-center gap-2"), Group(controls)),
	)
}

func emptyStateCard(message, ctaLabel, ctaHref string) Node {
	cta := Node(nil)
	if ctaLabel != "" && ctaHref != "" {
		cta = A(Href(ctaHref), Class(primaryButtonClass()), Text(ctaLabel))
	}
	return Div(
		Class(cardClass("blankslate")),
		P(Class("color-fg-muted mb-2"), Text(message)),
		cta,
	)
}

func noticeCard(message string) Node {
	if strings.TrimSpace(message) == "" {
		return nil
	}
	return Div(Class("flash mb-3"), Text(message))
}

func statusLabel(text, tone string) Node {
	className := "Label"
	if tone != "" {
		className += " Label--" + tone
	}
	return Span(Class(className), Text(text))
}
