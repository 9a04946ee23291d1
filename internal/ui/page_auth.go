package ui

import (
	"fmt"

	. "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

func loginPage(errMsg string) Node {
	content := []Node{
		H1(Text("LakeAgent")),
		P(Text("Sign in with a configured API key or a bearer token.")),
		Form(
			Method("post"),
			Action("/ui/login"),
			Class("login-form"),
			Label(Text("Token")),
			Textarea(
				Name("token"),
				Placeholder("Paste token here"),
				Required(),
			),
			Button(
				Type("submit"),
				Class("btn btn-primary"),
				Text("Sign In"),
			),
		),
	}
	if errMsg != "" {
		content = append([]Node{P(Class("error"), Text(fmt.Sprintf("Error: %s", errMsg)))}, content...)
	}

	return HTML(
		Lang("en"),
		Head(
			Meta(Charset("utf-8")),
			Meta(Name("viewport"), Content("width=device-width, initial-scale=1")),
			TitleEl(Text("Sign in | LakeAgent")),
			Link(Rel("preconnect"), Href("https://fonts.googleapis.com")),
			Link(Rel("preconnect"), Href("https://fonts.gstatic.com"), Attr("crossorigin", "")),
			Link(Rel("stylesheet"), Href("https://fonts.googleapis.com/css2?family=Inter:wght@400;500;600;700&display=swap")),
			Link(Rel("stylesheet"), Href("https://cdn.jsdelivr.net/npm/@primer/css@22.1.0/dist/primer.min.css")),
			Link(Rel("stylesheet"), Href("/ui/static/app.css")),
		),
		Body(
			Class("login-body"),
			Main(Class("login-wrap"), Group(content)),
		),
	)
}
