package ui

import (
	gomponents "maragu.dev/gomponents"
	html "maragu.dev/gomponents/html"
)

type chatMessageData struct {
	Role    string
	Content string
	Sent    string
}

type chatPageData struct {
	Principal     string
	Messages      []chatMessageData
	CSRFFieldFunc func() gomponents.Node
}

func chatBubble(m chatMessageData) gomponents.Node {
	className := "chat-bubble"
	speaker := "Agent"
	if m.Role == "user" {
		className += " chat-bubble-user"
		speaker = "You"
	}
	return html.Div(
		html.Class(className),
		html.Div(html.Class(mutedClass()), gomponents.Text(speaker+" · "+m.Sent)),
		html.Pre(html.Class("chat-text"), gomponents.Text(m.Content)),
	)
}

func chatPage(d chatPageData) gomponents.Node {
	transcript := gomponents.Node(emptyStateCard(
		`Say hello, or try "clean raw_customers" or "build a revenue summary by region".`, "", ""))
	if len(d.Messages) > 0 {
		bubbles := make([]gomponents.Node, 0, len(d.Messages))
		for i := range d.Messages {
			bubbles = append(bubbles, chatBubble(d.Messages[i]))
		}
		transcript = html.Div(html.Class(cardClass("chat-transcript")), gomponents.Group(bubbles))
	}

	form := html.Div(
		html.Class(cardClass()),
		html.Form(
			html.Method("post"),
			html.Action("/ui/chat"),
			html.Class("d-flex flex-items-end gap-2"),
			d.CSRFFieldFunc(),
			html.Input(
				html.Type("text"),
				html.Name("message"),
				html.Class("form-control flex-1"),
				html.Placeholder("Describe a transformation, or say yes / no to a drafted one"),
				html.AutoComplete("off"),
				html.AutoFocus(),
				html.Required(),
			),
			html.Button(html.Type("submit"), html.Class(primaryButtonClass()), gomponents.Text("Send")),
		),
	)

	return appPage(
		"Chat",
		"chat",
		d.Principal,
		transcript,
		form,
	)
}
