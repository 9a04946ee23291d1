package ui

import (
	"net/http"
	"strings"
)

const (
	chatCookieName  = "lakeagent_chat"
	chatHistorySize = 50
)

// chatSession returns the session id carried by the chat cookie, or empty
// when this browser has not chatted yet. The agent mints the id on the first
// message; the cookie only remembers it.
func chatSession(r *http.Request) string {
	cookie, err := r.Cookie(chatCookieName)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(cookie.Value)
}

func (h *Handler) ChatPage(w http.ResponseWriter, r *http.Request) {
	d := chatPageData{
		Principal:     principalFromContext(r.Context()),
		CSRFFieldFunc: csrfFieldProvider(r),
	}

	if session := chatSession(r); session != "" && h.conversations != nil {
		history, err := h.conversations.History(r.Context(), session, chatHistorySize)
		if err != nil {
			h.renderServiceError(w, r, err)
			return
		}
		for i := range history {
			msg := history[i]
			d.Messages = append(d.Messages, chatMessageData{
				Role:    msg.Role,
				Content: msg.Content,
				Sent:    formatTime(msg.CreatedAt),
			})
		}
	}

	renderHTML(w, http.StatusOK, chatPage(d))
}

func (h *Handler) ChatSubmit(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRenderBadRequest(w, r) {
		return
	}
	message := formString(r.Form, "message")
	if message == "" {
		http.Redirect(w, r, "/ui/chat", http.StatusSeeOther)
		return
	}

	reply, err := h.agent.Handle(r.Context(), chatSession(r), message)
	if err != nil {
		h.renderServiceError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     chatCookieName,
		Value:    reply.SessionID,
		Path:     "/ui",
		HttpOnly: true,
		Secure:   h.production,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/ui/chat", http.StatusSeeOther)
}
