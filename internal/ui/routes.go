package ui

import (
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"

	"lakeagent/internal/middleware"
	"lakeagent/internal/ui/assets"
)

// MountRoutes registers the console under the router's mount point. Login and
// static assets stay outside the auth group; everything else rides the same
// middleware stack as the API via the cookie-to-header bridge.
func MountRoutes(r chi.Router, h *Handler) {
	r.Get("/login", h.LoginPage)
	r.Post("/login", h.LoginSubmit)
	r.Post("/logout", h.Logout)

	staticFS, err := fs.Sub(assets.StaticFS(), "static")
	if err == nil {
		r.Handle("/static/*", http.StripPrefix("/ui/static/", http.FileServer(http.FS(staticFS))))
	}

	auth := middleware.AuthMiddlewareWithFallback(h.jwtSecret, h.apiKeys, http.HandlerFunc(RedirectToLogin))

	r.Group(func(r chi.Router) {
		r.Use(h.CookieHeaderBridge)
		r.Use(auth)
		r.Use(h.EnsureCSRFToken)
		r.Use(h.RequireCSRF)
		r.Get("/", h.Home)
		r.Get("/tables", h.TablesList)
		r.Get("/tables/{tableName}", h.TablesDetail)
		r.Post("/tables/sync", h.TablesSync)
		r.Post("/tables/detect", h.TablesDetect)
		r.Get("/join-path", h.JoinPath)
		r.Get("/glossary", h.GlossaryList)
		r.Post("/glossary", h.GlossaryAdd)
		r.Get("/chat", h.ChatPage)
		r.Post("/chat", h.ChatSubmit)
		r.Get("/jobs", h.JobsList)
		r.Post("/jobs/{jobID}/toggle", h.JobsToggle)
		r.Post("/jobs/{jobID}/delete", h.JobsDelete)
	})
}
