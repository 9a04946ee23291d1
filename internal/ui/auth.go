package ui

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	sessionCookieName = "lakeagent_session"
	sessionTTL        = 24 * time.Hour
)

// LoginPage renders the sign-in form. A browser that already holds a valid
// session is sent straight to the overview.
func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		if _, ok := h.verifySessionToken(cookie.Value); ok {
			http.Redirect(w, r, "/ui", http.StatusSeeOther)
			return
		}
	}
	renderHTML(w, http.StatusOK, loginPage(strings.TrimSpace(r.URL.Query().Get("error"))))
}

// LoginSubmit checks the presented credential (a configured API key or an
// HS256 bearer token) and on success mints a session token signed with the
// same secret the API tokens use.
func (h *Handler) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/ui/login?error=invalid+form", http.StatusSeeOther)
		return
	}
	token := strings.TrimSpace(r.Form.Get("token"))
	if token == "" {
		http.Redirect(w, r, "/ui/login?error=token+is+required", http.StatusSeeOther)
		return
	}

	principal, ok := h.verifyLoginToken(token)
	if !ok {
		http.Redirect(w, r, "/ui/login?error=token+was+not+accepted", http.StatusSeeOther)
		return
	}

	session, err := h.mintSessionToken(principal, time.Now())
	if err != nil {
		h.logger.Error("minting session token failed", "error", err)
		http.Redirect(w, r, "/ui/login?error=could+not+start+a+session", http.StatusSeeOther)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    session,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.production,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(sessionTTL),
	})
	http.Redirect(w, r, "/ui", http.StatusSeeOther)
}

// Logout clears the session and chat cookies.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	for _, name := range []string{sessionCookieName, chatCookieName} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Path:     "/",
			HttpOnly: true,
			Secure:   h.production,
			SameSite: http.SameSiteLaxMode,
			MaxAge:   -1,
		})
	}
	http.Redirect(w, r, "/ui/login", http.StatusSeeOther)
}

// CookieHeaderBridge copies the session cookie into the Authorization header
// so the console rides through the same auth middleware as the API.
func (h *Handler) CookieHeaderBridge(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			if cookie, err := r.Cookie(sessionCookieName); err == nil && strings.TrimSpace(cookie.Value) != "" {
				r.Header.Set("Authorization", "Bearer "+strings.TrimSpace(cookie.Value))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RedirectToLogin is the auth rejection handler for console paths.
func RedirectToLogin(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/ui") {
		http.Redirect(w, r, "/ui/login", http.StatusSeeOther)
		return
	}
	w.WriteHeader(http.StatusUnauthorized)
}

// verifyLoginToken accepts either an HS256 token signed with the shared
// secret (the principal is its sub claim) or one of the configured API keys
// (the principal is "admin").
func (h *Handler) verifyLoginToken(token string) (string, bool) {
	if sub, ok := h.verifySessionToken(token); ok {
		return sub, true
	}

	presented := sha256.Sum256([]byte(token))
	for _, key := range h.apiKeys {
		configured := sha256.Sum256([]byte(key))
		if subtle.ConstantTimeCompare(presented[:], configured[:]) == 1 {
			return "admin", true
		}
	}
	return "", false
}

func (h *Handler) verifySessionToken(tokenStr string) (string, bool) {
	token, err := jwt.Parse(tokenStr, func(_ *jwt.Token) (interface{}, error) {
		return h.jwtSecret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return "", false
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", false
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", false
	}
	return sub, true
}

func (h *Handler) mintSessionToken(principal string, now time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sub": principal,
		"iat": now.Unix(),
		"exp": now.Add(sessionTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.jwtSecret)
}
