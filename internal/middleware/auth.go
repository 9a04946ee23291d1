// Package middleware provides the HTTP middleware stack: authentication,
// per-client rate limiting, and request ids.
package middleware

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type principalKey struct{}

// WithPrincipal stores the caller identity in the context.
func WithPrincipal(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, principalKey{}, name)
}

// PrincipalFromContext extracts the caller identity from the context.
func PrincipalFromContext(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(principalKey{}).(string)
	return name, ok
}

// apiKeyPrincipal is the context identity for configured-key callers. Keys
// are anonymous shared credentials, not named users.
const apiKeyPrincipal = "api-key"

// AuthMiddleware tries JWT first, then API key. Returns 401 if both fail.
// JWTs must be HS256-signed with the shared secret and carry a sub claim;
// API keys are matched against the configured list.
func AuthMiddleware(jwtSecret []byte, apiKeys []string) func(http.Handler) http.Handler {
	return AuthMiddlewareWithFallback(jwtSecret, apiKeys, http.HandlerFunc(unauthorizedJSON))
}

// AuthMiddlewareWithFallback is AuthMiddleware with a custom rejection
// handler. The HTML console uses it to send browsers to the login page
// instead of answering with the JSON error envelope.
func AuthMiddlewareWithFallback(jwtSecret []byte, apiKeys []string, onReject http.Handler) func(http.Handler) http.Handler {
	// Hash the configured keys once so the per-request comparison runs in
	// constant time over fixed-size digests.
	keyHashes := make([][sha256.Size]byte, len(apiKeys))
	for i, k := range apiKeys {
		keyHashes[i] = sha256.Sum256([]byte(k))
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if principal, ok := authenticate(r, jwtSecret, keyHashes); ok {
				ctx := WithPrincipal(r.Context(), principal)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}
			onReject.ServeHTTP(w, r)
		})
	}
}

// authenticate checks the Authorization header for an HS256 Bearer token,
// then X-API-Key against the configured key hashes.
func authenticate(r *http.Request, jwtSecret []byte, keyHashes [][sha256.Size]byte) (string, bool) {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		tokenStr := strings.TrimPrefix(auth, "Bearer ")
		token, err := jwt.Parse(tokenStr, func(_ *jwt.Token) (interface{}, error) {
			return jwtSecret, nil
		}, jwt.WithValidMethods([]string{"HS256"}))

		if err == nil && token.Valid {
			if claims, ok := token.Claims.(jwt.MapClaims); ok {
				if sub, ok := claims["sub"].(string); ok && sub != "" {
					return sub, true
				}
			}
		}
	}

	if apiKey := r.Header.Get("X-API-Key"); apiKey != "" {
		presented := sha256.Sum256([]byte(apiKey))
		for i := range keyHashes {
			if subtle.ConstantTimeCompare(presented[:], keyHashes[i][:]) == 1 {
				return apiKeyPrincipal, true
			}
		}
	}

	return "", false
}

func unauthorizedJSON(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"code":    http.StatusUnauthorized,
		"message": "provide a valid JWT Bearer token or API key",
	})
}
