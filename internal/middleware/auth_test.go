package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func mintToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

// nextHandler records the context principal when the request gets through.
func nextHandler() (http.Handler, func() (string, bool)) {
	var principal string
	var found bool
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, found = PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	return h, func() (string, bool) { return principal, found }
}

func serveAuth(t *testing.T, apiKeys []string, decorate func(*http.Request)) (*httptest.ResponseRecorder, func() (string, bool)) {
	t.Helper()
	handler, getPrincipal := nextHandler()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if decorate != nil {
		decorate(req)
	}
	rec := httptest.NewRecorder()
	AuthMiddleware([]byte(testSecret), apiKeys)(handler).ServeHTTP(rec, req)
	return rec, getPrincipal
}

func TestAuth_ValidJWT(t *testing.T) {
	token := mintToken(t, testSecret, jwt.MapClaims{
		"sub": "alice",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	rec, getPrincipal := serveAuth(t, nil, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	principal, found := getPrincipal()
	require.True(t, found)
	assert.Equal(t, "alice", principal)
}

func TestAuth_WrongSecret(t *testing.T) {
	token := mintToken(t, "some-other-secret", jwt.MapClaims{"sub": "alice"})

	rec, _ := serveAuth(t, nil, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_ExpiredJWT(t *testing.T) {
	token := mintToken(t, testSecret, jwt.MapClaims{
		"sub": "alice",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})

	rec, _ := serveAuth(t, nil, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_MissingSubClaim(t *testing.T) {
	token := mintToken(t, testSecret, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	rec, _ := serveAuth(t, nil, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_ValidAPIKey(t *testing.T) {
	rec, getPrincipal := serveAuth(t, []string{"key-one", "key-two"}, func(r *http.Request) {
		r.Header.Set("X-API-Key", "key-two")
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	principal, found := getPrincipal()
	require.True(t, found)
	assert.Equal(t, "api-key", principal)
}

func TestAuth_UnknownAPIKey(t *testing.T) {
	rec, _ := serveAuth(t, []string{"key-one"}, func(r *http.Request) {
		r.Header.Set("X-API-Key", "not-a-key")
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_NoCredentials(t *testing.T) {
	rec, _ := serveAuth(t, []string{"key-one"}, nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	var body struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, http.StatusUnauthorized, body.Code)
	assert.NotEmpty(t, body.Message)
}

func TestAuth_BearerPrecedence(t *testing.T) {
	token := mintToken(t, testSecret, jwt.MapClaims{
		"sub": "alice",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	rec, getPrincipal := serveAuth(t, []string{"key-one"}, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
		r.Header.Set("X-API-Key", "key-one")
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	principal, _ := getPrincipal()
	assert.Equal(t, "alice", principal, "Bearer token should take precedence over API key")
}

func TestAuth_BadBearerFallsBackToAPIKey(t *testing.T) {
	rec, getPrincipal := serveAuth(t, []string{"key-one"}, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer garbage")
		r.Header.Set("X-API-Key", "key-one")
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	principal, _ := getPrincipal()
	assert.Equal(t, "api-key", principal)
}
