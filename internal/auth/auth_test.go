package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	authlib "example.com/physique/pkg/auth"
	"github.com/stretchr/testify/require"
)

func TestCanAccessUser(t *testing.T) {
	owner := &Claims{Subject: "u1", Scopes: map[string]struct{}{ScopeRead: {}}}
	require.True(t, CanAccessUser(owner, "u1", ScopeRead))
	require.False(t, CanAccessUser(owner, "u1", ScopeWrite))
	require.False(t, CanAccessUser(owner, "u2", ScopeRead))

	admin := &Claims{Subject: "ops", Scopes: map[string]struct{}{ScopeAdmin: {}}}
	require.True(t, CanAccessUser(admin, "u2", ScopeWrite))
	require.False(t, CanAccessUser(nil, "u1", ScopeRead))
}

func TestMiddlewareSkipsHealthAndAcceptsQueryToken(t *testing.T) {
	cfg := Config{Secret: "s", Issuer: "i"}
	handler := NewMiddleware(cfg).Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/muscles", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := authlib.Issue("u1", []string{ScopeRead}, time.Minute, cfg)
	require.NoError(t, err)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/bodymap/stream?"+TokenQueryParam+"="+token, nil))
	require.Equal(t, http.StatusOK, rec.Code)
}
