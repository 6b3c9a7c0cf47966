package auth

import (
	"net/http"

	authlib "example.com/physique/pkg/auth"
)

// TokenQueryParam carries the bearer token on WebSocket upgrades.
const TokenQueryParam = "access_token"

// Middleware enforces bearer-token authentication on incoming requests.
type Middleware struct {
	inner authlib.Middleware
}

// NewMiddleware constructs Middleware with validation config.
func NewMiddleware(cfg Config) Middleware {
	skipper := func(r *http.Request) bool {
		return r.URL.Path == "/healthz" || r.URL.Path == "/metrics"
	}
	inner := authlib.NewMiddleware(cfg, skipper)
	inner.QueryParam = TokenQueryParam
	return Middleware{inner: inner}
}

// Wrap attaches authentication handling to an http.Handler.
func (m Middleware) Wrap(next http.Handler) http.Handler {
	return m.inner.Wrap(next)
}
