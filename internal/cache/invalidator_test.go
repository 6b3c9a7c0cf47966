package cache

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHTTPInvalidatorPostsUserPaths(t *testing.T) {
	var body, authz string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		body = string(raw)
		authz = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	inv := NewHTTPInvalidator(srv.URL+"/", "purge-token", time.Second)
	require.NoError(t, inv.Invalidate(context.Background(), "u1"))
	require.Equal(t, "Bearer purge-token", authz)
	require.Contains(t, body, "/v1/users/u1/summary")
	require.Contains(t, body, "/v1/users/u1/scores")
}

func TestHTTPInvalidatorReportsStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewHTTPInvalidator(srv.URL, "", time.Second).Invalidate(context.Background(), "u1")
	var invErr *InvalidationError
	require.True(t, errors.As(err, &invErr))
	require.Equal(t, http.StatusBadGateway, invErr.Status)
}

func TestNoopInvalidator(t *testing.T) {
	require.NoError(t, NoopInvalidator{}.Invalidate(context.Background(), "u1"))
}
