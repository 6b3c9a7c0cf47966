// Package cache notifies edge caches that a user's score views went stale.
package cache

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// Invalidator defines a cache invalidation contract.
type Invalidator interface {
	Invalidate(ctx context.Context, userID string) error
}

// NoopInvalidator is a no-op implementation.
type NoopInvalidator struct{}

// Invalidate performs no action.
func (NoopInvalidator) Invalidate(context.Context, string) error { return nil }

// HTTPInvalidator calls an upstream edge cache purge endpoint.
type HTTPInvalidator struct {
	client *http.Client
	url    string
	token  string
}

// NewHTTPInvalidator constructs an HTTPInvalidator.
func NewHTTPInvalidator(endpoint, token string, timeout time.Duration) *HTTPInvalidator {
	return &HTTPInvalidator{
		client: &http.Client{Timeout: timeout},
		url:    strings.TrimRight(endpoint, "/"),
		token:  token,
	}
}

// Invalidate POSTs the cache paths derived from the user's id.
func (h *HTTPInvalidator) Invalidate(ctx context.Context, userID string) error {
	body := strings.Join(Paths(userID), "\n")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, strings.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "text/plain")
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return &InvalidationError{Status: resp.StatusCode}
	}
	return nil
}

// Paths lists the API paths whose cached responses depend on userID's scores.
func Paths(userID string) []string {
	base := "/v1/users/" + userID
	return []string{
		base + "/scores",
		base + "/summary",
		base + "/suggestions",
		base + "/muscles/weakest",
		base + "/muscles/strongest",
	}
}

// InvalidationError represents a non-successful invalidation response.
type InvalidationError struct {
	Status int
}

func (e *InvalidationError) Error() string {
	return "cache invalidation failed with status " + http.StatusText(e.Status)
}
