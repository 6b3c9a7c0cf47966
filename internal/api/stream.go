package api

import (
	"context"
	"net/http"
	"slices"

	"github.com/coder/websocket"

	"example.com/physique/internal/auth"
	"example.com/physique/internal/muscle"
	"example.com/physique/internal/stream"
)

// bodyMapStream upgrades to a WebSocket and runs a stream.Host session for the
// requested user, showing their scores on the requested model.
func (h *Handler) bodyMapStream(w http.ResponseWriter, r *http.Request) {
	if h.models == nil {
		writeError(w, http.StatusNotFound, "not_found", "body map models are not configured")
		return
	}
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}

	userID := r.URL.Query().Get("user")
	if userID == "" {
		userID = claims.Subject
	}
	if !authorizeUser(w, r, userID, auth.ScopeRead) {
		return
	}

	model := r.URL.Query().Get("model")
	if model == "" {
		model = h.defaultModel
	}
	if !slices.Contains(h.models.Keys(), model) {
		writeError(w, http.StatusBadRequest, "validation_failed", "unknown model "+model)
		return
	}

	updates, unsubscribe := h.service.Subscribe(userID)
	defer unsubscribe()

	scores, err := h.service.ScoreValues(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	conn, err := stream.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: h.originPatterns})
	if err != nil {
		// Accept has already written the handshake failure.
		h.logger.Warn("api: websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	logger := h.logger.With("user_id", userID, "model", model)
	opts := append([]stream.HostOption{
		stream.WithHostLogger(logger),
		stream.OnMuscleTapped(func(id muscle.ID) {
			logger.Info("api: muscle tapped", "muscle", id)
		}),
		stream.OnModelError(func(key, cause string) {
			logger.Warn("api: surface failed to load model", "key", key, "cause", cause)
		}),
	}, h.hostOptions...)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	host := stream.NewHost(conn, h.models, model, opts...)
	host.UpdateScores(ctx, scores)
	go forwardScores(ctx, host, updates)
	if err := host.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Warn("api: stream session ended", "error", err)
	}
}

// forwardScores pushes recalculated scores to the session until ctx ends or
// the subscription closes.
func forwardScores(ctx context.Context, host *stream.Host, updates <-chan map[muscle.ID]int) {
	for {
		select {
		case <-ctx.Done():
			return
		case scores, ok := <-updates:
			if !ok {
				return
			}
			host.UpdateScores(ctx, scores)
		}
	}
}
