// Package api exposes HTTP handlers for the physique service.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"example.com/physique/internal/auth"
	"example.com/physique/internal/domain"
	"example.com/physique/internal/mapping"
	"example.com/physique/internal/muscle"
	"example.com/physique/internal/observability"
	"example.com/physique/internal/stream"
	"example.com/physique/internal/workout"
)

const maxBodyBytes = 1 << 20

// Handler coordinates HTTP requests with the domain service.
type Handler struct {
	service *domain.Service
	logger  *slog.Logger

	models         stream.ModelSource
	defaultModel   string
	hostOptions    []stream.HostOption
	originPatterns []string
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) { h.logger = l }
}

// WithModels enables the body-map stream endpoint, serving models from source
// and showing defaultKey when the client does not pick one.
func WithModels(source stream.ModelSource, defaultKey string) Option {
	return func(h *Handler) {
		h.models = source
		h.defaultModel = defaultKey
	}
}

// WithHostOptions forwards options to every stream session.
func WithHostOptions(opts ...stream.HostOption) Option {
	return func(h *Handler) { h.hostOptions = append(h.hostOptions, opts...) }
}

// WithOriginPatterns lists extra origins allowed to open the stream socket.
func WithOriginPatterns(patterns ...string) Option {
	return func(h *Handler) { h.originPatterns = append(h.originPatterns, patterns...) }
}

// NewHandler builds a Handler.
func NewHandler(service *domain.Service, opts ...Option) *Handler {
	h := &Handler{service: service, logger: slog.Default()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", healthz)
	mux.HandleFunc("GET /v1/muscles", h.taxonomy)
	mux.HandleFunc("GET /v1/exercises/resolve", h.resolve)
	mux.HandleFunc("GET /v1/exercises/overrides", h.overrides)
	mux.HandleFunc("GET /v1/users/{userID}/scores", h.scores)
	mux.HandleFunc("GET /v1/users/{userID}/summary", h.summary)
	mux.HandleFunc("GET /v1/users/{userID}/muscles/weakest", h.weakest)
	mux.HandleFunc("GET /v1/users/{userID}/muscles/strongest", h.strongest)
	mux.HandleFunc("GET /v1/users/{userID}/suggestions", h.suggestions)
	mux.HandleFunc("POST /v1/users/{userID}/recalculate", h.recalculate)
	mux.HandleFunc("POST /v1/users/{userID}/workouts", h.recordWorkout)
	mux.HandleFunc("GET /v1/bodymap/stream", h.bodyMapStream)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// authorizeUser checks the caller may act on the path user. It writes the
// error response and returns false when not.
func authorizeUser(w http.ResponseWriter, r *http.Request, userID, scope string) bool {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return false
	}
	if !auth.CanAccessUser(claims, userID, scope) {
		writeError(w, http.StatusForbidden, "forbidden", "scope "+scope+" on user "+userID+" required")
		return false
	}
	return true
}

func requireScope(w http.ResponseWriter, r *http.Request, scope string) bool {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return false
	}
	if !claims.HasScope(scope) && !claims.HasScope(auth.ScopeAdmin) {
		writeError(w, http.StatusForbidden, "forbidden", "scope "+scope+" required")
		return false
	}
	return true
}

func (h *Handler) taxonomy(w http.ResponseWriter, r *http.Request) {
	if !requireScope(w, r, auth.ScopeRead) {
		return
	}
	writeJSON(w, http.StatusOK, TaxonomyResponse{
		Muscles: muscle.All(),
		Bands:   []muscle.Band{muscle.BandGreen, muscle.BandAmber, muscle.BandRed, muscle.BandNeutral},
	})
}

func (h *Handler) resolve(w http.ResponseWriter, r *http.Request) {
	if !requireScope(w, r, auth.ScopeRead) {
		return
	}
	q := r.URL.Query()
	name, target, bodyPart := q.Get("name"), q.Get("target"), q.Get("bodyPart")
	if name == "" && target == "" && bodyPart == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "one of name, target or bodyPart is required")
		return
	}
	m, rule := h.service.Resolve(name, target, bodyPart)
	writeJSON(w, http.StatusOK, ResolveResponse{
		Name:      name,
		Target:    target,
		BodyPart:  bodyPart,
		Primary:   m.Primary,
		Secondary: m.Secondary,
		Rule:      rule,
	})
}

func (h *Handler) overrides(w http.ResponseWriter, r *http.Request) {
	if !requireScope(w, r, auth.ScopeRead) {
		return
	}
	writeJSON(w, http.StatusOK, toOverrideViews(mapping.Overrides()))
}

func (h *Handler) scores(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userID")
	if !authorizeUser(w, r, userID, auth.ScopeRead) {
		return
	}
	scores, overall, err := h.service.Scores(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ScoresResponse{UserID: userID, OverallScore: overall, Scores: scores})
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userID")
	if !authorizeUser(w, r, userID, auth.ScopeRead) {
		return
	}
	summary, err := h.service.Summary(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) weakest(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userID")
	if !authorizeUser(w, r, userID, auth.ScopeRead) {
		return
	}
	views, err := h.service.Weakest(r.Context(), userID, parseLimit(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, RankingResponse{UserID: userID, Muscles: views})
}

func (h *Handler) strongest(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userID")
	if !authorizeUser(w, r, userID, auth.ScopeRead) {
		return
	}
	views, err := h.service.Strongest(r.Context(), userID, parseLimit(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, RankingResponse{UserID: userID, Muscles: views})
}

func (h *Handler) suggestions(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userID")
	if !authorizeUser(w, r, userID, auth.ScopeRead) {
		return
	}
	suggestions, err := h.service.Suggestions(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SuggestionsResponse{UserID: userID, Suggestions: suggestions})
}

func (h *Handler) recalculate(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userID")
	if !authorizeUser(w, r, userID, auth.ScopeWrite) {
		return
	}

	var req RecalculateRequest
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req)
	switch {
	case errors.Is(err, io.EOF):
		result, err := h.service.RecalculateStored(r.Context(), userID)
		h.writeResult(w, r, result, err)
		return
	case err != nil:
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	if req.Workouts == nil {
		req.Workouts = []workout.Workout{}
	}
	result, err := h.service.Recalculate(r.Context(), userID, req.Workouts)
	h.writeResult(w, r, result, err)
}

func (h *Handler) recordWorkout(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userID")
	if !authorizeUser(w, r, userID, auth.ScopeWrite) {
		return
	}

	var req workout.Workout
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	result, err := h.service.RecordWorkout(r.Context(), userID, req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toScoresResponse(result))
}

func (h *Handler) writeResult(w http.ResponseWriter, r *http.Request, result *domain.Result, err error) {
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toScoresResponse(result))
}

func toScoresResponse(result *domain.Result) ScoresResponse {
	count := result.WorkoutCount
	return ScoresResponse{
		UserID:         result.UserID,
		OverallScore:   result.OverallScore,
		Scores:         result.Scores,
		WorkoutCount:   &count,
		LastCalculated: result.CalculatedAt,
	}
}

func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrUserRequired), errors.Is(err, domain.ErrWorkoutUndated):
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
	default:
		h.logger.Error("api: request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		observability.CaptureError(err, map[string]string{"path": r.URL.Path})
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
	}
}

func parseLimit(r *http.Request) int {
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			return parsed
		}
	}
	return 0
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
