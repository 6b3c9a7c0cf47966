// Package domain orchestrates per-user freshness scoring for the physique
// services.
package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"example.com/physique/internal/cache"
	"example.com/physique/internal/freshness"
	"example.com/physique/internal/mapping"
	"example.com/physique/internal/muscle"
	"example.com/physique/internal/observability"
	"example.com/physique/internal/workout"
	"example.com/physique/pkg/events"
)

// StorageKeyPrefix namespaces score snapshots per user.
const StorageKeyPrefix = "physique_scores:"

var (
	// ErrUserRequired is returned when an operation is missing a user id.
	ErrUserRequired = errors.New("user id required")
	// ErrWorkoutUndated is returned when a recorded workout has no timestamp.
	ErrWorkoutUndated = errors.New("workout has no completion, end or start time")
)

// HistoryRepository stores the workouts scores are rebuilt from.
type HistoryRepository interface {
	AppendWorkout(ctx context.Context, userID string, w workout.Workout) error
	ListWorkouts(ctx context.Context, userID string) ([]workout.Workout, error)
	ListUsers(ctx context.Context) ([]string, error)
}

// Publisher announces recalculated scores to downstream consumers.
type Publisher interface {
	PublishScores(ctx context.Context, evt events.ScoresRecalculated) error
}

// StorageKey returns the snapshot key for userID.
func StorageKey(userID string) string {
	return StorageKeyPrefix + userID
}

// Summary is the aggregate view of one user's scores.
type Summary struct {
	UserID         string                `json:"user_id"`
	OverallScore   int                   `json:"overall_score"`
	Muscles        []freshness.ScoreView `json:"muscles"`
	Weakest        []freshness.ScoreView `json:"weakest"`
	Strongest      []freshness.ScoreView `json:"strongest"`
	Suggestions    []string              `json:"suggestions"`
	LastCalculated *time.Time            `json:"last_calculated"`
}

// Result is returned by recalculation operations.
type Result struct {
	UserID       string                            `json:"user_id"`
	OverallScore int                               `json:"overall_score"`
	Scores       map[muscle.ID]freshness.ScoreView `json:"scores"`
	WorkoutCount int                               `json:"workout_count"`
	CalculatedAt *time.Time                        `json:"calculated_at"`
}

// Service orchestrates scoring workflows.
type Service struct {
	store       freshness.Store
	history     HistoryRepository
	publisher   Publisher
	invalidator cache.Invalidator
	resolver    *mapping.Resolver
	now         func() time.Time
	logger      *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex

	subMu   sync.Mutex
	subs    map[string]map[int]chan map[muscle.ID]int
	nextSub int
}

// Option configures a Service.
type Option func(*Service)

// WithHistory sets the workout history repository.
func WithHistory(h HistoryRepository) Option {
	return func(s *Service) { s.history = h }
}

// WithPublisher sets the scores publisher.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithInvalidator sets the cache invalidator.
func WithInvalidator(inv cache.Invalidator) Option {
	return func(s *Service) { s.invalidator = inv }
}

// WithResolver overrides the exercise resolver.
func WithResolver(r *mapping.Resolver) Option {
	return func(s *Service) { s.resolver = r }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService constructs a Service persisting snapshots in store.
func NewService(store freshness.Store, opts ...Option) *Service {
	s := &Service{
		store:       store,
		history:     noopHistory{},
		publisher:   noopPublisher{},
		invalidator: cache.NoopInvalidator{},
		resolver:    mapping.DefaultResolver(),
		now:         time.Now,
		logger:      slog.Default(),
		locks:       make(map[string]*sync.Mutex),
		subs:        make(map[string]map[int]chan map[muscle.ID]int),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.history == nil {
		s.history = noopHistory{}
	}
	if s.publisher == nil {
		s.publisher = noopPublisher{}
	}
	if s.invalidator == nil {
		s.invalidator = cache.NoopInvalidator{}
	}
	return s
}

func (s *Service) engine(ctx context.Context, userID string) *freshness.Engine {
	e := freshness.NewEngine(s.store, StorageKey(userID),
		freshness.WithResolver(s.resolver),
		freshness.WithClock(s.now),
		freshness.WithLogger(s.logger),
	)
	e.Initialize(ctx)
	return e
}

// lock serialises recalculations for one user so the last save reflects the
// latest history.
func (s *Service) lock(userID string) func() {
	s.mu.Lock()
	l, ok := s.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[userID] = l
	}
	s.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// Recalculate rebuilds userID's scores from history and persists them.
func (s *Service) Recalculate(ctx context.Context, userID string, history []workout.Workout) (*Result, error) {
	if userID == "" {
		return nil, ErrUserRequired
	}
	unlock := s.lock(userID)
	defer unlock()
	return s.recalculate(ctx, userID, history)
}

func (s *Service) recalculate(ctx context.Context, userID string, history []workout.Workout) (*Result, error) {
	e := s.engine(ctx, userID)
	scores, err := e.Recalculate(ctx, history)
	if err != nil {
		return nil, fmt.Errorf("save scores for %s: %w", userID, err)
	}

	result := &Result{
		UserID:       userID,
		OverallScore: e.OverallScore(),
		Scores:       scores,
		WorkoutCount: len(history),
		CalculatedAt: e.LastCalculated(),
	}
	s.announce(ctx, e, result)
	s.notify(userID, e.ScoreValues())
	return result, nil
}

// Subscribe delivers userID's scores after every recalculation until cancel
// is called. A subscriber that falls behind only sees the latest scores.
func (s *Service) Subscribe(userID string) (<-chan map[muscle.ID]int, func()) {
	ch := make(chan map[muscle.ID]int, 1)

	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	if s.subs[userID] == nil {
		s.subs[userID] = make(map[int]chan map[muscle.ID]int)
	}
	s.subs[userID][id] = ch
	s.subMu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.subMu.Lock()
			defer s.subMu.Unlock()
			delete(s.subs[userID], id)
			if len(s.subs[userID]) == 0 {
				delete(s.subs, userID)
			}
			close(ch)
		})
	}
	return ch, cancel
}

func (s *Service) notify(userID string, scores map[muscle.ID]int) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs[userID] {
		// Only this method sends, under subMu, so after the drain the send
		// cannot block.
		select {
		case <-ch:
		default:
		}
		ch <- scores
	}
}

// announce publishes and invalidates. Failures are logged, not returned:
// the scores are already persisted.
func (s *Service) announce(ctx context.Context, e *freshness.Engine, result *Result) {
	evt := events.ScoresRecalculated{
		UserID:       result.UserID,
		OverallScore: result.OverallScore,
		Scores:       make(map[string]int, len(result.Scores)),
		Weakest:      viewIDs(e.Weakest(freshness.DefaultRankSize)),
		Strongest:    viewIDs(e.Strongest(freshness.DefaultRankSize)),
		WorkoutCount: result.WorkoutCount,
	}
	for id, v := range result.Scores {
		evt.Scores[string(id)] = v.Score
	}
	if result.CalculatedAt != nil {
		evt.CalculatedAt = result.CalculatedAt.UTC()
	}
	if err := s.publisher.PublishScores(ctx, evt); err != nil {
		s.logger.Warn("domain: publish scores failed", "user_id", result.UserID, "error", err)
	}
	if err := s.invalidator.Invalidate(ctx, result.UserID); err != nil {
		s.logger.Warn("domain: cache invalidation failed", "user_id", result.UserID, "error", err)
	}
}

func viewIDs(views []freshness.ScoreView) []string {
	out := make([]string, len(views))
	for i, v := range views {
		out[i] = string(v.ID)
	}
	return out
}

// RecalculateStored rebuilds userID's scores from the stored history.
func (s *Service) RecalculateStored(ctx context.Context, userID string) (*Result, error) {
	if userID == "" {
		return nil, ErrUserRequired
	}
	unlock := s.lock(userID)
	defer unlock()

	history, err := s.history.ListWorkouts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load history for %s: %w", userID, err)
	}
	return s.recalculate(ctx, userID, history)
}

// RecordWorkout stores w in userID's history and recalculates from it.
// Workouts without an id are assigned one.
func (s *Service) RecordWorkout(ctx context.Context, userID string, w workout.Workout) (*Result, error) {
	if userID == "" {
		return nil, ErrUserRequired
	}
	ts, ok := w.Timestamp()
	if !ok {
		return nil, ErrWorkoutUndated
	}
	if w.ID == "" {
		w.ID = uuid.NewString()
	}

	unlock := s.lock(userID)
	defer unlock()

	if err := s.history.AppendWorkout(ctx, userID, w); err != nil {
		return nil, fmt.Errorf("append workout for %s: %w", userID, err)
	}
	observability.RecordWorkoutRecorded(ts)
	history, err := s.history.ListWorkouts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load history for %s: %w", userID, err)
	}
	return s.recalculate(ctx, userID, history)
}

// Summary returns userID's persisted scores with rankings and suggestions.
func (s *Service) Summary(ctx context.Context, userID string) (*Summary, error) {
	if userID == "" {
		return nil, ErrUserRequired
	}
	e := s.engine(ctx, userID)
	return &Summary{
		UserID:         userID,
		OverallScore:   e.OverallScore(),
		Muscles:        e.Views(),
		Weakest:        e.Weakest(freshness.DefaultRankSize),
		Strongest:      e.Strongest(freshness.DefaultRankSize),
		Suggestions:    e.BalanceSuggestions(),
		LastCalculated: e.LastCalculated(),
	}, nil
}

// Scores returns userID's persisted per-muscle views and overall score.
func (s *Service) Scores(ctx context.Context, userID string) (map[muscle.ID]freshness.ScoreView, int, error) {
	if userID == "" {
		return nil, 0, ErrUserRequired
	}
	e := s.engine(ctx, userID)
	return e.Scores(), e.OverallScore(), nil
}

// ScoreValues returns userID's integer scores, the shape the body map uses.
func (s *Service) ScoreValues(ctx context.Context, userID string) (map[muscle.ID]int, error) {
	if userID == "" {
		return nil, ErrUserRequired
	}
	return s.engine(ctx, userID).ScoreValues(), nil
}

// Weakest returns userID's n lowest-scoring muscles.
func (s *Service) Weakest(ctx context.Context, userID string, n int) ([]freshness.ScoreView, error) {
	if userID == "" {
		return nil, ErrUserRequired
	}
	return s.engine(ctx, userID).Weakest(n), nil
}

// Strongest returns userID's n highest-scoring muscles.
func (s *Service) Strongest(ctx context.Context, userID string, n int) ([]freshness.ScoreView, error) {
	if userID == "" {
		return nil, ErrUserRequired
	}
	return s.engine(ctx, userID).Strongest(n), nil
}

// Suggestions returns userID's training balance suggestions.
func (s *Service) Suggestions(ctx context.Context, userID string) ([]string, error) {
	if userID == "" {
		return nil, ErrUserRequired
	}
	return s.engine(ctx, userID).BalanceSuggestions(), nil
}

// Resolve maps an exercise identity to muscles and names the rule that
// matched, or "" when none did.
func (s *Service) Resolve(name, target, bodyPart string) (mapping.Mapping, string) {
	return s.resolver.Explain(name, target, bodyPart)
}

// Users lists every user with stored history.
func (s *Service) Users(ctx context.Context) ([]string, error) {
	return s.history.ListUsers(ctx)
}

type noopHistory struct{}

func (noopHistory) AppendWorkout(context.Context, string, workout.Workout) error { return nil }
func (noopHistory) ListWorkouts(context.Context, string) ([]workout.Workout, error) {
	return nil, nil
}
func (noopHistory) ListUsers(context.Context) ([]string, error) { return nil, nil }

type noopPublisher struct{}

func (noopPublisher) PublishScores(context.Context, events.ScoresRecalculated) error { return nil }
