// Package freshness computes decayed per-muscle training scores from workout
// history.
package freshness

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"example.com/physique/internal/mapping"
	"example.com/physique/internal/muscle"
	"example.com/physique/internal/observability"
	"example.com/physique/internal/workout"
)

// Scoring constants.
const (
	PointsPerSet    = 8
	DecayRate       = 0.985
	MaxScore        = 100.0
	PrimaryWeight   = 0.7
	SecondaryWeight = 0.3
	// SecondaryVolumeShare scales completed sets credited to secondary muscles'
	// weekly volume.
	SecondaryVolumeShare = 0.3
	WeeklyWindow         = 7 * day
	RecentDays           = 2
)

const day = 24 * time.Hour

// Engine owns the score state for one storage key. It is not safe for
// concurrent Recalculate calls; concurrent writers to the same key race and
// the last save wins.
type Engine struct {
	store    Store
	key      string
	resolver *mapping.Resolver
	now      func() time.Time
	logger   *slog.Logger

	records        map[muscle.ID]Record
	lastCalculated *time.Time
	initialized    bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithResolver overrides the exercise resolver.
func WithResolver(r *mapping.Resolver) Option {
	return func(e *Engine) { e.resolver = r }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// NewEngine constructs an engine persisting under key.
func NewEngine(store Store, key string, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		key:      key,
		resolver: mapping.DefaultResolver(),
		now:      time.Now,
		logger:   slog.Default(),
		records:  zeroRecords(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Initialize loads the persisted snapshot. Read failures degrade to all-zero
// scores rather than being returned.
func (e *Engine) Initialize(ctx context.Context) {
	e.initialized = true
	e.records = zeroRecords()
	e.lastCalculated = nil
	if e.store == nil {
		return
	}

	snap, err := e.store.LoadSnapshot(ctx, e.key)
	if err != nil {
		e.logger.Warn("freshness: failed to load scores", "key", e.key, "error", err)
		return
	}
	if snap == nil {
		return
	}
	for id, rec := range snap.Muscles {
		if !muscle.Valid(id) {
			continue
		}
		rec.Score = clamp(rec.Score)
		if rec.WeeklyVolume < 0 {
			rec.WeeklyVolume = 0
		}
		e.records[id] = rec
	}
	e.lastCalculated = snap.LastCalculated
}

// Recalculate rebuilds every record from history and persists the result.
// A save failure is returned but the in-memory scores are still replaced.
func (e *Engine) Recalculate(ctx context.Context, history []workout.Workout) (map[muscle.ID]ScoreView, error) {
	if !e.initialized {
		e.Initialize(ctx)
	}
	started := time.Now()
	now := e.now()

	records := zeroRecords()
	if len(history) > 0 {
		e.accumulate(records, history, now)
		for id, rec := range records {
			rec.Score = math.Round(rec.Score)
			records[id] = rec
		}
	}

	e.records = records
	e.lastCalculated = &now
	observability.RecordRecalculation(time.Since(started), len(history))

	if err := e.save(ctx); err != nil {
		return e.Scores(), err
	}
	return e.Scores(), nil
}

type datedWorkout struct {
	workout workout.Workout
	at      time.Time
}

func (e *Engine) accumulate(records map[muscle.ID]Record, history []workout.Workout, now time.Time) {
	dated := make([]datedWorkout, 0, len(history))
	for _, w := range history {
		at, ok := w.Timestamp()
		if !ok {
			continue
		}
		dated = append(dated, datedWorkout{workout: w, at: at})
	}
	sort.SliceStable(dated, func(i, j int) bool { return dated[i].at.Before(dated[j].at) })

	weekStart := now.Add(-WeeklyWindow)
	for _, d := range dated {
		daysAgo := math.Max(0, now.Sub(d.at).Hours()/24)
		decay := math.Pow(DecayRate, daysAgo)
		thisWeek := !d.at.Before(weekStart)

		for _, ex := range d.workout.Exercises {
			sets := ex.CompletedSets()
			if sets == 0 {
				continue
			}
			m := e.resolver.Resolve(ex.Name, ex.Target, ex.BodyPart)
			if m.Empty() {
				continue
			}

			decayed := float64(sets*PointsPerSet) * decay
			primaryVolume, secondaryVolume := 0, 0
			if thisWeek {
				primaryVolume = sets
				secondaryVolume = int(math.Round(float64(sets) * SecondaryVolumeShare))
			}
			award(records, m.Primary, decayed*PrimaryWeight, d.at, primaryVolume)
			award(records, m.Secondary, decayed*SecondaryWeight, d.at, secondaryVolume)
		}
	}
}

// award splits points evenly across ids. Each addition is clamped to
// MaxScore on its own, so overflow from one step is discarded.
func award(records map[muscle.ID]Record, ids []muscle.ID, points float64, at time.Time, volume int) {
	if len(ids) == 0 {
		return
	}
	share := points / float64(len(ids))
	for _, id := range ids {
		rec, ok := records[id]
		if !ok {
			continue
		}
		rec.Score = math.Min(MaxScore, rec.Score+share)
		if rec.LastTrained == nil || at.After(*rec.LastTrained) {
			ts := at
			rec.LastTrained = &ts
		}
		rec.WeeklyVolume += volume
		records[id] = rec
	}
}

func (e *Engine) save(ctx context.Context) error {
	if e.store == nil {
		return nil
	}
	snap := Snapshot{Muscles: cloneRecords(e.records), LastCalculated: e.lastCalculated}
	if err := e.store.SaveSnapshot(ctx, e.key, snap); err != nil {
		e.logger.Warn("freshness: failed to save scores", "key", e.key, "error", err)
		return fmt.Errorf("save scores: %w", err)
	}
	return nil
}

// LastCalculated returns when the scores were last rebuilt, if ever.
func (e *Engine) LastCalculated() *time.Time {
	return e.lastCalculated
}

// Records returns a copy of the raw records.
func (e *Engine) Records() map[muscle.ID]Record {
	return cloneRecords(e.records)
}

func clamp(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return math.Min(MaxScore, v)
}
