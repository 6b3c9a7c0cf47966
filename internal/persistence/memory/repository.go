// Package memory keeps score snapshots and workout history in process memory
// for local development and tests.
package memory

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"example.com/physique/internal/freshness"
	"example.com/physique/internal/workout"
)

// Repository implements freshness.Store and domain.HistoryRepository.
type Repository struct {
	mu        sync.RWMutex
	snapshots map[string][]byte
	histories map[string][]workout.Workout
}

// NewRepository constructs an empty Repository.
func NewRepository() *Repository {
	return &Repository{
		snapshots: make(map[string][]byte),
		histories: make(map[string][]workout.Workout),
	}
}

// LoadSnapshot returns the snapshot stored under key, or nil when absent.
func (r *Repository) LoadSnapshot(_ context.Context, key string) (*freshness.Snapshot, error) {
	r.mu.RLock()
	raw, ok := r.snapshots[key]
	r.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	var snap freshness.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// SaveSnapshot replaces the snapshot stored under key. Snapshots are kept
// serialised so callers cannot alias stored state.
func (r *Repository) SaveSnapshot(_ context.Context, key string, snapshot freshness.Snapshot) error {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.snapshots[key] = raw
	r.mu.Unlock()
	return nil
}

// AppendWorkout adds w to userID's history. A workout with an id already
// present replaces the earlier entry.
func (r *Repository) AppendWorkout(_ context.Context, userID string, w workout.Workout) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	history := r.histories[userID]
	if w.ID != "" {
		for i := range history {
			if history[i].ID == w.ID {
				history[i] = w
				return nil
			}
		}
	}
	r.histories[userID] = append(history, w)
	return nil
}

// ListWorkouts returns a copy of userID's history in insertion order.
func (r *Repository) ListWorkouts(_ context.Context, userID string) ([]workout.Workout, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	history := r.histories[userID]
	out := make([]workout.Workout, len(history))
	copy(out, history)
	return out, nil
}

// ListUsers returns every user with history, sorted.
func (r *Repository) ListUsers(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	users := make([]string, 0, len(r.histories))
	for id := range r.histories {
		users = append(users, id)
	}
	sort.Strings(users)
	return users, nil
}
