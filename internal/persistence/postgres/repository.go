// Package postgres persists score snapshots and workout history in Postgres.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/physique/internal/domain"
	"example.com/physique/internal/freshness"
	"example.com/physique/internal/workout"
)

// Repository provides Postgres-backed persistence for snapshots and history.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// LoadSnapshot returns the snapshot stored under key, or nil when absent.
func (r *Repository) LoadSnapshot(ctx context.Context, key string) (*freshness.Snapshot, error) {
	const query = `SELECT payload FROM score_snapshots WHERE storage_key=$1`

	var payload []byte
	if err := r.pool.QueryRow(ctx, query, key).Scan(&payload); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	var snap freshness.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", key, err)
	}
	return &snap, nil
}

// SaveSnapshot upserts the snapshot under key as a full replacement.
func (r *Repository) SaveSnapshot(ctx context.Context, key string, snapshot freshness.Snapshot) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}

	const upsert = `INSERT INTO score_snapshots (storage_key, payload, last_calculated, updated_at)
        VALUES ($1, $2, $3, now())
        ON CONFLICT (storage_key) DO UPDATE SET payload=EXCLUDED.payload, last_calculated=EXCLUDED.last_calculated, updated_at=now()`

	_, err = r.pool.Exec(ctx, upsert, key, payload, snapshot.LastCalculated)
	return err
}

// AppendWorkout stores w for userID. Re-delivered workouts with the same id
// replace the stored row.
func (r *Repository) AppendWorkout(ctx context.Context, userID string, w workout.Workout) error {
	occurred, ok := w.Timestamp()
	if !ok {
		return domain.ErrWorkoutUndated
	}
	if w.ID == "" {
		return errors.New("workout id required")
	}
	payload, err := json.Marshal(w)
	if err != nil {
		return err
	}

	const upsert = `INSERT INTO workouts (workout_id, user_id, occurred_at, payload, recorded_at)
        VALUES ($1, $2, $3, $4, now())
        ON CONFLICT (workout_id) DO UPDATE SET occurred_at=EXCLUDED.occurred_at, payload=EXCLUDED.payload, recorded_at=now()
        WHERE workouts.user_id=EXCLUDED.user_id`

	_, err = r.pool.Exec(ctx, upsert, w.ID, userID, occurred.UTC(), payload)
	return err
}

// ListWorkouts returns userID's history ordered by occurrence.
func (r *Repository) ListWorkouts(ctx context.Context, userID string) ([]workout.Workout, error) {
	const query = `SELECT payload FROM workouts WHERE user_id=$1 ORDER BY occurred_at, workout_id`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []workout.Workout
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var w workout.Workout
		if err := json.Unmarshal(payload, &w); err != nil {
			return nil, fmt.Errorf("decode workout for %s: %w", userID, err)
		}
		history = append(history, w)
	}
	return history, rows.Err()
}

// ListUsers returns every user with stored history.
func (r *Repository) ListUsers(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT user_id FROM workouts ORDER BY user_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}
	return users, nil
}

var (
	_ freshness.Store          = (*Repository)(nil)
	_ domain.HistoryRepository = (*Repository)(nil)
)
