package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/physique/internal/freshness"
	"example.com/physique/internal/muscle"
	"example.com/physique/internal/workout"
	"example.com/physique/internal/workout/workouttest"
)

func TestSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()

	snap, err := repo.LoadSnapshot(ctx, "physique_scores:u1")
	require.NoError(t, err)
	require.Nil(t, snap)

	trained := time.Date(2025, 3, 9, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.SaveSnapshot(ctx, "physique_scores:u1", freshness.Snapshot{
		Muscles:        map[muscle.ID]freshness.Record{muscle.Quads: {Score: 42, LastTrained: &trained, WeeklyVolume: 3}},
		LastCalculated: &trained,
	}))

	snap, err = repo.LoadSnapshot(ctx, "physique_scores:u1")
	require.NoError(t, err)
	require.Equal(t, 42.0, snap.Muscles[muscle.Quads].Score)
	require.True(t, trained.Equal(*snap.Muscles[muscle.Quads].LastTrained))

	snap.Muscles[muscle.Quads] = freshness.Record{Score: 1}
	again, err := repo.LoadSnapshot(ctx, "physique_scores:u1")
	require.NoError(t, err)
	require.Equal(t, 42.0, again.Muscles[muscle.Quads].Score)
}

func TestHistoryAppendReplacesByID(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()
	ts := time.Date(2025, 3, 9, 10, 0, 0, 0, time.UTC)

	first := workouttest.At(ts, workout.Exercise{Name: "squat", Sets: workouttest.Sets(3, 3)})
	first.ID = "w1"
	require.NoError(t, repo.AppendWorkout(ctx, "u2", first))
	require.NoError(t, repo.AppendWorkout(ctx, "u1", workouttest.At(ts)))

	updated := workouttest.At(ts, workout.Exercise{Name: "squat", Sets: workouttest.Sets(5, 5)})
	updated.ID = "w1"
	require.NoError(t, repo.AppendWorkout(ctx, "u2", updated))

	history, err := repo.ListWorkouts(ctx, "u2")
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Len(t, history[0].Exercises[0].Sets, 5)

	users, err := repo.ListUsers(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"u1", "u2"}, users)
}
