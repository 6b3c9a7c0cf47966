//go:build integration

package postgres

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	postgrescontainer "github.com/testcontainers/testcontainers-go/modules/postgres"

	"example.com/physique/internal/domain"
	"example.com/physique/internal/freshness"
	"example.com/physique/internal/muscle"
	"example.com/physique/internal/workout"
	"example.com/physique/internal/workout/workouttest"
)

func TestRepositoryPersistsScoresAndHistory(t *testing.T) {
	ctx := context.Background()

	pg, err := postgrescontainer.Run(ctx, "postgres:16-alpine",
		postgrescontainer.WithDatabase("physique"),
		postgrescontainer.WithUsername("physique"),
		postgrescontainer.WithPassword("physique"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	require.NoError(t, waitForDatabase(ctx, connStr))
	runMigrations(t, ctx, connStr)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	repo := NewRepository(pool)
	userID := uuid.NewString()
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	svc := domain.NewService(repo, domain.WithHistory(repo), domain.WithClock(func() time.Time { return now }))
	_, err = svc.RecordWorkout(ctx, userID, workouttest.At(now.Add(-24*time.Hour),
		workout.Exercise{Name: "squat", Sets: workouttest.Sets(3, 3)}))
	require.NoError(t, err)

	snap, err := repo.LoadSnapshot(ctx, domain.StorageKey(userID))
	require.NoError(t, err)
	require.NotNil(t, snap)
	require.Greater(t, snap.Muscles[muscle.Quads].Score, 0.0)

	missing, err := repo.LoadSnapshot(ctx, domain.StorageKey("nobody"))
	require.NoError(t, err)
	require.Nil(t, missing)

	require.NoError(t, repo.SaveSnapshot(ctx, domain.StorageKey(userID), freshness.Snapshot{}))
	snap, err = repo.LoadSnapshot(ctx, domain.StorageKey(userID))
	require.NoError(t, err)
	require.Empty(t, snap.Muscles)

	history, err := repo.ListWorkouts(ctx, userID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.NotEmpty(t, history[0].ID)

	users, err := repo.ListUsers(ctx)
	require.NoError(t, err)
	require.Contains(t, users, userID)
}

func runMigrations(t *testing.T, ctx context.Context, connStr string) {
	files := []string{
		"../../../db/postgres/migrations/0001_init.up.sql",
	}

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	defer pool.Close()

	for _, rel := range files {
		path := resolvePath(t, rel)
		contents, readErr := os.ReadFile(path)
		require.NoError(t, readErr)

		_, execErr := pool.Exec(ctx, string(contents))
		require.NoError(t, execErr)
	}
}

func resolvePath(t *testing.T, rel string) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	return filepath.Join(filepath.Dir(file), rel)
}

func waitForDatabase(ctx context.Context, connStr string) error {
	deadline := time.Now().Add(30 * time.Second)
	for {
		pool, err := pgxpool.New(ctx, connStr)
		if err == nil {
			err = pool.Ping(ctx)
			pool.Close()
			if err == nil {
				return nil
			}
		}
		if time.Now().After(deadline) {
			return err
		}
		time.Sleep(time.Second)
	}
}
