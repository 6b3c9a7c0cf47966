package refresh

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/physique/internal/domain"
	"example.com/physique/internal/muscle"
	"example.com/physique/internal/persistence/memory"
	"example.com/physique/internal/workout"
	"example.com/physique/internal/workout/workouttest"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type flakyRecalculator struct {
	users []string
	fail  map[string]bool
	calls []string
}

func (f *flakyRecalculator) Users(context.Context) ([]string, error) { return f.users, nil }

func (f *flakyRecalculator) RecalculateStored(_ context.Context, userID string) (*domain.Result, error) {
	f.calls = append(f.calls, userID)
	if f.fail[userID] {
		return nil, errors.New("boom")
	}
	return &domain.Result{UserID: userID}, nil
}

func TestRunOnceContinuesPastFailures(t *testing.T) {
	rec := &flakyRecalculator{users: []string{"a", "b", "c"}, fail: map[string]bool{"b": true}}
	report, err := NewScheduler(rec, WithLogger(quietLogger)).RunOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, report.Users)
	require.Equal(t, []string{"b"}, report.Failed)
	require.Equal(t, []string{"a", "b", "c"}, rec.calls)
}

func TestRunOnceDecaysStoredScores(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewRepository()
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	svc := domain.NewService(repo, domain.WithHistory(repo), domain.WithClock(func() time.Time { return clock() }))

	_, err := svc.RecordWorkout(ctx, "u1", workouttest.At(now, workout.Exercise{Name: "squat", Sets: workouttest.Sets(10, 10)}))
	require.NoError(t, err)
	before, err := svc.ScoreValues(ctx, "u1")
	require.NoError(t, err)

	later := now.Add(60 * 24 * time.Hour)
	clock = func() time.Time { return later }
	report, err := NewScheduler(svc, WithLogger(quietLogger)).RunOnce(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, report.Users)

	after, err := svc.ScoreValues(ctx, "u1")
	require.NoError(t, err)
	require.Less(t, after[muscle.Quads], before[muscle.Quads])
}

func TestStartRejectsBadSchedule(t *testing.T) {
	s := NewScheduler(&flakyRecalculator{}, WithSchedule("not a schedule"), WithLogger(quietLogger))
	require.Error(t, s.Start(context.Background()))
}

func TestStartStop(t *testing.T) {
	s := NewScheduler(&flakyRecalculator{}, WithLogger(quietLogger))
	require.NoError(t, s.Start(context.Background()))
	require.Error(t, s.Start(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
	s.Stop(ctx)
}
