package domain_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/physique/internal/domain"
	"example.com/physique/internal/freshness"
	"example.com/physique/internal/muscle"
	"example.com/physique/internal/persistence/memory"
	"example.com/physique/internal/workout"
	"example.com/physique/internal/workout/workouttest"
	"example.com/physique/pkg/events"
)

var fixedNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

type recordingPublisher struct {
	events []events.ScoresRecalculated
	err    error
}

func (p *recordingPublisher) PublishScores(_ context.Context, evt events.ScoresRecalculated) error {
	p.events = append(p.events, evt)
	return p.err
}

type recordingInvalidator struct {
	users []string
}

func (i *recordingInvalidator) Invalidate(_ context.Context, userID string) error {
	i.users = append(i.users, userID)
	return errors.New("edge unavailable")
}

type failingStore struct{}

func (failingStore) LoadSnapshot(context.Context, string) (*freshness.Snapshot, error) {
	return nil, nil
}

func (failingStore) SaveSnapshot(context.Context, string, freshness.Snapshot) error {
	return errors.New("disk full")
}

func newService(t *testing.T, opts ...domain.Option) (*domain.Service, *memory.Repository) {
	t.Helper()
	repo := memory.NewRepository()
	opts = append([]domain.Option{domain.WithHistory(repo), domain.WithClock(func() time.Time { return fixedNow })}, opts...)
	return domain.NewService(repo, opts...), repo
}

func squat(ts time.Time) workout.Workout {
	return workouttest.At(ts, workout.Exercise{Name: "Squat", Sets: workouttest.Sets(3, 3)})
}

func TestRecordWorkoutPersistsAndRecalculates(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	inv := &recordingInvalidator{}
	svc, repo := newService(t, domain.WithPublisher(pub), domain.WithInvalidator(inv))

	result, err := svc.RecordWorkout(ctx, "u1", squat(fixedNow.Add(-24*time.Hour)))
	require.NoError(t, err)
	require.Equal(t, 1, result.WorkoutCount)
	require.Greater(t, result.Scores[muscle.Quads].Score, 0)

	history, err := repo.ListWorkouts(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.NotEmpty(t, history[0].ID)

	snap, err := repo.LoadSnapshot(ctx, domain.StorageKey("u1"))
	require.NoError(t, err)
	require.NotNil(t, snap)
	require.True(t, fixedNow.Equal(*snap.LastCalculated))

	require.Len(t, pub.events, 1)
	require.Equal(t, "u1", pub.events[0].UserID)
	require.Equal(t, result.Scores[muscle.Quads].Score, pub.events[0].Scores["quads"])
	require.Len(t, pub.events[0].Weakest, freshness.DefaultRankSize)
	require.Equal(t, []string{"u1"}, inv.users, "invalidation failures are logged, not returned")
}

func TestRecordWorkoutValidates(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	_, err := svc.RecordWorkout(ctx, "", squat(fixedNow))
	require.ErrorIs(t, err, domain.ErrUserRequired)

	_, err = svc.RecordWorkout(ctx, "u1", workout.Workout{Exercises: []workout.Exercise{{Name: "squat"}}})
	require.ErrorIs(t, err, domain.ErrWorkoutUndated)
}

func TestRecalculateStoredUsesHistory(t *testing.T) {
	ctx := context.Background()
	svc, repo := newService(t)
	require.NoError(t, repo.AppendWorkout(ctx, "u1", squat(fixedNow.Add(-48*time.Hour))))
	require.NoError(t, repo.AppendWorkout(ctx, "u1", squat(fixedNow.Add(-24*time.Hour))))

	result, err := svc.RecalculateStored(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, 2, result.WorkoutCount)

	direct, err := svc.Recalculate(ctx, "u2", []workout.Workout{
		squat(fixedNow.Add(-48 * time.Hour)),
		squat(fixedNow.Add(-24 * time.Hour)),
	})
	require.NoError(t, err)
	require.Equal(t, result.Scores, direct.Scores)
	require.Equal(t, result.OverallScore, direct.OverallScore)
}

func TestSummaryReflectsPersistedScores(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	empty, err := svc.Summary(ctx, "fresh")
	require.NoError(t, err)
	require.Zero(t, empty.OverallScore)
	require.Nil(t, empty.LastCalculated)
	require.Len(t, empty.Muscles, muscle.Count)
	require.Equal(t, []string{freshness.MsgGetStarted}, empty.Suggestions)

	_, err = svc.RecordWorkout(ctx, "u1", squat(fixedNow.Add(-24*time.Hour)))
	require.NoError(t, err)

	summary, err := svc.Summary(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, muscle.Chest, summary.Muscles[0].ID)
	require.Len(t, summary.Weakest, 3)
	require.Len(t, summary.Strongest, 3)
	require.Contains(t, []muscle.ID{muscle.Quads, muscle.Glutes}, summary.Strongest[0].ID)
	require.NotNil(t, summary.LastCalculated)
	require.NotEmpty(t, summary.Suggestions)

	values, err := svc.ScoreValues(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, summary.Strongest[0].Score, values[summary.Strongest[0].ID])

	_, err = svc.Summary(ctx, "")
	require.ErrorIs(t, err, domain.ErrUserRequired)
}

func TestSaveFailureIsReturned(t *testing.T) {
	pub := &recordingPublisher{}
	svc := domain.NewService(failingStore{}, domain.WithPublisher(pub), domain.WithClock(func() time.Time { return fixedNow }))

	_, err := svc.Recalculate(context.Background(), "u1", []workout.Workout{squat(fixedNow)})
	require.Error(t, err)
	require.Empty(t, pub.events)
}

func TestNilCollaboratorsDefaultToNoops(t *testing.T) {
	svc := domain.NewService(memory.NewRepository(), domain.WithHistory(nil), domain.WithPublisher(nil), domain.WithInvalidator(nil))
	result, err := svc.RecordWorkout(context.Background(), "u1", squat(time.Now()))
	require.NoError(t, err)
	require.Zero(t, result.WorkoutCount)

	users, err := svc.Users(context.Background())
	require.NoError(t, err)
	require.Empty(t, users)
}

func TestResolveExplainsRule(t *testing.T) {
	svc, _ := newService(t)
	m, rule := svc.Resolve("Barbell Bench Press", "", "")
	require.Equal(t, "partial_name", rule)
	require.Equal(t, []muscle.ID{muscle.Chest}, m.Primary)

	m, rule = svc.Resolve("Mystery Move", "", "")
	require.Empty(t, rule)
	require.True(t, m.Empty())
}

func TestSubscribeReceivesRecalculatedScores(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	updates, cancel := svc.Subscribe("u1")
	other, cancelOther := svc.Subscribe("u2")
	defer cancelOther()

	result, err := svc.RecordWorkout(ctx, "u1", squat(fixedNow.Add(-24*time.Hour)))
	require.NoError(t, err)

	got := <-updates
	require.Equal(t, result.Scores[muscle.Quads].Score, got[muscle.Quads])
	require.Len(t, got, muscle.Count)
	require.Empty(t, other, "other users are not notified")

	_, err = svc.RecordWorkout(ctx, "u1", squat(fixedNow.Add(-2*time.Hour)))
	require.NoError(t, err)
	latest, err := svc.RecordWorkout(ctx, "u1", squat(fixedNow.Add(-1*time.Hour)))
	require.NoError(t, err)
	require.Equal(t, latest.Scores[muscle.Quads].Score, (<-updates)[muscle.Quads], "a lagging subscriber sees the latest scores")
	require.Empty(t, updates)

	cancel()
	cancel()
	_, ok := <-updates
	require.False(t, ok)

	_, err = svc.RecordWorkout(ctx, "u1", squat(fixedNow))
	require.NoError(t, err)
}
