package consumer

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"

	"example.com/physique/internal/domain"
	"example.com/physique/internal/workout"
	"example.com/physique/pkg/events"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestProcessorCommitsOnSuccess(t *testing.T) {
	msg := kafka.Message{
		Topic:   "workout_events",
		Offset:  10,
		Time:    time.Now().UTC(),
		Value:   []byte(`{"workout_id":"w1"}`),
		Headers: []kafka.Header{{Key: "event_type", Value: []byte(events.TypeWorkoutCompleted)}},
	}
	reader := &stubReader{messages: []kafka.Message{msg}}
	handler := &stubHandler{}

	err := NewProcessor(reader, handler, WithLogger(quietLogger)).Run(context.Background())
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, handler.calls)
	require.Equal(t, 1, reader.commitCalls)
	require.Equal(t, events.TypeWorkoutCompleted, handler.last.EventType())
	require.JSONEq(t, `{"workout_id":"w1"}`, string(handler.last.Payload))
}

func TestProcessorSkipsCommitOnTransientError(t *testing.T) {
	reader := &stubReader{messages: []kafka.Message{{Topic: "workout_events", Value: []byte(`{}`)}}}
	handler := &stubHandler{err: errors.New("database down")}

	err := NewProcessor(reader, handler, WithLogger(quietLogger)).Run(context.Background())
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, handler.calls)
	require.Zero(t, reader.commitCalls)
}

func TestProcessorCommitsPermanentFailures(t *testing.T) {
	reader := &stubReader{messages: []kafka.Message{{Topic: "workout_events", Value: []byte(`nope`)}}}
	handler := &stubHandler{err: ErrPermanent}

	err := NewProcessor(reader, handler, WithLogger(quietLogger)).Run(context.Background())
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, reader.commitCalls)
}

func TestProcessorRecordsMetrics(t *testing.T) {
	at := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	reader := &stubReader{messages: []kafka.Message{
		{Topic: "metrics_topic", Time: at, Value: []byte(`{}`)},
		{Topic: "metrics_topic", Time: at.Add(time.Minute), Value: []byte(`{}`)},
	}}
	handler := &stubHandler{}

	err := NewProcessor(reader, handler, WithLogger(quietLogger)).Run(context.Background())
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, float64(2), counterValue(t, processedCounter.WithLabelValues("metrics_topic", "")))
	require.Zero(t, counterValue(t, handlerErrorCounter.WithLabelValues("metrics_topic", "")))

	gauge := &dto.Metric{}
	require.NoError(t, lastMessageGauge.WithLabelValues("metrics_topic").Write(gauge))
	require.Equal(t, float64(at.Add(time.Minute).Unix()), gauge.GetGauge().GetValue())

	failing := &stubReader{messages: []kafka.Message{{Topic: "metrics_topic", Value: []byte(`{}`)}}}
	err = NewProcessor(failing, &stubHandler{err: ErrPermanent}, WithLogger(quietLogger)).Run(context.Background())
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, float64(1), counterValue(t, handlerErrorCounter.WithLabelValues("metrics_topic", "")))
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()

	metric := &dto.Metric{}
	require.NoError(t, c.Write(metric))
	return metric.GetCounter().GetValue()
}

func TestWorkoutHandlerRecordsEvent(t *testing.T) {
	completed := time.Date(2025, 3, 9, 18, 0, 0, 0, time.UTC)
	evt := events.WorkoutCompleted{
		WorkoutID:   "w1",
		UserID:      "u1",
		CompletedAt: &completed,
		Exercises: []events.WorkoutExercise{{
			Name: "Squat",
			Sets: []events.WorkoutSet{{Completed: true, Reps: 5, WeightKg: 100}, {Completed: false}},
		}},
	}
	payload, err := json.Marshal(evt)
	require.NoError(t, err)

	// Schema-registry framed payload.
	framed := make([]byte, 5+len(payload))
	binary.BigEndian.PutUint32(framed[1:5], 7)
	copy(framed[5:], payload)

	rec := &stubRecorder{}
	h := NewWorkoutHandler(rec)
	for _, value := range [][]byte{payload, framed} {
		err := h.Handle(context.Background(), Message{
			Payload: value,
			Headers: map[string]string{"event_type": events.TypeWorkoutCompleted},
		})
		require.NoError(t, err)
	}

	require.Len(t, rec.calls, 2)
	require.Equal(t, "u1", rec.calls[1].userID)
	got := rec.calls[1].workout
	require.Equal(t, "w1", got.ID)
	require.True(t, completed.Equal(*got.CompletedAt))
	require.Equal(t, 1, got.Exercises[0].CompletedSets())
	require.Equal(t, 100.0, got.Exercises[0].Sets[0].WeightKg)
}

func TestWorkoutHandlerFallbacks(t *testing.T) {
	rec := &stubRecorder{}
	h := NewWorkoutHandler(rec)
	ts := time.Date(2025, 3, 9, 18, 0, 0, 0, time.UTC)

	err := h.Handle(context.Background(), Message{
		Key:       []byte("u9"),
		Timestamp: ts,
		Payload:   []byte(`{"workout_id":"w2","exercises":[]}`),
		Headers:   map[string]string{"event_type": events.TypeWorkoutCompleted},
	})
	require.NoError(t, err)
	require.Equal(t, "u9", rec.calls[0].userID)
	require.True(t, ts.Equal(*rec.calls[0].workout.CompletedAt))

	require.NoError(t, h.Handle(context.Background(), Message{
		Payload: []byte(`garbage`),
		Headers: map[string]string{"event_type": "workout.deleted"},
	}))
	require.Len(t, rec.calls, 1)

	err = h.Handle(context.Background(), Message{
		Payload: []byte(`garbage`),
		Headers: map[string]string{"event_type": events.TypeWorkoutCompleted},
	})
	require.ErrorIs(t, err, ErrPermanent)
}

func TestWorkoutHandlerClassifiesRecorderErrors(t *testing.T) {
	msg := Message{
		Payload: []byte(`{"workout_id":"w3","user_id":"u1","completed_at":"2025-03-09T18:00:00Z"}`),
		Headers: map[string]string{"event_type": events.TypeWorkoutCompleted},
	}

	err := NewWorkoutHandler(&stubRecorder{err: domain.ErrWorkoutUndated}).Handle(context.Background(), msg)
	require.ErrorIs(t, err, ErrPermanent)

	transient := errors.New("connection reset")
	err = NewWorkoutHandler(&stubRecorder{err: transient}).Handle(context.Background(), msg)
	require.ErrorIs(t, err, transient)
	require.NotErrorIs(t, err, ErrPermanent)
}

type stubReader struct {
	messages    []kafka.Message
	index       int
	commitCalls int
}

func (r *stubReader) FetchMessage(context.Context) (kafka.Message, error) {
	if r.index >= len(r.messages) {
		return kafka.Message{}, context.Canceled
	}
	msg := r.messages[r.index]
	r.index++
	return msg, nil
}

func (r *stubReader) CommitMessages(_ context.Context, _ ...kafka.Message) error {
	r.commitCalls++
	return nil
}

func (r *stubReader) Close() error { return nil }

type stubHandler struct {
	calls int
	last  Message
	err   error
}

func (h *stubHandler) Handle(_ context.Context, msg Message) error {
	h.calls++
	h.last = msg
	return h.err
}

type recordedCall struct {
	userID  string
	workout workout.Workout
}

type stubRecorder struct {
	calls []recordedCall
	err   error
}

func (r *stubRecorder) RecordWorkout(_ context.Context, userID string, w workout.Workout) (*domain.Result, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.calls = append(r.calls, recordedCall{userID: userID, workout: w})
	return &domain.Result{UserID: userID}, nil
}
