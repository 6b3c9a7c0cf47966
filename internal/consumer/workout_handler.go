package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"example.com/physique/internal/domain"
	"example.com/physique/internal/workout"
	"example.com/physique/pkg/events"
)

// Recorder stores a workout and recalculates the owner's scores.
type Recorder interface {
	RecordWorkout(ctx context.Context, userID string, w workout.Workout) (*domain.Result, error)
}

// WorkoutHandler feeds workout.completed events into a Recorder. Other event
// types are ignored.
type WorkoutHandler struct {
	recorder Recorder
}

// NewWorkoutHandler constructs a WorkoutHandler.
func NewWorkoutHandler(recorder Recorder) *WorkoutHandler {
	return &WorkoutHandler{recorder: recorder}
}

// Handle decodes and records one workout event.
func (h *WorkoutHandler) Handle(ctx context.Context, msg Message) error {
	if msg.EventType() != events.TypeWorkoutCompleted {
		return nil
	}

	payload := []byte(msg.Payload)
	// Confluent Schema Registry wire format: magic byte + 4-byte schema id.
	if len(payload) >= 5 && payload[0] == 0x00 {
		payload = payload[5:]
	}
	var evt events.WorkoutCompleted
	if err := json.Unmarshal(payload, &evt); err != nil {
		return fmt.Errorf("%w: decode workout: %v", ErrPermanent, err)
	}

	userID := strings.TrimSpace(evt.UserID)
	if userID == "" {
		userID = string(msg.Key)
	}
	w := ToWorkout(evt)
	if _, ok := w.Timestamp(); !ok && !msg.Timestamp.IsZero() {
		ts := msg.Timestamp.UTC()
		w.CompletedAt = &ts
	}

	if _, err := h.recorder.RecordWorkout(ctx, userID, w); err != nil {
		if errors.Is(err, domain.ErrUserRequired) || errors.Is(err, domain.ErrWorkoutUndated) {
			return fmt.Errorf("%w: %v", ErrPermanent, err)
		}
		return err
	}
	return nil
}

// ToWorkout converts the wire event into the scoring input.
func ToWorkout(evt events.WorkoutCompleted) workout.Workout {
	w := workout.Workout{
		ID:          evt.WorkoutID,
		CompletedAt: evt.CompletedAt,
		StartTime:   evt.StartedAt,
		Exercises:   make([]workout.Exercise, 0, len(evt.Exercises)),
	}
	for _, ex := range evt.Exercises {
		sets := make([]workout.Set, len(ex.Sets))
		for i, s := range ex.Sets {
			sets[i] = workout.Set{Completed: s.Completed, Reps: s.Reps, WeightKg: s.WeightKg}
		}
		w.Exercises = append(w.Exercises, workout.Exercise{
			Name:     ex.Name,
			Target:   ex.Target,
			BodyPart: ex.BodyPart,
			Sets:     sets,
		})
	}
	return w
}
