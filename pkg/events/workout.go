// Package events defines the event payloads the physique services exchange
// over Kafka.
package events

import "time"

// Event type names carried in the event_type header.
const (
	TypeWorkoutCompleted   = "workout.completed"
	TypeScoresRecalculated = "physique.scores_recalculated"
)

// WorkoutSet is one logged set.
type WorkoutSet struct {
	Completed bool    `json:"completed"`
	Reps      int     `json:"reps,omitempty"`
	WeightKg  float64 `json:"weight_kg,omitempty"`
}

// WorkoutExercise is one exercise entry of a completed workout.
type WorkoutExercise struct {
	Name     string       `json:"name"`
	Target   string       `json:"target,omitempty"`
	BodyPart string       `json:"body_part,omitempty"`
	Sets     []WorkoutSet `json:"sets"`
}

// WorkoutCompleted is emitted by the workout logger when a session ends.
type WorkoutCompleted struct {
	WorkoutID   string            `json:"workout_id"`
	UserID      string            `json:"user_id"`
	StartedAt   *time.Time        `json:"started_at,omitempty"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
	Exercises   []WorkoutExercise `json:"exercises"`
	Source      string            `json:"source,omitempty"`
}

// ScoresRecalculated is emitted after a user's scores are rebuilt.
type ScoresRecalculated struct {
	UserID       string         `json:"user_id"`
	OverallScore int            `json:"overall_score"`
	Scores       map[string]int `json:"scores"`
	Weakest      []string       `json:"weakest"`
	Strongest    []string       `json:"strongest"`
	WorkoutCount int            `json:"workout_count"`
	CalculatedAt time.Time      `json:"calculated_at"`
}
