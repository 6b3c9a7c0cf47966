// Package workout defines the logged training history consumed by scoring.
package workout

import "time"

// Set is one logged set of an exercise.
type Set struct {
	Completed bool    `json:"completed"`
	Reps      int     `json:"reps,omitempty"`
	WeightKg  float64 `json:"weight_kg,omitempty"`
}

// Exercise is one exercise entry within a workout.
type Exercise struct {
	Name     string `json:"name"`
	Target   string `json:"target,omitempty"`
	BodyPart string `json:"body_part,omitempty"`
	Sets     []Set  `json:"sets"`
}

// CompletedSets counts sets marked completed.
func (e Exercise) CompletedSets() int {
	n := 0
	for _, s := range e.Sets {
		if s.Completed {
			n++
		}
	}
	return n
}

// Workout is a single logged session.
type Workout struct {
	ID          string     `json:"id,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	EndTime     *time.Time `json:"end_time,omitempty"`
	StartTime   *time.Time `json:"start_time,omitempty"`
	Exercises   []Exercise `json:"exercises"`
}

// Timestamp returns the first set of CompletedAt, EndTime and StartTime.
func (w Workout) Timestamp() (time.Time, bool) {
	for _, ts := range []*time.Time{w.CompletedAt, w.EndTime, w.StartTime} {
		if ts != nil && !ts.IsZero() {
			return *ts, true
		}
	}
	return time.Time{}, false
}
