// Package workouttest builds workout histories for tests.
package workouttest

import (
	"time"

	"example.com/physique/internal/workout"
)

// At builds a workout completed at ts.
func At(ts time.Time, exercises ...workout.Exercise) workout.Workout {
	t := ts
	return workout.Workout{CompletedAt: &t, Exercises: exercises}
}

// Sets returns n sets, the first done of them completed.
func Sets(n, done int) []workout.Set {
	out := make([]workout.Set, n)
	for i := 0; i < n && i < done; i++ {
		out[i].Completed = true
	}
	return out
}
