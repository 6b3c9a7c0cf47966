package api

import (
	"time"

	"example.com/physique/internal/freshness"
	"example.com/physique/internal/mapping"
	"example.com/physique/internal/muscle"
	"example.com/physique/internal/workout"
)

// RecalculateRequest carries an explicit history. An empty body recalculates
// from the stored history instead.
type RecalculateRequest struct {
	Workouts []workout.Workout `json:"workouts"`
}

// ScoresResponse is returned by the scores and recalculate endpoints.
type ScoresResponse struct {
	UserID         string                            `json:"user_id"`
	OverallScore   int                               `json:"overall_score"`
	Scores         map[muscle.ID]freshness.ScoreView `json:"scores"`
	WorkoutCount   *int                              `json:"workout_count,omitempty"`
	LastCalculated *time.Time                        `json:"last_calculated,omitempty"`
}

// RankingResponse lists the weakest or strongest muscles.
type RankingResponse struct {
	UserID  string                `json:"user_id"`
	Muscles []freshness.ScoreView `json:"muscles"`
}

// SuggestionsResponse lists training balance suggestions.
type SuggestionsResponse struct {
	UserID      string   `json:"user_id"`
	Suggestions []string `json:"suggestions"`
}

// ResolveResponse explains how an exercise maps to muscles.
type ResolveResponse struct {
	Name      string      `json:"name"`
	Target    string      `json:"target,omitempty"`
	BodyPart  string      `json:"body_part,omitempty"`
	Primary   []muscle.ID `json:"primary"`
	Secondary []muscle.ID `json:"secondary"`
	Rule      string      `json:"rule,omitempty"`
}

// OverrideView is one curated exercise-name entry.
type OverrideView struct {
	Name      string      `json:"name"`
	Primary   []muscle.ID `json:"primary"`
	Secondary []muscle.ID `json:"secondary"`
}

// TaxonomyResponse is the muscle registry with its score bands.
type TaxonomyResponse struct {
	Muscles []muscle.Group `json:"muscles"`
	Bands   []muscle.Band  `json:"bands"`
}

func toOverrideViews(in []mapping.NamedMapping) []OverrideView {
	out := make([]OverrideView, len(in))
	for i, o := range in {
		out[i] = OverrideView{Name: o.Key, Primary: o.Mapping.Primary, Secondary: o.Mapping.Secondary}
	}
	return out
}
