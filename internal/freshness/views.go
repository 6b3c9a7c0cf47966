package freshness

import (
	"math"
	"sort"
	"time"

	"example.com/physique/internal/muscle"
)

// DefaultRankSize is used when Weakest or Strongest receive n <= 0.
const DefaultRankSize = 3

// ScoreView is the presentation projection of one record.
type ScoreView struct {
	ID              muscle.ID  `json:"id"`
	Name            string     `json:"name"`
	Score           int        `json:"score"`
	Color           string     `json:"color"`
	Label           string     `json:"label"`
	LastTrained     *time.Time `json:"last_trained"`
	WeeklyVolume    int        `json:"weekly_volume"`
	DaysAgo         *int       `json:"days_ago"`
	RecentlyTrained bool       `json:"recently_trained"`
}

// Scores projects every record into a view keyed by muscle id.
func (e *Engine) Scores() map[muscle.ID]ScoreView {
	out := make(map[muscle.ID]ScoreView, muscle.Count)
	for _, v := range e.ordered() {
		out[v.ID] = v
	}
	return out
}

// ScoreValues returns just the integer scores, the shape consumed by the body
// map.
func (e *Engine) ScoreValues() map[muscle.ID]int {
	out := make(map[muscle.ID]int, muscle.Count)
	for id, rec := range e.records {
		out[id] = int(math.Round(rec.Score))
	}
	return out
}

// Views returns every muscle's view in taxonomy order.
func (e *Engine) Views() []ScoreView {
	return e.ordered()
}

func (e *Engine) ordered() []ScoreView {
	now := e.now()
	views := make([]ScoreView, 0, muscle.Count)
	for _, id := range muscle.IDs() {
		views = append(views, project(id, e.records[id], now))
	}
	return views
}

func project(id muscle.ID, rec Record, now time.Time) ScoreView {
	score := int(math.Round(rec.Score))
	band := muscle.Classify(float64(score))
	v := ScoreView{
		ID:           id,
		Name:         muscle.Name(id),
		Score:        score,
		Color:        band.Color,
		Label:        band.Label,
		WeeklyVolume: rec.WeeklyVolume,
	}
	if rec.LastTrained != nil {
		ts := *rec.LastTrained
		days := int(math.Floor(now.Sub(ts).Hours() / 24))
		v.LastTrained = &ts
		v.DaysAgo = &days
		v.RecentlyTrained = days <= RecentDays
	}
	return v
}

// OverallScore is the rounded mean of all muscle scores.
func (e *Engine) OverallScore() int {
	return overall(e.ordered())
}

func overall(views []ScoreView) int {
	if len(views) == 0 {
		return 0
	}
	sum := 0
	for _, v := range views {
		sum += v.Score
	}
	return int(math.Round(float64(sum) / float64(len(views))))
}

// Weakest returns the n lowest-scoring muscles. Ties keep taxonomy order.
func (e *Engine) Weakest(n int) []ScoreView {
	return rank(e.ordered(), n, func(a, b ScoreView) bool { return a.Score < b.Score })
}

// Strongest returns the n highest-scoring muscles. Ties keep taxonomy order.
func (e *Engine) Strongest(n int) []ScoreView {
	return rank(e.ordered(), n, func(a, b ScoreView) bool { return a.Score > b.Score })
}

func rank(views []ScoreView, n int, less func(a, b ScoreView) bool) []ScoreView {
	if n <= 0 {
		n = DefaultRankSize
	}
	sort.SliceStable(views, func(i, j int) bool { return less(views[i], views[j]) })
	if n > len(views) {
		n = len(views)
	}
	return views[:n]
}
