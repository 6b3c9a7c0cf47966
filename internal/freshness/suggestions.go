package freshness

import (
	"fmt"

	"example.com/physique/internal/muscle"
)

// Balance suggestion messages.
const (
	MsgNeedPull       = "Your pushing muscles are significantly stronger than pulling. Add more back and bicep work to prevent shoulder imbalance."
	MsgNeedPush       = "Your pulling is ahead of pushing. Consider adding more chest and shoulder press work."
	MsgNeedLegs       = "Your upper body is more developed than legs. Add squat, deadlift, or lunge variations."
	MsgNeedUpper      = "Your legs are ahead. Consider more upper body volume for balance."
	MsgNeedCore       = "Your core is undertrained relative to other muscles. Add planks, crunches, or ab wheel work."
	MsgNeedHamstrings = "Quads are dominating over hamstrings. Add Romanian deadlifts or leg curls to reduce imbalance risk."
	MsgBalancedHigh   = "Great balance across all muscle groups. Keep up the consistent training!"
	MsgBalancedMid    = "Your training is well-balanced. Increase overall volume to reach green status on more muscles."
	MsgGetStarted     = "Start training consistently to build up your physique scores. Even 3 sessions a week makes a big difference."

	neglectedFormat = "%s hasn't been trained recently. Consider adding it to your next workout."
)

var (
	pushGroup = []muscle.ID{muscle.Chest, muscle.FrontDelts, muscle.Triceps}
	pullGroup = []muscle.ID{muscle.Lats, muscle.UpperBack, muscle.Biceps, muscle.RearDelts}
	legGroup  = []muscle.ID{muscle.Quads, muscle.Hamstrings, muscle.Glutes, muscle.Calves}
	coreGroup = []muscle.ID{muscle.Abs, muscle.Obliques, muscle.LowerBack}
)

// NeglectedMessage formats the suggestion naming a neglected muscle.
func NeglectedMessage(id muscle.ID) string {
	return fmt.Sprintf(neglectedFormat, muscle.Name(id))
}

// BalanceSuggestions evaluates the balance heuristics over the current scores.
func (e *Engine) BalanceSuggestions() []string {
	return Suggest(e.ScoreValues())
}

// Suggest evaluates the balance heuristics over a score map. Muscles missing
// from scores count as zero.
func Suggest(scores map[muscle.ID]int) []string {
	views := make([]ScoreView, 0, muscle.Count)
	for _, id := range muscle.IDs() {
		views = append(views, ScoreView{ID: id, Score: scores[id]})
	}
	overallScore := overall(views)

	avg := func(ids []muscle.ID) float64 {
		sum := 0
		for _, id := range ids {
			sum += scores[id]
		}
		return float64(sum) / float64(len(ids))
	}
	push, pull, legs, core := avg(pushGroup), avg(pullGroup), avg(legGroup), avg(coreGroup)

	var out []string
	switch {
	case push > pull+15:
		out = append(out, MsgNeedPull)
	case pull > push+15:
		out = append(out, MsgNeedPush)
	}

	upper := (push + pull) / 2
	switch {
	case upper > legs+20:
		out = append(out, MsgNeedLegs)
	case legs > upper+20:
		out = append(out, MsgNeedUpper)
	}

	if core < 15 && (push > 30 || pull > 30 || legs > 30) {
		out = append(out, MsgNeedCore)
	}

	for _, v := range rank(views, DefaultRankSize, func(a, b ScoreView) bool { return a.Score < b.Score }) {
		if v.Score < 10 && overallScore > 25 {
			out = append(out, NeglectedMessage(v.ID))
			break
		}
	}

	if scores[muscle.Quads] > scores[muscle.Hamstrings]+20 {
		out = append(out, MsgNeedHamstrings)
	}

	if len(out) == 0 {
		switch {
		case overallScore >= 50:
			out = append(out, MsgBalancedHigh)
		case overallScore >= 20:
			out = append(out, MsgBalancedMid)
		default:
			out = append(out, MsgGetStarted)
		}
	}
	return out
}
