package mapping

import m "example.com/physique/internal/muscle"

// NamedMapping pairs a lookup key with its mapping.
type NamedMapping struct {
	Key     string  `json:"key"`
	Mapping Mapping `json:"mapping"`
}

func mp(primary []m.ID, secondary ...m.ID) Mapping {
	return Mapping{Primary: primary, Secondary: secondary}
}

func p(ids ...m.ID) []m.ID { return ids }

// nameOverrides is scanned in declaration order by the partial matcher, so
// the order here is behaviour, not presentation.
var nameOverrides = []NamedMapping{
	// chest
	{"bench press", mp(p(m.Chest), m.FrontDelts, m.Triceps)},
	{"incline bench press", mp(p(m.Chest, m.FrontDelts), m.Triceps)},
	{"decline bench press", mp(p(m.Chest), m.Triceps)},
	{"dumbbell fly", mp(p(m.Chest), m.FrontDelts)},
	{"cable crossover", mp(p(m.Chest), m.FrontDelts)},
	{"push-up", mp(p(m.Chest), m.FrontDelts, m.Triceps, m.Abs)},
	{"push up", mp(p(m.Chest), m.FrontDelts, m.Triceps, m.Abs)},
	{"chest dip", mp(p(m.Chest), m.Triceps, m.FrontDelts)},
	{"dumbbell press", mp(p(m.Chest), m.FrontDelts, m.Triceps)},

	// back
	{"pull-up", mp(p(m.Lats), m.Biceps, m.UpperBack)},
	{"pull up", mp(p(m.Lats), m.Biceps, m.UpperBack)},
	{"chin-up", mp(p(m.Lats, m.Biceps), m.UpperBack)},
	{"chin up", mp(p(m.Lats, m.Biceps), m.UpperBack)},
	{"lat pulldown", mp(p(m.Lats), m.Biceps, m.UpperBack)},
	{"barbell row", mp(p(m.Lats, m.UpperBack), m.Biceps, m.RearDelts)},
	{"bent over row", mp(p(m.Lats, m.UpperBack), m.Biceps, m.RearDelts)},
	{"dumbbell row", mp(p(m.Lats), m.Biceps, m.UpperBack, m.RearDelts)},
	{"cable row", mp(p(m.Lats, m.UpperBack), m.Biceps)},
	{"seated row", mp(p(m.UpperBack, m.Lats), m.Biceps, m.RearDelts)},
	{"face pull", mp(p(m.RearDelts, m.UpperBack), m.Traps)},
	{"t-bar row", mp(p(m.Lats, m.UpperBack), m.Biceps, m.Traps)},

	// shoulders
	{"overhead press", mp(p(m.FrontDelts, m.SideDelts), m.Triceps, m.Traps)},
	{"shoulder press", mp(p(m.FrontDelts, m.SideDelts), m.Triceps, m.Traps)},
	{"military press", mp(p(m.FrontDelts), m.SideDelts, m.Triceps)},
	{"lateral raise", mp(p(m.SideDelts), m.Traps)},
	{"front raise", mp(p(m.FrontDelts), m.SideDelts)},
	{"rear delt fly", mp(p(m.RearDelts), m.UpperBack)},
	{"arnold press", mp(p(m.FrontDelts, m.SideDelts), m.Triceps)},
	{"upright row", mp(p(m.Traps, m.SideDelts), m.FrontDelts, m.Biceps)},

	// arms
	{"barbell curl", mp(p(m.Biceps), m.Forearms)},
	{"dumbbell curl", mp(p(m.Biceps), m.Forearms)},
	{"hammer curl", mp(p(m.Biceps, m.Forearms))},
	{"preacher curl", mp(p(m.Biceps), m.Forearms)},
	{"concentration curl", mp(p(m.Biceps))},
	{"tricep pushdown", mp(p(m.Triceps))},
	{"tricep extension", mp(p(m.Triceps))},
	{"skull crusher", mp(p(m.Triceps))},
	{"close grip bench", mp(p(m.Triceps), m.Chest)},
	{"dip", mp(p(m.Triceps, m.Chest), m.FrontDelts)},
	{"wrist curl", mp(p(m.Forearms))},

	// legs
	{"squat", mp(p(m.Quads, m.Glutes), m.Hamstrings, m.LowerBack, m.Abs)},
	{"back squat", mp(p(m.Quads, m.Glutes), m.Hamstrings, m.LowerBack)},
	{"front squat", mp(p(m.Quads), m.Glutes, m.Abs)},
	{"leg press", mp(p(m.Quads), m.Glutes, m.Hamstrings)},
	{"leg extension", mp(p(m.Quads))},
	{"leg curl", mp(p(m.Hamstrings), m.Calves)},
	{"romanian deadlift", mp(p(m.Hamstrings, m.Glutes), m.LowerBack)},
	{"deadlift", mp(p(m.LowerBack, m.Hamstrings, m.Glutes), m.Quads, m.Traps, m.Forearms, m.Lats)},
	{"lunge", mp(p(m.Quads, m.Glutes), m.Hamstrings)},
	{"walking lunge", mp(p(m.Quads, m.Glutes), m.Hamstrings)},
	{"bulgarian split squat", mp(p(m.Quads, m.Glutes), m.Hamstrings)},
	{"hip thrust", mp(p(m.Glutes), m.Hamstrings)},
	{"calf raise", mp(p(m.Calves))},
	{"standing calf raise", mp(p(m.Calves))},
	{"seated calf raise", mp(p(m.Calves))},
	{"goblet squat", mp(p(m.Quads, m.Glutes), m.Abs)},
	{"hack squat", mp(p(m.Quads), m.Glutes)},
	{"step up", mp(p(m.Quads, m.Glutes), m.Hamstrings)},
	{"sumo squat", mp(p(m.Quads, m.Glutes), m.Hamstrings)},

	// core
	{"plank", mp(p(m.Abs), m.Obliques, m.LowerBack)},
	{"crunch", mp(p(m.Abs))},
	{"sit-up", mp(p(m.Abs), m.Obliques)},
	{"sit up", mp(p(m.Abs), m.Obliques)},
	{"russian twist", mp(p(m.Obliques), m.Abs)},
	{"leg raise", mp(p(m.Abs), m.Obliques)},
	{"hanging leg raise", mp(p(m.Abs), m.Obliques, m.Forearms)},
	{"mountain climber", mp(p(m.Abs), m.Obliques, m.Quads, m.FrontDelts)},
	{"bicycle crunch", mp(p(m.Abs, m.Obliques))},
	{"ab wheel rollout", mp(p(m.Abs), m.Lats, m.Triceps)},
	{"side plank", mp(p(m.Obliques), m.Abs)},
	{"cable woodchop", mp(p(m.Obliques), m.Abs)},

	// traps
	{"shrug", mp(p(m.Traps))},
	{"barbell shrug", mp(p(m.Traps), m.Forearms)},
	{"dumbbell shrug", mp(p(m.Traps), m.Forearms)},
	{"farmer walk", mp(p(m.Traps, m.Forearms), m.Abs)},
	{"farmer carry", mp(p(m.Traps, m.Forearms), m.Abs)},

	// compound
	{"clean", mp(p(m.Quads, m.Traps, m.Glutes), m.Hamstrings, m.FrontDelts, m.Forearms)},
	{"clean and jerk", mp(p(m.Quads, m.FrontDelts, m.Traps), m.Glutes, m.Triceps)},
	{"snatch", mp(p(m.Quads, m.Traps, m.FrontDelts), m.Glutes, m.Hamstrings)},
	{"burpee", mp(p(m.Quads, m.Chest), m.Triceps, m.Abs, m.FrontDelts)},
	{"thruster", mp(p(m.Quads, m.FrontDelts), m.Glutes, m.Triceps)},
	{"kettlebell swing", mp(p(m.Glutes, m.Hamstrings), m.LowerBack, m.Abs, m.FrontDelts)},
}

var targetTable = map[string]Mapping{
	"pectorals":      mp(p(m.Chest), m.FrontDelts, m.Triceps),
	"biceps":         mp(p(m.Biceps), m.Forearms),
	"triceps":        mp(p(m.Triceps), m.Chest, m.FrontDelts),
	"delts":          mp(p(m.FrontDelts, m.SideDelts), m.Traps),
	"abs":            mp(p(m.Abs), m.Obliques),
	"quads":          mp(p(m.Quads), m.Glutes, m.Hamstrings),
	"hamstrings":     mp(p(m.Hamstrings), m.Glutes, m.LowerBack),
	"calves":         mp(p(m.Calves)),
	"lats":           mp(p(m.Lats), m.Biceps, m.UpperBack),
	"upper back":     mp(p(m.UpperBack, m.Traps), m.Lats, m.RearDelts),
	"lower back":     mp(p(m.LowerBack), m.Glutes, m.Hamstrings),
	"glutes":         mp(p(m.Glutes), m.Hamstrings, m.Quads),
	"traps":          mp(p(m.Traps), m.UpperBack, m.RearDelts),
	"forearms":       mp(p(m.Forearms), m.Biceps),
	"cardiovascular": mp(nil, m.Quads, m.Hamstrings, m.Calves),
	"full body":      mp(p(m.Quads, m.Chest, m.Lats), m.Hamstrings, m.Glutes, m.FrontDelts, m.Triceps, m.Abs),
}

var bodyPartTable = map[string]Mapping{
	"chest":     mp(p(m.Chest), m.FrontDelts, m.Triceps),
	"back":      mp(p(m.Lats, m.UpperBack), m.Biceps),
	"shoulders": mp(p(m.FrontDelts, m.SideDelts), m.Traps),
	"arms":      mp(p(m.Biceps, m.Triceps), m.Forearms),
	"legs":      mp(p(m.Quads, m.Hamstrings), m.Glutes, m.Calves),
	"core":      mp(p(m.Abs), m.Obliques),
	"full body": mp(p(m.Quads, m.Chest, m.Lats), m.Abs, m.Glutes),
	"cardio":    mp(nil, m.Quads, m.Hamstrings, m.Calves),
}

// Overrides returns the curated exercise-name table in declaration order.
func Overrides() []NamedMapping {
	out := make([]NamedMapping, len(nameOverrides))
	for i, o := range nameOverrides {
		out[i] = NamedMapping{Key: o.Key, Mapping: o.Mapping.clone()}
	}
	return out
}
