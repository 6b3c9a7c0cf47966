// Package muscle holds the fixed registry of tracked muscle groups and the
// score thresholds used to present them.
package muscle

// ID identifies a muscle group.
type ID string

// Tracked muscle groups, in taxonomy order.
const (
	Chest      ID = "chest"
	FrontDelts ID = "frontDelts"
	SideDelts  ID = "sideDelts"
	RearDelts  ID = "rearDelts"
	Traps      ID = "traps"
	Lats       ID = "lats"
	UpperBack  ID = "upperBack"
	LowerBack  ID = "lowerBack"
	Biceps     ID = "biceps"
	Triceps    ID = "triceps"
	Forearms   ID = "forearms"
	Abs        ID = "abs"
	Obliques   ID = "obliques"
	Glutes     ID = "glutes"
	Quads      ID = "quads"
	Hamstrings ID = "hamstrings"
	Calves     ID = "calves"
)

// View describes which side of the body a group is drawn on.
type View string

const (
	ViewFront View = "front"
	ViewBack  View = "back"
	ViewBoth  View = "both"
)

// Group is the display metadata for a muscle group.
type Group struct {
	ID        ID     `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"short_name"`
	View      View   `json:"view"`
}

var registry = []Group{
	{ID: Chest, Name: "Chest", ShortName: "Chest", View: ViewFront},
	{ID: FrontDelts, Name: "Front Delts", ShortName: "F. Delts", View: ViewFront},
	{ID: SideDelts, Name: "Side Delts", ShortName: "S. Delts", View: ViewBoth},
	{ID: RearDelts, Name: "Rear Delts", ShortName: "R. Delts", View: ViewBack},
	{ID: Traps, Name: "Traps", ShortName: "Traps", View: ViewBack},
	{ID: Lats, Name: "Lats", ShortName: "Lats", View: ViewBack},
	{ID: UpperBack, Name: "Upper Back", ShortName: "Up. Back", View: ViewBack},
	{ID: LowerBack, Name: "Lower Back", ShortName: "Lo. Back", View: ViewBack},
	{ID: Biceps, Name: "Biceps", ShortName: "Biceps", View: ViewFront},
	{ID: Triceps, Name: "Triceps", ShortName: "Triceps", View: ViewBack},
	{ID: Forearms, Name: "Forearms", ShortName: "Forearms", View: ViewBoth},
	{ID: Abs, Name: "Abs", ShortName: "Abs", View: ViewFront},
	{ID: Obliques, Name: "Obliques", ShortName: "Obliques", View: ViewFront},
	{ID: Glutes, Name: "Glutes", ShortName: "Glutes", View: ViewBack},
	{ID: Quads, Name: "Quads", ShortName: "Quads", View: ViewFront},
	{ID: Hamstrings, Name: "Hamstrings", ShortName: "Hams", View: ViewBack},
	{ID: Calves, Name: "Calves", ShortName: "Calves", View: ViewBoth},
}

var index = func() map[ID]int {
	m := make(map[ID]int, len(registry))
	for i, g := range registry {
		m[g.ID] = i
	}
	return m
}()

// Count is the number of tracked muscle groups.
const Count = 17

// All returns a copy of the registry in taxonomy order.
func All() []Group {
	out := make([]Group, len(registry))
	copy(out, registry)
	return out
}

// IDs returns every muscle id in taxonomy order.
func IDs() []ID {
	out := make([]ID, len(registry))
	for i, g := range registry {
		out[i] = g.ID
	}
	return out
}

// Lookup returns the group metadata for id.
func Lookup(id ID) (Group, bool) {
	i, ok := index[id]
	if !ok {
		return Group{}, false
	}
	return registry[i], true
}

// Valid reports whether id names a tracked group.
func Valid(id ID) bool {
	_, ok := index[id]
	return ok
}

// Order returns the taxonomy position of id, or -1.
func Order(id ID) int {
	if i, ok := index[id]; ok {
		return i
	}
	return -1
}

// Name returns the display name for id, falling back to the raw id.
func Name(id ID) string {
	if g, ok := Lookup(id); ok {
		return g.Name
	}
	return string(id)
}
