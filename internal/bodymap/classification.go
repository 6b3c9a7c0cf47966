package bodymap

import (
	"example.com/physique/internal/muscle"
)

// Classification caches the muscle owning each vertex of a mesh. Entries are
// "" for unclassified vertices. It is computed once per mesh load.
type Classification struct {
	Reference BodyReference
	Parts     [][]muscle.ID
}

// Classify measures m and classifies every vertex.
func Classify(m *Mesh) *Classification {
	ref := Measure(m)
	c := &Classification{Reference: ref, Parts: make([][]muscle.ID, len(m.Parts))}
	for pi, p := range m.Parts {
		ids := make([]muscle.ID, len(p.Positions))
		for vi, v := range p.Positions {
			if id, ok := ref.Classify(v.X, v.Y, v.Z); ok {
				ids[vi] = id
			}
		}
		c.Parts[pi] = ids
	}
	return c
}

// VertexCount returns the number of vertices covered.
func (c *Classification) VertexCount() int {
	n := 0
	for _, p := range c.Parts {
		n += len(p)
	}
	return n
}

// Counts tallies vertices per muscle; unclassified vertices are keyed "".
func (c *Classification) Counts() map[muscle.ID]int {
	out := make(map[muscle.ID]int)
	for _, p := range c.Parts {
		for _, id := range p {
			out[id]++
		}
	}
	return out
}

// VertexColor returns the colour for a vertex owned by id. Unclassified,
// unscored and untrained vertices keep the skin tone without a tint.
func VertexColor(id muscle.ID, scores map[muscle.ID]int) muscle.RGB {
	if id == "" {
		return muscle.Skin
	}
	score, ok := scores[id]
	if !ok {
		return muscle.Skin
	}
	base, ok := muscle.BaseRGB(float64(score))
	if !ok {
		return muscle.Skin
	}
	return base.Add(muscle.Tint(id))
}

// Colorize produces per-vertex colours, parallel to c.Parts.
func Colorize(c *Classification, scores map[muscle.ID]int) [][]muscle.RGB {
	out := make([][]muscle.RGB, len(c.Parts))
	for pi, ids := range c.Parts {
		colors := make([]muscle.RGB, len(ids))
		for vi, id := range ids {
			colors[vi] = VertexColor(id, scores)
		}
		out[pi] = colors
	}
	return out
}
