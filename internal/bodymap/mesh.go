// Package bodymap classifies the vertices of a humanoid mesh into muscle
// groups, colours them by score and resolves taps back to muscles.
package bodymap

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// ModelHeight is the height every loaded model is normalised to, feet at y=0.
const ModelHeight = 1.8

// Part is one drawable primitive in world space. Indices form triangles; when
// nil the positions are taken three at a time.
type Part struct {
	Name      string
	Positions []r3.Vec
	Indices   []uint32
}

// TriangleCount returns the number of triangles in the part.
func (p Part) TriangleCount() int {
	if p.Indices != nil {
		return len(p.Indices) / 3
	}
	return len(p.Positions) / 3
}

// Triangle returns the corners of triangle i.
func (p Part) Triangle(i int) (a, b, c r3.Vec, ok bool) {
	if p.Indices == nil {
		base := i * 3
		if base+2 >= len(p.Positions) {
			return a, b, c, false
		}
		return p.Positions[base], p.Positions[base+1], p.Positions[base+2], true
	}
	base := i * 3
	if base+2 >= len(p.Indices) {
		return a, b, c, false
	}
	ia, ib, ic := int(p.Indices[base]), int(p.Indices[base+1]), int(p.Indices[base+2])
	n := len(p.Positions)
	if ia >= n || ib >= n || ic >= n {
		return a, b, c, false
	}
	return p.Positions[ia], p.Positions[ib], p.Positions[ic], true
}

// Mesh is a loaded model.
type Mesh struct {
	Key   string
	Parts []Part
}

// VertexCount returns the total number of positions across parts.
func (m *Mesh) VertexCount() int {
	n := 0
	for _, p := range m.Parts {
		n += len(p.Positions)
	}
	return n
}

// Bounds returns the axis-aligned bounding box of all positions. ok is false
// for an empty mesh.
func (m *Mesh) Bounds() (box r3.Box, ok bool) {
	box.Min = r3.Vec{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	box.Max = r3.Vec{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)}
	for _, p := range m.Parts {
		for _, v := range p.Positions {
			box.Min = r3.Vec{X: math.Min(box.Min.X, v.X), Y: math.Min(box.Min.Y, v.Y), Z: math.Min(box.Min.Z, v.Z)}
			box.Max = r3.Vec{X: math.Max(box.Max.X, v.X), Y: math.Max(box.Max.Y, v.Y), Z: math.Max(box.Max.Z, v.Z)}
			ok = true
		}
	}
	if !ok {
		return r3.Box{}, false
	}
	return box, true
}

// Normalize scales the mesh uniformly to height, centres it on X and Z and
// places its lowest point at y=0.
func (m *Mesh) Normalize(height float64) {
	box, ok := m.Bounds()
	if !ok {
		return
	}
	s := height / math.Max(box.Max.Y-box.Min.Y, 0.001)
	center := r3.Scale(s*0.5, r3.Add(box.Min, box.Max))
	offset := r3.Sub(r3.Vec{Y: height / 2}, center)
	for pi := range m.Parts {
		for vi, v := range m.Parts[pi].Positions {
			m.Parts[pi].Positions[vi] = r3.Add(r3.Scale(s, v), offset)
		}
	}
}
