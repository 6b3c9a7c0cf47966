package bodymap

import (
	"math"

	"example.com/physique/internal/muscle"
)

// Torso sampling band, as a fraction of model height. Arms in a T-pose sit
// outside this band so they do not widen the torso measurement.
const (
	torsoBandLow  = 0.50
	torsoBandHigh = 0.60
	minHalfExtent = 0.01
)

// BodyReference holds the proportions classification is relative to.
type BodyReference struct {
	MinY           float64 `json:"min_y"`
	MaxY           float64 `json:"max_y"`
	Height         float64 `json:"height"`
	CenterX        float64 `json:"center_x"`
	CenterZ        float64 `json:"center_z"`
	TorsoHalfWidth float64 `json:"torso_half_width"`
	TorsoHalfDepth float64 `json:"torso_half_depth"`
}

// Measure derives the body reference from the mesh's own vertices.
func Measure(m *Mesh) BodyReference {
	box, ok := m.Bounds()
	if !ok {
		return BodyReference{TorsoHalfWidth: minHalfExtent, TorsoHalfDepth: minHalfExtent}
	}
	ref := BodyReference{
		MinY:    box.Min.Y,
		MaxY:    box.Max.Y,
		Height:  box.Max.Y - box.Min.Y,
		CenterX: (box.Min.X + box.Max.X) / 2,
		CenterZ: (box.Min.Z + box.Max.Z) / 2,
	}

	minX, maxX := math.Inf(1), math.Inf(-1)
	minZ, maxZ := math.Inf(1), math.Inf(-1)
	sampled := false
	if ref.Height > 0 {
		for _, p := range m.Parts {
			for _, v := range p.Positions {
				ny := (v.Y - ref.MinY) / ref.Height
				if ny < torsoBandLow || ny > torsoBandHigh {
					continue
				}
				minX, maxX = math.Min(minX, v.X), math.Max(maxX, v.X)
				minZ, maxZ = math.Min(minZ, v.Z), math.Max(maxZ, v.Z)
				sampled = true
			}
		}
	}

	ref.TorsoHalfWidth, ref.TorsoHalfDepth = minHalfExtent, minHalfExtent
	if sampled {
		ref.TorsoHalfWidth = math.Max((maxX-minX)/2, minHalfExtent)
		ref.TorsoHalfDepth = math.Max((maxZ-minZ)/2, minHalfExtent)
	}
	return ref
}

// Normalized maps a world position to body-relative coordinates: ny is the
// height fraction, nx and nz are in torso half-extents from the centre.
func (r BodyReference) Normalized(x, y, z float64) (nx, ny, nz float64) {
	return (x - r.CenterX) / r.TorsoHalfWidth, (y - r.MinY) / r.Height, (z - r.CenterZ) / r.TorsoHalfDepth
}

// armThreshold is the |nx| beyond which a point belongs to an arm. Shoulders
// and hips are wider than the waist the torso was measured at.
func armThreshold(ny float64) float64 {
	switch {
	case ny > 0.76:
		return 1.35
	case ny > 0.68:
		return 1.20
	case ny > 0.55:
		return 1.10
	default:
		return 1.40
	}
}

// Classify assigns a world position to a muscle group. Head, hands and feet
// are unclassified. These thresholds are empirically tuned to the bundled
// models and are not meant to be adjusted.
func (r BodyReference) Classify(x, y, z float64) (muscle.ID, bool) {
	if r.Height <= 0 {
		return "", false
	}
	nx, ny, nz := r.Normalized(x, y, z)
	anx := math.Abs(nx)

	if ny > 0.87 {
		return "", false
	}

	if anx > armThreshold(ny) {
		switch {
		case ny > 0.76:
			return frontOrBack(nz, muscle.FrontDelts, muscle.RearDelts), true
		case ny > 0.60:
			return frontOrBack(nz, muscle.Biceps, muscle.Triceps), true
		case ny > 0.40:
			return muscle.Forearms, true
		default:
			return "", false
		}
	}

	switch {
	case ny > 0.80:
		if nz < -0.15 {
			return muscle.Traps, true
		}
		if anx > 1.0 {
			return frontOrBack(nz, muscle.FrontDelts, muscle.RearDelts), true
		}
		if nz > 0.15 {
			return muscle.Chest, true
		}
		return muscle.Traps, true
	case ny > 0.68:
		switch {
		case nz > 0.15:
			return muscle.Chest, true
		case nz < -0.15:
			return muscle.UpperBack, true
		case anx > 0.85:
			return muscle.Lats, true
		}
		return frontOrBack(nz, muscle.Chest, muscle.UpperBack), true
	case ny > 0.48:
		switch {
		case nz > 0:
			if anx > 0.70 {
				return muscle.Obliques, true
			}
			return muscle.Abs, true
		case nz < 0:
			if anx > 0.70 {
				return muscle.Obliques, true
			}
			return muscle.LowerBack, true
		}
		return muscle.Abs, true
	case ny > 0.42:
		return muscle.Glutes, true
	case ny > 0.22:
		return frontOrBack(nz, muscle.Quads, muscle.Hamstrings), true
	case ny > 0.05:
		return muscle.Calves, true
	}
	return "", false
}

// frontOrBack picks front when nz is strictly positive.
func frontOrBack(nz float64, front, back muscle.ID) muscle.ID {
	if nz > 0 {
		return front
	}
	return back
}
