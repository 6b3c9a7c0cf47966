package bodymap

import (
	"math"
	"time"

	"gonum.org/v1/gonum/spatial/r3"
)

const epsilon = 1e-9

// Ray is a half-line from Origin along Dir.
type Ray struct {
	Origin r3.Vec
	Dir    r3.Vec
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float64) r3.Vec {
	return r3.Add(r.Origin, r3.Scale(t, r.Dir))
}

// Hit is the nearest intersection found by HitTest.
type Hit struct {
	Point    r3.Vec
	Distance float64
	Part     int
	Triangle int
}

// HitTest intersects ray with every triangle of m and returns the nearest.
func HitTest(m *Mesh, ray Ray) (Hit, bool) {
	best := Hit{Distance: math.Inf(1)}
	found := false
	for pi, p := range m.Parts {
		for ti := 0; ti < p.TriangleCount(); ti++ {
			a, b, c, ok := p.Triangle(ti)
			if !ok {
				continue
			}
			t, ok := intersect(ray, a, b, c)
			if ok && t < best.Distance {
				best = Hit{Distance: t, Part: pi, Triangle: ti}
				found = true
			}
		}
	}
	if !found {
		return Hit{}, false
	}
	best.Point = ray.At(best.Distance)
	return best, true
}

// intersect is the Möller–Trumbore test. Both faces are hit.
func intersect(ray Ray, a, b, c r3.Vec) (float64, bool) {
	e1 := r3.Sub(b, a)
	e2 := r3.Sub(c, a)
	p := r3.Cross(ray.Dir, e2)
	det := r3.Dot(e1, p)
	if math.Abs(det) < epsilon {
		return 0, false
	}
	inv := 1 / det
	s := r3.Sub(ray.Origin, a)
	u := r3.Dot(s, p) * inv
	if u < 0 || u > 1 {
		return 0, false
	}
	q := r3.Cross(s, e1)
	v := r3.Dot(ray.Dir, q) * inv
	if v < 0 || u+v > 1 {
		return 0, false
	}
	t := r3.Dot(e2, q) * inv
	if t <= epsilon {
		return 0, false
	}
	return t, true
}

// Camera is a perspective camera looking at a target.
type Camera struct {
	FOV    float64 // vertical, degrees
	Eye    r3.Vec
	Target r3.Vec
	Up     r3.Vec
	Width  float64
	Height float64
}

// DefaultCamera frames a normalised model in a viewport of w by h pixels.
func DefaultCamera(w, h float64) Camera {
	return Camera{
		FOV:    30,
		Eye:    r3.Vec{X: 0, Y: 1, Z: 3.5},
		Target: r3.Vec{X: 0, Y: ModelHeight / 2, Z: 0},
		Up:     r3.Vec{Y: 1},
		Width:  w,
		Height: h,
	}
}

// Ray returns the ray through pixel (px, py), origin top-left.
func (c Camera) Ray(px, py float64) Ray {
	ndcX := px/c.Width*2 - 1
	ndcY := -(py/c.Height)*2 + 1

	forward := r3.Unit(r3.Sub(c.Target, c.Eye))
	right := r3.Unit(r3.Cross(forward, c.Up))
	up := r3.Cross(right, forward)

	tanHalf := math.Tan(c.FOV * math.Pi / 360)
	aspect := c.Width / c.Height
	dir := r3.Add(forward, r3.Add(
		r3.Scale(ndcX*tanHalf*aspect, right),
		r3.Scale(ndcY*tanHalf, up),
	))
	return Ray{Origin: c.Eye, Dir: r3.Unit(dir)}
}

// Gesture limits separating a tap from a drag.
const (
	TapMaxTravel = 14.0
	TapMaxHold   = 350 * time.Millisecond
)

// IsTap reports whether a pointer that moved (dx, dy) pixels while held for
// held counts as a tap rather than an orbit drag.
func IsTap(dx, dy float64, held time.Duration) bool {
	return math.Hypot(dx, dy) <= TapMaxTravel && held <= TapMaxHold
}
