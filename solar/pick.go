package solar

import (
	"math"

	"github.com/plus3/orrery/ecs"
	"gonum.org/v1/gonum/spatial/r3"
)

// Ray is a half-line with a unit Direction.
type Ray struct {
	Origin    r3.Vec
	Direction r3.Vec
}

// NewRay normalizes direction. A zero direction yields a ray that hits
// nothing.
func NewRay(origin, direction r3.Vec) Ray {
	if r3.Norm(direction) == 0 {
		return Ray{Origin: origin}
	}
	return Ray{Origin: origin, Direction: r3.Unit(direction)}
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float64) r3.Vec {
	return r3.Add(r.Origin, r3.Scale(t, r.Direction))
}

// IntersectSphere returns the distance to the first intersection with the
// sphere at or after the origin. An origin inside the sphere hits at 0.
func IntersectSphere(ray Ray, center r3.Vec, radius float64) (float64, bool) {
	if ray.Direction == (r3.Vec{}) {
		return 0, false
	}

	oc := r3.Sub(ray.Origin, center)
	c := r3.Dot(oc, oc) - radius*radius
	if c <= 0 {
		return 0, true
	}

	b := r3.Dot(oc, ray.Direction)
	disc := b*b - c
	if disc < 0 {
		return 0, false
	}

	// With the origin outside, both roots share a sign.
	t := -b - math.Sqrt(disc)
	if t < 0 {
		return 0, false
	}
	return t, true
}

// Candidate is a bounding sphere offered to PickNearest.
type Candidate struct {
	Entity ecs.EntityId
	Center r3.Vec
	Radius float64
}

// Hit is the result of a successful pick.
type Hit struct {
	Entity   ecs.EntityId
	Name     string
	Distance float64
	Point    r3.Vec
}

// PickNearest returns the index of the nearest intersected candidate. On equal
// distances the earlier candidate wins. It returns -1 when nothing is hit.
func PickNearest(ray Ray, candidates []Candidate) (int, float64) {
	best, bestT := -1, math.Inf(1)
	for i, c := range candidates {
		t, ok := IntersectSphere(ray, c.Center, c.Radius)
		if ok && t < bestT {
			best, bestT = i, t
		}
	}
	if best < 0 {
		return -1, 0
	}
	return best, bestT
}
