package solar

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

var (
	worldUp      = r3.Vec{Y: 1}
	maxElevation = degrees(89)
)

// Camera orbits Target at Distance. Azimuth and Elevation are in radians;
// an azimuth and elevation of zero looks down -Z from +Z. FOV is the
// vertical field of view in degrees.
type Camera struct {
	Target    r3.Vec
	Distance  float64
	Azimuth   float64
	Elevation float64
	FOV       float64
	Near      float64
	Far       float64
}

// NewCamera builds the initial camera from its config.
func NewCamera(cfg CameraConfig) Camera {
	return Camera{
		Target:    cfg.Target.Vec(),
		Distance:  cfg.Distance,
		Azimuth:   degrees(cfg.Azimuth),
		Elevation: math.Max(-maxElevation, math.Min(maxElevation, degrees(cfg.Elevation))),
		FOV:       cfg.FOV,
		Near:      cfg.Near,
		Far:       cfg.Far,
	}
}

// Position returns the eye position.
func (c *Camera) Position() r3.Vec {
	cosEl := math.Cos(c.Elevation)
	offset := r3.Vec{
		X: cosEl * math.Sin(c.Azimuth),
		Y: math.Sin(c.Elevation),
		Z: cosEl * math.Cos(c.Azimuth),
	}
	return r3.Add(c.Target, r3.Scale(c.Distance, offset))
}

// Basis returns the forward, right and up unit vectors.
func (c *Camera) Basis() (forward, right, up r3.Vec) {
	forward = r3.Unit(r3.Sub(c.Target, c.Position()))
	right = r3.Unit(r3.Cross(forward, worldUp))
	up = r3.Cross(right, forward)
	return forward, right, up
}

func (c *Camera) tanHalfFOV() float64 {
	return math.Tan(degrees(c.FOV) / 2)
}

func aspect(w, h float64) float64 {
	if h <= 0 {
		return 1
	}
	return w / h
}

// Ray returns the pick ray through screen point (x, y) of a w×h viewport.
func (c *Camera) Ray(x, y, w, h float64) Ray {
	forward, right, up := c.Basis()
	tan := c.tanHalfFOV()
	ndcX := 2*x/w - 1
	ndcY := 1 - 2*y/h

	dir := r3.Add(forward, r3.Add(
		r3.Scale(ndcX*tan*aspect(w, h), right),
		r3.Scale(ndcY*tan, up),
	))
	return NewRay(c.Position(), dir)
}

// Projection is a world point mapped onto the viewport.
type Projection struct {
	X, Y    float64
	Depth   float64
	Visible bool
}

// Project maps p onto a w×h viewport. Points outside the clip range are
// not visible.
func (c *Camera) Project(p r3.Vec, w, h float64) Projection {
	forward, right, up := c.Basis()
	rel := r3.Sub(p, c.Position())
	depth := r3.Dot(rel, forward)
	if depth < c.Near || depth > c.Far {
		return Projection{Depth: depth}
	}

	tan := c.tanHalfFOV()
	ndcX := r3.Dot(rel, right) / (depth * tan * aspect(w, h))
	ndcY := r3.Dot(rel, up) / (depth * tan)
	return Projection{
		X:       (ndcX + 1) / 2 * w,
		Y:       (1 - ndcY) / 2 * h,
		Depth:   depth,
		Visible: true,
	}
}

// PixelsPerUnit returns the screen scale at depth for a viewport of height h.
func (c *Camera) PixelsPerUnit(depth, h float64) float64 {
	return h / (2 * depth * c.tanHalfFOV())
}

// Orbit rotates the camera about its target. Elevation stays within ±89°.
func (c *Camera) Orbit(dAzimuth, dElevation float64) {
	c.Azimuth = math.Mod(c.Azimuth+dAzimuth, 2*math.Pi)
	c.Elevation = math.Max(-maxElevation, math.Min(maxElevation, c.Elevation+dElevation))
}

// Zoom scales the distance to the target, clamped to [Near*10, Far].
func (c *Camera) Zoom(factor float64) {
	if factor <= 0 {
		return
	}
	c.Distance = math.Max(c.Near*10, math.Min(c.Far, c.Distance*factor))
}
