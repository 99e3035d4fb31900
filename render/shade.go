package render

import (
	"github.com/chewxy/math32"
	"gonum.org/v1/gonum/spatial/r3"
)

type vec3 struct {
	x, y, z float32
}

func fromR3(v r3.Vec) vec3 {
	return vec3{float32(v.X), float32(v.Y), float32(v.Z)}
}

func (a vec3) add(b vec3) vec3 {
	return vec3{a.x + b.x, a.y + b.y, a.z + b.z}
}

func (a vec3) sub(b vec3) vec3 {
	return vec3{a.x - b.x, a.y - b.y, a.z - b.z}
}

func (a vec3) scale(f float32) vec3 {
	return vec3{a.x * f, a.y * f, a.z * f}
}

func (a vec3) dot(b vec3) float32 {
	return a.x*b.x + a.y*b.y + a.z*b.z
}

func (a vec3) unit() vec3 {
	n := math32.Sqrt(a.dot(a))
	if n == 0 {
		return a
	}
	return a.scale(1 / n)
}

// mat3 is a row-major rotation.
type mat3 [9]float32

// eulerXYZ builds the rotation for Euler angles applied in X, Y, Z order.
func eulerXYZ(r r3.Vec) mat3 {
	a, b := math32.Cos(float32(r.X)), math32.Sin(float32(r.X))
	c, d := math32.Cos(float32(r.Y)), math32.Sin(float32(r.Y))
	e, f := math32.Cos(float32(r.Z)), math32.Sin(float32(r.Z))
	return mat3{
		c * e, -c * f, d,
		a*f + b*e*d, a*e - b*f*d, -b * c,
		b*f - a*e*d, b*e + a*f*d, a * c,
	}
}

func (m mat3) apply(v vec3) vec3 {
	return vec3{
		m[0]*v.x + m[1]*v.y + m[2]*v.z,
		m[3]*v.x + m[4]*v.y + m[5]*v.z,
		m[6]*v.x + m[7]*v.y + m[8]*v.z,
	}
}

// applyInverse rotates by the transpose.
func (m mat3) applyInverse(v vec3) vec3 {
	return vec3{
		m[0]*v.x + m[3]*v.y + m[6]*v.z,
		m[1]*v.x + m[4]*v.y + m[7]*v.z,
		m[2]*v.x + m[5]*v.y + m[8]*v.z,
	}
}

const phi = 1.618033988749895

// Face normals of the dodecahedron are the icosahedron's vertices and the
// other way round.
var (
	dodecahedronFaces = normalize([]vec3{
		{0, 1, phi}, {0, 1, -phi}, {0, -1, phi}, {0, -1, -phi},
		{1, phi, 0}, {1, -phi, 0}, {-1, phi, 0}, {-1, -phi, 0},
		{phi, 0, 1}, {phi, 0, -1}, {-phi, 0, 1}, {-phi, 0, -1},
	})
	icosahedronFaces = normalize([]vec3{
		{1, 1, 1}, {1, 1, -1}, {1, -1, 1}, {1, -1, -1},
		{-1, 1, 1}, {-1, 1, -1}, {-1, -1, 1}, {-1, -1, -1},
		{0, 1 / phi, phi}, {0, 1 / phi, -phi}, {0, -1 / phi, phi}, {0, -1 / phi, -phi},
		{1 / phi, phi, 0}, {1 / phi, -phi, 0}, {-1 / phi, phi, 0}, {-1 / phi, -phi, 0},
		{phi, 0, 1 / phi}, {phi, 0, -1 / phi}, {-phi, 0, 1 / phi}, {-phi, 0, -1 / phi},
	})
)

func normalize(vs []vec3) []vec3 {
	for i := range vs {
		vs[i] = vs[i].unit()
	}
	return vs
}

// facet snaps an object-space normal to the closest face normal.
func facet(n vec3, faces []vec3) vec3 {
	best, bestDot := n, float32(-2)
	for _, f := range faces {
		if d := n.dot(f); d > bestDot {
			best, bestDot = f, d
		}
	}
	return best
}

// equirect maps an object-space unit normal to texture coordinates in
// [0, 1), with v = 0 at the north pole.
func equirect(n vec3) (u, v float32) {
	u = math32.Atan2(n.z, -n.x) / (2 * math32.Pi)
	if u < 0 {
		u += 1
	}
	v = math32.Acos(math32.Max(-1, math32.Min(1, n.y))) / math32.Pi
	return u, v
}
