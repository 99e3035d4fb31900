package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestEulerInverse(t *testing.T) {
	m := eulerXYZ(r3.Vec{X: 0.3, Y: -1.2, Z: 2.1})
	v := vec3{0.2, -0.7, 0.4}
	back := m.applyInverse(m.apply(v))
	assert.InDelta(t, v.x, back.x, 1e-5)
	assert.InDelta(t, v.y, back.y, 1e-5)
	assert.InDelta(t, v.z, back.z, 1e-5)
}

func TestFacetSnapsToFace(t *testing.T) {
	assert.Len(t, dodecahedronFaces, 12)
	assert.Len(t, icosahedronFaces, 20)

	n := vec3{0.05, 0.02, 1}.unit()
	f := facet(n, dodecahedronFaces)
	g := facet(vec3{-0.05, 0.01, 1}.unit(), dodecahedronFaces)
	assert.Equal(t, f, g, "neighbouring normals share a face")
	assert.InDelta(t, 1, f.dot(f), 1e-5)
}

func TestEquirect(t *testing.T) {
	_, v := equirect(vec3{0, 1, 0})
	assert.InDelta(t, 0, v, 1e-6)
	_, v = equirect(vec3{0, -1, 0})
	assert.InDelta(t, 1, v, 1e-6)

	u, v := equirect(vec3{-1, 0, 0})
	assert.InDelta(t, 0, u, 1e-6)
	assert.InDelta(t, 0.5, v, 1e-6)
	u, _ = equirect(vec3{0, 0, 1})
	assert.InDelta(t, 0.25, u, 1e-6)
}
