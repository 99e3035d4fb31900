package solar_test

import (
	"testing"

	"github.com/plus3/orrery/solar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestIntersectSphere(t *testing.T) {
	tests := []struct {
		name   string
		ray    solar.Ray
		center r3.Vec
		radius float64
		hit    bool
		t      float64
	}{
		{
			name:   "through center",
			ray:    solar.NewRay(r3.Vec{Z: 100}, r3.Vec{Z: -1}),
			radius: 10,
			hit:    true,
			t:      90,
		},
		{
			name:   "unnormalized direction",
			ray:    solar.NewRay(r3.Vec{Z: 100}, r3.Vec{Z: -42}),
			radius: 10,
			hit:    true,
			t:      90,
		},
		{
			name:   "miss beside",
			ray:    solar.NewRay(r3.Vec{X: 11, Z: 100}, r3.Vec{Z: -1}),
			radius: 10,
		},
		{
			name:   "sphere behind origin",
			ray:    solar.NewRay(r3.Vec{Z: 100}, r3.Vec{Z: 1}),
			radius: 10,
		},
		{
			name:   "origin inside",
			ray:    solar.NewRay(r3.Vec{X: 2}, r3.Vec{X: 1}),
			radius: 10,
			hit:    true,
			t:      0,
		},
		{
			name:   "zero direction",
			ray:    solar.NewRay(r3.Vec{Z: 100}, r3.Vec{}),
			radius: 10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, ok := solar.IntersectSphere(tt.ray, tt.center, tt.radius)
			assert.Equal(t, tt.hit, ok)
			if tt.hit {
				assert.InDelta(t, tt.t, d, tolerance)
			}
		})
	}
}

func TestPickNearest(t *testing.T) {
	ray := solar.NewRay(r3.Vec{Z: 100}, r3.Vec{Z: -1})

	t.Run("no candidates", func(t *testing.T) {
		i, _ := solar.PickNearest(ray, nil)
		assert.Equal(t, -1, i)
	})

	t.Run("no intersection", func(t *testing.T) {
		i, _ := solar.PickNearest(ray, []solar.Candidate{
			{Center: r3.Vec{X: 50}, Radius: 5},
			{Center: r3.Vec{Y: -50}, Radius: 5},
		})
		assert.Equal(t, -1, i)
	})

	t.Run("nearest wins", func(t *testing.T) {
		i, d := solar.PickNearest(ray, []solar.Candidate{
			{Center: r3.Vec{Z: -50}, Radius: 5},
			{Center: r3.Vec{Z: 20}, Radius: 5},
			{Center: r3.Vec{Z: 0}, Radius: 5},
		})
		assert.Equal(t, 1, i)
		assert.InDelta(t, 75, d, tolerance)
	})

	t.Run("tie keeps first", func(t *testing.T) {
		i, _ := solar.PickNearest(ray, []solar.Candidate{
			{Center: r3.Vec{X: 50}, Radius: 5},
			{Center: r3.Vec{X: 1}, Radius: 5},
			{Center: r3.Vec{X: -1}, Radius: 5},
		})
		assert.Equal(t, 1, i)
	})
}

func TestScenePickThroughCenter(t *testing.T) {
	scene := newScene(t, orbitConfig())
	require.NoError(t, scene.Tick(0))

	hit, ok := scene.Pick(r3.Vec{X: 50, Z: 100}, r3.Vec{Z: -1})
	require.True(t, ok)
	assert.Equal(t, "saturn", hit.Name)
	assert.InDelta(t, 92, hit.Distance, tolerance)
	assertVec(t, r3.Vec{X: 50, Z: 8}, hit.Point, tolerance)

	last, ok := scene.LastPick()
	require.True(t, ok)
	assert.Equal(t, hit, last)
}

func TestScenePickMiss(t *testing.T) {
	scene := newScene(t, orbitConfig())
	require.NoError(t, scene.Tick(0))

	_, ok := scene.Pick(r3.Vec{X: 500, Z: 100}, r3.Vec{Z: -1})
	assert.False(t, ok)
	_, ok = scene.LastPick()
	assert.False(t, ok)
}

func TestScenePickSkipsNonPickable(t *testing.T) {
	scene := newScene(t, orbitConfig())
	require.NoError(t, scene.Tick(0))

	// Straight through the primary planet.
	_, ok := scene.Pick(r3.Vec{Z: 100}, r3.Vec{Z: -1})
	assert.False(t, ok)

	// Through both: the planet is nearer but excluded.
	hit, ok := scene.Pick(r3.Vec{X: -100}, r3.Vec{X: 1})
	require.True(t, ok)
	assert.Equal(t, "saturn", hit.Name)
}

func TestScenePickTieUsesBuildOrder(t *testing.T) {
	cfg := &solar.Config{
		Bodies: []solar.BodyConfig{
			{Name: "b", Radius: 5, Position: solar.Vec3{0, 1, 0}, Pickable: true},
			{Name: "a", Radius: 5, Position: solar.Vec3{0, -1, 0}, Pickable: true, Spin: 0.3},
		},
	}
	scene := newScene(t, cfg)

	hit, ok := scene.Pick(r3.Vec{Z: 100}, r3.Vec{Z: -1})
	require.True(t, ok)
	assert.Equal(t, "b", hit.Name)
}
