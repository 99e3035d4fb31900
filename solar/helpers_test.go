package solar_test

import (
	"testing"

	"github.com/plus3/orrery/solar"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

const tolerance = 1e-9

func float(v float64) *float64 {
	return &v
}

// orbitConfig is a primary planet with one orbiting, pickable moon.
func orbitConfig() *solar.Config {
	return &solar.Config{
		Name: "test",
		Bodies: []solar.BodyConfig{
			{Name: "planet", Radius: 20, Spin: 0.02},
			{
				Name:     "saturn",
				Parent:   "planet",
				Radius:   8,
				Orbit:    &solar.OrbitConfig{Radius: 50, Speed: 0.001},
				Spin:     0.02,
				Pickable: true,
			},
		},
	}
}

func newScene(t *testing.T, cfg *solar.Config, opts ...solar.Option) *solar.Scene {
	t.Helper()
	scene, err := solar.New(cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { scene.Dispose() })
	return scene
}

func bodyState(t *testing.T, scene *solar.Scene, name string) solar.BodyState {
	t.Helper()
	for _, b := range scene.Snapshot().Bodies {
		if b.Name == name {
			return b
		}
	}
	t.Fatalf("body %q not in snapshot", name)
	return solar.BodyState{}
}

func assertVec(t *testing.T, want, got r3.Vec, delta float64) {
	t.Helper()
	require.InDelta(t, want.X, got.X, delta, "x")
	require.InDelta(t, want.Y, got.Y, delta, "y")
	require.InDelta(t, want.Z, got.Z, delta, "z")
}
