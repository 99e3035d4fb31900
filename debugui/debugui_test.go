package debugui_test

import (
	"reflect"
	"testing"

	"github.com/plus3/orrery/debugui"
	"github.com/plus3/orrery/ecs"
	"github.com/plus3/orrery/solar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func testConfig() *solar.Config {
	return &solar.Config{
		Name:  "debug",
		Title: "Debug",
		Bodies: []solar.BodyConfig{
			{Name: "earth", Radius: 20, Spin: 0.02},
			{Name: "clouds", Parent: "earth", Radius: 2, Orbit: &solar.OrbitConfig{Radius: 30, Speed: 0.001}},
			{
				Name:     "saturn",
				Parent:   "earth",
				Radius:   8,
				Orbit:    &solar.OrbitConfig{Radius: 50, Speed: 0.001},
				Pickable: true,
			},
		},
		Stars: solar.DecorationConfig{Count: 60, MinRadius: 0.5, MaxRadius: 0.5, Spread: 100},
	}
}

func newScene(t *testing.T) *solar.Scene {
	t.Helper()
	scene, err := solar.New(testConfig(), solar.WithComponents(debugui.RegisterComponents))
	require.NoError(t, err)
	t.Cleanup(func() { scene.Dispose() })
	return scene
}

func names(rows []debugui.BodyRow) []string {
	out := make([]string, len(rows))
	for i, row := range rows {
		out[i] = row.Name
	}
	return out
}

func TestBodyTableFiltering(t *testing.T) {
	scene := newScene(t)
	table := debugui.NewBodyTable(10)
	table.SetBodies(scene.Snapshot().Bodies)

	assert.Equal(t, []string{"earth", "clouds", "saturn"}, names(table.Filtered()))

	table.SetFilter("SAT")
	assert.Equal(t, []string{"saturn"}, names(table.Filtered()))

	table.SetFilter("sphere")
	assert.Len(t, table.Filtered(), 3)

	table.SetFilter("")
	table.ShowDecorations(true)
	assert.Len(t, table.Filtered(), 63)

	table.SetFilter("star-00")
	assert.Len(t, table.Filtered(), 10)
}

func TestBodyTableSorting(t *testing.T) {
	scene := newScene(t)
	table := debugui.NewBodyTable(10)
	table.SetBodies(scene.Snapshot().Bodies)

	table.SortBy(debugui.ColumnRadius, false)
	assert.Equal(t, []string{"earth", "saturn", "clouds"}, names(table.Filtered()))

	table.SortBy(debugui.ColumnName, true)
	assert.Equal(t, []string{"clouds", "earth", "saturn"}, names(table.Filtered()))

	table.SortBy(debugui.ColumnDistance, true)
	assert.Equal(t, []string{"earth", "clouds", "saturn"}, names(table.Filtered()))

	scene.Perturb(mustBody(t, scene, "clouds"))
	table.SetBodies(scene.Snapshot().Bodies)
	table.SortBy(debugui.ColumnOverride, false)
	assert.Equal(t, "clouds", table.Filtered()[0].Name)
	assert.True(t, table.Filtered()[0].Overridden)
}

func TestBodyTablePaging(t *testing.T) {
	scene := newScene(t)
	table := debugui.NewBodyTable(25)
	table.ShowDecorations(true)
	table.SetBodies(scene.Snapshot().Bodies)

	rows, page, pages := table.Page()
	assert.Len(t, rows, 25)
	assert.Equal(t, 0, page)
	assert.Equal(t, 3, pages)

	table.NextPage()
	table.NextPage()
	table.NextPage()
	rows, page, _ = table.Page()
	assert.Equal(t, 2, page)
	assert.Len(t, rows, 13)

	table.SetFilter("saturn")
	rows, page, pages = table.Page()
	assert.Equal(t, []string{"saturn"}, names(rows))
	assert.Equal(t, 0, page)
	assert.Equal(t, 1, pages)

	table.PrevPage()
	_, page, _ = table.Page()
	assert.Equal(t, 0, page)
}

func TestBodyTableSelectionSurvivesMigration(t *testing.T) {
	scene := newScene(t)
	table := debugui.NewBodyTable(10)
	table.SetBodies(scene.Snapshot().Bodies)

	_, ok := table.Selected()
	assert.False(t, ok)

	table.Select("saturn")
	before, ok := table.Selected()
	require.True(t, ok)

	_, ok = scene.Perturb(before.Entity)
	require.True(t, ok)
	table.SetBodies(scene.Snapshot().Bodies)

	after, ok := table.Selected()
	require.True(t, ok)
	assert.NotEqual(t, before.Entity, after.Entity)
	assert.True(t, after.Overridden)

	require.True(t, scene.Remove("saturn"))
	table.SetBodies(scene.Snapshot().Bodies)
	_, ok = table.Selected()
	assert.False(t, ok)
}

func TestSceneWindowFollowsPick(t *testing.T) {
	scene := newScene(t)
	windows := debugui.Spawn(scene)

	windows.Scene.Refresh()
	_, ok := windows.Scene.Table().Selected()
	assert.False(t, ok)

	hit, ok := scene.Pick(r3.Vec{X: 50, Z: 100}, r3.Vec{Z: -1})
	require.True(t, ok)
	require.Equal(t, "saturn", hit.Name)

	windows.Scene.Refresh()
	row, ok := windows.Scene.Table().Selected()
	require.True(t, ok)
	assert.Equal(t, "saturn", row.Name)

	windows.Scene.Table().Select("earth")
	windows.Scene.Refresh()
	row, _ = windows.Scene.Table().Selected()
	assert.Equal(t, "earth", row.Name)
}

func TestSpawn(t *testing.T) {
	scene := newScene(t)
	before := scene.Storage().Len()

	debugui.Spawn(scene)

	storage := scene.Storage()
	assert.Equal(t, before+2, storage.Len())

	var items []string
	for _, item := range ecs.NewView[struct{ *debugui.ImguiItem }](storage).Values() {
		items = append(items, item.Name)
		assert.NotNil(t, item.Render)
	}
	assert.ElementsMatch(t, []string{"scene", "stats"}, items)

	mouse, keyboard := debugui.Capturing(storage)
	assert.False(t, mouse)
	assert.False(t, keyboard)

	var state *debugui.ImguiInputState
	require.True(t, storage.ReadSingleton(&state))
	state.WantCaptureMouse = true
	mouse, _ = debugui.Capturing(storage)
	assert.True(t, mouse)

	require.NoError(t, scene.Tick(100))
	assert.Equal(t, before, len(scene.Snapshot().Bodies))
}

func TestCapturingWithoutState(t *testing.T) {
	scene := newScene(t)
	mouse, keyboard := debugui.Capturing(scene.Storage())
	assert.False(t, mouse)
	assert.False(t, keyboard)
}

func TestFieldCache(t *testing.T) {
	cache := debugui.NewFieldCache()

	fields := cache.Fields(reflect.TypeFor[solar.Orbit]())
	require.Len(t, fields, 4)
	assert.Equal(t, "Radius", fields[0].Name)
	assert.Equal(t, "Offset", fields[3].Name)
	assert.True(t, fields[3].IsStruct)

	parent := cache.Fields(reflect.TypeFor[solar.Parent]())
	require.Len(t, parent, 1)
	assert.True(t, parent[0].IsPointer)
	assert.Equal(t, reflect.TypeFor[ecs.EntityRef](), parent[0].Type)

	assert.Empty(t, cache.Fields(reflect.TypeFor[solar.Pickable]()))
	assert.Nil(t, cache.Fields(reflect.TypeFor[int]()))

	again := cache.Fields(reflect.TypeFor[solar.Orbit]())
	assert.Same(t, &fields[0], &again[0])
}

func TestFrameHistory(t *testing.T) {
	history := debugui.NewFrameHistory(4)
	assert.Zero(t, history.Average())

	history.Record(10)
	history.Record(20)
	assert.InDelta(t, 15, history.Average(), 1e-6)

	for _, ms := range []float32{30, 40, 50, 60} {
		history.Record(ms)
	}
	assert.InDelta(t, 45, history.Average(), 1e-6)
	assert.Equal(t, []float32{50, 60, 30, 40}, history.Samples())
	assert.Equal(t, []float32{30, 40, 50, 60}, history.Chronological())
}

func TestStatsWindowRecordsLatency(t *testing.T) {
	scene := newScene(t)
	window := debugui.NewStatsWindow(scene, 8)

	_, ok := window.Latency("OrbitSystem")
	assert.False(t, ok)

	for i := range 3 {
		require.NoError(t, scene.Tick(float64(i) * 16))
		window.Record(scene.Stats())
	}

	for _, name := range []string{"ClockSystem", "OrbitSystem", "SpinSystem", "HierarchySystem"} {
		samples, ok := window.Latency(name)
		require.True(t, ok, name)
		assert.Len(t, samples, 8)
	}
}

func mustBody(t *testing.T, scene *solar.Scene, name string) ecs.EntityId {
	t.Helper()
	id, ok := scene.Body(name)
	require.True(t, ok)
	return id
}
