package debugui

import (
	"github.com/plus3/orrery/ecs"
	"github.com/plus3/orrery/solar"
)

// RegisterComponents registers the component types used by the debug UI.
// Pass it to solar.WithComponents.
func RegisterComponents(registry *ecs.ComponentRegistry) {
	ecs.RegisterComponent[ImguiItem](registry)
}

// Windows are the debug windows spawned into a scene.
type Windows struct {
	Scene *SceneWindow
	Stats *StatsWindow
}

// Spawn adds the scene and stats windows to the scene's storage along with
// the ImguiInputState singleton. The scene must have been built with
// RegisterComponents and an ImguiSystem.
func Spawn(scene *solar.Scene) Windows {
	storage := scene.Storage()
	ecs.NewSingleton[ImguiInputState](storage)

	windows := Windows{
		Scene: NewSceneWindow(scene),
		Stats: NewStatsWindow(scene, 120),
	}
	storage.Spawn(ImguiItem{Name: "scene", Render: windows.Scene.Render})
	storage.Spawn(ImguiItem{Name: "stats", Render: windows.Stats.Render})
	return windows
}
