package debugui

import (
	"fmt"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/orrery/solar"
)

// SceneWindow shows the clock, the last pick and the body table, and lets the
// user perturb or inspect the selected body.
type SceneWindow struct {
	scene     *solar.Scene
	table     *BodyTable
	inspector *Inspector
	followed  string
}

func NewSceneWindow(scene *solar.Scene) *SceneWindow {
	return &SceneWindow{
		scene:     scene,
		table:     NewBodyTable(50),
		inspector: NewInspector(),
	}
}

// Table returns the body table backing the window.
func (w *SceneWindow) Table() *BodyTable {
	return w.table
}

// Refresh reloads the body table from a snapshot. A new pick becomes the
// selection.
func (w *SceneWindow) Refresh() {
	w.table.SetBodies(w.scene.Snapshot().Bodies)
	if hit, ok := w.scene.LastPick(); ok {
		if hit.Name != w.followed {
			w.table.Select(hit.Name)
			w.followed = hit.Name
		}
	}
}

func (w *SceneWindow) title() string {
	cfg := w.scene.Config()
	switch {
	case cfg.Title != "":
		return cfg.Title + "###scene"
	case cfg.Name != "":
		return cfg.Name + "###scene"
	}
	return "Scene###scene"
}

func (w *SceneWindow) Render() {
	imgui.SetNextWindowPosV(imgui.NewVec2(10, 10), imgui.CondOnce, imgui.NewVec2(0, 0))
	imgui.SetNextWindowSizeV(imgui.NewVec2(420, 400), imgui.CondOnce)
	if !imgui.BeginV(w.title(), nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	w.Refresh()

	clock := w.scene.Clock()
	imgui.Text(fmt.Sprintf("Tick %d at %.0f ms (%s spin)", clock.Tick, clock.ElapsedMs, clock.Mode))
	if hit, ok := w.scene.LastPick(); ok {
		imgui.Text(fmt.Sprintf("Last pick: %s at %.1f", hit.Name, hit.Distance))
	} else {
		imgui.Text("Last pick: none")
	}
	if imgui.Button("Reset Overrides") {
		w.scene.ResetOverrides()
	}

	imgui.Separator()
	w.table.Render()

	imgui.Separator()
	row, ok := w.table.Selected()
	if !ok {
		imgui.Text("No body selected")
		imgui.End()
		return
	}
	imgui.Text(fmt.Sprintf("Selected: %s", row.Name))
	imgui.SameLine()
	if imgui.Button("Perturb") {
		w.scene.Perturb(row.Entity)
	}
	if imgui.TreeNodeStr("Components") {
		w.inspector.Render(w.scene.Storage(), row.Entity)
		imgui.TreePop()
	}

	imgui.End()
}
