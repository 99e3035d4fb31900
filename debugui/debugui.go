// Package debugui draws Dear ImGui windows for a running scene. Windows are
// ImguiItem entities; ImguiSystem defers their render functions to the end of
// each frame so they observe the frame's final state.
package debugui

import (
	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/orrery/ecs"
)

// ImguiItem is a component that holds a Dear ImGui render function.
type ImguiItem struct {
	Name   string
	Render func()
}

// ImguiInputState records whether ImGui is consuming input this frame. Hosts
// read it before forwarding clicks and keys to the scene.
type ImguiInputState struct {
	WantCaptureMouse    bool
	WantCaptureKeyboard bool
}

// ImguiSystem queues every ImguiItem render function and refreshes the
// ImguiInputState singleton. It must run inside an ImGui frame.
type ImguiSystem struct {
	Items      ecs.Query[struct{ *ImguiItem }]
	InputState ecs.Singleton[ImguiInputState]
}

func (i *ImguiSystem) Execute(frame *ecs.UpdateFrame) {
	if state := i.InputState.Get(); state != nil {
		io := imgui.CurrentIO()
		state.WantCaptureMouse = io.WantCaptureMouse()
		state.WantCaptureKeyboard = io.WantCaptureKeyboard()
	}

	for item := range i.Items.Iter() {
		if item.Render != nil {
			frame.Commands.Defer(item.Render)
		}
	}
}

// Capturing reports whether ImGui wants the mouse or keyboard. It is false
// when no ImguiInputState has been added.
func Capturing(storage *ecs.Storage) (mouse, keyboard bool) {
	var state *ImguiInputState
	if !storage.ReadSingleton(&state) {
		return false, false
	}
	return state.WantCaptureMouse, state.WantCaptureKeyboard
}
