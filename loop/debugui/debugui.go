// Package debugui provides Dear ImGui panels for inspecting and steering a
// running loop.
package debugui

import (
	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/frameloop/loop"
)

// InputState tracks Dear ImGui's input capture state.
// Use this to determine if ImGui is consuming mouse or keyboard input.
type InputState struct {
	WantCaptureMouse    bool
	WantCaptureKeyboard bool
}

// System is a loop system that renders ImGui windows once per frame from
// AfterUpdate. Register it in the last group so every other system has
// already run when the panels are drawn. The host must bracket the Tick
// with the backend's BeginFrame and EndFrame.
type System struct {
	loop.BaseSystem

	Input InputState
	items []func()
}

// NewSystem creates a system that renders items in the given order.
func NewSystem(items ...func()) *System {
	return &System{items: items}
}

// Add appends a render function.
func (s *System) Add(render func()) {
	s.items = append(s.items, render)
}

// AfterUpdate captures the input state and renders every item.
func (s *System) AfterUpdate(float64) error {
	io := imgui.CurrentIO()
	s.Input.WantCaptureMouse = io.WantCaptureMouse()
	s.Input.WantCaptureKeyboard = io.WantCaptureKeyboard()

	for _, render := range s.items {
		render()
	}
	return nil
}
