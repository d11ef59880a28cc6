// platform/keymouse.go
// Copyright(c) 2022-2026 modelview contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package platform

type Key int

const (
	KeyUnknown Key = iota
	KeyA
	KeyB
	KeyC
	KeyD
	KeyE
	KeyF
	KeyG
	KeyH
	KeyI
	KeyJ
	KeyK
	KeyL
	KeyM
	KeyN
	KeyO
	KeyP
	KeyQ
	KeyR
	KeyS
	KeyT
	KeyU
	KeyV
	KeyW
	KeyX
	KeyY
	KeyZ
	KeySpace
	KeyEscape
	KeyEnter
	KeyTab
	KeyLeftShift
	KeyRightShift
	KeyLeftControl
	KeyRightControl
	KeyLeftArrow
	KeyRightArrow
	KeyUpArrow
	KeyDownArrow
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12
)

type KeyAction int

const (
	Press KeyAction = iota
	Repeat
	Release
)

type MouseButton int

const (
	MouseButtonPrimary MouseButton = iota
	MouseButtonSecondary
	MouseButtonTertiary
	MouseButtonCount
)

type MouseState struct {
	Pos      [2]float32
	Down     [MouseButtonCount]bool
	Clicked  [MouseButtonCount]bool
	Released [MouseButtonCount]bool
	// DragDelta is the cursor motion during the frame while the primary
	// button was held.
	DragDelta [2]float32
	Wheel     [2]float32
}

// Dragging reports whether the cursor moved with the primary button down
// during the frame.
func (ms *MouseState) Dragging() bool {
	return ms.DragDelta != [2]float32{}
}

// InputState accumulates keyboard and mouse events over the course of a
// frame. The platform calls BeginFrame before it processes each frame's
// events and then reports them through the *Event methods.
type InputState struct {
	Mouse MouseState

	held map[Key]bool
	// A key is counted here once each time it is pressed and again each
	// time key repeat kicks in.
	pressed map[Key]int
}

func NewInputState() *InputState {
	return &InputState{
		held:    make(map[Key]bool),
		pressed: make(map[Key]int),
	}
}

// BeginFrame clears the per-frame state; held keys and buttons and the
// cursor position carry over.
func (s *InputState) BeginFrame() {
	clear(s.pressed)
	s.Mouse.Clicked = [MouseButtonCount]bool{}
	s.Mouse.Released = [MouseButtonCount]bool{}
	s.Mouse.DragDelta = [2]float32{}
	s.Mouse.Wheel = [2]float32{}
}

func (s *InputState) KeyEvent(k Key, action KeyAction) {
	if k == KeyUnknown {
		return
	}
	switch action {
	case Press, Repeat:
		s.held[k] = true
		s.pressed[k]++
	case Release:
		delete(s.held, k)
	}
}

func (s *InputState) MouseButtonEvent(b MouseButton, down bool) {
	if b < 0 || b >= MouseButtonCount {
		return
	}
	if down && !s.Mouse.Down[b] {
		s.Mouse.Clicked[b] = true
	} else if !down && s.Mouse.Down[b] {
		s.Mouse.Released[b] = true
	}
	s.Mouse.Down[b] = down
}

func (s *InputState) CursorEvent(x, y float32) {
	if s.Mouse.Down[MouseButtonPrimary] {
		s.Mouse.DragDelta[0] += x - s.Mouse.Pos[0]
		s.Mouse.DragDelta[1] += y - s.Mouse.Pos[1]
	}
	s.Mouse.Pos = [2]float32{x, y}
}

func (s *InputState) ScrollEvent(dx, dy float32) {
	s.Mouse.Wheel[0] += dx
	s.Mouse.Wheel[1] += dy
}

// WasPressed reports whether k was pressed (or repeated) during the frame.
func (s *InputState) WasPressed(k Key) bool {
	return s.pressed[k] > 0
}

// PressCount returns the number of press and repeat events for k during
// the frame.
func (s *InputState) PressCount(k Key) int {
	return s.pressed[k]
}

func (s *InputState) IsHeld(k Key) bool {
	return s.held[k]
}

func (s *InputState) KeyShift() bool {
	return s.held[KeyLeftShift] || s.held[KeyRightShift]
}

func (s *InputState) KeyControl() bool {
	return s.held[KeyLeftControl] || s.held[KeyRightControl]
}
