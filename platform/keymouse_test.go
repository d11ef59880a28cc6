// platform/keymouse_test.go
// Copyright(c) 2022-2026 modelview contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyEvents(t *testing.T) {
	s := NewInputState()
	s.BeginFrame()

	s.KeyEvent(KeyW, Press)
	s.KeyEvent(KeyW, Repeat)
	s.KeyEvent(KeyW, Repeat)
	s.KeyEvent(KeyLeftShift, Press)
	s.KeyEvent(KeyUnknown, Press)

	assert.Equal(t, 3, s.PressCount(KeyW))
	assert.True(t, s.WasPressed(KeyW))
	assert.True(t, s.IsHeld(KeyW))
	assert.True(t, s.KeyShift())
	assert.False(t, s.KeyControl())
	assert.False(t, s.WasPressed(KeyUnknown))

	// Presses are per-frame; held keys persist until released.
	s.BeginFrame()
	assert.False(t, s.WasPressed(KeyW))
	assert.True(t, s.IsHeld(KeyW))

	s.KeyEvent(KeyW, Release)
	assert.False(t, s.IsHeld(KeyW))
	assert.Zero(t, s.PressCount(KeyW))

	// Pressed and released within a single frame still counts.
	s.BeginFrame()
	s.KeyEvent(KeyP, Press)
	s.KeyEvent(KeyP, Release)
	assert.True(t, s.WasPressed(KeyP))
	assert.False(t, s.IsHeld(KeyP))
}

func TestMouseDrag(t *testing.T) {
	s := NewInputState()
	s.BeginFrame()

	// Motion without the button held isn't a drag.
	s.CursorEvent(100, 100)
	assert.False(t, s.Mouse.Dragging())
	assert.Equal(t, [2]float32{100, 100}, s.Mouse.Pos)

	s.MouseButtonEvent(MouseButtonPrimary, true)
	assert.True(t, s.Mouse.Clicked[MouseButtonPrimary])
	s.CursorEvent(110, 95)
	s.CursorEvent(120, 90)
	assert.True(t, s.Mouse.Dragging())
	assert.Equal(t, [2]float32{20, -10}, s.Mouse.DragDelta)

	s.BeginFrame()
	assert.False(t, s.Mouse.Clicked[MouseButtonPrimary])
	assert.True(t, s.Mouse.Down[MouseButtonPrimary])
	assert.False(t, s.Mouse.Dragging())
	s.CursorEvent(121, 90)
	s.MouseButtonEvent(MouseButtonPrimary, false)
	assert.True(t, s.Mouse.Released[MouseButtonPrimary])
	assert.Equal(t, [2]float32{1, 0}, s.Mouse.DragDelta)

	s.CursorEvent(200, 200)
	assert.Equal(t, [2]float32{1, 0}, s.Mouse.DragDelta)

	// Out of range buttons are ignored.
	s.MouseButtonEvent(MouseButtonCount, true)
	s.MouseButtonEvent(-1, true)

	s.ScrollEvent(0, 1)
	s.ScrollEvent(0, 2)
	assert.Equal(t, [2]float32{0, 3}, s.Mouse.Wheel)
}
