// scene/animation_test.go
// Copyright(c) 2022-2026 modelview contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package scene

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestAnimationFrameScaling(t *testing.T) {
	var a Animation
	a.Update(referenceFrameTime)
	assert.InDelta(t, 1, a.Tick, 1e-9)
	assert.InDelta(t, 1, a.BodyTick, 1e-9)

	// A 30Hz frame advances twice as far.
	a.Update(2 * referenceFrameTime)
	assert.InDelta(t, 3, a.Tick, 1e-9)
	assert.InDelta(t, 3, a.BodyTick, 1e-9)

	a.Update(0)
	a.Update(-1)
	assert.InDelta(t, 3, a.Tick, 1e-9)
}

func TestAnimationPause(t *testing.T) {
	a := Animation{Tick: 10, BodyTick: 5, Paused: true}
	a.Update(1)
	assert.Equal(t, Animation{Tick: 10, BodyTick: 5, Paused: true}, a)
}

func TestAnimationBodySwing(t *testing.T) {
	// The body swings back while the tick is in (90, 270).
	a := Animation{Tick: 100}
	a.Update(referenceFrameTime)
	assert.InDelta(t, -1, a.BodyTick, 1e-9)

	// And forward again past 270.
	a = Animation{Tick: 280}
	a.Update(referenceFrameTime)
	assert.InDelta(t, 1, a.BodyTick, 1e-9)

	// Ticks wrap around at 360.
	a = Animation{Tick: 359.5}
	a.Update(referenceFrameTime)
	assert.InDelta(t, 0.5, a.Tick, 1e-9)
	assert.InDelta(t, 1, a.BodyTick, 1e-9)

	// Over a full cycle the body returns to where it started.
	a = Animation{}
	for range 360 {
		a.Update(referenceFrameTime)
	}
	assert.InDelta(t, 0, a.Tick, 1e-6)
	assert.InDelta(t, 0, a.BodyTick, 2)
}

func TestAnimationRotations(t *testing.T) {
	a := Animation{Tick: 90, BodyTick: 1800}
	assertMat4(t, mgl32.HomogRotate3DY(45), a.PropellerRotation())
	assertMat4(t, mgl32.HomogRotate3DY(0.5), a.BodyRotation())

	// Rotations about y leave the y axis fixed.
	y := a.PropellerRotation().Mul4x1(mgl32.Vec4{0, 1, 0, 0})
	assertVec4(t, mgl32.Vec4{0, 1, 0, 0}, y, eps)
}
