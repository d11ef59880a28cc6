// scene/animation.go
// Copyright(c) 2022-2026 modelview contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Animation rates are expressed per frame at 60Hz; frames of other
// durations are scaled accordingly.
const referenceFrameTime = 0.01667

// Animation drives the propeller spin and the slow rock of the aircraft's
// body. Tick advances by one per reference frame and wraps at 360; the
// body swings one way while Tick is in the first and last quarters of
// that range and back while it is in the middle half.
type Animation struct {
	Tick     float64
	BodyTick float64
	Paused   bool
}

// Update advances the animation by dt seconds.
func (a *Animation) Update(dt float64) {
	if a.Paused || dt <= 0 {
		return
	}
	s := dt / referenceFrameTime

	a.Tick = math.Mod(a.Tick+s, 360)
	if a.Tick < 90 || a.Tick > 270 {
		a.BodyTick += s
	} else if a.Tick > 90 && a.Tick < 270 {
		a.BodyTick -= s
	}
}

// PropellerRotation returns the propeller's rotation about its axis.
func (a *Animation) PropellerRotation() mgl32.Mat4 {
	return mgl32.HomogRotate3DY(float32(a.Tick / 2))
}

// BodyRotation returns the rotation of the aircraft's body.
func (a *Animation) BodyRotation() mgl32.Mat4 {
	return mgl32.HomogRotate3DY(float32(a.BodyTick / 3600))
}
