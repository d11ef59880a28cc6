// scene/camera.go
// Copyright(c) 2022-2026 modelview contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package scene

import (
	"fmt"
	"math"

	"github.com/mmp/modelview/util"

	"github.com/go-gl/mathgl/mgl32"
)

// Camera is a free-flying camera in a world where +z is up. Its viewing
// direction is given by an azimuth, measured counterclockwise from +x in
// the xy plane, and a zenith angle above that plane. A first-person
// camera's eye is at Position; otherwise the eye orbits Position at the
// given Radius, looking at it.
type Camera struct {
	Position    mgl32.Vec3
	Azimuth     float32
	Zenith      float32
	Radius      float32
	FirstPerson bool
}

func NewCamera() Camera {
	return Camera{Radius: 1, FirstPerson: true}
}

func sincos(a float32) (float32, float32) {
	s, c := math.Sincos(float64(a))
	return float32(s), float32(c)
}

// ViewVector returns the unit vector along the direction of view.
func (c *Camera) ViewVector() mgl32.Vec3 {
	sa, ca := sincos(c.Azimuth)
	sz, cz := sincos(c.Zenith)
	return mgl32.Vec3{ca * cz, sa * cz, sz}
}

// UpVector returns the unit vector that is up on the screen; it is
// perpendicular to the view vector.
func (c *Camera) UpVector() mgl32.Vec3 {
	sa, ca := sincos(c.Azimuth)
	sz, cz := sincos(c.Zenith + math.Pi/2)
	return mgl32.Vec3{ca * cz, sa * cz, sz}
}

// Eye returns the position of the viewer.
func (c *Camera) Eye() mgl32.Vec3 {
	if c.FirstPerson {
		return c.Position
	}
	return c.Position.Sub(c.ViewVector().Mul(c.Radius))
}

func (c *Camera) ViewMatrix() mgl32.Mat4 {
	eye := c.Eye()
	return mgl32.LookAtV(eye, eye.Add(c.ViewVector()), c.UpVector())
}

// Forward moves the camera along the view vector.
func (c *Camera) Forward(step float32) {
	c.Position = c.Position.Add(c.ViewVector().Mul(step))
}

func (c *Camera) Backward(step float32) {
	c.Forward(-step)
}

// Right moves the camera to the right in the horizontal plane.
func (c *Camera) Right(step float32) {
	s, co := sincos(c.Azimuth - math.Pi/2)
	c.Position = c.Position.Add(mgl32.Vec3{co, s, 0}.Mul(step))
}

func (c *Camera) Left(step float32) {
	c.Right(-step)
}

// Up moves the camera along the world's +z axis.
func (c *Camera) Up(step float32) {
	c.Position[2] += step
}

func (c *Camera) Down(step float32) {
	c.Up(-step)
}

func (c *Camera) AddAzimuth(a float32) {
	c.Azimuth += a
}

// AddZenith tilts the camera; the zenith angle is limited to straight up
// and straight down.
func (c *Camera) AddZenith(z float32) {
	c.Zenith = util.Clamp(c.Zenith+z, -math.Pi/2, math.Pi/2)
}

func (c Camera) String() string {
	return fmt.Sprintf("pos %.2f,%.2f,%.2f az %.1f ze %.1f first person %v", c.Position[0], c.Position[1],
		c.Position[2], mgl32.RadToDeg(c.Azimuth), mgl32.RadToDeg(c.Zenith), c.FirstPerson)
}
