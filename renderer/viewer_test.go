// renderer/viewer_test.go
// Copyright(c) 2022-2026 modelview contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package renderer

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/mmp/modelview/pixel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViewParamsTransform(t *testing.T) {
	m := DefaultViewParams().Transform()
	assert.Equal(t, mgl32.Vec4{-1, -1, 0, 1}, m.Mul4x1(mgl32.Vec4{0, 0, 0, 1}))
	assert.Equal(t, mgl32.Vec4{0, 0, 0, 1}, m.Mul4x1(mgl32.Vec4{1, 1, 0, 1}))

	p := ViewParams{X: 0.25, Y: 0, Scale: 0.5, AspectXY: 2, Level: -1}
	assert.Less(t, p.Transform().Mul4x1(mgl32.Vec4{1, 1, 0, 1}).Sub(mgl32.Vec4{1.25, 0.5, 0, 1}).Len(), float32(1e-6))
	assert.Less(t, p.Transform().Mul4x1(mgl32.Vec4{0, 0, 0, 1}).Sub(mgl32.Vec4{0.25, 0, 0, 1}).Len(), float32(1e-6))
}

func TestTextureViewer(t *testing.T) {
	ctx, dev, _ := newTestContext(t)
	tex, err := NewTexture2DFromImage(ctx, rampImage(8, 8, 1, 4))
	require.NoError(t, err)
	v, err := NewTextureViewer(ctx)
	require.NoError(t, err)

	scene, err := ctx.CompileProgram("scene", testVertexShader, testFragmentShader)
	require.NoError(t, err)
	other, err := NewTexture2D(ctx, 2, 2, pixel.RGBA8, nil)
	require.NoError(t, err)
	dev.UseProgram(scene)
	dev.BindTexture(TargetTexture2D, other.ID())
	dev.Enable(DepthTest)

	p := DefaultViewParams()
	p.Level = 2
	require.NoError(t, v.View(tex, p))

	require.Len(t, dev.Draws, 1)
	d := dev.Draws[0]
	assert.Equal(t, TriangleStrip, d.Mode)
	assert.Equal(t, int32(4), d.Count)
	assert.NotEqual(t, scene, d.Program)
	assert.Equal(t, [16]float32(p.Transform()), dev.UniformValue(d.Program, "matTrans"))
	assert.Equal(t, int32(2), dev.UniformValue(d.Program, "level"))
	assert.Equal(t, int32(0), dev.UniformValue(d.Program, "drawTexture"))

	assert.Equal(t, scene, dev.CurrentProgram())
	assert.Equal(t, other.ID(), dev.TextureUnitBinding(0, TargetTexture2D))
	assert.True(t, dev.IsEnabled(DepthTest))
	assert.Empty(t, dev.EnabledAttribs())

	requireNoGLErrors(t, dev)
}

func TestViewerTargets(t *testing.T) {
	ctx, dev, _ := newTestContext(t)

	tex2D, err := NewTexture2D(ctx, 4, 4, pixel.RGBA8, nil)
	require.NoError(t, err)
	cube, err := NewTextureCube(ctx, 4, pixel.RGBA8)
	require.NoError(t, err)
	volume, err := NewTextureVolume(ctx, 4, 4, 4, pixel.R32F, nil)
	require.NoError(t, err)

	flat, err := NewTextureViewer(ctx)
	require.NoError(t, err)
	cubes, err := NewCubeViewer(ctx)
	require.NoError(t, err)
	volumes, err := NewVolumeViewer(ctx)
	require.NoError(t, err)

	for _, c := range []struct {
		v   *Viewer
		ok  Texture
		bad []Texture
	}{
		{flat, tex2D, []Texture{cube, volume}},
		{cubes, cube, []Texture{tex2D, volume}},
		{volumes, volume, []Texture{tex2D, cube}},
	} {
		assert.NoError(t, c.v.View(c.ok, DefaultViewParams()))
		assert.Equal(t, TextureID(0), dev.TextureUnitBinding(0, c.ok.Target()))
		for _, b := range c.bad {
			assert.Error(t, c.v.View(b, DefaultViewParams()))
		}
	}
	assert.Len(t, dev.Draws, 3)

	requireNoGLErrors(t, dev)
}

func TestViewerDestroy(t *testing.T) {
	ctx, dev, _ := newTestContext(t)
	tex, err := NewTexture2D(ctx, 4, 4, pixel.RGBA8, nil)
	require.NoError(t, err)
	v, err := NewTextureViewer(ctx)
	require.NoError(t, err)

	v.Destroy()
	v.Destroy()
	assert.Zero(t, dev.ProgramCount())
	assert.Zero(t, dev.BufferCount())
	assert.Zero(t, dev.InvalidDeletes)

	assert.ErrorIs(t, v.View(tex, DefaultViewParams()), ErrNoProgram)
	assert.Empty(t, dev.Draws)
}
