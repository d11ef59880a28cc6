// renderer/target_test.go
// Copyright(c) 2022-2026 modelview contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package renderer

import (
	"testing"

	"github.com/mmp/modelview/pixel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderTargetComposition(t *testing.T) {
	ctx, dev, buf := newTestContext(t)

	rt, err := NewRenderTarget(ctx, 64, 48, 2, pixel.Format{})
	require.NoError(t, err)
	assert.Equal(t, 2, rt.Count())
	assert.NotContains(t, buf.String(), "problem with the framebuffer")

	c0, c1, depth := rt.ColorTexture(0), rt.ColorTexture(1), rt.DepthTexture()
	require.NotNil(t, c0)
	require.NotNil(t, c1)
	require.NotNil(t, depth)
	assert.Nil(t, rt.ColorTexture(2))
	assert.NotEqual(t, c0.ID(), c1.ID())
	for _, tex := range []*Texture2D{c0, c1, depth} {
		assert.Equal(t, 64, tex.Width())
		assert.Equal(t, 48, tex.Height())
	}
	assert.Equal(t, pixel.RGBA32F, c0.Format())
	assert.True(t, depth.Format().Depth)

	assert.Equal(t, c0.ID(), dev.FramebufferAttachment(rt.Framebuffer(), ColorAttachment0))
	assert.Equal(t, c1.ID(), dev.FramebufferAttachment(rt.Framebuffer(), ColorAttachment(1)))
	assert.Equal(t, depth.ID(), dev.FramebufferAttachment(rt.Framebuffer(), DepthAttachment))
	// Construction leaves the default framebuffer bound.
	assert.Equal(t, FramebufferID(0), dev.FramebufferBinding())

	// The two color textures are independently writable and readable.
	red := make([]float32, 64*48*4)
	for i := 0; i < len(red); i += 4 {
		red[i], red[i+3] = 1, 1
	}
	require.NoError(t, c1.SetBuffer(pixel.RGBA32F, pixel.AsBytes(red), 0))
	im0, err := Image2D[float32](c0, 4, 0)
	require.NoError(t, err)
	im1, err := Image2D[float32](c1, 4, 0)
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 0, 0, 0}, im0.Texel(10, 10, 0))
	assert.Equal(t, []float32{1, 0, 0, 1}, im1.Texel(10, 10, 0))

	d, err := Image2D[float32](depth, 1, 0)
	require.NoError(t, err)
	assert.Len(t, d.Data, 64*48)

	requireNoGLErrors(t, dev)
}

func TestRenderTargetBind(t *testing.T) {
	ctx, dev, _ := newTestContext(t)
	rt, err := NewRenderTarget(ctx, 32, 16, 2, pixel.RGBA8)
	require.NoError(t, err)

	dev.Viewport(0, 0, 1024, 768)
	rt.Bind()
	assert.Equal(t, rt.Framebuffer(), dev.FramebufferBinding())
	assert.Equal(t, [4]int32{0, 0, 32, 16}, dev.CurrentViewport())
	assert.Equal(t, []Attachment{ColorAttachment0, ColorAttachment(1)}, dev.DrawBuffersOf(rt.Framebuffer()))

	// Bind leaves restoring the previous state to the caller.
	dev.BindFramebuffer(0)
	dev.Viewport(0, 0, 1024, 768)

	ran := false
	rt.Render(func() {
		ran = true
		assert.Equal(t, rt.Framebuffer(), dev.FramebufferBinding())
		assert.Equal(t, [4]int32{0, 0, 32, 16}, dev.CurrentViewport())
		dev.ClearColor([4]float32{0, 1, 0, 1})
		dev.Clear(ColorBufferBit | DepthBufferBit)
	})
	assert.True(t, ran)
	assert.Equal(t, FramebufferID(0), dev.FramebufferBinding())
	assert.Equal(t, [4]int32{0, 0, 1024, 768}, dev.CurrentViewport())

	// The clear went to both color attachments and the depth buffer.
	for i := range 2 {
		im, err := Image2D[uint8](rt.ColorTexture(i), 4, 0)
		require.NoError(t, err)
		assert.Equal(t, []uint8{0, 255, 0, 255}, im.Texel(31, 15, 0), "attachment %d", i)
	}
	d, err := Image2D[float32](rt.DepthTexture(), 1, 0)
	require.NoError(t, err)
	assert.Equal(t, float32(1), d.Pixel(0, 0, 0))

	requireNoGLErrors(t, dev)
}

func TestRenderTargetBindTextures(t *testing.T) {
	ctx, dev, buf := newTestContext(t)
	rt, err := NewRenderTarget(ctx, 8, 8, 2, pixel.Format{})
	require.NoError(t, err)

	p, err := ctx.CompileProgram("test", testVertexShader, testFragmentShader)
	require.NoError(t, err)
	defer UseProgram(dev, p)()

	rt.BindColorTexture(p, "drawTexture", 1, 2)
	assert.Equal(t, rt.ColorTexture(1).ID(), dev.TextureUnitBinding(2, TargetTexture2D))
	assert.Equal(t, int32(2), dev.UniformValue(p, "drawTexture"))

	rt.BindDepthTexture(p, "drawTexture", 4)
	assert.Equal(t, rt.DepthTexture().ID(), dev.TextureUnitBinding(4, TargetTexture2D))
	assert.Equal(t, int32(4), dev.UniformValue(p, "drawTexture"))

	rt.BindColorTexture(p, "drawTexture", 5, 0)
	assert.Contains(t, buf.String(), "invalid color attachment index")

	requireNoGLErrors(t, dev)
}

func TestRenderTargetFromImages(t *testing.T) {
	ctx, dev, _ := newTestContext(t)

	a, b := rampImage(4, 4, 1, 4), rampImage(4, 4, 1, 4)
	b.Data[0] = 99
	rt, err := NewRenderTargetFromImages(ctx, a, b)
	require.NoError(t, err)
	assert.Equal(t, 2, rt.Count())
	im, err := Image2D[uint8](rt.ColorTexture(1), 4, 0)
	require.NoError(t, err)
	assert.Equal(t, b.Data, im.Data)

	_, err = NewRenderTargetFromImages(ctx, a, rampImage(2, 4, 1, 4))
	assert.Error(t, err)
	_, err = NewRenderTargetFromImages[uint8](ctx)
	assert.Error(t, err)

	requireNoGLErrors(t, dev)
}

func TestRenderTargetDestroy(t *testing.T) {
	ctx, dev, buf := newTestContext(t)
	rt, err := NewRenderTarget(ctx, 8, 8, 3, pixel.RGBA8)
	require.NoError(t, err)
	assert.Equal(t, 4, dev.TextureCount())
	assert.Equal(t, 1, dev.FramebufferCount())
	assert.Equal(t, 1, ctx.Stats().Framebuffers)

	rt.Destroy()
	rt.Destroy()
	assert.Zero(t, dev.TextureCount())
	assert.Zero(t, dev.FramebufferCount())
	assert.Zero(t, dev.InvalidDeletes)
	assert.Zero(t, ctx.Stats().Framebuffers)
	assert.Zero(t, ctx.Stats().Textures)

	rt.Bind()
	assert.Contains(t, buf.String(), "destroyed RenderTarget")
	assert.Equal(t, FramebufferID(0), dev.FramebufferBinding())

	_, err = NewRenderTarget(ctx, 8, 8, 0, pixel.RGBA8)
	assert.Error(t, err)
}

func TestIncompleteFramebuffer(t *testing.T) {
	ctx, dev, buf := newTestContext(t)

	// Larger than the device supports, so the attachments have no
	// storage; this is logged, not fatal.
	dev.info.MaxTextureSize = 16
	rt, err := NewRenderTarget(ctx, 32, 32, 1, pixel.RGBA8)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "problem with the framebuffer")
	assert.Contains(t, buf.String(), "GL_FRAMEBUFFER_INCOMPLETE_ATTACHMENT")
	assert.NotEmpty(t, ctx.CheckError("incomplete"))
	rt.Destroy()
}
