// renderer/target.go
// Copyright(c) 2022-2026 modelview contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package renderer

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/mmp/modelview/pixel"
)

// RenderTarget is an off-screen framebuffer with one or more color
// textures and a depth texture, all of the same size.
type RenderTarget struct {
	ctx           *Context
	width, height int
	fb            FramebufferID
	color         []*Texture2D
	depth         *Texture2D
	drawBuffers   []Attachment
	destroyed     bool
}

// NewRenderTarget creates a render target with count color attachments in
// format f; the zero Format selects four-component float.
func NewRenderTarget(ctx *Context, width, height, count int, f pixel.Format) (*RenderTarget, error) {
	if f == (pixel.Format{}) {
		f = pixel.RGBA32F
	}
	return newRenderTarget(ctx, width, height, count, f, nil)
}

// NewRenderTargetFromImages creates a render target with one color
// attachment per image, initialized from the images, which must all have
// the same size and format.
func NewRenderTargetFromImages[T pixel.Element](ctx *Context, images ...*pixel.Image[T]) (*RenderTarget, error) {
	if len(images) == 0 {
		return nil, fmt.Errorf("NewRenderTargetFromImages: no images provided")
	}
	data := make([][]byte, len(images))
	im0 := images[0]
	for i, im := range images {
		if im.Width != im0.Width || im.Height != im0.Height || im.Format != im0.Format {
			return nil, fmt.Errorf("image %d (%dx%d %s) does not match image 0 (%dx%d %s)", i,
				im.Width, im.Height, im.Format, im0.Width, im0.Height, im0.Format)
		}
		data[i] = im.Bytes()
	}
	return newRenderTarget(ctx, im0.Width, im0.Height, len(images), im0.Format, data)
}

func newRenderTarget(ctx *Context, width, height, count int, f pixel.Format, data [][]byte) (*RenderTarget, error) {
	if count < 1 {
		return nil, fmt.Errorf("render target needs at least one color attachment, got %d", count)
	}

	rt := &RenderTarget{ctx: ctx, width: width, height: height}
	for i := range count {
		var d []byte
		if data != nil {
			d = data[i]
		}
		tex, err := NewTexture2D(ctx, width, height, f, d)
		if err != nil {
			rt.Destroy()
			return nil, fmt.Errorf("color attachment %d: %w", i, err)
		}
		rt.color = append(rt.color, tex)
		rt.drawBuffers = append(rt.drawBuffers, ColorAttachment(i))
	}
	var err error
	if rt.depth, err = NewTexture2D(ctx, width, height, pixel.DepthFormat(), nil); err != nil {
		rt.Destroy()
		return nil, fmt.Errorf("depth attachment: %w", err)
	}

	rt.fb = ctx.createFramebuffer()
	restore := BindFramebuffer(ctx, rt.fb, width, height)
	for i, tex := range rt.color {
		ctx.FramebufferTexture(ColorAttachment(i), tex.ID())
	}
	ctx.FramebufferTexture(DepthAttachment, rt.depth.ID())
	if status := ctx.CheckFramebufferStatus(); status != FramebufferComplete {
		// Draws to an incomplete framebuffer are undefined but not fatal.
		ctx.lg.Warn("There is a problem with the framebuffer", slog.String("status", status.String()),
			slog.Int("width", width), slog.Int("height", height), slog.Int("count", count))
	}
	restore()

	return rt, nil
}

func (rt *RenderTarget) Width() int  { return rt.width }
func (rt *RenderTarget) Height() int { return rt.height }

// Count returns the number of color attachments.
func (rt *RenderTarget) Count() int { return len(rt.color) }

func (rt *RenderTarget) Framebuffer() FramebufferID { return rt.fb }

// Bind binds the framebuffer, enables drawing to all of the color
// attachments, and sets the viewport to the target's size. The previous
// framebuffer and viewport are not restored; Render does that.
func (rt *RenderTarget) Bind() {
	if rt.destroyed {
		rt.ctx.lg.Warn("Bind called on destroyed RenderTarget")
		return
	}
	rt.ctx.BindFramebuffer(rt.fb)
	rt.ctx.DrawBuffers(rt.drawBuffers)
	rt.ctx.Viewport(0, 0, int32(rt.width), int32(rt.height))
}

// Render calls draw with the render target bound and then restores the
// previous framebuffer and viewport.
func (rt *RenderTarget) Render(draw func()) {
	if rt.destroyed {
		rt.ctx.lg.Warn("Render called on destroyed RenderTarget")
		return
	}
	defer BindFramebuffer(rt.ctx, rt.fb, rt.width, rt.height)()
	rt.ctx.DrawBuffers(rt.drawBuffers)
	draw()
}

// ColorTexture returns the i'th color attachment or nil if there is no
// such attachment.
func (rt *RenderTarget) ColorTexture(i int) *Texture2D {
	if i < 0 || i >= len(rt.color) {
		return nil
	}
	return rt.color[i]
}

func (rt *RenderTarget) DepthTexture() *Texture2D {
	return rt.depth
}

// BindColorTexture binds the i'th color attachment to the given texture
// unit and sampler uniform.
func (rt *RenderTarget) BindColorTexture(p ProgramID, name string, i, slot int) {
	if tex := rt.ColorTexture(i); tex != nil {
		tex.Bind(p, name, slot)
	} else {
		rt.ctx.lg.Warnf("%d: invalid color attachment index for %d-attachment render target", i, len(rt.color))
	}
}

func (rt *RenderTarget) BindDepthTexture(p ProgramID, name string, slot int) {
	rt.depth.Bind(p, name, slot)
}

// Destroy releases the framebuffer and its attachments; it is safe to
// call more than once.
func (rt *RenderTarget) Destroy() {
	if rt.destroyed {
		return
	}
	if rt.fb != 0 {
		rt.ctx.deleteFramebuffer(rt.fb)
	}
	for _, tex := range rt.color {
		tex.Destroy()
	}
	if rt.depth != nil {
		rt.depth.Destroy()
	}
	rt.destroyed = true
}

func (rt *RenderTarget) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "RenderTarget: [%dx%d]\n", rt.width, rt.height)
	if rt.depth != nil {
		fmt.Fprintf(&sb, "\tdepth buffer: %s\n", rt.depth)
	}
	for i, tex := range rt.color {
		fmt.Fprintf(&sb, "\t%d. color buffer: %s\n", i, tex)
	}
	return sb.String()
}
