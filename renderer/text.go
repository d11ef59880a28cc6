// renderer/text.go
// Copyright(c) 2022-2026 modelview contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package renderer

import (
	"fmt"
	"image"
	"image/color"

	"github.com/mmp/modelview/pixel"
)

// Rasterizer draws text into an RGBA image.
type Rasterizer interface {
	// DrawString draws text with its baseline starting at (x, y), where
	// y increases downward, and returns the bounds of the pixels that
	// were touched. The returned rectangle may extend past dst's bounds.
	DrawString(dst *image.RGBA, x, y int, text string, c color.Color) image.Rectangle
}

const overlayVertexShader = `#version 410 core
in vec2 inPosition;
in vec2 inTexCoord;
out vec2 texCoords;
void main() {
	gl_Position = vec4(inPosition, 0.0, 1.0);
	texCoords = inTexCoord;
}
`

const overlayFragmentShader = `#version 410 core
in vec2 texCoords;
out vec4 fragColor;
uniform sampler2D drawTexture;
void main() {
	fragColor = texture(drawTexture, texCoords);
	if (length(fragColor.rgb) == 0.0)
		fragColor.a = 0.0;
}
`

// Full-viewport quad; row 0 of the overlay texture is at the top.
var overlayQuad = []float32{
	-1, -1, 0, 1,
	1, -1, 1, 1,
	-1, 1, 0, 0,
	1, 1, 1, 0,
}

// TextOverlay is a screen-sized RGBA texture that text is drawn into. A
// premultiplied-alpha copy of the texture is kept in memory; each string
// that is added is drawn there and then only the rectangle it touched is
// uploaded.
type TextOverlay struct {
	ctx           *Context
	width, height int
	font          Rasterizer
	color         color.Color

	img *image.RGBA
	tex *Texture2D

	program    ProgramID
	quad       *BufferSet
	locTexture int32
	destroyed  bool
}

// NewTextOverlay returns an overlay of the given size that draws text
// with font in opaque white.
func NewTextOverlay(ctx *Context, width, height int, font Rasterizer) (*TextOverlay, error) {
	p, err := ctx.CompileProgram("text overlay", overlayVertexShader, overlayFragmentShader)
	if err != nil {
		return nil, err
	}
	quad, err := NewBufferSetFromData(ctx, overlayQuad, quadAttributes, []uint32{0, 1, 2, 3})
	if err != nil {
		ctx.ReleaseProgram(p)
		return nil, err
	}

	t := &TextOverlay{
		ctx:        ctx,
		font:       font,
		color:      color.White,
		program:    p,
		quad:       quad,
		locTexture: ctx.UniformLocation(p, "drawTexture"),
	}
	if err := t.Resize(width, height); err != nil {
		t.Destroy()
		return nil, err
	}
	return t, nil
}

func (t *TextOverlay) Width() int  { return t.width }
func (t *TextOverlay) Height() int { return t.height }

// SetColor sets the color used by subsequent calls to AddString.
func (t *TextOverlay) SetColor(c color.Color) {
	t.color = c
}

// SetFont sets the font used by subsequent calls to AddString.
func (t *TextOverlay) SetFont(f Rasterizer) {
	t.font = f
}

// Resize reallocates the overlay at the new size if it has changed; the
// contents are cleared when that happens.
func (t *TextOverlay) Resize(width, height int) error {
	if t.destroyed {
		return ErrDestroyed
	}
	if width == t.width && height == t.height && t.tex != nil {
		return nil
	}
	if width < 1 || height < 1 {
		return fmt.Errorf("invalid text overlay size %dx%d", width, height)
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	tex, err := NewTexture2D(t.ctx, width, height, pixel.RGBA8, img.Pix)
	if err != nil {
		return err
	}
	if t.tex != nil {
		t.tex.Destroy()
	}
	t.tex, t.img = tex, img
	t.width, t.height = width, height
	return nil
}

// Clear erases all of the text, both in memory and on the GPU.
func (t *TextOverlay) Clear() error {
	if t.destroyed {
		return ErrDestroyed
	}
	clear(t.img.Pix)
	return t.tex.SetBuffer(pixel.RGBA8, t.img.Pix, 0)
}

// AddString draws text with its baseline starting at (x, y), measured in
// pixels from the upper left of the overlay. The affected rectangle is
// clipped to the overlay; text that is entirely outside it is ignored.
func (t *TextOverlay) AddString(x, y int, text string) error {
	if t.destroyed {
		return ErrDestroyed
	}
	if text == "" || t.font == nil {
		return nil
	}

	r := t.font.DrawString(t.img, x, y, text, t.color).Intersect(t.img.Bounds())
	if r.Empty() {
		return nil
	}

	rowBytes := 4 * r.Dx()
	data := make([]byte, 0, rowBytes*r.Dy())
	for py := r.Min.Y; py < r.Max.Y; py++ {
		offset := t.img.PixOffset(r.Min.X, py)
		data = append(data, t.img.Pix[offset:offset+rowBytes]...)
	}
	return t.tex.SetSubImage(pixel.RGBA8, r.Min.X, r.Min.Y, r.Dx(), r.Dy(), data)
}

// Draw composites the overlay over the entire viewport. Pixels where no
// text was drawn are fully transparent. The program, texture unit 0
// binding, blending state, depth test state, and viewport are restored
// afterward.
func (t *TextOverlay) Draw() {
	if t.destroyed {
		t.ctx.lg.Warn("Draw called on destroyed TextOverlay")
		return
	}

	vp := t.ctx.CurrentViewport()
	t.ctx.Viewport(0, 0, int32(t.width), int32(t.height))
	defer t.ctx.Viewport(vp[0], vp[1], vp[2], vp[3])
	defer UseProgram(t.ctx, t.program)()
	defer BindTextureUnit(t.ctx, 0, TargetTexture2D, t.tex.ID())()
	defer SetCapability(t.ctx, Blend, true)()
	defer SetCapability(t.ctx, DepthTest, false)()
	// The pixels are premultiplied.
	defer SetBlendFunc(t.ctx, One, OneMinusSrcAlpha)()

	t.ctx.Uniform1i(t.locTexture, 0)
	t.quad.Draw(TriangleStrip, t.program)
}

// Image returns the in-memory copy of the overlay. It must not be
// modified.
func (t *TextOverlay) Image() *image.RGBA {
	return t.img
}

func (t *TextOverlay) Texture() *Texture2D {
	return t.tex
}

// Destroy releases the overlay's GPU resources; it is safe to call more
// than once.
func (t *TextOverlay) Destroy() {
	if t.destroyed {
		return
	}
	if t.tex != nil {
		t.tex.Destroy()
	}
	t.quad.Destroy()
	t.ctx.ReleaseProgram(t.program)
	t.destroyed = true
}
