// renderer/texture.go
// Copyright(c) 2022-2026 modelview contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package renderer

import (
	"fmt"
	"image"

	"github.com/mmp/modelview/pixel"
)

// ImageDecoder provides decoded images for the file-based texture
// constructors.
type ImageDecoder interface {
	DecodeImage(path string) (image.Image, error)
}

// texture holds the state that is common to all texture types.
type texture struct {
	ctx    *Context
	id     TextureID
	target TextureTarget
	format pixel.Format
	levels map[int]bool // levels with allocated storage
	// All levels have storage once mipmaps have been generated.
	generatedMips bool
	destroyed     bool
}

func newTexture(ctx *Context, target TextureTarget, f pixel.Format) texture {
	t := texture{
		ctx:    ctx,
		id:     ctx.CreateTexture(),
		target: target,
		format: f,
		levels: map[int]bool{0: true},
	}
	ctx.BindTexture(target, t.id)
	t.setDefaultParameters()
	return t
}

func (t *texture) setDefaultParameters() {
	t.ctx.TexParameter(t.target, TexWrapS, ClampToEdge)
	t.ctx.TexParameter(t.target, TexWrapT, ClampToEdge)
	if t.target != TargetTexture2D {
		t.ctx.TexParameter(t.target, TexWrapR, ClampToEdge)
	}
	t.ctx.TexParameter(t.target, TexMinFilter, Linear)
	t.ctx.TexParameter(t.target, TexMagFilter, Linear)
}

// ID returns the device's identifier for the texture.
func (t *texture) ID() TextureID {
	return t.id
}

// Format returns the texture's internal format.
func (t *texture) Format() pixel.Format {
	return t.format
}

func (t *texture) Target() TextureTarget {
	return t.target
}

// BindTo binds the texture on the active texture unit.
func (t *texture) BindTo() {
	if t.destroyed {
		t.ctx.lg.Warnf("texture %d: bind after Destroy", t.id)
		return
	}
	t.ctx.BindTexture(t.target, t.id)
}

// Bind makes slot the active texture unit, binds the texture there, and
// sets the named sampler uniform of program p to use that unit. p must
// be the current program. The active unit and its binding are left
// changed; use BindTextureUnit for a binding that can be undone.
func (t *texture) Bind(p ProgramID, uniform string, slot int) {
	t.ctx.ActiveTexture(slot)
	t.BindTo()
	t.ctx.Uniform1i(t.ctx.UniformLocation(p, uniform), int32(slot))
}

// GenerateMipmaps computes all of the mip levels from level 0 and
// switches to trilinear minification.
func (t *texture) GenerateMipmaps() {
	if t.destroyed {
		return
	}
	defer BindTexture(t.ctx, t.target, t.id)()
	t.ctx.GenerateMipmap(t.target)
	t.ctx.TexParameter(t.target, TexMinFilter, LinearMipmapLinear)
	t.generatedMips = true
}

func (t *texture) Destroyed() bool {
	return t.destroyed
}

// Destroy releases the texture; it is safe to call more than once.
func (t *texture) Destroy() {
	if t.destroyed {
		return
	}
	t.ctx.deleteTexture(t.id)
	t.destroyed = true
}

func (t *texture) levelAllocated(level int) bool {
	return t.levels[level] || (t.generatedMips && level >= 0)
}

// checkLevel validates a full-level transfer of n bytes in format f to or
// from a level of the given size.
func checkLevel(f pixel.Format, n, width, height, depth, level int) error {
	if !f.Valid() {
		return fmt.Errorf("%+v: %w", f, pixel.ErrUnsupportedComponents)
	}
	if level < 0 {
		return fmt.Errorf("invalid mip level %d", level)
	}
	if want := width * height * depth * f.BytesPerTexel(); n != want {
		return fmt.Errorf("level %d is %dx%dx%d %s and needs %d bytes, got %d: %w",
			level, width, height, depth, f, want, n, ErrBufferSize)
	}
	return nil
}

// Texture2D is a two-dimensional texture.
type Texture2D struct {
	texture
	width, height int
}

// NewTexture2D creates a texture with the given size and internal
// format. If data is non-nil, it gives the initial contents of level 0,
// in the same format.
func NewTexture2D(ctx *Context, width, height int, f pixel.Format, data []byte) (*Texture2D, error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("invalid texture size %dx%d", width, height)
	}
	if data != nil {
		if err := checkLevel(f, len(data), width, height, 1, 0); err != nil {
			return nil, err
		}
	} else if !f.Valid() {
		return nil, fmt.Errorf("%+v: %w", f, pixel.ErrUnsupportedComponents)
	}

	restore := BindTexture(ctx, TargetTexture2D, 0)
	defer restore()

	t := &Texture2D{
		texture: newTexture(ctx, TargetTexture2D, f),
		width:   width,
		height:  height,
	}
	ctx.TexImage(TargetTexture2D, 0, f, width, height, 1, f, data)
	ctx.createdTexture(t.id, width*height*f.BytesPerTexel())
	return t, nil
}

// NewTexture2DFromImage creates a texture with the size, format, and
// contents of the given image.
func NewTexture2DFromImage[T pixel.Element](ctx *Context, im *pixel.Image[T]) (*Texture2D, error) {
	return NewTexture2D(ctx, im.Width, im.Height, im.Format, im.Bytes())
}

// NewTexture2DFromGoImage creates an RGBA8 texture from img; the top row
// of the image is row 0 of the texture.
func NewTexture2DFromGoImage(ctx *Context, img image.Image) (*Texture2D, error) {
	return NewTexture2DFromImage(ctx, pixel.FromImage(img))
}

// NewTexture2DFromFile creates an RGBA8 texture from the image file at
// path.
func NewTexture2DFromFile(ctx *Context, path string, dec ImageDecoder) (*Texture2D, error) {
	img, err := dec.DecodeImage(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	t, err := NewTexture2DFromGoImage(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	ctx.lg.Infof("%s: created %dx%d texture", path, t.width, t.height)
	return t, nil
}

func (t *Texture2D) Width() int  { return t.width }
func (t *Texture2D) Height() int { return t.height }

// LevelSize returns the size of the given mip level.
func (t *Texture2D) LevelSize(level int) (int, int) {
	w, h, _ := pixel.MipSize(t.width, t.height, 1, level)
	return w, h
}

// SetBuffer replaces the contents of the given mip level with data in
// format f, which must hold exactly the level's texels.
func (t *Texture2D) SetBuffer(f pixel.Format, data []byte, level int) error {
	if t.destroyed {
		return ErrDestroyed
	}
	w, h := t.LevelSize(level)
	if err := checkLevel(f, len(data), w, h, 1, level); err != nil {
		return err
	}

	defer BindTexture(t.ctx, t.target, t.id)()
	if t.levelAllocated(level) {
		t.ctx.TexSubImage(t.target, level, 0, 0, 0, w, h, 1, f, data)
	} else {
		t.ctx.TexImage(t.target, level, t.format, w, h, 1, f, data)
		t.levels[level] = true
	}
	return nil
}

// Buffer reads back the given mip level in format f.
func (t *Texture2D) Buffer(f pixel.Format, level int) ([]byte, error) {
	if t.destroyed {
		return nil, ErrDestroyed
	}
	if !t.levelAllocated(level) {
		return nil, fmt.Errorf("texture %d: level %d has no storage", t.id, level)
	}
	if t.format.Depth {
		// Depth values can only be read as depth.
		if f.Components != 1 {
			return nil, fmt.Errorf("%s: depth textures have a single component: %w", f, pixel.ErrUnsupportedComponents)
		}
		f.Depth = true
	}
	w, h := t.LevelSize(level)
	data := make([]byte, w*h*f.BytesPerTexel())
	if err := checkLevel(f, len(data), w, h, 1, level); err != nil {
		return nil, err
	}

	defer BindTexture(t.ctx, t.target, t.id)()
	t.ctx.GetTexImage(t.target, level, f, data)
	return data, nil
}

// SetSubImage updates the rectangle with upper-left corner (x, y) and
// the given size at level 0; the rectangle must lie inside the texture.
func (t *Texture2D) SetSubImage(f pixel.Format, x, y, width, height int, data []byte) error {
	if t.destroyed {
		return ErrDestroyed
	}
	if x < 0 || y < 0 || width < 0 || height < 0 || x+width > t.width || y+height > t.height {
		return fmt.Errorf("rectangle (%d,%d)+(%d,%d) is outside %dx%d texture", x, y, width, height,
			t.width, t.height)
	}
	if width == 0 || height == 0 {
		return nil
	}
	if err := checkLevel(f, len(data), width, height, 1, 0); err != nil {
		return err
	}

	defer BindTexture(t.ctx, t.target, t.id)()
	t.ctx.TexSubImage(t.target, 0, x, y, 0, width, height, 1, f, data)
	return nil
}

// SetImage2D uploads im to the given level of t; im must match the
// level's size.
func SetImage2D[T pixel.Element](t *Texture2D, im *pixel.Image[T], level int) error {
	return t.SetBuffer(im.Format, im.Bytes(), level)
}

// Image2D reads back the given level of t as an image with the given
// number of components.
func Image2D[T pixel.Element](t *Texture2D, components, level int) (*pixel.Image[T], error) {
	f, err := pixel.NewFormat(components, pixel.StorageOf[T]())
	if err != nil {
		return nil, err
	}
	b, err := t.Buffer(f, level)
	if err != nil {
		return nil, err
	}
	w, h := t.LevelSize(level)
	return pixel.FromData(w, h, 1, components, pixel.FromBytes[T](b))
}

// ToImage returns level 0 of the texture as an 8-bit RGBA image.
func (t *Texture2D) ToImage() (*image.NRGBA, error) {
	im, err := Image2D[uint8](t, 4, 0)
	if err != nil {
		return nil, err
	}
	return pixel.ToNRGBA(im), nil
}

// UploadImage replaces level 0 with the contents of img, which must be
// the same size as the texture.
func (t *Texture2D) UploadImage(img image.Image) error {
	return SetImage2D(t, pixel.FromImage(img), 0)
}

func (t *Texture2D) String() string {
	return fmt.Sprintf("Texture2D: ID: %d, [%dx%d %s]", t.id, t.width, t.height, t.format)
}
