// renderer/volume.go
// Copyright(c) 2022-2026 modelview contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package renderer

import (
	"fmt"

	"github.com/mmp/modelview/pixel"
)

// TextureVolume is a three-dimensional texture.
type TextureVolume struct {
	texture
	width, height, depth int
}

// NewTextureVolume creates a 3D texture with the given size and format;
// data, if non-nil, gives the initial contents in the same format.
func NewTextureVolume(ctx *Context, width, height, depth int, f pixel.Format, data []byte) (*TextureVolume, error) {
	if width < 1 || height < 1 || depth < 1 {
		return nil, fmt.Errorf("invalid volume size %dx%dx%d", width, height, depth)
	}
	if data != nil {
		if err := checkLevel(f, len(data), width, height, depth, 0); err != nil {
			return nil, err
		}
	} else if !f.Valid() {
		return nil, fmt.Errorf("%+v: %w", f, pixel.ErrUnsupportedComponents)
	}

	defer BindTexture(ctx, TargetTexture3D, 0)()
	t := &TextureVolume{
		texture: newTexture(ctx, TargetTexture3D, f),
		width:   width,
		height:  height,
		depth:   depth,
	}
	ctx.TexImage(TargetTexture3D, 0, f, width, height, depth, f, data)
	ctx.createdTexture(t.id, width*height*depth*f.BytesPerTexel())
	return t, nil
}

// NewTextureVolumeFromImage creates a 3D texture with the size, format
// and contents of im.
func NewTextureVolumeFromImage[T pixel.Element](ctx *Context, im *pixel.Image[T]) (*TextureVolume, error) {
	return NewTextureVolume(ctx, im.Width, im.Height, im.Depth, im.Format, im.Bytes())
}

func (t *TextureVolume) Width() int  { return t.width }
func (t *TextureVolume) Height() int { return t.height }
func (t *TextureVolume) Depth() int  { return t.depth }

// LevelSize returns the size of the given mip level.
func (t *TextureVolume) LevelSize(level int) (int, int, int) {
	return pixel.MipSize(t.width, t.height, t.depth, level)
}

// SetBuffer replaces the given mip level with data in format f.
func (t *TextureVolume) SetBuffer(f pixel.Format, data []byte, level int) error {
	if t.destroyed {
		return ErrDestroyed
	}
	w, h, d := t.LevelSize(level)
	if err := checkLevel(f, len(data), w, h, d, level); err != nil {
		return err
	}

	defer BindTexture(t.ctx, t.target, t.id)()
	if t.levelAllocated(level) {
		t.ctx.TexSubImage(t.target, level, 0, 0, 0, w, h, d, f, data)
	} else {
		t.ctx.TexImage(t.target, level, t.format, w, h, d, f, data)
		t.levels[level] = true
	}
	return nil
}

// Buffer reads back the given mip level in format f.
func (t *TextureVolume) Buffer(f pixel.Format, level int) ([]byte, error) {
	if t.destroyed {
		return nil, ErrDestroyed
	}
	if !t.levelAllocated(level) {
		return nil, fmt.Errorf("texture %d: level %d has no storage", t.id, level)
	}
	if !f.Valid() {
		return nil, fmt.Errorf("%+v: %w", f, pixel.ErrUnsupportedComponents)
	}
	w, h, d := t.LevelSize(level)
	data := make([]byte, w*h*d*f.BytesPerTexel())

	defer BindTexture(t.ctx, t.target, t.id)()
	t.ctx.GetTexImage(t.target, level, f, data)
	return data, nil
}

// SetVolumeImage uploads im to the given level of t.
func SetVolumeImage[T pixel.Element](t *TextureVolume, im *pixel.Image[T], level int) error {
	return t.SetBuffer(im.Format, im.Bytes(), level)
}

// VolumeImage reads back the given level of t as an image with the given
// number of components.
func VolumeImage[T pixel.Element](t *TextureVolume, components, level int) (*pixel.Image[T], error) {
	f, err := pixel.NewFormat(components, pixel.StorageOf[T]())
	if err != nil {
		return nil, err
	}
	b, err := t.Buffer(f, level)
	if err != nil {
		return nil, err
	}
	w, h, d := t.LevelSize(level)
	return pixel.FromData(w, h, d, components, pixel.FromBytes[T](b))
}

func (t *TextureVolume) String() string {
	return fmt.Sprintf("TextureVolume: ID: %d, [%dx%dx%d %s]", t.id, t.width, t.height, t.depth, t.format)
}
