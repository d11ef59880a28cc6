// renderer/cube.go
// Copyright(c) 2022-2026 modelview contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package renderer

import (
	"fmt"
	"image"
	"strings"

	"github.com/mmp/modelview/pixel"
)

// File name suffixes for the six faces of a cube map, in the order +X,
// -X, +Y, -Y, +Z, -Z. The FlipY variants swap the Y faces for image sets
// authored with +Y down.
var (
	SuffixesPosNeg                = [6]string{"posx", "negx", "posy", "negy", "posz", "negz"}
	SuffixesPosNegFlipY           = [6]string{"posx", "negx", "negy", "posy", "posz", "negz"}
	SuffixesPositiveNegative      = [6]string{"positive_x", "negative_x", "positive_y", "negative_y", "positive_z", "negative_z"}
	SuffixesPositiveNegativeFlipY = [6]string{"positive_x", "negative_x", "negative_y", "positive_y", "positive_z", "negative_z"}
	SuffixesRightLeft             = [6]string{"right", "left", "top", "bottom", "front", "back"}
)

// CubeSuffixes maps the names accepted on the command line to suffix
// sets.
var CubeSuffixes = map[string][6]string{
	"posneg":                 SuffixesPosNeg,
	"posneg-flipy":           SuffixesPosNegFlipY,
	"positivenegative":       SuffixesPositiveNegative,
	"positivenegative-flipy": SuffixesPositiveNegativeFlipY,
	"rightleft":              SuffixesRightLeft,
}

// CubeFaceNames returns the six file names for the cube map named by
// fileName: the suffixes are inserted before fileName's extension, so
// "sky/.jpg" with SuffixesPosNeg gives "sky/posx.jpg" and so forth.
func CubeFaceNames(fileName string, suffixes [6]string) [6]string {
	base, ext := fileName, ""
	if i := strings.LastIndexByte(fileName, '.'); i >= 0 {
		base, ext = fileName[:i], fileName[i+1:]
	}
	var names [6]string
	for i, s := range suffixes {
		names[i] = base + s + "." + ext
	}
	return names
}

// TextureCube is a cube map texture. Each of its faces has its own size,
// though the device will only sample from the map if all of them are
// square and equal.
type TextureCube struct {
	texture
	sizes [6][2]int
}

func newTextureCube(ctx *Context, f pixel.Format) *TextureCube {
	return &TextureCube{texture: newTexture(ctx, TargetTextureCube, f)}
}

func (t *TextureCube) allocateFace(i, width, height int, f pixel.Format, data []byte) {
	t.sizes[i] = [2]int{width, height}
	t.ctx.TexImage(CubeFace(i), 0, t.format, width, height, 1, f, data)
}

func (t *TextureCube) recordMemory() {
	n := 0
	for _, s := range t.sizes {
		n += s[0] * s[1] * t.format.BytesPerTexel()
	}
	t.ctx.createdTexture(t.id, n)
}

// NewTextureCube creates a cube map whose faces are all size x size and
// have uninitialized contents.
func NewTextureCube(ctx *Context, size int, f pixel.Format) (*TextureCube, error) {
	if size < 1 {
		return nil, fmt.Errorf("invalid cube map size %d", size)
	}
	if !f.Valid() {
		return nil, fmt.Errorf("%+v: %w", f, pixel.ErrUnsupportedComponents)
	}

	defer BindTexture(ctx, TargetTextureCube, 0)()
	t := newTextureCube(ctx, f)
	for i := range 6 {
		t.allocateFace(i, size, size, f, nil)
	}
	t.recordMemory()
	return t, nil
}

// NewTextureCubeFromImages creates a cube map from six images given in
// the order +X, -X, +Y, -Y, +Z, -Z. The images must all have the same
// format; the first one's is used for the texture.
func NewTextureCubeFromImages[T pixel.Element](ctx *Context, faces [6]*pixel.Image[T]) (*TextureCube, error) {
	for i, im := range faces {
		if im == nil {
			return nil, fmt.Errorf("cube face %d: missing image", i)
		}
		if im.Format != faces[0].Format {
			return nil, fmt.Errorf("cube face %d: format %s differs from %s", i, im.Format, faces[0].Format)
		}
	}

	defer BindTexture(ctx, TargetTextureCube, 0)()
	t := newTextureCube(ctx, faces[0].Format)
	for i, im := range faces {
		t.allocateFace(i, im.Width, im.Height, im.Format, im.Bytes())
	}
	t.recordMemory()
	return t, nil
}

// NewTextureCubeFromGoImages creates an RGBA8 cube map from six images.
func NewTextureCubeFromGoImages(ctx *Context, faces [6]image.Image) (*TextureCube, error) {
	var ims [6]*pixel.Image[uint8]
	for i, img := range faces {
		if img == nil {
			return nil, fmt.Errorf("cube face %d: missing image", i)
		}
		ims[i] = pixel.FromImage(img)
	}
	return NewTextureCubeFromImages(ctx, ims)
}

// NewTextureCubeFromFiles creates an RGBA8 cube map from six image files.
func NewTextureCubeFromFiles(ctx *Context, fileNames [6]string, dec ImageDecoder) (*TextureCube, error) {
	var faces [6]image.Image
	for i, fn := range fileNames {
		img, err := dec.DecodeImage(fn)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", fn, err)
		}
		b := img.Bounds()
		ctx.lg.Infof("Read texture file %s [%dx%d]", fn, b.Dx(), b.Dy())
		faces[i] = img
	}
	return NewTextureCubeFromGoImages(ctx, faces)
}

// NewTextureCubeFromFile creates a cube map from the six files whose
// names are given by CubeFaceNames(fileName, suffixes).
func NewTextureCubeFromFile(ctx *Context, fileName string, suffixes [6]string, dec ImageDecoder) (*TextureCube, error) {
	return NewTextureCubeFromFiles(ctx, CubeFaceNames(fileName, suffixes), dec)
}

// FaceSize returns the size of the given face.
func (t *TextureCube) FaceSize(face int) (int, int, error) {
	if face < 0 || face >= 6 {
		return 0, 0, fmt.Errorf("%d: %w", face, ErrFaceIndex)
	}
	return t.sizes[face][0], t.sizes[face][1], nil
}

// SetFaceBuffer replaces the contents of one face with data in format f.
func (t *TextureCube) SetFaceBuffer(f pixel.Format, data []byte, face int) error {
	if t.destroyed {
		return ErrDestroyed
	}
	w, h, err := t.FaceSize(face)
	if err != nil {
		return err
	}
	if err := checkLevel(f, len(data), w, h, 1, 0); err != nil {
		return fmt.Errorf("cube face %d: %w", face, err)
	}

	defer BindTexture(t.ctx, TargetTextureCube, t.id)()
	t.ctx.TexSubImage(CubeFace(face), 0, 0, 0, 0, w, h, 1, f, data)
	return nil
}

// FaceBuffer reads back one face in format f.
func (t *TextureCube) FaceBuffer(f pixel.Format, face int) ([]byte, error) {
	if t.destroyed {
		return nil, ErrDestroyed
	}
	w, h, err := t.FaceSize(face)
	if err != nil {
		return nil, err
	}
	if !f.Valid() {
		return nil, fmt.Errorf("%+v: %w", f, pixel.ErrUnsupportedComponents)
	}

	data := make([]byte, w*h*f.BytesPerTexel())
	defer BindTexture(t.ctx, TargetTextureCube, t.id)()
	t.ctx.GetTexImage(CubeFace(face), 0, f, data)
	return data, nil
}

// SetFaceImage uploads im to the given face, which must be the same size.
func SetFaceImage[T pixel.Element](t *TextureCube, im *pixel.Image[T], face int) error {
	return t.SetFaceBuffer(im.Format, im.Bytes(), face)
}

// FaceImage reads back the given face as an image with the given number
// of components.
func FaceImage[T pixel.Element](t *TextureCube, components, face int) (*pixel.Image[T], error) {
	f, err := pixel.NewFormat(components, pixel.StorageOf[T]())
	if err != nil {
		return nil, err
	}
	b, err := t.FaceBuffer(f, face)
	if err != nil {
		return nil, err
	}
	return pixel.FromData(t.sizes[face][0], t.sizes[face][1], 1, components, pixel.FromBytes[T](b))
}

// String reports the face size once when all six faces match and each
// face's size otherwise.
func (t *TextureCube) String() string {
	var dims []string
	for _, s := range t.sizes {
		dims = append(dims, fmt.Sprintf("%dx%d", s[0], s[1]))
	}
	if t.sizes == [6][2]int{t.sizes[0], t.sizes[0], t.sizes[0], t.sizes[0], t.sizes[0], t.sizes[0]} {
		dims = dims[:1]
	}
	return fmt.Sprintf("TextureCube: ID: %d, [%s %s]", t.id, strings.Join(dims, ","), t.format)
}
