// font/font.go
// Copyright(c) 2022-2026 modelview contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package font rasterizes text into RGBA images.
package font

import (
	"fmt"
	"image"
	"image/color"

	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// DefaultSize is the size in points of the font used for on-screen text.
const DefaultSize = 12

// Face is a font at a particular size.
type Face struct {
	face xfont.Face
	name string
	size float64
}

// NewGoRegular returns the Go Regular font at the given size.
func NewGoRegular(size float64) (*Face, error) {
	return load("Go Regular", goregular.TTF, size)
}

// Load returns a face for the given TrueType or OpenType font data.
func Load(ttf []byte, size float64) (*Face, error) {
	return load("", ttf, size)
}

func load(name string, ttf []byte, size float64) (*Face, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%g: invalid font size", size)
	}
	f, err := opentype.Parse(ttf)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}
	if name == "" {
		if n, err := f.Name(nil, sfnt.NameIDFull); err == nil {
			name = n
		}
	}

	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: xfont.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return &Face{face: face, name: name, size: size}, nil
}

// DrawString draws text into dst with the left end of its baseline at
// (x, y) using the color c, composited over what is already there. It
// returns the bounds of the pixels that the text may have touched; the
// rectangle is not clipped to dst.
func (f *Face) DrawString(dst *image.RGBA, x, y int, text string, c color.Color) image.Rectangle {
	d := &xfont.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: f.face,
		Dot:  fixed.P(x, y),
	}
	b, _ := d.BoundString(text)
	d.DrawString(text)
	return image.Rect(b.Min.X.Floor(), b.Min.Y.Floor(), b.Max.X.Ceil(), b.Max.Y.Ceil())
}

// Measure returns the horizontal advance of text and the height of a
// line, both in pixels.
func (f *Face) Measure(text string) (width, height int) {
	return xfont.MeasureString(f.face, text).Ceil(), f.face.Metrics().Height.Ceil()
}

// Ascent returns the distance from the baseline to the top of a line.
func (f *Face) Ascent() int {
	return f.face.Metrics().Ascent.Ceil()
}

func (f *Face) Size() float64 { return f.size }

func (f *Face) String() string {
	return fmt.Sprintf("%s %gpt", f.name, f.size)
}

func (f *Face) Close() error {
	return f.face.Close()
}
