// font/font_test.go
// Copyright(c) 2022-2026 modelview contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package font

import (
	"image"
	"image/color"
	"testing"

	"golang.org/x/image/font/gofont/gomono"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDrawStringBounds(t *testing.T) {
	f, err := NewGoRegular(DefaultSize)
	require.NoError(t, err)
	defer f.Close()

	dst := image.NewRGBA(image.Rect(0, 0, 200, 40))
	r := f.DrawString(dst, 3, 20, "Hello", color.White)
	require.False(t, r.Empty())
	assert.LessOrEqual(t, r.Max.Y, 20+f.Ascent())
	assert.Less(t, r.Min.Y, 20)

	touched := 0
	for y := range 40 {
		for x := range 200 {
			if dst.RGBAAt(x, y).A != 0 {
				touched++
				require.True(t, (image.Point{x, y}).In(r), "(%d,%d) outside %v", x, y, r)
			}
		}
	}
	assert.Positive(t, touched)
}

func TestDrawStringPremultiplied(t *testing.T) {
	f, err := NewGoRegular(24)
	require.NoError(t, err)

	dst := image.NewRGBA(image.Rect(0, 0, 100, 40))
	f.DrawString(dst, 2, 30, "W", color.RGBA{R: 255, A: 255})
	for i := 0; i < len(dst.Pix); i += 4 {
		p := dst.Pix[i : i+4]
		require.Zero(t, p[1])
		require.Zero(t, p[2])
		require.LessOrEqual(t, p[0], p[3])
	}
}

func TestDrawStringClipped(t *testing.T) {
	f, err := NewGoRegular(DefaultSize)
	require.NoError(t, err)

	dst := image.NewRGBA(image.Rect(0, 0, 20, 10))
	r := f.DrawString(dst, 10, 5, "Clipped text", color.White)
	// The returned bounds aren't clipped to the image.
	assert.Greater(t, r.Max.X, 20)
	assert.Less(t, r.Min.Y, 0)
}

func TestMeasure(t *testing.T) {
	f, err := NewGoRegular(DefaultSize)
	require.NoError(t, err)

	w, h := f.Measure("")
	assert.Zero(t, w)
	assert.Positive(t, h)

	w1, _ := f.Measure("Hello")
	w2, _ := f.Measure("Hello, world")
	assert.Positive(t, w1)
	assert.Greater(t, w2, w1)

	big, err := NewGoRegular(2 * DefaultSize)
	require.NoError(t, err)
	wb, hb := big.Measure("Hello")
	assert.Greater(t, wb, w1)
	assert.Greater(t, hb, h)
}

func TestLoad(t *testing.T) {
	f, err := Load(gomono.TTF, 10)
	require.NoError(t, err)
	assert.Contains(t, f.String(), "Mono")
	assert.Equal(t, 10.0, f.Size())

	// Monospaced
	wi, _ := f.Measure("iiii")
	wm, _ := f.Measure("mmmm")
	assert.Equal(t, wi, wm)

	_, err = Load([]byte("not a font"), 10)
	assert.Error(t, err)
	_, err = NewGoRegular(0)
	assert.Error(t, err)
}
