// scene/images_test.go
// Copyright(c) 2022-2026 modelview contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package scene

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mmp/modelview/renderer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func writePNG(t *testing.T, path string, w, h int, c color.Color) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, encodePNG(t, w, h, c), 0o644))
}

func TestImageDecode(t *testing.T) {
	l := NewImageLoader(1024, 4, time.Minute, nil)

	img, err := l.Decode(encodePNG(t, 8, 4, color.NRGBA{R: 255, A: 255}))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 8, 4), img.Bounds())
	r, g, b, a := img.At(3, 2).RGBA()
	assert.Equal(t, []uint32{0xffff, 0, 0, 0xffff}, []uint32{r, g, b, a})

	_, err = l.Decode([]byte("v 0 0 0\nf 1 2 3\n"))
	assert.ErrorIs(t, err, ErrNotImage)

	// Something that claims to be a PNG but isn't.
	bad := encodePNG(t, 8, 8, color.White)[:40]
	_, err = l.Decode(bad)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotImage)
}

func TestImageLimitSize(t *testing.T) {
	l := NewImageLoader(64, 4, time.Minute, nil)

	img, err := l.Decode(encodePNG(t, 256, 128, color.White))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 64, 32), img.Bounds())

	img, err = l.Decode(encodePNG(t, 10, 200, color.White))
	require.NoError(t, err)
	assert.Equal(t, 64, img.Bounds().Dy())
	assert.Equal(t, 3, img.Bounds().Dx())

	// Small images are returned as is.
	img, err = l.Decode(encodePNG(t, 64, 64, color.White))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 64, 64), img.Bounds())
}

func TestImageCache(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.png")
	writePNG(t, path, 4, 4, color.White)

	l := NewImageLoader(1024, 2, time.Minute, nil)
	a, err := l.DecodeImage(path)
	require.NoError(t, err)
	assert.Equal(t, 1, l.CachedCount())

	// Cached images are returned even after the file changes.
	writePNG(t, path, 8, 8, color.Black)
	b, err := l.DecodeImage(path)
	require.NoError(t, err)
	assert.Same(t, a, b)

	l.Purge()
	assert.Zero(t, l.CachedCount())
	c, err := l.DecodeImage(path)
	require.NoError(t, err)
	assert.Equal(t, 8, c.Bounds().Dx())

	_, err = l.DecodeImage(filepath.Join(dir, "missing.png"))
	assert.Error(t, err)
}

func TestLoadCubeFaces(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "sky_.png")
	names := renderer.CubeFaceNames(base, renderer.SuffixesPosNeg)
	for i, n := range names {
		writePNG(t, n, 16, 16, color.NRGBA{R: uint8(i * 40), A: 255})
	}

	l := NewImageLoader(1024, 8, time.Minute, nil)
	faces, err := l.LoadCubeFaces(names)
	require.NoError(t, err)
	for i, f := range faces {
		require.NotNil(t, f)
		r, _, _, _ := f.At(0, 0).RGBA()
		assert.Equal(t, uint32(i*40)*0x101, r, "face %d", i)
	}

	// The cube map can be created from the decoded faces.
	ctx, _ := newTestContext(t)
	cube, err := renderer.NewTextureCubeFromFile(ctx, base, renderer.SuffixesPosNeg, l)
	require.NoError(t, err)
	w, h, err := cube.FaceSize(5)
	require.NoError(t, err)
	assert.Equal(t, [2]int{16, 16}, [2]int{w, h})

	require.NoError(t, os.Remove(names[3]))
	l.Purge()
	_, err = l.LoadCubeFaces(names)
	assert.ErrorContains(t, err, "negy")
}

func TestGeneratedImages(t *testing.T) {
	a, b := color.NRGBA{R: 255, A: 255}, color.NRGBA{B: 255, A: 255}
	cb := Checkerboard(64, 4, a, b)
	assert.Equal(t, a, cb.NRGBAAt(0, 0))
	assert.Equal(t, b, cb.NRGBAAt(16, 0))
	assert.Equal(t, b, cb.NRGBAAt(0, 16))
	assert.Equal(t, a, cb.NRGBAAt(16, 16))
	assert.Equal(t, a, cb.NRGBAAt(63, 63))

	horizon, zenith := color.NRGBA{R: 200, G: 200, B: 200, A: 255}, color.NRGBA{B: 100, A: 255}
	faces := GradientSky(32, horizon, zenith)
	for _, f := range faces {
		assert.Equal(t, image.Rect(0, 0, 32, 32), f.Bounds())
	}
	// The sides fade from the zenith color at the top to the horizon
	// color at the middle and below.
	assert.Equal(t, zenith, color.NRGBAModel.Convert(faces[0].At(5, 0)))
	assert.Equal(t, horizon, color.NRGBAModel.Convert(faces[0].At(5, 16)))
	assert.Equal(t, horizon, color.NRGBAModel.Convert(faces[0].At(5, 31)))
	assert.Equal(t, zenith, color.NRGBAModel.Convert(faces[2].At(7, 7)))
	assert.Equal(t, horizon, color.NRGBAModel.Convert(faces[3].At(7, 7)))
}
