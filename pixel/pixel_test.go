// pixel/pixel_test.go
// Copyright(c) 2022-2026 modelview contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package pixel

import (
	"image"
	"image/color"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatTags(t *testing.T) {
	for _, c := range []struct {
		components         int
		storage            Storage
		internal, transfer uint32
		ty                 uint32
		bytes              int
	}{
		{1, Byte, glR8, glRed, glUnsignedByte, 1},
		{2, Byte, glRG8, glRG, glUnsignedByte, 2},
		{3, Byte, glRGB8, glRGB, glUnsignedByte, 3},
		{4, Byte, glRGBA8, glRGBA, glUnsignedByte, 4},
		{1, Float, glR32F, glRed, glFloat, 4},
		{4, Float, glRGBA32F, glRGBA, glFloat, 16},
	} {
		f, err := NewFormat(c.components, c.storage)
		require.NoError(t, err)
		assert.Equal(t, c.internal, f.InternalFormat(), "%s", f)
		assert.Equal(t, c.transfer, f.TransferFormat(), "%s", f)
		assert.Equal(t, c.ty, f.TransferType(), "%s", f)
		assert.Equal(t, c.bytes, f.BytesPerTexel(), "%s", f)
	}

	d := DepthFormat()
	assert.True(t, d.Valid())
	assert.Equal(t, uint32(glDepthComponent32), d.InternalFormat())
	assert.Equal(t, uint32(glDepthComponent), d.TransferFormat())
	assert.Equal(t, uint32(glFloat), d.TransferType())
}

func TestUnsupportedComponents(t *testing.T) {
	for _, n := range []int{0, 5, -1} {
		_, err := NewFormat(n, Byte)
		assert.ErrorIs(t, err, ErrUnsupportedComponents)
		_, err = New[float32](2, 2, 1, n)
		assert.ErrorIs(t, err, ErrUnsupportedComponents)
	}
	assert.Panics(t, func() { MustFormat(7, Float) })
}

func TestFromDataLength(t *testing.T) {
	_, err := FromData(2, 2, 1, 3, make([]uint8, 11))
	assert.ErrorIs(t, err, ErrDataLength)

	im, err := FromData(2, 2, 1, 3, make([]uint8, 12))
	require.NoError(t, err)
	assert.Equal(t, 12, im.Len())
}

func TestVoxelAddressing(t *testing.T) {
	im, err := New[uint8](3, 2, 2, 2)
	require.NoError(t, err)
	require.Len(t, im.Data, 3*2*2*2)

	im.SetVoxel(2, 1, 1, 1, 77)
	assert.Equal(t, uint8(77), im.Data[(1*3*2+1*3+2)*2+1])
	assert.Equal(t, uint8(77), im.Voxel(2, 1, 1, 1))

	im.SetPixel(1, 0, 0, 9)
	assert.Equal(t, uint8(9), im.Voxel(1, 0, 0, 0))

	im.SetTexel(0, 1, 1, 4, 5)
	assert.Equal(t, []uint8{4, 5}, im.Texel(0, 1, 1))
}

func TestBoundsSafety(t *testing.T) {
	im, err := New[float32](4, 3, 2, 4)
	require.NoError(t, err)
	for i := range im.Data {
		im.Data[i] = 0.5
	}
	orig := im.Clone()

	for _, p := range [][4]int{
		{-1, 0, 0, 0}, {4, 0, 0, 0}, {0, -1, 0, 0}, {0, 3, 0, 0},
		{0, 0, -1, 0}, {0, 0, 2, 0}, {0, 0, 0, 4}, {0, 0, 0, -1},
	} {
		assert.Zero(t, im.Voxel(p[0], p[1], p[2], p[3]), "%v", p)
		im.SetVoxel(p[0], p[1], p[2], p[3], 1)
		if p[3] == 0 {
			im.SetTexel(p[0], p[1], p[2], 1, 1, 1, 1)
			assert.Nil(t, im.Texel(p[0], p[1], p[2]), "%v", p)
		}
	}
	assert.Zero(t, im.Pixel(100, 100, 0))
	im.SetPixel(-5, 2, 0, 1)

	assert.Equal(t, orig.Data, im.Data, "out of bounds writes must not mutate")
}

func TestUnsignedInterpretation(t *testing.T) {
	im, err := FromData(2, 1, 1, 1, []uint8{0xff, 0x80})
	require.NoError(t, err)
	f, err := ToFloat(im, 1)
	require.NoError(t, err)
	assert.Equal(t, float32(1), f.Data[0])
	assert.InDelta(t, 128.0/255, f.Data[1], 1e-7)
}

func TestFloatToByte(t *testing.T) {
	assert.Equal(t, uint8(0), FloatToByte(-3))
	assert.Equal(t, uint8(255), FloatToByte(7))
	assert.Equal(t, uint8(128), FloatToByte(0.5))
	assert.Equal(t, uint8(1), FloatToByte(1.0/255))
	assert.Equal(t, uint8(0), FloatToByte(float32(math.NaN())))
}

func TestRoundTrip(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for _, dims := range [][3]int{{1, 1, 1}, {3, 5, 1}, {17, 9, 1}, {5, 3, 7}} {
		for c := 1; c <= 4; c++ {
			im, err := New[uint8](dims[0], dims[1], dims[2], c)
			require.NoError(t, err)
			for i := range im.Data {
				im.Data[i] = uint8(r.IntN(256))
			}

			f, err := ToFloat(im, 0)
			require.NoError(t, err)
			assert.Equal(t, c, f.Components())
			assert.Equal(t, im.Depth, f.Depth)

			b, err := ToByte(f, 0)
			require.NoError(t, err)
			require.Len(t, b.Data, len(im.Data))
			for i := range im.Data {
				d := int(b.Data[i]) - int(im.Data[i])
				assert.True(t, d >= -1 && d <= 1, "%v c=%d index %d: %d vs %d", dims, c, i, b.Data[i], im.Data[i])
			}
		}
	}
}

func TestComponentCountChange(t *testing.T) {
	im, err := FromData(2, 1, 1, 3, []uint8{255, 0, 51, 0, 255, 102})
	require.NoError(t, err)

	// Widening: the extra component stays zero.
	f, err := ToFloat(im, 4)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0, 0.2, 0, 0, 1, 0.4, 0}, f.Data)

	// Narrowing keeps the leading components.
	f2, err := ToFloat(im, 1)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0}, f2.Data)

	b, err := ToByte(f, 2)
	require.NoError(t, err)
	assert.Equal(t, []uint8{255, 0, 0, 255}, b.Data)

	// The source is not modified.
	assert.Equal(t, []uint8{255, 0, 51, 0, 255, 102}, im.Data)

	_, err = ToByte(f, 6)
	assert.ErrorIs(t, err, ErrUnsupportedComponents)
}

func TestBytesView(t *testing.T) {
	im, err := FromData(1, 1, 1, 1, []float32{1})
	require.NoError(t, err)
	b := im.Bytes()
	require.Len(t, b, 4)
	assert.Equal(t, []float32{1}, FromBytes[float32](b))

	b8, err := New[uint8](2, 2, 1, 4)
	require.NoError(t, err)
	assert.Len(t, b8.Bytes(), 16)
	assert.Nil(t, AsBytes([]float32{}))
}

func TestImageInterop(t *testing.T) {
	src := image.NewRGBA(image.Rect(10, 10, 13, 12))
	src.Set(10, 10, color.RGBA{255, 0, 0, 255})
	src.Set(12, 11, color.RGBA{0, 0, 255, 255})

	im := FromImage(src)
	assert.Equal(t, 3, im.Width)
	assert.Equal(t, 2, im.Height)
	assert.Equal(t, []uint8{255, 0, 0, 255}, im.Texel(0, 0, 0))
	assert.Equal(t, []uint8{0, 0, 255, 255}, im.Texel(2, 1, 0))

	back := ToNRGBA(im)
	assert.Equal(t, color.NRGBA{255, 0, 0, 255}, back.NRGBAAt(0, 0))

	gray, err := FromData(1, 1, 1, 1, []uint8{40})
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{40, 40, 40, 255}, ToNRGBA(gray).NRGBAAt(0, 0))
}

func TestMipSize(t *testing.T) {
	w, h, d := MipSize(256, 64, 1, 3)
	assert.Equal(t, [3]int{32, 8, 1}, [3]int{w, h, d})
	w, h, d = MipSize(4, 2, 8, 5)
	assert.Equal(t, [3]int{1, 1, 1}, [3]int{w, h, d})
}
