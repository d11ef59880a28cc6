// pixel/convert.go
// Copyright(c) 2022-2026 modelview contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package pixel

import (
	"image"
	"image/draw"
	gomath "math"
)

// ByteToFloat maps an unsigned byte to [0, 1].
func ByteToFloat(b uint8) float32 {
	return float32(b) / 255
}

// FloatToByte clamps f to [0, 1] and maps it to the nearest byte value.
// NaN maps to zero.
func FloatToByte(f float32) uint8 {
	if !(f > 0) {
		return 0
	} else if f >= 1 {
		return 255
	}
	return uint8(gomath.Round(float64(f) * 255))
}

// convert returns a new image with the same dimensions as src and the
// given number of components; only the first min(src, dst) components of
// each texel are mapped through xf and the rest are left zero. A
// component count <= 0 keeps the source's count.
func convert[S, D Element](src *Image[S], components int, xf func(S) D) (*Image[D], error) {
	if components <= 0 {
		components = src.Format.Components
	}
	dst, err := New[D](src.Width, src.Height, src.Depth, components)
	if err != nil {
		return nil, err
	}

	sc, dc := src.Format.Components, components
	n := min(sc, dc)
	for t := range src.Width * src.Height * src.Depth {
		s, d := src.Data[t*sc:t*sc+n], dst.Data[t*dc:t*dc+n]
		for i, v := range s {
			d[i] = xf(v)
		}
	}
	return dst, nil
}

// ToFloat returns a float copy of a byte image using value/255.
func ToFloat(src *Image[uint8], components int) (*Image[float32], error) {
	return convert(src, components, ByteToFloat)
}

// ToByte returns a byte copy of a float image using
// round(clamp(value, 0, 1)*255).
func ToByte(src *Image[float32], components int) (*Image[uint8], error) {
	return convert(src, components, FloatToByte)
}

// FromImage converts any image.Image to a 4-component byte image with
// straight (non-premultiplied) alpha; row 0 is the top of the image.
func FromImage(img image.Image) *Image[uint8] {
	b := img.Bounds()
	nrgba, ok := img.(*image.NRGBA)
	if !ok || nrgba.Stride != 4*b.Dx() || b.Min != (image.Point{}) {
		nrgba = image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(nrgba, nrgba.Bounds(), img, b.Min, draw.Src)
	}
	return &Image[uint8]{
		Width:  b.Dx(),
		Height: b.Dy(),
		Depth:  1,
		Format: RGBA8,
		Data:   append([]uint8(nil), nrgba.Pix...),
	}
}

// ToNRGBA returns the first slice of a byte image as an image.NRGBA;
// missing components are filled in with zero for color and 255 for
// alpha.
func ToNRGBA(im *Image[uint8]) *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, im.Width, im.Height))
	nc := im.Format.Components
	for i := range im.Width * im.Height {
		px := out.Pix[4*i : 4*i+4]
		px[3] = 255
		switch nc {
		case 1:
			v := im.Data[i]
			px[0], px[1], px[2] = v, v, v
		default:
			copy(px, im.Data[i*nc:i*nc+nc])
		}
	}
	return out
}
