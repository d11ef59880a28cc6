// pixel/image.go
// Copyright(c) 2022-2026 modelview contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package pixel

import (
	"fmt"
	"unsafe"
)

// Element is the set of types that can hold a texel component.
type Element interface {
	uint8 | float32
}

// StorageOf returns the Storage that corresponds to the element type T.
func StorageOf[T Element]() Storage {
	var z T
	if _, ok := any(z).(float32); ok {
		return Float
	}
	return Byte
}

// Image is a dense, row-major, optionally volumetric array of texels.
// Component c of the texel at (x, y, z) is stored at
// ((z*Width*Height + y*Width + x)*Components + c). len(Data) always equals
// Width*Height*Depth*Components.
type Image[T Element] struct {
	Width, Height, Depth int
	Format               Format
	Data                 []T
}

// New returns a zero-filled image with the given dimensions.
func New[T Element](width, height, depth, components int) (*Image[T], error) {
	f, err := NewFormat(components, StorageOf[T]())
	if err != nil {
		return nil, err
	}
	if width < 1 || height < 1 || depth < 1 {
		return nil, fmt.Errorf("pixel: invalid image dimensions %dx%dx%d", width, height, depth)
	}
	return &Image[T]{
		Width:  width,
		Height: height,
		Depth:  depth,
		Format: f,
		Data:   make([]T, width*height*depth*components),
	}, nil
}

// FromData wraps existing texel data; the slice is used directly, not
// copied.
func FromData[T Element](width, height, depth, components int, data []T) (*Image[T], error) {
	f, err := NewFormat(components, StorageOf[T]())
	if err != nil {
		return nil, err
	}
	if n := width * height * depth * components; width < 1 || height < 1 || depth < 1 || len(data) != n {
		return nil, fmt.Errorf("%dx%dx%d with %d components needs %d values, got %d: %w",
			width, height, depth, components, max(n, 0), len(data), ErrDataLength)
	}
	return &Image[T]{Width: width, Height: height, Depth: depth, Format: f, Data: data}, nil
}

func (im *Image[T]) Components() int {
	return im.Format.Components
}

// Len returns the number of components stored in the image.
func (im *Image[T]) Len() int {
	return len(im.Data)
}

func (im *Image[T]) inBounds(x, y, z, c int) bool {
	return x >= 0 && x < im.Width && y >= 0 && y < im.Height && z >= 0 && z < im.Depth &&
		c >= 0 && c < im.Format.Components
}

func (im *Image[T]) offset(x, y, z, c int) int {
	return (z*im.Width*im.Height+y*im.Width+x)*im.Format.Components + c
}

// Voxel returns the given component of the texel at (x, y, z); out of
// range coordinates return zero.
func (im *Image[T]) Voxel(x, y, z, c int) T {
	if !im.inBounds(x, y, z, c) {
		return 0
	}
	return im.Data[im.offset(x, y, z, c)]
}

// SetVoxel sets the given component of the texel at (x, y, z); writes
// outside the image are ignored.
func (im *Image[T]) SetVoxel(x, y, z, c int, v T) {
	if im.inBounds(x, y, z, c) {
		im.Data[im.offset(x, y, z, c)] = v
	}
}

func (im *Image[T]) Pixel(x, y, c int) T {
	return im.Voxel(x, y, 0, c)
}

func (im *Image[T]) SetPixel(x, y, c int, v T) {
	im.SetVoxel(x, y, 0, c, v)
}

// Texel returns a copy of all components of the texel at (x, y, z), or
// nil if the coordinates are out of range.
func (im *Image[T]) Texel(x, y, z int) []T {
	if !im.inBounds(x, y, z, 0) {
		return nil
	}
	o := im.offset(x, y, z, 0)
	return append([]T(nil), im.Data[o:o+im.Format.Components]...)
}

// SetTexel sets the leading components of the texel at (x, y, z) from v.
func (im *Image[T]) SetTexel(x, y, z int, v ...T) {
	if !im.inBounds(x, y, z, 0) {
		return
	}
	o := im.offset(x, y, z, 0)
	copy(im.Data[o:o+im.Format.Components], v)
}

// Bytes returns the image's texel data reinterpreted as bytes in native
// byte order, as expected by the graphics driver. The returned slice
// aliases the image data.
func (im *Image[T]) Bytes() []byte {
	return AsBytes(im.Data)
}

// AsBytes reinterprets a slice of texel components as bytes.
func AsBytes[T Element](s []T) []byte {
	if len(s) == 0 {
		return nil
	}
	var z T
	return unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*int(unsafe.Sizeof(z)))
}

// FromBytes copies raw bytes in native byte order into a slice of texel
// components; trailing bytes that do not make up a full element are
// ignored.
func FromBytes[T Element](b []byte) []T {
	var z T
	sz := int(unsafe.Sizeof(z))
	s := make([]T, len(b)/sz)
	copy(AsBytes(s), b)
	return s
}

func (im *Image[T]) Clone() *Image[T] {
	c := *im
	c.Data = append([]T(nil), im.Data...)
	return &c
}

func (im *Image[T]) String() string {
	return fmt.Sprintf("Image[%dx%dx%d %s]", im.Width, im.Height, im.Depth, im.Format)
}
