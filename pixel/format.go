// pixel/format.go
// Copyright(c) 2022-2026 modelview contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package pixel provides CPU-side texel storage: pixel formats and dense
// byte or float image buffers, along with the conversions between them.
package pixel

import (
	"errors"
	"fmt"
)

// Storage is the representation used for each texel component.
type Storage int

const (
	Byte Storage = iota
	Float
)

func (s Storage) String() string {
	switch s {
	case Byte:
		return "byte"
	case Float:
		return "float"
	default:
		return fmt.Sprintf("Storage(%d)", int(s))
	}
}

// Size returns the number of bytes used to store a single component.
func (s Storage) Size() int {
	if s == Float {
		return 4
	}
	return 1
}

var (
	ErrUnsupportedComponents = errors.New("pixel: unsupported component count")
	ErrDataLength            = errors.New("pixel: data length does not match image dimensions")
)

// OpenGL enumerant values for the format tags; these match the values in
// the GL headers so that they may be passed directly to the driver.
const (
	glDepthComponent   = 0x1902
	glRed              = 0x1903
	glRGB              = 0x1907
	glRGBA             = 0x1908
	glRG               = 0x8227
	glR8               = 0x8229
	glRG8              = 0x822B
	glRGB8             = 0x8051
	glRGBA8            = 0x8058
	glR32F             = 0x822E
	glRG32F            = 0x8230
	glRGB32F           = 0x8815
	glRGBA32F          = 0x8814
	glDepthComponent32 = 0x8CAC
	glUnsignedByte     = 0x1401
	glFloat            = 0x1406
)

// Format describes how a texture's texel values are interpreted. It is an
// immutable value; use NewFormat or DepthFormat to create one.
type Format struct {
	Components int
	Storage    Storage
	Depth      bool
}

func NewFormat(components int, storage Storage) (Format, error) {
	if components < 1 || components > 4 {
		return Format{}, fmt.Errorf("%d: %w", components, ErrUnsupportedComponents)
	}
	return Format{Components: components, Storage: storage}, nil
}

// MustFormat is like NewFormat but panics on an invalid component count;
// it is intended for package-level format variables.
func MustFormat(components int, storage Storage) Format {
	f, err := NewFormat(components, storage)
	if err != nil {
		panic(err)
	}
	return f
}

// DepthFormat returns the single-component float format used for depth
// attachments.
func DepthFormat() Format {
	return Format{Components: 1, Storage: Float, Depth: true}
}

var (
	RGBA8   = MustFormat(4, Byte)
	RGB8    = MustFormat(3, Byte)
	R8      = MustFormat(1, Byte)
	RGBA32F = MustFormat(4, Float)
	R32F    = MustFormat(1, Float)
)

func (f Format) Valid() bool {
	return f.Components >= 1 && f.Components <= 4 && (!f.Depth || f.Components == 1)
}

// BytesPerTexel returns the number of bytes that a single texel occupies.
func (f Format) BytesPerTexel() int {
	return f.Components * f.Storage.Size()
}

// InternalFormat returns the sized GL internal format.
func (f Format) InternalFormat() uint32 {
	if f.Depth {
		return glDepthComponent32
	}
	if f.Storage == Float {
		return [4]uint32{glR32F, glRG32F, glRGB32F, glRGBA32F}[f.Components-1]
	}
	return [4]uint32{glR8, glRG8, glRGB8, glRGBA8}[f.Components-1]
}

// TransferFormat returns the GL format used when uploading or reading
// back texel data.
func (f Format) TransferFormat() uint32 {
	if f.Depth {
		return glDepthComponent
	}
	return [4]uint32{glRed, glRG, glRGB, glRGBA}[f.Components-1]
}

// TransferType returns the GL component type for uploads and readbacks.
func (f Format) TransferType() uint32 {
	if f.Storage == Float {
		return glFloat
	}
	return glUnsignedByte
}

func (f Format) String() string {
	if f.Depth {
		return "depth32f"
	}
	return [4]string{"r", "rg", "rgb", "rgba"}[(f.Components-1)&3] + map[Storage]string{Byte: "8", Float: "32f"}[f.Storage]
}

// MipSize returns the dimensions of the given mip level of an image with
// the given base size; no dimension goes below 1.
func MipSize(width, height, depth, level int) (int, int, int) {
	return max(1, width>>level), max(1, height>>level), max(1, depth>>level)
}
