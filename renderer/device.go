// renderer/device.go
// Copyright(c) 2022-2026 modelview contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package renderer

import (
	"strconv"
	"strings"

	"github.com/mmp/modelview/pixel"
)

// Device defines the low-level graphics operations that the resource
// wrappers in this package are built on. Its model is that of an
// immediate-mode API with a single current binding for each kind of
// object, matching OpenGL's; the enumerant types below carry GL's values
// so that an OpenGL implementation can pass them straight through. There
// are two implementations: renderer/ogl's, which calls into the OpenGL 4.1
// core profile, and MemoryDevice, which keeps everything in memory so
// that the rest of the system can be tested without a GPU.
//
// All Device methods must be called from the thread that owns the
// graphics context.
type Device interface {
	Info() DeviceInfo

	// CreateBuffer creates a static buffer object initialized with data;
	// the new buffer is left bound to target.
	CreateBuffer(target BufferTarget, data []byte) BufferID
	BindBuffer(target BufferTarget, id BufferID)
	DeleteBuffer(id BufferID)

	// CreateProgram compiles and links a program from the given vertex
	// and fragment shader sources, returning an error that includes the
	// compiler's log if either step fails.
	CreateProgram(vertexSource, fragmentSource string) (ProgramID, error)
	DeleteProgram(p ProgramID)
	IsProgram(p ProgramID) bool
	UseProgram(p ProgramID)
	CurrentProgram() ProgramID
	// AttribLocation returns -1 if the program has no active attribute
	// with the given name.
	AttribLocation(p ProgramID, name string) int32
	// UniformLocation returns -1 if the program has no active uniform
	// with the given name. The Uniform* methods set uniforms in the
	// current program and ignore a location of -1.
	UniformLocation(p ProgramID, name string) int32
	Uniform1i(loc int32, v int32)
	Uniform1f(loc int32, v float32)
	Uniform3f(loc int32, v [3]float32)
	Uniform4f(loc int32, v [4]float32)
	UniformMatrix4f(loc int32, m [16]float32)

	// EnableVertexAttrib enables the attribute array at loc and sources it
	// from the currently bound ArrayBuffer as float32 values.
	EnableVertexAttrib(loc uint32, components int32, normalized bool, stride, offset int32)
	DisableVertexAttrib(loc uint32)
	DrawArrays(mode Topology, first, count int32)
	// DrawElements draws using 32-bit indices from the bound
	// ElementArrayBuffer, starting byteOffset bytes into it.
	DrawElements(mode Topology, count int32, byteOffset int)

	CreateTexture() TextureID
	DeleteTexture(id TextureID)
	ActiveTexture(unit int)
	CurrentTextureUnit() int
	// BindTexture binds the texture to target on the active texture unit.
	BindTexture(target TextureTarget, id TextureID)
	TextureBinding(target TextureTarget) TextureID
	TexParameter(target TextureTarget, param TexParam, value int32)
	// TexImage allocates storage in the internal format for the given
	// level of the texture bound to target (a cube face target for cube
	// maps), initializing it from data, which is in the transfer format,
	// if data is non-nil. Depth is ignored except for Texture3D.
	TexImage(target TextureTarget, level int, internal pixel.Format, width, height, depth int,
		transfer pixel.Format, data []byte)
	// TexSubImage updates a region of an allocated texture level with
	// data in the given transfer format.
	TexSubImage(target TextureTarget, level int, x, y, z, width, height, depth int,
		transfer pixel.Format, data []byte)
	// GetTexImage reads back an entire level of the texture bound to
	// target into dst, converting to the given format.
	GetTexImage(target TextureTarget, level int, f pixel.Format, dst []byte)
	GenerateMipmap(target TextureTarget)

	CreateFramebuffer() FramebufferID
	DeleteFramebuffer(id FramebufferID)
	// BindFramebuffer binds the given framebuffer for both drawing and
	// reading; 0 is the default framebuffer.
	BindFramebuffer(id FramebufferID)
	FramebufferBinding() FramebufferID
	// FramebufferTexture attaches level 0 of a 2D texture to the bound
	// framebuffer.
	FramebufferTexture(a Attachment, tex TextureID)
	CheckFramebufferStatus() FramebufferStatus
	DrawBuffers(a []Attachment)

	Viewport(x, y, width, height int32)
	CurrentViewport() [4]int32
	Enable(c Capability)
	Disable(c Capability)
	IsEnabled(c Capability) bool
	BlendFunc(src, dst BlendFactor)
	// CurrentBlendFunc returns the source and destination RGB blend
	// factors.
	CurrentBlendFunc() (src, dst BlendFactor)
	ClearColor(c [4]float32)
	Clear(mask ClearMask)

	// GetError returns the oldest pending error, or NoError.
	GetError() ErrorCode
}

type (
	BufferID      uint32
	ProgramID     uint32
	TextureID     uint32
	FramebufferID uint32
)

type DeviceInfo struct {
	Vendor         string
	Renderer       string
	Version        string
	GLSLVersion    string
	MaxTextureSize int
}

// ParseVersion extracts the leading "major.minor" from a version string
// such as "4.1 Metal - 88" or "OpenGL ES 3.2 NVIDIA 535.54".
func ParseVersion(s string) (major, minor int, ok bool) {
	for f := range strings.FieldsSeq(s) {
		a, b, found := strings.Cut(f, ".")
		if !found {
			continue
		}
		if i := strings.IndexFunc(b, func(r rune) bool { return r < '0' || r > '9' }); i >= 0 {
			b = b[:i]
		}
		ma, err1 := strconv.Atoi(a)
		mi, err2 := strconv.Atoi(b)
		if err1 == nil && err2 == nil {
			return ma, mi, true
		}
	}
	return 0, 0, false
}

type Topology uint32

const (
	Points        Topology = 0x0000
	Lines         Topology = 0x0001
	LineLoop      Topology = 0x0002
	LineStrip     Topology = 0x0003
	Triangles     Topology = 0x0004
	TriangleStrip Topology = 0x0005
	TriangleFan   Topology = 0x0006
)

type BufferTarget uint32

const (
	ArrayBuffer        BufferTarget = 0x8892
	ElementArrayBuffer BufferTarget = 0x8893
)

type TextureTarget uint32

const (
	TargetTexture2D   TextureTarget = 0x0DE1
	TargetTexture3D   TextureTarget = 0x806F
	TargetTextureCube TextureTarget = 0x8513
	// The six cube faces, in the order +X, -X, +Y, -Y, +Z, -Z.
	TargetCubePositiveX TextureTarget = 0x8515
	TargetCubeNegativeX TextureTarget = 0x8516
	TargetCubePositiveY TextureTarget = 0x8517
	TargetCubeNegativeY TextureTarget = 0x8518
	TargetCubePositiveZ TextureTarget = 0x8519
	TargetCubeNegativeZ TextureTarget = 0x851A
)

// CubeFace returns the target for the i'th cube face.
func CubeFace(i int) TextureTarget {
	return TargetCubePositiveX + TextureTarget(i)
}

// IsCubeFace reports whether t is one of the six cube face targets.
func (t TextureTarget) IsCubeFace() bool {
	return t >= TargetCubePositiveX && t <= TargetCubeNegativeZ
}

// BindingTarget returns the target that a texture is bound to in order to
// operate on t; this is the cube map target for the cube faces.
func (t TextureTarget) BindingTarget() TextureTarget {
	if t.IsCubeFace() {
		return TargetTextureCube
	}
	return t
}

type TexParam uint32

const (
	TexMagFilter TexParam = 0x2800
	TexMinFilter TexParam = 0x2801
	TexWrapS     TexParam = 0x2802
	TexWrapT     TexParam = 0x2803
	TexWrapR     TexParam = 0x8072
	TexMaxLevel  TexParam = 0x813D
)

// Values for TexParameter.
const (
	Nearest            int32 = 0x2600
	Linear             int32 = 0x2601
	LinearMipmapLinear int32 = 0x2703
	Repeat             int32 = 0x2901
	ClampToEdge        int32 = 0x812F
)

type Attachment uint32

const (
	ColorAttachment0 Attachment = 0x8CE0
	DepthAttachment  Attachment = 0x8D00
)

// ColorAttachment returns the attachment point of the i'th color buffer.
func ColorAttachment(i int) Attachment {
	return ColorAttachment0 + Attachment(i)
}

type FramebufferStatus uint32

const (
	FramebufferComplete                    FramebufferStatus = 0x8CD5
	FramebufferUndefined                   FramebufferStatus = 0x8219
	FramebufferIncompleteAttachment        FramebufferStatus = 0x8CD6
	FramebufferIncompleteMissingAttachment FramebufferStatus = 0x8CD7
	FramebufferIncompleteDrawBuffer        FramebufferStatus = 0x8CDB
	FramebufferIncompleteReadBuffer        FramebufferStatus = 0x8CDC
	FramebufferUnsupported                 FramebufferStatus = 0x8CDD
	FramebufferIncompleteMultisample       FramebufferStatus = 0x8D56
)

type Capability uint32

const (
	CullFace    Capability = 0x0B44
	DepthTest   Capability = 0x0B71
	Blend       Capability = 0x0BE2
	Multisample Capability = 0x809D
)

type BlendFactor uint32

const (
	Zero             BlendFactor = 0
	One              BlendFactor = 1
	SrcAlpha         BlendFactor = 0x0302
	OneMinusSrcAlpha BlendFactor = 0x0303
)

type ClearMask uint32

const (
	DepthBufferBit ClearMask = 0x0100
	ColorBufferBit ClearMask = 0x4000
)

type ErrorCode uint32

const (
	NoError                     ErrorCode = 0
	InvalidEnum                 ErrorCode = 0x0500
	InvalidValue                ErrorCode = 0x0501
	InvalidOperation            ErrorCode = 0x0502
	StackOverflow               ErrorCode = 0x0503
	StackUnderflow              ErrorCode = 0x0504
	OutOfMemory                 ErrorCode = 0x0505
	InvalidFramebufferOperation ErrorCode = 0x0506
)
