// renderer/ogl/device.go
// Copyright(c) 2022-2026 modelview contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package ogl implements renderer.Device using the OpenGL 4.1 core
// profile.
package ogl

import (
	"fmt"
	"strings"
	"unsafe"

	"github.com/mmp/modelview/log"
	"github.com/mmp/modelview/pixel"
	"github.com/mmp/modelview/renderer"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// Device issues OpenGL calls for the renderer.Device methods. It must
// only be used from the thread that owns the GL context.
type Device struct {
	info renderer.DeviceInfo
	// The core profile requires a bound vertex array object; a single
	// one is used for everything.
	vao uint32
}

var _ renderer.Device = (*Device)(nil)

// New loads the OpenGL entry points for the current context and returns
// a Device that uses it.
func New(lg *log.Logger) (*Device, error) {
	lg.Info("Starting OpenGL initialization")
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	d := &Device{
		info: renderer.DeviceInfo{
			Vendor:      gl.GoStr(gl.GetString(gl.VENDOR)),
			Renderer:    gl.GoStr(gl.GetString(gl.RENDERER)),
			Version:     gl.GoStr(gl.GetString(gl.VERSION)),
			GLSLVersion: gl.GoStr(gl.GetString(gl.SHADING_LANGUAGE_VERSION)),
		},
	}
	var maxSize int32
	gl.GetIntegerv(gl.MAX_TEXTURE_SIZE, &maxSize)
	d.info.MaxTextureSize = int(maxSize)

	if major, minor, ok := renderer.ParseVersion(d.info.Version); !ok || major < 4 || (major == 4 && minor < 1) {
		return nil, fmt.Errorf("OpenGL 4.1 is required; the context is %q", d.info.Version)
	}
	lg.Infof("OpenGL vendor %s renderer %s version %s GLSL %s", d.info.Vendor, d.info.Renderer,
		d.info.Version, d.info.GLSLVersion)

	gl.GenVertexArrays(1, &d.vao)
	gl.BindVertexArray(d.vao)

	// Rows of texel data are tightly packed regardless of their size.
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)

	lg.Info("Finished OpenGL initialization")
	return d, nil
}

// Dispose releases the Device's own objects; resources created through
// it must be destroyed separately.
func (d *Device) Dispose() {
	gl.BindVertexArray(0)
	gl.DeleteVertexArrays(1, &d.vao)
}

func (d *Device) Info() renderer.DeviceInfo { return d.info }

func ptr(b []byte) unsafe.Pointer {
	if len(b) == 0 {
		return nil
	}
	return unsafe.Pointer(&b[0])
}

func getInteger(pname uint32) int32 {
	var v int32
	gl.GetIntegerv(pname, &v)
	return v
}

///////////////////////////////////////////////////////////////////////////
// Buffers

func (d *Device) CreateBuffer(target renderer.BufferTarget, data []byte) renderer.BufferID {
	var id uint32
	gl.GenBuffers(1, &id)
	gl.BindBuffer(uint32(target), id)
	gl.BufferData(uint32(target), len(data), ptr(data), gl.STATIC_DRAW)
	return renderer.BufferID(id)
}

func (d *Device) BindBuffer(target renderer.BufferTarget, id renderer.BufferID) {
	gl.BindBuffer(uint32(target), uint32(id))
}

func (d *Device) DeleteBuffer(id renderer.BufferID) {
	b := uint32(id)
	gl.DeleteBuffers(1, &b)
}

///////////////////////////////////////////////////////////////////////////
// Programs

func compileShader(source string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)

	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		msg := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(msg))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("%s", strings.TrimRight(msg, "\x00\n"))
	}
	return shader, nil
}

func (d *Device) CreateProgram(vertexSource, fragmentSource string) (renderer.ProgramID, error) {
	vs, err := compileShader(vertexSource, gl.VERTEX_SHADER)
	if err != nil {
		return 0, fmt.Errorf("vertex shader: %w", err)
	}
	defer gl.DeleteShader(vs)
	fs, err := compileShader(fragmentSource, gl.FRAGMENT_SHADER)
	if err != nil {
		return 0, fmt.Errorf("fragment shader: %w", err)
	}
	defer gl.DeleteShader(fs)

	p := gl.CreateProgram()
	gl.AttachShader(p, vs)
	gl.AttachShader(p, fs)
	gl.LinkProgram(p)

	var status int32
	gl.GetProgramiv(p, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(p, gl.INFO_LOG_LENGTH, &logLength)
		msg := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(p, logLength, nil, gl.Str(msg))
		gl.DeleteProgram(p)
		return 0, fmt.Errorf("link: %s", strings.TrimRight(msg, "\x00\n"))
	}
	return renderer.ProgramID(p), nil
}

func (d *Device) DeleteProgram(p renderer.ProgramID)  { gl.DeleteProgram(uint32(p)) }
func (d *Device) IsProgram(p renderer.ProgramID) bool { return p != 0 && gl.IsProgram(uint32(p)) }
func (d *Device) UseProgram(p renderer.ProgramID)     { gl.UseProgram(uint32(p)) }
func (d *Device) CurrentProgram() renderer.ProgramID {
	return renderer.ProgramID(getInteger(gl.CURRENT_PROGRAM))
}

func (d *Device) AttribLocation(p renderer.ProgramID, name string) int32 {
	return gl.GetAttribLocation(uint32(p), gl.Str(name+"\x00"))
}

func (d *Device) UniformLocation(p renderer.ProgramID, name string) int32 {
	return gl.GetUniformLocation(uint32(p), gl.Str(name+"\x00"))
}

func (d *Device) Uniform1i(loc int32, v int32)      { gl.Uniform1i(loc, v) }
func (d *Device) Uniform1f(loc int32, v float32)    { gl.Uniform1f(loc, v) }
func (d *Device) Uniform3f(loc int32, v [3]float32) { gl.Uniform3f(loc, v[0], v[1], v[2]) }
func (d *Device) Uniform4f(loc int32, v [4]float32) { gl.Uniform4f(loc, v[0], v[1], v[2], v[3]) }
func (d *Device) UniformMatrix4f(loc int32, m [16]float32) {
	gl.UniformMatrix4fv(loc, 1, false, &m[0])
}

///////////////////////////////////////////////////////////////////////////
// Vertex attributes and drawing

func (d *Device) EnableVertexAttrib(loc uint32, components int32, normalized bool, stride, offset int32) {
	gl.EnableVertexAttribArray(loc)
	gl.VertexAttribPointerWithOffset(loc, components, gl.FLOAT, normalized, stride, uintptr(offset))
}

func (d *Device) DisableVertexAttrib(loc uint32) {
	gl.DisableVertexAttribArray(loc)
}

func (d *Device) DrawArrays(mode renderer.Topology, first, count int32) {
	gl.DrawArrays(uint32(mode), first, count)
}

func (d *Device) DrawElements(mode renderer.Topology, count int32, byteOffset int) {
	gl.DrawElementsWithOffset(uint32(mode), count, gl.UNSIGNED_INT, uintptr(byteOffset))
}

///////////////////////////////////////////////////////////////////////////
// Textures

func (d *Device) CreateTexture() renderer.TextureID {
	var id uint32
	gl.GenTextures(1, &id)
	return renderer.TextureID(id)
}

func (d *Device) DeleteTexture(id renderer.TextureID) {
	t := uint32(id)
	gl.DeleteTextures(1, &t)
}

func (d *Device) ActiveTexture(unit int) { gl.ActiveTexture(gl.TEXTURE0 + uint32(unit)) }

func (d *Device) CurrentTextureUnit() int {
	return int(getInteger(gl.ACTIVE_TEXTURE) - gl.TEXTURE0)
}

func (d *Device) BindTexture(target renderer.TextureTarget, id renderer.TextureID) {
	gl.BindTexture(uint32(target), uint32(id))
}

var textureBindingQuery = map[renderer.TextureTarget]uint32{
	renderer.TargetTexture2D:   gl.TEXTURE_BINDING_2D,
	renderer.TargetTexture3D:   gl.TEXTURE_BINDING_3D,
	renderer.TargetTextureCube: gl.TEXTURE_BINDING_CUBE_MAP,
}

func (d *Device) TextureBinding(target renderer.TextureTarget) renderer.TextureID {
	q, ok := textureBindingQuery[target.BindingTarget()]
	if !ok {
		return 0
	}
	return renderer.TextureID(getInteger(q))
}

func (d *Device) TexParameter(target renderer.TextureTarget, param renderer.TexParam, value int32) {
	gl.TexParameteri(uint32(target), uint32(param), value)
}

func (d *Device) TexImage(target renderer.TextureTarget, level int, internal pixel.Format, width, height, depth int,
	transfer pixel.Format, data []byte) {
	if internal.Depth {
		// The transfer format must also be a depth format, even when
		// there's no data.
		transfer = internal
	}
	if target == renderer.TargetTexture3D {
		gl.TexImage3D(uint32(target), int32(level), int32(internal.InternalFormat()), int32(width), int32(height),
			int32(depth), 0, transfer.TransferFormat(), transfer.TransferType(), ptr(data))
	} else {
		gl.TexImage2D(uint32(target), int32(level), int32(internal.InternalFormat()), int32(width), int32(height),
			0, transfer.TransferFormat(), transfer.TransferType(), ptr(data))
	}
}

func (d *Device) TexSubImage(target renderer.TextureTarget, level int, x, y, z, width, height, depth int,
	transfer pixel.Format, data []byte) {
	if target == renderer.TargetTexture3D {
		gl.TexSubImage3D(uint32(target), int32(level), int32(x), int32(y), int32(z), int32(width), int32(height),
			int32(depth), transfer.TransferFormat(), transfer.TransferType(), ptr(data))
	} else {
		gl.TexSubImage2D(uint32(target), int32(level), int32(x), int32(y), int32(width), int32(height),
			transfer.TransferFormat(), transfer.TransferType(), ptr(data))
	}
}

func (d *Device) GetTexImage(target renderer.TextureTarget, level int, f pixel.Format, dst []byte) {
	gl.GetTexImage(uint32(target), int32(level), f.TransferFormat(), f.TransferType(), ptr(dst))
}

func (d *Device) GenerateMipmap(target renderer.TextureTarget) { gl.GenerateMipmap(uint32(target)) }

///////////////////////////////////////////////////////////////////////////
// Framebuffers

func (d *Device) CreateFramebuffer() renderer.FramebufferID {
	var id uint32
	gl.GenFramebuffers(1, &id)
	return renderer.FramebufferID(id)
}

func (d *Device) DeleteFramebuffer(id renderer.FramebufferID) {
	fb := uint32(id)
	gl.DeleteFramebuffers(1, &fb)
}

func (d *Device) BindFramebuffer(id renderer.FramebufferID) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(id))
}

func (d *Device) FramebufferBinding() renderer.FramebufferID {
	return renderer.FramebufferID(getInteger(gl.FRAMEBUFFER_BINDING))
}

func (d *Device) FramebufferTexture(a renderer.Attachment, tex renderer.TextureID) {
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, uint32(a), gl.TEXTURE_2D, uint32(tex), 0)
}

func (d *Device) CheckFramebufferStatus() renderer.FramebufferStatus {
	return renderer.FramebufferStatus(gl.CheckFramebufferStatus(gl.FRAMEBUFFER))
}

func (d *Device) DrawBuffers(a []renderer.Attachment) {
	if len(a) == 0 {
		none := uint32(gl.NONE)
		gl.DrawBuffers(1, &none)
		return
	}
	bufs := make([]uint32, len(a))
	for i, att := range a {
		bufs[i] = uint32(att)
	}
	gl.DrawBuffers(int32(len(bufs)), &bufs[0])
}

///////////////////////////////////////////////////////////////////////////
// State

func (d *Device) Viewport(x, y, width, height int32) { gl.Viewport(x, y, width, height) }

func (d *Device) CurrentViewport() [4]int32 {
	var vp [4]int32
	gl.GetIntegerv(gl.VIEWPORT, &vp[0])
	return vp
}

func (d *Device) Enable(c renderer.Capability)         { gl.Enable(uint32(c)) }
func (d *Device) Disable(c renderer.Capability)        { gl.Disable(uint32(c)) }
func (d *Device) IsEnabled(c renderer.Capability) bool { return gl.IsEnabled(uint32(c)) }

func (d *Device) BlendFunc(src, dst renderer.BlendFactor) { gl.BlendFunc(uint32(src), uint32(dst)) }
func (d *Device) ClearColor(c [4]float32)                 { gl.ClearColor(c[0], c[1], c[2], c[3]) }
func (d *Device) Clear(mask renderer.ClearMask)           { gl.Clear(uint32(mask)) }

func (d *Device) CurrentBlendFunc() (src, dst renderer.BlendFactor) {
	var s, t int32
	gl.GetIntegerv(gl.BLEND_SRC_RGB, &s)
	gl.GetIntegerv(gl.BLEND_DST_RGB, &t)
	return renderer.BlendFactor(s), renderer.BlendFactor(t)
}

func (d *Device) GetError() renderer.ErrorCode { return renderer.ErrorCode(gl.GetError()) }
