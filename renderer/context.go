// renderer/context.go
// Copyright(c) 2022-2026 modelview contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package renderer

import (
	"fmt"
	"log/slog"

	"github.com/mmp/modelview/log"
)

// Context pairs a Device with the bookkeeping shared by all of the
// resources created on it: logging and statistics about the GPU memory
// in use.
type Context struct {
	Device
	lg *log.Logger

	stats           Stats
	createdTextures map[TextureID]int
	createdBuffers  map[BufferID]int
}

// Stats summarizes the resources currently allocated through a Context
// along with the number of draw calls issued.
type Stats struct {
	Buffers, BufferBytes   int
	Textures, TextureBytes int
	Programs, Framebuffers int
	DrawCalls              int
}

func (s Stats) String() string {
	return fmt.Sprintf("%d buffers (%.2f MiB), %d textures (%.2f MiB), %d programs, %d framebuffers, %d draw calls",
		s.Buffers, float32(s.BufferBytes)/(1024*1024), s.Textures, float32(s.TextureBytes)/(1024*1024),
		s.Programs, s.Framebuffers, s.DrawCalls)
}

func (s Stats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("buffers", s.Buffers),
		slog.Int("buffer_memory", s.BufferBytes),
		slog.Int("textures", s.Textures),
		slog.Int("texture_memory", s.TextureBytes),
		slog.Int("programs", s.Programs),
		slog.Int("framebuffers", s.Framebuffers),
		slog.Int("draw_calls", s.DrawCalls),
	)
}

func NewContext(dev Device, lg *log.Logger) *Context {
	info := dev.Info()
	lg.Info("Graphics device",
		slog.String("vendor", info.Vendor),
		slog.String("renderer", info.Renderer),
		slog.String("version", info.Version),
		slog.String("glsl", info.GLSLVersion),
		slog.Int("max_texture_size", info.MaxTextureSize))

	return &Context{
		Device:          dev,
		lg:              lg,
		createdTextures: make(map[TextureID]int),
		createdBuffers:  make(map[BufferID]int),
	}
}

func (c *Context) Logger() *log.Logger {
	return c.lg
}

func (c *Context) Stats() Stats {
	return c.stats
}

// ResetDrawCalls zeroes the draw call counter; it's called at the start
// of each frame.
func (c *Context) ResetDrawCalls() {
	c.stats.DrawCalls = 0
}

// CheckError drains and logs any pending device errors.
func (c *Context) CheckError(context string) []ErrorCode {
	return CheckError(c.Device, c.lg, context)
}

func (c *Context) createdTexture(id TextureID, bytes int) {
	if _, ok := c.createdTextures[id]; !ok {
		c.stats.Textures++
	}
	c.stats.TextureBytes += bytes - c.createdTextures[id]
	c.createdTextures[id] = bytes

	c.lg.Debugf("Created tex id %d: %d bytes -> %.2f MiB of textures total", id, bytes,
		float32(c.stats.TextureBytes)/(1024*1024))
}

func (c *Context) deleteTexture(id TextureID) {
	if bytes, ok := c.createdTextures[id]; ok {
		c.stats.Textures--
		c.stats.TextureBytes -= bytes
		delete(c.createdTextures, id)
	}
	c.DeleteTexture(id)
}

func (c *Context) createdBuffer(id BufferID, bytes int) {
	c.stats.Buffers++
	c.stats.BufferBytes += bytes
	c.createdBuffers[id] = bytes
}

func (c *Context) deleteBuffer(id BufferID) {
	if bytes, ok := c.createdBuffers[id]; ok {
		c.stats.Buffers--
		c.stats.BufferBytes -= bytes
		delete(c.createdBuffers, id)
	}
	c.DeleteBuffer(id)
}

// CompileProgram creates a program from the given shader sources.
func (c *Context) CompileProgram(name, vertexSource, fragmentSource string) (ProgramID, error) {
	p, err := c.CreateProgram(vertexSource, fragmentSource)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	c.stats.Programs++
	c.lg.Debugf("Compiled program %q: id %d", name, p)
	return p, nil
}

func (c *Context) ReleaseProgram(p ProgramID) {
	if p != 0 && c.IsProgram(p) {
		c.stats.Programs--
		c.DeleteProgram(p)
	}
}

func (c *Context) createFramebuffer() FramebufferID {
	c.stats.Framebuffers++
	return c.CreateFramebuffer()
}

func (c *Context) deleteFramebuffer(id FramebufferID) {
	c.stats.Framebuffers--
	c.DeleteFramebuffer(id)
}
