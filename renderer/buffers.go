// renderer/buffers.go
// Copyright(c) 2022-2026 modelview contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package renderer

import (
	"fmt"
	"strings"
	"unsafe"
)

// Attribute describes one named vertex attribute of an interleaved vertex
// buffer.
type Attribute struct {
	Name       string
	Components int
	Normalized bool
	// Offset is the attribute's offset from the start of the vertex,
	// measured in floats; -1 places it directly after the preceding
	// attribute.
	Offset int
}

// Attrib returns an Attribute that is packed after the previous one.
func Attrib(name string, components int) Attribute {
	return Attribute{Name: name, Components: components, Offset: -1}
}

// AttribAt returns an Attribute at the given offset in floats.
func AttribAt(name string, components, offset int) Attribute {
	return Attribute{Name: name, Components: components, Offset: offset}
}

func (a Attribute) String() string {
	return fmt.Sprintf("%s: %d components, normalized %v, offset %d", a.Name, a.Components, a.Normalized, a.Offset)
}

type vertexBuffer struct {
	id         BufferID
	stride     int32 // bytes
	attributes []Attribute
}

// BufferSet holds one or more static vertex buffers, each with its own
// interleaved layout, and an optional 32-bit index buffer. Attribute
// locations are looked up in the program passed to Bind or Draw each
// time, since they are specific to each program.
type BufferSet struct {
	ctx           *Context
	vertexBuffers []vertexBuffer
	indexBuffer   BufferID
	indexCount    int
	vertexCount   int
	// Attribute arrays enabled by the last Bind and not yet disabled.
	enabled   []uint32
	destroyed bool
}

func NewBufferSet(ctx *Context) *BufferSet {
	return &BufferSet{ctx: ctx, vertexCount: -1}
}

// NewBufferSetFromData returns a BufferSet holding a single vertex buffer
// and, if indices is non-nil, an index buffer.
func NewBufferSetFromData(ctx *Context, data []float32, attribs []Attribute, indices []uint32) (*BufferSet, error) {
	b := NewBufferSet(ctx)
	if err := b.AddVertexBuffer(data, attribs); err != nil {
		return nil, err
	}
	if indices != nil {
		b.SetIndexBuffer(indices)
	}
	return b, nil
}

// AddVertexBuffer uploads data as a new vertex buffer whose vertices
// consist of exactly the given attributes.
func (b *BufferSet) AddVertexBuffer(data []float32, attribs []Attribute) error {
	if len(attribs) == 0 {
		return nil
	}
	n := 0
	for _, a := range attribs {
		n += a.Components
	}
	return b.AddVertexBufferStride(data, n, attribs)
}

// AddVertexBufferStride uploads data as a new vertex buffer with
// floatsPerVertex floats per vertex, which may include data that is not
// described by attributes.
func (b *BufferSet) AddVertexBufferStride(data []float32, floatsPerVertex int, attribs []Attribute) error {
	if b.destroyed {
		return ErrDestroyed
	}
	if floatsPerVertex <= 0 || len(data)%floatsPerVertex != 0 {
		return fmt.Errorf("%d floats, %d per vertex: %w", len(data), floatsPerVertex, ErrVertexData)
	}

	nv := len(data) / floatsPerVertex
	if b.vertexCount < 0 {
		b.vertexCount = nv
	} else if b.vertexCount != nv {
		b.ctx.lg.Warnf("BufferSet.AddVertexBuffer: vertex count %d differs from the first one (%d)", nv, b.vertexCount)
	}

	bytes := floatBytes(data)
	id := b.ctx.CreateBuffer(ArrayBuffer, bytes)
	b.ctx.createdBuffer(id, len(bytes))

	b.vertexBuffers = append(b.vertexBuffers, vertexBuffer{
		id:         id,
		stride:     int32(floatsPerVertex * 4),
		attributes: append([]Attribute(nil), attribs...),
	})
	return nil
}

// SetIndexBuffer uploads the given indices, replacing any previous index
// buffer.
func (b *BufferSet) SetIndexBuffer(indices []uint32) {
	if b.destroyed {
		b.ctx.lg.Warn("SetIndexBuffer called on destroyed BufferSet")
		return
	}
	if b.indexBuffer != 0 {
		b.ctx.deleteBuffer(b.indexBuffer)
	}

	var bytes []byte
	if len(indices) > 0 {
		bytes = unsafe.Slice((*byte)(unsafe.Pointer(&indices[0])), 4*len(indices))
	}
	b.indexBuffer = b.ctx.CreateBuffer(ElementArrayBuffer, bytes)
	b.ctx.createdBuffer(b.indexBuffer, len(bytes))
	b.indexCount = len(indices)
}

func floatBytes(f []float32) []byte {
	if len(f) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&f[0])), 4*len(f))
}

func (b *BufferSet) VertexCount() int { return max(b.vertexCount, 0) }
func (b *BufferSet) IndexCount() int  { return b.indexCount }

// Bind enables and sets up all of the attributes that the given program
// uses; attributes that the program doesn't have (including ones that
// were optimized away by the compiler) are skipped. Attribute arrays left
// enabled by a previous Bind are disabled first.
func (b *BufferSet) Bind(p ProgramID) {
	b.Unbind()
	if b.destroyed {
		return
	}

	for _, vb := range b.vertexBuffers {
		b.ctx.BindBuffer(ArrayBuffer, vb.id)
		offset := 0 // bytes
		for _, a := range vb.attributes {
			if loc := b.ctx.AttribLocation(p, a.Name); loc >= 0 {
				off := offset
				if a.Offset >= 0 {
					off = 4 * a.Offset
				}
				b.ctx.EnableVertexAttrib(uint32(loc), int32(a.Components), a.Normalized, vb.stride, int32(off))
				b.enabled = append(b.enabled, uint32(loc))
			}
			offset += 4 * a.Components
		}
	}
	if b.indexBuffer != 0 {
		b.ctx.BindBuffer(ElementArrayBuffer, b.indexBuffer)
	}
}

// Unbind disables the attribute arrays enabled by the last Bind.
func (b *BufferSet) Unbind() {
	for _, loc := range b.enabled {
		b.ctx.DisableVertexAttrib(loc)
	}
	b.enabled = b.enabled[:0]
}

// Draw draws all of the vertices (or indices, if there is an index
// buffer) using the given program's attribute locations. The caller is
// responsible for making p the current program.
func (b *BufferSet) Draw(mode Topology, p ProgramID) {
	if b.indexBuffer != 0 {
		b.DrawRange(mode, p, b.indexCount, 0)
	} else {
		b.DrawRange(mode, p, b.VertexCount(), 0)
	}
}

// DrawRange draws count vertices (or indices) starting at start.
func (b *BufferSet) DrawRange(mode Topology, p ProgramID, count, start int) {
	if b.destroyed {
		b.ctx.lg.Warn("Draw called on destroyed BufferSet")
		return
	}

	b.Bind(p)
	if b.indexBuffer == 0 {
		b.ctx.DrawArrays(mode, int32(start), int32(count))
	} else {
		b.ctx.DrawElements(mode, int32(count), 4*start)
	}
	b.ctx.stats.DrawCalls++
	b.Unbind()
}

// Destroy releases the buffers; it is safe to call more than once.
func (b *BufferSet) Destroy() {
	if b.destroyed {
		return
	}
	b.Unbind()
	for _, vb := range b.vertexBuffers {
		b.ctx.deleteBuffer(vb.id)
	}
	if b.indexBuffer != 0 {
		b.ctx.deleteBuffer(b.indexBuffer)
	}
	b.vertexBuffers, b.indexBuffer, b.indexCount = nil, 0, 0
	b.destroyed = true
}

func (b *BufferSet) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "BufferSet: index count %d, vertex count %d", b.indexCount, b.VertexCount())
	for _, vb := range b.vertexBuffers {
		fmt.Fprintf(&sb, "\n\tvertex buffer %d: stride %d, %d attributes", vb.id, vb.stride, len(vb.attributes))
		for i, a := range vb.attributes {
			fmt.Fprintf(&sb, "\n\t\t%d: %s", i, a)
		}
	}
	return sb.String()
}
