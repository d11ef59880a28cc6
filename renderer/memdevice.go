// renderer/memdevice.go
// Copyright(c) 2022-2026 modelview contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package renderer

import (
	"errors"
	"maps"
	"regexp"
	"slices"
	"strings"

	"github.com/mmp/modelview/pixel"
)

// MemoryDevice is a Device that keeps all of its state in memory. It
// follows OpenGL's rules closely enough to exercise the resource
// wrappers without a GPU: texture levels store their texels (with 8-bit
// formats quantized as a GPU would), framebuffer attachments can be
// cleared and read back, and shader sources are scanned for their
// attribute and uniform declarations so that locations can be looked up.
// Nothing is rasterized; draw calls are recorded in Draws. Invalid
// operations report errors through GetError as a GL implementation
// would.
type MemoryDevice struct {
	info   DeviceInfo
	nextID uint32

	buffers      map[BufferID][]byte
	bufferTarget map[BufferTarget]BufferID

	programs map[ProgramID]*memProgram
	program  ProgramID

	textures   map[TextureID]*memTexture
	activeUnit int
	units      map[int]map[TextureTarget]TextureID

	framebuffers map[FramebufferID]*memFramebuffer
	framebuffer  FramebufferID

	attribs    map[uint32]VertexAttrib
	viewport   [4]int32
	caps       map[Capability]bool
	blend      [2]BlendFactor
	clearColor [4]float32
	errors     []ErrorCode

	// Draws records every draw call in the order they were issued.
	Draws []DrawCall
	// Clears counts clears of the default framebuffer.
	Clears int
	// InvalidDeletes counts deletions of objects that did not exist,
	// such as an object that was already deleted.
	InvalidDeletes int
}

// VertexAttrib records the configuration of an enabled attribute array.
type VertexAttrib struct {
	Buffer     BufferID
	Components int32
	Normalized bool
	Stride     int32
	Offset     int32
}

// DrawCall is a draw recorded by a MemoryDevice.
type DrawCall struct {
	Mode        Topology
	Program     ProgramID
	Indexed     bool
	First       int32
	Count       int32
	ByteOffset  int
	Attribs     map[uint32]VertexAttrib
	Framebuffer FramebufferID
	Viewport    [4]int32
	BlendFunc   [2]BlendFactor
}

type memProgram struct {
	attribs  map[string]int32
	uniforms map[string]int32
	values   map[int32]any
}

type memLevel struct {
	width, height, depth int
	format               pixel.Format
	// Texel values, with Format.Components values per texel.
	data []float32
}

type levelKey struct {
	face  TextureTarget // the cube face, or the texture's target
	level int
}

type memTexture struct {
	target TextureTarget // 0 until first bound
	levels map[levelKey]*memLevel
	params map[TexParam]int32
}

type memFramebuffer struct {
	attachments map[Attachment]TextureID
	drawBuffers []Attachment
}

// NewMemoryDevice returns a MemoryDevice whose Info reports the given
// maximum texture size.
func NewMemoryDevice(maxTextureSize int) *MemoryDevice {
	return &MemoryDevice{
		info: DeviceInfo{
			Vendor:         "modelview",
			Renderer:       "memory",
			Version:        "4.1 memory",
			GLSLVersion:    "4.10",
			MaxTextureSize: maxTextureSize,
		},
		buffers:      make(map[BufferID][]byte),
		bufferTarget: make(map[BufferTarget]BufferID),
		programs:     make(map[ProgramID]*memProgram),
		textures:     make(map[TextureID]*memTexture),
		units:        make(map[int]map[TextureTarget]TextureID),
		framebuffers: make(map[FramebufferID]*memFramebuffer),
		attribs:      make(map[uint32]VertexAttrib),
		caps:         map[Capability]bool{Multisample: true},
		blend:        [2]BlendFactor{One, Zero},
	}
}

func (d *MemoryDevice) Info() DeviceInfo { return d.info }

func (d *MemoryDevice) newID() uint32 {
	d.nextID++
	return d.nextID
}

func (d *MemoryDevice) setError(e ErrorCode) {
	d.errors = append(d.errors, e)
}

// PushError queues an error to be returned by GetError.
func (d *MemoryDevice) PushError(e ErrorCode) {
	d.setError(e)
}

func (d *MemoryDevice) GetError() ErrorCode {
	if len(d.errors) == 0 {
		return NoError
	}
	e := d.errors[0]
	d.errors = d.errors[1:]
	return e
}

///////////////////////////////////////////////////////////////////////////
// Buffers

func (d *MemoryDevice) CreateBuffer(target BufferTarget, data []byte) BufferID {
	id := BufferID(d.newID())
	d.buffers[id] = slices.Clone(data)
	d.bufferTarget[target] = id
	return id
}

func (d *MemoryDevice) BindBuffer(target BufferTarget, id BufferID) {
	if _, ok := d.buffers[id]; !ok && id != 0 {
		d.setError(InvalidValue)
		return
	}
	d.bufferTarget[target] = id
}

func (d *MemoryDevice) DeleteBuffer(id BufferID) {
	if _, ok := d.buffers[id]; !ok {
		d.InvalidDeletes++
		return
	}
	delete(d.buffers, id)
	for t, b := range d.bufferTarget {
		if b == id {
			d.bufferTarget[t] = 0
		}
	}
	for loc, a := range d.attribs {
		if a.Buffer == id {
			delete(d.attribs, loc)
		}
	}
}

// BufferData returns the contents of a buffer.
func (d *MemoryDevice) BufferData(id BufferID) ([]byte, bool) {
	b, ok := d.buffers[id]
	return b, ok
}

// BoundBuffer returns the buffer bound to target.
func (d *MemoryDevice) BoundBuffer(target BufferTarget) BufferID {
	return d.bufferTarget[target]
}

///////////////////////////////////////////////////////////////////////////
// Programs

var (
	attribDecl  = regexp.MustCompile(`(?m)^\s*(?:layout\s*\([^)]*\)\s*)?(?:in|attribute)\s+\w+\s+(\w+)\s*;`)
	uniformDecl = regexp.MustCompile(`(?m)^\s*uniform\s+\w+\s+(\w+)\s*(?:\[\s*\d+\s*\])?\s*;`)
)

func (d *MemoryDevice) CreateProgram(vertexSource, fragmentSource string) (ProgramID, error) {
	var errs []error
	if !strings.Contains(vertexSource, "void main") {
		errs = append(errs, errors.New("vertex shader: 0:1: error: no definition of main()"))
	}
	if !strings.Contains(fragmentSource, "void main") {
		errs = append(errs, errors.New("fragment shader: 0:1: error: no definition of main()"))
	}
	if len(errs) > 0 {
		return 0, errors.Join(errs...)
	}

	p := &memProgram{
		attribs:  make(map[string]int32),
		uniforms: make(map[string]int32),
		values:   make(map[int32]any),
	}
	for _, m := range attribDecl.FindAllStringSubmatch(vertexSource, -1) {
		if _, ok := p.attribs[m[1]]; !ok {
			p.attribs[m[1]] = int32(len(p.attribs))
		}
	}
	for _, src := range []string{vertexSource, fragmentSource} {
		for _, m := range uniformDecl.FindAllStringSubmatch(src, -1) {
			if _, ok := p.uniforms[m[1]]; !ok {
				p.uniforms[m[1]] = int32(len(p.uniforms))
			}
		}
	}

	id := ProgramID(d.newID())
	d.programs[id] = p
	return id, nil
}

func (d *MemoryDevice) DeleteProgram(p ProgramID) {
	if _, ok := d.programs[p]; !ok {
		d.InvalidDeletes++
		return
	}
	delete(d.programs, p)
	if d.program == p {
		d.program = 0
	}
}

func (d *MemoryDevice) IsProgram(p ProgramID) bool {
	_, ok := d.programs[p]
	return ok
}

func (d *MemoryDevice) UseProgram(p ProgramID) {
	if _, ok := d.programs[p]; !ok && p != 0 {
		d.setError(InvalidValue)
		return
	}
	d.program = p
}

func (d *MemoryDevice) CurrentProgram() ProgramID { return d.program }

func (d *MemoryDevice) AttribLocation(p ProgramID, name string) int32 {
	prog, ok := d.programs[p]
	if !ok {
		d.setError(InvalidValue)
		return -1
	}
	if loc, ok := prog.attribs[name]; ok {
		return loc
	}
	return -1
}

func (d *MemoryDevice) UniformLocation(p ProgramID, name string) int32 {
	prog, ok := d.programs[p]
	if !ok {
		d.setError(InvalidValue)
		return -1
	}
	if loc, ok := prog.uniforms[name]; ok {
		return loc
	}
	return -1
}

func (d *MemoryDevice) setUniform(loc int32, v any) {
	prog, ok := d.programs[d.program]
	if !ok {
		d.setError(InvalidOperation)
		return
	}
	if loc == -1 {
		return
	}
	if int(loc) >= len(prog.uniforms) || loc < 0 {
		d.setError(InvalidOperation)
		return
	}
	prog.values[loc] = v
}

func (d *MemoryDevice) Uniform1i(loc int32, v int32)             { d.setUniform(loc, v) }
func (d *MemoryDevice) Uniform1f(loc int32, v float32)           { d.setUniform(loc, v) }
func (d *MemoryDevice) Uniform3f(loc int32, v [3]float32)        { d.setUniform(loc, v) }
func (d *MemoryDevice) Uniform4f(loc int32, v [4]float32)        { d.setUniform(loc, v) }
func (d *MemoryDevice) UniformMatrix4f(loc int32, m [16]float32) { d.setUniform(loc, m) }

// UniformValue returns the value last set for the named uniform of p, or
// nil if it hasn't been set.
func (d *MemoryDevice) UniformValue(p ProgramID, name string) any {
	prog, ok := d.programs[p]
	if !ok {
		return nil
	}
	loc, ok := prog.uniforms[name]
	if !ok {
		return nil
	}
	return prog.values[loc]
}

///////////////////////////////////////////////////////////////////////////
// Vertex attributes and drawing

func (d *MemoryDevice) EnableVertexAttrib(loc uint32, components int32, normalized bool, stride, offset int32) {
	buf := d.bufferTarget[ArrayBuffer]
	if buf == 0 {
		d.setError(InvalidOperation)
		return
	}
	if components < 1 || components > 4 || stride < 0 || offset < 0 {
		d.setError(InvalidValue)
		return
	}
	d.attribs[loc] = VertexAttrib{
		Buffer:     buf,
		Components: components,
		Normalized: normalized,
		Stride:     stride,
		Offset:     offset,
	}
}

func (d *MemoryDevice) DisableVertexAttrib(loc uint32) {
	delete(d.attribs, loc)
}

// EnabledAttribs returns the enabled attribute array locations in
// increasing order.
func (d *MemoryDevice) EnabledAttribs() []uint32 {
	return slices.Sorted(maps.Keys(d.attribs))
}

func (d *MemoryDevice) recordDraw(dc DrawCall) {
	if d.program == 0 {
		d.setError(InvalidOperation)
		return
	}
	dc.Program = d.program
	dc.Attribs = maps.Clone(d.attribs)
	dc.Framebuffer = d.framebuffer
	dc.Viewport = d.viewport
	dc.BlendFunc = d.blend
	d.Draws = append(d.Draws, dc)
}

func (d *MemoryDevice) DrawArrays(mode Topology, first, count int32) {
	if first < 0 || count < 0 {
		d.setError(InvalidValue)
		return
	}
	d.recordDraw(DrawCall{Mode: mode, First: first, Count: count})
}

func (d *MemoryDevice) DrawElements(mode Topology, count int32, byteOffset int) {
	ib := d.bufferTarget[ElementArrayBuffer]
	if ib == 0 {
		d.setError(InvalidOperation)
		return
	}
	if count < 0 || byteOffset < 0 {
		d.setError(InvalidValue)
		return
	}
	d.recordDraw(DrawCall{Mode: mode, Indexed: true, Count: count, ByteOffset: byteOffset})
}

///////////////////////////////////////////////////////////////////////////
// Textures

func (d *MemoryDevice) CreateTexture() TextureID {
	id := TextureID(d.newID())
	d.textures[id] = &memTexture{
		levels: make(map[levelKey]*memLevel),
		params: make(map[TexParam]int32),
	}
	return id
}

func (d *MemoryDevice) DeleteTexture(id TextureID) {
	if _, ok := d.textures[id]; !ok {
		d.InvalidDeletes++
		return
	}
	delete(d.textures, id)
	for _, u := range d.units {
		for t, b := range u {
			if b == id {
				u[t] = 0
			}
		}
	}
	for _, fb := range d.framebuffers {
		for a, t := range fb.attachments {
			if t == id {
				delete(fb.attachments, a)
			}
		}
	}
}

func (d *MemoryDevice) ActiveTexture(unit int) {
	if unit < 0 || unit >= 32 {
		d.setError(InvalidEnum)
		return
	}
	d.activeUnit = unit
}

func (d *MemoryDevice) CurrentTextureUnit() int { return d.activeUnit }

func (d *MemoryDevice) BindTexture(target TextureTarget, id TextureID) {
	if id != 0 {
		tex, ok := d.textures[id]
		if !ok {
			d.setError(InvalidValue)
			return
		}
		if tex.target == 0 {
			tex.target = target
		} else if tex.target != target {
			d.setError(InvalidOperation)
			return
		}
	}
	u, ok := d.units[d.activeUnit]
	if !ok {
		u = make(map[TextureTarget]TextureID)
		d.units[d.activeUnit] = u
	}
	u[target] = id
}

func (d *MemoryDevice) TextureBinding(target TextureTarget) TextureID {
	return d.units[d.activeUnit][target]
}

// TextureUnitBinding returns the texture bound to target on the given
// unit.
func (d *MemoryDevice) TextureUnitBinding(unit int, target TextureTarget) TextureID {
	return d.units[unit][target]
}

// boundTexture returns the texture bound on the active unit for target,
// which may be a cube face.
func (d *MemoryDevice) boundTexture(target TextureTarget) *memTexture {
	id := d.TextureBinding(target.BindingTarget())
	if id == 0 {
		d.setError(InvalidOperation)
		return nil
	}
	return d.textures[id]
}

func (d *MemoryDevice) TexParameter(target TextureTarget, param TexParam, value int32) {
	if tex := d.boundTexture(target); tex != nil {
		tex.params[param] = value
	}
}

// TextureParameter returns the value of a texture's parameter.
func (d *MemoryDevice) TextureParameter(id TextureID, param TexParam) (int32, bool) {
	tex, ok := d.textures[id]
	if !ok {
		return 0, false
	}
	v, ok := tex.params[param]
	return v, ok
}

// TextureLevelSize returns the size of a level of a texture; face is the
// cube face for cube maps and the texture's target otherwise.
func (d *MemoryDevice) TextureLevelSize(id TextureID, face TextureTarget, level int) (w, h, depth int, ok bool) {
	tex, ok := d.textures[id]
	if !ok {
		return 0, 0, 0, false
	}
	l, ok := tex.levels[levelKey{face, level}]
	if !ok {
		return 0, 0, 0, false
	}
	return l.width, l.height, l.depth, true
}

// TextureCount returns the number of live textures.
func (d *MemoryDevice) TextureCount() int { return len(d.textures) }

// BufferCount returns the number of live buffers.
func (d *MemoryDevice) BufferCount() int { return len(d.buffers) }

// ProgramCount returns the number of live programs.
func (d *MemoryDevice) ProgramCount() int { return len(d.programs) }

// FramebufferCount returns the number of live framebuffers.
func (d *MemoryDevice) FramebufferCount() int { return len(d.framebuffers) }

func (d *MemoryDevice) TexImage(target TextureTarget, level int, internal pixel.Format, width, height, depth int,
	transfer pixel.Format, data []byte) {
	tex := d.boundTexture(target)
	if tex == nil {
		return
	}
	if target == TargetTextureCube {
		// Storage must be specified per face.
		d.setError(InvalidEnum)
		return
	}
	if target != TargetTexture3D {
		depth = 1
	}
	if !internal.Valid() || !transfer.Valid() {
		d.setError(InvalidEnum)
		return
	}
	if level < 0 || width < 1 || height < 1 || depth < 1 ||
		width > d.info.MaxTextureSize || height > d.info.MaxTextureSize || depth > d.info.MaxTextureSize {
		d.setError(InvalidValue)
		return
	}

	l := &memLevel{
		width:  width,
		height: height,
		depth:  depth,
		format: internal,
		data:   make([]float32, width*height*depth*internal.Components),
	}
	if data != nil {
		if len(data) < width*height*depth*transfer.BytesPerTexel() {
			d.setError(InvalidOperation)
			return
		}
		l.store(0, 0, 0, width, height, depth, transfer, data)
	}
	tex.levels[levelKey{target, level}] = l
}

func (d *MemoryDevice) TexSubImage(target TextureTarget, level int, x, y, z, width, height, depth int,
	transfer pixel.Format, data []byte) {
	tex := d.boundTexture(target)
	if tex == nil {
		return
	}
	if target != TargetTexture3D {
		z, depth = 0, 1
	}
	l, ok := tex.levels[levelKey{target, level}]
	if !ok {
		d.setError(InvalidOperation)
		return
	}
	if !transfer.Valid() {
		d.setError(InvalidEnum)
		return
	}
	if x < 0 || y < 0 || z < 0 || width < 0 || height < 0 || depth < 0 ||
		x+width > l.width || y+height > l.height || z+depth > l.depth {
		d.setError(InvalidValue)
		return
	}
	if len(data) < width*height*depth*transfer.BytesPerTexel() {
		d.setError(InvalidOperation)
		return
	}
	l.store(x, y, z, width, height, depth, transfer, data)
}

func (d *MemoryDevice) GetTexImage(target TextureTarget, level int, f pixel.Format, dst []byte) {
	tex := d.boundTexture(target)
	if tex == nil {
		return
	}
	if target == TargetTextureCube {
		d.setError(InvalidEnum)
		return
	}
	l, ok := tex.levels[levelKey{target, level}]
	if !ok {
		d.setError(InvalidValue)
		return
	}
	if !f.Valid() || f.Depth != l.format.Depth {
		d.setError(InvalidOperation)
		return
	}
	if len(dst) < l.width*l.height*l.depth*f.BytesPerTexel() {
		d.setError(InvalidOperation)
		return
	}
	l.load(f, dst)
}

func (d *MemoryDevice) GenerateMipmap(target TextureTarget) {
	tex := d.boundTexture(target)
	if tex == nil {
		return
	}
	faces := []TextureTarget{target}
	if target == TargetTextureCube {
		faces = faces[:0]
		for i := range 6 {
			faces = append(faces, CubeFace(i))
		}
	}
	for _, face := range faces {
		l, ok := tex.levels[levelKey{face, 0}]
		if !ok {
			d.setError(InvalidOperation)
			return
		}
		for level := 1; l.width > 1 || l.height > 1 || l.depth > 1; level++ {
			l = l.downsample()
			tex.levels[levelKey{face, level}] = l
		}
	}
}

// store converts width*height*depth texels from data in format f and
// writes them into the region starting at (x, y, z).
func (l *memLevel) store(x, y, z, width, height, depth int, f pixel.Format, data []byte) {
	src := texelValues(f, data)
	nc, sc := l.format.Components, f.Components
	i := 0
	for pz := z; pz < z+depth; pz++ {
		for py := y; py < y+height; py++ {
			for px := x; px < x+width; px++ {
				o := ((pz*l.height+py)*l.width + px) * nc
				for c := range nc {
					v := float32(0)
					if c < sc {
						v = src[i+c]
					} else if c == 3 {
						v = 1
					}
					if l.format.Storage == pixel.Byte {
						// Quantize as 8-bit storage would.
						v = pixel.ByteToFloat(pixel.FloatToByte(v))
					}
					l.data[o+c] = v
				}
				i += sc
			}
		}
	}
}

// load converts the entire level to format f.
func (l *memLevel) load(f pixel.Format, dst []byte) {
	n := l.width * l.height * l.depth
	nc, dc := l.format.Components, f.Components
	vals := make([]float32, n*dc)
	for i := range n {
		for c := range dc {
			switch {
			case c < nc:
				vals[i*dc+c] = l.data[i*nc+c]
			case c == 3:
				vals[i*dc+c] = 1
			}
		}
	}
	if f.Storage == pixel.Float {
		copy(dst, pixel.AsBytes(vals))
	} else {
		for i, v := range vals {
			dst[i] = pixel.FloatToByte(v)
		}
	}
}

func texelValues(f pixel.Format, data []byte) []float32 {
	if f.Storage == pixel.Float {
		return pixel.FromBytes[float32](data)
	}
	v := make([]float32, len(data))
	for i, b := range data {
		v[i] = pixel.ByteToFloat(b)
	}
	return v
}

// downsample returns the next mip level, computed with a box filter.
func (l *memLevel) downsample() *memLevel {
	w, h, dd := pixel.MipSize(l.width, l.height, l.depth, 1)
	nc := l.format.Components
	m := &memLevel{width: w, height: h, depth: dd, format: l.format, data: make([]float32, w*h*dd*nc)}
	for z := range dd {
		for y := range h {
			for x := range w {
				o := ((z*h+y)*w + x) * nc
				count := 0
				for sz := 2 * z; sz < min(2*z+2, l.depth); sz++ {
					for sy := 2 * y; sy < min(2*y+2, l.height); sy++ {
						for sx := 2 * x; sx < min(2*x+2, l.width); sx++ {
							so := ((sz*l.height+sy)*l.width + sx) * nc
							for c := range nc {
								m.data[o+c] += l.data[so+c]
							}
							count++
						}
					}
				}
				for c := range nc {
					m.data[o+c] /= float32(count)
				}
			}
		}
	}
	return m
}

///////////////////////////////////////////////////////////////////////////
// Framebuffers

func (d *MemoryDevice) CreateFramebuffer() FramebufferID {
	id := FramebufferID(d.newID())
	d.framebuffers[id] = &memFramebuffer{
		attachments: make(map[Attachment]TextureID),
		drawBuffers: []Attachment{ColorAttachment0},
	}
	return id
}

func (d *MemoryDevice) DeleteFramebuffer(id FramebufferID) {
	if _, ok := d.framebuffers[id]; !ok {
		d.InvalidDeletes++
		return
	}
	delete(d.framebuffers, id)
	if d.framebuffer == id {
		d.framebuffer = 0
	}
}

func (d *MemoryDevice) BindFramebuffer(id FramebufferID) {
	if _, ok := d.framebuffers[id]; !ok && id != 0 {
		d.setError(InvalidOperation)
		return
	}
	d.framebuffer = id
}

func (d *MemoryDevice) FramebufferBinding() FramebufferID { return d.framebuffer }

func (d *MemoryDevice) FramebufferTexture(a Attachment, tex TextureID) {
	fb, ok := d.framebuffers[d.framebuffer]
	if !ok {
		d.setError(InvalidOperation)
		return
	}
	if tex == 0 {
		delete(fb.attachments, a)
		return
	}
	if t, ok := d.textures[tex]; !ok || t.target != TargetTexture2D {
		d.setError(InvalidOperation)
		return
	}
	fb.attachments[a] = tex
}

// FramebufferAttachment returns the texture attached to a of fb.
func (d *MemoryDevice) FramebufferAttachment(fb FramebufferID, a Attachment) TextureID {
	if f, ok := d.framebuffers[fb]; ok {
		return f.attachments[a]
	}
	return 0
}

// DrawBuffersOf returns the draw buffers of fb.
func (d *MemoryDevice) DrawBuffersOf(fb FramebufferID) []Attachment {
	if f, ok := d.framebuffers[fb]; ok {
		return f.drawBuffers
	}
	return nil
}

func (d *MemoryDevice) CheckFramebufferStatus() FramebufferStatus {
	fb, ok := d.framebuffers[d.framebuffer]
	if !ok {
		return FramebufferComplete
	}
	if len(fb.attachments) == 0 {
		return FramebufferIncompleteMissingAttachment
	}
	for a, id := range fb.attachments {
		l, ok := d.textures[id].levels[levelKey{TargetTexture2D, 0}]
		if !ok || (a == DepthAttachment) != l.format.Depth {
			return FramebufferIncompleteAttachment
		}
	}
	for _, a := range fb.drawBuffers {
		if _, ok := fb.attachments[a]; !ok {
			return FramebufferIncompleteDrawBuffer
		}
	}
	return FramebufferComplete
}

func (d *MemoryDevice) DrawBuffers(a []Attachment) {
	fb, ok := d.framebuffers[d.framebuffer]
	if !ok {
		d.setError(InvalidOperation)
		return
	}
	fb.drawBuffers = slices.Clone(a)
}

///////////////////////////////////////////////////////////////////////////
// Fixed function state

func (d *MemoryDevice) Viewport(x, y, width, height int32) {
	if width < 0 || height < 0 {
		d.setError(InvalidValue)
		return
	}
	d.viewport = [4]int32{x, y, width, height}
}

func (d *MemoryDevice) CurrentViewport() [4]int32 { return d.viewport }

func (d *MemoryDevice) Enable(c Capability)            { d.caps[c] = true }
func (d *MemoryDevice) Disable(c Capability)           { d.caps[c] = false }
func (d *MemoryDevice) IsEnabled(c Capability) bool    { return d.caps[c] }
func (d *MemoryDevice) ClearColor(c [4]float32)        { d.clearColor = c }
func (d *MemoryDevice) BlendFunc(src, dst BlendFactor) { d.blend = [2]BlendFactor{src, dst} }

func (d *MemoryDevice) CurrentBlendFunc() (BlendFactor, BlendFactor) {
	return d.blend[0], d.blend[1]
}

// Clear fills the draw buffers of the bound framebuffer with the clear
// color and its depth attachment with 1.
func (d *MemoryDevice) Clear(mask ClearMask) {
	fb, ok := d.framebuffers[d.framebuffer]
	if !ok {
		d.Clears++
		return
	}
	fill := func(id TextureID, v []float32) {
		if tex, ok := d.textures[id]; ok {
			if l, ok := tex.levels[levelKey{TargetTexture2D, 0}]; ok {
				nc := l.format.Components
				for i := 0; i < len(l.data); i += nc {
					copy(l.data[i:i+nc], v)
				}
			}
		}
	}
	if mask&ColorBufferBit != 0 {
		for _, a := range fb.drawBuffers {
			fill(fb.attachments[a], d.clearColor[:])
		}
	}
	if mask&DepthBufferBit != 0 {
		fill(fb.attachments[DepthAttachment], []float32{1})
	}
}
