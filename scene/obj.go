// scene/obj.go
// Copyright(c) 2022-2026 modelview contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package scene

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	gomath "math"
	"strconv"
	"strings"

	"github.com/mmp/modelview/log"
	"github.com/mmp/modelview/renderer"
	"github.com/mmp/modelview/util"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/mmp/earcut-go"
)

// FloatsPerVertex is the number of floats in each of a Mesh's
// interleaved vertices: position, normal, and texture coordinates.
const FloatsPerVertex = 8

// MeshAttributes describes the layout of Mesh.Vertices for
// renderer.BufferSet.
var MeshAttributes = []renderer.Attribute{
	renderer.Attrib("inPosition", 3),
	renderer.Attrib("inNormal", 3),
	renderer.Attrib("inTexCoord", 2),
}

// Group is a contiguous range of a Mesh's indices that came from a
// single "o" or "g" statement of the OBJ file.
type Group struct {
	Name     string
	Material string
	Start    int // first index
	Count    int // number of indices
}

// Mesh is an indexed triangle mesh.
type Mesh struct {
	Name     string
	Vertices []float32 // FloatsPerVertex per vertex
	Indices  []uint32
	Groups   []Group
	Min, Max [3]float32
}

func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / FloatsPerVertex
}

func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// FindGroups returns all of the groups with the given name; a name may
// appear more than once if the file switched back to it.
func (m *Mesh) FindGroups(name string) []Group {
	return util.FilterSlice(m.Groups, func(g Group) bool { return g.Name == name })
}

// Center returns the center of the mesh's bounding box.
func (m *Mesh) Center() mgl32.Vec3 {
	return mgl32.Vec3(m.Min).Add(mgl32.Vec3(m.Max)).Mul(0.5)
}

// Upload creates a BufferSet holding the mesh's vertices and indices.
func (m *Mesh) Upload(ctx *renderer.Context) (*renderer.BufferSet, error) {
	if len(m.Indices) == 0 {
		return nil, fmt.Errorf("%s: mesh is empty", m.Name)
	}
	return renderer.NewBufferSetFromData(ctx, m.Vertices, MeshAttributes, m.Indices)
}

func (m *Mesh) String() string {
	return fmt.Sprintf("%s: %d vertices, %d triangles, %d groups, bounds %v - %v", m.Name,
		m.VertexCount(), m.TriangleCount(), len(m.Groups), m.Min, m.Max)
}

///////////////////////////////////////////////////////////////////////////
// OBJ parsing

// faceVertex holds the zero-based indices given for one vertex of a face;
// -1 indicates that no texture coordinate or normal was given.
type faceVertex struct {
	v, vt, vn int
}

// vertexKey identifies a unique output vertex. Vertices without an
// explicit normal get the face's normal, so they aren't shared across
// faces.
type vertexKey struct {
	faceVertex
	face int
}

type objParser struct {
	e         *util.ErrorLogger
	positions []mgl32.Vec3
	texcoords []mgl32.Vec2
	normals   []mgl32.Vec3

	mesh     *Mesh
	vertices map[vertexKey]uint32
	group    string
	material string
	nfaces   int
}

// LoadOBJ parses a Wavefront OBJ file. Polygons with more than three
// vertices are triangulated. Materials are recorded by name but material
// libraries are not read. All errors found in the file are reported
// together; each is a *util.FileError with the file name and line number.
func LoadOBJ(r io.Reader, name string) (*Mesh, error) {
	return parseOBJ(r, name, nil)
}

// parseOBJ is LoadOBJ, also logging each error when lg is non-nil.
func parseOBJ(r io.Reader, name string, lg *log.Logger) (*Mesh, error) {
	p := &objParser{
		e:        util.NewErrorLogger(name),
		mesh:     &Mesh{Name: name},
		vertices: make(map[vertexKey]uint32),
		group:    "default",
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" || text[0] == '#' {
			continue
		}
		p.e.SetLine(line)
		p.parseLine(strings.Fields(text))
	}
	p.e.SetLine(0)
	if err := scanner.Err(); err != nil {
		p.e.Error(err)
	}
	p.finishGroup()

	if len(p.mesh.Indices) == 0 && !p.e.HaveErrors() {
		p.e.Errorf("no faces found")
	}
	if p.e.HaveErrors() {
		if lg != nil {
			p.e.Log(lg)
		}
		return nil, p.e.Err()
	}
	p.computeBounds()
	return p.mesh, nil
}

func (p *objParser) parseLine(fields []string) {
	switch fields[0] {
	case "v":
		if v, ok := p.parseFloats(fields[1:], 3); ok {
			p.positions = append(p.positions, mgl32.Vec3{v[0], v[1], v[2]})
		}
	case "vt":
		if v, ok := p.parseFloats(fields[1:], 2); ok {
			p.texcoords = append(p.texcoords, mgl32.Vec2{v[0], v[1]})
		}
	case "vn":
		if v, ok := p.parseFloats(fields[1:], 3); ok {
			p.normals = append(p.normals, mgl32.Vec3{v[0], v[1], v[2]}.Normalize())
		}
	case "f":
		p.parseFace(fields[1:])
	case "o", "g":
		name := "default"
		if len(fields) > 1 {
			name = strings.Join(fields[1:], " ")
		}
		p.startGroup(name, p.material)
	case "usemtl":
		if len(fields) < 2 {
			p.e.Errorf("usemtl: missing material name")
			return
		}
		p.startGroup(p.group, fields[1])
	case "mtllib", "s", "l", "p":
		// Ignored.
	default:
		p.e.Errorf("%s: unknown statement", fields[0])
	}
}

// parseFloats parses at least n floats; extra values (such as the
// optional w coordinate) are ignored.
func (p *objParser) parseFloats(fields []string, n int) ([]float32, bool) {
	if len(fields) < n {
		p.e.Errorf("expected %d values, got %d", n, len(fields))
		return nil, false
	}
	v := make([]float32, n)
	for i := range n {
		f, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			p.e.Error(err)
			return nil, false
		}
		v[i] = float32(f)
	}
	return v, true
}

// resolveIndex converts a one-based OBJ index, which may be negative to
// count back from the most recent element, to a zero-based one.
func (p *objParser) resolveIndex(s string, n int, what string) (int, bool) {
	i, err := strconv.Atoi(s)
	if err != nil {
		p.e.Errorf("%s index %q: %v", what, s, err)
		return 0, false
	}
	if i < 0 {
		i += n
	} else {
		i--
	}
	if i < 0 || i >= n {
		p.e.Errorf("%s index %s out of range (%d defined)", what, s, n)
		return 0, false
	}
	return i, true
}

func (p *objParser) parseFaceVertex(s string) (faceVertex, bool) {
	fv := faceVertex{vt: -1, vn: -1}
	parts := strings.Split(s, "/")
	if len(parts) > 3 {
		p.e.Errorf("%s: malformed face vertex", s)
		return fv, false
	}

	var ok bool
	if fv.v, ok = p.resolveIndex(parts[0], len(p.positions), "position"); !ok {
		return fv, false
	}
	if len(parts) > 1 && parts[1] != "" {
		if fv.vt, ok = p.resolveIndex(parts[1], len(p.texcoords), "texture coordinate"); !ok {
			return fv, false
		}
	}
	if len(parts) > 2 && parts[2] != "" {
		if fv.vn, ok = p.resolveIndex(parts[2], len(p.normals), "normal"); !ok {
			return fv, false
		}
	}
	return fv, true
}

func (p *objParser) parseFace(fields []string) {
	if len(fields) < 3 {
		p.e.Errorf("face has %d vertices; at least 3 are required", len(fields))
		return
	}
	face := make([]faceVertex, len(fields))
	for i, f := range fields {
		var ok bool
		if face[i], ok = p.parseFaceVertex(f); !ok {
			return
		}
	}

	pos := util.MapSlice(face, func(fv faceVertex) mgl32.Vec3 { return p.positions[fv.v] })
	normal := polygonNormal(pos)
	faceIndex := p.nfaces
	p.nfaces++

	emit := func(fv faceVertex) uint32 {
		key := vertexKey{faceVertex: fv, face: -1}
		if fv.vn == -1 {
			key.face = faceIndex
		}
		if idx, ok := p.vertices[key]; ok {
			return idx
		}

		n := normal
		if fv.vn != -1 {
			n = p.normals[fv.vn]
		}
		var uv mgl32.Vec2
		if fv.vt != -1 {
			uv = p.texcoords[fv.vt]
		}
		v := p.positions[fv.v]
		idx := uint32(len(p.mesh.Vertices) / FloatsPerVertex)
		p.mesh.Vertices = append(p.mesh.Vertices, v[0], v[1], v[2], n[0], n[1], n[2], uv[0], uv[1])
		p.vertices[key] = idx
		return idx
	}

	for _, tri := range triangulate(pos, normal) {
		for _, i := range tri {
			p.mesh.Indices = append(p.mesh.Indices, emit(face[i]))
		}
	}
}

func (p *objParser) startGroup(name, material string) {
	p.finishGroup()
	p.group, p.material = name, material
}

// finishGroup records the indices added since the last group ended.
func (p *objParser) finishGroup() {
	start := 0
	if n := len(p.mesh.Groups); n > 0 {
		start = p.mesh.Groups[n-1].Start + p.mesh.Groups[n-1].Count
	}
	if count := len(p.mesh.Indices) - start; count > 0 {
		p.mesh.Groups = append(p.mesh.Groups, Group{
			Name:     p.group,
			Material: p.material,
			Start:    start,
			Count:    count,
		})
	}
}

func (p *objParser) computeBounds() {
	m := p.mesh
	m.Min = [3]float32{gomath.MaxFloat32, gomath.MaxFloat32, gomath.MaxFloat32}
	m.Max = [3]float32{-gomath.MaxFloat32, -gomath.MaxFloat32, -gomath.MaxFloat32}
	for i := 0; i < len(m.Vertices); i += FloatsPerVertex {
		for c := range 3 {
			m.Min[c] = min(m.Min[c], m.Vertices[i+c])
			m.Max[c] = max(m.Max[c], m.Vertices[i+c])
		}
	}
}

// polygonNormal computes the normal of a planar polygon using Newell's
// method, which handles concave polygons.
func polygonNormal(pos []mgl32.Vec3) mgl32.Vec3 {
	var n mgl32.Vec3
	for i, a := range pos {
		b := pos[(i+1)%len(pos)]
		n[0] += (a[1] - b[1]) * (a[2] + b[2])
		n[1] += (a[2] - b[2]) * (a[0] + b[0])
		n[2] += (a[0] - b[0]) * (a[1] + b[1])
	}
	if n.Len() == 0 {
		return mgl32.Vec3{0, 0, 1}
	}
	return n.Normalize()
}

// triangulate returns triangles as indices into pos. Polygons with more
// than three vertices are projected onto the plane most perpendicular to
// their normal and triangulated with earcut; if that fails, a fan is used.
func triangulate(pos []mgl32.Vec3, normal mgl32.Vec3) [][3]int {
	if len(pos) == 3 {
		return [][3]int{{0, 1, 2}}
	}

	// Drop the axis along which the normal is largest.
	ax, ay := 0, 1
	if a := [3]float32{abs(normal[0]), abs(normal[1]), abs(normal[2])}; a[0] >= a[1] && a[0] >= a[2] {
		ax, ay = 1, 2
	} else if a[1] >= a[2] {
		ax, ay = 2, 0
	}

	verts := make([]earcut.Vertex, len(pos))
	for i, p := range pos {
		verts[i].P = [2]float64{float64(p[ax]), float64(p[ay])}
	}
	lookup := func(v earcut.Vertex) int {
		for i := range verts {
			if verts[i].P == v.P {
				return i
			}
		}
		return -1
	}

	var tris [][3]int
	for _, tri := range earcut.Triangulate(earcut.Polygon{Rings: [][]earcut.Vertex{verts}}) {
		var t [3]int
		for i, v := range tri.Vertices {
			if t[i] = lookup(v); t[i] == -1 {
				return fan(len(pos))
			}
		}
		tris = append(tris, t)
	}
	if len(tris) != len(pos)-2 {
		return fan(len(pos))
	}
	return tris
}

func fan(n int) [][3]int {
	tris := make([][3]int, 0, n-2)
	for i := 1; i+1 < n; i++ {
		tris = append(tris, [3]int{0, i, i + 1})
	}
	return tris
}

func abs(f float32) float32 {
	return float32(gomath.Abs(float64(f)))
}

///////////////////////////////////////////////////////////////////////////
// Loading from files

// LoadOBJFile loads an OBJ model from the resources directory or the file
// system; .zst files are decompressed.
func LoadOBJFile(path string) (*Mesh, error) {
	b, err := util.LoadResourceOrFileBytes(path)
	if err != nil {
		return nil, err
	}
	return LoadOBJ(bytes.NewReader(b), path)
}

// meshCacheVersion must be bumped whenever Mesh changes in a way that
// makes cached meshes decode incorrectly.
const meshCacheVersion = 1

// NewMeshCache returns the on-disk cache used by LoadOBJCached.
func NewMeshCache() (*util.ObjectCache, error) {
	return util.NewObjectCache("meshes", meshCacheVersion)
}

// LoadOBJCached is like LoadOBJFile but keeps parsed meshes in cache,
// keyed by the file's contents.
func LoadOBJCached(path string, cache *util.ObjectCache, lg *log.Logger) (*Mesh, error) {
	b, err := util.LoadResourceOrFileBytes(path)
	if err != nil {
		return nil, err
	}

	key := util.CacheKey(b)
	var mesh Mesh
	if hit, err := cache.Lookup(key, &mesh); hit {
		lg.Debugf("%s: loaded mesh from cache", path)
		mesh.Name = path
		return &mesh, nil
	} else if err != nil {
		lg.Warnf("%s: discarding cached mesh: %v", path, err)
	}

	m, err := parseOBJ(bytes.NewReader(b), path, lg)
	if err != nil {
		return nil, err
	}
	if err := cache.Store(key, m); err != nil {
		lg.Warnf("%s: unable to cache mesh: %v", path, err)
	}
	lg.Info("loaded model", "name", m.Name, "vertices", m.VertexCount(), "triangles", m.TriangleCount(),
		"groups", len(m.Groups))
	return m, nil
}
