// renderer/viewer.go
// Copyright(c) 2022-2026 modelview contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package renderer

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Texture is implemented by all of the texture types.
type Texture interface {
	ID() TextureID
	Target() TextureTarget
}

const viewerVertexShader = `#version 410 core
in vec2 inPosition;
in vec2 inTexCoord;
uniform mat4 matTrans;
out vec2 texCoord;
void main() {
	gl_Position = matTrans * vec4(inPosition, 0.0, 1.0);
	texCoord = inTexCoord;
}
`

const viewer2DFragmentShader = `#version 410 core
in vec2 texCoord;
out vec4 fragColor;
uniform sampler2D drawTexture;
uniform int level;
void main() {
	fragColor = texture(drawTexture, texCoord);
	if (level >= 0)
		fragColor = textureLod(drawTexture, texCoord, level);
}
`

// The cube faces are laid out as an unfolded cross in a 4x3 grid: the
// +Y and -Y faces above and below +Z in the second column, with -X, +Z,
// +X, and -Z around the middle row. Fragments outside the cross are
// discarded.
const viewerCubeFragmentShader = `#version 410 core
in vec2 texCoord;
out vec4 fragColor;
uniform samplerCube drawTexture;
uniform int level;

vec4 lookup(vec3 dir) {
	if (level >= 0)
		return textureLod(drawTexture, dir, level);
	return texture(drawTexture, dir);
}

void main() {
	float x = texCoord.x, y = texCoord.y;
	bool middleRow = y >= 1.0/3.0 && y <= 2.0/3.0;
	vec2 c;
	if (y >= 2.0/3.0 && x >= 1.0/4.0 && x <= 2.0/4.0) {
		c = vec2((x - 1.0/4.0) * 8.0 - 1.0, (y - 2.0/3.0) * 6.0 - 1.0);
		fragColor = lookup(vec3(c.x, -1.0, -c.y));
	} else if (y <= 1.0/3.0 && x >= 1.0/4.0 && x <= 2.0/4.0) {
		c = vec2((x - 1.0/4.0) * 8.0 - 1.0, y * 6.0 - 1.0);
		fragColor = lookup(vec3(c.x, 1.0, c.y));
	} else if (middleRow && x >= 1.0/4.0 && x <= 2.0/4.0) {
		c = vec2((x - 1.0/4.0) * 8.0 - 1.0, (y - 1.0/3.0) * 6.0 - 1.0);
		fragColor = lookup(vec3(c.x, -c.y, 1.0));
	} else if (middleRow && x >= 3.0/4.0) {
		c = vec2((x - 3.0/4.0) * 8.0 - 1.0, (y - 1.0/3.0) * 6.0 - 1.0);
		fragColor = lookup(vec3(-c.x, -c.y, -1.0));
	} else if (middleRow && x <= 1.0/4.0) {
		c = vec2(x * 8.0 - 1.0, (y - 1.0/3.0) * 6.0 - 1.0);
		fragColor = lookup(vec3(-1.0, -c.y, c.x));
	} else if (middleRow && x >= 2.0/4.0 && x <= 3.0/4.0) {
		c = vec2((x - 2.0/4.0) * 8.0 - 1.0, (y - 1.0/3.0) * 6.0 - 1.0);
		fragColor = lookup(vec3(1.0, -c.y, -c.x));
	} else
		discard;
}
`

// The volume is shown as a 4x4 grid of slices, with the first slice at
// the lower left.
const viewerVolumeFragmentShader = `#version 410 core
in vec2 texCoord;
out vec4 fragColor;
uniform sampler3D drawTexture;
uniform int level;
void main() {
	const int rows = 4, columns = 4;
	int i = int(texCoord.x * columns);
	int j = int(texCoord.y * rows);
	vec3 coord = vec3(texCoord.x * columns - i, texCoord.y * rows - j,
	                  (i + j * columns) / float(rows * columns));
	fragColor = texture(drawTexture, coord);
	if (level >= 0)
		fragColor = textureLod(drawTexture, coord, level);
}
`

// Unit quad with the top row of the texture at y=1.
var viewerQuad = []float32{
	0, 0, 0, 1,
	1, 0, 1, 1,
	0, 1, 0, 0,
	1, 1, 1, 0,
}

var quadAttributes = []Attribute{Attrib("inPosition", 2), Attrib("inTexCoord", 2)}

// ViewParams specifies where a Viewer draws a texture: the lower-left
// corner of the unit quad is at (X, Y) in normalized device coordinates
// after it has been scaled by Scale*AspectXY in x and Scale in y. Level
// selects a mip level to show; a negative Level uses normal filtering.
type ViewParams struct {
	X, Y     float32
	Scale    float32
	AspectXY float32
	Level    int
}

// DefaultViewParams fills the lower-left quarter of the viewport.
func DefaultViewParams() ViewParams {
	return ViewParams{X: -1, Y: -1, Scale: 1, AspectXY: 1, Level: -1}
}

func (p ViewParams) Transform() mgl32.Mat4 {
	return mgl32.Translate3D(p.X, p.Y, 0).Mul4(mgl32.Scale3D(p.Scale*p.AspectXY, p.Scale, 1))
}

// Viewer draws a texture on a screen-aligned quad; it's mostly useful for
// debugging.
type Viewer struct {
	ctx     *Context
	name    string
	target  TextureTarget
	program ProgramID
	quad    *BufferSet

	locMat, locLevel, locTexture int32
}

// NewTextureViewer returns a Viewer for 2D textures.
func NewTextureViewer(ctx *Context) (*Viewer, error) {
	return newViewer(ctx, "texture viewer", TargetTexture2D, viewer2DFragmentShader)
}

// NewCubeViewer returns a Viewer that shows cube maps unfolded into a
// cross.
func NewCubeViewer(ctx *Context) (*Viewer, error) {
	return newViewer(ctx, "cube viewer", TargetTextureCube, viewerCubeFragmentShader)
}

// NewVolumeViewer returns a Viewer that shows 3D textures as a grid of
// slices.
func NewVolumeViewer(ctx *Context) (*Viewer, error) {
	return newViewer(ctx, "volume viewer", TargetTexture3D, viewerVolumeFragmentShader)
}

func newViewer(ctx *Context, name string, target TextureTarget, fs string) (*Viewer, error) {
	p, err := ctx.CompileProgram(name, viewerVertexShader, fs)
	if err != nil {
		return nil, err
	}
	quad, err := NewBufferSetFromData(ctx, viewerQuad, quadAttributes, []uint32{0, 1, 2, 3})
	if err != nil {
		ctx.ReleaseProgram(p)
		return nil, err
	}
	return &Viewer{
		ctx:        ctx,
		name:       name,
		target:     target,
		program:    p,
		quad:       quad,
		locMat:     ctx.UniformLocation(p, "matTrans"),
		locLevel:   ctx.UniformLocation(p, "level"),
		locTexture: ctx.UniformLocation(p, "drawTexture"),
	}, nil
}

// View draws tex according to p. The current program, the binding on
// texture unit 0, and the depth test state are all restored before it
// returns.
func (v *Viewer) View(tex Texture, p ViewParams) error {
	if v.program == 0 || !v.ctx.IsProgram(v.program) {
		return fmt.Errorf("%s: %w", v.name, ErrNoProgram)
	}
	if tex.Target() != v.target {
		return fmt.Errorf("%s: can't view texture with target 0x%x", v.name, uint32(tex.Target()))
	}

	defer UseProgram(v.ctx, v.program)()
	defer BindTextureUnit(v.ctx, 0, v.target, tex.ID())()
	defer SetCapability(v.ctx, DepthTest, false)()

	v.ctx.UniformMatrix4f(v.locMat, p.Transform())
	v.ctx.Uniform1i(v.locLevel, int32(p.Level))
	v.ctx.Uniform1i(v.locTexture, 0)
	v.quad.Draw(TriangleStrip, v.program)
	return nil
}

func (v *Viewer) Program() ProgramID { return v.program }

// Destroy releases the viewer's program and geometry.
func (v *Viewer) Destroy() {
	v.quad.Destroy()
	if v.program != 0 {
		v.ctx.ReleaseProgram(v.program)
		v.program = 0
	}
}
