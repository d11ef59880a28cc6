// scene/viewer.go
// Copyright(c) 2022-2026 modelview contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package scene

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/mmp/modelview/log"
	"github.com/mmp/modelview/pixel"
	"github.com/mmp/modelview/platform"
	"github.com/mmp/modelview/renderer"
	"github.com/mmp/modelview/util"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	HelpText = "[LMB] camera, [WSAD] to move, [L-Shift], [L-Ctrl] for camera up/down, [F] to swap shaders, " +
		"[P] to pause animations, [C] to change sync interval."
	HelpText2 = "[Space] first person, [O] open model, [V] inspect textures, [F12] screenshot, [Esc] quit"
)

var (
	// swapYZ converts models authored with +y up to the scene's +z up.
	swapYZ = mgl32.Mat4{
		1, 0, 0, 0,
		0, 0, 1, 0,
		0, 1, 0, 0,
		0, 0, 0, 1,
	}
	// The propeller hub, in the scene's coordinate system.
	propToRoot = mgl32.Translate3D(0, -3.125, -1.235)
	rootToProp = mgl32.Translate3D(0, 3.125, 1.235)

	lightPosition = [3]float32{-5, 1, 5}
	clearColor    = [4]float32{0.2, 0.2, 0.2, 1}

	skyHorizon = color.NRGBA{R: 200, G: 215, B: 230, A: 255}
	skyZenith  = color.NRGBA{R: 60, G: 110, B: 190, A: 255}
)

const skyScale = 500

// Names of the groups in a model that are drawn with the propeller's
// rotation.
var propellerGroups = []string{"prop", "propeller"}

// ViewerConfig gives the files that a ModelViewer loads.
type ViewerConfig struct {
	// Directory holding the piper, plain, and sky shaders.
	ShaderDir string
	// OBJ files for the model and the sky geometry.
	Model    string
	SkyModel string
	// Image for the model's texture; a checkerboard is used if it is
	// empty or can't be loaded.
	Texture string
	// Skybox is passed to renderer.CubeFaceNames with SkyboxSuffixes to
	// find the six faces of the sky; a gradient is used if it is empty or
	// can't be loaded.
	Skybox         string
	SkyboxSuffixes [6]string
	// Font for the on-screen text.
	Font renderer.Rasterizer
	// Initial framebuffer size.
	Width, Height int
	// Where F12 saves screenshots; the working directory if empty.
	ScreenshotDir string
	// Parsed models are kept here if it is non-nil.
	MeshCache *util.ObjectCache
	// Recompile shaders when their sources change.
	WatchShaders bool
}

type inspectMode int

const (
	inspectNone inspectMode = iota
	inspectModelTexture
	inspectSky
	inspectModeCount
)

// ModelViewer draws an animated model inside a skybox and handles the
// camera controls. It owns all of the GPU resources of the scene.
type ModelViewer struct {
	ctx    *renderer.Context
	config ViewerConfig
	lg     *log.Logger

	shaders             *ShaderLibrary
	piper, plain, sky   *Shader
	images              *ImageLoader
	mesh, skyMesh       *Mesh
	model, skyBuffers   *renderer.BufferSet
	modelTexture        *renderer.Texture2D
	skyTexture          *renderer.TextureCube
	overlay             *renderer.TextOverlay
	overlayText         []overlayString
	texViewer, cubeView *renderer.Viewer

	Camera    Camera
	Animation Animation
	// Textured selects between the textured, lit shader and the plain
	// one.
	Textured bool
	// HalfRate swaps buffers every other vertical blank.
	HalfRate bool

	width, height int
	proj          mgl32.Mat4
	inspect       inspectMode

	quit           bool
	openRequested  bool
	screenshotNext bool
}

type overlayString struct {
	x, y int
	text string
}

// NewModelViewer loads the scene described by config. Missing textures are
// replaced with generated ones, but the shaders and models must load.
func NewModelViewer(ctx *renderer.Context, config ViewerConfig, lg *log.Logger) (*ModelViewer, error) {
	v := &ModelViewer{
		ctx:      ctx,
		config:   config,
		lg:       lg,
		shaders:  NewShaderLibrary(ctx, config.ShaderDir, lg),
		images:   NewImageLoader(ctx.Info().MaxTextureSize, 16, 10*time.Minute, lg),
		Camera:   DefaultCamera(),
		Textured: true,
	}

	if err := v.init(); err != nil {
		v.Destroy()
		return nil, err
	}
	return v, nil
}

// DefaultCamera returns the camera's starting pose, looking at the model
// from in front and above.
func DefaultCamera() Camera {
	c := NewCamera()
	c.Position = mgl32.Vec3{6, 6, 3}
	c.Azimuth = math.Pi * 1.25
	c.Zenith = math.Pi * -0.085
	return c
}

func (v *ModelViewer) init() error {
	var err error
	for _, s := range []struct {
		name string
		sh   **Shader
	}{{"piper", &v.piper}, {"plain", &v.plain}, {"sky", &v.sky}} {
		if *s.sh, err = v.shaders.Load(s.name); err != nil {
			return err
		}
	}
	if v.config.WatchShaders {
		if err := v.shaders.Watch(); err != nil {
			v.lg.Warnf("unable to watch shaders: %v", err)
		}
	}

	if err := v.LoadModel(v.config.Model); err != nil {
		return err
	}
	if v.skyMesh, err = v.loadMesh(v.config.SkyModel); err != nil {
		return err
	}
	if v.skyBuffers, err = v.skyMesh.Upload(v.ctx); err != nil {
		return err
	}

	v.loadModelTexture()
	v.loadSkyTexture()

	if v.texViewer, err = renderer.NewTextureViewer(v.ctx); err != nil {
		return err
	}
	if v.cubeView, err = renderer.NewCubeViewer(v.ctx); err != nil {
		return err
	}

	if v.overlay, err = renderer.NewTextOverlay(v.ctx, max(1, v.config.Width), max(1, v.config.Height), v.config.Font); err != nil {
		return err
	}
	v.Resize(v.config.Width, v.config.Height)

	v.ctx.ClearColor(clearColor)
	v.ctx.Enable(renderer.DepthTest)
	return nil
}

func (v *ModelViewer) loadMesh(path string) (*Mesh, error) {
	if v.config.MeshCache != nil {
		return LoadOBJCached(path, v.config.MeshCache, v.lg)
	}
	return LoadOBJFile(path)
}

// LoadModel replaces the current model with the one at path. The current
// model is kept if the new one can't be loaded.
func (v *ModelViewer) LoadModel(path string) error {
	mesh, err := v.loadMesh(path)
	if err != nil {
		return err
	}
	buffers, err := mesh.Upload(v.ctx)
	if err != nil {
		return err
	}

	if v.model != nil {
		v.model.Destroy()
	}
	v.mesh, v.model = mesh, buffers
	v.config.Model = path
	v.lg.Infof("%s", mesh)
	return nil
}

func (v *ModelViewer) loadModelTexture() {
	if v.config.Texture != "" {
		tex, err := renderer.NewTexture2DFromFile(v.ctx, v.config.Texture, v.images)
		if err == nil {
			tex.GenerateMipmaps()
			v.modelTexture = tex
			return
		}
		v.lg.Warnf("%s: %v; using a checkerboard instead", v.config.Texture, err)
	}

	img := Checkerboard(256, 8, color.NRGBA{R: 230, G: 200, B: 40, A: 255}, color.NRGBA{R: 40, G: 40, B: 40, A: 255})
	tex, err := renderer.NewTexture2DFromGoImage(v.ctx, img)
	if err != nil {
		// This only fails if the device is in a bad state.
		v.lg.Errorf("checkerboard texture: %v", err)
		return
	}
	tex.GenerateMipmaps()
	v.modelTexture = tex
}

func (v *ModelViewer) loadSkyTexture() {
	var faces [6]image.Image
	var err error
	if v.config.Skybox != "" {
		names := renderer.CubeFaceNames(v.config.Skybox, v.config.SkyboxSuffixes)
		if faces, err = v.images.LoadCubeFaces(names); err != nil {
			v.lg.Warnf("%s: %v; using a gradient sky instead", v.config.Skybox, err)
		}
	}
	if v.config.Skybox == "" || err != nil {
		faces = GradientSky(64, skyHorizon, skyZenith)
	}

	if v.skyTexture, err = renderer.NewTextureCubeFromGoImages(v.ctx, faces); err != nil {
		v.lg.Warnf("sky cube map: %v; using a gradient sky instead", err)
		v.skyTexture, err = renderer.NewTextureCubeFromGoImages(v.ctx, GradientSky(64, skyHorizon, skyZenith))
		if err != nil {
			v.lg.Errorf("gradient sky: %v", err)
		}
	}
}

// Resize updates the projection and the text overlay for a new
// framebuffer size; sizes that are zero (as happens when the window is
// minimized) are ignored.
func (v *ModelViewer) Resize(width, height int) {
	if width <= 0 || height <= 0 || (width == v.width && height == v.height) {
		return
	}
	v.width, v.height = width, height
	v.proj = mgl32.Perspective(math.Pi/4, float32(width)/float32(height), 0.01, 1000)
	if err := v.overlay.Resize(width, height); err != nil {
		v.lg.Errorf("text overlay resize: %v", err)
	}
	v.overlayText = nil
}

func (v *ModelViewer) Size() (int, int) {
	return v.width, v.height
}

// HandleInput applies the frame's keyboard and mouse input.
func (v *ModelViewer) HandleInput(in *platform.InputState) {
	const step = 1

	for range in.PressCount(platform.KeyW) {
		v.Camera.Forward(step)
	}
	for range in.PressCount(platform.KeyS) {
		v.Camera.Backward(step)
	}
	for range in.PressCount(platform.KeyA) {
		v.Camera.Left(step)
	}
	for range in.PressCount(platform.KeyD) {
		v.Camera.Right(step)
	}
	for range in.PressCount(platform.KeyLeftShift) {
		v.Camera.Up(step)
	}
	for range in.PressCount(platform.KeyLeftControl) {
		v.Camera.Down(step)
	}

	toggle := func(k platform.Key, b *bool) {
		if in.PressCount(k)%2 == 1 {
			*b = !*b
		}
	}
	toggle(platform.KeySpace, &v.Camera.FirstPerson)
	toggle(platform.KeyP, &v.Animation.Paused)
	toggle(platform.KeyF, &v.Textured)
	toggle(platform.KeyC, &v.HalfRate)

	if in.WasPressed(platform.KeyV) {
		v.inspect = (v.inspect + inspectMode(in.PressCount(platform.KeyV))) % inspectModeCount
	}
	if in.WasPressed(platform.KeyO) {
		v.openRequested = true
	}
	if in.WasPressed(platform.KeyF12) {
		v.screenshotNext = true
	}
	if in.WasPressed(platform.KeyEscape) {
		v.quit = true
	}

	if d := in.Mouse.DragDelta; d != [2]float32{} && v.width > 0 {
		// Both angles are scaled by the width so that the rotation rate
		// is the same horizontally and vertically.
		w := float32(v.width)
		v.Camera.AddAzimuth(math.Pi * -d[0] / w)
		v.Camera.AddZenith(math.Pi * -d[1] / w)
	}
}

// ShouldQuit reports whether the user asked to exit.
func (v *ModelViewer) ShouldQuit() bool {
	return v.quit
}

// TakeOpenRequest reports whether the user asked to open another model
// since the last call.
func (v *ModelViewer) TakeOpenRequest() bool {
	r := v.openRequested
	v.openRequested = false
	return r
}

// SwapInterval returns the number of vertical blanks to wait between
// buffer swaps.
func (v *ModelViewer) SwapInterval() int {
	if v.HalfRate {
		return 2
	}
	return 1
}

// Update advances the animation by dt seconds and picks up any shader
// changes.
func (v *ModelViewer) Update(dt float64) {
	v.Animation.Update(dt)
	if _, err := v.shaders.Poll(); err != nil {
		v.lg.Warnf("shader reload: %v", err)
	}
}

// Render draws a frame to the current framebuffer.
func (v *ModelViewer) Render() {
	v.ctx.ResetDrawCalls()

	if v.screenshotNext {
		v.screenshotNext = false
		if path, err := v.SaveScreenshot(); err != nil {
			v.lg.Errorf("screenshot: %v", err)
		} else {
			v.lg.Infof("saved screenshot %s", path)
		}
	}

	v.ctx.Viewport(0, 0, int32(v.width), int32(v.height))
	v.drawScene()
	v.drawInspector()
	v.drawOverlay()
}

func (v *ModelViewer) drawScene() {
	v.ctx.Clear(renderer.ColorBufferBit | renderer.DepthBufferBit)

	view := v.Camera.ViewMatrix()
	body := v.Animation.BodyRotation()
	prop := rootToProp.Mul4(v.Animation.PropellerRotation()).Mul4(propToRoot)
	pv := v.proj.Mul4(view)

	sh := v.plain
	if v.Textured {
		sh = v.piper
	}
	p := sh.Program
	restore := renderer.UseProgram(v.ctx, p)
	v.setUniform1f(p, "height", float32(v.height))
	v.setUniform3f(p, "lightPosition", lightPosition)
	if v.modelTexture != nil && v.Textured {
		v.modelTexture.Bind(p, "modelTexture", 0)
		v.ctx.TexParameter(renderer.TargetTexture2D, renderer.TexWrapT, renderer.Repeat)
	}

	propGroups, bodyGroups := v.splitGroups()
	v.setMatrix(p, "mat", pv.Mul4(body).Mul4(swapYZ))
	v.setMatrix(p, "mv", swapYZ)
	for _, g := range bodyGroups {
		v.model.DrawRange(renderer.Triangles, p, g.Count, g.Start)
	}
	if len(propGroups) > 0 {
		v.setMatrix(p, "mat", pv.Mul4(body).Mul4(prop).Mul4(swapYZ))
		v.setMatrix(p, "mv", v.Animation.PropellerRotation().Mul4(swapYZ))
		for _, g := range propGroups {
			v.model.DrawRange(renderer.Triangles, p, g.Count, g.Start)
		}
	}
	restore()

	if v.skyTexture != nil {
		p = v.sky.Program
		defer renderer.UseProgram(v.ctx, p)()
		v.setMatrix(p, "mat", pv.Mul4(mgl32.Scale3D(skyScale, skyScale, skyScale)).Mul4(swapYZ))
		v.setUniform1f(p, "height", float32(v.height))
		v.skyTexture.Bind(p, "skybox", 0)
		v.skyBuffers.Draw(renderer.Triangles, p)
	}
}

// splitGroups separates the propeller's groups from the rest of the
// model.
func (v *ModelViewer) splitGroups() (prop, body []Group) {
	for _, g := range v.mesh.Groups {
		if slices.Contains(propellerGroups, g.Name) {
			prop = append(prop, g)
		} else {
			body = append(body, g)
		}
	}
	return
}

func (v *ModelViewer) setMatrix(p renderer.ProgramID, name string, m mgl32.Mat4) {
	v.ctx.UniformMatrix4f(v.ctx.UniformLocation(p, name), m)
}

func (v *ModelViewer) setUniform1f(p renderer.ProgramID, name string, f float32) {
	v.ctx.Uniform1f(v.ctx.UniformLocation(p, name), f)
}

func (v *ModelViewer) setUniform3f(p renderer.ProgramID, name string, f [3]float32) {
	v.ctx.Uniform3f(v.ctx.UniformLocation(p, name), f)
}

// drawInspector shows one of the scene's textures in the lower left
// corner.
func (v *ModelViewer) drawInspector() {
	params := renderer.DefaultViewParams()
	params.Scale = 0.5
	params.AspectXY = float32(v.height) / float32(v.width)

	var err error
	switch v.inspect {
	case inspectModelTexture:
		if v.modelTexture != nil {
			err = v.texViewer.View(v.modelTexture, params)
		}
	case inspectSky:
		if v.skyTexture != nil {
			// The unfolded cube is 4:3.
			params.AspectXY *= 4.0 / 3
			err = v.cubeView.View(v.skyTexture, params)
		}
	}
	if err != nil {
		v.lg.Errorf("texture inspector: %v", err)
		v.inspect = inspectNone
	}
}

func (v *ModelViewer) overlayStrings() []overlayString {
	s := []overlayString{
		{3, 20, HelpText},
		{3, 40, HelpText2},
		{v.width - 225, v.height - 5, "modelview: " + filepath.Base(v.mesh.Name)},
	}
	if v.Animation.Paused {
		s = append(s, overlayString{3, 60, "[paused]"})
	}
	return s
}

// drawOverlay draws the on-screen text. The overlay texture is only
// rewritten when the text changes.
func (v *ModelViewer) drawOverlay() {
	if text := v.overlayStrings(); !slices.Equal(text, v.overlayText) {
		err := v.overlay.Clear()
		for _, s := range text {
			err = errors.Join(err, v.overlay.AddString(s.x, s.y, s.text))
		}
		if err != nil {
			v.lg.Errorf("text overlay: %v", err)
		}
		v.overlayText = text
	}
	v.overlay.Draw()
}

// Screenshot renders the scene without the on-screen text into an
// offscreen target and returns the result with the top row first.
func (v *ModelViewer) Screenshot() (*image.NRGBA, error) {
	rt, err := renderer.NewRenderTarget(v.ctx, v.width, v.height, 1, pixel.RGBA8)
	if err != nil {
		return nil, err
	}
	defer rt.Destroy()

	rt.Render(v.drawScene)
	img, err := rt.ColorTexture(0).ToImage()
	if err != nil {
		return nil, err
	}
	flipVertical(img)
	return img, nil
}

// SaveScreenshot writes a screenshot as a PNG file and returns its path.
func (v *ModelViewer) SaveScreenshot() (string, error) {
	img, err := v.Screenshot()
	if err != nil {
		return "", err
	}

	path := filepath.Join(v.config.ScreenshotDir, "modelview-"+time.Now().Format("20060102-150405")+".png")
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return "", err
	}
	return path, f.Close()
}

func flipVertical(img *image.NRGBA) {
	h := img.Bounds().Dy()
	row := make([]byte, img.Stride)
	for y := range h / 2 {
		a := img.Pix[y*img.Stride : (y+1)*img.Stride]
		b := img.Pix[(h-1-y)*img.Stride : (h-y)*img.Stride]
		copy(row, a)
		copy(a, b)
		copy(b, row)
	}
}

func (v *ModelViewer) ModelPath() string {
	return v.config.Model
}

func (v *ModelViewer) Stats() renderer.Stats {
	return v.ctx.Stats()
}

func (v *ModelViewer) String() string {
	return fmt.Sprintf("model %s, camera %s, textured %v, swap interval %d", v.config.Model, v.Camera,
		v.Textured, v.SwapInterval())
}

// Destroy releases all of the scene's resources; it is safe to call on a
// partially initialized viewer.
func (v *ModelViewer) Destroy() {
	for _, b := range []*renderer.BufferSet{v.model, v.skyBuffers} {
		if b != nil {
			b.Destroy()
		}
	}
	if v.modelTexture != nil {
		v.modelTexture.Destroy()
	}
	if v.skyTexture != nil {
		v.skyTexture.Destroy()
	}
	for _, vw := range []*renderer.Viewer{v.texViewer, v.cubeView} {
		if vw != nil {
			vw.Destroy()
		}
	}
	if v.overlay != nil {
		v.overlay.Destroy()
	}
	v.shaders.Destroy()
	v.images.Purge()
}
