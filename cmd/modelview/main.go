// cmd/modelview/main.go
// Copyright(c) 2022-2026 modelview contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package main

// This file contains the implementation of the main() function, which
// initializes the system and then runs the event loop until the window
// is closed.

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/mmp/modelview/font"
	"github.com/mmp/modelview/log"
	"github.com/mmp/modelview/platform"
	"github.com/mmp/modelview/platform/desktop"
	"github.com/mmp/modelview/renderer"
	"github.com/mmp/modelview/renderer/ogl"
	"github.com/mmp/modelview/scene"
	"github.com/mmp/modelview/util"

	"github.com/apenwarr/fixconsole"
	"github.com/goforj/godump"
	"github.com/ncruces/zenity"
)

const defaultModel = "models/plane.obj"

var (
	logLevel       = flag.String("loglevel", "info", "logging level: debug, info, warn, error")
	logDir         = flag.String("logdir", "", "log file directory")
	modelFilename  = flag.String("model", "", "OBJ file to view")
	skyboxFilename = flag.String("skybox", "", "skybox image file name; face suffixes are inserted before the extension")
	skyboxSuffixes = flag.String("skyboxsuffixes", "", "skybox face naming: "+strings.Join(util.SortedMapKeys(renderer.CubeSuffixes), ", "))
	textureFile    = flag.String("texture", "", "image file for the model's texture")
	width          = flag.Int("width", 0, "initial window width")
	height         = flag.Int("height", 0, "initial window height")
	msaa           = flag.Bool("msaa", true, "enable multisample antialiasing")
	fullscreen     = flag.Bool("fullscreen", false, "start in full-screen mode")
	glDebug        = flag.Bool("gldebug", false, "check for OpenGL errors after every frame")
	watchShaders   = flag.Bool("watchshaders", false, "recompile shaders when their source files change")
	dumpConfig     = flag.Bool("dumpconfig", false, "print the configuration and exit")
	resetConfig    = flag.Bool("resetconfig", false, "ignore the saved configuration")
	cacheSize      = flag.Int("cachesize", 256, "maximum size of the model cache, in MiB")
	resourcesDir   = flag.String("resources", "", "resources directory; found automatically if empty")
)

func init() {
	// OpenGL and friends require that all calls be made from the primary
	// application thread, while by default, go allows the main thread to
	// run on different hardware threads over the course of
	// execution. Therefore, we must lock the main thread at startup time.
	runtime.LockOSThread()
}

func validSuffixes(name string) ([6]string, bool) {
	s, ok := renderer.CubeSuffixes[strings.ToLower(name)]
	return s, ok
}

// fatal reports an error that prevents the viewer from running both in
// the log and in a dialog box and then exits.
func fatal(lg *log.Logger, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	lg.Error(msg)
	fmt.Fprintln(os.Stderr, msg)
	if err := zenity.Error(msg, zenity.Title("modelview"), zenity.ErrorIcon); err != nil {
		lg.Warnf("error dialog: %v", err)
	}
	os.Exit(1)
}

// applyFlags overrides the saved configuration with any flags that were
// given on the command line.
func applyFlags(config *Config, lg *log.Logger) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "model":
			config.LastModel = *modelFilename
		case "skybox":
			config.Skybox = *skyboxFilename
		case "skyboxsuffixes":
			if _, ok := validSuffixes(*skyboxSuffixes); ok {
				config.SkyboxSuffixes = *skyboxSuffixes
			} else {
				lg.Warnf("%s: unknown skybox suffixes; using %s", *skyboxSuffixes, config.SkyboxSuffixes)
			}
		case "texture":
			config.Texture = *textureFile
		case "width":
			config.InitialWindowSize[0] = *width
		case "height":
			config.InitialWindowSize[1] = *height
		case "msaa":
			config.EnableMSAA = *msaa
		case "fullscreen":
			config.StartInFullScreen = *fullscreen
		}
	})

	if config.LastModel == "" || !util.ResourceOrFileExists(config.LastModel) {
		if config.LastModel != "" {
			lg.Warnf("%s: model not found; using %s", config.LastModel, defaultModel)
		}
		config.LastModel = defaultModel
	}
}

// openModel asks the user for an OBJ file and switches the viewer to it.
func openModel(v *scene.ModelViewer, lg *log.Logger) {
	path, err := zenity.SelectFile(
		zenity.Title("Open Model"),
		zenity.Filename(filepath.Dir(v.ModelPath())+string(filepath.Separator)),
		zenity.FileFilters{
			{
				Name:     "OBJ Models",
				Patterns: []string{"*.obj"},
				CaseFold: true,
			},
		},
	)
	if errors.Is(err, zenity.ErrCanceled) {
		return
	} else if err != nil {
		lg.Errorf("Error selecting model: %v", err)
		return
	}

	if err := v.LoadModel(path); err != nil {
		lg.Errorf("%s: %v", path, err)
		if err := zenity.Error(fmt.Sprintf("Unable to load %s:\n\n%v", path, err), zenity.Title("modelview"),
			zenity.WarningIcon); err != nil {
			lg.Warnf("error dialog: %v", err)
		}
	}
}

func main() {
	flag.Parse()

	if err := fixconsole.FixConsoleIfNeeded(); err != nil {
		// Not sure this will actually appear, but what else are we going
		// to do...
		fmt.Printf("FixConsole: %v\n", err)
	}

	// Initialize the logging system first and foremost.
	lg := log.New(*logLevel, *logDir)
	defer lg.CatchAndReportCrash()

	if *resourcesDir != "" {
		util.SetResourcesDir(*resourcesDir)
	}

	config, configErr := LoadOrMakeDefaultConfig(*resetConfig, lg)
	if configErr != nil {
		lg.Warnf("Saved configuration is unusable; discarding it: %v", configErr)
	}
	applyFlags(config, lg)

	if *dumpConfig {
		godump.Dump(config)
		return
	}

	meshCache, err := scene.NewMeshCache()
	if err != nil {
		lg.Warnf("Unable to open the model cache; models won't be cached: %v", err)
	} else if n, err := meshCache.Cull(int64(*cacheSize) * 1024 * 1024); err != nil {
		lg.Warnf("%s: unable to cull cache: %v", meshCache.Dir(), err)
	} else if n > 0 {
		lg.Infof("%s: removed %d cached models", meshCache.Dir(), n)
	}

	///////////////////////////////////////////////////////////////////////////
	// Window, device, and scene creation. The GL context must be current
	// before the device is created.

	plat, err := desktop.New(&config.Config, "modelview", lg)
	if err != nil {
		fatal(lg, "Unable to create application window: %v", err)
	}
	defer plat.Dispose()

	dev, err := ogl.New(lg)
	if err != nil {
		fatal(lg, "Unable to initialize OpenGL: %v", err)
	}
	defer dev.Dispose()
	ctx := renderer.NewContext(dev, lg)

	face, err := font.NewGoRegular(12)
	if err != nil {
		fatal(lg, "Unable to load font: %v", err)
	}
	defer face.Close()

	shaderDir, err := util.ResourcePath("shaders")
	if err != nil {
		fatal(lg, "Unable to find shaders: %v", err)
	}

	suffixes, _ := validSuffixes(config.SkyboxSuffixes)
	fb := plat.FramebufferSize()
	viewer, err := scene.NewModelViewer(ctx, scene.ViewerConfig{
		ShaderDir:      shaderDir,
		Model:          config.LastModel,
		SkyModel:       "models/skybox.obj",
		Texture:        config.Texture,
		Skybox:         config.Skybox,
		SkyboxSuffixes: suffixes,
		Font:           face,
		Width:          fb[0],
		Height:         fb[1],
		MeshCache:      meshCache,
		WatchShaders:   *watchShaders,
	}, lg)
	if err != nil {
		fatal(lg, "Unable to load the scene: %v", err)
	}
	defer viewer.Destroy()

	if config.Camera != nil {
		viewer.Camera = *config.Camera
	}
	viewer.HalfRate = config.HalfRate
	viewer.Textured = config.Textured
	lg.Info("Scene loaded", "stats", ctx.Stats())

	///////////////////////////////////////////////////////////////////////////
	// Main event / rendering loop
	lg.Info("Starting main loop")

	swapInterval := 1
	lastTime := plat.Time()
	frames, lastTitle := 0, lastTime
	for !plat.ShouldStop() && !viewer.ShouldQuit() {
		plat.ProcessEvents()

		fb := plat.FramebufferSize()
		viewer.Resize(fb[0], fb[1])
		viewer.HandleInput(plat.Input())
		if viewer.TakeOpenRequest() {
			openModel(viewer, lg)
		}
		if si := viewer.SwapInterval(); si != swapInterval {
			plat.SetSwapInterval(si)
			swapInterval = si
		}

		now := plat.Time()
		viewer.Update(now - lastTime)
		lastTime = now

		viewer.Render()
		if *glDebug {
			ctx.CheckError("frame")
		}
		plat.PostRender()

		if frames++; now-lastTitle >= 1 {
			setTitle(plat, viewer, float64(frames)/(now-lastTitle))
			frames, lastTitle = 0, now
		}
	}

	lg.Info("Exiting", "stats", ctx.Stats())
	config.Update(viewer, plat)
	config.SaveIfChanged(lg)
}

func setTitle(plat platform.Platform, v *scene.ModelViewer, fps float64) {
	plat.SetWindowTitle(fmt.Sprintf("modelview: %s (%.1f fps)", filepath.Base(v.ModelPath()), fps))
}
