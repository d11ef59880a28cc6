// platform/desktop/glfw.go
// Copyright(c) 2022-2026 modelview contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package desktop implements platform.Platform with a GLFW window and an
// OpenGL 4.1 core profile context.
package desktop

import (
	"fmt"
	"strconv"

	"github.com/mmp/modelview/log"
	"github.com/mmp/modelview/platform"

	"github.com/go-gl/glfw/v3.3/glfw"
)

// glfwPlatform implements the Platform interface using GLFW.
type glfwPlatform struct {
	window *glfw.Window
	config *platform.Config
	input  *platform.InputState

	start       float64
	anyEvents   bool
	windowTitle string

	arrowCursor, dragCursor *glfw.Cursor
	dragging                bool
}

// New returns a new instance of a Platform implemented with a window
// of the specified size open at the specified position on the screen.
func New(config *platform.Config, title string, lg *log.Logger) (platform.Platform, error) {
	lg.Info("Starting GLFW initialization")
	err := glfw.Init()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize glfw: %w", err)
	}
	lg.Infof("GLFW: %s", glfw.GetVersionString())

	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.Resizable, glfw.True)

	vm := glfw.GetPrimaryMonitor().GetVideoMode()
	if config.InitialWindowSize[0] == 0 || config.InitialWindowSize[1] == 0 {
		config.InitialWindowSize = [2]int{1280, 720}
	}

	// If the window position is unset or out of bounds, center the window.
	if config.InitialWindowPosition == [2]int{} ||
		config.InitialWindowPosition[0] < 0 || config.InitialWindowPosition[1] < 0 ||
		config.InitialWindowPosition[0] > vm.Width || config.InitialWindowPosition[1] > vm.Height {
		config.InitialWindowPosition = [2]int{
			max(0, (vm.Width-config.InitialWindowSize[0])/2),
			max(0, (vm.Height-config.InitialWindowSize[1])/2),
		}
	}
	// Start with an invisible window so that we can position it first
	glfw.WindowHint(glfw.Visible, glfw.False)
	// Disable GLFW_AUTO_ICONIFY to stop the window from automatically minimizing in fullscreen
	glfw.WindowHint(glfw.AutoIconify, glfw.False)
	if config.EnableMSAA {
		glfw.WindowHint(glfw.Samples, 4)
	}

	var window *glfw.Window
	monitors := glfw.GetMonitors()
	if config.FullScreenMonitor >= len(monitors) {
		// Monitor saved in config not found, fallback to default
		config.FullScreenMonitor = 0
	}
	if config.StartInFullScreen {
		vm := monitors[config.FullScreenMonitor].GetVideoMode()
		window, err = glfw.CreateWindow(vm.Width, vm.Height, title, monitors[config.FullScreenMonitor], nil)
	} else {
		window, err = glfw.CreateWindow(config.InitialWindowSize[0], config.InitialWindowSize[1], title, nil, nil)
	}
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("failed to create window: %w", err)
	}
	window.SetPos(config.InitialWindowPosition[0], config.InitialWindowPosition[1])
	window.Show()
	window.MakeContextCurrent()

	g := &glfwPlatform{
		window:      window,
		config:      config,
		input:       platform.NewInputState(),
		start:       glfw.GetTime(),
		windowTitle: title,
		arrowCursor: glfw.CreateStandardCursor(glfw.ArrowCursor),
		dragCursor:  glfw.CreateStandardCursor(glfw.HandCursor),
	}
	x, y := window.GetCursorPos()
	g.input.CursorEvent(float32(x), float32(y))
	g.installCallbacks()
	g.SetSwapInterval(1)

	glfw.SetMonitorCallback(g.monitorCallback)

	lg.Info("Finished GLFW initialization")
	return g, nil
}

func (g *glfwPlatform) SetSwapInterval(n int) {
	glfw.SwapInterval(n)
}

func (g *glfwPlatform) IsFullScreen() bool {
	return g.window.GetMonitor() != nil
}

func (g *glfwPlatform) EnableFullScreen(fullscreen bool) {
	monitors := glfw.GetMonitors()
	if g.config.FullScreenMonitor >= len(monitors) {
		// Shouldn't happen, but just to be sure
		g.config.FullScreenMonitor = 0
	}

	monitor := monitors[g.config.FullScreenMonitor]
	vm := monitor.GetVideoMode()
	if fullscreen {
		g.window.SetMonitor(monitor, 0, 0, vm.Width, vm.Height, vm.RefreshRate)
	} else {
		g.window.SetMonitor(nil, g.config.InitialWindowPosition[0], g.config.InitialWindowPosition[1],
			g.config.InitialWindowSize[0], g.config.InitialWindowSize[1], glfw.DontCare)
	}
}

func (g *glfwPlatform) GetAllMonitorNames() []string {
	var monitorNames []string
	for index, monitor := range glfw.GetMonitors() {
		monitorNames = append(monitorNames, "("+strconv.Itoa(index)+") "+monitor.GetName())
	}
	return monitorNames
}

func (g *glfwPlatform) monitorCallback(monitor *glfw.Monitor, event glfw.PeripheralEvent) {
	if event == glfw.Disconnected {
		g.config.FullScreenMonitor = 0
		g.config.StartInFullScreen = false
	}
}

func (g *glfwPlatform) Dispose() {
	g.arrowCursor.Destroy()
	g.dragCursor.Destroy()
	g.window.Destroy()
	glfw.Terminate()
}

func (g *glfwPlatform) ShouldStop() bool {
	return g.window.ShouldClose()
}

func (g *glfwPlatform) SetShouldStop(stop bool) {
	g.window.SetShouldClose(stop)
}

func (g *glfwPlatform) ProcessEvents() bool {
	g.anyEvents = false
	g.input.BeginFrame()

	glfw.PollEvents()

	// Show a hand while the camera is being dragged.
	if dragging := g.input.Mouse.Down[platform.MouseButtonPrimary]; dragging != g.dragging {
		g.dragging = dragging
		if dragging {
			g.window.SetCursor(g.dragCursor)
		} else {
			g.window.SetCursor(g.arrowCursor)
		}
	}
	return g.anyEvents
}

func (g *glfwPlatform) WindowSize() [2]int {
	w, h := g.window.GetSize()
	return [2]int{w, h}
}

func (g *glfwPlatform) WindowPosition() [2]int {
	x, y := g.window.GetPos()
	return [2]int{x, y}
}

func (g *glfwPlatform) FramebufferSize() [2]int {
	w, h := g.window.GetFramebufferSize()
	return [2]int{w, h}
}

func (g *glfwPlatform) Time() float64 {
	return glfw.GetTime() - g.start
}

func (g *glfwPlatform) Input() *platform.InputState {
	return g.input
}

func (g *glfwPlatform) PostRender() {
	g.window.SwapBuffers()
}

func (g *glfwPlatform) SetWindowTitle(text string) {
	if text != g.windowTitle {
		g.window.SetTitle(text)
		g.windowTitle = text
	}
}

func (g *glfwPlatform) installCallbacks() {
	g.window.SetMouseButtonCallback(g.mouseButtonChange)
	g.window.SetCursorPosCallback(g.cursorPosChange)
	g.window.SetScrollCallback(g.mouseScrollChange)
	g.window.SetKeyCallback(g.keyChange)
}

var glfwButtonIndexByID = map[glfw.MouseButton]platform.MouseButton{
	glfw.MouseButton1: platform.MouseButtonPrimary,
	glfw.MouseButton2: platform.MouseButtonSecondary,
	glfw.MouseButton3: platform.MouseButtonTertiary,
}

func (g *glfwPlatform) mouseButtonChange(window *glfw.Window, rawButton glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
	button, known := glfwButtonIndexByID[rawButton]
	if !known {
		return
	}

	g.anyEvents = true
	x, y := window.GetCursorPos()
	g.input.CursorEvent(float32(x), float32(y))
	g.input.MouseButtonEvent(button, action == glfw.Press)
}

func (g *glfwPlatform) cursorPosChange(window *glfw.Window, x, y float64) {
	g.anyEvents = true
	g.input.CursorEvent(float32(x), float32(y))
}

func (g *glfwPlatform) mouseScrollChange(window *glfw.Window, x, y float64) {
	g.anyEvents = true
	g.input.ScrollEvent(float32(x), float32(y))
}

func (g *glfwPlatform) keyChange(window *glfw.Window, keycode glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	g.anyEvents = true

	var a platform.KeyAction
	switch action {
	case glfw.Press:
		a = platform.Press
	case glfw.Repeat:
		a = platform.Repeat
	case glfw.Release:
		a = platform.Release
	default:
		return
	}
	g.input.KeyEvent(glfwKeyToKey(translateUntranslatedKey(keycode, scancode)), a)
}

// translateUntranslatedKey maps the physical key to the letter it
// produces in the current keyboard layout.
func translateUntranslatedKey(key glfw.Key, scancode int) glfw.Key {
	if key >= glfw.KeyKP0 && key <= glfw.KeyKPEqual {
		return key
	}
	name := glfw.GetKeyName(key, scancode)
	if len(name) == 1 {
		if name[0] >= 'A' && name[0] <= 'Z' {
			return glfw.KeyA + glfw.Key(name[0]-'A')
		} else if name[0] >= 'a' && name[0] <= 'z' {
			return glfw.KeyA + glfw.Key(name[0]-'a')
		}
	}
	return key
}

func glfwKeyToKey(keycode glfw.Key) platform.Key {
	switch {
	case keycode >= glfw.KeyA && keycode <= glfw.KeyZ:
		return platform.KeyA + platform.Key(keycode-glfw.KeyA)
	case keycode >= glfw.KeyF1 && keycode <= glfw.KeyF12:
		return platform.KeyF1 + platform.Key(keycode-glfw.KeyF1)
	}

	switch keycode {
	case glfw.KeySpace:
		return platform.KeySpace
	case glfw.KeyEscape:
		return platform.KeyEscape
	case glfw.KeyEnter, glfw.KeyKPEnter:
		return platform.KeyEnter
	case glfw.KeyTab:
		return platform.KeyTab
	case glfw.KeyLeftShift:
		return platform.KeyLeftShift
	case glfw.KeyRightShift:
		return platform.KeyRightShift
	case glfw.KeyLeftControl:
		return platform.KeyLeftControl
	case glfw.KeyRightControl:
		return platform.KeyRightControl
	case glfw.KeyLeft:
		return platform.KeyLeftArrow
	case glfw.KeyRight:
		return platform.KeyRightArrow
	case glfw.KeyUp:
		return platform.KeyUpArrow
	case glfw.KeyDown:
		return platform.KeyDownArrow
	default:
		return platform.KeyUnknown
	}
}
