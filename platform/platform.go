// platform/platform.go
// Copyright(c) 2022-2026 modelview contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package platform defines the interface to the windowing system and the
// keyboard and mouse state that it reports. The GLFW implementation is
// in platform/desktop.
package platform

// Platform is the interface that abstracts platform-specific features like
// creating windows, mouse and keyboard handling, etc.
type Platform interface {
	// ProcessEvents handles all pending window events. Returns true if
	// there were any events and false otherwise.
	ProcessEvents() bool
	// PostRender performs the buffer swap.
	PostRender()
	// Dispose is called when the application is shutting down and is when
	// resources are be freed.
	Dispose()
	// ShouldStop returns true if the window is to be closed.
	ShouldStop() bool
	// SetShouldStop requests (or cancels a request) that the window be
	// closed.
	SetShouldStop(stop bool)
	// SetWindowTitle sets the title of the application window.
	SetWindowTitle(text string)
	// SetSwapInterval sets the number of display refreshes to wait for
	// between buffer swaps; 0 disables v-sync.
	SetSwapInterval(n int)
	// EnableFullScreen switches between the application running in windowed and fullscreen mode.
	EnableFullScreen(fullscreen bool)
	// IsFullScreen() returns true if the application is in full-screen mode.
	IsFullScreen() bool
	// GetAllMonitorNames() returns an array of all available monitors' names.
	GetAllMonitorNames() []string
	// WindowSize returns the size of the window.
	WindowSize() [2]int
	// WindowPosition returns the position of the window on the screen.
	WindowPosition() [2]int
	// FramebufferSize returns the dimension of the framebuffer in pixels.
	FramebufferSize() [2]int
	// Time returns the number of seconds since the platform was created.
	Time() float64
	// Input returns the keyboard and mouse state accumulated by the most
	// recent call to ProcessEvents.
	Input() *InputState
}

type Config struct {
	InitialWindowSize     [2]int
	InitialWindowPosition [2]int

	EnableMSAA bool

	StartInFullScreen bool
	FullScreenMonitor int
}
