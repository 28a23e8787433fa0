// Package window wraps the SDL window the presenter draws into.
package window

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/veandco/go-sdl2/sdl"
	"github.com/vkngwrapper/core"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_surface"
	vkng_sdl2 "github.com/vkngwrapper/integrations/sdl2"
	"github.com/vkngwrapper/vulkan-presenter/internal/config"
)

// eventBuffer bounds the events queued between reads of Events.
const eventBuffer = 64

// WindowInitError is returned when SDL or the window cannot be set up.
type WindowInitError struct {
	Cause error
}

func (e *WindowInitError) Error() string {
	return fmt.Sprintf("initialize window: %v", e.Cause)
}

func (e *WindowInitError) Unwrap() error { return e.Cause }

// SurfaceCreationError is returned when the window cannot back a Vulkan
// surface.
type SurfaceCreationError struct {
	Cause error
}

func (e *SurfaceCreationError) Error() string {
	return fmt.Sprintf("create window surface: %v", e.Cause)
}

func (e *SurfaceCreationError) Unwrap() error { return e.Cause }

type Window struct {
	window *sdl.Window
	events chan Event

	closeRequested bool
}

// Open initializes SDL video and opens a resizable Vulkan window of the
// configured size.
func Open(cfg config.WindowConfig) (*Window, error) {
	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return nil, &WindowInitError{Cause: err}
	}

	window, err := sdl.CreateWindow(cfg.Title, sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		int32(cfg.Width), int32(cfg.Height), sdl.WINDOW_SHOWN|sdl.WINDOW_VULKAN|sdl.WINDOW_RESIZABLE)
	if err != nil {
		sdl.Quit()
		return nil, &WindowInitError{Cause: err}
	}

	return &Window{
		window: window,
		events: make(chan Event, eventBuffer),
	}, nil
}

// Loader creates the Vulkan loader from the entry point SDL resolved.
func (w *Window) Loader() (core.Loader, error) {
	loader, err := core.CreateLoaderFromProcAddr(sdl.VulkanGetVkGetInstanceProcAddr())
	if err != nil {
		return nil, &WindowInitError{Cause: errors.Wrap(err, "load vulkan entry point")}
	}
	return loader, nil
}

// RequiredExtensions are the instance extensions SDL needs to create
// surfaces on this platform.
func (w *Window) RequiredExtensions() []string {
	return w.window.VulkanGetInstanceExtensions()
}

// CreateSurface creates a presentation surface for the window.
func (w *Window) CreateSurface(instance core1_0.Instance) (khr_surface.Surface, error) {
	surfaceLoader := khr_surface.CreateExtensionFromInstance(instance)

	surface, err := vkng_sdl2.CreateSurface(instance, surfaceLoader, w.window)
	if err != nil {
		return nil, &SurfaceCreationError{Cause: err}
	}
	return surface, nil
}

// DrawableSize is the size of the window in pixels, which differs from the
// window size on high-DPI displays.
func (w *Window) DrawableSize() (int, int) {
	width, height := w.window.VulkanGetDrawableSize()
	return int(width), int(height)
}

func (w *Window) Minimized() bool {
	return w.window.GetFlags()&sdl.WINDOW_MINIMIZED != 0
}

// Poll drains the SDL queue and delivers the events that matter to the
// presenter on the Events channel. It never blocks; when the channel is full
// the oldest events give way, and a close request is always remembered.
func (w *Window) Poll() {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		translated, ok := translate(event, w.window.VulkanGetDrawableSize)
		if !ok {
			continue
		}
		if _, closed := translated.(Closed); closed {
			w.closeRequested = true
		}
		deliver(w.events, translated)
	}
}

// Events delivers translated window events, filled by Poll.
func (w *Window) Events() <-chan Event {
	return w.events
}

// CloseRequested reports whether the user asked to close the window.
func (w *Window) CloseRequested() bool {
	return w.closeRequested
}

func (w *Window) Close() {
	if w.window != nil {
		w.window.Destroy()
		w.window = nil
	}
	sdl.Quit()
}
