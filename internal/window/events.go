package window

import (
	"github.com/veandco/go-sdl2/sdl"
)

// Event is a window event the presenter reacts to.
type Event interface {
	isEvent()
}

// Resized carries the new drawable size in pixels.
type Resized struct {
	Width  int
	Height int
}

type Closed struct{}

type Minimized struct{}

type Restored struct{}

func (Resized) isEvent()   {}
func (Closed) isEvent()    {}
func (Minimized) isEvent() {}
func (Restored) isEvent()  {}

// translate maps an SDL event onto an Event. Resizes report the drawable
// size at the time of translation rather than the window size in the event.
func translate(event sdl.Event, drawable func() (int32, int32)) (Event, bool) {
	switch e := event.(type) {
	case *sdl.QuitEvent:
		return Closed{}, true
	case *sdl.WindowEvent:
		switch e.Event {
		case sdl.WINDOWEVENT_CLOSE:
			return Closed{}, true
		case sdl.WINDOWEVENT_MINIMIZED:
			return Minimized{}, true
		case sdl.WINDOWEVENT_RESTORED:
			return Restored{}, true
		case sdl.WINDOWEVENT_RESIZED, sdl.WINDOWEVENT_SIZE_CHANGED:
			width, height := drawable()
			return Resized{Width: int(width), Height: int(height)}, true
		}
	}

	return nil, false
}

// deliver queues event without blocking, discarding the oldest queued
// events until it fits. The newest resize must never be lost, since it is
// the size the swapchain has to match. Only the polling goroutine sends.
func deliver(events chan Event, event Event) {
	for {
		select {
		case events <- event:
			return
		default:
		}

		select {
		case <-events:
		default:
		}
	}
}
