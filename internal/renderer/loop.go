package renderer

import (
	"github.com/vkngwrapper/vulkan-presenter/internal/window"
)

// loopState folds the window events of one iteration into what the loop
// has to do next.
type loopState struct {
	closed bool
	paused bool
	// resize is the latest size reported this iteration; earlier ones are
	// superseded.
	resize *window.Resized
}

func (s *loopState) apply(event window.Event) {
	switch e := event.(type) {
	case window.Closed:
		s.closed = true
	case window.Minimized:
		s.paused = true
	case window.Restored:
		s.paused = false
	case window.Resized:
		s.resize = &e
	}
}

// takeResize returns and clears the pending resize.
func (s *loopState) takeResize() (window.Resized, bool) {
	if s.resize == nil {
		return window.Resized{}, false
	}
	resize := *s.resize
	s.resize = nil
	return resize, true
}
