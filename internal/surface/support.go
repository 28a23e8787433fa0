// Package surface snapshots what a physical device can do with the
// presentation surface.
package surface

import (
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_surface"
)

// Support is a surface capability snapshot for one physical device. It is
// queried again on every swapchain (re)creation because capabilities such
// as the current extent change with the window.
type Support struct {
	Capabilities *khr_surface.SurfaceCapabilities
	Formats      []khr_surface.SurfaceFormat
	PresentModes []khr_surface.PresentMode
}

// Adequate reports whether a swapchain can be built at all.
func (s Support) Adequate() bool {
	return s.Capabilities != nil && len(s.Formats) > 0 && len(s.PresentModes) > 0
}

// Query reads the capabilities, formats and present modes of surface on
// device.
func Query(surface khr_surface.Surface, device core1_0.PhysicalDevice) (Support, error) {
	var support Support
	var err error

	support.Capabilities, _, err = surface.PhysicalDeviceSurfaceCapabilities(device)
	if err != nil {
		return support, err
	}

	support.Formats, _, err = surface.PhysicalDeviceSurfaceFormats(device)
	if err != nil {
		return support, err
	}

	support.PresentModes, _, err = surface.PhysicalDeviceSurfacePresentModes(device)
	return support, err
}
