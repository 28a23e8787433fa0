// Package swapchain negotiates and owns the swapchain, its images and their
// views.
package swapchain

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_surface"
	"github.com/vkngwrapper/vulkan-presenter/internal/surface"
)

// undefinedExtent is the current-extent width a surface reports when the
// swapchain decides the size. The binding widens the uint32 sentinel
// 0xFFFFFFFF to int without sign extension.
const undefinedExtent = int(^uint32(0))

// PreferredFormat is used whenever the surface accepts it.
var PreferredFormat = khr_surface.SurfaceFormat{
	Format:     core1_0.FormatB8G8R8A8SRGB,
	ColorSpace: khr_surface.ColorSpaceSRGBNonlinear,
}

// PresentPreference pairs a present mode with the image count it needs.
type PresentPreference struct {
	Mode       khr_surface.PresentMode
	ImageCount int
}

// PresentPreferences is ordered from most to least desirable.
var PresentPreferences = []PresentPreference{
	{Mode: khr_surface.PresentModeMailbox, ImageCount: 3},
	{Mode: khr_surface.PresentModeFIFORelaxed, ImageCount: 2},
	{Mode: khr_surface.PresentModeImmediate, ImageCount: 2},
	{Mode: khr_surface.PresentModeFIFO, ImageCount: 2},
}

// NoPresentModeError is returned when no preference fits the surface.
type NoPresentModeError struct {
	Advertised    []khr_surface.PresentMode
	MinImageCount int
	MaxImageCount int
}

func (e *NoPresentModeError) Error() string {
	return fmt.Sprintf("no preferred present mode is advertised within image count bounds [%d, %d] (advertised %v)",
		e.MinImageCount, e.MaxImageCount, e.Advertised)
}

// Configuration is one negotiated swapchain shape. A new one is computed
// for every (re)creation.
type Configuration struct {
	Format      khr_surface.SurfaceFormat
	PresentMode khr_surface.PresentMode
	ImageCount  int
	Extent      core1_0.Extent2D
}

// ChooseFormat picks the surface format. A lone undefined entry means any
// format is accepted.
func ChooseFormat(formats []khr_surface.SurfaceFormat) khr_surface.SurfaceFormat {
	if len(formats) == 0 {
		return PreferredFormat
	}
	if len(formats) == 1 && formats[0].Format == core1_0.FormatUndefined {
		return PreferredFormat
	}

	for _, format := range formats {
		if format == PreferredFormat {
			return format
		}
	}

	return formats[0]
}

// ChoosePresentMode returns the first preference whose mode is advertised
// and whose image count lies within the capability bounds. A maximum of 0
// means unbounded.
func ChoosePresentMode(preferences []PresentPreference, advertised []khr_surface.PresentMode, capabilities *khr_surface.SurfaceCapabilities) (PresentPreference, error) {
	for _, preference := range preferences {
		if !hasMode(advertised, preference.Mode) {
			continue
		}
		if preference.ImageCount < capabilities.MinImageCount {
			continue
		}
		if capabilities.MaxImageCount > 0 && preference.ImageCount > capabilities.MaxImageCount {
			continue
		}
		return preference, nil
	}

	return PresentPreference{}, &NoPresentModeError{
		Advertised:    advertised,
		MinImageCount: capabilities.MinImageCount,
		MaxImageCount: capabilities.MaxImageCount,
	}
}

func hasMode(modes []khr_surface.PresentMode, mode khr_surface.PresentMode) bool {
	for _, m := range modes {
		if m == mode {
			return true
		}
	}
	return false
}

// ChooseExtent uses the surface's current extent unless the surface leaves
// the size to the swapchain, in which case the window's pixel size is
// clamped into the supported range.
func ChooseExtent(capabilities *khr_surface.SurfaceCapabilities, width, height int) core1_0.Extent2D {
	if width := capabilities.CurrentExtent.Width; width != undefinedExtent && width != -1 {
		return capabilities.CurrentExtent
	}

	return core1_0.Extent2D{
		Width:  clamp(width, capabilities.MinImageExtent.Width, capabilities.MaxImageExtent.Width),
		Height: clamp(height, capabilities.MinImageExtent.Height, capabilities.MaxImageExtent.Height),
	}
}

func clamp(v, lo, hi int) int {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}

// Negotiate computes a configuration for a window of width x height pixels.
// It fails before anything is created when no present mode fits.
func Negotiate(support surface.Support, width, height int) (Configuration, error) {
	if !support.Adequate() {
		return Configuration{}, errors.New("surface offers no formats or present modes")
	}

	preference, err := ChoosePresentMode(PresentPreferences, support.PresentModes, support.Capabilities)
	if err != nil {
		return Configuration{}, err
	}

	return Configuration{
		Format:      ChooseFormat(support.Formats),
		PresentMode: preference.Mode,
		ImageCount:  preference.ImageCount,
		Extent:      ChooseExtent(support.Capabilities, width, height),
	}, nil
}

// SharingMode returns exclusive sharing when graphics and present use the
// same family, otherwise concurrent sharing across the two.
func SharingMode(graphicsFamily, presentFamily int) (core1_0.SharingMode, []int) {
	if graphicsFamily == presentFamily {
		return core1_0.SharingModeExclusive, nil
	}
	return core1_0.SharingModeConcurrent, []int{graphicsFamily, presentFamily}
}
