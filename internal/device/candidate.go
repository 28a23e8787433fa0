// Package device selects a physical device and owns the logical device
// built from it.
package device

import (
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_swapchain"
	"github.com/vkngwrapper/vulkan-presenter/internal/capability"
	"github.com/vkngwrapper/vulkan-presenter/internal/surface"
)

// RequiredExtensions are the device extensions every candidate must offer.
var RequiredExtensions = capability.NewSet(khr_swapchain.ExtensionName)

// Candidate is a physical device together with the facts selection needs.
type Candidate struct {
	Device core1_0.PhysicalDevice
	Name   string

	// GraphicsFamily and PresentFamily are nil when no queue family has the
	// capability.
	GraphicsFamily *int
	PresentFamily  *int

	Extensions capability.Set
	Support    surface.Support
}

// HasQueues reports whether both a graphics and a present family were found.
func (c Candidate) HasQueues() bool {
	return c.GraphicsFamily != nil && c.PresentFamily != nil
}

// Eligible reports whether the candidate can drive the presenter: both
// queue families exist, every required extension is supported and the
// surface offers at least one format and one present mode.
func (c Candidate) Eligible(required capability.Set) bool {
	if !c.HasQueues() {
		return false
	}
	if len(required.Missing(c.Extensions)) > 0 {
		return false
	}
	return len(c.Support.Formats) > 0 && len(c.Support.PresentModes) > 0
}
