package device

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_surface"
	"github.com/vkngwrapper/vulkan-presenter/internal/capability"
	"github.com/vkngwrapper/vulkan-presenter/internal/surface"
)

// InstanceDevices enumerates the physical devices of a live instance.
type InstanceDevices struct {
	Instance core1_0.Instance
}

func (d InstanceDevices) EnumeratePhysicalDevices() ([]core1_0.PhysicalDevice, error) {
	devices, _, err := d.Instance.EnumeratePhysicalDevices()
	return devices, err
}

// SurfaceProber probes physical devices against one presentation surface.
type SurfaceProber struct {
	Surface  khr_surface.Surface
	Required capability.Set
}

// Probe collects queue families, extensions and, when the swapchain
// extension is present, the surface support of device.
func (p SurfaceProber) Probe(device core1_0.PhysicalDevice) (Candidate, error) {
	candidate := Candidate{Device: device}

	properties, err := device.Properties()
	if err != nil {
		return candidate, errors.Wrap(err, "read device properties")
	}
	candidate.Name = properties.DeviceName

	candidate.GraphicsFamily, candidate.PresentFamily, err = p.queueFamilies(device)
	if err != nil {
		return candidate, err
	}

	extensions, _, err := device.EnumerateDeviceExtensionProperties()
	if err != nil {
		return candidate, errors.Wrapf(err, "enumerate extensions of %s", candidate.Name)
	}
	candidate.Extensions = capability.FromMap(extensions)

	if len(p.Required.Missing(candidate.Extensions)) > 0 {
		return candidate, nil
	}

	candidate.Support, err = surface.Query(p.Surface, device)
	if err != nil {
		return candidate, errors.Wrapf(err, "query surface support of %s", candidate.Name)
	}

	return candidate, nil
}

// queueFamilies picks the first graphics family, and for presentation
// prefers that same family when it can present.
func (p SurfaceProber) queueFamilies(device core1_0.PhysicalDevice) (graphics, present *int, err error) {
	for familyIdx, family := range device.QueueFamilyProperties() {
		if graphics == nil && (family.QueueFlags&core1_0.QueueGraphics) != 0 {
			graphics = new(int)
			*graphics = familyIdx
		}

		supported, _, err := p.Surface.PhysicalDeviceSurfaceSupport(device, familyIdx)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "query present support of family %d", familyIdx)
		}

		if supported && (present == nil || (graphics != nil && *graphics == familyIdx)) {
			present = new(int)
			*present = familyIdx
		}

		if graphics != nil && present != nil && *graphics == *present {
			break
		}
	}

	return graphics, present, nil
}
