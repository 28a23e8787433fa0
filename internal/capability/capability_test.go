package capability

import (
	"testing"

	"github.com/cockroachdb/errors"
	. "github.com/onsi/gomega"
	"github.com/vkngwrapper/extensions/ext_debug_utils"
	"github.com/vkngwrapper/extensions/khr_portability_enumeration"
)

func TestNewSetSortsAndDeduplicates(t *testing.T) {
	g := NewWithT(t)

	set := NewSet("VK_KHR_surface", "VK_KHR_xcb_surface", "VK_KHR_surface", "VK_EXT_debug_utils")
	g.Expect(set).To(Equal(Set{"VK_EXT_debug_utils", "VK_KHR_surface", "VK_KHR_xcb_surface"}))
	g.Expect(set.Contains("VK_KHR_surface")).To(BeTrue())
	g.Expect(set.Contains("VK_KHR_wayland_surface")).To(BeFalse())
	g.Expect(NewSet()).To(BeEmpty())
}

func TestFromMap(t *testing.T) {
	g := NewWithT(t)

	set := FromMap(map[string]int{"b": 1, "a": 2, "c": 3})
	g.Expect(set).To(Equal(Set{"a", "b", "c"}))
}

func TestUnionAndMissing(t *testing.T) {
	g := NewWithT(t)

	set := NewSet("b").Union("a", "b", "c")
	g.Expect(set).To(Equal(Set{"a", "b", "c"}))
	g.Expect(set.Missing(NewSet("a", "c"))).To(Equal([]string{"b"}))
	g.Expect(set.Missing(set)).To(BeEmpty())
}

func TestNegotiateMergesPlatformAndDebugExtensions(t *testing.T) {
	g := NewWithT(t)

	available := Available{
		Layers:     NewSet("VK_LAYER_KHRONOS_validation", "VK_LAYER_MESA_overlay"),
		Extensions: NewSet("VK_KHR_surface", "VK_KHR_xlib_surface", ext_debug_utils.ExtensionName),
	}
	result, err := Negotiate(Requirements{
		Layers:     []string{"VK_LAYER_KHRONOS_validation", "VK_LAYER_KHRONOS_validation"},
		Platform:   []string{"VK_KHR_xlib_surface", "VK_KHR_surface", "VK_KHR_surface"},
		Validation: true,
	}, available)

	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(result.Layers).To(Equal(Set{"VK_LAYER_KHRONOS_validation"}))
	g.Expect(result.Extensions).To(Equal(NewSet(ext_debug_utils.ExtensionName, "VK_KHR_surface", "VK_KHR_xlib_surface")))
	g.Expect(result.Portability).To(BeFalse())
}

func TestNegotiateWithoutValidationSkipsLayers(t *testing.T) {
	g := NewWithT(t)

	result, err := Negotiate(Requirements{
		Layers:   []string{"VK_LAYER_KHRONOS_validation"},
		Platform: []string{"VK_KHR_surface"},
	}, Available{Extensions: NewSet("VK_KHR_surface")})

	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(result.Layers).To(BeEmpty())
	g.Expect(result.Extensions).To(Equal(Set{"VK_KHR_surface"}))
}

func TestNegotiateMissingLayer(t *testing.T) {
	g := NewWithT(t)

	_, err := Negotiate(Requirements{
		Layers:     []string{"VK_LAYER_LUNARG_standard_validation"},
		Validation: true,
	}, Available{
		Layers:     NewSet("VK_LAYER_KHRONOS_validation"),
		Extensions: NewSet(ext_debug_utils.ExtensionName),
	})

	var missing *MissingLayerError
	g.Expect(errors.As(err, &missing)).To(BeTrue())
	g.Expect(missing.Layer).To(Equal("VK_LAYER_LUNARG_standard_validation"))
	g.Expect(errors.GetAllHints(err)).NotTo(BeEmpty())
}

func TestNegotiateMissingPlatformExtension(t *testing.T) {
	g := NewWithT(t)

	_, err := Negotiate(Requirements{
		Platform: []string{"VK_KHR_surface", "VK_KHR_win32_surface"},
	}, Available{Extensions: NewSet("VK_KHR_surface")})

	var missing *MissingExtensionError
	g.Expect(errors.As(err, &missing)).To(BeTrue())
	g.Expect(missing.Extension).To(Equal("VK_KHR_win32_surface"))
}

func TestNegotiateEnablesPortabilityWhenAdvertised(t *testing.T) {
	g := NewWithT(t)

	result, err := Negotiate(Requirements{
		Platform: []string{"VK_KHR_surface"},
	}, Available{Extensions: NewSet("VK_KHR_surface", khr_portability_enumeration.ExtensionName)})

	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(result.Portability).To(BeTrue())
	g.Expect(result.Extensions.Contains(khr_portability_enumeration.ExtensionName)).To(BeTrue())
}
