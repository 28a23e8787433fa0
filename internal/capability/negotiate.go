package capability

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/extensions/ext_debug_utils"
	"github.com/vkngwrapper/extensions/khr_portability_enumeration"
)

// MissingLayerError names a required layer the loader does not offer.
type MissingLayerError struct {
	Layer string
}

func (e *MissingLayerError) Error() string {
	return fmt.Sprintf("required layer %s is not available", e.Layer)
}

// MissingExtensionError names a required instance extension the loader does
// not offer.
type MissingExtensionError struct {
	Extension string
}

func (e *MissingExtensionError) Error() string {
	return fmt.Sprintf("required instance extension %s is not available", e.Extension)
}

// Requirements is what the presenter asks of the instance.
type Requirements struct {
	// Layers are enabled only when Validation is set.
	Layers []string
	// Extensions are required regardless of validation.
	Extensions []string
	// Platform are the extensions the windowing system needs for surfaces.
	Platform []string
	// Validation adds the layers and the debug messenger extension.
	Validation bool
}

// Available is what the loader advertises.
type Available struct {
	Layers     Set
	Extensions Set
}

// Result is the final, sorted list of what will be enabled.
type Result struct {
	Layers     Set
	Extensions Set
	// Portability is set when the portability enumeration extension was
	// enabled; instance creation must then ask for portability devices.
	Portability bool
}

// Negotiate merges the requirements into deduplicated, sorted lists and
// checks each against what is available. Layers are checked first; the
// first missing entry ends negotiation.
func Negotiate(req Requirements, available Available) (Result, error) {
	var result Result

	if req.Validation {
		result.Layers = NewSet(req.Layers...)
		if missing := result.Layers.Missing(available.Layers); len(missing) > 0 {
			return Result{}, errors.WithHint(&MissingLayerError{Layer: missing[0]},
				"install the LunarG Vulkan SDK or run with validation disabled")
		}
	}

	required := NewSet(req.Extensions...).Union(req.Platform...)
	if req.Validation {
		required = required.Union(ext_debug_utils.ExtensionName)
	}
	if missing := required.Missing(available.Extensions); len(missing) > 0 {
		return Result{}, errors.WithHintf(&MissingExtensionError{Extension: missing[0]},
			"the Vulkan loader advertises %d instance extensions; update the graphics driver", len(available.Extensions))
	}

	if available.Extensions.Contains(khr_portability_enumeration.ExtensionName) {
		required = required.Union(khr_portability_enumeration.ExtensionName)
		result.Portability = true
	}
	result.Extensions = required

	return result, nil
}
