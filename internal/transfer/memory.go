// Package transfer uploads immutable geometry into device-local buffers.
package transfer

import (
	"fmt"

	"github.com/vkngwrapper/core/core1_0"
)

// NoSuitableMemoryTypeError is returned when no memory type satisfies both
// the resource's type filter and the required property flags.
type NoSuitableMemoryTypeError struct {
	Filter   uint32
	Required core1_0.MemoryPropertyFlags
}

func (e *NoSuitableMemoryTypeError) Error() string {
	return fmt.Sprintf("no memory type in filter %#b has properties %v", e.Filter, e.Required)
}

// FindMemoryType returns the lowest memory type index allowed by filter
// whose flags include every required flag.
func FindMemoryType(types []core1_0.MemoryType, filter uint32, required core1_0.MemoryPropertyFlags) (int, error) {
	for i, memoryType := range types {
		if i >= 32 {
			break
		}
		typeBit := uint32(1) << i

		if filter&typeBit != 0 && memoryType.PropertyFlags&required == required {
			return i, nil
		}
	}

	return 0, &NoSuitableMemoryTypeError{Filter: filter, Required: required}
}
