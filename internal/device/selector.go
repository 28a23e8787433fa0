package device

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/vulkan-presenter/internal/capability"
	"github.com/vkngwrapper/vulkan-presenter/internal/logging"
	"golang.org/x/exp/slog"
)

var (
	// ErrNoQueueCapableDevice means no device has both a graphics and a
	// present queue family.
	ErrNoQueueCapableDevice = errors.New("no device with graphics and present queues")
	// ErrNoSwapchainCapableDevice means some device had the queues but none
	// had the required extensions and a usable surface.
	ErrNoSwapchainCapableDevice = errors.New("no device with the required extensions and swapchain support")
	// ErrNoInspectableDevice means devices were enumerated but every one of
	// them failed to report its properties.
	ErrNoInspectableDevice = errors.New("no device could be inspected")
)

// NoCompatibleDeviceError is returned when no enumerated device is eligible.
// Cause is one of ErrNoQueueCapableDevice, ErrNoSwapchainCapableDevice or
// ErrNoInspectableDevice. Failed holds the errors of the devices that were
// skipped because they could not be inspected.
type NoCompatibleDeviceError struct {
	Inspected int
	Cause     error
	Failed    []error
}

func (e *NoCompatibleDeviceError) Error() string {
	msg := fmt.Sprintf("none of %d physical devices is compatible: %v", e.Inspected, e.Cause)
	if len(e.Failed) > 0 {
		msg += fmt.Sprintf(" (%d skipped, first: %v)", len(e.Failed), e.Failed[0])
	}
	return msg
}

func (e *NoCompatibleDeviceError) Unwrap() error {
	return e.Cause
}

// Select returns the first eligible candidate in enumeration order.
func Select(candidates []Candidate, required capability.Set) (Candidate, error) {
	anyQueues := false
	for _, candidate := range candidates {
		if candidate.Eligible(required) {
			return candidate, nil
		}
		if candidate.HasQueues() {
			anyQueues = true
		}
	}

	cause := ErrNoQueueCapableDevice
	if anyQueues {
		cause = ErrNoSwapchainCapableDevice
	}
	return Candidate{}, &NoCompatibleDeviceError{Inspected: len(candidates), Cause: cause}
}

// Prober derives the selection facts for one physical device.
type Prober interface {
	Probe(device core1_0.PhysicalDevice) (Candidate, error)
}

// Enumerator lists the physical devices of an instance.
type Enumerator interface {
	EnumeratePhysicalDevices() ([]core1_0.PhysicalDevice, error)
}

// Pick enumerates, probes and selects. Devices that fail to report their
// properties are logged and skipped rather than aborting selection; if no
// device qualifies, their errors are carried in the NoCompatibleDeviceError.
func Pick(logger *slog.Logger, enumerator Enumerator, prober Prober, required capability.Set) (Candidate, error) {
	logger = logging.OrDiscard(logger)

	devices, err := enumerator.EnumeratePhysicalDevices()
	if err != nil {
		return Candidate{}, errors.Wrap(err, "enumerate physical devices")
	}

	var failed []error
	candidates := make([]Candidate, 0, len(devices))
	for i, physicalDevice := range devices {
		candidate, err := prober.Probe(physicalDevice)
		if err != nil {
			logger.Warn("skipping physical device", slog.Int("index", i), slog.Any("error", err))
			failed = append(failed, errors.Wrapf(err, "physical device %d", i))
			continue
		}

		logger.Debug("probed physical device",
			slog.String("name", candidate.Name),
			slog.Bool("queues", candidate.HasQueues()),
			slog.Bool("eligible", candidate.Eligible(required)))
		candidates = append(candidates, candidate)
	}

	selected, err := Select(candidates, required)
	var noDevice *NoCompatibleDeviceError
	if errors.As(err, &noDevice) {
		noDevice.Inspected = len(devices)
		noDevice.Failed = failed
		if len(candidates) == 0 && len(failed) > 0 {
			noDevice.Cause = ErrNoInspectableDevice
		}
	}
	return selected, err
}
