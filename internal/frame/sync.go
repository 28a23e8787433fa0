package frame

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/vulkan-presenter/internal/lifecycle"
)

// syncSet is the synchronization state of one frame in flight. The
// render-finished semaphores are per image instead: presentation holds one
// until the image is acquired again, which need not follow the ring order.
type syncSet struct {
	acquired core1_0.Semaphore
	inFlight core1_0.Fence
}

// ringSize is the number of frames that may be in flight at once. More
// frames than images would only wait on each other.
func ringSize(maxInFlight, images int) int {
	if images < maxInFlight {
		return images
	}
	return maxInFlight
}

func next(current, size int) int {
	return (current + 1) % size
}

// imageFences remembers, per swapchain image, the fence of the frame that
// last rendered to it.
type imageFences []core1_0.Fence

// claim records fence as the owner of image and returns the fence that must
// be waited on first, or nil.
func (f imageFences) claim(image int, fence core1_0.Fence) core1_0.Fence {
	previous := f[image]
	f[image] = fence
	if previous == fence {
		return nil
	}
	return previous
}

func createRing(device core1_0.Device, size int) ([]syncSet, error) {
	var rollback lifecycle.Stack
	defer rollback.Unwind()

	ring := make([]syncSet, 0, size)
	for i := 0; i < size; i++ {
		acquired, _, err := device.CreateSemaphore(nil, core1_0.SemaphoreCreateInfo{})
		if err != nil {
			return nil, errors.Wrapf(err, "create image-acquired semaphore %d", i)
		}
		rollback.Push(func() { acquired.Destroy(nil) })

		inFlight, _, err := device.CreateFence(nil, core1_0.FenceCreateInfo{
			Flags: core1_0.FenceCreateSignaled,
		})
		if err != nil {
			return nil, errors.Wrapf(err, "create in-flight fence %d", i)
		}
		rollback.Push(func() { inFlight.Destroy(nil) })

		ring = append(ring, syncSet{acquired: acquired, inFlight: inFlight})
	}

	rollback.Disarm()
	return ring, nil
}

func destroyRing(ring []syncSet) {
	for i := len(ring) - 1; i >= 0; i-- {
		ring[i].inFlight.Destroy(nil)
		ring[i].acquired.Destroy(nil)
	}
}

// createFinished creates one render-finished semaphore per swapchain image.
func createFinished(device core1_0.Device, images int) ([]core1_0.Semaphore, error) {
	var rollback lifecycle.Stack
	defer rollback.Unwind()

	finished := make([]core1_0.Semaphore, 0, images)
	for i := 0; i < images; i++ {
		semaphore, _, err := device.CreateSemaphore(nil, core1_0.SemaphoreCreateInfo{})
		if err != nil {
			return nil, errors.Wrapf(err, "create render-finished semaphore %d", i)
		}
		rollback.Push(func() { semaphore.Destroy(nil) })
		finished = append(finished, semaphore)
	}

	rollback.Disarm()
	return finished, nil
}

func destroySemaphores(semaphores []core1_0.Semaphore) {
	for i := len(semaphores) - 1; i >= 0; i-- {
		semaphores[i].Destroy(nil)
	}
}
