package device

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_portability_subset"
	"github.com/vkngwrapper/vulkan-presenter/internal/capability"
)

// Context owns the logical device and the queues taken from it. Everything
// else in the presenter is built from a Context and must be destroyed
// before it.
type Context struct {
	Physical core1_0.PhysicalDevice
	Device   core1_0.Device

	GraphicsFamily int
	PresentFamily  int

	GraphicsQueue core1_0.Queue
	PresentQueue  core1_0.Queue

	// CommandPool serves the graphics family. It is created separately with
	// CreateCommandPool so its lifetime can be its own build step.
	CommandPool core1_0.CommandPool
}

// UniqueFamilies returns the graphics family, followed by the present
// family when it differs.
func UniqueFamilies(graphics, present int) []int {
	if graphics == present {
		return []int{graphics}
	}
	return []int{graphics, present}
}

// EnabledExtensions returns the device extensions to enable: the required
// set, plus the portability subset when the device advertises it.
func EnabledExtensions(required, advertised capability.Set) capability.Set {
	if advertised.Contains(khr_portability_subset.ExtensionName) {
		return required.Union(khr_portability_subset.ExtensionName)
	}
	return required
}

// NewContext creates the logical device for an eligible candidate and
// fetches its queues.
func NewContext(candidate Candidate, required capability.Set) (*Context, error) {
	if !candidate.HasQueues() {
		return nil, errors.AssertionFailedf("candidate %s has no graphics/present families", candidate.Name)
	}

	ctx := &Context{
		Physical:       candidate.Device,
		GraphicsFamily: *candidate.GraphicsFamily,
		PresentFamily:  *candidate.PresentFamily,
	}

	var queueInfos []core1_0.DeviceQueueCreateInfo
	for _, family := range UniqueFamilies(ctx.GraphicsFamily, ctx.PresentFamily) {
		queueInfos = append(queueInfos, core1_0.DeviceQueueCreateInfo{
			QueueFamilyIndex: family,
			QueuePriorities:  []float32{1.0},
		})
	}

	var err error
	ctx.Device, _, err = candidate.Device.CreateDevice(nil, core1_0.DeviceCreateInfo{
		QueueCreateInfos:      queueInfos,
		EnabledFeatures:       &core1_0.PhysicalDeviceFeatures{},
		EnabledExtensionNames: EnabledExtensions(required, candidate.Extensions),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "create logical device on %s", candidate.Name)
	}

	ctx.GraphicsQueue = ctx.Device.GetQueue(ctx.GraphicsFamily, 0)
	ctx.PresentQueue = ctx.Device.GetQueue(ctx.PresentFamily, 0)
	return ctx, nil
}

// CreateCommandPool creates the pool every command buffer is allocated from.
func (c *Context) CreateCommandPool() error {
	pool, _, err := c.Device.CreateCommandPool(nil, core1_0.CommandPoolCreateInfo{
		QueueFamilyIndex: c.GraphicsFamily,
	})
	if err != nil {
		return errors.Wrap(err, "create command pool")
	}

	c.CommandPool = pool
	return nil
}

func (c *Context) DestroyCommandPool() {
	if c.CommandPool != nil {
		c.CommandPool.Destroy(nil)
		c.CommandPool = nil
	}
}

// WaitIdle blocks until every queue of the device is idle.
func (c *Context) WaitIdle() error {
	_, err := c.Device.WaitIdle()
	return err
}

// MemoryTypes returns the memory types of the physical device in index
// order.
func (c *Context) MemoryTypes() []core1_0.MemoryType {
	return c.Physical.MemoryProperties().MemoryTypes
}

func (c *Context) Destroy() {
	c.DestroyCommandPool()
	if c.Device != nil {
		c.Device.Destroy(nil)
		c.Device = nil
	}
}
