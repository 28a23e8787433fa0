package transfer

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/vulkan-presenter/internal/device"
	"github.com/vkngwrapper/vulkan-presenter/internal/logging"
	"golang.org/x/exp/slog"
)

// Buffer is a buffer together with the memory bound to it.
type Buffer struct {
	Buffer core1_0.Buffer
	Memory core1_0.DeviceMemory
	Size   int
}

func (b *Buffer) Destroy() {
	if b == nil {
		return
	}
	if b.Buffer != nil {
		b.Buffer.Destroy(nil)
		b.Buffer = nil
	}
	if b.Memory != nil {
		b.Memory.Free(nil)
		b.Memory = nil
	}
}

// Engine copies host data into device-local memory through a staging
// buffer on the graphics queue.
type Engine struct {
	logger *slog.Logger
	ctx    *device.Context
}

func NewEngine(logger *slog.Logger, ctx *device.Context) *Engine {
	return &Engine{logger: logging.OrDiscard(logger), ctx: ctx}
}

// Upload returns a device-local buffer holding data, usable as usage. The
// staging buffer is released whether or not the upload succeeds.
func (e *Engine) Upload(data any, usage core1_0.BufferUsageFlags) (*Buffer, error) {
	payload, err := Encode(data)
	if err != nil {
		return nil, err
	}
	size := len(payload)

	staging, err := e.createBuffer(size, core1_0.BufferUsageTransferSrc, core1_0.MemoryPropertyHostVisible|core1_0.MemoryPropertyHostCoherent)
	defer staging.Destroy()
	if err != nil {
		return nil, errors.Wrap(err, "create staging buffer")
	}

	if err := writeMapped(staging.Memory, payload); err != nil {
		return nil, err
	}

	dst, err := e.createBuffer(size, core1_0.BufferUsageTransferDst|usage, core1_0.MemoryPropertyDeviceLocal)
	if err != nil {
		dst.Destroy()
		return nil, errors.Wrap(err, "create device-local buffer")
	}

	if err := e.copyBuffer(staging.Buffer, dst.Buffer, size); err != nil {
		dst.Destroy()
		return nil, err
	}

	e.logger.Debug("uploaded buffer", slog.Int("bytes", size), slog.Any("usage", usage))
	return dst, nil
}

// createBuffer always returns a non-nil Buffer so partial results can be
// destroyed by the caller.
func (e *Engine) createBuffer(size int, usage core1_0.BufferUsageFlags, properties core1_0.MemoryPropertyFlags) (*Buffer, error) {
	b := &Buffer{Size: size}

	var err error
	b.Buffer, _, err = e.ctx.Device.CreateBuffer(nil, core1_0.BufferCreateInfo{
		Size:        size,
		Usage:       usage,
		SharingMode: core1_0.SharingModeExclusive,
	})
	if err != nil {
		return b, err
	}

	requirements := b.Buffer.MemoryRequirements()
	memoryTypeIndex, err := FindMemoryType(e.ctx.MemoryTypes(), requirements.MemoryTypeBits, properties)
	if err != nil {
		return b, err
	}

	b.Memory, _, err = e.ctx.Device.AllocateMemory(nil, core1_0.MemoryAllocateInfo{
		AllocationSize:  requirements.Size,
		MemoryTypeIndex: memoryTypeIndex,
	})
	if err != nil {
		return b, err
	}

	_, err = b.Buffer.BindBufferMemory(b.Memory, 0)
	return b, err
}

func writeMapped(memory core1_0.DeviceMemory, payload []byte) error {
	ptr, _, err := memory.Map(0, len(payload), 0)
	if err != nil {
		return errors.Wrap(err, "map staging memory")
	}
	defer memory.Unmap()

	return fill(unsafe.Slice((*byte)(ptr), len(payload)), payload)
}

func (e *Engine) copyBuffer(src, dst core1_0.Buffer, size int) error {
	buffers, _, err := e.ctx.Device.AllocateCommandBuffers(core1_0.CommandBufferAllocateInfo{
		CommandPool:        e.ctx.CommandPool,
		Level:              core1_0.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	})
	if err != nil {
		return errors.Wrap(err, "allocate transfer command buffer")
	}
	defer e.ctx.Device.FreeCommandBuffers(buffers)

	buffer := buffers[0]
	if _, err := buffer.Begin(core1_0.CommandBufferBeginInfo{Flags: core1_0.CommandBufferUsageOneTimeSubmit}); err != nil {
		return errors.Wrap(err, "begin transfer commands")
	}

	err = buffer.CmdCopyBuffer(src, dst, []core1_0.BufferCopy{
		{SrcOffset: 0, DstOffset: 0, Size: size},
	})
	if err != nil {
		return errors.Wrap(err, "record buffer copy")
	}

	if _, err := buffer.End(); err != nil {
		return errors.Wrap(err, "end transfer commands")
	}

	_, err = e.ctx.GraphicsQueue.Submit(nil, []core1_0.SubmitInfo{
		{CommandBuffers: []core1_0.CommandBuffer{buffer}},
	})
	if err != nil {
		return errors.Wrap(err, "submit buffer copy")
	}

	if _, err := e.ctx.GraphicsQueue.WaitIdle(); err != nil {
		return errors.Wrap(err, "wait for buffer copy")
	}
	return nil
}
