// Package frame records the per-image command buffers and drives the
// acquire, submit and present cycle.
package frame

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/loov/hrtime"
	"github.com/vkngwrapper/core/common"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_swapchain"
	"github.com/vkngwrapper/vulkan-presenter/internal/device"
	"github.com/vkngwrapper/vulkan-presenter/internal/lifecycle"
	"github.com/vkngwrapper/vulkan-presenter/internal/logging"
	"github.com/vkngwrapper/vulkan-presenter/internal/transfer"
	"golang.org/x/exp/slog"
)

// ErrSwapchainStale is returned by Tick when the swapchain no longer
// matches the surface and has to be recreated.
var ErrSwapchainStale = errors.New("swapchain is out of date")

// Scene is everything a command buffer draws with.
type Scene struct {
	RenderPass   core1_0.RenderPass
	Pipeline     core1_0.Pipeline
	Framebuffers []core1_0.Framebuffer
	Extent       core1_0.Extent2D
	Geometry     *transfer.Geometry
}

// Presentable is the swapchain a frame is presented to.
type Presentable interface {
	Swapchain() khr_swapchain.Swapchain
	Extension() khr_swapchain.Extension
}

type Executor struct {
	logger      *slog.Logger
	ctx         *device.Context
	maxInFlight int

	buffers        []core1_0.CommandBuffer
	ring           []syncSet
	finished       []core1_0.Semaphore
	imagesInFlight imageFences
	current        int

	stats    *Stats
	shutdown bool
}

func NewExecutor(logger *slog.Logger, ctx *device.Context, maxInFlight int, statsInterval time.Duration) *Executor {
	return &Executor{
		logger:      logging.OrDiscard(logger),
		ctx:         ctx,
		maxInFlight: maxInFlight,
		stats:       NewStats(statsInterval),
	}
}

// Record replaces the command buffers with one pre-recorded buffer per
// framebuffer and rebuilds the synchronization objects to match: a ring of
// acquire semaphores and fences, and a render-finished semaphore per image.
// The device must be idle.
func (e *Executor) Record(scene Scene) error {
	e.release()

	count := len(scene.Framebuffers)
	if count == 0 {
		return errors.AssertionFailedf("no framebuffers to record")
	}

	var rollback lifecycle.Stack
	defer rollback.Unwind()

	buffers, _, err := e.ctx.Device.AllocateCommandBuffers(core1_0.CommandBufferAllocateInfo{
		CommandPool:        e.ctx.CommandPool,
		Level:              core1_0.CommandBufferLevelPrimary,
		CommandBufferCount: count,
	})
	if err != nil {
		return errors.Wrap(err, "allocate command buffers")
	}
	rollback.Push(func() { e.ctx.Device.FreeCommandBuffers(buffers) })

	for i, buffer := range buffers {
		if err := record(buffer, scene, i); err != nil {
			return errors.Wrapf(err, "record command buffer %d", i)
		}
	}

	ring, err := createRing(e.ctx.Device, ringSize(e.maxInFlight, count))
	if err != nil {
		return err
	}
	rollback.Push(func() { destroyRing(ring) })

	finished, err := createFinished(e.ctx.Device, count)
	if err != nil {
		return err
	}

	rollback.Disarm()
	e.buffers = buffers
	e.ring = ring
	e.finished = finished
	e.imagesInFlight = make(imageFences, count)
	e.current = 0

	e.logger.Debug("command buffers recorded", slog.Int("buffers", count), slog.Int("framesInFlight", len(ring)))
	return nil
}

func record(buffer core1_0.CommandBuffer, scene Scene, index int) error {
	if _, err := buffer.Begin(core1_0.CommandBufferBeginInfo{}); err != nil {
		return err
	}

	err := buffer.CmdBeginRenderPass(core1_0.SubpassContentsInline,
		core1_0.RenderPassBeginInfo{
			RenderPass:  scene.RenderPass,
			Framebuffer: scene.Framebuffers[index],
			RenderArea: core1_0.Rect2D{
				Offset: core1_0.Offset2D{X: 0, Y: 0},
				Extent: scene.Extent,
			},
			ClearValues: []core1_0.ClearValue{
				core1_0.ClearValueFloat{0, 0, 0, 1},
			},
		})
	if err != nil {
		return err
	}

	buffer.CmdBindPipeline(core1_0.PipelineBindPointGraphics, scene.Pipeline)
	buffer.CmdBindVertexBuffers(0, []core1_0.Buffer{scene.Geometry.Vertices.Buffer}, []int{0})
	buffer.CmdBindIndexBuffer(scene.Geometry.Indices.Buffer, 0, core1_0.IndexTypeUInt16)
	buffer.CmdDrawIndexed(scene.Geometry.IndexCount, 1, 0, 0, 0)
	buffer.CmdEndRenderPass()

	_, err = buffer.End()
	return err
}

// Tick renders and presents one frame. It blocks until the frame slot it
// reuses and the acquired image are no longer in use by the GPU.
func (e *Executor) Tick(target Presentable) error {
	if e.shutdown {
		return errors.AssertionFailedf("tick after shutdown")
	}
	if len(e.ring) == 0 {
		return errors.AssertionFailedf("tick before command buffers were recorded")
	}

	frame := e.ring[e.current]
	fences := []core1_0.Fence{frame.inFlight}

	if _, err := e.ctx.Device.WaitForFences(true, common.NoTimeout, fences); err != nil {
		return errors.Wrap(err, "wait for frame in flight")
	}

	imageIndex, res, err := target.Swapchain().AcquireNextImage(common.NoTimeout, frame.acquired, nil)
	if res == khr_swapchain.VKErrorOutOfDate {
		return ErrSwapchainStale
	} else if err != nil {
		return errors.Wrap(err, "acquire swapchain image")
	}

	if imageIndex < 0 || imageIndex >= len(e.buffers) {
		return errors.AssertionFailedf("acquired image %d of %d", imageIndex, len(e.buffers))
	}

	if wait := e.imagesInFlight.claim(imageIndex, frame.inFlight); wait != nil {
		if _, err := wait.Wait(common.NoTimeout); err != nil {
			return errors.Wrapf(err, "wait for image %d", imageIndex)
		}
	}

	if _, err := e.ctx.Device.ResetFences(fences); err != nil {
		return errors.Wrap(err, "reset in-flight fence")
	}

	_, err = e.ctx.GraphicsQueue.Submit(frame.inFlight, []core1_0.SubmitInfo{
		{
			WaitSemaphores:   []core1_0.Semaphore{frame.acquired},
			WaitDstStageMask: []core1_0.PipelineStageFlags{core1_0.PipelineStageColorAttachmentOutput},
			CommandBuffers:   []core1_0.CommandBuffer{e.buffers[imageIndex]},
			SignalSemaphores: []core1_0.Semaphore{e.finished[imageIndex]},
		},
	})
	if err != nil {
		return errors.Wrap(err, "submit frame")
	}

	res, err = target.Extension().QueuePresent(e.ctx.PresentQueue, khr_swapchain.PresentInfo{
		WaitSemaphores: []core1_0.Semaphore{e.finished[imageIndex]},
		Swapchains:     []khr_swapchain.Swapchain{target.Swapchain()},
		ImageIndices:   []int{imageIndex},
	})
	if res == khr_swapchain.VKErrorOutOfDate || res == khr_swapchain.VKSuboptimal {
		return ErrSwapchainStale
	} else if err != nil {
		return errors.Wrap(err, "present frame")
	}

	e.current = next(e.current, len(e.ring))

	if report, ok := e.stats.Observe(hrtime.Now()); ok {
		e.logger.Debug("frame statistics",
			slog.Int("frames", report.Frames),
			slog.Duration("average", report.Average()),
			slog.Float64("fps", report.FPS()),
			slog.Int("total", e.stats.Total()))
	}
	return nil
}

// Shutdown waits for all GPU work to finish. Only the first call waits.
func (e *Executor) Shutdown() error {
	if e.shutdown {
		return nil
	}
	e.shutdown = true

	if err := e.ctx.WaitIdle(); err != nil {
		return errors.Wrap(err, "wait for device idle")
	}
	return nil
}

func (e *Executor) release() {
	if len(e.buffers) > 0 {
		e.ctx.Device.FreeCommandBuffers(e.buffers)
		e.buffers = nil
	}
	destroySemaphores(e.finished)
	e.finished = nil
	destroyRing(e.ring)
	e.ring = nil
	e.imagesInFlight = nil
}

// Destroy frees the command buffers and synchronization objects.
func (e *Executor) Destroy() {
	e.release()
}

// CommandBuffers is the number of recorded command buffers.
func (e *Executor) CommandBuffers() int {
	return len(e.buffers)
}
