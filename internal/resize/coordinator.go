// Package resize rebuilds the swapchain-dependent objects when the window
// size changes.
package resize

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/vulkan-presenter/internal/logging"
	"golang.org/x/exp/slog"
)

type Device interface {
	WaitIdle() error
}

type Swapchain interface {
	DestroyViews()
	Create(width, height int) error
	CreateViews() error
	Format() core1_0.Format
	Extent() core1_0.Extent2D
	Views() []core1_0.ImageView
}

type Pipeline interface {
	DestroyFramebuffers()
	DestroyPipeline()
	DestroyRenderPass()
	CreateRenderPass(format core1_0.Format) error
	CreatePipeline(extent core1_0.Extent2D) error
	CreateFramebuffers(views []core1_0.ImageView, extent core1_0.Extent2D) error
}

// Recorder re-records the command buffers against the rebuilt objects.
type Recorder interface {
	Rerecord() error
}

// Coordinator tears down and rebuilds the swapchain chain in dependency
// order.
type Coordinator struct {
	logger    *slog.Logger
	device    Device
	swapchain Swapchain
	pipeline  Pipeline
	recorder  Recorder
}

func NewCoordinator(logger *slog.Logger, device Device, swapchain Swapchain, pipeline Pipeline, recorder Recorder) *Coordinator {
	return &Coordinator{
		logger:    logging.OrDiscard(logger),
		device:    device,
		swapchain: swapchain,
		pipeline:  pipeline,
		recorder:  recorder,
	}
}

// Handle rebuilds everything for a drawable of width x height pixels. A
// zero dimension means the window is minimized and nothing happens; the
// returned bool reports whether a rebuild took place.
func (c *Coordinator) Handle(width, height int) (bool, error) {
	if width <= 0 || height <= 0 {
		c.logger.Debug("ignoring resize to empty drawable", slog.Int("width", width), slog.Int("height", height))
		return false, nil
	}

	if err := c.device.WaitIdle(); err != nil {
		return false, errors.Wrap(err, "wait for device idle before resize")
	}

	c.pipeline.DestroyFramebuffers()
	c.pipeline.DestroyPipeline()
	c.pipeline.DestroyRenderPass()
	c.swapchain.DestroyViews()

	if err := c.swapchain.Create(width, height); err != nil {
		return false, err
	}
	if err := c.swapchain.CreateViews(); err != nil {
		return false, err
	}
	if err := c.pipeline.CreateRenderPass(c.swapchain.Format()); err != nil {
		return false, err
	}

	extent := c.swapchain.Extent()
	if err := c.pipeline.CreatePipeline(extent); err != nil {
		return false, err
	}
	if err := c.pipeline.CreateFramebuffers(c.swapchain.Views(), extent); err != nil {
		return false, err
	}
	if err := c.recorder.Rerecord(); err != nil {
		return false, err
	}

	c.logger.Info("swapchain rebuilt",
		slog.Int("width", extent.Width),
		slog.Int("height", extent.Height),
		slog.Int("images", len(c.swapchain.Views())))
	return true, nil
}
