package swapchain

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_surface"
	"github.com/vkngwrapper/extensions/khr_swapchain"
	"github.com/vkngwrapper/vulkan-presenter/internal/device"
	"github.com/vkngwrapper/vulkan-presenter/internal/lifecycle"
	"github.com/vkngwrapper/vulkan-presenter/internal/logging"
	"github.com/vkngwrapper/vulkan-presenter/internal/surface"
	"golang.org/x/exp/slog"
)

// Target is one swapchain image and its view. Targets are created and
// destroyed as a group, never individually.
type Target struct {
	Image core1_0.Image
	View  core1_0.ImageView
}

// Manager owns the swapchain and its targets.
type Manager struct {
	logger  *slog.Logger
	ctx     *device.Context
	surface khr_surface.Surface

	extension khr_swapchain.Extension
	swapchain khr_swapchain.Swapchain
	config    Configuration
	targets   []Target
}

func NewManager(logger *slog.Logger, ctx *device.Context, surface khr_surface.Surface) *Manager {
	return &Manager{
		logger:    logging.OrDiscard(logger),
		ctx:       ctx,
		surface:   surface,
		extension: khr_swapchain.CreateExtensionFromDevice(ctx.Device),
	}
}

// Create negotiates a fresh configuration and builds a swapchain from it.
// The current swapchain, if any, is handed over as the old swapchain and is
// destroyed only once its successor exists. Views must have been destroyed
// beforehand; Create leaves the new targets without views.
func (m *Manager) Create(width, height int) error {
	support, err := surface.Query(m.surface, m.ctx.Physical)
	if err != nil {
		return errors.Wrap(err, "query surface support")
	}

	config, err := Negotiate(support, width, height)
	if err != nil {
		return err
	}

	sharingMode, queueFamilies := SharingMode(m.ctx.GraphicsFamily, m.ctx.PresentFamily)

	next, err := lifecycle.Replace(m.swapchain, func(old khr_swapchain.Swapchain) (khr_swapchain.Swapchain, error) {
		swapchain, _, err := m.extension.CreateSwapchain(m.ctx.Device, nil, khr_swapchain.SwapchainCreateInfo{
			Surface: m.surface,

			MinImageCount:    config.ImageCount,
			ImageFormat:      config.Format.Format,
			ImageColorSpace:  config.Format.ColorSpace,
			ImageExtent:      config.Extent,
			ImageArrayLayers: 1,
			ImageUsage:       core1_0.ImageUsageColorAttachment,

			ImageSharingMode:   sharingMode,
			QueueFamilyIndices: queueFamilies,

			PreTransform:   support.Capabilities.CurrentTransform,
			CompositeAlpha: khr_surface.CompositeAlphaOpaque,
			PresentMode:    config.PresentMode,
			Clipped:        true,
			OldSwapchain:   old,
		})
		return swapchain, err
	}, func(old khr_swapchain.Swapchain) {
		old.Destroy(nil)
	})
	if err != nil {
		return errors.Wrap(err, "create swapchain")
	}
	m.swapchain = next
	m.config = config
	m.targets = nil

	images, _, err := m.swapchain.SwapchainImages()
	if err != nil {
		return errors.Wrap(err, "fetch swapchain images")
	}
	for _, image := range images {
		m.targets = append(m.targets, Target{Image: image})
	}

	m.logger.Info("swapchain created",
		slog.Any("format", config.Format.Format),
		slog.Any("colorSpace", config.Format.ColorSpace),
		slog.Any("presentMode", config.PresentMode),
		slog.Int("width", config.Extent.Width),
		slog.Int("height", config.Extent.Height),
		slog.Int("images", len(m.targets)))

	return nil
}

// CreateViews creates one color view per swapchain image. If any view
// fails, the ones already created are destroyed.
func (m *Manager) CreateViews() error {
	var rollback lifecycle.Stack
	defer rollback.Unwind()

	for i := range m.targets {
		view, _, err := m.ctx.Device.CreateImageView(nil, core1_0.ImageViewCreateInfo{
			ViewType: core1_0.ImageViewType2D,
			Image:    m.targets[i].Image,
			Format:   m.config.Format.Format,
			Components: core1_0.ComponentMapping{
				R: core1_0.ComponentSwizzleIdentity,
				G: core1_0.ComponentSwizzleIdentity,
				B: core1_0.ComponentSwizzleIdentity,
				A: core1_0.ComponentSwizzleIdentity,
			},
			SubresourceRange: core1_0.ImageSubresourceRange{
				AspectMask:     core1_0.ImageAspectColor,
				BaseMipLevel:   0,
				LevelCount:     1,
				BaseArrayLayer: 0,
				LayerCount:     1,
			},
		})
		if err != nil {
			return errors.Wrapf(err, "create view for swapchain image %d", i)
		}

		target := &m.targets[i]
		target.View = view
		rollback.Push(func() {
			target.View.Destroy(nil)
			target.View = nil
		})
	}

	rollback.Disarm()
	return nil
}

// DestroyViews destroys every image view. The images belong to the
// swapchain and are left alone.
func (m *Manager) DestroyViews() {
	for i := range m.targets {
		if m.targets[i].View != nil {
			m.targets[i].View.Destroy(nil)
			m.targets[i].View = nil
		}
	}
}

// Destroy releases the views and the swapchain.
func (m *Manager) Destroy() {
	m.DestroyViews()
	m.targets = nil

	if m.swapchain != nil {
		m.swapchain.Destroy(nil)
		m.swapchain = nil
	}
}

func (m *Manager) Swapchain() khr_swapchain.Swapchain { return m.swapchain }
func (m *Manager) Extension() khr_swapchain.Extension { return m.extension }
func (m *Manager) Config() Configuration              { return m.config }
func (m *Manager) Format() core1_0.Format             { return m.config.Format.Format }
func (m *Manager) Extent() core1_0.Extent2D           { return m.config.Extent }
func (m *Manager) Targets() []Target                  { return m.targets }

// Views returns the image views in image order.
func (m *Manager) Views() []core1_0.ImageView {
	views := make([]core1_0.ImageView, 0, len(m.targets))
	for _, target := range m.targets {
		views = append(views, target.View)
	}
	return views
}
