// Package renderer builds the whole presentation chain and runs the frame
// loop.
package renderer

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core"
	"github.com/vkngwrapper/core/common"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/ext_debug_utils"
	"github.com/vkngwrapper/extensions/khr_portability_enumeration"
	"github.com/vkngwrapper/extensions/khr_surface"
	"github.com/vkngwrapper/vulkan-presenter/internal/capability"
	"github.com/vkngwrapper/vulkan-presenter/internal/config"
	"github.com/vkngwrapper/vulkan-presenter/internal/device"
	"github.com/vkngwrapper/vulkan-presenter/internal/frame"
	"github.com/vkngwrapper/vulkan-presenter/internal/lifecycle"
	"github.com/vkngwrapper/vulkan-presenter/internal/logging"
	"github.com/vkngwrapper/vulkan-presenter/internal/mesh"
	"github.com/vkngwrapper/vulkan-presenter/internal/pipeline"
	"github.com/vkngwrapper/vulkan-presenter/internal/resize"
	"github.com/vkngwrapper/vulkan-presenter/internal/shaders"
	"github.com/vkngwrapper/vulkan-presenter/internal/swapchain"
	"github.com/vkngwrapper/vulkan-presenter/internal/transfer"
	"github.com/vkngwrapper/vulkan-presenter/internal/window"
	"golang.org/x/exp/slog"
)

// pausedPoll is how long the loop sleeps between polls while minimized.
const pausedPoll = 16 * time.Millisecond

type Renderer struct {
	cfg    config.Config
	logger *slog.Logger
	steps  *lifecycle.Pipeline

	window    *window.Window
	loader    core.Loader
	instance  core1_0.Instance
	messenger ext_debug_utils.DebugUtilsMessenger
	surface   khr_surface.Surface

	candidate device.Candidate
	device    *device.Context
	swapchain *swapchain.Manager
	resources *pipeline.Resources
	geometry  *transfer.Geometry
	executor  *frame.Executor
	resizer   *resize.Coordinator
}

func New(cfg config.Config, logger *slog.Logger) *Renderer {
	logger = logging.OrDiscard(logger)
	return &Renderer{
		cfg:    cfg,
		logger: logger,
		steps:  lifecycle.NewPipeline(logger),
	}
}

// Build creates every object the frame loop needs, in dependency order. On
// failure everything built so far has already been released.
func (r *Renderer) Build() error {
	r.steps.Add("open window", r.openWindow, r.closeWindow)
	r.steps.Add("create instance", r.createInstance, func() { r.instance.Destroy(nil) })
	if r.cfg.Validation {
		r.steps.Add("install debug messenger", r.installMessenger, func() { r.messenger.Destroy(nil) })
	}
	r.steps.Add("create surface", r.createSurface, func() { r.surface.Destroy(nil) })
	r.steps.Add("pick physical device", r.pickDevice, nil)
	r.steps.Add("create logical device", r.createDevice, func() { r.device.Destroy() })
	r.steps.Add("create command pool", func() error { return r.device.CreateCommandPool() }, func() { r.device.DestroyCommandPool() })
	r.steps.Add("create swapchain", r.createSwapchain, func() { r.swapchain.Destroy() })
	r.steps.Add("create image views", func() error { return r.swapchain.CreateViews() }, func() { r.swapchain.DestroyViews() })
	r.steps.Add("create render pass", r.createRenderPass, func() { r.resources.DestroyRenderPass() })
	r.steps.Add("create graphics pipeline", func() error { return r.resources.CreatePipeline(r.swapchain.Extent()) }, func() { r.resources.DestroyPipeline() })
	r.steps.Add("create framebuffers", func() error {
		return r.resources.CreateFramebuffers(r.swapchain.Views(), r.swapchain.Extent())
	}, func() { r.resources.DestroyFramebuffers() })
	r.steps.Add("upload geometry", r.uploadGeometry, func() { r.geometry.Destroy() })
	r.steps.Add("record command buffers", r.createExecutor, func() { r.executor.Destroy() })

	if err := r.steps.Run(); err != nil {
		return err
	}

	r.resizer = resize.NewCoordinator(r.logger, r.device, r.swapchain, r.resources, r)
	return nil
}

func (r *Renderer) openWindow() error {
	var err error
	r.window, err = window.Open(r.cfg.Window)
	if err != nil {
		return err
	}

	r.loader, err = r.window.Loader()
	if err != nil {
		r.window.Close()
		return err
	}
	return nil
}

func (r *Renderer) closeWindow() {
	r.window.Close()
}

func (r *Renderer) createInstance() error {
	layers, _, err := r.loader.AvailableLayers()
	if err != nil {
		return errors.Wrap(err, "enumerate layers")
	}
	extensions, _, err := r.loader.AvailableExtensions()
	if err != nil {
		return errors.Wrap(err, "enumerate instance extensions")
	}

	available := capability.Available{
		Layers:     capability.FromMap(layers),
		Extensions: capability.FromMap(extensions),
	}
	r.logger.Debug("instance capabilities",
		slog.Any("layers", []string(available.Layers)),
		slog.Any("extensions", []string(available.Extensions)))

	result, err := capability.Negotiate(capability.Requirements{
		Layers:     r.cfg.Layers,
		Platform:   r.window.RequiredExtensions(),
		Validation: r.cfg.Validation,
	}, available)
	if err != nil {
		return err
	}

	info := core1_0.InstanceCreateInfo{
		ApplicationName:       "Vulkan Presenter",
		ApplicationVersion:    common.CreateVersion(1, 0, 0),
		EngineName:            "No Engine",
		EngineVersion:         common.CreateVersion(1, 0, 0),
		APIVersion:            common.Vulkan1_2,
		EnabledExtensionNames: result.Extensions,
		EnabledLayerNames:     result.Layers,
	}
	if result.Portability {
		info.Flags |= khr_portability_enumeration.InstanceCreateEnumeratePortability
	}
	if r.cfg.Validation {
		// Covers messages emitted while the instance itself is created or
		// destroyed.
		info.Next = messengerInfo(r.logger)
	}

	r.instance, _, err = r.loader.CreateInstance(nil, info)
	if err != nil {
		return errors.Wrap(err, "create instance")
	}

	r.logger.Info("instance created",
		slog.Any("layers", []string(result.Layers)),
		slog.Any("extensions", []string(result.Extensions)))
	return nil
}

func (r *Renderer) installMessenger() error {
	debugLoader := ext_debug_utils.CreateExtensionFromInstance(r.instance)

	var err error
	r.messenger, _, err = debugLoader.CreateDebugUtilsMessenger(r.instance, nil, messengerInfo(r.logger))
	if err != nil {
		return &DebugCallbackInstallError{Cause: err}
	}
	return nil
}

func (r *Renderer) createSurface() error {
	var err error
	r.surface, err = r.window.CreateSurface(r.instance)
	return err
}

func (r *Renderer) pickDevice() error {
	var err error
	r.candidate, err = device.Pick(r.logger,
		device.InstanceDevices{Instance: r.instance},
		device.SurfaceProber{Surface: r.surface, Required: device.RequiredExtensions},
		device.RequiredExtensions)
	if err != nil {
		return err
	}

	r.logger.Info("physical device selected",
		slog.String("name", r.candidate.Name),
		slog.Int("graphicsFamily", *r.candidate.GraphicsFamily),
		slog.Int("presentFamily", *r.candidate.PresentFamily))
	return nil
}

func (r *Renderer) createDevice() error {
	var err error
	r.device, err = device.NewContext(r.candidate, device.RequiredExtensions)
	return err
}

func (r *Renderer) createSwapchain() error {
	r.swapchain = swapchain.NewManager(r.logger, r.device, r.surface)
	r.resources = pipeline.NewResources(r.logger, r.device.Device, shaders.FileLoader{}, pipeline.ShaderPaths{
		Vertex:   r.cfg.VertexShader,
		Fragment: r.cfg.FragmentShader,
	})

	width, height := r.window.DrawableSize()
	return r.swapchain.Create(width, height)
}

func (r *Renderer) createRenderPass() error {
	return r.resources.CreateRenderPass(r.swapchain.Format())
}

func (r *Renderer) loadMesh() (mesh.Mesh, error) {
	if r.cfg.MeshPath == "" {
		return mesh.Quad(), nil
	}
	return mesh.LoadOBJ(r.cfg.MeshPath, r.cfg.MaterialPath)
}

func (r *Renderer) uploadGeometry() error {
	m, err := r.loadMesh()
	if err != nil {
		return err
	}

	r.geometry, err = transfer.NewEngine(r.logger, r.device).UploadMesh(m)
	if err != nil {
		return err
	}

	r.logger.Info("geometry uploaded",
		slog.Int("vertices", len(m.Vertices)),
		slog.Int("indices", len(m.Indices)))
	return nil
}

func (r *Renderer) createExecutor() error {
	r.executor = frame.NewExecutor(r.logger, r.device, r.cfg.MaxFramesInFlight, r.cfg.StatsInterval)
	return r.Rerecord()
}

// Rerecord records the command buffers against the current swapchain and
// pipeline.
func (r *Renderer) Rerecord() error {
	return r.executor.Record(frame.Scene{
		RenderPass:   r.resources.RenderPass(),
		Pipeline:     r.resources.Pipeline(),
		Framebuffers: r.resources.Framebuffers(),
		Extent:       r.swapchain.Extent(),
		Geometry:     r.geometry,
	})
}

// Run builds the chain and renders until the window is closed or ctx is
// cancelled. Cancellation is only observed between frames. Everything is
// torn down before Run returns.
func (r *Renderer) Run(ctx context.Context) (err error) {
	if err := r.Build(); err != nil {
		return err
	}
	defer r.steps.Teardown()
	defer func() {
		err = errors.CombineErrors(err, r.executor.Shutdown())
	}()

	var state loopState
	for {
		if ctx.Err() != nil {
			r.logger.Info("stopping", slog.String("reason", context.Cause(ctx).Error()))
			return nil
		}

		r.window.Poll()
		r.drain(&state)
		if state.closed || r.window.CloseRequested() {
			r.logger.Info("window closed")
			return nil
		}

		if pending, ok := state.takeResize(); ok {
			if err := r.resize(&state, pending.Width, pending.Height); err != nil {
				return err
			}
		}

		if state.paused || r.window.Minimized() {
			time.Sleep(pausedPoll)
			continue
		}

		err := r.executor.Tick(r.swapchain)
		if errors.Is(err, frame.ErrSwapchainStale) {
			width, height := r.window.DrawableSize()
			err = r.resize(&state, width, height)
		}
		if err != nil {
			return err
		}
	}
}

func (r *Renderer) drain(state *loopState) {
	for {
		select {
		case event := <-r.window.Events():
			state.apply(event)
		default:
			return
		}
	}
}

func (r *Renderer) resize(state *loopState, width, height int) error {
	rebuilt, err := r.resizer.Handle(width, height)
	if err != nil {
		return errors.Wrap(err, "rebuild swapchain")
	}

	state.paused = !rebuilt
	return nil
}
