// Package pipeline owns the render pass, the graphics pipeline and the
// framebuffers built on top of the swapchain image views.
package pipeline

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_swapchain"
	"github.com/vkngwrapper/vulkan-presenter/internal/lifecycle"
	"github.com/vkngwrapper/vulkan-presenter/internal/logging"
	"github.com/vkngwrapper/vulkan-presenter/internal/mesh"
	"golang.org/x/exp/slog"
)

// ShaderLoader turns a path into a SPIR-V word stream.
type ShaderLoader interface {
	Load(path string) ([]uint32, error)
}

// ShaderPaths names the two compiled shader stages.
type ShaderPaths struct {
	Vertex   string
	Fragment string
}

// Resources owns the objects that depend on the swapchain format or extent.
type Resources struct {
	logger  *slog.Logger
	device  core1_0.Device
	loader  ShaderLoader
	shaders ShaderPaths

	renderPass   core1_0.RenderPass
	layout       core1_0.PipelineLayout
	pipeline     core1_0.Pipeline
	framebuffers []core1_0.Framebuffer
}

func NewResources(logger *slog.Logger, device core1_0.Device, loader ShaderLoader, shaders ShaderPaths) *Resources {
	return &Resources{
		logger:  logging.OrDiscard(logger),
		device:  device,
		loader:  loader,
		shaders: shaders,
	}
}

func renderPassInfo(format core1_0.Format) core1_0.RenderPassCreateInfo {
	return core1_0.RenderPassCreateInfo{
		Attachments: []core1_0.AttachmentDescription{
			{
				Format:         format,
				Samples:        core1_0.Samples1,
				LoadOp:         core1_0.AttachmentLoadOpClear,
				StoreOp:        core1_0.AttachmentStoreOpStore,
				StencilLoadOp:  core1_0.AttachmentLoadOpDontCare,
				StencilStoreOp: core1_0.AttachmentStoreOpDontCare,
				InitialLayout:  core1_0.ImageLayoutUndefined,
				FinalLayout:    khr_swapchain.ImageLayoutPresentSrc,
			},
		},
		Subpasses: []core1_0.SubpassDescription{
			{
				PipelineBindPoint: core1_0.PipelineBindPointGraphics,
				ColorAttachments: []core1_0.AttachmentReference{
					{
						Attachment: 0,
						Layout:     core1_0.ImageLayoutColorAttachmentOptimal,
					},
				},
			},
		},
		SubpassDependencies: []core1_0.SubpassDependency{
			{
				SrcSubpass: core1_0.SubpassExternal,
				DstSubpass: 0,

				SrcStageMask:  core1_0.PipelineStageColorAttachmentOutput,
				SrcAccessMask: 0,

				DstStageMask:  core1_0.PipelineStageColorAttachmentOutput,
				DstAccessMask: core1_0.AccessColorAttachmentWrite,
			},
		},
	}
}

// CreateRenderPass creates the single-subpass render pass that clears the
// swapchain image and leaves it ready for presentation.
func (r *Resources) CreateRenderPass(format core1_0.Format) error {
	renderPass, _, err := r.device.CreateRenderPass(nil, renderPassInfo(format))
	if err != nil {
		return errors.Wrap(err, "create render pass")
	}

	r.renderPass = renderPass
	return nil
}

func (r *Resources) DestroyRenderPass() {
	if r.renderPass != nil {
		r.renderPass.Destroy(nil)
		r.renderPass = nil
	}
}

func (r *Resources) createShaderModule(path string) (core1_0.ShaderModule, error) {
	code, err := r.loader.Load(path)
	if err != nil {
		return nil, err
	}

	module, _, err := r.device.CreateShaderModule(nil, core1_0.ShaderModuleCreateInfo{
		Code: code,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "create shader module from %s", path)
	}
	return module, nil
}

func viewportState(extent core1_0.Extent2D) *core1_0.PipelineViewportStateCreateInfo {
	return &core1_0.PipelineViewportStateCreateInfo{
		Viewports: []core1_0.Viewport{
			{
				X:        0,
				Y:        0,
				Width:    float32(extent.Width),
				Height:   float32(extent.Height),
				MinDepth: 0,
				MaxDepth: 1,
			},
		},
		Scissors: []core1_0.Rect2D{
			{
				Offset: core1_0.Offset2D{X: 0, Y: 0},
				Extent: extent,
			},
		},
	}
}

func rasterizationState() *core1_0.PipelineRasterizationStateCreateInfo {
	return &core1_0.PipelineRasterizationStateCreateInfo{
		DepthClampEnable:        false,
		RasterizerDiscardEnable: false,

		PolygonMode: core1_0.PolygonModeFill,
		CullMode:    core1_0.CullModeBack,
		FrontFace:   core1_0.FrontFaceClockwise,

		DepthBiasEnable: false,

		LineWidth: 1.0,
	}
}

// CreatePipeline creates the pipeline layout and the graphics pipeline for
// the current render pass. The shader modules only live for the duration of
// the call.
func (r *Resources) CreatePipeline(extent core1_0.Extent2D) error {
	if r.renderPass == nil {
		return errors.AssertionFailedf("pipeline created without a render pass")
	}

	vertShader, err := r.createShaderModule(r.shaders.Vertex)
	if err != nil {
		return errors.Wrap(err, "vertex shader")
	}
	defer vertShader.Destroy(nil)

	fragShader, err := r.createShaderModule(r.shaders.Fragment)
	if err != nil {
		return errors.Wrap(err, "fragment shader")
	}
	defer fragShader.Destroy(nil)

	layout, _, err := r.device.CreatePipelineLayout(nil, core1_0.PipelineLayoutCreateInfo{})
	if err != nil {
		return errors.Wrap(err, "create pipeline layout")
	}

	pipelines, _, err := r.device.CreateGraphicsPipelines(nil, nil, []core1_0.GraphicsPipelineCreateInfo{
		{
			Stages: []core1_0.PipelineShaderStageCreateInfo{
				{
					Stage:  core1_0.StageVertex,
					Module: vertShader,
					Name:   "main",
				},
				{
					Stage:  core1_0.StageFragment,
					Module: fragShader,
					Name:   "main",
				},
			},
			VertexInputState: &core1_0.PipelineVertexInputStateCreateInfo{
				VertexBindingDescriptions:   mesh.BindingDescriptions(),
				VertexAttributeDescriptions: mesh.AttributeDescriptions(),
			},
			InputAssemblyState: &core1_0.PipelineInputAssemblyStateCreateInfo{
				Topology:               core1_0.PrimitiveTopologyTriangleList,
				PrimitiveRestartEnable: false,
			},
			ViewportState:      viewportState(extent),
			RasterizationState: rasterizationState(),
			MultisampleState: &core1_0.PipelineMultisampleStateCreateInfo{
				SampleShadingEnable:  false,
				RasterizationSamples: core1_0.Samples1,
				MinSampleShading:     1.0,
			},
			ColorBlendState: &core1_0.PipelineColorBlendStateCreateInfo{
				LogicOpEnabled: false,
				LogicOp:        core1_0.LogicOpCopy,

				BlendConstants: [4]float32{0, 0, 0, 0},
				Attachments: []core1_0.PipelineColorBlendAttachmentState{
					{
						BlendEnabled:   false,
						ColorWriteMask: core1_0.ColorComponentRed | core1_0.ColorComponentGreen | core1_0.ColorComponentBlue | core1_0.ColorComponentAlpha,
					},
				},
			},
			Layout:            layout,
			RenderPass:        r.renderPass,
			Subpass:           0,
			BasePipelineIndex: -1,
		},
	})
	if err != nil {
		layout.Destroy(nil)
		return errors.Wrap(err, "create graphics pipeline")
	}

	r.layout = layout
	r.pipeline = pipelines[0]
	r.logger.Debug("graphics pipeline created", slog.Int("width", extent.Width), slog.Int("height", extent.Height))
	return nil
}

func (r *Resources) DestroyPipeline() {
	if r.pipeline != nil {
		r.pipeline.Destroy(nil)
		r.pipeline = nil
	}
	if r.layout != nil {
		r.layout.Destroy(nil)
		r.layout = nil
	}
}

// CreateFramebuffers creates one framebuffer per image view, in view order.
func (r *Resources) CreateFramebuffers(views []core1_0.ImageView, extent core1_0.Extent2D) error {
	if r.renderPass == nil {
		return errors.AssertionFailedf("framebuffers created without a render pass")
	}

	var rollback lifecycle.Stack
	defer rollback.Unwind()

	framebuffers := make([]core1_0.Framebuffer, 0, len(views))
	for i, view := range views {
		framebuffer, _, err := r.device.CreateFramebuffer(nil, core1_0.FramebufferCreateInfo{
			RenderPass:  r.renderPass,
			Layers:      1,
			Attachments: []core1_0.ImageView{view},
			Width:       extent.Width,
			Height:      extent.Height,
		})
		if err != nil {
			return errors.Wrapf(err, "create framebuffer %d", i)
		}

		rollback.Push(func() { framebuffer.Destroy(nil) })
		framebuffers = append(framebuffers, framebuffer)
	}

	rollback.Disarm()
	r.framebuffers = framebuffers
	return nil
}

func (r *Resources) DestroyFramebuffers() {
	for _, framebuffer := range r.framebuffers {
		framebuffer.Destroy(nil)
	}
	r.framebuffers = nil
}

// Destroy releases everything in dependency order.
func (r *Resources) Destroy() {
	r.DestroyFramebuffers()
	r.DestroyPipeline()
	r.DestroyRenderPass()
}

func (r *Resources) RenderPass() core1_0.RenderPass       { return r.renderPass }
func (r *Resources) Pipeline() core1_0.Pipeline           { return r.pipeline }
func (r *Resources) Framebuffers() []core1_0.Framebuffer { return r.framebuffers }
