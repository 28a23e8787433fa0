package pipeline

import (
	"testing"

	"github.com/cockroachdb/errors"
	. "github.com/onsi/gomega"
	"github.com/vkngwrapper/core/common"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/core/driver"
	"github.com/vkngwrapper/extensions/khr_swapchain"
)

func TestRenderPassInfo(t *testing.T) {
	g := NewWithT(t)

	info := renderPassInfo(core1_0.FormatB8G8R8A8SRGB)

	g.Expect(info.Attachments).To(HaveLen(1))
	color := info.Attachments[0]
	g.Expect(color.Format).To(Equal(core1_0.FormatB8G8R8A8SRGB))
	g.Expect(color.LoadOp).To(Equal(core1_0.AttachmentLoadOpClear))
	g.Expect(color.StoreOp).To(Equal(core1_0.AttachmentStoreOpStore))
	g.Expect(color.InitialLayout).To(Equal(core1_0.ImageLayoutUndefined))
	g.Expect(color.FinalLayout).To(Equal(khr_swapchain.ImageLayoutPresentSrc))

	g.Expect(info.Subpasses).To(HaveLen(1))
	g.Expect(info.Subpasses[0].ColorAttachments).To(HaveLen(1))

	g.Expect(info.SubpassDependencies).To(HaveLen(1))
	dependency := info.SubpassDependencies[0]
	g.Expect(dependency.SrcSubpass).To(Equal(core1_0.SubpassExternal))
	g.Expect(dependency.DstSubpass).To(Equal(0))
	g.Expect(dependency.SrcStageMask).To(Equal(core1_0.PipelineStageColorAttachmentOutput))
	g.Expect(dependency.DstStageMask).To(Equal(core1_0.PipelineStageColorAttachmentOutput))
	g.Expect(dependency.DstAccessMask).To(Equal(core1_0.AccessColorAttachmentWrite))
}

func TestFixedFunctionState(t *testing.T) {
	g := NewWithT(t)

	raster := rasterizationState()
	g.Expect(raster.PolygonMode).To(Equal(core1_0.PolygonModeFill))
	g.Expect(raster.CullMode).To(Equal(core1_0.CullModeBack))
	g.Expect(raster.FrontFace).To(Equal(core1_0.FrontFaceClockwise))

	extent := core1_0.Extent2D{Width: 1280, Height: 720}
	viewport := viewportState(extent)
	g.Expect(viewport.Viewports).To(HaveLen(1))
	g.Expect(viewport.Viewports[0].Width).To(BeNumerically("==", 1280))
	g.Expect(viewport.Viewports[0].Height).To(BeNumerically("==", 720))
	g.Expect(viewport.Scissors[0].Extent).To(Equal(extent))
}

type failingLoader struct {
	requested []string
}

func (f *failingLoader) Load(path string) ([]uint32, error) {
	f.requested = append(f.requested, path)
	return nil, errors.Newf("read %s: no such file", path)
}

type stubRenderPass struct {
	core1_0.RenderPass
}

func TestCreatePipelineRequiresRenderPass(t *testing.T) {
	g := NewWithT(t)

	loader := &failingLoader{}
	r := NewResources(nil, nil, loader, ShaderPaths{Vertex: "a.spv", Fragment: "b.spv"})

	err := r.CreatePipeline(core1_0.Extent2D{Width: 1, Height: 1})
	g.Expect(err).To(HaveOccurred())
	g.Expect(loader.requested).To(BeEmpty())
}

func TestCreatePipelineFailsOnShaderLoad(t *testing.T) {
	g := NewWithT(t)

	loader := &failingLoader{}
	r := NewResources(nil, nil, loader, ShaderPaths{Vertex: "a.spv", Fragment: "b.spv"})
	r.renderPass = stubRenderPass{}

	err := r.CreatePipeline(core1_0.Extent2D{Width: 1, Height: 1})
	g.Expect(err).To(MatchError(ContainSubstring("vertex shader")))
	g.Expect(loader.requested).To(Equal([]string{"a.spv"}))
	g.Expect(r.Pipeline()).To(BeNil())
}

func TestCreateFramebuffersRequiresRenderPass(t *testing.T) {
	g := NewWithT(t)

	r := NewResources(nil, nil, &failingLoader{}, ShaderPaths{})
	err := r.CreateFramebuffers(make([]core1_0.ImageView, 3), core1_0.Extent2D{Width: 1, Height: 1})
	g.Expect(err).To(HaveOccurred())
	g.Expect(r.Framebuffers()).To(BeEmpty())
}

// mapLoader serves shader code for the paths it knows.
type mapLoader map[string][]uint32

func (l mapLoader) Load(path string) ([]uint32, error) {
	code, ok := l[path]
	if !ok {
		return nil, errors.Newf("read %s: no such file", path)
	}
	return code, nil
}

type destroyable struct {
	destroyed int
}

func (d *destroyable) Destroy(*driver.AllocationCallbacks) { d.destroyed++ }

type fakeShaderModule struct {
	core1_0.ShaderModule
	destroyable
	code []uint32
}

func (m *fakeShaderModule) Destroy(c *driver.AllocationCallbacks) { m.destroyable.Destroy(c) }

type fakeLayout struct {
	core1_0.PipelineLayout
	destroyable
}

func (l *fakeLayout) Destroy(c *driver.AllocationCallbacks) { l.destroyable.Destroy(c) }

type fakePipeline struct {
	core1_0.Pipeline
	destroyable
}

func (p *fakePipeline) Destroy(c *driver.AllocationCallbacks) { p.destroyable.Destroy(c) }

type fakeFramebuffer struct {
	core1_0.Framebuffer
	destroyable
}

func (f *fakeFramebuffer) Destroy(c *driver.AllocationCallbacks) { f.destroyable.Destroy(c) }

type pipelineDevice struct {
	core1_0.Device

	modules      []*fakeShaderModule
	layouts      []*fakeLayout
	pipelines    []*fakePipeline
	framebuffers []*fakeFramebuffer

	failPipeline bool
	// failFramebuffer makes the n-th CreateFramebuffer call fail, counting
	// from 1. Zero never fails.
	failFramebuffer int
}

func (d *pipelineDevice) CreateShaderModule(_ *driver.AllocationCallbacks, o core1_0.ShaderModuleCreateInfo) (core1_0.ShaderModule, common.VkResult, error) {
	module := &fakeShaderModule{code: o.Code}
	d.modules = append(d.modules, module)
	return module, core1_0.VKSuccess, nil
}

func (d *pipelineDevice) CreatePipelineLayout(*driver.AllocationCallbacks, core1_0.PipelineLayoutCreateInfo) (core1_0.PipelineLayout, common.VkResult, error) {
	layout := &fakeLayout{}
	d.layouts = append(d.layouts, layout)
	return layout, core1_0.VKSuccess, nil
}

func (d *pipelineDevice) CreateGraphicsPipelines(_ core1_0.PipelineCache, _ *driver.AllocationCallbacks, o []core1_0.GraphicsPipelineCreateInfo) ([]core1_0.Pipeline, common.VkResult, error) {
	if d.failPipeline {
		return nil, core1_0.VKErrorOutOfDeviceMemory, errors.New("out of device memory")
	}
	pipelines := make([]core1_0.Pipeline, 0, len(o))
	for range o {
		pipeline := &fakePipeline{}
		d.pipelines = append(d.pipelines, pipeline)
		pipelines = append(pipelines, pipeline)
	}
	return pipelines, core1_0.VKSuccess, nil
}

func (d *pipelineDevice) CreateFramebuffer(*driver.AllocationCallbacks, core1_0.FramebufferCreateInfo) (core1_0.Framebuffer, common.VkResult, error) {
	if d.failFramebuffer == len(d.framebuffers)+1 {
		return nil, core1_0.VKErrorOutOfHostMemory, errors.New("out of host memory")
	}
	framebuffer := &fakeFramebuffer{}
	d.framebuffers = append(d.framebuffers, framebuffer)
	return framebuffer, core1_0.VKSuccess, nil
}

func TestCreatePipelineReleasesTransientObjects(t *testing.T) {
	shaders := ShaderPaths{Vertex: "vert.spv", Fragment: "frag.spv"}
	bothStages := mapLoader{"vert.spv": {0x07230203, 1}, "frag.spv": {0x07230203, 2}}

	tests := []struct {
		name         string
		loader       mapLoader
		failPipeline bool
		wantErr      string
		wantModules  int
		wantLayouts  int
		wantLayout   bool
	}{
		{
			name:        "fragment stage missing",
			loader:      mapLoader{"vert.spv": {0x07230203, 1}},
			wantErr:     "fragment shader",
			wantModules: 1,
		},
		{
			name:         "pipeline creation fails",
			loader:       bothStages,
			failPipeline: true,
			wantErr:      "create graphics pipeline",
			wantModules:  2,
			wantLayouts:  1,
		},
		{
			name:        "success keeps the layout",
			loader:      bothStages,
			wantModules: 2,
			wantLayouts: 1,
			wantLayout:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewWithT(t)

			dev := &pipelineDevice{failPipeline: tt.failPipeline}
			r := NewResources(nil, dev, tt.loader, shaders)
			r.renderPass = stubRenderPass{}

			err := r.CreatePipeline(core1_0.Extent2D{Width: 640, Height: 480})
			if tt.wantErr != "" {
				g.Expect(err).To(MatchError(ContainSubstring(tt.wantErr)))
				g.Expect(r.Pipeline()).To(BeNil())
			} else {
				g.Expect(err).NotTo(HaveOccurred())
				g.Expect(r.Pipeline()).To(BeIdenticalTo(dev.pipelines[0]))
			}

			// Shader modules never outlive the call.
			g.Expect(dev.modules).To(HaveLen(tt.wantModules))
			for _, module := range dev.modules {
				g.Expect(module.destroyed).To(Equal(1))
			}

			g.Expect(dev.layouts).To(HaveLen(tt.wantLayouts))
			for _, layout := range dev.layouts {
				if tt.wantLayout {
					g.Expect(layout.destroyed).To(BeZero())
				} else {
					g.Expect(layout.destroyed).To(Equal(1))
				}
			}

			r.DestroyPipeline()
			for _, layout := range dev.layouts {
				g.Expect(layout.destroyed).To(Equal(1))
			}
			for _, pipeline := range dev.pipelines {
				g.Expect(pipeline.destroyed).To(Equal(1))
			}
		})
	}
}

func TestCreateFramebuffersRollsBackOnFailure(t *testing.T) {
	g := NewWithT(t)

	dev := &pipelineDevice{failFramebuffer: 3}
	r := NewResources(nil, dev, mapLoader{}, ShaderPaths{})
	r.renderPass = stubRenderPass{}

	err := r.CreateFramebuffers(make([]core1_0.ImageView, 4), core1_0.Extent2D{Width: 1, Height: 1})
	g.Expect(err).To(MatchError(ContainSubstring("create framebuffer 2")))
	g.Expect(r.Framebuffers()).To(BeEmpty())
	g.Expect(dev.framebuffers).To(HaveLen(2))
	for _, framebuffer := range dev.framebuffers {
		g.Expect(framebuffer.destroyed).To(Equal(1))
	}
}
