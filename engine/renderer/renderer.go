package renderer

import (
	"fmt"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/dragonikpl/spine-runtimes/common"
	"github.com/dragonikpl/spine-runtimes/engine/renderer/bind_group_provider"
	"github.com/dragonikpl/spine-runtimes/engine/renderer/pipeline"
	"github.com/dragonikpl/spine-runtimes/engine/window"
)

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu        sync.Mutex
	pipelines map[string]pipeline.Pipeline
	backend   RendererBackend
}

// Renderer draws skeleton layers to a window surface.
//
// Pipelines are registered once and looked up by key. Each frame runs UploadGeometry for every
// layer, then BeginFrame, one DrawCall per layer in draw order, EndFrame and Present. Every draw
// is a single uint16-indexed triangle list.
type Renderer interface {
	// Pipeline returns the registered Pipeline with the given key, or nil.
	Pipeline(key string) pipeline.Pipeline

	// RegisterPipelines creates the GPU side of each pipeline and caches it by key. Keys that are
	// already registered are left alone.
	//
	// Parameters:
	//   - pipelines: the pipelines to register
	//
	// Returns:
	//   - error: the first creation failure, wrapped with the pipeline key
	RegisterPipelines(pipelines ...pipeline.Pipeline) error

	// Resize reconfigures the surface for a new framebuffer size. A zero size is ignored.
	Resize(width, height int)

	// SetPresentMode changes presentation from the next Resize on.
	SetPresentMode(mode PresentMode)

	// SetClearColor changes the color behind the skeletons from the next frame on.
	SetClearColor(color wgpu.Color)

	// InitTextureView uploads an atlas page and stages its view on the provider.
	//
	// Parameters:
	//   - provider: the layer's provider
	//   - bindingKey: the @binding of the texture in the atlas group
	//   - stagingData: straight-alpha RGBA8 pixels
	//
	// Returns:
	//   - error: an error if the page is empty or the upload fails
	InitTextureView(provider bind_group_provider.BindGroupProvider, bindingKey int, stagingData common.TextureStagingData) error

	// InitSampler creates a sampler and stages it on the provider.
	InitSampler(provider bind_group_provider.BindGroupProvider, bindingKey int, samplerStagingData common.SamplerStagingData) error

	// InitBindGroup builds one bind group of a registered pipeline from the provider's staged
	// views and samplers.
	//
	// Parameters:
	//   - provider: the layer's provider
	//   - pipelineKey: the registered pipeline whose layout to follow
	//   - group: the @group index
	//
	// Returns:
	//   - error: an error if the pipeline or group is unknown, or a binding has nothing staged
	InitBindGroup(provider bind_group_provider.BindGroupProvider, pipelineKey string, group int) error

	// UploadGeometry writes a frame's vertex and index bytes to the provider's buffers, which only
	// grow.
	//
	// Parameters:
	//   - provider: the layer's provider
	//   - vertexData: packed vertices
	//   - indexData: little-endian uint16 indices
	//   - indexCount: the number of indices
	//
	// Returns:
	//   - error: an error if a buffer cannot be allocated
	UploadGeometry(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error

	// BeginFrame acquires the next swapchain texture and starts the clearing pass.
	BeginFrame() error

	// DrawCall draws the provider's uploaded geometry with a registered pipeline.
	//
	// Returns:
	//   - error: an error if the pipeline is unknown or no frame is open
	DrawCall(pipelineKey string, provider bind_group_provider.BindGroupProvider) error

	// EndFrame submits the frame's commands without presenting them.
	EndFrame()

	// Present shows the submitted frame.
	Present()
}

var _ Renderer = &renderer{}

// NewRenderer opens a GPU device for the window's surface, configures the surface at the window
// size and registers the pipelines given with WithPipeline.
//
// Parameters:
//   - backendType: the GPU API to use
//   - window: the window to present to
//   - options: functional options to configure the renderer
//
// Returns:
//   - Renderer: the renderer
//   - error: an error if no device is available or a pipeline fails to register
func NewRenderer(backendType RendererBackendType, window window.Window, options ...RendererBuilderOption) (Renderer, error) {
	cfg := defaultRendererConfig()
	for _, opt := range options {
		opt(&cfg)
	}

	r := &renderer{pipelines: make(map[string]pipeline.Pipeline)}
	switch backendType {
	case BackendTypeWGPU:
		backend, err := newWGPURendererBackend(window.SurfaceDescriptor(), cfg.softwareAdapter, cfg.msaa)
		if err != nil {
			return nil, err
		}
		r.backend = backend
	default:
		return nil, fmt.Errorf("unsupported renderer backend %d", backendType)
	}
	r.backend.SetPresentMode(cfg.presentMode)
	r.backend.SetClearColor(&cfg.clearColor)
	r.backend.ConfigureSurface(window.Width(), window.Height())

	if err := r.RegisterPipelines(cfg.pipelines...); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *renderer) Resize(width, height int) {
	r.backend.ConfigureSurface(width, height)
}

func (r *renderer) SetPresentMode(mode PresentMode) {
	r.backend.SetPresentMode(mode)
}

func (r *renderer) SetClearColor(color wgpu.Color) {
	r.backend.SetClearColor(&color)
}

func (r *renderer) Pipeline(key string) pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pipelines[key]
}

func (r *renderer) RegisterPipelines(pipelines ...pipeline.Pipeline) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range pipelines {
		key := p.PipelineKey()
		if _, ok := r.pipelines[key]; ok {
			continue
		}
		if err := r.backend.RegisterRenderPipeline(p); err != nil {
			return fmt.Errorf("register pipeline %q: %w", key, err)
		}
		r.pipelines[key] = p
	}
	return nil
}

func (r *renderer) InitTextureView(provider bind_group_provider.BindGroupProvider, bindingKey int, stagingData common.TextureStagingData) error {
	return r.backend.InitTextureView(provider, bindingKey, stagingData)
}

func (r *renderer) InitSampler(provider bind_group_provider.BindGroupProvider, bindingKey int, samplerStagingData common.SamplerStagingData) error {
	return r.backend.InitSampler(provider, bindingKey, samplerStagingData)
}

func (r *renderer) InitBindGroup(provider bind_group_provider.BindGroupProvider, pipelineKey string, group int) error {
	p, err := r.lookup(pipelineKey)
	if err != nil {
		return err
	}
	descriptor, ok := p.BindGroupLayoutDescriptors()[group]
	if !ok {
		return fmt.Errorf("render pipeline %q has no bind group %d", pipelineKey, group)
	}
	return r.backend.InitBindGroup(provider, descriptor)
}

func (r *renderer) UploadGeometry(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error {
	return r.backend.UploadGeometry(provider, vertexData, indexData, indexCount)
}

func (r *renderer) BeginFrame() error {
	return r.backend.BeginFrame()
}

func (r *renderer) DrawCall(pipelineKey string, provider bind_group_provider.BindGroupProvider) error {
	p, err := r.lookup(pipelineKey)
	if err != nil {
		return err
	}
	return r.backend.DrawCall(p, provider)
}

func (r *renderer) lookup(key string) (pipeline.Pipeline, error) {
	if p := r.Pipeline(key); p != nil {
		return p, nil
	}
	return nil, fmt.Errorf("render pipeline %q is not registered", key)
}

func (r *renderer) EndFrame() {
	r.backend.EndFrame()
}

func (r *renderer) Present() {
	r.backend.Present()
}
