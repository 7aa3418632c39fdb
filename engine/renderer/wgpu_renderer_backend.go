package renderer

import (
	"errors"
	"fmt"
	"log"
	"runtime"
	"sort"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/dragonikpl/spine-runtimes/common"
	"github.com/dragonikpl/spine-runtimes/engine/renderer/bind_group_provider"
	"github.com/dragonikpl/spine-runtimes/engine/renderer/pipeline"
	"github.com/dragonikpl/spine-runtimes/engine/renderer/shader"
)

var (
	// errNoFrame is returned by DrawCall outside BeginFrame/EndFrame.
	errNoFrame = errors.New("no frame in progress")

	errNotConfigured = errors.New("surface is not configured")
)

type wgpuRendererBackend interface {
	// ConfigureSurface (re)creates the swapchain and MSAA target for a framebuffer size.
	// A zero size, as reported by a minimized window, leaves the surface unconfigured.
	ConfigureSurface(width, height int)

	// SetPresentMode takes effect on the next ConfigureSurface.
	SetPresentMode(mode PresentMode)

	// SetClearColor takes effect on the next BeginFrame.
	SetClearColor(color *wgpu.Color)

	// RegisterRenderPipeline compiles both shader stages of p, creates its layout and render
	// pipeline against the surface format, and stores the result on p.
	//
	// Parameters:
	//   - p: a pipeline with vertex and fragment shaders set
	//
	// Returns:
	//   - error: an error if the surface is unconfigured or any GPU object fails to create
	RegisterRenderPipeline(p pipeline.Pipeline) error

	// InitTextureView uploads an RGBA8 page and stores its view on the provider.
	InitTextureView(provider bind_group_provider.BindGroupProvider, bindingKey int, stagingData common.TextureStagingData) error

	// InitSampler creates a sampler and stores it on the provider.
	InitSampler(provider bind_group_provider.BindGroupProvider, bindingKey int, samplerStagingData common.SamplerStagingData) error

	// InitBindGroup creates a bind group from the views and samplers staged on the provider.
	//
	// Parameters:
	//   - provider: the provider holding the staged resources
	//   - descriptor: the group layout, whose entries must all be textures or samplers
	//
	// Returns:
	//   - error: an error if an entry has no staged resource or creation fails
	InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor) error

	// UploadGeometry writes vertex and uint16 index bytes, growing the provider's buffers only
	// when the data no longer fits. Empty geometry sets the index count to zero.
	UploadGeometry(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error

	// BeginFrame acquires the swapchain texture and opens a render pass that clears it.
	BeginFrame() error

	// DrawCall records one indexed draw into the open pass. Providers without indices are skipped.
	//
	// Returns:
	//   - error: errNoFrame outside a frame
	DrawCall(p pipeline.Pipeline, provider bind_group_provider.BindGroupProvider) error

	// EndFrame closes the pass and submits it. The frame is shown by Present.
	EndFrame()

	// Present shows the submitted frame and releases the swapchain texture.
	Present()
}

// msaaTarget is the multisampled color attachment resolved into the swapchain texture.
type msaaTarget struct {
	texture *wgpu.Texture
	view    *wgpu.TextureView
}

func (t *msaaTarget) release() {
	if t.view != nil {
		t.view.Release()
	}
	if t.texture != nil {
		t.texture.Release()
	}
	*t = msaaTarget{}
}

// frameState is everything held between BeginFrame and Present.
type frameState struct {
	surface *wgpu.Texture
	view    *wgpu.TextureView
	encoder *wgpu.CommandEncoder
	pass    *wgpu.RenderPassEncoder
}

// releaseEncoder drops the recording objects once the frame is submitted or abandoned.
func (f *frameState) releaseEncoder() {
	if f.pass != nil {
		f.pass.Release()
		f.pass = nil
	}
	if f.encoder != nil {
		f.encoder.Release()
		f.encoder = nil
	}
}

func (f *frameState) releaseSurface() {
	if f.view != nil {
		f.view.Release()
		f.view = nil
	}
	if f.surface != nil {
		f.surface.Release()
		f.surface = nil
	}
}

type wgpuRendererBackendImpl struct {
	mu sync.Mutex

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	surface  *wgpu.Surface

	// format is valid once configured is set
	format      wgpu.TextureFormat
	configured  bool
	presentMode wgpu.PresentMode
	clearColor  wgpu.Color
	sampleCount MSAASampleCount
	msaa        msaaTarget

	frame *frameState
}

var _ RendererBackend = &wgpuRendererBackendImpl{}

// newWGPURendererBackend requests an adapter compatible with the window surface and opens a device.
// It locks the calling goroutine to its OS thread, as wgpu-native surfaces must stay on one.
//
// Parameters:
//   - surfaceDescriptor: the window's native surface
//   - softwareAdapter: request the fallback adapter
//   - sampleCount: the MSAA sample count of every pipeline and of the color target
//
// Returns:
//   - wgpuRendererBackend: the backend, with an unconfigured surface
//   - error: an error if no adapter or device is available
func newWGPURendererBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, softwareAdapter bool, sampleCount MSAASampleCount) (wgpuRendererBackend, error) {
	if surfaceDescriptor == nil {
		return nil, errors.New("window has no surface")
	}
	runtime.LockOSThread()

	b := &wgpuRendererBackendImpl{
		instance:    wgpu.CreateInstance(nil),
		presentMode: wgpu.PresentModeFifo,
		sampleCount: sampleCount,
	}
	b.surface = b.instance.CreateSurface(surfaceDescriptor)

	adapter, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: softwareAdapter,
		CompatibleSurface:    b.surface,
	})
	if err != nil {
		return nil, fmt.Errorf("request adapter: %w", err)
	}
	b.adapter = adapter

	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{Label: "Spine Device"})
	if err != nil {
		return nil, fmt.Errorf("request device: %w", err)
	}
	b.device = device
	b.queue = device.GetQueue()
	return b, nil
}

func (b *wgpuRendererBackendImpl) ConfigureSurface(width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if width <= 0 || height <= 0 {
		return
	}

	caps := b.surface.GetCapabilities(b.adapter)
	b.format = chooseSurfaceFormat(caps.Formats)
	var alphaMode wgpu.CompositeAlphaMode // auto
	if len(caps.AlphaModes) > 0 {
		alphaMode = caps.AlphaModes[0]
	}
	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      b.format,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: b.presentMode,
		AlphaMode:   alphaMode,
	})
	b.configured = true

	b.msaa.release()
	if b.sampleCount <= MSAAOff {
		return
	}
	texture, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "Spine MSAA Target",
		Size:          wgpu.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   uint32(b.sampleCount),
		Dimension:     wgpu.TextureDimension2D,
		Format:        b.format,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		log.Printf("[Renderer] create MSAA target: %v", err)
		b.configured = false
		return
	}
	view, err := texture.CreateView(nil)
	if err != nil {
		log.Printf("[Renderer] create MSAA view: %v", err)
		texture.Release()
		b.configured = false
		return
	}
	b.msaa = msaaTarget{texture: texture, view: view}
}

func (b *wgpuRendererBackendImpl) SetPresentMode(mode PresentMode) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if mode == PresentModeVSync {
		b.presentMode = wgpu.PresentModeFifo
	} else {
		b.presentMode = wgpu.PresentModeImmediate
	}
}

func (b *wgpuRendererBackendImpl) SetClearColor(color *wgpu.Color) {
	if color == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clearColor = *color
}

func (b *wgpuRendererBackendImpl) RegisterRenderPipeline(p pipeline.Pipeline) error {
	vertexShader := p.Shader(shader.ShaderTypeVertex)
	fragmentShader := p.Shader(shader.ShaderTypeFragment)
	if vertexShader == nil || fragmentShader == nil {
		return errors.New("a render pipeline needs a vertex and a fragment shader")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.configured {
		return errNotConfigured
	}

	vs, err := b.device.CreateShaderModule(vertexShader.Module())
	if err != nil {
		return fmt.Errorf("compile %s: %w", vertexShader.Key(), err)
	}
	fs, err := b.device.CreateShaderModule(fragmentShader.Module())
	if err != nil {
		return fmt.Errorf("compile %s: %w", fragmentShader.Key(), err)
	}

	// pipeline layouts list groups densely from 0, in index order
	descriptors := p.BindGroupLayoutDescriptors()
	groups := make([]int, 0, len(descriptors))
	for g := range descriptors {
		groups = append(groups, g)
	}
	sort.Ints(groups)
	layouts := make([]*wgpu.BindGroupLayout, 0, len(groups))
	for _, g := range groups {
		desc := descriptors[g]
		layout, err := b.device.CreateBindGroupLayout(&desc)
		if err != nil {
			return fmt.Errorf("bind group layout %d: %w", g, err)
		}
		layouts = append(layouts, layout)
	}
	pipelineLayout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            p.PipelineKey(),
		BindGroupLayouts: layouts,
	})
	if err != nil {
		return err
	}

	renderPipeline, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  p.PipelineKey(),
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     vs,
			EntryPoint: vertexShader.EntryPoint(),
			Buffers:    vertexShader.VertexLayouts(),
		},
		Fragment: &wgpu.FragmentState{
			Module:     fs,
			EntryPoint: fragmentShader.EntryPoint(),
			Targets: []wgpu.ColorTargetState{{
				Format:    b.format,
				Blend:     p.BlendState(),
				WriteMask: p.WriteMask(),
			}},
		},
		Primitive: p.PrimitiveState(),
		Multisample: wgpu.MultisampleState{
			Count: uint32(b.sampleCount),
			Mask:  ^uint32(0),
		},
	})
	if err != nil {
		return err
	}
	p.SetRenderPipeline(renderPipeline)
	return nil
}

func (b *wgpuRendererBackendImpl) InitTextureView(provider bind_group_provider.BindGroupProvider, bindingKey int, stagingData common.TextureStagingData) error {
	if stagingData.Width == 0 || stagingData.Height == 0 {
		return fmt.Errorf("%s: atlas page has zero size", provider.Label())
	}
	if want := int(stagingData.Width) * int(stagingData.Height) * 4; len(stagingData.Pixels) < want {
		return fmt.Errorf("%s: atlas page has %d bytes, want %d", provider.Label(), len(stagingData.Pixels), want)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	size := wgpu.Extent3D{Width: stagingData.Width, Height: stagingData.Height, DepthOrArrayLayers: 1}
	// RGBA8Unorm, not sRGB: the atlas stores straight-alpha texels that must be sampled unchanged
	texture, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         provider.Label() + " Atlas",
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension:     wgpu.TextureDimension2D,
		Size:          size,
		Format:        wgpu.TextureFormatRGBA8Unorm,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return err
	}
	defer texture.Release()

	b.queue.WriteTexture(
		&wgpu.ImageCopyTexture{Texture: texture, Aspect: wgpu.TextureAspectAll},
		stagingData.Pixels,
		&wgpu.TextureDataLayout{BytesPerRow: stagingData.Width * 4, RowsPerImage: stagingData.Height},
		&size,
	)

	view, err := texture.CreateView(nil)
	if err != nil {
		return err
	}
	provider.SetTextureView(bindingKey, view)
	return nil
}

func (b *wgpuRendererBackendImpl) InitSampler(provider bind_group_provider.BindGroupProvider, bindingKey int, s common.SamplerStagingData) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	sampler, err := b.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         provider.Label() + " Sampler",
		AddressModeU:  s.AddressModeU,
		AddressModeV:  s.AddressModeV,
		AddressModeW:  s.AddressModeW,
		MagFilter:     s.MagFilter,
		MinFilter:     s.MinFilter,
		MipmapFilter:  s.MipmapFilter,
		LodMinClamp:   s.LodMinClamp,
		LodMaxClamp:   max(s.LodMaxClamp, s.LodMinClamp),
		MaxAnisotropy: max(s.MaxAnisotropy, 1),
	})
	if err != nil {
		return err
	}
	provider.SetSampler(bindingKey, sampler)
	return nil
}

func (b *wgpuRendererBackendImpl) InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor) error {
	if len(descriptor.Entries) == 0 {
		return nil
	}
	entries, err := bindGroupEntries(provider, descriptor)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	layout, err := b.device.CreateBindGroupLayout(&descriptor)
	if err != nil {
		return err
	}
	provider.SetBindGroupLayout(layout)

	bindGroup, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   provider.Label() + " Bind Group",
		Layout:  layout,
		Entries: entries,
	})
	if err != nil {
		return err
	}
	provider.SetBindGroup(bindGroup)
	return nil
}

// bindGroupEntries pairs each layout entry with the view or sampler staged at its binding.
func bindGroupEntries(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor) ([]wgpu.BindGroupEntry, error) {
	entries := make([]wgpu.BindGroupEntry, 0, len(descriptor.Entries))
	for _, le := range descriptor.Entries {
		binding := int(le.Binding)
		entry := wgpu.BindGroupEntry{Binding: le.Binding}
		switch {
		case le.Texture.SampleType != wgpu.TextureSampleTypeUndefined:
			entry.TextureView = provider.TextureView(binding)
			if entry.TextureView == nil {
				return nil, fmt.Errorf("%s: binding %d has no texture view", provider.Label(), binding)
			}
		case le.Sampler.Type != wgpu.SamplerBindingTypeUndefined:
			entry.Sampler = provider.Sampler(binding)
			if entry.Sampler == nil {
				return nil, fmt.Errorf("%s: binding %d has no sampler", provider.Label(), binding)
			}
		default:
			return nil, fmt.Errorf("%s: binding %d is neither a texture nor a sampler", provider.Label(), binding)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (b *wgpuRendererBackendImpl) UploadGeometry(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	provider.SetIndexCount(0)
	if indexCount == 0 || len(vertexData) == 0 || len(indexData) == 0 {
		return nil
	}

	vertexBuffer, err := b.reserve(provider, geometryVertices, uint64(len(vertexData)))
	if err != nil {
		return err
	}
	indexBuffer, err := b.reserve(provider, geometryIndices, uint64(len(indexData)))
	if err != nil {
		return err
	}
	b.queue.WriteBuffer(vertexBuffer, 0, padToCopyAlignment(vertexData))
	b.queue.WriteBuffer(indexBuffer, 0, padToCopyAlignment(indexData))
	provider.SetIndexCount(indexCount)
	return nil
}

type geometryKind int

const (
	geometryVertices geometryKind = iota
	geometryIndices
)

// reserve returns a buffer of the kind with room for required bytes, replacing the provider's
// current one when it is too small. Callers hold b.mu.
func (b *wgpuRendererBackendImpl) reserve(provider bind_group_provider.BindGroupProvider, kind geometryKind, required uint64) (*wgpu.Buffer, error) {
	current, capacity := provider.VertexBuffer()
	usage, name := wgpu.BufferUsageVertex, "vertex"
	if kind == geometryIndices {
		current, capacity = provider.IndexBuffer()
		usage, name = wgpu.BufferUsageIndex, "index"
	}

	size, grow := planCapacity(capacity, required)
	if current != nil && !grow {
		return current, nil
	}
	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: provider.Label() + " " + name,
		Size:  size,
		Usage: usage | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: allocate %d byte %s buffer: %w", provider.Label(), size, name, err)
	}
	log.Printf("[Renderer] %s: %s buffer grown to %d bytes", provider.Label(), name, size)

	if kind == geometryIndices {
		provider.SetIndexBuffer(buf, size)
	} else {
		provider.SetVertexBuffer(buf, size)
	}
	return buf, nil
}

func (b *wgpuRendererBackendImpl) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frame != nil {
		return errors.New("previous frame was not presented")
	}
	if !b.configured {
		return errNotConfigured
	}

	f := &frameState{}
	var err error
	if f.surface, err = b.surface.GetCurrentTexture(); err != nil {
		return err
	}
	if f.view, err = f.surface.CreateView(nil); err != nil {
		f.releaseSurface()
		return err
	}
	if f.encoder, err = b.device.CreateCommandEncoder(nil); err != nil {
		f.releaseSurface()
		return err
	}

	attachment := wgpu.RenderPassColorAttachment{
		View:       f.view,
		LoadOp:     wgpu.LoadOpClear,
		StoreOp:    wgpu.StoreOpStore,
		ClearValue: b.clearColor,
	}
	if b.msaa.view != nil {
		// draw multisampled, keep only the resolved swapchain texels
		attachment.View = b.msaa.view
		attachment.ResolveTarget = f.view
		attachment.StoreOp = wgpu.StoreOpDiscard
	}
	f.pass = f.encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label:            "Spine Pass",
		ColorAttachments: []wgpu.RenderPassColorAttachment{attachment},
	})
	b.frame = f
	return nil
}

func (b *wgpuRendererBackendImpl) DrawCall(p pipeline.Pipeline, provider bind_group_provider.BindGroupProvider) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frame == nil || b.frame.pass == nil {
		return errNoFrame
	}
	count := provider.IndexCount()
	if count == 0 {
		return nil
	}

	vertexBuffer, _ := provider.VertexBuffer()
	indexBuffer, _ := provider.IndexBuffer()
	pass := b.frame.pass
	pass.SetPipeline(p.Pipeline())
	if bg := provider.BindGroup(); bg != nil {
		pass.SetBindGroup(shader.AtlasGroup, bg, nil)
	}
	pass.SetVertexBuffer(0, vertexBuffer, 0, wgpu.WholeSize)
	pass.SetIndexBuffer(indexBuffer, wgpu.IndexFormatUint16, 0, wgpu.WholeSize)
	pass.DrawIndexed(uint32(count), 1, 0, 0, 0)
	return nil
}

func (b *wgpuRendererBackendImpl) EndFrame() {
	b.mu.Lock()
	defer b.mu.Unlock()

	f := b.frame
	if f == nil || f.pass == nil {
		return
	}
	f.pass.End()
	commands, err := f.encoder.Finish(nil)
	f.releaseEncoder()
	if err != nil {
		log.Printf("[Renderer] finish frame: %v", err)
		f.releaseSurface()
		b.frame = nil
		return
	}
	b.queue.Submit(commands)
	commands.Release()
}

func (b *wgpuRendererBackendImpl) Present() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frame == nil {
		return
	}
	if b.frame.pass == nil {
		b.surface.Present()
	}
	b.frame.releaseEncoder()
	b.frame.releaseSurface()
	b.frame = nil
}
