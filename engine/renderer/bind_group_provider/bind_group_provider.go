package bind_group_provider

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// gpuBuffer is a geometry buffer and its allocated size, which may exceed the bytes of the
// current frame.
type gpuBuffer struct {
	buffer   *wgpu.Buffer
	capacity uint64
}

// bindGroupProvider is the implementation of BindGroupProvider. Every GPU object it holds is
// created by the Renderer and owned by the provider from then on.
type bindGroupProvider struct {
	label string

	bindGroup       *wgpu.BindGroup
	bindGroupLayout *wgpu.BindGroupLayout
	textureViews    map[int]*wgpu.TextureView
	samplers        map[int]*wgpu.Sampler

	vertices   gpuBuffer
	indices    gpuBuffer
	indexCount int
}

// BindGroupProvider owns the GPU side of one skeleton layer: its vertex and index buffers,
// the atlas texture view and sampler, and the bind group exposing them to the fragment stage.
//
// A layer fills it in this order:
//  1. NewBindGroupProvider with the layer name as debug label
//  2. Renderer.InitTextureView and Renderer.InitSampler for the atlas page
//  3. Renderer.InitBindGroup against the skeleton pipeline
//  4. Renderer.UploadGeometry once per frame
//  5. Renderer.DrawCall
//
// Setters take ownership of the new object and release the one they replace.
type BindGroupProvider interface {
	// Label returns the debug label given to GPU objects of this provider.
	Label() string

	// BindGroup returns the atlas bind group, or nil before InitBindGroup.
	BindGroup() *wgpu.BindGroup

	// BindGroupLayout returns the layout the bind group was created with, or nil.
	BindGroupLayout() *wgpu.BindGroupLayout

	// TextureView returns the texture view staged at a binding, or nil.
	//
	// Parameters:
	//   - binding: the @binding index
	//
	// Returns:
	//   - *wgpu.TextureView: the view or nil
	TextureView(binding int) *wgpu.TextureView

	// Sampler returns the sampler staged at a binding, or nil.
	//
	// Parameters:
	//   - binding: the @binding index
	//
	// Returns:
	//   - *wgpu.Sampler: the sampler or nil
	Sampler(binding int) *wgpu.Sampler

	// VertexBuffer returns the vertex buffer and its allocated size in bytes.
	VertexBuffer() (*wgpu.Buffer, uint64)

	// IndexBuffer returns the uint16 index buffer and its allocated size in bytes.
	IndexBuffer() (*wgpu.Buffer, uint64)

	// IndexCount returns how many indices the next draw uses.
	IndexCount() int

	SetBindGroup(bg *wgpu.BindGroup)
	SetBindGroupLayout(bgl *wgpu.BindGroupLayout)
	SetTextureView(binding int, tv *wgpu.TextureView)
	SetSampler(binding int, s *wgpu.Sampler)

	// SetVertexBuffer stores a vertex buffer allocated with the given size.
	SetVertexBuffer(buf *wgpu.Buffer, capacity uint64)

	// SetIndexBuffer stores an index buffer allocated with the given size.
	SetIndexBuffer(buf *wgpu.Buffer, capacity uint64)

	// SetIndexCount sets how many indices the next draw uses.
	SetIndexCount(count int)

	// Release frees every GPU object and resets sizes and counts to zero.
	Release()
}

var _ BindGroupProvider = &bindGroupProvider{}

// NewBindGroupProvider creates a BindGroupProvider with nothing allocated.
//
// Parameters:
//   - label: the debug label, usually the layer name
//   - options: resources to stage up front
//
// Returns:
//   - BindGroupProvider: the empty provider
func NewBindGroupProvider(label string, options ...BindGroupProviderOption) BindGroupProvider {
	p := &bindGroupProvider{
		label:        label,
		textureViews: make(map[int]*wgpu.TextureView),
		samplers:     make(map[int]*wgpu.Sampler),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// replace stores next in slot and releases the previous object unless it is the same one.
func replace[T interface {
	comparable
	Release()
}](slot *T, next T) {
	var none T
	if prev := *slot; prev != none && prev != next {
		prev.Release()
	}
	*slot = next
}

func (p *bindGroupProvider) Label() string                          { return p.label }
func (p *bindGroupProvider) BindGroup() *wgpu.BindGroup             { return p.bindGroup }
func (p *bindGroupProvider) BindGroupLayout() *wgpu.BindGroupLayout { return p.bindGroupLayout }
func (p *bindGroupProvider) TextureView(binding int) *wgpu.TextureView {
	return p.textureViews[binding]
}
func (p *bindGroupProvider) Sampler(binding int) *wgpu.Sampler { return p.samplers[binding] }
func (p *bindGroupProvider) IndexCount() int                   { return p.indexCount }

func (p *bindGroupProvider) VertexBuffer() (*wgpu.Buffer, uint64) {
	return p.vertices.buffer, p.vertices.capacity
}

func (p *bindGroupProvider) IndexBuffer() (*wgpu.Buffer, uint64) {
	return p.indices.buffer, p.indices.capacity
}

func (p *bindGroupProvider) SetBindGroup(bg *wgpu.BindGroup) {
	replace(&p.bindGroup, bg)
}

func (p *bindGroupProvider) SetBindGroupLayout(bgl *wgpu.BindGroupLayout) {
	replace(&p.bindGroupLayout, bgl)
}

func (p *bindGroupProvider) SetTextureView(binding int, tv *wgpu.TextureView) {
	view := p.textureViews[binding]
	replace(&view, tv)
	p.textureViews[binding] = view
}

func (p *bindGroupProvider) SetSampler(binding int, s *wgpu.Sampler) {
	sampler := p.samplers[binding]
	replace(&sampler, s)
	p.samplers[binding] = sampler
}

func (p *bindGroupProvider) SetVertexBuffer(buf *wgpu.Buffer, capacity uint64) {
	replace(&p.vertices.buffer, buf)
	p.vertices.capacity = capacity
}

func (p *bindGroupProvider) SetIndexBuffer(buf *wgpu.Buffer, capacity uint64) {
	replace(&p.indices.buffer, buf)
	p.indices.capacity = capacity
}

func (p *bindGroupProvider) SetIndexCount(count int) {
	p.indexCount = count
}

func (p *bindGroupProvider) Release() {
	// the bind group references the views and samplers, so it goes first
	replace(&p.bindGroup, nil)
	replace(&p.bindGroupLayout, nil)
	for binding := range p.textureViews {
		p.SetTextureView(binding, nil)
		delete(p.textureViews, binding)
	}
	for binding := range p.samplers {
		p.SetSampler(binding, nil)
		delete(p.samplers, binding)
	}
	replace(&p.vertices.buffer, nil)
	replace(&p.indices.buffer, nil)
	p.vertices.capacity, p.indices.capacity, p.indexCount = 0, 0, 0
}
