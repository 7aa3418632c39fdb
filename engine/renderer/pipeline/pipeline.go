package pipeline

import (
	"sort"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/dragonikpl/spine-runtimes/engine/renderer/shader"
)

// pipeline is the implementation of the Pipeline interface.
type pipeline struct {
	pipelineKey string

	// both stages must be set before the pipeline is registered
	vertexShader, fragmentShader shader.Shader

	// nil until registered with a Renderer
	renderPipeline *wgpu.RenderPipeline

	blendEnabled bool
	blendState   *wgpu.BlendState
	cullMode     wgpu.CullMode
	writeMask    wgpu.ColorWriteMask
}

// Pipeline describes a render pipeline drawing uint16-indexed triangle lists from one vertex and one
// fragment shader into the surface's color target. The GPU object is created by the Renderer on
// registration and stored back with SetRenderPipeline.
type Pipeline interface {
	// PipelineKey returns the cache key of the pipeline.
	PipelineKey() string

	// Shader returns the shader of a stage, or nil if it is not set.
	//
	// Parameters:
	//   - shaderType: the stage
	//
	// Returns:
	//   - shader.Shader: the stage's shader
	Shader(shaderType shader.ShaderType) shader.Shader

	// Pipeline returns the GPU pipeline, or nil before registration.
	Pipeline() *wgpu.RenderPipeline

	// SetRenderPipeline stores the GPU pipeline created at registration.
	SetRenderPipeline(p *wgpu.RenderPipeline)

	// BindGroupLayoutDescriptors merges the bind group layouts declared by both stages.
	// Entries sharing a binding have their visibility flags ORed together.
	//
	// Returns:
	//   - map[int]wgpu.BindGroupLayoutDescriptor: the merged descriptors keyed by group index
	BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor

	// PrimitiveState returns the primitive assembly state: counter-clockwise triangle lists
	// with the configured cull mode.
	PrimitiveState() wgpu.PrimitiveState

	// BlendEnabled reports whether the color target blends.
	BlendEnabled() bool

	// BlendState returns the color target blend state, or nil when blending is disabled.
	BlendState() *wgpu.BlendState

	// WriteMask returns the color target write mask.
	WriteMask() wgpu.ColorWriteMask
}

var _ Pipeline = &pipeline{}

// NewPipeline creates an unregistered Pipeline. Triangles are drawn unculled with straight alpha
// blending unless overridden by options.
//
// Parameters:
//   - pipelineKey: the cache key
//   - opts: functional options to configure the pipeline
//
// Returns:
//   - Pipeline: the new pipeline
func NewPipeline(pipelineKey string, opts ...PipelineBuilderOption) Pipeline {
	p := &pipeline{
		pipelineKey:  pipelineKey,
		blendEnabled: true,
		blendState:   StraightAlphaBlend(),
		cullMode:     wgpu.CullModeNone,
		writeMask:    wgpu.ColorWriteMaskAll,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *pipeline) PipelineKey() string {
	return p.pipelineKey
}

func (p *pipeline) Pipeline() *wgpu.RenderPipeline {
	return p.renderPipeline
}

func (p *pipeline) BlendEnabled() bool {
	return p.blendEnabled
}

func (p *pipeline) PrimitiveState() wgpu.PrimitiveState {
	return wgpu.PrimitiveState{
		Topology:  wgpu.PrimitiveTopologyTriangleList,
		FrontFace: wgpu.FrontFaceCCW,
		CullMode:  p.cullMode,
	}
}

func (p *pipeline) WriteMask() wgpu.ColorWriteMask {
	return p.writeMask
}

func (p *pipeline) BlendState() *wgpu.BlendState {
	if !p.blendEnabled {
		return nil
	}
	return p.blendState
}

func (p *pipeline) Shader(shaderType shader.ShaderType) shader.Shader {
	switch shaderType {
	case shader.ShaderTypeVertex:
		return p.vertexShader
	case shader.ShaderTypeFragment:
		return p.fragmentShader
	default:
		return nil
	}
}

func (p *pipeline) SetRenderPipeline(rp *wgpu.RenderPipeline) {
	p.renderPipeline = rp
}

func (p *pipeline) BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor {
	var vertexLayouts, fragmentLayouts map[int]wgpu.BindGroupLayoutDescriptor
	if p.vertexShader != nil {
		vertexLayouts = p.vertexShader.BindGroupLayoutDescriptors()
	}
	if p.fragmentShader != nil {
		fragmentLayouts = p.fragmentShader.BindGroupLayoutDescriptors()
	}
	return mergeBindGroupLayouts(p.pipelineKey, vertexLayouts, fragmentLayouts)
}

// mergeBindGroupLayouts merges the bind group layout descriptors from a vertex and fragment shader
// into a unified set of descriptors suitable for a render pipeline layout.
func mergeBindGroupLayouts(label string, vertexLayouts, fragmentLayouts map[int]wgpu.BindGroupLayoutDescriptor) map[int]wgpu.BindGroupLayoutDescriptor {
	entries := make(map[int]map[uint32]wgpu.BindGroupLayoutEntry)
	collect := func(layouts map[int]wgpu.BindGroupLayoutDescriptor) {
		for g, desc := range layouts {
			if entries[g] == nil {
				entries[g] = make(map[uint32]wgpu.BindGroupLayoutEntry)
			}
			for _, e := range desc.Entries {
				if existing, ok := entries[g][e.Binding]; ok {
					existing.Visibility |= e.Visibility
					entries[g][e.Binding] = existing
					continue
				}
				entries[g][e.Binding] = e
			}
		}
	}
	collect(vertexLayouts)
	collect(fragmentLayouts)

	merged := make(map[int]wgpu.BindGroupLayoutDescriptor, len(entries))
	for g, byBinding := range entries {
		flat := make([]wgpu.BindGroupLayoutEntry, 0, len(byBinding))
		for _, e := range byBinding {
			flat = append(flat, e)
		}
		sort.Slice(flat, func(i, j int) bool {
			return flat[i].Binding < flat[j].Binding
		})
		merged[g] = wgpu.BindGroupLayoutDescriptor{
			Label:   label,
			Entries: flat,
		}
	}
	return merged
}
