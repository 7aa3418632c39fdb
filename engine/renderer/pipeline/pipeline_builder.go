package pipeline

import (
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/dragonikpl/spine-runtimes/engine/renderer/shader"
	"github.com/dragonikpl/spine-runtimes/engine/skeleton"
)

// PipelineBuilderOption is a functional option for configuring a Pipeline.
type PipelineBuilderOption func(*pipeline)

// WithVertexShader sets the vertex stage. Its vertex input structs define the vertex buffer layout.
//
// Parameters:
//   - s: the parsed vertex shader
//
// Returns:
//   - PipelineBuilderOption: option function to apply
func WithVertexShader(s shader.Shader) PipelineBuilderOption {
	return func(p *pipeline) {
		p.vertexShader = s
	}
}

// WithFragmentShader sets the fragment stage.
//
// Parameters:
//   - s: the parsed fragment shader
//
// Returns:
//   - PipelineBuilderOption: option function to apply
func WithFragmentShader(s shader.Shader) PipelineBuilderOption {
	return func(p *pipeline) {
		p.fragmentShader = s
	}
}

// WithBlendMode draws with the factors of a slot blend mode instead of straight alpha.
// Used by renderers that issue one draw per assembler batch.
//
// Parameters:
//   - mode: the slot blend mode
//
// Returns:
//   - PipelineBuilderOption: option function to apply
func WithBlendMode(mode skeleton.BlendMode) PipelineBuilderOption {
	return func(p *pipeline) {
		p.blendEnabled = true
		p.blendState = BlendStateFor(mode)
	}
}

// WithBlendState sets an explicit blend state. A nil state disables blending.
//
// Parameters:
//   - blendState: the blend state
//
// Returns:
//   - PipelineBuilderOption: option function to apply
func WithBlendState(blendState *wgpu.BlendState) PipelineBuilderOption {
	return func(p *pipeline) {
		p.blendEnabled = blendState != nil
		p.blendState = blendState
	}
}

// WithBlendEnabled toggles blending; when off the pipeline overwrites the target.
func WithBlendEnabled(enabled bool) PipelineBuilderOption {
	return func(p *pipeline) {
		p.blendEnabled = enabled
	}
}

// WithCullMode culls triangles by winding. Skeleton meshes may be mirrored by negative bone
// scale, so the default draws both faces.
func WithCullMode(mode wgpu.CullMode) PipelineBuilderOption {
	return func(p *pipeline) {
		p.cullMode = mode
	}
}

// WithWriteMask limits which color channels are written.
func WithWriteMask(writeMask wgpu.ColorWriteMask) PipelineBuilderOption {
	return func(p *pipeline) {
		p.writeMask = writeMask
	}
}
