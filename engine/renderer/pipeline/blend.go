package pipeline

import (
	"fmt"
	"slices"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/dragonikpl/spine-runtimes/engine/assembler"
	"github.com/dragonikpl/spine-runtimes/engine/renderer/shader"
	"github.com/dragonikpl/spine-runtimes/engine/skeleton"
)

// SpinePipelineKey is the cache key of the fixed skeleton pipeline.
const SpinePipelineKey = "spine"

// StraightAlphaBlend returns the blend state the fixed skeleton pipeline draws with:
// source-alpha weighted color and alpha over the destination.
//
// Returns:
//   - *wgpu.BlendState: a new blend state
func StraightAlphaBlend() *wgpu.BlendState {
	component := wgpu.BlendComponent{
		SrcFactor: wgpu.BlendFactorSrcAlpha,
		DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
		Operation: wgpu.BlendOperationAdd,
	}
	return &wgpu.BlendState{Color: component, Alpha: component}
}

// BlendStateFor maps a slot blend mode to premultiplied-alpha blend factors.
// Unknown modes map like BlendModeNormal. A multi-pass renderer can pick the state per
// assembler.Batch; the viewer applies one mode to the whole frame for premultiplied atlases.
//
// Parameters:
//   - mode: the slot blend mode
//
// Returns:
//   - *wgpu.BlendState: a new blend state applying the same factors to color and alpha
func BlendStateFor(mode skeleton.BlendMode) *wgpu.BlendState {
	src, dst := wgpu.BlendFactorOne, wgpu.BlendFactorOneMinusSrcAlpha
	switch mode {
	case skeleton.BlendModeAdditive:
		dst = wgpu.BlendFactorOne
	case skeleton.BlendModeMultiply:
		src = wgpu.BlendFactorDst
	case skeleton.BlendModeScreen:
		dst = wgpu.BlendFactorOneMinusSrc
	}

	component := wgpu.BlendComponent{
		SrcFactor: src,
		DstFactor: dst,
		Operation: wgpu.BlendOperationAdd,
	}
	return &wgpu.BlendState{Color: component, Alpha: component}
}

// NewSpinePipeline creates the fixed skeleton pipeline from parsed skeleton shaders.
// The vertex shader must declare exactly one vertex input struct laid out like
// assembler.GPUSpineVertex, so assembled frames upload without conversion.
//
// Parameters:
//   - vertex: the skeleton vertex shader
//   - fragment: the skeleton fragment shader
//   - opts: additional options applied after the defaults
//
// Returns:
//   - Pipeline: the unregistered pipeline
//   - error: an error if the vertex input does not match the assembled vertex layout
func NewSpinePipeline(vertex, fragment shader.Shader, opts ...PipelineBuilderOption) (Pipeline, error) {
	if vertex == nil || fragment == nil {
		return nil, fmt.Errorf("spine pipeline: both shader stages are required")
	}
	layouts := vertex.VertexLayouts()
	if len(layouts) != 1 {
		return nil, fmt.Errorf("spine pipeline: shader %s declares %d vertex inputs, want 1", vertex.Key(), len(layouts))
	}
	if !sameVertexLayout(layouts[0], assembler.GPUSpineVertexLayout()) {
		return nil, fmt.Errorf("spine pipeline: shader %s vertex input does not match the %d byte assembled vertex",
			vertex.Key(), assembler.GPUSpineVertexStride)
	}

	return NewPipeline(SpinePipelineKey, append([]PipelineBuilderOption{
		WithVertexShader(vertex),
		WithFragmentShader(fragment),
	}, opts...)...), nil
}

func sameVertexLayout(a, b wgpu.VertexBufferLayout) bool {
	return a.ArrayStride == b.ArrayStride &&
		a.StepMode == b.StepMode &&
		slices.Equal(a.Attributes, b.Attributes)
}
