package renderer

import (
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/dragonikpl/spine-runtimes/engine/renderer/pipeline"
)

// RendererBackendType selects the GPU API a Renderer drives.
type RendererBackendType int

const (
	// BackendTypeWGPU drives the GPU through wgpu-native.
	BackendTypeWGPU RendererBackendType = iota
)

// PresentMode is how finished frames reach the display.
type PresentMode int

const (
	// PresentModeVSync presents on vertical blank, so the frame rate follows the monitor.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents as soon as a frame is done and may tear.
	PresentModeUncapped
)

// MSAASampleCount is the sample count of the skeleton render target. Adapters are only
// required to support 1 and 4.
type MSAASampleCount uint32

const (
	MSAAOff MSAASampleCount = 1
	MSAA4x  MSAASampleCount = 4
)

// TransparentBlack is the default clear color. Skeletons drawn over it keep their own alpha.
var TransparentBlack = wgpu.Color{}

// RendererBackend is what a Renderer delegates GPU work to.
type RendererBackend interface {
	wgpuRendererBackend
}

// rendererConfig collects builder options until the backend exists.
type rendererConfig struct {
	softwareAdapter bool
	presentMode     PresentMode
	msaa            MSAASampleCount
	clearColor      wgpu.Color
	pipelines       []pipeline.Pipeline
}

func defaultRendererConfig() rendererConfig {
	return rendererConfig{
		presentMode: PresentModeVSync,
		msaa:        MSAA4x,
		clearColor:  TransparentBlack,
	}
}
