package renderer

import (
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/dragonikpl/spine-runtimes/engine/renderer/pipeline"
)

// RendererBuilderOption configures NewRenderer before the GPU device is requested.
type RendererBuilderOption func(*rendererConfig)

// WithPipeline registers a Pipeline as soon as the surface is configured. Repeat the option for
// more pipelines; the first one per key wins.
func WithPipeline(p pipeline.Pipeline) RendererBuilderOption {
	return func(c *rendererConfig) {
		if p != nil {
			c.pipelines = append(c.pipelines, p)
		}
	}
}

// WithPresentMode picks VSync (the default) or Uncapped presentation.
func WithPresentMode(mode PresentMode) RendererBuilderOption {
	return func(c *rendererConfig) {
		c.presentMode = mode
	}
}

// WithMSAA sets the sample count of the render target. The default is MSAA4x.
//
// Parameters:
//   - count: MSAAOff or MSAA4x
//
// Returns:
//   - RendererBuilderOption: the option
func WithMSAA(count MSAASampleCount) RendererBuilderOption {
	return func(c *rendererConfig) {
		if count == MSAAOff || count == MSAA4x {
			c.msaa = count
		}
	}
}

// WithClearColor sets the color behind the skeletons. The default is TransparentBlack.
func WithClearColor(color wgpu.Color) RendererBuilderOption {
	return func(c *rendererConfig) {
		c.clearColor = color
	}
}

// WithForceSoftwareRenderer asks for the fallback adapter, which needs a software Vulkan driver
// such as lavapipe or SwiftShader. Useful on CI machines without a GPU.
func WithForceSoftwareRenderer(force bool) RendererBuilderOption {
	return func(c *rendererConfig) {
		c.softwareAdapter = force
	}
}
