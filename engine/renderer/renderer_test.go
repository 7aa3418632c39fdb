package renderer

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
)

func TestPlanCapacity(t *testing.T) {
	tests := []struct {
		name             string
		capacity         uint64
		required         uint64
		expectedCapacity uint64
		expectedGrow     bool
	}{
		{"no buffer yet", 0, 24, 24, true},
		{"empty data still allocates", 0, 0, 4, true},
		{"fits exactly", 24, 24, 24, false},
		{"smaller data reuses", 240, 24, 240, false},
		{"odd index bytes round up", 0, 6, 8, true},
		{"outgrows", 24, 48, 48, true},
		{"aligned size fits", 8, 6, 8, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			capacity, grow := planCapacity(tt.capacity, tt.required)
			assert.Equal(t, tt.expectedCapacity, capacity)
			assert.Equal(t, tt.expectedGrow, grow)
		})
	}
}

func TestPadToCopyAlignment(t *testing.T) {
	aligned := []byte{1, 2, 3, 4}
	assert.Equal(t, aligned, padToCopyAlignment(aligned))

	// three uint16 indices
	odd := []byte{1, 0, 2, 0, 3, 0}
	padded := padToCopyAlignment(odd)
	assert.Equal(t, []byte{1, 0, 2, 0, 3, 0, 0, 0}, padded)
	assert.Len(t, odd, 6, "input must not be modified")

	assert.Empty(t, padToCopyAlignment(nil))
}

func TestChooseSurfaceFormat(t *testing.T) {
	assert.Equal(t, wgpu.TextureFormatBGRA8Unorm, chooseSurfaceFormat([]wgpu.TextureFormat{
		wgpu.TextureFormatBGRA8UnormSrgb,
		wgpu.TextureFormatBGRA8Unorm,
	}))
	assert.Equal(t, wgpu.TextureFormatRGBA8Unorm, chooseSurfaceFormat([]wgpu.TextureFormat{
		wgpu.TextureFormatRGBA8Unorm,
		wgpu.TextureFormatRGBA8UnormSrgb,
	}))
	assert.Equal(t, wgpu.TextureFormatBGRA8Unorm, chooseSurfaceFormat(nil))
}

func TestTransparentBlackDefault(t *testing.T) {
	assert.Equal(t, wgpu.Color{}, TransparentBlack)
}

func TestRendererOptions(t *testing.T) {
	cfg := defaultRendererConfig()
	assert.Equal(t, PresentModeVSync, cfg.presentMode)
	assert.Equal(t, MSAA4x, cfg.msaa)
	assert.Equal(t, TransparentBlack, cfg.clearColor)

	red := wgpu.Color{R: 1, A: 1}
	for _, opt := range []RendererBuilderOption{
		WithPresentMode(PresentModeUncapped),
		WithMSAA(MSAAOff),
		WithMSAA(MSAASampleCount(8)),
		WithClearColor(red),
		WithForceSoftwareRenderer(true),
		WithPipeline(nil),
	} {
		opt(&cfg)
	}
	assert.Equal(t, PresentModeUncapped, cfg.presentMode)
	assert.Equal(t, MSAAOff, cfg.msaa, "unsupported sample counts are ignored")
	assert.Equal(t, red, cfg.clearColor)
	assert.True(t, cfg.softwareAdapter)
	assert.Empty(t, cfg.pipelines)
}
