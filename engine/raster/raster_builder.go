package raster

import "image/color"

// RasterizerBuilderOption is a functional option for configuring a Rasterizer.
type RasterizerBuilderOption func(*rasterizer)

// WithSize sets the output image size. Non-positive values are ignored.
//
// Parameters:
//   - width: the output width in pixels
//   - height: the output height in pixels
//
// Returns:
//   - RasterizerBuilderOption: option function to apply
func WithSize(width, height int) RasterizerBuilderOption {
	return func(r *rasterizer) {
		if width > 0 && height > 0 {
			r.width, r.height = width, height
		}
	}
}

// WithSupersample renders at factor times the output size and downscales with Catmull-Rom.
// A factor of 1 disables supersampling.
//
// Parameters:
//   - factor: the supersampling factor (minimum 1)
//
// Returns:
//   - RasterizerBuilderOption: option function to apply
func WithSupersample(factor int) RasterizerBuilderOption {
	return func(r *rasterizer) {
		r.supersample = max(factor, 1)
	}
}

// WithClearColor sets the color the canvas starts from.
//
// Parameters:
//   - c: the clear color
//
// Returns:
//   - RasterizerBuilderOption: option function to apply
func WithClearColor(c color.NRGBA) RasterizerBuilderOption {
	return func(r *rasterizer) {
		r.clear = nrgbaToClear(c)
	}
}
