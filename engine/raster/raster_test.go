package raster

import (
	"image"
	"image/color"
	"testing"

	"github.com/dragonikpl/spine-runtimes/engine/assembler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// quad builds a frame covering the clip-space rectangle [x0,x1]×[y0,y1] with one tint.
func quad(x0, y0, x1, y1 float32, tint [4]float32) *assembler.Frame {
	v := func(x, y, u, t float32) assembler.GPUSpineVertex {
		return assembler.GPUSpineVertex{Position: [4]float32{x, y, 0, 1}, Color: tint, TexCoord: [2]float32{u, t}}
	}
	return &assembler.Frame{
		Vertices: []assembler.GPUSpineVertex{v(x0, y0, 0, 1), v(x1, y0, 1, 1), v(x1, y1, 1, 0), v(x0, y1, 0, 0)},
		Indices:  []uint16{0, 1, 2, 2, 3, 0},
	}
}

func solidAtlas(c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for y := range 4 {
		for x := range 4 {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestEmptyFrameIsClearColor(t *testing.T) {
	clear := color.NRGBA{R: 10, G: 20, B: 30, A: 255}
	r := NewRasterizer(nil, WithSize(8, 6), WithSupersample(1), WithClearColor(clear))

	w, h := r.Size()
	assert.Equal(t, 8, w)
	assert.Equal(t, 6, h)

	for _, f := range []*assembler.Frame{nil, {}} {
		img := r.Render(f)
		require.Equal(t, image.Rect(0, 0, 8, 6), img.Bounds())
		assert.Equal(t, clear, img.NRGBAAt(3, 3))
	}
}

func TestFullScreenQuadIsTintedTexel(t *testing.T) {
	atlas := solidAtlas(color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	r := NewRasterizer(atlas, WithSize(8, 8), WithSupersample(1))

	img := r.Render(quad(-1, -1, 1, 1, [4]float32{1, 0, 0, 1}))
	for _, p := range []image.Point{{0, 0}, {4, 4}, {7, 7}} {
		assert.Equal(t, color.NRGBA{R: 255, A: 255}, img.NRGBAAt(p.X, p.Y), "pixel %v", p)
	}
}

func TestClipSpaceMapsToPixels(t *testing.T) {
	atlas := solidAtlas(color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	r := NewRasterizer(atlas, WithSize(8, 8), WithSupersample(1))

	// upper right quadrant in clip space covers the top right of the image
	img := r.Render(quad(0, 0, 1, 1, [4]float32{1, 1, 1, 1}))
	assert.Equal(t, uint8(255), img.NRGBAAt(6, 1).A)
	assert.Equal(t, uint8(0), img.NRGBAAt(1, 6).A)
	assert.Equal(t, uint8(0), img.NRGBAAt(1, 1).A)
}

func TestStraightAlphaBlend(t *testing.T) {
	atlas := solidAtlas(color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	r := NewRasterizer(atlas, WithSize(4, 4), WithSupersample(1))

	img := r.Render(quad(-1, -1, 1, 1, [4]float32{1, 1, 1, 0.5}))
	px := img.NRGBAAt(2, 2)
	// rgb = 1*0.5 + 0*0.5, alpha = 0.5*0.5 + 0*0.5
	assert.InDelta(t, 128, int(px.R), 1)
	assert.InDelta(t, 64, int(px.A), 1)
}

func TestSampleClampsToEdge(t *testing.T) {
	atlas := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	atlas.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})
	atlas.SetNRGBA(1, 0, color.NRGBA{B: 255, A: 255})
	r := NewRasterizer(atlas).(*rasterizer)

	left := r.sample(-0.5, 0.5)
	assert.InDelta(t, 1, left[0], 1e-5)
	assert.InDelta(t, 0, left[2], 1e-5)

	right := r.sample(1.5, 0.5)
	assert.InDelta(t, 0, right[0], 1e-5)
	assert.InDelta(t, 1, right[2], 1e-5)

	mid := r.sample(0.5, 0.5)
	assert.InDelta(t, 0.5, mid[0], 1e-5)
	assert.InDelta(t, 0.5, mid[2], 1e-5)
}

func TestSupersampleKeepsOutputSize(t *testing.T) {
	r := NewRasterizer(nil, WithSize(16, 12), WithSupersample(3))
	img := r.Render(quad(-1, -1, 1, 1, [4]float32{1, 1, 1, 1}))
	assert.Equal(t, image.Rect(0, 0, 16, 12), img.Bounds())
	assert.Equal(t, uint8(255), img.NRGBAAt(8, 6).A)
}

func TestBuilderIgnoresInvalidValues(t *testing.T) {
	r := NewRasterizer(nil, WithSize(0, -1), WithSupersample(0)).(*rasterizer)
	assert.Equal(t, 512, r.width)
	assert.Equal(t, 512, r.height)
	assert.Equal(t, 1, r.supersample)
}

func TestUnpremultiply(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	copy(img.Pix, []uint8{64, 0, 128, 128, 9, 9, 9, 0})

	out := unpremultiply(img)
	assert.Equal(t, color.NRGBA{R: 127, G: 0, B: 255, A: 128}, out.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{}, out.NRGBAAt(1, 0))
}
