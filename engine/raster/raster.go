package raster

import (
	"image"
	"image/color"

	"github.com/chewxy/math32"
	"github.com/dragonikpl/spine-runtimes/engine/assembler"
	xdraw "golang.org/x/image/draw"
)

// rasterizer is the implementation of the Rasterizer interface.
type rasterizer struct {
	atlas *image.NRGBA

	width, height int
	supersample   int
	clear         [4]float32

	// color is the working canvas, RGBA float32 per pixel at supersampled resolution.
	color []float32
}

// Rasterizer draws assembled frames on the CPU the way the skeleton pipeline draws them on the GPU:
// clip-space positions, atlas texels sampled bilinearly with clamp-to-edge addressing, the texel
// multiplied by the interpolated vertex tint and blended with straight alpha
// (SrcAlpha, OneMinusSrcAlpha) for both color and alpha.
//
// A Rasterizer is not safe for concurrent use.
type Rasterizer interface {
	// Size returns the output image size in pixels.
	Size() (int, int)

	// Render draws a frame onto a canvas cleared to the clear color.
	//
	// Parameters:
	//   - f: the assembled frame (nil or empty frames produce a cleared image)
	//
	// Returns:
	//   - *image.NRGBA: the rendered image at output size
	Render(f *assembler.Frame) *image.NRGBA
}

var _ Rasterizer = &rasterizer{}

// NewRasterizer creates a Rasterizer sampling the given atlas page.
// Defaults: a 512×512 output, 2× supersampling and a transparent clear color.
//
// Parameters:
//   - atlas: the atlas page in GPU row order (nil samples opaque white)
//   - options: functional options to configure the rasterizer
//
// Returns:
//   - Rasterizer: the new rasterizer
func NewRasterizer(atlas *image.NRGBA, options ...RasterizerBuilderOption) Rasterizer {
	r := &rasterizer{
		atlas:       atlas,
		width:       512,
		height:      512,
		supersample: 2,
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

func (r *rasterizer) Size() (int, int) {
	return r.width, r.height
}

func (r *rasterizer) Render(f *assembler.Frame) *image.NRGBA {
	sw, sh := r.width*r.supersample, r.height*r.supersample
	n := sw * sh * 4
	if cap(r.color) < n {
		r.color = make([]float32, n)
	}
	r.color = r.color[:n]
	for i := 0; i < n; i += 4 {
		copy(r.color[i:i+4], r.clear[:])
	}

	if !f.Empty() {
		for i := 0; i+2 < len(f.Indices); i += 3 {
			r.triangle(sw, sh, &f.Vertices[f.Indices[i]], &f.Vertices[f.Indices[i+1]], &f.Vertices[f.Indices[i+2]])
		}
	}

	if r.supersample == 1 {
		out := image.NewNRGBA(image.Rect(0, 0, sw, sh))
		for i := 0; i < n; i++ {
			out.Pix[i] = toByte(r.color[i])
		}
		return out
	}

	// Downscale premultiplied so transparent texels do not darken the edges.
	full := image.NewRGBA(image.Rect(0, 0, sw, sh))
	for i := 0; i < n; i += 4 {
		a := clamp01(r.color[i+3])
		full.Pix[i] = toByte(r.color[i] * a)
		full.Pix[i+1] = toByte(r.color[i+1] * a)
		full.Pix[i+2] = toByte(r.color[i+2] * a)
		full.Pix[i+3] = toByte(a)
	}
	scaled := image.NewRGBA(image.Rect(0, 0, r.width, r.height))
	xdraw.CatmullRom.Scale(scaled, scaled.Bounds(), full, full.Bounds(), xdraw.Src, nil)
	return unpremultiply(scaled)
}

// triangle fills one triangle of clip-space vertices into the canvas, sampling at pixel centers.
func (r *rasterizer) triangle(w, h int, a, b, c *assembler.GPUSpineVertex) {
	fw, fh := float32(w), float32(h)
	toPixel := func(v *assembler.GPUSpineVertex) (float32, float32) {
		return (v.Position[0] + 1) * 0.5 * fw, (1 - v.Position[1]) * 0.5 * fh
	}
	x0, y0 := toPixel(a)
	x1, y1 := toPixel(b)
	x2, y2 := toPixel(c)

	det := (y1-y2)*(x0-x2) + (x2-x1)*(y0-y2)
	if math32.Abs(det) < 1e-8 {
		return
	}
	invDet := 1 / det

	minX := max(int(math32.Floor(min(x0, x1, x2))), 0)
	maxX := min(int(math32.Ceil(max(x0, x1, x2))), w-1)
	minY := max(int(math32.Floor(min(y0, y1, y2))), 0)
	maxY := min(int(math32.Ceil(max(y0, y1, y2))), h-1)

	for py := minY; py <= maxY; py++ {
		sy := float32(py) + 0.5 - y2
		for px := minX; px <= maxX; px++ {
			sx := float32(px) + 0.5 - x2
			w0 := ((y1-y2)*sx + (x2-x1)*sy) * invDet
			w1 := ((y2-y0)*sx + (x0-x2)*sy) * invDet
			w2 := 1 - w0 - w1
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}

			u := w0*a.TexCoord[0] + w1*b.TexCoord[0] + w2*c.TexCoord[0]
			v := w0*a.TexCoord[1] + w1*b.TexCoord[1] + w2*c.TexCoord[1]
			texel := r.sample(u, v)

			var src [4]float32
			for ch := range 4 {
				tint := w0*a.Color[ch] + w1*b.Color[ch] + w2*c.Color[ch]
				src[ch] = texel[ch] * tint
			}
			blendStraightAlpha(r.color[(py*w+px)*4:], src)
		}
	}
}

// sample returns the bilinearly filtered atlas texel at (u, v) with clamp-to-edge addressing,
// channels in [0, 1].
func (r *rasterizer) sample(u, v float32) [4]float32 {
	if r.atlas == nil {
		return [4]float32{1, 1, 1, 1}
	}
	tw, th := r.atlas.Rect.Dx(), r.atlas.Rect.Dy()
	if tw == 0 || th == 0 {
		return [4]float32{}
	}

	fx := clamp01(u)*float32(tw) - 0.5
	fy := clamp01(v)*float32(th) - 0.5
	x0 := int(math32.Floor(fx))
	y0 := int(math32.Floor(fy))
	dx := fx - float32(x0)
	dy := fy - float32(y0)

	x1 := min(max(x0+1, 0), tw-1)
	y1 := min(max(y0+1, 0), th-1)
	x0 = min(max(x0, 0), tw-1)
	y0 = min(max(y0, 0), th-1)

	pix, stride := r.atlas.Pix, r.atlas.Stride
	i00 := y0*stride + x0*4
	i10 := y0*stride + x1*4
	i01 := y1*stride + x0*4
	i11 := y1*stride + x1*4

	w00 := (1 - dx) * (1 - dy)
	w10 := dx * (1 - dy)
	w01 := (1 - dx) * dy
	w11 := dx * dy

	var out [4]float32
	for ch := range 4 {
		out[ch] = (float32(pix[i00+ch])*w00 + float32(pix[i10+ch])*w10 +
			float32(pix[i01+ch])*w01 + float32(pix[i11+ch])*w11) / 255
	}
	return out
}

// blendStraightAlpha applies (SrcAlpha, OneMinusSrcAlpha) to every channel of dst, alpha included.
func blendStraightAlpha(dst []float32, src [4]float32) {
	sa := src[3]
	for ch := range 4 {
		dst[ch] = src[ch]*sa + dst[ch]*(1-sa)
	}
}

// unpremultiply converts a premultiplied image back to straight alpha.
func unpremultiply(img *image.RGBA) *image.NRGBA {
	out := image.NewNRGBA(img.Rect)
	for i := 0; i < len(img.Pix); i += 4 {
		a := img.Pix[i+3]
		out.Pix[i+3] = a
		if a == 0 {
			continue
		}
		for ch := range 3 {
			out.Pix[i+ch] = uint8(min(int(img.Pix[i+ch])*255/int(a), 255))
		}
	}
	return out
}

func clamp01(v float32) float32 {
	return math32.Max(0, math32.Min(1, v))
}

func toByte(v float32) uint8 {
	return uint8(clamp01(v)*255 + 0.5)
}

// nrgbaToClear converts a color to the canvas clear value.
func nrgbaToClear(c color.NRGBA) [4]float32 {
	return [4]float32{float32(c.R) / 255, float32(c.G) / 255, float32(c.B) / 255, float32(c.A) / 255}
}
