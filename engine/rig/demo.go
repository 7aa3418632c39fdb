package rig

import (
	"bytes"
	_ "embed"
	"image"
	"image/color"
	"image/png"

	"github.com/chewxy/math32"
	"github.com/dragonikpl/spine-runtimes/common"
)

//go:embed assets/demo.yaml
var demoSource []byte

// demoAtlasSize is the edge length of the generated demo atlas page in pixels.
const demoAtlasSize = 128

// DemoData returns a freshly decoded copy of the built-in demo rig.
//
// Returns:
//   - *SkeletonData: the demo rig
//   - error: error if the embedded description cannot be decoded
func DemoData() (*SkeletonData, error) {
	return ParseData(demoSource)
}

// DemoAtlasPage returns a generated atlas page matching the demo rig's UVs: four cells for
// torso (top-left), arm (top-right), head (bottom-left) and glow (bottom-right).
//
// Returns:
//   - common.AtlasPage: the PNG-encoded page
//   - error: error if encoding fails
func DemoAtlasPage() (common.AtlasPage, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, DemoAtlasImage()); err != nil {
		return common.AtlasPage{}, err
	}
	return common.AtlasPage{Name: "demo.png", Data: buf.Bytes()}, nil
}

// DemoAtlasImage draws the demo atlas page.
//
// Returns:
//   - *image.NRGBA: the page image
func DemoAtlasImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, demoAtlasSize, demoAtlasSize))
	half := demoAtlasSize / 2

	fillCell(img, 0, 0, half, func(fx, fy float32) color.NRGBA {
		return color.NRGBA{R: 40, G: 70, B: uint8(140 + 80*fy), A: 255}
	})
	fillCell(img, half, 0, half, func(fx, fy float32) color.NRGBA {
		return color.NRGBA{R: 220, G: uint8(120 + 60*fx), B: 40, A: 255}
	})
	fillCell(img, 0, half, half, func(fx, fy float32) color.NRGBA {
		d := math32.Sqrt((fx-0.5)*(fx-0.5) + (fy-0.5)*(fy-0.5))
		if d > 0.5 {
			return color.NRGBA{}
		}
		return color.NRGBA{R: 240, G: 200, B: 170, A: 255}
	})
	fillCell(img, half, half, half, func(fx, fy float32) color.NRGBA {
		d := math32.Sqrt((fx-0.5)*(fx-0.5) + (fy-0.5)*(fy-0.5))
		a := math32.Max(0, 1-2*d)
		return color.NRGBA{R: 255, G: 255, B: 255, A: uint8(255 * a)}
	})
	return img
}

func fillCell(img *image.NRGBA, x0, y0, size int, shade func(fx, fy float32) color.NRGBA) {
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			fx := (float32(x) + 0.5) / float32(size)
			fy := (float32(y) + 0.5) / float32(size)
			img.SetNRGBA(x0+x, y0+y, shade(fx, fy))
		}
	}
}
