// Package common holds the plain data types and helpers shared by the runtime packages: atlas
// pages, GPU staging data, byte views and key codes.
package common

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"image/png"
	"io"
	"os"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/webp"
)

// TextureStagingData is a decoded atlas page waiting to be uploaded as an RGBA8 texture.
type TextureStagingData struct {
	// Pixels is the RGBA pixel data, 4 bytes per pixel, row-major.
	Pixels []byte
	// Width is the width of the texture in pixels.
	Width uint32
	// Height is the height of the texture in pixels.
	Height uint32
}

// SamplerStagingData describes a sampler to create for an atlas binding.
type SamplerStagingData struct {
	// AddressModeU, AddressModeV, AddressModeW specify the addressing mode outside the [0, 1] range.
	AddressModeU, AddressModeV, AddressModeW wgpu.AddressMode
	// MagFilter and MinFilter select filtering when the page is magnified or minified.
	MagFilter, MinFilter wgpu.FilterMode
	// MipmapFilter is unused while pages have a single mip level.
	MipmapFilter wgpu.MipmapFilterMode
	// LodMinClamp and LodMaxClamp specify the minimum and maximum level of detail.
	LodMinClamp, LodMaxClamp float32
	// MaxAnisotropy specifies the maximum anisotropy level.
	MaxAnisotropy uint16
}

// DefaultAtlasSampler is the linear, edge-clamped sampler used for atlas pages.
var DefaultAtlasSampler = SamplerStagingData{
	AddressModeU:  wgpu.AddressModeClampToEdge,
	AddressModeV:  wgpu.AddressModeClampToEdge,
	AddressModeW:  wgpu.AddressModeClampToEdge,
	MagFilter:     wgpu.FilterModeLinear,
	MinFilter:     wgpu.FilterModeLinear,
	MipmapFilter:  wgpu.MipmapFilterModeNearest,
	LodMinClamp:   0,
	LodMaxClamp:   32,
	MaxAnisotropy: 1,
}

// AtlasPage is one texture page of a skeleton's atlas.
// For embedded pages the Data field contains raw image bytes, otherwise Path names the file.
type AtlasPage struct {
	// Name identifies the page (usually its file name).
	Name string

	// Path is the file path of the page image (empty for embedded data).
	Path string

	// Data contains raw image bytes (PNG, JPEG, WebP or TGA).
	Data []byte

	// FlipY stores rows bottom-up, giving the page a bottom-left origin.
	FlipY bool

	// Width is the page width in pixels (populated after Decode).
	Width int

	// Height is the page height in pixels (populated after Decode).
	Height int
}

// Decode decodes the page to raw RGBA pixel data.
// Data wins over Path when both are set.
//
// Returns:
//   - TextureStagingData: raw RGBA pixel data ready for upload
//   - error: an error if the page cannot be read or decoded
func (p *AtlasPage) Decode() (TextureStagingData, error) {
	if p == nil {
		return TextureStagingData{}, fmt.Errorf("atlas page is nil")
	}

	img, err := p.decodeImage()
	if err != nil {
		return TextureStagingData{}, err
	}

	nrgba := ToNRGBA(img)
	width, height := nrgba.Bounds().Dx(), nrgba.Bounds().Dy()
	if p.FlipY {
		FlipRows(nrgba.Pix, width*4, height)
	}

	p.Width = width
	p.Height = height

	return TextureStagingData{Pixels: nrgba.Pix, Width: uint32(width), Height: uint32(height)}, nil
}

// Image decodes the page without any row flip.
//
// Returns:
//   - *image.NRGBA: the decoded page
//   - error: an error if the page cannot be read or decoded
func (p *AtlasPage) Image() (*image.NRGBA, error) {
	if p == nil {
		return nil, fmt.Errorf("atlas page is nil")
	}
	img, err := p.decodeImage()
	if err != nil {
		return nil, err
	}
	return ToNRGBA(img), nil
}

func (p *AtlasPage) decodeImage() (image.Image, error) {
	data, source := p.Data, p.Name
	if len(data) == 0 {
		if p.Path == "" {
			return nil, fmt.Errorf("atlas page %s has neither data nor path", p.Name)
		}
		var err error
		if data, err = os.ReadFile(p.Path); err != nil {
			return nil, fmt.Errorf("failed to open atlas page %s: %w", p.Path, err)
		}
		source = p.Path
	}

	img, err := DecoderFor(data)(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode atlas page %s: %w", source, err)
	}
	return img, nil
}

var (
	pngMagic  = []byte("\x89PNG\r\n\x1a\n")
	jpegMagic = []byte{0xff, 0xd8, 0xff}
)

// DecoderFor picks an image decoder from the leading bytes of an encoded page. TGA has no magic
// number, so anything that is not PNG, JPEG or WebP is handed to the TGA decoder. The image
// package registry is not used because the tga package registers an empty magic string there,
// which shadows the formats registered after it.
//
// Parameters:
//   - data: the encoded page
//
// Returns:
//   - func(io.Reader) (image.Image, error): the decoder for data
func DecoderFor(data []byte) func(io.Reader) (image.Image, error) {
	switch {
	case bytes.HasPrefix(data, pngMagic):
		return png.Decode
	case bytes.HasPrefix(data, jpegMagic):
		return jpeg.Decode
	case len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WEBP":
		return webp.Decode
	default:
		return tga.Decode
	}
}

// ToNRGBA converts any image to a zero-origin, non-premultiplied *image.NRGBA.
//
// Parameters:
//   - img: the source image
//
// Returns:
//   - *image.NRGBA: the converted image (img itself if it already qualifies)
func ToNRGBA(img image.Image) *image.NRGBA {
	if nrgba, ok := img.(*image.NRGBA); ok && nrgba.Rect.Min == (image.Point{}) && nrgba.Stride == nrgba.Rect.Dx()*4 {
		return nrgba
	}
	bounds := img.Bounds()
	nrgba := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(nrgba, nrgba.Bounds(), img, bounds.Min, draw.Src)
	return nrgba
}

// FlipRows reverses the row order of a tightly packed pixel buffer in place.
//
// Parameters:
//   - pix: the pixel buffer
//   - stride: bytes per row
//   - rows: number of rows
func FlipRows(pix []byte, stride, rows int) {
	tmp := make([]byte, stride)
	for top, bottom := 0, rows-1; top < bottom; top, bottom = top+1, bottom-1 {
		a := pix[top*stride : (top+1)*stride]
		b := pix[bottom*stride : (bottom+1)*stride]
		copy(tmp, a)
		copy(a, b)
		copy(b, tmp)
	}
}
