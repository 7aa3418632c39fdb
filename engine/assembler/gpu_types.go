package assembler

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/cogentcore/webgpu/wgpu"
)

// GPUSpineVertexSource is the canonical WGSL definition of the VertexInput struct for the skeleton pipeline.
// Matches GPUSpineVertex layout exactly (40 bytes).
//
//go:embed assets/spine_vertex.wgsl
var GPUSpineVertexSource string

// GPUSpineVertex is the GPU-aligned representation of a single assembled skeleton vertex.
// Matches the WGSL VertexInput struct layout exactly (see GPUSpineVertexSource).
// Size: 40 bytes (no padding required for a vertex buffer).
type GPUSpineVertex struct {
	Position [4]float32 // offset  0: normalized position (x, y, 0, 1) (16 bytes)
	Color    [4]float32 // offset 16: RGBA tint (16 bytes)
	TexCoord [2]float32 // offset 32: atlas UV with V flipped (8 bytes)
}

// GPUSpineVertexStride is the byte stride between consecutive vertices in the vertex buffer.
const GPUSpineVertexStride = 40

// Size returns the size of the GPUSpineVertex struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUSpineVertex) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUSpineVertex struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 40-byte buffer ready for GPU upload.
func (g *GPUSpineVertex) Marshal() []byte {
	buf := make([]byte, GPUSpineVertexStride)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(g.Position[0]))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(g.Position[1]))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(g.Position[2]))
	binary.LittleEndian.PutUint32(buf[12:16], math.Float32bits(g.Position[3]))
	binary.LittleEndian.PutUint32(buf[16:20], math.Float32bits(g.Color[0]))
	binary.LittleEndian.PutUint32(buf[20:24], math.Float32bits(g.Color[1]))
	binary.LittleEndian.PutUint32(buf[24:28], math.Float32bits(g.Color[2]))
	binary.LittleEndian.PutUint32(buf[28:32], math.Float32bits(g.Color[3]))
	binary.LittleEndian.PutUint32(buf[32:36], math.Float32bits(g.TexCoord[0]))
	binary.LittleEndian.PutUint32(buf[36:40], math.Float32bits(g.TexCoord[1]))
	return buf
}

// GPUSpineVertexLayout returns the vertex buffer layout matching GPUSpineVertex, with shader
// locations 0 (position), 1 (color) and 2 (texCoord).
//
// Returns:
//   - wgpu.VertexBufferLayout: the layout for pipeline creation
func GPUSpineVertexLayout() wgpu.VertexBufferLayout {
	return wgpu.VertexBufferLayout{
		ArrayStride: GPUSpineVertexStride,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32x4, Offset: 0, ShaderLocation: 0},
			{Format: wgpu.VertexFormatFloat32x4, Offset: 16, ShaderLocation: 1},
			{Format: wgpu.VertexFormatFloat32x2, Offset: 32, ShaderLocation: 2},
		},
	}
}
