package assembler

import (
	"github.com/dragonikpl/spine-runtimes/common"
	"github.com/dragonikpl/spine-runtimes/engine/skeleton"
)

// TintMode selects where vertex colors come from.
type TintMode int

const (
	// TintAttachment colors every vertex with its attachment's RGBA tint.
	TintAttachment TintMode = iota

	// TintWhite ignores attachment tints and colors every vertex opaque white.
	TintWhite
)

// String returns the configuration name of the tint mode.
func (m TintMode) String() string {
	if m == TintWhite {
		return "white"
	}
	return "attachment"
}

// Batch is a contiguous run of indices whose slots share a blend mode.
// The fixed single-pipeline renderer draws all batches at once; a multi-pass renderer
// can switch blend state per batch.
type Batch struct {
	// BlendMode is the blend mode shared by every slot in the run.
	BlendMode skeleton.BlendMode

	// FirstIndex is the offset of the run's first index within Frame.Indices.
	FirstIndex uint32

	// IndexCount is the number of indices in the run (always a multiple of 3).
	IndexCount uint32
}

// Frame is the flattened geometry of one posed skeleton.
// Indices are global: each value addresses Vertices directly, and every group of three forms one triangle.
type Frame struct {
	// Vertices are the assembled vertices in draw order.
	Vertices []GPUSpineVertex

	// Indices are the triangle list indices into Vertices.
	Indices []uint16

	// Batches partitions Indices by blend mode, in draw order.
	Batches []Batch
}

// Empty reports whether the frame has nothing to draw.
//
// Returns:
//   - bool: true when there are no indices
func (f *Frame) Empty() bool {
	return f == nil || len(f.Indices) == 0
}

// IndexCount returns the number of indices to draw.
//
// Returns:
//   - int: the index count
func (f *Frame) IndexCount() int {
	if f == nil {
		return 0
	}
	return len(f.Indices)
}

// VertexData returns a byte view of the vertices suitable for a GPU buffer upload.
// The returned slice shares memory with Vertices.
//
// Returns:
//   - []byte: the raw vertex bytes, or nil for an empty frame
func (f *Frame) VertexData() []byte {
	if f == nil {
		return nil
	}
	return common.SliceToBytes(f.Vertices)
}

// IndexData returns a byte view of the indices suitable for a GPU buffer upload.
// The returned slice shares memory with Indices.
//
// Returns:
//   - []byte: the raw index bytes, or nil for an empty frame
func (f *Frame) IndexData() []byte {
	if f == nil {
		return nil
	}
	return common.SliceToBytes(f.Indices)
}
