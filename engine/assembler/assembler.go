// Package assembler flattens a posed skeleton snapshot into a single vertex/index buffer pair
// ready for one indexed triangle-list draw.
package assembler

import (
	"fmt"
	"math"

	"github.com/dragonikpl/spine-runtimes/engine/skeleton"
)

// maxVertices is the number of vertices addressable by a uint16 index.
const maxVertices = math.MaxUint16 + 1

// assembler is the implementation of the Assembler interface.
type assembler struct {
	viewportWidth, viewportHeight float32
	tintMode                      TintMode
	reuseBuffers                  bool

	// frame is retained between calls only when reuseBuffers is set.
	frame *Frame
}

// Assembler converts posed skeleton snapshots into GPU-ready geometry.
//
// Slots are visited strictly in the snapshot's draw order. Region and mesh attachments produce
// vertices and triangles; empty slots, clipping attachments and every other attachment kind are
// skipped. Attachment-local triangle indices are offset by the number of vertices already emitted
// so that every index in the returned Frame addresses the Frame's own vertex slice.
//
// An Assembler is not safe for concurrent use; each layer owns its own.
type Assembler interface {
	// Assemble builds the vertex and index buffers for one snapshot.
	// The result is a pure function of the snapshot content and the assembler configuration.
	// When buffer reuse is enabled, the returned Frame is only valid until the next call to Assemble.
	//
	// Parameters:
	//   - s: the posed snapshot to assemble
	//
	// Returns:
	//   - *Frame: the assembled geometry (possibly empty, never nil on success)
	//   - error: a *GeometryError for malformed attachments, ErrIndexOverflow, or ErrInvalidViewport
	Assemble(s skeleton.Snapshot) (*Frame, error)

	// Viewport returns the dimensions world coordinates are divided by.
	//
	// Returns:
	//   - float32: the viewport width in world units
	//   - float32: the viewport height in world units
	Viewport() (float32, float32)

	// SetViewport sets the dimensions world coordinates are divided by.
	//
	// Parameters:
	//   - width: the viewport width in world units
	//   - height: the viewport height in world units
	SetViewport(width, height float32)

	// TintMode returns where vertex colors are taken from.
	//
	// Returns:
	//   - TintMode: the active tint mode
	TintMode() TintMode

	// SetTintMode changes where vertex colors are taken from.
	//
	// Parameters:
	//   - mode: the tint mode to use for subsequent frames
	SetTintMode(mode TintMode)

	// ReusesBuffers reports whether the backing arrays of the previous frame are recycled.
	//
	// Returns:
	//   - bool: true if buffer reuse is enabled
	ReusesBuffers() bool
}

var _ Assembler = &assembler{}

// NewAssembler creates a new Assembler with the specified options applied.
// The default viewport is 1×1 (world coordinates pass through unchanged), tint mode is
// TintAttachment and buffer reuse is disabled.
//
// Parameters:
//   - options: a variadic list of AssemblerBuilderOption functions to configure the Assembler
//
// Returns:
//   - Assembler: a new Assembler configured with the provided options
func NewAssembler(options ...AssemblerBuilderOption) Assembler {
	a := &assembler{
		viewportWidth:  1,
		viewportHeight: 1,
		tintMode:       TintAttachment,
	}
	for _, opt := range options {
		opt(a)
	}
	return a
}

func (a *assembler) Viewport() (float32, float32) {
	return a.viewportWidth, a.viewportHeight
}

func (a *assembler) SetViewport(width, height float32) {
	a.viewportWidth = width
	a.viewportHeight = height
}

func (a *assembler) TintMode() TintMode {
	return a.tintMode
}

func (a *assembler) SetTintMode(mode TintMode) {
	a.tintMode = mode
}

func (a *assembler) ReusesBuffers() bool {
	return a.reuseBuffers
}

func (a *assembler) Assemble(s skeleton.Snapshot) (*Frame, error) {
	if a.viewportWidth <= 0 || a.viewportHeight <= 0 {
		return nil, fmt.Errorf("assemble %dx%d: %w", int(a.viewportWidth), int(a.viewportHeight), ErrInvalidViewport)
	}

	f := a.newFrame()
	vertexOffset := 0

	for i := 0; i < s.SlotCount(); i++ {
		slot := s.Slot(i)
		att := slot.Attachment
		if att == nil {
			continue
		}

		var (
			verts, uvs []float32
			triangles  []uint16
			tint       skeleton.Color
		)

		switch att.Kind {
		case skeleton.AttachmentRegion:
			if att.Region == nil {
				return nil, geometryError(i, slot, "region attachment has no region data")
			}
			verts = att.Region.WorldVertices[:]
			uvs = att.Region.UVs[:]
			triangles = skeleton.QuadTriangles[:]
			tint = att.Region.Color
		case skeleton.AttachmentMesh:
			if att.Mesh == nil {
				return nil, geometryError(i, slot, "mesh attachment has no mesh data")
			}
			verts = att.Mesh.WorldVertices
			uvs = att.Mesh.UVs
			triangles = att.Mesh.Triangles
			tint = att.Mesh.Color
		case skeleton.AttachmentClipping, skeleton.AttachmentOther:
			continue
		default:
			continue
		}

		if len(triangles) == 0 {
			continue
		}
		if err := validate(i, slot, verts, uvs, triangles); err != nil {
			return nil, err
		}

		localCount := len(verts) / 2
		if vertexOffset+localCount > maxVertices {
			return nil, fmt.Errorf("slot %d (%s): %d vertices: %w", i, slot.Name, vertexOffset+localCount, ErrIndexOverflow)
		}

		if a.tintMode == TintWhite {
			tint = skeleton.White
		}
		f.Vertices = a.appendVertices(f.Vertices, verts, uvs, tint.Vec4())

		first := uint32(len(f.Indices))
		base := uint16(vertexOffset)
		for j := 0; j < len(triangles); j += 3 {
			f.Indices = append(f.Indices,
				triangles[j]+base,
				triangles[j+1]+base,
				triangles[j+2]+base,
			)
		}
		f.Batches = appendBatch(f.Batches, slot.BlendMode, first, uint32(len(triangles)))

		vertexOffset += localCount
	}

	return f, nil
}

// newFrame returns an empty frame, recycling the previous frame's arrays when reuse is enabled.
func (a *assembler) newFrame() *Frame {
	if !a.reuseBuffers {
		return &Frame{
			Vertices: []GPUSpineVertex{},
			Indices:  []uint16{},
		}
	}
	if a.frame == nil {
		a.frame = &Frame{
			Vertices: []GPUSpineVertex{},
			Indices:  []uint16{},
		}
	}
	a.frame.Vertices = a.frame.Vertices[:0]
	a.frame.Indices = a.frame.Indices[:0]
	a.frame.Batches = a.frame.Batches[:0]
	return a.frame
}

// appendVertices emits one vertex per x,y pair: position scaled into the viewport, the tint,
// and the UV with V flipped for the texture origin.
func (a *assembler) appendVertices(dst []GPUSpineVertex, verts, uvs []float32, tint [4]float32) []GPUSpineVertex {
	for i := 0; i < len(verts); i += 2 {
		dst = append(dst, GPUSpineVertex{
			Position: [4]float32{verts[i] / a.viewportWidth, verts[i+1] / a.viewportHeight, 0, 1},
			Color:    tint,
			TexCoord: [2]float32{uvs[i], 1 - uvs[i+1]},
		})
	}
	return dst
}

// appendBatch extends the last batch when the blend mode is unchanged, otherwise starts a new one.
func appendBatch(batches []Batch, mode skeleton.BlendMode, first, count uint32) []Batch {
	if n := len(batches); n > 0 && batches[n-1].BlendMode == mode {
		batches[n-1].IndexCount += count
		return batches
	}
	return append(batches, Batch{BlendMode: mode, FirstIndex: first, IndexCount: count})
}

// validate checks that an attachment's arrays agree before anything is read from them.
func validate(index int, slot *skeleton.Slot, verts, uvs []float32, triangles []uint16) error {
	if len(verts)%2 != 0 {
		return geometryError(index, slot, fmt.Sprintf("odd world vertex length %d", len(verts)))
	}
	if len(uvs) != len(verts) {
		return geometryError(index, slot, fmt.Sprintf("uv length %d does not match vertex length %d", len(uvs), len(verts)))
	}
	if len(triangles)%3 != 0 {
		return geometryError(index, slot, fmt.Sprintf("triangle list length %d is not a multiple of 3", len(triangles)))
	}
	count := len(verts) / 2
	for _, t := range triangles {
		if int(t) >= count {
			return geometryError(index, slot, fmt.Sprintf("triangle index %d out of range for %d vertices", t, count))
		}
	}
	return nil
}

func geometryError(index int, slot *skeleton.Slot, reason string) error {
	return &GeometryError{
		SlotIndex:  index,
		SlotName:   slot.Name,
		Attachment: slot.Attachment.Name(),
		Reason:     reason,
	}
}
