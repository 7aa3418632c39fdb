package assembler

import (
	"errors"
	"testing"

	"github.com/dragonikpl/spine-runtimes/engine/skeleton"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var red = skeleton.Color{R: 1, A: 1}

func quad(name string, x, y float32, tint skeleton.Color) skeleton.Slot {
	return skeleton.Slot{
		Name: name,
		Attachment: skeleton.NewRegion(&skeleton.RegionAttachment{
			Name:          name,
			WorldVertices: [8]float32{x, y, x + 10, y, x + 10, y + 10, x, y + 10},
			UVs:           [8]float32{0, 0, 1, 0, 1, 1, 0, 1},
			Color:         tint,
		}),
	}
}

func triangle(name string, tint skeleton.Color) skeleton.Slot {
	return skeleton.Slot{
		Name: name,
		Attachment: skeleton.NewMesh(&skeleton.MeshAttachment{
			Name:          name,
			WorldVertices: []float32{0, 0, 4, 0, 0, 4},
			UVs:           []float32{0, 0, 1, 0, 0, 1},
			Triangles:     []uint16{0, 1, 2},
			Color:         tint,
		}),
	}
}

// assertWellFormed checks the structural properties every frame must hold.
func assertWellFormed(t *testing.T, f *Frame) {
	t.Helper()
	require.NotNil(t, f)
	assert.Zero(t, len(f.Indices)%3)
	for _, idx := range f.Indices {
		assert.Less(t, int(idx), len(f.Vertices))
	}
	var total uint32
	for _, b := range f.Batches {
		assert.Zero(t, b.IndexCount%3)
		assert.Equal(t, total, b.FirstIndex)
		total += b.IndexCount
	}
	assert.Equal(t, uint32(len(f.Indices)), total)
}

func TestAssembleSingleRegion(t *testing.T) {
	a := NewAssembler()
	f, err := a.Assemble(skeleton.NewSnapshot(skeleton.WithSlots(quad("head", 0, 0, red))))
	require.NoError(t, err)
	assertWellFormed(t, f)

	require.Len(t, f.Vertices, 4)
	assert.Equal(t, []uint16{0, 1, 2, 2, 3, 0}, f.Indices)

	uvs := [8]float32{0, 0, 1, 0, 1, 1, 0, 1}
	for i, v := range f.Vertices {
		assert.Equal(t, [4]float32{1, 0, 0, 1}, v.Color)
		assert.Equal(t, uvs[i*2], v.TexCoord[0])
		assert.Equal(t, 1-uvs[i*2+1], v.TexCoord[1])
		assert.Equal(t, float32(0), v.Position[2])
		assert.Equal(t, float32(1), v.Position[3])
	}
}

func TestAssembleSequentialRegionsAreOffset(t *testing.T) {
	a := NewAssembler()

	alone, err := a.Assemble(skeleton.NewSnapshot(skeleton.WithSlots(quad("b", 20, 0, red))))
	require.NoError(t, err)

	both, err := a.Assemble(skeleton.NewSnapshot(skeleton.WithSlots(quad("a", 0, 0, red), quad("b", 20, 0, red))))
	require.NoError(t, err)
	assertWellFormed(t, both)

	require.Len(t, both.Vertices, 8)
	require.Len(t, both.Indices, 12)
	for i, idx := range alone.Indices {
		assert.Equal(t, idx+4, both.Indices[6+i])
	}
	assert.Equal(t, alone.Vertices, both.Vertices[4:])
}

func TestAssembleMeshAfterPriorVertices(t *testing.T) {
	// Ten prior vertices: one quad plus a six-vertex strip.
	prior := skeleton.Slot{
		Name: "strip",
		Attachment: skeleton.NewMesh(&skeleton.MeshAttachment{
			Name:          "strip",
			WorldVertices: []float32{0, 0, 1, 0, 1, 1, 0, 1, 2, 0, 2, 1},
			UVs:           make([]float32, 12),
			Triangles:     []uint16{0, 1, 2, 3, 4, 5},
			Color:         skeleton.White,
		}),
	}
	s := skeleton.NewSnapshot(skeleton.WithSlots(
		quad("a", 0, 0, skeleton.White),
		prior,
		triangle("tri", skeleton.White),
	))

	f, err := NewAssembler().Assemble(s)
	require.NoError(t, err)
	assertWellFormed(t, f)

	require.Len(t, f.Vertices, 13)
	assert.Equal(t, []uint16{10, 11, 12}, f.Indices[len(f.Indices)-3:])
}

func TestAssembleIsIdempotent(t *testing.T) {
	s := skeleton.NewSnapshot(skeleton.WithSlots(
		quad("a", 0, 0, red),
		triangle("b", skeleton.White),
		quad("c", 5, 5, skeleton.White),
	))

	for _, reuse := range []bool{false, true} {
		a := NewAssembler(WithViewport(100, 50), WithBufferReuse(reuse))

		first, err := a.Assemble(s)
		require.NoError(t, err)
		vertices := append([]GPUSpineVertex(nil), first.Vertices...)
		indices := append([]uint16(nil), first.Indices...)

		second, err := a.Assemble(s)
		require.NoError(t, err)
		assert.Equal(t, vertices, second.Vertices)
		assert.Equal(t, indices, second.Indices)
	}
}

func TestAssembleEmptySnapshots(t *testing.T) {
	a := NewAssembler()

	f, err := a.Assemble(skeleton.NewSnapshot())
	require.NoError(t, err)
	assert.Empty(t, f.Vertices)
	assert.Empty(t, f.Indices)
	assert.True(t, f.Empty())

	f, err = a.Assemble(skeleton.NewSnapshot(skeleton.WithSlots(skeleton.Slot{Name: "a"}, skeleton.Slot{Name: "b"})))
	require.NoError(t, err)
	assert.Equal(t, []GPUSpineVertex{}, f.Vertices)
	assert.Equal(t, []uint16{}, f.Indices)
	assert.Empty(t, f.Batches)
	assert.Equal(t, 0, f.IndexCount())
}

func TestAssembleSkipsNonRenderableAttachments(t *testing.T) {
	s := skeleton.NewSnapshot(skeleton.WithSlots(
		skeleton.Slot{Name: "clip", Attachment: skeleton.NewClipping(&skeleton.ClippingAttachment{
			Name:          "clip",
			WorldVertices: []float32{0, 0, 1, 0, 1, 1},
		})},
		skeleton.Slot{Name: "bbox", Attachment: skeleton.NewOther("bbox")},
		quad("a", 0, 0, red),
	))

	f, err := NewAssembler().Assemble(s)
	require.NoError(t, err)
	assertWellFormed(t, f)
	assert.Len(t, f.Vertices, 4)
	assert.Equal(t, []uint16{0, 1, 2, 2, 3, 0}, f.Indices)
}

func TestAssembleMeshWithoutTrianglesEmitsNothing(t *testing.T) {
	empty := skeleton.Slot{
		Name: "empty",
		Attachment: skeleton.NewMesh(&skeleton.MeshAttachment{
			Name:          "empty",
			WorldVertices: []float32{0, 0, 1, 1},
			UVs:           []float32{0, 0, 1, 1},
		}),
	}
	f, err := NewAssembler().Assemble(skeleton.NewSnapshot(skeleton.WithSlots(empty, quad("a", 0, 0, red))))
	require.NoError(t, err)
	assert.Len(t, f.Vertices, 4)
	assert.Equal(t, []uint16{0, 1, 2, 2, 3, 0}, f.Indices)
}

func TestAssembleViewportScaling(t *testing.T) {
	a := NewAssembler(WithViewport(200, 100))
	w, h := a.Viewport()
	assert.Equal(t, float32(200), w)
	assert.Equal(t, float32(100), h)

	f, err := a.Assemble(skeleton.NewSnapshot(skeleton.WithSlots(quad("a", 100, 50, red))))
	require.NoError(t, err)
	assert.Equal(t, [4]float32{0.5, 0.5, 0, 1}, f.Vertices[0].Position)
	assert.Equal(t, [4]float32{0.55, 0.6, 0, 1}, f.Vertices[2].Position)

	a.SetViewport(0, 100)
	_, err = a.Assemble(skeleton.NewSnapshot())
	assert.ErrorIs(t, err, ErrInvalidViewport)
}

func TestAssembleWhiteTint(t *testing.T) {
	a := NewAssembler(WithTintMode(TintWhite))
	assert.Equal(t, TintWhite, a.TintMode())
	assert.Equal(t, "white", a.TintMode().String())

	f, err := a.Assemble(skeleton.NewSnapshot(skeleton.WithSlots(quad("a", 0, 0, red))))
	require.NoError(t, err)
	for _, v := range f.Vertices {
		assert.Equal(t, [4]float32{1, 1, 1, 1}, v.Color)
	}

	a.SetTintMode(TintAttachment)
	f, err = a.Assemble(skeleton.NewSnapshot(skeleton.WithSlots(quad("a", 0, 0, red))))
	require.NoError(t, err)
	assert.Equal(t, [4]float32{1, 0, 0, 1}, f.Vertices[0].Color)
}

func TestAssembleGeometryMismatch(t *testing.T) {
	tests := []struct {
		name string
		mesh skeleton.MeshAttachment
	}{
		{
			name: "odd vertex length",
			mesh: skeleton.MeshAttachment{WorldVertices: []float32{0, 0, 1}, UVs: []float32{0, 0, 1}, Triangles: []uint16{0, 0, 0}},
		},
		{
			name: "uv length",
			mesh: skeleton.MeshAttachment{WorldVertices: []float32{0, 0, 1, 0, 0, 1}, UVs: []float32{0, 0}, Triangles: []uint16{0, 1, 2}},
		},
		{
			name: "partial triangle",
			mesh: skeleton.MeshAttachment{WorldVertices: []float32{0, 0, 1, 0, 0, 1}, UVs: make([]float32, 6), Triangles: []uint16{0, 1}},
		},
		{
			name: "index out of range",
			mesh: skeleton.MeshAttachment{WorldVertices: []float32{0, 0, 1, 0, 0, 1}, UVs: make([]float32, 6), Triangles: []uint16{0, 1, 3}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mesh := tt.mesh
			mesh.Name = "bad"
			s := skeleton.NewSnapshot(skeleton.WithSlots(
				quad("ok", 0, 0, red),
				skeleton.Slot{Name: "broken", Attachment: skeleton.NewMesh(&mesh)},
			))

			f, err := NewAssembler().Assemble(s)
			assert.Nil(t, f)
			require.ErrorIs(t, err, ErrGeometryMismatch)

			var geomErr *GeometryError
			require.True(t, errors.As(err, &geomErr))
			assert.Equal(t, 1, geomErr.SlotIndex)
			assert.Equal(t, "broken", geomErr.SlotName)
			assert.Equal(t, "bad", geomErr.Attachment)
		})
	}
}

func TestAssembleMissingVariantData(t *testing.T) {
	s := skeleton.NewSnapshot(skeleton.WithSlots(skeleton.Slot{
		Name:       "hollow",
		Attachment: &skeleton.Attachment{Kind: skeleton.AttachmentMesh},
	}))
	_, err := NewAssembler().Assemble(s)
	assert.ErrorIs(t, err, ErrGeometryMismatch)
}

func TestAssembleIndexOverflow(t *testing.T) {
	// 16385 quads need 65540 vertices.
	slots := make([]skeleton.Slot, 0, 16385)
	for i := 0; i < 16385; i++ {
		slots = append(slots, quad("q", 0, 0, red))
	}
	_, err := NewAssembler().Assemble(skeleton.NewSnapshot(skeleton.WithSlots(slots...)))
	assert.ErrorIs(t, err, ErrIndexOverflow)

	// Exactly 65536 vertices still fits.
	f, err := NewAssembler().Assemble(skeleton.NewSnapshot(skeleton.WithSlots(slots[:16384]...)))
	require.NoError(t, err)
	assert.Len(t, f.Vertices, 65536)
	assert.Equal(t, uint16(65535), f.Indices[len(f.Indices)-2])
}

func TestAssembleBatchesByBlendMode(t *testing.T) {
	a := quad("a", 0, 0, red)
	b := quad("b", 0, 0, red)
	c := triangle("c", red)
	c.BlendMode = skeleton.BlendModeAdditive
	d := quad("d", 0, 0, red)

	f, err := NewAssembler().Assemble(skeleton.NewSnapshot(skeleton.WithSlots(a, b, c, d)))
	require.NoError(t, err)
	assertWellFormed(t, f)

	assert.Equal(t, []Batch{
		{BlendMode: skeleton.BlendModeNormal, FirstIndex: 0, IndexCount: 12},
		{BlendMode: skeleton.BlendModeAdditive, FirstIndex: 12, IndexCount: 3},
		{BlendMode: skeleton.BlendModeNormal, FirstIndex: 15, IndexCount: 6},
	}, f.Batches)
}

func TestAssembleBufferReuseKeepsCapacity(t *testing.T) {
	a := NewAssembler(WithBufferReuse(true))
	assert.True(t, a.ReusesBuffers())

	big := skeleton.NewSnapshot(skeleton.WithSlots(quad("a", 0, 0, red), quad("b", 0, 0, red)))
	small := skeleton.NewSnapshot(skeleton.WithSlots(triangle("c", red)))

	first, err := a.Assemble(big)
	require.NoError(t, err)
	capacity := cap(first.Vertices)

	second, err := a.Assemble(small)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Len(t, second.Vertices, 3)
	assert.Equal(t, []uint16{0, 1, 2}, second.Indices)
	assert.Equal(t, capacity, cap(second.Vertices))
}

func TestFrameByteViews(t *testing.T) {
	f, err := NewAssembler().Assemble(skeleton.NewSnapshot(skeleton.WithSlots(quad("a", 0, 0, red))))
	require.NoError(t, err)

	assert.Len(t, f.VertexData(), 4*GPUSpineVertexStride)
	assert.Len(t, f.IndexData(), 6*2)

	var nilFrame *Frame
	assert.True(t, nilFrame.Empty())
	assert.Nil(t, nilFrame.VertexData())
	assert.Nil(t, nilFrame.IndexData())
}

func TestGPUSpineVertexMarshal(t *testing.T) {
	v := GPUSpineVertex{
		Position: [4]float32{1, 2, 0, 1},
		Color:    [4]float32{1, 0, 0, 1},
		TexCoord: [2]float32{0.25, 0.75},
	}
	assert.Equal(t, GPUSpineVertexStride, v.Size())

	buf := v.Marshal()
	require.Len(t, buf, GPUSpineVertexStride)

	f := Frame{Vertices: []GPUSpineVertex{v}}
	assert.Equal(t, f.VertexData(), buf)
}
