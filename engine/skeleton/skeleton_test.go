package skeleton

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotPreservesDrawOrder(t *testing.T) {
	s := NewSnapshot(
		WithName("goblin"),
		WithSkin("goblingirl"),
		WithSlots(Slot{Name: "back"}, Slot{Name: "middle"}),
		WithSlots(Slot{Name: "front"}),
	)

	assert.Equal(t, "goblin", s.Name())
	assert.Equal(t, "goblingirl", s.Skin())
	require.Equal(t, 3, s.SlotCount())
	assert.Equal(t, "back", s.Slot(0).Name)
	assert.Equal(t, "middle", s.Slot(1).Name)
	assert.Equal(t, "front", s.Slot(2).Name)
}

func TestAttachmentAccessors(t *testing.T) {
	region := NewRegion(&RegionAttachment{Name: "head", WorldVertices: [8]float32{0, 0, 1, 0, 1, 1, 0, 1}})
	mesh := NewMesh(&MeshAttachment{Name: "torso", WorldVertices: []float32{0, 0, 2, 0, 2, 2}})
	clip := NewClipping(&ClippingAttachment{Name: "clip", WorldVertices: []float32{5, 5, 6, 6}})
	other := NewOther("bbox")

	assert.Equal(t, "head", region.Name())
	assert.Equal(t, "torso", mesh.Name())
	assert.Equal(t, "clip", clip.Name())
	assert.Equal(t, "bbox", other.Name())

	assert.Len(t, region.WorldVertices(), RegionVertexFloats)
	assert.Equal(t, []float32{0, 0, 2, 0, 2, 2}, mesh.WorldVertices())
	assert.Nil(t, clip.WorldVertices())
	assert.Nil(t, other.WorldVertices())

	var missing *Attachment
	assert.Equal(t, "", missing.Name())
	assert.Nil(t, missing.WorldVertices())
}

func TestKindAndBlendModeNames(t *testing.T) {
	assert.Equal(t, "region", AttachmentRegion.String())
	assert.Equal(t, "mesh", AttachmentMesh.String())
	assert.Equal(t, "clipping", AttachmentClipping.String())
	assert.Equal(t, "other", AttachmentOther.String())

	assert.Equal(t, "normal", BlendModeNormal.String())
	assert.Equal(t, "additive", BlendModeAdditive.String())
	assert.Equal(t, "multiply", BlendModeMultiply.String())
	assert.Equal(t, "screen", BlendModeScreen.String())
}

func TestBounds(t *testing.T) {
	s := NewSnapshot(WithSlots(
		Slot{Name: "empty"},
		Slot{Name: "quad", Attachment: NewRegion(&RegionAttachment{
			WorldVertices: [8]float32{-10, -5, 10, -5, 10, 5, -10, 5},
		})},
		Slot{Name: "mesh", Attachment: NewMesh(&MeshAttachment{
			WorldVertices: []float32{0, 0, 30, 0, 0, 40},
		})},
		Slot{Name: "clip", Attachment: NewClipping(&ClippingAttachment{
			WorldVertices: []float32{-1000, -1000, 1000, 1000},
		})},
	))

	assert.Equal(t, Rect{X: -10, Y: -5, Width: 40, Height: 45}, Bounds(s))
}

func TestBoundsEmpty(t *testing.T) {
	r := Bounds(NewSnapshot(WithSlots(Slot{Name: "a"}, Slot{Name: "b"})))
	assert.Equal(t, Rect{}, r)
	assert.True(t, r.Empty())
}

func TestColorVec4(t *testing.T) {
	assert.Equal(t, [4]float32{1, 1, 1, 1}, White.Vec4())
	assert.Equal(t, [4]float32{0.5, 0.25, 0, 1}, Color{R: 0.5, G: 0.25, A: 1}.Vec4())
}
