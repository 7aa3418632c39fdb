package rig

import (
	"testing"

	"github.com/dragonikpl/spine-runtimes/engine/animation"
	"github.com/dragonikpl/spine-runtimes/engine/skeleton"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func simpleData() *SkeletonData {
	return &SkeletonData{
		Name: "simple",
		Bones: []BoneData{
			{Name: "root"},
			{Name: "arm", Parent: "root", X: 10},
		},
		Slots: []SlotData{
			{Name: "body", Bone: "root", Attachment: "body"},
			{Name: "arm", Bone: "arm", Attachment: "arm", Blend: "screen"},
			{Name: "empty", Bone: "root"},
		},
		Skins: []SkinData{
			{Name: DefaultSkin, Attachments: map[string][]AttachmentData{
				"body": {{Name: "body", Width: 4, Height: 2, UVs: []float32{0, 1, 1, 1, 1, 0, 0, 0}}},
				"arm": {{
					Name:      "arm",
					Type:      "mesh",
					Vertices:  []float32{0, 0, 2, 0, 0, 2},
					UVs:       []float32{0, 0, 1, 0, 0, 1},
					Triangles: []uint16{0, 1, 2},
				}},
			}},
			{Name: "red", Attachments: map[string][]AttachmentData{
				"body": {{Name: "body", Width: 4, Height: 2, UVs: []float32{0, 1, 1, 1, 1, 0, 0, 0}, Color: &skeleton.Color{R: 1, A: 1}}},
			}},
		},
		Animations: []AnimationData{
			{Name: "swing", Duration: 1, Timelines: []Timeline{
				{Bone: "arm", Property: PropertyRotate, Keys: []Keyframe{{Time: 0, Value: 0}, {Time: 1, Value: 90}}},
				{Bone: "root", Property: PropertyTranslateY, Keys: []Keyframe{{Time: 0, Value: 0}, {Time: 1, Value: 10}}},
			}},
		},
	}
}

func TestSetupPoseSnapshot(t *testing.T) {
	r, err := NewRig(simpleData())
	require.NoError(t, err)

	s := r.Pose(nil)
	require.Equal(t, 3, s.SlotCount())

	body := s.Slot(0)
	require.NotNil(t, body.Attachment)
	assert.Equal(t, skeleton.AttachmentRegion, body.Attachment.Kind)
	assert.Equal(t, [8]float32{-2, -1, 2, -1, 2, 1, -2, 1}, body.Attachment.Region.WorldVertices)
	assert.Equal(t, skeleton.White, body.Attachment.Region.Color)

	arm := s.Slot(1)
	assert.Equal(t, skeleton.BlendModeScreen, arm.BlendMode)
	assert.Equal(t, "arm", arm.BoneName)
	require.Equal(t, skeleton.AttachmentMesh, arm.Attachment.Kind)
	assert.Equal(t, []float32{10, 0, 12, 0, 10, 2}, arm.Attachment.Mesh.WorldVertices)

	assert.Nil(t, s.Slot(2).Attachment)
}

func TestPoseAppliesTracks(t *testing.T) {
	r, err := NewRig(simpleData())
	require.NoError(t, err)

	s := r.Pose([]animation.TrackEntry{{Animation: "swing", Duration: 1, TrackTime: 1}})
	verts := s.Slot(1).Attachment.Mesh.WorldVertices
	// arm rotated 90 degrees around (10, 10): local (2,0) lands at (10, 12).
	assert.InDelta(t, 10, verts[0], 1e-4)
	assert.InDelta(t, 10, verts[1], 1e-4)
	assert.InDelta(t, 10, verts[2], 1e-4)
	assert.InDelta(t, 12, verts[3], 1e-4)

	// half-faded entry applies half the offset
	s = r.Pose([]animation.TrackEntry{{Animation: "swing", Duration: 1, TrackTime: 1, MixingOut: true, MixDuration: 1, MixTime: 0.5}})
	assert.InDelta(t, -1+5, s.Slot(0).Attachment.Region.WorldVertices[1], 1e-4)

	// setup pose is restored every call
	s = r.Pose(nil)
	assert.Equal(t, float32(-1), s.Slot(0).Attachment.Region.WorldVertices[1])

	// unknown animations are ignored
	s = r.Pose([]animation.TrackEntry{{Animation: "missing", Duration: 1}})
	assert.Equal(t, float32(-1), s.Slot(0).Attachment.Region.WorldVertices[1])
}

func TestSkinsAndPosition(t *testing.T) {
	r, err := NewRig(simpleData(), WithSkin("red"), WithPosition(100, -50), WithScale(2))
	require.NoError(t, err)
	assert.Equal(t, "red", r.Skin())

	s := r.Pose(nil)
	assert.Equal(t, "red", s.Skin())
	body := s.Slot(0).Attachment.Region
	assert.Equal(t, skeleton.Color{R: 1, A: 1}, body.Color)
	assert.Equal(t, [8]float32{96, -52, 104, -52, 104, -48, 96, -48}, body.WorldVertices)
	// arm falls back to the default skin
	require.NotNil(t, s.Slot(1).Attachment)

	assert.ErrorIs(t, r.SetSkin("nope"), ErrUnknownSkin)
	require.NoError(t, r.SetSkin(""))
	assert.Equal(t, "", r.Skin())

	r.SetPosition(1, 2)
	x, y := r.Position()
	assert.Equal(t, float32(1), x)
	assert.Equal(t, float32(2), y)

	_, err = NewRig(simpleData(), WithSkin("nope"))
	assert.ErrorIs(t, err, ErrUnknownSkin)
}

func TestAnimationDuration(t *testing.T) {
	r, err := NewRig(simpleData())
	require.NoError(t, err)

	d, ok := r.AnimationDuration("swing")
	assert.True(t, ok)
	assert.Equal(t, float32(1), d)
	_, ok = r.AnimationDuration("missing")
	assert.False(t, ok)
}

func TestNewRigRejectsInvalidData(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(d *SkeletonData)
	}{
		{"nil parent order", func(d *SkeletonData) { d.Bones[0].Parent = "arm" }},
		{"duplicate bone", func(d *SkeletonData) { d.Bones[1].Name = "root" }},
		{"unknown slot bone", func(d *SkeletonData) { d.Slots[0].Bone = "leg" }},
		{"unknown blend", func(d *SkeletonData) { d.Slots[0].Blend = "overlay" }},
		{"short region uvs", func(d *SkeletonData) { d.Skins[0].Attachments["body"][0].UVs = []float32{0, 0} }},
		{"mesh uv mismatch", func(d *SkeletonData) { d.Skins[0].Attachments["arm"][0].UVs = []float32{0, 0} }},
		{"unknown attachment type", func(d *SkeletonData) { d.Skins[0].Attachments["arm"][0].Type = "sprite" }},
		{"unknown timeline bone", func(d *SkeletonData) { d.Animations[0].Timelines[0].Bone = "leg" }},
		{"unknown property", func(d *SkeletonData) { d.Animations[0].Timelines[0].Property = "shear" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := simpleData()
			tt.mutate(d)
			_, err := NewRig(d)
			assert.ErrorIs(t, err, ErrInvalidData)
		})
	}

	_, err := NewRig(nil)
	assert.ErrorIs(t, err, ErrInvalidData)
}

func TestTimelineSample(t *testing.T) {
	tl := Timeline{Keys: []Keyframe{{Time: 0.5, Value: 10}, {Time: 1.5, Value: 20}}}
	assert.Equal(t, float32(10), tl.sample(0))
	assert.Equal(t, float32(15), tl.sample(1))
	assert.Equal(t, float32(20), tl.sample(3))
	assert.Equal(t, float32(0), (&Timeline{}).sample(1))
}

func TestParseBlendMode(t *testing.T) {
	for name, want := range map[string]skeleton.BlendMode{
		"":         skeleton.BlendModeNormal,
		"normal":   skeleton.BlendModeNormal,
		"additive": skeleton.BlendModeAdditive,
		"multiply": skeleton.BlendModeMultiply,
		"screen":   skeleton.BlendModeScreen,
	} {
		got, err := ParseBlendMode(name)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseBlendMode("darken")
	assert.ErrorIs(t, err, ErrInvalidData)
}

func TestDemoData(t *testing.T) {
	data, err := DemoData()
	require.NoError(t, err)
	assert.Equal(t, "lantern-keeper", data.Name)

	r, err := NewRig(data, WithSkin("night"))
	require.NoError(t, err)

	s := r.Pose([]animation.TrackEntry{{Animation: "idle", Duration: 2, TrackTime: 0.5, Loop: true}})
	require.Equal(t, len(data.Slots), s.SlotCount())

	kinds := map[skeleton.AttachmentKind]int{}
	for i := 0; i < s.SlotCount(); i++ {
		if a := s.Slot(i).Attachment; a != nil {
			kinds[a.Kind]++
		}
	}
	assert.Equal(t, 3, kinds[skeleton.AttachmentRegion])
	assert.Equal(t, 1, kinds[skeleton.AttachmentMesh])
	assert.Equal(t, 1, kinds[skeleton.AttachmentClipping])
	assert.Equal(t, 1, kinds[skeleton.AttachmentOther])
	assert.False(t, skeleton.Bounds(s).Empty())

	page, err := DemoAtlasPage()
	require.NoError(t, err)
	staged, err := page.Decode()
	require.NoError(t, err)
	assert.Equal(t, uint32(demoAtlasSize), staged.Width)
}

func TestParseDataErrors(t *testing.T) {
	_, err := ParseData([]byte("bones: [unterminated"))
	assert.Error(t, err)
	_, err = LoadData("does/not/exist.yaml")
	assert.Error(t, err)
}
