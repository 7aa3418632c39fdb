package layer

import (
	"errors"
	"testing"

	"github.com/dragonikpl/spine-runtimes/common"
	"github.com/dragonikpl/spine-runtimes/engine/animation"
	"github.com/dragonikpl/spine-runtimes/engine/assembler"
	"github.com/dragonikpl/spine-runtimes/engine/renderer/bind_group_provider"
	"github.com/dragonikpl/spine-runtimes/engine/renderer/pipeline"
	"github.com/dragonikpl/spine-runtimes/engine/skeleton"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePoser returns a fixed set of slots and records the tracks it was asked to pose.
type fakePoser struct {
	slots []skeleton.Slot
	calls [][]animation.TrackEntry
}

func (p *fakePoser) Pose(tracks []animation.TrackEntry) skeleton.Snapshot {
	p.calls = append(p.calls, tracks)
	return skeleton.NewSnapshot(skeleton.WithSlots(p.slots...))
}

type upload struct {
	vertexBytes, indexBytes, indexCount int
}

// fakeTarget records uploads and draws instead of talking to a GPU.
type fakeTarget struct {
	uploads []upload
	draws   []string
	inits   []string
	failBG  bool
}

func (f *fakeTarget) UploadGeometry(_ bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error {
	f.uploads = append(f.uploads, upload{len(vertexData), len(indexData), indexCount})
	return nil
}

func (f *fakeTarget) DrawCall(pipelineKey string, _ bind_group_provider.BindGroupProvider) error {
	f.draws = append(f.draws, pipelineKey)
	return nil
}

func (f *fakeTarget) InitTextureView(_ bind_group_provider.BindGroupProvider, binding int, _ common.TextureStagingData) error {
	f.inits = append(f.inits, "texture")
	return nil
}

func (f *fakeTarget) InitSampler(_ bind_group_provider.BindGroupProvider, binding int, s common.SamplerStagingData) error {
	f.inits = append(f.inits, "sampler")
	return nil
}

func (f *fakeTarget) InitBindGroup(_ bind_group_provider.BindGroupProvider, pipelineKey string, group int) error {
	if f.failBG {
		return errors.New("no layout")
	}
	f.inits = append(f.inits, "bind group")
	return nil
}

func region() skeleton.Slot {
	return skeleton.Slot{
		Name: "body",
		Attachment: skeleton.NewRegion(&skeleton.RegionAttachment{
			Name:          "body",
			WorldVertices: [8]float32{0, 0, 1, 0, 1, 1, 0, 1},
			UVs:           [8]float32{0, 0, 1, 0, 1, 1, 0, 1},
			Color:         skeleton.White,
		}),
	}
}

func brokenMesh() skeleton.Slot {
	return skeleton.Slot{
		Name: "broken",
		Attachment: skeleton.NewMesh(&skeleton.MeshAttachment{
			Name:          "broken",
			WorldVertices: []float32{0, 0, 1, 0, 0, 1},
			UVs:           []float32{0, 0},
			Triangles:     []uint16{0, 1, 2},
		}),
	}
}

func TestPrepareUploadDraw(t *testing.T) {
	poser := &fakePoser{slots: []skeleton.Slot{region()}}
	l := NewSkeletonLayer("hero", poser, WithZ(3))
	target := &fakeTarget{}

	assert.Equal(t, "hero", l.Name())
	assert.Equal(t, 3, l.Z())
	assert.Equal(t, pipeline.SpinePipelineKey, l.PipelineKey())
	assert.Equal(t, "hero", l.Provider().Label())

	require.NoError(t, l.Prepare(0.5))
	require.NoError(t, l.Upload(target))
	require.NoError(t, l.Draw(target))

	require.Len(t, target.uploads, 1)
	assert.Equal(t, upload{4 * assembler.GPUSpineVertexStride, 12, 6}, target.uploads[0])
	assert.Equal(t, []string{pipeline.SpinePipelineKey}, target.draws)
	assert.Equal(t, Stats{Vertices: 4, Triangles: 2, Batches: 1}, l.Stats())
}

func TestEmptyFrameSkipsDraw(t *testing.T) {
	l := NewSkeletonLayer("empty", &fakePoser{slots: []skeleton.Slot{{Name: "nothing"}}})
	target := &fakeTarget{}

	require.NoError(t, l.Prepare(0))
	require.NoError(t, l.Upload(target))
	require.NoError(t, l.Draw(target))

	assert.Equal(t, []upload{{0, 0, 0}}, target.uploads)
	assert.Empty(t, target.draws)
}

func TestAssemblyErrorSkipsFrame(t *testing.T) {
	poser := &fakePoser{slots: []skeleton.Slot{region()}}
	l := NewSkeletonLayer("flaky", poser)
	target := &fakeTarget{}

	require.NoError(t, l.Prepare(0))
	require.NotNil(t, l.Frame())

	poser.slots = []skeleton.Slot{region(), brokenMesh()}
	err := l.Prepare(0)
	assert.ErrorIs(t, err, assembler.ErrGeometryMismatch)
	assert.Nil(t, l.Frame())
	assert.True(t, l.Stats().Skipped)

	require.NoError(t, l.Draw(target))
	assert.Empty(t, target.draws)

	// recovers on the next good frame
	poser.slots = []skeleton.Slot{region()}
	require.NoError(t, l.Prepare(0))
	require.NoError(t, l.Draw(target))
	assert.Len(t, target.draws, 1)
}

func TestFixedDelta(t *testing.T) {
	state := animation.NewState(animation.WithAnimation(0, "walk", 10, true))
	l := NewSkeletonLayer("clock", &fakePoser{}, WithState(state))

	require.NoError(t, l.Prepare(5))
	entry, ok := state.Track(0)
	require.True(t, ok)
	assert.InDelta(t, DefaultFixedDelta, entry.TrackTime, 1e-6)

	measured := animation.NewState(animation.WithAnimation(0, "walk", 10, true))
	l = NewSkeletonLayer("measured", &fakePoser{}, WithState(measured), WithFixedDelta(0))
	require.NoError(t, l.Prepare(0.25))
	entry, _ = measured.Track(0)
	assert.InDelta(t, 0.25, entry.TrackTime, 1e-6)
}

func TestCompletedOneShotEndsTrack(t *testing.T) {
	var events []animation.TrackEvent
	state := animation.NewState(animation.WithAnimation(0, "wave", 0.5, false))
	poser := &fakePoser{}
	l := NewSkeletonLayer("waver", poser,
		WithState(state),
		WithFixedDelta(0),
		WithEventHandler(func(e animation.TrackEvent) { events = append(events, e) }),
	)

	require.NoError(t, l.Prepare(0.6))
	entry, ok := state.Track(0)
	require.True(t, ok)
	assert.True(t, entry.MixingOut)

	require.NoError(t, l.Prepare(0.1))
	_, ok = state.Track(0)
	assert.False(t, ok)

	types := make([]animation.EventType, 0, len(events))
	for _, e := range events {
		types = append(types, e.Type)
	}
	assert.Equal(t, []animation.EventType{animation.EventStart, animation.EventComplete, animation.EventEnd}, types)

	// the poser saw the track while it was still playing
	require.Len(t, poser.calls, 2)
	require.Len(t, poser.calls[0], 1)
	assert.Equal(t, "wave", poser.calls[0][0].Animation)
	assert.Empty(t, poser.calls[1])
}

func TestLoopingTrackKeepsPlaying(t *testing.T) {
	state := animation.NewState(animation.WithAnimation(0, "idle", 0.5, true))
	l := NewSkeletonLayer("idler", &fakePoser{}, WithState(state), WithFixedDelta(0))

	require.NoError(t, l.Prepare(1.2))
	entry, ok := state.Track(0)
	require.True(t, ok)
	assert.False(t, entry.MixingOut)
}

func TestInitAtlas(t *testing.T) {
	l := NewSkeletonLayer("atlas", &fakePoser{})
	target := &fakeTarget{}

	require.NoError(t, l.InitAtlas(target, common.TextureStagingData{Pixels: make([]byte, 4), Width: 1, Height: 1}, 0, 1))
	assert.Equal(t, []string{"texture", "sampler", "bind group"}, target.inits)

	target.failBG = true
	assert.Error(t, l.InitAtlas(target, common.TextureStagingData{}, 0, 1))
}

func TestVisibilityAndViewport(t *testing.T) {
	l := NewSkeletonLayer("v", &fakePoser{})
	assert.True(t, l.Visible())
	l.SetVisible(false)
	assert.False(t, l.Visible())

	l.SetViewport(800, 600)
	w, h := l.Assembler().Viewport()
	assert.Equal(t, float32(800), w)
	assert.Equal(t, float32(600), h)

	l.SetZ(-1)
	assert.Equal(t, -1, l.Z())
}

func TestNewSkeletonLayerRequiresPoser(t *testing.T) {
	assert.Panics(t, func() { NewSkeletonLayer("nil", nil) })
}
