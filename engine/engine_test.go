package engine

import (
	"sync"
	"testing"
	"time"

	"github.com/dragonikpl/spine-runtimes/engine/animation"
	"github.com/dragonikpl/spine-runtimes/engine/layer"
	"github.com/dragonikpl/spine-runtimes/engine/profiler"
	"github.com/dragonikpl/spine-runtimes/engine/renderer/bind_group_provider"
	"github.com/dragonikpl/spine-runtimes/engine/scene"
	"github.com/dragonikpl/spine-runtimes/engine/skeleton"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type quadPoser struct{}

func (quadPoser) Pose(_ []animation.TrackEntry) skeleton.Snapshot {
	return skeleton.NewSnapshot(skeleton.WithSlots(skeleton.Slot{
		Name: "quad",
		Attachment: skeleton.NewRegion(&skeleton.RegionAttachment{
			Name:          "quad",
			WorldVertices: [8]float32{0, 0, 1, 0, 1, 1, 0, 1},
			UVs:           [8]float32{0, 0, 1, 0, 1, 1, 0, 1},
			Color:         skeleton.White,
		}),
	}))
}

// countingRenderer counts frame lifecycle calls and records the call order.
type countingRenderer struct {
	mu       sync.Mutex
	calls    []string
	beginErr error
	resized  [2]int
}

func (r *countingRenderer) record(call string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
}

func (r *countingRenderer) UploadGeometry(_ bind_group_provider.BindGroupProvider, _, _ []byte, _ int) error {
	r.record("upload")
	return nil
}

func (r *countingRenderer) DrawCall(_ string, _ bind_group_provider.BindGroupProvider) error {
	r.record("draw")
	return nil
}

func (r *countingRenderer) BeginFrame() error {
	r.record("begin")
	return r.beginErr
}

func (r *countingRenderer) EndFrame()                { r.record("end") }
func (r *countingRenderer) Present()                 { r.record("present") }
func (r *countingRenderer) Resize(width, height int) { r.resized = [2]int{width, height} }

func newTestScene(t *testing.T, r scene.Renderer, layers int) scene.Scene {
	t.Helper()
	s := scene.NewScene("test", r, scene.WithWorkers(2), scene.WithActive(true))
	for i := range layers {
		require.NoError(t, s.Add(layer.NewSkeletonLayer(string(rune('a'+i)), quadPoser{})))
	}
	t.Cleanup(s.Release)
	return s
}

func TestRenderFrameLifecycle(t *testing.T) {
	r := &countingRenderer{}
	e := NewEngine(WithScene(0, newTestScene(t, r, 2))).(*engine)

	g := e.renderFrame(1.0 / 60)
	assert.Equal(t, []string{"upload", "upload", "begin", "draw", "draw", "end", "present"}, r.calls)
	assert.Equal(t, 2, g.Layers)
	assert.Equal(t, 2, g.Drawn)
	assert.Equal(t, 8, g.Vertices)
	assert.Equal(t, 4, g.Triangles)
}

func TestRenderFrameSkipsInactiveScenes(t *testing.T) {
	r := &countingRenderer{}
	s := newTestScene(t, r, 1)
	s.SetActive(false)
	e := NewEngine(WithScene(0, s)).(*engine)

	g := e.renderFrame(1.0 / 60)
	assert.Empty(t, r.calls)
	assert.Zero(t, g.Layers)
}

func TestRenderFrameSharesOnePass(t *testing.T) {
	r := &countingRenderer{}
	e := NewEngine(
		WithScene(1, newTestScene(t, r, 1)),
		WithScene(0, newTestScene(t, r, 1)),
	).(*engine)

	e.renderFrame(1.0 / 60)
	assert.Equal(t, []string{"upload", "upload", "begin", "draw", "draw", "end", "present"}, r.calls)
}

func TestRenderFrameWithoutSwapchain(t *testing.T) {
	r := &countingRenderer{beginErr: assert.AnError}
	e := NewEngine(WithScene(0, newTestScene(t, r, 1))).(*engine)

	g := e.renderFrame(1.0 / 60)
	assert.Equal(t, []string{"upload", "begin"}, r.calls)
	assert.Equal(t, 1, g.Drawn)
}

func TestResizeUpdatesRendererAndViewport(t *testing.T) {
	r := &countingRenderer{}
	s := newTestScene(t, r, 1)
	e := NewEngine(WithScene(0, s)).(*engine)

	e.resize(800, 600)
	assert.Equal(t, [2]int{800, 600}, r.resized)
	for _, l := range s.Layers() {
		w, h := l.Assembler().Viewport()
		assert.Equal(t, float32(400), w)
		assert.Equal(t, float32(300), h)
	}
}

func TestSceneRegistry(t *testing.T) {
	r := &countingRenderer{}
	e := NewEngine()
	s := newTestScene(t, r, 0)

	e.AddScene(3, s)
	assert.Equal(t, s, e.Scene(3))
	assert.Len(t, e.Scenes(), 1)

	e.RemoveScene(3)
	assert.Nil(t, e.Scene(3))
	assert.Empty(t, e.Scenes())
}

func TestEngineSettings(t *testing.T) {
	e := NewEngine(WithTickRate(30), WithRenderFrameLimit(120), WithProfiling(true)).(*engine)
	assert.Equal(t, time.Second/30, e.engineTickRate)
	assert.Equal(t, time.Second/120, e.renderFrameLimit)

	assert.False(t, e.ToggleProfiler())
	assert.True(t, e.ToggleProfiler())

	e.SetRenderFrameLimit(0)
	assert.Zero(t, e.renderFrameLimit)

	e.SetTickRate(-1)
	assert.Equal(t, time.Second/60, e.engineTickRate)
}

func TestWithProfiler(t *testing.T) {
	p := profiler.NewProfiler(profiler.WithUpdateInterval(time.Minute))
	e := NewEngine(WithProfiler(p), WithProfiler(nil)).(*engine)
	assert.Same(t, p, e.profiler)
}
