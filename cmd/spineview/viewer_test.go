package main

import (
	"testing"

	"github.com/dragonikpl/spine-runtimes/common"
	"github.com/dragonikpl/spine-runtimes/engine/assembler"
	"github.com/dragonikpl/spine-runtimes/engine/layer"
	"github.com/dragonikpl/spine-runtimes/engine/rig"
	"github.com/dragonikpl/spine-runtimes/engine/skeleton"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestViewer(t *testing.T, animation string) *viewer {
	t.Helper()
	data, err := rig.DemoData()
	require.NoError(t, err)
	r, err := rig.NewRig(data, rig.WithSkin("default"))
	require.NoError(t, err)
	v, err := newViewer(r, layer.NewSkeletonLayer("demo", r), animation, true, 1)
	require.NoError(t, err)
	return v
}

func currentAnimation(t *testing.T, v *viewer) string {
	t.Helper()
	entry, ok := v.layer.State().Track(0)
	require.True(t, ok)
	return entry.Animation
}

func TestNewViewerPlaysConfiguredAnimation(t *testing.T) {
	v := newTestViewer(t, "walk")
	assert.Equal(t, "walk", currentAnimation(t, v))
	assert.Equal(t, []string{"idle", "raise", "walk"}, v.animations)
	assert.Equal(t, []string{"default", "night"}, v.skins)
}

func TestNewViewerRejectsUnknownAnimation(t *testing.T) {
	data, err := rig.DemoData()
	require.NoError(t, err)
	r, err := rig.NewRig(data)
	require.NoError(t, err)
	_, err = newViewer(r, layer.NewSkeletonLayer("demo", r), "dance", true, 1)
	assert.Error(t, err)
}

func TestKeysAreAppliedBetweenFrames(t *testing.T) {
	v := newTestViewer(t, "idle")

	v.onKey(common.KeyN)
	assert.Equal(t, "idle", currentAnimation(t, v), "commands wait for apply")
	v.apply()
	assert.Equal(t, "raise", currentAnimation(t, v))

	v.onKey(common.KeyN)
	v.onKey(common.KeyN)
	v.apply()
	assert.Equal(t, "idle", currentAnimation(t, v), "animations wrap around")

	v.onKey(common.KeyS)
	v.apply()
	assert.Equal(t, "night", v.rig.Skin())

	v.onKey(common.KeyT)
	v.apply()
	assert.Equal(t, assembler.TintWhite, v.layer.Assembler().TintMode())
}

func TestPauseAndSpeed(t *testing.T) {
	v := newTestViewer(t, "idle")
	state := v.layer.State()

	v.onKey(common.KeyRight)
	v.apply()
	assert.Equal(t, float32(2), state.TimeScale())

	v.onKey(common.KeySpace)
	v.apply()
	assert.Zero(t, state.TimeScale())
	assert.Contains(t, v.title("demo"), "paused")

	v.onKey(common.KeyLeft)
	v.apply()
	assert.Zero(t, state.TimeScale(), "speed changes keep the pause")

	v.onKey(common.KeySpace)
	v.apply()
	assert.Equal(t, float32(1), state.TimeScale())

	for range 10 {
		v.onKey(common.KeyRight)
	}
	v.apply()
	assert.Equal(t, float32(maxSpeed), state.TimeScale())
}

func TestZoomAndPan(t *testing.T) {
	v := newTestViewer(t, "idle")

	v.onScroll(1)
	v.apply()
	assert.InDelta(t, 1.1, v.zoom, 1e-5)

	w, h := v.viewport(800, 600)
	assert.InDelta(t, 400/1.1, w, 1e-3)
	assert.InDelta(t, 300/1.1, h, 1e-3)

	x, y := v.rig.Position()
	v.onDrag(11, 22)
	v.apply()
	nx, ny := v.rig.Position()
	assert.InDelta(t, x+10, nx, 1e-3)
	assert.InDelta(t, y-20, ny, 1e-3)
}

func TestFitCentersSetupPose(t *testing.T) {
	v := newTestViewer(t, "idle")
	v.fit(1280, 720)

	bounds := skeleton.Bounds(v.rig.Pose(nil))
	assert.InDelta(t, 0, bounds.X+bounds.Width/2, 1e-2)
	assert.InDelta(t, 0, bounds.Y+bounds.Height/2, 1e-2)
	assert.LessOrEqual(t, bounds.Width*v.zoom, float32(1280))
	assert.LessOrEqual(t, bounds.Height*v.zoom, float32(720))
}
