package main

import (
	"image"
	"os"
	"testing"

	"github.com/dragonikpl/spine-runtimes/engine/assembler"
	"github.com/dragonikpl/spine-runtimes/engine/rig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func demoSnapshotter(t *testing.T, opts snapshotOptions) *snapshotter {
	t.Helper()
	data, err := rig.DemoData()
	require.NoError(t, err)
	page, err := rig.DemoAtlasPage()
	require.NoError(t, err)
	atlas, err := atlasImage(page)
	require.NoError(t, err)
	s, err := newSnapshotter(data, atlas, opts)
	require.NoError(t, err)
	return s
}

func defaultOptions() snapshotOptions {
	return snapshotOptions{Animation: "walk", Frames: 3, FPS: 8, Width: 64, Height: 48, Supersample: 1}
}

func TestAtlasImageIsFlipped(t *testing.T) {
	page, err := rig.DemoAtlasPage()
	require.NoError(t, err)
	atlas, err := atlasImage(page)
	require.NoError(t, err)

	src := rig.DemoAtlasImage()
	h := src.Rect.Dy()
	require.Equal(t, src.Rect, atlas.Rect)
	for _, p := range []image.Point{{3, 0}, {70, 10}, {10, 90}} {
		assert.Equal(t, src.NRGBAAt(p.X, p.Y), atlas.NRGBAAt(p.X, h-1-p.Y), "pixel %v", p)
	}
}

func TestRenderProducesFrames(t *testing.T) {
	s := demoSnapshotter(t, defaultOptions())
	images, err := s.render()
	require.NoError(t, err)
	require.Len(t, images, 3)

	for _, img := range images {
		assert.Equal(t, image.Rect(0, 0, 64, 48), img.Bounds())
	}

	// the fitted skeleton is drawn and leaves the corners clear
	var covered int
	for i := 3; i < len(images[0].Pix); i += 4 {
		if images[0].Pix[i] > 0 {
			covered++
		}
	}
	assert.Positive(t, covered)
	assert.Zero(t, images[0].NRGBAAt(0, 0).A)

	entry, ok := s.state.Track(0)
	require.True(t, ok)
	assert.InDelta(t, 2.0/8, entry.TrackTime, 1e-5)
}

func TestNewSnapshotterValidates(t *testing.T) {
	data, err := rig.DemoData()
	require.NoError(t, err)

	opts := defaultOptions()
	opts.Animation = "dance"
	_, err = newSnapshotter(data, nil, opts)
	assert.Error(t, err)

	opts = defaultOptions()
	opts.Frames = 0
	_, err = newSnapshotter(data, nil, opts)
	assert.Error(t, err)

	opts = defaultOptions()
	opts.Skin = "missing"
	_, err = newSnapshotter(data, nil, opts)
	assert.Error(t, err)
}

func TestWriteWebP(t *testing.T) {
	s := demoSnapshotter(t, defaultOptions())
	images, err := s.render()
	require.NoError(t, err)

	dir := t.TempDir()
	paths, err := writeWebP(dir, "demo_walk", images)
	require.NoError(t, err)
	require.Len(t, paths, 3)
	for _, p := range paths {
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}
	assert.FileExists(t, dir+"/demo_walk_002.webp")
}

func TestVertexDumps(t *testing.T) {
	opts := defaultOptions()
	opts.DumpVertices = true
	s := demoSnapshotter(t, opts)
	_, err := s.render()
	require.NoError(t, err)
	require.Len(t, s.dumps, 3)

	f, err := s.assembler.Assemble(s.rig.Pose(s.state.Tracks()))
	require.NoError(t, err)
	require.NotEmpty(t, f.Vertices)
	last := s.dumps[2]
	assert.Len(t, last, len(f.Vertices)*assembler.GPUSpineVertexStride)
	assert.Equal(t, f.Vertices[0].Marshal(), last[:assembler.GPUSpineVertexStride])

	dir := t.TempDir()
	paths, err := writeDumps(dir, "demo_walk", s.dumps)
	require.NoError(t, err)
	require.Len(t, paths, 3)
	raw, err := os.ReadFile(dir + "/demo_walk_002.vtx")
	require.NoError(t, err)
	assert.Equal(t, last, raw)
}

func TestVertexDumpsOffByDefault(t *testing.T) {
	s := demoSnapshotter(t, defaultOptions())
	_, err := s.render()
	require.NoError(t, err)
	assert.Empty(t, s.dumps)
}
