package main

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/HugoSmits86/nativewebp"
	"github.com/dragonikpl/spine-runtimes/common"
	"github.com/dragonikpl/spine-runtimes/engine/animation"
	"github.com/dragonikpl/spine-runtimes/engine/assembler"
	"github.com/dragonikpl/spine-runtimes/engine/raster"
	"github.com/dragonikpl/spine-runtimes/engine/rig"
	"github.com/dragonikpl/spine-runtimes/engine/skeleton"
)

// fitMargin leaves room around the skeleton's setup pose.
const fitMargin = 1.2

// snapshotOptions selects what to render.
type snapshotOptions struct {
	Animation   string
	Skin        string
	Frames      int
	FPS         float32
	Width       int
	Height      int
	Supersample int
	TintMode    assembler.TintMode
	Background  color.NRGBA

	// DumpVertices keeps each frame's vertex buffer in upload layout.
	DumpVertices bool
}

// snapshotter renders poses of one rig to images.
type snapshotter struct {
	rig       rig.Rig
	state     animation.State
	assembler assembler.Assembler
	raster    raster.Rasterizer
	opts      snapshotOptions
	dumps     [][]byte
}

// newSnapshotter builds a rig playing the chosen animation and fits its setup pose to the image.
// atlas must be in GPU row order, as produced by a flipped AtlasPage.Decode.
func newSnapshotter(data *rig.SkeletonData, atlas *image.NRGBA, opts snapshotOptions) (*snapshotter, error) {
	if opts.Frames < 1 || opts.FPS <= 0 || opts.Width < 1 || opts.Height < 1 {
		return nil, fmt.Errorf("need at least one frame, a positive fps and a positive size")
	}
	r, err := rig.NewRig(data, rig.WithSkin(opts.Skin))
	if err != nil {
		return nil, err
	}
	duration, ok := r.AnimationDuration(opts.Animation)
	if !ok {
		return nil, fmt.Errorf("unknown animation %q", opts.Animation)
	}

	s := &snapshotter{
		rig:   r,
		state: animation.NewState(animation.WithAnimation(0, opts.Animation, duration, true)),
		raster: raster.NewRasterizer(atlas,
			raster.WithSize(opts.Width, opts.Height),
			raster.WithSupersample(opts.Supersample),
			raster.WithClearColor(opts.Background),
		),
		opts: opts,
	}

	vw, vh := s.fit()
	s.assembler = assembler.NewAssembler(
		assembler.WithViewport(vw, vh),
		assembler.WithTintMode(opts.TintMode),
		assembler.WithBufferReuse(false),
	)
	return s, nil
}

// fit centers the setup pose on the origin and returns the viewport half extents that show it
// with the image's aspect ratio.
func (s *snapshotter) fit() (float32, float32) {
	bounds := skeleton.Bounds(s.rig.Pose(nil))
	if bounds.Empty() {
		return float32(s.opts.Width) / 2, float32(s.opts.Height) / 2
	}
	x, y := s.rig.Position()
	s.rig.SetPosition(x-(bounds.X+bounds.Width/2), y-(bounds.Y+bounds.Height/2))

	aspect := float32(s.opts.Width) / float32(s.opts.Height)
	hw, hh := bounds.Width*fitMargin/2, bounds.Height*fitMargin/2
	if hw/hh > aspect {
		hh = hw / aspect
	} else {
		hw = hh * aspect
	}
	return hw, hh
}

// frame poses, assembles and rasterizes the current clock. An assembly error is returned as is.
func (s *snapshotter) frame() (*image.NRGBA, error) {
	f, err := s.assembler.Assemble(s.rig.Pose(s.state.Tracks()))
	if err != nil {
		return nil, err
	}
	if s.opts.DumpVertices {
		s.dumps = append(s.dumps, vertexDump(f))
	}
	return s.raster.Render(f), nil
}

// vertexDump serializes the frame's vertices little-endian, the byte order of a GPU upload.
func vertexDump(f *assembler.Frame) []byte {
	buf := make([]byte, 0, len(f.Vertices)*assembler.GPUSpineVertexStride)
	for i := range f.Vertices {
		buf = append(buf, f.Vertices[i].Marshal()...)
	}
	return buf
}

// render produces every frame, advancing the clock by 1/FPS between them.
func (s *snapshotter) render() ([]*image.NRGBA, error) {
	out := make([]*image.NRGBA, 0, s.opts.Frames)
	for i := range s.opts.Frames {
		if i > 0 {
			s.state.Update(1 / s.opts.FPS)
		}
		img, err := s.frame()
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		out = append(out, img)
	}
	return out, nil
}

// writeWebP encodes the images into dir as <prefix>_NNN.webp on a worker pool.
func writeWebP(dir, prefix string, images []*image.NRGBA) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	pool := worker.NewDynamicWorkerPool(max(runtime.NumCPU()-1, 1), max(len(images), 1), time.Second)
	defer pool.Stop()

	var (
		wg     sync.WaitGroup
		errsMu sync.Mutex
		errs   []error
	)
	paths := make([]string, len(images))
	for i, img := range images {
		paths[i] = filepath.Join(dir, fmt.Sprintf("%s_%03d.webp", prefix, i))
		path := paths[i]
		wg.Add(1)
		pool.SubmitTask(worker.Task{
			ID: i,
			Do: func() (any, error) {
				defer wg.Done()
				if err := encodeFile(path, img); err != nil {
					errsMu.Lock()
					errs = append(errs, err)
					errsMu.Unlock()
					return nil, err
				}
				return path, nil
			},
		})
	}
	wg.Wait()
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return paths, nil
}

// writeDumps writes the recorded vertex buffers into dir as <prefix>_NNN.vtx.
func writeDumps(dir, prefix string, dumps [][]byte) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(dumps))
	for i, dump := range dumps {
		path := filepath.Join(dir, fmt.Sprintf("%s_%03d.vtx", prefix, i))
		if err := os.WriteFile(path, dump, 0644); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func encodeFile(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := nativewebp.Encode(f, img, nil); err != nil {
		f.Close()
		return fmt.Errorf("webp encode %s: %w", path, err)
	}
	return f.Close()
}

// atlasImage decodes a page in GPU row order.
func atlasImage(page common.AtlasPage) (*image.NRGBA, error) {
	page.FlipY = true
	staging, err := page.Decode()
	if err != nil {
		return nil, err
	}
	w, h := int(staging.Width), int(staging.Height)
	return &image.NRGBA{Pix: staging.Pixels, Stride: w * 4, Rect: image.Rect(0, 0, w, h)}, nil
}
