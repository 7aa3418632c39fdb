// Command spinesnap renders frames of a skeleton animation to WebP files without a GPU.
//
// Usage:
//
//	spinesnap [-data rig.yaml -atlas page.png] -anim walk -frames 12 -fps 12 -out snapshots
package main

import (
	"flag"
	"image/color"
	"log"

	"github.com/dragonikpl/spine-runtimes/common"
	"github.com/dragonikpl/spine-runtimes/engine/assembler"
	"github.com/dragonikpl/spine-runtimes/engine/rig"
)

func main() {
	var (
		dataPath    = flag.String("data", "", "YAML rig description (default: built-in demo rig)")
		atlasPath   = flag.String("atlas", "", "atlas page image (default: built-in demo page)")
		anim        = flag.String("anim", "idle", "animation to play")
		skin        = flag.String("skin", "", "skin to apply")
		frames      = flag.Int("frames", 8, "number of frames")
		fps         = flag.Float64("fps", 8, "frames per second of animation time")
		width       = flag.Int("width", 256, "output width in pixels")
		height      = flag.Int("height", 256, "output height in pixels")
		supersample = flag.Int("ss", 2, "supersampling factor")
		white       = flag.Bool("white", false, "ignore attachment tints")
		opaque      = flag.Bool("opaque", false, "draw on a black background instead of a transparent one")
		outDir      = flag.String("out", "snapshots", "output directory")
		vertices    = flag.Bool("vertices", false, "also write each frame's vertex buffer as <name>_NNN.vtx")
	)
	flag.Parse()

	data, err := loadData(*dataPath)
	if err != nil {
		log.Fatalf("[Snap] %v", err)
	}
	page, err := loadPage(*atlasPath)
	if err != nil {
		log.Fatalf("[Snap] %v", err)
	}
	atlas, err := atlasImage(page)
	if err != nil {
		log.Fatalf("[Snap] atlas: %v", err)
	}

	opts := snapshotOptions{
		Animation:    *anim,
		Skin:         *skin,
		Frames:       *frames,
		FPS:          float32(*fps),
		Width:        *width,
		Height:       *height,
		Supersample:  *supersample,
		DumpVertices: *vertices,
	}
	if *white {
		opts.TintMode = assembler.TintWhite
	}
	if *opaque {
		opts.Background = color.NRGBA{A: 255}
	}

	s, err := newSnapshotter(data, atlas, opts)
	if err != nil {
		log.Fatalf("[Snap] %v", err)
	}
	images, err := s.render()
	if err != nil {
		log.Fatalf("[Snap] %v", err)
	}
	prefix := data.Name + "_" + *anim
	paths, err := writeWebP(*outDir, prefix, images)
	if err != nil {
		log.Fatalf("[Snap] %v", err)
	}
	if *vertices {
		if _, err := writeDumps(*outDir, prefix, s.dumps); err != nil {
			log.Fatalf("[Snap] vertices: %v", err)
		}
	}
	log.Printf("[Snap] wrote %d frame(s) to %s", len(paths), *outDir)
}

func loadData(path string) (*rig.SkeletonData, error) {
	if path == "" {
		return rig.DemoData()
	}
	return rig.LoadData(path)
}

func loadPage(path string) (common.AtlasPage, error) {
	if path == "" {
		return rig.DemoAtlasPage()
	}
	return common.AtlasPage{Name: path, Path: path}, nil
}
