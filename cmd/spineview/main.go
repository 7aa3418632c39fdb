// Command spineview displays an animated skeleton in a window.
//
// Keys: N next animation, S next skin, T toggle tint, Space pause, Left/Right halve or double the
// speed, P toggle profiling, Escape quit. Scroll zooms, dragging with the left button pans.
package main

import (
	"flag"
	"log"
	"os"
	"runtime"

	"github.com/dragonikpl/spine-runtimes/common"
	"github.com/dragonikpl/spine-runtimes/engine"
	"github.com/dragonikpl/spine-runtimes/engine/animation"
	"github.com/dragonikpl/spine-runtimes/engine/assembler"
	"github.com/dragonikpl/spine-runtimes/engine/config"
	"github.com/dragonikpl/spine-runtimes/engine/layer"
	"github.com/dragonikpl/spine-runtimes/engine/renderer"
	"github.com/dragonikpl/spine-runtimes/engine/renderer/pipeline"
	"github.com/dragonikpl/spine-runtimes/engine/renderer/shader"
	"github.com/dragonikpl/spine-runtimes/engine/rig"
	"github.com/dragonikpl/spine-runtimes/engine/scene"
	"github.com/dragonikpl/spine-runtimes/engine/window"
)

func init() {
	// GLFW requires the main OS thread.
	runtime.LockOSThread()
}

func main() {
	configPath := flag.String("config", "", "path of a YAML configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		log.Printf("[Viewer] %v", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	presentMode, err := cfg.PresentMode()
	if err != nil {
		return err
	}
	msaa, err := cfg.MSAA()
	if err != nil {
		return err
	}
	tintMode, err := cfg.TintMode()
	if err != nil {
		return err
	}
	blendOpts, err := cfg.PipelineOptions()
	if err != nil {
		return err
	}

	// ── Skeleton ────────────────────────────────────────────────────────
	data, page, err := loadSkeleton(cfg.Skeleton)
	if err != nil {
		return err
	}
	skel, err := rig.NewRig(data,
		rig.WithSkin(cfg.Skeleton.Skin),
		rig.WithPosition(cfg.Skeleton.X, cfg.Skeleton.Y),
		rig.WithScale(cfg.Skeleton.Scale),
	)
	if err != nil {
		return err
	}

	// ── Window + Renderer ───────────────────────────────────────────────
	win, err := window.NewWindow(
		window.WithTitle(cfg.Window.Title),
		window.WithSize(cfg.Window.Width, cfg.Window.Height),
		window.WithTransparentFramebuffer(cfg.Window.Transparent),
	)
	if err != nil {
		return err
	}

	vs, fs, err := shader.NewSpineShaders()
	if err != nil {
		return err
	}
	textureBinding, samplerBinding, err := shader.AtlasBindings(fs)
	if err != nil {
		return err
	}
	spine, err := pipeline.NewSpinePipeline(vs, fs, blendOpts...)
	if err != nil {
		return err
	}
	r, err := renderer.NewRenderer(renderer.BackendTypeWGPU, win,
		renderer.WithPipeline(spine),
		renderer.WithPresentMode(presentMode),
		renderer.WithMSAA(msaa),
		renderer.WithClearColor(cfg.ClearColor()),
		renderer.WithForceSoftwareRenderer(cfg.Renderer.Software),
	)
	if err != nil {
		return err
	}

	// ── Layer + Scene ───────────────────────────────────────────────────
	l := layer.NewSkeletonLayer(data.Name, skel,
		layer.WithAssembler(assembler.NewAssembler(
			assembler.WithTintMode(tintMode),
			assembler.WithBufferReuse(cfg.Skeleton.ReuseBuffers),
		)),
		layer.WithFixedDelta(cfg.Skeleton.FixedDelta),
		layer.WithMixDuration(cfg.Skeleton.MixDuration),
		layer.WithEventHandler(func(event animation.TrackEvent) {
			log.Printf("[Viewer] track %d %s %s", event.Track, event.Animation, event.Type)
		}),
	)
	staging, err := page.Decode()
	if err != nil {
		return err
	}
	if err := l.InitAtlas(r, staging, textureBinding, samplerBinding); err != nil {
		return err
	}

	v, err := newViewer(skel, l, cfg.Skeleton.Animation, cfg.Skeleton.Loop, cfg.Skeleton.TimeScale)
	if err != nil {
		return err
	}
	if cfg.Skeleton.X == 0 && cfg.Skeleton.Y == 0 {
		v.fit(win.Width(), win.Height())
	}

	sceneOptions := []scene.SceneBuilderOption{scene.WithActive(true), scene.WithLayers(l)}
	if cfg.Engine.Workers > 0 {
		sceneOptions = append(sceneOptions, scene.WithWorkers(cfg.Engine.Workers))
	}
	sc := scene.NewScene(data.Name, r, sceneOptions...)

	// ── Engine ──────────────────────────────────────────────────────────
	eng := engine.NewEngine(
		engine.WithWindow(win),
		engine.WithProfiling(cfg.Engine.Profiling),
		engine.WithTickRate(cfg.Engine.TickRate),
		engine.WithRenderFrameLimit(cfg.Engine.FrameLimit),
		engine.WithScene(0, sc),
	)

	win.SetKeyDownCallback(func(key uint32) {
		if key == common.KeyP {
			log.Printf("[Viewer] profiling %t", eng.ToggleProfiler())
			return
		}
		v.onKey(key)
	})
	win.SetScrollCallback(v.onScroll)
	win.SetDragCallback(v.onDrag)

	title := cfg.Window.Title
	lastTitle := ""
	win.SetUpdateCallback(func() {
		// SetTitle must run on the window thread.
		if t := v.title(title); t != lastTitle {
			win.SetTitle(t)
			lastTitle = t
		}
	})
	eng.SetRenderCallback(func(_ float32) {
		v.apply()
		sc.SetViewport(v.viewport(win.Width(), win.Height()))
	})
	sc.SetViewport(v.viewport(win.Width(), win.Height()))

	eng.Run()
	return nil
}

// loadSkeleton returns the configured rig data and atlas page, falling back to the built-in demo.
func loadSkeleton(cfg config.SkeletonConfig) (*rig.SkeletonData, common.AtlasPage, error) {
	var (
		data *rig.SkeletonData
		page common.AtlasPage
		err  error
	)
	if cfg.Data != "" {
		data, err = rig.LoadData(cfg.Data)
	} else {
		data, err = rig.DemoData()
	}
	if err != nil {
		return nil, page, err
	}

	if cfg.Atlas != "" {
		page = common.AtlasPage{Name: cfg.Atlas, Path: cfg.Atlas}
	} else if page, err = rig.DemoAtlasPage(); err != nil {
		return nil, page, err
	}
	page.FlipY = cfg.FlipAtlas
	return data, page, nil
}
