package engine

import (
	"log"
	"sort"
	"sync"
	"time"

	"github.com/dragonikpl/spine-runtimes/engine/profiler"
	"github.com/dragonikpl/spine-runtimes/engine/scene"
	"github.com/dragonikpl/spine-runtimes/engine/window"
)

// engine is the implementation of the Engine interface.
type engine struct {
	// tickRateChannel hands a new tick period to the running tick goroutine.
	tickRateChannel chan time.Duration

	running bool
	wg      sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once

	window window.Window

	profiler         *profiler.Profiler
	profilingEnabled bool

	engineTickRate time.Duration
	tickCallback   func(deltaTime float32)
	renderCallback func(deltaTime float32)

	scenesMu sync.RWMutex
	scenes   map[int]scene.Scene

	// renderFrameLimit is the minimum frame duration, 0 when uncapped.
	renderFrameLimit time.Duration
}

// Engine runs skeleton scenes in a window. A tick goroutine fires the tick callback at a fixed
// rate, a render goroutine prepares, uploads and draws every active scene once per frame, and the
// calling goroutine runs the window message loop.
type Engine interface {
	// Window returns the engine's window, nil for a headless engine.
	Window() window.Window

	// EnableProfiler starts logging frame and geometry statistics.
	EnableProfiler()

	// DisableProfiler stops the statistics log.
	DisableProfiler()

	// ToggleProfiler flips profiling output on or off.
	//
	// Returns:
	//   - bool: true if profiling is now enabled
	ToggleProfiler() bool

	// SetTickRate changes the tick rate, taking effect immediately while running.
	//
	// Parameters:
	//   - fps: ticks per second (60 when <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers the function called every tick with the measured delta in seconds.
	// It runs on the tick goroutine, concurrently with rendering.
	//
	// Parameters:
	//   - callback: the tick function
	SetTickCallback(callback func(deltaTime float32))

	// SetRenderCallback registers the function called on the render goroutine after each frame is presented.
	// Skeleton state (skins, positions, tracks) is safe to mutate from this callback since no layer is
	// being prepared while it runs.
	//
	// Parameters:
	//   - callback: function to call each render frame, receiving the delta time in seconds
	SetRenderCallback(callback func(deltaTime float32))

	// SetRenderFrameLimit caps the render loop in frames per second, 0 for uncapped.
	//
	// Parameters:
	//   - fps: the frame cap
	SetRenderFrameLimit(fps float64)

	// AddScene registers a scene under a key, replacing any scene already there.
	// Active scenes render in ascending key order inside one render pass.
	//
	// Parameters:
	//   - key: the ordering key
	//   - s: the scene
	AddScene(key int, s scene.Scene)

	// RemoveScene unregisters the scene under a key without releasing it.
	//
	// Parameters:
	//   - key: the ordering key
	RemoveScene(key int)

	// Scene returns the scene under a key, or nil.
	//
	// Parameters:
	//   - key: the ordering key
	//
	// Returns:
	//   - scene.Scene: the scene
	Scene(key int) scene.Scene

	// Scenes returns a copy of the scene registry.
	//
	// Returns:
	//   - map[int]scene.Scene: scenes by key
	Scenes() map[int]scene.Scene

	// Run starts the tick and render goroutines and runs the window message loop on the calling
	// goroutine. When the window closes it stops the goroutines, releases every scene and destroys
	// the window.
	Run()

	// Quit stops the engine. Safe to call more than once and from any goroutine.
	Quit()
}

// NewEngine creates a new Engine instance with the provided options.
// When a window is supplied its resize callback reconfigures every scene's renderer and sets
// the scene viewport to half the framebuffer, so world units map one to one onto pixels
// around the window center.
//
// Parameters:
//   - options: functional options for engine configuration (profiling, tick rate, etc.)
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		tickRateChannel:  make(chan time.Duration, 1),
		quitChannel:      make(chan struct{}),
		scenes:           make(map[int]scene.Scene),
		running:          false,
		wg:               sync.WaitGroup{},
		profiler:         profiler.NewProfiler(),
		profilingEnabled: false,
		engineTickRate:   time.Second / 60,
	}

	for _, opt := range options {
		opt(e)
	}

	if e.window != nil {
		e.window.SetResizeCallback(e.resize)
	}

	return e
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Run() {
	e.running = true
	e.handle()
	e.window.ProcessMessages()
	e.signalQuit()
	e.wg.Wait()

	e.scenesMu.RLock()
	for _, s := range e.scenes {
		s.Release()
	}
	e.scenesMu.RUnlock()

	if err := e.window.Close(); err != nil {
		log.Printf("[Engine] close window: %v", err)
	}
}

func (e *engine) Quit() {
	e.signalQuit()
	if e.window != nil {
		e.window.RequestClose()
	}
}

// signalQuit stops the tick and render goroutines.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		e.running = false
		close(e.quitChannel)
	})
}

// handle starts the tick, render and quit goroutines.
func (e *engine) handle() {
	e.wg.Add(3)
	go e.handleEngine()
	go e.handleRender()
	go e.handleQuit()
}

// handleEngine fires the tick callback until quit, picking up rate changes from tickRateChannel.
func (e *engine) handleEngine() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.engineTickRate)
	defer ticker.Stop()

	lastTick := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			now := time.Now()
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now

			if e.tickCallback != nil {
				e.tickCallback(dt)
			}
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
			e.engineTickRate = newRate
		}
	}
}

// handleRender renders frames until quit. A panic inside a frame stops the engine instead of the process.
func (e *engine) handleRender() {
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Engine] render goroutine recovered from panic: %v", r)
			e.Quit()
		}
	}()

	lastRender := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		default:
			now := time.Now()
			dt := float32(now.Sub(lastRender).Seconds())
			lastRender = now

			geometry := e.renderFrame(dt)

			if e.renderCallback != nil {
				e.renderCallback(dt)
			}

			if e.profilingEnabled && e.profiler != nil {
				e.profiler.RecordGeometry(geometry)
				e.profiler.Tick()
			}

			if e.renderFrameLimit > 0 {
				elapsed := time.Since(lastRender)
				if remaining := e.renderFrameLimit - elapsed; remaining > 0 {
					time.Sleep(remaining)
				}
			}
		}
	}
}

// renderFrame runs one frame over all active scenes in ascending key order.
// Every skeleton is prepared first (posed and assembled on the CPU, in parallel within a scene),
// then uploaded, then drawn inside a single render pass owned by the first active scene's renderer,
// so all scenes sharing that renderer composite in one pass.
// A scene whose preparation fails still draws its healthy layers.
func (e *engine) renderFrame(dt float32) profiler.Geometry {
	var geometry profiler.Geometry

	active := e.activeScenes()
	if len(active) == 0 {
		return geometry
	}
	frameRenderer := active[0].Renderer()
	if frameRenderer == nil {
		return geometry
	}

	for _, s := range active {
		_ = s.Prepare(dt)
		st := s.Stats()
		geometry.Layers += st.Layers
		geometry.Drawn += st.Drawn
		geometry.Skipped += st.Skipped
		geometry.Vertices += st.Vertices
		geometry.Triangles += st.Triangles
	}

	for _, s := range active {
		if err := s.Upload(); err != nil {
			log.Printf("[Engine] %v", err)
		}
	}

	if err := frameRenderer.BeginFrame(); err != nil {
		return geometry
	}
	for _, s := range active {
		if err := s.DrawCalls(); err != nil {
			log.Printf("[Engine] %v", err)
		}
	}
	frameRenderer.EndFrame()
	frameRenderer.Present()
	return geometry
}

// activeScenes returns the active scenes in ascending key order.
func (e *engine) activeScenes() []scene.Scene {
	e.scenesMu.RLock()
	defer e.scenesMu.RUnlock()

	keys := make([]int, 0, len(e.scenes))
	for k := range e.scenes {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	var active []scene.Scene
	for _, k := range keys {
		if s := e.scenes[k]; s.Active() {
			active = append(active, s)
		}
	}
	return active
}

// resize reconfigures every scene's renderer for the new framebuffer size and maps the scene
// viewport to half of it.
func (e *engine) resize(width, height int) {
	e.scenesMu.RLock()
	defer e.scenesMu.RUnlock()
	for _, s := range e.scenes {
		if r := s.Renderer(); r != nil {
			r.Resize(width, height)
		}
		s.SetViewport(float32(width)/2, float32(height)/2)
	}
}

// handleQuit keeps the WaitGroup open until quit.
func (e *engine) handleQuit() {
	defer e.wg.Done()
	<-e.quitChannel
}

func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

func (e *engine) ToggleProfiler() bool {
	e.profilingEnabled = !e.profilingEnabled
	return e.profilingEnabled
}

// SetTickRate applies immediately while running by handing the new period to the tick goroutine.
func (e *engine) SetTickRate(fps float64) {
	interval := tickInterval(fps)
	if !e.running {
		e.engineTickRate = interval
		return
	}
	// keep only the latest pending period
	for {
		select {
		case e.tickRateChannel <- interval:
			return
		default:
			select {
			case <-e.tickRateChannel:
			default:
			}
		}
	}
}

func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickCallback = callback
}

func (e *engine) SetRenderCallback(callback func(deltaTime float32)) {
	e.renderCallback = callback
}

func (e *engine) SetRenderFrameLimit(fps float64) {
	e.renderFrameLimit = frameInterval(fps)
}

func (e *engine) AddScene(key int, s scene.Scene) {
	e.scenesMu.Lock()
	defer e.scenesMu.Unlock()
	e.scenes[key] = s
}

func (e *engine) RemoveScene(key int) {
	e.scenesMu.Lock()
	defer e.scenesMu.Unlock()
	delete(e.scenes, key)
}

func (e *engine) Scene(key int) scene.Scene {
	e.scenesMu.RLock()
	defer e.scenesMu.RUnlock()
	return e.scenes[key]
}

func (e *engine) Scenes() map[int]scene.Scene {
	e.scenesMu.RLock()
	defer e.scenesMu.RUnlock()
	cp := make(map[int]scene.Scene, len(e.scenes))
	for k, v := range e.scenes {
		cp[k] = v
	}
	return cp
}
