package scene

import (
	"errors"
	"fmt"
	"log"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/dragonikpl/spine-runtimes/engine/layer"
)

// Renderer is the part of renderer.Renderer a scene drives. The engine owns the frame lifecycle,
// the scene only uploads and draws its layers within it.
type Renderer interface {
	layer.Target

	BeginFrame() error
	EndFrame()
	Present()
	Resize(width, height int)
}

// Stats aggregates the geometry of every layer for the last prepared frame.
type Stats struct {
	Layers    int
	Drawn     int
	Skipped   int
	Vertices  int
	Triangles int
}

// Scene manages a z-ordered collection of SkeletonLayers sharing one Renderer.
// Preparation fans out across a worker pool, one task per layer; upload and draw are sequential
// in ascending z order, ties broken by insertion order.
// Scenes can be hot-swapped via the Active flag. Thread-safe for concurrent access.
type Scene interface {
	// Name is used in logs and as the engine's debug label for the scene.
	Name() string
	SetName(name string)

	// Active scenes are prepared and drawn each frame; inactive ones keep their layers untouched.
	Active() bool
	SetActive(active bool)

	// Renderer is the target the scene's layers upload to and draw with.
	Renderer() Renderer

	// SetRenderer swaps the draw target. Atlas bind groups belong to the device they were created
	// on, so layers need InitAtlas against the new renderer before they draw with it.
	SetRenderer(r Renderer)

	// Add appends a layer. The layer receives the scene's current viewport.
	//
	// Parameters:
	//   - l: the layer to add
	//
	// Returns:
	//   - error: an error if a layer with the same name is already present
	Add(l layer.SkeletonLayer) error

	// Get retrieves a layer by name, or nil if not found.
	Get(name string) layer.SkeletonLayer

	// Remove removes a layer by name and releases its GPU resources. No-op for unknown names.
	Remove(name string)

	// Clear removes and releases every layer.
	Clear()

	// Count returns the number of layers.
	Count() int

	// Layers returns the layers in draw order.
	Layers() []layer.SkeletonLayer

	// SetViewport sets the world size every layer maps to clip space.
	//
	// Parameters:
	//   - width: the viewport width in world units
	//   - height: the viewport height in world units
	SetViewport(width, height float32)

	// Prepare advances and assembles every visible layer on the worker pool, blocking until all are done.
	// A failing layer does not stop the others.
	//
	// Parameters:
	//   - deltaTime: the measured time since the previous frame in seconds
	//
	// Returns:
	//   - error: the joined layer errors, or nil
	Prepare(deltaTime float32) error

	// Upload writes the geometry of every visible layer into its GPU buffers, in draw order.
	// Must be called before the renderer's BeginFrame.
	//
	// Returns:
	//   - error: the first upload error
	Upload() error

	// DrawCalls issues the draw of every visible layer, in draw order, inside the current frame.
	//
	// Returns:
	//   - error: the first draw error
	DrawCalls() error

	// Stats returns the aggregated geometry statistics of the last Prepare.
	Stats() Stats

	// Release stops the worker pool and releases every layer.
	Release()
}

type scene struct {
	mu *sync.RWMutex

	name   string
	active bool
	r      Renderer

	layers []layer.SkeletonLayer

	viewportWidth, viewportHeight float32

	stats Stats

	// pool runs one prepare task per layer; workers persist across frames.
	pool    worker.DynamicWorkerPool
	workers int
}

var _ Scene = &scene{}

// NewScene creates an inactive Scene drawing through r, with one worker per spare CPU unless
// WithWorkers says otherwise. It panics on a nil renderer.
//
// Parameters:
//   - name: the scene name
//   - r: the draw target
//   - options: functional options to configure the scene
//
// Returns:
//   - Scene: the scene
func NewScene(name string, r Renderer, options ...SceneBuilderOption) Scene {
	if r == nil {
		panic("scene: nil renderer")
	}

	s := &scene{
		mu:             &sync.RWMutex{},
		name:           name,
		r:              r,
		workers:        max(runtime.NumCPU()-1, 1),
		viewportWidth:  1,
		viewportHeight: 1,
	}

	for _, opt := range options {
		opt(s)
	}

	// after options, so WithWorkers applies
	s.pool = worker.NewDynamicWorkerPool(s.workers, 256, 1*time.Second)

	for _, l := range s.layers {
		l.SetViewport(s.viewportWidth, s.viewportHeight)
	}
	return s
}

func (s *scene) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

func (s *scene) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
}

func (s *scene) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

func (s *scene) SetActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = active
}

func (s *scene) Renderer() Renderer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.r
}

func (s *scene) SetRenderer(r Renderer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.r = r
}

func (s *scene) Add(l layer.SkeletonLayer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.layers {
		if existing.Name() == l.Name() {
			return fmt.Errorf("scene %q already has a layer named %q", s.name, l.Name())
		}
	}
	l.SetViewport(s.viewportWidth, s.viewportHeight)
	s.layers = append(s.layers, l)
	return nil
}

func (s *scene) Get(name string) layer.SkeletonLayer {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, l := range s.layers {
		if l.Name() == name {
			return l
		}
	}
	return nil
}

func (s *scene) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, l := range s.layers {
		if l.Name() == name {
			l.Release()
			s.layers = append(s.layers[:i], s.layers[i+1:]...)
			return
		}
	}
}

func (s *scene) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, l := range s.layers {
		l.Release()
	}
	s.layers = nil
}

func (s *scene) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.layers)
}

func (s *scene) Layers() []layer.SkeletonLayer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ordered()
}

func (s *scene) SetViewport(width, height float32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.viewportWidth, s.viewportHeight = width, height
	for _, l := range s.layers {
		l.SetViewport(width, height)
	}
}

func (s *scene) Prepare(deltaTime float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// A WaitGroup provides the per-frame barrier; pool.Wait() blocks until
	// workers idle-exit which is unsuitable for frame-rate workloads.
	var (
		wg     sync.WaitGroup
		errsMu sync.Mutex
		errs   []error
	)
	for id, l := range s.layers {
		if !l.Visible() {
			continue
		}
		wg.Add(1)
		task := l
		s.pool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (any, error) {
				defer wg.Done()
				if err := task.Prepare(deltaTime); err != nil {
					errsMu.Lock()
					errs = append(errs, fmt.Errorf("layer %s: %w", task.Name(), err))
					errsMu.Unlock()
					return nil, err
				}
				return nil, nil
			},
		})
	}
	wg.Wait()

	stats := Stats{Layers: len(s.layers)}
	for _, l := range s.layers {
		if !l.Visible() {
			continue
		}
		ls := l.Stats()
		if ls.Skipped {
			stats.Skipped++
			continue
		}
		if ls.Triangles > 0 {
			stats.Drawn++
		}
		stats.Vertices += ls.Vertices
		stats.Triangles += ls.Triangles
	}
	s.stats = stats

	if len(errs) > 0 {
		err := errors.Join(errs...)
		log.Printf("[Scene %s] %d layer(s) skipped this frame", s.name, len(errs))
		return err
	}
	return nil
}

func (s *scene) Upload() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, l := range s.ordered() {
		if !l.Visible() {
			continue
		}
		if err := l.Upload(s.r); err != nil {
			return fmt.Errorf("upload failed for layer %s in scene %q: %w", l.Name(), s.name, err)
		}
	}
	return nil
}

func (s *scene) DrawCalls() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, l := range s.ordered() {
		if !l.Visible() {
			continue
		}
		if err := l.Draw(s.r); err != nil {
			return fmt.Errorf("draw call failed for layer %s in scene %q: %w", l.Name(), s.name, err)
		}
	}
	return nil
}

func (s *scene) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

func (s *scene) Release() {
	s.Clear()
	s.pool.Stop()
}

// ordered returns the layers sorted by z, keeping insertion order for equal z. Callers hold s.mu.
func (s *scene) ordered() []layer.SkeletonLayer {
	out := make([]layer.SkeletonLayer, len(s.layers))
	copy(out, s.layers)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Z() < out[j].Z()
	})
	return out
}
