package layer

import (
	"fmt"
	"log"
	"sync"

	"github.com/dragonikpl/spine-runtimes/common"
	"github.com/dragonikpl/spine-runtimes/engine/animation"
	"github.com/dragonikpl/spine-runtimes/engine/assembler"
	"github.com/dragonikpl/spine-runtimes/engine/renderer/bind_group_provider"
	"github.com/dragonikpl/spine-runtimes/engine/renderer/pipeline"
	"github.com/dragonikpl/spine-runtimes/engine/renderer/shader"
	"github.com/dragonikpl/spine-runtimes/engine/skeleton"
)

// DefaultFixedDelta is the clock step applied per tick unless the layer is configured otherwise.
const DefaultFixedDelta float32 = 1.0 / 60.0

// Poser produces the posed skeleton for the current animation tracks.
// It is the narrow view of an external animation engine the layer depends on.
type Poser interface {
	Pose(tracks []animation.TrackEntry) skeleton.Snapshot
}

// Target receives a layer's geometry each frame. renderer.Renderer satisfies it.
type Target interface {
	UploadGeometry(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error
	DrawCall(pipelineKey string, provider bind_group_provider.BindGroupProvider) error
}

// AtlasTarget creates the GPU resources of an atlas page. renderer.Renderer satisfies it.
type AtlasTarget interface {
	InitTextureView(provider bind_group_provider.BindGroupProvider, bindingKey int, stagingData common.TextureStagingData) error
	InitSampler(provider bind_group_provider.BindGroupProvider, bindingKey int, samplerStagingData common.SamplerStagingData) error
	InitBindGroup(provider bind_group_provider.BindGroupProvider, pipelineKey string, group int) error
}

// Stats describes the geometry of the last prepared frame.
type Stats struct {
	Vertices  int
	Triangles int
	Batches   int
	// Skipped is true when the last Prepare failed and the layer will not draw.
	Skipped bool
}

// skeletonLayer is the implementation of the SkeletonLayer interface.
type skeletonLayer struct {
	mu *sync.Mutex

	name        string
	z           int
	visible     bool
	pipelineKey string
	fixedDelta  float32
	mixDuration float32

	poser     Poser
	state     animation.State
	assembler assembler.Assembler
	provider  bind_group_provider.BindGroupProvider

	onEvent func(event animation.TrackEvent)

	// frame is the geometry produced by the last successful Prepare, nil when there is nothing to draw.
	frame *assembler.Frame
	stats Stats
}

// SkeletonLayer drives one character through the per-tick cycle: advance the animation clock,
// pose the skeleton, assemble its mesh, upload the geometry and issue one indexed draw.
//
// Prepare only touches CPU state and may run on a worker goroutine; Upload and Draw must be called
// from the render thread. A layer is never prepared concurrently with itself.
type SkeletonLayer interface {
	// Name returns the layer's identifier, used in logs and GPU labels.
	Name() string

	// Z returns the draw order key; lower values draw first.
	Z() int

	// SetZ changes the draw order key.
	//
	// Parameters:
	//   - z: the new draw order key
	SetZ(z int)

	// Visible reports whether the layer is prepared and drawn.
	Visible() bool

	// SetVisible shows or hides the layer.
	//
	// Parameters:
	//   - visible: whether the layer should be drawn
	SetVisible(visible bool)

	// State returns the animation state the layer advances each tick.
	State() animation.State

	// Assembler returns the mesh assembler of the layer.
	Assembler() assembler.Assembler

	// Provider returns the GPU resource holder of the layer.
	Provider() bind_group_provider.BindGroupProvider

	// PipelineKey returns the key of the render pipeline the layer draws with.
	PipelineKey() string

	// SetViewport sets the world size mapped to clip space by the assembler.
	//
	// Parameters:
	//   - width: the viewport width in world units
	//   - height: the viewport height in world units
	SetViewport(width, height float32)

	// InitAtlas uploads an atlas page and creates the bind group the layer's pipeline samples it through.
	//
	// Parameters:
	//   - target: the renderer creating the GPU resources
	//   - page: the decoded page pixels
	//   - textureBinding: the binding index of the atlas texture
	//   - samplerBinding: the binding index of the atlas sampler
	//
	// Returns:
	//   - error: an error if any resource could not be created
	InitAtlas(target AtlasTarget, page common.TextureStagingData, textureBinding, samplerBinding int) error

	// Prepare advances the clock by the fixed delta (or delta when the fixed delta is 0), reacts to
	// completed tracks, poses the skeleton and assembles the frame. On an assembly error the previous
	// frame is discarded and the layer draws nothing until the next successful Prepare.
	//
	// Parameters:
	//   - delta: the measured time since the previous tick in seconds
	//
	// Returns:
	//   - error: the assembly error, if any
	Prepare(delta float32) error

	// Upload writes the prepared geometry into the layer's GPU buffers.
	// An empty frame clears the draw count so nothing is drawn.
	//
	// Parameters:
	//   - target: the renderer receiving the geometry
	//
	// Returns:
	//   - error: an error if the upload fails
	Upload(target Target) error

	// Draw issues the layer's draw call inside the current frame. Empty frames are skipped.
	//
	// Parameters:
	//   - target: the renderer encoding the draw
	//
	// Returns:
	//   - error: an error if the draw could not be encoded
	Draw(target Target) error

	// Frame returns the geometry of the last successful Prepare, or nil.
	Frame() *assembler.Frame

	// Stats returns the geometry statistics of the last Prepare.
	Stats() Stats

	// Release frees the layer's GPU resources.
	Release()
}

var _ SkeletonLayer = &skeletonLayer{}

// NewSkeletonLayer creates a layer posed by the given Poser.
// Defaults: a fresh animation.State, an assembler with default settings, the skeleton pipeline,
// a fixed delta of DefaultFixedDelta and an instant empty-animation transition on completion.
//
// Parameters:
//   - name: the layer's identifier
//   - poser: the posing engine (must not be nil)
//   - options: functional options to configure the layer
//
// Returns:
//   - SkeletonLayer: the new layer
func NewSkeletonLayer(name string, poser Poser, options ...SkeletonLayerBuilderOption) SkeletonLayer {
	if poser == nil {
		panic("layer: NewSkeletonLayer requires a non-nil Poser")
	}
	l := &skeletonLayer{
		mu:          &sync.Mutex{},
		name:        name,
		visible:     true,
		pipelineKey: pipeline.SpinePipelineKey,
		fixedDelta:  DefaultFixedDelta,
		poser:       poser,
	}
	for _, opt := range options {
		opt(l)
	}
	if l.state == nil {
		l.state = animation.NewState()
	}
	if l.assembler == nil {
		l.assembler = assembler.NewAssembler()
	}
	l.provider = bind_group_provider.NewBindGroupProvider(name)
	return l
}

func (l *skeletonLayer) Name() string {
	return l.name
}

func (l *skeletonLayer) Z() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.z
}

func (l *skeletonLayer) SetZ(z int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.z = z
}

func (l *skeletonLayer) Visible() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.visible
}

func (l *skeletonLayer) SetVisible(visible bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.visible = visible
}

func (l *skeletonLayer) State() animation.State {
	return l.state
}

func (l *skeletonLayer) Assembler() assembler.Assembler {
	return l.assembler
}

func (l *skeletonLayer) Provider() bind_group_provider.BindGroupProvider {
	return l.provider
}

func (l *skeletonLayer) PipelineKey() string {
	return l.pipelineKey
}

func (l *skeletonLayer) SetViewport(width, height float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.assembler.SetViewport(width, height)
}

func (l *skeletonLayer) InitAtlas(target AtlasTarget, page common.TextureStagingData, textureBinding, samplerBinding int) error {
	if err := target.InitTextureView(l.provider, textureBinding, page); err != nil {
		return fmt.Errorf("layer %s: atlas texture: %w", l.name, err)
	}
	if err := target.InitSampler(l.provider, samplerBinding, common.DefaultAtlasSampler); err != nil {
		return fmt.Errorf("layer %s: atlas sampler: %w", l.name, err)
	}
	if err := target.InitBindGroup(l.provider, l.pipelineKey, shader.AtlasGroup); err != nil {
		return fmt.Errorf("layer %s: atlas bind group: %w", l.name, err)
	}
	return nil
}

func (l *skeletonLayer) Prepare(delta float32) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	step := l.fixedDelta
	if step <= 0 {
		step = delta
	}

	for _, event := range l.state.Update(step) {
		if l.onEvent != nil {
			l.onEvent(event)
		}
		// A finished one-shot animation fades to the empty animation so the track ends.
		if event.Type == animation.EventComplete && !event.Loop {
			l.state.SetEmptyAnimation(event.Track, l.mixDuration)
		}
	}

	frame, err := l.assembler.Assemble(l.poser.Pose(l.state.Tracks()))
	if err != nil {
		log.Printf("[Layer %s] frame skipped: %v", l.name, err)
		l.frame = nil
		l.stats = Stats{Skipped: true}
		return err
	}

	l.frame = frame
	l.stats = Stats{
		Vertices:  len(frame.Vertices),
		Triangles: frame.IndexCount() / 3,
		Batches:   len(frame.Batches),
	}
	return nil
}

func (l *skeletonLayer) Upload(target Target) error {
	l.mu.Lock()
	frame := l.frame
	l.mu.Unlock()

	if frame.Empty() {
		return target.UploadGeometry(l.provider, nil, nil, 0)
	}
	return target.UploadGeometry(l.provider, frame.VertexData(), frame.IndexData(), frame.IndexCount())
}

func (l *skeletonLayer) Draw(target Target) error {
	l.mu.Lock()
	frame := l.frame
	l.mu.Unlock()

	if frame.Empty() {
		return nil
	}
	return target.DrawCall(l.pipelineKey, l.provider)
}

func (l *skeletonLayer) Frame() *assembler.Frame {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.frame
}

func (l *skeletonLayer) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stats
}

func (l *skeletonLayer) Release() {
	l.provider.Release()
}
