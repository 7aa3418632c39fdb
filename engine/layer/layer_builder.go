package layer

import (
	"github.com/dragonikpl/spine-runtimes/engine/animation"
	"github.com/dragonikpl/spine-runtimes/engine/assembler"
)

// SkeletonLayerBuilderOption is a functional option for configuring a SkeletonLayer.
type SkeletonLayerBuilderOption func(*skeletonLayer)

// WithZ sets the draw order key of the layer.
//
// Parameters:
//   - z: lower values draw first
//
// Returns:
//   - SkeletonLayerBuilderOption: option function to apply
func WithZ(z int) SkeletonLayerBuilderOption {
	return func(l *skeletonLayer) {
		l.z = z
	}
}

// WithState uses an existing animation state instead of a fresh one.
//
// Parameters:
//   - state: the animation state to advance each tick
//
// Returns:
//   - SkeletonLayerBuilderOption: option function to apply
func WithState(state animation.State) SkeletonLayerBuilderOption {
	return func(l *skeletonLayer) {
		l.state = state
	}
}

// WithAssembler uses the given assembler.
//
// Parameters:
//   - a: the mesh assembler
//
// Returns:
//   - SkeletonLayerBuilderOption: option function to apply
func WithAssembler(a assembler.Assembler) SkeletonLayerBuilderOption {
	return func(l *skeletonLayer) {
		l.assembler = a
	}
}

// WithFixedDelta sets the clock step applied per tick. Zero or less advances by the measured delta instead.
//
// Parameters:
//   - delta: the step in seconds
//
// Returns:
//   - SkeletonLayerBuilderOption: option function to apply
func WithFixedDelta(delta float32) SkeletonLayerBuilderOption {
	return func(l *skeletonLayer) {
		l.fixedDelta = delta
	}
}

// WithMixDuration sets how long a completed one-shot animation takes to fade out.
//
// Parameters:
//   - seconds: the fade length
//
// Returns:
//   - SkeletonLayerBuilderOption: option function to apply
func WithMixDuration(seconds float32) SkeletonLayerBuilderOption {
	return func(l *skeletonLayer) {
		l.mixDuration = max(seconds, 0)
	}
}

// WithPipelineKey draws the layer with a different registered pipeline.
//
// Parameters:
//   - key: the pipeline key
//
// Returns:
//   - SkeletonLayerBuilderOption: option function to apply
func WithPipelineKey(key string) SkeletonLayerBuilderOption {
	return func(l *skeletonLayer) {
		l.pipelineKey = key
	}
}

// WithEventHandler registers a function receiving every track event the layer's clock produces.
// It runs inside Prepare, possibly on a worker goroutine.
//
// Parameters:
//   - handler: the event callback
//
// Returns:
//   - SkeletonLayerBuilderOption: option function to apply
func WithEventHandler(handler func(event animation.TrackEvent)) SkeletonLayerBuilderOption {
	return func(l *skeletonLayer) {
		l.onEvent = handler
	}
}
