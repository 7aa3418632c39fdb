package scene

import "github.com/dragonikpl/spine-runtimes/engine/layer"

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithActive sets whether the scene is active for rendering.
//
// Parameters:
//   - active: whether the scene is active
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithActive(active bool) SceneBuilderOption {
	return func(s *scene) {
		s.active = active
	}
}

// WithLayers adds initial layers to the scene. Layers with a name already present are ignored.
//
// Parameters:
//   - layers: the layers to add
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithLayers(layers ...layer.SkeletonLayer) SceneBuilderOption {
	return func(s *scene) {
	outer:
		for _, l := range layers {
			for _, existing := range s.layers {
				if existing.Name() == l.Name() {
					continue outer
				}
			}
			s.layers = append(s.layers, l)
		}
	}
}

// WithWorkers sets the number of worker goroutines used during the parallel prepare phase.
// Defaults to runtime.NumCPU()-1.
//
// Parameters:
//   - n: the number of workers (minimum 1)
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithWorkers(n int) SceneBuilderOption {
	return func(s *scene) {
		if n < 1 {
			n = 1
		}
		s.workers = n
	}
}

// WithViewport sets the initial world size every layer maps to clip space.
//
// Parameters:
//   - width: the viewport width in world units
//   - height: the viewport height in world units
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithViewport(width, height float32) SceneBuilderOption {
	return func(s *scene) {
		s.viewportWidth = width
		s.viewportHeight = height
	}
}
