package animation

// StateBuilderOption is a functional option for configuring a State during construction.
type StateBuilderOption func(*state)

// WithTimeScale is an option builder that sets the multiplier applied to every delta.
//
// Parameters:
//   - scale: the time scale (negative values are treated as 0)
//
// Returns:
//   - StateBuilderOption: a function that applies the time scale to a state
func WithTimeScale(scale float32) StateBuilderOption {
	return func(s *state) {
		s.SetTimeScale(scale)
	}
}

// WithAnimation is an option builder that starts an animation on a track during construction.
// Invalid arguments are ignored.
//
// Parameters:
//   - track: the track index
//   - name: the animation name
//   - duration: the animation length in seconds
//   - loop: whether the animation repeats
//
// Returns:
//   - StateBuilderOption: a function that starts the animation on a state
func WithAnimation(track int, name string, duration float32, loop bool) StateBuilderOption {
	return func(s *state) {
		_, _ = s.SetAnimation(track, name, duration, loop)
	}
}
