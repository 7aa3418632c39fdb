package rig

// RigBuilderOption is a functional option for configuring a Rig during construction.
type RigBuilderOption func(*rig)

// WithSkin is an option builder that selects the initial skin.
// NewRig fails with ErrUnknownSkin if the data does not define it.
//
// Parameters:
//   - name: the skin name
//
// Returns:
//   - RigBuilderOption: a function that applies the skin to a rig
func WithSkin(name string) RigBuilderOption {
	return func(r *rig) {
		r.initialSkin = name
	}
}

// WithPosition is an option builder that sets the root offset.
//
// Parameters:
//   - x: the root x in world units
//   - y: the root y in world units
//
// Returns:
//   - RigBuilderOption: a function that applies the position to a rig
func WithPosition(x, y float32) RigBuilderOption {
	return func(r *rig) {
		r.x = x
		r.y = y
	}
}

// WithScale is an option builder that uniformly scales the whole skeleton around its root.
//
// Parameters:
//   - scale: the scale factor (0 keeps the default of 1)
//
// Returns:
//   - RigBuilderOption: a function that applies the scale to a rig
func WithScale(scale float32) RigBuilderOption {
	return func(r *rig) {
		if scale != 0 {
			r.scale = scale
		}
	}
}
