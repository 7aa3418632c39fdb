package assembler

// AssemblerBuilderOption is a function that configures an assembler.
type AssemblerBuilderOption func(*assembler)

// WithViewport sets the dimensions world coordinates are divided by.
//
// Parameters:
//   - width: the viewport width in world units
//   - height: the viewport height in world units
//
// Returns:
//   - AssemblerBuilderOption: a function that applies the viewport to an assembler
func WithViewport(width, height float32) AssemblerBuilderOption {
	return func(a *assembler) {
		a.viewportWidth = width
		a.viewportHeight = height
	}
}

// WithTintMode sets where vertex colors are taken from.
//
// Parameters:
//   - mode: the tint mode
//
// Returns:
//   - AssemblerBuilderOption: a function that applies the tint mode to an assembler
func WithTintMode(mode TintMode) AssemblerBuilderOption {
	return func(a *assembler) {
		a.tintMode = mode
	}
}

// WithBufferReuse makes the assembler recycle the previous frame's backing arrays.
// A Frame returned by Assemble is then only valid until the next call.
//
// Parameters:
//   - reuse: whether to recycle buffers between frames
//
// Returns:
//   - AssemblerBuilderOption: a function that applies the reuse setting to an assembler
func WithBufferReuse(reuse bool) AssemblerBuilderOption {
	return func(a *assembler) {
		a.reuseBuffers = reuse
	}
}
