package window

// WindowBuilderOption configures NewWindow before the platform window opens.
type WindowBuilderOption func(w *engineWindow)

// WithTitle sets the initial title bar text. The viewer replaces it with playback state.
func WithTitle(title string) WindowBuilderOption {
	return func(w *engineWindow) {
		w.title = title
	}
}

// WithSize sets the initial window size. The size is clamped to the configured limits.
//
// Parameters:
//   - width: framebuffer width before clamping
//   - height: framebuffer height before clamping
//
// Returns:
//   - WindowBuilderOption: the option
func WithSize(width, height int) WindowBuilderOption {
	return func(w *engineWindow) {
		w.width = width
		w.height = height
	}
}

// WithMinSize sets the smallest size the user can resize the window to.
// Zero disables the limit for that axis.
//
// Parameters:
//   - width: minimum width in pixels
//   - height: minimum height in pixels
//
// Returns:
//   - WindowBuilderOption: the option
func WithMinSize(width, height int) WindowBuilderOption {
	return func(w *engineWindow) {
		w.minWidth = width
		w.minHeight = height
	}
}

// WithMaxSize sets the largest size the user can resize the window to.
// Zero disables the limit for that axis.
//
// Parameters:
//   - width: maximum width in pixels
//   - height: maximum height in pixels
//
// Returns:
//   - WindowBuilderOption: the option
func WithMaxSize(width, height int) WindowBuilderOption {
	return func(w *engineWindow) {
		w.maxWidth = width
		w.maxHeight = height
	}
}

// WithTransparentFramebuffer requests a framebuffer whose alpha channel is composited with the desktop,
// so a transparent clear color shows what is behind the window.
//
// Parameters:
//   - transparent: whether to request a transparent framebuffer
//
// Returns:
//   - WindowBuilderOption: the option
func WithTransparentFramebuffer(transparent bool) WindowBuilderOption {
	return func(w *engineWindow) {
		w.transparent = transparent
	}
}
