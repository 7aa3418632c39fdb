package common

// Virtual key codes for cross-platform input handling.
// These values match GLFW key codes which use ASCII values for printable keys.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
const (
	KeyN     = 78  // N key (ASCII): next animation
	KeyP     = 80  // P key (ASCII): profiler toggle
	KeyS     = 83  // S key (ASCII): next skin
	KeyT     = 84  // T key (ASCII): tint mode toggle
	KeySpace = 32  // Spacebar (ASCII): pause
	KeyEsc   = 256 // Escape key (GLFW): quit

	KeyRight = 262 // Right arrow (GLFW): faster
	KeyLeft  = 263 // Left arrow (GLFW): slower
)
