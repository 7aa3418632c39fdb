package window

import (
	"fmt"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
)

// Window is the viewer's native window: it owns the WebGPU surface, reports framebuffer
// resizes and forwards keyboard, wheel and drag input.
//
// The platform window must be created, polled and destroyed on the main OS thread. Callbacks
// run on that thread from inside ProcessMessages.
type Window interface {
	// SetUpdateCallback sets a function run once per message loop iteration, or nil.
	SetUpdateCallback(callback func())

	// SetResizeCallback sets the framebuffer resize handler. A minimized window reports 0x0.
	//
	// Parameters:
	//   - callback: receives the new framebuffer size in pixels
	SetResizeCallback(callback func(width, height int))

	// SetScrollCallback sets the wheel handler. Positive deltas scroll up.
	SetScrollCallback(callback func(delta float32))

	// SetKeyDownCallback sets the key press handler. Escape is handled by the window itself.
	//
	// Parameters:
	//   - callback: receives a common.KeyCode value
	SetKeyDownCallback(callback func(keyCode uint32))

	// SetDragCallback sets the handler for cursor motion with the left button held.
	//
	// Parameters:
	//   - callback: receives the motion since the previous event in framebuffer pixels
	SetDragCallback(callback func(dx, dy float32))

	// SurfaceDescriptor describes the native surface WebGPU should present to.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the descriptor, or nil once the window is gone
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// SetTitle replaces the title bar text.
	SetTitle(title string)

	// IsRunning reports whether the message loop should keep going.
	IsRunning() bool

	// RequestClose makes the message loop return at its next iteration. Safe from any goroutine.
	RequestClose()

	// Close destroys the platform window. Main thread only.
	//
	// Returns:
	//   - error: an error if the window was never created or is already closed
	Close() error

	// ProcessMessages polls input until the window closes, calling the update callback between polls.
	ProcessMessages()

	// Width is the framebuffer width in pixels.
	Width() int

	// Height is the framebuffer height in pixels.
	Height() int
}

type callbacks struct {
	update  func()
	resize  func(width, height int)
	scroll  func(delta float32)
	keyDown func(keyCode uint32)
	drag    func(dx, dy float32)
}

// engineWindow is the implementation of the Window interface.
type engineWindow struct {
	title       string
	transparent bool

	// limits applied while the user resizes; zero means no limit
	minWidth, minHeight int
	maxWidth, maxHeight int

	// framebuffer size, larger than the window size on high-DPI displays
	width, height int

	platform *glfwWindow
	on       callbacks
}

var _ Window = &engineWindow{}

// NewWindow opens a window sized and titled by the given options.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the open window
//   - error: an error if the platform window could not be created
func NewWindow(options ...WindowBuilderOption) (Window, error) {
	w := &engineWindow{
		title:     "Spine Viewer",
		width:     1280,
		height:    720,
		minWidth:  320,
		minHeight: 240,
		maxWidth:  3840,
		maxHeight: 2160,
	}
	for _, opt := range options {
		opt(w)
	}
	w.width = clamp(w.width, w.minWidth, w.maxWidth)
	w.height = clamp(w.height, w.minHeight, w.maxHeight)

	platform, err := openGLFWWindow(w)
	if err != nil {
		return nil, fmt.Errorf("open window: %w", err)
	}
	w.platform = platform
	return w, nil
}

func (w *engineWindow) SetUpdateCallback(callback func())                  { w.on.update = callback }
func (w *engineWindow) SetResizeCallback(callback func(width, height int)) { w.on.resize = callback }
func (w *engineWindow) SetScrollCallback(callback func(delta float32))     { w.on.scroll = callback }
func (w *engineWindow) SetKeyDownCallback(callback func(keyCode uint32))   { w.on.keyDown = callback }
func (w *engineWindow) SetDragCallback(callback func(dx, dy float32))      { w.on.drag = callback }

func (w *engineWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	return w.platform.surfaceDescriptor()
}

func (w *engineWindow) SetTitle(title string) {
	w.title = title
	w.platform.setTitle(title)
}

func (w *engineWindow) IsRunning() bool {
	return w.platform.isRunning()
}

func (w *engineWindow) RequestClose() {
	w.platform.requestClose()
}

func (w *engineWindow) Close() error {
	if w.platform == nil {
		return fmt.Errorf("window is not open")
	}
	w.platform.destroy()
	w.platform = nil
	return nil
}

func (w *engineWindow) ProcessMessages() {
	for w.IsRunning() {
		if !w.platform.poll() {
			return
		}
		if w.on.update != nil {
			w.on.update()
		}
		runtime.Gosched()
	}
}

func (w *engineWindow) Width() int {
	return w.width
}

func (w *engineWindow) Height() int {
	return w.height
}

// resized records a new framebuffer size and notifies the resize callback.
func (w *engineWindow) resized(width, height int) {
	w.width, w.height = width, height
	if w.on.resize != nil {
		w.on.resize(width, height)
	}
}

// clamp limits v to [lo, hi]; a non-positive bound is treated as unset.
func clamp(v, lo, hi int) int {
	if lo > 0 && v < lo {
		v = lo
	}
	if hi > 0 && v > hi {
		v = hi
	}
	return v
}

// framebufferScale converts window coordinates to framebuffer pixels. It is 1 while the window
// size is unknown.
func framebufferScale(fbWidth, fbHeight, winWidth, winHeight int) (float64, float64) {
	if winWidth <= 0 || winHeight <= 0 {
		return 1, 1
	}
	return float64(fbWidth) / float64(winWidth), float64(fbHeight) / float64(winHeight)
}
