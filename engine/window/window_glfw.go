package window

import (
	"fmt"
	"runtime"
	"sync/atomic"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// glfwWindow is the GLFW side of an engineWindow. A nil *glfwWindow behaves like a closed window.
type glfwWindow struct {
	handle  *glfw.Window
	running atomic.Bool

	// left button drag state, in window coordinates
	dragging     bool
	lastX, lastY float64
}

// openGLFWWindow creates a client-API-less GLFW window for WebGPU and routes its input to w.
//
// GLFW reference: https://www.glfw.org/docs/latest/window_guide.html
func openGLFWWindow(w *engineWindow) (*glfwWindow, error) {
	runtime.LockOSThread()

	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("initialize GLFW: %w", err)
	}
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	if w.transparent {
		glfw.WindowHint(glfw.TransparentFramebuffer, glfw.True)
	}

	handle, err := glfw.CreateWindow(w.width, w.height, w.title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("create GLFW window: %w", err)
	}
	handle.SetSizeLimits(sizeLimit(w.minWidth), sizeLimit(w.minHeight), sizeLimit(w.maxWidth), sizeLimit(w.maxHeight))

	gw := &glfwWindow{handle: handle}
	gw.running.Store(true)

	handle.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if action != glfw.Press {
			return
		}
		if key == glfw.KeyEscape {
			gw.requestClose()
			return
		}
		if w.on.keyDown != nil {
			w.on.keyDown(uint32(key))
		}
	})

	handle.SetScrollCallback(func(_ *glfw.Window, _, yoff float64) {
		if w.on.scroll != nil {
			w.on.scroll(float32(yoff))
		}
	})

	handle.SetMouseButtonCallback(func(_ *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
		if button == glfw.MouseButtonLeft {
			gw.dragging = action == glfw.Press
			gw.lastX, gw.lastY = handle.GetCursorPos()
		}
	})

	handle.SetCursorPosCallback(func(_ *glfw.Window, x, y float64) {
		if !gw.dragging {
			return
		}
		dx, dy := x-gw.lastX, y-gw.lastY
		gw.lastX, gw.lastY = x, y
		if w.on.drag == nil {
			return
		}
		winWidth, winHeight := handle.GetSize()
		sx, sy := framebufferScale(w.width, w.height, winWidth, winHeight)
		w.on.drag(float32(dx*sx), float32(dy*sy))
	})

	// framebuffer size, not window size, so the swapchain matches on high-DPI displays
	handle.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.resized(width, height)
	})
	w.width, w.height = handle.GetFramebufferSize()

	return gw, nil
}

// sizeLimit converts an unset (non-positive) limit to glfw.DontCare.
func sizeLimit(v int) int {
	if v <= 0 {
		return glfw.DontCare
	}
	return v
}

// surfaceDescriptor wraps the native handle via wgpuglfw.GetSurfaceDescriptor.
func (gw *glfwWindow) surfaceDescriptor() *wgpu.SurfaceDescriptor {
	if gw == nil {
		return nil
	}
	return wgpuglfw.GetSurfaceDescriptor(gw.handle)
}

func (gw *glfwWindow) setTitle(title string) {
	if gw != nil {
		gw.handle.SetTitle(title)
	}
}

func (gw *glfwWindow) isRunning() bool {
	return gw != nil && gw.running.Load() && !gw.handle.ShouldClose()
}

// requestClose only flips the atomic flag, so it may run off the main thread.
func (gw *glfwWindow) requestClose() {
	if gw != nil {
		gw.running.Store(false)
	}
}

// poll processes pending events without blocking.
func (gw *glfwWindow) poll() bool {
	glfw.PollEvents()
	return gw.isRunning()
}

func (gw *glfwWindow) destroy() {
	gw.running.Store(false)
	gw.handle.Destroy()
	glfw.Terminate()
}
