package platform

import (
	"runtime"
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/loop/engine/core"
)

func init() {
	// GLFW event handling must run on the main OS thread
	runtime.LockOSThread()
}

type CursorMode int

const (
	CursorNormal CursorMode = iota
	CursorHidden
	CursorDisabled
)

// Window owns the glfw window the swapchain presents to.
type Window struct {
	handle *glfw.Window
	title  string
}

func NewWindow(title string, width, height uint32, resizable bool) (*Window, error) {
	if err := glfw.Init(); err != nil {
		core.LogError("failed to initialize glfw: %s", err)
		return nil, err
	}

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI) // Required for Vulkan.
	if resizable {
		glfw.WindowHint(glfw.Resizable, glfw.True)
	} else {
		glfw.WindowHint(glfw.Resizable, glfw.False)
	}

	handle, err := glfw.CreateWindow(int(width), int(height), title, nil, nil)
	if err != nil {
		core.LogError("failed to create window: %s", err)
		glfw.Terminate()
		return nil, err
	}
	handle.SetFramebufferSizeCallback(framebufferSizeCallback)

	core.LogInfo("window `%s` created (%dx%d)", title, width, height)
	return &Window{handle: handle, title: title}, nil
}

func (w *Window) Destroy() {
	if w.handle != nil {
		w.handle.Destroy()
		w.handle = nil
	}
	glfw.Terminate()
}

func (w *Window) Title() string {
	return w.title
}

func (w *Window) ShouldClose() bool {
	return w.handle.ShouldClose()
}

// SetShouldClose is a no-op once the window has been destroyed.
func (w *Window) SetShouldClose(v bool) {
	if w.handle == nil {
		return
	}
	w.handle.SetShouldClose(v)
}

// PollEvents processes pending window events without blocking.
func (w *Window) PollEvents() {
	glfw.PollEvents()
}

// WaitEvents blocks until at least one window event arrives.
func (w *Window) WaitEvents() {
	glfw.WaitEvents()
}

// FramebufferSize is zero in either dimension while the window is minimized.
func (w *Window) FramebufferSize() (uint32, uint32) {
	width, height := w.handle.GetFramebufferSize()
	return uint32(width), uint32(height)
}

// KeyPressed reports the current state of a glfw key code.
func (w *Window) KeyPressed(key int) bool {
	if key < 0 {
		return false
	}
	return w.handle.GetKey(glfw.Key(key)) == glfw.Press
}

func (w *Window) CursorPosition() (float64, float64) {
	return w.handle.GetCursorPos()
}

func (w *Window) SetCursorMode(mode CursorMode) {
	switch mode {
	case CursorHidden:
		w.handle.SetInputMode(glfw.CursorMode, glfw.CursorHidden)
	case CursorDisabled:
		w.handle.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
	default:
		w.handle.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
	}
}

// RequiredExtensions lists the instance extensions glfw needs to present.
func (w *Window) RequiredExtensions() []string {
	return w.handle.GetRequiredInstanceExtensions()
}

// InstanceProcAddr is the loader entry point handed to vk.SetGetInstanceProcAddr.
func (w *Window) InstanceProcAddr() unsafe.Pointer {
	return glfw.GetVulkanGetInstanceProcAddress()
}

func (w *Window) CreateSurface(instance vk.Instance) (vk.Surface, error) {
	surface, err := w.handle.CreateWindowSurface(instance, nil)
	if err != nil {
		return vk.NullSurface, err
	}
	return vk.SurfaceFromPointer(surface), nil
}

// Time returns the seconds since glfw was initialized.
func Time() float64 {
	return glfw.GetTime()
}

func framebufferSizeCallback(w *glfw.Window, width, height int) {
	core.LogDebug("framebuffer resized to %dx%d", width, height)
}
