package lifecycle

import vk "github.com/goki/vulkan"

// InitEvent is sent once before the first frame.
type InitEvent struct{}

// UpdateEvent is sent once per tick before any drawing. Dt is in seconds.
type UpdateEvent struct {
	Dt float32
}

// BeforeDrawEvent, DrawEvent and AfterDrawEvent are sent in that order every
// frame with the command buffer that is currently recording inside the
// default render pass.
type BeforeDrawEvent struct {
	Cmd vk.CommandBuffer
}

type DrawEvent struct {
	Cmd vk.CommandBuffer
}

type AfterDrawEvent struct {
	Cmd vk.CommandBuffer
}

// QuitEvent is sent once at shutdown after the device went idle.
type QuitEvent struct{}
