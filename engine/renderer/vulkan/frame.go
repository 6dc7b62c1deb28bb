package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/loop/engine/core"
	"github.com/spaghettifunk/loop/engine/math"
)

// anyExtent is the currentExtent width reported when the swapchain decides the
// surface size.
const anyExtent = ^uint32(0)

type FrameState int

const (
	FrameIdle FrameState = iota
	FrameSetup
	FrameRecording
	FrameSubmitted
	FramePresented
	FrameOutOfDate
)

func (s FrameState) String() string {
	switch s {
	case FrameIdle:
		return "idle"
	case FrameSetup:
		return "setup"
	case FrameRecording:
		return "recording"
	case FrameSubmitted:
		return "submitted"
	case FramePresented:
		return "presented"
	case FrameOutOfDate:
		return "out-of-date"
	}
	return fmt.Sprintf("FrameState(%d)", int(s))
}

// FrameDevice performs the GPU side of a frame for one ring slot. Graphics is
// the implementation backed by a real device.
type FrameDevice interface {
	// WaitForFence blocks until the slot's fence is signaled.
	WaitForFence(slot int) error
	ResetFence(slot int) error
	// AcquireNextImage signals the slot's image-available semaphore once the
	// returned image can be rendered to.
	AcquireNextImage(slot int) (uint32, vk.Result)
	BeginCommandBuffer(slot int) error
	// EndCommandBuffer records the transition of image to the present layout
	// and closes the slot's command buffer.
	EndCommandBuffer(slot int, image uint32) error
	Submit(slot int) error
	Present(slot int, image uint32) vk.Result

	SurfaceSize() (uint32, uint32)
	WaitEvents()
	WaitIdle() error
	DestroySwapchain()
	CreateSwapchain() error
}

// FrameOrchestrator drives the acquire, record, submit and present sequence
// over a ring of frame slots.
type FrameOrchestrator struct {
	device         FrameDevice
	framesInFlight int
	currentFrame   int
	imageIndex     uint32
	state          FrameState
}

func NewFrameOrchestrator(device FrameDevice, framesInFlight int) *FrameOrchestrator {
	if framesInFlight < 1 {
		framesInFlight = 1
	}
	return &FrameOrchestrator{
		device:         device,
		framesInFlight: framesInFlight,
		state:          FrameIdle,
	}
}

func (f *FrameOrchestrator) CurrentFrame() int {
	return f.currentFrame
}

func (f *FrameOrchestrator) ImageIndex() uint32 {
	return f.imageIndex
}

func (f *FrameOrchestrator) State() FrameState {
	return f.state
}

func (f *FrameOrchestrator) FramesInFlight() int {
	return f.framesInFlight
}

// SetupFrame waits for the current slot, acquires the next swapchain image and
// opens the slot's command buffer. core.ErrSwapchainOutOfDate means the
// swapchain was rebuilt and nothing must be recorded this tick.
func (f *FrameOrchestrator) SetupFrame() error {
	if f.state != FrameIdle {
		return fmt.Errorf("setup frame in state %s: %w", f.state, core.ErrFrameInProgress)
	}
	f.state = FrameSetup
	slot := f.currentFrame

	if err := f.device.WaitForFence(slot); err != nil {
		f.state = FrameIdle
		return fmt.Errorf("wait for frame %d: %w", slot, err)
	}

	image, result := f.device.AcquireNextImage(slot)
	switch result {
	case vk.Success, vk.Suboptimal:
	case vk.ErrorOutOfDate:
		f.state = FrameOutOfDate
		if err := f.recreate(); err != nil {
			return err
		}
		return core.ErrSwapchainOutOfDate
	default:
		f.state = FrameIdle
		return fmt.Errorf("acquire next image: %w", Check(result))
	}
	f.imageIndex = image

	// The fence is only reset once work is guaranteed to be submitted for it.
	if err := f.device.ResetFence(slot); err != nil {
		f.state = FrameIdle
		return fmt.Errorf("reset fence %d: %w", slot, err)
	}
	if err := f.device.BeginCommandBuffer(slot); err != nil {
		f.state = FrameIdle
		return fmt.Errorf("begin command buffer %d: %w", slot, err)
	}
	f.state = FrameRecording
	return nil
}

// SubmitFrame closes the recording, submits it and presents the acquired
// image. A stale or suboptimal surface at present rebuilds the swapchain and
// is not an error.
func (f *FrameOrchestrator) SubmitFrame() error {
	if f.state != FrameRecording {
		return fmt.Errorf("submit frame in state %s: %w", f.state, core.ErrFrameInProgress)
	}
	slot := f.currentFrame

	if err := f.device.EndCommandBuffer(slot, f.imageIndex); err != nil {
		f.state = FrameIdle
		return fmt.Errorf("end command buffer %d: %w", slot, err)
	}
	if err := f.device.Submit(slot); err != nil {
		f.state = FrameIdle
		return fmt.Errorf("submit frame %d: %w", slot, err)
	}
	f.state = FrameSubmitted
	f.currentFrame = (f.currentFrame + 1) % f.framesInFlight

	result := f.device.Present(slot, f.imageIndex)
	f.state = FramePresented
	switch result {
	case vk.Success:
	case vk.ErrorOutOfDate, vk.Suboptimal:
		f.state = FrameOutOfDate
		if err := f.recreate(); err != nil {
			return err
		}
		return nil
	default:
		f.state = FrameIdle
		return fmt.Errorf("present image %d: %w", f.imageIndex, Check(result))
	}
	f.state = FrameIdle
	return nil
}

// RecreateSwapchain rebuilds the swapchain between frames, e.g. after the
// window was resized.
func (f *FrameOrchestrator) RecreateSwapchain() error {
	if f.state != FrameIdle {
		return fmt.Errorf("recreate swapchain in state %s: %w", f.state, core.ErrFrameInProgress)
	}
	f.state = FrameOutOfDate
	return f.recreate()
}

func (f *FrameOrchestrator) recreate() error {
	defer func() { f.state = FrameIdle }()

	// A minimized window has a zero sized surface, which is not a valid extent.
	width, height := f.device.SurfaceSize()
	for width == 0 || height == 0 {
		f.device.WaitEvents()
		width, height = f.device.SurfaceSize()
	}

	if err := f.device.WaitIdle(); err != nil {
		return fmt.Errorf("wait idle before swapchain recreation: %w", err)
	}
	f.device.DestroySwapchain()
	if err := f.device.CreateSwapchain(); err != nil {
		return fmt.Errorf("recreate swapchain: %w", err)
	}
	core.LogDebug("swapchain recreated at %dx%d", width, height)
	return nil
}

// SelectSurfaceExtent returns the surface's current extent unless the surface
// lets the swapchain pick, in which case requested is clamped to the
// supported range.
func SelectSurfaceExtent(requested vk.Extent2D, capabilities vk.SurfaceCapabilities) vk.Extent2D {
	if capabilities.CurrentExtent.Width != anyExtent {
		return capabilities.CurrentExtent
	}
	return vk.Extent2D{
		Width:  math.Clamp(requested.Width, capabilities.MinImageExtent.Width, capabilities.MaxImageExtent.Width),
		Height: math.Clamp(requested.Height, capabilities.MinImageExtent.Height, capabilities.MaxImageExtent.Height),
	}
}
