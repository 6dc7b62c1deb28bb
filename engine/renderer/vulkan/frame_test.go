package vulkan

import (
	"errors"
	"fmt"
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/loop/engine/core"
)

// fakeDevice models fences per slot and records every call in order.
type fakeDevice struct {
	calls []string

	signaled   []bool
	images     uint32
	nextImage  uint32
	acquire    []vk.Result
	present    []vk.Result
	sizes      [][2]uint32
	width      uint32
	height     uint32
	submitErr  error
	recreated  int
	waitEvents int

	// violations collects begin calls on a slot whose fence was not observed
	// signaled since its last reset.
	violations []int
	observed   []bool
}

func newFakeDevice(slots int) *fakeDevice {
	d := &fakeDevice{
		signaled: make([]bool, slots),
		observed: make([]bool, slots),
		images:   3,
		width:    800,
		height:   600,
	}
	for i := range d.signaled {
		d.signaled[i] = true
	}
	return d
}

func (d *fakeDevice) record(format string, args ...any) {
	d.calls = append(d.calls, fmt.Sprintf(format, args...))
}

func (d *fakeDevice) WaitForFence(slot int) error {
	d.record("wait %d", slot)
	// the GPU finished whatever was submitted
	d.signaled[slot] = true
	d.observed[slot] = true
	return nil
}

func (d *fakeDevice) ResetFence(slot int) error {
	d.record("reset %d", slot)
	d.signaled[slot] = false
	return nil
}

func (d *fakeDevice) AcquireNextImage(slot int) (uint32, vk.Result) {
	d.record("acquire %d", slot)
	result := vk.Success
	if len(d.acquire) > 0 {
		result, d.acquire = d.acquire[0], d.acquire[1:]
	}
	image := d.nextImage
	d.nextImage = (d.nextImage + 1) % d.images
	return image, result
}

func (d *fakeDevice) BeginCommandBuffer(slot int) error {
	d.record("begin %d", slot)
	if !d.observed[slot] {
		d.violations = append(d.violations, slot)
	}
	d.observed[slot] = false
	return nil
}

func (d *fakeDevice) EndCommandBuffer(slot int, image uint32) error {
	d.record("end %d image %d", slot, image)
	return nil
}

func (d *fakeDevice) Submit(slot int) error {
	d.record("submit %d", slot)
	return d.submitErr
}

func (d *fakeDevice) Present(slot int, image uint32) vk.Result {
	d.record("present %d image %d", slot, image)
	if len(d.present) > 0 {
		var r vk.Result
		r, d.present = d.present[0], d.present[1:]
		return r
	}
	return vk.Success
}

func (d *fakeDevice) SurfaceSize() (uint32, uint32) {
	if len(d.sizes) > 0 {
		var s [2]uint32
		s, d.sizes = d.sizes[0], d.sizes[1:]
		return s[0], s[1]
	}
	return d.width, d.height
}

func (d *fakeDevice) WaitEvents() {
	d.waitEvents++
}

func (d *fakeDevice) WaitIdle() error {
	d.record("idle")
	return nil
}

func (d *fakeDevice) DestroySwapchain() {
	d.record("destroy swapchain")
}

func (d *fakeDevice) CreateSwapchain() error {
	d.record("create swapchain")
	d.recreated++
	return nil
}

func TestFrameRingVisitsSlotsInOrder(t *testing.T) {
	device := newFakeDevice(3)
	frames := NewFrameOrchestrator(device, 3)

	visited := []int{frames.CurrentFrame()}
	for i := 0; i < 3; i++ {
		require.NoError(t, frames.SetupFrame())
		assert.Equal(t, FrameRecording, frames.State())
		require.NoError(t, frames.SubmitFrame())
		assert.Equal(t, FrameIdle, frames.State())
		visited = append(visited, frames.CurrentFrame())
	}
	assert.Equal(t, []int{0, 1, 2, 0}, visited)
}

func TestSetupFrameAdvancesImageNotSlot(t *testing.T) {
	device := newFakeDevice(2)
	device.nextImage = 2
	frames := NewFrameOrchestrator(device, 2)

	require.NoError(t, frames.SetupFrame())
	assert.Equal(t, uint32(2), frames.ImageIndex())
	assert.Equal(t, 0, frames.CurrentFrame())

	require.NoError(t, frames.SubmitFrame())
	assert.Equal(t, 1, frames.CurrentFrame())
}

func TestFrameCallSequence(t *testing.T) {
	device := newFakeDevice(2)
	frames := NewFrameOrchestrator(device, 2)

	require.NoError(t, frames.SetupFrame())
	require.NoError(t, frames.SubmitFrame())

	assert.Equal(t, []string{
		"wait 0",
		"acquire 0",
		"reset 0",
		"begin 0",
		"end 0 image 0",
		"submit 0",
		"present 0 image 0",
	}, device.calls)
}

func TestFenceGatesSlotReuse(t *testing.T) {
	device := newFakeDevice(3)
	frames := NewFrameOrchestrator(device, 3)

	for i := 0; i < 20; i++ {
		require.NoError(t, frames.SetupFrame())
		require.NoError(t, frames.SubmitFrame())
	}
	assert.Empty(t, device.violations)
}

func TestFrameRingAdvancesOncePerSubmit(t *testing.T) {
	for _, inFlight := range []int{1, 2, 3, 5} {
		t.Run(fmt.Sprintf("%d slots", inFlight), func(t *testing.T) {
			device := newFakeDevice(inFlight)
			frames := NewFrameOrchestrator(device, inFlight)

			for i := 0; i < inFlight*4; i++ {
				before := frames.CurrentFrame()
				require.NoError(t, frames.SetupFrame())
				assert.Equal(t, before, frames.CurrentFrame())
				require.NoError(t, frames.SubmitFrame())
				assert.Equal(t, (before+1)%inFlight, frames.CurrentFrame())
			}
		})
	}
}

func TestOutOfDateAcquireRecreatesAndSkipsFrame(t *testing.T) {
	device := newFakeDevice(3)
	device.acquire = []vk.Result{vk.ErrorOutOfDate}
	frames := NewFrameOrchestrator(device, 3)

	err := frames.SetupFrame()
	require.ErrorIs(t, err, core.ErrSwapchainOutOfDate)
	assert.Equal(t, 1, device.recreated)
	assert.Equal(t, FrameIdle, frames.State())
	assert.Equal(t, 0, frames.CurrentFrame())
	assert.Equal(t, []string{
		"wait 0",
		"acquire 0",
		"idle",
		"destroy swapchain",
		"create swapchain",
	}, device.calls)

	// submitting the skipped frame is a misuse
	assert.ErrorIs(t, frames.SubmitFrame(), core.ErrFrameInProgress)

	// the next tick starts clean on the same slot
	require.NoError(t, frames.SetupFrame())
	require.NoError(t, frames.SubmitFrame())
	assert.Equal(t, 1, frames.CurrentFrame())
}

func TestStalePresentRecreatesWithoutError(t *testing.T) {
	for _, result := range []vk.Result{vk.ErrorOutOfDate, vk.Suboptimal} {
		t.Run(VulkanResultString(result, false), func(t *testing.T) {
			device := newFakeDevice(3)
			device.present = []vk.Result{result}
			frames := NewFrameOrchestrator(device, 3)

			require.NoError(t, frames.SetupFrame())
			require.NoError(t, frames.SubmitFrame())
			assert.Equal(t, 1, device.recreated)
			assert.Equal(t, 1, frames.CurrentFrame())
			assert.Equal(t, FrameIdle, frames.State())
		})
	}
}

func TestSuboptimalAcquireStillRenders(t *testing.T) {
	device := newFakeDevice(3)
	device.acquire = []vk.Result{vk.Suboptimal}
	frames := NewFrameOrchestrator(device, 3)

	require.NoError(t, frames.SetupFrame())
	assert.Equal(t, FrameRecording, frames.State())
	assert.Zero(t, device.recreated)
}

func TestAcquireFailureIsFatal(t *testing.T) {
	device := newFakeDevice(3)
	device.acquire = []vk.Result{vk.ErrorDeviceLost}
	frames := NewFrameOrchestrator(device, 3)

	err := frames.SetupFrame()
	require.Error(t, err)
	var resultErr *ResultError
	require.True(t, errors.As(err, &resultErr))
	assert.Equal(t, vk.ErrorDeviceLost, resultErr.Result)
	assert.NotErrorIs(t, err, core.ErrSwapchainOutOfDate)
	assert.Zero(t, device.recreated)
}

func TestPresentFailureIsFatal(t *testing.T) {
	device := newFakeDevice(3)
	device.present = []vk.Result{vk.ErrorSurfaceLost}
	frames := NewFrameOrchestrator(device, 3)

	require.NoError(t, frames.SetupFrame())
	err := frames.SubmitFrame()
	var resultErr *ResultError
	require.ErrorAs(t, err, &resultErr)
	assert.Equal(t, "VK_ERROR_SURFACE_LOST_KHR", resultErr.Name)
}

func TestSubmitFailureIsFatal(t *testing.T) {
	device := newFakeDevice(3)
	device.submitErr = Check(vk.ErrorDeviceLost)
	frames := NewFrameOrchestrator(device, 3)

	require.NoError(t, frames.SetupFrame())
	require.Error(t, frames.SubmitFrame())
	assert.Equal(t, 0, frames.CurrentFrame())
}

func TestSetupFrameTwiceIsRejected(t *testing.T) {
	frames := NewFrameOrchestrator(newFakeDevice(2), 2)

	require.NoError(t, frames.SetupFrame())
	assert.ErrorIs(t, frames.SetupFrame(), core.ErrFrameInProgress)
	assert.ErrorIs(t, frames.RecreateSwapchain(), core.ErrFrameInProgress)
}

func TestRecreateWaitsForNonZeroSurface(t *testing.T) {
	device := newFakeDevice(2)
	device.sizes = [][2]uint32{{0, 0}, {800, 0}, {0, 600}}
	frames := NewFrameOrchestrator(device, 2)

	require.NoError(t, frames.RecreateSwapchain())
	assert.Equal(t, 3, device.waitEvents)
	assert.Equal(t, []string{"idle", "destroy swapchain", "create swapchain"}, device.calls)
}

func TestSelectSurfaceExtent(t *testing.T) {
	caps := func(current, min, max vk.Extent2D) vk.SurfaceCapabilities {
		return vk.SurfaceCapabilities{CurrentExtent: current, MinImageExtent: min, MaxImageExtent: max}
	}
	min := vk.Extent2D{Width: 100, Height: 100}
	max := vk.Extent2D{Width: 1920, Height: 1080}
	anySize := vk.Extent2D{Width: anyExtent, Height: anyExtent}

	tests := []struct {
		name      string
		requested vk.Extent2D
		caps      vk.SurfaceCapabilities
		expected  vk.Extent2D
	}{
		{"current extent wins", vk.Extent2D{Width: 10, Height: 10}, caps(vk.Extent2D{Width: 800, Height: 600}, min, max), vk.Extent2D{Width: 800, Height: 600}},
		{"requested in range", vk.Extent2D{Width: 1024, Height: 768}, caps(anySize, min, max), vk.Extent2D{Width: 1024, Height: 768}},
		{"clamped low", vk.Extent2D{Width: 0, Height: 0}, caps(anySize, min, max), min},
		{"clamped high", vk.Extent2D{Width: 4000, Height: 3000}, caps(anySize, min, max), max},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SelectSurfaceExtent(tt.requested, tt.caps))
		})
	}
}
