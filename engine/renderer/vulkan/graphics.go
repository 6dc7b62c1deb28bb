package vulkan

import (
	"fmt"

	"github.com/charmbracelet/log"
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/loop/engine/core"
	"github.com/spaghettifunk/loop/engine/math"
)

type GraphicsOptions struct {
	FramesInFlight int
	MinImageCount  uint32
	PresentMode    string
}

// frameSlot holds what one frame in flight owns.
type frameSlot struct {
	fence          *Fence
	imageAvailable vk.Semaphore
	renderFinished vk.Semaphore
	pool           vk.CommandPool
	commands       *CommandBuffer
}

// Graphics is the swapchain renderer on top of a Context. It implements
// FrameDevice and owns the FrameOrchestrator that drives it.
type Graphics struct {
	Context *Context

	swapchain  *Swapchain
	renderPass *RenderPass
	slots      []*frameSlot
	globals    *GlobalDescriptors
	frames     *FrameOrchestrator
	opts       GraphicsOptions
	logger     *log.Logger
}

func NewGraphics(ctx *Context, opts GraphicsOptions) (*Graphics, error) {
	if opts.FramesInFlight < 1 {
		opts.FramesInFlight = DefaultFramesInFlight
	}
	if opts.MinImageCount == 0 {
		opts.MinImageCount = DefaultMinImageCount
	}
	if opts.PresentMode == "" {
		opts.PresentMode = DefaultPresentMode
	}
	g := &Graphics{
		Context: ctx,
		opts:    opts,
		logger:  core.SubLogger("renderer"),
	}
	device := g.device()

	support, err := ctx.SwapchainSupport()
	if err != nil {
		return nil, err
	}
	colorFormat := chooseSurfaceFormat(support.Formats).Format
	g.renderPass, err = NewRenderPass(device, colorFormat, ctx.Device.DepthFormat)
	if err != nil {
		return nil, err
	}

	if err := g.CreateSwapchain(); err != nil {
		g.Destroy()
		return nil, err
	}

	for i := 0; i < opts.FramesInFlight; i++ {
		slot, err := newFrameSlot(device, ctx.Device.GraphicsQueueIndex)
		if err != nil {
			g.Destroy()
			return nil, fmt.Errorf("frame slot %d: %w", i, err)
		}
		g.slots = append(g.slots, slot)
	}

	g.globals, err = NewGlobalDescriptors(ctx, opts.FramesInFlight)
	if err != nil {
		g.Destroy()
		return nil, err
	}

	g.frames = NewFrameOrchestrator(g, opts.FramesInFlight)
	g.logger.Info("graphics ready", "frames", opts.FramesInFlight, "images", g.swapchain.ImageCount())
	return g, nil
}

func newFrameSlot(device vk.Device, family uint32) (*frameSlot, error) {
	s := &frameSlot{}
	var err error
	// Created signaled so the first wait on each slot does not block.
	if s.fence, err = NewFence(device, true); err != nil {
		return nil, err
	}
	if s.imageAvailable, err = NewSemaphore(device); err != nil {
		s.destroy(device)
		return nil, err
	}
	if s.renderFinished, err = NewSemaphore(device); err != nil {
		s.destroy(device)
		return nil, err
	}
	if s.pool, err = NewCommandPool(device, family); err != nil {
		s.destroy(device)
		return nil, err
	}
	if s.commands, err = NewCommandBuffer(device, s.pool, true); err != nil {
		s.destroy(device)
		return nil, err
	}
	return s, nil
}

func (s *frameSlot) destroy(device vk.Device) {
	if s.commands != nil {
		s.commands.Free(device, s.pool)
	}
	if s.pool != vk.NullCommandPool {
		vk.DestroyCommandPool(device, s.pool, nil)
		s.pool = vk.NullCommandPool
	}
	if s.renderFinished != vk.NullSemaphore {
		vk.DestroySemaphore(device, s.renderFinished, nil)
		s.renderFinished = vk.NullSemaphore
	}
	if s.imageAvailable != vk.NullSemaphore {
		vk.DestroySemaphore(device, s.imageAvailable, nil)
		s.imageAvailable = vk.NullSemaphore
	}
	if s.fence != nil {
		s.fence.Destroy(device)
	}
}

func (g *Graphics) device() vk.Device {
	return g.Context.Device.LogicalDevice
}

func (g *Graphics) Frames() *FrameOrchestrator {
	return g.frames
}

func (g *Graphics) SetupFrame() error {
	return g.frames.SetupFrame()
}

func (g *Graphics) SubmitFrame() error {
	return g.frames.SubmitFrame()
}

// CommandBuffer returns the command buffer of the current slot.
func (g *Graphics) CommandBuffer() *CommandBuffer {
	return g.slots[g.frames.CurrentFrame()].commands
}

func (g *Graphics) SurfaceExtent() vk.Extent2D {
	return g.swapchain.Extent
}

func (g *Graphics) RenderPass() *RenderPass {
	return g.renderPass
}

func (g *Graphics) SwapchainImageCount() int {
	return g.swapchain.ImageCount()
}

func (g *Graphics) GlobalLayout() vk.DescriptorSetLayout {
	return g.globals.Layout
}

func (g *Graphics) BeginDefaultRenderPass(clear [4]float32) {
	fb := g.swapchain.Framebuffers[g.frames.ImageIndex()]
	g.renderPass.Begin(g.CommandBuffer(), fb.Handle, g.swapchain.Extent, clear)
}

func (g *Graphics) EndDefaultRenderPass() {
	g.renderPass.End(g.CommandBuffer())
}

// SetViewportAndScissor covers the whole surface. The projection already
// flips Y, so the viewport is not inverted.
func (g *Graphics) SetViewportAndScissor() {
	extent := g.swapchain.Extent
	cb := g.CommandBuffer().Handle
	viewport := vk.Viewport{
		X:        0,
		Y:        0,
		Width:    float32(extent.Width),
		Height:   float32(extent.Height),
		MinDepth: 0,
		MaxDepth: 1,
	}
	scissor := vk.Rect2D{
		Offset: vk.Offset2D{X: 0, Y: 0},
		Extent: extent,
	}
	vk.CmdSetViewport(cb, 0, 1, []vk.Viewport{viewport})
	vk.CmdSetScissor(cb, 0, 1, []vk.Rect2D{scissor})
}

// UpdateGlobalUniforms writes the camera matrices for the current slot.
func (g *Graphics) UpdateGlobalUniforms(projection, view math.Mat4) error {
	return g.globals.Update(g.frames.CurrentFrame(), projection, view)
}

func (g *Graphics) BindGlobalDescriptorSets(cb *CommandBuffer, layout vk.PipelineLayout, firstSet uint32) {
	sets := []vk.DescriptorSet{g.globals.Sets[g.frames.CurrentFrame()]}
	vk.CmdBindDescriptorSets(cb.Handle, vk.PipelineBindPointGraphics, layout, firstSet, 1, sets, 0, nil)
}

// BeginSingleTimeCommands allocates a one-off buffer from the current slot's
// pool.
func (g *Graphics) BeginSingleTimeCommands() (*CommandBuffer, error) {
	return AllocateAndBeginSingleUse(g.device(), g.slots[g.frames.CurrentFrame()].pool)
}

// SubmitSingleTimeCommands submits cb to the graphics queue and blocks until
// it completes.
func (g *Graphics) SubmitSingleTimeCommands(cb *CommandBuffer) error {
	pool := g.slots[g.frames.CurrentFrame()].pool
	return cb.EndSingleUse(g.device(), pool, g.Context.Device.GraphicsQueue)
}

func (g *Graphics) WaitForFence(slot int) error {
	return g.slots[slot].fence.Wait(g.device(), Infinite)
}

func (g *Graphics) ResetFence(slot int) error {
	return g.slots[slot].fence.Reset(g.device())
}

func (g *Graphics) AcquireNextImage(slot int) (uint32, vk.Result) {
	var image uint32
	result := vk.AcquireNextImage(g.device(), g.swapchain.Handle, Infinite, g.slots[slot].imageAvailable, vk.NullFence, &image)
	return image, result
}

func (g *Graphics) BeginCommandBuffer(slot int) error {
	return g.slots[slot].commands.Begin(true, false, false)
}

// EndCommandBuffer moves the swapchain image to the present layout and closes
// the recording.
func (g *Graphics) EndCommandBuffer(slot int, image uint32) error {
	cb := g.slots[slot].commands
	device := g.Context.Device

	barrier := vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		SrcAccessMask:       vk.AccessFlags(vk.AccessColorAttachmentWriteBit),
		DstAccessMask:       vk.AccessFlags(vk.AccessMemoryReadBit),
		OldLayout:           vk.ImageLayoutColorAttachmentOptimal,
		NewLayout:           vk.ImageLayoutPresentSrc,
		SrcQueueFamilyIndex: device.GraphicsQueueIndex,
		DstQueueFamilyIndex: device.PresentQueueIndex,
		Image:               g.swapchain.Images[image],
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			LevelCount: 1,
			LayerCount: 1,
		},
	}
	if device.SharesQueue() {
		barrier.SrcQueueFamilyIndex = vk.QueueFamilyIgnored
		barrier.DstQueueFamilyIndex = vk.QueueFamilyIgnored
	}
	vk.CmdPipelineBarrier(cb.Handle,
		vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		vk.PipelineStageFlags(vk.PipelineStageBottomOfPipeBit),
		0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{barrier})

	return cb.End()
}

func (g *Graphics) Submit(slot int) error {
	s := g.slots[slot]
	queue := g.Context.Device.GraphicsQueue

	submitInfo := vk.SubmitInfo{
		SType:                vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount:   1,
		PWaitSemaphores:      []vk.Semaphore{s.imageAvailable},
		PWaitDstStageMask:    []vk.PipelineStageFlags{vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{s.commands.Handle},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{s.renderFinished},
	}
	if err := Check(vk.QueueSubmit(queue, 1, []vk.SubmitInfo{submitInfo}, s.fence.Handle)); err != nil {
		return err
	}
	s.commands.UpdateSubmitted()
	return nil
}

func (g *Graphics) Present(slot int, image uint32) vk.Result {
	queue := g.Context.Device.PresentQueue
	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{g.slots[slot].renderFinished},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{g.swapchain.Handle},
		PImageIndices:      []uint32{image},
	}
	return vk.QueuePresent(queue, &presentInfo)
}

func (g *Graphics) SurfaceSize() (uint32, uint32) {
	return g.Context.window.FramebufferSize()
}

func (g *Graphics) WaitEvents() {
	g.Context.window.WaitEvents()
}

func (g *Graphics) WaitIdle() error {
	return g.Context.WaitIdle()
}

func (g *Graphics) DestroySwapchain() {
	if g.swapchain != nil {
		g.swapchain.Destroy(g.device())
		g.swapchain = nil
	}
}

func (g *Graphics) CreateSwapchain() error {
	width, height := g.SurfaceSize()
	sc, err := NewSwapchain(g.Context, g.renderPass, SwapchainOptions{
		Requested:     vk.Extent2D{Width: width, Height: height},
		MinImageCount: g.opts.MinImageCount,
		PresentMode:   g.opts.PresentMode,
	})
	if err != nil {
		return err
	}
	g.swapchain = sc
	return nil
}

// Destroy waits for the device and releases everything in reverse order of
// creation. The Context is left to its owner.
func (g *Graphics) Destroy() {
	if g.Context == nil || g.Context.Device == nil {
		return
	}
	if err := g.WaitIdle(); err != nil {
		g.logger.Warn("wait idle on destroy", "err", err)
	}
	device := g.device()
	if g.globals != nil {
		g.globals.Destroy()
		g.globals = nil
	}
	for _, s := range g.slots {
		s.destroy(device)
	}
	g.slots = nil
	g.DestroySwapchain()
	if g.renderPass != nil {
		g.renderPass.Destroy(device)
		g.renderPass = nil
	}
	g.logger.Info("graphics destroyed")
}
