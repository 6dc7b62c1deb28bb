package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
)

type CommandBufferState int

const (
	CommandBufferNotAllocated CommandBufferState = iota
	CommandBufferReady
	CommandBufferRecording
	CommandBufferInRenderPass
	CommandBufferRecordingEnded
	CommandBufferSubmitted
)

type CommandBuffer struct {
	Handle vk.CommandBuffer
	State  CommandBufferState
}

func NewCommandPool(device vk.Device, queueFamily uint32) (vk.CommandPool, error) {
	createInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: queueFamily,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
	}
	var pool vk.CommandPool
	if err := Check(vk.CreateCommandPool(device, &createInfo, nil, &pool)); err != nil {
		return vk.NullCommandPool, fmt.Errorf("create command pool: %w", err)
	}
	return pool, nil
}

func NewCommandBuffer(device vk.Device, pool vk.CommandPool, primary bool) (*CommandBuffer, error) {
	level := vk.CommandBufferLevelPrimary
	if !primary {
		level = vk.CommandBufferLevelSecondary
	}
	allocateInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        pool,
		CommandBufferCount: 1,
		Level:              level,
	}

	handles := make([]vk.CommandBuffer, 1)
	if err := Check(vk.AllocateCommandBuffers(device, &allocateInfo, handles)); err != nil {
		return nil, fmt.Errorf("allocate command buffer: %w", err)
	}
	return &CommandBuffer{Handle: handles[0], State: CommandBufferReady}, nil
}

func (c *CommandBuffer) Free(device vk.Device, pool vk.CommandPool) {
	if c.Handle != nil {
		vk.FreeCommandBuffers(device, pool, 1, []vk.CommandBuffer{c.Handle})
		c.Handle = nil
	}
	c.State = CommandBufferNotAllocated
}

func (c *CommandBuffer) Begin(singleUse, renderPassContinue, simultaneousUse bool) error {
	beginInfo := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
	}
	if singleUse {
		beginInfo.Flags |= vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit)
	}
	if renderPassContinue {
		beginInfo.Flags |= vk.CommandBufferUsageFlags(vk.CommandBufferUsageRenderPassContinueBit)
	}
	if simultaneousUse {
		beginInfo.Flags |= vk.CommandBufferUsageFlags(vk.CommandBufferUsageSimultaneousUseBit)
	}

	if err := Check(vk.BeginCommandBuffer(c.Handle, &beginInfo)); err != nil {
		return fmt.Errorf("begin command buffer: %w", err)
	}
	c.State = CommandBufferRecording
	return nil
}

func (c *CommandBuffer) End() error {
	if err := Check(vk.EndCommandBuffer(c.Handle)); err != nil {
		return fmt.Errorf("end command buffer: %w", err)
	}
	c.State = CommandBufferRecordingEnded
	return nil
}

func (c *CommandBuffer) UpdateSubmitted() {
	c.State = CommandBufferSubmitted
}

// AllocateAndBeginSingleUse allocates a primary buffer from pool and starts a
// one-time-submit recording.
func AllocateAndBeginSingleUse(device vk.Device, pool vk.CommandPool) (*CommandBuffer, error) {
	cb, err := NewCommandBuffer(device, pool, true)
	if err != nil {
		return nil, err
	}
	if err := cb.Begin(true, false, false); err != nil {
		cb.Free(device, pool)
		return nil, err
	}
	return cb, nil
}

// EndSingleUse submits the recording, waits on a temporary fence and frees
// the buffer.
func (c *CommandBuffer) EndSingleUse(device vk.Device, pool vk.CommandPool, queue vk.Queue) error {
	defer c.Free(device, pool)

	if err := c.End(); err != nil {
		return err
	}

	fence, err := NewFence(device, false)
	if err != nil {
		return err
	}
	defer fence.Destroy(device)

	submitInfo := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    []vk.CommandBuffer{c.Handle},
	}
	if err := Check(vk.QueueSubmit(queue, 1, []vk.SubmitInfo{submitInfo}, fence.Handle)); err != nil {
		return fmt.Errorf("submit single use commands: %w", err)
	}
	c.UpdateSubmitted()
	return fence.Wait(device, Infinite)
}
