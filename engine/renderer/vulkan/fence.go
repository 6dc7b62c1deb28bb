package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
)

// Infinite is the timeout used for every fence wait and image acquisition.
const Infinite = ^uint64(0)

// Fence tracks whether the CPU has already observed the GPU signal so
// repeated waits on a completed fence return immediately.
type Fence struct {
	Handle     vk.Fence
	IsSignaled bool
}

func NewFence(device vk.Device, createSignaled bool) (*Fence, error) {
	createInfo := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}
	if createSignaled {
		createInfo.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}

	var handle vk.Fence
	if err := Check(vk.CreateFence(device, &createInfo, nil, &handle)); err != nil {
		return nil, fmt.Errorf("create fence: %w", err)
	}
	return &Fence{Handle: handle, IsSignaled: createSignaled}, nil
}

// Wait blocks until the fence is signaled or the timeout elapses. A timeout is
// reported as an error.
func (f *Fence) Wait(device vk.Device, timeoutNs uint64) error {
	if f.IsSignaled {
		return nil
	}
	result := vk.WaitForFences(device, 1, []vk.Fence{f.Handle}, vk.True, timeoutNs)
	if result == vk.Timeout {
		return &ResultError{Result: result, Name: VulkanResultString(result, false)}
	}
	if err := Check(result); err != nil {
		return err
	}
	f.IsSignaled = true
	return nil
}

func (f *Fence) Reset(device vk.Device) error {
	if !f.IsSignaled {
		return nil
	}
	if err := Check(vk.ResetFences(device, 1, []vk.Fence{f.Handle})); err != nil {
		return fmt.Errorf("reset fence: %w", err)
	}
	f.IsSignaled = false
	return nil
}

func (f *Fence) Destroy(device vk.Device) {
	if f.Handle != vk.NullFence {
		vk.DestroyFence(device, f.Handle, nil)
		f.Handle = vk.NullFence
	}
	f.IsSignaled = false
}

func NewSemaphore(device vk.Device) (vk.Semaphore, error) {
	createInfo := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}
	var semaphore vk.Semaphore
	if err := Check(vk.CreateSemaphore(device, &createInfo, nil, &semaphore)); err != nil {
		return vk.NullSemaphore, fmt.Errorf("create semaphore: %w", err)
	}
	return semaphore, nil
}
