package vulkan

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"
)

// Buffer is a host-visible, host-coherent buffer. Updates are plain memory
// copies with no staging.
type Buffer struct {
	Handle vk.Buffer
	Memory vk.DeviceMemory
	Size   uint64
	Usage  vk.BufferUsageFlags

	device vk.Device
}

func NewBuffer(ctx *Context, size uint64, usage vk.BufferUsageFlags) (*Buffer, error) {
	if size == 0 {
		return nil, fmt.Errorf("create buffer: zero size")
	}
	device := ctx.Device.LogicalDevice
	b := &Buffer{Size: size, Usage: usage, device: device}

	createInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(size),
		Usage:       usage,
		SharingMode: vk.SharingModeExclusive,
	}
	if err := Check(vk.CreateBuffer(device, &createInfo, nil, &b.Handle)); err != nil {
		return nil, fmt.Errorf("create buffer: %w", err)
	}

	var requirements vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(device, b.Handle, &requirements)
	requirements.Deref()

	memoryType, err := ctx.FindMemoryIndex(requirements.MemoryTypeBits,
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit))
	if err != nil {
		b.Destroy()
		return nil, fmt.Errorf("buffer memory: %w", err)
	}
	allocateInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  requirements.Size,
		MemoryTypeIndex: memoryType,
	}
	if err := Check(vk.AllocateMemory(device, &allocateInfo, nil, &b.Memory)); err != nil {
		b.Destroy()
		return nil, fmt.Errorf("allocate buffer memory: %w", err)
	}
	if err := Check(vk.BindBufferMemory(device, b.Handle, b.Memory, 0)); err != nil {
		b.Destroy()
		return nil, fmt.Errorf("bind buffer memory: %w", err)
	}
	return b, nil
}

func NewVertexBuffer(ctx *Context, size uint64) (*Buffer, error) {
	return NewBuffer(ctx, size, vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit))
}

func NewIndexBuffer(ctx *Context, size uint64) (*Buffer, error) {
	return NewBuffer(ctx, size, vk.BufferUsageFlags(vk.BufferUsageIndexBufferBit))
}

func NewUniformBuffer(ctx *Context, size uint64) (*Buffer, error) {
	return NewBuffer(ctx, size, vk.BufferUsageFlags(vk.BufferUsageUniformBufferBit))
}

func NewStagingBuffer(ctx *Context, size uint64) (*Buffer, error) {
	return NewBuffer(ctx, size, vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit))
}

// Update copies data to the start of the buffer.
func (b *Buffer) Update(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	if uint64(len(data)) > b.Size {
		return fmt.Errorf("buffer update of %d bytes exceeds size %d", len(data), b.Size)
	}
	var mapped unsafe.Pointer
	if err := Check(vk.MapMemory(b.device, b.Memory, 0, vk.DeviceSize(len(data)), 0, &mapped)); err != nil {
		return fmt.Errorf("map buffer memory: %w", err)
	}
	vk.Memcopy(mapped, data)
	vk.UnmapMemory(b.device, b.Memory)
	return nil
}

func (b *Buffer) UpdateFloat32(data []float32) error {
	return b.Update(Float32Bytes(data))
}

func (b *Buffer) UpdateUint32(data []uint32) error {
	return b.Update(Uint32Bytes(data))
}

func (b *Buffer) Destroy() {
	if b.Handle != vk.NullBuffer {
		vk.DestroyBuffer(b.device, b.Handle, nil)
		b.Handle = vk.NullBuffer
	}
	if b.Memory != vk.NullDeviceMemory {
		vk.FreeMemory(b.device, b.Memory, nil)
		b.Memory = vk.NullDeviceMemory
	}
}

// Float32Bytes reinterprets data as bytes without copying.
func Float32Bytes(data []float32) []byte {
	if len(data) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), len(data)*4)
}

// Uint32Bytes reinterprets data as bytes without copying.
func Uint32Bytes(data []uint32) []byte {
	if len(data) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), len(data)*4)
}

// BytesToUint32 converts SPIR-V code to words. The length must be a
// multiple of four.
func BytesToUint32(data []byte) ([]uint32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("byte length %d is not a multiple of 4", len(data))
	}
	words := make([]uint32, len(data)/4)
	copy(unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(words))), len(data)), data)
	return words, nil
}
