package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
)

// Image is a device image with its own memory and an optional view.
type Image struct {
	Handle vk.Image
	Memory vk.DeviceMemory
	View   vk.ImageView
	Format vk.Format
	Width  uint32
	Height uint32
}

type ImageOptions struct {
	Format     vk.Format
	Tiling     vk.ImageTiling
	Usage      vk.ImageUsageFlags
	Memory     vk.MemoryPropertyFlags
	CreateView bool
	Aspect     vk.ImageAspectFlags
}

func NewImage(ctx *Context, width, height uint32, opts ImageOptions) (*Image, error) {
	device := ctx.Device.LogicalDevice
	img := &Image{Format: opts.Format, Width: width, Height: height}

	createInfo := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Format:    opts.Format,
		Extent: vk.Extent3D{
			Width:  width,
			Height: height,
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Samples:       vk.SampleCount1Bit,
		Tiling:        opts.Tiling,
		Usage:         opts.Usage,
		SharingMode:   vk.SharingModeExclusive,
		InitialLayout: vk.ImageLayoutUndefined,
	}
	if err := Check(vk.CreateImage(device, &createInfo, nil, &img.Handle)); err != nil {
		return nil, fmt.Errorf("create image: %w", err)
	}

	var requirements vk.MemoryRequirements
	vk.GetImageMemoryRequirements(device, img.Handle, &requirements)
	requirements.Deref()

	memoryType, err := ctx.FindMemoryIndex(requirements.MemoryTypeBits, opts.Memory)
	if err != nil {
		img.Destroy(device)
		return nil, fmt.Errorf("image memory: %w", err)
	}
	allocateInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  requirements.Size,
		MemoryTypeIndex: memoryType,
	}
	if err := Check(vk.AllocateMemory(device, &allocateInfo, nil, &img.Memory)); err != nil {
		img.Destroy(device)
		return nil, fmt.Errorf("allocate image memory: %w", err)
	}
	if err := Check(vk.BindImageMemory(device, img.Handle, img.Memory, 0)); err != nil {
		img.Destroy(device)
		return nil, fmt.Errorf("bind image memory: %w", err)
	}

	if opts.CreateView {
		view, err := NewImageView(device, img.Handle, opts.Format, opts.Aspect)
		if err != nil {
			img.Destroy(device)
			return nil, err
		}
		img.View = view
	}
	return img, nil
}

func NewImageView(device vk.Device, image vk.Image, format vk.Format, aspect vk.ImageAspectFlags) (vk.ImageView, error) {
	createInfo := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    image,
		ViewType: vk.ImageViewType2d,
		Format:   format,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: aspect,
			LevelCount: 1,
			LayerCount: 1,
		},
	}
	var view vk.ImageView
	if err := Check(vk.CreateImageView(device, &createInfo, nil, &view)); err != nil {
		return vk.NullImageView, fmt.Errorf("create image view: %w", err)
	}
	return view, nil
}

// TransitionLayout records a barrier moving the whole color image between the
// layouts used for uploads.
func (i *Image) TransitionLayout(cb *CommandBuffer, from, to vk.ImageLayout) error {
	barrier := vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		OldLayout:           from,
		NewLayout:           to,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               i.Handle,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			LevelCount: 1,
			LayerCount: 1,
		},
	}

	var srcStage, dstStage vk.PipelineStageFlagBits
	switch {
	case from == vk.ImageLayoutUndefined && to == vk.ImageLayoutTransferDstOptimal:
		barrier.DstAccessMask = vk.AccessFlags(vk.AccessTransferWriteBit)
		srcStage, dstStage = vk.PipelineStageTopOfPipeBit, vk.PipelineStageTransferBit
	case from == vk.ImageLayoutShaderReadOnlyOptimal && to == vk.ImageLayoutTransferDstOptimal:
		barrier.SrcAccessMask = vk.AccessFlags(vk.AccessShaderReadBit)
		barrier.DstAccessMask = vk.AccessFlags(vk.AccessTransferWriteBit)
		srcStage, dstStage = vk.PipelineStageFragmentShaderBit, vk.PipelineStageTransferBit
	case from == vk.ImageLayoutTransferDstOptimal && to == vk.ImageLayoutShaderReadOnlyOptimal:
		barrier.SrcAccessMask = vk.AccessFlags(vk.AccessTransferWriteBit)
		barrier.DstAccessMask = vk.AccessFlags(vk.AccessShaderReadBit)
		srcStage, dstStage = vk.PipelineStageTransferBit, vk.PipelineStageFragmentShaderBit
	default:
		return fmt.Errorf("unsupported layout transition %d -> %d", from, to)
	}

	vk.CmdPipelineBarrier(cb.Handle,
		vk.PipelineStageFlags(srcStage), vk.PipelineStageFlags(dstStage),
		0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{barrier})
	return nil
}

// CopyFromBuffer records a copy of a tightly packed buffer into the image,
// which must be in TransferDstOptimal.
func (i *Image) CopyFromBuffer(cb *CommandBuffer, buffer vk.Buffer) {
	region := vk.BufferImageCopy{
		ImageSubresource: vk.ImageSubresourceLayers{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			LayerCount: 1,
		},
		ImageExtent: vk.Extent3D{Width: i.Width, Height: i.Height, Depth: 1},
	}
	vk.CmdCopyBufferToImage(cb.Handle, buffer, i.Handle, vk.ImageLayoutTransferDstOptimal, 1, []vk.BufferImageCopy{region})
}

func (i *Image) Destroy(device vk.Device) {
	if i.View != vk.NullImageView {
		vk.DestroyImageView(device, i.View, nil)
		i.View = vk.NullImageView
	}
	if i.Memory != vk.NullDeviceMemory {
		vk.FreeMemory(device, i.Memory, nil)
		i.Memory = vk.NullDeviceMemory
	}
	if i.Handle != vk.NullImage {
		vk.DestroyImage(device, i.Handle, nil)
		i.Handle = vk.NullImage
	}
}
