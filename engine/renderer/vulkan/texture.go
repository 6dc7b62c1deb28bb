package vulkan

import (
	"fmt"
	"image"

	vk "github.com/goki/vulkan"
)

// Texture is a sampled RGBA8 image uploaded through a staging buffer.
type Texture struct {
	Image   *Image
	Sampler vk.Sampler
}

func NewTexture(g *Graphics, img *image.RGBA) (*Texture, error) {
	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, fmt.Errorf("create texture: empty image")
	}

	gpuImage, err := NewImage(g.Context, uint32(bounds.Dx()), uint32(bounds.Dy()), ImageOptions{
		Format:     vk.FormatR8g8b8a8Unorm,
		Tiling:     vk.ImageTilingOptimal,
		Usage:      vk.ImageUsageFlags(vk.ImageUsageTransferDstBit | vk.ImageUsageSampledBit),
		Memory:     vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit),
		CreateView: true,
		Aspect:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
	})
	if err != nil {
		return nil, fmt.Errorf("create texture: %w", err)
	}
	t := &Texture{Image: gpuImage}

	if err := t.upload(g, img, vk.ImageLayoutUndefined); err != nil {
		t.Destroy(g.device())
		return nil, err
	}

	samplerInfo := vk.SamplerCreateInfo{
		SType:                   vk.StructureTypeSamplerCreateInfo,
		MagFilter:               vk.FilterLinear,
		MinFilter:               vk.FilterLinear,
		MipmapMode:              vk.SamplerMipmapModeLinear,
		AddressModeU:            vk.SamplerAddressModeClampToEdge,
		AddressModeV:            vk.SamplerAddressModeClampToEdge,
		AddressModeW:            vk.SamplerAddressModeClampToEdge,
		AnisotropyEnable:        vk.False,
		MaxAnisotropy:           1,
		BorderColor:             vk.BorderColorIntOpaqueBlack,
		UnnormalizedCoordinates: vk.False,
		CompareEnable:           vk.False,
		CompareOp:               vk.CompareOpAlways,
	}
	if err := Check(vk.CreateSampler(g.device(), &samplerInfo, nil, &t.Sampler)); err != nil {
		t.Destroy(g.device())
		return nil, fmt.Errorf("create sampler: %w", err)
	}
	return t, nil
}

// Update replaces the pixels. img must have the texture's dimensions.
func (t *Texture) Update(g *Graphics, img *image.RGBA) error {
	bounds := img.Bounds()
	if uint32(bounds.Dx()) != t.Image.Width || uint32(bounds.Dy()) != t.Image.Height {
		return fmt.Errorf("texture update: size %dx%d does not match %dx%d",
			bounds.Dx(), bounds.Dy(), t.Image.Width, t.Image.Height)
	}
	return t.upload(g, img, vk.ImageLayoutShaderReadOnlyOptimal)
}

func (t *Texture) upload(g *Graphics, img *image.RGBA, from vk.ImageLayout) error {
	pixels := packedPixels(img)

	staging, err := NewStagingBuffer(g.Context, uint64(len(pixels)))
	if err != nil {
		return fmt.Errorf("texture staging buffer: %w", err)
	}
	defer staging.Destroy()
	if err := staging.Update(pixels); err != nil {
		return err
	}

	cb, err := g.BeginSingleTimeCommands()
	if err != nil {
		return err
	}
	if err := t.Image.TransitionLayout(cb, from, vk.ImageLayoutTransferDstOptimal); err != nil {
		return err
	}
	t.Image.CopyFromBuffer(cb, staging.Handle)
	if err := t.Image.TransitionLayout(cb, vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutShaderReadOnlyOptimal); err != nil {
		return err
	}
	return g.SubmitSingleTimeCommands(cb)
}

func (t *Texture) Destroy(device vk.Device) {
	if t.Sampler != vk.NullSampler {
		vk.DestroySampler(device, t.Sampler, nil)
		t.Sampler = vk.NullSampler
	}
	if t.Image != nil {
		t.Image.Destroy(device)
	}
}

// packedPixels returns the pixel rows without stride padding.
func packedPixels(img *image.RGBA) []byte {
	bounds := img.Bounds()
	rowBytes := bounds.Dx() * 4
	if img.Stride == rowBytes && len(img.Pix) == rowBytes*bounds.Dy() {
		return img.Pix
	}
	out := make([]byte, 0, rowBytes*bounds.Dy())
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		start := img.PixOffset(bounds.Min.X, y)
		out = append(out, img.Pix[start:start+rowBytes]...)
	}
	return out
}
