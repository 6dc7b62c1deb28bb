package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/loop/engine/core"
)

// Swapchain holds the presentable images together with the per-image depth
// attachments and framebuffers. They are always rebuilt together.
type Swapchain struct {
	Handle      vk.Swapchain
	ImageFormat vk.SurfaceFormat
	Extent      vk.Extent2D
	Images      []vk.Image
	Views       []vk.ImageView

	DepthAttachments []*Image
	Framebuffers     []*Framebuffer
}

type SwapchainOptions struct {
	Requested     vk.Extent2D
	MinImageCount uint32
	PresentMode   string
}

// chooseSurfaceFormat prefers B8G8R8A8_UNORM with an sRGB non-linear color
// space and falls back to the first supported format.
func chooseSurfaceFormat(formats []vk.SurfaceFormat) vk.SurfaceFormat {
	for _, f := range formats {
		if f.Format == vk.FormatB8g8r8a8Unorm && f.ColorSpace == vk.ColorSpaceSrgbNonlinear {
			return f
		}
	}
	if len(formats) == 0 {
		return vk.SurfaceFormat{Format: vk.FormatB8g8r8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear}
	}
	return formats[0]
}

// choosePresentMode returns mailbox only when asked for and supported. FIFO
// is always available.
func choosePresentMode(modes []vk.PresentMode, preferred string) vk.PresentMode {
	if preferred == "mailbox" {
		for _, m := range modes {
			if m == vk.PresentModeMailbox {
				return m
			}
		}
		core.LogWarn("mailbox present mode not supported, using fifo")
	}
	return vk.PresentModeFifo
}

// clampImageCount applies the surface limits to the requested image count. A
// maxImageCount of zero means there is no upper limit.
func clampImageCount(requested uint32, capabilities vk.SurfaceCapabilities) uint32 {
	count := requested
	if count < capabilities.MinImageCount {
		count = capabilities.MinImageCount
	}
	if capabilities.MaxImageCount > 0 && count > capabilities.MaxImageCount {
		count = capabilities.MaxImageCount
	}
	return count
}

func NewSwapchain(ctx *Context, renderPass *RenderPass, opts SwapchainOptions) (*Swapchain, error) {
	device := ctx.Device.LogicalDevice
	support, err := ctx.SwapchainSupport()
	if err != nil {
		return nil, fmt.Errorf("query swapchain support: %w", err)
	}

	sc := &Swapchain{
		ImageFormat: chooseSurfaceFormat(support.Formats),
		Extent:      SelectSurfaceExtent(opts.Requested, support.Capabilities),
	}
	imageCount := clampImageCount(opts.MinImageCount, support.Capabilities)

	createInfo := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          ctx.Surface,
		MinImageCount:    imageCount,
		ImageFormat:      sc.ImageFormat.Format,
		ImageColorSpace:  sc.ImageFormat.ColorSpace,
		ImageExtent:      sc.Extent,
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		PreTransform:     support.Capabilities.CurrentTransform,
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		PresentMode:      choosePresentMode(support.PresentModes, opts.PresentMode),
		Clipped:          vk.True,
	}
	if ctx.Device.SharesQueue() {
		createInfo.ImageSharingMode = vk.SharingModeExclusive
	} else {
		createInfo.ImageSharingMode = vk.SharingModeConcurrent
		createInfo.QueueFamilyIndexCount = 2
		createInfo.PQueueFamilyIndices = []uint32{ctx.Device.GraphicsQueueIndex, ctx.Device.PresentQueueIndex}
	}

	if err := Check(vk.CreateSwapchain(device, &createInfo, nil, &sc.Handle)); err != nil {
		return nil, fmt.Errorf("create swapchain: %w", err)
	}

	var count uint32
	if err := Check(vk.GetSwapchainImages(device, sc.Handle, &count, nil)); err != nil {
		sc.Destroy(device)
		return nil, fmt.Errorf("get swapchain images: %w", err)
	}
	sc.Images = make([]vk.Image, count)
	if err := Check(vk.GetSwapchainImages(device, sc.Handle, &count, sc.Images)); err != nil {
		sc.Destroy(device)
		return nil, fmt.Errorf("get swapchain images: %w", err)
	}

	for _, image := range sc.Images {
		view, err := NewImageView(device, image, sc.ImageFormat.Format, vk.ImageAspectFlags(vk.ImageAspectColorBit))
		if err != nil {
			sc.Destroy(device)
			return nil, err
		}
		sc.Views = append(sc.Views, view)

		depth, err := NewImage(ctx, sc.Extent.Width, sc.Extent.Height, ImageOptions{
			Format:     ctx.Device.DepthFormat,
			Tiling:     vk.ImageTilingOptimal,
			Usage:      vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit),
			Memory:     vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit),
			CreateView: true,
			Aspect:     vk.ImageAspectFlags(vk.ImageAspectDepthBit),
		})
		if err != nil {
			sc.Destroy(device)
			return nil, fmt.Errorf("create depth attachment: %w", err)
		}
		sc.DepthAttachments = append(sc.DepthAttachments, depth)

		fb, err := NewFramebuffer(device, renderPass, sc.Extent.Width, sc.Extent.Height, []vk.ImageView{view, depth.View})
		if err != nil {
			sc.Destroy(device)
			return nil, err
		}
		sc.Framebuffers = append(sc.Framebuffers, fb)
	}

	core.LogInfo("swapchain created: %d images, %dx%d", len(sc.Images), sc.Extent.Width, sc.Extent.Height)
	return sc, nil
}

func (s *Swapchain) ImageCount() int {
	return len(s.Images)
}

// Destroy releases the framebuffers, depth attachments and views before the
// swapchain itself. The images belong to the swapchain.
func (s *Swapchain) Destroy(device vk.Device) {
	for _, fb := range s.Framebuffers {
		fb.Destroy(device)
	}
	for _, depth := range s.DepthAttachments {
		depth.Destroy(device)
	}
	for _, view := range s.Views {
		vk.DestroyImageView(device, view, nil)
	}
	s.Framebuffers = nil
	s.DepthAttachments = nil
	s.Views = nil
	s.Images = nil

	if s.Handle != vk.NullSwapchain {
		vk.DestroySwapchain(device, s.Handle, nil)
		s.Handle = vk.NullSwapchain
	}
}
