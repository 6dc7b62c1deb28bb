package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
)

type Framebuffer struct {
	Handle      vk.Framebuffer
	Attachments []vk.ImageView
}

func NewFramebuffer(device vk.Device, renderPass *RenderPass, width, height uint32, attachments []vk.ImageView) (*Framebuffer, error) {
	fb := &Framebuffer{Attachments: append([]vk.ImageView{}, attachments...)}

	createInfo := vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      renderPass.Handle,
		AttachmentCount: uint32(len(fb.Attachments)),
		PAttachments:    fb.Attachments,
		Width:           width,
		Height:          height,
		Layers:          1,
	}

	var handle vk.Framebuffer
	if err := Check(vk.CreateFramebuffer(device, &createInfo, nil, &handle)); err != nil {
		return nil, fmt.Errorf("create framebuffer: %w", err)
	}
	fb.Handle = handle
	return fb, nil
}

func (f *Framebuffer) Destroy(device vk.Device) {
	if f.Handle != vk.NullFramebuffer {
		vk.DestroyFramebuffer(device, f.Handle, nil)
		f.Handle = vk.NullFramebuffer
	}
	f.Attachments = nil
}
