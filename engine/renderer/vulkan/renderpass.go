package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
)

// RenderPass is the default pass with one color and one depth attachment.
// The color attachment ends in ColorAttachmentOptimal; the transition to the
// present layout is recorded explicitly at submit time.
type RenderPass struct {
	Handle  vk.RenderPass
	Depth   float32
	Stencil uint32
}

func NewRenderPass(device vk.Device, colorFormat, depthFormat vk.Format) (*RenderPass, error) {
	attachments := []vk.AttachmentDescription{
		{
			Format:         colorFormat,
			Samples:        vk.SampleCount1Bit,
			LoadOp:         vk.AttachmentLoadOpClear,
			StoreOp:        vk.AttachmentStoreOpStore,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayoutUndefined,
			FinalLayout:    vk.ImageLayoutColorAttachmentOptimal,
		},
		{
			Format:         depthFormat,
			Samples:        vk.SampleCount1Bit,
			LoadOp:         vk.AttachmentLoadOpClear,
			StoreOp:        vk.AttachmentStoreOpDontCare,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayoutUndefined,
			FinalLayout:    vk.ImageLayoutDepthStencilAttachmentOptimal,
		},
	}

	colorReference := []vk.AttachmentReference{{
		Attachment: 0,
		Layout:     vk.ImageLayoutColorAttachmentOptimal,
	}}
	depthReference := vk.AttachmentReference{
		Attachment: 1,
		Layout:     vk.ImageLayoutDepthStencilAttachmentOptimal,
	}

	subpass := vk.SubpassDescription{
		PipelineBindPoint:       vk.PipelineBindPointGraphics,
		ColorAttachmentCount:    1,
		PColorAttachments:       colorReference,
		PDepthStencilAttachment: &depthReference,
	}

	dependency := vk.SubpassDependency{
		SrcSubpass:    vk.SubpassExternal,
		DstSubpass:    0,
		SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit | vk.PipelineStageEarlyFragmentTestsBit),
		DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit | vk.PipelineStageEarlyFragmentTestsBit),
		DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentReadBit | vk.AccessColorAttachmentWriteBit | vk.AccessDepthStencilAttachmentWriteBit),
	}

	createInfo := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: 1,
		PDependencies:   []vk.SubpassDependency{dependency},
	}

	var handle vk.RenderPass
	if err := Check(vk.CreateRenderPass(device, &createInfo, nil, &handle)); err != nil {
		return nil, fmt.Errorf("create render pass: %w", err)
	}
	return &RenderPass{Handle: handle, Depth: 1.0}, nil
}

func (r *RenderPass) Destroy(device vk.Device) {
	if r.Handle != vk.NullRenderPass {
		vk.DestroyRenderPass(device, r.Handle, nil)
		r.Handle = vk.NullRenderPass
	}
}

// Begin starts the pass over the whole extent, clearing color to clear and
// depth to r.Depth.
func (r *RenderPass) Begin(cb *CommandBuffer, framebuffer vk.Framebuffer, extent vk.Extent2D, clear [4]float32) {
	clearValues := make([]vk.ClearValue, 2)
	clearValues[0].SetColor(clear[:])
	clearValues[1].SetDepthStencil(r.Depth, r.Stencil)

	beginInfo := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  r.Handle,
		Framebuffer: framebuffer,
		RenderArea: vk.Rect2D{
			Offset: vk.Offset2D{X: 0, Y: 0},
			Extent: extent,
		},
		ClearValueCount: uint32(len(clearValues)),
		PClearValues:    clearValues,
	}
	vk.CmdBeginRenderPass(cb.Handle, &beginInfo, vk.SubpassContentsInline)
	cb.State = CommandBufferInRenderPass
}

func (r *RenderPass) End(cb *CommandBuffer) {
	vk.CmdEndRenderPass(cb.Handle)
	cb.State = CommandBufferRecording
}
