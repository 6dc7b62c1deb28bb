package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/loop/engine/core"
)

/**
 * @brief Holds a Vulkan pipeline and its layout.
 */
type Pipeline struct {
	/** @brief The internal pipeline handle. */
	Handle vk.Pipeline
	/** @brief The pipeline layout. */
	Layout vk.PipelineLayout
}

type PipelineConfig struct {
	/** @brief The renderpass to associate with the pipeline. */
	RenderPass *RenderPass
	/** @brief Vertex buffer bindings, one per bound buffer. */
	Bindings []vk.VertexInputBindingDescription
	/** @brief Vertex attributes read from the bindings. */
	Attributes []vk.VertexInputAttributeDescription
	/** @brief Descriptor set layouts in set order. */
	DescriptorSetLayouts []vk.DescriptorSetLayout
	/** @brief Shader stages. */
	Stages []vk.PipelineShaderStageCreateInfo
	/** @brief Enables the depth test with write and LESS comparison. */
	DepthTest bool
	/** @brief Enables standard alpha blending. Otherwise color is written as is. */
	AlphaBlend bool
}

// NewGraphicsPipeline builds a triangle-list pipeline with no culling,
// counter-clockwise front faces and dynamic viewport and scissor.
func NewGraphicsPipeline(device vk.Device, config *PipelineConfig) (*Pipeline, error) {
	if config.RenderPass == nil {
		return nil, fmt.Errorf("create pipeline: no render pass")
	}
	pipeline := &Pipeline{}

	// Viewport and scissor are dynamic, only the counts matter here.
	viewportState := vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		ScissorCount:  1,
	}

	rasterizer := vk.PipelineRasterizationStateCreateInfo{
		SType:                   vk.StructureTypePipelineRasterizationStateCreateInfo,
		DepthClampEnable:        vk.False,
		RasterizerDiscardEnable: vk.False,
		PolygonMode:             vk.PolygonModeFill,
		CullMode:                vk.CullModeFlags(vk.CullModeNone),
		FrontFace:               vk.FrontFaceCounterClockwise,
		DepthBiasEnable:         vk.False,
		LineWidth:               1.0,
	}

	multisampling := vk.PipelineMultisampleStateCreateInfo{
		SType:                 vk.StructureTypePipelineMultisampleStateCreateInfo,
		SampleShadingEnable:   vk.False,
		RasterizationSamples:  vk.SampleCount1Bit,
		MinSampleShading:      1.0,
		AlphaToCoverageEnable: vk.False,
		AlphaToOneEnable:      vk.False,
	}

	depthStencil := vk.PipelineDepthStencilStateCreateInfo{
		SType:             vk.StructureTypePipelineDepthStencilStateCreateInfo,
		DepthTestEnable:   vk.False,
		DepthWriteEnable:  vk.False,
		StencilTestEnable: vk.False,
	}
	if config.DepthTest {
		depthStencil.DepthTestEnable = vk.True
		depthStencil.DepthWriteEnable = vk.True
		depthStencil.DepthCompareOp = vk.CompareOpLess
		depthStencil.DepthBoundsTestEnable = vk.False
	}

	colorBlendAttachment := vk.PipelineColorBlendAttachmentState{
		BlendEnable: vk.False,
		ColorWriteMask: vk.ColorComponentFlags(vk.ColorComponentRBit) | vk.ColorComponentFlags(vk.ColorComponentGBit) |
			vk.ColorComponentFlags(vk.ColorComponentBBit) | vk.ColorComponentFlags(vk.ColorComponentABit),
	}
	if config.AlphaBlend {
		colorBlendAttachment.BlendEnable = vk.True
		colorBlendAttachment.SrcColorBlendFactor = vk.BlendFactorSrcAlpha
		colorBlendAttachment.DstColorBlendFactor = vk.BlendFactorOneMinusSrcAlpha
		colorBlendAttachment.ColorBlendOp = vk.BlendOpAdd
		colorBlendAttachment.SrcAlphaBlendFactor = vk.BlendFactorOne
		colorBlendAttachment.DstAlphaBlendFactor = vk.BlendFactorZero
		colorBlendAttachment.AlphaBlendOp = vk.BlendOpAdd
	}

	colorBlend := vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		LogicOpEnable:   vk.False,
		LogicOp:         vk.LogicOpCopy,
		AttachmentCount: 1,
		PAttachments:    []vk.PipelineColorBlendAttachmentState{colorBlendAttachment},
	}

	dynamicStates := []vk.DynamicState{
		vk.DynamicStateViewport,
		vk.DynamicStateScissor,
	}
	dynamicState := vk.PipelineDynamicStateCreateInfo{
		SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
		DynamicStateCount: uint32(len(dynamicStates)),
		PDynamicStates:    dynamicStates,
	}

	vertexInput := vk.PipelineVertexInputStateCreateInfo{
		SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
		VertexBindingDescriptionCount:   uint32(len(config.Bindings)),
		PVertexBindingDescriptions:      config.Bindings,
		VertexAttributeDescriptionCount: uint32(len(config.Attributes)),
		PVertexAttributeDescriptions:    config.Attributes,
	}

	inputAssembly := vk.PipelineInputAssemblyStateCreateInfo{
		SType:                  vk.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology:               vk.PrimitiveTopologyTriangleList,
		PrimitiveRestartEnable: vk.False,
	}

	layoutInfo := vk.PipelineLayoutCreateInfo{
		SType:          vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount: uint32(len(config.DescriptorSetLayouts)),
		PSetLayouts:    config.DescriptorSetLayouts,
	}
	if err := Check(vk.CreatePipelineLayout(device, &layoutInfo, nil, &pipeline.Layout)); err != nil {
		return nil, fmt.Errorf("create pipeline layout: %w", err)
	}

	createInfo := vk.GraphicsPipelineCreateInfo{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:          uint32(len(config.Stages)),
		PStages:             config.Stages,
		PVertexInputState:   &vertexInput,
		PInputAssemblyState: &inputAssembly,
		PViewportState:      &viewportState,
		PRasterizationState: &rasterizer,
		PMultisampleState:   &multisampling,
		PDepthStencilState:  &depthStencil,
		PColorBlendState:    &colorBlend,
		PDynamicState:       &dynamicState,
		Layout:              pipeline.Layout,
		RenderPass:          config.RenderPass.Handle,
		Subpass:             0,
		BasePipelineHandle:  vk.NullPipeline,
		BasePipelineIndex:   -1,
	}

	pipelines := make([]vk.Pipeline, 1)
	result := vk.CreateGraphicsPipelines(device, vk.NullPipelineCache, 1, []vk.GraphicsPipelineCreateInfo{createInfo}, nil, pipelines)
	if err := Check(result); err != nil {
		pipeline.Destroy(device)
		return nil, fmt.Errorf("create graphics pipeline: %w", err)
	}
	pipeline.Handle = pipelines[0]

	core.LogDebug("graphics pipeline created (%d stages, %d bindings)", len(config.Stages), len(config.Bindings))
	return pipeline, nil
}

func (p *Pipeline) Destroy(device vk.Device) {
	if p.Handle != vk.NullPipeline {
		vk.DestroyPipeline(device, p.Handle, nil)
		p.Handle = vk.NullPipeline
	}
	if p.Layout != vk.NullPipelineLayout {
		vk.DestroyPipelineLayout(device, p.Layout, nil)
		p.Layout = vk.NullPipelineLayout
	}
}

func (p *Pipeline) Bind(cb *CommandBuffer) {
	vk.CmdBindPipeline(cb.Handle, vk.PipelineBindPointGraphics, p.Handle)
}
