package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
)

/**
 * @brief Represents a single shader stage.
 */
type ShaderStage struct {
	/** @brief The internal shader module Handle. */
	Handle vk.ShaderModule
	/** @brief The pipeline shader stage creation info. */
	CreateInfo vk.PipelineShaderStageCreateInfo
}

// NewShaderStage creates a module from SPIR-V code and the matching stage
// info with entry point "main".
func NewShaderStage(device vk.Device, code []byte, stage vk.ShaderStageFlagBits) (*ShaderStage, error) {
	if len(code) == 0 {
		return nil, fmt.Errorf("create shader module: empty code")
	}
	words, err := BytesToUint32(code)
	if err != nil {
		return nil, fmt.Errorf("create shader module: %w", err)
	}

	createInfo := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint64(len(code)),
		PCode:    words,
	}
	s := &ShaderStage{}
	if err := Check(vk.CreateShaderModule(device, &createInfo, nil, &s.Handle)); err != nil {
		return nil, fmt.Errorf("create shader module: %w", err)
	}

	s.CreateInfo = vk.PipelineShaderStageCreateInfo{
		SType:  vk.StructureTypePipelineShaderStageCreateInfo,
		Stage:  stage,
		Module: s.Handle,
		PName:  VulkanSafeString("main"),
	}
	return s, nil
}

func (s *ShaderStage) Destroy(device vk.Device) {
	if s.Handle != vk.NullShaderModule {
		vk.DestroyShaderModule(device, s.Handle, nil)
		s.Handle = vk.NullShaderModule
	}
}
