package vulkan

import (
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/anima-denoiser/engine/renderer/gpu"
)

// VulkanShaderStage is a compute shader module plus the stage info that references it.
type VulkanShaderStage struct {
	CreateInfo            vk.ShaderModuleCreateInfo
	Handle                vk.ShaderModule
	ShaderStageCreateInfo vk.PipelineShaderStageCreateInfo
}

// NewShaderModule creates a module from SPIR-V bytecode. The module can be destroyed as soon
// as the pipeline using it exists.
func NewShaderModule(context *VulkanContext, shader gpu.ShaderDesc) (*VulkanShaderStage, error) {
	code, err := spirvWords(shader.Bytecode)
	if err != nil {
		return nil, err
	}

	stage := &VulkanShaderStage{}
	stage.CreateInfo = vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint64(len(shader.Bytecode)),
		PCode:    code,
	}
	if res := vk.CreateShaderModule(context.Device.LogicalDevice, &stage.CreateInfo, context.Allocator, &stage.Handle); res != vk.Success {
		return nil, resultError("vkCreateShaderModule", res)
	}

	entry := shader.EntryPoint
	if entry == "" {
		entry = "main"
	}
	stage.ShaderStageCreateInfo = vk.PipelineShaderStageCreateInfo{
		SType:  vk.StructureTypePipelineShaderStageCreateInfo,
		Stage:  vk.ShaderStageComputeBit,
		Module: stage.Handle,
		PName:  VulkanSafeString(entry),
	}
	return stage, nil
}

func (s *VulkanShaderStage) Destroy(context *VulkanContext) {
	if s.Handle == nil {
		return
	}
	vk.DestroyShaderModule(context.Device.LogicalDevice, s.Handle, context.Allocator)
	s.Handle = nil
}
