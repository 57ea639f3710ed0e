package nrd

import (
	"github.com/spaghettifunk/anima-denoiser/engine/denoiser"
	"github.com/spaghettifunk/anima-denoiser/engine/renderer/gpu"
)

// Descriptor ranges of the resource set.
const (
	rangeTextures uint32 = iota
	rangeStorages
	rangeCount
)

// pipelineLayoutDesc derives the shared compute layout: one root constant buffer, the library
// samplers as root samplers and one set with a texture and a storage texture range. SPIR-V
// binding offsets only apply on Vulkan.
func pipelineLayoutDesc(inst denoiser.InstanceDesc, lib denoiser.LibraryDesc, api gpu.API) gpu.PipelineLayoutDesc {
	var offsets denoiser.SPIRVBindingOffsets
	if api == gpu.APIVulkan {
		offsets = lib.SPIRVBindingOffsets
	}

	ranges := make([]gpu.DescriptorRangeDesc, rangeCount)
	ranges[rangeTextures] = gpu.DescriptorRangeDesc{
		BaseRegisterIndex: offsets.TextureOffset + inst.ResourcesBaseRegisterIndex,
		DescriptorNum:     inst.DescriptorPoolDesc.PerSetTexturesMaxNum,
		Type:              gpu.DescriptorTexture,
		Flags:             gpu.RangePartiallyBound,
	}
	ranges[rangeStorages] = gpu.DescriptorRangeDesc{
		BaseRegisterIndex: offsets.StorageTextureAndBufferOffset + inst.ResourcesBaseRegisterIndex,
		DescriptorNum:     inst.DescriptorPoolDesc.PerSetStorageTexturesMaxNum,
		Type:              gpu.DescriptorStorageTexture,
		Flags:             gpu.RangePartiallyBound,
	}

	samplers := make([]gpu.RootSamplerDesc, 0, len(inst.Samplers))
	for i, s := range inst.Samplers {
		filter := gpu.FilterLinear
		if s == denoiser.SamplerNearestClamp {
			filter = gpu.FilterNearest
		}
		samplers = append(samplers, gpu.RootSamplerDesc{
			RegisterIndex: offsets.SamplerOffset + inst.SamplersBaseRegisterIndex + uint32(i),
			Desc:          gpu.SamplerDesc{Filter: filter, AddressMode: gpu.AddressClampToEdge},
		})
	}

	return gpu.PipelineLayoutDesc{
		RootRegisterSpace: inst.ConstantBufferAndSamplersSpaceIndex,
		RootConstantBuffers: []gpu.RootDescriptorDesc{{
			RegisterIndex: offsets.ConstantBufferOffset + inst.ConstantBufferRegisterIndex,
			Type:          gpu.DescriptorConstantBuffer,
		}},
		RootSamplers: samplers,
		DescriptorSets: []gpu.DescriptorSetDesc{{
			RegisterSpace: inst.ResourcesSpaceIndex,
			Ranges:        ranges,
		}},
	}
}

// descriptorPoolDesc sizes one pool for a full frame of dispatches.
func descriptorPoolDesc(inst denoiser.InstanceDesc) gpu.DescriptorPoolDesc {
	pd := inst.DescriptorPoolDesc
	return gpu.DescriptorPoolDesc{
		DescriptorSetMaxNum:  pd.SetsMaxNum,
		TextureMaxNum:        pd.SetsMaxNum * pd.PerSetTexturesMaxNum,
		StorageTextureMaxNum: pd.SetsMaxNum * pd.PerSetStorageTexturesMaxNum,
	}
}

// shaderKind selects the bytecode for an API: DXBC for D3D11, DXIL for D3D12, SPIR-V for Vulkan.
func shaderKind(api gpu.API) int {
	return max(int(api)-1, 0)
}
