package vulkan

import (
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/anima-denoiser/engine/renderer/gpu"
)

var formatTable = map[gpu.Format]vk.Format{
	gpu.FormatR8Unorm: vk.FormatR8Unorm,
	gpu.FormatR8Snorm: vk.FormatR8Snorm,
	gpu.FormatR8Uint:  vk.FormatR8Uint,
	gpu.FormatR8Sint:  vk.FormatR8Sint,

	gpu.FormatRG8Unorm: vk.FormatR8g8Unorm,
	gpu.FormatRG8Snorm: vk.FormatR8g8Snorm,
	gpu.FormatRG8Uint:  vk.FormatR8g8Uint,
	gpu.FormatRG8Sint:  vk.FormatR8g8Sint,

	gpu.FormatRGBA8Unorm: vk.FormatR8g8b8a8Unorm,
	gpu.FormatRGBA8Snorm: vk.FormatR8g8b8a8Snorm,
	gpu.FormatRGBA8Uint:  vk.FormatR8g8b8a8Uint,
	gpu.FormatRGBA8Sint:  vk.FormatR8g8b8a8Sint,
	gpu.FormatRGBA8Srgb:  vk.FormatR8g8b8a8Srgb,

	gpu.FormatR16Unorm:  vk.FormatR16Unorm,
	gpu.FormatR16Snorm:  vk.FormatR16Snorm,
	gpu.FormatR16Uint:   vk.FormatR16Uint,
	gpu.FormatR16Sint:   vk.FormatR16Sint,
	gpu.FormatR16Sfloat: vk.FormatR16Sfloat,

	gpu.FormatRG16Unorm:  vk.FormatR16g16Unorm,
	gpu.FormatRG16Snorm:  vk.FormatR16g16Snorm,
	gpu.FormatRG16Uint:   vk.FormatR16g16Uint,
	gpu.FormatRG16Sint:   vk.FormatR16g16Sint,
	gpu.FormatRG16Sfloat: vk.FormatR16g16Sfloat,

	gpu.FormatRGBA16Unorm:  vk.FormatR16g16b16a16Unorm,
	gpu.FormatRGBA16Snorm:  vk.FormatR16g16b16a16Snorm,
	gpu.FormatRGBA16Uint:   vk.FormatR16g16b16a16Uint,
	gpu.FormatRGBA16Sint:   vk.FormatR16g16b16a16Sint,
	gpu.FormatRGBA16Sfloat: vk.FormatR16g16b16a16Sfloat,

	gpu.FormatR32Uint:   vk.FormatR32Uint,
	gpu.FormatR32Sint:   vk.FormatR32Sint,
	gpu.FormatR32Sfloat: vk.FormatR32Sfloat,

	gpu.FormatRG32Uint:   vk.FormatR32g32Uint,
	gpu.FormatRG32Sint:   vk.FormatR32g32Sint,
	gpu.FormatRG32Sfloat: vk.FormatR32g32Sfloat,

	gpu.FormatRGB32Uint:   vk.FormatR32g32b32Uint,
	gpu.FormatRGB32Sint:   vk.FormatR32g32b32Sint,
	gpu.FormatRGB32Sfloat: vk.FormatR32g32b32Sfloat,

	gpu.FormatRGBA32Uint:   vk.FormatR32g32b32a32Uint,
	gpu.FormatRGBA32Sint:   vk.FormatR32g32b32a32Sint,
	gpu.FormatRGBA32Sfloat: vk.FormatR32g32b32a32Sfloat,

	gpu.FormatR10G10B10A2Unorm: vk.FormatA2b10g10r10UnormPack32,
	gpu.FormatR10G10B10A2Uint:  vk.FormatA2b10g10r10UintPack32,
	gpu.FormatR11G11B10Ufloat:  vk.FormatB10g11r11UfloatPack32,
	gpu.FormatR9G9B9E5Ufloat:   vk.FormatE5b9g9r9UfloatPack32,
}

// FormatToVK returns vk.FormatUndefined for formats without a Vulkan equivalent.
func FormatToVK(f gpu.Format) vk.Format {
	if vf, ok := formatTable[f]; ok {
		return vf
	}
	return vk.FormatUndefined
}

// FormatFromVK is the inverse of FormatToVK, used when wrapping native images.
func FormatFromVK(vf vk.Format) gpu.Format {
	for f, v := range formatTable {
		if v == vf {
			return f
		}
	}
	return gpu.FormatUnknown
}

func toVkAccess(a gpu.Access) vk.AccessFlags {
	var flags vk.AccessFlagBits
	if a&gpu.AccessShaderResource != 0 {
		flags |= vk.AccessShaderReadBit
	}
	if a&gpu.AccessShaderResourceStorage != 0 {
		flags |= vk.AccessShaderReadBit | vk.AccessShaderWriteBit
	}
	if a&gpu.AccessConstantBuffer != 0 {
		flags |= vk.AccessUniformReadBit
	}
	if a&gpu.AccessCopySource != 0 {
		flags |= vk.AccessTransferReadBit
	}
	if a&gpu.AccessCopyDestination != 0 {
		flags |= vk.AccessTransferWriteBit
	}
	if a&gpu.AccessColorAttachment != 0 {
		flags |= vk.AccessColorAttachmentWriteBit
	}
	return vk.AccessFlags(flags)
}

func toVkLayout(l gpu.Layout) vk.ImageLayout {
	switch l {
	case gpu.LayoutGeneral, gpu.LayoutShaderResourceStorage:
		return vk.ImageLayoutGeneral
	case gpu.LayoutShaderResource:
		return vk.ImageLayoutShaderReadOnlyOptimal
	case gpu.LayoutCopySource:
		return vk.ImageLayoutTransferSrcOptimal
	case gpu.LayoutCopyDestination:
		return vk.ImageLayoutTransferDstOptimal
	case gpu.LayoutColorAttachment:
		return vk.ImageLayoutColorAttachmentOptimal
	default:
		return vk.ImageLayoutUndefined
	}
}

// toVkStages maps a stage set. An empty set becomes top-of-pipe on the source side
// and bottom-of-pipe on the destination side.
func toVkStages(s gpu.Stage, src bool) vk.PipelineStageFlags {
	if s&gpu.StageAll != 0 {
		return vk.PipelineStageFlags(vk.PipelineStageAllCommandsBit)
	}
	var flags vk.PipelineStageFlagBits
	if s&gpu.StageComputeShader != 0 {
		flags |= vk.PipelineStageComputeShaderBit
	}
	if s&gpu.StageFragmentShader != 0 {
		flags |= vk.PipelineStageFragmentShaderBit
	}
	if s&gpu.StageCopy != 0 {
		flags |= vk.PipelineStageTransferBit
	}
	if flags == 0 {
		if src {
			flags = vk.PipelineStageTopOfPipeBit
		} else {
			flags = vk.PipelineStageBottomOfPipeBit
		}
	}
	return vk.PipelineStageFlags(flags)
}

func toVkFilter(f gpu.Filter) vk.Filter {
	if f == gpu.FilterLinear {
		return vk.FilterLinear
	}
	return vk.FilterNearest
}

func toVkMipmapMode(f gpu.Filter) vk.SamplerMipmapMode {
	if f == gpu.FilterLinear {
		return vk.SamplerMipmapModeLinear
	}
	return vk.SamplerMipmapModeNearest
}

func toVkAddressMode(m gpu.AddressMode) vk.SamplerAddressMode {
	switch m {
	case gpu.AddressRepeat:
		return vk.SamplerAddressModeRepeat
	case gpu.AddressMirroredRepeat:
		return vk.SamplerAddressModeMirroredRepeat
	default:
		return vk.SamplerAddressModeClampToEdge
	}
}

func toVkDescriptorType(t gpu.DescriptorType) vk.DescriptorType {
	switch t {
	case gpu.DescriptorStorageTexture:
		return vk.DescriptorTypeStorageImage
	case gpu.DescriptorConstantBuffer:
		return vk.DescriptorTypeUniformBufferDynamic
	case gpu.DescriptorSampler:
		return vk.DescriptorTypeSampler
	default:
		return vk.DescriptorTypeSampledImage
	}
}

func toVkImageUsage(u gpu.TextureUsage) vk.ImageUsageFlags {
	var flags vk.ImageUsageFlagBits
	if u&gpu.TextureUsageShaderResource != 0 {
		flags |= vk.ImageUsageSampledBit
	}
	if u&gpu.TextureUsageShaderResourceStorage != 0 {
		flags |= vk.ImageUsageStorageBit
	}
	return vk.ImageUsageFlags(flags)
}

// memoryProperties lists the property sets tried, in order, for a location.
func memoryProperties(loc gpu.MemoryLocation) []vk.MemoryPropertyFlagBits {
	switch loc {
	case gpu.MemoryDeviceUpload:
		return []vk.MemoryPropertyFlagBits{
			vk.MemoryPropertyDeviceLocalBit | vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit,
			vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit,
		}
	case gpu.MemoryHostUpload:
		return []vk.MemoryPropertyFlagBits{vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit}
	default:
		return []vk.MemoryPropertyFlagBits{vk.MemoryPropertyDeviceLocalBit}
	}
}

func isHostVisible(loc gpu.MemoryLocation) bool {
	return loc != gpu.MemoryDevice
}
