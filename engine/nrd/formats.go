package nrd

import (
	"github.com/spaghettifunk/anima-denoiser/engine/denoiser"
	"github.com/spaghettifunk/anima-denoiser/engine/renderer/gpu"
)

var formatTable = [denoiser.FormatCount]gpu.Format{
	denoiser.FormatR8Unorm: gpu.FormatR8Unorm,
	denoiser.FormatR8Snorm: gpu.FormatR8Snorm,
	denoiser.FormatR8Uint:  gpu.FormatR8Uint,
	denoiser.FormatR8Sint:  gpu.FormatR8Sint,

	denoiser.FormatRG8Unorm: gpu.FormatRG8Unorm,
	denoiser.FormatRG8Snorm: gpu.FormatRG8Snorm,
	denoiser.FormatRG8Uint:  gpu.FormatRG8Uint,
	denoiser.FormatRG8Sint:  gpu.FormatRG8Sint,

	denoiser.FormatRGBA8Unorm: gpu.FormatRGBA8Unorm,
	denoiser.FormatRGBA8Snorm: gpu.FormatRGBA8Snorm,
	denoiser.FormatRGBA8Uint:  gpu.FormatRGBA8Uint,
	denoiser.FormatRGBA8Sint:  gpu.FormatRGBA8Sint,
	denoiser.FormatRGBA8Srgb:  gpu.FormatRGBA8Srgb,

	denoiser.FormatR16Unorm:  gpu.FormatR16Unorm,
	denoiser.FormatR16Snorm:  gpu.FormatR16Snorm,
	denoiser.FormatR16Uint:   gpu.FormatR16Uint,
	denoiser.FormatR16Sint:   gpu.FormatR16Sint,
	denoiser.FormatR16Sfloat: gpu.FormatR16Sfloat,

	denoiser.FormatRG16Unorm:  gpu.FormatRG16Unorm,
	denoiser.FormatRG16Snorm:  gpu.FormatRG16Snorm,
	denoiser.FormatRG16Uint:   gpu.FormatRG16Uint,
	denoiser.FormatRG16Sint:   gpu.FormatRG16Sint,
	denoiser.FormatRG16Sfloat: gpu.FormatRG16Sfloat,

	denoiser.FormatRGBA16Unorm:  gpu.FormatRGBA16Unorm,
	denoiser.FormatRGBA16Snorm:  gpu.FormatRGBA16Snorm,
	denoiser.FormatRGBA16Uint:   gpu.FormatRGBA16Uint,
	denoiser.FormatRGBA16Sint:   gpu.FormatRGBA16Sint,
	denoiser.FormatRGBA16Sfloat: gpu.FormatRGBA16Sfloat,

	denoiser.FormatR32Uint:   gpu.FormatR32Uint,
	denoiser.FormatR32Sint:   gpu.FormatR32Sint,
	denoiser.FormatR32Sfloat: gpu.FormatR32Sfloat,

	denoiser.FormatRG32Uint:   gpu.FormatRG32Uint,
	denoiser.FormatRG32Sint:   gpu.FormatRG32Sint,
	denoiser.FormatRG32Sfloat: gpu.FormatRG32Sfloat,

	denoiser.FormatRGB32Uint:   gpu.FormatRGB32Uint,
	denoiser.FormatRGB32Sint:   gpu.FormatRGB32Sint,
	denoiser.FormatRGB32Sfloat: gpu.FormatRGB32Sfloat,

	denoiser.FormatRGBA32Uint:   gpu.FormatRGBA32Uint,
	denoiser.FormatRGBA32Sint:   gpu.FormatRGBA32Sint,
	denoiser.FormatRGBA32Sfloat: gpu.FormatRGBA32Sfloat,

	denoiser.FormatR10G10B10A2Unorm: gpu.FormatR10G10B10A2Unorm,
	denoiser.FormatR10G10B10A2Uint:  gpu.FormatR10G10B10A2Uint,
	denoiser.FormatR11G11B10Ufloat:  gpu.FormatR11G11B10Ufloat,
	denoiser.FormatR9G9B9E5Ufloat:   gpu.FormatR9G9B9E5Ufloat,
}

// FormatToGPU maps a library format to the graphics format. Out of range values map to
// gpu.FormatUnknown.
func FormatToGPU(f denoiser.Format) gpu.Format {
	if f >= denoiser.FormatCount {
		return gpu.FormatUnknown
	}
	return formatTable[f]
}

type floatPolicy uint8

const (
	floatPolicyNone floatPolicy = iota
	floatPolicyPromote16to32
	floatPolicyDemote32to16
)

func (d IntegrationDesc) floatPolicy() floatPolicy {
	switch {
	case d.PromoteFloat16to32:
		return floatPolicyPromote16to32
	case d.DemoteFloat32to16:
		return floatPolicyDemote32to16
	default:
		return floatPolicyNone
	}
}

func (p floatPolicy) apply(f gpu.Format) gpu.Format {
	switch p {
	case floatPolicyPromote16to32:
		switch f {
		case gpu.FormatR16Sfloat:
			return gpu.FormatR32Sfloat
		case gpu.FormatRG16Sfloat:
			return gpu.FormatRG32Sfloat
		case gpu.FormatRGBA16Sfloat:
			return gpu.FormatRGBA32Sfloat
		}
	case floatPolicyDemote32to16:
		switch f {
		case gpu.FormatR32Sfloat:
			return gpu.FormatR16Sfloat
		case gpu.FormatRG32Sfloat:
			return gpu.FormatRG16Sfloat
		case gpu.FormatRGBA32Sfloat:
			return gpu.FormatRGBA16Sfloat
		}
	}
	return f
}

// normalFormatMatches reports whether a normal-roughness texture format can hold enc.
func normalFormatMatches(enc denoiser.NormalEncoding, f gpu.Format) bool {
	switch enc {
	case denoiser.NormalEncodingRGBA8Unorm:
		return f == gpu.FormatRGBA8Unorm
	case denoiser.NormalEncodingRGBA8Snorm:
		return f == gpu.FormatRGBA8Snorm
	case denoiser.NormalEncodingR10G10B10A2Unorm:
		return f == gpu.FormatR10G10B10A2Unorm
	case denoiser.NormalEncodingRGBA16Unorm:
		return f == gpu.FormatRGBA16Unorm
	case denoiser.NormalEncodingRGBA16Snorm:
		return f == gpu.FormatRGBA16Snorm || f == gpu.FormatRGBA16Sfloat || f == gpu.FormatRGBA32Sfloat
	default:
		return false
	}
}
