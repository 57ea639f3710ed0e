package gpu

// Format is a texel format.
type Format uint8

const (
	FormatUnknown Format = iota

	FormatR8Unorm
	FormatR8Snorm
	FormatR8Uint
	FormatR8Sint

	FormatRG8Unorm
	FormatRG8Snorm
	FormatRG8Uint
	FormatRG8Sint

	FormatRGBA8Unorm
	FormatRGBA8Snorm
	FormatRGBA8Uint
	FormatRGBA8Sint
	FormatRGBA8Srgb

	FormatR16Unorm
	FormatR16Snorm
	FormatR16Uint
	FormatR16Sint
	FormatR16Sfloat

	FormatRG16Unorm
	FormatRG16Snorm
	FormatRG16Uint
	FormatRG16Sint
	FormatRG16Sfloat

	FormatRGBA16Unorm
	FormatRGBA16Snorm
	FormatRGBA16Uint
	FormatRGBA16Sint
	FormatRGBA16Sfloat

	FormatR32Uint
	FormatR32Sint
	FormatR32Sfloat

	FormatRG32Uint
	FormatRG32Sint
	FormatRG32Sfloat

	FormatRGB32Uint
	FormatRGB32Sint
	FormatRGB32Sfloat

	FormatRGBA32Uint
	FormatRGBA32Sint
	FormatRGBA32Sfloat

	FormatR10G10B10A2Unorm
	FormatR10G10B10A2Uint
	FormatR11G11B10Ufloat
	FormatR9G9B9E5Ufloat

	formatCount
)

var formatNames = [formatCount]string{
	"UNKNOWN",
	"R8_UNORM", "R8_SNORM", "R8_UINT", "R8_SINT",
	"RG8_UNORM", "RG8_SNORM", "RG8_UINT", "RG8_SINT",
	"RGBA8_UNORM", "RGBA8_SNORM", "RGBA8_UINT", "RGBA8_SINT", "RGBA8_SRGB",
	"R16_UNORM", "R16_SNORM", "R16_UINT", "R16_SINT", "R16_SFLOAT",
	"RG16_UNORM", "RG16_SNORM", "RG16_UINT", "RG16_SINT", "RG16_SFLOAT",
	"RGBA16_UNORM", "RGBA16_SNORM", "RGBA16_UINT", "RGBA16_SINT", "RGBA16_SFLOAT",
	"R32_UINT", "R32_SINT", "R32_SFLOAT",
	"RG32_UINT", "RG32_SINT", "RG32_SFLOAT",
	"RGB32_UINT", "RGB32_SINT", "RGB32_SFLOAT",
	"RGBA32_UINT", "RGBA32_SINT", "RGBA32_SFLOAT",
	"R10_G10_B10_A2_UNORM", "R10_G10_B10_A2_UINT", "R11_G11_B10_UFLOAT", "R9_G9_B9_E5_UFLOAT",
}

func (f Format) String() string {
	if f >= formatCount {
		return "INVALID"
	}
	return formatNames[f]
}

// BytesPerBlock returns the size of one texel in bytes, 0 for unknown formats.
func (f Format) BytesPerBlock() uint32 {
	switch {
	case f >= FormatR8Unorm && f <= FormatR8Sint:
		return 1
	case f >= FormatRG8Unorm && f <= FormatRG8Sint,
		f >= FormatR16Unorm && f <= FormatR16Sfloat:
		return 2
	case f >= FormatRGBA8Unorm && f <= FormatRGBA8Srgb,
		f >= FormatRG16Unorm && f <= FormatRG16Sfloat,
		f >= FormatR32Uint && f <= FormatR32Sfloat,
		f >= FormatR10G10B10A2Unorm && f <= FormatR9G9B9E5Ufloat:
		return 4
	case f >= FormatRGBA16Unorm && f <= FormatRGBA16Sfloat,
		f >= FormatRG32Uint && f <= FormatRG32Sfloat:
		return 8
	case f >= FormatRGB32Uint && f <= FormatRGB32Sfloat:
		return 12
	case f >= FormatRGBA32Uint && f <= FormatRGBA32Sfloat:
		return 16
	default:
		return 0
	}
}
