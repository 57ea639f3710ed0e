// Package denoiser models the denoising library the integration drives: each denoiser is a
// declarative graph of compute passes over named resource roles and pooled textures.
package denoiser

const (
	VersionMajor uint8 = 4
	VersionMinor uint8 = 11
	VersionBuild uint8 = 3
)

// Format is a texture format as declared by the library.
type Format uint8

const (
	FormatR8Unorm Format = iota
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

	FormatCount
)

// ResourceType is the role a resource plays in a dispatch. Roles below RoleCount are supplied
// by the caller through a snapshot; TransientPool and PermanentPool refer to pooled textures.
type ResourceType uint8

const (
	InMV ResourceType = iota
	InNormalRoughness
	InViewZ
	InDiffRadianceHitDist
	InSpecRadianceHitDist
	InDiffHitDist
	InSpecHitDist
	InDiffDirectionHitDist
	InDiffSH0
	InDiffSH1
	InSpecSH0
	InSpecSH1
	InDiffConfidence
	InSpecConfidence
	InDisocclusionThresholdMix
	InBaseColorMetalness
	InPenumbra
	InTranslucency
	InSignal

	OutDiffRadianceHitDist
	OutSpecRadianceHitDist
	OutDiffSH0
	OutDiffSH1
	OutSpecSH0
	OutSpecSH1
	OutDiffHitDist
	OutSpecHitDist
	OutDiffDirectionHitDist
	OutShadowTranslucency
	OutSignal
	OutValidation

	TransientPool
	PermanentPool
)

// RoleCount is the number of caller supplied roles.
const RoleCount = int(TransientPool)

var resourceTypeNames = [...]string{
	"IN_MV",
	"IN_NORMAL_ROUGHNESS",
	"IN_VIEWZ",
	"IN_DIFF_RADIANCE_HITDIST",
	"IN_SPEC_RADIANCE_HITDIST",
	"IN_DIFF_HITDIST",
	"IN_SPEC_HITDIST",
	"IN_DIFF_DIRECTION_HITDIST",
	"IN_DIFF_SH0",
	"IN_DIFF_SH1",
	"IN_SPEC_SH0",
	"IN_SPEC_SH1",
	"IN_DIFF_CONFIDENCE",
	"IN_SPEC_CONFIDENCE",
	"IN_DISOCCLUSION_THRESHOLD_MIX",
	"IN_BASECOLOR_METALNESS",
	"IN_PENUMBRA",
	"IN_TRANSLUCENCY",
	"IN_SIGNAL",
	"OUT_DIFF_RADIANCE_HITDIST",
	"OUT_SPEC_RADIANCE_HITDIST",
	"OUT_DIFF_SH0",
	"OUT_DIFF_SH1",
	"OUT_SPEC_SH0",
	"OUT_SPEC_SH1",
	"OUT_DIFF_HITDIST",
	"OUT_SPEC_HITDIST",
	"OUT_DIFF_DIRECTION_HITDIST",
	"OUT_SHADOW_TRANSLUCENCY",
	"OUT_SIGNAL",
	"OUT_VALIDATION",
	"TRANSIENT_POOL",
	"PERMANENT_POOL",
}

func (t ResourceType) String() string {
	if int(t) >= len(resourceTypeNames) {
		return "UNKNOWN"
	}
	return resourceTypeNames[t]
}

// IsRole reports whether t is a caller supplied role.
func (t ResourceType) IsRole() bool {
	return int(t) < RoleCount
}

type DescriptorType uint8

const (
	DescriptorTexture DescriptorType = iota
	DescriptorStorageTexture
)

type Sampler uint8

const (
	SamplerNearestClamp Sampler = iota
	SamplerLinearClamp
)

// NormalEncoding is the packing the library expects for IN_NORMAL_ROUGHNESS.
type NormalEncoding uint8

const (
	NormalEncodingRGBA8Unorm NormalEncoding = iota
	NormalEncodingRGBA8Snorm
	NormalEncodingR10G10B10A2Unorm
	NormalEncodingRGBA16Unorm
	NormalEncodingRGBA16Snorm
)

type AccumulationMode uint8

const (
	AccumulationContinue AccumulationMode = iota
	AccumulationRestart
	AccumulationClearAndRestart
)

// Denoiser names an algorithm the library can instantiate.
type Denoiser uint8

const (
	SigmaShadow Denoiser = iota
)

func (d Denoiser) String() string {
	switch d {
	case SigmaShadow:
		return "SIGMA_SHADOW"
	default:
		return "UNKNOWN"
	}
}

// Identifier is chosen by the caller to address a denoiser within an instance.
type Identifier uint32

type DenoiserDesc struct {
	Identifier Identifier
	Denoiser   Denoiser
}

type InstanceCreationDesc struct {
	Denoisers []DenoiserDesc
}

// TextureDesc is one pooled texture: format and integer downsample factor.
type TextureDesc struct {
	Format           Format
	DownsampleFactor uint16
}

// ResourceDesc is one resource a dispatch reads or writes.
type ResourceDesc struct {
	DescriptorType DescriptorType
	Type           ResourceType
	IndexInPool    uint16
}

type ResourceRangeDesc struct {
	DescriptorType DescriptorType
	DescriptorsNum uint32
}

// Shader bytecode kinds, indexed by graphics API: D3D11 uses DXBC, D3D12 DXIL, Vulkan SPIR-V.
const (
	ShaderDXBC = iota
	ShaderDXIL
	ShaderSPIRV
	shaderKindCount
)

type ComputeShaderDesc struct {
	Bytecode []byte
}

type PipelineDesc struct {
	ShaderFileName string
	ComputeShaders [shaderKindCount]ComputeShaderDesc
	// ResourceRanges is either [textures, storage textures] or [storage textures].
	ResourceRanges []ResourceRangeDesc
}

type DescriptorPoolDesc struct {
	SetsMaxNum                  uint32
	PerSetTexturesMaxNum        uint32
	PerSetStorageTexturesMaxNum uint32
}

type InstanceDesc struct {
	ConstantBufferMaxDataSize           uint32
	ConstantBufferRegisterIndex         uint32
	ConstantBufferAndSamplersSpaceIndex uint32
	SamplersBaseRegisterIndex           uint32
	ResourcesBaseRegisterIndex          uint32
	ResourcesSpaceIndex                 uint32
	ShaderEntryPoint                    string

	Samplers      []Sampler
	Pipelines     []PipelineDesc
	PermanentPool []TextureDesc
	TransientPool []TextureDesc

	DescriptorPoolDesc DescriptorPoolDesc
}

// DispatchDesc is one compute dispatch to record.
type DispatchDesc struct {
	Name       string
	Identifier Identifier
	// Resources lists textures first, then storage textures, matching the pipeline ranges.
	Resources     []ResourceDesc
	PipelineIndex uint16
	GridWidth     uint16
	GridHeight    uint16

	ConstantBufferData []byte
	// ConstantBufferDataMatchesPreviousDispatch is set when ConstantBufferData equals the data
	// of the dispatch right before it in the same ComputeDispatches result.
	ConstantBufferDataMatchesPreviousDispatch bool
}

type SPIRVBindingOffsets struct {
	SamplerOffset                 uint32
	TextureOffset                 uint32
	ConstantBufferOffset          uint32
	StorageTextureAndBufferOffset uint32
}

type LibraryDesc struct {
	SPIRVBindingOffsets SPIRVBindingOffsets
	SupportedDenoisers  []Denoiser
	VersionMajor        uint8
	VersionMinor        uint8
	VersionBuild        uint8
	NormalEncoding      NormalEncoding
}

// CommonSettings apply to every denoiser of an instance.
type CommonSettings struct {
	MotionVectorScale          [3]float32
	CameraJitter               [2]float32
	ResourceSize               [2]uint16
	ResourceSizePrev           [2]uint16
	RectSize                   [2]uint16
	RectSizePrev               [2]uint16
	ViewZScale                 float32
	DenoisingRange             float32
	SplitScreen                float32
	FrameIndex                 uint32
	AccumulationMode           AccumulationMode
	IsMotionVectorInWorldSpace bool
}

// DefaultCommonSettings returns settings for a full-rect 1x1 resource; callers overwrite the sizes.
func DefaultCommonSettings() CommonSettings {
	return CommonSettings{
		MotionVectorScale: [3]float32{1, 1, 0},
		ViewZScale:        1,
		DenoisingRange:    500000,
	}
}

// SigmaSettings tune the SIGMA shadow denoiser.
type SigmaSettings struct {
	LightDirection           [3]float32
	PlaneDistanceSensitivity float32
	// MaxStabilizedFrameNum of zero disables temporal stabilization.
	MaxStabilizedFrameNum uint32
}

const SigmaMaxHistoryFrameNum uint32 = 7

func DefaultSigmaSettings() SigmaSettings {
	return SigmaSettings{
		LightDirection:           [3]float32{0, 0, 0},
		PlaneDistanceSensitivity: 0.02,
		MaxStabilizedFrameNum:    5,
	}
}
