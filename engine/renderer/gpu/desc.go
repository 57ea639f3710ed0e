package gpu

// TextureUsage is a set of texture usages.
type TextureUsage uint8

const (
	TextureUsageShaderResource TextureUsage = 1 << iota
	TextureUsageShaderResourceStorage
	TextureUsageNone TextureUsage = 0
)

type TextureDesc struct {
	Format   Format
	Width    uint32
	Height   uint32
	MipNum   uint16
	LayerNum uint16
	Usage    TextureUsage
}

// TextureViewType selects how a view exposes its texture to shaders.
type TextureViewType uint8

const (
	TextureView TextureViewType = iota
	StorageTextureView
)

type TextureViewDesc struct {
	Texture     Texture
	Type        TextureViewType
	Format      Format
	MipOffset   uint16
	MipNum      uint16
	LayerOffset uint16
	LayerNum    uint16
}

type BufferUsage uint8

const (
	BufferUsageConstantBuffer BufferUsage = 1 << iota
	BufferUsageNone           BufferUsage = 0
)

type BufferDesc struct {
	Size  uint64
	Usage BufferUsage
}

// BufferViewDesc describes a constant buffer view. Size is the range visible at any dynamic offset.
type BufferViewDesc struct {
	Buffer Buffer
	Offset uint64
	Size   uint64
}

// MemoryLocation is where an allocation lives.
type MemoryLocation uint8

const (
	MemoryDevice MemoryLocation = iota
	// MemoryDeviceUpload is device memory the host can write to.
	MemoryDeviceUpload
	MemoryHostUpload
)

// ResourceGroup is a set of resources that share a memory location.
type ResourceGroup struct {
	Location MemoryLocation
	Textures []Texture
	Buffers  []Buffer
}

type DescriptorType uint8

const (
	DescriptorTexture DescriptorType = iota
	DescriptorStorageTexture
	DescriptorConstantBuffer
	DescriptorSampler
)

// DescriptorRangeFlags modify how a range can be bound.
type DescriptorRangeFlags uint8

const (
	// RangePartiallyBound allows descriptors of the range to stay unwritten.
	RangePartiallyBound DescriptorRangeFlags = 1 << iota
	RangeFlagsNone      DescriptorRangeFlags = 0
)

type DescriptorRangeDesc struct {
	BaseRegisterIndex uint32
	DescriptorNum     uint32
	Type              DescriptorType
	Flags             DescriptorRangeFlags
}

type DescriptorSetDesc struct {
	RegisterSpace uint32
	Ranges        []DescriptorRangeDesc
}

type RootDescriptorDesc struct {
	RegisterIndex uint32
	Type          DescriptorType
}

type Filter uint8

const (
	FilterNearest Filter = iota
	FilterLinear
)

type AddressMode uint8

const (
	AddressClampToEdge AddressMode = iota
	AddressRepeat
	AddressMirroredRepeat
)

type SamplerDesc struct {
	Filter      Filter
	AddressMode AddressMode
}

// RootSamplerDesc is an immutable sampler baked into the pipeline layout.
type RootSamplerDesc struct {
	RegisterIndex uint32
	Desc          SamplerDesc
}

// PipelineLayoutDesc describes the root part (constant buffers and samplers,
// living in RootRegisterSpace) and the descriptor sets of a compute layout.
type PipelineLayoutDesc struct {
	RootRegisterSpace   uint32
	RootConstantBuffers []RootDescriptorDesc
	RootSamplers        []RootSamplerDesc
	DescriptorSets      []DescriptorSetDesc
}

type ShaderDesc struct {
	Bytecode   []byte
	EntryPoint string
}

type ComputePipelineDesc struct {
	Name   string
	Layout PipelineLayout
	Shader ShaderDesc
}

type DescriptorPoolDesc struct {
	DescriptorSetMaxNum  uint32
	TextureMaxNum        uint32
	StorageTextureMaxNum uint32
}
