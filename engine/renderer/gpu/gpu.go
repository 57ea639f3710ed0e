// Package gpu is the backend neutral graphics surface the denoiser integration records into.
// Backends (engine/renderer/vulkan, gputest) implement Device and CmdBuffer.
package gpu

import "time"

// InterfaceVersion is bumped whenever the Device contract changes in an incompatible way.
// Backends report the version they were built against in DeviceDesc.
const InterfaceVersion uint32 = 3

// API identifies the native graphics API behind a Device.
type API uint8

const (
	APINone API = iota
	APID3D11
	APID3D12
	APIVulkan
)

func (a API) String() string {
	switch a {
	case APID3D11:
		return "D3D11"
	case APID3D12:
		return "D3D12"
	case APIVulkan:
		return "Vulkan"
	default:
		return "None"
	}
}

// DeviceDesc describes immutable properties of a Device.
type DeviceDesc struct {
	API              API
	InterfaceVersion uint32
	AdapterName      string
	// ConstantBufferOffsetAlignment is the alignment of dynamic constant buffer offsets.
	ConstantBufferOffsetAlignment uint32
}

// Destroyer is the interface that wraps the Destroy method.
// Objects that implement it own memory outside of the GC and
// must be destroyed explicitly.
type Destroyer interface {
	Destroy()
}

// Device creates GPU objects.
type Device interface {
	// Desc returns the device description.
	Desc() DeviceDesc

	// CreateTexture creates a texture without backing memory.
	// Memory is bound later through AllocateAndBindMemory.
	CreateTexture(desc TextureDesc) (Texture, error)

	// CreateBuffer creates a buffer without backing memory.
	CreateBuffer(desc BufferDesc) (Buffer, error)

	// AllocateAndBindMemory allocates memory for every resource in the group
	// and binds it. Implementations place compatible resources into as few
	// allocations as possible. On failure nothing stays allocated.
	AllocateAndBindMemory(group ResourceGroup) ([]Memory, error)

	// CreateTextureView creates a sampled or storage view of a texture.
	CreateTextureView(desc TextureViewDesc) (Descriptor, error)

	// CreateBufferView creates a constant buffer view.
	CreateBufferView(desc BufferViewDesc) (Descriptor, error)

	// CreatePipelineLayout creates a compute pipeline layout.
	CreatePipelineLayout(desc PipelineLayoutDesc) (PipelineLayout, error)

	// CreateComputePipeline creates a compute pipeline.
	CreateComputePipeline(desc ComputePipelineDesc) (Pipeline, error)

	// CreateDescriptorPool creates a descriptor pool.
	CreateDescriptorPool(desc DescriptorPoolDesc) (DescriptorPool, error)

	// Queue returns the queue used to submit recorded work.
	Queue() Queue

	// WaitIdle blocks until the device has finished all submitted work.
	WaitIdle() error
}

// Queue hands out command buffers and executes them.
type Queue interface {
	// AcquireCmdBuffer returns a command buffer ready for recording.
	AcquireCmdBuffer() (CmdBuffer, error)

	// Submit ends recording of cmd and submits it. The returned fence
	// signals when the work has completed; cmd must not be reused
	// before that.
	Submit(cmd CmdBuffer) (Fence, error)

	// Discard releases a command buffer that will not be submitted, e.g.
	// after recording failed. It is a no-op for a buffer Submit already
	// released or consumed.
	Discard(cmd CmdBuffer)
}

// Fence signals completion of submitted work.
type Fence interface {
	Destroyer

	// Wait blocks until the fence is signaled or the timeout expires.
	Wait(timeout time.Duration) error
}

// Texture is a 2D GPU texture, either created by a Device or wrapped
// from a native handle owned by the caller.
type Texture interface {
	Destroyer

	Desc() TextureDesc

	// NativeObject returns the native handle as an integer. Two textures
	// with the same native object are the same GPU resource.
	NativeObject() uint64

	// MemorySize is the size of the memory the texture requires.
	MemorySize() uint64

	SetDebugName(name string)
}

// Buffer is a linear GPU buffer.
type Buffer interface {
	Destroyer

	Desc() BufferDesc

	// Map returns a CPU view of [offset, offset+size). Only buffers bound to
	// upload memory can be mapped. The slice is invalid after Unmap.
	Map(offset, size uint64) ([]byte, error)

	Unmap()
}

// Memory is a device memory allocation.
type Memory interface {
	Destroyer

	Size() uint64
}

// Descriptor is a view of a resource as seen by shaders.
type Descriptor interface {
	Destroyer

	NativeObject() uint64
}

type PipelineLayout interface {
	Destroyer
}

type Pipeline interface {
	Destroyer
}

// DescriptorPool carves descriptor sets out of a fixed budget.
type DescriptorPool interface {
	Destroyer

	// AllocateDescriptorSet allocates one set matching the set at setIndex
	// of the layout.
	AllocateDescriptorSet(layout PipelineLayout, setIndex uint32) (DescriptorSet, error)

	// Reset frees every set allocated from the pool.
	Reset()
}

// DescriptorSet is a group of descriptor ranges bound together.
type DescriptorSet interface {
	// UpdateRanges writes descriptors into ranges [baseRange, baseRange+len(updates)).
	UpdateRanges(baseRange uint32, updates []DescriptorRangeUpdate)
}

// DescriptorRangeUpdate writes Descriptors starting at BaseDescriptor in one range.
type DescriptorRangeUpdate struct {
	Descriptors    []Descriptor
	BaseDescriptor uint32
}

// TextureBarrier transitions a texture between two states.
type TextureBarrier struct {
	Texture Texture
	Before  State
	After   State
}

// CmdBuffer records compute work. Commands are recorded in call order.
type CmdBuffer interface {
	// SetDescriptorPool selects the pool descriptor sets come from.
	SetDescriptorPool(pool DescriptorPool)

	// SetPipelineLayout binds the compute pipeline layout.
	SetPipelineLayout(layout PipelineLayout)

	SetPipeline(pipeline Pipeline)

	// SetDescriptorSet binds set at setIndex of the current layout.
	SetDescriptorSet(setIndex uint32, set DescriptorSet)

	// SetRootConstantBuffer binds a constant buffer view at a dynamic offset.
	SetRootConstantBuffer(rootIndex uint32, view Descriptor, offset uint32)

	// Barrier records all barriers as one batch.
	Barrier(barriers []TextureBarrier)

	Dispatch(x, y, z uint32)

	// BeginAnnotation opens a named, colored region for GPU debuggers.
	// Color is 0xAARRGGBB.
	BeginAnnotation(name string, color uint32)

	EndAnnotation()
}
