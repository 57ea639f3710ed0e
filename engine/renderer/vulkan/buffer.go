package vulkan

import (
	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/anima-denoiser/engine/renderer/gpu"
)

var ErrNotMapped = errors.New("buffer is not bound to host visible memory")

type Buffer struct {
	context      *VulkanContext
	Handle       vk.Buffer
	desc         gpu.BufferDesc
	requirements vk.MemoryRequirements
	memory       *Memory
	// mapped covers the whole buffer when it lives in host visible memory.
	mapped []byte
}

func (vb *VulkanBackend) CreateBuffer(desc gpu.BufferDesc) (gpu.Buffer, error) {
	usage := vk.BufferUsageFlagBits(vk.BufferUsageTransferDstBit)
	if desc.Usage&gpu.BufferUsageConstantBuffer != 0 {
		usage |= vk.BufferUsageUniformBufferBit
	}
	bufferInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(desc.Size),
		Usage:       vk.BufferUsageFlags(usage),
		SharingMode: vk.SharingModeExclusive,
	}

	b := &Buffer{context: vb.context, desc: desc}
	if res := vk.CreateBuffer(vb.context.Device.LogicalDevice, &bufferInfo, vb.context.Allocator, &b.Handle); res != vk.Success {
		return nil, resultError("vkCreateBuffer", res)
	}
	vk.GetBufferMemoryRequirements(vb.context.Device.LogicalDevice, b.Handle, &b.requirements)
	b.requirements.Deref()

	return b, nil
}

func (b *Buffer) Desc() gpu.BufferDesc { return b.desc }

// Map returns a window into the persistent mapping. Memory is host coherent so no flush
// is needed before submission.
func (b *Buffer) Map(offset, size uint64) ([]byte, error) {
	if b.mapped == nil {
		return nil, ErrNotMapped
	}
	if offset+size > uint64(len(b.mapped)) {
		return nil, errors.Newf("map range [%d, %d) exceeds buffer size %d", offset, offset+size, len(b.mapped))
	}
	return b.mapped[offset : offset+size : offset+size], nil
}

func (b *Buffer) Unmap() {}

func (b *Buffer) Destroy() {
	if b.Handle == nil {
		return
	}
	vk.DestroyBuffer(b.context.Device.LogicalDevice, b.Handle, b.context.Allocator)
	b.Handle = nil
	b.mapped = nil
	b.memory = nil
}
