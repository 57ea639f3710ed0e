package vulkan

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/anima-denoiser/engine/core"
	"github.com/spaghettifunk/anima-denoiser/engine/renderer/gpu"
)

// Memory is one vkAllocateMemory allocation. Host visible memory stays mapped for its lifetime.
type Memory struct {
	context *VulkanContext
	Handle  vk.DeviceMemory
	size    uint64
	mapped  unsafe.Pointer
}

func (m *Memory) Size() uint64 { return m.size }

func (m *Memory) Destroy() {
	if m.Handle == nil {
		return
	}
	if m.mapped != nil {
		vk.UnmapMemory(m.context.Device.LogicalDevice, m.Handle)
		m.mapped = nil
	}
	vk.FreeMemory(m.context.Device.LogicalDevice, m.Handle, m.context.Allocator)
	m.Handle = nil
}

// placement is where one resource lands inside a batched allocation.
type placement struct {
	texture *Texture
	buffer  *Buffer
	offset  uint64
}

type memoryBatch struct {
	typeIndex  int32
	size       uint64
	placements []placement
}

// chooseMemoryType walks the property sets of loc in preference order.
func (vc *VulkanContext) chooseMemoryType(typeBits uint32, loc gpu.MemoryLocation) int32 {
	for _, props := range memoryProperties(loc) {
		if index := vc.FindMemoryIndex(typeBits, props); index >= 0 {
			return index
		}
	}
	return -1
}

// AllocateAndBindMemory places every resource of the group into one allocation per memory type.
func (vb *VulkanBackend) AllocateAndBindMemory(group gpu.ResourceGroup) ([]gpu.Memory, error) {
	var batches []*memoryBatch
	batchFor := func(typeIndex int32) *memoryBatch {
		for _, b := range batches {
			if b.typeIndex == typeIndex {
				return b
			}
		}
		b := &memoryBatch{typeIndex: typeIndex}
		batches = append(batches, b)
		return b
	}

	for _, t := range group.Textures {
		vt, ok := t.(*Texture)
		if !ok || !vt.owned {
			return nil, errors.Newf("texture %T can't be bound by this device", t)
		}
		typeIndex := vb.context.chooseMemoryType(vt.requirements.MemoryTypeBits, group.Location)
		if typeIndex < 0 {
			return nil, errors.Newf("no memory type for texture %q at location %d", vt.name, group.Location)
		}
		b := batchFor(typeIndex)
		offset := alignUp(b.size, uint64(vt.requirements.Alignment))
		b.placements = append(b.placements, placement{texture: vt, offset: offset})
		b.size = offset + uint64(vt.requirements.Size)
	}
	for _, buf := range group.Buffers {
		vbuf, ok := buf.(*Buffer)
		if !ok {
			return nil, errors.Newf("buffer %T can't be bound by this device", buf)
		}
		typeIndex := vb.context.chooseMemoryType(vbuf.requirements.MemoryTypeBits, group.Location)
		if typeIndex < 0 {
			return nil, errors.Newf("no memory type for buffer at location %d", group.Location)
		}
		b := batchFor(typeIndex)
		offset := alignUp(b.size, uint64(vbuf.requirements.Alignment))
		b.placements = append(b.placements, placement{buffer: vbuf, offset: offset})
		b.size = offset + uint64(vbuf.requirements.Size)
	}

	memories := make([]gpu.Memory, 0, len(batches))
	release := func() {
		for _, m := range memories {
			m.Destroy()
		}
	}

	device := vb.context.Device.LogicalDevice
	for _, b := range batches {
		mem := &Memory{context: vb.context, size: b.size}
		allocInfo := vk.MemoryAllocateInfo{
			SType:           vk.StructureTypeMemoryAllocateInfo,
			AllocationSize:  vk.DeviceSize(b.size),
			MemoryTypeIndex: uint32(b.typeIndex),
		}
		err := vb.context.Locks.SafeCall(MemoryManagement, func() error {
			return resultError("vkAllocateMemory", vk.AllocateMemory(device, &allocInfo, vb.context.Allocator, &mem.Handle))
		})
		if err != nil {
			release()
			return nil, err
		}
		memories = append(memories, mem)

		if isHostVisible(group.Location) {
			var data unsafe.Pointer
			if res := vk.MapMemory(device, mem.Handle, 0, vk.DeviceSize(b.size), 0, &data); res != vk.Success {
				release()
				return nil, resultError("vkMapMemory", res)
			}
			mem.mapped = data
		}

		for _, p := range b.placements {
			if p.texture != nil {
				if res := vk.BindImageMemory(device, p.texture.Handle, mem.Handle, vk.DeviceSize(p.offset)); res != vk.Success {
					release()
					return nil, resultError("vkBindImageMemory", res)
				}
				p.texture.memory = mem
				continue
			}
			if res := vk.BindBufferMemory(device, p.buffer.Handle, mem.Handle, vk.DeviceSize(p.offset)); res != vk.Success {
				release()
				return nil, resultError("vkBindBufferMemory", res)
			}
			p.buffer.memory = mem
			if mem.mapped != nil {
				p.buffer.mapped = unsafe.Slice((*byte)(unsafe.Add(mem.mapped, p.offset)), p.buffer.desc.Size)
			}
		}
		core.LogDebug("Allocated %d bytes of memory type %d for %d resources.", b.size, b.typeIndex, len(b.placements))
	}

	return memories, nil
}
