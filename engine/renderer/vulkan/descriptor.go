package vulkan

import (
	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/anima-denoiser/engine/renderer/gpu"
)

type DescriptorPool struct {
	context *VulkanContext
	Handle  vk.DescriptorPool
}

func (vb *VulkanBackend) CreateDescriptorPool(desc gpu.DescriptorPoolDesc) (gpu.DescriptorPool, error) {
	var poolSizes []vk.DescriptorPoolSize
	if desc.TextureMaxNum > 0 {
		poolSizes = append(poolSizes, vk.DescriptorPoolSize{Type: vk.DescriptorTypeSampledImage, DescriptorCount: desc.TextureMaxNum})
	}
	if desc.StorageTextureMaxNum > 0 {
		poolSizes = append(poolSizes, vk.DescriptorPoolSize{Type: vk.DescriptorTypeStorageImage, DescriptorCount: desc.StorageTextureMaxNum})
	}
	if len(poolSizes) == 0 {
		poolSizes = append(poolSizes, vk.DescriptorPoolSize{Type: vk.DescriptorTypeSampledImage, DescriptorCount: 1})
	}

	poolInfo := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		MaxSets:       max(desc.DescriptorSetMaxNum, 1),
		PoolSizeCount: uint32(len(poolSizes)),
		PPoolSizes:    poolSizes,
	}

	p := &DescriptorPool{context: vb.context}
	if res := vk.CreateDescriptorPool(vb.context.Device.LogicalDevice, &poolInfo, vb.context.Allocator, &p.Handle); res != vk.Success {
		return nil, resultError("vkCreateDescriptorPool", res)
	}
	return p, nil
}

func (p *DescriptorPool) AllocateDescriptorSet(layout gpu.PipelineLayout, setIndex uint32) (gpu.DescriptorSet, error) {
	pl, ok := layout.(*PipelineLayout)
	if !ok {
		return nil, errors.Newf("pipeline layout %T was not created by this device", layout)
	}
	if int(setIndex) >= len(pl.sets) {
		return nil, errors.Newf("set index %d out of range, layout has %d sets", setIndex, len(pl.sets))
	}
	sl := &pl.sets[setIndex]

	allocInfo := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     p.Handle,
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{sl.Handle},
	}
	set := &DescriptorSet{context: p.context, layout: sl}
	err := p.context.Locks.SafeCall(DescriptorPoolManagement, func() error {
		return resultError("vkAllocateDescriptorSets", vk.AllocateDescriptorSets(p.context.Device.LogicalDevice, &allocInfo, &set.Handle))
	})
	if err != nil {
		return nil, err
	}
	return set, nil
}

func (p *DescriptorPool) Reset() {
	_ = p.context.Locks.SafeCall(DescriptorPoolManagement, func() error {
		vk.ResetDescriptorPool(p.context.Device.LogicalDevice, p.Handle, 0)
		return nil
	})
}

func (p *DescriptorPool) Destroy() {
	if p.Handle == nil {
		return
	}
	vk.DestroyDescriptorPool(p.context.Device.LogicalDevice, p.Handle, p.context.Allocator)
	p.Handle = nil
}

// DescriptorSet writes ranges straight into the vk.DescriptorSet. Ranges map to bindings
// numbered by their base register.
type DescriptorSet struct {
	context *VulkanContext
	Handle  vk.DescriptorSet
	layout  *descriptorSetLayout
}

func (s *DescriptorSet) UpdateRanges(baseRange uint32, updates []gpu.DescriptorRangeUpdate) {
	writes := make([]vk.WriteDescriptorSet, 0, len(updates))
	for i, u := range updates {
		if len(u.Descriptors) == 0 {
			continue
		}
		r := s.layout.ranges[baseRange+uint32(i)]
		images := make([]vk.DescriptorImageInfo, len(u.Descriptors))
		for j, d := range u.Descriptors {
			vd := d.(*Descriptor)
			images[j] = vk.DescriptorImageInfo{
				ImageView:   vd.View,
				ImageLayout: vd.Layout,
			}
		}
		writes = append(writes, vk.WriteDescriptorSet{
			SType:           vk.StructureTypeWriteDescriptorSet,
			DstSet:          s.Handle,
			DstBinding:      r.BaseRegisterIndex,
			DstArrayElement: u.BaseDescriptor,
			DescriptorCount: uint32(len(images)),
			DescriptorType:  toVkDescriptorType(r.Type),
			PImageInfo:      images,
		})
	}
	if len(writes) == 0 {
		return
	}
	vk.UpdateDescriptorSets(s.context.Device.LogicalDevice, uint32(len(writes)), writes, 0, nil)
}
