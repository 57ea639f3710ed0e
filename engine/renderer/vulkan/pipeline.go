package vulkan

import (
	"sync"

	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/anima-denoiser/engine/core"
	"github.com/spaghettifunk/anima-denoiser/engine/renderer/gpu"
)

// descriptorSetLayout is one gpu.DescriptorSetDesc; its register space is the set number.
type descriptorSetLayout struct {
	Handle vk.DescriptorSetLayout
	space  uint32
	ranges []gpu.DescriptorRangeDesc
}

// PipelineLayout maps register spaces to descriptor set numbers. The root space holds the
// dynamic uniform buffer and the immutable samplers; its sets are allocated per constant
// buffer view from a pool the layout owns.
type PipelineLayout struct {
	context *VulkanContext
	Handle  vk.PipelineLayout

	setLayouts []vk.DescriptorSetLayout
	sets       []descriptorSetLayout
	samplers   []vk.Sampler

	rootSpace    uint32
	rootLayout   vk.DescriptorSetLayout
	rootRegister uint32
	hasRootCB    bool

	mu       sync.Mutex
	rootPool vk.DescriptorPool
	rootSets map[*Descriptor]vk.DescriptorSet
	// staticRoot is bound when the root space only carries samplers.
	staticRoot vk.DescriptorSet
}

func (vb *VulkanBackend) createSampler(desc gpu.SamplerDesc) (vk.Sampler, error) {
	address := toVkAddressMode(desc.AddressMode)
	samplerInfo := vk.SamplerCreateInfo{
		SType:                   vk.StructureTypeSamplerCreateInfo,
		MagFilter:               toVkFilter(desc.Filter),
		MinFilter:               toVkFilter(desc.Filter),
		MipmapMode:              toVkMipmapMode(desc.Filter),
		AddressModeU:            address,
		AddressModeV:            address,
		AddressModeW:            address,
		AnisotropyEnable:        vk.False,
		MaxAnisotropy:           1.0,
		CompareEnable:           vk.False,
		CompareOp:               vk.CompareOpAlways,
		MinLod:                  0.0,
		MaxLod:                  16.0,
		BorderColor:             vk.BorderColorFloatTransparentBlack,
		UnnormalizedCoordinates: vk.False,
	}
	var sampler vk.Sampler
	if res := vk.CreateSampler(vb.context.Device.LogicalDevice, &samplerInfo, vb.context.Allocator, &sampler); res != vk.Success {
		return nil, resultError("vkCreateSampler", res)
	}
	return sampler, nil
}

func (vb *VulkanBackend) createSetLayout(bindings []vk.DescriptorSetLayoutBinding) (vk.DescriptorSetLayout, error) {
	layoutInfo := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(bindings)),
		PBindings:    bindings,
	}
	var layout vk.DescriptorSetLayout
	if res := vk.CreateDescriptorSetLayout(vb.context.Device.LogicalDevice, &layoutInfo, vb.context.Allocator, &layout); res != vk.Success {
		return nil, resultError("vkCreateDescriptorSetLayout", res)
	}
	return layout, nil
}

// CreatePipelineLayout builds one set layout per register space, filling gaps with empty
// layouts. Ranges never request partial binding here: unwritten descriptors that the shader
// does not access are valid in core Vulkan.
func (vb *VulkanBackend) CreatePipelineLayout(desc gpu.PipelineLayoutDesc) (gpu.PipelineLayout, error) {
	if len(desc.RootConstantBuffers) > 1 {
		return nil, errors.Newf("%d root constant buffers requested, at most one is supported", len(desc.RootConstantBuffers))
	}

	spaceCount := desc.RootRegisterSpace + 1
	for _, s := range desc.DescriptorSets {
		if s.RegisterSpace == desc.RootRegisterSpace {
			return nil, errors.Newf("descriptor set space %d collides with the root space", s.RegisterSpace)
		}
		spaceCount = max(spaceCount, s.RegisterSpace+1)
	}
	if spaceCount > VULKAN_MAX_SETS_PER_LAYOUT {
		return nil, errors.Newf("register space %d exceeds the %d sets a layout can use", spaceCount-1, VULKAN_MAX_SETS_PER_LAYOUT)
	}

	pl := &PipelineLayout{
		context:    vb.context,
		setLayouts: make([]vk.DescriptorSetLayout, spaceCount),
		sets:       make([]descriptorSetLayout, len(desc.DescriptorSets)),
		rootSpace:  desc.RootRegisterSpace,
		hasRootCB:  len(desc.RootConstantBuffers) == 1,
		rootSets:   make(map[*Descriptor]vk.DescriptorSet),
	}
	fail := func(err error) (gpu.PipelineLayout, error) {
		pl.Destroy()
		return nil, err
	}

	computeStage := vk.ShaderStageFlags(vk.ShaderStageComputeBit)

	var rootBindings []vk.DescriptorSetLayoutBinding
	if pl.hasRootCB {
		pl.rootRegister = desc.RootConstantBuffers[0].RegisterIndex
		rootBindings = append(rootBindings, vk.DescriptorSetLayoutBinding{
			Binding:         pl.rootRegister,
			DescriptorType:  vk.DescriptorTypeUniformBufferDynamic,
			DescriptorCount: 1,
			StageFlags:      computeStage,
		})
	}
	for _, s := range desc.RootSamplers {
		sampler, err := vb.createSampler(s.Desc)
		if err != nil {
			return fail(err)
		}
		pl.samplers = append(pl.samplers, sampler)
		rootBindings = append(rootBindings, vk.DescriptorSetLayoutBinding{
			Binding:            s.RegisterIndex,
			DescriptorType:     vk.DescriptorTypeSampler,
			DescriptorCount:    1,
			StageFlags:         computeStage,
			PImmutableSamplers: []vk.Sampler{sampler},
		})
	}
	rootLayout, err := vb.createSetLayout(rootBindings)
	if err != nil {
		return fail(err)
	}
	pl.rootLayout = rootLayout
	pl.setLayouts[pl.rootSpace] = rootLayout

	for i, s := range desc.DescriptorSets {
		bindings := make([]vk.DescriptorSetLayoutBinding, 0, len(s.Ranges))
		for _, r := range s.Ranges {
			if r.DescriptorNum == 0 {
				continue
			}
			bindings = append(bindings, vk.DescriptorSetLayoutBinding{
				Binding:         r.BaseRegisterIndex,
				DescriptorType:  toVkDescriptorType(r.Type),
				DescriptorCount: r.DescriptorNum,
				StageFlags:      computeStage,
			})
		}
		layout, err := vb.createSetLayout(bindings)
		if err != nil {
			return fail(err)
		}
		pl.sets[i] = descriptorSetLayout{Handle: layout, space: s.RegisterSpace, ranges: s.Ranges}
		pl.setLayouts[s.RegisterSpace] = layout
	}

	for space := range pl.setLayouts {
		if pl.setLayouts[space] != nil {
			continue
		}
		layout, err := vb.createSetLayout(nil)
		if err != nil {
			return fail(err)
		}
		pl.setLayouts[space] = layout
	}

	if err := pl.createRootPool(len(pl.samplers)); err != nil {
		return fail(err)
	}

	pipelineLayoutCreateInfo := vk.PipelineLayoutCreateInfo{
		SType:          vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount: uint32(len(pl.setLayouts)),
		PSetLayouts:    pl.setLayouts,
	}
	err = vb.context.Locks.SafeCall(PipelineManagement, func() error {
		return resultError("vkCreatePipelineLayout",
			vk.CreatePipelineLayout(vb.context.Device.LogicalDevice, &pipelineLayoutCreateInfo, vb.context.Allocator, &pl.Handle))
	})
	if err != nil {
		return fail(err)
	}

	if !pl.hasRootCB {
		if pl.staticRoot, err = pl.allocateRootSet(); err != nil {
			return fail(err)
		}
	}

	core.LogDebug("Pipeline layout created with %d sets, root space %d.", len(pl.setLayouts), pl.rootSpace)
	return pl, nil
}

func (pl *PipelineLayout) createRootPool(samplerCount int) error {
	var poolSizes []vk.DescriptorPoolSize
	if pl.hasRootCB {
		poolSizes = append(poolSizes, vk.DescriptorPoolSize{
			Type:            vk.DescriptorTypeUniformBufferDynamic,
			DescriptorCount: VULKAN_ROOT_SET_MAX_COUNT,
		})
	}
	if samplerCount > 0 {
		poolSizes = append(poolSizes, vk.DescriptorPoolSize{
			Type:            vk.DescriptorTypeSampler,
			DescriptorCount: VULKAN_ROOT_SET_MAX_COUNT * uint32(samplerCount),
		})
	}
	if len(poolSizes) == 0 {
		return nil
	}
	poolInfo := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		MaxSets:       VULKAN_ROOT_SET_MAX_COUNT,
		PoolSizeCount: uint32(len(poolSizes)),
		PPoolSizes:    poolSizes,
	}
	return resultError("vkCreateDescriptorPool",
		vk.CreateDescriptorPool(pl.context.Device.LogicalDevice, &poolInfo, pl.context.Allocator, &pl.rootPool))
}

func (pl *PipelineLayout) allocateRootSet() (vk.DescriptorSet, error) {
	if pl.rootPool == nil {
		return nil, nil
	}
	allocInfo := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     pl.rootPool,
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{pl.rootLayout},
	}
	var set vk.DescriptorSet
	if res := vk.AllocateDescriptorSets(pl.context.Device.LogicalDevice, &allocInfo, &set); res != vk.Success {
		return nil, resultError("vkAllocateDescriptorSets", res)
	}
	return set, nil
}

// rootSetFor returns the root set pointing at view, writing it on first use.
func (pl *PipelineLayout) rootSetFor(view *Descriptor) (vk.DescriptorSet, error) {
	pl.mu.Lock()
	defer pl.mu.Unlock()

	if set, ok := pl.rootSets[view]; ok {
		return set, nil
	}
	if len(pl.rootSets) >= int(VULKAN_ROOT_SET_MAX_COUNT) {
		return nil, errors.Newf("more than %d constant buffer views bound through one layout", VULKAN_ROOT_SET_MAX_COUNT)
	}
	set, err := pl.allocateRootSet()
	if err != nil {
		return nil, err
	}
	write := vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstSet:          set,
		DstBinding:      pl.rootRegister,
		DescriptorCount: 1,
		DescriptorType:  vk.DescriptorTypeUniformBufferDynamic,
		PBufferInfo: []vk.DescriptorBufferInfo{{
			Buffer: view.Buffer.Handle,
			Offset: vk.DeviceSize(view.Offset),
			Range:  vk.DeviceSize(view.Size),
		}},
	}
	vk.UpdateDescriptorSets(pl.context.Device.LogicalDevice, 1, []vk.WriteDescriptorSet{write}, 0, nil)
	pl.rootSets[view] = set
	return set, nil
}

func (pl *PipelineLayout) Destroy() {
	device := pl.context.Device.LogicalDevice
	if pl.Handle != nil {
		vk.DestroyPipelineLayout(device, pl.Handle, pl.context.Allocator)
		pl.Handle = nil
	}
	if pl.rootPool != nil {
		vk.DestroyDescriptorPool(device, pl.rootPool, pl.context.Allocator)
		pl.rootPool = nil
		pl.rootSets = make(map[*Descriptor]vk.DescriptorSet)
		pl.staticRoot = nil
	}
	for i, layout := range pl.setLayouts {
		if layout != nil {
			vk.DestroyDescriptorSetLayout(device, layout, pl.context.Allocator)
			pl.setLayouts[i] = nil
		}
	}
	pl.rootLayout = nil
	for _, s := range pl.samplers {
		vk.DestroySampler(device, s, pl.context.Allocator)
	}
	pl.samplers = nil
}

// Pipeline is a compute pipeline. The layout is borrowed.
type Pipeline struct {
	context *VulkanContext
	Handle  vk.Pipeline
	Name    string
}

func (vb *VulkanBackend) CreateComputePipeline(desc gpu.ComputePipelineDesc) (gpu.Pipeline, error) {
	pl, ok := desc.Layout.(*PipelineLayout)
	if !ok {
		return nil, errors.Newf("pipeline layout %T was not created by this device", desc.Layout)
	}

	stage, err := NewShaderModule(vb.context, desc.Shader)
	if err != nil {
		return nil, errors.Wrapf(err, "pipeline %q", desc.Name)
	}
	defer stage.Destroy(vb.context)

	pipelineCreateInfo := vk.ComputePipelineCreateInfo{
		SType:              vk.StructureTypeComputePipelineCreateInfo,
		Stage:              stage.ShaderStageCreateInfo,
		Layout:             pl.Handle,
		BasePipelineHandle: vk.NullPipeline,
		BasePipelineIndex:  -1,
	}

	pPipelines := make([]vk.Pipeline, 1)
	err = vb.context.Locks.SafeCall(PipelineManagement, func() error {
		return resultError("vkCreateComputePipelines", vk.CreateComputePipelines(
			vb.context.Device.LogicalDevice,
			vk.NullPipelineCache,
			1,
			[]vk.ComputePipelineCreateInfo{pipelineCreateInfo},
			vb.context.Allocator,
			pPipelines))
	})
	if err != nil {
		return nil, errors.Wrapf(err, "pipeline %q", desc.Name)
	}

	core.LogDebug("Compute pipeline %q created.", desc.Name)
	return &Pipeline{context: vb.context, Handle: pPipelines[0], Name: desc.Name}, nil
}

func (p *Pipeline) Destroy() {
	if p.Handle == nil {
		return
	}
	_ = p.context.Locks.SafeCall(PipelineManagement, func() error {
		vk.DestroyPipeline(p.context.Device.LogicalDevice, p.Handle, p.context.Allocator)
		return nil
	})
	p.Handle = nil
}
