package vulkan

import (
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/anima-denoiser/engine/core"
	"github.com/spaghettifunk/anima-denoiser/engine/renderer/gpu"
)

type VulkanCommandBufferState int

const (
	COMMAND_BUFFER_STATE_READY VulkanCommandBufferState = iota
	COMMAND_BUFFER_STATE_RECORDING
	COMMAND_BUFFER_STATE_RECORDING_ENDED
	COMMAND_BUFFER_STATE_SUBMITTED
	COMMAND_BUFFER_STATE_NOT_ALLOCATED
)

// VulkanCommandBuffer records compute work into a primary command buffer.
type VulkanCommandBuffer struct {
	context *VulkanContext
	Handle  vk.CommandBuffer
	State   VulkanCommandBufferState

	layout      *PipelineLayout
	annotations []string
}

func NewVulkanCommandBuffer(context *VulkanContext, pool vk.CommandPool) (*VulkanCommandBuffer, error) {
	cb := &VulkanCommandBuffer{
		context: context,
		State:   COMMAND_BUFFER_STATE_NOT_ALLOCATED,
	}

	allocateInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        pool,
		CommandBufferCount: 1,
		Level:              vk.CommandBufferLevelPrimary,
	}

	handles := make([]vk.CommandBuffer, 1)
	err := context.Locks.SafeCall(CommandPoolManagement, func() error {
		return resultError("vkAllocateCommandBuffers", vk.AllocateCommandBuffers(context.Device.LogicalDevice, &allocateInfo, handles))
	})
	if err != nil {
		return nil, err
	}
	cb.Handle = handles[0]
	cb.State = COMMAND_BUFFER_STATE_READY

	return cb, nil
}

func (v *VulkanCommandBuffer) Free(pool vk.CommandPool) {
	if v.Handle == nil {
		return
	}
	_ = v.context.Locks.SafeCall(CommandPoolManagement, func() error {
		vk.FreeCommandBuffers(v.context.Device.LogicalDevice, pool, 1, []vk.CommandBuffer{v.Handle})
		return nil
	})
	v.Handle = nil
	v.State = COMMAND_BUFFER_STATE_NOT_ALLOCATED
}

func (v *VulkanCommandBuffer) Begin(isSingleUse bool) error {
	beginInfo := &vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
	}
	if isSingleUse {
		beginInfo.Flags |= vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit)
	}

	if res := vk.BeginCommandBuffer(v.Handle, beginInfo); res != vk.Success {
		return resultError("vkBeginCommandBuffer", res)
	}
	v.State = COMMAND_BUFFER_STATE_RECORDING
	v.layout = nil
	v.annotations = v.annotations[:0]

	return nil
}

func (v *VulkanCommandBuffer) End() error {
	if len(v.annotations) > 0 {
		core.LogWarn("Command buffer ended with %d open annotations, innermost %q.", len(v.annotations), v.annotations[len(v.annotations)-1])
	}
	if res := vk.EndCommandBuffer(v.Handle); res != vk.Success {
		return resultError("vkEndCommandBuffer", res)
	}
	v.State = COMMAND_BUFFER_STATE_RECORDING_ENDED
	return nil
}

func (v *VulkanCommandBuffer) UpdateSubmitted() {
	v.State = COMMAND_BUFFER_STATE_SUBMITTED
}

// SetDescriptorPool is a no-op: sets are allocated from the pool directly.
func (v *VulkanCommandBuffer) SetDescriptorPool(gpu.DescriptorPool) {}

func (v *VulkanCommandBuffer) SetPipelineLayout(layout gpu.PipelineLayout) {
	pl := layout.(*PipelineLayout)
	v.layout = pl
	if pl.staticRoot != nil {
		vk.CmdBindDescriptorSets(v.Handle, vk.PipelineBindPointCompute, pl.Handle, pl.rootSpace, 1, []vk.DescriptorSet{pl.staticRoot}, 0, nil)
	}
}

func (v *VulkanCommandBuffer) SetPipeline(pipeline gpu.Pipeline) {
	vk.CmdBindPipeline(v.Handle, vk.PipelineBindPointCompute, pipeline.(*Pipeline).Handle)
}

func (v *VulkanCommandBuffer) SetDescriptorSet(setIndex uint32, set gpu.DescriptorSet) {
	if v.layout == nil {
		core.LogError("SetDescriptorSet called before SetPipelineLayout.")
		return
	}
	space := v.layout.sets[setIndex].space
	vk.CmdBindDescriptorSets(v.Handle, vk.PipelineBindPointCompute, v.layout.Handle, space, 1, []vk.DescriptorSet{set.(*DescriptorSet).Handle}, 0, nil)
}

func (v *VulkanCommandBuffer) SetRootConstantBuffer(rootIndex uint32, view gpu.Descriptor, offset uint32) {
	if v.layout == nil {
		core.LogError("SetRootConstantBuffer called before SetPipelineLayout.")
		return
	}
	set, err := v.layout.rootSetFor(view.(*Descriptor))
	if err != nil {
		core.LogError("root constant buffer %d: %s", rootIndex, err)
		return
	}
	vk.CmdBindDescriptorSets(v.Handle, vk.PipelineBindPointCompute, v.layout.Handle, v.layout.rootSpace, 1, []vk.DescriptorSet{set}, 1, []uint32{offset})
}

// Barrier records one vkCmdPipelineBarrier for the whole batch.
func (v *VulkanCommandBuffer) Barrier(barriers []gpu.TextureBarrier) {
	if len(barriers) == 0 {
		return
	}
	var srcStages, dstStages vk.PipelineStageFlags
	imageBarriers := make([]vk.ImageMemoryBarrier, len(barriers))
	for i, b := range barriers {
		t := b.Texture.(*Texture)
		desc := t.desc
		imageBarriers[i] = vk.ImageMemoryBarrier{
			SType:               vk.StructureTypeImageMemoryBarrier,
			SrcAccessMask:       toVkAccess(b.Before.Access),
			DstAccessMask:       toVkAccess(b.After.Access),
			OldLayout:           toVkLayout(b.Before.Layout),
			NewLayout:           toVkLayout(b.After.Layout),
			SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
			DstQueueFamilyIndex: vk.QueueFamilyIgnored,
			Image:               t.Handle,
			SubresourceRange: vk.ImageSubresourceRange{
				AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
				BaseMipLevel:   0,
				LevelCount:     uint32(max(desc.MipNum, 1)),
				BaseArrayLayer: 0,
				LayerCount:     uint32(max(desc.LayerNum, 1)),
			},
		}
		srcStages |= toVkStages(b.Before.Stages, true)
		dstStages |= toVkStages(b.After.Stages, false)
	}

	vk.CmdPipelineBarrier(
		v.Handle,
		srcStages, dstStages,
		0,
		0, nil,
		0, nil,
		uint32(len(imageBarriers)), imageBarriers,
	)
}

func (v *VulkanCommandBuffer) Dispatch(x, y, z uint32) {
	vk.CmdDispatch(v.Handle, x, y, z)
}

// TODO: emit vkCmdBeginDebugUtilsLabelEXT once the instance enables VK_EXT_debug_utils.
func (v *VulkanCommandBuffer) BeginAnnotation(name string, color uint32) {
	v.annotations = append(v.annotations, name)
}

func (v *VulkanCommandBuffer) EndAnnotation() {
	if len(v.annotations) == 0 {
		core.LogWarn("EndAnnotation without a matching BeginAnnotation.")
		return
	}
	v.annotations = v.annotations[:len(v.annotations)-1]
}
