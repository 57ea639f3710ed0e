package vulkan

import (
	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/anima-denoiser/engine/renderer/gpu"
)

// VulkanQueue submits one-time command buffers to the compute queue.
type VulkanQueue struct {
	context *VulkanContext
}

func (q *VulkanQueue) AcquireCmdBuffer() (gpu.CmdBuffer, error) {
	cb, err := NewVulkanCommandBuffer(q.context, q.context.Device.ComputeCommandPool)
	if err != nil {
		return nil, err
	}
	if err := cb.Begin(true); err != nil {
		cb.Free(q.context.Device.ComputeCommandPool)
		return nil, err
	}
	return cb, nil
}

func (q *VulkanQueue) Submit(cmd gpu.CmdBuffer) (gpu.Fence, error) {
	cb, ok := cmd.(*VulkanCommandBuffer)
	if !ok {
		return nil, errors.Newf("command buffer %T was not acquired from this queue", cmd)
	}
	if cb.State != COMMAND_BUFFER_STATE_RECORDING {
		return nil, errors.Newf("command buffer is not recording (state %d)", cb.State)
	}
	if err := cb.End(); err != nil {
		cb.Free(q.context.Device.ComputeCommandPool)
		return nil, err
	}

	fence, err := NewFence(q.context, false)
	if err != nil {
		cb.Free(q.context.Device.ComputeCommandPool)
		return nil, err
	}

	submitInfo := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    []vk.CommandBuffer{cb.Handle},
	}
	queueIndex := uint32(q.context.Device.ComputeQueueIndex)
	err = q.context.Locks.SafeQueueCall(queueIndex, func() error {
		return resultError("vkQueueSubmit", vk.QueueSubmit(q.context.Device.ComputeQueue, 1, []vk.SubmitInfo{submitInfo}, fence.Handle))
	})
	if err != nil {
		cb.Free(q.context.Device.ComputeCommandPool)
		fence.IsSignaled = true
		fence.Destroy()
		return nil, err
	}
	cb.UpdateSubmitted()
	fence.cmd = cb

	return fence, nil
}

// Discard frees a command buffer that was acquired but never submitted. Buffers owned by a
// fence are freed when the fence is destroyed.
func (q *VulkanQueue) Discard(cmd gpu.CmdBuffer) {
	cb, ok := cmd.(*VulkanCommandBuffer)
	if !ok || cb.State == COMMAND_BUFFER_STATE_SUBMITTED {
		return
	}
	cb.Free(q.context.Device.ComputeCommandPool)
}
