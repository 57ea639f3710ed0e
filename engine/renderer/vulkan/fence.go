package vulkan

import (
	"time"

	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/anima-denoiser/engine/core"
)

var ErrFenceTimeout = errors.New("fence wait timed out")

// VulkanFence signals completion of one submission and owns its command buffer until then.
type VulkanFence struct {
	context    *VulkanContext
	Handle     vk.Fence
	IsSignaled bool

	cmd *VulkanCommandBuffer
}

func NewFence(context *VulkanContext, createSignaled bool) (*VulkanFence, error) {
	fence := &VulkanFence{
		context:    context,
		IsSignaled: createSignaled,
	}

	fenceCreateInfo := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}
	if fence.IsSignaled {
		fenceCreateInfo.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}

	if res := vk.CreateFence(context.Device.LogicalDevice, &fenceCreateInfo, context.Allocator, &fence.Handle); res != vk.Success {
		return nil, resultError("vkCreateFence", res)
	}
	return fence, nil
}

// Wait blocks until the submission completes, then releases its command buffer.
func (vf *VulkanFence) Wait(timeout time.Duration) error {
	if vf.IsSignaled {
		return nil
	}
	ns := uint64(timeout.Nanoseconds())
	if timeout < 0 {
		ns = ^uint64(0)
	}

	result := vk.WaitForFences(vf.context.Device.LogicalDevice, 1, []vk.Fence{vf.Handle}, vk.True, ns)
	switch result {
	case vk.Success:
		vf.IsSignaled = true
		vf.releaseCmd()
		return nil
	case vk.Timeout:
		return errors.Wrapf(ErrFenceTimeout, "after %s", timeout)
	default:
		core.LogError("vk_fence_wait - %s.", VulkanResultString(result))
		return resultError("vkWaitForFences", result)
	}
}

func (vf *VulkanFence) releaseCmd() {
	if vf.cmd != nil {
		vf.cmd.Free(vf.context.Device.ComputeCommandPool)
		vf.cmd = nil
	}
}

func (vf *VulkanFence) Reset() error {
	if vf.IsSignaled {
		if res := vk.ResetFences(vf.context.Device.LogicalDevice, 1, []vk.Fence{vf.Handle}); res != vk.Success {
			return resultError("vkResetFences", res)
		}
		vf.IsSignaled = false
	}
	return nil
}

// Destroy waits for pending work before freeing the command buffer and the fence.
func (vf *VulkanFence) Destroy() {
	if vf.Handle == nil {
		return
	}
	if err := vf.Wait(VULKAN_IDLE_TIMEOUT); err != nil {
		core.LogWarn("destroying a fence that did not signal: %s", err)
	}
	vf.releaseCmd()
	vk.DestroyFence(vf.context.Device.LogicalDevice, vf.Handle, vf.context.Allocator)
	vf.Handle = nil
	vf.IsSignaled = false
}
