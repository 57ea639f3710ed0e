// Package vulkan implements gpu.Device on a headless Vulkan compute queue.
package vulkan

import (
	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/anima-denoiser/engine/core"
	"github.com/spaghettifunk/anima-denoiser/engine/renderer/gpu"
)

// VulkanBackend is a gpu.Device backed by a VulkanContext.
type VulkanBackend struct {
	context *VulkanContext
	queue   *VulkanQueue
	// shared is set when the context belongs to the caller.
	shared bool
}

var _ gpu.Device = (*VulkanBackend)(nil)

// New creates its own instance and device.
func New(opts ContextOptions) (*VulkanBackend, error) {
	context, err := NewContext(opts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create the Vulkan context")
	}
	core.LogInfo("Vulkan backend initialized successfully.")
	return &VulkanBackend{context: context, queue: &VulkanQueue{context: context}}, nil
}

// NewFromContext uses a context owned by the caller. Shutdown leaves it alive.
func NewFromContext(context *VulkanContext) *VulkanBackend {
	return &VulkanBackend{context: context, queue: &VulkanQueue{context: context}, shared: true}
}

func (vb *VulkanBackend) Context() *VulkanContext { return vb.context }

func (vb *VulkanBackend) Desc() gpu.DeviceDesc {
	return gpu.DeviceDesc{
		API:                           gpu.APIVulkan,
		InterfaceVersion:              gpu.InterfaceVersion,
		AdapterName:                   vb.context.Device.Name,
		ConstantBufferOffsetAlignment: uint32(max(vb.context.Device.MinUniformBufferOffsetAlignment, 1)),
	}
}

func (vb *VulkanBackend) Queue() gpu.Queue { return vb.queue }

func (vb *VulkanBackend) WaitIdle() error {
	return resultError("vkDeviceWaitIdle", vk.DeviceWaitIdle(vb.context.Device.LogicalDevice))
}

// Shutdown waits for the device and destroys the context unless it is shared.
// Every object created through the backend must be destroyed first.
func (vb *VulkanBackend) Shutdown() error {
	if vb.context == nil {
		return nil
	}
	err := vb.WaitIdle()
	if !vb.shared {
		vb.context.Destroy()
	}
	vb.context = nil
	return err
}
