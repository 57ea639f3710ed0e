package vulkan

import (
	"runtime"

	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/anima-denoiser/engine/core"
)

type VulkanDevice struct {
	PhysicalDevice    vk.PhysicalDevice
	LogicalDevice     vk.Device
	ComputeQueueIndex int32

	ComputeQueue       vk.Queue
	ComputeCommandPool vk.CommandPool

	Name       string
	Properties vk.PhysicalDeviceProperties
	Features   vk.PhysicalDeviceFeatures
	Memory     vk.PhysicalDeviceMemoryProperties

	// MinUniformBufferOffsetAlignment from the device limits.
	MinUniformBufferOffsetAlignment uint64
}

type VulkanPhysicalDeviceRequirements struct {
	Compute              bool
	Transfer             bool
	DeviceExtensionNames []string
	DiscreteGPU          bool
}

type VulkanPhysicalDeviceQueueFamilyInfo struct {
	ComputeFamilyIndex  int32
	TransferFamilyIndex int32
}

func DeviceCreate(context *VulkanContext, preferDiscrete bool) error {
	if err := SelectPhysicalDevice(context, preferDiscrete); err != nil {
		return err
	}

	core.LogInfo("Creating logical device...")

	var availableExtensionCount uint32
	if res := vk.EnumerateDeviceExtensionProperties(context.Device.PhysicalDevice, "", &availableExtensionCount, nil); res != vk.Success {
		return resultError("vkEnumerateDeviceExtensionProperties", res)
	}
	var extensionNames []string
	if availableExtensionCount != 0 {
		availableExtensions := make([]vk.ExtensionProperties, availableExtensionCount)
		if res := vk.EnumerateDeviceExtensionProperties(context.Device.PhysicalDevice, "", &availableExtensionCount, availableExtensions); res != vk.Success {
			return resultError("vkEnumerateDeviceExtensionProperties", res)
		}
		for i := range availableExtensions {
			availableExtensions[i].Deref()
			end := FindFirstZeroInByteArray(availableExtensions[i].ExtensionName[:])
			if string(availableExtensions[i].ExtensionName[:end]) == "VK_KHR_portability_subset" {
				core.LogInfo("Adding required extension 'VK_KHR_portability_subset'.")
				extensionNames = append(extensionNames, "VK_KHR_portability_subset")
				break
			}
		}
	}

	queueCreateInfos := []vk.DeviceQueueCreateInfo{{
		SType:            vk.StructureTypeDeviceQueueCreateInfo,
		QueueFamilyIndex: uint32(context.Device.ComputeQueueIndex),
		QueueCount:       1,
		PQueuePriorities: []float32{1.0},
	}}

	deviceCreateInfo := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueCreateInfos)),
		PQueueCreateInfos:       queueCreateInfos,
		PEnabledFeatures:        []vk.PhysicalDeviceFeatures{{}},
		EnabledExtensionCount:   uint32(len(extensionNames)),
		PpEnabledExtensionNames: VulkanSafeStrings(extensionNames),
	}

	if res := vk.CreateDevice(
		context.Device.PhysicalDevice,
		&deviceCreateInfo,
		context.Allocator,
		&context.Device.LogicalDevice); res != vk.Success {
		return resultError("vkCreateDevice", res)
	}
	core.LogInfo("Logical device created.")

	vk.GetDeviceQueue(
		context.Device.LogicalDevice,
		uint32(context.Device.ComputeQueueIndex),
		0,
		&context.Device.ComputeQueue)

	poolCreateInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: uint32(context.Device.ComputeQueueIndex),
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit | vk.CommandPoolCreateTransientBit),
	}
	if res := vk.CreateCommandPool(
		context.Device.LogicalDevice,
		&poolCreateInfo,
		context.Allocator,
		&context.Device.ComputeCommandPool); res != vk.Success {
		vk.DestroyDevice(context.Device.LogicalDevice, context.Allocator)
		context.Device.LogicalDevice = nil
		return resultError("vkCreateCommandPool", res)
	}
	core.LogInfo("Compute command pool created.")

	return nil
}

func DeviceDestroy(context *VulkanContext) {
	context.Device.ComputeQueue = nil

	core.LogInfo("Destroying command pools...")
	if context.Device.ComputeCommandPool != nil {
		vk.DestroyCommandPool(context.Device.LogicalDevice, context.Device.ComputeCommandPool, context.Allocator)
		context.Device.ComputeCommandPool = nil
	}

	core.LogInfo("Destroying logical device...")
	if context.Device.LogicalDevice != nil {
		vk.DestroyDevice(context.Device.LogicalDevice, context.Allocator)
		context.Device.LogicalDevice = nil
	}

	// Physical devices are not destroyed.
	context.Device.PhysicalDevice = nil
	context.Device.ComputeQueueIndex = -1
}

func SelectPhysicalDevice(context *VulkanContext, preferDiscrete bool) error {
	var physicalDeviceCount uint32
	if res := vk.EnumeratePhysicalDevices(context.Instance, &physicalDeviceCount, nil); res != vk.Success {
		return resultError("vkEnumeratePhysicalDevices", res)
	}
	if physicalDeviceCount == 0 {
		return errors.New("no devices which support Vulkan were found")
	}

	physicalDevices := make([]vk.PhysicalDevice, physicalDeviceCount)
	if res := vk.EnumeratePhysicalDevices(context.Instance, &physicalDeviceCount, physicalDevices); res != vk.Success {
		return resultError("vkEnumeratePhysicalDevices", res)
	}

	requirements := VulkanPhysicalDeviceRequirements{
		Compute:     true,
		DiscreteGPU: preferDiscrete && runtime.GOOS != "darwin",
	}

	// Two rounds: the second one drops the discrete GPU requirement.
	for round := 0; round < 2; round++ {
		for i := range physicalDevices {
			properties := vk.PhysicalDeviceProperties{}
			vk.GetPhysicalDeviceProperties(physicalDevices[i], &properties)
			properties.Deref()
			properties.Limits.Deref()

			features := vk.PhysicalDeviceFeatures{}
			vk.GetPhysicalDeviceFeatures(physicalDevices[i], &features)
			features.Deref()

			memory := vk.PhysicalDeviceMemoryProperties{}
			vk.GetPhysicalDeviceMemoryProperties(physicalDevices[i], &memory)
			memory.Deref()

			queueInfo := VulkanPhysicalDeviceQueueFamilyInfo{}
			if !PhysicalDeviceMeetsRequirements(physicalDevices[i], &properties, &requirements, &queueInfo) {
				continue
			}

			end := FindFirstZeroInByteArray(properties.DeviceName[:])
			name := string(properties.DeviceName[:end])
			core.LogInfo("Selected device: '%s'.", name)
			switch properties.DeviceType {
			case vk.PhysicalDeviceTypeIntegratedGpu:
				core.LogInfo("GPU type is Integrated.")
			case vk.PhysicalDeviceTypeDiscreteGpu:
				core.LogInfo("GPU type is Discrete.")
			case vk.PhysicalDeviceTypeVirtualGpu:
				core.LogInfo("GPU type is Virtual.")
			case vk.PhysicalDeviceTypeCpu:
				core.LogInfo("GPU type is CPU.")
			default:
				core.LogInfo("GPU type is Unknown.")
			}
			core.LogInfo(
				"Vulkan API version: %d.%d.%d",
				vk.Version.Major(vk.Version(properties.ApiVersion)),
				vk.Version.Minor(vk.Version(properties.ApiVersion)),
				vk.Version.Patch(vk.Version(properties.ApiVersion)),
			)
			for j := 0; j < int(memory.MemoryHeapCount); j++ {
				memory.MemoryHeaps[j].Deref()
				memorySizeMib := uint64(memory.MemoryHeaps[j].Size) / 1024 / 1024
				if vk.MemoryHeapFlagBits(memory.MemoryHeaps[j].Flags)&vk.MemoryHeapDeviceLocalBit != 0 {
					core.LogInfo("Local GPU memory: %d MiB", memorySizeMib)
				} else {
					core.LogInfo("Shared System memory: %d MiB", memorySizeMib)
				}
			}

			context.Device.PhysicalDevice = physicalDevices[i]
			context.Device.ComputeQueueIndex = queueInfo.ComputeFamilyIndex
			context.Device.Name = name
			context.Device.Properties = properties
			context.Device.Features = features
			context.Device.Memory = memory
			context.Device.MinUniformBufferOffsetAlignment = uint64(properties.Limits.MinUniformBufferOffsetAlignment)
			core.LogInfo("Physical device selected.")
			return nil
		}
		if !requirements.DiscreteGPU {
			break
		}
		core.LogInfo("No discrete GPU meets the requirements, retrying with any adapter.")
		requirements.DiscreteGPU = false
	}

	return errors.New("no physical devices were found which meet the requirements")
}

func PhysicalDeviceMeetsRequirements(device vk.PhysicalDevice, properties *vk.PhysicalDeviceProperties, requirements *VulkanPhysicalDeviceRequirements, outQueueInfo *VulkanPhysicalDeviceQueueFamilyInfo) bool {
	outQueueInfo.ComputeFamilyIndex = -1
	outQueueInfo.TransferFamilyIndex = -1

	if requirements.DiscreteGPU && properties.DeviceType != vk.PhysicalDeviceTypeDiscreteGpu {
		core.LogInfo("Device is not a discrete GPU, and one is required. Skipping.")
		return false
	}

	var queueFamilyCount uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &queueFamilyCount, nil)
	queueFamilies := make([]vk.QueueFamilyProperties, queueFamilyCount)
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &queueFamilyCount, queueFamilies)

	for i := range queueFamilies {
		queueFamilies[i].Deref()
		flags := vk.QueueFlagBits(queueFamilies[i].QueueFlags)

		// Prefer a family that also supports graphics.
		if flags&vk.QueueComputeBit != 0 {
			if outQueueInfo.ComputeFamilyIndex < 0 || flags&vk.QueueGraphicsBit != 0 {
				outQueueInfo.ComputeFamilyIndex = int32(i)
			}
		}
		if flags&vk.QueueTransferBit != 0 && outQueueInfo.TransferFamilyIndex < 0 {
			outQueueInfo.TransferFamilyIndex = int32(i)
		}
	}

	core.LogDebug("Compute Family Index:  %d", outQueueInfo.ComputeFamilyIndex)
	core.LogDebug("Transfer Family Index: %d", outQueueInfo.TransferFamilyIndex)

	if requirements.Compute && outQueueInfo.ComputeFamilyIndex < 0 {
		return false
	}
	if requirements.Transfer && outQueueInfo.TransferFamilyIndex < 0 {
		return false
	}

	if len(requirements.DeviceExtensionNames) > 0 {
		var availableExtensionCount uint32
		if res := vk.EnumerateDeviceExtensionProperties(device, "", &availableExtensionCount, nil); res != vk.Success {
			return false
		}
		availableExtensions := make([]vk.ExtensionProperties, availableExtensionCount)
		if res := vk.EnumerateDeviceExtensionProperties(device, "", &availableExtensionCount, availableExtensions); res != vk.Success {
			return false
		}
		for _, required := range requirements.DeviceExtensionNames {
			found := false
			for j := range availableExtensions {
				availableExtensions[j].Deref()
				end := FindFirstZeroInByteArray(availableExtensions[j].ExtensionName[:])
				if required == string(availableExtensions[j].ExtensionName[:end]) {
					found = true
					break
				}
			}
			if !found {
				core.LogInfo("Required extension not found: '%s', skipping device.", required)
				return false
			}
		}
	}

	core.LogInfo("Device meets queue requirements.")
	return true
}
