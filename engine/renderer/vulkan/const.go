package vulkan

import "time"

// VULKAN_ROOT_SET_MAX_COUNT is the number of constant buffer views one pipeline layout can bind
// at a time. Each view gets its own root descriptor set.
const VULKAN_ROOT_SET_MAX_COUNT uint32 = 16

// VULKAN_MAX_SETS_PER_LAYOUT bounds the register spaces a pipeline layout can use.
const VULKAN_MAX_SETS_PER_LAYOUT = 8

// VULKAN_IDLE_TIMEOUT bounds WaitIdle on fences that are still pending.
const VULKAN_IDLE_TIMEOUT = 10 * time.Second
