package nrd

import (
	"github.com/spaghettifunk/anima-denoiser/engine/renderer/gpu"
)

var (
	textureState = gpu.State{Access: gpu.AccessShaderResource, Layout: gpu.LayoutShaderResource, Stages: gpu.StageComputeShader}
	storageState = gpu.State{Access: gpu.AccessShaderResourceStorage, Layout: gpu.LayoutShaderResourceStorage, Stages: gpu.StageComputeShader}
)

func requiredState(storage bool) gpu.State {
	if storage {
		return storageState
	}
	return textureState
}

// transition moves r to after, appending a barrier when the access or layout changes or when
// a storage resource is written again.
func transition(barriers []gpu.TextureBarrier, r *Resource, after gpu.State) []gpu.TextureBarrier {
	before := r.State
	if before.Transitions(after) || (before.IsStorage() && after.IsStorage()) {
		barriers = append(barriers, gpu.TextureBarrier{Texture: r.Texture, Before: before, After: after})
	}
	r.State = after
	return barriers
}

// restoreBarriers appends a barrier back to the entry state for every resource that changed
// and entered in a known state, and resets its tracked state.
func restoreBarriers(barriers []gpu.TextureBarrier, resources []Resource, initial []gpu.State) []gpu.TextureBarrier {
	for i := range resources {
		r := &resources[i]
		if r.Texture == nil || !r.State.Transitions(initial[i]) || initial[i].IsUnknown() {
			continue
		}
		barriers = append(barriers, gpu.TextureBarrier{Texture: r.Texture, Before: r.State, After: initial[i]})
		r.State = initial[i]
	}
	return barriers
}
