package nrd

import (
	"testing"

	"github.com/spaghettifunk/anima-denoiser/engine/renderer/gpu"
	"github.com/spaghettifunk/anima-denoiser/engine/renderer/gpu/gputest"
)

func TestTransition(t *testing.T) {
	general := gpu.State{Access: gpu.AccessShaderResource, Layout: gpu.LayoutGeneral, Stages: gpu.StageComputeShader}
	otherStage := textureState
	otherStage.Stages = gpu.StageFragmentShader

	tests := []struct {
		name        string
		before      gpu.State
		storage     bool
		wantBarrier bool
	}{
		{"undefined to texture", undefined(), false, true},
		{"undefined to storage", undefined(), true, true},
		{"texture to texture", textureState, false, false},
		{"texture to storage", textureState, true, true},
		{"storage to texture", storageState, false, true},
		{"storage to storage", storageState, true, true},
		{"layout change", general, false, true},
		{"stage only", otherStage, false, false},
	}

	dev := gputest.NewDevice()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Resource{Texture: dev.NewExternalTexture(gpu.TextureDesc{}), State: tt.before}
			barriers := transition(nil, r, requiredState(tt.storage))

			if got := len(barriers) == 1; got != tt.wantBarrier {
				t.Fatalf("barrier recorded: got %v, want %v", got, tt.wantBarrier)
			}
			if tt.wantBarrier && (barriers[0].Before != tt.before || barriers[0].After != requiredState(tt.storage)) {
				t.Errorf("barrier: %+v", barriers[0])
			}
			if r.State != requiredState(tt.storage) {
				t.Errorf("state after transition: %+v", r.State)
			}
		})
	}
}

func TestRestoreBarriers(t *testing.T) {
	dev := gputest.NewDevice()
	known := gpu.State{Access: gpu.AccessShaderResource, Layout: gpu.LayoutShaderResource, Stages: gpu.StageFragmentShader}

	resources := []Resource{
		{Texture: dev.NewExternalTexture(gpu.TextureDesc{}), State: storageState},
		{Texture: dev.NewExternalTexture(gpu.TextureDesc{}), State: storageState},
		{Texture: dev.NewExternalTexture(gpu.TextureDesc{}), State: textureState},
	}
	initial := []gpu.State{known, undefined(), textureState}

	barriers := restoreBarriers(nil, resources, initial)
	if len(barriers) != 1 {
		t.Fatalf("got %d barriers, want 1", len(barriers))
	}
	if barriers[0].Texture != resources[0].Texture || barriers[0].Before != storageState || barriers[0].After != known {
		t.Errorf("barrier: %+v", barriers[0])
	}
	if resources[0].State != known {
		t.Errorf("restored state: %+v", resources[0].State)
	}
	if resources[1].State != storageState {
		t.Errorf("unknown initial state overwritten: %+v", resources[1].State)
	}
}

func TestConstantRing(t *testing.T) {
	ring := newConstantRing(256, 3)

	want := []uint64{0, 256, 512, 0, 256}
	for n, w := range want {
		if got := ring.push(); got != w {
			t.Fatalf("push %d: got %d, want %d", n, got, w)
		}
		if ring.previous() != w {
			t.Fatalf("previous after push %d: got %d", n, ring.previous())
		}
	}

	empty := newConstantRing(0, 6)
	if empty.size != 0 {
		t.Errorf("zero view size ring has size %d", empty.size)
	}
}
