package gputest

import (
	"testing"

	"github.com/cockroachdb/errors"

	"github.com/spaghettifunk/anima-denoiser/engine/renderer/gpu"
)

func TestFailOn(t *testing.T) {
	d := NewDevice()
	d.FailOn("CreateTexture", 2)

	if _, err := d.CreateTexture(gpu.TextureDesc{Format: gpu.FormatR8Unorm, Width: 4, Height: 4}); err != nil {
		t.Fatalf("first CreateTexture: %v", err)
	}
	if _, err := d.CreateTexture(gpu.TextureDesc{}); !errors.Is(err, ErrInjected) {
		t.Fatalf("second CreateTexture: got %v, want ErrInjected", err)
	}
	if _, err := d.CreateTexture(gpu.TextureDesc{}); err != nil {
		t.Fatalf("third CreateTexture: %v", err)
	}
	if got := d.Calls("CreateTexture"); got != 3 {
		t.Errorf("Calls: got %d, want 3", got)
	}
}

func TestMemoryBatchingAndMap(t *testing.T) {
	d := NewDevice()
	a, _ := d.CreateTexture(gpu.TextureDesc{Format: gpu.FormatRGBA8Unorm, Width: 2, Height: 2})
	b, _ := d.CreateTexture(gpu.TextureDesc{Format: gpu.FormatR16Sfloat, Width: 2, Height: 2})
	mems, err := d.AllocateAndBindMemory(gpu.ResourceGroup{Location: gpu.MemoryDevice, Textures: []gpu.Texture{a, b}})
	if err != nil {
		t.Fatal(err)
	}
	if len(mems) != 1 || mems[0].Size() != 16+8 {
		t.Fatalf("expected one 24 byte allocation, got %d allocations", len(mems))
	}

	buf, _ := d.CreateBuffer(gpu.BufferDesc{Size: 64, Usage: gpu.BufferUsageConstantBuffer})
	if _, err := buf.Map(0, 4); !errors.Is(err, ErrNotMappable) {
		t.Fatalf("Map before bind: got %v", err)
	}
	if _, err := d.AllocateAndBindMemory(gpu.ResourceGroup{Location: gpu.MemoryDeviceUpload, Buffers: []gpu.Buffer{buf}}); err != nil {
		t.Fatal(err)
	}
	data, err := buf.Map(8, 4)
	if err != nil {
		t.Fatal(err)
	}
	copy(data, []byte{1, 2, 3, 4})
	buf.Unmap()
	if got := buf.(*Buffer).Bytes()[8:12]; got[0] != 1 || got[3] != 4 {
		t.Errorf("mapped write not visible: %v", got)
	}
}

func TestDescriptorPoolBudget(t *testing.T) {
	d := NewDevice()
	layout, _ := d.CreatePipelineLayout(gpu.PipelineLayoutDesc{
		DescriptorSets: []gpu.DescriptorSetDesc{{Ranges: []gpu.DescriptorRangeDesc{
			{DescriptorNum: 2, Type: gpu.DescriptorTexture},
			{DescriptorNum: 1, Type: gpu.DescriptorStorageTexture},
		}}},
	})
	pool, _ := d.CreateDescriptorPool(gpu.DescriptorPoolDesc{DescriptorSetMaxNum: 2, TextureMaxNum: 4, StorageTextureMaxNum: 2})
	for i := 0; i < 2; i++ {
		if _, err := pool.AllocateDescriptorSet(layout, 0); err != nil {
			t.Fatalf("allocation %d: %v", i, err)
		}
	}
	if _, err := pool.AllocateDescriptorSet(layout, 0); !errors.Is(err, ErrPoolExhausted) {
		t.Fatalf("third allocation: got %v, want ErrPoolExhausted", err)
	}
	pool.Reset()
	if _, err := pool.AllocateDescriptorSet(layout, 0); err != nil {
		t.Fatalf("allocation after reset: %v", err)
	}
}

func TestLiveTracking(t *testing.T) {
	d := NewDevice()
	tex, _ := d.CreateTexture(gpu.TextureDesc{})
	view, _ := d.CreateTextureView(gpu.TextureViewDesc{Texture: tex})
	ext := d.NewExternalTexture(gpu.TextureDesc{})
	if got := d.Live(""); got != 2 {
		t.Fatalf("Live: got %d, want 2", got)
	}
	view.Destroy()
	tex.Destroy()
	ext.Destroy()
	if got := d.Live(""); got != 0 {
		t.Fatalf("Live after destroy: got %d, want 0", got)
	}
}

func TestCmdBufferBarrierCopy(t *testing.T) {
	d := NewDevice()
	tex := d.NewExternalTexture(gpu.TextureDesc{})
	cb := &CmdBuffer{}
	scratch := []gpu.TextureBarrier{{Texture: tex, After: gpu.State{Access: gpu.AccessShaderResource}}}
	cb.Barrier(scratch)
	scratch[0].After.Access = gpu.AccessNone
	if got := cb.BarriersFor(tex); len(got) != 1 || got[0].After.Access != gpu.AccessShaderResource {
		t.Fatalf("recorded barrier aliased scratch: %+v", got)
	}
}

func TestQueueCmdBufferLifetime(t *testing.T) {
	d := NewDevice()
	q := d.Queue().(*Queue)

	submitted, _ := q.AcquireCmdBuffer()
	discarded, _ := q.AcquireCmdBuffer()
	if got := d.Live(KindCmdBuffer); got != 2 {
		t.Fatalf("live command buffers: got %d, want 2", got)
	}
	if _, err := q.Submit(submitted); err != nil {
		t.Fatal(err)
	}
	q.Discard(discarded)
	q.Discard(discarded)
	q.Discard(submitted)
	if got := d.Live(KindCmdBuffer); got != 0 {
		t.Errorf("live command buffers: got %d, want 0", got)
	}
	if len(q.Submitted) != 1 || len(q.Discarded) != 1 {
		t.Errorf("submitted %d, discarded %d", len(q.Submitted), len(q.Discarded))
	}

	d.FailOn("Submit", 1)
	failed, _ := q.AcquireCmdBuffer()
	if _, err := q.Submit(failed); !errors.Is(err, ErrInjected) {
		t.Fatalf("Submit err = %v", err)
	}
	if got := d.Live(KindCmdBuffer); got != 0 {
		t.Errorf("failed Submit kept the command buffer alive")
	}
}
