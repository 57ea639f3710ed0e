package gputest

import (
	"github.com/cockroachdb/errors"

	"github.com/spaghettifunk/anima-denoiser/engine/renderer/gpu"
)

type Texture struct {
	dev       *Device
	id        uint64
	desc      gpu.TextureDesc
	name      string
	external  bool
	memory    *Memory
	Destroyed bool
}

func (t *Texture) Desc() gpu.TextureDesc { return t.desc }
func (t *Texture) NativeObject() uint64  { return t.id }
func (t *Texture) Name() string          { return t.name }
func (t *Texture) SetDebugName(n string) { t.name = n }
func (t *Texture) Bound() bool           { return t.memory != nil }

func (t *Texture) MemorySize() uint64 {
	layers := uint64(t.desc.LayerNum)
	if layers == 0 {
		layers = 1
	}
	return uint64(t.desc.Width) * uint64(t.desc.Height) * uint64(t.desc.Format.BytesPerBlock()) * layers
}

func (t *Texture) Destroy() {
	if !t.external {
		t.dev.release(t.id)
	}
	t.Destroyed = true
}

type Buffer struct {
	dev       *Device
	id        uint64
	desc      gpu.BufferDesc
	memory    *Memory
	data      []byte
	mapped    bool
	Destroyed bool
}

func (b *Buffer) Desc() gpu.BufferDesc { return b.desc }

// Bytes returns the buffer contents.
func (b *Buffer) Bytes() []byte { return b.data }

func (b *Buffer) Map(offset, size uint64) ([]byte, error) {
	if b.memory == nil || b.memory.location == gpu.MemoryDevice {
		return nil, ErrNotMappable
	}
	if offset+size > uint64(len(b.data)) {
		return nil, errors.Newf("gputest: map range [%d, %d) exceeds buffer size %d", offset, offset+size, len(b.data))
	}
	b.mapped = true
	return b.data[offset : offset+size], nil
}

func (b *Buffer) Unmap() {
	b.mapped = false
}

func (b *Buffer) Destroy() {
	b.dev.release(b.id)
	b.Destroyed = true
}

type Memory struct {
	dev      *Device
	id       uint64
	size     uint64
	location gpu.MemoryLocation
}

func (m *Memory) Size() uint64                 { return m.size }
func (m *Memory) Location() gpu.MemoryLocation { return m.location }
func (m *Memory) Destroy()                     { m.dev.release(m.id) }

// Descriptor is either a texture view or a buffer view.
type Descriptor struct {
	dev       *Device
	id        uint64
	Texture   gpu.TextureViewDesc
	Buffer    gpu.BufferViewDesc
	Destroyed bool
}

func (d *Descriptor) NativeObject() uint64 { return d.id }

func (d *Descriptor) Destroy() {
	d.dev.release(d.id)
	d.Destroyed = true
}

type PipelineLayout struct {
	dev  *Device
	id   uint64
	Desc gpu.PipelineLayoutDesc
}

func (p *PipelineLayout) Destroy() { p.dev.release(p.id) }

type Pipeline struct {
	dev       *Device
	id        uint64
	Desc      gpu.ComputePipelineDesc
	Destroyed bool
}

func (p *Pipeline) Destroy() {
	p.dev.release(p.id)
	p.Destroyed = true
}

type DescriptorPool struct {
	dev  *Device
	id   uint64
	Desc gpu.DescriptorPoolDesc

	Sets     uint32
	Textures uint32
	Storages uint32
	Resets   int
}

func (p *DescriptorPool) AllocateDescriptorSet(layout gpu.PipelineLayout, setIndex uint32) (gpu.DescriptorSet, error) {
	if err := p.dev.check("AllocateDescriptorSet"); err != nil {
		return nil, err
	}
	pl := layout.(*PipelineLayout)
	if int(setIndex) >= len(pl.Desc.DescriptorSets) {
		return nil, errors.Newf("gputest: layout has no set %d", setIndex)
	}
	var textures, storages uint32
	for _, r := range pl.Desc.DescriptorSets[setIndex].Ranges {
		switch r.Type {
		case gpu.DescriptorTexture:
			textures += r.DescriptorNum
		case gpu.DescriptorStorageTexture:
			storages += r.DescriptorNum
		}
	}
	if p.Sets+1 > p.Desc.DescriptorSetMaxNum ||
		p.Textures+textures > p.Desc.TextureMaxNum ||
		p.Storages+storages > p.Desc.StorageTextureMaxNum {
		return nil, errors.Wrapf(ErrPoolExhausted, "sets %d/%d", p.Sets, p.Desc.DescriptorSetMaxNum)
	}
	p.Sets++
	p.Textures += textures
	p.Storages += storages
	return &DescriptorSet{Pool: p, Ranges: make(map[uint32][]gpu.Descriptor)}, nil
}

func (p *DescriptorPool) Reset() {
	p.Sets, p.Textures, p.Storages = 0, 0, 0
	p.Resets++
}

func (p *DescriptorPool) Destroy() { p.dev.release(p.id) }

// DescriptorSet keeps the last descriptors written to each range.
type DescriptorSet struct {
	Pool   *DescriptorPool
	Ranges map[uint32][]gpu.Descriptor
}

func (s *DescriptorSet) UpdateRanges(baseRange uint32, updates []gpu.DescriptorRangeUpdate) {
	for i, u := range updates {
		r := baseRange + uint32(i)
		need := int(u.BaseDescriptor) + len(u.Descriptors)
		for len(s.Ranges[r]) < need {
			s.Ranges[r] = append(s.Ranges[r], nil)
		}
		copy(s.Ranges[r][u.BaseDescriptor:], u.Descriptors)
	}
}
