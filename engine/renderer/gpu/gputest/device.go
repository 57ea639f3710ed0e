// Package gputest provides an in-memory gpu.Device that records every object and command.
// It backs the unit tests and the "null" backend of the demo runner.
package gputest

import (
	"time"

	"github.com/cockroachdb/errors"

	"github.com/spaghettifunk/anima-denoiser/engine/renderer/gpu"
)

var (
	ErrInjected      = errors.New("gputest: injected failure")
	ErrPoolExhausted = errors.New("gputest: descriptor pool exhausted")
	ErrNotMappable   = errors.New("gputest: buffer is not bound to upload memory")
	ErrNotBound      = errors.New("gputest: resource has no memory bound")
)

// Object kinds tracked by Device.Live.
const (
	KindTexture        = "texture"
	KindBuffer         = "buffer"
	KindMemory         = "memory"
	KindDescriptor     = "descriptor"
	KindPipelineLayout = "pipeline_layout"
	KindPipeline       = "pipeline"
	KindDescriptorPool = "descriptor_pool"
	KindCmdBuffer      = "cmd_buffer"
)

type Option func(*Device)

func WithAPI(api gpu.API) Option {
	return func(d *Device) { d.desc.API = api }
}

func WithConstantBufferAlignment(alignment uint32) Option {
	return func(d *Device) { d.desc.ConstantBufferOffsetAlignment = alignment }
}

func WithInterfaceVersion(version uint32) Option {
	return func(d *Device) { d.desc.InterfaceVersion = version }
}

// Device is not safe for concurrent use.
type Device struct {
	desc   gpu.DeviceDesc
	nextID uint64
	live   map[uint64]string
	calls  map[string]int
	fail   map[string]int
	queue  *Queue

	WaitIdleCalls int
}

func NewDevice(opts ...Option) *Device {
	d := &Device{
		desc: gpu.DeviceDesc{
			API:                           gpu.APIVulkan,
			InterfaceVersion:              gpu.InterfaceVersion,
			AdapterName:                   "gputest",
			ConstantBufferOffsetAlignment: 256,
		},
		live:  make(map[uint64]string),
		calls: make(map[string]int),
		fail:  make(map[string]int),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.queue = &Queue{dev: d}
	return d
}

// FailOn makes the nth call (1-based, counted from now) of op return ErrInjected.
// op is the Device or DescriptorPool method name, e.g. "CreateTextureView".
func (d *Device) FailOn(op string, nth int) {
	d.fail[op] = d.calls[op] + nth
}

// Calls returns how many times op has been called.
func (d *Device) Calls(op string) int {
	return d.calls[op]
}

// Live returns the number of live objects of a kind, or of all kinds for "".
func (d *Device) Live(kind string) int {
	n := 0
	for _, k := range d.live {
		if kind == "" || k == kind {
			n++
		}
	}
	return n
}

func (d *Device) check(op string) error {
	d.calls[op]++
	if n, ok := d.fail[op]; ok && n == d.calls[op] {
		delete(d.fail, op)
		return errors.Wrapf(ErrInjected, "%s call %d", op, n)
	}
	return nil
}

func (d *Device) track(kind string) uint64 {
	d.nextID++
	d.live[d.nextID] = kind
	return d.nextID
}

func (d *Device) release(id uint64) {
	delete(d.live, id)
}

func (d *Device) Desc() gpu.DeviceDesc {
	return d.desc
}

// NewExternalTexture returns a texture owned by the caller, as a renderer would pass in.
// It is not counted by Live.
func (d *Device) NewExternalTexture(desc gpu.TextureDesc) *Texture {
	d.nextID++
	return &Texture{dev: d, id: d.nextID, desc: desc, external: true}
}

func (d *Device) CreateTexture(desc gpu.TextureDesc) (gpu.Texture, error) {
	if err := d.check("CreateTexture"); err != nil {
		return nil, err
	}
	return &Texture{dev: d, id: d.track(KindTexture), desc: desc}, nil
}

func (d *Device) CreateBuffer(desc gpu.BufferDesc) (gpu.Buffer, error) {
	if err := d.check("CreateBuffer"); err != nil {
		return nil, err
	}
	return &Buffer{dev: d, id: d.track(KindBuffer), desc: desc}, nil
}

// AllocateAndBindMemory places all textures in one allocation and all buffers in another.
func (d *Device) AllocateAndBindMemory(group gpu.ResourceGroup) ([]gpu.Memory, error) {
	if err := d.check("AllocateAndBindMemory"); err != nil {
		return nil, err
	}

	var memories []gpu.Memory
	if len(group.Textures) > 0 {
		var size uint64
		for _, t := range group.Textures {
			size += t.MemorySize()
		}
		mem := &Memory{dev: d, id: d.track(KindMemory), size: size, location: group.Location}
		for _, t := range group.Textures {
			t.(*Texture).memory = mem
		}
		memories = append(memories, mem)
	}
	if len(group.Buffers) > 0 {
		var size uint64
		for _, b := range group.Buffers {
			size += b.Desc().Size
		}
		mem := &Memory{dev: d, id: d.track(KindMemory), size: size, location: group.Location}
		for _, b := range group.Buffers {
			buf := b.(*Buffer)
			buf.memory = mem
			buf.data = make([]byte, buf.desc.Size)
		}
		memories = append(memories, mem)
	}
	return memories, nil
}

func (d *Device) CreateTextureView(desc gpu.TextureViewDesc) (gpu.Descriptor, error) {
	if err := d.check("CreateTextureView"); err != nil {
		return nil, err
	}
	return &Descriptor{dev: d, id: d.track(KindDescriptor), Texture: desc}, nil
}

func (d *Device) CreateBufferView(desc gpu.BufferViewDesc) (gpu.Descriptor, error) {
	if err := d.check("CreateBufferView"); err != nil {
		return nil, err
	}
	if desc.Buffer.(*Buffer).memory == nil {
		return nil, ErrNotBound
	}
	return &Descriptor{dev: d, id: d.track(KindDescriptor), Buffer: desc}, nil
}

func (d *Device) CreatePipelineLayout(desc gpu.PipelineLayoutDesc) (gpu.PipelineLayout, error) {
	if err := d.check("CreatePipelineLayout"); err != nil {
		return nil, err
	}
	return &PipelineLayout{dev: d, id: d.track(KindPipelineLayout), Desc: desc}, nil
}

func (d *Device) CreateComputePipeline(desc gpu.ComputePipelineDesc) (gpu.Pipeline, error) {
	if err := d.check("CreateComputePipeline"); err != nil {
		return nil, err
	}
	return &Pipeline{dev: d, id: d.track(KindPipeline), Desc: desc}, nil
}

func (d *Device) CreateDescriptorPool(desc gpu.DescriptorPoolDesc) (gpu.DescriptorPool, error) {
	if err := d.check("CreateDescriptorPool"); err != nil {
		return nil, err
	}
	return &DescriptorPool{dev: d, id: d.track(KindDescriptorPool), Desc: desc}, nil
}

func (d *Device) Queue() gpu.Queue {
	return d.queue
}

func (d *Device) WaitIdle() error {
	d.WaitIdleCalls++
	return nil
}

// Queue records submissions; work completes immediately. Acquired command buffers are
// tracked as live objects of KindCmdBuffer until submitted or discarded.
type Queue struct {
	dev       *Device
	ids       map[*CmdBuffer]uint64
	Submitted []*CmdBuffer
	Discarded []*CmdBuffer
}

func (q *Queue) AcquireCmdBuffer() (gpu.CmdBuffer, error) {
	if err := q.dev.check("AcquireCmdBuffer"); err != nil {
		return nil, err
	}
	if q.ids == nil {
		q.ids = make(map[*CmdBuffer]uint64)
	}
	cb := &CmdBuffer{}
	q.ids[cb] = q.dev.track(KindCmdBuffer)
	return cb, nil
}

// Submit releases cmd even when the injected failure fires, like a backend that frees the
// buffer on a failed submission.
func (q *Queue) Submit(cmd gpu.CmdBuffer) (gpu.Fence, error) {
	cb, ok := cmd.(*CmdBuffer)
	if !ok {
		return nil, errors.Newf("gputest: foreign command buffer %T", cmd)
	}
	q.release(cb)
	if err := q.dev.check("Submit"); err != nil {
		return nil, err
	}
	q.Submitted = append(q.Submitted, cb)
	return &Fence{}, nil
}

func (q *Queue) Discard(cmd gpu.CmdBuffer) {
	cb, ok := cmd.(*CmdBuffer)
	if !ok {
		return
	}
	if q.release(cb) {
		q.Discarded = append(q.Discarded, cb)
	}
}

func (q *Queue) release(cb *CmdBuffer) bool {
	id, ok := q.ids[cb]
	if !ok {
		return false
	}
	delete(q.ids, cb)
	q.dev.release(id)
	return true
}

// Fence is always signaled.
type Fence struct {
	Waits     int
	Destroyed bool
}

func (f *Fence) Wait(timeout time.Duration) error {
	f.Waits++
	return nil
}

func (f *Fence) Destroy() {
	f.Destroyed = true
}
