// Package nrd drives a denoiser library on a gpu.Device: it owns the texture pool, pipelines and
// descriptor pools, tracks resource states and records the dispatches of each Denoise call.
//
// An Integration is not safe for concurrent use. All calls must come from the goroutine that
// records the command buffers.
package nrd

import (
	"github.com/cockroachdb/errors"

	"github.com/spaghettifunk/anima-denoiser/engine/core"
	"github.com/spaghettifunk/anima-denoiser/engine/denoiser"
	"github.com/spaghettifunk/anima-denoiser/engine/math"
	"github.com/spaghettifunk/anima-denoiser/engine/renderer/gpu"
)

// Stage is the lifecycle stage of an Integration.
type Stage uint8

const (
	StageUninitialized Stage = iota
	StageInitialized
)

func (s Stage) String() string {
	if s == StageInitialized {
		return "initialized"
	}
	return "uninitialized"
}

const bytesPerMB = 1024 * 1024

type Option func(*Integration)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l core.Logger) Option {
	return func(i *Integration) { i.baseLogger = l }
}

// WithMetrics makes the integration count dispatches, barriers, views and uploads.
func WithMetrics(m *core.Metrics) Option {
	return func(i *Integration) { i.metrics = m }
}

type Integration struct {
	lib        denoiser.Library
	baseLogger core.Logger
	logger     core.Logger
	metrics    *core.Metrics
	id         core.InstanceID

	stage    Stage
	desc     IntegrationDesc
	device   gpu.Device
	instance denoiser.Instance

	pool      texturePool
	pipelines []gpu.Pipeline
	layout    gpu.PipelineLayout
	dpools    []gpu.DescriptorPool
	views     *viewCache

	constantBuffer gpu.Buffer
	constantView   gpu.Descriptor
	constantMemory []gpu.Memory
	ring           constantRing

	frameIndex                 int64
	poolIndex                  int
	prevFrameIndexFromSettings uint32

	// Scratch reused across calls.
	initialStates []gpu.State
	barriers      []gpu.TextureBarrier
	descriptors   []gpu.Descriptor
}

func New(lib denoiser.Library, opts ...Option) *Integration {
	i := &Integration{
		lib:        lib,
		baseLogger: core.NopLogger(),
		frameIndex: -1,
	}
	for _, opt := range opts {
		opt(i)
	}
	i.logger = i.baseLogger
	return i
}

func (i *Integration) Stage() Stage {
	return i.stage
}

// ID identifies the current instance in logs. It changes with every Recreate.
func (i *Integration) ID() core.InstanceID {
	return i.id
}

// FrameIndex is the number of NewFrame calls minus one.
func (i *Integration) FrameIndex() int64 {
	return i.frameIndex
}

func (i *Integration) Desc() IntegrationDesc {
	return i.desc
}

func (i *Integration) checkInitialized() error {
	if i.stage != StageInitialized {
		return core.Precondition(core.ErrNotInitialized, "did you forget to call Recreate?")
	}
	return nil
}

// Recreate destroys the current instance and builds a new one. On failure the integration is
// left uninitialized.
func (i *Integration) Recreate(desc IntegrationDesc, creation denoiser.InstanceCreationDesc, dev gpu.Device) (err error) {
	i.Destroy()

	if err := desc.Validate(); err != nil {
		return err
	}
	if dev == nil {
		return errors.Wrap(core.ErrInvalidConfig, "nil device")
	}
	if v := dev.Desc().InterfaceVersion; v != gpu.InterfaceVersion {
		return errors.Wrapf(core.ErrIncompatibleVersion, "device interface version %d, want %d", v, gpu.InterfaceVersion)
	}
	libDesc := i.lib.Desc()
	if libDesc.VersionMajor != denoiser.VersionMajor || libDesc.VersionMinor != denoiser.VersionMinor {
		return errors.Wrapf(core.ErrIncompatibleVersion, "library version %d.%d, want %d.%d",
			libDesc.VersionMajor, libDesc.VersionMinor, denoiser.VersionMajor, denoiser.VersionMinor)
	}

	defer func() {
		if err != nil {
			i.logger.Error("recreate failed", "err", err)
			i.Destroy()
		}
	}()

	i.desc = desc
	i.device = dev
	i.id = core.NewInstanceID()
	i.logger = core.WithFields(i.baseLogger, "integration", core.ShortID(i.id), "name", desc.Name)
	i.logger.Info("recreating", "width", desc.ResourceWidth, "height", desc.ResourceHeight, "queued", desc.QueuedFrameNum)

	if i.instance, err = i.lib.CreateInstance(creation); err != nil {
		return errors.Wrap(err, "creating denoiser instance")
	}
	if err = i.createResources(); err != nil {
		return err
	}
	if err = i.createPipelines(); err != nil {
		return err
	}

	i.stage = StageInitialized
	return nil
}

func (i *Integration) createResources() error {
	inst := i.instance.Desc()
	devDesc := i.device.Desc()

	if err := i.pool.create(i.device, i.desc.Name, inst, i.desc.ResourceWidth, i.desc.ResourceHeight, i.desc.floatPolicy()); err != nil {
		return errors.Wrap(err, "creating texture pool")
	}
	i.logger.Info("texture pool created",
		"textures", len(i.pool.resources),
		"permanentMB", float64(i.pool.permanentBytes)/bytesPerMB,
		"transientMB", float64(i.pool.transientBytes)/bytesPerMB)

	setsMaxNum := uint64(inst.DescriptorPoolDesc.SetsMaxNum)
	viewSize := uint64(math.Align(inst.ConstantBufferMaxDataSize, devDesc.ConstantBufferOffsetAlignment))
	i.ring = newConstantRing(viewSize, setsMaxNum*uint64(i.desc.QueuedFrameNum))

	var err error
	if i.ring.size > 0 {
		if i.constantBuffer, err = i.device.CreateBuffer(gpu.BufferDesc{Size: i.ring.size, Usage: gpu.BufferUsageConstantBuffer}); err != nil {
			return errors.Wrap(err, "creating constant buffer")
		}
		if i.constantMemory, err = i.device.AllocateAndBindMemory(gpu.ResourceGroup{
			Location: gpu.MemoryDeviceUpload,
			Buffers:  []gpu.Buffer{i.constantBuffer},
		}); err != nil {
			return errors.Wrap(err, "binding constant buffer memory")
		}
		if i.constantView, err = i.device.CreateBufferView(gpu.BufferViewDesc{Buffer: i.constantBuffer, Size: viewSize}); err != nil {
			return errors.Wrap(err, "creating constant buffer view")
		}
	}

	if i.layout, err = i.device.CreatePipelineLayout(pipelineLayoutDesc(inst, i.lib.Desc(), devDesc.API)); err != nil {
		return errors.Wrap(err, "creating pipeline layout")
	}

	poolDesc := descriptorPoolDesc(inst)
	for n := 0; n < int(i.desc.QueuedFrameNum); n++ {
		dp, err := i.device.CreateDescriptorPool(poolDesc)
		if err != nil {
			return errors.Wrapf(err, "creating descriptor pool %d", n)
		}
		i.dpools = append(i.dpools, dp)
	}

	capacity := int(i.desc.QueuedFrameNum) * int(poolDesc.TextureMaxNum+poolDesc.StorageTextureMaxNum)
	if i.views, err = newViewCache(int(i.desc.QueuedFrameNum), capacity, i.desc.EnableWholeLifetimeDescriptorCaching); err != nil {
		return err
	}

	roles := denoiser.RoleCount
	i.initialStates = make([]gpu.State, 0, roles)
	i.barriers = make([]gpu.TextureBarrier, 0, roles+len(i.pool.resources))
	i.descriptors = make([]gpu.Descriptor, 0, poolDesc.TextureMaxNum+poolDesc.StorageTextureMaxNum)
	return nil
}

// RecreatePipelines rebuilds every compute pipeline from freshly loaded shaders.
func (i *Integration) RecreatePipelines() error {
	if err := i.checkInitialized(); err != nil {
		return err
	}
	if err := i.instance.ReloadShaders(); err != nil {
		return errors.Wrap(err, "reloading shaders")
	}
	return i.createPipelines()
}

func (i *Integration) createPipelines() error {
	i.waitForIdle()
	i.destroyPipelines()

	inst := i.instance.Desc()
	kind := shaderKind(i.device.Desc().API)
	for n, p := range inst.Pipelines {
		pipeline, err := i.device.CreateComputePipeline(gpu.ComputePipelineDesc{
			Name:   p.ShaderFileName,
			Layout: i.layout,
			Shader: gpu.ShaderDesc{
				Bytecode:   p.ComputeShaders[kind].Bytecode,
				EntryPoint: inst.ShaderEntryPoint,
			},
		})
		if err != nil {
			return errors.Wrapf(err, "creating pipeline %d (%s)", n, p.ShaderFileName)
		}
		i.pipelines = append(i.pipelines, pipeline)
	}
	i.logger.Debug("pipelines created", "count", len(i.pipelines))
	return nil
}

func (i *Integration) destroyPipelines() {
	for _, p := range i.pipelines {
		p.Destroy()
	}
	i.pipelines = i.pipelines[:0]
}

// NewFrame advances to the next queued frame and recycles its descriptor pool.
func (i *Integration) NewFrame() error {
	if err := i.checkInitialized(); err != nil {
		return err
	}

	// frameIndex starts at -1 so the first frame uses pool 0.
	i.frameIndex++
	i.poolIndex = int(i.frameIndex % int64(i.desc.QueuedFrameNum))
	i.dpools[i.poolIndex].Reset()

	if n := i.views.recycle(i.poolIndex); n > 0 {
		i.logger.Debug("destroyed cached views", "count", n, "slot", i.poolIndex)
	}
	i.prevFrameIndexFromSettings++
	return nil
}

// SetCommonSettings forwards settings to the instance. The resource size must match the
// integration and the frame index must advance by one per frame unless accumulation restarts.
func (i *Integration) SetCommonSettings(settings denoiser.CommonSettings) error {
	if err := i.checkInitialized(); err != nil {
		return err
	}
	size := [2]uint16{i.desc.ResourceWidth, i.desc.ResourceHeight}
	if settings.ResourceSize != settings.ResourceSizePrev || settings.ResourceSize != size {
		return core.Precondition(core.ErrResourceSizeMismatch,
			"resource size %v (prev %v), integration is %v; use RectSize for dynamic resolution",
			settings.ResourceSize, settings.ResourceSizePrev, size)
	}

	if err := i.instance.SetCommonSettings(settings); err != nil {
		return errors.Wrap(err, "setting common settings")
	}

	if i.frameIndex == 0 || settings.AccumulationMode != denoiser.AccumulationContinue {
		i.prevFrameIndexFromSettings = settings.FrameIndex
	} else if i.prevFrameIndexFromSettings != settings.FrameIndex {
		return core.Precondition(core.ErrFrameIndexNotSequential, "frame index %d, expected %d",
			settings.FrameIndex, i.prevFrameIndexFromSettings)
	}
	return nil
}

func (i *Integration) SetDenoiserSettings(id denoiser.Identifier, settings any) error {
	if err := i.checkInitialized(); err != nil {
		return err
	}
	return i.instance.SetDenoiserSettings(id, settings)
}

// DestroyCachedViews destroys every cached view of every queued frame.
func (i *Integration) DestroyCachedViews() {
	if i.views == nil {
		return
	}
	i.waitForIdle()
	n := i.views.destroyAll()
	i.logger.Debug("destroyed cached views", "count", n)
}

func (i *Integration) waitForIdle() {
	if i.desc.AutoWaitForIdle && i.device != nil {
		if err := i.device.WaitIdle(); err != nil {
			i.logger.Warn("wait for idle failed", "err", err)
		}
	}
}

// Destroy releases every GPU object. It is safe to call more than once.
func (i *Integration) Destroy() {
	if i.device == nil {
		return
	}
	i.waitForIdle()

	if i.constantView != nil {
		i.constantView.Destroy()
	}
	if i.constantBuffer != nil {
		i.constantBuffer.Destroy()
	}
	if i.layout != nil {
		i.layout.Destroy()
	}
	if i.views != nil {
		i.views.destroyAll()
	}
	i.pool.destroy()
	i.destroyPipelines()
	for _, m := range i.constantMemory {
		m.Destroy()
	}
	for _, dp := range i.dpools {
		dp.Destroy()
	}
	if i.instance != nil {
		i.instance.Destroy()
	}
	i.logger.Info("destroyed")

	*i = Integration{
		lib:        i.lib,
		baseLogger: i.baseLogger,
		logger:     i.baseLogger,
		metrics:    i.metrics,
		frameIndex: -1,
	}
}

func (i *Integration) TotalMemoryUsageMB() float64 {
	return float64(i.pool.permanentBytes+i.pool.transientBytes) / bytesPerMB
}

func (i *Integration) PersistentMemoryUsageMB() float64 {
	return float64(i.pool.permanentBytes) / bytesPerMB
}

func (i *Integration) AliasableMemoryUsageMB() float64 {
	return float64(i.pool.transientBytes) / bytesPerMB
}
