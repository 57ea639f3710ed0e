package engine

import (
	"os"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/spaghettifunk/anima-denoiser/engine/assets"
	"github.com/spaghettifunk/anima-denoiser/engine/config"
	"github.com/spaghettifunk/anima-denoiser/engine/core"
	"github.com/spaghettifunk/anima-denoiser/engine/denoiser"
	"github.com/spaghettifunk/anima-denoiser/engine/nrd"
	"github.com/spaghettifunk/anima-denoiser/engine/renderer/gpu"
	"github.com/spaghettifunk/anima-denoiser/engine/renderer/gpu/gputest"
	"github.com/spaghettifunk/anima-denoiser/engine/renderer/vulkan"
	"github.com/spaghettifunk/anima-denoiser/engine/systems"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

// ShadowDenoiser is the identifier the engine registers SIGMA shadow under.
const ShadowDenoiser denoiser.Identifier = 0

const (
	fenceTimeout     = 10 * time.Second
	preloadQueueSize = 16
)

type Option func(*Engine)

// WithDevice runs on dev instead of the configured backend. The caller keeps ownership.
func WithDevice(dev gpu.Device) Option {
	return func(e *Engine) { e.device = dev }
}

func WithLogger(l core.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

func WithGame(g *Game) Option {
	return func(e *Engine) { e.game = g }
}

// Engine renders nothing itself: it feeds a fixed set of scene textures through the denoiser
// integration once per frame, on a single recording goroutine.
type Engine struct {
	currentStage Stage
	config       *config.Config
	logger       core.Logger
	game         *Game

	device         gpu.Device
	shutdownDevice func() error

	shaders     *assets.ShaderLibrary
	integration *nrd.Integration
	scene       *scene
	pacer       *FramePacer
	metrics     *core.Metrics
	clock       *core.Clock

	common   denoiser.CommonSettings
	sigma    denoiser.SigmaSettings
	frame    uint32
	lastTime float64

	stopRequested atomic.Bool
}

func New(cfg *config.Config, opts ...Option) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		currentStage: EngineStageUninitialized,
		config:       cfg,
		metrics:      core.NewMetrics(),
		clock:        core.NewClock(),
		sigma:        cfg.Run.Sigma.Settings(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		level, _ := core.ParseLevel(cfg.Log.Level)
		core.SetLogLevel(level)
		e.logger = core.NewLogger(os.Stderr, cfg.Log.Prefix, level)
	}
	return e, nil
}

func (e *Engine) Stage() Stage {
	return e.currentStage
}

func (e *Engine) Metrics() *core.Metrics {
	return e.metrics
}

func (e *Engine) Integration() *nrd.Integration {
	return e.integration
}

func (e *Engine) Frame() uint32 {
	return e.frame
}

// Initialize creates the device, the integration and the scene. On failure everything created
// so far is released.
func (e *Engine) Initialize() (err error) {
	if e.currentStage != EngineStageUninitialized {
		return errors.Newf("engine already initialized (stage %d)", e.currentStage)
	}
	e.currentStage = EngineStageInitializing
	defer func() {
		if err != nil {
			e.logger.Error("initialization failed", "err", err)
			_ = e.Shutdown()
		}
	}()

	cfg := e.config
	e.shaders = assets.NewShaderLibrary(cfg.Shaders.Dir, assets.WithLogger(e.logger))
	if cfg.Shaders.HotReload {
		if err := e.shaders.Watch(); err != nil {
			return err
		}
	}
	if err := e.preloadShaders(); err != nil {
		return err
	}

	if err := e.createDevice(); err != nil {
		return err
	}
	e.logger.Info("device ready", "adapter", e.device.Desc().AdapterName, "api", e.device.Desc().API)

	lib := denoiser.NewCatalog(e.shaders)
	e.integration = nrd.New(lib, nrd.WithLogger(e.logger), nrd.WithMetrics(e.metrics))
	creation := denoiser.InstanceCreationDesc{
		Denoisers: []denoiser.DenoiserDesc{{Identifier: ShadowDenoiser, Denoiser: denoiser.SigmaShadow}},
	}
	desc := cfg.Integration.Desc()
	if err := e.integration.Recreate(desc, creation, e.device); err != nil {
		return err
	}
	e.logger.Info("integration ready",
		"persistentMB", e.integration.PersistentMemoryUsageMB(),
		"aliasableMB", e.integration.AliasableMemoryUsageMB())

	if e.scene, err = newScene(e.device, desc.ResourceWidth, desc.ResourceHeight, shadowInputs); err != nil {
		return err
	}
	e.pacer = NewFramePacer(int(desc.QueuedFrameNum), fenceTimeout)

	e.common = denoiser.DefaultCommonSettings()
	e.common.ResourceSize = [2]uint16{desc.ResourceWidth, desc.ResourceHeight}
	e.common.ResourceSizePrev = e.common.ResourceSize
	e.common.RectSize = e.common.ResourceSize
	e.common.RectSizePrev = e.common.ResourceSize

	if e.game != nil && e.game.FnInitialize != nil {
		if err := e.game.FnInitialize(desc.ResourceWidth, desc.ResourceHeight); err != nil {
			return errors.Wrap(err, "game initialize")
		}
	}

	e.currentStage = EngineStageInitialized
	return nil
}

func (e *Engine) preloadShaders() error {
	jobs, err := systems.NewJobSystem(runtime.NumCPU(), preloadQueueSize)
	if err != nil {
		return err
	}
	n, err := e.shaders.Preload(jobs)
	err = errors.CombineErrors(err, jobs.Shutdown())
	if err != nil {
		return err
	}
	e.logger.Info("shaders loaded", "count", n, "dir", e.shaders.Dir())
	return nil
}

func (e *Engine) createDevice() error {
	if e.device != nil {
		return nil
	}
	switch e.config.Run.Backend {
	case config.BackendNull:
		e.device = gputest.NewDevice()
	case config.BackendVulkan:
		vb, err := vulkan.New(vulkan.ContextOptions{
			AppName:        e.config.Integration.Name,
			Validation:     e.config.Run.Validation,
			PreferDiscrete: true,
		})
		if err != nil {
			return err
		}
		e.device = vb
		e.shutdownDevice = vb.Shutdown
	default:
		return errors.Newf("unknown backend %q", e.config.Run.Backend)
	}
	return nil
}

// Run records frames until the configured count is reached or Stop is called.
func (e *Engine) Run() error {
	if e.currentStage != EngineStageInitialized {
		return core.Precondition(core.ErrNotInitialized, "engine stage %d", e.currentStage)
	}
	e.currentStage = EngineStageRunning
	defer func() { e.currentStage = EngineStageInitialized }()

	e.clock.Start()
	e.clock.Update()
	e.lastTime = e.clock.Elapsed()

	frames := uint32(e.config.Run.Frames)
	for !e.stopRequested.Load() {
		if frames > 0 && e.frame >= frames {
			break
		}
		if err := e.RunFrame(); err != nil {
			return err
		}
		if e.frame%uint32(core.AVG_COUNT) == 0 {
			avg := e.metrics.Average
			e.logger.Info("frame stats", "frame", e.frame, "fps", e.metrics.FPS, "ms", avg.FrameMS,
				"dispatches", avg.Dispatches, "barriers", avg.Barriers, "views", avg.ViewsCreated)
		}
	}
	return e.pacer.Drain()
}

// Stop makes Run return after the current frame. Safe to call from any goroutine.
func (e *Engine) Stop() {
	e.stopRequested.Store(true)
}

// RunFrame records and submits one denoised frame.
func (e *Engine) RunFrame() error {
	if err := e.pacer.Acquire(); err != nil {
		return err
	}

	if e.shaders.TakeDirty() {
		e.logger.Info("shaders changed, recreating pipelines")
		if err := e.integration.RecreatePipelines(); err != nil {
			return err
		}
	}

	e.clock.Update()
	now := e.clock.Elapsed()
	delta := now - e.lastTime
	e.lastTime = now

	if err := e.integration.NewFrame(); err != nil {
		return err
	}

	e.common.FrameIndex = e.frame
	e.common.AccumulationMode = denoiser.AccumulationContinue
	if e.frame == 0 {
		e.common.AccumulationMode = denoiser.AccumulationRestart
	}
	if e.game != nil && e.game.FnUpdate != nil {
		fc := &FrameContext{Frame: e.frame, DeltaTime: delta, Common: &e.common, Sigma: &e.sigma}
		if err := e.game.FnUpdate(fc); err != nil {
			return errors.Wrap(err, "game update")
		}
	}
	if err := e.integration.SetCommonSettings(e.common); err != nil {
		return err
	}
	if err := e.integration.SetDenoiserSettings(ShadowDenoiser, e.sigma); err != nil {
		return err
	}

	snap, err := e.scene.snapshot()
	if err != nil {
		return err
	}
	queue := e.device.Queue()
	cmd, err := queue.AcquireCmdBuffer()
	if err != nil {
		return err
	}
	if err := e.integration.Denoise([]denoiser.Identifier{ShadowDenoiser}, cmd, &snap); err != nil {
		queue.Discard(cmd)
		return err
	}
	e.scene.update(&snap)

	fence, err := queue.Submit(cmd)
	if err != nil {
		queue.Discard(cmd)
		return errors.Wrapf(err, "submitting frame %d", e.frame)
	}
	if err := e.pacer.Push(fence); err != nil {
		return err
	}

	e.metrics.EndFrame(delta)
	e.frame++
	return nil
}

// Shutdown waits for queued frames and releases everything Initialize created. It is safe to
// call on a partially initialized engine.
func (e *Engine) Shutdown() error {
	e.currentStage = EngineStageShuttingDown
	var err error

	if e.pacer != nil {
		err = errors.CombineErrors(err, e.pacer.Drain())
		e.pacer = nil
	}
	if e.integration != nil {
		e.integration.Destroy()
		e.integration = nil
	}
	if e.scene != nil {
		e.scene.destroy()
		e.scene = nil
	}
	if e.game != nil && e.game.FnShutdown != nil {
		err = errors.CombineErrors(err, e.game.FnShutdown())
	}
	if e.shaders != nil {
		err = errors.CombineErrors(err, e.shaders.Close())
		e.shaders = nil
	}
	if e.shutdownDevice != nil {
		err = errors.CombineErrors(err, e.shutdownDevice())
		e.shutdownDevice = nil
		e.device = nil
	}

	e.currentStage = EngineStageUninitialized
	return err
}
