package testbed

import (
	"github.com/spaghettifunk/anima-denoiser/engine"
	"github.com/spaghettifunk/anima-denoiser/engine/core"
	"github.com/spaghettifunk/anima-denoiser/engine/denoiser"
	"github.com/spaghettifunk/anima-denoiser/engine/math"
)

const jitterPeriod = 8

type TestGame struct {
	*engine.Game
}

type gameState struct {
	width  uint16
	height uint16

	// Sun direction, rotated around Y at lightSpeed radians per second.
	light      math.Vec3
	lightSpeed float32

	// Every resetEvery frames the history is dropped, as on a camera cut.
	resetEvery  uint32
	splitScreen float32
}

// NewTestGame returns a game that jitters the camera and orbits the light.
func NewTestGame() *TestGame {
	tg := &TestGame{
		Game: &engine.Game{
			State: &gameState{
				light:       math.NewVec3(0.3, -1, 0.2).Normalize(),
				lightSpeed:  0.25,
				resetEvery:  600,
				splitScreen: 0,
			},
		},
	}

	tg.FnInitialize = tg.Initialize
	tg.FnUpdate = tg.Update
	tg.FnShutdown = tg.Shutdown

	return tg
}

func (g *TestGame) state() *gameState {
	return g.State.(*gameState)
}

func (g *TestGame) Initialize(width, height uint16) error {
	s := g.state()
	s.width, s.height = width, height
	core.LogInfo("testbed ready at %dx%d", width, height)
	return nil
}

func (g *TestGame) Update(fc *engine.FrameContext) error {
	s := g.state()

	jitter := math.HaltonJitter(fc.Frame, jitterPeriod)
	fc.Common.CameraJitter = [2]float32{jitter.X, jitter.Y}
	fc.Common.SplitScreen = s.splitScreen
	if s.resetEvery > 0 && fc.Frame > 0 && fc.Frame%s.resetEvery == 0 {
		fc.Common.AccumulationMode = denoiser.AccumulationRestart
		core.LogDebug("history reset at frame %d", fc.Frame)
	}

	s.light = s.light.RotateY(s.lightSpeed * float32(fc.DeltaTime)).Normalize()
	fc.Sigma.LightDirection = s.light.Array()
	return nil
}

func (g *TestGame) Shutdown() error {
	core.LogInfo("testbed shutting down")
	return nil
}
