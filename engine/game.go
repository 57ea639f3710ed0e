package engine

import (
	"github.com/spaghettifunk/anima-denoiser/engine/denoiser"
)

// FrameContext is what a game may change before the frame is denoised.
type FrameContext struct {
	Frame     uint32
	DeltaTime float64
	Common    *denoiser.CommonSettings
	Sigma     *denoiser.SigmaSettings
}

// Game drives the camera and light of the denoised scene. Every hook is optional.
type Game struct {
	State        interface{}
	FnInitialize Initialize
	FnUpdate     Update
	FnShutdown   Shutdown
}

type Initialize func(width, height uint16) error
type Update func(frame *FrameContext) error
type Shutdown func() error
