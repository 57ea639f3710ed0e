/*
Headless demo that runs the SIGMA shadow denoiser through the integration
layer on the configured backend.
*/
package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/anima-denoiser/engine"
	"github.com/spaghettifunk/anima-denoiser/engine/config"
	"github.com/spaghettifunk/anima-denoiser/engine/core"
	"github.com/spaghettifunk/anima-denoiser/testbed"
)

func main() {
	configPath := flag.String("config", "denoiser.toml", "path to the TOML configuration")
	backend := flag.String("backend", "", "override [run] backend (vulkan or null)")
	frames := flag.Int("frames", -1, "override [run] frames; 0 runs until interrupted")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		core.LogFatal("%+v", err)
	}
	if *backend != "" {
		cfg.Run.Backend = *backend
	}
	if *frames >= 0 {
		cfg.Run.Frames = *frames
	}

	tb := testbed.NewTestGame()
	e, err := engine.New(cfg, engine.WithGame(tb.Game))
	if err != nil {
		core.LogFatal("%+v", err)
	}

	if err := e.Initialize(); err != nil {
		core.LogFatal("%+v", err)
	}

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)

	// stop the frame loop; Shutdown runs on this goroutine once Run returns
	go func() {
		<-sigCh
		e.Stop()
	}()

	runErr := e.Run()
	if err := e.Shutdown(); err != nil {
		core.LogError("shutdown: %+v", err)
	}
	if runErr != nil {
		core.LogFatal("%+v", runErr)
	}

	m := e.Metrics()
	core.LogInfo("denoised %d frames: %d dispatches, %d barriers, %d views created",
		e.Frame(), m.Total.Dispatches, m.Total.Barriers, m.Total.ViewsCreated)
}
