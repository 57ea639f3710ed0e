package engine

import (
	"time"

	"github.com/cockroachdb/errors"

	"github.com/spaghettifunk/anima-denoiser/engine/containers"
	"github.com/spaghettifunk/anima-denoiser/engine/renderer/gpu"
)

// FramePacer keeps at most queuedFrames submissions in flight, so the descriptor pool and
// cached views of a queued frame are never recycled while the GPU still uses them.
type FramePacer struct {
	inFlight *containers.RingQueue[gpu.Fence]
	timeout  time.Duration
}

func NewFramePacer(queuedFrames int, timeout time.Duration) *FramePacer {
	return &FramePacer{
		inFlight: containers.NewRingQueue[gpu.Fence](max(queuedFrames, 1)),
		timeout:  timeout,
	}
}

// Acquire blocks until a frame may start.
func (fp *FramePacer) Acquire() error {
	if !fp.inFlight.IsFull() {
		return nil
	}
	return fp.retireOldest()
}

// Push records the fence of a submitted frame. Acquire must have been called first.
func (fp *FramePacer) Push(fence gpu.Fence) error {
	return errors.Wrap(fp.inFlight.Enqueue(fence), "frame pacer")
}

func (fp *FramePacer) InFlight() int {
	return fp.inFlight.Len()
}

// Drain waits for and releases every frame in flight.
func (fp *FramePacer) Drain() error {
	var err error
	for !fp.inFlight.IsEmpty() {
		err = errors.CombineErrors(err, fp.retireOldest())
	}
	return err
}

func (fp *FramePacer) retireOldest() error {
	fence, err := fp.inFlight.Dequeue()
	if err != nil {
		return err
	}
	defer fence.Destroy()
	if err := fence.Wait(fp.timeout); err != nil {
		return errors.Wrap(err, "waiting for a queued frame")
	}
	return nil
}
