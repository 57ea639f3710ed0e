// Package systems holds the engine's background services.
package systems

import (
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/spaghettifunk/anima-denoiser/engine/core"
)

var (
	ErrNoWorkers           = errors.New("attempting to create worker pool with less than 1 worker")
	ErrNegativeChannelSize = errors.New("attempting to create worker pool with a negative channel size")
)

// JobTask is one unit of background work. OnStart is required.
type JobTask struct {
	Name       string
	OnStart    func() error
	OnFailure  func(err error)
	OnComplete func()
}

type JobSystem struct {
	numWorkers int
	jobQueue   chan JobTask
	wg         sync.WaitGroup
	// pending counts submitted jobs that have not finished.
	pending sync.WaitGroup

	mu     sync.Mutex
	errs   error
	closed bool
}

func NewJobSystem(numWorkers int, channelSize int) (*JobSystem, error) {
	if numWorkers <= 0 {
		return nil, ErrNoWorkers
	}
	if channelSize < 0 {
		return nil, ErrNegativeChannelSize
	}

	js := &JobSystem{
		numWorkers: numWorkers,
		jobQueue:   make(chan JobTask, channelSize),
	}

	js.start()

	return js, nil
}

func (js *JobSystem) start() {
	for i := 0; i < js.numWorkers; i++ {
		js.wg.Add(1)
		go func() {
			defer js.wg.Done()
			for job := range js.jobQueue {
				js.run(job)
			}
		}()
	}
}

func (js *JobSystem) run(job JobTask) {
	defer js.pending.Done()

	if err := job.OnStart(); err != nil {
		core.LogError("job %s failed: %s", job.Name, err)
		js.mu.Lock()
		js.errs = errors.CombineErrors(js.errs, errors.Wrapf(err, "job %s", job.Name))
		js.mu.Unlock()
		if job.OnFailure != nil {
			job.OnFailure(err)
		}
		return
	}
	if job.OnComplete != nil {
		job.OnComplete()
	}
}

/**
 * @brief Submits the provided job to be queued for execution. Blocks while
 * the queue is full. Must not race with Shutdown.
 */
func (js *JobSystem) Submit(jt JobTask) error {
	js.mu.Lock()
	closed := js.closed
	js.mu.Unlock()
	if closed {
		return errors.Newf("job %s submitted after shutdown", jt.Name)
	}
	js.pending.Add(1)
	js.jobQueue <- jt
	return nil
}

// Wait blocks until every submitted job has finished and returns their combined errors.
// The errors are cleared.
func (js *JobSystem) Wait() error {
	js.pending.Wait()
	js.mu.Lock()
	defer js.mu.Unlock()
	err := js.errs
	js.errs = nil
	return err
}

/**
 * @brief Shuts the job system down after the queued jobs have run.
 */
func (js *JobSystem) Shutdown() error {
	js.mu.Lock()
	if js.closed {
		js.mu.Unlock()
		return nil
	}
	js.closed = true
	js.mu.Unlock()

	close(js.jobQueue)
	js.wg.Wait()
	return js.Wait()
}
