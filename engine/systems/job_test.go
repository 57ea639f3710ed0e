package systems

import (
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/cockroachdb/errors"
)

func TestNewJobSystem(t *testing.T) {
	tests := []struct {
		workers, size int
		want          error
	}{
		{0, 1, ErrNoWorkers},
		{2, -1, ErrNegativeChannelSize},
		{2, 0, nil},
	}
	for _, tt := range tests {
		js, err := NewJobSystem(tt.workers, tt.size)
		if !errors.Is(err, tt.want) {
			t.Errorf("NewJobSystem(%d, %d) err = %v, want %v", tt.workers, tt.size, err, tt.want)
		}
		if js != nil {
			js.Shutdown()
		}
	}
}

func TestJobSystemRunsEveryJob(t *testing.T) {
	js, err := NewJobSystem(4, 8)
	if err != nil {
		t.Fatal(err)
	}

	var completed, failed atomic.Int32
	errBoom := errors.New("boom")
	for i := 0; i < 50; i++ {
		i := i
		err := js.Submit(JobTask{
			Name: "job" + strconv.Itoa(i),
			OnStart: func() error {
				if i%10 == 0 {
					return errBoom
				}
				return nil
			},
			OnComplete: func() { completed.Add(1) },
			OnFailure:  func(error) { failed.Add(1) },
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	err = js.Wait()
	if !errors.Is(err, errBoom) {
		t.Errorf("Wait err = %v, want the job error", err)
	}
	if completed.Load() != 45 || failed.Load() != 5 {
		t.Errorf("completed %d, failed %d", completed.Load(), failed.Load())
	}
	if err := js.Wait(); err != nil {
		t.Errorf("errors were not cleared: %v", err)
	}

	if err := js.Shutdown(); err != nil {
		t.Fatal(err)
	}
	if err := js.Submit(JobTask{Name: "late", OnStart: func() error { return nil }}); err == nil {
		t.Error("Submit after Shutdown should fail")
	}
	if err := js.Shutdown(); err != nil {
		t.Errorf("second Shutdown = %v", err)
	}
}
