package engine

import (
	"testing"
	"time"

	"github.com/cockroachdb/errors"
)

var errGPUHung = errors.New("gpu hung")

type recordingFence struct {
	id        int
	log       *[]int
	err       error
	destroyed bool
}

func (f *recordingFence) Wait(timeout time.Duration) error {
	*f.log = append(*f.log, f.id)
	return f.err
}

func (f *recordingFence) Destroy() {
	f.destroyed = true
}

func TestFramePacerWaitsForOldestFrame(t *testing.T) {
	var waits []int
	fp := NewFramePacer(2, time.Second)
	fences := make([]*recordingFence, 5)

	for i := range fences {
		if err := fp.Acquire(); err != nil {
			t.Fatalf("frame %d: Acquire: %v", i, err)
		}
		if fp.InFlight() >= 2 {
			t.Fatalf("frame %d started with %d frames in flight", i, fp.InFlight())
		}
		fences[i] = &recordingFence{id: i, log: &waits}
		if err := fp.Push(fences[i]); err != nil {
			t.Fatalf("frame %d: Push: %v", i, err)
		}
	}

	want := []int{0, 1, 2}
	if len(waits) != len(want) {
		t.Fatalf("waited on %v, want %v", waits, want)
	}
	for i := range want {
		if waits[i] != want[i] {
			t.Fatalf("waited on %v, want %v", waits, want)
		}
	}

	if err := fp.Drain(); err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if fp.InFlight() != 0 {
		t.Errorf("%d frames in flight after Drain", fp.InFlight())
	}
	for i, f := range fences {
		if !f.destroyed {
			t.Errorf("fence %d not destroyed", i)
		}
	}
}

func TestFramePacerErrors(t *testing.T) {
	var waits []int
	fp := NewFramePacer(1, time.Second)

	hung := &recordingFence{id: 0, log: &waits, err: errGPUHung}
	if err := fp.Push(hung); err != nil {
		t.Fatal(err)
	}
	if err := fp.Push(&recordingFence{id: 1, log: &waits}); err == nil {
		t.Error("Push beyond the queued frame count should fail")
	}

	if err := fp.Acquire(); !errors.Is(err, errGPUHung) {
		t.Errorf("Acquire err = %v, want the fence error", err)
	}
	if !hung.destroyed {
		t.Error("a failed fence must still be destroyed")
	}
	if err := fp.Drain(); err != nil {
		t.Errorf("Drain of an empty pacer = %v", err)
	}
}

func TestFramePacerMinimumDepth(t *testing.T) {
	fp := NewFramePacer(0, time.Second)
	var waits []int
	if err := fp.Push(&recordingFence{log: &waits}); err != nil {
		t.Fatalf("a zero depth pacer still holds one frame: %v", err)
	}
}
