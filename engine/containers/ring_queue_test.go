package containers

import (
	"testing"

	"github.com/cockroachdb/errors"
)

func TestRingQueueOrder(t *testing.T) {
	rq := NewRingQueue[int](3)
	for i := 1; i <= 3; i++ {
		if err := rq.Enqueue(i); err != nil {
			t.Fatalf("Enqueue(%d): %v", i, err)
		}
	}
	if !rq.IsFull() {
		t.Fatal("queue should be full")
	}
	if err := rq.Enqueue(4); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("Enqueue on full queue: got %v, want ErrQueueFull", err)
	}

	front, err := rq.Peek()
	if err != nil || front != 1 {
		t.Fatalf("Peek: got %d, %v", front, err)
	}

	for want := 1; want <= 3; want++ {
		got, err := rq.Dequeue()
		if err != nil {
			t.Fatalf("Dequeue: %v", err)
		}
		if got != want {
			t.Errorf("Dequeue: got %d, want %d", got, want)
		}
	}
	if _, err := rq.Dequeue(); !errors.Is(err, ErrQueueEmpty) {
		t.Fatalf("Dequeue on empty queue: got %v, want ErrQueueEmpty", err)
	}
}

func TestRingQueueWraps(t *testing.T) {
	rq := NewRingQueue[string](2)
	_ = rq.Enqueue("a")
	_ = rq.Enqueue("b")
	_, _ = rq.Dequeue()
	if err := rq.Enqueue("c"); err != nil {
		t.Fatalf("Enqueue after dequeue: %v", err)
	}
	if rq.Len() != 2 {
		t.Fatalf("Len: got %d, want 2", rq.Len())
	}
	got, _ := rq.Dequeue()
	if got != "b" {
		t.Errorf("got %q, want b", got)
	}
	got, _ = rq.Dequeue()
	if got != "c" {
		t.Errorf("got %q, want c", got)
	}
}
