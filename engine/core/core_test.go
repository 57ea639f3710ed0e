package core

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
)

func TestMetricsRollingAverage(t *testing.T) {
	m := NewMetrics()
	for i := 0; i < int(AVG_COUNT); i++ {
		m.AddDispatch()
		m.AddDispatch()
		m.AddBarriers(3)
		m.AddViewCreated()
		m.AddViewsEvicted(2)
		m.EndFrame(0.016)
	}
	if m.Average.Dispatches != 2 {
		t.Errorf("Average.Dispatches: got %f, want 2", m.Average.Dispatches)
	}
	if m.Average.Barriers != 3 {
		t.Errorf("Average.Barriers: got %f, want 3", m.Average.Barriers)
	}
	if m.Total.ViewsCreated != uint32(AVG_COUNT) {
		t.Errorf("Total.ViewsCreated: got %d, want %d", m.Total.ViewsCreated, AVG_COUNT)
	}
	if m.Total.ViewsEvicted != 2*uint32(AVG_COUNT) {
		t.Errorf("Total.ViewsEvicted: got %d, want %d", m.Total.ViewsEvicted, 2*uint32(AVG_COUNT))
	}
	if m.Current != (FrameStats{}) {
		t.Errorf("Current should be reset after EndFrame, got %+v", m.Current)
	}
}

func TestPreconditionIsMarked(t *testing.T) {
	err := Precondition(ErrResourceMismatch, "role %d", 3)
	if !errors.Is(err, ErrResourceMismatch) {
		t.Fatalf("errors.Is(%v, ErrResourceMismatch) = false", err)
	}
	if !errors.IsAssertionFailure(err) {
		t.Errorf("expected an assertion failure, got %v", err)
	}
	if !errors.Is(err, ErrResourceMismatch) || errors.Is(err, ErrSnapshotFull) {
		t.Errorf("marked with the wrong sentinel: %v", err)
	}

	wrapped := errors.Wrap(err, "denoise")
	if !errors.HasAssertionFailure(wrapped) || !errors.Is(wrapped, ErrResourceMismatch) {
		t.Errorf("wrapping lost the classification: %v", wrapped)
	}
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	l := log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})
	WithFields(l, "integration", "abc").Info("hello")
	if !strings.Contains(buf.String(), "integration=abc") {
		t.Errorf("missing field in %q", buf.String())
	}

	rec := &recordingLogger{}
	WithFields(rec, "k", 1).Warn("msg", "x", 2)
	if len(rec.keyvals) != 4 || rec.keyvals[0] != "k" || rec.keyvals[2] != "x" {
		t.Errorf("unexpected keyvals %v", rec.keyvals)
	}
}

func TestShortID(t *testing.T) {
	id := NewInstanceID()
	if got := ShortID(id); len(got) != 8 || !strings.HasPrefix(id.String(), got) {
		t.Errorf("ShortID: got %q for %s", got, id)
	}
}

type recordingLogger struct {
	keyvals []interface{}
}

func (r *recordingLogger) Debug(msg interface{}, keyvals ...interface{}) { r.keyvals = keyvals }
func (r *recordingLogger) Info(msg interface{}, keyvals ...interface{})  { r.keyvals = keyvals }
func (r *recordingLogger) Warn(msg interface{}, keyvals ...interface{})  { r.keyvals = keyvals }
func (r *recordingLogger) Error(msg interface{}, keyvals ...interface{}) { r.keyvals = keyvals }
