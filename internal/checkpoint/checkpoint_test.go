package checkpoint

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type countingFlusher struct {
	calls atomic.Int32
	err   error
}

func (f *countingFlusher) Flush() error {
	f.calls.Add(1)
	return f.err
}

func TestSchedulerCallsFlushPeriodically(t *testing.T) {
	f := &countingFlusher{}

	s, err := New(f, 10*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for f.calls.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	if f.calls.Load() < 2 {
		t.Fatalf("expected at least 2 flushes, got %d", f.calls.Load())
	}
}

func TestSchedulerSurvivesFlushError(t *testing.T) {
	f := &countingFlusher{err: errors.New("boom")}

	s, err := New(f, 10*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Stop()

	deadline := time.Now().Add(1 * time.Second)
	for f.calls.Load() < 1 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if f.calls.Load() < 1 {
		t.Fatalf("expected scheduler to keep calling Flush despite errors")
	}
}

func TestStopShutsDownScheduler(t *testing.T) {
	f := &countingFlusher{}
	s, err := New(f, time.Hour, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}
