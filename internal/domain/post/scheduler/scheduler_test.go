package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

type countingProcessor struct {
	passes atomic.Int64
	err    error
}

func (p *countingProcessor) ProcessDuePosts(ctx context.Context) error {
	p.passes.Add(1)
	return p.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSchedulerRunsImmediatelyAndOnTicks(t *testing.T) {
	proc := &countingProcessor{}
	s := New(proc, 20*time.Millisecond, 1, testLogger())

	s.Start(context.Background())
	defer s.Stop()

	deadline := time.After(2 * time.Second)
	for proc.passes.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("only %d passes before deadline, want at least 3", proc.passes.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestSchedulerStopHaltsProcessing(t *testing.T) {
	proc := &countingProcessor{}
	s := New(proc, 10*time.Millisecond, 2, testLogger())

	s.Start(context.Background())
	time.Sleep(30 * time.Millisecond)
	s.Stop()

	after := proc.passes.Load()
	if after == 0 {
		t.Fatal("no passes ran before stop")
	}

	time.Sleep(50 * time.Millisecond)
	if got := proc.passes.Load(); got != after {
		t.Errorf("passes kept running after Stop: %d -> %d", after, got)
	}
}

func TestSchedulerStartIsIdempotent(t *testing.T) {
	proc := &countingProcessor{}
	s := New(proc, time.Hour, 1, testLogger())

	ctx := context.Background()
	s.Start(ctx)
	s.Start(ctx) // second start is a no-op
	s.Stop()
	s.Stop() // second stop is a no-op

	// With an hour-long interval only the immediate pass per worker runs
	if got := proc.passes.Load(); got != 1 {
		t.Errorf("passes = %d, want 1", got)
	}
}

func TestSchedulerSurvivesProcessorErrors(t *testing.T) {
	proc := &countingProcessor{err: errors.New("store down")}
	s := New(proc, 10*time.Millisecond, 1, testLogger())

	s.Start(context.Background())
	defer s.Stop()

	deadline := time.After(2 * time.Second)
	for proc.passes.Load() < 2 {
		select {
		case <-deadline:
			t.Fatal("scheduler stopped polling after a processor error")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestSchedulerContextCancellation(t *testing.T) {
	proc := &countingProcessor{}
	s := New(proc, 10*time.Millisecond, 1, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	time.Sleep(25 * time.Millisecond)
	cancel()
	time.Sleep(30 * time.Millisecond)

	after := proc.passes.Load()
	time.Sleep(50 * time.Millisecond)
	if got := proc.passes.Load(); got != after {
		t.Errorf("passes kept running after context cancel: %d -> %d", after, got)
	}
}
