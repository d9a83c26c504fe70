package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestStartFiresImmediately(t *testing.T) {
	s := NewIntervalScheduler(time.Minute)
	defer s.Stop(context.Background())

	fired := make(chan time.Time, 1)
	if err := s.Start(context.Background(), func(ts time.Time) {
		select {
		case fired <- ts:
		default:
		}
	}); err != nil {
		t.Fatalf("Start: %v", err)
	}

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not fire on start")
	}
}

func TestStopHaltsTicking(t *testing.T) {
	s := NewIntervalScheduler(time.Second)

	var calls atomic.Int64
	if err := s.Start(context.Background(), func(time.Time) {
		calls.Add(1)
	}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	// A tick racing the Stop may still run once; let the goroutine wind down.
	time.Sleep(100 * time.Millisecond)
	settled := calls.Load()
	time.Sleep(1500 * time.Millisecond)
	if calls.Load() != settled {
		t.Errorf("job fired after Stop: %d -> %d", settled, calls.Load())
	}

	// Stop on a stopped scheduler is a no-op.
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("second Stop: %v", err)
	}
}

func TestStartWithNilJob(t *testing.T) {
	s := NewIntervalScheduler(time.Second)
	if err := s.Start(context.Background(), nil); err != nil {
		t.Fatalf("Start(nil): %v", err)
	}
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestIntervalClamp(t *testing.T) {
	s := NewIntervalScheduler(10 * time.Millisecond)
	if s.interval != time.Second {
		t.Errorf("interval = %v, want 1s clamp", s.interval)
	}
}
