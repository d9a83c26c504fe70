package scheduler

import (
	"context"
	"time"

	"SocialFactory/internal/ports"
)

// IntervalScheduler fires the registered job immediately and then on a fixed
// period, until stopped or the context ends.
type IntervalScheduler struct {
	interval time.Duration
	stop     chan struct{}
}

var _ ports.Scheduler = (*IntervalScheduler)(nil)

// NewIntervalScheduler builds a scheduler with the given polling period.
// Periods below one second are clamped to one second.
func NewIntervalScheduler(interval time.Duration) *IntervalScheduler {
	if interval < time.Second {
		interval = time.Second
	}
	return &IntervalScheduler{interval: interval}
}

// Start begins ticking. A second Start on a running scheduler is a no-op.
func (s *IntervalScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}

	if s.stop != nil {
		return nil
	}

	s.stop = make(chan struct{})
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		job(time.Now())
		for {
			select {
			case t := <-ticker.C:
				job(t)
			case <-ctx.Done():
				return
			case <-s.stop:
				return
			}
		}
	}()

	return nil
}

// Stop halts the ticker goroutine.
func (s *IntervalScheduler) Stop(ctx context.Context) error {
	if s.stop == nil {
		return nil
	}
	close(s.stop)
	s.stop = nil
	return nil
}
