package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"HeatwaveScanner/internal/ports"
)

// IntervalScheduler fires the job immediately, then on a fixed interval.
// The clock is injectable so tests can advance time deterministically.
type IntervalScheduler struct {
	interval time.Duration
	clock    clockwork.Clock

	mu   sync.Mutex
	stop chan struct{}
}

var _ ports.Scheduler = (*IntervalScheduler)(nil)

// NewIntervalScheduler builds a scheduler over the real clock.
func NewIntervalScheduler(interval time.Duration) *IntervalScheduler {
	return NewIntervalSchedulerWithClock(interval, clockwork.NewRealClock())
}

// NewIntervalSchedulerWithClock allows tests to freeze and advance time.
func NewIntervalSchedulerWithClock(interval time.Duration, clock clockwork.Clock) *IntervalScheduler {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &IntervalScheduler{interval: interval, clock: clock}
}

// Start begins ticking; calling Start twice is a no-op.
func (s *IntervalScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		return nil
	}

	stop := make(chan struct{})
	s.stop = stop
	go func() {
		ticker := s.clock.NewTicker(s.interval)
		defer ticker.Stop()
		job(s.clock.Now())
		for {
			select {
			case t := <-ticker.Chan():
				job(t)
			case <-ctx.Done():
				return
			case <-stop:
				return
			}
		}
	}()

	return nil
}

// Stop halts the ticker goroutine. The scheduler can be started again
// afterwards.
func (s *IntervalScheduler) Stop(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop == nil {
		return nil
	}
	close(s.stop)
	s.stop = nil
	return nil
}
