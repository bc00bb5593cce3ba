// Package scheduler runs the recurring expiry sweep that retires
// overdue pending meal plans.
package scheduler

import (
	"context"
	"log"
	"sync"
	"time"
)

const sweepTimeout = 5 * time.Minute

// Sweeper is the sweep core; implemented by mealplans.Service.
type Sweeper interface {
	SweepExpired(ctx context.Context, now time.Time) (int, error)
}

// Scheduler runs the sweep once eagerly at start, then once per calendar
// day at a fixed UTC hour. It owns no state beyond the timer: the sweep
// itself is idempotent, so overlapping triggers (scheduled + manual) are
// harmless.
type Scheduler struct {
	sweeper    Sweeper
	hourUTC    int
	runOnStart bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	stop   sync.Once
}

// New creates a scheduler firing daily at hourUTC (0–23).
func New(sweeper Sweeper, hourUTC int, runOnStart bool) *Scheduler {
	if hourUTC < 0 || hourUTC > 23 {
		hourUTC = 0
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		sweeper:    sweeper,
		hourUTC:    hourUTC,
		runOnStart: runOnStart,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start launches the sweep loop. Call Stop to terminate it.
func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.loop()
}

// Stop cancels the recurring timer and waits for an in-flight sweep to
// finish. Idempotent.
func (s *Scheduler) Stop() {
	s.stop.Do(func() {
		s.cancel()
		s.wg.Wait()
	})
}

func (s *Scheduler) loop() {
	defer s.wg.Done()

	if s.runOnStart {
		s.runSweep()
	}

	for {
		next := nextRun(time.Now().UTC(), s.hourUTC)
		timer := time.NewTimer(time.Until(next))

		select {
		case <-s.ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.runSweep()
		}
	}
}

// runSweep executes one sweep. The sweep gets its own context so a
// shutdown between runs does not abort writes mid-sweep; Stop waits for
// this call to return.
func (s *Scheduler) runSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	started := time.Now().UTC()
	updated, err := s.sweeper.SweepExpired(ctx, started)
	if err != nil {
		// Not fatal: the next scheduled run retries naturally.
		log.Printf("WARN scheduler: expiry sweep failed: %v", err)
		return
	}

	log.Printf("INFO scheduler: expiry sweep completed updated=%d took=%s", updated, time.Since(started).Round(time.Millisecond))
}

// nextRun returns the first instant strictly after now that falls on
// hourUTC.
func nextRun(now time.Time, hourUTC int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hourUTC, 0, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
