/*
scheduler.go - Automated reconciliation scheduler

PURPOSE:
  Periodically materializes the current day's level record for every
  reservoir, runs the low-level threshold watcher, and reconciles the
  previous day so loss alerts surface without anyone opening a report.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Materialization is idempotent (upsert on the unique day key), so
    overlapping runs are harmless
  - Per-reservoir failures are logged and the sweep continues

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 hour)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewScheduler(handler)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - station/balance.go: MaterializeDay
  - station/threshold.go: the watcher this drives
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"
)

// Scheduler drives the daily ledger maintenance in the background.
type Scheduler struct {
	Handler       *Handler
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewScheduler creates a new scheduler.
func NewScheduler(handler *Handler) *Scheduler {
	return &Scheduler{
		Handler:       handler,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		stop:          make(chan bool),
	}
}

// Start begins the scheduler.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.Enabled {
		log.Println("[Scheduler] Disabled, not starting")
		return
	}

	s.ticker = time.NewTicker(s.CheckInterval)
	s.wg.Add(1)

	go s.run()

	log.Printf("[Scheduler] Started with check interval: %v", s.CheckInterval)
}

// Stop stops the scheduler.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ticker != nil {
		s.ticker.Stop()
		close(s.stop)
		s.wg.Wait()
		log.Println("[Scheduler] Stopped")
	}
}

func (s *Scheduler) run() {
	defer s.wg.Done()

	// Run immediately on start
	s.sweep()

	for {
		select {
		case <-s.ticker.C:
			s.sweep()
		case <-s.stop:
			return
		}
	}
}

// sweep materializes today, reconciles yesterday, and checks thresholds.
func (s *Scheduler) sweep() {
	ctx := context.Background()
	today := s.Handler.Clock.Today()

	log.Printf("[Scheduler] Sweeping ledger for %s", today)

	reservoirs, err := s.Handler.Store.ListReservoirs(ctx)
	if err != nil {
		log.Printf("[Scheduler] Error listing reservoirs: %v", err)
		return
	}

	materialized := 0
	for _, reservoir := range reservoirs {
		if _, err := s.Handler.Resolver.MaterializeDay(ctx, reservoir.ID, today); err != nil {
			log.Printf("[Scheduler] Error materializing %s: %v", reservoir.ID, err)
			continue
		}
		materialized++
	}

	report, err := s.Handler.Aggregator.DailyReport(ctx, today.AddDays(-1))
	if err != nil {
		log.Printf("[Scheduler] Error reconciling yesterday: %v", err)
	} else {
		for _, failure := range report.Failures {
			log.Printf("[Scheduler] Reconcile skipped %s/%s: %v", failure.ReservoirID, failure.Date, failure.Err)
		}
		if len(report.Alerts) > 0 {
			log.Printf("[Scheduler] Raised %d loss alerts for %s", len(report.Alerts), report.Date)
		}
	}

	lowLevel, err := s.Handler.Watcher.CheckThresholds(ctx)
	if err != nil {
		log.Printf("[Scheduler] Error checking thresholds: %v", err)
	} else if len(lowLevel) > 0 {
		log.Printf("[Scheduler] Raised %d low-level alerts", len(lowLevel))
	}

	log.Printf("[Scheduler] Sweep complete: %d/%d reservoirs materialized", materialized, len(reservoirs))
}

// RunNow triggers an immediate sweep (for testing/admin).
func (s *Scheduler) RunNow() {
	s.sweep()
}

// GetNextRunTime returns when the next scheduled check will occur.
func (s *Scheduler) GetNextRunTime() time.Time {
	return time.Now().Add(s.CheckInterval)
}
