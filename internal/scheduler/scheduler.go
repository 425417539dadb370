// Package scheduler provides the daemon's timing machinery: a heap-backed
// wake-up scheduler for run milestones and a cron-based periodic sweep.
package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/manav03panchal/clockset/internal/logging"
)

// DefaultSweepInterval is how often the overdue sweep runs.
const DefaultSweepInterval = 30 * time.Second

// Scheduler runs the periodic overdue sweep and any extra cron jobs.
type Scheduler struct {
	cron      *cron.Cron
	interval  time.Duration
	sweep     func()
	lastCheck time.Time
	mu        sync.Mutex
	now       func() time.Time
}

// NewScheduler creates a scheduler that calls sweep every interval.
func NewScheduler(interval time.Duration, sweep func()) *Scheduler {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cronLogger{}),
			cron.WithChain(cron.Recover(cronLogger{})),
		),
		interval: interval,
		sweep:    sweep,
		now:      time.Now,
	}
}

// Start registers the sweep job and starts the cron loop.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	s.lastCheck = s.now()
	s.mu.Unlock()

	_, err := s.cron.AddFunc(fmt.Sprintf("@every %s", s.interval), s.runSweep)
	if err != nil {
		return fmt.Errorf("failed to add sweep: %w", err)
	}

	s.cron.Start()
	logging.DebugLog("scheduler started", "interval", s.interval.String())
	return nil
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}
	logging.DebugLog("scheduler stopped")
}

// runSweep calls the sweep function. A gap much longer than the interval
// means the machine slept; it is logged and the sweep still runs.
func (s *Scheduler) runSweep() {
	s.mu.Lock()
	now := s.now()
	elapsed := now.Sub(s.lastCheck)
	s.lastCheck = now
	s.mu.Unlock()

	if elapsed > 2*s.interval {
		logging.Info("sweep after sleep gap", "elapsed", elapsed.Round(time.Second).String())
	}
	if s.sweep != nil {
		s.sweep()
	}
}

// AddJob adds a custom job to the scheduler.
func (s *Scheduler) AddJob(expr string, job func()) (cron.EntryID, error) {
	return s.cron.AddFunc(expr, job)
}

// RemoveJob removes a job from the scheduler.
func (s *Scheduler) RemoveJob(id cron.EntryID) {
	s.cron.Remove(id)
}

// Entries returns all scheduled entries.
func (s *Scheduler) Entries() []cron.Entry {
	return s.cron.Entries()
}

// NextRun returns the next scheduled run time for any job.
func (s *Scheduler) NextRun() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}

	next := entries[0].Next
	for _, e := range entries[1:] {
		if e.Next.Before(next) {
			next = e.Next
		}
	}
	return next
}

// cronLogger routes cron's own logging through slog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logging.DebugLog("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logging.Error("cron: "+msg, append([]any{logging.KeyError, err}, keysAndValues...)...)
}
