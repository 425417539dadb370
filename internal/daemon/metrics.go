package daemon

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/manav03panchal/clockset/internal/errors"
	"github.com/manav03panchal/clockset/internal/model"
)

// Metrics counts what the daemon has done since it started. It is added to
// the notification dispatcher as a sink so every emitted notification is
// counted.
type Metrics struct {
	milestones  atomic.Int64
	completions atomic.Int64
	sweeps      atomic.Int64
	errorsTotal atomic.Int64

	mu                 sync.RWMutex
	lastNotificationAt time.Time
	lastSweepAt        time.Time
	lastError          string
	lastErrorAt        time.Time
	errorsByCategory   map[string]int64
}

// NewMetrics creates a new metrics tracker.
func NewMetrics() *Metrics {
	return &Metrics{errorsByCategory: make(map[string]int64)}
}

// MetricsSnapshot is a point-in-time view of Metrics.
type MetricsSnapshot struct {
	MilestonesTotal    int64            `json:"milestones_total"`
	CompletionsTotal   int64            `json:"completions_total"`
	SweepsTotal        int64            `json:"sweeps_total"`
	ErrorsTotal        int64            `json:"errors_total"`
	LastNotificationAt *time.Time       `json:"last_notification_at,omitempty"`
	LastSweepAt        *time.Time       `json:"last_sweep_at,omitempty"`
	LastError          string           `json:"last_error,omitempty"`
	LastErrorAt        *time.Time       `json:"last_error_at,omitempty"`
	ErrorsByCategory   map[string]int64 `json:"errors_by_category,omitempty"`
}

// Name implements notify.Sink.
func (m *Metrics) Name() string { return "metrics" }

// Send implements notify.Sink.
func (m *Metrics) Send(_ context.Context, n *model.Notification) error {
	switch n.Type {
	case model.NotifyMilestone:
		m.milestones.Add(1)
	case model.NotifyRunComplete:
		m.completions.Add(1)
	}
	m.mu.Lock()
	m.lastNotificationAt = time.Now()
	m.mu.Unlock()
	return nil
}

// RecordSweep counts one overdue sweep.
func (m *Metrics) RecordSweep() {
	m.sweeps.Add(1)
	m.mu.Lock()
	m.lastSweepAt = time.Now()
	m.mu.Unlock()
}

// RecordError counts err under its category.
func (m *Metrics) RecordError(err error) {
	if err == nil {
		return
	}
	m.errorsTotal.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastError = err.Error()
	m.lastErrorAt = time.Now()
	m.errorsByCategory[errors.Classify(err).String()]++
}

// Snapshot returns the current values.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := MetricsSnapshot{
		MilestonesTotal:  m.milestones.Load(),
		CompletionsTotal: m.completions.Load(),
		SweepsTotal:      m.sweeps.Load(),
		ErrorsTotal:      m.errorsTotal.Load(),
		LastError:        m.lastError,
	}
	if !m.lastNotificationAt.IsZero() {
		t := m.lastNotificationAt
		s.LastNotificationAt = &t
	}
	if !m.lastSweepAt.IsZero() {
		t := m.lastSweepAt
		s.LastSweepAt = &t
	}
	if !m.lastErrorAt.IsZero() {
		t := m.lastErrorAt
		s.LastErrorAt = &t
	}
	if len(m.errorsByCategory) > 0 {
		s.ErrorsByCategory = make(map[string]int64, len(m.errorsByCategory))
		for k, v := range m.errorsByCategory {
			s.ErrorsByCategory[k] = v
		}
	}
	return s
}
