package daemon

import (
	"runtime"
	"sort"
	"sync"
	"time"
)

// Health states.
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// HealthStatus is the system.health response.
type HealthStatus struct {
	Status               string           `json:"status"`
	Version              string           `json:"version,omitempty"`
	UptimeSeconds        int64            `json:"uptime_seconds"`
	MemoryMB             float64          `json:"memory_mb"`
	Goroutines           int              `json:"goroutines"`
	PendingWakeups       int              `json:"pending_wakeups"`
	PendingNotifications int              `json:"pending_notifications"`
	Checks               []CheckResult    `json:"checks,omitempty"`
	Metrics              *MetricsSnapshot `json:"metrics,omitempty"`
	LastCheck            time.Time        `json:"last_check"`
}

// CheckResult is the outcome of one named check.
type CheckResult struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Error   string `json:"error,omitempty"`
}

// HealthChecker assembles HealthStatus from the daemon's parts. Sources
// left nil report zero.
type HealthChecker struct {
	mu        sync.RWMutex
	startTime time.Time
	version   string
	checks    map[string]func() error

	pendingWakeups func() []string
	pendingQueue   func() int
	metrics        *Metrics
}

// NewHealthChecker creates a new health checker.
func NewHealthChecker(version string) *HealthChecker {
	return &HealthChecker{
		startTime: time.Now(),
		version:   version,
		checks:    make(map[string]func() error),
	}
}

// SetSources wires the counters reported by Check.
func (h *HealthChecker) SetSources(wakeups func() []string, queue func() int, metrics *Metrics) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pendingWakeups = wakeups
	h.pendingQueue = queue
	h.metrics = metrics
}

// AddCheck adds a named check. A non-nil error marks the daemon unhealthy.
func (h *HealthChecker) AddCheck(name string, check func() error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = check
}

// RemoveCheck removes a named check.
func (h *HealthChecker) RemoveCheck(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.checks, name)
}

// Check runs every check and returns the status.
func (h *HealthChecker) Check() *HealthStatus {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	h.mu.RLock()
	defer h.mu.RUnlock()

	status := &HealthStatus{
		Status:        StatusHealthy,
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		MemoryMB:      float64(memStats.Alloc) / 1024 / 1024,
		Goroutines:    runtime.NumGoroutine(),
		LastCheck:     time.Now(),
	}
	if h.pendingWakeups != nil {
		status.PendingWakeups = len(h.pendingWakeups())
	}
	if h.pendingQueue != nil {
		status.PendingNotifications = h.pendingQueue()
	}
	if h.metrics != nil {
		snap := h.metrics.Snapshot()
		status.Metrics = &snap
	}

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		result := CheckResult{Name: name, Healthy: true}
		if err := h.checks[name](); err != nil {
			result.Healthy = false
			result.Error = err.Error()
			status.Status = StatusUnhealthy
		}
		status.Checks = append(status.Checks, result)
	}
	return status
}

// Uptime returns how long the daemon has been running.
func (h *HealthChecker) Uptime() time.Duration {
	return time.Since(h.startTime)
}
