// Package config provides centralized configuration for clockset runtime values.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/adrg/xdg"
)

// AppName names the xdg directories and the env prefix.
const AppName = "clockset"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "CLOCKSET_"

// RuntimeConfig holds all runtime configuration values.
type RuntimeConfig struct {
	// Daemon configuration
	Daemon DaemonConfig

	// RPC transport configuration
	RPC RPCConfig

	// Timer display configuration
	Timer TimerConfig

	// HTTP client configuration
	HTTP HTTPConfig

	// Retry queue configuration
	RetryQueue RetryQueueConfig

	// Storage configuration
	Storage StorageConfig
}

// DaemonConfig holds daemon-related configuration.
type DaemonConfig struct {
	// StartupWait is the time to wait for the daemon to start before checking status.
	// Default: 500ms
	StartupWait time.Duration

	// KillTimeout is the timeout for graceful shutdown before force kill.
	// Default: 5s
	KillTimeout time.Duration

	// SweepInterval is how often the daemon checks for an overdue run.
	// Default: 30s
	SweepInterval time.Duration
}

// RPCConfig holds the daemon's listener settings.
type RPCConfig struct {
	// SocketPath is the unix socket (or named pipe on Windows).
	SocketPath string

	// WebSocketEnabled turns on the /jsonrpc/ws endpoint.
	// Default: false
	WebSocketEnabled bool

	// WebSocketAddr is the loopback address of the websocket endpoint.
	// Default: 127.0.0.1:7311
	WebSocketAddr string

	// DialTimeout bounds client connection attempts.
	// Default: 2s
	DialTimeout time.Duration
}

// TimerConfig holds foreground display configuration.
type TimerConfig struct {
	// RefreshInterval is the foreground's countdown refresh tick.
	// Default: 1s
	RefreshInterval time.Duration
}

// HTTPConfig holds HTTP client configuration.
type HTTPConfig struct {
	// Timeout is the default HTTP request timeout.
	// Default: 30s
	Timeout time.Duration

	// MaxRetries is the maximum number of retry attempts.
	// Default: 3
	MaxRetries int

	// RetryDelays are the delays between retry attempts.
	// Default: [0s, 5s, 30s]
	RetryDelays []time.Duration
}

// RetryQueueConfig holds retry queue configuration.
type RetryQueueConfig struct {
	// CheckInterval is how often the queue checks for ready notifications.
	// Default: 30s
	CheckInterval time.Duration

	// BackoffSchedule is the backoff schedule for failed notifications.
	// Default: [5s, 30s, 2m, 5m, 15m]
	BackoffSchedule []time.Duration

	// MaxRetries is how many queued attempts a notification gets.
	// Default: 5
	MaxRetries int
}

// StorageConfig holds storage paths.
type StorageConfig struct {
	// DBPath is the daemon's badger directory.
	DBPath string

	// LocalPath is the foreground's sqlite file.
	LocalPath string
}

// DefaultRuntimeConfig returns the default runtime configuration.
func DefaultRuntimeConfig() *RuntimeConfig {
	return &RuntimeConfig{
		Daemon: DaemonConfig{
			StartupWait:   500 * time.Millisecond,
			KillTimeout:   5 * time.Second,
			SweepInterval: 30 * time.Second,
		},
		RPC: RPCConfig{
			SocketPath:    DefaultSocketPath(),
			WebSocketAddr: "127.0.0.1:7311",
			DialTimeout:   2 * time.Second,
		},
		Timer: TimerConfig{
			RefreshInterval: time.Second,
		},
		HTTP: HTTPConfig{
			Timeout:    30 * time.Second,
			MaxRetries: 3,
			RetryDelays: []time.Duration{
				0,                // Immediate first attempt
				5 * time.Second,  // Retry after 5s
				30 * time.Second, // Retry after 30s
			},
		},
		RetryQueue: RetryQueueConfig{
			CheckInterval: 30 * time.Second,
			BackoffSchedule: []time.Duration{
				5 * time.Second,
				30 * time.Second,
				2 * time.Minute,
				5 * time.Minute,
				15 * time.Minute,
			},
			MaxRetries: 5,
		},
		Storage: StorageConfig{
			DBPath:    filepath.Join(xdg.DataHome, AppName, "db"),
			LocalPath: filepath.Join(xdg.DataHome, AppName, "local.db"),
		},
	}
}

// DefaultSocketPath returns the per-user RPC socket path.
func DefaultSocketPath() string {
	return filepath.Join(xdg.RuntimeDir, AppName, "daemon.sock")
}

// LoadFromEnv applies CLOCKSET_* overrides. Unparseable values are ignored.
func (c *RuntimeConfig) LoadFromEnv() {
	// Daemon configuration
	envDuration("DAEMON_STARTUP_WAIT", &c.Daemon.StartupWait)
	envDuration("DAEMON_KILL_TIMEOUT", &c.Daemon.KillTimeout)
	envDuration("SWEEP_INTERVAL", &c.Daemon.SweepInterval)

	// RPC configuration
	envString("SOCKET", &c.RPC.SocketPath)
	envString("WEBSOCKET_ADDR", &c.RPC.WebSocketAddr)
	if v := os.Getenv(EnvPrefix + "WEBSOCKET"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.RPC.WebSocketEnabled = b
		}
	}
	envDuration("DIAL_TIMEOUT", &c.RPC.DialTimeout)

	// Timer configuration
	envDuration("REFRESH_INTERVAL", &c.Timer.RefreshInterval)

	// HTTP configuration
	envDuration("HTTP_TIMEOUT", &c.HTTP.Timeout)
	if v := os.Getenv(EnvPrefix + "HTTP_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.HTTP.MaxRetries = n
		}
	}

	// Retry queue configuration
	envDuration("RETRY_QUEUE_INTERVAL", &c.RetryQueue.CheckInterval)

	// Storage configuration
	envString("DB_PATH", &c.Storage.DBPath)
	envString("LOCAL_PATH", &c.Storage.LocalPath)
}

func envDuration(name string, dst *time.Duration) {
	if v := os.Getenv(EnvPrefix + name); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			*dst = d
		}
	}
}

func envString(name string, dst *string) {
	if v := os.Getenv(EnvPrefix + name); v != "" {
		*dst = v
	}
}

// Reset resets the configuration to defaults.
func (c *RuntimeConfig) Reset() {
	*c = *DefaultRuntimeConfig()
}
