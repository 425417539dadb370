// Package daemon runs the background clockset process that owns the timer
// engine, the shared preset store and the RPC listeners.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/adrg/xdg"

	"github.com/manav03panchal/clockset/internal/config"
	"github.com/manav03panchal/clockset/internal/errors"
)

// PIDFileName is the PID file name.
const PIDFileName = "clockset.pid"

// StateDir returns the directory holding the PID, state and log files.
func StateDir() string {
	return filepath.Join(xdg.StateHome, config.AppName)
}

// PIDFile manages the daemon PID file.
type PIDFile struct {
	path string
}

// NewPIDFile creates a PID file manager for a file in dir.
func NewPIDFile(dir string) *PIDFile {
	return &PIDFile{path: filepath.Join(dir, PIDFileName)}
}

// Write writes the current process PID to the file.
func (p *PIDFile) Write() error {
	return p.WritePID(os.Getpid())
}

// WritePID writes a specific PID to the file.
func (p *PIDFile) WritePID(pid int) error {
	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		return fmt.Errorf("failed to create PID directory: %w", err)
	}
	if err := os.WriteFile(p.path, []byte(strconv.Itoa(pid)), 0o644); err != nil {
		return fmt.Errorf("failed to write PID file: %w", err)
	}
	return nil
}

// Read reads the PID from the file.
func (p *PIDFile) Read() (int, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, ErrNotRunning
		}
		return 0, fmt.Errorf("failed to read PID file: %w", err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("invalid PID in file: %w", err)
	}
	return pid, nil
}

// Remove removes the PID file.
func (p *PIDFile) Remove() error {
	if err := os.Remove(p.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove PID file: %w", err)
	}
	return nil
}

// IsRunning checks if the recorded process is alive.
func (p *PIDFile) IsRunning() bool {
	return p.GetRunningPID() > 0
}

// GetRunningPID returns the PID if the daemon is running, or 0 if not.
func (p *PIDFile) GetRunningPID() int {
	pid, err := p.Read()
	if err != nil || !IsProcessRunning(pid) {
		return 0
	}
	return pid
}

// Path returns the PID file path.
func (p *PIDFile) Path() string {
	return p.path
}

// IsProcessRunning checks if a process with the given PID is running.
func IsProcessRunning(pid int) bool {
	if pid <= 0 {
		return false
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// FindProcess always succeeds on Unix; signal 0 probes liveness.
	return process.Signal(syscall.Signal(0)) == nil
}

// Errors
var (
	ErrNotRunning     = errors.ErrDaemonNotRunning
	ErrAlreadyRunning = fmt.Errorf("daemon is already running")
)
