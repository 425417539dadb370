package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/manav03panchal/clockset/internal/logging"
)

// MaxLogSize is the size at which the daemon log is rotated on startup.
const MaxLogSize = 5 << 20

// GetLogPath returns the path to the daemon log file.
func GetLogPath() string {
	return filepath.Join(StateDir(), "daemon.log")
}

// LogFile is the daemon's append-only log. The structured logger writes
// JSON lines to it.
type LogFile struct {
	mu   sync.Mutex
	path string
	file *os.File
}

// OpenLogFile opens (creating if needed) the log at path.
func OpenLogFile(path string) (*LogFile, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return &LogFile{path: path, file: file}, nil
}

// Write implements io.Writer.
func (l *LogFile) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return 0, os.ErrClosed
	}
	return l.file.Write(p)
}

// Install routes the process logger to this file.
func (l *LogFile) Install(debug bool) {
	cfg := logging.DaemonConfig(l)
	if debug {
		cfg.Level = logging.DebugConfig().Level
		cfg.AddSource = true
	}
	logging.Init(cfg)
}

// Close closes the log file.
func (l *LogFile) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// Rotate moves the log to <path>.old once it reaches maxSize bytes.
func (l *LogFile) Rotate(maxSize int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	info, err := l.file.Stat()
	if err != nil {
		return err
	}
	if info.Size() < maxSize {
		return nil
	}

	l.file.Close()
	backup := l.path + ".old"
	os.Remove(backup)
	if err := os.Rename(l.path, backup); err != nil {
		return err
	}

	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		l.file = nil
		return err
	}
	l.file = file
	return nil
}

// lastLogError returns the most recent error-looking line among the last
// ten lines of the log at path.
func lastLogError(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}

	lines := strings.Split(string(data), "\n")
	start := max(len(lines)-10, 0)
	for i := len(lines) - 1; i >= start; i-- {
		line := strings.TrimSpace(lines[i])
		lower := strings.ToLower(line)
		if strings.Contains(lower, `"level":"error"`) ||
			strings.Contains(lower, "error") ||
			strings.Contains(lower, "failed to") {
			return line
		}
	}
	return ""
}
