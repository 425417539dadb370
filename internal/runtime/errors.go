package runtime

import (
	"errors"
	"fmt"
	"strings"
	"syscall"

	clockerrors "github.com/manav03panchal/clockset/internal/errors"
)

// ErrDiskFull reports a write that failed for lack of space.
var ErrDiskFull = errors.New("disk full: unable to write to the local store")

// FormatError renders err for the terminal with its suggestion, if any.
func FormatError(err error) string {
	msg := err.Error()
	suggestion := clockerrors.GetSuggestion(err)
	if suggestion == "" && IsDiskFullError(err) {
		suggestion = "Free up disk space and try again. Presets already saved are unaffected."
	}
	if suggestion != "" {
		msg += "\n" + suggestion
	}
	return msg
}

// DiskFullError represents a disk full condition with additional context.
type DiskFullError struct {
	Op      string // The operation that failed (e.g., "write", "open")
	Path    string // The path involved, if known
	wrapped error
}

func (e *DiskFullError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("disk full during %s on %s: %v", e.Op, e.Path, e.wrapped)
	}
	return fmt.Sprintf("disk full during %s: %v", e.Op, e.wrapped)
}

func (e *DiskFullError) Unwrap() error {
	return ErrDiskFull
}

// NewDiskFullError creates a new DiskFullError.
func NewDiskFullError(op, path string, err error) *DiskFullError {
	return &DiskFullError{
		Op:      op,
		Path:    path,
		wrapped: err,
	}
}

var diskFullPatterns = []string{
	"no space left on device",
	"disk full",
	"enospc",
	"not enough space",
	"database or disk is full",
}

// IsDiskFullError checks if an error indicates a disk full condition.
func IsDiskFullError(err error) bool {
	if err == nil {
		return false
	}

	var diskFullErr *DiskFullError
	if errors.As(err, &diskFullErr) || errors.Is(err, ErrDiskFull) {
		return true
	}

	var errno syscall.Errno
	if errors.As(err, &errno) && errno == syscall.ENOSPC {
		return true
	}

	// sqlite reports SQLITE_FULL only as text.
	errStr := strings.ToLower(err.Error())
	for _, pattern := range diskFullPatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}

// WrapDiskFullError wraps err as a DiskFullError if it indicates disk full.
// Other errors are returned unchanged.
func WrapDiskFullError(err error, op, path string) error {
	if err == nil {
		return nil
	}
	if IsDiskFullError(err) {
		return NewDiskFullError(op, path, err)
	}
	return err
}
