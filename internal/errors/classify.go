package errors

import (
	"errors"
	"syscall"
)

// Category represents the type of error for display and handling purposes.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryUser
	CategorySystem
	CategoryRecoverable
)

// String returns the string representation of the category.
func (c Category) String() string {
	switch c {
	case CategoryUser:
		return "user"
	case CategorySystem:
		return "system"
	case CategoryRecoverable:
		return "recoverable"
	default:
		return "unknown"
	}
}

// Classify determines the category of an error.
func Classify(err error) Category {
	if err == nil {
		return CategoryUnknown
	}

	if IsUserError(err) {
		return CategoryUser
	}
	if IsRecoverableError(err) || isRecoverablePattern(err) {
		return CategoryRecoverable
	}
	if IsSystemError(err) || isSystemLevel(err) {
		return CategorySystem
	}
	return CategoryUnknown
}

func isSystemLevel(err error) bool {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.ENOSPC, syscall.EACCES, syscall.EPERM, syscall.ENOENT, syscall.EIO, syscall.EROFS:
			return true
		}
	}

	return errors.Is(err, ErrDatabaseOpen) ||
		errors.Is(err, ErrStoreUnavailable) ||
		errors.Is(err, ErrPermissionDenied)
}

// isRecoverablePattern matches transient failures: an unreachable daemon
// socket, a webhook timeout, an interrupted syscall.
func isRecoverablePattern(err error) bool {
	if errors.Is(err, ErrNetworkUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrDaemonNotRunning) {
		return true
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.EAGAIN, syscall.EINTR, syscall.ETIMEDOUT, syscall.ECONNREFUSED, syscall.ECONNRESET:
			return true
		}
	}

	return false
}

// FormatByCategory returns a user-appropriate error message based on category.
func FormatByCategory(err error) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	suggestion := GetSuggestion(err)

	switch Classify(err) {
	case CategoryUser:
		if suggestion != "" {
			return msg + "\n\nTry: " + suggestion
		}
		return msg
	case CategorySystem:
		if suggestion != "" {
			return "System error: " + msg + "\n\n" + suggestion
		}
		return "System error: " + msg
	case CategoryRecoverable:
		if suggestion != "" {
			return msg + "\n\n" + suggestion
		}
		return msg
	default:
		return msg
	}
}
