package errors

import (
	"errors"
	"fmt"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// UserError Tests
// =============================================================================

func TestNewUserError(t *testing.T) {
	err := NewUserError("invalid input", "try again")
	assert.Equal(t, "invalid input", err.Message)
	assert.Equal(t, "try again", err.Suggestion)
}

func TestUserErrorError(t *testing.T) {
	t.Run("without_field", func(t *testing.T) {
		err := NewUserError("invalid input", "")
		assert.Equal(t, "invalid input", err.Error())
	})

	t.Run("with_field", func(t *testing.T) {
		err := NewUserErrorWithField("minutes", "120", "clock value out of range", "")
		assert.Equal(t, "clock value out of range: '120'", err.Error())
	})
}

func TestInvalid(t *testing.T) {
	err := Invalid(ErrClockOutOfRange, "hours", "100")

	assert.True(t, errors.Is(err, ErrClockOutOfRange))
	assert.Equal(t, "hours", err.Field)
	assert.Equal(t, Suggestions[ErrClockOutOfRange], err.Suggestion)
	assert.Equal(t, CategoryUser, Classify(err))
}

func TestIsUserError(t *testing.T) {
	t.Run("wrapped_user_error", func(t *testing.T) {
		wrapped := fmt.Errorf("context: %w", NewUserError("test", ""))
		assert.True(t, IsUserError(wrapped))
	})

	t.Run("plain_error", func(t *testing.T) {
		assert.False(t, IsUserError(errors.New("plain")))
	})

	t.Run("nil_error", func(t *testing.T) {
		assert.False(t, IsUserError(nil))
	})
}

// =============================================================================
// SystemError Tests
// =============================================================================

func TestSystemError(t *testing.T) {
	cause := errors.New("disk gone")
	err := NewSystemErrorWithOp("save run", "write failed", cause)

	assert.Equal(t, "write failed during save run", err.Error())
	assert.ErrorIs(t, err, cause)

	se, ok := AsSystemError(fmt.Errorf("outer: %w", err))
	require.True(t, ok)
	assert.Equal(t, "save run", se.Op)
}

// =============================================================================
// RecoverableError Tests
// =============================================================================

func TestRecoverableErrorRetry(t *testing.T) {
	err := NewRecoverableError("webhook failed", nil, 2)
	assert.Equal(t, "webhook failed", err.Error())

	err.IncrementRetry()
	assert.True(t, err.CanRetry)
	assert.Equal(t, "webhook failed (attempt 1/2)", err.Error())

	err.IncrementRetry()
	assert.False(t, err.CanRetry)
}

// =============================================================================
// Classification Tests
// =============================================================================

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Category
	}{
		{"nil", nil, CategoryUnknown},
		{"user", NewUserError("x", ""), CategoryUser},
		{"system", NewSystemError("x", nil), CategorySystem},
		{"recoverable", NewRecoverableError("x", nil, 1), CategoryRecoverable},
		{"daemon_down", Wrap(ErrDaemonNotRunning, "dial"), CategoryRecoverable},
		{"conn_refused", fmt.Errorf("dial: %w", syscall.ECONNREFUSED), CategoryRecoverable},
		{"no_space", fmt.Errorf("write: %w", syscall.ENOSPC), CategorySystem},
		{"store", Wrap(ErrStoreUnavailable, "open"), CategorySystem},
		{"plain", errors.New("boom"), CategoryUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestFormatByCategory(t *testing.T) {
	t.Run("user_with_suggestion", func(t *testing.T) {
		msg := FormatByCategory(NewUserError("bad clock", "use 0-99"))
		assert.Equal(t, "bad clock\n\nTry: use 0-99", msg)
	})

	t.Run("system_prefix", func(t *testing.T) {
		msg := FormatByCategory(NewSystemError("db broke", nil))
		assert.Equal(t, "System error: db broke", msg)
	})

	t.Run("nil", func(t *testing.T) {
		assert.Empty(t, FormatByCategory(nil))
	})
}

func TestGetSuggestion(t *testing.T) {
	assert.Equal(t, Suggestions[ErrPresetNotFound], GetSuggestion(Wrap(ErrPresetNotFound, "lookup")))
	assert.Empty(t, GetSuggestion(errors.New("unknown")))
	assert.Empty(t, GetSuggestion(nil))
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, "ctx"))
	assert.Nil(t, Wrapf(nil, "ctx %d", 1))

	err := Wrapf(ErrNotRunning, "stop %s", "now")
	assert.Equal(t, "stop now: no timer is running", err.Error())
	assert.True(t, Is(err, ErrNotRunning))
}
