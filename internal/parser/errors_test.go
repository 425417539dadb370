package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manav03panchal/clockset/internal/errors"
)

func TestParseErrorError(t *testing.T) {
	err := &ParseError{
		Input:   "soon",
		Field:   "clock",
		Message: "could not parse clock",
	}
	result := err.Error()
	assert.Contains(t, result, "invalid clock")
	assert.Contains(t, result, "soon")
	assert.Contains(t, result, "could not parse clock")
}

func TestNewParseError(t *testing.T) {
	err := NewParseError("clock", "xyz", "invalid format", "3:00", "25m", "1h30m")
	assert.Equal(t, "clock", err.Field)
	assert.Equal(t, "xyz", err.Input)
	assert.Len(t, err.Examples, 3)
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}

func TestFormatWithExamples(t *testing.T) {
	err := NewClockError("soon")
	result := err.FormatWithExamples()
	assert.Contains(t, result, "invalid clock 'soon'")
	assert.Contains(t, result, "Valid examples:")
	assert.Contains(t, result, "  - 0:03:00")
	assert.Contains(t, result, "H:M:S")

	bare := NewParseError("clock", "x", "bad")
	assert.Equal(t, bare.Error(), bare.FormatWithExamples())
}

func TestNewDeadlineError(t *testing.T) {
	err := NewDeadlineError("someday", "")
	assert.Equal(t, "could not parse deadline", err.Message)
	assert.Equal(t, DeadlineExamples, err.Examples)
	assert.ErrorIs(t, err, errors.ErrInvalidDeadline)

	err = NewDeadlineError("yesterday", "deadline must be in the future")
	assert.Equal(t, "deadline must be in the future", err.Message)
}

func TestToUserError(t *testing.T) {
	ue := NewClockError("soon").ToUserError()
	assert.Equal(t, "clock", ue.Field)
	assert.Equal(t, "soon", ue.Value)
	assert.Contains(t, ue.Suggestion, "H:M:S")
	assert.ErrorIs(t, ue, errors.ErrInvalidInput)

	// Without a suggestion the first examples are offered.
	ue = NewParseError("clock", "x", "bad", "3:00", "25m", "1h", "90s").ToUserError()
	assert.Equal(t, "Try: 3:00, 25m, 1h", ue.Suggestion)
}

func TestValidateAndSuggest(t *testing.T) {
	require.NoError(t, ValidateAndSuggest("clock", "3:00"))
	require.NoError(t, ValidateAndSuggest("deadline", "+5m"))

	assert.ErrorIs(t, ValidateAndSuggest("clock", "soon"), errors.ErrInvalidInput)
	assert.ErrorIs(t, ValidateAndSuggest("deadline", ""), errors.ErrInvalidDeadline)
	assert.Error(t, ValidateAndSuggest("color", "red"))
}
