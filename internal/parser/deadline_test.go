package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manav03panchal/clockset/internal/errors"
	"github.com/manav03panchal/clockset/internal/model"
)

var morning = time.Date(2026, 10, 19, 10, 0, 0, 0, time.Local)

func TestParseDeadlineRelative(t *testing.T) {
	tests := []struct {
		input string
		want  time.Duration
	}{
		{"+25m", 25 * time.Minute},
		{"+1h30m", 90 * time.Minute},
		{"+45s", 45 * time.Second},
		{"+10", 10 * time.Minute},
		{" +2 hours ", 2 * time.Hour},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := ParseDeadlineAt(tt.input, morning)
			require.NoError(t, result.Error)
			assert.Equal(t, morning.Add(tt.want), result.Time)
		})
	}
}

func TestParseDeadlineInvalid(t *testing.T) {
	for _, input := range []string{"", "   ", "+", "+soon", "+0m"} {
		result := ParseDeadlineAt(input, morning)
		assert.ErrorIs(t, result.Error, errors.ErrInvalidDeadline, input)
		assert.True(t, errors.IsUserError(result.Error), input)
	}
}

func TestParseDeadlineTimeOfDay(t *testing.T) {
	result := ParseDeadlineAt("5pm", morning)
	require.NoError(t, result.Error)
	assert.True(t, result.Time.After(morning))
	assert.Equal(t, 17, result.Time.Hour())

	// Already past today: the same time tomorrow.
	evening := time.Date(2026, 10, 19, 18, 0, 0, 0, time.Local)
	result = ParseDeadlineAt("5pm", evening)
	require.NoError(t, result.Error)
	assert.True(t, result.Time.After(evening))
	assert.Equal(t, 17, result.Time.Hour())
}

func TestParseDeadlinePastDate(t *testing.T) {
	result := ParseDeadlineAt("2020-01-15 14:00", morning)
	require.Error(t, result.Error)
	assert.Contains(t, result.Error.Error(), "future")
}

func TestParseDeadlineArgs(t *testing.T) {
	result := ParseDeadlineArgs([]string{"+1h", "30m"}, morning)
	require.NoError(t, result.Error)
	assert.Equal(t, morning.Add(90*time.Minute), result.Time)

	result = ParseDeadlineArgs(nil, morning)
	assert.ErrorIs(t, result.Error, errors.ErrInvalidDeadline)
}

func TestClockUntil(t *testing.T) {
	c, err := ClockUntil(morning.Add(25*time.Minute), morning)
	require.NoError(t, err)
	assert.Equal(t, model.NewClock(0, 25, 0), c)

	c, err = ClockUntil(morning.Add(25*time.Minute+200*time.Millisecond), morning)
	require.NoError(t, err)
	assert.Equal(t, model.NewClock(0, 25, 1), c, "partial seconds round up")

	_, err = ClockUntil(morning.Add(-time.Minute), morning)
	assert.ErrorIs(t, err, errors.ErrInvalidDeadline)

	_, err = ClockUntil(morning.Add(101*time.Hour), morning)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too far")
}

func TestFormatDeadline(t *testing.T) {
	assert.Equal(t, "Today at 17:00", FormatDeadline(morning.Add(7*time.Hour), morning, model.TimeFormat24h))
	assert.Equal(t, "Today at 5:00 PM", FormatDeadline(morning.Add(7*time.Hour), morning, model.TimeFormat12h))
	assert.Equal(t, "Tomorrow at 09:30", FormatDeadline(morning.Add(23*time.Hour+30*time.Minute), morning, model.TimeFormat24h))

	// 2026-10-22 is a Thursday.
	assert.Equal(t, "Thursday at 10:00", FormatDeadline(morning.AddDate(0, 0, 3), morning, model.TimeFormat24h))
	assert.Equal(t, "Mon, Nov 2 at 10:00", FormatDeadline(morning.AddDate(0, 0, 14), morning, model.TimeFormat24h))
}
