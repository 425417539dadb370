package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manav03panchal/clockset/internal/errors"
	"github.com/manav03panchal/clockset/internal/model"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		input string
		want  model.ClockSegment
	}{
		{"0:03:00", model.NewClock(0, 3, 0)},
		{"3:00", model.NewClock(0, 3, 0)},
		{" 1:2:3 ", model.NewClock(1, 2, 3)},
		{"99:99:99", model.NewClock(99, 99, 99)},
		{"1::", model.NewClock(1, 0, 0)},
		{"25m", model.NewClock(0, 25, 0)},
		{"90m", model.NewClock(1, 30, 0)},
		{"1h30m", model.NewClock(1, 30, 0)},
		{"45s", model.NewClock(0, 0, 45)},
		{"10", model.NewClock(0, 10, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseClock(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseClockErrors(t *testing.T) {
	tests := []struct {
		input    string
		sentinel error
	}{
		{"", errors.ErrInvalidInput},
		{"tea", errors.ErrInvalidInput},
		{"1:2:3:4", errors.ErrInvalidInput},
		{"a:b", errors.ErrInvalidInput},
		{"100:0:0", errors.ErrClockOutOfRange},
		{"0:100", errors.ErrClockOutOfRange},
		{"100h", errors.ErrClockOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := ParseClock(tt.input)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.sentinel)
			assert.True(t, errors.IsUserError(err))
		})
	}
}

func TestParseClocks(t *testing.T) {
	tea := []model.ClockSegment{model.NewClock(0, 3, 0), model.NewClock(0, 2, 0)}

	clocks, err := ParseClocks([]string{"3m,2m"})
	require.NoError(t, err)
	assert.Equal(t, tea, clocks)

	clocks, err = ParseClocks([]string{"0:03:00", "2:00"})
	require.NoError(t, err)
	assert.Equal(t, tea, clocks)

	clocks, err = ParseClocks([]string{"3m,", " ,2m"})
	require.NoError(t, err)
	assert.Equal(t, tea, clocks)

	_, err = ParseClocks(nil)
	assert.ErrorIs(t, err, errors.ErrEmptyPreset)

	_, err = ParseClocks([]string{"3m", "soon"})
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}

func TestIsClockLike(t *testing.T) {
	for _, s := range []string{"3:00", "0:03:00", "25m", "10", "1 hour", "1h30m"} {
		assert.True(t, IsClockLike(s), s)
	}
	for _, s := range []string{"", "Tea", "12:ab", "m", "Round 2", "until"} {
		assert.False(t, IsClockLike(s), s)
	}
}
