package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manav03panchal/clockset/internal/errors"
	"github.com/manav03panchal/clockset/internal/model"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		wantName  string
		wantRaw   []string
		wantUntil string
	}{
		{"empty", nil, "", nil, ""},
		{"preset_only", []string{"Tea"}, "Tea", nil, ""},
		{"name_and_clocks", []string{"Tea", "3m", "2m"}, "Tea", []string{"3m", "2m"}, ""},
		{"clocks_only", []string{"0:03:00", "2:00"}, "", []string{"0:03:00", "2:00"}, ""},
		{"multi_word_name", []string{"Soft", "boiled", "eggs", "6:30"}, "Soft boiled eggs", []string{"6:30"}, ""},
		{"shell_quoted_name", []string{"Round 2", "0:45"}, "Round 2", []string{"0:45"}, ""},
		{"shell_quoted_clock", []string{"Nap", "1 hour"}, "Nap", []string{"1 hour"}, ""},
		{"inline_quotes", []string{"'10'"}, "10", nil, ""},
		{"until", []string{"Lunch", "until", "1pm"}, "Lunch", nil, "1pm"},
		{"until_words", []string{"Lunch", "by", "tomorrow", "1pm"}, "Lunch", nil, "tomorrow 1pm"},
		{"until_only", []string{"until", "+25m"}, "", nil, "+25m"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Parse(tt.args)
			assert.Equal(t, tt.wantName, p.Name)
			assert.Equal(t, tt.wantName != "", p.HasName)
			assert.Equal(t, tt.wantRaw, p.RawClocks)
			assert.Equal(t, len(tt.wantRaw) > 0, p.HasClocks)
			assert.Equal(t, tt.wantUntil, p.RawUntil)
			assert.Equal(t, tt.wantUntil != "", p.HasUntil)
		})
	}
}

func TestProcessClocks(t *testing.T) {
	p := Parse([]string{"Tea", "3m", "2:00"})
	require.NoError(t, p.Process(morning))
	assert.Equal(t, []model.ClockSegment{model.NewClock(0, 3, 0), model.NewClock(0, 2, 0)}, p.Clocks)
	assert.True(t, p.Until.IsZero())
}

func TestProcessUntil(t *testing.T) {
	p := Parse([]string{"Focus", "until", "+25m"})
	require.NoError(t, p.Process(morning))
	assert.Equal(t, morning.Add(25*time.Minute), p.Until)
	assert.Equal(t, []model.ClockSegment{model.NewClock(0, 25, 0)}, p.Clocks)
}

func TestProcessErrors(t *testing.T) {
	p := Parse([]string{"Tea", "3m", "until", "5pm"})
	assert.Error(t, p.Process(morning), "clocks and a deadline together")

	p = Parse([]string{"Tea", "100h"})
	assert.ErrorIs(t, p.Process(morning), errors.ErrClockOutOfRange)

	p = Parse([]string{"Tea", "until", "+nope"})
	assert.ErrorIs(t, p.Process(morning), errors.ErrInvalidDeadline)
}

func TestMerge(t *testing.T) {
	p := Parse([]string{"Tea", "3m"})
	p.Merge("Green tea", []string{"2m", "1m"}, "")
	assert.Equal(t, "Green tea", p.Name)
	assert.Equal(t, []string{"2m", "1m"}, p.RawClocks)
	assert.False(t, p.HasUntil)

	p = Parse(nil)
	p.Merge("", nil, "+5m")
	assert.False(t, p.HasName)
	assert.False(t, p.HasClocks)
	assert.True(t, p.HasUntil)
	require.NoError(t, p.Process(morning))
	assert.Equal(t, []model.ClockSegment{model.NewClock(0, 5, 0)}, p.Clocks)
}
