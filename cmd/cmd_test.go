package cmd

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manav03panchal/clockset/internal/errors"
	"github.com/manav03panchal/clockset/internal/model"
	"github.com/manav03panchal/clockset/internal/output"
)

type fakeFinder map[string]*model.Preset

func (f fakeFinder) FindByName(name string) (*model.Preset, error) {
	for _, p := range f {
		if strings.EqualFold(p.Name, name) {
			return p, nil
		}
	}
	return nil, errors.ErrPresetNotFound
}

func (f fakeFinder) Get(id string) (*model.Preset, error) {
	if p, ok := f[id]; ok {
		return p, nil
	}
	return nil, errors.ErrPresetNotFound
}

func newFinder() (fakeFinder, *model.Preset) {
	tea := model.NewPreset("Tea", []model.ClockSegment{model.NewClock(0, 3, 0), model.NewClock(0, 2, 0)})
	return fakeFinder{tea.ID: tea}, tea
}

func TestStartRequestParams(t *testing.T) {
	finder, tea := newFinder()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.Local)

	t.Run("saved_preset_by_name", func(t *testing.T) {
		p, err := startRequest{Args: []string{"tea"}}.params(finder, now)
		require.NoError(t, err)
		assert.Same(t, tea, p.Preset)
	})

	t.Run("preset_flag", func(t *testing.T) {
		p, err := startRequest{Preset: "Tea"}.params(finder, now)
		require.NoError(t, err)
		assert.Same(t, tea, p.Preset)
	})

	t.Run("ad_hoc_clocks", func(t *testing.T) {
		p, err := startRequest{Args: []string{"Eggs", "6m", "0:30"}}.params(finder, now)
		require.NoError(t, err)
		assert.Nil(t, p.Preset)
		assert.Equal(t, "Eggs", p.PresetName)
		assert.Equal(t, []model.ClockSegment{model.NewClock(0, 6, 0), model.NewClock(0, 0, 30)}, p.Clocks)
	})

	t.Run("clock_flags", func(t *testing.T) {
		p, err := startRequest{Clocks: []string{"0:40", "0:20"}, Name: "Intervals"}.params(finder, now)
		require.NoError(t, err)
		assert.Equal(t, "Intervals", p.PresetName)
		assert.Len(t, p.Clocks, 2)
	})

	t.Run("minutes", func(t *testing.T) {
		p, err := startRequest{Minutes: 25}.params(finder, now)
		require.NoError(t, err)
		assert.Equal(t, int64(25*60*1000), p.DurationMs)
	})

	t.Run("selected_fallback", func(t *testing.T) {
		p, err := startRequest{Selected: tea.ID}.params(finder, now)
		require.NoError(t, err)
		assert.Same(t, tea, p.Preset)
	})
}

func TestStartRequestParamsErrors(t *testing.T) {
	finder, _ := newFinder()
	now := time.Now()

	tests := []struct {
		name string
		req  startRequest
	}{
		{"nothing", startRequest{}},
		{"stale_selection", startRequest{Selected: "gone"}},
		{"negative_minutes", startRequest{Minutes: -5}},
		{"minutes_with_clock", startRequest{Minutes: 5, Clocks: []string{"1m"}}},
		{"preset_with_clocks", startRequest{Preset: "Tea", Clocks: []string{"1m"}}},
		{"clock_out_of_range", startRequest{Args: []string{"0:120:00"}}},
		{"unknown_preset", startRequest{Args: []string{"Coffee"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.req.params(finder, now)
			assert.Error(t, err)
		})
	}
}

func TestNativeMessagingLaunch(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want bool
	}{
		{"chrome", []string{"chrome-extension://abcdefghijklmnop/"}, true},
		{"chrome_with_window", []string{"chrome-extension://abc/", "--parent-window=0"}, true},
		{"firefox", []string{"/home/u/.mozilla/native-messaging-hosts/dev.clockset.host.json", "clockset@example.org"}, true},
		{"none", nil, false},
		{"command", []string{"start", "Tea"}, false},
		{"json_file_alone", []string{"presets.json"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, nativeMessagingLaunch(tt.args))
		})
	}
}

func TestIsOffline(t *testing.T) {
	assert.False(t, isOffline(startCmd))
	assert.False(t, isOffline(nativeHostCmd))
	assert.True(t, isOffline(nativeHostInstallCmd))
	assert.True(t, isOffline(daemonStartCmd))
	assert.False(t, isOffline(daemonHealthCmd))
	assert.True(t, isOffline(configShowCmd))
	assert.True(t, isOffline(webhookTestCmd))
}

func TestParseColorMode(t *testing.T) {
	assert.Equal(t, output.ColorAlways, parseColorMode("always"))
	assert.Equal(t, output.ColorNever, parseColorMode("never"))
	assert.Equal(t, output.ColorAuto, parseColorMode("auto"))
	assert.Equal(t, output.ColorAuto, parseColorMode("bogus"))
}

func TestParseEnabled(t *testing.T) {
	on, err := parseEnabled("ON")
	require.NoError(t, err)
	assert.True(t, on)

	off, err := parseEnabled("disabled")
	require.NoError(t, err)
	assert.False(t, off)

	_, err = parseEnabled("maybe")
	assert.True(t, errors.IsUserError(err))
}

func TestTailLines(t *testing.T) {
	lines, err := tailLines(strings.NewReader("a\nb\nc\nd\n"), 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "d"}, lines)

	lines, err = tailLines(strings.NewReader("only\n"), 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"only"}, lines)
}

func TestSegmentElapsed(t *testing.T) {
	clocks := []model.ClockSegment{model.NewClock(0, 3, 0), model.NewClock(0, 2, 0)}

	assert.Equal(t, []int64{0, 0}, segmentElapsed(clocks, 0))
	assert.Equal(t, []int64{60000, 0}, segmentElapsed(clocks, time.Minute))
	assert.Equal(t, []int64{180000, 0}, segmentElapsed(clocks, 3*time.Minute))
	assert.Equal(t, []int64{180000, 30000}, segmentElapsed(clocks, 3*time.Minute+30*time.Second))
	assert.Equal(t, []int64{180000, 120000}, segmentElapsed(clocks, 10*time.Minute))
}

func TestFindWebhook(t *testing.T) {
	hooks := []model.Webhook{{Name: "kitchen"}, {Name: "office"}}
	assert.Equal(t, 1, findWebhook(hooks, "office"))
	assert.Equal(t, -1, findWebhook(hooks, "garage"))
}
