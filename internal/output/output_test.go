package output

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manav03panchal/clockset/internal/model"
	"github.com/manav03panchal/clockset/internal/timer"
)

func newBuffered(format Format) (*Formatter, *bytes.Buffer) {
	var buf bytes.Buffer
	return &Formatter{Writer: &buf, Format: format, ColorMode: ColorNever, TimeFormat: model.TimeFormat24h}, &buf
}

func liveRun() *model.TimerRun {
	end := time.Now().Add(4 * time.Minute).UnixMilli()
	return &model.TimerRun{
		RunID:         "run-1",
		IsRunning:     true,
		EndTime:       model.Ptr(end),
		TotalDuration: model.Ptr(int64(300000)),
		PresetName:    model.Ptr("Tea"),
		Clocks:        []model.ClockSegment{model.NewClock(0, 3, 0), model.NewClock(0, 2, 0)},
	}
}

// =============================================================================
// Formatter Tests
// =============================================================================

func TestNewFormatter(t *testing.T) {
	f := NewFormatter()
	assert.Equal(t, FormatCLI, f.Format)
	assert.Equal(t, ColorAuto, f.ColorMode)
	assert.Equal(t, model.TimeFormat24h, f.TimeFormat)
}

func TestParseFormat(t *testing.T) {
	assert.Equal(t, FormatJSON, ParseFormat("JSON"))
	assert.Equal(t, FormatPlain, ParseFormat(" plain "))
	assert.Equal(t, FormatCLI, ParseFormat("yaml"))
	assert.Equal(t, FormatCLI, ParseFormat(""))
}

func TestFormatterIsColorEnabled(t *testing.T) {
	t.Run("color_always", func(t *testing.T) {
		f := &Formatter{ColorMode: ColorAlways}
		assert.True(t, f.IsColorEnabled())
	})

	t.Run("color_never", func(t *testing.T) {
		f := &Formatter{ColorMode: ColorNever}
		assert.False(t, f.IsColorEnabled())
	})

	t.Run("plain_wins", func(t *testing.T) {
		f := &Formatter{ColorMode: ColorAlways, Format: FormatPlain}
		assert.False(t, f.IsColorEnabled())
	})

	t.Run("color_auto_non_terminal", func(t *testing.T) {
		f := &Formatter{Writer: &bytes.Buffer{}, ColorMode: ColorAuto}
		assert.False(t, f.IsColorEnabled())
	})
}

func TestFormatterJSON(t *testing.T) {
	f, buf := newBuffered(FormatJSON)
	require.NoError(t, f.JSON(map[string]int{"a": 1}))
	assert.Equal(t, "{\n  \"a\": 1\n}\n", buf.String())
	assert.True(t, f.IsJSON())
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{-time.Second, "0s"},
		{45 * time.Second, "45s"},
		{3 * time.Minute, "3m"},
		{3*time.Minute + 20*time.Second, "3m 20s"},
		{2 * time.Hour, "2h"},
		{time.Hour + 5*time.Minute, "1h 5m"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDuration(tt.in), tt.in.String())
	}
	assert.Equal(t, "5m", FormatMs(300000))
}

func TestFormatClocks(t *testing.T) {
	clocks := []model.ClockSegment{model.NewClock(0, 3, 0), model.NewClock(0, 2, 0)}
	assert.Equal(t, "0:03:00 → 0:02:00", FormatClocks(clocks))
	assert.Equal(t, "", FormatClocks(nil))
}

func TestFormatWallClock(t *testing.T) {
	at := time.Date(2026, 3, 1, 15, 4, 5, 0, time.Local)
	assert.Equal(t, "15:04:05", FormatWallClock(at, model.TimeFormat24h))
	assert.Equal(t, "3:04:05 PM", FormatWallClock(at, model.TimeFormat12h))
}

// =============================================================================
// CLI Formatter Tests
// =============================================================================

func TestCLIFormatterMessages(t *testing.T) {
	f, buf := newBuffered(FormatCLI)
	c := NewCLIFormatter(f)

	c.Success("done")
	c.Warning("careful")
	c.Error("broken")
	c.Title("Presets")

	out := buf.String()
	assert.Contains(t, out, "✓ done")
	assert.Contains(t, out, "⚠ careful")
	assert.Contains(t, out, "✗ broken")
	assert.Contains(t, out, "Presets")
}

func TestCLIFormatterPrintRunStarted(t *testing.T) {
	f, buf := newBuffered(FormatCLI)
	NewCLIFormatter(f).PrintRunStarted(liveRun())

	out := buf.String()
	assert.Contains(t, out, "Started Tea")
	assert.Contains(t, out, "0:03:00 → 0:02:00")
	assert.Contains(t, out, "Duration: 5m")
	assert.Contains(t, out, "Ends at:")
}

func TestCLIFormatterPrintStatus(t *testing.T) {
	t.Run("live", func(t *testing.T) {
		f, buf := newBuffered(FormatCLI)
		res := &timer.RestoreResult{State: timer.StateLive, Run: liveRun(), RemainingMs: 240000, Progress: 20, Clock: 1}
		NewCLIFormatter(f).PrintStatus(res, []string{"a", "b"})

		out := buf.String()
		assert.Contains(t, out, "Running: Tea")
		assert.Contains(t, out, "Clock: 1 of 2 (0:03:00)")
		assert.Contains(t, out, "Remaining: 04:00")
		assert.Contains(t, out, "20%")
		assert.Contains(t, out, "Pending wake-ups: 2")
	})

	t.Run("idle", func(t *testing.T) {
		f, buf := newBuffered(FormatCLI)
		NewCLIFormatter(f).PrintStatus(&timer.RestoreResult{State: timer.StateIdle, Progress: 40}, nil)
		assert.Contains(t, buf.String(), "No timer running.")
		assert.Contains(t, buf.String(), "Last progress:")
	})

	t.Run("nil", func(t *testing.T) {
		f, buf := newBuffered(FormatCLI)
		NewCLIFormatter(f).PrintStatus(nil, nil)
		assert.Contains(t, buf.String(), "No timer running.")
	})

	t.Run("resolved", func(t *testing.T) {
		f, buf := newBuffered(FormatCLI)
		NewCLIFormatter(f).PrintStatus(&timer.RestoreResult{State: timer.StateResolved}, nil)
		assert.Contains(t, buf.String(), "Timer complete.")
	})
}

func TestCLIFormatterPrintPresets(t *testing.T) {
	tea := model.NewPreset("Tea", []model.ClockSegment{model.NewClock(0, 3, 0), model.NewClock(0, 2, 0)})
	eggs := model.NewPreset("Eggs", []model.ClockSegment{model.NewClock(0, 7, 0)})

	f, buf := newBuffered(FormatCLI)
	NewCLIFormatter(f).PrintPresets([]*model.Preset{tea, eggs}, eggs.ID)

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 4)
	assert.Contains(t, string(lines[0]), "NAME")
	assert.Contains(t, string(lines[2]), "Tea")
	assert.Contains(t, string(lines[2]), "5m")
	assert.True(t, bytes.HasPrefix(lines[3], []byte("*")))

	f, buf = newBuffered(FormatCLI)
	NewCLIFormatter(f).PrintPresets(nil, "")
	assert.Contains(t, buf.String(), "No presets saved.")
}

func TestCLIFormatterPrintPreset(t *testing.T) {
	tea := model.NewPreset("Tea", []model.ClockSegment{model.NewClock(0, 3, 0), model.NewClock(0, 2, 0)})
	f, buf := newBuffered(FormatCLI)
	NewCLIFormatter(f).PrintPreset(tea)

	out := buf.String()
	assert.Contains(t, out, "1 of 2  0:03:00")
	assert.Contains(t, out, "2 of 2  0:02:00")
	assert.Contains(t, out, "Total: 5m")
}

func TestProgressBar(t *testing.T) {
	assert.Equal(t, "░░░░░░░░░░", ProgressBar(0, 10))
	assert.Equal(t, "█████░░░░░", ProgressBar(50, 10))
	assert.Equal(t, "██████████", ProgressBar(150, 10))
	assert.Equal(t, "░░░░░░░░░░", ProgressBar(-5, 10))
}

func TestCLIFormatterPrintTableEmpty(t *testing.T) {
	f, buf := newBuffered(FormatCLI)
	NewCLIFormatter(f).PrintTable([]string{"A"}, nil)
	assert.Empty(t, buf.String())
}

// =============================================================================
// JSON Formatter Tests
// =============================================================================

func TestJSONFormatterPrintStatus(t *testing.T) {
	t.Run("live", func(t *testing.T) {
		f, buf := newBuffered(FormatJSON)
		res := &timer.RestoreResult{State: timer.StateLive, Run: liveRun(), RemainingMs: 240000, Progress: 20, Clock: 1}
		require.NoError(t, NewJSONFormatter(f).PrintStatus(res, []string{"run-1/complete"}))

		var resp StatusResponse
		require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
		assert.Equal(t, "live", resp.Status)
		require.NotNil(t, resp.Run)
		assert.Equal(t, "Tea", resp.Run.PresetName)
		assert.Equal(t, []string{"0:03:00", "0:02:00"}, resp.Run.Clocks)
		assert.Equal(t, int64(300000), resp.Run.TotalMs)
		assert.NotEmpty(t, resp.Run.EndsAt)
		assert.Equal(t, int64(240000), resp.RemainingMs)
		assert.Equal(t, []string{"run-1/complete"}, resp.Wakeups)
	})

	t.Run("nil", func(t *testing.T) {
		f, buf := newBuffered(FormatJSON)
		require.NoError(t, NewJSONFormatter(f).PrintStatus(nil, nil))

		var resp StatusResponse
		require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
		assert.Equal(t, "idle", resp.Status)
		assert.Nil(t, resp.Run)
	})
}

func TestJSONFormatterStartStop(t *testing.T) {
	f, buf := newBuffered(FormatJSON)
	jf := NewJSONFormatter(f)

	require.NoError(t, jf.PrintStart(liveRun()))
	var start StartResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &start))
	assert.Equal(t, "started", start.Status)
	assert.True(t, start.Run.IsRunning)

	buf.Reset()
	require.NoError(t, jf.PrintStop())
	var stop StopResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &stop))
	assert.Equal(t, "stopped", stop.Status)
}

func TestNewRunOutputIdle(t *testing.T) {
	assert.Nil(t, NewRunOutput(nil))

	r := model.NewTimerRun()
	r.SelectedPresetID = model.Ptr("p1")
	out := NewRunOutput(r)
	assert.False(t, out.IsRunning)
	assert.Empty(t, out.EndsAt)
	assert.Equal(t, "p1", out.SelectedPresetID)
}

func TestJSONFormatterPrintPresets(t *testing.T) {
	tea := model.NewPreset("Tea", []model.ClockSegment{model.NewClock(0, 3, 0), model.NewClock(0, 2, 0)})
	f, buf := newBuffered(FormatJSON)
	require.NoError(t, NewJSONFormatter(f).PrintPresets([]*model.Preset{tea}, tea.ID))

	var resp PresetsResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, tea.ID, resp.Presets[0].ID)
	assert.Equal(t, int64(300000), resp.Presets[0].TotalMs)
	assert.True(t, resp.Presets[0].Selected)
}

func TestJSONFormatterPrintError(t *testing.T) {
	f, buf := newBuffered(FormatJSON)
	require.NoError(t, NewJSONFormatter(f).PrintError("error", "something failed", "Please try again"))

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "something failed", resp.Error)
	assert.Equal(t, "Please try again", resp.Message)
}
