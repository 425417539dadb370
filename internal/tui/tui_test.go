package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manav03panchal/clockset/internal/model"
	"github.com/manav03panchal/clockset/internal/rpc"
	"github.com/manav03panchal/clockset/internal/timer"
)

// =============================================================================
// Test doubles
// =============================================================================

type fakeBackend struct {
	restore   *timer.RestoreResult
	started   []*rpc.StartParams
	stops     int
	progress  []float64
	selected  []string
	failStart error
}

func (b *fakeBackend) Restore(context.Context) (*timer.RestoreResult, error) {
	return b.restore, nil
}

func (b *fakeBackend) Start(_ context.Context, p *rpc.StartParams) (*model.TimerRun, error) {
	if b.failStart != nil {
		return nil, b.failStart
	}
	b.started = append(b.started, p)
	return model.NewTimerRun(), nil
}

func (b *fakeBackend) Stop(context.Context) error {
	b.stops++
	return nil
}

func (b *fakeBackend) SaveProgress(_ context.Context, progress float64) error {
	b.progress = append(b.progress, progress)
	return nil
}

func (b *fakeBackend) Select(_ context.Context, id string) error {
	b.selected = append(b.selected, id)
	return nil
}

type fakePresets struct {
	list []*model.Preset
}

func (s *fakePresets) List() []*model.Preset {
	return append([]*model.Preset(nil), s.list...)
}

func (s *fakePresets) Save(p *model.Preset) error {
	s.list = append(s.list, p)
	return nil
}

func (s *fakePresets) Delete(id string) error {
	for i, p := range s.list {
		if p.ID == id {
			s.list = append(s.list[:i], s.list[i+1:]...)
			return nil
		}
	}
	return nil
}

type fakeSettings struct {
	format string
}

func (s *fakeSettings) TimeFormat() string { return s.format }

func (s *fakeSettings) SetTimeFormat(f string) error {
	s.format = f
	return nil
}

var (
	teaClocks  = []model.ClockSegment{model.NewClock(0, 3, 0), model.NewClock(0, 2, 0)}
	eggsClocks = []model.ClockSegment{model.NewClock(0, 6, 30)}
	fixedNow   = time.Date(2026, 10, 19, 15, 0, 0, 0, time.Local)
)

// liveRun is a Tea run that started elapsed ago.
func liveRun(elapsed time.Duration) *model.TimerRun {
	run := model.NewTimerRun()
	total := model.TotalDurationMs(teaClocks)
	run.RunID = "r1"
	run.IsRunning = true
	run.TotalDuration = model.Ptr(total)
	run.EndTime = model.Ptr(fixedNow.Add(-elapsed).UnixMilli() + total)
	run.PresetName = model.Ptr("Tea")
	run.Clocks = teaClocks
	return run
}

type harness struct {
	m        *PopupModel
	backend  *fakeBackend
	presets  *fakePresets
	settings *fakeSettings
	tea      *model.Preset
	eggs     *model.Preset
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		backend:  &fakeBackend{restore: &timer.RestoreResult{State: timer.StateIdle, Run: model.NewTimerRun()}},
		settings: &fakeSettings{format: model.TimeFormat24h},
		tea:      model.NewPreset("Tea", teaClocks),
		eggs:     model.NewPreset("Eggs", eggsClocks),
	}
	h.presets = &fakePresets{list: []*model.Preset{h.tea, h.eggs}}
	h.m = NewPopupModel(PopupConfig{Backend: h.backend, Presets: h.presets, Settings: h.settings})
	h.m.now = func() time.Time { return fixedNow }
	return h
}

// press sends one key and returns the command the model asked for.
func (h *harness) press(k string) tea.Cmd {
	_, cmd := h.m.Update(key(k))
	return cmd
}

func key(k string) tea.KeyMsg {
	special := map[string]tea.KeyType{
		"enter":     tea.KeyEnter,
		"esc":       tea.KeyEsc,
		"tab":       tea.KeyTab,
		"shift+tab": tea.KeyShiftTab,
		"backspace": tea.KeyBackspace,
		"up":        tea.KeyUp,
		"down":      tea.KeyDown,
		"ctrl+c":    tea.KeyCtrlC,
		"ctrl+n":    tea.KeyCtrlN,
		"ctrl+d":    tea.KeyCtrlD,
		"ctrl+up":   tea.KeyCtrlUp,
		"ctrl+down": tea.KeyCtrlDown,
	}
	if t, ok := special[k]; ok {
		return tea.KeyMsg{Type: t}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func typeText(f *PresetForm, s string) {
	for _, r := range s {
		f.Update(key(string(r)))
	}
}

// =============================================================================
// ProgressBar Tests
// =============================================================================

func TestProgressBar(t *testing.T) {
	tests := []struct {
		name       string
		percentage float64
		width      int
		filled     int
	}{
		{"nothing_elapsed", 100, 10, 0},
		{"half", 50, 10, 5},
		{"done", 0, 10, 10},
		{"over", 150, 10, 0},
		{"negative", -10, 10, 10},
		{"large_width", 75, 40, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := ProgressBar(tt.percentage, tt.width)
			assert.Equal(t, tt.filled, strings.Count(bar, barFilled))
			assert.Equal(t, tt.width-tt.filled, strings.Count(bar, barEmpty))
		})
	}

	assert.Empty(t, ProgressBar(50, 0))
}

func TestMarkedProgressBar(t *testing.T) {
	bar := MarkedProgressBar(100, 20, teaClocks)
	assert.Equal(t, 1, strings.Count(bar, barMarker))
	assert.Equal(t, 19, strings.Count(bar, barEmpty))

	assert.Zero(t, strings.Count(MarkedProgressBar(100, 20, eggsClocks), barMarker))
}

func TestMarkerColumns(t *testing.T) {
	// Tea: the first clock ends three fifths of the way in.
	assert.Equal(t, map[int]bool{12: true}, markerColumns(teaClocks, 20))

	thirds := []model.ClockSegment{model.NewClock(0, 1, 0), model.NewClock(0, 1, 0), model.NewClock(0, 1, 0)}
	assert.Equal(t, map[int]bool{10: true, 20: true}, markerColumns(thirds, 30))

	assert.Empty(t, markerColumns(eggsClocks, 20))
	assert.Empty(t, markerColumns(nil, 20))
	assert.Empty(t, markerColumns([]model.ClockSegment{{}, {}}, 20), "zero total")
}

// =============================================================================
// Component Tests
// =============================================================================

func TestCountdownComponentLive(t *testing.T) {
	res := &timer.RestoreResult{
		State:       timer.StateLive,
		Run:         liveRun(3*time.Minute + time.Second),
		RemainingMs: 119000,
		Progress:    39.6,
		Clock:       2,
	}
	view := NewCountdownComponent(res, 70, model.TimeFormat24h).View()
	assert.Contains(t, view, "Tea")
	assert.Contains(t, view, "2 of 2")
	assert.Contains(t, view, "01:59")
	assert.Contains(t, view, "Ends at")
	assert.Contains(t, view, "0:03:00")
}

func TestCountdownComponentIdle(t *testing.T) {
	view := NewCountdownComponent(nil, 60, model.TimeFormat24h).View()
	assert.Contains(t, view, "No timer running")
	assert.Contains(t, view, "00:00")

	view = NewCountdownComponent(&timer.RestoreResult{State: timer.StateIdle, Progress: 40}, 60, model.TimeFormat24h).View()
	assert.Contains(t, view, barFilled, "last progress is shown")

	view = NewCountdownComponent(&timer.RestoreResult{State: timer.StateResolved}, 60, model.TimeFormat24h).View()
	assert.Contains(t, view, "Timer complete")
}

func TestPresetListComponent(t *testing.T) {
	view := NewPresetListComponent(nil, 0, "", 60).View()
	assert.Contains(t, view, "No presets yet")

	teaPreset := model.NewPreset("Tea", teaClocks)
	eggs := model.NewPreset("Eggs", eggsClocks)
	view = NewPresetListComponent([]*model.Preset{teaPreset, eggs}, 0, eggs.ID, 70).View()
	assert.Contains(t, view, "Tea")
	assert.Contains(t, view, "0:06:30")
	assert.Contains(t, view, "* ")
}

func TestHelpBar(t *testing.T) {
	bar := HelpBar(mainHelp)
	assert.Contains(t, bar, "start")
	assert.Contains(t, bar, "12h/24h")
	assert.Contains(t, HelpBar(formHelp), "add clock")
}

// =============================================================================
// Form Tests
// =============================================================================

func TestPresetFormNew(t *testing.T) {
	f := NewPresetForm(nil)
	require.Len(t, f.Clocks, 1)

	typeText(f, "Tea")
	assert.Equal(t, "Tea", f.Name)

	// Minutes of the first clock.
	f.Update(key("tab"))
	f.Update(key("tab"))
	row, col := f.Focus()
	assert.Equal(t, 1, row)
	assert.Equal(t, 1, col)
	typeText(f, "3")

	f.AddClock()
	row, _ = f.Focus()
	assert.Equal(t, 2, row)
	f.Update(key("tab"))
	typeText(f, "2")

	p, err := f.Build()
	require.NoError(t, err)
	assert.Equal(t, "Tea", p.Name)
	assert.Equal(t, teaClocks, p.Clocks)
	assert.NotEmpty(t, p.ID)
}

func TestPresetFormLimitsInput(t *testing.T) {
	f := NewPresetForm(nil)
	f.Update(key("down"))
	typeText(f, "1x23")
	assert.Equal(t, "12", f.Clocks[0][0])

	f.Update(key("backspace"))
	assert.Equal(t, "1", f.Clocks[0][0])

	f.Clocks[0][0] = ""
	typeText(f, "9")
	typeText(f, "9")
	assert.Equal(t, "99", f.Clocks[0][0])
}

func TestPresetFormEditClonesSource(t *testing.T) {
	src := model.NewPreset("Tea", teaClocks)
	f := NewPresetForm(src)
	assert.Equal(t, "Tea", f.Name)
	assert.Equal(t, [3]string{"0", "3", "0"}, f.Clocks[0])

	f.Update(key("backspace"))
	typeText(f, "ea")
	p, err := f.Build()
	require.NoError(t, err)
	assert.Equal(t, "Teea", p.Name)
	assert.NotEqual(t, src.ID, p.ID)
	assert.Equal(t, teaClocks, p.Clocks)
}

func TestPresetFormMoveAndRemove(t *testing.T) {
	f := NewPresetForm(model.NewPreset("Tea", teaClocks))

	f.Update(key("down"))
	f.Update(key("ctrl+down"))
	row, _ := f.Focus()
	assert.Equal(t, 2, row, "focus follows the moved clock")
	assert.Equal(t, [3]string{"0", "2", "0"}, f.Clocks[0])
	assert.Equal(t, [3]string{"0", "3", "0"}, f.Clocks[1])

	f.Update(key("ctrl+up"))
	assert.Equal(t, [3]string{"0", "3", "0"}, f.Clocks[0])

	f.Update(key("ctrl+d"))
	require.Len(t, f.Clocks, 1)
	assert.Equal(t, [3]string{"0", "2", "0"}, f.Clocks[0])

	f.Update(key("ctrl+d"))
	assert.Len(t, f.Clocks, 1, "the last clock stays")
}

func TestPresetFormValidation(t *testing.T) {
	f := NewPresetForm(nil)
	assert.Equal(t, formContinue, f.Update(key("enter")))
	require.Error(t, f.Err, "name is required")

	typeText(f, "Zero")
	assert.Nil(t, f.Err)
	assert.Equal(t, formContinue, f.Update(key("enter")))
	require.Error(t, f.Err, "zero total")

	f.Update(key("down"))
	f.Update(key("tab"))
	f.Update(key("tab"))
	typeText(f, "5")
	assert.Equal(t, formSave, f.Update(key("enter")))
	assert.Equal(t, formCancel, f.Update(key("esc")))
}

func TestPresetFormView(t *testing.T) {
	f := NewPresetForm(model.NewPreset("Tea", teaClocks))
	view := f.View(70)
	assert.Contains(t, view, "Edit preset")
	assert.Contains(t, view, "1 of 2")
	assert.Contains(t, view, "2 of 2")

	f.Err = errors.New("hours must be between 0 and 99")
	assert.Contains(t, f.View(70), "hours must be")
}

// =============================================================================
// Popup Tests
// =============================================================================

func TestPopupInit(t *testing.T) {
	h := newHarness(t)
	assert.Len(t, h.m.list, 2)
	assert.Equal(t, model.TimeFormat24h, h.m.timeFormat)
	assert.NotNil(t, h.m.Init())
}

func TestPopupRestore(t *testing.T) {
	h := newHarness(t)
	run := liveRun(time.Minute)
	run.SelectedPresetID = model.Ptr(h.tea.ID)
	h.backend.restore = &timer.RestoreResult{State: timer.StateLive, Run: run, RemainingMs: 240000, Progress: 80, Clock: 1}

	msg := h.m.restoreCmd()()
	h.m.Update(msg)
	assert.Equal(t, timer.StateLive, h.m.state.State)
	assert.Equal(t, h.tea.ID, h.m.selectedID)

	// Resolution after a live read is announced.
	h.backend.restore = &timer.RestoreResult{State: timer.StateResolved, Run: model.NewTimerRun()}
	h.m.Update(h.m.restoreCmd()())
	assert.Equal(t, "Timer complete", h.m.message)
}

func TestPopupLiveState(t *testing.T) {
	h := newHarness(t)
	// Read 10s ago; the display still counts down from the record.
	h.m.state = &timer.RestoreResult{State: timer.StateLive, Run: liveRun(3*time.Minute + 30*time.Second), RemainingMs: 100000, Clock: 1}

	res := h.m.liveState()
	assert.Equal(t, int64(90000), res.RemainingMs)
	assert.Equal(t, 2, res.Clock)
	assert.InDelta(t, 30.0, res.Progress, 0.001)
	assert.Equal(t, int64(100000), h.m.state.RemainingMs, "the read is not modified")
}

func TestPopupStartSelectedPreset(t *testing.T) {
	h := newHarness(t)
	h.press("down")
	cmd := h.press("s")
	require.NotNil(t, cmd)
	require.Len(t, h.backend.started, 1)
	assert.Equal(t, h.eggs, h.backend.started[0].Preset)
	assert.Equal(t, h.eggs.ID, h.m.selectedID)
	assert.Equal(t, "Started Eggs", h.m.message)
}

func TestPopupStartError(t *testing.T) {
	h := newHarness(t)
	h.backend.failStart = errors.New("daemon gone")
	h.press("s")
	assert.EqualError(t, h.m.err, "daemon gone")
}

func TestPopupStop(t *testing.T) {
	h := newHarness(t)
	require.NotNil(t, h.press("x"))
	assert.Equal(t, 1, h.backend.stops)
}

func TestPopupSelect(t *testing.T) {
	h := newHarness(t)
	h.press("j")
	h.press("enter")
	assert.Equal(t, []string{h.eggs.ID}, h.backend.selected)
	assert.Equal(t, h.eggs.ID, h.m.selectedID)

	// The cursor stops at the ends of the list.
	h.press("j")
	h.press("k")
	h.press("k")
	assert.Equal(t, 0, h.m.cursor)
}

func TestPopupQuitSavesProgress(t *testing.T) {
	h := newHarness(t)
	h.m.state = &timer.RestoreResult{State: timer.StateLive, Run: liveRun(time.Minute)}

	cmd := h.press("q")
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	require.Len(t, h.backend.progress, 1)
	assert.InDelta(t, 80.0, h.backend.progress[0], 0.001)
}

func TestPopupQuitWithoutStateSavesNothing(t *testing.T) {
	h := newHarness(t)
	cmd := h.press("ctrl+c")
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, h.backend.progress)
}

func TestPopupToggleTimeFormat(t *testing.T) {
	h := newHarness(t)
	h.press("t")
	assert.Equal(t, model.TimeFormat12h, h.m.timeFormat)
	assert.Equal(t, model.TimeFormat12h, h.settings.format)

	h.press("t")
	assert.Equal(t, model.TimeFormat24h, h.settings.format)
}

func TestPopupDeleteSelectedPreset(t *testing.T) {
	h := newHarness(t)
	h.m.selectedID = h.tea.ID
	h.press("d")

	require.Len(t, h.m.list, 1)
	assert.Equal(t, "Eggs", h.m.list[0].Name)
	assert.Equal(t, []string{""}, h.backend.selected, "deleting the selection clears it")
}

func TestPopupAddPreset(t *testing.T) {
	h := newHarness(t)
	h.press("n")
	require.NotNil(t, h.m.form)

	// Keys go to the form while it is open.
	for _, r := range "Pasta" {
		h.press(string(r))
	}
	h.press("down")
	h.press("tab")
	h.press("1")
	h.press("0")
	h.press("enter")

	assert.Nil(t, h.m.form)
	require.Len(t, h.m.list, 3)
	assert.Equal(t, "Pasta", h.m.list[2].Name)
	assert.Equal(t, 2, h.m.cursor)
	assert.Empty(t, h.backend.started, "typing 's' in the form does not start")
}

func TestPopupEditReplacesPreset(t *testing.T) {
	h := newHarness(t)
	h.m.selectedID = h.tea.ID
	h.press("e")
	require.NotNil(t, h.m.form)
	h.press("!")
	h.press("enter")

	require.Len(t, h.m.list, 2)
	assert.Equal(t, "Eggs", h.m.list[0].Name)
	edited := h.m.list[1]
	assert.Equal(t, "Tea!", edited.Name)
	assert.NotEqual(t, h.tea.ID, edited.ID)
	assert.Equal(t, edited.ID, h.m.selectedID, "the selection follows the edit")
}

func TestPopupCancelForm(t *testing.T) {
	h := newHarness(t)
	h.press("n")
	h.press("esc")
	assert.Nil(t, h.m.form)
	assert.Len(t, h.m.list, 2)
}

func TestPopupNotification(t *testing.T) {
	ch := make(chan *model.Notification, 1)
	h := newHarness(t)
	h.m.notes = ch

	ch <- model.NewMilestone("r1", "Tea", 1, 2)
	msg := h.m.waitNotify()()
	_, cmd := h.m.Update(msg)
	assert.NotNil(t, cmd)
	assert.Contains(t, h.m.message, "1 of 2")

	close(ch)
	assert.Nil(t, h.m.waitNotify()())
}

func TestPopupTickExpiresMessage(t *testing.T) {
	h := newHarness(t)
	h.m.setMessage("hello", time.Second)
	h.m.now = func() time.Time { return fixedNow.Add(2 * time.Second) }

	_, cmd := h.m.Update(tickMsg(fixedNow))
	assert.NotNil(t, cmd)
	assert.Empty(t, h.m.message)
}

func TestPopupView(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, "Loading...", h.m.View())

	h.m.Update(tea.WindowSizeMsg{Width: 80, Height: 30})
	view := h.m.View()
	assert.Contains(t, view, "clockset")
	assert.Contains(t, view, "15:00")
	assert.Contains(t, view, "Presets")
	assert.Contains(t, view, "Tea")

	h.press("t")
	assert.Contains(t, h.m.View(), "3:00 PM")

	h.press("n")
	assert.Contains(t, h.m.View(), "New preset")
}
