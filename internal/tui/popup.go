package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/manav03panchal/clockset/internal/model"
	"github.com/manav03panchal/clockset/internal/rpc"
	"github.com/manav03panchal/clockset/internal/timer"
)

// Backend is the timer the popup drives. *rpc.Client satisfies it.
type Backend interface {
	Restore(ctx context.Context) (*timer.RestoreResult, error)
	Start(ctx context.Context, p *rpc.StartParams) (*model.TimerRun, error)
	Stop(ctx context.Context) error
	SaveProgress(ctx context.Context, progress float64) error
	Select(ctx context.Context, presetID string) error
}

// PresetStore is the preset list the popup edits. *presets.Store
// satisfies it.
type PresetStore interface {
	List() []*model.Preset
	Save(p *model.Preset) error
	Delete(id string) error
}

// Settings holds the popup's display preference. *runtime.Context
// satisfies it.
type Settings interface {
	TimeFormat() string
	SetTimeFormat(format string) error
}

// tickMsg is sent when the countdown ticks.
type tickMsg time.Time

// restoreMsg carries a fresh read of the run.
type restoreMsg struct {
	res *timer.RestoreResult
	err error
}

// notifyMsg carries a notification pushed by the daemon.
type notifyMsg struct {
	n *model.Notification
}

// PopupConfig holds configuration for the popup.
type PopupConfig struct {
	Backend  Backend
	Presets  PresetStore
	Settings Settings

	// Notifications delivers pushed milestones and completions. Optional.
	Notifications <-chan *model.Notification

	RefreshInterval time.Duration
	CallTimeout     time.Duration
}

// PopupModel is the bubbletea model of the popup.
type PopupModel struct {
	backend  Backend
	presets  PresetStore
	settings Settings
	notes    <-chan *model.Notification

	// Data
	state      *timer.RestoreResult
	list       []*model.Preset
	cursor     int
	selectedID string
	timeFormat string

	form *PresetForm

	// UI state
	width      int
	height     int
	err        error
	message    string
	messageExp time.Time

	refreshInterval time.Duration
	callTimeout     time.Duration
	now             func() time.Time
}

// NewPopupModel creates the popup and loads the preset list.
func NewPopupModel(config PopupConfig) *PopupModel {
	if config.RefreshInterval == 0 {
		config.RefreshInterval = time.Second
	}
	if config.CallTimeout == 0 {
		config.CallTimeout = 2 * time.Second
	}

	m := &PopupModel{
		backend:         config.Backend,
		presets:         config.Presets,
		settings:        config.Settings,
		notes:           config.Notifications,
		timeFormat:      model.TimeFormat24h,
		refreshInterval: config.RefreshInterval,
		callTimeout:     config.CallTimeout,
		now:             time.Now,
	}
	if m.settings != nil {
		m.timeFormat = m.settings.TimeFormat()
	}
	m.loadPresets()
	return m
}

// Init restores the run and starts the countdown tick.
func (m *PopupModel) Init() tea.Cmd {
	return tea.Batch(
		m.restoreCmd(),
		m.tickCmd(),
		m.waitNotify(),
	)
}

// Update handles messages and updates the model.
func (m *PopupModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.saveProgress()
			return m, tea.Quit
		}
		if m.form != nil {
			return m.handleFormKey(msg)
		}
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		if !m.messageExp.IsZero() && m.now().After(m.messageExp) {
			m.message = ""
			m.messageExp = time.Time{}
		}
		return m, tea.Batch(m.restoreCmd(), m.tickCmd())

	case restoreMsg:
		m.applyRestore(msg)
		return m, nil

	case notifyMsg:
		m.setMessage(fmt.Sprintf("%s: %s", msg.n.Title, msg.n.Message), 5*time.Second)
		return m, tea.Batch(m.restoreCmd(), m.waitNotify())
	}

	return m, nil
}

func (m *PopupModel) applyRestore(msg restoreMsg) {
	if msg.err != nil {
		m.err = msg.err
		return
	}
	m.err = nil
	prev := m.state
	m.state = msg.res
	if msg.res == nil {
		return
	}
	if msg.res.Run != nil {
		m.selectedID = msg.res.Run.SelectedPreset()
	}
	if msg.res.State == timer.StateResolved && prev != nil && prev.State == timer.StateLive {
		m.setMessage("Timer complete", 5*time.Second)
	}
}

// handleKeyPress handles keys on the main view.
func (m *PopupModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		m.saveProgress()
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < len(m.list)-1 {
			m.cursor++
		}

	case "enter", " ":
		if p := m.cursorPreset(); p != nil {
			m.selectPreset(p.ID)
			if m.err == nil {
				m.setMessage("Selected "+p.Name, 2*time.Second)
			}
		}

	case "s":
		p := m.cursorPreset()
		if p == nil {
			m.setMessage("Add a preset first", 2*time.Second)
			return m, nil
		}
		ctx, cancel := m.callContext()
		defer cancel()
		if _, err := m.backend.Start(ctx, &rpc.StartParams{Preset: p}); err != nil {
			m.err = err
			return m, nil
		}
		m.selectedID = p.ID
		m.setMessage("Started "+p.Name, 2*time.Second)
		return m, m.restoreCmd()

	case "x":
		ctx, cancel := m.callContext()
		defer cancel()
		if err := m.backend.Stop(ctx); err != nil {
			m.err = err
			return m, nil
		}
		m.setMessage("Timer stopped", 2*time.Second)
		return m, m.restoreCmd()

	case "n":
		m.form = NewPresetForm(nil)

	case "e":
		if p := m.cursorPreset(); p != nil {
			m.form = NewPresetForm(p)
		}

	case "d", "delete":
		if p := m.cursorPreset(); p != nil {
			m.deletePreset(p)
		}

	case "t":
		m.toggleTimeFormat()

	case "r":
		m.loadPresets()
		m.setMessage("Refreshed", time.Second)
		return m, m.restoreCmd()
	}

	return m, nil
}

// handleFormKey routes keys to the open form.
func (m *PopupModel) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.form.Update(msg) {
	case formCancel:
		m.form = nil
	case formSave:
		m.savePreset()
	}
	return m, nil
}

func (m *PopupModel) savePreset() {
	p, err := m.form.Build()
	if err != nil {
		m.form.Err = err
		return
	}
	if err := m.presets.Save(p); err != nil {
		m.form.Err = err
		return
	}

	source := m.form.Source
	m.form = nil
	if source != nil {
		if err := m.presets.Delete(source.ID); err != nil {
			m.err = err
		}
		if m.selectedID == source.ID {
			m.selectPreset(p.ID)
		}
	}

	m.loadPresets()
	for i, q := range m.list {
		if q.ID == p.ID {
			m.cursor = i
		}
	}
	m.setMessage("Saved "+p.Name, 2*time.Second)
}

func (m *PopupModel) deletePreset(p *model.Preset) {
	if err := m.presets.Delete(p.ID); err != nil {
		m.err = err
		return
	}
	if m.selectedID == p.ID {
		m.selectPreset("")
	}
	m.loadPresets()
	m.setMessage("Deleted "+p.Name, 2*time.Second)
}

func (m *PopupModel) selectPreset(id string) {
	ctx, cancel := m.callContext()
	defer cancel()
	if err := m.backend.Select(ctx, id); err != nil {
		m.err = err
		return
	}
	m.selectedID = id
}

func (m *PopupModel) toggleTimeFormat() {
	next := model.TimeFormat12h
	if m.timeFormat == model.TimeFormat12h {
		next = model.TimeFormat24h
	}
	if m.settings != nil {
		if err := m.settings.SetTimeFormat(next); err != nil {
			m.err = err
			return
		}
	}
	m.timeFormat = next
}

// saveProgress records the progress shown when the popup closes.
func (m *PopupModel) saveProgress() {
	if m.state == nil {
		return
	}
	progress := m.state.Progress
	if m.state.State == timer.StateLive && m.state.Run != nil {
		progress = timer.ComputeProgressPercent(m.state.Run, m.now())
	}
	ctx, cancel := m.callContext()
	defer cancel()
	if err := m.backend.SaveProgress(ctx, progress); err != nil {
		m.err = err
	}
}

func (m *PopupModel) loadPresets() {
	if m.presets == nil {
		return
	}
	m.list = m.presets.List()
	if m.cursor >= len(m.list) {
		m.cursor = len(m.list) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *PopupModel) cursorPreset() *model.Preset {
	if m.cursor < 0 || m.cursor >= len(m.list) {
		return nil
	}
	return m.list[m.cursor]
}

// View renders the popup.
func (m *PopupModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	sections := []string{m.renderHeader()}

	if m.err != nil {
		sections = append(sections, StyleError.Render(fmt.Sprintf("Error: %v", m.err)))
	}
	if m.message != "" {
		sections = append(sections, StyleWarning.Render(m.message))
	}

	if m.form != nil {
		sections = append(sections, m.form.View(m.width))
		return joinSections(sections...)
	}

	sections = append(sections,
		NewCountdownComponent(m.liveState(), m.width, m.timeFormat).View(),
		NewPresetListComponent(m.list, m.cursor, m.selectedID, m.width).View(),
		HelpBar(mainHelp),
	)
	return joinSections(sections...)
}

// liveState recomputes the countdown from the last read so the display
// moves smoothly between reads.
func (m *PopupModel) liveState() *timer.RestoreResult {
	if m.state == nil || m.state.State != timer.StateLive || m.state.Run == nil {
		return m.state
	}
	now := m.now()
	res := *m.state
	remaining, _ := timer.ComputeRemaining(res.Run, now)
	res.RemainingMs = remaining.Milliseconds()
	res.Progress = timer.ComputeProgressPercent(res.Run, now)
	if clock, ok := timer.CurrentClock(res.Run, now); ok {
		res.Clock = clock
	}
	return &res
}

func (m *PopupModel) renderHeader() string {
	title := StyleTitle.Render("clockset")
	now := StyleSubtitle.Render(timer.FormatWallClock(m.now(), m.timeFormat))
	return lipgloss.JoinHorizontal(lipgloss.Top, title, "  ", now) + "\n"
}

// setMessage sets a temporary message.
func (m *PopupModel) setMessage(msg string, duration time.Duration) {
	m.message = msg
	m.messageExp = m.now().Add(duration)
}

func (m *PopupModel) callContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), m.callTimeout)
}

// restoreCmd re-reads the run from the backend.
func (m *PopupModel) restoreCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.callContext()
		defer cancel()
		res, err := m.backend.Restore(ctx)
		return restoreMsg{res: res, err: err}
	}
}

// tickCmd returns a command that sends a tick message.
func (m *PopupModel) tickCmd() tea.Cmd {
	return tea.Tick(m.refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// waitNotify blocks for the next pushed notification.
func (m *PopupModel) waitNotify() tea.Cmd {
	if m.notes == nil {
		return nil
	}
	ch := m.notes
	return func() tea.Msg {
		n, ok := <-ch
		if !ok {
			return nil
		}
		return notifyMsg{n: n}
	}
}

// Run starts the popup and blocks until it is closed.
func Run(config PopupConfig) error {
	p := tea.NewProgram(NewPopupModel(config), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
