package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/manav03panchal/clockset/internal/model"
	"github.com/manav03panchal/clockset/internal/output"
	"github.com/manav03panchal/clockset/internal/timer"
)

// CountdownComponent displays the restored run.
type CountdownComponent struct {
	Result     *timer.RestoreResult
	Width      int
	TimeFormat string
}

// NewCountdownComponent creates a new countdown component.
func NewCountdownComponent(res *timer.RestoreResult, width int, timeFormat string) *CountdownComponent {
	return &CountdownComponent{Result: res, Width: width, TimeFormat: timeFormat}
}

func (cc *CountdownComponent) barWidth() int {
	w := cc.Width - 12
	if w < 10 {
		w = 10
	}
	return w
}

// View renders the countdown component.
func (cc *CountdownComponent) View() string {
	var content strings.Builder
	res := cc.Result

	if res == nil || res.State != timer.StateLive || res.Run == nil {
		if res != nil && res.State == timer.StateResolved {
			content.WriteString(StyleSuccess.Render("✓ Timer complete"))
		} else {
			content.WriteString(StyleInactive.Render("No timer running"))
		}
		content.WriteString("\n\n")
		content.WriteString(StyleCountdown.Render(timer.FormatDuration(0)))
		if res != nil && res.Progress > 0 {
			content.WriteString("\n\n")
			content.WriteString(ProgressBar(res.Progress, cc.barWidth()))
		}
		content.WriteString("\n\n")
		content.WriteString(StyleSubtitle.Render("Pick a preset and press 's' to start"))

		box := StyleTimerBox.Width(cc.Width - 4)
		return box.Render(content.String())
	}

	run := res.Run
	content.WriteString(StyleActive.Render("● "))
	content.WriteString(StylePreset.Render(run.Name()))
	if n := len(run.Clocks); n > 1 && res.Clock > 0 {
		content.WriteString("  ")
		content.WriteString(StyleClock.Render(model.Label(res.Clock, n)))
	}
	content.WriteString("\n\n")

	content.WriteString(StyleCountdown.Render(timer.FormatDuration(res.Remaining())))
	content.WriteString("\n\n")

	content.WriteString(MarkedProgressBar(res.Progress, cc.barWidth(), run.Clocks))
	content.WriteString("\n")
	content.WriteString(StyleSubtitle.Render(output.FormatClocks(run.Clocks)))
	content.WriteString("\n\n")
	content.WriteString(StyleSubtitle.Render("Ends at " + timer.FormatWallClock(run.End(), cc.TimeFormat)))

	box := StyleActiveTimerBox.Width(cc.Width - 4)
	return box.Render(content.String())
}

// PresetListComponent displays the saved presets.
type PresetListComponent struct {
	Presets    []*model.Preset
	Cursor     int
	SelectedID string
	Width      int
}

// NewPresetListComponent creates a new preset list component.
func NewPresetListComponent(presets []*model.Preset, cursor int, selectedID string, width int) *PresetListComponent {
	return &PresetListComponent{
		Presets:    presets,
		Cursor:     cursor,
		SelectedID: selectedID,
		Width:      width,
	}
}

// View renders the preset list.
func (pc *PresetListComponent) View() string {
	var content strings.Builder

	content.WriteString(StyleTitle.Render("Presets"))
	content.WriteString("\n")

	if len(pc.Presets) == 0 {
		content.WriteString(StyleSubtitle.Render("No presets yet. Press 'n' to add one."))
	}
	for i, p := range pc.Presets {
		if i > 0 {
			content.WriteString("\n")
		}
		content.WriteString(pc.renderRow(i, p))
	}

	box := StyleListBox.Width(pc.Width - 4)
	return box.Render(content.String())
}

func (pc *PresetListComponent) renderRow(i int, p *model.Preset) string {
	mark := " "
	if p.ID == pc.SelectedID {
		mark = "*"
	}
	name := p.Name
	if i == pc.Cursor {
		name = StyleCursor.Render(name)
	} else {
		name = StylePreset.Render(name)
	}
	total := output.FormatMs(p.TotalDurationMs())
	return fmt.Sprintf("%s %s  %s  %s", mark, name,
		StyleClock.Render(output.FormatClocks(p.Clocks)),
		StyleSubtitle.Render(total))
}

// helpKey is one entry of the help bar.
type helpKey struct {
	key  string
	desc string
}

var (
	mainHelp = []helpKey{
		{"↑/↓", "move"},
		{"enter", "select"},
		{"s", "start"},
		{"x", "stop"},
		{"n", "new"},
		{"e", "edit"},
		{"d", "delete"},
		{"t", "12h/24h"},
		{"q", "quit"},
	}
	formHelp = []helpKey{
		{"tab", "next field"},
		{"ctrl+n", "add clock"},
		{"ctrl+d", "remove"},
		{"ctrl+↑/↓", "move"},
		{"enter", "save"},
		{"esc", "cancel"},
	}
)

// HelpBar renders the help bar at the bottom.
func HelpBar(keys []helpKey) string {
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, StyleHelpKey.Render(k.key)+" "+StyleHelpDesc.Render(k.desc))
	}
	return StyleHelp.Render(strings.Join(parts, "  •  "))
}

// joinSections stacks rendered sections vertically.
func joinSections(sections ...string) string {
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
