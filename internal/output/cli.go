package output

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/manav03panchal/clockset/internal/model"
	"github.com/manav03panchal/clockset/internal/timer"
)

// Styles for CLI output.
var (
	// Colors
	colorPrimary   = lipgloss.Color("#7C3AED") // Purple
	colorSecondary = lipgloss.Color("#10B981") // Green
	colorMuted     = lipgloss.Color("#6B7280") // Gray
	colorWarning   = lipgloss.Color("#F59E0B") // Yellow
	colorError     = lipgloss.Color("#EF4444") // Red

	styleTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	styleSuccess = lipgloss.NewStyle().
			Foreground(colorSecondary)

	styleWarning = lipgloss.NewStyle().
			Foreground(colorWarning)

	styleError = lipgloss.NewStyle().
			Foreground(colorError)

	styleMuted = lipgloss.NewStyle().
			Foreground(colorMuted)

	styleBold = lipgloss.NewStyle().
			Bold(true)

	stylePreset = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	styleClock = lipgloss.NewStyle().
			Foreground(colorSecondary)

	styleDuration = lipgloss.NewStyle().
			Bold(true)
)

// CLIFormatter provides CLI-specific formatting.
type CLIFormatter struct {
	*Formatter
}

// NewCLIFormatter creates a new CLI formatter.
func NewCLIFormatter(f *Formatter) *CLIFormatter {
	return &CLIFormatter{Formatter: f}
}

func (c *CLIFormatter) render(s lipgloss.Style, text string) string {
	if c.IsColorEnabled() {
		return s.Render(text)
	}
	return text
}

// Title prints a title.
func (c *CLIFormatter) Title(text string) {
	c.Println(c.render(styleTitle, text))
}

// Success prints a success message.
func (c *CLIFormatter) Success(text string) {
	c.Println(c.render(styleSuccess, "✓ "+text))
}

// Warning prints a warning message.
func (c *CLIFormatter) Warning(text string) {
	c.Println(c.render(styleWarning, "⚠ "+text))
}

// Error prints an error message.
func (c *CLIFormatter) Error(text string) {
	c.Println(c.render(styleError, "✗ "+text))
}

// Muted prints muted text.
func (c *CLIFormatter) Muted(text string) {
	c.Println(c.render(styleMuted, text))
}

// PresetName formats a preset name.
func (c *CLIFormatter) PresetName(name string) string {
	return c.render(stylePreset, name)
}

// Clocks formats a clock list.
func (c *CLIFormatter) Clocks(clocks []model.ClockSegment) string {
	return c.render(styleClock, FormatClocks(clocks))
}

// Duration formats a duration string.
func (c *CLIFormatter) Duration(text string) string {
	return c.render(styleDuration, text)
}

// PrintRunStarted prints the record returned by a start.
func (c *CLIFormatter) PrintRunStarted(run *model.TimerRun) {
	c.Printf("Started %s\n", c.PresetName(run.Name()))
	if len(run.Clocks) > 1 {
		c.Printf("  Clocks: %s\n", c.Clocks(run.Clocks))
	}
	if run.TotalDuration != nil {
		c.Printf("  Duration: %s\n", c.Duration(FormatMs(*run.TotalDuration)))
	}
	c.Printf("  Ends at: %s\n", FormatWallClock(run.End(), c.TimeFormat))
}

// PrintRunStopped prints a stop confirmation.
func (c *CLIFormatter) PrintRunStopped() {
	c.Success("Timer stopped.")
}

// PrintStatus prints the restored run and, when given, the pending wake-ups.
func (c *CLIFormatter) PrintStatus(res *timer.RestoreResult, wakeups []string) {
	if res == nil || res.State != timer.StateLive {
		if res != nil && res.State == timer.StateResolved {
			c.Success("Timer complete.")
			return
		}
		c.PrintNoActiveRun()
		if res != nil && res.Progress > 0 {
			c.Printf("  Last progress: %s\n", ProgressBar(res.Progress, 20))
		}
		return
	}

	run := res.Run
	c.Printf("Running: %s\n", c.PresetName(run.Name()))
	if n := len(run.Clocks); n > 1 && res.Clock > 0 {
		c.Printf("  Clock: %s (%s)\n", model.Label(res.Clock, n), run.Clocks[res.Clock-1])
	}
	c.Printf("  Remaining: %s\n", c.Duration(timer.FormatDuration(res.Remaining())))
	c.Printf("  Progress: %s %.0f%%\n", ProgressBar(res.Progress, 20), res.Progress)
	c.Printf("  Ends at: %s\n", FormatWallClock(run.End(), c.TimeFormat))
	if len(wakeups) > 0 {
		c.Printf("  Pending wake-ups: %d\n", len(wakeups))
	}
}

// PrintNoActiveRun prints the idle hint.
func (c *CLIFormatter) PrintNoActiveRun() {
	c.Muted("No timer running.")
	c.Muted("Use 'clockset start --preset <name>' to begin.")
}

// PrintPresets prints the preset list as a table.
func (c *CLIFormatter) PrintPresets(presets []*model.Preset, selected string) {
	if len(presets) == 0 {
		c.Muted("No presets saved.")
		c.Muted("Use 'clockset preset add <name> <clock>...' to create one.")
		return
	}
	rows := make([]TableRow, len(presets))
	for i, p := range presets {
		mark := " "
		if p.ID == selected {
			mark = "*"
		}
		rows[i] = TableRow{Columns: []string{
			mark,
			p.ID[:min(8, len(p.ID))],
			p.Name,
			fmt.Sprintf("%d", len(p.Clocks)),
			FormatMs(p.TotalDurationMs()),
		}}
	}
	c.PrintTable([]string{"", "ID", "NAME", "CLOCKS", "TOTAL"}, rows)
}

// PrintPreset prints one preset in detail.
func (c *CLIFormatter) PrintPreset(p *model.Preset) {
	c.Printf("%s\n", c.PresetName(p.Name))
	c.Printf("  ID: %s\n", p.ID)
	for i, clock := range p.Clocks {
		c.Printf("  %s  %s\n", model.Label(i+1, len(p.Clocks)), clock)
	}
	c.Printf("  Total: %s\n", c.Duration(FormatMs(p.TotalDurationMs())))
	if !p.CreatedAt.IsZero() {
		c.Printf("  Created: %s\n", FormatDate(p.CreatedAt))
	}
}

// ProgressBar renders percentage (0..100) as a bar of width cells.
func ProgressBar(percentage float64, width int) string {
	percentage = timer.ClampPercent(percentage)
	filled := int(float64(width) * percentage / 100)
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// TableRow is one row of PrintTable.
type TableRow struct {
	Columns []string
}

// PrintTable prints a simple aligned table.
func (c *CLIFormatter) PrintTable(headers []string, rows []TableRow) {
	if len(rows) == 0 {
		return
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, col := range row.Columns {
			if i < len(widths) && len(col) > widths[i] {
				widths[i] = len(col)
			}
		}
	}

	var headerLine strings.Builder
	for i, h := range headers {
		fmt.Fprintf(&headerLine, "%-*s  ", widths[i], h)
	}
	c.Println(strings.TrimRight(c.render(styleBold, headerLine.String()), " "))

	var sep strings.Builder
	for _, w := range widths {
		sep.WriteString(strings.Repeat("─", w) + "  ")
	}
	c.Println(strings.TrimRight(sep.String(), " "))

	for _, row := range rows {
		var line strings.Builder
		for i, col := range row.Columns {
			if i < len(widths) {
				fmt.Fprintf(&line, "%-*s  ", widths[i], col)
			}
		}
		c.Println(strings.TrimRight(line.String(), " "))
	}
}
