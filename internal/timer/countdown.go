package timer

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/manav03panchal/clockset/internal/model"
)

// CountdownDisplay renders a run as plain or styled terminal text.
type CountdownDisplay struct {
	Writer     io.Writer
	UseColor   bool
	TimeFormat string
}

// NewCountdownDisplay creates a new countdown display.
func NewCountdownDisplay() *CountdownDisplay {
	return &CountdownDisplay{
		Writer:     os.Stdout,
		UseColor:   true,
		TimeFormat: model.TimeFormat24h,
	}
}

// Styles for countdown display.
var (
	timerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")) // Purple

	nameStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#10B981")) // Green

	progressStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280")) // Gray

	clockStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280")) // Gray

	statusStyle = lipgloss.NewStyle().
			Italic(true).
			Foreground(lipgloss.Color("#6B7280")) // Gray
)

// FormatDuration formats a duration as MM:SS or HH:MM:SS.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}

	totalSeconds := int(d.Seconds())
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60

	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}

// FormatWallClock formats t as "3:04 PM" or "15:04".
func FormatWallClock(t time.Time, format string) string {
	if format == model.TimeFormat12h {
		return t.Format("3:04 PM")
	}
	return t.Format("15:04")
}

func (cd *CountdownDisplay) style(s lipgloss.Style, text string) string {
	if cd.UseColor {
		return s.Render(text)
	}
	return text
}

// RenderRun renders a restored run. Idle results show the saved progress
// with a 00:00 countdown.
func (cd *CountdownDisplay) RenderRun(res *RestoreResult) string {
	var b strings.Builder

	switch res.State {
	case StateLive:
		run := res.Run
		b.WriteString(cd.style(nameStyle, run.Name()))
		if n := len(run.Clocks); n > 1 && res.Clock > 0 {
			b.WriteString(cd.style(clockStyle, fmt.Sprintf(" [clock %s]", model.Label(res.Clock, n))))
		}
		b.WriteString("\n\n")
		b.WriteString(cd.style(timerStyle, FormatDuration(res.Remaining())))
		b.WriteString("\n\n")
		b.WriteString(cd.style(progressStyle, cd.renderProgressBar(res.Progress/100, 30)))
		b.WriteString("\n\n")
		b.WriteString(cd.style(statusStyle, "Ends at "+FormatWallClock(run.End(), cd.TimeFormat)))
	case StateResolved:
		b.WriteString(cd.style(nameStyle, "Timer complete"))
		b.WriteString("\n\n")
		b.WriteString(cd.style(timerStyle, FormatDuration(0)))
	default:
		b.WriteString(cd.style(statusStyle, "No timer running"))
		b.WriteString("\n\n")
		b.WriteString(cd.style(timerStyle, FormatDuration(0)))
		if res.Progress > 0 {
			b.WriteString("\n\n")
			b.WriteString(cd.style(progressStyle, cd.renderProgressBar(res.Progress/100, 30)))
		}
	}

	return b.String()
}

// renderProgressBar creates a progress bar string.
func (cd *CountdownDisplay) renderProgressBar(progress float64, width int) string {
	filled := int(progress * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)

	percentage := int(progress * 100)
	return fmt.Sprintf("[%s] %d%%", bar, percentage)
}

// ClearScreen clears the terminal screen.
func (cd *CountdownDisplay) ClearScreen() {
	fmt.Fprint(cd.Writer, "\033[H\033[2J")
}

// MoveCursorHome moves cursor to home position.
func (cd *CountdownDisplay) MoveCursorHome() {
	fmt.Fprint(cd.Writer, "\033[H")
}
