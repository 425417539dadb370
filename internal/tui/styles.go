// Package tui provides the clockset popup: a countdown with clock markers,
// the preset list and the preset form.
package tui

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/manav03panchal/clockset/internal/model"
	"github.com/manav03panchal/clockset/internal/timer"
)

// Color palette for the popup.
var (
	ColorPrimary   = lipgloss.Color("#7C3AED") // Purple
	ColorSecondary = lipgloss.Color("#10B981") // Green
	ColorMuted     = lipgloss.Color("#6B7280") // Gray
	ColorWarning   = lipgloss.Color("#F59E0B") // Yellow
	ColorError     = lipgloss.Color("#EF4444") // Red
	ColorSuccess   = lipgloss.Color("#10B981") // Green
	ColorActive    = lipgloss.Color("#3B82F6") // Blue
	ColorBorder    = lipgloss.Color("#4B5563") // Dark gray
)

// Base styles for the popup.
var (
	// StyleTitle is used for section titles.
	StyleTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			MarginBottom(1)

	// StyleSubtitle is used for secondary information.
	StyleSubtitle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	// StylePreset is used for preset names.
	StylePreset = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	// StyleClock is used for clock values and the "1 of 2" label.
	StyleClock = lipgloss.NewStyle().
			Foreground(ColorSecondary)

	// StyleCountdown is used for the remaining time.
	StyleCountdown = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorActive)

	// StyleActive is used for the running state.
	StyleActive = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorSuccess)

	// StyleInactive is used for the idle state.
	StyleInactive = lipgloss.NewStyle().
			Foreground(ColorMuted)

	StyleWarning = lipgloss.NewStyle().
			Foreground(ColorWarning)

	StyleError = lipgloss.NewStyle().
			Foreground(ColorError)

	StyleSuccess = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	// StyleCursor marks the row or field under the cursor.
	StyleCursor = lipgloss.NewStyle().
			Bold(true).
			Reverse(true)

	// StyleHelp is used for help text at the bottom.
	StyleHelp = lipgloss.NewStyle().
			Foreground(ColorMuted).
			MarginTop(1)

	StyleHelpKey = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorSecondary)

	StyleHelpDesc = lipgloss.NewStyle().
			Foreground(ColorMuted)
)

// Box styles for the popup sections.
var (
	StyleTimerBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(1, 2).
			MarginBottom(1)

	StyleActiveTimerBox = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(ColorSuccess).
				Padding(1, 2).
				MarginBottom(1)

	StyleListBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1).
			MarginBottom(1)
)

const (
	barFilled = "█" // Full block
	barEmpty  = "░" // Light shade
	barMarker = "│" // Vertical line
)

// ProgressBar draws elapsed time as a bar. percentage is the remaining
// share of the run, as kept in timerProgress.
func ProgressBar(percentage float64, width int) string {
	return MarkedProgressBar(percentage, width, nil)
}

// MarkedProgressBar is ProgressBar with a tick at each clock boundary, so
// the bar shows where every "n of m" notification lands.
func MarkedProgressBar(percentage float64, width int, clocks []model.ClockSegment) string {
	if width <= 0 {
		return ""
	}
	elapsed := 100 - timer.ClampPercent(percentage)
	filled := int(float64(width) * elapsed / 100)

	markers := markerColumns(clocks, width)
	filledStyle := lipgloss.NewStyle().Foreground(ColorSuccess)
	emptyStyle := lipgloss.NewStyle().Foreground(ColorMuted)
	markerStyle := lipgloss.NewStyle().Foreground(ColorWarning)

	var b strings.Builder
	for i := 0; i < width; i++ {
		switch {
		case markers[i]:
			b.WriteString(markerStyle.Render(barMarker))
		case i < filled:
			b.WriteString(filledStyle.Render(barFilled))
		default:
			b.WriteString(emptyStyle.Render(barEmpty))
		}
	}
	return b.String()
}

// markerColumns maps the intermediate clock boundaries onto bar columns.
// Marker angles start at 12 o'clock, so a quarter turn is added back to get
// the fraction of the run.
func markerColumns(clocks []model.ClockSegment, width int) map[int]bool {
	cols := make(map[int]bool)
	angles := timer.MarkerPositions(clocks)
	if len(angles) < 2 {
		return cols
	}
	for _, angle := range angles[:len(angles)-1] {
		fraction := angle/(2*math.Pi) + 0.25
		col := int(math.Round(fraction * float64(width)))
		if col > 0 && col < width {
			cols[col] = true
		}
	}
	return cols
}
