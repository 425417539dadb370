// Package output renders command results for a terminal or as JSON.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/manav03panchal/clockset/internal/model"
)

// Format represents the output format type.
type Format string

const (
	FormatCLI   Format = "cli"
	FormatJSON  Format = "json"
	FormatPlain Format = "plain"
)

// ParseFormat maps a --format flag value to a Format. Unknown values fall
// back to FormatCLI.
func ParseFormat(s string) Format {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatJSON:
		return FormatJSON
	case FormatPlain:
		return FormatPlain
	default:
		return FormatCLI
	}
}

// ColorMode represents the color output mode.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// Formatter handles output formatting.
type Formatter struct {
	Writer     io.Writer
	Format     Format
	ColorMode  ColorMode
	TimeFormat string
}

// NewFormatter creates a formatter writing CLI text to stdout.
func NewFormatter() *Formatter {
	return &Formatter{
		Writer:     os.Stdout,
		Format:     FormatCLI,
		ColorMode:  ColorAuto,
		TimeFormat: model.TimeFormat24h,
	}
}

// IsColorEnabled returns true if color output is enabled. Plain output is
// never colored.
func (f *Formatter) IsColorEnabled() bool {
	if f.Format == FormatPlain {
		return false
	}
	switch f.ColorMode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	default:
		if w, ok := f.Writer.(*os.File); ok {
			return isatty.IsTerminal(w.Fd()) || isatty.IsCygwinTerminal(w.Fd())
		}
		return false
	}
}

// IsJSON reports whether output is JSON.
func (f *Formatter) IsJSON() bool {
	return f.Format == FormatJSON
}

// Print outputs formatted text.
func (f *Formatter) Print(a ...any) {
	fmt.Fprint(f.Writer, a...)
}

// Println outputs formatted text with newline.
func (f *Formatter) Println(a ...any) {
	fmt.Fprintln(f.Writer, a...)
}

// Printf outputs formatted text.
func (f *Formatter) Printf(format string, a ...any) {
	fmt.Fprintf(f.Writer, format, a...)
}

// JSON outputs data as indented JSON.
func (f *Formatter) JSON(v any) error {
	encoder := json.NewEncoder(f.Writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// FormatDuration formats a duration in human-readable form, e.g. "1h 5m"
// or "3m 20s".
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		minutes := int(d.Minutes())
		seconds := int(d.Seconds()) % 60
		if seconds > 0 {
			return fmt.Sprintf("%dm %ds", minutes, seconds)
		}
		return fmt.Sprintf("%dm", minutes)
	}

	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	if minutes > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dh", hours)
}

// FormatMs formats a millisecond count with FormatDuration.
func FormatMs(ms int64) string {
	return FormatDuration(time.Duration(ms) * time.Millisecond)
}

// FormatClocks joins a preset's clocks as "0:03:00 → 0:02:00".
func FormatClocks(clocks []model.ClockSegment) string {
	parts := make([]string, len(clocks))
	for i, c := range clocks {
		parts[i] = c.String()
	}
	return strings.Join(parts, " → ")
}

// FormatWallClock formats t in local time using the 12h or 24h preference.
func FormatWallClock(t time.Time, timeFormat string) string {
	if timeFormat == model.TimeFormat12h {
		return t.Local().Format("3:04:05 PM")
	}
	return t.Local().Format("15:04:05")
}

// FormatDate formats a date only.
func FormatDate(t time.Time) string {
	return t.Local().Format("2006-01-02")
}
