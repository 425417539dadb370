package validate

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/manav03panchal/clockset/internal/model"
)

// LimitInput filters keystrokes for a clock field the way the popup input
// does: digits only, at most two characters, clamped to 99.
func LimitInput(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			sb.WriteRune(r)
			if sb.Len() == 2 {
				break
			}
		}
	}
	out := sb.String()
	if v, err := strconv.Atoi(out); err == nil && v > model.MaxClockValue {
		return strconv.Itoa(model.MaxClockValue)
	}
	return out
}

// SanitizePresetName trims whitespace and strips control characters.
func SanitizePresetName(name string) string {
	return strings.TrimSpace(StripControlChars(name))
}

// StripControlChars removes all control characters from a string.
func StripControlChars(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if !unicode.IsControl(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// TruncateString truncates a string to the given length, adding "..." if truncated.
func TruncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// SafeFilename converts a preset name into a safe export filename.
func SafeFilename(s string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		"\x00", "",
	)
	s = strings.Trim(replacer.Replace(s), " .")
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
