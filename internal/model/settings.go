package model

// Time formats for the wall clock shown in the popup.
const (
	TimeFormat12h = "12h"
	TimeFormat24h = "24h"
)

// Settings holds foreground display preferences.
type Settings struct {
	TimeFormat string `json:"timeFormat"`
}

// DefaultSettings returns the settings used when none are stored.
func DefaultSettings() Settings {
	return Settings{TimeFormat: TimeFormat24h}
}

// IsValidTimeFormat checks a time format value.
func IsValidTimeFormat(f string) bool {
	return f == TimeFormat12h || f == TimeFormat24h
}

// Normalize replaces unknown values with defaults.
func (s Settings) Normalize() Settings {
	if !IsValidTimeFormat(s.TimeFormat) {
		s.TimeFormat = TimeFormat24h
	}
	return s
}
