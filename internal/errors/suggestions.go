package errors

import "errors"

// Suggestions maps common errors to helpful suggestions.
var Suggestions = map[error]string{
	ErrNotRunning:         "Use 'clockset start <preset>' to begin a countdown.",
	ErrEmptyPreset:        "Add at least one clock with --clock H:M:S.",
	ErrZeroDuration:       "At least one clock must be longer than zero seconds.",
	ErrClockOutOfRange:    "Hours, minutes and seconds must each be between 0 and 99.",
	ErrInvalidInput:       "Check your input and try again.",
	ErrPresetNotFound:     "Use 'clockset preset list' to see saved presets.",
	ErrPresetNameRequired: "Give the preset a name, for example 'clockset preset add Tea --clock 0:3:0'.",
	ErrInvalidTimeFormat:  "Use '12h' or '24h'.",
	ErrInvalidDeadline:    "Try formats like '+25m', '5pm' or 'in 10 minutes'.",
	ErrInvalidURL:         "Provide a valid URL starting with https:// (or http:// for localhost).",

	ErrDaemonNotRunning:   "Start it with 'clockset daemon start'.",
	ErrDatabaseOpen:       "Check that no other clockset daemon is using the data directory.",
	ErrStoreUnavailable:   "Check permissions in your data directory (~/.local/share/clockset/).",
	ErrNetworkUnavailable: "Check your internet connection. Notifications will retry automatically.",
	ErrTimeout:            "The operation took too long. Try again.",
	ErrPermissionDenied:   "Check file permissions in your data and state directories.",
	ErrUnauthorized:       "Check the RPC secret with 'clockset config secret'.",
}

// GetSuggestion returns a suggestion for an error, if available.
// It walks the error chain to find matching suggestions.
func GetSuggestion(err error) string {
	if err == nil {
		return ""
	}

	if ue, ok := AsUserError(err); ok && ue.Suggestion != "" {
		return ue.Suggestion
	}

	for knownErr, suggestion := range Suggestions {
		if errors.Is(err, knownErr) {
			return suggestion
		}
	}

	return ""
}
