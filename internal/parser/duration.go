// Package parser turns command-line text into clocks and deadlines.
package parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DurationResult represents the result of parsing a duration.
type DurationResult struct {
	Duration time.Duration
	Valid    bool
}

const durationUnits = `hours|hour|hrs|hr|h|minutes|minute|mins|min|m|seconds|second|secs|sec|s`

var (
	// durationPart matches one number and unit, e.g. "2h", "30 min", "1.5hours".
	durationPart = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(` + durationUnits + `)`)

	// durationShape matches an input made only of number/unit pairs.
	durationShape = regexp.MustCompile(`(?i)^(?:\d+(?:\.\d+)?\s*(?:` + durationUnits + `)\s*)+$`)
)

// ParseDuration parses a human-readable duration string.
// Supports formats like:
//   - "25m" or "25 minutes"
//   - "1h30m" or "1 hour 30 minutes"
//   - "2.5h" (2 hours 30 minutes)
//   - "90s"
//   - "10" (a bare number is minutes)
func ParseDuration(input string) DurationResult {
	input = strings.TrimSpace(input)
	if input == "" {
		return DurationResult{}
	}

	if d, err := time.ParseDuration(input); err == nil {
		if d <= 0 {
			return DurationResult{}
		}
		return DurationResult{Duration: d, Valid: true}
	}

	if v, err := strconv.ParseFloat(input, 64); err == nil {
		if v <= 0 {
			return DurationResult{}
		}
		return DurationResult{Duration: time.Duration(v * float64(time.Minute)), Valid: true}
	}

	if !durationShape.MatchString(input) {
		return DurationResult{}
	}

	var total time.Duration
	for _, m := range durationPart.FindAllStringSubmatch(input, -1) {
		value, _ := strconv.ParseFloat(m[1], 64)
		total += unitToDuration(value, strings.ToLower(m[2]))
	}
	if total <= 0 {
		return DurationResult{}
	}
	return DurationResult{Duration: total, Valid: true}
}

// unitToDuration converts a value and unit to a duration.
func unitToDuration(value float64, unit string) time.Duration {
	switch unit {
	case "h", "hr", "hrs", "hour", "hours":
		return time.Duration(value * float64(time.Hour))
	case "s", "sec", "secs", "second", "seconds":
		return time.Duration(value * float64(time.Second))
	default:
		return time.Duration(value * float64(time.Minute))
	}
}

// IsDurationLike checks if a string looks like a duration expression.
func IsDurationLike(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || s[0] < '0' || s[0] > '9' {
		return false
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return true
	}
	if _, err := time.ParseDuration(s); err == nil {
		return true
	}
	return durationShape.MatchString(s)
}
