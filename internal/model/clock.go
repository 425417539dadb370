package model

import (
	"fmt"
	"time"
)

// MaxClockValue is the largest value any clock field accepts.
const MaxClockValue = 99

// ClockSegment is one leg of a multi-point countdown.
type ClockSegment struct {
	Hours   int `json:"hours" yaml:"hours"`
	Minutes int `json:"minutes" yaml:"minutes"`
	Seconds int `json:"seconds" yaml:"seconds"`
}

// NewClock builds a ClockSegment.
func NewClock(hours, minutes, seconds int) ClockSegment {
	return ClockSegment{Hours: hours, Minutes: minutes, Seconds: seconds}
}

// DurationMs returns the segment length in milliseconds.
func (c ClockSegment) DurationMs() int64 {
	return int64(c.Hours*3600+c.Minutes*60+c.Seconds) * 1000
}

// Duration returns the segment length as a time.Duration.
func (c ClockSegment) Duration() time.Duration {
	return time.Duration(c.DurationMs()) * time.Millisecond
}

// Validate reports the first field outside [0, MaxClockValue].
func (c ClockSegment) Validate() error {
	for _, f := range []struct {
		name  string
		value int
	}{{"hours", c.Hours}, {"minutes", c.Minutes}, {"seconds", c.Seconds}} {
		if f.value < 0 || f.value > MaxClockValue {
			return fmt.Errorf("%s must be between 0 and %d, got %d", f.name, MaxClockValue, f.value)
		}
	}
	return nil
}

// String renders the segment as H:MM:SS.
func (c ClockSegment) String() string {
	return fmt.Sprintf("%d:%02d:%02d", c.Hours, c.Minutes, c.Seconds)
}

// TotalDurationMs sums DurationMs over clocks.
func TotalDurationMs(clocks []ClockSegment) int64 {
	var total int64
	for _, c := range clocks {
		total += c.DurationMs()
	}
	return total
}

// ClockFromDuration splits d into a single segment. Durations longer than
// 99:59:59 or shorter than one second do not fit and return false.
func ClockFromDuration(d time.Duration) (ClockSegment, bool) {
	secs := int(d / time.Second)
	if secs <= 0 {
		return ClockSegment{}, false
	}
	c := ClockSegment{
		Hours:   secs / 3600,
		Minutes: (secs % 3600) / 60,
		Seconds: secs % 60,
	}
	if c.Hours > MaxClockValue {
		return ClockSegment{}, false
	}
	return c, true
}
