package parser

import (
	"fmt"
	"strings"
	"time"

	"github.com/markusmobius/go-dateparser"

	"github.com/manav03panchal/clockset/internal/errors"
	"github.com/manav03panchal/clockset/internal/model"
)

// DeadlineResult holds the parsed deadline and any error.
type DeadlineResult struct {
	Time  time.Time
	Error error
}

// ParseDeadline parses a deadline relative to the current time.
func ParseDeadline(input string) DeadlineResult {
	return ParseDeadlineAt(input, time.Now())
}

// ParseDeadlineAt parses a natural language deadline expression relative
// to now.
// Supports formats like:
//   - "+25m", "+1h30m" (relative)
//   - "5pm", "17:45", "in 10 minutes" (natural language)
//   - "2026-01-15 14:00" (ISO format)
//
// A time of day that has already passed today means the same time
// tomorrow.
func ParseDeadlineAt(input string, now time.Time) DeadlineResult {
	input = strings.TrimSpace(input)
	if input == "" {
		return DeadlineResult{Error: NewDeadlineError(input, "deadline is required").ToUserError()}
	}

	if strings.HasPrefix(input, "+") {
		result := ParseDuration(strings.TrimPrefix(input, "+"))
		if !result.Valid {
			return DeadlineResult{Error: NewDeadlineError(input, "").ToUserError()}
		}
		return DeadlineResult{Time: now.Add(result.Duration)}
	}

	cfg := &dateparser.Configuration{
		CurrentTime: now,
	}
	result, err := dateparser.Parse(cfg, input)
	if err != nil {
		return DeadlineResult{Error: NewDeadlineError(input, "").ToUserError()}
	}

	t := result.Time
	if !t.After(now) {
		if isSameDay(t, now) {
			t = t.AddDate(0, 0, 1)
		} else {
			return DeadlineResult{Error: NewDeadlineError(input, "deadline must be in the future").ToUserError()}
		}
	}
	return DeadlineResult{Time: t}
}

// ParseDeadlineArgs joins command arguments and parses them as one deadline.
func ParseDeadlineArgs(args []string, now time.Time) DeadlineResult {
	return ParseDeadlineAt(strings.Join(args, " "), now)
}

// ClockUntil returns the single clock that runs from now until deadline,
// rounded up to the next whole second.
func ClockUntil(deadline, now time.Time) (model.ClockSegment, error) {
	d := deadline.Sub(now)
	if rem := d % time.Second; rem > 0 {
		d += time.Second - rem
	}
	c, ok := model.ClockFromDuration(d)
	if !ok {
		if d <= 0 {
			return model.ClockSegment{}, errors.Invalid(errors.ErrInvalidDeadline, "deadline", deadline.Format(time.RFC3339))
		}
		return model.ClockSegment{}, errors.NewUserErrorWithField("deadline", deadline.Format(time.RFC3339),
			"deadline is too far away",
			fmt.Sprintf("A single clock runs at most %d:59:59", model.MaxClockValue))
	}
	return c, nil
}

// isSameDay checks if two times are on the same day.
func isSameDay(t1, t2 time.Time) bool {
	y1, m1, d1 := t1.Date()
	y2, m2, d2 := t2.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// FormatDeadline formats a deadline for display in the user's time format.
func FormatDeadline(t, now time.Time, timeFormat string) string {
	var datePart string
	switch {
	case isSameDay(t, now):
		datePart = "Today"
	case isSameDay(t, now.AddDate(0, 0, 1)):
		datePart = "Tomorrow"
	case t.Sub(now) < 7*24*time.Hour:
		datePart = t.Format("Monday")
	default:
		datePart = t.Format("Mon, Jan 2")
	}

	layout := "15:04"
	if timeFormat == model.TimeFormat12h {
		layout = "3:04 PM"
	}
	return fmt.Sprintf("%s at %s", datePart, t.Format(layout))
}
