package parser

import (
	"strings"

	"github.com/manav03panchal/clockset/internal/errors"
	"github.com/manav03panchal/clockset/internal/model"
	"github.com/manav03panchal/clockset/internal/validate"
)

// ParseClock parses one clock. Colon forms are "H:M:S" and "M:S"; anything
// else is read as a duration such as "25m" or "1h30m".
func ParseClock(input string) (model.ClockSegment, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return model.ClockSegment{}, NewClockError(input).ToUserError()
	}

	if strings.Contains(input, ":") {
		return parseColonClock(input)
	}

	result := ParseDuration(input)
	if !result.Valid {
		return model.ClockSegment{}, NewClockError(input).ToUserError()
	}
	c, ok := model.ClockFromDuration(result.Duration)
	if !ok {
		return model.ClockSegment{}, errors.Invalid(errors.ErrClockOutOfRange, "clock", input)
	}
	return c, nil
}

func parseColonClock(input string) (model.ClockSegment, error) {
	parts := strings.Split(input, ":")
	var fields []string
	switch len(parts) {
	case 2:
		fields = []string{"minutes", "seconds"}
	case 3:
		fields = []string{"hours", "minutes", "seconds"}
	default:
		return model.ClockSegment{}, NewClockError(input).ToUserError()
	}

	values := make([]int, len(parts))
	for i, raw := range parts {
		v, err := validate.ClockValue(fields[i], raw)
		if err != nil {
			return model.ClockSegment{}, err
		}
		values[i] = v
	}
	if len(values) == 2 {
		return model.NewClock(0, values[0], values[1]), nil
	}
	return model.NewClock(values[0], values[1], values[2]), nil
}

// ParseClocks parses a list of clocks in order. Each input may itself hold
// several clocks separated by commas, so "3m,2m" and ["3m", "2m"] are the
// same.
func ParseClocks(inputs []string) ([]model.ClockSegment, error) {
	var clocks []model.ClockSegment
	for _, input := range inputs {
		for _, part := range strings.Split(input, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			c, err := ParseClock(part)
			if err != nil {
				return nil, err
			}
			clocks = append(clocks, c)
		}
	}
	if len(clocks) == 0 {
		return nil, errors.Invalid(errors.ErrEmptyPreset, "clocks", strings.Join(inputs, ","))
	}
	return clocks, nil
}

// IsClockLike reports whether s looks like a clock rather than a word.
func IsClockLike(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	if strings.Contains(s, ":") {
		for _, r := range s {
			if r != ':' && (r < '0' || r > '9') && r != ' ' {
				return false
			}
		}
		return true
	}
	return IsDurationLike(s)
}
