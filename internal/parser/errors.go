package parser

import (
	"fmt"
	"strings"

	"github.com/manav03panchal/clockset/internal/errors"
)

// ParseError is a clock or deadline that could not be read, with examples
// of what would have worked.
type ParseError struct {
	Input      string
	Field      string
	Message    string
	Examples   []string
	Suggestion string

	sentinel error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid %s '%s': %s", e.Field, e.Input, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.sentinel
}

// NewParseError creates a parse error with examples.
func NewParseError(field, input, message string, examples ...string) *ParseError {
	return &ParseError{
		Input:    input,
		Field:    field,
		Message:  message,
		Examples: examples,
		sentinel: errors.ErrInvalidInput,
	}
}

// FormatWithExamples returns the error message with example suggestions.
func (e *ParseError) FormatWithExamples() string {
	var sb strings.Builder
	sb.WriteString(e.Error())

	if len(e.Examples) > 0 {
		sb.WriteString("\n\nValid examples:\n")
		for _, ex := range e.Examples {
			sb.WriteString("  - ")
			sb.WriteString(ex)
			sb.WriteString("\n")
		}
	}

	if e.Suggestion != "" {
		sb.WriteString("\n")
		sb.WriteString(e.Suggestion)
	}

	return sb.String()
}

// ClockExamples provides example clock formats.
var ClockExamples = []string{
	"0:03:00",
	"3:00",
	"25m",
	"1h30m",
	"90s",
	"2.5h",
}

// DeadlineExamples provides example deadline formats.
var DeadlineExamples = []string{
	"+25m",
	"+1h30m",
	"5pm",
	"in 10 minutes",
	"17:45",
	"tomorrow 7am",
}

// NewClockError creates a clock parse error with standard examples.
func NewClockError(input string) *ParseError {
	return &ParseError{
		Input:      input,
		Field:      "clock",
		Message:    "could not parse clock",
		Examples:   ClockExamples,
		Suggestion: "Clocks are H:M:S, M:S or a duration in hours (h), minutes (m) and seconds (s).",
		sentinel:   errors.ErrInvalidInput,
	}
}

// NewDeadlineError creates a deadline parse error with standard examples.
func NewDeadlineError(input, message string) *ParseError {
	if message == "" {
		message = "could not parse deadline"
	}
	return &ParseError{
		Input:      input,
		Field:      "deadline",
		Message:    message,
		Examples:   DeadlineExamples,
		Suggestion: "Deadlines can be relative (+25m) or a time of day (5pm).",
		sentinel:   errors.ErrInvalidDeadline,
	}
}

// ToUserError converts a ParseError to a UserError for consistent handling.
func (e *ParseError) ToUserError() *errors.UserError {
	suggestion := e.Suggestion
	if len(e.Examples) > 0 && suggestion == "" {
		suggestion = fmt.Sprintf("Try: %s", strings.Join(e.Examples[:min(3, len(e.Examples))], ", "))
	}

	ue := errors.NewUserErrorWithField(e.Field, e.Input, e.Message, suggestion)
	ue.Err = e.sentinel
	return ue
}

// ValidateAndSuggest validates input and returns a helpful error if invalid.
func ValidateAndSuggest(inputType, input string) error {
	switch inputType {
	case "clock":
		if _, err := ParseClock(input); err != nil {
			return err
		}
	case "deadline":
		if r := ParseDeadline(input); r.Error != nil {
			return r.Error
		}
	default:
		return fmt.Errorf("unknown input type: %s", inputType)
	}
	return nil
}
