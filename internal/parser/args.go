package parser

import (
	"strings"
	"time"

	"github.com/manav03panchal/clockset/internal/model"
)

// ParsedArgs holds the parsed positional arguments of the start command.
//
//	clockset start Tea 3m 2m
//	clockset start "Round 2" 0:45
//	clockset start Lunch until 1pm
type ParsedArgs struct {
	Name   string
	Clocks []model.ClockSegment
	Until  time.Time

	// Raw strings before processing
	RawClocks []string
	RawUntil  string

	// Flags for what was found
	HasName   bool
	HasClocks bool
	HasUntil  bool
}

// untilKeywords start a deadline; everything after one belongs to it.
var untilKeywords = map[string]bool{"until": true, "till": true, "by": true}

type token struct {
	text   string
	quoted bool
}

// Parse splits arguments into a name, clocks and a deadline. Quoted words
// are always part of the name.
func Parse(args []string) *ParsedArgs {
	result := &ParsedArgs{}
	if len(args) == 0 {
		return result
	}

	var (
		nameParts  []string
		untilParts []string
		inUntil    bool
	)
	for _, tok := range tokenize(args) {
		switch {
		case inUntil:
			untilParts = append(untilParts, tok.text)
		case !tok.quoted && untilKeywords[strings.ToLower(tok.text)]:
			inUntil = true
		case !tok.quoted && IsClockLike(tok.text):
			result.RawClocks = append(result.RawClocks, tok.text)
		default:
			nameParts = append(nameParts, tok.text)
		}
	}

	if len(nameParts) > 0 {
		result.Name = strings.Join(nameParts, " ")
		result.HasName = true
	}
	result.HasClocks = len(result.RawClocks) > 0
	if len(untilParts) > 0 {
		result.RawUntil = strings.Join(untilParts, " ")
		result.HasUntil = true
	}
	return result
}

// Process converts raw strings to typed values. A deadline becomes the
// single clock running from now until it.
func (p *ParsedArgs) Process(now time.Time) error {
	if p.HasClocks && p.HasUntil {
		return NewParseError("arguments", p.RawUntil, "give either clocks or a deadline, not both").ToUserError()
	}

	if p.HasClocks {
		clocks, err := ParseClocks(p.RawClocks)
		if err != nil {
			return err
		}
		p.Clocks = clocks
	}

	if p.HasUntil {
		result := ParseDeadlineAt(p.RawUntil, now)
		if result.Error != nil {
			return result.Error
		}
		c, err := ClockUntil(result.Time, now)
		if err != nil {
			return err
		}
		p.Until = result.Time
		p.Clocks = []model.ClockSegment{c}
	}
	return nil
}

// Merge merges flag values into parsed args (flags override).
func (p *ParsedArgs) Merge(nameFlag string, clockFlags []string, untilFlag string) {
	if nameFlag != "" {
		p.Name = nameFlag
		p.HasName = true
	}
	if len(clockFlags) > 0 {
		p.RawClocks = clockFlags
		p.HasClocks = true
	}
	if untilFlag != "" {
		p.RawUntil = untilFlag
		p.HasUntil = true
	}
}

// tokenize splits args into tokens. Quoted text stays together even when
// the shell did not keep it as one argument.
func tokenize(args []string) []token {
	var tokens []token
	for _, arg := range args {
		if strings.ContainsAny(arg, " \t") && !strings.ContainsAny(arg, `"'`) {
			// The shell kept this together, so it was quoted. "1 hour" is
			// still a clock.
			arg = strings.TrimSpace(arg)
			tokens = append(tokens, token{text: arg, quoted: !IsClockLike(arg)})
			continue
		}
		tokens = append(tokens, splitQuoted(arg)...)
	}
	return tokens
}

func splitQuoted(input string) []token {
	var (
		tokens    []token
		current   strings.Builder
		inQuote   bool
		wasQuoted bool
		quoteChar rune
	)
	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, token{text: current.String(), quoted: wasQuoted})
			current.Reset()
		}
		wasQuoted = false
	}

	for _, r := range input {
		if (r == '"' || r == '\'') && !inQuote {
			inQuote = true
			wasQuoted = true
			quoteChar = r
			continue
		}
		if r == quoteChar && inQuote {
			inQuote = false
			quoteChar = 0
			continue
		}
		if r == ' ' && !inQuote {
			flush()
			continue
		}
		current.WriteRune(r)
	}
	flush()
	return tokens
}
