// Package validate provides input validation helpers for clockset.
package validate

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/manav03panchal/clockset/internal/errors"
	"github.com/manav03panchal/clockset/internal/model"
)

const (
	// MaxURLLength is the maximum length for a URL.
	MaxURLLength = 2048
	// MaxPresetNameLength is the maximum length for a preset name.
	MaxPresetNameLength = 64
	// MaxClocks is the largest number of clocks in one preset.
	MaxClocks = 32
)

// ClockValue parses one hours/minutes/seconds field. Surrounding whitespace is
// ignored and an empty field counts as zero.
func ClockValue(field, raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.Invalid(errors.ErrInvalidInput, field, raw)
	}
	if v < 0 || v > model.MaxClockValue {
		return 0, errors.Invalid(errors.ErrClockOutOfRange, field, raw)
	}
	return v, nil
}

// Clock validates a single clock segment.
func Clock(c model.ClockSegment) error {
	if err := c.Validate(); err != nil {
		return errors.Invalid(errors.ErrClockOutOfRange, "clock", c.String())
	}
	return nil
}

// Clocks validates a clock sequence: non-empty, each in range, positive total.
func Clocks(clocks []model.ClockSegment) error {
	if len(clocks) == 0 {
		return errors.Invalid(errors.ErrEmptyPreset, "clocks", "")
	}
	if len(clocks) > MaxClocks {
		return errors.NewUserErrorWithField("clocks", strconv.Itoa(len(clocks)),
			"Too many clocks",
			fmt.Sprintf("A preset holds at most %d clocks", MaxClocks))
	}
	for _, c := range clocks {
		if err := Clock(c); err != nil {
			return err
		}
	}
	if model.TotalDurationMs(clocks) <= 0 {
		return errors.Invalid(errors.ErrZeroDuration, "clocks", "")
	}
	return nil
}

// PresetName validates a preset name.
func PresetName(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.Invalid(errors.ErrPresetNameRequired, "name", "")
	}
	if utf8.RuneCountInString(name) > MaxPresetNameLength {
		return errors.NewUserErrorWithField("name", name,
			"Preset name too long",
			fmt.Sprintf("Preset names must be %d characters or fewer", MaxPresetNameLength))
	}
	return nil
}

// Preset validates a preset before it is stored or started.
func Preset(p *model.Preset) error {
	if p == nil {
		return errors.Invalid(errors.ErrEmptyPreset, "preset", "")
	}
	if err := PresetName(p.Name); err != nil {
		return err
	}
	return Clocks(p.Clocks)
}

// TimeFormat validates a wall-clock format setting.
func TimeFormat(f string) error {
	if !model.IsValidTimeFormat(f) {
		return errors.Invalid(errors.ErrInvalidTimeFormat, "time-format", f)
	}
	return nil
}

// URL validates a URL for use as a webhook endpoint.
func URL(rawURL string) error {
	if rawURL == "" {
		return errors.NewUserError("URL cannot be empty", "Provide a valid URL")
	}
	if len(rawURL) > MaxURLLength {
		return errors.NewUserError("URL too long", "URLs must be 2048 characters or fewer")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.Invalid(errors.ErrInvalidURL, "url", rawURL)
	}

	if parsed.Scheme != "https" && parsed.Scheme != "http" {
		return errors.NewUserErrorWithField("url", rawURL,
			"Invalid URL scheme",
			"URLs must use https:// (or http:// for localhost)")
	}

	hostname := parsed.Hostname()
	if hostname == "" {
		return errors.NewUserErrorWithField("url", rawURL,
			"Invalid URL: missing hostname",
			"Provide a valid URL like https://example.com/webhook")
	}

	isLocalhost := hostname == "localhost" || hostname == "127.0.0.1" || hostname == "::1"

	if parsed.Scheme == "http" && !isLocalhost {
		return errors.NewUserErrorWithField("url", rawURL,
			"HTTP not allowed for external URLs",
			"Use https:// for security. HTTP is only allowed for localhost.")
	}

	if !isLocalhost {
		if ip := net.ParseIP(hostname); ip != nil && isInternalIP(ip) {
			return errors.NewUserErrorWithField("url", hostname,
				"Internal IP addresses not allowed",
				"Webhook URLs must point to external services")
		}
	}

	return nil
}

func isInternalIP(ip net.IP) bool {
	return ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast()
}
