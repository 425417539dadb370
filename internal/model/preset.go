package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// QuickPresetName names presets synthesized from a single duration.
const QuickPresetName = "Quick timer"

// Preset is a named, ordered sequence of clocks. Presets are never mutated
// in place once saved; edits produce a new preset via Clone.
type Preset struct {
	Key       string         `json:"-" yaml:"-"`
	ID        string         `json:"id" yaml:"id"`
	Name      string         `json:"name" yaml:"name"`
	Clocks    []ClockSegment `json:"clocks" yaml:"clocks"`
	CreatedAt time.Time      `json:"createdAt" yaml:"createdAt"`
}

// SetKey sets the database key for this preset.
func (p *Preset) SetKey(key string) {
	p.Key = key
	if p.ID == "" {
		p.ID = strings.TrimPrefix(key, PrefixPreset+":")
	}
}

// GetKey returns the database key for this preset.
func (p *Preset) GetKey() string {
	if p.Key == "" && p.ID != "" {
		return GeneratePresetKey(p.ID)
	}
	return p.Key
}

// GeneratePresetKey generates a database key for a preset id.
func GeneratePresetKey(id string) string {
	return fmt.Sprintf("%s:%s", PrefixPreset, id)
}

// NewPreset creates a preset with a fresh UUIDv7 id.
func NewPreset(name string, clocks []ClockSegment) *Preset {
	id := newID()
	return &Preset{
		Key:       GeneratePresetKey(id),
		ID:        id,
		Name:      strings.TrimSpace(name),
		Clocks:    append([]ClockSegment(nil), clocks...),
		CreatedAt: time.Now(),
	}
}

// QuickPreset maps a single total duration onto a one-segment preset.
func QuickPreset(d time.Duration) (*Preset, bool) {
	c, ok := ClockFromDuration(d)
	if !ok {
		return nil, false
	}
	return NewPreset(QuickPresetName, []ClockSegment{c}), true
}

// Clone returns a copy with a new id, used when an edited preset is recreated.
func (p *Preset) Clone(name string, clocks []ClockSegment) *Preset {
	if name == "" {
		name = p.Name
	}
	if clocks == nil {
		clocks = p.Clocks
	}
	return NewPreset(name, clocks)
}

// TotalDurationMs returns the preset's total length in milliseconds.
func (p *Preset) TotalDurationMs() int64 {
	return TotalDurationMs(p.Clocks)
}

func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
