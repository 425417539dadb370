package model

import (
	"time"
)

// TimerRun is the persisted record of the single global countdown.
// Field names match the record the browser extension keeps in storage.
type TimerRun struct {
	Key              string         `json:"-"`
	RunID            string         `json:"runId,omitempty"`
	IsRunning        bool           `json:"isRunning"`
	EndTime          *int64         `json:"endTime"`
	TotalDuration    *int64         `json:"totalDuration"`
	PresetName       *string        `json:"presetName"`
	Clocks           []ClockSegment `json:"clocks"`
	SelectedPresetID *string        `json:"selectedPresetId"`
	TimerProgress    float64        `json:"timerProgress"`
}

// SetKey sets the database key for the run record.
func (r *TimerRun) SetKey(key string) {
	r.Key = key
}

// GetKey returns the database key for the run record.
func (r *TimerRun) GetKey() string {
	if r.Key == "" {
		return KeyTimerRun
	}
	return r.Key
}

// NewTimerRun returns an empty, not-running record.
func NewTimerRun() *TimerRun {
	return &TimerRun{Key: KeyTimerRun}
}

// Active reports whether the record describes a well-formed running timer.
// A record that claims to be running but lacks endTime or a positive
// totalDuration is treated as not running.
func (r *TimerRun) Active() bool {
	if r == nil || !r.IsRunning {
		return false
	}
	if r.EndTime == nil || r.TotalDuration == nil || *r.TotalDuration <= 0 {
		return false
	}
	return true
}

// End returns endTime as a time.Time.
func (r *TimerRun) End() time.Time {
	if r.EndTime == nil {
		return time.Time{}
	}
	return time.UnixMilli(*r.EndTime)
}

// Start returns endTime - totalDuration.
func (r *TimerRun) Start() time.Time {
	if r.EndTime == nil || r.TotalDuration == nil {
		return time.Time{}
	}
	return time.UnixMilli(*r.EndTime - *r.TotalDuration)
}

// Name returns the preset name or an empty string.
func (r *TimerRun) Name() string {
	if r.PresetName == nil {
		return ""
	}
	return *r.PresetName
}

// SelectedPreset returns the selected preset id or an empty string.
func (r *TimerRun) SelectedPreset() string {
	if r.SelectedPresetID == nil {
		return ""
	}
	return *r.SelectedPresetID
}

// Reset clears every run field. The preset selection survives.
func (r *TimerRun) Reset() {
	r.RunID = ""
	r.IsRunning = false
	r.EndTime = nil
	r.TotalDuration = nil
	r.PresetName = nil
	r.Clocks = nil
	r.TimerProgress = 0
}

// Clone returns a deep copy of the record.
func (r *TimerRun) Clone() *TimerRun {
	if r == nil {
		return nil
	}
	c := *r
	c.EndTime = clonePtr(r.EndTime)
	c.TotalDuration = clonePtr(r.TotalDuration)
	c.PresetName = clonePtr(r.PresetName)
	c.SelectedPresetID = clonePtr(r.SelectedPresetID)
	if r.Clocks != nil {
		c.Clocks = append([]ClockSegment(nil), r.Clocks...)
	}
	return &c
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
