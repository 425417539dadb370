package model

import (
	"fmt"
	"strconv"
	"time"
)

// NotificationType defines the type of notification.
type NotificationType string

// Notification types.
const (
	NotifyRunComplete NotificationType = "run_complete"
	NotifyMilestone   NotificationType = "milestone"
	NotifyTest        NotificationType = "test"
)

// Notification is the payload handed to every sink.
type Notification struct {
	Type       NotificationType  `json:"type"`
	Title      string            `json:"title"`
	Message    string            `json:"message"`
	RunID      string            `json:"runId,omitempty"`
	PresetName string            `json:"presetName,omitempty"`
	Position   int               `json:"position,omitempty"`
	Total      int               `json:"total,omitempty"`
	Final      bool              `json:"final,omitempty"`
	Fields     map[string]string `json:"fields,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
	Color      int               `json:"color,omitempty"`
}

// NewNotification creates a new notification.
func NewNotification(t NotificationType, title, message string) *Notification {
	return &Notification{
		Type:      t,
		Title:     title,
		Message:   message,
		Fields:    make(map[string]string),
		Timestamp: time.Now(),
		Color:     DefaultColorForType(t),
	}
}

// NewRunComplete builds the notification emitted when a run finishes.
// position and total locate the final clock; both are zero when the run
// was resolved without a clock context.
func NewRunComplete(runID, presetName string, position, total int) *Notification {
	n := NewNotification(NotifyRunComplete, "Timer Complete", fmt.Sprintf("Timer %q completed!", presetName))
	n.RunID = runID
	n.PresetName = presetName
	n.Position = position
	n.Total = total
	n.Final = true
	if total > 0 {
		n.WithField("Clock", Label(position, total))
	}
	return n
}

// NewMilestone builds the notification emitted when clock position of total
// elapses.
func NewMilestone(runID, presetName string, position, total int) *Notification {
	n := NewNotification(NotifyMilestone, "Clock Complete",
		fmt.Sprintf("%s: clock %s finished", presetName, Label(position, total)))
	n.RunID = runID
	n.PresetName = presetName
	n.Position = position
	n.Total = total
	n.WithField("Clock", Label(position, total))
	n.WithField("Remaining", strconv.Itoa(total-position))
	return n
}

// Label renders "i of n".
func Label(position, total int) string {
	return fmt.Sprintf("%d of %d", position, total)
}

// WithField adds a field to the notification.
func (n *Notification) WithField(key, value string) *Notification {
	if n.Fields == nil {
		n.Fields = make(map[string]string)
	}
	n.Fields[key] = value
	return n
}

// WithColor sets the embed color.
func (n *Notification) WithColor(color int) *Notification {
	n.Color = color
	return n
}

// Notification colors (Discord-compatible hex values).
const (
	ColorSuccess = 0x57F287
	ColorInfo    = 0x5865F2
	ColorPrimary = 0x3498DB
)

// DefaultColorForType returns the default color for a notification type.
func DefaultColorForType(t NotificationType) int {
	switch t {
	case NotifyRunComplete:
		return ColorSuccess
	case NotifyMilestone:
		return ColorInfo
	default:
		return ColorPrimary
	}
}

// Icon returns an emoji shortcode for the notification type.
func (n *Notification) Icon() string {
	switch n.Type {
	case NotifyRunComplete:
		return "alarm_clock"
	case NotifyMilestone:
		return "stopwatch"
	default:
		return "bell"
	}
}

// TypeLabel returns a human-readable label for the notification type.
func (n *Notification) TypeLabel() string {
	switch n.Type {
	case NotifyRunComplete:
		return "Run Complete"
	case NotifyMilestone:
		return "Milestone"
	case NotifyTest:
		return "Test Notification"
	default:
		return "Notification"
	}
}
