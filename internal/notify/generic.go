package notify

import (
	"bytes"
	"encoding/json"
	"text/template"
	"time"

	"github.com/manav03panchal/clockset/internal/model"
)

// GenericFormatter formats notifications for generic webhooks.
type GenericFormatter struct {
	// Template is an optional text/template for the payload.
	Template string
}

// NewGenericFormatter creates a new generic formatter with an optional template.
func NewGenericFormatter(template string) *GenericFormatter {
	return &GenericFormatter{Template: template}
}

// genericPayload is the default payload for generic webhooks.
type genericPayload struct {
	Type       string            `json:"type"`
	Title      string            `json:"title"`
	Message    string            `json:"message"`
	RunID      string            `json:"runId,omitempty"`
	PresetName string            `json:"presetName,omitempty"`
	Position   int               `json:"position,omitempty"`
	Total      int               `json:"total,omitempty"`
	Final      bool              `json:"final"`
	Fields     map[string]string `json:"fields,omitempty"`
	Timestamp  string            `json:"timestamp"`
	Color      int               `json:"color,omitempty"`
}

// Format converts a notification to a generic webhook format.
func (f *GenericFormatter) Format(n *model.Notification) ([]byte, error) {
	if f.Template != "" {
		return f.formatWithTemplate(n)
	}

	return json.Marshal(genericPayload{
		Type:       string(n.Type),
		Title:      n.Title,
		Message:    n.Message,
		RunID:      n.RunID,
		PresetName: n.PresetName,
		Position:   n.Position,
		Total:      n.Total,
		Final:      n.Final,
		Fields:     n.Fields,
		Timestamp:  n.Timestamp.UTC().Format(time.RFC3339),
		Color:      colorOf(n),
	})
}

func (f *GenericFormatter) formatWithTemplate(n *model.Notification) ([]byte, error) {
	tmpl, err := template.New("webhook").Parse(f.Template)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, n); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ContentType returns the content type for generic webhooks.
func (f *GenericFormatter) ContentType() string {
	return "application/json"
}
