// Package notify delivers timer notifications to every configured sink:
// the log, connected RPC clients and webhooks.
package notify

import (
	"sort"

	"github.com/manav03panchal/clockset/internal/model"
)

// footerText labels every webhook payload.
const footerText = "clockset"

// Formatter formats notifications for a specific webhook type.
type Formatter interface {
	// Format converts a notification into the webhook-specific payload.
	Format(n *model.Notification) ([]byte, error)

	// ContentType returns the HTTP Content-Type for the payload.
	ContentType() string
}

// GetFormatter returns the appropriate formatter for a webhook type.
func GetFormatter(webhookType string) Formatter {
	switch webhookType {
	case model.WebhookTypeDiscord:
		return &DiscordFormatter{}
	case model.WebhookTypeSlack:
		return &SlackFormatter{}
	case model.WebhookTypeTeams:
		return &TeamsFormatter{}
	default:
		return &GenericFormatter{}
	}
}

// FormatterFor returns the formatter for a configured webhook. A generic
// webhook with a template renders through it.
func FormatterFor(w model.Webhook) Formatter {
	t := w.ResolvedType()
	if t == model.WebhookTypeGeneric && w.Template != "" {
		return NewGenericFormatter(w.Template)
	}
	return GetFormatter(t)
}

type field struct {
	key, value string
}

// sortedFields returns n.Fields ordered by key so payloads are stable.
func sortedFields(n *model.Notification) []field {
	keys := make([]string, 0, len(n.Fields))
	for k := range n.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]field, 0, len(keys))
	for _, k := range keys {
		out = append(out, field{key: k, value: n.Fields[k]})
	}
	return out
}

func colorOf(n *model.Notification) int {
	if n.Color != 0 {
		return n.Color
	}
	return model.DefaultColorForType(n.Type)
}

func footer(n *model.Notification) string {
	if n.PresetName == "" {
		return footerText
	}
	return footerText + " | " + n.PresetName
}
