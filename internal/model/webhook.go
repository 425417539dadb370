package model

import (
	"regexp"
	"strings"
)

// Webhook type constants.
const (
	WebhookTypeDiscord = "discord"
	WebhookTypeSlack   = "slack"
	WebhookTypeTeams   = "teams"
	WebhookTypeGeneric = "generic"
)

// Webhook is a notification target declared in the config file.
type Webhook struct {
	Name     string `json:"name" yaml:"name" mapstructure:"name"`
	Type     string `json:"type" yaml:"type" mapstructure:"type"`
	URL      string `json:"url" yaml:"url" mapstructure:"url"`
	Enabled  bool   `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	Template string `json:"template,omitempty" yaml:"template,omitempty" mapstructure:"template"`
}

// IsEnabled returns true if the webhook is enabled.
func (w *Webhook) IsEnabled() bool {
	return w.Enabled
}

// ResolvedType returns Type, or the type detected from the URL when unset.
func (w *Webhook) ResolvedType() string {
	if IsValidWebhookType(w.Type) {
		return w.Type
	}
	return DetectWebhookType(w.URL)
}

// ValidWebhookTypes returns the list of valid webhook types.
func ValidWebhookTypes() []string {
	return []string{WebhookTypeDiscord, WebhookTypeSlack, WebhookTypeTeams, WebhookTypeGeneric}
}

// IsValidWebhookType checks if a type is valid.
func IsValidWebhookType(t string) bool {
	for _, valid := range ValidWebhookTypes() {
		if t == valid {
			return true
		}
	}
	return false
}

var webhookNameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]*$`)

// IsValidWebhookName checks if a webhook name is valid.
func IsValidWebhookName(name string) bool {
	if len(name) == 0 || len(name) > 50 {
		return false
	}
	return webhookNameRegex.MatchString(name)
}

// DetectWebhookType attempts to detect the webhook type from the URL.
func DetectWebhookType(url string) string {
	urlLower := strings.ToLower(url)

	switch {
	case strings.Contains(urlLower, "discord.com/api/webhooks"):
		return WebhookTypeDiscord
	case strings.Contains(urlLower, "hooks.slack.com"):
		return WebhookTypeSlack
	case strings.Contains(urlLower, "outlook.office.com/webhook") ||
		strings.Contains(urlLower, "webhook.office.com"):
		return WebhookTypeTeams
	default:
		return WebhookTypeGeneric
	}
}
