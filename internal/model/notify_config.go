package model

// NotifyConfig holds notification preferences from the config file.
type NotifyConfig struct {
	Enabled  map[string]bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	Webhooks []Webhook       `json:"webhooks" yaml:"webhooks" mapstructure:"webhooks"`
}

// DefaultNotifyConfig enables every notification type and no webhooks.
func DefaultNotifyConfig() NotifyConfig {
	return NotifyConfig{
		Enabled: map[string]bool{
			string(NotifyRunComplete): true,
			string(NotifyMilestone):   true,
		},
	}
}

// IsTypeEnabled checks if a notification type is enabled.
// Types missing from the map default to enabled.
func (c NotifyConfig) IsTypeEnabled(t NotificationType) bool {
	if c.Enabled == nil {
		return true
	}
	enabled, exists := c.Enabled[string(t)]
	if !exists {
		return true
	}
	return enabled
}

// EnabledWebhooks returns the webhooks marked enabled.
func (c NotifyConfig) EnabledWebhooks() []Webhook {
	var out []Webhook
	for _, w := range c.Webhooks {
		if w.Enabled {
			out = append(out, w)
		}
	}
	return out
}
