package config

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const defaultObservabilityName = "linkscore"

// ObservabilityConfig groups configuration that controls metrics and outbound notifications.
type ObservabilityConfig struct {
	Metrics       ObservabilityMetricsConfig
	Notifications ObservabilityNotificationsConfig
	Completion    CompletionNotificationsConfig
}

// Sanitize applies guardrails to observability sub-configs.
func (c *ObservabilityConfig) Sanitize() {
	c.Metrics.Sanitize()
	c.Notifications.Sanitize()
	c.Completion.Sanitize()
}

// ObservabilityMetricsConfig controls emission of metrics to external sinks such as StatsD.
type ObservabilityMetricsConfig struct {
	Enabled       bool   `env:"OBSERVABILITY_METRICS_ENABLED"        envDefault:"false"`
	StatsdAddress string `env:"OBSERVABILITY_METRICS_STATSD_ADDRESS" envDefault:"127.0.0.1:8125"`
	Prefix        string `env:"OBSERVABILITY_METRICS_PREFIX"         envDefault:"linkscore"`
}

// Sanitize normalises derived fields and enforces safe defaults.
func (c *ObservabilityMetricsConfig) Sanitize() {
	c.StatsdAddress = strings.TrimSpace(c.StatsdAddress)
	if c.StatsdAddress == "" {
		c.Enabled = false
	}
}

// IsEnabled returns true when metrics emission is active after sanitisation.
func (c *ObservabilityMetricsConfig) IsEnabled() bool {
	return c.Enabled && c.StatsdAddress != ""
}

// ObservabilityNotificationsConfig controls alerts for failed analyses.
type ObservabilityNotificationsConfig struct {
	Enabled    bool                        `env:"OBSERVABILITY_NOTIFICATIONS_ENABLED"     envDefault:"false"`
	Timeout    time.Duration               `env:"OBSERVABILITY_NOTIFICATIONS_TIMEOUT"     envDefault:"5s"`
	RetryLimit int                         `env:"OBSERVABILITY_NOTIFICATIONS_RETRY_LIMIT" envDefault:"3"`
	Slack      SlackNotificationConfig     `                                                                 envPrefix:"OBSERVABILITY_NOTIFICATIONS_SLACK_"`
	PagerDuty  PagerDutyNotificationConfig `                                                                 envPrefix:"OBSERVABILITY_NOTIFICATIONS_PAGERDUTY_"`
}

// Sanitize normalises notification configuration values.
func (c *ObservabilityNotificationsConfig) Sanitize() {
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
	if c.RetryLimit < 0 {
		c.RetryLimit = 0
	}

	c.Slack.sanitize()
	c.PagerDuty.sanitize()

	if !c.Enabled {
		c.Slack.Enabled = false
		c.PagerDuty.Enabled = false
		return
	}

	if c.Slack.Enabled && c.Slack.WebhookURL == "" {
		c.Slack.Enabled = false
	}

	if c.PagerDuty.Enabled && c.PagerDuty.RoutingKey == "" {
		c.PagerDuty.Enabled = false
	}
}

// SlackNotificationConfig controls Slack webhook fan-out.
type SlackNotificationConfig struct {
	Enabled    bool   `env:"ENABLED"     envDefault:"false"`
	WebhookURL string `env:"WEBHOOK_URL"`
	Channel    string `env:"CHANNEL"`
	Username   string `env:"USERNAME"    envDefault:"linkscore"`
	// AnalysisURLPrefix is prepended to analysis ids to build links in messages.
	AnalysisURLPrefix string `env:"ANALYSIS_URL_PREFIX"`
}

func (c *SlackNotificationConfig) sanitize() {
	c.WebhookURL = strings.TrimSpace(c.WebhookURL)
	c.Channel = strings.TrimSpace(c.Channel)
	c.AnalysisURLPrefix = strings.TrimSpace(c.AnalysisURLPrefix)
	if c.Username == "" {
		c.Username = defaultObservabilityName
	}
}

// PagerDutyNotificationConfig controls PagerDuty Events API v2 fan-out.
type PagerDutyNotificationConfig struct {
	Enabled    bool   `env:"ENABLED"     envDefault:"false"`
	RoutingKey string `env:"ROUTING_KEY"`
	Source     string `env:"SOURCE"      envDefault:"linkscore"`
	Component  string `env:"COMPONENT"   envDefault:"analysis-worker"`
}

func (c *PagerDutyNotificationConfig) sanitize() {
	c.RoutingKey = strings.TrimSpace(c.RoutingKey)
	if c.Source = strings.TrimSpace(c.Source); c.Source == "" {
		c.Source = defaultObservabilityName
	}
	if c.Component = strings.TrimSpace(c.Component); c.Component == "" {
		c.Component = defaultObservabilityName
	}
}

// WebhookConfig describes one completion webhook.
type WebhookConfig struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	// BodyTransform is an optional JMESPath expression applied to the event before delivery.
	BodyTransform string            `json:"body_transform,omitempty"`
	Headers       map[string]string `json:"headers,omitempty"`
}

// WebhookList is a JSON array of webhooks loaded from a single env var.
type WebhookList []WebhookConfig

// UnmarshalText implements encoding.TextUnmarshaler for WebhookList.
func (w *WebhookList) UnmarshalText(text []byte) error {
	raw := strings.TrimSpace(string(text))
	if raw == "" {
		*w = nil
		return nil
	}
	var list []WebhookConfig
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return fmt.Errorf("invalid webhook list: %w", err)
	}
	*w = list
	return nil
}

// CompletionNotificationsConfig controls delivery of analysis-completed events.
type CompletionNotificationsConfig struct {
	// Webhooks is a JSON array: [{"name":"crm","url":"https://...","body_transform":"{id: analysis.id}"}].
	Webhooks WebhookList   `env:"COMPLETION_WEBHOOKS"`
	Timeout  time.Duration `env:"COMPLETION_TIMEOUT"  envDefault:"15s"`

	SlackWebhookURL string `env:"COMPLETION_SLACK_WEBHOOK_URL"`
	SlackChannel    string `env:"COMPLETION_SLACK_CHANNEL"`
}

// Sanitize drops webhooks without a URL and applies the delivery timeout floor.
func (c *CompletionNotificationsConfig) Sanitize() {
	if c.Timeout <= 0 {
		c.Timeout = 15 * time.Second
	}
	kept := c.Webhooks[:0]
	for i, wh := range c.Webhooks {
		wh.URL = strings.TrimSpace(wh.URL)
		wh.BodyTransform = strings.TrimSpace(wh.BodyTransform)
		if wh.URL == "" {
			continue
		}
		if wh.Name == "" {
			wh.Name = fmt.Sprintf("webhook-%d", i+1)
		}
		kept = append(kept, wh)
	}
	c.Webhooks = kept
	c.SlackWebhookURL = strings.TrimSpace(c.SlackWebhookURL)
	c.SlackChannel = strings.TrimSpace(c.SlackChannel)
}
