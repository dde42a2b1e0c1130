// Package config provides run configuration loading and validation for paidlog.
package config

import "time"

// Config is the root configuration structure loaded from YAML.
type Config struct {
	// IDSource is the paid identifier source: a file path, a SQLite database,
	// or a postgres:// connection string.
	IDSource string `yaml:"ids_source"`

	// IDFormat forces the identifier source format (auto, plain, csv, sqlite, postgres).
	IDFormat string `yaml:"ids_format,omitempty"`

	// IDQuery is the SQL query for database identifier sources.
	IDQuery string `yaml:"ids_query,omitempty"`

	// TrackPaymentMethods enables the per-method breakdown when the source has one.
	TrackPaymentMethods bool `yaml:"track_payment_methods"`

	// LogSources lists log files or glob patterns. Empty means standard input.
	LogSources []string `yaml:"log_sources,omitempty"`

	// Output is the report format (csv, text, json, markdown).
	Output string `yaml:"output"`

	// CSVHeader prints a header row before CSV output.
	CSVHeader bool `yaml:"csv_header,omitempty"`

	Webhooks []WebhookConfig `yaml:"webhooks,omitempty"`
}

// WebhookTrigger determines when a webhook fires.
type WebhookTrigger string

const (
	// WebhookTriggerAlways fires after every analysis (default).
	WebhookTriggerAlways WebhookTrigger = "always"
	// WebhookTriggerOnConversions fires only when at least one payment was observed.
	WebhookTriggerOnConversions WebhookTrigger = "on_conversions"
	// WebhookTriggerNever disables the webhook.
	WebhookTriggerNever WebhookTrigger = "never"
)

// WebhookConfig defines a webhook endpoint for sending reports.
type WebhookConfig struct {
	// Name is an optional identifier for the webhook.
	Name string `yaml:"name,omitempty"`

	// URL is the webhook endpoint (required).
	URL string `yaml:"url"`

	// Token is an optional bearer token for authentication.
	Token string `yaml:"token,omitempty"`

	// Trigger determines when the webhook fires.
	// Defaults to "always" if not specified.
	Trigger WebhookTrigger `yaml:"trigger,omitempty"`

	// Timeout is the HTTP request timeout.
	// Defaults to 10s if not specified.
	Timeout time.Duration `yaml:"timeout,omitempty"`
}
