package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"

	"github.com/ccollicutt/paidlog/pkg/idstore"
	"github.com/ccollicutt/paidlog/pkg/output"
)

// AppName is used for the configuration directory.
const AppName = "paidlog"

// Default values for configuration.
const (
	DefaultWebhookTimeout = 10 * time.Second
	DefaultOutput         = output.FormatCSV
	DefaultIDQuery        = idstore.DefaultQuery
)

// Environment variable names.
const (
	EnvIDSource   = "PAIDLOG_IDS_SOURCE"
	EnvIDQuery    = "PAIDLOG_IDS_QUERY"
	EnvOutput     = "PAIDLOG_OUTPUT"
	EnvLogSources = "PAIDLOG_LOG_SOURCES"
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		IDFormat:            string(idstore.FormatAuto),
		IDQuery:             DefaultIDQuery,
		TrackPaymentMethods: true,
		Output:              DefaultOutput,
	}
}

// DefaultPath returns the per-user configuration file location,
// e.g. ~/.config/paidlog/config.yaml on Linux.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, AppName, "config.yaml")
}

// applyEnvironmentOverrides applies environment variable overrides to the config.
func (c *Config) applyEnvironmentOverrides() {
	if v := os.Getenv(EnvIDSource); v != "" {
		c.IDSource = v
	}
	if v := os.Getenv(EnvIDQuery); v != "" {
		c.IDQuery = v
	}
	if v := os.Getenv(EnvOutput); v != "" {
		c.Output = v
	}
	if v := os.Getenv(EnvLogSources); v != "" {
		var sources []string
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				sources = append(sources, s)
			}
		}
		c.LogSources = sources
	}
}
