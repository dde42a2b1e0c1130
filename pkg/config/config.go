package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ccollicutt/paidlog/pkg/idstore"
	"github.com/ccollicutt/paidlog/pkg/output"
)

// ErrNoIDSource is returned when no identifier source is configured.
var ErrNoIDSource = errors.New("ids_source: an identifier source is required")

// LoadDotEnv loads KEY=VALUE pairs from the given files (default ".env") into
// the process environment. Missing files are ignored; existing variables win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

// Parse reads a configuration file and applies environment overrides
// without validating it.
func Parse(_ context.Context, path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-provided config path is expected
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyEnvironmentOverrides()
	return cfg, nil
}

// Load reads and validates a configuration file.
func Load(ctx context.Context, path string) (*Config, error) {
	cfg, err := Parse(ctx, path)
	if err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Resolve returns the configuration for a run: the file at path if given,
// otherwise the per-user default file if it exists, otherwise defaults.
// Environment overrides are applied in every case. The result is not validated,
// so that command-line arguments can still fill it in.
func Resolve(ctx context.Context, path string) (*Config, string, error) {
	if path == "" {
		if _, err := os.Stat(DefaultPath()); err == nil {
			path = DefaultPath()
		}
	}

	if path == "" {
		cfg := DefaultConfig()
		cfg.applyEnvironmentOverrides()
		return cfg, "", nil
	}

	cfg, err := Parse(ctx, path)
	if err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

// Validate checks a configuration for errors and normalizes defaults.
func Validate(cfg *Config) error {
	cfg.IDSource = expandEnvVar(strings.TrimSpace(cfg.IDSource))
	if cfg.IDSource == "" {
		return ErrNoIDSource
	}

	format, err := idstore.ParseFormat(cfg.IDFormat)
	if err != nil {
		return fmt.Errorf("ids_format: %w", err)
	}
	cfg.IDFormat = string(format)

	if cfg.IDQuery == "" {
		cfg.IDQuery = DefaultIDQuery
	}

	if cfg.Output == "" {
		cfg.Output = DefaultOutput
	}
	if _, err := output.NewFormatter(cfg.Output, output.FormatOptions{}); err != nil {
		return fmt.Errorf("output: %w", err)
	}

	for i := range cfg.Webhooks {
		if err := validateWebhook(&cfg.Webhooks[i]); err != nil {
			name := cfg.Webhooks[i].Name
			if name == "" {
				name = cfg.Webhooks[i].URL
			}
			return fmt.Errorf("webhooks[%d] (%s): %w", i, name, err)
		}
	}

	return nil
}

func validateWebhook(wh *WebhookConfig) error {
	if wh.URL == "" {
		return errors.New("url is required")
	}

	u, err := url.Parse(wh.URL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got %q", u.Scheme)
	}

	if u.Host == "" {
		return errors.New("url must have a host")
	}

	wh.Token = expandEnvVar(wh.Token)

	switch wh.Trigger {
	case "":
		wh.Trigger = WebhookTriggerAlways
	case WebhookTriggerAlways, WebhookTriggerOnConversions, WebhookTriggerNever:
	default:
		return fmt.Errorf("invalid trigger %q (must be always, on_conversions, or never)", wh.Trigger)
	}

	if wh.Timeout <= 0 {
		wh.Timeout = DefaultWebhookTimeout
	}

	return nil
}

// ShouldFire reports whether a webhook with this trigger fires for a run.
func (t WebhookTrigger) ShouldFire(hasConversions bool) bool {
	switch t {
	case WebhookTriggerNever:
		return false
	case WebhookTriggerOnConversions:
		return hasConversions
	default:
		return true
	}
}

// expandEnvVar expands a value of the form ${VAR} or $VAR from the environment.
func expandEnvVar(s string) string {
	if s == "" {
		return s
	}

	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		return os.Getenv(s[2 : len(s)-1])
	}

	if strings.HasPrefix(s, "$") && !strings.HasPrefix(s, "${") {
		return os.Getenv(s[1:])
	}

	return s
}
