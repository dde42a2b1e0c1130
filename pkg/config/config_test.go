package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/adrg/xdg"
)

// clearEnv neutralizes PAIDLOG_* variables from the calling environment.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvIDSource, EnvIDQuery, EnvOutput, EnvLogSources} {
		t.Setenv(k, "")
	}
}

func TestLoad_ValidConfig(t *testing.T) {
	clearEnv(t)
	content := `
ids_source: /data/paid.csv
ids_format: csv
track_payment_methods: false
log_sources:
  - /var/log/app/*.log
output: json
csv_header: true
`
	path := writeTempFile(t, "config.yaml", content)
	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.IDSource != "/data/paid.csv" {
		t.Errorf("IDSource = %q, want /data/paid.csv", cfg.IDSource)
	}
	if cfg.IDFormat != "csv" {
		t.Errorf("IDFormat = %q, want csv", cfg.IDFormat)
	}
	if cfg.TrackPaymentMethods {
		t.Error("TrackPaymentMethods = true, want false")
	}
	if len(cfg.LogSources) != 1 {
		t.Errorf("LogSources = %d, want 1", len(cfg.LogSources))
	}
	if cfg.Output != "json" {
		t.Errorf("Output = %q, want json", cfg.Output)
	}
	if !cfg.CSVHeader {
		t.Error("CSVHeader = false, want true")
	}
	if cfg.IDQuery != DefaultIDQuery {
		t.Errorf("IDQuery = %q, want default", cfg.IDQuery)
	}
}

func TestLoad_KeepsDefaultsForMissingKeys(t *testing.T) {
	clearEnv(t)
	path := writeTempFile(t, "config.yaml", "ids_source: paid.txt\n")
	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !cfg.TrackPaymentMethods {
		t.Error("TrackPaymentMethods should default to true")
	}
	if cfg.Output != DefaultOutput {
		t.Errorf("Output = %q, want %q", cfg.Output, DefaultOutput)
	}
	if cfg.IDFormat != "auto" {
		t.Errorf("IDFormat = %q, want auto", cfg.IDFormat)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load(context.Background(), "/nonexistent/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	content := `invalid: yaml: content: [`
	path := writeTempFile(t, "invalid.yaml", content)
	_, err := Load(context.Background(), path)
	if err == nil {
		t.Error("Load() expected error for invalid YAML")
	}
}

func TestLoad_MissingIDSource(t *testing.T) {
	clearEnv(t)
	path := writeTempFile(t, "config.yaml", "output: text\n")
	_, err := Load(context.Background(), path)
	if !errors.Is(err, ErrNoIDSource) {
		t.Errorf("Load() error = %v, want ErrNoIDSource", err)
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvIDSource, "postgres://shop@db/payments")
	t.Setenv(EnvOutput, "markdown")
	t.Setenv(EnvLogSources, "a.log, b.log,,")

	path := writeTempFile(t, "config.yaml", "ids_source: paid.txt\noutput: csv\n")
	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.IDSource != "postgres://shop@db/payments" {
		t.Errorf("IDSource = %q, want env value", cfg.IDSource)
	}
	if cfg.Output != "markdown" {
		t.Errorf("Output = %q, want markdown", cfg.Output)
	}
	if len(cfg.LogSources) != 2 || cfg.LogSources[0] != "a.log" || cfg.LogSources[1] != "b.log" {
		t.Errorf("LogSources = %v, want [a.log b.log]", cfg.LogSources)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"minimal", Config{IDSource: "paid.txt"}, false},
		{"no source", Config{}, true},
		{"blank source", Config{IDSource: "   "}, true},
		{"bad format", Config{IDSource: "paid.txt", IDFormat: "xml"}, true},
		{"sqlite format", Config{IDSource: "paid", IDFormat: "sqlite"}, false},
		{"bad output", Config{IDSource: "paid.txt", Output: "yaml"}, true},
		{"markdown output", Config{IDSource: "paid.txt", Output: "markdown"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			err := Validate(&cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_NormalizesDefaults(t *testing.T) {
	cfg := &Config{IDSource: "paid.txt"}
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if cfg.IDFormat != "auto" {
		t.Errorf("IDFormat = %q, want auto", cfg.IDFormat)
	}
	if cfg.IDQuery != DefaultIDQuery {
		t.Errorf("IDQuery = %q, want default", cfg.IDQuery)
	}
	if cfg.Output != DefaultOutput {
		t.Errorf("Output = %q, want %q", cfg.Output, DefaultOutput)
	}
}

func TestValidate_ExpandsIDSource(t *testing.T) {
	t.Setenv("TEST_PAID_DSN", "postgres://shop@db/payments")
	cfg := &Config{IDSource: "${TEST_PAID_DSN}"}
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if cfg.IDSource != "postgres://shop@db/payments" {
		t.Errorf("IDSource = %q, want expanded DSN", cfg.IDSource)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if !cfg.TrackPaymentMethods {
		t.Error("TrackPaymentMethods should default to true")
	}
	if cfg.Output != "csv" {
		t.Errorf("Output = %q, want csv", cfg.Output)
	}
	if cfg.IDSource != "" {
		t.Errorf("IDSource = %q, want empty", cfg.IDSource)
	}
}

func TestValidate_Webhook(t *testing.T) {
	tests := []struct {
		name    string
		webhook WebhookConfig
		wantErr bool
	}{
		{"https", WebhookConfig{Name: "stats", URL: "https://example.com/webhook", Trigger: WebhookTriggerOnConversions}, false},
		{"http", WebhookConfig{URL: "http://localhost:8080/webhook"}, false},
		{"missing url", WebhookConfig{Name: "no-url"}, true},
		{"ftp scheme", WebhookConfig{URL: "ftp://example.com/webhook"}, true},
		{"no host", WebhookConfig{URL: "https:///webhook"}, true},
		{"bad trigger", WebhookConfig{URL: "https://example.com/webhook", Trigger: "sometimes"}, true},
		{"never", WebhookConfig{URL: "https://example.com/webhook", Trigger: WebhookTriggerNever}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{IDSource: "paid.txt", Webhooks: []WebhookConfig{tt.webhook}}
			err := Validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_Webhook_Defaults(t *testing.T) {
	t.Setenv("TEST_WEBHOOK_TOKEN", "secret-value")
	cfg := &Config{
		IDSource: "paid.txt",
		Webhooks: []WebhookConfig{{URL: "https://example.com/webhook", Token: "${TEST_WEBHOOK_TOKEN}"}},
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	wh := cfg.Webhooks[0]
	if wh.Trigger != WebhookTriggerAlways {
		t.Errorf("Trigger = %q, want always", wh.Trigger)
	}
	if wh.Timeout != DefaultWebhookTimeout {
		t.Errorf("Timeout = %v, want %v", wh.Timeout, DefaultWebhookTimeout)
	}
	if wh.Token != "secret-value" {
		t.Errorf("Token = %q, want expanded value", wh.Token)
	}
}

func TestWebhookTrigger_ShouldFire(t *testing.T) {
	tests := []struct {
		trigger        WebhookTrigger
		hasConversions bool
		want           bool
	}{
		{WebhookTriggerAlways, false, true},
		{WebhookTriggerAlways, true, true},
		{WebhookTriggerOnConversions, false, false},
		{WebhookTriggerOnConversions, true, true},
		{WebhookTriggerNever, true, false},
		{"", false, true},
	}

	for _, tt := range tests {
		if got := tt.trigger.ShouldFire(tt.hasConversions); got != tt.want {
			t.Errorf("%q.ShouldFire(%v) = %v, want %v", tt.trigger, tt.hasConversions, got, tt.want)
		}
	}
}

func TestExpandEnvVar(t *testing.T) {
	t.Setenv("TEST_WEBHOOK_TOKEN", "secret-value")

	tests := []struct {
		input string
		want  string
	}{
		{"${TEST_WEBHOOK_TOKEN}", "secret-value"},
		{"$TEST_WEBHOOK_TOKEN", "secret-value"},
		{"plain-value", "plain-value"},
		{"", ""},
		{"${NONEXISTENT_VAR}", ""},
	}

	for _, tt := range tests {
		got := expandEnvVar(tt.input)
		if got != tt.want {
			t.Errorf("expandEnvVar(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestLoad_WithWebhooks(t *testing.T) {
	clearEnv(t)
	content := `
ids_source: paid.csv
webhooks:
  - name: stats
    url: "https://example.com/webhook"
    trigger: on_conversions
    timeout: 30s
  - url: "https://backup.example.com/webhook"
`
	path := writeTempFile(t, "config-with-webhooks.yaml", content)
	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(cfg.Webhooks) != 2 {
		t.Fatalf("Webhooks = %d, want 2", len(cfg.Webhooks))
	}
	if cfg.Webhooks[0].Name != "stats" {
		t.Errorf("Webhook[0].Name = %q, want %q", cfg.Webhooks[0].Name, "stats")
	}
	if cfg.Webhooks[0].Trigger != WebhookTriggerOnConversions {
		t.Errorf("Webhook[0].Trigger = %v, want %v", cfg.Webhooks[0].Trigger, WebhookTriggerOnConversions)
	}
	if cfg.Webhooks[0].Timeout != 30*time.Second {
		t.Errorf("Webhook[0].Timeout = %v, want 30s", cfg.Webhooks[0].Timeout)
	}
	if cfg.Webhooks[1].Trigger != WebhookTriggerAlways {
		t.Errorf("Webhook[1].Trigger = %v, want %v", cfg.Webhooks[1].Trigger, WebhookTriggerAlways)
	}
}

func TestResolve_ExplicitPath(t *testing.T) {
	clearEnv(t)
	path := writeTempFile(t, "run.yaml", "output: text\n")
	cfg, used, err := Resolve(context.Background(), path)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if used != path {
		t.Errorf("path = %q, want %q", used, path)
	}
	if cfg.Output != "text" {
		t.Errorf("Output = %q, want text", cfg.Output)
	}
}

func TestResolve_DefaultPath(t *testing.T) {
	clearEnv(t)
	t.Cleanup(xdg.Reload)
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", home)
	xdg.Reload()

	cfg, used, err := Resolve(context.Background(), "")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if used != "" {
		t.Errorf("path = %q, want none", used)
	}
	if cfg.Output != DefaultOutput {
		t.Errorf("Output = %q, want default", cfg.Output)
	}

	dir := filepath.Join(home, AppName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("ids_source: found.txt\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, used, err = Resolve(context.Background(), "")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if used != DefaultPath() {
		t.Errorf("path = %q, want %q", used, DefaultPath())
	}
	if cfg.IDSource != "found.txt" {
		t.Errorf("IDSource = %q, want found.txt", cfg.IDSource)
	}
}

func TestLoadDotEnv(t *testing.T) {
	const key = "PAIDLOG_TEST_DOTENV_VALUE"
	t.Setenv(key, "")
	os.Unsetenv(key)

	path := writeTempFile(t, ".env", key+"=from-dotenv\n")
	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv() error = %v", err)
	}
	if got := os.Getenv(key); got != "from-dotenv" {
		t.Errorf("%s = %q, want from-dotenv", key, got)
	}
}

func TestLoadDotEnv_MissingFile(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Errorf("LoadDotEnv() error = %v, want nil for missing file", err)
	}
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write temp file: %v", err)
	}
	return path
}
