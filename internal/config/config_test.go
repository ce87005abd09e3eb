package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/multierr"

	"github.com/sozialwelten/Mastodon-Instance-Health-Checker/internal/domain"
)

func TestDefault_IsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config must validate, got %v", err)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("PROBE_TIMEOUT_S", "3")
	t.Setenv("MONITOR_INTERVAL_S", "60")
	t.Setenv("SLACK_WEBHOOK", "https://hooks.example/abc")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := FromEnv()
	if cfg.Timeout != 3*time.Second {
		t.Fatalf("want 3s timeout, got %s", cfg.Timeout)
	}
	if cfg.Interval != 60*time.Second {
		t.Fatalf("want 60s interval, got %s", cfg.Interval)
	}
	if cfg.SlackWebhook != "https://hooks.example/abc" {
		t.Fatalf("webhook not picked up: %q", cfg.SlackWebhook)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("want debug log level, got %q", cfg.LogLevel)
	}
}

func TestLoad_AppliesFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "health.yaml")
	data := []byte(`
timeout_seconds: 5
interval_seconds: 120
weights:
  reachability: 30
  api: 16
  federation: 10
  timeline: 14
  streaming: 10
  media: 10
  security_headers: 14
  rate_limiting: 6
security_headers:
  - Strict-Transport-Security
  - Content-Security-Policy
alert:
  webhook: https://hooks.example/xyz
  threshold: 40
  cooldown_seconds: 600
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path, Default())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Timeout != 5*time.Second {
		t.Fatalf("want 5s timeout, got %s", cfg.Timeout)
	}
	if cfg.Interval != 120*time.Second {
		t.Fatalf("want 120s interval, got %s", cfg.Interval)
	}
	if cfg.Weights[domain.ProbeReachability] != 30 {
		t.Fatalf("want reachability weight 30, got %d", cfg.Weights[domain.ProbeReachability])
	}
	if len(cfg.SecurityHeaders) != 2 {
		t.Fatalf("want 2 checklist headers, got %d", len(cfg.SecurityHeaders))
	}
	if cfg.AlertThreshold != 40 {
		t.Fatalf("want threshold 40, got %d", cfg.AlertThreshold)
	}
	// TimelineTimeout untouched by the file keeps its default.
	if cfg.TimelineTimeout != Default().TimelineTimeout {
		t.Fatalf("timeline timeout changed unexpectedly: %s", cfg.TimelineTimeout)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), Default()); err == nil {
		t.Fatal("want error for missing file")
	}
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("{{nope"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path, Default()); err == nil {
		t.Fatal("want error for malformed yaml")
	}
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	cfg := Default()
	cfg.Timeout = 0
	cfg.Interval = -time.Second
	cfg.Concurrency = 0
	cfg.SecurityHeaders = nil
	cfg.AlertThreshold = 250
	cfg.LogLevel = "loud"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("want validation errors, got nil")
	}
	if n := len(multierr.Errors(err)); n < 5 {
		t.Fatalf("want at least 5 collected problems, got %d: %v", n, err)
	}
}
