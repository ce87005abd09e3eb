package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/sozialwelten/Mastodon-Instance-Health-Checker/internal/domain"
	"github.com/sozialwelten/Mastodon-Instance-Health-Checker/internal/score"
)

// Config carries everything the battery, scorer and monitor need. It is built
// once and passed down explicitly so concurrent checks never share mutable
// settings.
type Config struct {
	Addr            string        // API bind address for serve mode
	LogDir          string        // logs directory
	LogLevel        string        // zap level name, e.g. "info" or "debug"
	Timeout         time.Duration // per-probe request timeout
	TimelineTimeout time.Duration // timeline probe gets a longer budget
	Interval        time.Duration // monitor tick interval
	Concurrency     int           // compare fan-out bound

	Weights         score.Weights
	SecurityHeaders []string // presence checklist for the security probe

	SlackWebhook    string
	AlertThreshold  int // monitor alerts when score drops below this
	AlertCooldown   time.Duration
	AlertOnRecovery bool
}

// DefaultSecurityHeaders is the presence-only checklist the security probe
// inspects. Policy correctness is out of scope.
var DefaultSecurityHeaders = []string{
	"Strict-Transport-Security",
	"Content-Security-Policy",
	"X-Frame-Options",
	"X-Content-Type-Options",
	"Referrer-Policy",
}

func Default() Config {
	return Config{
		Addr:            "127.0.0.1:8080",
		LogDir:          "logs",
		LogLevel:        "info",
		Timeout:         10 * time.Second,
		TimelineTimeout: 15 * time.Second,
		Interval:        300 * time.Second,
		Concurrency:     4,
		Weights:         score.DefaultWeights(),
		SecurityHeaders: append([]string(nil), DefaultSecurityHeaders...),
		AlertThreshold:  50,
		AlertCooldown:   15 * time.Minute,
		AlertOnRecovery: true,
	}
}

// FromEnv builds a Config from environment variables on top of the defaults.
func FromEnv() Config {
	cfg := Default()

	if v := os.Getenv("API_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("LOG_DIR"); v != "" {
		cfg.LogDir = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("PROBE_TIMEOUT_S"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Timeout = time.Duration(n) * time.Second
		}
	}
	if v := os.Getenv("MONITOR_INTERVAL_S"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Interval = time.Duration(n) * time.Second
		}
	}
	if v := os.Getenv("SLACK_WEBHOOK"); v != "" {
		cfg.SlackWebhook = v
	}
	if v := os.Getenv("ALERT_THRESHOLD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.AlertThreshold = n
		}
	}

	return cfg
}

type fileConfig struct {
	LogLevel               string         `yaml:"log_level"`
	TimeoutSeconds         int            `yaml:"timeout_seconds"`
	TimelineTimeoutSeconds int            `yaml:"timeline_timeout_seconds"`
	IntervalSeconds        int            `yaml:"interval_seconds"`
	Concurrency            int            `yaml:"concurrency"`
	Weights                map[string]int `yaml:"weights"`
	SecurityHeaders        []string       `yaml:"security_headers"`
	Alert                  struct {
		Webhook         string `yaml:"webhook"`
		Threshold       *int   `yaml:"threshold"`
		CooldownSeconds int    `yaml:"cooldown_seconds"`
		OnRecovery      *bool  `yaml:"on_recovery"`
	} `yaml:"alert"`
}

// Load applies a YAML config file on top of cfg. Unset fields keep their
// previous values.
func Load(path string, cfg Config) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	if fc.LogLevel != "" {
		cfg.LogLevel = fc.LogLevel
	}
	if fc.TimeoutSeconds > 0 {
		cfg.Timeout = time.Duration(fc.TimeoutSeconds) * time.Second
	}
	if fc.TimelineTimeoutSeconds > 0 {
		cfg.TimelineTimeout = time.Duration(fc.TimelineTimeoutSeconds) * time.Second
	}
	if fc.IntervalSeconds > 0 {
		cfg.Interval = time.Duration(fc.IntervalSeconds) * time.Second
	}
	if fc.Concurrency > 0 {
		cfg.Concurrency = fc.Concurrency
	}
	if len(fc.Weights) > 0 {
		w := make(score.Weights, len(fc.Weights))
		for name, pts := range fc.Weights {
			w[domain.ProbeName(name)] = pts
		}
		cfg.Weights = w
	}
	if len(fc.SecurityHeaders) > 0 {
		cfg.SecurityHeaders = fc.SecurityHeaders
	}
	if fc.Alert.Webhook != "" {
		cfg.SlackWebhook = fc.Alert.Webhook
	}
	if fc.Alert.Threshold != nil {
		cfg.AlertThreshold = *fc.Alert.Threshold
	}
	if fc.Alert.CooldownSeconds > 0 {
		cfg.AlertCooldown = time.Duration(fc.Alert.CooldownSeconds) * time.Second
	}
	if fc.Alert.OnRecovery != nil {
		cfg.AlertOnRecovery = *fc.Alert.OnRecovery
	}

	return cfg, nil
}

// Validate reports every problem at once rather than stopping at the first.
func (c Config) Validate() error {
	var errs error

	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("unknown log level %q", c.LogLevel))
	}
	if c.Timeout <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("timeout must be positive, got %s", c.Timeout))
	}
	if c.TimelineTimeout <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("timeline timeout must be positive, got %s", c.TimelineTimeout))
	}
	if c.Interval <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("interval must be positive, got %s", c.Interval))
	}
	if c.Concurrency < 1 {
		errs = multierr.Append(errs, fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency))
	}
	if len(c.SecurityHeaders) == 0 {
		errs = multierr.Append(errs, fmt.Errorf("security header checklist is empty"))
	}
	if c.AlertThreshold < 0 || c.AlertThreshold > 100 {
		errs = multierr.Append(errs, fmt.Errorf("alert threshold must be in [0,100], got %d", c.AlertThreshold))
	}
	if err := c.Weights.Validate(); err != nil {
		errs = multierr.Append(errs, err)
	}

	return errs
}
