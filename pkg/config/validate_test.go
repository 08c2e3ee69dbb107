package config

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		modify    func(*Config)
		wantField string
	}{
		{"valid default", func(*Config) {}, ""},
		{"bad listen address", func(c *Config) { c.Proxy.ListenAddress = "localhost" }, "proxy.listen_address"},
		{"negative read timeout", func(c *Config) { c.Proxy.ReadTimeout = -time.Second }, "proxy.read_timeout"},
		{"huge headers", func(c *Config) { c.Proxy.MaxHeaderBytes = 20 * 1024 * 1024 }, "proxy.max_header_bytes"},
		{"no backends", func(c *Config) { c.Backends = nil }, "backends"},
		{"unnamed backend", func(c *Config) { c.Backends[0].Name = "" }, "backends[0].name"},
		{"duplicate backend", func(c *Config) { c.Backends[1].Name = c.Backends[0].Name }, "backends[1](gemini).name"},
		{"unknown type", func(c *Config) { c.Backends[0].Type = "bard" }, "backends[0](gemini).type"},
		{"generic without url", func(c *Config) {
			c.Backends[0].Type = "generic"
			c.Backends[0].Model = "llama"
		}, "backends[0](gemini).base_url"},
		{"generic without model", func(c *Config) {
			c.Backends[0].Type = "generic"
			c.Backends[0].BaseURL = "http://localhost:1234/v1"
		}, "backends[0](gemini).model"},
		{"bad url scheme", func(c *Config) { c.Backends[0].BaseURL = "ftp://example.com" }, "backends[0](gemini).base_url"},
		{"too many retries", func(c *Config) { c.Backends[0].MaxRetries = 11 }, "backends[0](gemini).max_retries"},
		{"negative rpm", func(c *Config) { c.Backends[0].RequestsPerMinute = -1 }, "backends[0](gemini).requests_per_minute"},
		{"temperature", func(c *Config) { c.Backends[0].Temperature = 2.5 }, "backends[0](gemini).temperature"},
		{"top_p", func(c *Config) { c.Backends[0].TopP = 1.5 }, "backends[0](gemini).top_p"},
		{"zero cooldown", func(c *Config) { c.Routing.Cooldown = 0 }, "routing.cooldown"},
		{"journal backend", func(c *Config) { c.Journal.Backend = "postgres" }, "journal.backend"},
		{"journal driver", func(c *Config) {
			c.Journal.Backend = "sqlite"
			c.Journal.SQLite.Driver = "pgx"
		}, "journal.sqlite.driver"},
		{"bad cron", func(c *Config) { c.Journal.Retention.PruneSchedule = "every day" }, "journal.retention.prune_schedule"},
		{"retention too long", func(c *Config) { c.Journal.Retention.Days = 5000 }, "journal.retention.days"},
		{"query limits", func(c *Config) { c.Journal.Query.DefaultLimit = 5000 }, "journal.query.default_limit"},
		{"journal disabled skips checks", func(c *Config) {
			c.Journal.Enabled = false
			c.Journal.Backend = "postgres"
		}, ""},
		{"log level", func(c *Config) { c.Telemetry.Logging.Level = "trace" }, "telemetry.logging.level"},
		{"log format", func(c *Config) { c.Telemetry.Logging.Format = "xml" }, "telemetry.logging.format"},
		{"metrics path", func(c *Config) { c.Telemetry.Metrics.Path = "metrics" }, "telemetry.metrics.path"},
		{"tracing endpoint", func(c *Config) { c.Telemetry.Tracing.Enabled = true }, "telemetry.tracing.endpoint"},
		{"sampler", func(c *Config) { c.Telemetry.Tracing.Sampler = "sometimes" }, "telemetry.tracing.sampler"},
		{"sample ratio", func(c *Config) { c.Telemetry.Tracing.SampleRatio = 1.5 }, "telemetry.tracing.sample_ratio"},
		{"health path", func(c *Config) { c.Telemetry.Health.ReadinessPath = "ready" }, "telemetry.health.readiness_path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.modify(cfg)

			err := Validate(cfg)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}

			var ve ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			found := false
			for _, fe := range ve.Errors {
				if fe.Field == tt.wantField {
					found = true
				}
			}
			if !found {
				t.Errorf("expected error on %q, got %v", tt.wantField, ve.Errors)
			}
		})
	}
}

func TestValidate_MissingAPIKeyAllowed(t *testing.T) {
	cfg := NewDefaultConfig()
	for i := range cfg.Backends {
		cfg.Backends[i].APIKey = ""
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("missing keys are reported at first use, not at load: %v", err)
	}
}

func TestValidationError_Error(t *testing.T) {
	single := ValidationError{Errors: []FieldError{{Field: "a", Message: "bad"}}}
	if single.Error() != "configuration validation failed: a: bad" {
		t.Errorf("unexpected message %q", single.Error())
	}

	multi := ValidationError{Errors: []FieldError{{Field: "a", Message: "bad"}, {Field: "b", Message: "worse"}}}
	if !strings.Contains(multi.Error(), "2 errors") || !strings.Contains(multi.Error(), "  - b: worse") {
		t.Errorf("unexpected message %q", multi.Error())
	}
}
