package config

import (
	"fmt"
	"net"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of every environment override.
const EnvPrefix = "RALF_"

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any errors.
// An empty path yields the defaults alone.
// The configuration is not modified by environment variables; use LoadConfigWithEnvOverrides
// for that functionality.
func LoadConfig(path string) (*Config, error) {
	cfg := NewDefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
		}
	}

	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention RALF_SECTION_FIELD (e.g., RALF_ROUTING_COOLDOWN). PORT replaces
// the listen port, and backend API keys are read from each backend's
// api_key_env (GEMINI_API_KEY, OPENROUTER_API_KEY, ...).
// Environment variables always take precedence over file-based configuration.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)
	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) {
	// Proxy overrides
	if val := os.Getenv(EnvPrefix + "PROXY_LISTEN_ADDRESS"); val != "" {
		cfg.Proxy.ListenAddress = val
	}
	if val := os.Getenv("PORT"); val != "" {
		cfg.Proxy.ListenAddress = withPort(cfg.Proxy.ListenAddress, val)
	}
	envDuration(EnvPrefix+"PROXY_READ_TIMEOUT", &cfg.Proxy.ReadTimeout)
	envDuration(EnvPrefix+"PROXY_WRITE_TIMEOUT", &cfg.Proxy.WriteTimeout)
	envDuration(EnvPrefix+"PROXY_SHUTDOWN_TIMEOUT", &cfg.Proxy.ShutdownTimeout)
	if val := os.Getenv(EnvPrefix + "PROXY_CORS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Proxy.CORS.Enabled = b
		}
	}

	// Routing overrides
	envDuration(EnvPrefix+"ROUTING_COOLDOWN", &cfg.Routing.Cooldown)

	// Journal overrides
	if val := os.Getenv(EnvPrefix + "JOURNAL_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Journal.Enabled = b
		}
	}
	if val := os.Getenv(EnvPrefix + "JOURNAL_BACKEND"); val != "" {
		cfg.Journal.Backend = val
	}
	if val := os.Getenv(EnvPrefix + "JOURNAL_SQLITE_PATH"); val != "" {
		cfg.Journal.SQLite.Path = val
	}
	if val := os.Getenv(EnvPrefix + "JOURNAL_SQLITE_DRIVER"); val != "" {
		cfg.Journal.SQLite.Driver = val
	}
	if val := os.Getenv(EnvPrefix + "JOURNAL_RETENTION_DAYS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Journal.Retention.Days = i
		}
	}

	// Telemetry overrides
	if val := os.Getenv(EnvPrefix + "TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv(EnvPrefix + "TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv(EnvPrefix + "TELEMETRY_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
	if val := os.Getenv(EnvPrefix + "TELEMETRY_TRACING_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Tracing.Enabled = b
		}
	}
	if val := os.Getenv(EnvPrefix + "TELEMETRY_TRACING_ENDPOINT"); val != "" {
		cfg.Telemetry.Tracing.Endpoint = val
	}
	if val := os.Getenv(EnvPrefix + "TELEMETRY_TRACING_SAMPLE_RATIO"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Telemetry.Tracing.SampleRatio = f
		}
	}

	for i := range cfg.Backends {
		applyBackendEnvOverrides(&cfg.Backends[i])
	}
}

var envNameCleaner = regexp.MustCompile(`[^A-Z0-9]+`)

// BackendEnvPrefix returns the override prefix for a backend,
// e.g. RALF_BACKENDS_OPENROUTER_FREE_ for "openrouter-free".
func BackendEnvPrefix(name string) string {
	return EnvPrefix + "BACKENDS_" + envNameCleaner.ReplaceAllString(strings.ToUpper(name), "_") + "_"
}

// applyBackendEnvOverrides applies environment variable overrides for one
// backend and resolves its API key from APIKeyEnv.
func applyBackendEnvOverrides(b *BackendConfig) {
	prefix := BackendEnvPrefix(b.Name)

	if val := os.Getenv(prefix + "API_KEY"); val != "" {
		b.APIKey = val
	}
	if val := os.Getenv(prefix + "BASE_URL"); val != "" {
		b.BaseURL = val
	}
	if val := os.Getenv(prefix + "MODEL"); val != "" {
		b.Model = val
	}
	envDuration(prefix+"TIMEOUT", &b.Timeout)
	if val := os.Getenv(prefix + "MAX_RETRIES"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			b.MaxRetries = i
		}
	}

	if b.APIKey == "" && b.APIKeyEnv != "" {
		b.APIKey = os.Getenv(b.APIKeyEnv)
	}
}

func envDuration(key string, dst *time.Duration) {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}

// withPort replaces the port of a host:port address. A bare port in PORT
// keeps the configured host.
func withPort(address, port string) string {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		host = ""
	}
	return net.JoinHostPort(host, port)
}
