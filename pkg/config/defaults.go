package config

import "time"

// Default values for configuration fields.
const (
	// Proxy defaults
	DefaultListenAddress   = "0.0.0.0:3000"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 10 * time.Minute
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMaxHeaderBytes  = 1048576 // 1MB
	DefaultMaxBodyBytes    = int64(1048576)

	// CORS defaults
	DefaultCORSEnabled = true
	DefaultCORSMaxAge  = 3600 // 1 hour

	// Backend defaults
	DefaultBackendTimeout = 60 * time.Second

	// Routing defaults
	DefaultCooldown = time.Hour

	// Journal defaults
	DefaultJournalEnabled       = true
	DefaultJournalBackend       = "memory"
	DefaultJournalSQLitePath    = "data/journal.db"
	DefaultJournalSQLiteDriver  = "sqlite"
	DefaultJournalMaxOpenConns  = 10
	DefaultJournalMaxIdleConns  = 5
	DefaultJournalWALMode       = true
	DefaultJournalBusyTimeout   = 5 * time.Second
	DefaultJournalMemoryMax     = 10000
	DefaultJournalAsyncBuffer   = 1000
	DefaultJournalWriteTimeout  = 5 * time.Second
	DefaultJournalRetentionDays = 7
	DefaultJournalPruneSchedule = "0 3 * * *"
	DefaultJournalQueryLimit    = 50
	DefaultJournalQueryMaxLimit = 1000

	// Telemetry defaults
	DefaultLoggingLevel        = "info"
	DefaultLoggingFormat       = "json"
	DefaultLoggingRedactKeys   = true
	DefaultMetricsEnabled      = true
	DefaultPrometheusPath      = "/metrics"
	DefaultMetricsNamespace    = "ralf"
	DefaultMetricsSubsystem    = "gateway"
	DefaultTracingSampler      = "ratio"
	DefaultTracingSamplingRate = 1.0
	DefaultTracingServiceName  = "api-ralf"
	DefaultOTLPInsecure        = true
	DefaultOTLPTimeout         = 10 * time.Second
	DefaultHealthEnabled       = true
	DefaultLivenessPath        = "/health"
	DefaultReadinessPath       = "/ready"
	DefaultVersionPath         = "/version"
	DefaultHealthCheckTimeout  = 5 * time.Second
)

// DefaultRequestDurationBuckets are the histogram buckets for request
// duration. Streams run for seconds, so the upper buckets are wide.
var DefaultRequestDurationBuckets = []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0}

// DefaultBackends reproduces the gateway's out-of-the-box setup: Gemini
// first, then OpenRouter, keys taken from GEMINI_API_KEY and
// OPENROUTER_API_KEY.
func DefaultBackends() []BackendConfig {
	return []BackendConfig{
		{Name: "gemini", Type: "gemini"},
		{Name: "openrouter", Type: "openrouter"},
	}
}

// NewDefaultConfig returns a Config with every default applied, including
// boolean defaults. YAML is decoded on top of it so that keys missing from
// the file keep their default.
func NewDefaultConfig() *Config {
	cfg := &Config{}
	cfg.Proxy.CORS.Enabled = DefaultCORSEnabled
	cfg.Journal.Enabled = DefaultJournalEnabled
	cfg.Journal.SQLite.WALMode = DefaultJournalWALMode
	cfg.Telemetry.Logging.RedactKeys = DefaultLoggingRedactKeys
	cfg.Telemetry.Metrics.Enabled = DefaultMetricsEnabled
	cfg.Telemetry.Tracing.OTLP.Insecure = DefaultOTLPInsecure
	cfg.Telemetry.Health.Enabled = DefaultHealthEnabled
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values. Booleans are left
// alone; NewDefaultConfig seeds them.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Proxy defaults
	if cfg.Proxy.ListenAddress == "" {
		cfg.Proxy.ListenAddress = DefaultListenAddress
	}
	if cfg.Proxy.ReadTimeout == 0 {
		cfg.Proxy.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Proxy.WriteTimeout == 0 {
		cfg.Proxy.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Proxy.IdleTimeout == 0 {
		cfg.Proxy.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Proxy.ShutdownTimeout == 0 {
		cfg.Proxy.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Proxy.MaxHeaderBytes == 0 {
		cfg.Proxy.MaxHeaderBytes = DefaultMaxHeaderBytes
	}
	if cfg.Proxy.MaxBodyBytes == 0 {
		cfg.Proxy.MaxBodyBytes = DefaultMaxBodyBytes
	}
	applyCORSDefaults(&cfg.Proxy.CORS)

	// Backend defaults - applied to each backend
	if len(cfg.Backends) == 0 {
		cfg.Backends = DefaultBackends()
	}
	for i := range cfg.Backends {
		b := &cfg.Backends[i]
		if b.Type == "" {
			b.Type = b.Name
		}
		if b.APIKeyEnv == "" {
			b.APIKeyEnv = defaultAPIKeyEnv(b.Type)
		}
		if b.Timeout == 0 {
			b.Timeout = DefaultBackendTimeout
		}
	}

	// Routing defaults
	if cfg.Routing.Cooldown == 0 {
		cfg.Routing.Cooldown = DefaultCooldown
	}

	// Journal defaults
	j := &cfg.Journal
	if j.Backend == "" {
		j.Backend = DefaultJournalBackend
	}
	if j.SQLite.Path == "" {
		j.SQLite.Path = DefaultJournalSQLitePath
	}
	if j.SQLite.Driver == "" {
		j.SQLite.Driver = DefaultJournalSQLiteDriver
	}
	if j.SQLite.MaxOpenConns == 0 {
		j.SQLite.MaxOpenConns = DefaultJournalMaxOpenConns
	}
	if j.SQLite.MaxIdleConns == 0 {
		j.SQLite.MaxIdleConns = DefaultJournalMaxIdleConns
	}
	if j.SQLite.BusyTimeout == 0 {
		j.SQLite.BusyTimeout = DefaultJournalBusyTimeout
	}
	if j.Memory.MaxRecords == 0 {
		j.Memory.MaxRecords = DefaultJournalMemoryMax
	}
	if j.Recorder.AsyncBuffer == 0 {
		j.Recorder.AsyncBuffer = DefaultJournalAsyncBuffer
	}
	if j.Recorder.WriteTimeout == 0 {
		j.Recorder.WriteTimeout = DefaultJournalWriteTimeout
	}
	if j.Retention.Days == 0 {
		j.Retention.Days = DefaultJournalRetentionDays
	}
	if j.Retention.PruneSchedule == "" {
		j.Retention.PruneSchedule = DefaultJournalPruneSchedule
	}
	if j.Query.DefaultLimit == 0 {
		j.Query.DefaultLimit = DefaultJournalQueryLimit
	}
	if j.Query.MaxLimit == 0 {
		j.Query.MaxLimit = DefaultJournalQueryMaxLimit
	}

	// Telemetry defaults
	t := &cfg.Telemetry
	if t.Logging.Level == "" {
		t.Logging.Level = DefaultLoggingLevel
	}
	if t.Logging.Format == "" {
		t.Logging.Format = DefaultLoggingFormat
	}
	if t.Metrics.Path == "" {
		t.Metrics.Path = DefaultPrometheusPath
	}
	if t.Metrics.Namespace == "" {
		t.Metrics.Namespace = DefaultMetricsNamespace
	}
	if t.Metrics.Subsystem == "" {
		t.Metrics.Subsystem = DefaultMetricsSubsystem
	}
	if len(t.Metrics.RequestDurationBuckets) == 0 {
		t.Metrics.RequestDurationBuckets = append([]float64(nil), DefaultRequestDurationBuckets...)
	}
	if t.Tracing.Sampler == "" {
		t.Tracing.Sampler = DefaultTracingSampler
	}
	if t.Tracing.SampleRatio == 0 {
		t.Tracing.SampleRatio = DefaultTracingSamplingRate
	}
	if t.Tracing.ServiceName == "" {
		t.Tracing.ServiceName = DefaultTracingServiceName
	}
	if t.Tracing.OTLP.Timeout == 0 {
		t.Tracing.OTLP.Timeout = DefaultOTLPTimeout
	}
	if t.Health.LivenessPath == "" {
		t.Health.LivenessPath = DefaultLivenessPath
	}
	if t.Health.ReadinessPath == "" {
		t.Health.ReadinessPath = DefaultReadinessPath
	}
	if t.Health.VersionPath == "" {
		t.Health.VersionPath = DefaultVersionPath
	}
	if t.Health.CheckTimeout == 0 {
		t.Health.CheckTimeout = DefaultHealthCheckTimeout
	}
}

// applyCORSDefaults applies default values to CORS configuration.
func applyCORSDefaults(cors *CORSConfig) {
	if len(cors.AllowedOrigins) == 0 {
		cors.AllowedOrigins = []string{"*"}
	}
	if len(cors.AllowedMethods) == 0 {
		cors.AllowedMethods = []string{"GET", "POST", "OPTIONS"}
	}
	if len(cors.AllowedHeaders) == 0 {
		cors.AllowedHeaders = []string{"Authorization", "Content-Type", "X-Request-ID"}
	}
	if len(cors.ExposedHeaders) == 0 {
		cors.ExposedHeaders = []string{"X-Request-ID", "X-RALF-Backend"}
	}
	if cors.MaxAge == 0 {
		cors.MaxAge = DefaultCORSMaxAge
	}
}

// defaultAPIKeyEnv returns the conventional key variable for a backend type.
func defaultAPIKeyEnv(backendType string) string {
	switch backendType {
	case "gemini":
		return "GEMINI_API_KEY"
	case "openrouter":
		return "OPENROUTER_API_KEY"
	case "openai":
		return "OPENAI_API_KEY"
	case "anthropic":
		return "ANTHROPIC_API_KEY"
	}
	return ""
}
