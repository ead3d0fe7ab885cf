package config

import "time"

// Config is the root configuration structure for the Guardian proxy.
// It contains all configuration sections and is loaded from a YAML file
// with optional environment variable overrides.
type Config struct {
	// Proxy contains HTTP server configuration settings.
	Proxy ProxyConfig `yaml:"proxy"`

	// Upstream configures the single OpenAI-compatible model endpoint.
	Upstream UpstreamConfig `yaml:"upstream"`

	// Policy configures where the policy document lives and whether it is
	// watched for changes.
	Policy PolicyConfig `yaml:"policy"`

	// Audit configures the append-only audit log and its mirrors.
	Audit AuditConfig `yaml:"audit"`

	// Notify configures security notifications for blocked transactions.
	Notify NotifyConfig `yaml:"notify"`

	// Telemetry contains observability configuration (logging, metrics, tracing).
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ProxyConfig contains HTTP server configuration settings.
type ProxyConfig struct {
	// ListenAddress is the address and port the proxy server listens on.
	// Format: "host:port" (e.g., "127.0.0.1:8080" or "0.0.0.0:8080")
	// Default: "127.0.0.1:8080"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 30 seconds
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the response.
	// It must cover the upstream timeout.
	// Default: 60 seconds
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum amount of time to wait for the next request
	// when keep-alives are enabled.
	// Default: 120 seconds
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for in-flight
	// transactions during graceful shutdown.
	// Default: 30 seconds
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxBodyBytes caps the size of a chat completion request body.
	// Default: 1048576 (1MB)
	MaxBodyBytes int64 `yaml:"max_body_bytes"`
}

// UpstreamConfig configures the model endpoint requests are forwarded to.
type UpstreamConfig struct {
	// Name identifies the upstream in logs and errors.
	// Default: "openai"
	Name string `yaml:"name"`

	// BaseURL is the base URL of the OpenAI-compatible API.
	// Example: "https://api.openai.com/v1"
	BaseURL string `yaml:"base_url"`

	// Mock serves completions from an echo backend instead of BaseURL. It
	// is for demos and tests; run refuses to start without either.
	// Default: false
	Mock bool `yaml:"mock"`

	// APIKey is sent as a bearer token. Prefer GUARDIAN_UPSTREAM_API_KEY
	// over committing it to a file.
	APIKey string `yaml:"api_key"`

	// Timeout bounds a single upstream call, retries included.
	// Default: 30 seconds
	Timeout time.Duration `yaml:"timeout"`

	// MaxRetries is the number of retries for network errors and 5xx
	// responses.
	// Default: 0
	MaxRetries int `yaml:"max_retries"`

	// RetryBackoff is the initial backoff between retries.
	// Default: 500ms
	RetryBackoff time.Duration `yaml:"retry_backoff"`
}

// PolicyConfig configures the policy document.
type PolicyConfig struct {
	// FilePath is the path to the YAML policy document. When empty the
	// built-in fallback policy is used.
	FilePath string `yaml:"file_path"`

	// Watch enables hot reload when the file changes.
	// Default: false
	Watch bool `yaml:"watch"`

	// Debounce coalesces bursts of file events into one reload.
	// Default: 100ms
	Debounce time.Duration `yaml:"debounce"`
}

// AuditConfig configures the audit log.
type AuditConfig struct {
	// JSONLPath is the primary append-only audit file.
	// Default: "data/audit.jsonl"
	JSONLPath string `yaml:"jsonl_path"`

	// Sync fsyncs after every entry.
	// Default: false
	Sync bool `yaml:"sync"`

	// QueueSize is the capacity of the single writer's queue.
	// Default: 1024
	QueueSize int `yaml:"queue_size"`

	// WriteTimeout bounds a single append.
	// Default: 5 seconds
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// SQLite configures the indexed query mirror.
	SQLite SQLiteConfig `yaml:"sqlite"`

	// Kafka configures the streaming mirror.
	Kafka KafkaConfig `yaml:"kafka"`

	// Rotation configures scheduled rotation of the JSONL file.
	Rotation RotationConfig `yaml:"rotation"`
}

// SQLiteConfig configures the SQLite audit mirror.
type SQLiteConfig struct {
	Enabled bool `yaml:"enabled"`

	// Path is the database file path.
	// Default: "data/audit.db"
	Path string `yaml:"path"`

	// Driver is "sqlite" (pure Go) or "sqlite3" (cgo).
	// Default: "sqlite"
	Driver string `yaml:"driver"`
}

// KafkaConfig configures the Kafka audit mirror.
type KafkaConfig struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`

	// Topic receives one record per audit entry.
	// Default: "guardian.audit"
	Topic string `yaml:"topic"`
}

// RotationConfig configures JSONL rotation.
type RotationConfig struct {
	Enabled bool `yaml:"enabled"`

	// Schedule is a standard five-field cron expression.
	// Default: "0 0 * * *" (daily at midnight)
	Schedule string `yaml:"schedule"`
}

// NotifyConfig configures security notifications.
type NotifyConfig struct {
	// WebhookURL receives a JSON POST for each blocked transaction. When
	// empty, notifications are disabled.
	WebhookURL string `yaml:"webhook_url"`

	// Headers are added to every webhook request.
	Headers map[string]string `yaml:"headers"`

	// Timeout bounds a single delivery.
	// Default: 5 seconds
	Timeout time.Duration `yaml:"timeout"`

	// QueueSize is the number of pending notifications held before new
	// ones are dropped.
	// Default: 256
	QueueSize int `yaml:"queue_size"`

	// Workers is the number of delivery goroutines.
	// Default: 2
	Workers int `yaml:"workers"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	// Default: "info"
	Level string `yaml:"level"`

	// Format is the log output format: "json" or "text".
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes source file and line in log records.
	// Default: false
	AddSource bool `yaml:"add_source"`

	// RedactSensitive masks detector matches in log output.
	// Default: true
	RedactSensitive *bool `yaml:"redact_sensitive"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled exposes the metrics endpoint.
	// Default: true
	Enabled *bool `yaml:"enabled"`

	// Path is the HTTP path for the metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`
}

// TracingConfig contains OpenTelemetry tracing configuration.
type TracingConfig struct {
	// Enabled turns on span export.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Endpoint is the OTLP gRPC collector endpoint.
	// Example: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// Insecure disables TLS to the collector.
	Insecure bool `yaml:"insecure"`

	// Sampler is "always", "never" or "ratio".
	// Default: "always"
	Sampler string `yaml:"sampler"`

	// SampleRatio is used by the ratio sampler.
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio"`
}

// RedactLogs reports whether log redaction is on.
func (c LoggingConfig) RedactLogs() bool {
	return c.RedactSensitive == nil || *c.RedactSensitive
}

// MetricsEnabled reports whether the metrics endpoint is served.
func (c MetricsConfig) MetricsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}
