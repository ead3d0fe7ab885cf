package config

import "time"

// Default values for configuration fields.
const (
	// Proxy defaults
	DefaultListenAddress   = "127.0.0.1:8080"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 60 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMaxBodyBytes    = int64(1 << 20)

	// Upstream defaults
	DefaultUpstreamName         = "openai"
	DefaultUpstreamTimeout      = 30 * time.Second
	DefaultUpstreamRetryBackoff = 500 * time.Millisecond

	// Policy defaults
	DefaultPolicyDebounce = 100 * time.Millisecond

	// Audit defaults
	DefaultAuditJSONLPath      = "data/audit.jsonl"
	DefaultAuditQueueSize      = 1024
	DefaultAuditWriteTimeout   = 5 * time.Second
	DefaultAuditSQLitePath     = "data/audit.db"
	DefaultAuditSQLiteDriver   = "sqlite"
	DefaultAuditKafkaTopic     = "guardian.audit"
	DefaultAuditRotateSchedule = "0 0 * * *"

	// Notify defaults
	DefaultNotifyTimeout   = 5 * time.Second
	DefaultNotifyQueueSize = 256
	DefaultNotifyWorkers   = 2

	// Telemetry defaults
	DefaultLogLevel           = "info"
	DefaultLogFormat          = "json"
	DefaultMetricsPath        = "/metrics"
	DefaultTracingSampler     = "always"
	DefaultTracingSampleRatio = 1.0
)

// ApplyDefaults fills in zero-valued fields with defaults. Fields already
// set, by the file or by a caller, are left alone.
func ApplyDefaults(cfg *Config) {
	applyProxyDefaults(&cfg.Proxy)
	applyUpstreamDefaults(&cfg.Upstream)
	if cfg.Policy.Debounce == 0 {
		cfg.Policy.Debounce = DefaultPolicyDebounce
	}
	applyAuditDefaults(&cfg.Audit)
	applyNotifyDefaults(&cfg.Notify)
	applyTelemetryDefaults(&cfg.Telemetry)
}

func applyProxyDefaults(p *ProxyConfig) {
	if p.ListenAddress == "" {
		p.ListenAddress = DefaultListenAddress
	}
	if p.ReadTimeout == 0 {
		p.ReadTimeout = DefaultReadTimeout
	}
	if p.WriteTimeout == 0 {
		p.WriteTimeout = DefaultWriteTimeout
	}
	if p.IdleTimeout == 0 {
		p.IdleTimeout = DefaultIdleTimeout
	}
	if p.ShutdownTimeout == 0 {
		p.ShutdownTimeout = DefaultShutdownTimeout
	}
	if p.MaxBodyBytes == 0 {
		p.MaxBodyBytes = DefaultMaxBodyBytes
	}
}

func applyUpstreamDefaults(u *UpstreamConfig) {
	if u.Name == "" {
		u.Name = DefaultUpstreamName
	}
	if u.Timeout == 0 {
		u.Timeout = DefaultUpstreamTimeout
	}
	if u.RetryBackoff == 0 {
		u.RetryBackoff = DefaultUpstreamRetryBackoff
	}
}

func applyAuditDefaults(a *AuditConfig) {
	if a.JSONLPath == "" {
		a.JSONLPath = DefaultAuditJSONLPath
	}
	if a.QueueSize == 0 {
		a.QueueSize = DefaultAuditQueueSize
	}
	if a.WriteTimeout == 0 {
		a.WriteTimeout = DefaultAuditWriteTimeout
	}
	if a.SQLite.Path == "" {
		a.SQLite.Path = DefaultAuditSQLitePath
	}
	if a.SQLite.Driver == "" {
		a.SQLite.Driver = DefaultAuditSQLiteDriver
	}
	if a.Kafka.Topic == "" {
		a.Kafka.Topic = DefaultAuditKafkaTopic
	}
	if a.Rotation.Schedule == "" {
		a.Rotation.Schedule = DefaultAuditRotateSchedule
	}
}

func applyNotifyDefaults(n *NotifyConfig) {
	if n.Timeout == 0 {
		n.Timeout = DefaultNotifyTimeout
	}
	if n.QueueSize == 0 {
		n.QueueSize = DefaultNotifyQueueSize
	}
	if n.Workers == 0 {
		n.Workers = DefaultNotifyWorkers
	}
}

func applyTelemetryDefaults(t *TelemetryConfig) {
	if t.Logging.Level == "" {
		t.Logging.Level = DefaultLogLevel
	}
	if t.Logging.Format == "" {
		t.Logging.Format = DefaultLogFormat
	}
	if t.Metrics.Path == "" {
		t.Metrics.Path = DefaultMetricsPath
	}
	if t.Tracing.Sampler == "" {
		t.Tracing.Sampler = DefaultTracingSampler
	}
	if t.Tracing.SampleRatio == 0 {
		t.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
}
