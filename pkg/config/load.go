package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of every environment override.
const EnvPrefix = "GUARDIAN_"

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any errors.
// The configuration is not modified by environment variables; use LoadConfigWithEnvOverrides
// for that functionality.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention GUARDIAN_SECTION_FIELD (e.g., GUARDIAN_PROXY_LISTEN_ADDRESS).
// Environment variables always take precedence over file-based configuration.
//
// An empty path starts from defaults instead of a file.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	var cfg *Config
	if path == "" {
		cfg = &Config{}
		ApplyDefaults(cfg)
	} else {
		var err error
		cfg, err = LoadConfig(path)
		if err != nil {
			return nil, err
		}
	}

	if err := applyEnvOverrides(cfg, os.LookupEnv); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("after environment overrides: %w", err)
	}
	return cfg, nil
}

// envReader reads overrides. Unparseable values are reported, not skipped,
// so a typo in a deployment manifest fails startup.
type envReader struct {
	lookup func(string) (string, bool)
	errs   []FieldError
}

func (r *envReader) get(name string) (string, bool) {
	v, ok := r.lookup(EnvPrefix + name)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func (r *envReader) str(name string, dst *string) {
	if v, ok := r.get(name); ok {
		*dst = v
	}
}

func (r *envReader) duration(name string, dst *time.Duration) {
	if v, ok := r.get(name); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			r.fail(name, err)
			return
		}
		*dst = d
	}
}

func (r *envReader) boolean(name string, dst *bool) {
	if v, ok := r.get(name); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			r.fail(name, err)
			return
		}
		*dst = b
	}
}

func (r *envReader) boolPtr(name string, dst **bool) {
	if v, ok := r.get(name); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			r.fail(name, err)
			return
		}
		*dst = &b
	}
}

func (r *envReader) integer(name string, dst *int) {
	if v, ok := r.get(name); ok {
		i, err := strconv.Atoi(v)
		if err != nil {
			r.fail(name, err)
			return
		}
		*dst = i
	}
}

func (r *envReader) integer64(name string, dst *int64) {
	if v, ok := r.get(name); ok {
		i, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			r.fail(name, err)
			return
		}
		*dst = i
	}
}

func (r *envReader) float(name string, dst *float64) {
	if v, ok := r.get(name); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			r.fail(name, err)
			return
		}
		*dst = f
	}
}

func (r *envReader) list(name string, dst *[]string) {
	if v, ok := r.get(name); ok {
		var out []string
		for _, item := range strings.Split(v, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
		*dst = out
	}
}

func (r *envReader) fail(name string, err error) {
	r.errs = append(r.errs, FieldError{Field: EnvPrefix + name, Message: err.Error()})
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config, lookup func(string) (string, bool)) error {
	r := &envReader{lookup: lookup}

	// Proxy overrides
	r.str("PROXY_LISTEN_ADDRESS", &cfg.Proxy.ListenAddress)
	r.duration("PROXY_READ_TIMEOUT", &cfg.Proxy.ReadTimeout)
	r.duration("PROXY_WRITE_TIMEOUT", &cfg.Proxy.WriteTimeout)
	r.duration("PROXY_IDLE_TIMEOUT", &cfg.Proxy.IdleTimeout)
	r.duration("PROXY_SHUTDOWN_TIMEOUT", &cfg.Proxy.ShutdownTimeout)
	r.integer64("PROXY_MAX_BODY_BYTES", &cfg.Proxy.MaxBodyBytes)

	// Upstream overrides
	r.str("UPSTREAM_NAME", &cfg.Upstream.Name)
	r.str("UPSTREAM_BASE_URL", &cfg.Upstream.BaseURL)
	r.boolean("UPSTREAM_MOCK", &cfg.Upstream.Mock)
	r.str("UPSTREAM_API_KEY", &cfg.Upstream.APIKey)
	r.duration("UPSTREAM_TIMEOUT", &cfg.Upstream.Timeout)
	r.integer("UPSTREAM_MAX_RETRIES", &cfg.Upstream.MaxRetries)
	r.duration("UPSTREAM_RETRY_BACKOFF", &cfg.Upstream.RetryBackoff)

	// Policy overrides
	r.str("POLICY_FILE_PATH", &cfg.Policy.FilePath)
	r.boolean("POLICY_WATCH", &cfg.Policy.Watch)
	r.duration("POLICY_DEBOUNCE", &cfg.Policy.Debounce)

	// Audit overrides
	r.str("AUDIT_JSONL_PATH", &cfg.Audit.JSONLPath)
	r.boolean("AUDIT_SYNC", &cfg.Audit.Sync)
	r.integer("AUDIT_QUEUE_SIZE", &cfg.Audit.QueueSize)
	r.duration("AUDIT_WRITE_TIMEOUT", &cfg.Audit.WriteTimeout)
	r.boolean("AUDIT_SQLITE_ENABLED", &cfg.Audit.SQLite.Enabled)
	r.str("AUDIT_SQLITE_PATH", &cfg.Audit.SQLite.Path)
	r.str("AUDIT_SQLITE_DRIVER", &cfg.Audit.SQLite.Driver)
	r.boolean("AUDIT_KAFKA_ENABLED", &cfg.Audit.Kafka.Enabled)
	r.list("AUDIT_KAFKA_BROKERS", &cfg.Audit.Kafka.Brokers)
	r.str("AUDIT_KAFKA_TOPIC", &cfg.Audit.Kafka.Topic)
	r.boolean("AUDIT_ROTATION_ENABLED", &cfg.Audit.Rotation.Enabled)
	r.str("AUDIT_ROTATION_SCHEDULE", &cfg.Audit.Rotation.Schedule)

	// Notify overrides
	r.str("NOTIFY_WEBHOOK_URL", &cfg.Notify.WebhookURL)
	r.duration("NOTIFY_TIMEOUT", &cfg.Notify.Timeout)
	r.integer("NOTIFY_QUEUE_SIZE", &cfg.Notify.QueueSize)
	r.integer("NOTIFY_WORKERS", &cfg.Notify.Workers)

	// Telemetry overrides
	r.str("TELEMETRY_LOGGING_LEVEL", &cfg.Telemetry.Logging.Level)
	r.str("TELEMETRY_LOGGING_FORMAT", &cfg.Telemetry.Logging.Format)
	r.boolean("TELEMETRY_LOGGING_ADD_SOURCE", &cfg.Telemetry.Logging.AddSource)
	r.boolPtr("TELEMETRY_LOGGING_REDACT_SENSITIVE", &cfg.Telemetry.Logging.RedactSensitive)
	r.boolPtr("TELEMETRY_METRICS_ENABLED", &cfg.Telemetry.Metrics.Enabled)
	r.str("TELEMETRY_METRICS_PATH", &cfg.Telemetry.Metrics.Path)
	r.boolean("TELEMETRY_TRACING_ENABLED", &cfg.Telemetry.Tracing.Enabled)
	r.str("TELEMETRY_TRACING_ENDPOINT", &cfg.Telemetry.Tracing.Endpoint)
	r.boolean("TELEMETRY_TRACING_INSECURE", &cfg.Telemetry.Tracing.Insecure)
	r.str("TELEMETRY_TRACING_SAMPLER", &cfg.Telemetry.Tracing.Sampler)
	r.float("TELEMETRY_TRACING_SAMPLE_RATIO", &cfg.Telemetry.Tracing.SampleRatio)

	if len(r.errs) > 0 {
		return &ValidationError{Errors: r.errs}
	}
	return nil
}
