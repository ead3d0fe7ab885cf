package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "proxy.listen_address").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e *ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "configuration validation failed with %d errors:\n", len(e.Errors))
	for _, err := range e.Errors {
		fmt.Fprintf(&sb, "  - %s\n", err.Error())
	}
	return sb.String()
}

// Has reports whether field failed validation.
func (e *ValidationError) Has(field string) bool {
	for _, fe := range e.Errors {
		if fe.Field == field {
			return true
		}
	}
	return false
}

// Validate validates the entire configuration and returns a *ValidationError
// if any validation rules fail. All validation errors are collected and
// returned together.
func Validate(cfg *Config) error {
	var errs []FieldError
	errs = append(errs, validateProxy(&cfg.Proxy)...)
	errs = append(errs, validateUpstream(&cfg.Upstream)...)
	errs = append(errs, validatePolicy(&cfg.Policy)...)
	errs = append(errs, validateAudit(&cfg.Audit)...)
	errs = append(errs, validateNotify(&cfg.Notify)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

// ValidateForRun is Validate plus the requirements of serving traffic: an
// upstream base_url unless the mock upstream is enabled.
func ValidateForRun(cfg *Config) error {
	err := Validate(cfg)
	if cfg.Upstream.Mock || cfg.Upstream.BaseURL != "" {
		return err
	}
	verr, _ := err.(*ValidationError)
	if verr == nil {
		verr = &ValidationError{}
	}
	verr.Errors = append(verr.Errors, FieldError{"upstream.base_url", "is required unless upstream.mock is enabled"})
	return verr
}

func validateProxy(p *ProxyConfig) []FieldError {
	var errs []FieldError
	if _, _, err := net.SplitHostPort(p.ListenAddress); err != nil {
		errs = append(errs, FieldError{"proxy.listen_address", fmt.Sprintf("invalid host:port %q", p.ListenAddress)})
	}
	if p.ReadTimeout < 0 {
		errs = append(errs, FieldError{"proxy.read_timeout", "must not be negative"})
	}
	if p.WriteTimeout < 0 {
		errs = append(errs, FieldError{"proxy.write_timeout", "must not be negative"})
	}
	if p.IdleTimeout < 0 {
		errs = append(errs, FieldError{"proxy.idle_timeout", "must not be negative"})
	}
	if p.ShutdownTimeout < 0 {
		errs = append(errs, FieldError{"proxy.shutdown_timeout", "must not be negative"})
	}
	if p.MaxBodyBytes <= 0 {
		errs = append(errs, FieldError{"proxy.max_body_bytes", "must be positive"})
	}
	return errs
}

// validateUpstream leaves base_url optional so commands that never call the
// upstream can load the file; ValidateForRun requires it. When set it must be
// an http(s) URL.
func validateUpstream(u *UpstreamConfig) []FieldError {
	var errs []FieldError
	if u.BaseURL != "" {
		parsed, err := url.Parse(u.BaseURL)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			errs = append(errs, FieldError{"upstream.base_url", fmt.Sprintf("must be an http or https URL, got %q", u.BaseURL)})
		}
	}
	if u.Timeout <= 0 {
		errs = append(errs, FieldError{"upstream.timeout", "must be positive"})
	}
	if u.MaxRetries < 0 {
		errs = append(errs, FieldError{"upstream.max_retries", "must not be negative"})
	}
	if u.RetryBackoff < 0 {
		errs = append(errs, FieldError{"upstream.retry_backoff", "must not be negative"})
	}
	return errs
}

func validatePolicy(p *PolicyConfig) []FieldError {
	var errs []FieldError
	if p.Watch && p.FilePath == "" {
		errs = append(errs, FieldError{"policy.watch", "requires policy.file_path"})
	}
	if p.Debounce < 0 {
		errs = append(errs, FieldError{"policy.debounce", "must not be negative"})
	}
	return errs
}

func validateAudit(a *AuditConfig) []FieldError {
	var errs []FieldError
	if a.JSONLPath == "" {
		errs = append(errs, FieldError{"audit.jsonl_path", "is required"})
	}
	if a.QueueSize <= 0 {
		errs = append(errs, FieldError{"audit.queue_size", "must be positive"})
	}
	if a.SQLite.Enabled {
		if a.SQLite.Path == "" {
			errs = append(errs, FieldError{"audit.sqlite.path", "is required when sqlite is enabled"})
		}
		if a.SQLite.Driver != "sqlite" && a.SQLite.Driver != "sqlite3" {
			errs = append(errs, FieldError{"audit.sqlite.driver", fmt.Sprintf("must be sqlite or sqlite3, got %q", a.SQLite.Driver)})
		}
	}
	if a.Kafka.Enabled {
		if len(a.Kafka.Brokers) == 0 {
			errs = append(errs, FieldError{"audit.kafka.brokers", "at least one broker is required when kafka is enabled"})
		}
		if a.Kafka.Topic == "" {
			errs = append(errs, FieldError{"audit.kafka.topic", "is required when kafka is enabled"})
		}
	}
	if a.Rotation.Enabled {
		if _, err := cron.ParseStandard(a.Rotation.Schedule); err != nil {
			errs = append(errs, FieldError{"audit.rotation.schedule", fmt.Sprintf("invalid cron expression: %v", err)})
		}
	}
	return errs
}

func validateNotify(n *NotifyConfig) []FieldError {
	var errs []FieldError
	if n.WebhookURL != "" {
		parsed, err := url.Parse(n.WebhookURL)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			errs = append(errs, FieldError{"notify.webhook_url", fmt.Sprintf("must be an http or https URL, got %q", n.WebhookURL)})
		}
	}
	if n.QueueSize <= 0 {
		errs = append(errs, FieldError{"notify.queue_size", "must be positive"})
	}
	if n.Workers <= 0 {
		errs = append(errs, FieldError{"notify.workers", "must be positive"})
	}
	return errs
}

func validateTelemetry(t *TelemetryConfig) []FieldError {
	var errs []FieldError
	switch strings.ToLower(t.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, FieldError{"telemetry.logging.level", fmt.Sprintf("must be one of debug, info, warn, error, got %q", t.Logging.Level)})
	}
	switch strings.ToLower(t.Logging.Format) {
	case "json", "text":
	default:
		errs = append(errs, FieldError{"telemetry.logging.format", fmt.Sprintf("must be json or text, got %q", t.Logging.Format)})
	}
	if !strings.HasPrefix(t.Metrics.Path, "/") {
		errs = append(errs, FieldError{"telemetry.metrics.path", "must start with /"})
	}
	if t.Tracing.Enabled && t.Tracing.Endpoint == "" {
		errs = append(errs, FieldError{"telemetry.tracing.endpoint", "is required when tracing is enabled"})
	}
	switch t.Tracing.Sampler {
	case "always", "never":
	case "ratio":
		if t.Tracing.SampleRatio < 0 || t.Tracing.SampleRatio > 1 {
			errs = append(errs, FieldError{"telemetry.tracing.sample_ratio", "must be between 0.0 and 1.0"})
		}
	default:
		errs = append(errs, FieldError{"telemetry.tracing.sampler", fmt.Sprintf("must be always, never or ratio, got %q", t.Tracing.Sampler)})
	}
	return errs
}
