package metrics

import "github.com/prometheus/client_golang/prometheus"

// AuditMetrics tracks the audit trail.
//
// Metrics:
//   - guardian_audit_writes_total: entries appended by event type and status
//   - guardian_audit_write_failures_total: primary store append failures
//   - guardian_audit_write_duration_seconds: append latency
//   - guardian_audit_mirror_failures_total: mirror store failures by backend
type AuditMetrics struct {
	writesTotal         *prometheus.CounterVec
	writeFailuresTotal  prometheus.Counter
	writeDuration       prometheus.Histogram
	mirrorFailuresTotal *prometheus.CounterVec
}

// NewAuditMetrics creates and registers audit metrics.
func NewAuditMetrics(cfg Config, registry *prometheus.Registry) *AuditMetrics {
	am := &AuditMetrics{
		writesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "audit_writes_total",
				Help:      "Audit entries appended by event type and status",
			},
			[]string{"event_type", "status"},
		),
		writeFailuresTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "audit_write_failures_total",
				Help:      "Audit entries the primary store failed to append",
			},
		),
		writeDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "audit_write_duration_seconds",
				Help:      "Audit append duration in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8), // 100µs to 1.6s
			},
		),
		mirrorFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "audit_mirror_failures_total",
				Help:      "Audit mirror append failures by backend",
			},
			[]string{"backend"},
		),
	}
	registry.MustRegister(am.writesTotal, am.writeFailuresTotal, am.writeDuration, am.mirrorFailuresTotal)
	return am
}
