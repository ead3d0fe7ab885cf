package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/guardian/pkg/audit"
	"mercator-hq/guardian/pkg/scan"
)

// Config controls metric naming and buckets.
type Config struct {
	// Namespace prefixes every metric name. Defaults to "guardian".
	Namespace string

	// DurationBuckets are used for transaction and upstream latencies.
	DurationBuckets []float64
}

// Collector owns every Prometheus metric of the proxy. It implements the
// observer interfaces of the scan engine, audit log, notification
// dispatcher and pipeline, so wiring is a matter of passing it around.
type Collector struct {
	registry *prometheus.Registry

	transactions *TransactionMetrics
	policy       *PolicyMetrics
	audit        *AuditMetrics

	notificationsTotal *prometheus.CounterVec
}

// NewCollector creates a collector registered on registry. If registry is
// nil a fresh one is created.
func NewCollector(cfg Config, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "guardian"
	}
	if len(cfg.DurationBuckets) == 0 {
		// LLM round trips: 10ms to 60s
		cfg.DurationBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}
	}

	c := &Collector{
		registry:     registry,
		transactions: NewTransactionMetrics(cfg, registry),
		policy:       NewPolicyMetrics(cfg, registry),
		audit:        NewAuditMetrics(cfg, registry),
		notificationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "notifications_total",
				Help:      "Block notifications by sink and result (delivered, failed, dropped)",
			},
			[]string{"sink", "result"},
		),
	}
	registry.MustRegister(c.notificationsTotal)
	return c
}

// Registry returns the underlying Prometheus registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// ObserveTransaction implements pipeline.Observer.
func (c *Collector) ObserveTransaction(outcome string, d time.Duration) {
	c.transactions.transactionsTotal.WithLabelValues(outcome).Inc()
	c.transactions.transactionDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// ObserveUpstream implements pipeline.Observer.
func (c *Collector) ObserveUpstream(d time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	c.transactions.upstreamTotal.WithLabelValues(result).Inc()
	c.transactions.upstreamDuration.Observe(d.Seconds())
}

// ObserveScan implements scan.Observer.
func (c *Collector) ObserveScan(r *scan.Result) {
	c.policy.scansTotal.WithLabelValues(string(r.Phase), string(r.Status)).Inc()
	for _, v := range r.Violations {
		action := string(v.Action)
		if v.Suppressed {
			action += "_SUPPRESSED"
		}
		c.policy.violationsTotal.WithLabelValues(v.Detector, action).Inc()
	}
	for _, f := range r.Faults {
		c.policy.detectorFaultsTotal.WithLabelValues(f.Detector).Inc()
	}
}

// ObservePolicyReload records a hot reload attempt.
func (c *Collector) ObservePolicyReload(err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	c.policy.reloadsTotal.WithLabelValues(result).Inc()
}

// SetPolicyFallback records whether the builtin fallback policy is active.
func (c *Collector) SetPolicyFallback(active bool) {
	if active {
		c.policy.fallbackActive.Set(1)
		return
	}
	c.policy.fallbackActive.Set(0)
}

// ObserveAuditWrite implements audit.Observer.
func (c *Collector) ObserveAuditWrite(e audit.Entry, d time.Duration, err error) {
	c.audit.writeDuration.Observe(d.Seconds())
	if err != nil {
		c.audit.writeFailuresTotal.Inc()
		return
	}
	c.audit.writesTotal.WithLabelValues(string(e.EventType), string(e.Status)).Inc()
}

// ObserveMirrorError matches audit.MultiStore.OnMirrorError.
func (c *Collector) ObserveMirrorError(backend string, _ error) {
	c.audit.mirrorFailuresTotal.WithLabelValues(backend).Inc()
}

// ObserveNotification implements notify.Observer.
func (c *Collector) ObserveNotification(sink, result string) {
	c.notificationsTotal.WithLabelValues(sink, result).Inc()
}
