package metrics

import "github.com/prometheus/client_golang/prometheus"

// PolicyMetrics tracks scan decisions and policy lifecycle.
//
// Metrics:
//   - guardian_scans_total: scans by phase and status
//   - guardian_violations_total: violations by detector and action
//   - guardian_detector_faults_total: detectors skipped because of a fault
//   - guardian_policy_reloads_total: hot reload attempts by result
//   - guardian_policy_fallback_active: 1 while the builtin fallback is in use
type PolicyMetrics struct {
	scansTotal          *prometheus.CounterVec
	violationsTotal     *prometheus.CounterVec
	detectorFaultsTotal *prometheus.CounterVec
	reloadsTotal        *prometheus.CounterVec
	fallbackActive      prometheus.Gauge
}

// NewPolicyMetrics creates and registers policy metrics.
func NewPolicyMetrics(cfg Config, registry *prometheus.Registry) *PolicyMetrics {
	pm := &PolicyMetrics{
		scansTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "scans_total",
				Help:      "Scans by phase and resulting status",
			},
			[]string{"phase", "status"},
		),
		violationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "violations_total",
				Help:      "Detector violations by detector and action",
			},
			[]string{"detector", "action"},
		),
		detectorFaultsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "detector_faults_total",
				Help:      "Detectors skipped during a scan because of a fault",
			},
			[]string{"detector"},
		),
		reloadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "policy_reloads_total",
				Help:      "Policy hot reload attempts by result",
			},
			[]string{"result"},
		),
		fallbackActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Name:      "policy_fallback_active",
				Help:      "1 when the builtin fallback policy is active",
			},
		),
	}
	registry.MustRegister(pm.scansTotal, pm.violationsTotal, pm.detectorFaultsTotal, pm.reloadsTotal, pm.fallbackActive)
	return pm
}
