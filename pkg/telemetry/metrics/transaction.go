package metrics

import "github.com/prometheus/client_golang/prometheus"

// TransactionMetrics tracks pipeline outcomes and upstream latency.
//
// Metrics:
//   - guardian_transactions_total: transactions by outcome
//   - guardian_transaction_duration_seconds: end-to-end pipeline latency
//   - guardian_upstream_requests_total: upstream calls by result
//   - guardian_upstream_duration_seconds: upstream call latency
type TransactionMetrics struct {
	transactionsTotal   *prometheus.CounterVec
	transactionDuration *prometheus.HistogramVec
	upstreamTotal       *prometheus.CounterVec
	upstreamDuration    prometheus.Histogram
}

// NewTransactionMetrics creates and registers transaction metrics.
func NewTransactionMetrics(cfg Config, registry *prometheus.Registry) *TransactionMetrics {
	tm := &TransactionMetrics{
		transactionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "transactions_total",
				Help:      "Pipeline transactions by outcome",
			},
			[]string{"outcome"},
		),
		transactionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "transaction_duration_seconds",
				Help:      "End-to-end pipeline duration in seconds",
				Buckets:   cfg.DurationBuckets,
			},
			[]string{"outcome"},
		),
		upstreamTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "upstream_requests_total",
				Help:      "Upstream completion calls by result",
			},
			[]string{"result"},
		),
		upstreamDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "upstream_duration_seconds",
				Help:      "Upstream completion call duration in seconds",
				Buckets:   cfg.DurationBuckets,
			},
		),
	}
	registry.MustRegister(tm.transactionsTotal, tm.transactionDuration, tm.upstreamTotal, tm.upstreamDuration)
	return tm
}
