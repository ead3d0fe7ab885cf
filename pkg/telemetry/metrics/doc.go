// Package metrics exposes the proxy's Prometheus metrics.
//
// A single Collector is created at startup and handed to the scan engine,
// audit log, notification dispatcher, policy watcher and pipeline as their
// observer. Collector.Handler serves the registry on /metrics.
package metrics
