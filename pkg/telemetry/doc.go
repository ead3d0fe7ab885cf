// Package telemetry groups the proxy's observability packages.
//
//   - logging: slog setup with detector-based redaction and context fields
//   - metrics: Prometheus collector implementing every component observer
//   - tracing: OpenTelemetry span export over OTLP/gRPC
//   - health: the /health endpoint
package telemetry
