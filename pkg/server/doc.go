// Package server hosts the Guardian HTTP endpoints.
//
//	POST /v1/chat/completions  the enforcement pipeline
//	GET  /health               health checks
//	GET  /metrics              Prometheus metrics (path configurable)
//
// Background tasks such as the policy watcher and audit rotation run in the
// same errgroup as the HTTP server, so a failure in any of them stops the
// process instead of leaving it half alive.
package server
