// Package providers is the upstream model abstraction used by the pipeline.
//
// A Provider sends one non-streaming completion and reports failures through
// the typed errors in errors.go. HTTPProvider supplies pooled connections,
// per-attempt timeouts and transport retries for 5xx and network errors; the
// openai subpackage builds on it. MockProvider serves tests and the
// --mock-upstream mode of the CLI.
//
// Retries here are transport-level only. A transaction that reaches the
// pipeline's upstream step is never re-sent once a response has been scanned.
package providers
