// Package tracing sets up OpenTelemetry span export over OTLP/gRPC.
//
// The pipeline creates its spans (pipeline.handle, pipeline.input_scan,
// pipeline.upstream, pipeline.output_scan) through the global provider, so
// New only has to be called once at startup. With tracing disabled every
// span is a no-op.
package tracing
