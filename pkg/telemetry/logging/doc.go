// Package logging configures log/slog for the proxy.
//
// New returns a JSON or text logger. With RedactSensitive set, a ReplaceAttr
// hook runs string and error attributes through the detector registry so
// that SSNs, keys and other detected values never reach the log sink.
//
// Request-scoped fields travel in the context:
//
//	ctx = logging.WithRequestID(ctx, id)
//	slog.InfoContext(ctx, "handled")   // carries request_id
package logging
