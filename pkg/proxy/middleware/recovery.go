package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime/debug"

	"mercator-hq/guardian/pkg/proxy/types"
	"mercator-hq/guardian/pkg/telemetry/logging"
)

// RecoveryMiddleware recovers from panics in HTTP handlers and returns a 500
// Internal Server Error response in OpenAI error format. The panic value and
// stack are logged; neither is sent to the client.
//
// http.ErrAbortHandler is re-raised so net/http can abort the connection.
func RecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			logging.FromContext(r.Context()).ErrorContext(r.Context(), "panic in handler",
				"component", "proxy",
				"panic", rec,
				"method", r.Method,
				"path", r.URL.Path,
				"stack", string(debug.Stack()),
			)

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			if err := json.NewEncoder(w).Encode(types.NewServerError("An internal error occurred. Please try again later.")); err != nil {
				slog.Debug("failed to write panic response", "error", err)
			}
		}()

		next.ServeHTTP(w, r)
	})
}
