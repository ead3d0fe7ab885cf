package health

import (
	"encoding/json"
	"net/http"
)

// Handler serves GET /health: 200 when every check passes, 503 otherwise.
//
// Example response:
//
//	{
//	    "status": "degraded",
//	    "version": "0.3.0",
//	    "checks": {
//	        "policy": {"status": "unhealthy", "message": "builtin fallback policy active"},
//	        "audit": {"status": "ok"}
//	    },
//	    "timestamp": "2025-11-20T10:30:00Z"
//	}
func (c *Checker) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		status := c.Check(r.Context())

		w.Header().Set("Content-Type", "application/json")
		if status.Status != "ok" {
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK)
		}
		if r.Method != http.MethodHead {
			_ = json.NewEncoder(w).Encode(status)
		}
	}
}
