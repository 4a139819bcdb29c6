package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// Probe checks a single dependency.
type Probe func(context.Context) error

// Healthcheck builds a readiness handler running each named probe with a
// short per-request deadline. Any probe failure yields 503 with the failing
// probe names in the body.
func Healthcheck(probes map[string]Probe) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		failed := make(map[string]string)
		for name, probe := range probes {
			if err := probe(ctx); err != nil {
				failed[name] = err.Error()
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if len(failed) > 0 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]any{"status": "unhealthy", "failed": failed})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "ok"})
	}
}
