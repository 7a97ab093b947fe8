package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"
)

// Probe checks one dependency. A nil error means healthy.
type Probe func(ctx context.Context) error

// accepting tracks whether the process should report ready. Shutdown flips it
// off so load balancers drain the instance before the listener closes.
var accepting atomic.Bool

func init() { accepting.Store(true) }

// SetReady toggles the readiness gate.
func SetReady(ready bool) { accepting.Store(ready) }

// Handler exposes HTTP handlers for health endpoints. Probes are optional:
// a file-backed deployment registers only the Redis probe, a Postgres-backed
// one registers both.
type Handler struct {
	Probes  map[string]Probe
	Timeout time.Duration
}

// Live reports liveness status.
func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready reports readiness based on the registered probes and the shutdown
// gate.
func (h Handler) Ready(w http.ResponseWriter, r *http.Request) {
	status := make(map[string]string, len(h.Probes))
	healthy := accepting.Load()
	if !healthy {
		status["server"] = "draining"
	}

	for name, probe := range h.Probes {
		if probe == nil {
			continue
		}
		ctx, cancel := context.WithTimeout(r.Context(), h.timeout())
		err := probe(ctx)
		cancel()
		if err != nil {
			status[name] = err.Error()
			healthy = false
			continue
		}
		status[name] = "ok"
	}

	w.Header().Set("Content-Type", "application/json")
	if healthy {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(status)
}

func (h Handler) timeout() time.Duration {
	if h.Timeout <= 0 {
		return 500 * time.Millisecond
	}
	return h.Timeout
}
