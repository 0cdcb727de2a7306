package httpapi

import (
	"context"
	"net/http"
	"time"
)

// Probe reports whether a dependency is reachable.
type Probe func(ctx context.Context) error

// Health serves /healthz and /readyz.
type Health struct {
	Service string
	Version string
	Probes  map[string]Probe
}

// Register mounts the health endpoints on mux.
func (h Health) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", h.Healthz)
	mux.HandleFunc("/readyz", h.Ready)
}

func (h Health) Healthz(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": h.Service,
		"version": h.Version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

func (h Health) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	for name, probe := range h.Probes {
		if probe == nil {
			continue
		}
		if err := probe(ctx); err != nil {
			WriteJSON(w, http.StatusServiceUnavailable, map[string]any{
				"status":     "not_ready",
				"dependency": name,
				"error":      err.Error(),
			})
			return
		}
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}
