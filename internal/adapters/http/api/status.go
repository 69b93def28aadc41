package api

import (
	"net/http"

	"github.com/okian/examcast/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// StatsProvider defines the interface for getting service statistics.
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// StatusHandler serves readiness, metrics and stats.
type StatusHandler struct {
	deps          Dependencies
	statsProvider StatsProvider
	metrics       http.Handler
}

// NewStatusHandler creates a new status handler.
func NewStatusHandler(deps Dependencies, statsProvider StatsProvider) *StatusHandler {
	return &StatusHandler{
		deps:          deps,
		statsProvider: statsProvider,
		metrics:       promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}),
	}
}

type readyResponse struct {
	Ready bool `json:"ready"`
}

// HandleReady handles GET /readyz: 200 with a bundle loaded, 503 otherwise.
func (h *StatusHandler) HandleReady(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	if !h.deps.Ready() {
		writeJSON(w, http.StatusServiceUnavailable, readyResponse{Ready: false})
		return
	}
	writeJSON(w, http.StatusOK, readyResponse{Ready: true})
}

// HandleHealth handles GET /healthz with the Prometheus exposition.
func (h *StatusHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.metrics.ServeHTTP(w, r)
}

// HandleStats handles GET /stats requests.
func (h *StatusHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, h.statsProvider.GetStats())
}
