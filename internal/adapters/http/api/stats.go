package api

import (
	"net/http"

	"github.com/okian/perfectcircle/pkg/metrics"
)

// StatsProvider defines the interface for getting service statistics.
type StatsProvider interface {
	GetStats() map[string]any
}

// StatsHandler handles stats requests.
type StatsHandler struct {
	statsProvider StatsProvider
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(statsProvider StatsProvider) *StatsHandler {
	return &StatsHandler{statsProvider: statsProvider}
}

// HandleStats handles GET /stats. Service figures are merged with the
// totals of the Prometheus counters under "metrics".
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	const op = "api.stats"
	stats := h.statsProvider.GetStats()
	totals, err := metrics.Totals()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	out := make(map[string]any, len(stats)+1)
	for k, v := range stats {
		out[k] = v
	}
	out["metrics"] = totals
	writeJSON(w, http.StatusOK, out)
}
