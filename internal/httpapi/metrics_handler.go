package httpapi

import (
	"net/http"
	"strings"

	"github.com/riftgate/llm-gateway/internal/observability"
)

// MetricsHandler serves GET /metrics in Prometheus text exposition format.
type MetricsHandler struct {
	metrics observability.Metrics
}

// NewMetricsHandler constructs a MetricsHandler.
func NewMetricsHandler(metrics observability.Metrics) *MetricsHandler {
	return &MetricsHandler{metrics: metrics}
}

func (h *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var sb strings.Builder
	h.metrics.WriteExposition(&sb)
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(sb.String()))
}
