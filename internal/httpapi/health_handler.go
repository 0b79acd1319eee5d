package httpapi

import (
	"net/http"
	"time"

	"github.com/riftgate/llm-gateway/internal/breaker"
	"github.com/riftgate/llm-gateway/internal/health"
	"github.com/riftgate/llm-gateway/internal/models"
	"github.com/riftgate/llm-gateway/internal/observability"
	"github.com/riftgate/llm-gateway/internal/providers"
	"github.com/riftgate/llm-gateway/internal/respond"
)

// HealthHandler serves the liveness/readiness/provider-status endpoints
// (spec §6). Grounded on the teacher's handlers.HealthHandler, retargeted
// from a database ping to the Breaker Set and Health Tracker.
type HealthHandler struct {
	registry *providers.Registry
	breakers *breaker.Set
	tracker  *health.Tracker
	logger   observability.Logger
}

// NewHealthHandler constructs a HealthHandler.
func NewHealthHandler(registry *providers.Registry, breakers *breaker.Set, tracker *health.Tracker, logger observability.Logger) *HealthHandler {
	return &HealthHandler{registry: registry, breakers: breakers, tracker: tracker, logger: logger}
}

type livenessResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// HandleLiveness serves GET /health: always 200 while the process is up.
func (h *HealthHandler) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, livenessResponse{Status: "healthy", Timestamp: time.Now().UTC().Format(time.RFC3339)})
}

type providerSummary struct {
	Provider            string        `json:"provider"`
	BreakerState        breaker.State `json:"breaker_state"`
	Uptime              float64       `json:"uptime"`
	AvgLatencyMs        float64       `json:"avg_latency_ms"`
	ConsecutiveFailures int           `json:"consecutive_failures"`
}

type detailedHealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Providers []providerSummary `json:"providers"`
}

// HandleDetailed serves GET /health/detailed: 200 if at least one loaded
// provider has a CLOSED or HALF_OPEN breaker, 503 if every loaded provider
// is OPEN (or none are loaded).
func (h *HealthHandler) HandleDetailed(w http.ResponseWriter, r *http.Request) {
	names := h.registry.Names()
	summaries := make([]providerSummary, 0, len(names))
	anyAvailable := false

	for _, name := range names {
		snap := h.tracker.Snapshot(name)
		b := h.breakers.Get(name).Snapshot()
		if b.State != breaker.StateOpen {
			anyAvailable = true
		}
		summaries = append(summaries, providerSummary{
			Provider:            name,
			BreakerState:        b.State,
			Uptime:              snap.Uptime,
			AvgLatencyMs:        snap.AvgLatencyMs,
			ConsecutiveFailures: snap.ConsecutiveFailures,
		})
	}

	status := "healthy"
	code := http.StatusOK
	if !anyAvailable {
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	}

	respond.JSON(w, code, detailedHealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Providers: summaries,
	})
}

type providerStatus struct {
	Provider string                `json:"provider"`
	Breaker  breaker.Snapshot      `json:"breaker"`
	Health   models.HealthSnapshot `json:"health"`
}

// HandleProviderStatus serves GET /v1/health/providers: the full breaker +
// health-tracker state for every loaded provider, authenticated the same
// as the chat endpoint.
func (h *HealthHandler) HandleProviderStatus(w http.ResponseWriter, r *http.Request) {
	names := h.registry.Names()
	out := make([]providerStatus, 0, len(names))
	for _, name := range names {
		out = append(out, providerStatus{
			Provider: name,
			Breaker:  h.breakers.Get(name).Snapshot(),
			Health:   h.tracker.Snapshot(name),
		})
	}
	respond.JSON(w, http.StatusOK, out)
}
