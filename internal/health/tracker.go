// Package health implements the Health Tracker (spec §4.3): a bounded
// rolling history of samples per provider, exposing uptime and
// avg_latency aggregates the Policy Engine scores on.
//
// Grounded on the same per-provider-mutex shape as internal/breaker
// (itself grounded on other_examples' liliang-cn-rago provider_router.go),
// since the teacher repo has no health-history component of its own.
package health

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/riftgate/llm-gateway/internal/models"
)

const (
	// HistorySize is the ring buffer capacity per provider (N = 100).
	HistorySize = 100
	// WindowSize is the trailing window aggregates are computed over
	// (K = 20).
	WindowSize = 20
	// FallbackAvgLatencyMs is used when a window has no healthy samples.
	FallbackAvgLatencyMs = 200
	// ConsecutiveFailureWarnThreshold triggers a warning log.
	ConsecutiveFailureWarnThreshold = 3
)

// providerHistory is one provider's ring buffer and derived counters,
// guarded by its own mutex.
type providerHistory struct {
	mu                  sync.Mutex
	samples             []models.HealthSample // ring buffer, oldest first, len <= HistorySize
	consecutiveFailures int
}

// Tracker owns one providerHistory per provider, created lazily.
type Tracker struct {
	mu        sync.RWMutex
	histories map[string]*providerHistory
	logger    *zap.Logger
}

// New constructs an empty Tracker.
func New(logger *zap.Logger) *Tracker {
	return &Tracker{histories: make(map[string]*providerHistory), logger: logger}
}

func (t *Tracker) historyFor(provider string) *providerHistory {
	t.mu.RLock()
	h, ok := t.histories[provider]
	t.mu.RUnlock()
	if ok {
		return h
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if h, ok := t.histories[provider]; ok {
		return h
	}
	h = &providerHistory{}
	t.histories[provider] = h
	return h
}

// UpdateHealth appends a sample to provider's history, evicting the oldest
// entry once HistorySize is exceeded. Every in-line request outcome and
// every probe result must call this exactly once (spec §4.3).
func (t *Tracker) UpdateHealth(provider string, sample models.HealthSample) {
	h := t.historyFor(provider)

	h.mu.Lock()
	defer h.mu.Unlock()

	h.samples = append(h.samples, sample)
	if len(h.samples) > HistorySize {
		h.samples = h.samples[len(h.samples)-HistorySize:]
	}

	prev := h.consecutiveFailures
	if sample.Status == models.HealthUnhealthy {
		h.consecutiveFailures++
	} else {
		h.consecutiveFailures = 0
	}

	log := t.log(provider)
	if h.consecutiveFailures == ConsecutiveFailureWarnThreshold {
		log.Warn("provider has reached consecutive failure warning threshold",
			zap.Int("consecutive_failures", h.consecutiveFailures))
	}
	if prev > 0 && h.consecutiveFailures == 0 {
		log.Info("provider recovered", zap.Int("prior_consecutive_failures", prev))
	}
}

// Snapshot computes the current aggregate for provider. It takes and
// releases the provider's lock internally and never holds it across a
// caller-visible operation — the Router Core is free to call this and
// then make a provider HTTP call without any lock held.
func (t *Tracker) Snapshot(provider string) models.HealthSnapshot {
	h := t.historyFor(provider)

	h.mu.Lock()
	defer h.mu.Unlock()

	window := h.samples
	if len(window) > WindowSize {
		window = window[len(window)-WindowSize:]
	}

	snapshot := models.HealthSnapshot{
		Provider:            provider,
		ConsecutiveFailures: h.consecutiveFailures,
	}

	if len(window) == 0 {
		snapshot.Uptime = 1.0
		snapshot.AvgLatencyMs = FallbackAvgLatencyMs
		return snapshot
	}

	var healthy int
	var latencySum int64
	for _, s := range window {
		if s.Status == models.HealthHealthy {
			healthy++
			latencySum += s.LatencyMs
		}
	}

	snapshot.Uptime = float64(healthy) / float64(len(window))
	if healthy > 0 {
		snapshot.AvgLatencyMs = float64(latencySum) / float64(healthy)
	} else {
		snapshot.AvgLatencyMs = FallbackAvgLatencyMs
	}
	return snapshot
}

// Snapshots returns a Snapshot for every provider with recorded history.
func (t *Tracker) Snapshots() map[string]models.HealthSnapshot {
	t.mu.RLock()
	names := make([]string, 0, len(t.histories))
	for name := range t.histories {
		names = append(names, name)
	}
	t.mu.RUnlock()

	out := make(map[string]models.HealthSnapshot, len(names))
	for _, name := range names {
		out[name] = t.Snapshot(name)
	}
	return out
}

// HistoryLen returns the current sample count for provider, used by tests
// verifying the ring buffer bound (P3).
func (t *Tracker) HistoryLen(provider string) int {
	h := t.historyFor(provider)
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.samples)
}

func (t *Tracker) log(provider string) *zap.Logger {
	if t.logger == nil {
		return zap.NewNop()
	}
	return t.logger.With(zap.String("provider", provider))
}

// RecordSuccess is a convenience wrapper recording a healthy sample with
// measured latency.
func (t *Tracker) RecordSuccess(provider string, latencyMs int64) {
	t.UpdateHealth(provider, models.HealthSample{Timestamp: time.Now(), Status: models.HealthHealthy, LatencyMs: latencyMs})
}

// RecordFailure is a convenience wrapper recording an unhealthy sample.
func (t *Tracker) RecordFailure(provider string, errorKind string) {
	t.UpdateHealth(provider, models.HealthSample{
		Timestamp: time.Now(),
		Status:    models.HealthUnhealthy,
		LatencyMs: models.UnhealthyLatencyMs,
		ErrorKind: errorKind,
	})
}
