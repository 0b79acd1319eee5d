// Package tenant implements the Tenant Registry (spec §4.6): API-key to
// tenant lookup, quota checks, and usage tracking.
//
// Grounded on the teacher's services/budget/service.go usage-accounting
// shape (daily/monthly counters, GetPeriodSpend-style reads) and
// services/ratelimit/service.go's scope-key lookup pattern, rebuilt
// in-memory per spec §3 ("Tenant Usage... in-memory; lost on restart").
package tenant

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/riftgate/llm-gateway/internal/models"
)

const (
	// DefaultRateLimitPerMinute is used when a tenant's quotas don't
	// specify one (spec §4.7 fallback).
	DefaultRateLimitPerMinute = 100
	dailyResetWindow          = 24 * time.Hour
)

type tenantState struct {
	mu    sync.Mutex
	usage models.TenantUsage
}

// Registry maps API keys to tenants via a precomputed reverse index and
// owns each tenant's usage counters.
type Registry struct {
	mu       sync.RWMutex
	tenants  map[string]models.Tenant // tenant_id -> tenant
	byAPIKey map[string]string        // api_key -> tenant_id
	usage    map[string]*tenantState  // tenant_id -> usage
	logger   *zap.Logger
}

// New constructs an empty Registry.
func New(logger *zap.Logger) *Registry {
	return &Registry{
		tenants:  make(map[string]models.Tenant),
		byAPIKey: make(map[string]string),
		usage:    make(map[string]*tenantState),
		logger:   logger,
	}
}

// Replace atomically swaps the entire tenant set, rebuilding the reverse
// index. Usage counters for tenant IDs that still exist after the swap are
// preserved; counters for removed tenants are dropped.
func (r *Registry) Replace(tenants []models.Tenant) {
	byAPIKey := make(map[string]string)
	byID := make(map[string]models.Tenant, len(tenants))
	for _, t := range tenants {
		byID[t.TenantID] = t
		for _, key := range t.APIKeys {
			byAPIKey[key] = t.TenantID
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.tenants = byID
	r.byAPIKey = byAPIKey
	for id := range r.usage {
		if _, ok := byID[id]; !ok {
			delete(r.usage, id)
		}
	}
	for id := range byID {
		if _, ok := r.usage[id]; !ok {
			r.usage[id] = &tenantState{usage: models.TenantUsage{LastDailyReset: time.Now()}}
		}
	}

	if r.logger != nil {
		r.logger.Info("tenant registry reloaded", zap.Int("tenant_count", len(byID)))
	}
}

// FindByAPIKey performs a constant-time lookup over the reverse index.
func (r *Registry) FindByAPIKey(key string) (models.Tenant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byAPIKey[key]
	if !ok {
		return models.Tenant{}, false
	}
	t, ok := r.tenants[id]
	return t, ok
}

func (r *Registry) stateFor(tenantID string) *tenantState {
	r.mu.RLock()
	s, ok := r.usage[tenantID]
	r.mu.RUnlock()
	if ok {
		return s
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.usage[tenantID]; ok {
		return s
	}
	s = &tenantState{usage: models.TenantUsage{LastDailyReset: time.Now()}}
	r.usage[tenantID] = s
	return s
}

func (r *Registry) tenantByID(tenantID string) (models.Tenant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tenants[tenantID]
	return t, ok
}

// applyDailyReset resets the daily counter when the reset window has
// elapsed. Caller must hold s.mu.
func applyDailyReset(s *tenantState) {
	if time.Since(s.usage.LastDailyReset) >= dailyResetWindow {
		s.usage.DailyRequests = 0
		s.usage.LastDailyReset = time.Now()
	}
}

// CheckQuota is a purely read operation; it applies the daily-reset rule
// when reading the daily quota (spec §4.6).
func (r *Registry) CheckQuota(tenantID string, kind models.QuotaKind) models.QuotaCheck {
	t, _ := r.tenantByID(tenantID)
	s := r.stateFor(tenantID)

	s.mu.Lock()
	defer s.mu.Unlock()
	applyDailyReset(s)

	var used int64
	var limit int64
	switch kind {
	case models.QuotaMonthly:
		used = s.usage.MonthlyRequests
		limit = int64(t.Quotas.MonthlyRequests)
	default:
		used = s.usage.DailyRequests
		limit = int64(t.Quotas.DailyRequests)
	}

	if limit <= 0 {
		// No quota configured for this kind: unlimited.
		return models.QuotaCheck{Allowed: true, Used: used, Limit: 0, Remaining: -1}
	}

	remaining := limit - used
	return models.QuotaCheck{Allowed: remaining > 0, Used: used, Limit: limit, Remaining: remaining}
}

// UsageUpdate is the input to TrackUsage.
type UsageUpdate struct {
	TotalTokens   int64
	EstimatedCost float64
}

// TrackUsage atomically increments daily/monthly counters and token/cost
// totals for tenantID.
func (r *Registry) TrackUsage(tenantID string, update UsageUpdate) {
	s := r.stateFor(tenantID)

	s.mu.Lock()
	defer s.mu.Unlock()
	applyDailyReset(s)

	s.usage.DailyRequests++
	s.usage.MonthlyRequests++
	s.usage.TotalTokens += update.TotalTokens
	s.usage.EstimatedCost += update.EstimatedCost
}

// Usage returns a value copy of tenantID's current usage counters.
func (r *Registry) Usage(tenantID string) models.TenantUsage {
	s := r.stateFor(tenantID)
	s.mu.Lock()
	defer s.mu.Unlock()
	applyDailyReset(s)
	return s.usage
}

// RateLimitPerMinute resolves the effective per-minute rate for a tenant,
// falling back to DefaultRateLimitPerMinute when unconfigured.
func (r *Registry) RateLimitPerMinute(tenantID string) int {
	t, ok := r.tenantByID(tenantID)
	if !ok || t.Quotas.RateLimitPerMinute <= 0 {
		return DefaultRateLimitPerMinute
	}
	return t.Quotas.RateLimitPerMinute
}
