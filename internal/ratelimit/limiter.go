// Package ratelimit implements the per-tenant fixed-window rate limiter
// (spec §4.7).
//
// Grounded on the teacher's services/ratelimit/service.go (per-scope
// window bounds, a periodic cleanup worker) with the Postgres-backed
// window storage replaced by an in-memory map guarded by a single mutex,
// since spec §3/§4.7 give the rate limiter no persistence requirement and
// the Non-goals exclude cross-restart state entirely.
package ratelimit

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultWindow is the fixed-window size (spec §4.7 default 60s).
const DefaultWindow = 60 * time.Second

// DefaultLimit is used when a tenant has no configured
// rate_limit_per_minute.
const DefaultLimit = 100

type window struct {
	count   int
	resetAt time.Time
}

// Limiter is a per-tenant fixed-window counter with a periodic sweep that
// evicts expired windows to bound memory.
type Limiter struct {
	mu      sync.Mutex
	windows map[string]*window
	size    time.Duration
	logger  *zap.Logger
}

// New constructs a Limiter with the given window size. size <= 0 falls
// back to DefaultWindow.
func New(size time.Duration, logger *zap.Logger) *Limiter {
	if size <= 0 {
		size = DefaultWindow
	}
	return &Limiter{windows: make(map[string]*window), size: size, logger: logger}
}

// Result is the outcome of an Allow check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Allow increments tenantID's window counter and reports whether the
// request is within limit. On overflow the counter is left unincremented;
// callers that reject on !Allowed should not count the rejected request
// against the tenant's quota usage either (that's a Tenant Registry
// concern, not this limiter's).
func (l *Limiter) Allow(tenantID string, limit int) Result {
	if limit <= 0 {
		limit = DefaultLimit
	}

	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[tenantID]
	if !ok || now.After(w.resetAt) {
		w = &window{count: 0, resetAt: now.Add(l.size)}
		l.windows[tenantID] = w
	}

	if w.count >= limit {
		return Result{Allowed: false, Limit: limit, Remaining: 0, ResetAt: w.resetAt}
	}

	w.count++
	return Result{Allowed: true, Limit: limit, Remaining: limit - w.count, ResetAt: w.resetAt}
}

// Sweep removes windows whose reset time has already passed. Intended to
// be called periodically from a background goroutine to bound memory
// growth across many distinct tenants.
func (l *Limiter) Sweep() int {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	evicted := 0
	for id, w := range l.windows {
		if now.After(w.resetAt) {
			delete(l.windows, id)
			evicted++
		}
	}
	if evicted > 0 && l.logger != nil {
		l.logger.Debug("rate limiter sweep evicted expired windows", zap.Int("evicted", evicted))
	}
	return evicted
}

// RunSweeper blocks, sweeping at the given interval until done is closed.
func (l *Limiter) RunSweeper(done <-chan struct{}, interval time.Duration) {
	if interval <= 0 {
		interval = l.size
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			l.Sweep()
		}
	}
}
