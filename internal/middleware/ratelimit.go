package middleware

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/riftgate/llm-gateway/internal/errors"
	"github.com/riftgate/llm-gateway/internal/observability"
	"github.com/riftgate/llm-gateway/internal/ratelimit"
	"github.com/riftgate/llm-gateway/internal/reqctx"
	"github.com/riftgate/llm-gateway/internal/respond"
	"github.com/riftgate/llm-gateway/internal/tenant"
)

// RateLimit enforces the per-tenant fixed-window rate limit (spec §4.7),
// grounded on the header-setting and 429 shape of the teacher's
// policy_middleware.go EnforcePolicy rate-limit branch.
type RateLimit struct {
	limiter *ratelimit.Limiter
	tenants *tenant.Registry
	logger  observability.Logger
}

// NewRateLimit constructs a RateLimit middleware. Must run after Auth, since
// it reads the tenant resolved into context.
func NewRateLimit(limiter *ratelimit.Limiter, tenants *tenant.Registry, logger observability.Logger) *RateLimit {
	return &RateLimit{limiter: limiter, tenants: tenants, logger: logger}
}

// Enforce checks and increments the tenant's rate window, setting
// X-RateLimit-* headers on every response and short-circuiting with
// RATE_LIMITED on overflow.
func (m *RateLimit) Enforce(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tenantID := reqctx.TenantID(ctx)

		limit := m.tenants.RateLimitPerMinute(tenantID)
		result := m.limiter.Allow(tenantID, limit)

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

		if !result.Allowed {
			m.logger.Warn(ctx, "rate limit exceeded", zap.String("tenant_id", tenantID))
			respond.DomainError(w, errors.ErrRateLimited)
			return
		}

		next.ServeHTTP(w, r)
	})
}
