package models

import "time"

// Quotas holds the per-tenant limits enforced by the Tenant Registry and
// Rate Limiter. A zero daily or monthly quota means unlimited; a zero
// rate_limit_per_minute falls back to tenant.DefaultRateLimitPerMinute when
// the limit is looked up. Nothing is filled in at config-load time.
type Quotas struct {
	DailyRequests      int `json:"daily_requests"`
	MonthlyRequests    int `json:"monthly_requests"`
	RateLimitPerMinute int `json:"rate_limit_per_minute"`
}

// Tenant is a logical customer identified by one or more API keys. Loaded at
// startup or hot-reloaded; never mutated per-request.
type Tenant struct {
	TenantID         string   `json:"tenant_id"`
	APIKeys          []string `json:"api_keys"`
	AllowedProviders []string `json:"allowed_providers"`
	Policy           string   `json:"policy"`
	Quotas           Quotas   `json:"quotas"`
}

// TenantUsage is the mutable, in-memory-only usage accumulator for a tenant.
// Lost on restart by design — an external persistent store may be
// substituted behind the Tenant Registry contract without other components
// changing.
type TenantUsage struct {
	DailyRequests   int64
	MonthlyRequests int64
	TotalTokens     int64
	EstimatedCost   float64
	LastDailyReset  time.Time
}

// QuotaKind selects which counter checkQuota reads.
type QuotaKind string

const (
	QuotaDaily   QuotaKind = "daily"
	QuotaMonthly QuotaKind = "monthly"
)

// QuotaCheck is the read-only result of a quota check.
type QuotaCheck struct {
	Allowed   bool
	Used      int64
	Limit     int64
	Remaining int64
}
