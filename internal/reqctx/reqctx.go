// Package reqctx holds the context-key helpers shared by the middleware
// chain and the observability logger, kept in their own package so
// neither has to import the other.
//
// Grounded on the teacher's middleware/context.go (contextKey type +
// WithX/GetXFromContext pairs), narrowed from its Cognito Claims/OrgID/
// AppID/UserID set to just request ID and tenant ID — this gateway has no
// JWT claims to carry.
package reqctx

import (
	"context"

	"github.com/riftgate/llm-gateway/internal/models"
)

type key string

const (
	requestIDKey key = "request_id"
	tenantIDKey  key = "tenant_id"
	tenantKey    key = "tenant"
)

// WithRequestID attaches a request ID to ctx.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestID retrieves the request ID, or "" if absent.
func RequestID(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

// WithTenantID attaches a resolved tenant ID to ctx.
func WithTenantID(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, tenantIDKey, tenantID)
}

// TenantID retrieves the tenant ID, or "" if absent.
func TenantID(ctx context.Context) string {
	if v, ok := ctx.Value(tenantIDKey).(string); ok {
		return v
	}
	return ""
}

// WithTenant attaches the resolved tenant record to ctx, set once by the
// auth middleware after a successful API-key lookup.
func WithTenant(ctx context.Context, tenant models.Tenant) context.Context {
	return context.WithValue(ctx, tenantKey, tenant)
}

// Tenant retrieves the resolved tenant record, or the zero value and false
// if auth hasn't run or the request is unauthenticated.
func Tenant(ctx context.Context) (models.Tenant, bool) {
	v, ok := ctx.Value(tenantKey).(models.Tenant)
	return v, ok
}
