package middleware

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/riftgate/llm-gateway/internal/errors"
	"github.com/riftgate/llm-gateway/internal/observability"
	"github.com/riftgate/llm-gateway/internal/reqctx"
	"github.com/riftgate/llm-gateway/internal/respond"
	"github.com/riftgate/llm-gateway/internal/tenant"
)

// Auth provides Bearer-API-key authentication, replacing the teacher's
// JWT/Cognito AuthMiddleware with a lookup against the Tenant Registry.
type Auth struct {
	tenants *tenant.Registry
	logger  observability.Logger
}

// NewAuth constructs an Auth middleware backed by the given Tenant
// Registry.
func NewAuth(tenants *tenant.Registry, logger observability.Logger) *Auth {
	return &Auth{tenants: tenants, logger: logger}
}

// RequireAPIKey resolves the Authorization: Bearer <key> header against the
// Tenant Registry and attaches the resolved tenant to the request context.
// A missing or unknown key short-circuits with AUTHENTICATION_ERROR (spec
// §7) before the router is ever invoked.
func (a *Auth) RequireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		key := extractBearerToken(r)
		if key == "" {
			a.logger.Warn(ctx, "missing api key")
			respond.DomainError(w, errors.ErrAuthentication)
			return
		}

		t, ok := a.tenants.FindByAPIKey(key)
		if !ok {
			a.logger.Warn(ctx, "unknown api key", zap.String("key_prefix", keyPrefix(key)))
			respond.DomainError(w, errors.ErrAuthentication)
			return
		}

		ctx = reqctx.WithTenantID(ctx, t.TenantID)
		ctx = reqctx.WithTenant(ctx, t)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractBearerToken reads the Authorization header; "Bearer " is optional
// so curl-style `Authorization: <key>` also works.
func extractBearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}
	if parts := strings.SplitN(h, " ", 2); len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return strings.TrimSpace(h)
}

// keyPrefix returns the first 8 characters of an API key for logging (the
// first half for keys of 8 characters or fewer), never the full key (spec
// §7: sensitive data must not appear in logs).
func keyPrefix(key string) string {
	if len(key) <= 8 {
		return key[:len(key)/2] + "..."
	}
	return key[:8] + "..."
}
