// Package middleware provides the gateway's HTTP middleware chain: request
// ID propagation, API-key authentication, and rate-limit enforcement.
//
// Grounded on the teacher's backend/middleware package (auth_middleware.go,
// policy_middleware.go), retargeted from JWT/Cognito claims to this
// gateway's Bearer-API-key + Tenant Registry model.
package middleware

import (
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/riftgate/llm-gateway/internal/reqctx"
)

// RequestID bridges chi's request-ID middleware (which stores it under
// chi's own context key) into reqctx, so every downstream package —
// observability's logger included — reads it through one shared accessor
// instead of two. It also sets the X-Request-ID response header (spec §6:
// every response carries the request ID), since chi's own RequestID
// middleware only populates the context, never the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := chimiddleware.GetReqID(r.Context())
		w.Header().Set("X-Request-ID", id)
		ctx := reqctx.WithRequestID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
