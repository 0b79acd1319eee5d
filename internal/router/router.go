// Package router implements the Router Core (spec §4.5): orchestrates
// candidate resolution, policy ordering, and sequential failover with
// per-attempt timeouts, updating the Circuit Breaker Set and Health
// Tracker as it goes.
//
// Grounded on the orchestration shape of the teacher's
// services/routing/service.go RouteRequest (resolve -> select -> execute,
// falling back on failure), generalized from "pick one provider" to
// "produce a full failover order and walk it", per spec §4.5.
package router

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/riftgate/llm-gateway/internal/breaker"
	"github.com/riftgate/llm-gateway/internal/errors"
	"github.com/riftgate/llm-gateway/internal/health"
	"github.com/riftgate/llm-gateway/internal/models"
	"github.com/riftgate/llm-gateway/internal/policy"
	"github.com/riftgate/llm-gateway/internal/providers"
)

// DefaultAttemptTimeout is the per-attempt deadline (spec §4.5), applied
// independently of the adapter's own internal timeout.
const DefaultAttemptTimeout = 15 * time.Second

// Router owns the Provider Instances, Circuit Breakers, and Health
// Tracker exclusively, per spec §3's ownership rule.
type Router struct {
	registry       *providers.Registry
	breakers       *breaker.Set
	tracker        *health.Tracker
	attemptTimeout time.Duration
	logger         *zap.Logger
}

// New constructs a Router. attemptTimeout <= 0 falls back to
// DefaultAttemptTimeout.
func New(registry *providers.Registry, breakers *breaker.Set, tracker *health.Tracker, attemptTimeout time.Duration, logger *zap.Logger) *Router {
	if attemptTimeout <= 0 {
		attemptTimeout = DefaultAttemptTimeout
	}
	return &Router{registry: registry, breakers: breakers, tracker: tracker, attemptTimeout: attemptTimeout, logger: logger}
}

// RouteContext carries the per-request inputs the Router Core needs beyond
// the request body itself.
type RouteContext struct {
	TenantID         string
	AllowedProviders []string // nil/empty means "all configured providers"
	PolicyName       policy.Name
	PolicyParams     policy.Params
	CostPerToken     map[string]float64 // provider -> cost, from loaded descriptors
}

// RouteRequest implements spec §4.5's routeRequest. On success it returns a
// normalized response with routing_metadata attached. On failure it
// returns a *errors.DomainError of kind NO_PROVIDERS_AVAILABLE or
// ALL_PROVIDERS_FAILED, carrying the attempts list in Details.
func (r *Router) RouteRequest(ctx context.Context, req *models.ChatRequest, rc RouteContext) (*models.ChatResponse, error) {
	start := time.Now()

	candidates := r.resolveCandidates(rc)
	if len(candidates) == 0 {
		r.log().Warn("no providers available after filtering", zap.String("tenant_id", rc.TenantID))
		return nil, errors.New(errors.ErrorTypeNoProvidersAvailable, "no providers available after filtering", nil)
	}

	healthSnapshot := r.snapshotHealth(candidates)
	order := policy.Order(rc.PolicyName, toPolicyCandidates(candidates, rc), healthSnapshot, rc.PolicyParams)

	attempts := make([]models.AttemptRecord, 0, len(order))
	var lastErrKind providers.Kind

	for _, name := range order {
		provider, ok := r.registry.Get(name)
		if !ok {
			continue
		}

		attemptStart := time.Now()
		resp, err := r.attempt(ctx, provider, req)
		duration := time.Since(attemptStart).Milliseconds()

		if err == nil {
			attempts = append(attempts, models.AttemptRecord{Provider: name, Status: "success", Duration: duration})
			r.breakers.Get(name).RecordSuccess()
			r.tracker.RecordSuccess(name, duration)
			resp.RoutingMetadata = models.RoutingMetadata{
				PrimaryProvider:     name,
				Attempts:            attempts,
				TotalProcessingTime: time.Since(start).Milliseconds(),
				PolicyUsed:          string(rc.PolicyName),
				APIProcessingTime:   duration,
				Timestamp:           time.Now().UTC().Format(time.RFC3339),
				TenantID:            rc.TenantID,
			}
			return resp, nil
		}

		kind := classify(err)
		lastErrKind = kind
		attempts = append(attempts, models.AttemptRecord{Provider: name, Status: "failed", Duration: duration, Error: err.Error()})
		r.breakers.Get(name).RecordFailure()
		r.tracker.RecordFailure(name, string(kind))

		if ctx.Err() != nil {
			// Caller disconnected or deadline passed between attempts: abort
			// remaining attempts and report what was accumulated so far.
			break
		}
	}

	r.log().Error("all providers failed", zap.String("tenant_id", rc.TenantID), zap.Int("attempts", len(attempts)), zap.String("last_error_kind", string(lastErrKind)))
	domainErr := errors.New(errors.ErrorTypeAllProvidersFailed, "all providers failed", nil)
	domainErr.WithDetail("attempts", attempts)
	domainErr.WithDetail("last_error_kind", string(lastErrKind))
	return nil, domainErr
}

// resolveCandidates intersects the tenant allow-list with the registry's
// currently loaded providers, filtered by breaker availability.
func (r *Router) resolveCandidates(rc RouteContext) []string {
	loaded := r.registry.Names()

	var allowed map[string]bool
	if len(rc.AllowedProviders) > 0 {
		allowed = make(map[string]bool, len(rc.AllowedProviders))
		for _, name := range rc.AllowedProviders {
			allowed[name] = true
		}
	}

	out := make([]string, 0, len(loaded))
	for _, name := range loaded {
		if allowed != nil && !allowed[name] {
			continue
		}
		if !r.breakers.Get(name).IsAvailable() {
			continue
		}
		out = append(out, name)
	}
	return out
}

// snapshotHealth copies the current aggregates for exactly the candidate
// set, holding no lock across the caller's subsequent provider calls.
func (r *Router) snapshotHealth(candidates []string) map[string]models.HealthSnapshot {
	out := make(map[string]models.HealthSnapshot, len(candidates))
	for _, name := range candidates {
		out[name] = r.tracker.Snapshot(name)
	}
	return out
}

func toPolicyCandidates(names []string, rc RouteContext) []policy.Candidate {
	out := make([]policy.Candidate, len(names))
	for i, name := range names {
		out[i] = policy.Candidate{Name: name, CostPerToken: rc.CostPerToken[name]}
	}
	return out
}

// attempt wraps a single provider call in a deadline independent of the
// adapter's own internal timeout (spec §4.5.b): whichever fires first
// produces an UPSTREAM_TIMEOUT failure.
func (r *Router) attempt(ctx context.Context, provider providers.Provider, req *models.ChatRequest) (*models.ChatResponse, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, r.attemptTimeout)
	defer cancel()

	resp, err := provider.MakeRequest(attemptCtx, req)
	if err != nil {
		timedOut := attemptCtx.Err() != nil
		if perr, ok := err.(*providers.Error); ok && os.IsTimeout(perr.Cause) {
			// The adapter's own http.Client timeout fired first.
			timedOut = true
		}
		if timedOut && classify(err) != providers.KindUpstreamTimeout {
			return nil, providers.NewError(provider.Name(), providers.KindUpstreamTimeout, "attempt deadline exceeded", 0, err)
		}
		return nil, err
	}
	if resp.ID == "" {
		resp.ID = "chatcmpl-" + uuid.NewString()
	}
	return resp, nil
}

func classify(err error) providers.Kind {
	if perr, ok := err.(*providers.Error); ok {
		return perr.Kind
	}
	return providers.KindUpstreamOther
}

func (r *Router) log() *zap.Logger {
	if r.logger == nil {
		return zap.NewNop()
	}
	return r.logger
}
