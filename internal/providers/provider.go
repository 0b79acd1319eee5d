// Package providers defines the Provider Adapter capability contract
// (spec §4.1): a uniform makeRequest/ping pair that concrete vendor
// adapters implement, a typed error taxonomy for upstream failures, and a
// registry that resolves descriptor type tags to concrete instances.
//
// Grounded on the teacher's services/providers package (interface.go,
// registry.go) with the adapter-retry and vendor-specific surface area
// stripped out per §4.1 ("Adapters MUST NOT implement retry").
package providers

import (
	"context"
	"time"

	"github.com/riftgate/llm-gateway/internal/models"
)

// Provider is the capability contract every concrete adapter satisfies.
// Implementations translate models.ChatRequest/ChatResponse to and from the
// vendor wire format, attach authentication, and enforce an
// adapter-internal timeout. They MUST NOT retry internally — retry and
// failover are the Router Core's responsibility.
type Provider interface {
	// Name returns the provider's configured name, matching the key it is
	// registered under.
	Name() string

	// MakeRequest performs the upstream call and returns a normalized
	// response, or an error (normally *Error) classified per Kind.
	MakeRequest(ctx context.Context, req *models.ChatRequest) (*models.ChatResponse, error)

	// Ping performs a small synthetic call suitable for health probing. It
	// never returns an error for a classified upstream failure — instead it
	// reports the outcome in the returned PingResult so the prober can
	// record a health sample without special-casing errors.
	Ping(ctx context.Context) PingResult
}

// PingResult is the outcome of a single health probe.
type PingResult struct {
	Status    models.HealthStatus
	LatencyMs int64
	ErrorKind Kind
}

// Config is the resolved, per-instance configuration an adapter is
// constructed with: the descriptor plus the API key read from its
// api_key_env environment variable.
type Config struct {
	Name     string
	Endpoint string
	APIKey   string
	Timeout  time.Duration
}

// DefaultTimeout is the adapter-internal request timeout applied when a
// descriptor does not specify one (§4.1: default 10-15s).
const DefaultTimeout = 12 * time.Second

// DefaultPingTimeout bounds a single health probe (§5: probe default 5s).
const DefaultPingTimeout = 5 * time.Second
