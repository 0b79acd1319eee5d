// Package breaker implements the per-provider circuit breaker (spec §4.2):
// a {CLOSED, OPEN, HALF_OPEN} state machine gating whether the Router Core
// may call a provider.
//
// Grounded on the CircuitBreaker shape in other_examples'
// liliang-cn-rago provider_router.go (per-provider struct, own mutex,
// threshold/timeout fields) since the teacher repo has no circuit breaker
// of its own; logging follows the teacher's zap-field-logging convention
// (services/ratelimit, services/budget).
package breaker

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// State is one of the three breaker states.
type State string

const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateHalfOpen State = "half_open"
)

const (
	// DefaultThreshold is the consecutive-failure count that trips a
	// breaker from CLOSED to OPEN (spec §4.2).
	DefaultThreshold = 5
	// DefaultCooldown is how long a breaker stays OPEN before moving to
	// HALF_OPEN and permitting calls again.
	DefaultCooldown = 60 * time.Second
)

// Breaker is a single provider's circuit breaker. All mutations happen
// under mu so state and nextAttempt always update together.
type Breaker struct {
	mu           sync.Mutex
	provider     string
	state        State
	failureCount int
	lastFailure  time.Time
	nextAttempt  time.Time
	threshold    int
	cooldown     time.Duration
	logger       *zap.Logger
}

// Config overrides a breaker's defaults; zero values fall back to package
// defaults.
type Config struct {
	Threshold int
	Cooldown  time.Duration
}

// New constructs a CLOSED breaker for the named provider.
func New(provider string, cfg Config, logger *zap.Logger) *Breaker {
	threshold := cfg.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	cooldown := cfg.Cooldown
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Breaker{
		provider:  provider,
		state:     StateClosed,
		threshold: threshold,
		cooldown:  cooldown,
		logger:    logger,
	}
}

// IsAvailable is the only accessor the Router Core uses to filter
// candidates. An OPEN breaker past its next-attempt time transitions to
// HALF_OPEN. A HALF_OPEN breaker reports available to every caller until
// the next recorded outcome closes or reopens it; concurrent probes are not
// limited to one.
func (b *Breaker) IsAvailable() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed, StateHalfOpen:
		return true
	case StateOpen:
		if time.Now().Before(b.nextAttempt) {
			return false
		}
		b.state = StateHalfOpen
		b.log().Info("breaker half-open, permitting probe")
		return true
	default:
		return false
	}
}

// RecordSuccess reports a successful call outcome.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	prev := b.state
	b.failureCount = 0
	b.state = StateClosed
	if prev != StateClosed {
		b.log().Info("breaker closed after success", zap.String("prev_state", string(prev)))
	}
}

// RecordFailure reports a failed call outcome.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lastFailure = time.Now()

	switch b.state {
	case StateHalfOpen:
		b.state = StateOpen
		b.nextAttempt = b.lastFailure.Add(b.cooldown)
		b.log().Warn("breaker reopened after half-open probe failure", zap.Time("next_attempt", b.nextAttempt))
	default:
		b.failureCount++
		if b.failureCount >= b.threshold {
			b.state = StateOpen
			b.nextAttempt = b.lastFailure.Add(b.cooldown)
			b.log().Warn("breaker opened", zap.Int("failure_count", b.failureCount), zap.Time("next_attempt", b.nextAttempt))
		}
	}
}

// Snapshot is a read-only copy of a breaker's state for status endpoints.
type Snapshot struct {
	Provider     string    `json:"provider"`
	State        State     `json:"state"`
	FailureCount int       `json:"failure_count"`
	LastFailure  time.Time `json:"last_failure,omitempty"`
	NextAttempt  time.Time `json:"next_attempt,omitempty"`
}

// Snapshot returns a value copy of the breaker's current state.
func (b *Breaker) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Snapshot{
		Provider:     b.provider,
		State:        b.state,
		FailureCount: b.failureCount,
		LastFailure:  b.lastFailure,
		NextAttempt:  b.nextAttempt,
	}
}

func (b *Breaker) log() *zap.Logger {
	if b.logger == nil {
		return zap.NewNop()
	}
	return b.logger.With(zap.String("provider", b.provider))
}
