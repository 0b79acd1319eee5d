package breaker

import (
	"sync"

	"go.uber.org/zap"
)

// Set owns one Breaker per provider name. The Router Core holds a single
// Set for the process lifetime; breakers are created lazily on first
// reference so a hot-reloaded provider list never needs to pre-populate it.
type Set struct {
	mu       sync.RWMutex
	breakers map[string]*Breaker
	cfg      Config
	logger   *zap.Logger
}

// NewSet constructs an empty breaker set with the given default config.
func NewSet(cfg Config, logger *zap.Logger) *Set {
	return &Set{breakers: make(map[string]*Breaker), cfg: cfg, logger: logger}
}

// Get returns the breaker for provider, creating a CLOSED one if this is
// the first reference.
func (s *Set) Get(provider string) *Breaker {
	s.mu.RLock()
	b, ok := s.breakers[provider]
	s.mu.RUnlock()
	if ok {
		return b
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.breakers[provider]; ok {
		return b
	}
	b = New(provider, s.cfg, s.logger)
	s.breakers[provider] = b
	return b
}

// Snapshots returns a value copy of every known breaker's state, keyed by
// provider name.
func (s *Set) Snapshots() map[string]Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]Snapshot, len(s.breakers))
	for name, b := range s.breakers {
		out[name] = b.Snapshot()
	}
	return out
}
