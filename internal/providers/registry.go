package providers

import (
	"fmt"
	"sync"
)

// Registry is the read-mostly map of live Provider instances, keyed by
// descriptor name. Writes happen only at startup or on a hot-reload; reads
// happen on every request. Grounded on the teacher's providers.Registry,
// generalized to support atomic whole-map replacement instead of
// incremental Register/Unregister (spec §3: "may be hot-reloaded
// atomically (replace whole map)").
type Registry struct {
	mu        sync.RWMutex
	instances map[string]Provider
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{instances: make(map[string]Provider)}
}

// Replace atomically swaps the entire set of live instances.
func (r *Registry) Replace(instances map[string]Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.instances = instances
}

// Get returns the named provider, or false if it isn't loaded.
func (r *Registry) Get(name string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.instances[name]
	return p, ok
}

// Names returns the currently loaded provider names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.instances))
	for name := range r.instances {
		names = append(names, name)
	}
	return names
}

// All returns a shallow copy of the current name->Provider map, safe for
// the caller to range over without holding the registry's lock.
func (r *Registry) All() map[string]Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]Provider, len(r.instances))
	for name, p := range r.instances {
		out[name] = p
	}
	return out
}

// Factory constructs a Provider instance from resolved config. Concrete
// adapter packages register their constructor under their descriptor type
// tag via RegisterFactory.
type Factory func(cfg Config) Provider

var (
	factoriesMu sync.RWMutex
	factories   = map[string]Factory{}
)

// RegisterFactory associates a descriptor type tag (e.g. "groq") with a
// constructor. Adapter packages call this from an init() function, the
// same tagged-variant pattern spec §9 calls for in place of class
// inheritance.
func RegisterFactory(typeTag string, f Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[typeTag] = f
}

// Build constructs a Provider for the given type tag, or an error if no
// factory was registered for it.
func Build(typeTag string, cfg Config) (Provider, error) {
	factoriesMu.RLock()
	f, ok := factories[typeTag]
	factoriesMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("providers: no factory registered for type %q", typeTag)
	}
	return f(cfg), nil
}
