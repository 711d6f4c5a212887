package resilience

import "sync"

// Registry holds one circuit breaker and one bulkhead per name, typically
// the embedding model identity. It is constructed once at startup and passed
// to every component that needs shared breaker or bulkhead state, so all
// concurrent callers of the same model see the same instances.
type Registry struct {
	breakerDefaults  BreakerConfig
	bulkheadDefaults BulkheadConfig

	mu        sync.Mutex
	breakers  map[string]*CircuitBreaker
	bulkheads map[string]*Bulkhead
}

// NewRegistry creates a registry whose get-or-create calls use the given
// default configs
func NewRegistry(breakerDefaults BreakerConfig, bulkheadDefaults BulkheadConfig) *Registry {
	return &Registry{
		breakerDefaults:  breakerDefaults.withDefaults(),
		bulkheadDefaults: bulkheadDefaults.withDefaults(),
		breakers:         make(map[string]*CircuitBreaker),
		bulkheads:        make(map[string]*Bulkhead),
	}
}

// Breaker returns the circuit breaker registered under name, creating it
// with the registry defaults on first use
func (r *Registry) Breaker(name string) *CircuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.breakers[name]; ok {
		return b
	}
	b := NewCircuitBreaker(name, r.breakerDefaults)
	r.breakers[name] = b
	return b
}

// Bulkhead returns the bulkhead registered under name, creating it with the
// registry defaults on first use
func (r *Registry) Bulkhead(name string) *Bulkhead {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.bulkheads[name]; ok {
		return b
	}
	b := NewBulkhead(name, r.bulkheadDefaults)
	r.bulkheads[name] = b
	return b
}

// Snapshot reports the state and counters of every registered instance,
// keyed by name. Used by status reporting.
func (r *Registry) Snapshot() map[string]InstanceStatus {
	r.mu.Lock()
	names := make(map[string]bool, len(r.breakers)+len(r.bulkheads))
	for name := range r.breakers {
		names[name] = true
	}
	for name := range r.bulkheads {
		names[name] = true
	}
	breakers := make(map[string]*CircuitBreaker, len(r.breakers))
	for name, b := range r.breakers {
		breakers[name] = b
	}
	bulkheads := make(map[string]*Bulkhead, len(r.bulkheads))
	for name, b := range r.bulkheads {
		bulkheads[name] = b
	}
	r.mu.Unlock()

	// Instance locks are taken outside the registry lock.
	out := make(map[string]InstanceStatus, len(names))
	for name := range names {
		var status InstanceStatus
		if b, ok := breakers[name]; ok {
			status.BreakerState = b.State()
			status.Breaker = b.Stats()
		}
		if b, ok := bulkheads[name]; ok {
			status.Active = b.Active()
			status.Waiting = b.Waiting()
			status.Bulkhead = b.Stats()
		}
		out[name] = status
	}
	return out
}

// InstanceStatus is a point-in-time view of one name's breaker and bulkhead
type InstanceStatus struct {
	BreakerState BreakerState
	Breaker      BreakerStats
	Active       int
	Waiting      int
	Bulkhead     BulkheadStats
}
