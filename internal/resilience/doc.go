// Package resilience provides the failure-isolation wrappers placed around
// the embedding provider: a circuit breaker, a bulkhead, and a registry that
// shares one pair of them per embedding model.
//
// # Circuit Breaker
//
// The breaker fails fast once a dependency looks down. After
// FailureThreshold consecutive failures calls are rejected immediately;
// after RecoveryTimeout a half-open probe phase lets a few calls through,
// and SuccessThreshold consecutive successes close the circuit again. State
// transitions happen lazily on each call or state read, under the instance
// mutex, with no background timer:
//
//	cb := resilience.NewCircuitBreaker("nomic-embed-text", resilience.BreakerConfig{})
//	err := cb.Do(func() error { return callProvider() })
//	if errors.Is(err, types.ErrCircuitOpen) {
//	    // rejected without calling the provider
//	}
//
// # Bulkhead
//
// The bulkhead bounds how many calls run concurrently. A full bulkhead
// either rejects immediately (MaxWaitTime <= 0) or blocks the caller up to
// MaxWaitTime. The slot is always released, success or failure:
//
//	bh := resilience.NewBulkhead("nomic-embed-text", resilience.BulkheadConfig{MaxConcurrent: 4})
//	err := bh.Do(ctx, func() error { return callProvider() })
//
// # Composition
//
// Callers compose the two with the bulkhead outermost so that slot occupancy
// reflects real in-flight work: a call the breaker rejects still releases
// its slot right away, and a call that never got a slot never touches the
// breaker counters.
//
// # Registry
//
// Registry hands out one breaker and one bulkhead per name. It is built once
// at startup and injected wherever shared state is needed; there is no
// package-level global.
package resilience
