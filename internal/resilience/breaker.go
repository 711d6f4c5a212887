package resilience

import (
	"fmt"
	"sync"
	"time"

	"github.com/dshills/filecontext-mcp/pkg/types"
)

// BreakerState represents the circuit breaker state machine position
type BreakerState string

const (
	StateClosed   BreakerState = "closed"
	StateOpen     BreakerState = "open"
	StateHalfOpen BreakerState = "half_open"
)

// Circuit breaker defaults
const (
	DefaultFailureThreshold = 5
	DefaultRecoveryTimeout  = 30 * time.Second
	DefaultSuccessThreshold = 2
)

// BreakerConfig tunes a circuit breaker instance
type BreakerConfig struct {
	// FailureThreshold is the consecutive-failure count that opens the circuit
	FailureThreshold int
	// RecoveryTimeout is how long the circuit stays open before probing
	RecoveryTimeout time.Duration
	// SuccessThreshold is the consecutive-success count that closes a
	// half-open circuit
	SuccessThreshold int
}

func (c BreakerConfig) withDefaults() BreakerConfig {
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = DefaultFailureThreshold
	}
	if c.RecoveryTimeout <= 0 {
		c.RecoveryTimeout = DefaultRecoveryTimeout
	}
	if c.SuccessThreshold <= 0 {
		c.SuccessThreshold = DefaultSuccessThreshold
	}
	return c
}

// BreakerStats counts call outcomes since creation
type BreakerStats struct {
	TotalCalls int64
	Successes  int64
	Failures   int64
	Rejected   int64
}

// CircuitBreaker isolates a failing dependency: after FailureThreshold
// consecutive failures it rejects calls outright, then probes recovery after
// RecoveryTimeout. Transitions happen lazily under the mutex whenever state
// is read, so no background timer is needed. Safe for concurrent use; one
// instance is shared by every caller of the same dependency.
type CircuitBreaker struct {
	name   string
	config BreakerConfig

	mu            sync.Mutex
	state         BreakerState
	failureCount  int
	successCount  int
	lastFailureAt time.Time
	stats         BreakerStats
}

// NewCircuitBreaker creates a closed breaker. Zero config fields fall back
// to the defaults.
func NewCircuitBreaker(name string, config BreakerConfig) *CircuitBreaker {
	return &CircuitBreaker{
		name:   name,
		config: config.withDefaults(),
		state:  StateClosed,
	}
}

// Name returns the breaker's identity, usually the embedding model it guards
func (b *CircuitBreaker) Name() string { return b.name }

// State returns the current state, applying the open-to-half-open transition
// if the recovery timeout has elapsed
func (b *CircuitBreaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.checkTransition()
	return b.state
}

// Stats returns a snapshot of the call counters
func (b *CircuitBreaker) Stats() BreakerStats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stats
}

// Do runs fn under the breaker. While open it returns a types.ErrCircuitOpen
// error carrying the remaining recovery time, without invoking fn. fn runs
// outside the lock; its error return decides success or failure.
func (b *CircuitBreaker) Do(fn func() error) error {
	if err := b.admit(); err != nil {
		return err
	}

	err := fn()
	b.record(err)
	return err
}

// admit checks the state machine and either reserves the call or rejects it
func (b *CircuitBreaker) admit() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.checkTransition()
	b.stats.TotalCalls++

	if b.state == StateOpen {
		b.stats.Rejected++
		remaining := b.recoveryRemaining()
		return fmt.Errorf("%w: %s, retry after %s",
			types.ErrCircuitOpen, b.name, remaining.Round(time.Millisecond))
	}
	return nil
}

// record applies a call outcome to the state machine
func (b *CircuitBreaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil {
		b.stats.Successes++
		switch b.state {
		case StateHalfOpen:
			b.successCount++
			if b.successCount >= b.config.SuccessThreshold {
				b.state = StateClosed
				b.failureCount = 0
				b.successCount = 0
			}
		case StateClosed:
			b.failureCount = 0
		}
		return
	}

	b.stats.Failures++
	b.failureCount++
	b.lastFailureAt = time.Now()

	switch b.state {
	case StateHalfOpen:
		// A single probe failure reopens the circuit.
		b.state = StateOpen
		b.successCount = 0
	case StateClosed:
		if b.failureCount >= b.config.FailureThreshold {
			b.state = StateOpen
		}
	}
}

// checkTransition moves Open to HalfOpen once the recovery timeout elapses.
// Callers must hold the mutex.
func (b *CircuitBreaker) checkTransition() {
	if b.state == StateOpen && time.Since(b.lastFailureAt) >= b.config.RecoveryTimeout {
		b.state = StateHalfOpen
		b.successCount = 0
	}
}

// recoveryRemaining reports how long until the next probe is allowed.
// Callers must hold the mutex.
func (b *CircuitBreaker) recoveryRemaining() time.Duration {
	remaining := b.config.RecoveryTimeout - time.Since(b.lastFailureAt)
	if remaining < 0 {
		return 0
	}
	return remaining
}
