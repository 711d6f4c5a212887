package resilience

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/dshills/filecontext-mcp/pkg/types"
)

// Bulkhead defaults
const (
	DefaultMaxConcurrent = 4
	DefaultMaxWaitTime   = 30 * time.Second
)

// BulkheadConfig tunes a bulkhead instance
type BulkheadConfig struct {
	// MaxConcurrent is the number of calls allowed to run at once
	MaxConcurrent int
	// MaxWaitTime bounds how long a call may wait for a slot. Zero or
	// negative means fail fast without waiting.
	MaxWaitTime time.Duration
}

func (c BulkheadConfig) withDefaults() BulkheadConfig {
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = DefaultMaxConcurrent
	}
	return c
}

// BulkheadStats counts admission outcomes since creation. Wait times cover
// admitted calls only.
type BulkheadStats struct {
	Successes int64
	Failures  int64
	Rejected  int64
	TimedOut  int64
	TotalWait time.Duration
	MaxWait   time.Duration
}

// Bulkhead is a counting admission gate that bounds concurrent calls to a
// downstream dependency. Its counters are independent of any circuit breaker
// wrapped inside it: slot occupancy reflects real concurrent work, never
// rejected attempts.
type Bulkhead struct {
	name   string
	config BulkheadConfig
	sem    *semaphore.Weighted

	mu      sync.Mutex
	active  int
	waiting int
	stats   BulkheadStats
}

// NewBulkhead creates a bulkhead with MaxConcurrent slots
func NewBulkhead(name string, config BulkheadConfig) *Bulkhead {
	config = config.withDefaults()
	return &Bulkhead{
		name:   name,
		config: config,
		sem:    semaphore.NewWeighted(int64(config.MaxConcurrent)),
	}
}

// Name returns the bulkhead's identity
func (b *Bulkhead) Name() string { return b.name }

// MaxConcurrent returns the slot capacity
func (b *Bulkhead) MaxConcurrent() int { return b.config.MaxConcurrent }

// Active returns how many calls currently hold a slot
func (b *Bulkhead) Active() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.active
}

// Waiting returns how many calls are blocked waiting for a slot
func (b *Bulkhead) Waiting() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.waiting
}

// Stats returns a snapshot of the admission counters
func (b *Bulkhead) Stats() BulkheadStats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stats
}

// Do acquires a slot, runs fn, and releases the slot unconditionally.
//
// With MaxWaitTime <= 0 the acquire is non-blocking and a full bulkhead
// returns types.ErrBulkheadFull immediately. Otherwise the call waits up to
// MaxWaitTime and a still-full bulkhead returns types.ErrBulkheadTimeout.
// Cancellation of ctx while waiting returns the context error uncounted.
func (b *Bulkhead) Do(ctx context.Context, fn func() error) error {
	start := time.Now()

	if b.config.MaxWaitTime <= 0 {
		if !b.sem.TryAcquire(1) {
			b.recordRejection()
			return fmt.Errorf("%w: %s at %d concurrent calls",
				types.ErrBulkheadFull, b.name, b.config.MaxConcurrent)
		}
	} else {
		if err := b.acquireWait(ctx, start); err != nil {
			return err
		}
	}

	wait := time.Since(start)
	b.enter(wait)
	defer b.exit()

	err := fn()

	b.mu.Lock()
	if err != nil {
		b.stats.Failures++
	} else {
		b.stats.Successes++
	}
	b.mu.Unlock()

	return err
}

// acquireWait blocks for a slot up to the configured wait time
func (b *Bulkhead) acquireWait(ctx context.Context, start time.Time) error {
	b.mu.Lock()
	b.waiting++
	b.mu.Unlock()

	waitCtx, cancel := context.WithTimeout(ctx, b.config.MaxWaitTime)
	err := b.sem.Acquire(waitCtx, 1)
	cancel()

	b.mu.Lock()
	b.waiting--
	b.mu.Unlock()

	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	wait := time.Since(start)
	b.mu.Lock()
	b.stats.TimedOut++
	b.mu.Unlock()
	return fmt.Errorf("%w: %s after %s",
		types.ErrBulkheadTimeout, b.name, wait.Round(time.Millisecond))
}

// enter records slot occupancy and the time spent waiting for admission
func (b *Bulkhead) enter(wait time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.active++
	b.stats.TotalWait += wait
	if wait > b.stats.MaxWait {
		b.stats.MaxWait = wait
	}
}

// exit releases the slot regardless of the call outcome
func (b *Bulkhead) exit() {
	b.mu.Lock()
	b.active--
	b.mu.Unlock()
	b.sem.Release(1)
}

func (b *Bulkhead) recordRejection() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stats.Rejected++
}
