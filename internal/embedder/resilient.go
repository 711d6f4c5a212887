package embedder

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/dshills/filecontext-mcp/internal/resilience"
)

// ProgressFunc receives batch progress after each text completes
type ProgressFunc func(completed, total int)

// ResilientClient wraps an Embedder with a bulkhead and a circuit breaker
// sharing one instance pair per provider+model identity. The bulkhead is the
// outer gate so slot occupancy reflects real in-flight work; the breaker sits
// inside and sees only admitted calls.
//
// Failures never propagate as errors: an unavailable provider, an open
// circuit, or a saturated bulkhead all degrade to a nil vector so callers can
// skip the affected text and continue.
type ResilientClient struct {
	embedder  Embedder
	bulkhead  *resilience.Bulkhead
	breaker   *resilience.CircuitBreaker
	batchSize int
}

// NewResilientClient wraps emb with the breaker and bulkhead registered under
// the provider+model identity, so concurrent callers share resilience state.
func NewResilientClient(emb Embedder, registry *resilience.Registry, batchSize int) *ResilientClient {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	name := fmt.Sprintf("embed-%s-%s", emb.Provider(), emb.Model())
	return &ResilientClient{
		embedder:  emb,
		bulkhead:  registry.Bulkhead(name),
		breaker:   registry.Breaker(name),
		batchSize: batchSize,
	}
}

// Embed returns the vector for text, or nil when text is blank or the
// provider is unavailable. Blank text never consumes a bulkhead slot.
func (c *ResilientClient) Embed(ctx context.Context, text string) []float32 {
	if IsBlank(text) {
		return nil
	}

	var vector []float32
	err := c.bulkhead.Do(ctx, func() error {
		return c.breaker.Do(func() error {
			emb, embErr := c.embedder.GenerateEmbedding(ctx, EmbeddingRequest{Text: text})
			if embErr != nil {
				return embErr
			}
			vector = emb.Vector
			return nil
		})
	})
	if err != nil {
		log.Printf("embedding unavailable: %v", err)
		return nil
	}
	return vector
}

// EmbedBatch embeds texts through a bounded worker pool and returns vectors
// aligned to the input order. Each text passes through the bulkhead and
// breaker individually; a failed text leaves a nil hole at its index without
// aborting the rest. progress, when non-nil, is called after every text.
func (c *ResilientClient) EmbedBatch(ctx context.Context, texts []string, progress ProgressFunc) [][]float32 {
	results := make([][]float32, len(texts))
	if len(texts) == 0 {
		return results
	}

	workers := c.poolSize(len(texts))

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		completed int
	)
	total := len(texts)

	indices := make(chan int)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range indices {
				// Each worker owns the index it drew, so writing
				// results[idx] needs no lock.
				results[idx] = c.Embed(ctx, texts[idx])

				if progress != nil {
					mu.Lock()
					completed++
					done := completed
					mu.Unlock()
					progress(done, total)
				}
			}
		}()
	}

	for i := range texts {
		indices <- i
	}
	close(indices)
	wg.Wait()

	return results
}

// poolSize bounds the fan-out so workers cannot outnumber what the bulkhead
// would ever admit by more than a small queue.
func (c *ResilientClient) poolSize(n int) int {
	size := c.batchSize
	if limit := 2 * c.bulkhead.MaxConcurrent(); limit < size {
		size = limit
	}
	if size > n {
		size = n
	}
	if size < 1 {
		size = 1
	}
	return size
}

// IsAvailable reports whether the circuit currently admits calls
func (c *ResilientClient) IsAvailable() bool {
	return c.breaker.State() != resilience.StateOpen
}

// Dimension returns the wrapped provider's embedding dimension
func (c *ResilientClient) Dimension() int {
	return c.embedder.Dimension()
}

// Provider returns the wrapped provider's name
func (c *ResilientClient) Provider() string {
	return c.embedder.Provider()
}

// Model returns the wrapped provider's model name
func (c *ResilientClient) Model() string {
	return c.embedder.Model()
}

// BreakerState returns the current circuit state for status reporting
func (c *ResilientClient) BreakerState() resilience.BreakerState {
	return c.breaker.State()
}

// Close releases the wrapped provider's resources
func (c *ResilientClient) Close() error {
	return c.embedder.Close()
}
