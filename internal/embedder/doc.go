// Package embedder generates vector embeddings for file content using various providers.
//
// The embedder supports multiple providers (Ollama, OpenAI, local fallback)
// and provides batching, caching, rate limiting, and resilience wrappers for
// production use.
//
// # Basic Usage
//
//	// Create embedder (auto-detects provider from environment)
//	emb, err := embedder.NewFromEnv()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer emb.Close()
//
//	// Generate single embedding
//	result, err := emb.GenerateEmbedding(ctx, embedder.EmbeddingRequest{
//	    Text: "quarterly report with revenue figures",
//	})
//	fmt.Printf("Vector dimension: %d\n", len(result.Vector))
//
// # Provider Selection
//
// The embedder selects a provider based on environment variables:
//
//  1. If FILECONTEXT_EMBEDDING_PROVIDER is set → use specified provider
//  2. Else if OLLAMA_HOST is set → use Ollama
//  3. Else if OPENAI_API_KEY is set → use OpenAI
//  4. Else → fallback to local provider (offline mode)
//
// # Provider Comparison
//
// Ollama (recommended for local-first setups):
//   - Dimensions: 768 (nomic-embed-text)
//   - Runs entirely on the local machine
//   - No per-token cost
//
// OpenAI:
//   - Dimensions: 1536 (text-embedding-3-small)
//   - Quality: Excellent (general purpose)
//   - Cost: Pay per token
//
// Local (offline):
//   - Dimensions: 384
//   - Deterministic hash-derived vectors
//   - No semantic quality; intended for tests and degraded operation
//
// # Resilience
//
// ResilientClient composes a bulkhead (bounded concurrency with wait timeout)
// and a circuit breaker (fail fast against a dead provider) around any
// Embedder. Failures degrade to nil vectors rather than errors, so indexing
// continues with whatever embedded successfully:
//
//	client := embedder.NewResilientClient(emb, registry, 50)
//	vectors := client.EmbedBatch(ctx, texts, func(done, total int) {
//	    log.Printf("embedded %d/%d", done, total)
//	})
//	for i, vec := range vectors {
//	    if vec == nil {
//	        continue // text i failed, skip it
//	    }
//	    // store vector for text i
//	}
//
// Batch fan-out runs on a worker pool sized min(batchSize, 2×maxConcurrent);
// the pool can queue ahead of the bulkhead but never overwhelm it.
//
// # Caching
//
// Providers share an in-memory LRU cache keyed by content hash, so re-indexing
// unchanged text costs nothing:
//
//	cache := embedder.NewCache(10000) // cache 10k embeddings
//
// # Error Handling
//
// Provider calls retry a fixed number of times with a fixed delay before the
// failure counts against the circuit breaker:
//
//	resp, err := emb.GenerateBatch(ctx, req)
//	if errors.Is(err, embedder.ErrProviderFailed) {
//	    // provider unavailable after retries
//	}
package embedder
