package embedder

import (
	"fmt"
	"os"
	"strings"
)

// Config holds embedder configuration
type Config struct {
	Provider  string
	APIKey    string
	BaseURL   string
	Model     string
	CacheSize int
}

// NewFromEnv creates an embedder based on environment variables
// Priority:
// 1. FILECONTEXT_EMBEDDING_PROVIDER (ollama, openai, local)
// 2. Check for OLLAMA_HOST, then OPENAI_API_KEY
// 3. Default to local if nothing is configured
func NewFromEnv() (Embedder, error) {
	provider := os.Getenv(EnvProvider)
	ollamaHost := os.Getenv(EnvOllamaHost)
	openaiKey := os.Getenv(EnvOpenAIAPIKey)

	cache := NewCache(10000) // Default cache size

	// Explicit provider selection
	if provider != "" {
		provider = strings.ToLower(provider)
		switch provider {
		case ProviderOllama:
			return NewOllamaProvider(ollamaHost, "", cache)
		case ProviderOpenAI:
			return NewOpenAIProvider(openaiKey, cache)
		case ProviderLocal:
			return NewLocalProvider(cache)
		default:
			return nil, fmt.Errorf("%w: unknown provider %s", ErrUnsupportedModel, provider)
		}
	}

	// Auto-detect based on available configuration
	if ollamaHost != "" {
		return NewOllamaProvider(ollamaHost, "", cache)
	}
	if openaiKey != "" {
		return NewOpenAIProvider(openaiKey, cache)
	}

	// Fallback to offline provider
	return NewLocalProvider(cache)
}

// New creates an embedder with explicit configuration
func New(cfg Config) (Embedder, error) {
	var cache *Cache
	if cfg.CacheSize > 0 {
		cache = NewCache(cfg.CacheSize)
	}

	provider := strings.ToLower(cfg.Provider)
	switch provider {
	case ProviderOllama:
		return NewOllamaProvider(cfg.BaseURL, cfg.Model, cache)
	case ProviderOpenAI:
		return NewOpenAIProvider(cfg.APIKey, cache)
	case ProviderLocal:
		return NewLocalProvider(cache)
	default:
		return nil, fmt.Errorf("%w: unknown provider %s", ErrUnsupportedModel, cfg.Provider)
	}
}

// DetectProvider returns the provider that would be used based on current environment
func DetectProvider() string {
	provider := os.Getenv(EnvProvider)
	if provider != "" {
		return strings.ToLower(provider)
	}

	if os.Getenv(EnvOllamaHost) != "" {
		return ProviderOllama
	}
	if os.Getenv(EnvOpenAIAPIKey) != "" {
		return ProviderOpenAI
	}

	return ProviderLocal
}
