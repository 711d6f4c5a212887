package embedder

import (
	"os"
	"testing"
)

func saveEmbedderEnv(t *testing.T) func() {
	t.Helper()
	origProvider := os.Getenv(EnvProvider)
	origOllama := os.Getenv(EnvOllamaHost)
	origOpenAI := os.Getenv(EnvOpenAIAPIKey)

	return func() {
		os.Setenv(EnvProvider, origProvider)
		os.Setenv(EnvOllamaHost, origOllama)
		os.Setenv(EnvOpenAIAPIKey, origOpenAI)
	}
}

func setOrUnset(key, value string) {
	if value != "" {
		os.Setenv(key, value)
	} else {
		os.Unsetenv(key)
	}
}

func TestDetectProvider(t *testing.T) {
	restore := saveEmbedderEnv(t)
	defer restore()

	tests := []struct {
		name           string
		provider       string
		ollamaHost     string
		openaiKey      string
		expectedResult string
	}{
		{
			name:           "explicit ollama provider",
			provider:       "ollama",
			expectedResult: ProviderOllama,
		},
		{
			name:           "explicit openai provider",
			provider:       "openai",
			expectedResult: ProviderOpenAI,
		},
		{
			name:           "explicit local provider",
			provider:       "local",
			expectedResult: ProviderLocal,
		},
		{
			name:           "ollama host present",
			ollamaHost:     "http://localhost:11434",
			expectedResult: ProviderOllama,
		},
		{
			name:           "openai key present",
			openaiKey:      "test-key",
			expectedResult: ProviderOpenAI,
		},
		{
			name:           "both configured, ollama takes precedence",
			ollamaHost:     "http://localhost:11434",
			openaiKey:      "openai-key",
			expectedResult: ProviderOllama,
		},
		{
			name:           "nothing configured - fallback to local",
			expectedResult: ProviderLocal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setOrUnset(EnvProvider, tt.provider)
			setOrUnset(EnvOllamaHost, tt.ollamaHost)
			setOrUnset(EnvOpenAIAPIKey, tt.openaiKey)

			got := DetectProvider()
			if got != tt.expectedResult {
				t.Errorf("DetectProvider() = %v, want %v", got, tt.expectedResult)
			}
		})
	}
}

func TestNewFromEnv(t *testing.T) {
	restore := saveEmbedderEnv(t)
	defer restore()

	t.Run("local provider (nothing configured)", func(t *testing.T) {
		os.Unsetenv(EnvProvider)
		os.Unsetenv(EnvOllamaHost)
		os.Unsetenv(EnvOpenAIAPIKey)

		embedder, err := NewFromEnv()
		if err != nil {
			t.Fatalf("NewFromEnv() error = %v", err)
		}
		defer embedder.Close()

		if embedder.Provider() != ProviderLocal {
			t.Errorf("Provider = %s, want %s", embedder.Provider(), ProviderLocal)
		}
	})

	t.Run("explicit ollama provider uses default host", func(t *testing.T) {
		os.Setenv(EnvProvider, "ollama")
		os.Unsetenv(EnvOllamaHost)
		os.Unsetenv(EnvOpenAIAPIKey)

		embedder, err := NewFromEnv()
		if err != nil {
			t.Fatalf("NewFromEnv() error = %v", err)
		}
		defer embedder.Close()

		if embedder.Provider() != ProviderOllama {
			t.Errorf("Provider = %s, want %s", embedder.Provider(), ProviderOllama)
		}
	})

	t.Run("openai with api key", func(t *testing.T) {
		os.Setenv(EnvProvider, "openai")
		os.Unsetenv(EnvOllamaHost)
		os.Setenv(EnvOpenAIAPIKey, "test-openai-key")

		embedder, err := NewFromEnv()
		if err != nil {
			t.Fatalf("NewFromEnv() error = %v", err)
		}
		defer embedder.Close()

		if embedder.Provider() != ProviderOpenAI {
			t.Errorf("Provider = %s, want %s", embedder.Provider(), ProviderOpenAI)
		}
	})

	t.Run("openai without api key", func(t *testing.T) {
		os.Setenv(EnvProvider, "openai")
		os.Unsetenv(EnvOllamaHost)
		os.Unsetenv(EnvOpenAIAPIKey)

		_, err := NewFromEnv()
		if err == nil {
			t.Error("Expected error when OPENAI_API_KEY not set")
		}
	})

	t.Run("unknown provider", func(t *testing.T) {
		os.Setenv(EnvProvider, "unknown")
		os.Unsetenv(EnvOllamaHost)
		os.Unsetenv(EnvOpenAIAPIKey)

		_, err := NewFromEnv()
		if err == nil {
			t.Error("Expected error for unknown provider")
		}
	})

	t.Run("auto-detect ollama", func(t *testing.T) {
		os.Unsetenv(EnvProvider)
		os.Setenv(EnvOllamaHost, "http://localhost:11434")
		os.Unsetenv(EnvOpenAIAPIKey)

		embedder, err := NewFromEnv()
		if err != nil {
			t.Fatalf("NewFromEnv() error = %v", err)
		}
		defer embedder.Close()

		if embedder.Provider() != ProviderOllama {
			t.Errorf("Provider = %s, want %s", embedder.Provider(), ProviderOllama)
		}
	})

	t.Run("auto-detect openai", func(t *testing.T) {
		os.Unsetenv(EnvProvider)
		os.Unsetenv(EnvOllamaHost)
		os.Setenv(EnvOpenAIAPIKey, "test-key")

		embedder, err := NewFromEnv()
		if err != nil {
			t.Fatalf("NewFromEnv() error = %v", err)
		}
		defer embedder.Close()

		if embedder.Provider() != ProviderOpenAI {
			t.Errorf("Provider = %s, want %s", embedder.Provider(), ProviderOpenAI)
		}
	})
}

func TestNew(t *testing.T) {
	restore := saveEmbedderEnv(t)
	defer restore()

	tests := []struct {
		name     string
		cfg      Config
		wantErr  bool
		wantProv string
	}{
		{
			name: "ollama with explicit host",
			cfg: Config{
				Provider:  ProviderOllama,
				BaseURL:   "http://localhost:11434",
				CacheSize: 100,
			},
			wantProv: ProviderOllama,
		},
		{
			name: "ollama with custom model",
			cfg: Config{
				Provider: ProviderOllama,
				BaseURL:  "http://localhost:11434",
				Model:    "mxbai-embed-large",
			},
			wantProv: ProviderOllama,
		},
		{
			name: "openai with key",
			cfg: Config{
				Provider:  ProviderOpenAI,
				APIKey:    "test-key",
				CacheSize: 100,
			},
			wantProv: ProviderOpenAI,
		},
		{
			name: "local provider",
			cfg: Config{
				Provider:  ProviderLocal,
				CacheSize: 50,
			},
			wantProv: ProviderLocal,
		},
		{
			name: "openai without key",
			cfg: Config{
				Provider: ProviderOpenAI,
			},
			wantErr: true,
		},
		{
			name: "unknown provider",
			cfg: Config{
				Provider: "unknown",
			},
			wantErr: true,
		},
		{
			name: "case insensitive provider",
			cfg: Config{
				Provider: "OLLAMA",
				BaseURL:  "http://localhost:11434",
			},
			wantProv: ProviderOllama,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Unsetenv(EnvOllamaHost)
			os.Unsetenv(EnvOpenAIAPIKey)

			embedder, err := New(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if !tt.wantErr {
				defer embedder.Close()
				if embedder.Provider() != tt.wantProv {
					t.Errorf("Provider = %s, want %s", embedder.Provider(), tt.wantProv)
				}
			}
		})
	}
}

func TestNewCustomModel(t *testing.T) {
	embedder, err := New(Config{
		Provider: ProviderOllama,
		BaseURL:  "http://localhost:11434",
		Model:    "mxbai-embed-large",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer embedder.Close()

	if embedder.Model() != "mxbai-embed-large" {
		t.Errorf("Model = %s, want mxbai-embed-large", embedder.Model())
	}
}
