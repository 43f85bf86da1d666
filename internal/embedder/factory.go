package embedder

import (
	"fmt"
	"os"
	"strconv"

	"github.com/documind-ai/documind-go/internal/core"
)

// Default embedding models and dimensions per backend.
const (
	defaultOllamaModel = "nomic-embed-text"
	defaultOpenAIModel = "text-embedding-3-small"

	// defaultOllamaDimensions is the output dimension of nomic-embed-text.
	// Other Ollama models may differ — override with EMBEDDING_DIMENSIONS.
	defaultOllamaDimensions = 768
	// defaultOpenAIDimensions is the output dimension of text-embedding-3-small.
	defaultOpenAIDimensions = 1536
)

// DefaultDimensions returns the default embedding vector size for the
// given backend name. Callers that pre-configure a vector index (e.g.
// Qdrant collection creation) should use this rather than hardcoding a
// value. EMBEDDING_DIMENSIONS always takes precedence when set.
func DefaultDimensions(backend string) int {
	if v := getEnvInt("EMBEDDING_DIMENSIONS", 0); v > 0 {
		return v
	}
	switch backend {
	case "ollama":
		return defaultOllamaDimensions
	default:
		return defaultOpenAIDimensions
	}
}

// NewFromEnv constructs a ready-to-use Gateway from environment variables.
//
// Environment variables:
//
//	EMBEDDING_PROVIDER   = ollama | openai | azure (default: ollama)
//	EMBEDDING_MODEL      = model name (defaults per backend)
//	EMBEDDING_DIMENSIONS = vector size (defaults: ollama 768, openai/azure 1536)
//	EMBEDDING_MAX_BATCH  = max texts per backend call (default: 64)
//	EMBEDDING_ENDPOINT   = endpoint override
//	EMBEDDING_API_KEY    = API key (openai/azure; falls back to OPENAI_API_KEY
//	                       or AZURE_OPENAI_API_KEY)
func NewFromEnv() (*Gateway, error) {
	backend := getEnvOrDefault("EMBEDDING_PROVIDER", "ollama")
	maxBatch := getEnvInt("EMBEDDING_MAX_BATCH", DefaultMaxBatch)

	switch backend {
	case "ollama":
		host := getEnv("EMBEDDING_ENDPOINT")
		if host == "" {
			host = getEnvOrDefault("OLLAMA_HOST", "http://localhost:11434")
		}
		model := getEnvOrDefault("EMBEDDING_MODEL", defaultOllamaModel)
		dims := getEnvInt("EMBEDDING_DIMENSIONS", defaultOllamaDimensions)
		return NewGateway(NewOllama(host, model), dims, maxBatch)

	case "openai":
		dims := getEnvInt("EMBEDDING_DIMENSIONS", defaultOpenAIDimensions)
		apiKey := getEnv("EMBEDDING_API_KEY")
		if apiKey == "" {
			apiKey = getEnv("OPENAI_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("embedder: openai requires OPENAI_API_KEY or EMBEDDING_API_KEY: %w", core.ErrConfig)
		}
		baseURL := getEnvOrDefault("EMBEDDING_ENDPOINT", "https://api.openai.com/v1")
		model := getEnvOrDefault("EMBEDDING_MODEL", defaultOpenAIModel)
		return NewGateway(NewOpenAI(&OpenAIConfig{
			BaseURL:    baseURL,
			APIKey:     apiKey,
			Model:      model,
			Dimensions: dims,
		}), dims, maxBatch)

	case "azure":
		dims := getEnvInt("EMBEDDING_DIMENSIONS", defaultOpenAIDimensions)
		apiKey := getEnv("EMBEDDING_API_KEY")
		if apiKey == "" {
			apiKey = getEnv("AZURE_OPENAI_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("embedder: azure requires AZURE_OPENAI_API_KEY or EMBEDDING_API_KEY: %w", core.ErrConfig)
		}
		endpoint := getEnv("EMBEDDING_ENDPOINT")
		if endpoint == "" {
			endpoint = getEnv("AZURE_OPENAI_ENDPOINT")
		}
		if endpoint == "" {
			return nil, fmt.Errorf("embedder: azure requires AZURE_OPENAI_ENDPOINT or EMBEDDING_ENDPOINT: %w", core.ErrConfig)
		}
		apiVersion := getEnvOrDefault("AZURE_OPENAI_API_VERSION", "2025-04-01-preview")
		model := getEnvOrDefault("EMBEDDING_MODEL", defaultOpenAIModel)
		return NewGateway(NewOpenAI(&OpenAIConfig{
			BaseURL:    endpoint + "/openai",
			APIKey:     apiKey,
			Model:      model,
			Dimensions: dims,
			Azure:      true,
			APIVersion: apiVersion,
		}), dims, maxBatch)

	default:
		return nil, fmt.Errorf("embedder: unknown backend %q — valid values: ollama, openai, azure: %w", backend, core.ErrConfig)
	}
}

// getEnv returns the value of the named environment variable, or empty string.
func getEnv(key string) string {
	return os.Getenv(key)
}

// getEnvOrDefault returns the value of the named environment variable, or
// fallback if the variable is unset or empty.
func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvInt returns the integer value of the named environment variable,
// or fallback if the variable is unset, empty, or not parseable.
func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
