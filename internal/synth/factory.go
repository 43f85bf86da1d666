package synth

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/cloudwego/eino/components/model"

	"github.com/documind-ai/documind-go/internal/core"
)

// NewFromEnv constructs a Synthesizer from environment variables.
// MODEL_PROVIDER selects the backend; each backend uses its own native
// credential env vars.
//
// Environment variables:
//
//	MODEL_PROVIDER = extractive | ollama | openai | azure (default: extractive)
//
//	Ollama: OLLAMA_HOST (default: http://localhost:11434), OLLAMA_MODEL (default: llama3)
//	OpenAI: OPENAI_API_KEY, OPENAI_MODEL (default: gpt-4o)
//	Azure:  AZURE_OPENAI_API_KEY, AZURE_OPENAI_ENDPOINT, AZURE_OPENAI_DEPLOYMENT,
//	        AZURE_OPENAI_API_VERSION (default: 2024-02-01)
//
//	Shared: MODEL_MAX_TOKENS (default: 1024), MODEL_TEMPERATURE (default: 0.2),
//	        MODEL_CONTEXT_TOKENS (default: 6000)
func NewFromEnv(ctx context.Context) (Synthesizer, error) {
	backend := Backend(getEnvOrDefault("MODEL_PROVIDER", string(BackendExtractive)))
	if backend == BackendExtractive {
		return &Extractive{}, nil
	}

	cfg := &ModelConfig{
		MaxTokens:   getEnvInt("MODEL_MAX_TOKENS", 1024),
		Temperature: getEnvFloat32("MODEL_TEMPERATURE", 0.2),
	}

	var chatModel model.BaseChatModel
	var err error
	switch backend {
	case BackendOllama:
		cfg.BaseURL = getEnvOrDefault("OLLAMA_HOST", "http://localhost:11434")
		cfg.Model = getEnvOrDefault("OLLAMA_MODEL", "llama3")
		chatModel, err = newOllamaModel(ctx, cfg)
	case BackendOpenAI:
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
		cfg.Model = getEnvOrDefault("OPENAI_MODEL", "gpt-4o")
		chatModel, err = newOpenAIModel(ctx, cfg)
	case BackendAzure:
		cfg.APIKey = os.Getenv("AZURE_OPENAI_API_KEY")
		cfg.BaseURL = os.Getenv("AZURE_OPENAI_ENDPOINT")
		cfg.Model = os.Getenv("AZURE_OPENAI_DEPLOYMENT")
		cfg.APIVersion = getEnvOrDefault("AZURE_OPENAI_API_VERSION", "2024-02-01")
		chatModel, err = newAzureModel(ctx, cfg)
	default:
		return nil, fmt.Errorf("synth: unknown backend %q (valid: extractive, ollama, openai, azure): %w",
			backend, core.ErrConfig)
	}
	if err != nil {
		return nil, err
	}

	return NewLLM(chatModel, getEnvInt("MODEL_CONTEXT_TOKENS", DefaultMaxContextTokens))
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

// getEnvFloat32 returns the float32 value of the named environment
// variable, or fallback if the variable is unset, empty, or not parseable.
func getEnvFloat32(key string, fallback float32) float32 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 32); err == nil {
			return float32(f)
		}
	}
	return fallback
}
