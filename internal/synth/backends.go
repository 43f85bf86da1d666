package synth

import (
	"context"
	"fmt"

	einoollama "github.com/cloudwego/eino-ext/components/model/ollama"
	einoopenai "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"github.com/documind-ai/documind-go/internal/core"
)

// Backend enumerates the supported answer backends.
type Backend string

const (
	// BackendExtractive selects the model-free extractive synthesizer.
	BackendExtractive Backend = "extractive"
	// BackendOllama selects a locally running Ollama instance.
	BackendOllama Backend = "ollama"
	// BackendOpenAI selects the OpenAI API.
	BackendOpenAI Backend = "openai"
	// BackendAzure selects Azure OpenAI Service.
	BackendAzure Backend = "azure"
)

// ModelConfig holds chat model parameters for the LLM backends.
type ModelConfig struct {
	// Model is the model name or Azure deployment ID.
	Model string

	// BaseURL overrides the default API endpoint (required for Ollama
	// and Azure).
	BaseURL string

	// APIKey is the authentication credential for the selected backend.
	APIKey string

	// APIVersion is the Azure OpenAI REST API version (Azure only).
	APIVersion string

	// MaxTokens caps generated tokens per response.
	MaxTokens int

	// Temperature controls response randomness (0.0-1.0).
	Temperature float32
}

// newOllamaModel constructs a chat model backed by a local Ollama instance.
func newOllamaModel(ctx context.Context, cfg *ModelConfig) (model.BaseChatModel, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	v, err := einoollama.NewChatModel(ctx, &einoollama.ChatModelConfig{
		BaseURL: baseURL,
		Model:   cfg.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("synth: ollama chat model: %w", err)
	}
	return v, nil
}

// newOpenAIModel constructs a chat model backed by the OpenAI API.
func newOpenAIModel(ctx context.Context, cfg *ModelConfig) (model.BaseChatModel, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("synth: API key is required for the openai backend: %w", core.ErrConfig)
	}
	v, err := einoopenai.NewChatModel(ctx, &einoopenai.ChatModelConfig{
		Model:       cfg.Model,
		APIKey:      cfg.APIKey,
		MaxTokens:   &cfg.MaxTokens,
		Temperature: &cfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("synth: openai chat model: %w", err)
	}
	return v, nil
}

// newAzureModel constructs a chat model backed by Azure OpenAI Service.
func newAzureModel(ctx context.Context, cfg *ModelConfig) (model.BaseChatModel, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("synth: API key is required for the azure backend: %w", core.ErrConfig)
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("synth: endpoint is required for the azure backend: %w", core.ErrConfig)
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("synth: deployment name is required for the azure backend: %w", core.ErrConfig)
	}
	v, err := einoopenai.NewChatModel(ctx, &einoopenai.ChatModelConfig{
		Model:       cfg.Model,
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
		ByAzure:     true,
		APIVersion:  cfg.APIVersion,
		MaxTokens:   &cfg.MaxTokens,
		Temperature: &cfg.Temperature,
		// Use the deployment name as-is; the default mapper strips dots
		// and colons, which breaks deployment names like "gpt-4.1".
		AzureModelMapperFunc: func(model string) string { return model },
	})
	if err != nil {
		return nil, fmt.Errorf("synth: azure chat model: %w", err)
	}
	return v, nil
}
