// Package ai adapts heterogeneous LLM providers to one chat model
// contract. Providers are selected by model id through a registry fed from
// the YAML model catalog; the rest of the service never sees a concrete
// provider type.
package ai

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"

	"github.com/pairforge-ai/pairforge/backend/internal/config"
)

// Registry resolves model identifiers to chat model instances.
type Registry struct {
	catalog config.Catalog
}

// NewRegistry builds a registry over the loaded model catalog.
func NewRegistry(catalog config.Catalog) *Registry {
	return &Registry{catalog: catalog}
}

// DefaultModel returns the catalog's default model id.
func (r *Registry) DefaultModel() string {
	return r.catalog.Default
}

// Models lists the selectable model ids.
func (r *Registry) Models() []string {
	ids := make([]string, 0, len(r.catalog.Models))
	for _, entry := range r.catalog.Models {
		ids = append(ids, entry.ID)
	}
	return ids
}

// ChatModel instantiates the backend for modelID. A temperature override
// takes precedence over the catalog entry's default.
func (r *Registry) ChatModel(ctx context.Context, modelID string, temperature *float32) (model.BaseChatModel, error) {
	if modelID == "" {
		modelID = r.catalog.Default
	}

	entry, ok := r.catalog.Find(modelID)
	if !ok {
		return nil, fmt.Errorf("unknown model %q", modelID)
	}
	if temperature == nil {
		temperature = entry.Temperature
	}

	switch entry.Provider {
	case config.ProviderArk:
		return r.arkModel(ctx, entry, temperature)
	case config.ProviderOpenAI:
		return r.openAIModel(entry, temperature)
	case config.ProviderMock:
		return &MockChatModel{}, nil
	default:
		return nil, fmt.Errorf("model %q: unknown provider %q", modelID, entry.Provider)
	}
}

func (r *Registry) arkModel(ctx context.Context, entry config.ModelEntry, temperature *float32) (model.BaseChatModel, error) {
	apiKey, err := keyFromEnv(entry)
	if err != nil {
		return nil, err
	}

	return ark.NewChatModel(ctx, &ark.ChatModelConfig{
		BaseURL:     entry.BaseURL,
		Region:      entry.Region,
		APIKey:      apiKey,
		Model:       entry.Name,
		Temperature: temperature,
		MaxTokens:   entry.MaxTokens,
	})
}

func (r *Registry) openAIModel(entry config.ModelEntry, temperature *float32) (model.BaseChatModel, error) {
	apiKey, err := keyFromEnv(entry)
	if err != nil {
		return nil, err
	}

	return NewOpenAIChatModel(OpenAIConfig{
		APIKey:      apiKey,
		BaseURL:     entry.BaseURL,
		Model:       entry.Name,
		Temperature: temperature,
		MaxTokens:   entry.MaxTokens,
	})
}

func keyFromEnv(entry config.ModelEntry) (string, error) {
	if entry.APIKeyEnv == "" {
		return "", fmt.Errorf("model %q: apiKeyEnv not configured", entry.ID)
	}
	key := strings.TrimSpace(os.Getenv(entry.APIKeyEnv))
	if key == "" {
		return "", fmt.Errorf("model %q: environment variable %s is empty", entry.ID, entry.APIKeyEnv)
	}
	return key, nil
}
