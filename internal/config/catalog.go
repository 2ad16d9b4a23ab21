package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Provider families a model entry can resolve to.
const (
	ProviderArk    = "ark"
	ProviderOpenAI = "openai"
	ProviderMock   = "mock"
)

// ModelEntry describes one selectable model backend. Credentials are never
// stored in the catalog itself; APIKeyEnv names the environment variable
// holding them.
type ModelEntry struct {
	ID          string   `yaml:"id"`
	Provider    string   `yaml:"provider"`
	Name        string   `yaml:"name"`
	BaseURL     string   `yaml:"baseUrl"`
	Region      string   `yaml:"region"`
	APIKeyEnv   string   `yaml:"apiKeyEnv"`
	Temperature *float32 `yaml:"temperature"`
	MaxTokens   *int     `yaml:"maxTokens"`
}

// Catalog is the model configuration loaded from YAML.
type Catalog struct {
	Default string       `yaml:"default"`
	Models  []ModelEntry `yaml:"models"`
}

// Find returns the entry with the given id.
func (c Catalog) Find(id string) (ModelEntry, bool) {
	for _, entry := range c.Models {
		if entry.ID == id {
			return entry, true
		}
	}
	return ModelEntry{}, false
}

// LoadCatalog parses the model catalog file. A missing file falls back to
// a catalog containing only the mock provider so the service stays usable
// in development.
func LoadCatalog(path string) (Catalog, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return defaultCatalog(), nil
	}
	if err != nil {
		return Catalog{}, fmt.Errorf("read model catalog: %w", err)
	}

	var catalog Catalog
	if err := yaml.Unmarshal(raw, &catalog); err != nil {
		return Catalog{}, fmt.Errorf("parse model catalog %s: %w", path, err)
	}
	if len(catalog.Models) == 0 {
		return Catalog{}, fmt.Errorf("model catalog %s lists no models", path)
	}

	for _, entry := range catalog.Models {
		switch entry.Provider {
		case ProviderArk, ProviderOpenAI, ProviderMock:
		default:
			return Catalog{}, fmt.Errorf("model %q: unknown provider %q", entry.ID, entry.Provider)
		}
	}

	if catalog.Default == "" {
		catalog.Default = catalog.Models[0].ID
	}
	if _, ok := catalog.Find(catalog.Default); !ok {
		return Catalog{}, fmt.Errorf("default model %q not present in catalog", catalog.Default)
	}

	return catalog, nil
}

func defaultCatalog() Catalog {
	return Catalog{
		Default: "mock",
		Models:  []ModelEntry{{ID: "mock", Provider: ProviderMock}},
	}
}
