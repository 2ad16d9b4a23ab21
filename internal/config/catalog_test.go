package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "models.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	return path
}

func TestLoadCatalogParsesEntries(t *testing.T) {
	path := writeCatalog(t, `
default: gpt
models:
  - id: gpt
    provider: openai
    name: gpt-4o-mini
    apiKeyEnv: OPENAI_API_KEY
    temperature: 0.4
  - id: doubao
    provider: ark
    name: doubao-pro
    region: cn-beijing
    apiKeyEnv: ARK_API_KEY
`)

	catalog, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("LoadCatalog err: %v", err)
	}

	if catalog.Default != "gpt" {
		t.Fatalf("unexpected default: %q", catalog.Default)
	}
	entry, ok := catalog.Find("doubao")
	if !ok || entry.Provider != ProviderArk || entry.Region != "cn-beijing" {
		t.Fatalf("unexpected entry: %+v", entry)
	}
	gpt, _ := catalog.Find("gpt")
	if gpt.Temperature == nil || *gpt.Temperature != 0.4 {
		t.Fatalf("temperature not parsed: %+v", gpt)
	}
}

func TestLoadCatalogMissingFileFallsBackToMock(t *testing.T) {
	catalog, err := LoadCatalog(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadCatalog err: %v", err)
	}
	if catalog.Default != "mock" {
		t.Fatalf("expected mock fallback, got %+v", catalog)
	}
}

func TestLoadCatalogRejectsUnknownProvider(t *testing.T) {
	path := writeCatalog(t, `
models:
  - id: weird
    provider: carrier-pigeon
`)

	if _, err := LoadCatalog(path); err == nil {
		t.Fatal("expected an unknown-provider error")
	}
}

func TestLoadCatalogRejectsDanglingDefault(t *testing.T) {
	path := writeCatalog(t, `
default: missing
models:
  - id: gpt
    provider: openai
`)

	if _, err := LoadCatalog(path); err == nil {
		t.Fatal("expected a dangling-default error")
	}
}

func TestLoadCatalogDefaultsToFirstModel(t *testing.T) {
	path := writeCatalog(t, `
models:
  - id: first
    provider: mock
  - id: second
    provider: mock
`)

	catalog, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("LoadCatalog err: %v", err)
	}
	if catalog.Default != "first" {
		t.Fatalf("expected first model as default, got %q", catalog.Default)
	}
}
