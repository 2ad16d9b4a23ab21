package config

import (
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT",
		"AI_MODEL_CATALOG",
		"AI_DEFAULT_MODEL",
		"AI_TEMPERATURE",
		"AI_STREAM_COALESCE_CHARS",
		"AI_INACTIVITY_TIMEOUT_SECONDS",
		"SESSION_TTL_MINUTES",
		"SESSION_MAX_COUNT",
		"SESSION_MAX_HISTORY",
		"KNOWLEDGE_PACK_DIR",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}

	if cfg.Server.Addr != ":8080" {
		t.Fatalf("unexpected addr: %q", cfg.Server.Addr)
	}
	if cfg.AI.CatalogPath != "models.yaml" {
		t.Fatalf("unexpected catalog path: %q", cfg.AI.CatalogPath)
	}
	if cfg.AI.InactivityWindow != 60*time.Second {
		t.Fatalf("unexpected inactivity window: %v", cfg.AI.InactivityWindow)
	}
	if cfg.Session.TTL != 30*time.Minute || cfg.Session.MaxSessions != 1000 || cfg.Session.MaxHistory != 50 {
		t.Fatalf("unexpected session defaults: %+v", cfg.Session)
	}
}

func TestLoadCustomValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("AI_TEMPERATURE", "0.7")
	t.Setenv("AI_STREAM_COALESCE_CHARS", "24")
	t.Setenv("AI_INACTIVITY_TIMEOUT_SECONDS", "15")
	t.Setenv("SESSION_TTL_MINUTES", "5")
	t.Setenv("SESSION_MAX_COUNT", "10")
	t.Setenv("SESSION_MAX_HISTORY", "8")
	t.Setenv("KNOWLEDGE_PACK_DIR", "/srv/knowledge")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}

	if cfg.Server.Addr != ":9090" {
		t.Fatalf("unexpected addr: %q", cfg.Server.Addr)
	}
	if cfg.AI.DefaultTemperature == nil || *cfg.AI.DefaultTemperature != 0.7 {
		t.Fatalf("temperature not parsed: %+v", cfg.AI)
	}
	if cfg.AI.CoalesceChars != 24 || cfg.AI.InactivityWindow != 15*time.Second {
		t.Fatalf("unexpected ai config: %+v", cfg.AI)
	}
	if cfg.Session.TTL != 5*time.Minute || cfg.Session.MaxSessions != 10 || cfg.Session.MaxHistory != 8 {
		t.Fatalf("unexpected session config: %+v", cfg.Session)
	}
	if cfg.Knowledge.Dir != "/srv/knowledge" {
		t.Fatalf("unexpected knowledge dir: %q", cfg.Knowledge.Dir)
	}
}

func TestLoadAcceptsFullListenAddr(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "127.0.0.1:3000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if cfg.Server.Addr != "127.0.0.1:3000" {
		t.Fatalf("unexpected addr: %q", cfg.Server.Addr)
	}
}

func TestLoadRejectsMalformedNumbers(t *testing.T) {
	clearEnv(t)
	t.Setenv("SESSION_TTL_MINUTES", "soon")

	if _, err := Load(); err == nil {
		t.Fatal("expected a parse error")
	}
}
