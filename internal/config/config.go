package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates all service configuration.
type Config struct {
	Server    ServerConfig
	AI        AIConfig
	Session   SessionConfig
	Knowledge KnowledgeConfig
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	session, err := loadSessionConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:    server,
		AI:        ai,
		Session:   session,
		Knowledge: KnowledgeConfig{Dir: strings.TrimSpace(os.Getenv("KNOWLEDGE_PACK_DIR"))},
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// Accept ":8080" or "127.0.0.1:8080" verbatim.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// AIConfig describes model selection and generation defaults.
type AIConfig struct {
	CatalogPath        string
	DefaultModel       string
	DefaultTemperature *float32
	// CoalesceChars re-segments the outbound chunk stream: deltas are
	// buffered until at least this many characters are pending. Zero
	// forwards backend chunks as-is.
	CoalesceChars int
	// InactivityWindow fails a generation when no chunk arrives from the
	// backend within this duration.
	InactivityWindow time.Duration
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloat32Env("AI_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	coalesce, err := parseOptionalIntEnv("AI_STREAM_COALESCE_CHARS")
	if err != nil {
		return AIConfig{}, err
	}
	coalesceChars := 0
	if coalesce != nil && *coalesce > 0 {
		coalesceChars = *coalesce
	}

	inactivity, err := parseOptionalIntEnv("AI_INACTIVITY_TIMEOUT_SECONDS")
	if err != nil {
		return AIConfig{}, err
	}
	window := 60 * time.Second
	if inactivity != nil && *inactivity > 0 {
		window = time.Duration(*inactivity) * time.Second
	}

	return AIConfig{
		CatalogPath:        getEnvOrDefault("AI_MODEL_CATALOG", "models.yaml"),
		DefaultModel:       strings.TrimSpace(os.Getenv("AI_DEFAULT_MODEL")),
		DefaultTemperature: temperature,
		CoalesceChars:      coalesceChars,
		InactivityWindow:   window,
	}, nil
}

// SessionConfig bounds the in-memory conversation registry.
type SessionConfig struct {
	// TTL evicts sessions idle longer than this. Sessions with a
	// generation in flight are never evicted.
	TTL time.Duration
	// MaxSessions caps the registry; beyond it the oldest idle sessions
	// are dropped first.
	MaxSessions int
	// MaxHistory caps messages retained per session; oldest turns are
	// dropped beyond it.
	MaxHistory int
}

func loadSessionConfig() (SessionConfig, error) {
	ttlMinutes, err := parseOptionalIntEnv("SESSION_TTL_MINUTES")
	if err != nil {
		return SessionConfig{}, err
	}
	ttl := 30 * time.Minute
	if ttlMinutes != nil && *ttlMinutes > 0 {
		ttl = time.Duration(*ttlMinutes) * time.Minute
	}

	maxSessions, err := parseOptionalIntEnv("SESSION_MAX_COUNT")
	if err != nil {
		return SessionConfig{}, err
	}
	limit := 1000
	if maxSessions != nil && *maxSessions > 0 {
		limit = *maxSessions
	}

	maxHistory, err := parseOptionalIntEnv("SESSION_MAX_HISTORY")
	if err != nil {
		return SessionConfig{}, err
	}
	historyCap := 50
	if maxHistory != nil && *maxHistory > 0 {
		historyCap = *maxHistory
	}

	return SessionConfig{TTL: ttl, MaxSessions: limit, MaxHistory: historyCap}, nil
}

// KnowledgeConfig locates the knowledge pack on disk.
type KnowledgeConfig struct {
	Dir string
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalFloat32Env(key string) (*float32, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	result := float32(val)
	return &result, nil
}
