package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/cloudwego/eino/schema"

	"github.com/pairforge-ai/pairforge/backend/internal/config"
	"github.com/pairforge-ai/pairforge/backend/internal/knowledge"
	modelchat "github.com/pairforge-ai/pairforge/backend/internal/model/chat"
	"github.com/pairforge-ai/pairforge/backend/internal/model/prompt"
	"github.com/pairforge-ai/pairforge/backend/internal/service/ai"
)

// Manager is the entry point for prompt-driven conversations. It resolves
// a session through the registry, renders the prompt with knowledge
// context, and delegates to the session. It holds no conversation state of
// its own.
type Manager struct {
	memory    *Memory
	registry  *ai.Registry
	prompts   prompt.Store
	knowledge *knowledge.Base
	defaults  config.AIConfig
	sessions  config.SessionConfig
}

// NewManager wires the chat manager's collaborators.
func NewManager(memory *Memory, registry *ai.Registry, prompts prompt.Store, base *knowledge.Base, defaults config.AIConfig, sessions config.SessionConfig) *Manager {
	return &Manager{
		memory:    memory,
		registry:  registry,
		prompts:   prompts,
		knowledge: base,
		defaults:  defaults,
		sessions:  sessions,
	}
}

// StartRequest describes one conversation turn.
type StartRequest struct {
	// SessionKey resumes an existing conversation; empty creates one.
	SessionKey string
	// PromptID selects a catalog prompt. Empty means the user input is
	// the rendered prompt itself (free chat).
	PromptID string
	UserInput string
	// ContextKey names a knowledge context to inject; unknown keys
	// degrade to no context plus a warning.
	ContextKey string
	// Vars supplies any extra template variables.
	Vars map[string]string

	Model       string
	Temperature *float32
	// Variant overrides the prompt's natural output mode.
	Variant Variant
}

// StartResult carries the resolved session key (possibly freshly minted)
// and any render warnings back to the transport layer.
type StartResult struct {
	Key      string
	Created  bool
	Warnings []string
}

// StartStream renders the prompt and starts a streaming turn on the
// resolved session.
func (m *Manager) StartStream(ctx context.Context, req StartRequest) (StartResult, *schema.StreamReader[string], error) {
	req.Variant = VariantStreaming
	result, session, rendered, err := m.resolve(ctx, req)
	if err != nil {
		return result, nil, err
	}

	stream, err := session.Start(ctx, rendered)
	if err != nil {
		return result, nil, err
	}

	log.Printf("[chat] streaming turn started session=%s prompt=%s model=%s", result.Key, req.PromptID, session.opts.Model)
	return result, stream, nil
}

// RunJSON renders the prompt and runs a buffered JSON-aggregation turn on
// the resolved session.
func (m *Manager) RunJSON(ctx context.Context, req StartRequest) (StartResult, json.RawMessage, error) {
	req.Variant = VariantJSON
	result, session, rendered, err := m.resolve(ctx, req)
	if err != nil {
		return result, nil, err
	}

	doc, err := session.StartJSON(ctx, rendered)
	if err != nil {
		return result, nil, err
	}

	log.Printf("[chat] guided turn completed session=%s prompt=%s bytes=%d", result.Key, req.PromptID, len(doc))
	return result, doc, nil
}

// CreateSession registers an empty session up front so clients can obtain
// a key before the first turn.
func (m *Manager) CreateSession(ctx context.Context, req StartRequest) (modelchat.SessionInfo, error) {
	opts, err := m.sessionOptions(req)
	if err != nil {
		return modelchat.SessionInfo{}, err
	}

	session, _, err := m.memory.GetOrCreate("", func(key string) (*Session, error) {
		return m.buildSession(ctx, key, opts)
	})
	if err != nil {
		return modelchat.SessionInfo{}, err
	}
	return session.Info(), nil
}

// Session looks a session up by key.
func (m *Manager) Session(key string) (*Session, bool) {
	return m.memory.Get(key)
}

// Transcript returns the committed messages of a session.
func (m *Manager) Transcript(key string) ([]modelchat.Message, error) {
	session, ok := m.memory.Get(key)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session.History(), nil
}

// Remove drops a session from the registry.
func (m *Manager) Remove(key string) {
	m.memory.Remove(key)
}

// resolve renders the prompt and fetches or creates the session.
func (m *Manager) resolve(ctx context.Context, req StartRequest) (StartResult, *Session, string, error) {
	var warnings []string

	rendered, err := m.render(req, &warnings)
	if err != nil {
		return StartResult{Warnings: warnings}, nil, "", err
	}

	opts, err := m.sessionOptions(req)
	if err != nil {
		return StartResult{Warnings: warnings}, nil, "", err
	}

	session, created, err := m.memory.GetOrCreate(req.SessionKey, func(key string) (*Session, error) {
		return m.buildSession(ctx, key, opts)
	})
	if err != nil {
		return StartResult{Warnings: warnings}, nil, "", err
	}

	return StartResult{Key: session.Key(), Created: created, Warnings: warnings}, session, rendered, nil
}

func (m *Manager) render(req StartRequest, warnings *[]string) (string, error) {
	if req.PromptID == "" {
		// Free chat: the user input is the prompt.
		return req.UserInput, nil
	}

	entry, ok := m.prompts.FindByID(req.PromptID)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrPromptNotFound, req.PromptID)
	}

	context := ""
	if req.ContextKey != "" {
		content, found := m.knowledge.Content(req.ContextKey)
		if found {
			context = content
		} else {
			*warnings = append(*warnings, fmt.Sprintf("knowledge context %q not found, continuing without it", req.ContextKey))
		}
	}

	return entry.Template.Render(req.UserInput, context, req.Vars, warnings)
}

func (m *Manager) sessionOptions(req StartRequest) (Options, error) {
	modelID := req.Model
	if modelID == "" {
		modelID = m.defaults.DefaultModel
	}
	if modelID == "" {
		modelID = m.registry.DefaultModel()
	}

	temperature := req.Temperature
	if temperature == nil {
		temperature = m.defaults.DefaultTemperature
	}

	variant := req.Variant
	if variant == "" {
		if entry, ok := m.prompts.FindByID(req.PromptID); ok && entry.Mode == prompt.ModeGuided {
			variant = VariantJSON
		} else {
			variant = VariantStreaming
		}
	}

	return Options{
		Model:            modelID,
		Temperature:      temperature,
		Variant:          variant,
		CoalesceChars:    m.defaults.CoalesceChars,
		MaxHistory:       m.sessions.MaxHistory,
		InactivityWindow: m.defaults.InactivityWindow,
	}, nil
}

func (m *Manager) buildSession(ctx context.Context, key string, opts Options) (*Session, error) {
	chatModel, err := m.registry.ChatModel(ctx, opts.Model, opts.Temperature)
	if err != nil {
		return nil, err
	}
	return NewSession(ctx, key, chatModel, opts)
}
