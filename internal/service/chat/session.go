package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cloudwego/eino/components/model"
	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/pairforge-ai/pairforge/backend/internal/model/chat"
	"github.com/pairforge-ai/pairforge/backend/internal/service/ai"
)

// Variant selects how a session delivers model output.
type Variant string

const (
	// VariantStreaming republishes backend chunks incrementally.
	VariantStreaming Variant = "streaming"
	// VariantJSON buffers the full response and parses it as JSON.
	VariantJSON Variant = "json"
)

// State of a session's generation machine. Completed and Failed are
// transient: the session returns to Idle as soon as a generation concludes,
// ready for the next turn; the last concluded outcome stays queryable via
// LastOutcome.
type State int32

const (
	StateIdle State = iota
	StateGenerating
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateGenerating:
		return "generating"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// historyWindow bounds how many stored messages are replayed to the model
// on each turn.
const historyWindow = 10

const streamBuffer = 8

// errOutputClosed signals that the consumer closed the output stream.
var errOutputClosed = errors.New("output stream closed by consumer")

// Options fix a session's behavior for its whole lifetime.
type Options struct {
	Model       string
	Temperature *float32
	Variant     Variant
	// SystemPrompt seeds the conversation; empty falls back to a neutral
	// delivery-assistant role.
	SystemPrompt string
	// CoalesceChars re-segments the outbound stream into pieces of at
	// least this many characters. Zero forwards chunks as received.
	CoalesceChars int
	// MaxHistory caps stored messages; oldest turns are dropped beyond it.
	MaxHistory int
	// InactivityWindow fails the generation when no backend chunk arrives
	// within it. Zero disables the watchdog.
	InactivityWindow time.Duration
}

const defaultSystemPrompt = "You are an assistant supporting a software delivery team. Be concise and concrete."

// Session owns one conversation: its committed message history and at most
// one in-flight generation. The Idle->Generating transition is a CAS, so
// concurrent Start calls yield exactly one winner; everyone else gets
// ErrSessionBusy.
type Session struct {
	key       string
	createdAt time.Time
	opts      Options
	chain     compose.Runnable[map[string]any, *schema.Message]

	state atomic.Int32

	mu          sync.Mutex
	history     []chat.Message
	cancel      context.CancelFunc
	lastActive  time.Time
	lastOutcome State
}

// NewSession compiles the prompt chain for the given backend and returns an
// idle session. The chain is the only path through which the session talks
// to the model.
func NewSession(ctx context.Context, key string, chatModel model.BaseChatModel, opts Options) (*Session, error) {
	if opts.Variant == "" {
		opts.Variant = VariantStreaming
	}
	if opts.SystemPrompt == "" {
		opts.SystemPrompt = defaultSystemPrompt
	}

	template := einoprompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(template)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("compile chat chain: %w", err)
	}

	now := time.Now().UTC()
	return &Session{
		key:        key,
		createdAt:  now,
		opts:       opts,
		chain:      runnable,
		lastActive: now,
	}, nil
}

// Key returns the opaque session key.
func (s *Session) Key() string { return s.key }

// Variant returns the session's output mode.
func (s *Session) Variant() Variant { return s.opts.Variant }

// State returns the current generation state.
func (s *Session) State() State { return State(s.state.Load()) }

// LastOutcome returns how the most recent generation concluded. StateIdle
// means no generation has concluded yet, or the last one was cancelled.
func (s *Session) LastOutcome() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastOutcome
}

// LastActive reports when the session last started or concluded a turn.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// History returns a snapshot of committed messages. While a generation is
// in flight the pending user turn is visible but no partial assistant text
// ever is.
func (s *Session) History() []chat.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := make([]chat.Message, len(s.history))
	copy(copied, s.history)
	return copied
}

// Info summarizes the session for API responses.
func (s *Session) Info() chat.SessionInfo {
	s.mu.Lock()
	messages := len(s.history)
	s.mu.Unlock()

	return chat.SessionInfo{
		Key:         s.key,
		Variant:     string(s.opts.Variant),
		Model:       s.opts.Model,
		Temperature: s.opts.Temperature,
		CreatedAt:   s.createdAt,
		Messages:    messages,
	}
}

// Cancel stops an in-flight generation. Safe to call from any goroutine,
// including one that did not start the generation; a no-op when idle.
func (s *Session) Cancel() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Start begins a generation turn and returns the live chunk stream. The
// stream ends with io.EOF on success or with a terminal backend error;
// closing it cancels the generation. On every exit path the session
// returns to Idle, and a turn that did not complete leaves history
// untouched.
func (s *Session) Start(ctx context.Context, renderedPrompt string) (*schema.StreamReader[string], error) {
	if !s.state.CompareAndSwap(int32(StateIdle), int32(StateGenerating)) {
		return nil, ErrSessionBusy
	}

	genCtx, cancel := context.WithCancel(ctx)
	input := s.begin(cancel, renderedPrompt)

	src, err := s.chain.Stream(genCtx, input)
	if err != nil {
		cancel()
		s.finish(StateFailed, nil)
		return nil, ai.Classify(err)
	}

	out, sink := schema.Pipe[string](streamBuffer)
	go s.pump(genCtx, cancel, src, sink)
	return out, nil
}

// StartJSON begins a generation turn, buffers the whole response, and
// parses it as a JSON document. Parse failure is reported as
// MalformedOutputError with the raw text attached and commits nothing.
func (s *Session) StartJSON(ctx context.Context, renderedPrompt string) (json.RawMessage, error) {
	if !s.state.CompareAndSwap(int32(StateIdle), int32(StateGenerating)) {
		return nil, ErrSessionBusy
	}

	genCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	input := s.begin(cancel, renderedPrompt)

	src, err := s.chain.Stream(genCtx, input)
	if err != nil {
		s.finish(StateFailed, nil)
		return nil, ai.Classify(err)
	}

	full, err := s.consume(genCtx, cancel, src, nil)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			s.finish(StateIdle, nil)
		} else {
			s.finish(StateFailed, nil)
		}
		return nil, err
	}

	doc, parseErr := extractJSON(full)
	if parseErr != nil {
		s.finish(StateFailed, nil)
		return nil, &MalformedOutputError{Raw: full, Err: parseErr}
	}

	s.finish(StateCompleted, &full)
	return doc, nil
}

// begin records the pending user turn and builds the chain input. The
// replayed history excludes the new turn; the query placeholder carries it.
func (s *Session) begin(cancel context.CancelFunc, renderedPrompt string) map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancel = cancel
	s.lastActive = time.Now()
	replay := s.modelHistoryLocked()
	s.history = append(s.history, chat.Message{
		Role:      chat.RoleUser,
		Content:   renderedPrompt,
		CreatedAt: time.Now().UTC(),
	})

	return map[string]any{
		"system":  s.opts.SystemPrompt,
		"history": replay,
		"query":   renderedPrompt,
	}
}

// pump drives a streaming turn: republish chunks to the sink, then commit
// or roll back.
func (s *Session) pump(ctx context.Context, cancel context.CancelFunc, src *schema.StreamReader[*schema.Message], sink *schema.StreamWriter[string]) {
	defer cancel()
	defer sink.Close()

	full, err := s.consume(ctx, cancel, src, func(piece string) bool {
		return !sink.Send(piece, nil)
	})

	switch {
	case err == nil:
		s.finish(StateCompleted, &full)
	case errors.Is(err, context.Canceled), errors.Is(err, errOutputClosed):
		s.finish(StateIdle, nil)
	default:
		s.finish(StateFailed, nil)
		sink.Send("", err)
	}
}

// consume drains the backend stream in arrival order. emit forwards a
// piece to the caller and reports whether the caller is still listening;
// nil emit buffers only (JSON variant). The inactivity watchdog cancels
// the generation when the backend stalls between chunks.
func (s *Session) consume(ctx context.Context, cancel context.CancelFunc, src *schema.StreamReader[*schema.Message], emit func(string) bool) (string, error) {
	defer src.Close()

	var timedOut atomic.Bool
	var watchdog *time.Timer
	if window := s.opts.InactivityWindow; window > 0 {
		watchdog = time.AfterFunc(window, func() {
			timedOut.Store(true)
			cancel()
		})
		defer watchdog.Stop()
	}

	var full strings.Builder
	var pending strings.Builder

	flush := func() error {
		if emit == nil || pending.Len() == 0 {
			return nil
		}
		piece := pending.String()
		pending.Reset()
		if !emit(piece) {
			return errOutputClosed
		}
		return nil
	}

	for {
		chunk, err := src.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if timedOut.Load() {
				return "", fmt.Errorf("%w: no chunk within %s", ai.ErrBackendTimeout, s.opts.InactivityWindow)
			}
			if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
				return "", context.Canceled
			}
			return "", ai.Classify(err)
		}
		if watchdog != nil {
			watchdog.Reset(s.opts.InactivityWindow)
		}
		if chunk == nil || chunk.Content == "" {
			continue
		}

		full.WriteString(chunk.Content)
		pending.WriteString(chunk.Content)
		if pending.Len() >= s.opts.CoalesceChars {
			if err := flush(); err != nil {
				return "", err
			}
		}
	}

	if err := flush(); err != nil {
		return "", err
	}
	return full.String(), nil
}

// finish concludes a generation on every exit path. A non-nil assistant
// text commits the exchange; nil rolls the pending user turn back so
// failed or cancelled generations leave history unchanged.
func (s *Session) finish(outcome State, assistant *string) {
	s.mu.Lock()
	if assistant != nil {
		s.history = append(s.history, chat.Message{
			Role:      chat.RoleAssistant,
			Content:   *assistant,
			CreatedAt: time.Now().UTC(),
		})
		s.trimHistoryLocked()
	} else if n := len(s.history); n > 0 && s.history[n-1].Role == chat.RoleUser {
		s.history = s.history[:n-1]
	}
	s.cancel = nil
	s.lastActive = time.Now()
	s.lastOutcome = outcome
	s.mu.Unlock()

	s.state.Store(int32(StateIdle))
}

func (s *Session) trimHistoryLocked() {
	max := s.opts.MaxHistory
	if max <= 0 || len(s.history) <= max {
		return
	}
	trimmed := make([]chat.Message, max)
	copy(trimmed, s.history[len(s.history)-max:])
	s.history = trimmed
}

// modelHistoryLocked maps the most recent stored turns to schema messages.
func (s *Session) modelHistoryLocked() []*schema.Message {
	if len(s.history) == 0 {
		return nil
	}

	start := 0
	if len(s.history) > historyWindow {
		start = len(s.history) - historyWindow
	}

	replay := make([]*schema.Message, 0, len(s.history)-start)
	for _, msg := range s.history[start:] {
		switch msg.Role {
		case chat.RoleUser:
			replay = append(replay, schema.UserMessage(msg.Content))
		case chat.RoleAssistant:
			replay = append(replay, schema.AssistantMessage(msg.Content, nil))
		}
	}
	return replay
}

// extractJSON validates the aggregated response as a JSON document,
// tolerating a markdown code fence around it.
func extractJSON(text string) (json.RawMessage, error) {
	cleaned := strings.TrimSpace(text)
	if strings.HasPrefix(cleaned, "```") {
		if idx := strings.Index(cleaned, "\n"); idx >= 0 {
			cleaned = cleaned[idx+1:]
		}
		cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
		cleaned = strings.TrimSpace(cleaned)
	}

	if cleaned == "" {
		return nil, fmt.Errorf("response is empty")
	}
	if cleaned[0] != '[' && cleaned[0] != '{' {
		return nil, fmt.Errorf("response does not start a JSON document")
	}

	var doc json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &doc); err != nil {
		return nil, err
	}
	return doc, nil
}
