package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/cloudwego/eino/schema"
	"github.com/go-chi/chi/v5"

	"github.com/pairforge-ai/pairforge/backend/internal/model/prompt"
	"github.com/pairforge-ai/pairforge/backend/internal/service/ai"
	chatservice "github.com/pairforge-ai/pairforge/backend/internal/service/chat"
	"github.com/pairforge-ai/pairforge/backend/pkg/utils"
)

// Handler drives prompt turns over Server-Sent Events. Streaming prompts
// republish model chunks as delta events; guided prompts buffer, parse and
// emit a single result event.
type Handler struct {
	manager *chatservice.Manager
	prompts prompt.Store
}

// New creates the streaming handler.
func New(manager *chatservice.Manager, prompts prompt.Store) *Handler {
	return &Handler{manager: manager, prompts: prompts}
}

// StreamEvent is the SSE payload shape shared by all event types.
type StreamEvent struct {
	SessionKey string          `json:"sessionKey,omitempty"`
	Content    string          `json:"content,omitempty"`
	Result     json.RawMessage `json:"result,omitempty"`
	Warnings   []string        `json:"warnings,omitempty"`
	Error      string          `json:"error,omitempty"`
	Raw        string          `json:"raw,omitempty"`
	Finished   bool            `json:"finished,omitempty"`
}

// RegisterRoutes mounts the prompt-area endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/prompt", h.handlePrompt)
	r.Get("/requirements", h.guidedByQuery("requirements-breakdown"))
	r.Post("/requirements/explore", h.exploreWith("requirements-explore"))
	r.Get("/story-validation", h.guidedByQuery("story-validation"))
	r.Post("/story-validation/explore", h.exploreWith("story-validation-explore"))
	r.Get("/threat-modelling", h.guidedByQuery("threat-modelling"))
}

type promptRequest struct {
	PromptID    string   `json:"promptId"`
	Input       string   `json:"input"`
	Context     string   `json:"context"`
	SessionKey  string   `json:"chatSessionKey"`
	Model       string   `json:"model"`
	Temperature *float32 `json:"temperature"`
}

func (r promptRequest) start() chatservice.StartRequest {
	return chatservice.StartRequest{
		SessionKey:  r.SessionKey,
		PromptID:    r.PromptID,
		UserInput:   r.Input,
		ContextKey:  r.Context,
		Model:       r.Model,
		Temperature: r.Temperature,
	}
}

// handlePrompt runs any catalog prompt; guided prompts aggregate, chat
// prompts stream.
func (h *Handler) handlePrompt(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	if req.PromptID == "" {
		utils.RespondError(w, http.StatusBadRequest, "promptId is required")
		return
	}

	entry, found := h.prompts.FindByID(req.PromptID)
	if !found {
		utils.RespondError(w, http.StatusNotFound, "prompt not found")
		return
	}

	if entry.Mode == prompt.ModeGuided {
		h.runGuided(r.Context(), w, req.start())
		return
	}
	h.runStream(r.Context(), w, req.start())
}

// guidedByQuery serves the original GET-style area endpoints where the
// whole input travels as a query parameter.
func (h *Handler) guidedByQuery(promptID string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		input := r.URL.Query().Get("input")
		if input == "" {
			utils.RespondError(w, http.StatusBadRequest, "input query parameter is required")
			return
		}

		h.runGuided(r.Context(), w, chatservice.StartRequest{
			PromptID:  promptID,
			UserInput: input,
			Model:     r.URL.Query().Get("model"),
		})
	}
}

// exploreWith serves the follow-up conversation endpoints of an area.
func (h *Handler) exploreWith(promptID string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := h.decode(w, r)
		if !ok {
			return
		}
		req.PromptID = promptID
		h.runStream(r.Context(), w, req.start())
	}
}

func (h *Handler) runStream(ctx context.Context, w http.ResponseWriter, req chatservice.StartRequest) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	result, chunks, err := h.manager.StartStream(ctx, req)
	if err != nil {
		respondStartError(w, err)
		return
	}
	defer chunks.Close()

	utils.SetupSSEHeaders(w, result.Key)
	utils.SendSSEEvent(w, flusher, "start", StreamEvent{SessionKey: result.Key, Warnings: result.Warnings})

	streamed, err := h.forward(w, flusher, result.Key, chunks)
	if err != nil {
		log.Printf("[stream] session=%s failed after %d chunk(s): %v", result.Key, streamed, err)
		utils.SendSSEEvent(w, flusher, "error", StreamEvent{SessionKey: result.Key, Error: err.Error()})
		return
	}

	utils.SendSSEEvent(w, flusher, "end", StreamEvent{SessionKey: result.Key, Finished: true})
	log.Printf("[stream] session=%s completed, %d chunk(s) delivered", result.Key, streamed)
}

// forward republishes the session's chunk stream as delta events,
// preserving arrival order. Chunks already written are never retracted.
func (h *Handler) forward(w http.ResponseWriter, flusher http.Flusher, key string, chunks *schema.StreamReader[string]) (int, error) {
	streamed := 0
	for {
		piece, err := chunks.Recv()
		if errors.Is(err, io.EOF) {
			return streamed, nil
		}
		if err != nil {
			return streamed, err
		}
		if piece == "" {
			continue
		}
		utils.SendSSEEvent(w, flusher, "delta", StreamEvent{SessionKey: key, Content: piece})
		streamed++
	}
}

func (h *Handler) runGuided(ctx context.Context, w http.ResponseWriter, req chatservice.StartRequest) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	result, doc, err := h.manager.RunJSON(ctx, req)

	var malformed *chatservice.MalformedOutputError
	switch {
	case err == nil:
		utils.SetupSSEHeaders(w, result.Key)
		utils.SendSSEEvent(w, flusher, "start", StreamEvent{SessionKey: result.Key, Warnings: result.Warnings})
		utils.SendSSEEvent(w, flusher, "result", StreamEvent{SessionKey: result.Key, Result: doc})
		utils.SendSSEEvent(w, flusher, "end", StreamEvent{SessionKey: result.Key, Finished: true})
	case errors.As(err, &malformed):
		// The raw text goes back for diagnosis instead of being dropped.
		utils.SetupSSEHeaders(w, result.Key)
		utils.SendSSEEvent(w, flusher, "error", StreamEvent{
			SessionKey: result.Key,
			Error:      malformed.Error(),
			Raw:        malformed.Raw,
		})
	default:
		respondStartError(w, err)
	}
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (promptRequest, bool) {
	var req promptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return promptRequest{}, false
	}
	return req, true
}

// respondStartError maps pre-stream failures onto HTTP statuses; once the
// SSE stream is open, failures travel as error events instead.
func respondStartError(w http.ResponseWriter, err error) {
	var renderErr *prompt.RenderError

	switch {
	case errors.Is(err, chatservice.ErrSessionBusy):
		utils.RespondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, chatservice.ErrPromptNotFound):
		utils.RespondError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &renderErr):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ai.ErrBackendRejected):
		utils.RespondError(w, http.StatusBadGateway, err.Error())
	case errors.Is(err, ai.ErrBackendUnavailable), errors.Is(err, ai.ErrBackendTimeout):
		utils.RespondError(w, http.StatusBadGateway, err.Error())
	case errors.Is(err, context.Canceled):
		// Client went away; nothing sensible left to write.
	default:
		utils.RespondError(w, http.StatusBadRequest, fmt.Sprintf("failed to start generation: %v", err))
	}
}
