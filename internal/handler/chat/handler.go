package chat

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	chatservice "github.com/pairforge-ai/pairforge/backend/internal/service/chat"
	"github.com/pairforge-ai/pairforge/backend/pkg/utils"
)

// Handler exposes session lifecycle endpoints: create, inspect, cancel,
// delete. Turn execution lives in the stream handler.
type Handler struct {
	manager *chatservice.Manager
}

// New creates the session handler.
func New(manager *chatservice.Manager) *Handler {
	return &Handler{manager: manager}
}

// RegisterRoutes mounts the session routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/sessions", h.handleCreateSession)
	r.Get("/sessions/{key}", h.handleGetSession)
	r.Get("/sessions/{key}/transcript", h.handleTranscript)
	r.Post("/sessions/{key}/cancel", h.handleCancel)
	r.Delete("/sessions/{key}", h.handleDelete)
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Model       string   `json:"model"`
		Temperature *float32 `json:"temperature"`
		PromptID    string   `json:"promptId"`
	}

	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	info, err := h.manager.CreateSession(r.Context(), chatservice.StartRequest{
		Model:       payload.Model,
		Temperature: payload.Temperature,
		PromptID:    payload.PromptID,
	})
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusCreated, info)
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, ok := h.manager.Session(chi.URLParam(r, "key"))
	if !ok {
		utils.RespondError(w, http.StatusNotFound, chatservice.ErrSessionNotFound.Error())
		return
	}
	utils.RespondJSON(w, http.StatusOK, session.Info())
}

// handleTranscript returns the committed conversation; a turn in flight
// never leaks partial assistant text here.
func (h *Handler) handleTranscript(w http.ResponseWriter, r *http.Request) {
	messages, err := h.manager.Transcript(chi.URLParam(r, "key"))
	if err != nil {
		if errors.Is(err, chatservice.ErrSessionNotFound) {
			utils.RespondError(w, http.StatusNotFound, err.Error())
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{"messages": messages})
}

// handleCancel stops an in-flight generation, e.g. when the streaming
// connection died on a different request.
func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	session, ok := h.manager.Session(chi.URLParam(r, "key"))
	if !ok {
		utils.RespondError(w, http.StatusNotFound, chatservice.ErrSessionNotFound.Error())
		return
	}
	session.Cancel()
	utils.RespondJSON(w, http.StatusAccepted, map[string]string{"status": "cancelling"})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	h.manager.Remove(chi.URLParam(r, "key"))
	w.WriteHeader(http.StatusNoContent)
}
