package ws

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	chatservice "github.com/pairforge-ai/pairforge/backend/internal/service/chat"
)

// Handler carries the same chunk stream as the SSE endpoints over a
// websocket, for frontends that prefer a bidirectional connection. Turns
// on one connection run strictly one at a time.
type Handler struct {
	manager  *chatservice.Manager
	upgrader websocket.Upgrader
}

// New creates the websocket chat handler.
func New(manager *chatservice.Manager) *Handler {
	return &Handler{
		manager: manager,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Browser origin checks are handled by the CORS layer.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// RegisterRoutes mounts the websocket route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/chat", h.handleChat)
}

type inboundTurn struct {
	PromptID    string   `json:"promptId"`
	Input       string   `json:"input"`
	Context     string   `json:"context"`
	SessionKey  string   `json:"sessionKey"`
	Model       string   `json:"model"`
	Temperature *float32 `json:"temperature"`
}

type outboundEvent struct {
	Type       string   `json:"type"`
	SessionKey string   `json:"sessionKey,omitempty"`
	Content    string   `json:"content,omitempty"`
	Warnings   []string `json:"warnings,omitempty"`
	Error      string   `json:"error,omitempty"`
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go h.pingLoop(ctx, conn)

	sessionKey := r.URL.Query().Get("sessionKey")

	for {
		var turn inboundTurn
		if err := conn.ReadJSON(&turn); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[ws] connection closed unexpectedly: %v", err)
			}
			return
		}

		if turn.SessionKey == "" {
			turn.SessionKey = sessionKey
		}
		sessionKey = h.runTurn(ctx, conn, turn)
	}
}

// runTurn executes one streaming turn and returns the session key to
// carry into the next turn on this connection.
func (h *Handler) runTurn(ctx context.Context, conn *websocket.Conn, turn inboundTurn) string {
	result, chunks, err := h.manager.StartStream(ctx, chatservice.StartRequest{
		SessionKey:  turn.SessionKey,
		PromptID:    turn.PromptID,
		UserInput:   turn.Input,
		ContextKey:  turn.Context,
		Model:       turn.Model,
		Temperature: turn.Temperature,
	})
	if err != nil {
		h.send(conn, outboundEvent{Type: "error", SessionKey: turn.SessionKey, Error: err.Error()})
		return turn.SessionKey
	}
	defer chunks.Close()

	h.send(conn, outboundEvent{Type: "start", SessionKey: result.Key, Warnings: result.Warnings})

	for {
		piece, err := chunks.Recv()
		if errors.Is(err, io.EOF) {
			h.send(conn, outboundEvent{Type: "end", SessionKey: result.Key})
			return result.Key
		}
		if err != nil {
			h.send(conn, outboundEvent{Type: "error", SessionKey: result.Key, Error: err.Error()})
			return result.Key
		}
		if piece == "" {
			continue
		}
		if !h.send(conn, outboundEvent{Type: "delta", SessionKey: result.Key, Content: piece}) {
			// Writing failed, the client is gone; closing the reader
			// cancels the generation.
			return result.Key
		}
	}
}

func (h *Handler) send(conn *websocket.Conn, event outboundEvent) bool {
	if err := conn.WriteJSON(event); err != nil {
		log.Printf("[ws] write failed: %v", err)
		return false
	}
	return true
}

func (h *Handler) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
