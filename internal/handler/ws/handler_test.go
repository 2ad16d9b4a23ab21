package ws

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/pairforge-ai/pairforge/backend/internal/config"
	"github.com/pairforge-ai/pairforge/backend/internal/knowledge"
	"github.com/pairforge-ai/pairforge/backend/internal/model/prompt"
	"github.com/pairforge-ai/pairforge/backend/internal/service/ai"
	chatservice "github.com/pairforge-ai/pairforge/backend/internal/service/chat"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	registry := ai.NewRegistry(config.Catalog{
		Default: "mock",
		Models:  []config.ModelEntry{{ID: "mock", Provider: config.ProviderMock}},
	})
	prompts := prompt.NewMemoryStore(prompt.Seed())
	memory := chatservice.NewMemory(chatservice.MemoryConfig{})
	t.Cleanup(memory.Close)

	manager := chatservice.NewManager(memory, registry, prompts, knowledge.NewBase(nil), config.AIConfig{}, config.SessionConfig{MaxHistory: 50})

	r := chi.NewRouter()
	New(manager).RegisterRoutes(r)

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return server
}

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/chat"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvents(t *testing.T, conn *websocket.Conn) []outboundEvent {
	t.Helper()

	var events []outboundEvent
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var event outboundEvent
		if err := conn.ReadJSON(&event); err != nil {
			t.Fatalf("read event: %v", err)
		}
		events = append(events, event)
		if event.Type == "end" || event.Type == "error" {
			return events
		}
	}
}

func TestWebsocketTurnStreamsDeltas(t *testing.T) {
	conn := dial(t, newTestServer(t))

	if err := conn.WriteJSON(inboundTurn{Input: "hello socket"}); err != nil {
		t.Fatalf("write turn: %v", err)
	}

	events := readEvents(t, conn)
	if events[0].Type != "start" || events[0].SessionKey == "" {
		t.Fatalf("expected a start event with a session key, got %+v", events[0])
	}
	if events[len(events)-1].Type != "end" {
		t.Fatalf("expected the turn to end cleanly, got %+v", events[len(events)-1])
	}

	var text strings.Builder
	for _, event := range events {
		if event.Type == "delta" {
			text.WriteString(event.Content)
		}
	}
	if text.String() != "echo: hello socket" {
		t.Fatalf("unexpected streamed text: %q", text.String())
	}
}

func TestWebsocketSecondTurnReusesSession(t *testing.T) {
	conn := dial(t, newTestServer(t))

	if err := conn.WriteJSON(inboundTurn{Input: "first"}); err != nil {
		t.Fatalf("write turn: %v", err)
	}
	first := readEvents(t, conn)
	key := first[0].SessionKey

	if err := conn.WriteJSON(inboundTurn{Input: "second"}); err != nil {
		t.Fatalf("write turn: %v", err)
	}
	second := readEvents(t, conn)

	if second[0].SessionKey != key {
		t.Fatalf("expected the connection to keep its session, got %q then %q", key, second[0].SessionKey)
	}
}
