package utils

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
)

// HeaderChatKey carries the resolved session key on streaming responses so
// clients can resume the conversation on a later request.
const HeaderChatKey = "X-Chat-Key"

// SetupSSEHeaders prepares a response for Server-Sent Events. The chat key
// header, when non-empty, is written before the stream starts and exposed
// to browser clients.
func SetupSSEHeaders(w http.ResponseWriter, chatKey string) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	// Keeps intermediaries from buffering the stream.
	w.Header().Set("Content-Encoding", "none")
	if chatKey != "" {
		w.Header().Set(HeaderChatKey, chatKey)
		w.Header().Set("Access-Control-Expose-Headers", HeaderChatKey)
	}
}

// SendSSEChunk writes one data-only SSE frame.
func SendSSEChunk(w http.ResponseWriter, flusher http.Flusher, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("failed to marshal sse payload: %v", err)
		return
	}

	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		log.Printf("failed to write sse frame: %v", err)
		return
	}
	flusher.Flush()
}

// SendSSEEvent writes one SSE frame with an explicit event type.
func SendSSEEvent(w http.ResponseWriter, flusher http.Flusher, event string, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		log.Printf("failed to marshal sse event data: %v", err)
		return
	}

	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		log.Printf("failed to write sse event: %v", err)
		return
	}
	flusher.Flush()
}
