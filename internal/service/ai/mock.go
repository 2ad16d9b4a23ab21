package ai

import (
	"context"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// MockChatModel is a scripted backend used by tests and by the "mock"
// provider in development setups without provider credentials. It emits
// Chunks in order, optionally failing with Err after ErrAfter chunks.
type MockChatModel struct {
	Chunks []string
	// Err terminates the stream after ErrAfter chunks when set.
	Err      error
	ErrAfter int
	// ChunkDelay spaces out emissions to simulate token latency.
	ChunkDelay time.Duration
}

var _ model.BaseChatModel = (*MockChatModel)(nil)

// Generate returns the concatenation of all scripted chunks.
func (m *MockChatModel) Generate(ctx context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return schema.AssistantMessage(strings.Join(m.chunks(input), ""), nil), nil
}

// Stream emits the scripted chunks one by one.
func (m *MockChatModel) Stream(ctx context.Context, input []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	chunks := m.chunks(input)

	reader, writer := schema.Pipe[*schema.Message](len(chunks) + 1)
	go func() {
		defer writer.Close()

		for i, chunk := range chunks {
			if m.Err != nil && i >= m.ErrAfter {
				writer.Send(nil, m.Err)
				return
			}
			if m.ChunkDelay > 0 {
				select {
				case <-time.After(m.ChunkDelay):
				case <-ctx.Done():
					writer.Send(nil, ctx.Err())
					return
				}
			}
			if ctx.Err() != nil {
				writer.Send(nil, ctx.Err())
				return
			}
			if closed := writer.Send(schema.AssistantMessage(chunk, nil), nil); closed {
				return
			}
		}
		if m.Err != nil {
			writer.Send(nil, m.Err)
		}
	}()

	return reader, nil
}

// chunks falls back to echoing the last input message so the mock provider
// remains interactive when no script is configured.
func (m *MockChatModel) chunks(input []*schema.Message) []string {
	if len(m.Chunks) > 0 {
		return m.Chunks
	}
	if len(input) == 0 {
		return []string{"(no input)"}
	}
	last := input[len(input)-1].Content
	words := strings.Fields("echo: " + last)
	chunks := make([]string, 0, len(words))
	for i, word := range words {
		if i > 0 {
			word = " " + word
		}
		chunks = append(chunks, word)
	}
	return chunks
}
