package ai

import (
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/sashabaranov/go-openai"
)

func TestNewOpenAIChatModelValidatesConfig(t *testing.T) {
	if _, err := NewOpenAIChatModel(OpenAIConfig{Model: "gpt-4o-mini"}); err == nil {
		t.Fatal("expected a missing-key error")
	}
	if _, err := NewOpenAIChatModel(OpenAIConfig{APIKey: "sk-test"}); err == nil {
		t.Fatal("expected a missing-model error")
	}
}

func TestRequestMapsRolesAndOptions(t *testing.T) {
	temperature := float32(0.3)
	maxTokens := 256
	backend, err := NewOpenAIChatModel(OpenAIConfig{
		APIKey:      "sk-test",
		Model:       "gpt-4o-mini",
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
	})
	if err != nil {
		t.Fatalf("NewOpenAIChatModel err: %v", err)
	}

	req := backend.request([]*schema.Message{
		schema.SystemMessage("be brief"),
		schema.UserMessage("hello"),
		schema.AssistantMessage("hi", nil),
	}, true)

	if !req.Stream {
		t.Fatal("expected a streaming request")
	}
	if req.Model != "gpt-4o-mini" || req.Temperature != 0.3 || req.MaxTokens != 256 {
		t.Fatalf("options not applied: %+v", req)
	}

	roles := []string{
		openai.ChatMessageRoleSystem,
		openai.ChatMessageRoleUser,
		openai.ChatMessageRoleAssistant,
	}
	for i, want := range roles {
		if req.Messages[i].Role != want {
			t.Fatalf("message %d: expected role %q, got %q", i, want, req.Messages[i].Role)
		}
	}
}
