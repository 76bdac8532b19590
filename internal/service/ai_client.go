package service

import (
	"context"

	"amalajeun/internal/model"
)

// AIClient is the transport to the language-model collaborator. It carries
// raw chat turns only; all protocol rules live in the intake machine.
type AIClient interface {
	// Complete performs a non-streaming chat completion and returns the
	// assistant message content.
	Complete(ctx context.Context, messages []model.ChatMessage) (string, error)

	// CompleteStream performs a streaming chat completion.
	// The callback receives (thinkingContent, regularContent) for each chunk.
	CompleteStream(ctx context.Context, messages []model.ChatMessage, callback func(thinking, content string) error) (string, error)

	// IsEnabled returns whether the AI client is configured and ready
	IsEnabled() bool
}

// StreamChunk represents a generic streaming response chunk
type StreamChunk struct {
	// Regular content (always present in streaming)
	Content string

	// Thinking/reasoning content (provider-specific, e.g., DeepSeek)
	ThinkingContent string

	// Role (assistant, user, system)
	Role string

	// Whether this is the final chunk
	Done bool
}

// Ensure OpenAIClient implements AIClient
var _ AIClient = (*OpenAIClient)(nil)
