package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"amalajeun/internal/model"
	"amalajeun/internal/utils"
)

// DiscoveryAssistant answers free-form questions about the existing spot
// collection. It is strictly read-only: it is grounded on a snapshot of the
// data, carries no tools, and declines anything outside its scope.
type DiscoveryAssistant struct {
	client AIClient
	spots  SpotLister
	logger *utils.Logger
	now    func() time.Time
}

// NewDiscoveryAssistant creates a new discovery assistant.
func NewDiscoveryAssistant(client AIClient, spots SpotLister, logger *utils.Logger, now func() time.Time) *DiscoveryAssistant {
	if now == nil {
		now = time.Now
	}
	return &DiscoveryAssistant{client: client, spots: spots, logger: logger, now: now}
}

const discoverySystemPrompt = `You are AmalaJẹun Bot, a friendly assistant for helping users explore amala spots.
You have access to the following amala spots data:

%s

Current server time: %s

Context:
- The current time is provided above. Use it when answering time-related questions like "Which spots are open now?" or "Which close after 9pm?".
- Spot records carry: id, name, address, latitude, longitude, added_by, opening_time, closing_time, price, dine_in, source, status, verified, images, created_at, updated_at.
- Use this information to answer questions about available spots, their names, locations, hours, prices, dine-in availability, and status.
- Never make up spots or details. If the data is not in the list, say you don't know.

Behavior:
- If the user asks anything unrelated to amala spots, politely decline and explain your role.
- If the user asks partially related or confusing questions, try to clarify politely.
- Always be polite, concise, conversational, and on-task.`

// Answer responds to the conversation so far, streaming deltas to the
// callback when it is non-nil, and returns the full reply.
func (a *DiscoveryAssistant) Answer(ctx context.Context, history []model.ChatMessage, callback func(thinking, content string) error) (string, error) {
	if a.client == nil || !a.client.IsEnabled() {
		return "", errors.New("AI client is not configured")
	}

	snapshot, err := a.spots.List(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load spot snapshot: %w", err)
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		return "", fmt.Errorf("failed to encode spot snapshot: %w", err)
	}

	system := fmt.Sprintf(discoverySystemPrompt, string(data), a.now().Format(time.RFC3339))

	messages := make([]model.ChatMessage, 0, len(history)+1)
	messages = append(messages, model.ChatMessage{Role: "system", Content: system})
	messages = append(messages, history...)

	if callback != nil {
		return a.client.CompleteStream(ctx, messages, callback)
	}
	return a.client.Complete(ctx, messages)
}
