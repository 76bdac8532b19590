package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"amalajeun/internal/model"
	"amalajeun/internal/utils"
)

// cannedAIClient returns a fixed completion.
type cannedAIClient struct {
	content string
	err     error
	enabled bool
}

func (c *cannedAIClient) Complete(ctx context.Context, messages []model.ChatMessage) (string, error) {
	return c.content, c.err
}

func (c *cannedAIClient) CompleteStream(ctx context.Context, messages []model.ChatMessage, callback func(thinking, content string) error) (string, error) {
	if c.err != nil {
		return "", c.err
	}
	if callback != nil {
		if err := callback("", c.content); err != nil {
			return "", err
		}
	}
	return c.content, c.err
}

func (c *cannedAIClient) IsEnabled() bool { return c.enabled }

func collaboratorView() *ConversationView {
	return &ConversationView{
		History: []model.ChatMessage{{Role: "user", Content: "hello"}},
		State:   StateCollecting,
		MissingFields: []model.DraftField{
			model.FieldName, model.FieldAddress, model.FieldOpeningTime,
			model.FieldClosingTime, model.FieldPrice, model.FieldDineIn,
		},
	}
}

func TestLLMCollaboratorParsesOutcome(t *testing.T) {
	client := &cannedAIClient{
		enabled: true,
		content: "```json\n" +
			`{"reply": "Got it, Mama Jude. What's the address?", "intent": "provide", "fields": {"name": "Mama Jude"}}` +
			"\n```",
	}
	collab := NewLLMCollaborator(client, utils.NewLogger())

	outcome, err := collab.NextTurn(context.Background(), collaboratorView(), nil)
	require.NoError(t, err)
	assert.Equal(t, IntentProvide, outcome.Intent)
	require.NotNil(t, outcome.Fields)
	require.NotNil(t, outcome.Fields.Name)
	assert.Equal(t, "Mama Jude", *outcome.Fields.Name)
}

func TestLLMCollaboratorRejectsUnknownIntent(t *testing.T) {
	client := &cannedAIClient{
		enabled: true,
		content: `{"reply": "hmm", "intent": "banana"}`,
	}
	collab := NewLLMCollaborator(client, utils.NewLogger())

	_, err := collab.NextTurn(context.Background(), collaboratorView(), nil)
	assert.Error(t, err)
}

func TestLLMCollaboratorRejectsMalformedResponse(t *testing.T) {
	client := &cannedAIClient{enabled: true, content: "just some prose, no JSON"}
	collab := NewLLMCollaborator(client, utils.NewLogger())

	_, err := collab.NextTurn(context.Background(), collaboratorView(), nil)
	assert.Error(t, err)
}

func TestLLMCollaboratorRequiresEnabledClient(t *testing.T) {
	collab := NewLLMCollaborator(&cannedAIClient{enabled: false}, utils.NewLogger())
	_, err := collab.NextTurn(context.Background(), collaboratorView(), nil)
	assert.Error(t, err)

	collab = NewLLMCollaborator(nil, utils.NewLogger())
	_, err = collab.NextTurn(context.Background(), collaboratorView(), nil)
	assert.Error(t, err)
}

func TestValidateOutcome(t *testing.T) {
	tests := []struct {
		name       string
		outcome    TurnOutcome
		wantErr    bool
		wantIntent TurnIntent
	}{
		{
			name:       "valid provide",
			outcome:    TurnOutcome{Reply: "ok", Intent: IntentProvide},
			wantIntent: IntentProvide,
		},
		{
			name:    "unknown intent",
			outcome: TurnOutcome{Reply: "ok", Intent: "shrug"},
			wantErr: true,
		},
		{
			name:       "dispute without named fields downgrades to reject",
			outcome:    TurnOutcome{Reply: "no", Intent: IntentDispute},
			wantIntent: IntentReject,
		},
		{
			name: "dispute with named fields stays a dispute",
			outcome: TurnOutcome{Reply: "no", Intent: IntentDispute,
				DisputedFields: []string{"price"}},
			wantIntent: IntentDispute,
		},
		{
			name: "negative price",
			outcome: TurnOutcome{Reply: "ok", Intent: IntentProvide,
				Fields: &model.DraftFields{Price: f64(-100)}},
			wantErr: true,
		},
		{
			name: "malformed opening time",
			outcome: TurnOutcome{Reply: "ok", Intent: IntentProvide,
				Fields: &model.DraftFields{OpeningTime: str("nine-ish")}},
			wantErr: true,
		},
		{
			name: "well-formed times pass",
			outcome: TurnOutcome{Reply: "ok", Intent: IntentProvide,
				Fields: &model.DraftFields{OpeningTime: str("09:00"), ClosingTime: str("21:00")}},
			wantIntent: IntentProvide,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateOutcome(&tt.outcome)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantIntent, tt.outcome.Intent)
		})
	}
}
