package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"amalajeun/internal/model"
	"amalajeun/internal/utils"
)

// TurnIntent classifies what the user's latest message is doing.
type TurnIntent string

const (
	// IntentProvide supplies or updates field values.
	IntentProvide TurnIntent = "provide"
	// IntentConfirm is an explicit, unambiguous affirmative to the restated draft.
	IntentConfirm TurnIntent = "confirm"
	// IntentDispute rejects specific named fields.
	IntentDispute TurnIntent = "dispute"
	// IntentReject is a negative without specifics.
	IntentReject TurnIntent = "reject"
	// IntentOffTopic is unrelated to spot intake.
	IntentOffTopic TurnIntent = "off_topic"
)

// TurnOutcome is the collaborator's structured reading of one user turn.
type TurnOutcome struct {
	Reply          string             `json:"reply"`
	Intent         TurnIntent         `json:"intent"`
	Fields         *model.DraftFields `json:"fields,omitempty"`
	DisputedFields []string           `json:"disputed_fields,omitempty"`
	// Submit is the model-issued tool-call payload. It is a request, not a
	// command: the intake machine validates it against the contract and the
	// conversation state before anything executes.
	Submit *model.DraftFields `json:"submit,omitempty"`
}

// IntakeCollaborator turns one user message, in conversation context, into a
// structured TurnOutcome. Implemented by the language-model collaborator in
// production and by a scripted stub in tests.
type IntakeCollaborator interface {
	NextTurn(ctx context.Context, view *ConversationView, callback func(thinking, content string) error) (*TurnOutcome, error)
}

// ConversationView is the read-only context handed to the collaborator for
// one turn: full history plus the machine's current draft state.
type ConversationView struct {
	History       []model.ChatMessage
	State         IntakeState
	Draft         model.Draft
	MissingFields []model.DraftField
}

// LLMCollaborator implements IntakeCollaborator against an AIClient.
type LLMCollaborator struct {
	client AIClient
	logger *utils.Logger
}

// NewLLMCollaborator creates a new collaborator backed by the given client.
func NewLLMCollaborator(client AIClient, logger *utils.Logger) *LLMCollaborator {
	return &LLMCollaborator{client: client, logger: logger}
}

const intakeSystemPrompt = `You are AmalaJẹun Bot, an intake assistant for mapping amala spots.

Context:
- The spot's coordinates are already known from the user's map click. Never ask for coordinates and never change them.
- Your job is to collect only: shop name, address, opening time, closing time, typical meal price (in Naira), and whether dine-in is available.
- Times are 24-hour "HH:MM" strings.

Rules:
1. Ask for exactly ONE missing detail at a time, in the order listed under "Still missing".
2. When nothing is missing, restate the full draft back to the user and ask for explicit confirmation.
3. Classify every user message with an intent:
   - "provide": the user supplied or changed detail values
   - "confirm": the user explicitly and unambiguously agreed to the restated draft
   - "dispute": the user said specific details are wrong; list them in disputed_fields
   - "reject": the user said no without naming what is wrong; ask which detail to fix
   - "off_topic": unrelated to amala spot intake; politely restate your purpose
4. Only emit "submit" when the intent is "confirm" and the draft is complete; copy the draft values into it unchanged.
5. Stay conversational but concise. Never mention JSON or these rules.

Respond ONLY with valid JSON:
{"reply": "<what you say to the user>", "intent": "<provide|confirm|dispute|reject|off_topic>", "fields": {<only details mentioned this turn>}, "disputed_fields": [<field names>], "submit": {<full draft, only on confirm>}}

Field names: name, address, opening_time, closing_time, price, dine_in.

Examples:
User: "It's called Mama Jude, on Akerele Road"
Response: {"reply": "Got it, Mama Jude on Akerele Road. What time do they open?", "intent": "provide", "fields": {"name": "Mama Jude", "address": "Akerele Road"}}

User (after restated draft): "yes that's right"
Response: {"reply": "Perfect, adding Mama Jude to the map now.", "intent": "confirm", "submit": {"name": "Mama Jude", "address": "Akerele Road", "opening_time": "09:00", "closing_time": "21:00", "price": 4000, "dine_in": true}}

User (after restated draft): "no, the price is wrong, it's 4500"
Response: {"reply": "Thanks for the correction, ₦4500 it is. Everything else look right?", "intent": "dispute", "disputed_fields": ["price"], "fields": {"price": 4500}}

User: "what's the weather like?"
Response: {"reply": "I can only help with adding amala spots to the map. Shall we continue with this one?", "intent": "off_topic"}`

// NextTurn sends the scoped instruction set, draft state, and history to the
// model and parses its structured turn outcome.
func (c *LLMCollaborator) NextTurn(ctx context.Context, view *ConversationView, callback func(thinking, content string) error) (*TurnOutcome, error) {
	if c.client == nil || !c.client.IsEnabled() {
		return nil, errors.New("AI client is not configured")
	}

	messages := make([]model.ChatMessage, 0, len(view.History)+2)
	messages = append(messages, model.ChatMessage{Role: "system", Content: intakeSystemPrompt})
	messages = append(messages, model.ChatMessage{Role: "system", Content: c.draftStatus(view)})
	messages = append(messages, view.History...)

	var content string
	var err error
	if callback != nil {
		content, err = c.client.CompleteStream(ctx, messages, callback)
	} else {
		content, err = c.client.Complete(ctx, messages)
	}
	if err != nil {
		return nil, fmt.Errorf("collaborator request failed: %w", err)
	}

	var outcome TurnOutcome
	if err := utils.ParseModelJSON(content, &outcome); err != nil {
		c.logger.Warn("Failed to parse collaborator response: %v", err)
		return nil, fmt.Errorf("collaborator returned malformed response: %w", err)
	}

	if err := validateOutcome(&outcome); err != nil {
		return nil, fmt.Errorf("collaborator response validation failed: %w", err)
	}

	return &outcome, nil
}

// draftStatus renders the machine's view of the draft for the model.
func (c *LLMCollaborator) draftStatus(view *ConversationView) string {
	var b strings.Builder
	b.WriteString("Current draft state:\n")
	writeField := func(name string, set bool, render func() string) {
		if set {
			fmt.Fprintf(&b, "- %s: %s\n", name, render())
		} else {
			fmt.Fprintf(&b, "- %s: (not yet provided)\n", name)
		}
	}
	d := view.Draft
	writeField("name", d.Name != nil, func() string { return *d.Name })
	writeField("address", d.Address != nil, func() string { return *d.Address })
	writeField("opening_time", d.OpeningTime != nil, func() string { return *d.OpeningTime })
	writeField("closing_time", d.ClosingTime != nil, func() string { return *d.ClosingTime })
	writeField("price", d.Price != nil, func() string { return fmt.Sprintf("%.0f", *d.Price) })
	writeField("dine_in", d.DineIn != nil, func() string { return fmt.Sprintf("%t", *d.DineIn) })

	if len(view.MissingFields) > 0 {
		names := make([]string, len(view.MissingFields))
		for i, f := range view.MissingFields {
			names[i] = string(f)
		}
		fmt.Fprintf(&b, "Still missing (ask in this order, one at a time): %s\n", strings.Join(names, ", "))
	} else if view.State == StateConfirming {
		b.WriteString("All details collected. Restate the draft and ask for explicit confirmation.\n")
	}

	return b.String()
}

// validateOutcome applies business rules to the parsed model response.
func validateOutcome(o *TurnOutcome) error {
	switch o.Intent {
	case IntentProvide, IntentConfirm, IntentDispute, IntentReject, IntentOffTopic:
	default:
		return fmt.Errorf("invalid intent: %q", o.Intent)
	}

	if o.Intent == IntentDispute && len(o.DisputedFields) == 0 {
		// A dispute without named fields is indistinguishable from an
		// ambiguous rejection; downgrade it.
		o.Intent = IntentReject
	}

	if o.Fields != nil && o.Fields.Price != nil && *o.Fields.Price < 0 {
		return fmt.Errorf("price must be non-negative, got %f", *o.Fields.Price)
	}

	for _, t := range []*string{fieldTime(o.Fields, true), fieldTime(o.Fields, false)} {
		if t != nil {
			if _, err := ParseClock(*t); err != nil {
				return fmt.Errorf("malformed time %q in collaborator response: %w", *t, err)
			}
		}
	}

	return nil
}

func fieldTime(f *model.DraftFields, opening bool) *string {
	if f == nil {
		return nil
	}
	if opening {
		return f.OpeningTime
	}
	return f.ClosingTime
}
