package service

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"amalajeun/internal/model"
	"amalajeun/internal/utils"
)

// IntakeState is the conversation phase of an intake machine.
type IntakeState string

const (
	// StateCollecting gathers required fields one at a time.
	StateCollecting IntakeState = "collecting"
	// StateConfirming restates the complete draft and awaits affirmation.
	StateConfirming IntakeState = "confirming"
	// StateSubmitting has the tool call outstanding; no input accepted.
	StateSubmitting IntakeState = "submitting"
	// StateClosed is terminal; entered only on successful submission.
	StateClosed IntakeState = "closed"
)

// ToolCallStatus is the lifecycle of one tool-call, surfaced to the UI.
type ToolCallStatus string

const (
	ToolCallRequested ToolCallStatus = "requested"
	ToolCallExecuting ToolCallStatus = "executing"
	ToolCallCompleted ToolCallStatus = "completed"
	ToolCallFailed    ToolCallStatus = "failed"
)

// ErrConversationBusy reports a turn arriving while a previous turn of the
// same conversation, possibly with its tool call, is still being processed.
var ErrConversationBusy = errors.New("a turn is already being processed for this conversation")

// Fixed user-facing lines. Raw transport detail never appears here.
const (
	closedRefusalMessage = "This spot has already been added, so this conversation is finished. Please start a new conversation to add another spot."
	genericApology       = "Sorry, something went wrong on our side. Please try confirming again."
	transportTrouble     = "Something went wrong reaching the assistant. Nothing was lost, so please send that again."
	offTopicFallback     = "I can only help with adding amala spots to the map."
	submitSuccessLine    = "All done, the spot is on the map and awaiting verification. Thank you!"
)

// TurnEvents receives transport-adapter notifications while a turn is
// processed. Any callback may be nil.
type TurnEvents struct {
	OnThinking func(delta string)
	OnContent  func(delta string)
	OnState    func(state IntakeState)
	OnToolCall func(status ToolCallStatus, detail string)
}

func (e *TurnEvents) state(s IntakeState) {
	if e != nil && e.OnState != nil {
		e.OnState(s)
	}
}

func (e *TurnEvents) toolCall(status ToolCallStatus, detail string) {
	if e != nil && e.OnToolCall != nil {
		e.OnToolCall(status, detail)
	}
}

func (e *TurnEvents) stream(thinking, content string) error {
	if e == nil {
		return nil
	}
	if thinking != "" && e.OnThinking != nil {
		e.OnThinking(thinking)
	}
	if content != "" && e.OnContent != nil {
		e.OnContent(content)
	}
	return nil
}

// TurnReply is the outcome of one processed turn.
type TurnReply struct {
	ConversationID string      `json:"conversation_id"`
	Reply          string      `json:"reply"`
	State          IntakeState `json:"state"`
	Spot           *model.Spot `json:"spot,omitempty"`
}

// Intake is the slot-filling state machine for one conversation. One
// instance per conversation, constructed with its session context; never
// shared between conversations. Its draft is discarded with the instance if
// the conversation ends unconfirmed.
type Intake struct {
	mu sync.Mutex

	id       string
	state    IntakeState
	draft    model.Draft
	session  model.SessionContext
	history  []model.ChatMessage
	collab   IntakeCollaborator
	contract *SubmitContract
	logger   *utils.Logger
}

// NewIntake creates an intake machine seeded with the session context.
// Coordinates are copied into the draft here; the user is never asked for
// them and the collaborator cannot overwrite them.
func NewIntake(session model.SessionContext, collab IntakeCollaborator, contract *SubmitContract, logger *utils.Logger) *Intake {
	lat, lng := session.Latitude, session.Longitude
	return &Intake{
		id:       uuid.NewString(),
		state:    StateCollecting,
		session:  session,
		collab:   collab,
		contract: contract,
		logger:   logger,
		draft: model.Draft{
			Latitude:  &lat,
			Longitude: &lng,
		},
	}
}

// ID returns the conversation identifier.
func (m *Intake) ID() string { return m.id }

// State returns the current phase. Mostly useful for inspection in handlers
// and tests.
func (m *Intake) State() IntakeState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// HandleTurn processes one user message. Turns within a conversation are
// strictly serialized: a turn arriving while another is in flight is
// rejected with ErrConversationBusy rather than interleaved, which keeps
// submission at-most-once even for duplicated affirmatives.
func (m *Intake) HandleTurn(ctx context.Context, userText string, events *TurnEvents) (*TurnReply, error) {
	if !m.mu.TryLock() {
		return nil, ErrConversationBusy
	}
	defer m.mu.Unlock()

	// Closed is monotonic: fixed refusal, no collaborator call, no tool call.
	if m.state == StateClosed {
		return m.reply(closedRefusalMessage), nil
	}

	m.history = append(m.history, model.ChatMessage{Role: "user", Content: userText})

	view := &ConversationView{
		History:       append([]model.ChatMessage(nil), m.history...),
		State:         m.state,
		Draft:         m.draft,
		MissingFields: m.draft.MissingFields(),
	}

	outcome, err := m.collab.NextTurn(ctx, view, events.stream)
	if err != nil {
		// Collaborator unreachable or unintelligible: no state is lost, the
		// user just hears a generic line and can resend.
		m.logger.Warn("conversation %s: collaborator error: %v", m.id, err)
		m.history = m.history[:len(m.history)-1]
		return m.reply(transportTrouble), nil
	}

	reply := m.apply(ctx, outcome, events)
	m.history = append(m.history, model.ChatMessage{Role: "assistant", Content: reply.Reply})
	return reply, nil
}

// apply advances the machine per the collaborator's reading of the turn.
func (m *Intake) apply(ctx context.Context, outcome *TurnOutcome, events *TurnEvents) *TurnReply {
	switch outcome.Intent {
	case IntentOffTopic:
		// Polite scope restatement; state unchanged.
		return m.reply(fallback(outcome.Reply, offTopicFallback))

	case IntentProvide:
		m.draft.Apply(outcome.Fields)
		m.refreshState(events)
		return m.reply(outcome.Reply)

	case IntentDispute:
		// Scoped correction: only the disputed fields reset; anything the
		// user corrected in the same breath is applied immediately.
		// Confirmation status resets with the dispute.
		fields := make([]model.DraftField, 0, len(outcome.DisputedFields))
		for _, f := range outcome.DisputedFields {
			fields = append(fields, model.DraftField(f))
		}
		m.draft.Clear(fields...)
		m.draft.Apply(outcome.Fields)
		m.refreshState(events)
		return m.reply(outcome.Reply)

	case IntentReject:
		// Ambiguous negative: re-prompt for which field, reset nothing.
		return m.reply(outcome.Reply)

	case IntentConfirm:
		if m.state != StateConfirming {
			// Premature affirmative while fields are still missing; keep
			// collecting.
			m.refreshState(events)
			return m.reply(outcome.Reply)
		}
		return m.submit(ctx, outcome, events)
	}

	return m.reply(fallback(outcome.Reply, offTopicFallback))
}

// submit walks the one-way Confirming → Submitting edge and invokes the
// tool-call contract exactly once for this confirmation.
func (m *Intake) submit(ctx context.Context, outcome *TurnOutcome, events *TurnEvents) *TurnReply {
	// The model-issued payload is a request; the machine's draft is the
	// validated source of truth. A partial payload from the collaborator is
	// logged and never executed as-is.
	if outcome.Submit != nil {
		merged := m.draft
		merged.Apply(outcome.Submit)
		if !merged.AllRequiredPresent() {
			m.logger.Error("conversation %s: collaborator issued incomplete tool-call payload", m.id)
			return m.reply(genericApology)
		}
	}

	m.state = StateSubmitting
	events.state(StateSubmitting)
	events.toolCall(ToolCallRequested, "add_spot")
	events.toolCall(ToolCallExecuting, "add_spot")

	spot, err := m.contract.Execute(ctx, m.draft, m.session)
	if err != nil {
		events.toolCall(ToolCallFailed, err.Error())

		if errors.Is(err, ErrIncompleteDraft) {
			// Gating should make this unreachable; treat as an internal bug.
			m.logger.Error("conversation %s: incomplete draft reached the submit contract: %v", m.id, err)
			m.state = StateConfirming
			events.state(StateConfirming)
			return m.reply(genericApology)
		}

		// Recoverable failure: back to Confirming so the user retries
		// without re-entering anything.
		m.logger.Warn("conversation %s: submission failed: %v", m.id, err)
		m.state = StateConfirming
		events.state(StateConfirming)

		var failure *SubmissionFailure
		reason := "the spot could not be saved right now"
		if errors.As(err, &failure) {
			reason = failure.Reason
		}
		return m.reply("Sorry, " + reason + ". Would you like me to try again, or shall we stop here?")
	}

	events.toolCall(ToolCallCompleted, spot.ID)
	m.state = StateClosed
	events.state(StateClosed)

	r := m.reply(fallback(outcome.Reply, submitSuccessLine))
	r.Spot = spot
	return r
}

// refreshState moves between Collecting and Confirming based on draft
// completeness. The Closed and Submitting states are never entered here.
func (m *Intake) refreshState(events *TurnEvents) {
	next := StateCollecting
	if m.draft.AllRequiredPresent() {
		next = StateConfirming
	}
	if next != m.state {
		m.state = next
		events.state(next)
	}
}

func (m *Intake) reply(text string) *TurnReply {
	return &TurnReply{
		ConversationID: m.id,
		Reply:          text,
		State:          m.state,
	}
}

func fallback(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
