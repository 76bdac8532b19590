package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"amalajeun/internal/model"
	"amalajeun/internal/service"
	"amalajeun/internal/utils"

	"github.com/gin-gonic/gin"
)

// ChatHandler hosts the conversational endpoints: the intake chat that adds
// spots and the discovery chat that answers questions about them. It owns
// the registry of live intake conversations, keyed by conversation ID.
type ChatHandler struct {
	mu            sync.Mutex
	conversations map[string]*service.Intake

	collab    service.IntakeCollaborator
	contract  *service.SubmitContract
	discovery *service.DiscoveryAssistant
	logger    *utils.Logger
}

// NewChatHandler creates a new chat handler
func NewChatHandler(collab service.IntakeCollaborator, contract *service.SubmitContract, discovery *service.DiscoveryAssistant, logger *utils.Logger) *ChatHandler {
	return &ChatHandler{
		conversations: make(map[string]*service.Intake),
		collab:        collab,
		contract:      contract,
		discovery:     discovery,
		logger:        logger,
	}
}

// conversation returns the machine for the request, creating one seeded with
// the session context when no ID is supplied. A non-empty ID that is not in
// the registry returns nil so the caller can tell the client the conversation
// is gone rather than silently starting a new one. Session context is bound
// at creation and never replaced mid-conversation.
func (h *ChatHandler) conversation(req *model.ChatRequest) *service.Intake {
	h.mu.Lock()
	defer h.mu.Unlock()

	if req.ConversationID != "" {
		return h.conversations[req.ConversationID]
	}

	m := service.NewIntake(model.SessionContext{
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		UserID:      req.UserID,
		AddedBy:     req.AddedBy,
		AccessToken: req.AccessToken,
	}, h.collab, h.contract, h.logger)
	h.conversations[m.ID()] = m
	return m
}

// evict drops a finished conversation from the registry. A later request
// carrying the evicted ID gets the not-found response, which already directs
// the user to start a new conversation.
func (h *ChatHandler) evict(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conversations, id)
}

// Chat handles POST /api/v1/chat - SSE streaming intake turn
func (h *ChatHandler) Chat(c *gin.Context) {
	var req model.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	machine := h.conversation(&req)
	if machine == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found. It may have expired; start a new one by omitting conversation_id."})
		return
	}

	flusher, ok := setupSSE(c)
	if !ok {
		return
	}

	sendSSE(c, "start", gin.H{"conversation_id": machine.ID(), "state": machine.State()})
	flusher.Flush()

	events := &service.TurnEvents{
		OnThinking: func(delta string) {
			sendSSE(c, "thinking", gin.H{"delta": delta})
			flusher.Flush()
		},
		OnContent: func(delta string) {
			sendSSE(c, "content", gin.H{"delta": delta})
			flusher.Flush()
		},
		OnState: func(state service.IntakeState) {
			sendSSE(c, "state", gin.H{"state": state})
			flusher.Flush()
		},
		OnToolCall: func(status service.ToolCallStatus, detail string) {
			sendSSE(c, "tool_call", gin.H{"status": status, "detail": detail})
			flusher.Flush()
		},
	}

	reply, err := machine.HandleTurn(c.Request.Context(), req.Message, events)
	if err != nil {
		if errors.Is(err, service.ErrConversationBusy) {
			sendSSE(c, "error", gin.H{"error": "A turn is already being processed. Please wait for it to finish."})
		} else {
			h.logger.Error("chat turn failed: %v", err)
			sendSSE(c, "error", gin.H{"error": "Something went wrong processing your message."})
		}
		flusher.Flush()
		return
	}

	if reply.State == service.StateClosed {
		h.evict(machine.ID())
	}

	sendSSE(c, "reply", reply)
	flusher.Flush()

	sendSSE(c, "done", nil)
	flusher.Flush()
}

// DiscoveryChat handles POST /api/v1/chat/spots - SSE streaming discovery turn
func (h *ChatHandler) DiscoveryChat(c *gin.Context) {
	var req model.DiscoveryChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	if len(req.Messages) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "At least one message is required"})
		return
	}

	flusher, ok := setupSSE(c)
	if !ok {
		return
	}

	sendSSE(c, "start", nil)
	flusher.Flush()

	answer, err := h.discovery.Answer(c.Request.Context(), req.Messages, func(thinking, content string) error {
		if thinking != "" {
			sendSSE(c, "thinking", gin.H{"delta": thinking})
		}
		if content != "" {
			sendSSE(c, "content", gin.H{"delta": content})
		}
		flusher.Flush()
		return nil
	})
	if err != nil {
		h.logger.Error("discovery chat failed: %v", err)
		sendSSE(c, "error", gin.H{"error": "Something went wrong answering your question."})
		flusher.Flush()
		return
	}

	sendSSE(c, "reply", gin.H{"reply": answer})
	flusher.Flush()

	sendSSE(c, "done", nil)
	flusher.Flush()
}

// setupSSE writes the SSE headers and returns the flusher.
func setupSSE(c *gin.Context) (http.Flusher, bool) {
	c.Header("Content-Type", "text/event-stream; charset=utf-8")
	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.Header("Pragma", "no-cache")
	c.Header("Expires", "0")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Header("Transfer-Encoding", "chunked")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Streaming not supported"})
		return nil, false
	}
	return flusher, true
}

// sendSSE sends a Server-Sent Event
func sendSSE(c *gin.Context, event string, data any) {
	if data != nil {
		jsonData, err := json.Marshal(data)
		if err != nil {
			fmt.Fprintf(c.Writer, "event: error\ndata: {\"error\": \"JSON marshal failed\"}\n\n")
			return
		}
		fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", event, string(jsonData))
	} else {
		fmt.Fprintf(c.Writer, "event: %s\ndata: {}\n\n", event)
	}
}
