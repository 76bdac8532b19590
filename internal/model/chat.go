package model

// SessionContext carries the hosting page's context into a conversation:
// the coordinates of the last map click, the authenticated user and the
// credential attached to the eventual create request. It is injected once
// at conversation start and never solicited mid-conversation.
type SessionContext struct {
	Latitude    float64
	Longitude   float64
	UserID      string
	AddedBy     string
	AccessToken string
}

// ChatRequest is one user turn sent to the intake endpoint.
type ChatRequest struct {
	ConversationID string  `json:"conversation_id,omitempty"`
	Message        string  `json:"message" binding:"required"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	UserID         string  `json:"user_id"`
	AddedBy        string  `json:"added_by"`
	AccessToken    string  `json:"access_token"`
}

// DiscoveryChatRequest is one user turn sent to the discovery assistant.
type DiscoveryChatRequest struct {
	Messages []ChatMessage `json:"messages" binding:"required"`
}

// ChatMessage is a provider-agnostic conversation turn.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
