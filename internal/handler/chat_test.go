package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"amalajeun/internal/model"
	"amalajeun/internal/service"
	"amalajeun/internal/utils"
)

func strp(v string) *string     { return &v }
func floatp(v float64) *float64 { return &v }
func truep() *bool              { v := true; return &v }

// replayCollaborator hands back a fixed sequence of turn outcomes, one per call.
type replayCollaborator struct {
	outcomes []*service.TurnOutcome
	calls    int
}

func (r *replayCollaborator) NextTurn(ctx context.Context, view *service.ConversationView, callback func(thinking, content string) error) (*service.TurnOutcome, error) {
	i := r.calls
	r.calls++
	if i >= len(r.outcomes) {
		i = len(r.outcomes) - 1
	}
	return r.outcomes[i], nil
}

type stubCreator struct{}

func (stubCreator) Create(ctx context.Context, req *model.CreateSpotRequest, accessToken string) (*model.Spot, error) {
	return &model.Spot{ID: "spot-1", Name: req.Name, Address: req.Address, UserID: req.UserID}, nil
}

func chatTestRouter(collab service.IntakeCollaborator) (*gin.Engine, *ChatHandler) {
	gin.SetMode(gin.TestMode)
	logger := utils.NewLogger()
	h := NewChatHandler(collab, service.NewSubmitContract(stubCreator{}, logger), nil, logger)
	r := gin.New()
	r.POST("/chat", h.Chat)
	return r, h
}

func postChat(t *testing.T, r *gin.Engine, req model.ChatRequest) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(req)
	require.NoError(t, err)
	httpReq := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader(body))
	httpReq.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httpReq)
	return w
}

var startIDRe = regexp.MustCompile(`event: start\ndata: \{"conversation_id":"([^"]+)"`)

func conversationIDFromStream(t *testing.T, body string) string {
	t.Helper()
	m := startIDRe.FindStringSubmatch(body)
	require.NotNil(t, m, "stream should carry a start event with a conversation_id")
	return m[1]
}

func TestChatUnknownConversationIDReturnsNotFound(t *testing.T) {
	collab := &replayCollaborator{outcomes: []*service.TurnOutcome{
		{Reply: "What's it called?", Intent: service.IntentProvide},
	}}
	r, h := chatTestRouter(collab)

	w := postChat(t, r, model.ChatRequest{
		ConversationID: "no-such-conversation",
		Message:        "hello again",
	})

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Conversation not found")
	assert.Zero(t, collab.calls, "no turn should run for an unknown conversation")
	assert.Empty(t, h.conversations)
}

func TestChatReusesConversationByID(t *testing.T) {
	collab := &replayCollaborator{outcomes: []*service.TurnOutcome{
		{Reply: "Where is it?", Intent: service.IntentProvide, Fields: &model.DraftFields{
			Name: strp("Mama Jude"),
		}},
		{Reply: "What time do they open?", Intent: service.IntentProvide, Fields: &model.DraftFields{
			Address: strp("Akerele Road"),
		}},
	}}
	r, h := chatTestRouter(collab)

	first := postChat(t, r, model.ChatRequest{Message: "There's a spot called Mama Jude"})
	require.Equal(t, http.StatusOK, first.Code)
	id := conversationIDFromStream(t, first.Body.String())

	second := postChat(t, r, model.ChatRequest{ConversationID: id, Message: "It's on Akerele Road"})
	require.Equal(t, http.StatusOK, second.Code)
	assert.Contains(t, second.Body.String(), `"conversation_id":"`+id+`"`)
	assert.Equal(t, 2, collab.calls)
	assert.Len(t, h.conversations, 1)
}

func TestChatEvictsConversationOnClose(t *testing.T) {
	collab := &replayCollaborator{outcomes: []*service.TurnOutcome{
		{Reply: "Got it all, shall I add it?", Intent: service.IntentProvide, Fields: &model.DraftFields{
			Name:        strp("Mama Jude"),
			Address:     strp("Akerele Road"),
			OpeningTime: strp("09:00"),
			ClosingTime: strp("21:00"),
			Price:       floatp(4000),
			DineIn:      truep(),
		}},
		{Reply: "Adding it now.", Intent: service.IntentConfirm},
	}}
	r, h := chatTestRouter(collab)

	first := postChat(t, r, model.ChatRequest{
		Message:     "Add Mama Jude on Akerele Road, 09:00 to 21:00, 4000 naira, dine-in",
		Latitude:    6.4969,
		Longitude:   3.3561,
		UserID:      "user-42",
		AddedBy:     "Tunde",
		AccessToken: "token",
	})
	require.Equal(t, http.StatusOK, first.Code)
	id := conversationIDFromStream(t, first.Body.String())

	second := postChat(t, r, model.ChatRequest{ConversationID: id, Message: "Yes, add it"})
	require.Equal(t, http.StatusOK, second.Code)
	assert.Contains(t, second.Body.String(), `"state":"closed"`)

	assert.Empty(t, h.conversations, "closed conversation should leave the registry")

	third := postChat(t, r, model.ChatRequest{ConversationID: id, Message: "One more thing"})
	assert.Equal(t, http.StatusNotFound, third.Code)
}
