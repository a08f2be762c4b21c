package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/tommusungu/MentaCareBack/internal/models"
	"github.com/tommusungu/MentaCareBack/internal/repository"
	"github.com/tommusungu/MentaCareBack/internal/services"
	chatws "github.com/tommusungu/MentaCareBack/internal/websocket"
)

type stubChatService struct {
	inboxResult        *services.Inbox
	inboxErr           error
	createResult       *models.Conversation
	createErr          error
	pageResult         *services.MessagePage
	pageErr            error
	sendResult         *services.ChatDelivery
	sendErr            error
	markResult         *models.Conversation
	markErr            error
	lastActorID        int64
	lastRole           string
	lastProfessionalID int64
	lastConversationID int64
	lastCursor         *repository.MessageCursor
	lastLimit          int
	lastSendInput      services.SendMessageInput
}

func (s *stubChatService) ListConversations(_ context.Context, actorID int64, role string) (*services.Inbox, error) {
	s.lastActorID = actorID
	s.lastRole = role
	return s.inboxResult, s.inboxErr
}

func (s *stubChatService) CreateConversation(_ context.Context, actorID int64, role string, professionalID int64) (*models.Conversation, error) {
	s.lastActorID = actorID
	s.lastRole = role
	s.lastProfessionalID = professionalID
	return s.createResult, s.createErr
}

func (s *stubChatService) ListMessages(_ context.Context, actorID int64, role string, conversationID int64, cursor *repository.MessageCursor, limit int) (*services.MessagePage, error) {
	s.lastActorID = actorID
	s.lastRole = role
	s.lastConversationID = conversationID
	s.lastCursor = cursor
	s.lastLimit = limit
	return s.pageResult, s.pageErr
}

func (s *stubChatService) SendMessage(_ context.Context, actorID int64, role string, conversationID int64, input services.SendMessageInput) (*services.ChatDelivery, error) {
	s.lastActorID = actorID
	s.lastRole = role
	s.lastConversationID = conversationID
	s.lastSendInput = input
	return s.sendResult, s.sendErr
}

func (s *stubChatService) MarkConversationRead(_ context.Context, actorID int64, role string, conversationID int64) (*models.Conversation, error) {
	s.lastActorID = actorID
	s.lastRole = role
	s.lastConversationID = conversationID
	return s.markResult, s.markErr
}

func newChatTestApp(handler *ChatHandler, role, userID string) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("role", role)
		c.Locals("user_id", userID)
		return c.Next()
	})
	app.Get("/api/v1/conversations", handler.ListConversations)
	app.Post("/api/v1/conversations", handler.CreateConversation)
	app.Get("/api/v1/conversations/:id/messages", handler.GetMessages)
	app.Post("/api/v1/conversations/:id/messages", handler.SendMessage)
	app.Post("/api/v1/conversations/:id/read", handler.MarkRead)
	return app
}

func TestListConversationsReturnsInbox(t *testing.T) {
	service := &stubChatService{
		inboxResult: &services.Inbox{
			Conversations: []models.ConversationSummary{
				{
					Conversation: models.Conversation{ID: 17, PatientID: 42, ProfessionalID: 8},
					DisplayName:  "Dr. Imani Njoroge",
					LastMessage: &models.ChatMessage{
						ID:             3,
						ConversationID: 17,
						SenderID:       8,
						Content:        "See you tomorrow",
						CreatedAt:      time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
					},
					Unread:      true,
					UnreadCount: 2,
				},
			},
			TotalUnread: 2,
		},
	}
	handler := NewChatHandler(service, chatws.NewHub(zap.NewNop()), "secret")
	app := newChatTestApp(handler, "patient", "42")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/conversations", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastActorID != 42 || service.lastRole != "patient" {
		t.Fatalf("unexpected actor context: %d %q", service.lastActorID, service.lastRole)
	}

	var body struct {
		Conversations []models.ConversationSummary `json:"conversations"`
		TotalUnread   int                          `json:"total_unread"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(body.Conversations) != 1 || body.Conversations[0].UnreadCount != 2 {
		t.Fatalf("unexpected conversations: %+v", body.Conversations)
	}
	if body.TotalUnread != 2 {
		t.Fatalf("expected total_unread 2, got %d", body.TotalUnread)
	}
}

func TestCreateConversationReturnsCreatedConversation(t *testing.T) {
	service := &stubChatService{
		createResult: &models.Conversation{ID: 9, PatientID: 42, ProfessionalID: 7},
	}
	handler := NewChatHandler(service, chatws.NewHub(zap.NewNop()), "secret")
	app := newChatTestApp(handler, "patient", "42")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/conversations", strings.NewReader(`{"professional_id":7}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if service.lastProfessionalID != 7 {
		t.Fatalf("expected professional id 7, got %d", service.lastProfessionalID)
	}
}

func TestCreateConversationRejectsProfessionals(t *testing.T) {
	service := &stubChatService{}
	handler := NewChatHandler(service, chatws.NewHub(zap.NewNop()), "secret")
	app := newChatTestApp(handler, "professional", "7")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/conversations", strings.NewReader(`{"professional_id":7}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}

func TestGetMessagesForwardsCursorAndReturnsPage(t *testing.T) {
	before := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	service := &stubChatService{
		pageResult: &services.MessagePage{
			Messages: []models.ChatMessage{
				{ID: 5, ConversationID: 11, SenderID: 7, Content: "Hi", CreatedAt: time.Now().UTC()},
			},
			AllLoaded: true,
		},
	}
	handler := NewChatHandler(service, chatws.NewHub(zap.NewNop()), "secret")
	app := newChatTestApp(handler, "professional", "7")

	target := "/api/v1/conversations/11/messages?before=" + before.Format(time.RFC3339) + "&before_id=5&limit=5"
	req := httptest.NewRequest(http.MethodGet, target, nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastConversationID != 11 || service.lastLimit != 5 {
		t.Fatalf("unexpected forwarded query: conversation=%d limit=%d", service.lastConversationID, service.lastLimit)
	}
	if service.lastCursor == nil || !service.lastCursor.CreatedAt.Equal(before) || service.lastCursor.ID != 5 {
		t.Fatalf("expected cursor (%v, 5), got %+v", before, service.lastCursor)
	}

	var body struct {
		Messages  []models.ChatMessage `json:"messages"`
		AllLoaded bool                 `json:"all_loaded"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(body.Messages) != 1 || !body.AllLoaded {
		t.Fatalf("unexpected response body: %+v all_loaded=%v", body.Messages, body.AllLoaded)
	}
}

func TestGetMessagesReturnsNextCursor(t *testing.T) {
	oldest := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	service := &stubChatService{
		pageResult: &services.MessagePage{
			Messages: []models.ChatMessage{
				{ID: 4, ConversationID: 11, SenderID: 7, Content: "Earlier", CreatedAt: oldest},
				{ID: 5, ConversationID: 11, SenderID: 7, Content: "Later", CreatedAt: oldest.Add(time.Minute)},
			},
			AllLoaded:  false,
			NextCursor: &repository.MessageCursor{CreatedAt: oldest, ID: 4},
		},
	}
	handler := NewChatHandler(service, chatws.NewHub(zap.NewNop()), "secret")
	app := newChatTestApp(handler, "professional", "7")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/conversations/11/messages?limit=2", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		AllLoaded    bool   `json:"all_loaded"`
		NextBefore   string `json:"next_before"`
		NextBeforeID int64  `json:"next_before_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if body.AllLoaded {
		t.Fatal("expected all_loaded=false")
	}
	if body.NextBeforeID != 4 {
		t.Fatalf("expected next_before_id 4, got %d", body.NextBeforeID)
	}
	parsed, err := time.Parse(time.RFC3339Nano, body.NextBefore)
	if err != nil || !parsed.Equal(oldest) {
		t.Fatalf("expected next_before %v, got %q (%v)", oldest, body.NextBefore, err)
	}
}

func TestGetMessagesRejectsMalformedCursor(t *testing.T) {
	service := &stubChatService{}
	handler := NewChatHandler(service, chatws.NewHub(zap.NewNop()), "secret")
	app := newChatTestApp(handler, "patient", "42")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/conversations/11/messages?before=yesterday", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestGetMessagesReturnsNotFound(t *testing.T) {
	service := &stubChatService{pageErr: pgx.ErrNoRows}
	handler := NewChatHandler(service, chatws.NewHub(zap.NewNop()), "secret")
	app := newChatTestApp(handler, "professional", "7")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/conversations/99/messages", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestSendMessageForwardsReplyAndBroadcasts(t *testing.T) {
	conversation := models.Conversation{ID: 11, PatientID: 42, ProfessionalID: 7}
	service := &stubChatService{
		sendResult: &services.ChatDelivery{
			Conversation: &conversation,
			Message: &models.ChatMessage{
				ID:             6,
				ConversationID: 11,
				SenderID:       42,
				SenderName:     "Amina",
				Content:        "Same time works",
				ReplyTo: &models.ReplyRef{
					MessageID:  5,
					Snippet:    "Does Thursday work?",
					SenderName: "Dr. Imani Njoroge",
				},
				CreatedAt: time.Now().UTC(),
			},
			RecipientID: 7,
		},
	}
	handler := NewChatHandler(service, chatws.NewHub(zap.NewNop()), "secret")
	app := newChatTestApp(handler, "patient", "42")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/conversations/11/messages",
		strings.NewReader(`{"content":"Same time works","reply_to_id":5}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if service.lastSendInput.Content != "Same time works" {
		t.Fatalf("unexpected forwarded content: %q", service.lastSendInput.Content)
	}
	if service.lastSendInput.ReplyToID == nil || *service.lastSendInput.ReplyToID != 5 {
		t.Fatalf("expected reply_to_id 5, got %v", service.lastSendInput.ReplyToID)
	}

	var body struct {
		Message models.ChatMessage `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if body.Message.ReplyTo == nil || body.Message.ReplyTo.MessageID != 5 {
		t.Fatalf("expected reply reference in response, got %+v", body.Message.ReplyTo)
	}
}

func TestMarkReadReturnsOK(t *testing.T) {
	service := &stubChatService{
		markResult: &models.Conversation{ID: 11, PatientID: 42, ProfessionalID: 7},
	}
	handler := NewChatHandler(service, chatws.NewHub(zap.NewNop()), "secret")
	app := newChatTestApp(handler, "patient", "42")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/conversations/11/read", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastConversationID != 11 {
		t.Fatalf("expected conversation 11, got %d", service.lastConversationID)
	}
}
