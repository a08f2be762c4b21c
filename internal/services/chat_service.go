package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tommusungu/MentaCareBack/internal/models"
	"github.com/tommusungu/MentaCareBack/internal/repository"
)

const (
	defaultMessagePageSize = 30
	maxMessagePageSize     = 100
	replySnippetRunes      = 80
)

type patientProfileReader interface {
	GetByUserID(ctx context.Context, userID int64) (*models.PatientProfile, error)
}

type ChatService struct {
	db                      *pgxpool.Pool
	conversationRepo        *repository.ConversationRepository
	messageRepo             *repository.MessageRepository
	userRepo                userReader
	patientProfileRepo      patientProfileReader
	professionalProfileRepo professionalProfileReader
}

type ChatDelivery struct {
	Conversation *models.Conversation
	Message      *models.ChatMessage
	RecipientID  int64
}

// MessagePage is one slice of a conversation thread, oldest first. AllLoaded
// is set when the page reached the beginning of the thread, so clients know
// to stop paginating.
type MessagePage struct {
	Messages  []models.ChatMessage `json:"messages"`
	AllLoaded bool                 `json:"all_loaded"`
	// NextCursor points at the oldest message of this page. Nil once the
	// beginning of the thread has been reached.
	NextCursor *repository.MessageCursor `json:"-"`
}

type Inbox struct {
	Conversations []models.ConversationSummary `json:"conversations"`
	TotalUnread   int                          `json:"total_unread"`
}

func NewChatService(
	db *pgxpool.Pool,
	conversationRepo *repository.ConversationRepository,
	messageRepo *repository.MessageRepository,
	userRepo userReader,
	patientProfileRepo patientProfileReader,
	professionalProfileRepo professionalProfileReader,
) *ChatService {
	return &ChatService{
		db:                      db,
		conversationRepo:        conversationRepo,
		messageRepo:             messageRepo,
		userRepo:                userRepo,
		patientProfileRepo:      patientProfileRepo,
		professionalProfileRepo: professionalProfileRepo,
	}
}

func (s *ChatService) ListConversations(
	ctx context.Context,
	actorID int64,
	role string,
) (*Inbox, error) {
	if role != "patient" && role != "professional" {
		return nil, ErrForbidden
	}

	summaries, err := s.conversationRepo.ListForParticipant(ctx, actorID)
	if err != nil {
		return nil, err
	}

	totalUnread := 0
	for _, summary := range summaries {
		totalUnread += summary.UnreadCount
	}

	return &Inbox{
		Conversations: summaries,
		TotalUnread:   totalUnread,
	}, nil
}

func (s *ChatService) CreateConversation(
	ctx context.Context,
	actorID int64,
	role string,
	professionalID int64,
) (*models.Conversation, error) {
	if role != "patient" {
		return nil, ErrForbidden
	}
	if professionalID <= 0 || professionalID == actorID {
		return nil, ErrInvalidInput
	}

	professional, err := s.userRepo.GetByID(ctx, professionalID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfessionalNotFound
		}
		return nil, err
	}
	if professional.Role != "professional" {
		return nil, ErrInvalidInput
	}

	return s.conversationRepo.CreateOrGet(ctx, actorID, professionalID)
}

// ListMessages returns one backward page of the thread and advances the
// reader's last-read marker. Read receipts on the actor's own messages report
// whether the counterpart's marker has reached them.
func (s *ChatService) ListMessages(
	ctx context.Context,
	actorID int64,
	role string,
	conversationID int64,
	cursor *repository.MessageCursor,
	limit int,
) (*MessagePage, error) {
	if role != "patient" && role != "professional" {
		return nil, ErrForbidden
	}
	if conversationID <= 0 {
		return nil, ErrInvalidInput
	}
	if limit <= 0 {
		limit = defaultMessagePageSize
	}
	if limit > maxMessagePageSize {
		limit = maxMessagePageSize
	}

	conversation, err := s.conversationRepo.GetByIDForParticipant(ctx, conversationID, actorID)
	if err != nil {
		return nil, err
	}

	messages, err := s.messageRepo.ListBefore(ctx, conversationID, cursor, limit)
	if err != nil {
		return nil, err
	}

	allLoaded := len(messages) < limit
	var nextCursor *repository.MessageCursor
	if !allLoaded {
		oldest := messages[len(messages)-1]
		nextCursor = &repository.MessageCursor{CreatedAt: oldest.CreatedAt, ID: oldest.ID}
	}
	reverseMessages(messages)
	applyReadReceipts(messages, actorID, conversation.LastReadBy(conversation.CounterpartID(actorID)))

	if err := s.conversationRepo.MarkRead(ctx, conversationID, actorID, time.Now().UTC()); err != nil {
		return nil, err
	}

	return &MessagePage{
		Messages:   messages,
		AllLoaded:  allLoaded,
		NextCursor: nextCursor,
	}, nil
}

type SendMessageInput struct {
	Content   string
	ReplyToID *int64
}

func (s *ChatService) SendMessage(
	ctx context.Context,
	actorID int64,
	role string,
	conversationID int64,
	input SendMessageInput,
) (*ChatDelivery, error) {
	if role != "patient" && role != "professional" {
		return nil, ErrForbidden
	}
	if conversationID <= 0 {
		return nil, ErrInvalidInput
	}

	trimmed := strings.TrimSpace(input.Content)
	if trimmed == "" {
		return nil, ErrInvalidInput
	}

	conversation, err := s.conversationRepo.GetByIDForParticipant(ctx, conversationID, actorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrForbidden
		}
		return nil, err
	}

	var replyTo *models.ReplyRef
	if input.ReplyToID != nil {
		parent, err := s.messageRepo.GetByID(ctx, *input.ReplyToID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrInvalidInput
			}
			return nil, err
		}
		if parent.ConversationID != conversationID {
			return nil, ErrInvalidInput
		}
		replyTo = &models.ReplyRef{
			MessageID:  parent.ID,
			Snippet:    replySnippet(parent.Content),
			SenderName: parent.SenderName,
		}
	}

	senderName, err := s.displayName(ctx, actorID, role)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txMessageRepo := repository.NewMessageRepository(tx)
	txConversationRepo := repository.NewConversationRepository(tx)

	message, err := txMessageRepo.Create(ctx, repository.CreateMessageInput{
		ConversationID: conversationID,
		SenderID:       actorID,
		SenderName:     senderName,
		Content:        trimmed,
		ReplyTo:        replyTo,
	})
	if err != nil {
		return nil, err
	}

	if err := txConversationRepo.TouchAndMarkSenderRead(ctx, conversationID, actorID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return &ChatDelivery{
		Conversation: conversation,
		Message:      message,
		RecipientID:  conversation.CounterpartID(actorID),
	}, nil
}

func (s *ChatService) MarkConversationRead(
	ctx context.Context,
	actorID int64,
	role string,
	conversationID int64,
) (*models.Conversation, error) {
	if role != "patient" && role != "professional" {
		return nil, ErrForbidden
	}
	if conversationID <= 0 {
		return nil, ErrInvalidInput
	}

	conversation, err := s.conversationRepo.GetByIDForParticipant(ctx, conversationID, actorID)
	if err != nil {
		return nil, err
	}

	if err := s.conversationRepo.MarkRead(ctx, conversationID, actorID, time.Now().UTC()); err != nil {
		return nil, err
	}
	return conversation, nil
}

func (s *ChatService) displayName(ctx context.Context, userID int64, role string) (string, error) {
	var fullName *string
	switch role {
	case "patient":
		profile, err := s.patientProfileRepo.GetByUserID(ctx, userID)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return "", err
		}
		if err == nil {
			fullName = profile.FullName
		}
	case "professional":
		profile, err := s.professionalProfileRepo.GetByUserID(ctx, userID)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return "", err
		}
		if err == nil {
			fullName = profile.FullName
		}
	}

	if fullName != nil && strings.TrimSpace(*fullName) != "" {
		return strings.TrimSpace(*fullName), nil
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	return user.Email, nil
}

func reverseMessages(messages []models.ChatMessage) {
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
}

// applyReadReceipts marks the actor's own messages as read once the
// counterpart's last-read marker has reached their timestamps. Messages from
// the counterpart count as read by the actor the moment they are fetched.
func applyReadReceipts(messages []models.ChatMessage, actorID int64, counterpartLastRead *time.Time) {
	for i := range messages {
		if messages[i].SenderID != actorID {
			messages[i].Read = true
			continue
		}
		messages[i].Read = counterpartLastRead != nil &&
			!counterpartLastRead.Before(messages[i].CreatedAt)
	}
}

func replySnippet(content string) string {
	runes := []rune(strings.TrimSpace(content))
	if len(runes) <= replySnippetRunes {
		return string(runes)
	}
	return string(runes[:replySnippetRunes]) + "…"
}

func FormatChatTimestamp(ts time.Time) string {
	return ts.UTC().Format(time.RFC3339)
}
