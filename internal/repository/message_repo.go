package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/tommusungu/MentaCareBack/internal/models"
)

type MessageRepository struct {
	db DBTX
}

func NewMessageRepository(db DBTX) *MessageRepository {
	return &MessageRepository{db: db}
}

type CreateMessageInput struct {
	ConversationID int64
	SenderID       int64
	SenderName     string
	Content        string
	ReplyTo        *models.ReplyRef
}

func (r *MessageRepository) Create(ctx context.Context, input CreateMessageInput) (*models.ChatMessage, error) {
	query := `
		INSERT INTO messages (conversation_id, sender_id, sender_name, content,
							  reply_to_id, reply_snippet, reply_sender_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, conversation_id, sender_id, sender_name, content,
				  reply_to_id, reply_snippet, reply_sender_name, created_at
	`

	var replyToID, replySnippet, replySenderName any
	if input.ReplyTo != nil {
		replyToID = input.ReplyTo.MessageID
		replySnippet = input.ReplyTo.Snippet
		replySenderName = input.ReplyTo.SenderName
	}

	return scanMessage(r.db.QueryRow(ctx, query,
		input.ConversationID,
		input.SenderID,
		input.SenderName,
		input.Content,
		replyToID,
		replySnippet,
		replySenderName,
	))
}

func (r *MessageRepository) GetByID(ctx context.Context, messageID int64) (*models.ChatMessage, error) {
	query := `
		SELECT id, conversation_id, sender_id, sender_name, content,
			   reply_to_id, reply_snippet, reply_sender_name, created_at
		FROM messages
		WHERE id = $1
	`
	return scanMessage(r.db.QueryRow(ctx, query, messageID))
}

// MessageCursor marks a position in the (created_at DESC, id DESC) thread
// order. The id column breaks ties between messages committed in the same
// microsecond, so paging on the timestamp alone cannot skip a tied row.
type MessageCursor struct {
	CreatedAt time.Time
	ID        int64
}

// ListBefore fetches one page of messages older than the cursor, newest first.
// A nil cursor fetches the newest page.
func (r *MessageRepository) ListBefore(
	ctx context.Context,
	conversationID int64,
	cursor *MessageCursor,
	limit int,
) ([]models.ChatMessage, error) {
	query := `
		SELECT id, conversation_id, sender_id, sender_name, content,
			   reply_to_id, reply_snippet, reply_sender_name, created_at
		FROM messages
		WHERE conversation_id = $1
		  AND ($2::timestamptz IS NULL OR (created_at, id) < ($2, $3::bigint))
		ORDER BY created_at DESC, id DESC
		LIMIT $4
	`

	var beforeTS, beforeID any
	if cursor != nil {
		beforeTS = cursor.CreatedAt
		beforeID = cursor.ID
	}

	rows, err := r.db.Query(ctx, query, conversationID, beforeTS, beforeID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]models.ChatMessage, 0)
	for rows.Next() {
		message, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, *message)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return messages, nil
}

func scanMessage(row rowScanner) (*models.ChatMessage, error) {
	var message models.ChatMessage
	var replyToID sql.NullInt64
	var replySnippet sql.NullString
	var replySenderName sql.NullString

	if err := row.Scan(
		&message.ID,
		&message.ConversationID,
		&message.SenderID,
		&message.SenderName,
		&message.Content,
		&replyToID,
		&replySnippet,
		&replySenderName,
		&message.CreatedAt,
	); err != nil {
		return nil, err
	}

	if replyToID.Valid {
		message.ReplyTo = &models.ReplyRef{
			MessageID:  replyToID.Int64,
			Snippet:    replySnippet.String,
			SenderName: replySenderName.String,
		}
	}

	return &message, nil
}
