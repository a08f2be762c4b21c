package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/tommusungu/MentaCareBack/internal/models"
)

type ConversationRepository struct {
	db DBTX
}

func NewConversationRepository(db DBTX) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// CreateOrGet returns the existing two-party conversation when one already
// exists, so creating a conversation between the same pair twice yields the
// same row.
func (r *ConversationRepository) CreateOrGet(
	ctx context.Context,
	patientID int64,
	professionalID int64,
) (*models.Conversation, error) {
	query := `
		INSERT INTO conversations (patient_id, professional_id)
		VALUES ($1, $2)
		ON CONFLICT (patient_id, professional_id)
		DO UPDATE SET updated_at = conversations.updated_at
		RETURNING id, patient_id, professional_id, patient_last_read_at,
				  professional_last_read_at, created_at, updated_at
	`

	var conversation models.Conversation
	err := r.db.QueryRow(ctx, query, patientID, professionalID).Scan(
		&conversation.ID,
		&conversation.PatientID,
		&conversation.ProfessionalID,
		&conversation.PatientLastReadAt,
		&conversation.ProfessionalLastReadAt,
		&conversation.CreatedAt,
		&conversation.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &conversation, nil
}

func (r *ConversationRepository) GetByIDForParticipant(
	ctx context.Context,
	conversationID int64,
	participantID int64,
) (*models.Conversation, error) {
	query := `
		SELECT id, patient_id, professional_id, patient_last_read_at,
			   professional_last_read_at, created_at, updated_at
		FROM conversations
		WHERE id = $1 AND (patient_id = $2 OR professional_id = $2)
	`

	var conversation models.Conversation
	err := r.db.QueryRow(ctx, query, conversationID, participantID).Scan(
		&conversation.ID,
		&conversation.PatientID,
		&conversation.ProfessionalID,
		&conversation.PatientLastReadAt,
		&conversation.ProfessionalLastReadAt,
		&conversation.CreatedAt,
		&conversation.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &conversation, nil
}

// ListForParticipant builds the conversation summaries in one query: the
// counterpart's display name, the newest message, and the unread count derived
// from the participant's conversation-level last-read marker.
func (r *ConversationRepository) ListForParticipant(
	ctx context.Context,
	participantID int64,
) ([]models.ConversationSummary, error) {
	query := `
		SELECT
			c.id,
			c.patient_id,
			c.professional_id,
			c.patient_last_read_at,
			c.professional_last_read_at,
			c.created_at,
			c.updated_at,
			CASE WHEN c.patient_id = $1
				THEN COALESCE(pp.full_name, '')
				ELSE COALESCE(pa.full_name, '')
			END,
			lm.id,
			lm.sender_id,
			lm.sender_name,
			lm.content,
			lm.created_at,
			COALESCE(uc.unread_count, 0)
		FROM conversations c
		LEFT JOIN professional_profiles pp ON pp.user_id = c.professional_id
		LEFT JOIN patient_profiles pa ON pa.user_id = c.patient_id
		LEFT JOIN LATERAL (
			SELECT id, sender_id, sender_name, content, created_at
			FROM messages
			WHERE conversation_id = c.id
			ORDER BY created_at DESC, id DESC
			LIMIT 1
		) lm ON TRUE
		LEFT JOIN LATERAL (
			SELECT COUNT(*) AS unread_count
			FROM messages m
			WHERE m.conversation_id = c.id
			  AND m.sender_id <> $1
			  AND (
					CASE WHEN c.patient_id = $1
						THEN c.patient_last_read_at
						ELSE c.professional_last_read_at
					END IS NULL
					OR m.created_at > CASE WHEN c.patient_id = $1
						THEN c.patient_last_read_at
						ELSE c.professional_last_read_at
					END
			  )
		) uc ON TRUE
		WHERE c.patient_id = $1 OR c.professional_id = $1
		ORDER BY COALESCE(lm.created_at, c.updated_at, c.created_at) DESC, c.id DESC
	`

	rows, err := r.db.Query(ctx, query, participantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := make([]models.ConversationSummary, 0)
	for rows.Next() {
		var summary models.ConversationSummary
		var messageID sql.NullInt64
		var messageSenderID sql.NullInt64
		var messageSenderName sql.NullString
		var messageContent sql.NullString
		var messageCreatedAt sql.NullTime

		if err := rows.Scan(
			&summary.ID,
			&summary.PatientID,
			&summary.ProfessionalID,
			&summary.PatientLastReadAt,
			&summary.ProfessionalLastReadAt,
			&summary.CreatedAt,
			&summary.UpdatedAt,
			&summary.DisplayName,
			&messageID,
			&messageSenderID,
			&messageSenderName,
			&messageContent,
			&messageCreatedAt,
			&summary.UnreadCount,
		); err != nil {
			return nil, err
		}

		if messageID.Valid {
			summary.LastMessage = &models.ChatMessage{
				ID:             messageID.Int64,
				ConversationID: summary.Conversation.ID,
				SenderID:       messageSenderID.Int64,
				SenderName:     messageSenderName.String,
				Content:        messageContent.String,
				CreatedAt:      messageCreatedAt.Time,
			}
		}
		summary.Unread = summary.UnreadCount > 0

		summaries = append(summaries, summary)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return summaries, nil
}

// MarkRead advances the participant's last-read marker. The marker only moves
// forward; stale writes after a newer one keep the newer timestamp.
func (r *ConversationRepository) MarkRead(
	ctx context.Context,
	conversationID int64,
	readerID int64,
	readAt time.Time,
) error {
	_, err := r.db.Exec(ctx, `
		UPDATE conversations
		SET patient_last_read_at = CASE WHEN patient_id = $2
				THEN GREATEST(COALESCE(patient_last_read_at, 'epoch'::timestamptz), $3)
				ELSE patient_last_read_at END,
			professional_last_read_at = CASE WHEN professional_id = $2
				THEN GREATEST(COALESCE(professional_last_read_at, 'epoch'::timestamptz), $3)
				ELSE professional_last_read_at END
		WHERE id = $1 AND (patient_id = $2 OR professional_id = $2)
	`, conversationID, readerID, readAt)
	return err
}

// TouchAndMarkSenderRead refreshes the conversation summary ordering and the
// sender's own read marker after a message insert; run in the same
// transaction as the insert.
func (r *ConversationRepository) TouchAndMarkSenderRead(
	ctx context.Context,
	conversationID int64,
	senderID int64,
) error {
	_, err := r.db.Exec(ctx, `
		UPDATE conversations
		SET updated_at = NOW(),
			patient_last_read_at = CASE WHEN patient_id = $2
				THEN NOW() ELSE patient_last_read_at END,
			professional_last_read_at = CASE WHEN professional_id = $2
				THEN NOW() ELSE professional_last_read_at END
		WHERE id = $1
	`, conversationID, senderID)
	return err
}
