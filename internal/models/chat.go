package models

import "time"

type Conversation struct {
	ID                     int64      `json:"id"`
	PatientID              int64      `json:"patient_id"`
	ProfessionalID         int64      `json:"professional_id"`
	PatientLastReadAt      *time.Time `json:"patient_last_read_at"`
	ProfessionalLastReadAt *time.Time `json:"professional_last_read_at"`
	CreatedAt              time.Time  `json:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at"`
}

// ReplyRef is the reply reference captured at send time: enough to render the
// quoted parent without refetching it.
type ReplyRef struct {
	MessageID  int64  `json:"message_id"`
	Snippet    string `json:"snippet"`
	SenderName string `json:"sender_name"`
}

type ChatMessage struct {
	ID             int64     `json:"id"`
	ConversationID int64     `json:"conversation_id"`
	SenderID       int64     `json:"sender_id"`
	SenderName     string    `json:"sender_name"`
	Content        string    `json:"content"`
	ReplyTo        *ReplyRef `json:"reply_to,omitempty"`
	Read           bool      `json:"read"`
	CreatedAt      time.Time `json:"created_at"`
}

type ConversationSummary struct {
	Conversation
	DisplayName string       `json:"display_name"`
	LastMessage *ChatMessage `json:"last_message,omitempty"`
	Unread      bool         `json:"unread"`
	UnreadCount int          `json:"unread_count"`
}

// LastReadBy returns the conversation-level last-read marker for one member.
func (c *Conversation) LastReadBy(memberID int64) *time.Time {
	switch memberID {
	case c.PatientID:
		return c.PatientLastReadAt
	case c.ProfessionalID:
		return c.ProfessionalLastReadAt
	default:
		return nil
	}
}

// CounterpartID returns the other member of a two-party conversation.
func (c *Conversation) CounterpartID(memberID int64) int64 {
	if memberID == c.PatientID {
		return c.ProfessionalID
	}
	return c.PatientID
}
