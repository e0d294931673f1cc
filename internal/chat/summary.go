package chat

import "time"

// Summary is the persisted sidebar entry for one remote conversation.
type Summary struct {
	ConversationID string    `db:"conversation_id" json:"conversationId"`
	Title          string    `db:"title" json:"title"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
}
