package client

import (
	"encoding/json"
	"time"

	"github.com/pascs/chatui/internal/chat"
)

// envelope is the response wrapper every PASCS chatbot endpoint uses. A
// response with IsSuccess false or missing Data is a failure and Message
// carries the server-supplied reason.
type envelope struct {
	IsSuccess bool            `json:"isSuccess"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
}

type sendMessageRequest struct {
	ConversationID string `json:"conversationId,omitempty"`
	Message        string `json:"message"`
	UserID         string `json:"userId"`
	UserType       string `json:"userType"`
}

// SendResult is the payload of a successful send-message call.
type SendResult struct {
	ConversationID   string       `json:"conversationId"`
	AssistantMessage chat.Message `json:"assistantMessage"`
}

// Conversation is the full remote conversation detail.
type Conversation struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	CreatedAt time.Time      `json:"createdAt"`
	Messages  []chat.Message `json:"messages"`
}
