package chat

import "time"

// Greeting is seeded as the first assistant message of every fresh
// transcript, so a session never renders empty.
const Greeting = "Xin chào! Tôi có thể giúp gì cho bạn về thủ tục hành chính công?"

// NoResponseFallback replaces the placeholder when the backend answers
// successfully but carries no assistant content.
const NoResponseFallback = "no response"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single transcript entry. ID and CreatedAt are populated only
// when the message was hydrated from the backend; locally appended messages
// carry just a role and content.
type Message struct {
	ID        string    `json:"id,omitempty"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// NewUserMessage creates a user Message with the given content.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// NewAssistantMessage creates an assistant Message. Empty content is the
// in-flight placeholder shape, mutated exactly once when the reply lands.
func NewAssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}
