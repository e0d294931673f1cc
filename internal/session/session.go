package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pascs/chatui/internal/chat"
	"github.com/pascs/chatui/internal/client"
	"github.com/pascs/chatui/internal/history"
)

// BootstrapSessionID is the id of the session created at startup, before any
// conversation exists on the backend.
const BootstrapSessionID = "1"

// ConversationGateway is the slice of the backend client the store needs to
// hydrate a remote conversation.
type ConversationGateway interface {
	GetConversation(ctx context.Context, conversationID string) (*client.Conversation, error)
}

// Session is a local transcript. ID is local-only and stable for the life of
// the session; RemoteID is set once the backend has assigned a conversation
// to it. The two are kept separate so adopting a conversation id never churns
// the identity consumers key on.
type Session struct {
	ID        string
	Title     string
	RemoteID  string
	Messages  []chat.Message
	CreatedAt time.Time
	UpdatedAt time.Time
}

func newSession(id, title string) *Session {
	now := time.Now()
	return &Session{
		ID:        id,
		Title:     title,
		Messages:  []chat.Message{chat.NewAssistantMessage(chat.Greeting)},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Store owns the session list and the currently selected session. All state
// transitions are synchronous under one mutex; the only operations that
// yield are the gateway calls, which run outside it.
type Store struct {
	mu        sync.Mutex
	gateway   ConversationGateway
	index     *history.Index
	sessions  []*Session
	currentID string
	hydrated  sync.Once
}

// NewStore creates a Store seeded with the bootstrap session.
func NewStore(gateway ConversationGateway, index *history.Index) *Store {
	s := &Store{gateway: gateway, index: index}
	bootstrap := newSession(BootstrapSessionID, history.NewChatTitle(time.Now()))
	s.sessions = []*Session{bootstrap}
	s.currentID = bootstrap.ID
	return s
}

// CreateSession starts a fresh local session, makes it current, and forgets
// the remembered active conversation.
func (s *Store) CreateSession() *Session {
	s.mu.Lock()
	sess := newSession(uuid.NewString(), history.NewChatTitle(time.Now()))
	s.sessions = append(s.sessions, sess)
	s.currentID = sess.ID
	s.mu.Unlock()

	s.index.ClearActiveConversationID()
	return sess
}

// SwitchSession makes the session with the given local id current.
func (s *Store) SwitchSession(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sess := range s.sessions {
		if sess.ID == id {
			s.currentID = id
			return nil
		}
	}
	return fmt.Errorf("session %s not found", id)
}

// DeleteSession removes the session with the given local id. The store never
// ends up empty: if the current session was removed, the most recently
// created remaining session becomes current, and if none remain a fresh
// bootstrap session is created.
func (s *Store) DeleteSession(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.sessions[:0]
	for _, sess := range s.sessions {
		if sess.ID != id {
			kept = append(kept, sess)
		}
	}
	s.sessions = kept

	if len(s.sessions) == 0 {
		bootstrap := newSession(BootstrapSessionID, history.NewChatTitle(time.Now()))
		s.sessions = []*Session{bootstrap}
		s.currentID = bootstrap.ID
		return
	}

	if s.currentID == id {
		latest := s.sessions[0]
		for _, sess := range s.sessions[1:] {
			if sess.CreatedAt.After(latest.CreatedAt) {
				latest = sess
			}
		}
		s.currentID = latest.ID
	}
}

// Sessions returns the session list in insertion order.
func (s *Store) Sessions() []*Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Session, len(s.sessions))
	copy(out, s.sessions)
	return out
}

// Current returns the currently selected session.
func (s *Store) Current() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current()
}

func (s *Store) current() *Session {
	for _, sess := range s.sessions {
		if sess.ID == s.currentID {
			return sess
		}
	}
	return s.sessions[0]
}

// CurrentMessages returns a copy of the current session's transcript.
func (s *Store) CurrentMessages() []chat.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	msgs := s.current().Messages
	out := make([]chat.Message, len(msgs))
	copy(out, msgs)
	return out
}

// AddMessage appends a message to the current session's transcript and
// returns its index, so callers can address it later without relying on it
// staying last.
func (s *Store) AddMessage(m chat.Message) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.current()
	sess.Messages = append(sess.Messages, m)
	sess.UpdatedAt = time.Now()
	return len(sess.Messages) - 1
}

// UpdateLastMessage replaces the content of the most recent message in the
// current session.
func (s *Store) UpdateLastMessage(content string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.current()
	if len(sess.Messages) == 0 {
		return
	}
	sess.Messages[len(sess.Messages)-1].Content = content
	sess.UpdatedAt = time.Now()
}

// UpdateMessageAt replaces the content of the message at index in the
// current session. Out-of-range indexes are ignored.
func (s *Store) UpdateMessageAt(index int, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.current()
	if index < 0 || index >= len(sess.Messages) {
		return
	}
	sess.Messages[index].Content = content
	sess.UpdatedAt = time.Now()
}

// CurrentConversationID returns the remote conversation id backing the
// current session, or an empty string if it has none yet.
func (s *Store) CurrentConversationID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current().RemoteID
}

// AdoptConversationID binds the current session to the given remote
// conversation id and remembers it as active.
func (s *Store) AdoptConversationID(conversationID string) {
	s.mu.Lock()
	sess := s.current()
	sess.RemoteID = conversationID
	sess.UpdatedAt = time.Now()
	s.mu.Unlock()

	s.index.SaveActiveConversationID(conversationID)
}

// LoadMessagesFromConversation fetches the full remote conversation and
// materializes it as the current session. An existing session already bound
// to the conversation is replaced in place; otherwise a new session is
// prepended. A conversation with no messages is seeded with the greeting so
// the transcript is never empty. Errors propagate to the caller, who owns
// user notification.
func (s *Store) LoadMessagesFromConversation(ctx context.Context, conversationID string) error {
	conversation, err := s.gateway.GetConversation(ctx, conversationID)
	if err != nil {
		return fmt.Errorf("failed to load conversation %s: %w", conversationID, err)
	}

	messages := conversation.Messages
	if len(messages) == 0 {
		messages = []chat.Message{chat.NewAssistantMessage(chat.Greeting)}
	}

	title := conversation.Title
	if title == "" {
		title = history.NewChatTitle(conversation.CreatedAt)
	}

	s.mu.Lock()
	var target *Session
	for _, sess := range s.sessions {
		if sess.RemoteID == conversationID {
			target = sess
			break
		}
	}
	if target == nil {
		now := time.Now()
		target = &Session{
			ID:        uuid.NewString(),
			RemoteID:  conversationID,
			CreatedAt: conversation.CreatedAt,
			UpdatedAt: now,
		}
		s.sessions = append([]*Session{target}, s.sessions...)
	}
	target.Title = title
	target.Messages = messages
	target.UpdatedAt = time.Now()
	s.currentID = target.ID
	s.mu.Unlock()

	s.index.SaveActiveConversationID(conversationID)
	return nil
}

// HydrateFromSavedPointer resumes the conversation remembered from a
// previous run, at most once per store. Failures are logged and leave the
// bootstrap session current.
func (s *Store) HydrateFromSavedPointer(ctx context.Context) {
	s.hydrated.Do(func() {
		conversationID := s.index.ActiveConversationID()
		if conversationID == "" {
			return
		}
		if err := s.LoadMessagesFromConversation(ctx, conversationID); err != nil {
			slog.Error("Failed to hydrate saved conversation", "conversation_id", conversationID, "error", err)
		}
	})
}
