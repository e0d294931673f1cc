package submit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pascs/chatui/internal/chat"
	"github.com/pascs/chatui/internal/client"
	"github.com/pascs/chatui/internal/history"
)

// UserTypeCitizen is the fixed user-type tag sent with every message.
const UserTypeCitizen = "citizen"

const metadataFetchTimeout = time.Second * 10

// Gateway is the slice of the backend client the coordinator needs.
type Gateway interface {
	SendMessage(ctx context.Context, conversationID, message, userID, userType string) (*client.SendResult, error)
	GetConversation(ctx context.Context, conversationID string) (*client.Conversation, error)
}

// Transcript is the slice of the session store the coordinator mutates.
// AddMessage returns the index of the appended message, so the coordinator
// addresses the placeholder it created directly instead of assuming it is
// still the last entry.
type Transcript interface {
	AddMessage(m chat.Message) int
	UpdateMessageAt(index int, content string)
	CurrentConversationID() string
	AdoptConversationID(conversationID string)
}

// Coordinator drives one user message end to end: optimistic append, gateway
// dispatch, and reconciliation of the resulting conversation id with the
// history index. At most one submission is in flight at a time; concurrent
// calls are dropped, not queued.
type Coordinator struct {
	transcript Transcript
	index      *history.Index
	gateway    Gateway
	onError    func(error)
	inFlight   atomic.Bool
	metadataWG sync.WaitGroup
}

// NewCoordinator creates a Coordinator. onError is invoked for every
// non-cancellation submission failure and may be nil.
func NewCoordinator(transcript Transcript, index *history.Index, gateway Gateway, onError func(error)) *Coordinator {
	return &Coordinator{
		transcript: transcript,
		index:      index,
		gateway:    gateway,
		onError:    onError,
	}
}

// Submit sends prompt as the given user. It returns (nil, nil) without side
// effects when another submission is already in flight. Cancelling ctx
// aborts the gateway call; cancellation is an expected outcome and is never
// reported through onError or written into the transcript.
func (c *Coordinator) Submit(ctx context.Context, prompt, userID string) (*client.SendResult, error) {
	if !c.inFlight.CompareAndSwap(false, true) {
		slog.Debug("submission already in flight, dropping prompt")
		return nil, nil
	}
	defer c.inFlight.Store(false)

	c.transcript.AddMessage(chat.NewUserMessage(prompt))
	placeholder := c.transcript.AddMessage(chat.NewAssistantMessage(""))

	conversationID := c.transcript.CurrentConversationID()
	result, err := c.gateway.SendMessage(ctx, conversationID, strings.TrimSpace(prompt), userID, UserTypeCitizen)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			slog.Info("message submission cancelled")
			return nil, err
		}
		slog.Error("Failed to send message", "error", err)
		c.transcript.UpdateMessageAt(placeholder, errorAnnotation(err))
		if c.onError != nil {
			c.onError(err)
		}
		return nil, err
	}

	// Adopt a newly assigned conversation id, or a reassigned one.
	if result.ConversationID != "" && result.ConversationID != conversationID {
		c.transcript.AdoptConversationID(result.ConversationID)
		c.saveSummaryAsync(result.ConversationID, prompt)
	}

	content := result.AssistantMessage.Content
	if content == "" {
		content = chat.NoResponseFallback
	}
	c.transcript.UpdateMessageAt(placeholder, content)
	return result, nil
}

// saveSummaryAsync fetches the conversation metadata in the background and
// upserts a summary for the sidebar. The fetch runs on its own context so it
// survives cancellation of the submit call and never delays the visible
// reply. If the fetch fails, a title derived from the prompt is stored
// instead and kept as-is.
func (c *Coordinator) saveSummaryAsync(conversationID, prompt string) {
	c.metadataWG.Add(1)
	go func() {
		defer c.metadataWG.Done()

		ctx, cancel := context.WithTimeout(context.Background(), metadataFetchTimeout)
		defer cancel()

		summary := chat.Summary{ConversationID: conversationID, CreatedAt: time.Now()}
		conversation, err := c.gateway.GetConversation(ctx, conversationID)
		if err != nil {
			slog.Error("Failed to fetch conversation metadata", "conversation_id", conversationID, "error", err)
			summary.Title = history.FallbackTitle(prompt)
		} else {
			summary.Title = conversation.Title
			if summary.Title == "" {
				summary.Title = history.FallbackTitle(prompt)
			}
			if !conversation.CreatedAt.IsZero() {
				summary.CreatedAt = conversation.CreatedAt
			}
		}
		c.index.SaveSummary(summary)
	}()
}

// Wait blocks until any background metadata saves have finished.
func (c *Coordinator) Wait() {
	c.metadataWG.Wait()
}

func errorAnnotation(err error) string {
	return fmt.Sprintf("Xin lỗi, đã xảy ra lỗi: %s", err)
}
