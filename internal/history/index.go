package history

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pascs/chatui/internal/chat"
	"github.com/pascs/chatui/storage"
)

const activeConversationKey = "active_conversation_id"

// Index is the durable record of which conversations the user has had and
// which one they were last looking at. Persistence is an optimization, not a
// correctness requirement: every storage failure is logged and swallowed, so
// a missing or broken database degrades to an empty history, never a crash.
//
// Listeners registered via Subscribe are notified whenever a summary is
// saved, so a rendered history list can refresh without polling. Listeners
// are same-process only; concurrent writers from other processes are
// last-write-wins.
type Index struct {
	mu          sync.Mutex
	pointers    *storage.Pointers
	summaries   *storage.Summaries
	subscribers map[int]func(chat.Summary)
	nextSubID   int
}

// NewIndex creates an Index backed by db. A nil db is allowed and yields a
// fully degraded index: no history, no active pointer, notifications only.
func NewIndex(db *sqlx.DB) *Index {
	idx := &Index{subscribers: make(map[int]func(chat.Summary))}
	if db == nil {
		slog.Info("conversation index running without persistence")
		return idx
	}

	pointers, err := storage.NewPointers(db)
	if err != nil {
		slog.Error("Failed to init pointers storage", "error", err)
	} else {
		idx.pointers = pointers
	}

	summaries, err := storage.NewSummaries(db)
	if err != nil {
		slog.Error("Failed to init summaries storage", "error", err)
	} else {
		idx.summaries = summaries
	}
	return idx
}

// ActiveConversationID returns the conversation the user was last looking
// at, or an empty string if none is remembered.
func (idx *Index) ActiveConversationID() string {
	if idx.pointers == nil {
		return ""
	}
	id, err := idx.pointers.Read(activeConversationKey)
	if err != nil {
		slog.Error("Failed to read active conversation pointer", "error", err)
		return ""
	}
	return id
}

// SaveActiveConversationID remembers id as the active conversation.
func (idx *Index) SaveActiveConversationID(id string) {
	if idx.pointers == nil {
		return
	}
	if err := idx.pointers.Write(activeConversationKey, id); err != nil {
		slog.Error("Failed to save active conversation pointer", "error", err)
	}
}

// ClearActiveConversationID forgets the remembered active conversation.
func (idx *Index) ClearActiveConversationID() {
	if idx.pointers == nil {
		return
	}
	if err := idx.pointers.Delete(activeConversationKey); err != nil {
		slog.Error("Failed to clear active conversation pointer", "error", err)
	}
}

// Summaries returns all stored conversation summaries, newest first. An
// unavailable backend yields an empty list.
func (idx *Index) Summaries() []chat.Summary {
	if idx.summaries == nil {
		return nil
	}
	summaries, err := idx.summaries.Read()
	if err != nil {
		slog.Error("Failed to read conversation summaries", "error", err)
		return nil
	}
	return summaries
}

// SaveSummary upserts summary by conversation id, then notifies every
// subscriber. Notification happens even when persistence is unavailable, so
// in-process listeners still see the saved payload.
func (idx *Index) SaveSummary(summary chat.Summary) {
	if summary.CreatedAt.IsZero() {
		summary.CreatedAt = time.Now()
	}
	if idx.summaries != nil {
		if err := idx.summaries.Write(summary); err != nil {
			slog.Error("Failed to save conversation summary", "error", err)
		}
	}
	idx.notify(summary)
}

// RemoveSummary deletes the summary for the given conversation id.
func (idx *Index) RemoveSummary(conversationID string) {
	if idx.summaries == nil {
		return
	}
	if err := idx.summaries.Delete(conversationID); err != nil {
		slog.Error("Failed to remove conversation summary", "error", err)
	}
}

// Clear removes every stored summary.
func (idx *Index) Clear() {
	if idx.summaries == nil {
		return
	}
	if err := idx.summaries.Clear(); err != nil {
		slog.Error("Failed to clear conversation summaries", "error", err)
	}
}

// Subscribe registers a listener for saved summaries and returns a function
// that removes it.
func (idx *Index) Subscribe(listener func(chat.Summary)) func() {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	id := idx.nextSubID
	idx.nextSubID++
	idx.subscribers[id] = listener
	return func() {
		idx.mu.Lock()
		defer idx.mu.Unlock()
		delete(idx.subscribers, id)
	}
}

func (idx *Index) notify(summary chat.Summary) {
	idx.mu.Lock()
	listeners := make([]func(chat.Summary), 0, len(idx.subscribers))
	for _, l := range idx.subscribers {
		listeners = append(listeners, l)
	}
	idx.mu.Unlock()

	for _, l := range listeners {
		l(summary)
	}
}
