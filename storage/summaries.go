package storage

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pascs/chatui/internal/chat"
)

// Summaries is a storage for conversation summaries
type Summaries struct {
	db *sqlx.DB
}

// NewSummaries creates a new Summaries storage
func NewSummaries(db *sqlx.DB) (*Summaries, error) {
	createSummariesTable := `
	CREATE TABLE IF NOT EXISTS summaries (
		conversation_id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)
	`
	if _, err := db.Exec(createSummariesTable); err != nil {
		return nil, fmt.Errorf("failed to create summaries table: %w", err)
	}

	return &Summaries{db: db}, nil
}

// Read returns all summaries, newest first
func (s *Summaries) Read() ([]chat.Summary, error) {
	var summaries []chat.Summary
	err := s.db.Select(&summaries, "SELECT conversation_id, title, created_at FROM summaries ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to get summaries: %w", err)
	}

	slog.Debug("read summaries",
		slog.Int("count", len(summaries)),
	)
	return summaries, nil
}

// Write upserts the given summary, keyed by conversation_id
func (s *Summaries) Write(summary chat.Summary) error {
	if summary.CreatedAt.IsZero() {
		summary.CreatedAt = time.Now()
	}
	insertQuery := "INSERT OR REPLACE INTO summaries (conversation_id, title, created_at) VALUES (?, ?, ?)"
	if _, err := s.db.Exec(insertQuery, summary.ConversationID, summary.Title, summary.CreatedAt); err != nil {
		return fmt.Errorf("failed to insert summary %+v: %w", summary, err)
	}

	slog.Debug("summary added to summaries",
		slog.String("conversation_id", summary.ConversationID),
		slog.String("title", summary.Title),
		slog.Time("created_at", summary.CreatedAt),
	)
	return nil
}

// Delete deletes the given summary by conversation_id from the storage
func (s *Summaries) Delete(conversationID string) error {
	if _, err := s.db.Exec("DELETE FROM summaries WHERE conversation_id = ?", conversationID); err != nil {
		return fmt.Errorf("failed to delete summary by conversation_id %s: %w", conversationID, err)
	}

	slog.Debug("summary deleted from summaries",
		slog.String("conversation_id", conversationID),
	)
	return nil
}

// Clear removes all summaries from the storage
func (s *Summaries) Clear() error {
	if _, err := s.db.Exec("DELETE FROM summaries"); err != nil {
		return fmt.Errorf("failed to clear summaries: %w", err)
	}

	slog.Debug("summaries cleared")
	return nil
}
