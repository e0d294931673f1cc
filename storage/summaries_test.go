package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pascs/chatui/internal/chat"
)

func newTestSummaries(t *testing.T) *Summaries {
	t.Helper()
	db, err := NewSqliteDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	summaries, err := NewSummaries(db)
	require.NoError(t, err)
	return summaries
}

func TestSummariesUpsertIsIdempotent(t *testing.T) {
	summaries := newTestSummaries(t)
	createdAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, summaries.Write(chat.Summary{ConversationID: "c1", Title: "first title", CreatedAt: createdAt}))
	require.NoError(t, summaries.Write(chat.Summary{ConversationID: "c1", Title: "second title", CreatedAt: createdAt}))

	stored, err := summaries.Read()
	require.NoError(t, err)
	require.Len(t, stored, 1)
	require.Equal(t, "c1", stored[0].ConversationID)
	require.Equal(t, "second title", stored[0].Title)
}

func TestSummariesReadNewestFirst(t *testing.T) {
	summaries := newTestSummaries(t)
	older := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	newer := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, summaries.Write(chat.Summary{ConversationID: "old", Title: "old chat", CreatedAt: older}))
	require.NoError(t, summaries.Write(chat.Summary{ConversationID: "new", Title: "new chat", CreatedAt: newer}))

	stored, err := summaries.Read()
	require.NoError(t, err)
	require.Len(t, stored, 2)
	require.Equal(t, "new", stored[0].ConversationID)
	require.Equal(t, "old", stored[1].ConversationID)
}

func TestSummariesDeleteAndClear(t *testing.T) {
	summaries := newTestSummaries(t)
	require.NoError(t, summaries.Write(chat.Summary{ConversationID: "c1", Title: "one"}))
	require.NoError(t, summaries.Write(chat.Summary{ConversationID: "c2", Title: "two"}))

	require.NoError(t, summaries.Delete("c1"))
	stored, err := summaries.Read()
	require.NoError(t, err)
	require.Len(t, stored, 1)
	require.Equal(t, "c2", stored[0].ConversationID)

	require.NoError(t, summaries.Clear())
	stored, err = summaries.Read()
	require.NoError(t, err)
	require.Empty(t, stored)
}
