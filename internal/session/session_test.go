package session

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pascs/chatui/internal/chat"
	"github.com/pascs/chatui/internal/client"
	"github.com/pascs/chatui/internal/history"
	"github.com/pascs/chatui/storage"
)

type fakeGateway struct {
	conversation *client.Conversation
	err          error
	calls        int
}

func (f *fakeGateway) GetConversation(ctx context.Context, conversationID string) (*client.Conversation, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.conversation, nil
}

func newTestStore(t *testing.T, gateway ConversationGateway) (*Store, *history.Index) {
	t.Helper()
	db, err := storage.NewSqliteDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	index := history.NewIndex(db)
	return NewStore(gateway, index), index
}

func TestNewStoreSeedsBootstrapSession(t *testing.T) {
	store, _ := newTestStore(t, &fakeGateway{})

	current := store.Current()
	require.Equal(t, BootstrapSessionID, current.ID)
	require.Empty(t, current.RemoteID)

	messages := store.CurrentMessages()
	require.Len(t, messages, 1)
	assert.Equal(t, chat.RoleAssistant, messages[0].Role)
	assert.Equal(t, chat.Greeting, messages[0].Content)
}

func TestCreateSessionClearsActivePointer(t *testing.T) {
	store, index := newTestStore(t, &fakeGateway{})
	index.SaveActiveConversationID("c1")

	sess := store.CreateSession()
	require.Equal(t, sess.ID, store.Current().ID)
	assert.Empty(t, index.ActiveConversationID())

	messages := store.CurrentMessages()
	require.Len(t, messages, 1)
	assert.Equal(t, chat.Greeting, messages[0].Content)
}

func TestSwitchSession(t *testing.T) {
	store, _ := newTestStore(t, &fakeGateway{})
	sess := store.CreateSession()

	require.NoError(t, store.SwitchSession(BootstrapSessionID))
	assert.Equal(t, BootstrapSessionID, store.Current().ID)

	require.NoError(t, store.SwitchSession(sess.ID))
	assert.Equal(t, sess.ID, store.Current().ID)

	assert.Error(t, store.SwitchSession("missing"))
}

func TestDeleteSessionFallsBackToNewest(t *testing.T) {
	store, _ := newTestStore(t, &fakeGateway{})
	second := store.CreateSession()
	third := store.CreateSession()

	store.DeleteSession(third.ID)
	assert.Equal(t, second.ID, store.Current().ID, "most recently created survivor becomes current")

	// Deleting a non-current session leaves the selection alone.
	store.DeleteSession(BootstrapSessionID)
	assert.Equal(t, second.ID, store.Current().ID)
}

func TestDeleteLastSessionRebootstraps(t *testing.T) {
	store, _ := newTestStore(t, &fakeGateway{})

	store.DeleteSession(BootstrapSessionID)

	sessions := store.Sessions()
	require.Len(t, sessions, 1, "store must never be left empty")
	assert.Equal(t, BootstrapSessionID, sessions[0].ID)

	messages := store.CurrentMessages()
	require.Len(t, messages, 1)
	assert.Equal(t, chat.Greeting, messages[0].Content)
}

func TestAddAndUpdateMessages(t *testing.T) {
	store, _ := newTestStore(t, &fakeGateway{})

	userIdx := store.AddMessage(chat.NewUserMessage("hello"))
	placeholderIdx := store.AddMessage(chat.NewAssistantMessage(""))
	require.Equal(t, userIdx+1, placeholderIdx)

	store.UpdateMessageAt(placeholderIdx, "hi there")
	messages := store.CurrentMessages()
	assert.Equal(t, "hello", messages[userIdx].Content)
	assert.Equal(t, "hi there", messages[placeholderIdx].Content)

	store.UpdateLastMessage("revised")
	messages = store.CurrentMessages()
	assert.Equal(t, "revised", messages[len(messages)-1].Content)

	// Out-of-range updates are ignored.
	store.UpdateMessageAt(99, "nope")
	assert.Equal(t, messages, store.CurrentMessages())
}

func TestAdoptConversationIDPersistsPointer(t *testing.T) {
	store, index := newTestStore(t, &fakeGateway{})

	store.AdoptConversationID("c1")
	assert.Equal(t, "c1", store.CurrentConversationID())
	assert.Equal(t, "c1", index.ActiveConversationID())
}

func TestLoadMessagesFromConversation(t *testing.T) {
	gateway := &fakeGateway{conversation: &client.Conversation{
		ID:        "c1",
		Title:     "Chat 01/03/2026 10:00",
		CreatedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Messages: []chat.Message{
			{ID: "m1", Role: chat.RoleUser, Content: "hello"},
			{ID: "m2", Role: chat.RoleAssistant, Content: "hi there"},
		},
	}}
	store, index := newTestStore(t, gateway)

	require.NoError(t, store.LoadMessagesFromConversation(context.Background(), "c1"))

	current := store.Current()
	assert.Equal(t, "c1", current.RemoteID)
	assert.NotEqual(t, "c1", current.ID, "local id stays local")
	assert.Equal(t, "Chat 01/03/2026 10:00", current.Title)
	assert.Equal(t, "c1", index.ActiveConversationID())

	messages := store.CurrentMessages()
	require.Len(t, messages, 2)
	assert.Equal(t, "hello", messages[0].Content)

	// Loading again replaces the existing session instead of duplicating it.
	require.NoError(t, store.LoadMessagesFromConversation(context.Background(), "c1"))
	assert.Len(t, store.Sessions(), 2)
}

func TestLoadEmptyConversationSeedsGreeting(t *testing.T) {
	gateway := &fakeGateway{conversation: &client.Conversation{ID: "c1", Title: "empty"}}
	store, _ := newTestStore(t, gateway)

	require.NoError(t, store.LoadMessagesFromConversation(context.Background(), "c1"))

	messages := store.CurrentMessages()
	require.Len(t, messages, 1)
	assert.Equal(t, chat.RoleAssistant, messages[0].Role)
	assert.Equal(t, chat.Greeting, messages[0].Content)
}

func TestLoadMessagesPropagatesGatewayError(t *testing.T) {
	gateway := &fakeGateway{err: errors.New("boom")}
	store, _ := newTestStore(t, gateway)

	err := store.LoadMessagesFromConversation(context.Background(), "c1")
	require.Error(t, err)
	assert.ErrorContains(t, err, "boom")
	assert.Equal(t, BootstrapSessionID, store.Current().ID, "failed load leaves the current session alone")
	assert.Len(t, store.Sessions(), 1)
}

func TestHydrateFromSavedPointerRunsOnce(t *testing.T) {
	gateway := &fakeGateway{conversation: &client.Conversation{
		ID:       "c1",
		Title:    "restored",
		Messages: []chat.Message{{Role: chat.RoleUser, Content: "hello"}},
	}}
	store, index := newTestStore(t, gateway)
	index.SaveActiveConversationID("c1")

	store.HydrateFromSavedPointer(context.Background())
	require.Equal(t, "c1", store.Current().RemoteID)

	store.HydrateFromSavedPointer(context.Background())
	assert.Equal(t, 1, gateway.calls, "hydration happens at most once per store")
}

func TestHydrateFailureIsNotFatal(t *testing.T) {
	gateway := &fakeGateway{err: errors.New("backend down")}
	store, index := newTestStore(t, gateway)
	index.SaveActiveConversationID("c1")

	store.HydrateFromSavedPointer(context.Background())
	assert.Equal(t, BootstrapSessionID, store.Current().ID)
	assert.Equal(t, 1, gateway.calls)
}
