package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestPointers(t *testing.T) *Pointers {
	t.Helper()
	db, err := NewSqliteDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	pointers, err := NewPointers(db)
	require.NoError(t, err)
	return pointers
}

func TestPointersRoundTrip(t *testing.T) {
	pointers := newTestPointers(t)

	value, err := pointers.Read("active_conversation_id")
	require.NoError(t, err)
	require.Empty(t, value, "unset pointer reads as empty string")

	require.NoError(t, pointers.Write("active_conversation_id", "c1"))
	value, err = pointers.Read("active_conversation_id")
	require.NoError(t, err)
	require.Equal(t, "c1", value)

	require.NoError(t, pointers.Write("active_conversation_id", "c2"))
	value, err = pointers.Read("active_conversation_id")
	require.NoError(t, err)
	require.Equal(t, "c2", value, "write replaces the previous value")

	require.NoError(t, pointers.Delete("active_conversation_id"))
	value, err = pointers.Read("active_conversation_id")
	require.NoError(t, err)
	require.Empty(t, value)
}
