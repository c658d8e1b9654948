package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itelinc/incuchat/internal/chat"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "snapshots.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestConversationSnapshotRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	empty, err := store.Conversations(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	snapshot := []chat.Conversation{{
		ID:           7,
		TypeID:       chat.TypeIncubatorToIncubatee,
		Subject:      "Runway review",
		State:        chat.StateActive,
		From:         1,
		To:           2,
		ModifiedTime: chat.Time{Time: time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)},
	}}
	require.NoError(t, store.SaveConversations(ctx, snapshot))

	got, err := store.Conversations(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(7), got[0].ID)
	assert.Equal(t, "Runway review", got[0].Subject)
}

func TestSaveConversationsOverwrites(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveConversations(ctx, []chat.Conversation{{ID: 1}, {ID: 2}}))
	require.NoError(t, store.SaveConversations(ctx, []chat.Conversation{{ID: 2}}))

	got, err := store.Conversations(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(2), got[0].ID)
}

func TestMessageSnapshotsKeyedByConversation(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveMessages(ctx, 7, []chat.Message{{ID: 1, ConversationID: 7, Body: "hello"}}))
	require.NoError(t, store.SaveMessages(ctx, 8, []chat.Message{{ID: 2, ConversationID: 8, Body: "other"}}))

	got, err := store.Messages(ctx, 7)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "hello", got[0].Body)

	none, err := store.Messages(ctx, 99)
	require.NoError(t, err)
	assert.Empty(t, none)

	all, err := store.AllMessages(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestStoreSatisfiesSnapshotCache(t *testing.T) {
	var _ chat.SnapshotCache = openTestStore(t)
}
