package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplySnapshotFirstApplication(t *testing.T) {
	store := NewMessageStore()

	snapshot := []Message{
		testMessage(1, 7, "hello", at(1)),
		testMessage(2, 7, "world", at(2)),
	}
	result := store.ApplySnapshot(7, snapshot)

	require.True(t, result.Applied)
	assert.Len(t, result.New, 2)
	assert.Equal(t, snapshot, store.Messages(7))
	assert.True(t, store.Known(7, 1))
	assert.True(t, store.Known(7, 2))
}

func TestApplySnapshotNoDeltaIsNoOp(t *testing.T) {
	store := NewMessageStore()
	snapshot := []Message{testMessage(1, 7, "hello", at(1))}
	store.ApplySnapshot(7, snapshot)
	before := store.Version()

	result := store.ApplySnapshot(7, snapshot)

	assert.False(t, result.Applied)
	assert.Empty(t, result.New)
	assert.Equal(t, before, store.Version())
}

func TestApplySnapshotDetectsNewIDs(t *testing.T) {
	store := NewMessageStore()
	store.ApplySnapshot(7, []Message{testMessage(1, 7, "hello", at(1))})

	grown := []Message{
		testMessage(1, 7, "hello", at(1)),
		testMessage(2, 7, "world", at(2)),
		testMessage(3, 7, "again", at(3)),
	}
	result := store.ApplySnapshot(7, grown)

	require.True(t, result.Applied)
	require.Len(t, result.New, 2)
	assert.Equal(t, int64(2), result.New[0].ID)
	assert.Equal(t, int64(3), result.New[1].ID)
	assert.Equal(t, grown, store.Messages(7))
}

func TestApplySnapshotReplacesWholesaleOnAnyNovelty(t *testing.T) {
	store := NewMessageStore()
	store.ApplySnapshot(7, []Message{
		testMessage(1, 7, "original", at(1)),
		testMessage(2, 7, "kept", at(2)),
	})

	// Message 1 vanished upstream but message 3 is new, so the fetched
	// sequence wins in full.
	shifted := []Message{
		testMessage(2, 7, "kept", at(2)),
		testMessage(3, 7, "new", at(3)),
	}
	result := store.ApplySnapshot(7, shifted)

	require.True(t, result.Applied)
	assert.Equal(t, shifted, store.Messages(7))
	assert.False(t, store.Known(7, 1))
}

func TestApplySnapshotDropsStale(t *testing.T) {
	store := NewMessageStore()
	current := []Message{
		testMessage(1, 7, "hello", at(1)),
		testMessage(2, 7, "world", at(5)),
	}
	store.ApplySnapshot(7, current)

	// A slow response from before message 2 existed arrives late.
	stale := store.ApplySnapshot(7, []Message{testMessage(1, 7, "hello", at(1))})

	assert.True(t, stale.Stale)
	assert.False(t, stale.Applied)
	assert.Equal(t, current, store.Messages(7))
}

func TestResetReplacesUnconditionally(t *testing.T) {
	store := NewMessageStore()
	store.ApplySnapshot(7, []Message{testMessage(2, 7, "newer", at(5))})

	older := []Message{testMessage(1, 7, "older", at(1))}
	store.Reset(7, older)

	assert.Equal(t, older, store.Messages(7))
	assert.False(t, store.Known(7, 2))
}

func TestAppendRegistersKnownID(t *testing.T) {
	store := NewMessageStore()
	store.ApplySnapshot(7, []Message{testMessage(1, 7, "hello", at(1))})

	sent := testMessage(2, 7, "mine", at(2))
	store.Append(7, sent)

	assert.True(t, store.Known(7, 2))

	// The next poll echoing the sent message back is not a delta.
	result := store.ApplySnapshot(7, []Message{
		testMessage(1, 7, "hello", at(1)),
		testMessage(2, 7, "mine", at(2)),
	})
	assert.False(t, result.Applied)
}

func TestMarkLocalRead(t *testing.T) {
	store := NewMessageStore()
	unread := testMessage(1, 7, "hello", at(1))
	unread.ReadStatus = ReadStatusUnread
	store.ApplySnapshot(7, []Message{unread})

	store.MarkLocalRead(7, 1)

	msgs := store.Messages(7)
	require.Len(t, msgs, 1)
	assert.False(t, msgs[0].Unread())
}

func TestDropDiscardsAllState(t *testing.T) {
	store := NewMessageStore()
	store.ApplySnapshot(7, []Message{testMessage(1, 7, "hello", at(5))})

	store.Drop(7)

	assert.Empty(t, store.Messages(7))
	assert.False(t, store.Known(7, 1))

	// After a drop even an older snapshot applies; nothing is remembered.
	result := store.ApplySnapshot(7, []Message{testMessage(1, 7, "hello", at(1))})
	assert.True(t, result.Applied)
}
