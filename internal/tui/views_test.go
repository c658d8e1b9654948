package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itelinc/incuchat/internal/chat"
)

func TestComposableGate(t *testing.T) {
	session := chat.Session{UserID: 1, RoleID: chat.RoleAdmin}
	incubatee := chat.Session{UserID: 2, RoleID: chat.RoleIncubateeAdmin}

	open := chat.Conversation{ID: 7, TypeID: chat.TypeIncubatorToIncubatee, State: chat.StateActive, From: 1, To: 2}
	assert.NoError(t, composable(open, session))

	closed := open
	closed.State = chat.StateClosed
	assert.ErrorIs(t, composable(closed, session), chat.ErrConversationClosed)

	broadcast := open
	broadcast.TypeID = chat.TypeBroadcastNoReply
	assert.NoError(t, composable(broadcast, session))
	assert.ErrorIs(t, composable(broadcast, incubatee), chat.ErrBroadcastNoReply)

	outsider := chat.Session{UserID: 99, RoleID: chat.RoleAdmin}
	assert.ErrorIs(t, composable(open, outsider), chat.ErrNotParticipant)
}

func TestReplyContextFallback(t *testing.T) {
	messages := []chat.Message{
		{ID: 1, Body: "original question"},
		{ID: 2, Body: "the reply"},
	}
	assert.Equal(t, "> original question", replyContext(messages, 1))
	assert.Equal(t, "> (no preview available)", replyContext(messages, 99))
}

func TestLipglossPlacePadsToSize(t *testing.T) {
	out := lipglossPlace(10, 3, "ab")
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 3)
	for _, line := range lines {
		assert.Len(t, line, 10)
	}
}

func TestComposerStateTransitions(t *testing.T) {
	c := newComposerState()
	assert.False(t, c.active)

	c.open()
	assert.True(t, c.active)
	assert.Equal(t, composerBody, c.mode)

	c.attachPath = "/tmp/deck.pdf"
	c.input.SetValue("draft text")
	c.clear()
	assert.False(t, c.active)
	assert.Empty(t, c.attachPath)
	assert.Empty(t, c.input.Value())
}

func TestHistoryStateSortsChronologically(t *testing.T) {
	stamp := func(secs int) chat.Time {
		return chat.Time{Time: time.Date(2026, 8, 1, 12, 0, secs, 0, time.UTC)}
	}
	var s historyState
	s.setMessages([]chat.Message{
		{ID: 3, CreatedTime: stamp(30)},
		{ID: 1, CreatedTime: stamp(10)},
		{ID: 5, CreatedTime: stamp(10)},
		{ID: 2, CreatedTime: stamp(20)},
	})

	var order []int64
	for _, m := range s.messages {
		order = append(order, m.ID)
	}
	assert.Equal(t, []int64{1, 5, 2, 3}, order)
}

func TestListStateCursorClamp(t *testing.T) {
	s := listState{
		conversations: []chat.Conversation{{ID: 1}, {ID: 2}},
		cursor:        5,
	}
	s.clampCursor()
	assert.Equal(t, 1, s.cursor)

	s.conversations = nil
	s.clampCursor()
	assert.Equal(t, 0, s.cursor)

	_, ok := s.current()
	assert.False(t, ok)
}
