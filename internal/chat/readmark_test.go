package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unreadInbound(id int64) Message {
	m := testMessage(id, 7, "hello", at(1))
	m.ReadStatus = ReadStatusUnread
	return m
}

func TestObserveMarksExactlyOnce(t *testing.T) {
	backend := newFakeBackend()
	store := NewMessageStore()
	conversation := testConversation(7, TypeIncubatorToIncubatee)
	msg := unreadInbound(1)
	store.Reset(7, []Message{msg})

	tracker := NewReadTracker(backend, testSession(), store)

	// The same message surfaces on three consecutive renders.
	tracker.Observe(context.Background(), conversation, msg)
	tracker.Observe(context.Background(), conversation, msg)
	tracker.Observe(context.Background(), conversation, msg)
	tracker.Wait()

	assert.Equal(t, 1, backend.markCalls)

	msgs := store.Messages(7)
	require.Len(t, msgs, 1)
	assert.False(t, msgs[0].Unread())
}

func TestObserveIgnoresOutboundAndRead(t *testing.T) {
	backend := newFakeBackend()
	store := NewMessageStore()
	conversation := testConversation(7, TypeIncubatorToIncubatee)
	tracker := NewReadTracker(backend, testSession(), store)

	outbound := unreadInbound(1)
	outbound.To = 99
	tracker.Observe(context.Background(), conversation, outbound)

	alreadyRead := testMessage(2, 7, "old", at(1))
	tracker.Observe(context.Background(), conversation, alreadyRead)

	tracker.Wait()
	assert.Zero(t, backend.markCalls)
}

func TestObserveFailureDoesNotFlipLocalState(t *testing.T) {
	backend := newFakeBackend()
	backend.markErr = errors.New("portal down")
	store := NewMessageStore()
	conversation := testConversation(7, TypeIncubatorToIncubatee)
	msg := unreadInbound(1)
	store.Reset(7, []Message{msg})

	tracker := NewReadTracker(backend, testSession(), store)
	tracker.Observe(context.Background(), conversation, msg)
	tracker.Wait()

	msgs := store.Messages(7)
	require.Len(t, msgs, 1)
	assert.True(t, msgs[0].Unread())
}
