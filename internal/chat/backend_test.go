package chat

import (
	"context"
	"sync"
	"time"
)

// fakeBackend is an in-memory Backend for engine and coordinator tests.
type fakeBackend struct {
	mu sync.Mutex

	conversations []Conversation
	messages      map[int64][]Message

	listErr   error
	msgErr    error
	sendErr   error
	markErr   error
	closeErr  error
	createErr error

	// msgDelay stalls Messages, for overlap and cancellation tests.
	msgDelay time.Duration

	listCalls   int
	msgCalls    int
	sendCalls   int
	markCalls   int
	closeCalls  int
	createCalls int

	sent   []SendRequest
	nextID int64
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		messages: make(map[int64][]Message),
		nextID:   1000,
	}
}

func (f *fakeBackend) ListConversations(ctx context.Context) ([]Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]Conversation, len(f.conversations))
	copy(out, f.conversations)
	return out, nil
}

func (f *fakeBackend) CreateConversation(ctx context.Context, typeID Type, to int64, subject string) (Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if f.createErr != nil {
		return Conversation{}, f.createErr
	}
	f.nextID++
	c := Conversation{ID: f.nextID, TypeID: typeID, To: to, Subject: subject, State: StateActive}
	f.conversations = append(f.conversations, c)
	return c, nil
}

func (f *fakeBackend) Messages(ctx context.Context, conversationID int64) ([]Message, error) {
	f.mu.Lock()
	delay := f.msgDelay
	f.msgCalls++
	err := f.msgErr
	stored := f.messages[conversationID]
	out := make([]Message, len(stored))
	copy(out, stored)
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (f *fakeBackend) History(ctx context.Context) ([]Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Message
	for _, msgs := range f.messages {
		out = append(out, msgs...)
	}
	return out, nil
}

func (f *fakeBackend) Send(ctx context.Context, req SendRequest) (Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sendCalls++
	if f.sendErr != nil {
		return Message{}, f.sendErr
	}
	f.sent = append(f.sent, req)
	f.nextID++
	m := Message{
		ID:             f.nextID,
		ConversationID: req.ConversationID,
		From:           req.From,
		To:             req.To,
		Body:           req.Body,
		ReadStatus:     ReadStatusUnread,
		CreatedTime:    Time{Time: time.Now()},
	}
	f.messages[req.ConversationID] = append(f.messages[req.ConversationID], m)
	return m, nil
}

func (f *fakeBackend) MarkRead(ctx context.Context, messageID, conversationID int64, typeID Type) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markCalls++
	return f.markErr
}

func (f *fakeBackend) CloseConversation(ctx context.Context, conversationID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closeCalls++
	return f.closeErr
}

func (f *fakeBackend) ResolveFileURL(ctx context.Context, path string) (string, error) {
	return "https://files.example.invalid/" + path, nil
}

func (f *fakeBackend) setMessages(conversationID int64, msgs []Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages[conversationID] = msgs
}

func (f *fakeBackend) calls() (list, msg int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls, f.msgCalls
}

func at(secs int) Time {
	return Time{Time: time.Date(2026, 8, 1, 10, 0, secs, 0, time.UTC)}
}

func testConversation(id int64, typeID Type) Conversation {
	return Conversation{
		ID:           id,
		TypeID:       typeID,
		Subject:      "Runway review",
		State:        StateActive,
		From:         1,
		To:           2,
		FromName:     "Asha",
		ToName:       "Bruno",
		ModifiedTime: at(0),
	}
}

func testMessage(id int64, conversationID int64, body string, created Time) Message {
	return Message{
		ID:             id,
		ConversationID: conversationID,
		From:           2,
		To:             1,
		Body:           body,
		ReadStatus:     ReadStatusRead,
		CreatedTime:    created,
	}
}

func testSession() Session {
	return Session{UserID: 1, IncUserID: 11, RoleID: RoleAdmin, DisplayName: "Asha"}
}
