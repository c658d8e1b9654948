package chat

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/itelinc/incuchat/internal/logging"
)

// ReadTracker acknowledges inbound messages exactly once. Observing the same
// message again, including while the first acknowledgment is still in
// flight, is a no-op.
type ReadTracker struct {
	backend Backend
	session Session
	store   *MessageStore
	logger  zerolog.Logger

	mu     sync.Mutex
	marked map[int64]struct{}
	wg     sync.WaitGroup
}

func NewReadTracker(backend Backend, session Session, store *MessageStore) *ReadTracker {
	return &ReadTracker{
		backend: backend,
		session: session,
		store:   store,
		logger:  logging.Component("read-tracker"),
		marked:  make(map[int64]struct{}),
	}
}

// Observe is called whenever a message becomes visible. Messages addressed to
// someone else, or already read, are ignored. The acknowledgment runs in the
// background so rendering never blocks on the portal.
func (t *ReadTracker) Observe(ctx context.Context, conversation Conversation, msg Message) {
	if msg.To != t.session.UserID || !msg.Unread() {
		return
	}

	t.mu.Lock()
	if _, done := t.marked[msg.ID]; done {
		t.mu.Unlock()
		return
	}
	t.marked[msg.ID] = struct{}{}
	t.mu.Unlock()

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		if err := t.backend.MarkRead(ctx, msg.ID, conversation.ID, conversation.TypeID); err != nil {
			t.logger.Warn().Err(err).
				Int64("conversation_id", conversation.ID).
				Int64("message_id", msg.ID).
				Msg("mark read failed")
			return
		}
		t.store.MarkLocalRead(conversation.ID, msg.ID)
	}()
}

// Wait blocks until all in-flight acknowledgments have finished.
func (t *ReadTracker) Wait() {
	t.wg.Wait()
}
