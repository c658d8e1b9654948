package chat

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/itelinc/incuchat/internal/logging"
)

// SnapshotCache persists applied snapshots so a restart (or a backend
// outage) can still show the last known state. Implemented by cache.Store.
type SnapshotCache interface {
	SaveConversations(ctx context.Context, conversations []Conversation) error
	SaveMessages(ctx context.Context, conversationID int64, messages []Message) error
	Conversations(ctx context.Context) ([]Conversation, error)
	Messages(ctx context.Context, conversationID int64) ([]Message, error)
}

// Engine owns the client-side chat state: the conversation list store, the
// per-conversation message store, and the coordination logic the poller and
// the send path drive. All mutations flow through the engine so change
// notification stays in one place.
type Engine struct {
	backend Backend
	session Session
	cache   SnapshotCache
	logger  zerolog.Logger

	list *ListStore
	msgs *MessageStore

	reconcileDelay time.Duration

	mu       sync.Mutex
	selected int64

	updates chan struct{}
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithSnapshotCache attaches a persistent snapshot cache.
func WithSnapshotCache(cache SnapshotCache) EngineOption {
	return func(e *Engine) {
		e.cache = cache
	}
}

// WithReconcileDelay overrides the delay before the post-send reconciling
// refresh.
func WithReconcileDelay(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d > 0 {
			e.reconcileDelay = d
		}
	}
}

// NewEngine creates an engine for one user session.
func NewEngine(backend Backend, session Session, opts ...EngineOption) *Engine {
	e := &Engine{
		backend:        backend,
		session:        session,
		logger:         logging.Component("chat-engine"),
		list:           NewListStore(),
		msgs:           NewMessageStore(),
		reconcileDelay: time.Second,
		updates:        make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Session returns the session the engine was built for.
func (e *Engine) Session() Session {
	return e.session
}

// Updates returns a channel that receives a signal after every observable
// state change. The channel is never closed and signals coalesce.
func (e *Engine) Updates() <-chan struct{} {
	return e.updates
}

func (e *Engine) notify() {
	select {
	case e.updates <- struct{}{}:
	default:
	}
}

// Conversations returns the current conversation list, newest first.
func (e *Engine) Conversations() []Conversation {
	return e.list.All()
}

// Conversation looks up one conversation by ID.
func (e *Engine) Conversation(id int64) (Conversation, bool) {
	return e.list.Get(id)
}

// Messages returns the stored sequence for a conversation.
func (e *Engine) Messages(conversationID int64) []Message {
	return e.msgs.Messages(conversationID)
}

// MessageStore exposes the underlying message store for components that
// mirror acknowledgments into it.
func (e *Engine) MessageStore() *MessageStore {
	return e.msgs
}

// StoreVersions exposes the list and message store versions for render
// skipping.
func (e *Engine) StoreVersions() (list, msgs uint64) {
	return e.list.Version(), e.msgs.Version()
}

// LoadCached seeds the stores from the snapshot cache, if one is attached.
// Failures are logged and swallowed: cached data is a convenience, never a
// requirement.
func (e *Engine) LoadCached(ctx context.Context) {
	if e.cache == nil {
		return
	}
	conversations, err := e.cache.Conversations(ctx)
	if err != nil {
		e.logger.Debug().Err(err).Msg("no cached conversations")
		return
	}
	if len(conversations) > 0 {
		e.list.Replace(conversations)
		e.notify()
	}
}

// RefreshList fetches the full conversation snapshot and replaces the list
// store. On failure the previous collection is left untouched.
func (e *Engine) RefreshList(ctx context.Context) error {
	conversations, err := e.backend.ListConversations(ctx)
	if err != nil {
		e.logger.Warn().Err(err).Msg("conversation list refresh failed")
		return err
	}
	if ctx.Err() != nil {
		// Torn down while the fetch was in flight; drop the result.
		return ctx.Err()
	}

	e.list.Replace(conversations)
	e.persistConversations(ctx, conversations)
	e.notify()
	return nil
}

// Select makes a conversation the active one: full fetch, wholesale replace,
// known-ID set rebuilt from the snapshot.
func (e *Engine) Select(ctx context.Context, conversationID int64) error {
	if _, ok := e.list.Get(conversationID); !ok {
		return ErrUnknownConversation
	}

	messages, err := e.backend.Messages(ctx, conversationID)
	if err != nil {
		e.logger.Warn().Err(err).Int64("conversation_id", conversationID).Msg("message fetch failed on select")
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	e.mu.Lock()
	previous := e.selected
	e.selected = conversationID
	e.mu.Unlock()

	if previous != 0 && previous != conversationID {
		e.msgs.Drop(previous)
	}

	e.msgs.Reset(conversationID, messages)
	e.persistMessages(ctx, conversationID, messages)
	e.notify()
	return nil
}

// Deselect clears the active conversation and discards its polling state.
func (e *Engine) Deselect() {
	e.mu.Lock()
	previous := e.selected
	e.selected = 0
	e.mu.Unlock()

	if previous != 0 {
		e.msgs.Drop(previous)
	}
}

// Selected returns the active conversation ID, zero when none.
func (e *Engine) Selected() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selected
}

// RefreshSelected fetches the active conversation's snapshot and folds it
// into the message store. A tick with no novelty mutates nothing; a fetch
// failure retains previous state and relies on the next tick.
func (e *Engine) RefreshSelected(ctx context.Context) error {
	conversationID := e.Selected()
	if conversationID == 0 {
		return nil
	}
	return e.refreshMessages(ctx, conversationID)
}

func (e *Engine) refreshMessages(ctx context.Context, conversationID int64) error {
	messages, err := e.backend.Messages(ctx, conversationID)
	if err != nil {
		e.logger.Debug().Err(err).Int64("conversation_id", conversationID).Msg("message poll failed")
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	result := e.msgs.ApplySnapshot(conversationID, messages)
	if result.Stale {
		e.logger.Debug().Int64("conversation_id", conversationID).Msg("dropped stale message snapshot")
		return nil
	}
	if !result.Applied {
		return nil
	}

	if len(result.New) > 0 {
		latest := result.New[len(result.New)-1]
		e.list.PatchPreview(conversationID, latest.Body, latest.CreatedTime)
	}
	e.persistMessages(ctx, conversationID, messages)
	e.notify()
	return nil
}

// CloseConversation closes a conversation on the portal and patches local
// state on success.
func (e *Engine) CloseConversation(ctx context.Context, conversationID int64) error {
	if _, ok := e.list.Get(conversationID); !ok {
		return ErrUnknownConversation
	}
	if err := e.backend.CloseConversation(ctx, conversationID); err != nil {
		return err
	}
	e.list.PatchState(conversationID, StateClosed)
	e.notify()
	return nil
}

func (e *Engine) persistConversations(ctx context.Context, conversations []Conversation) {
	if e.cache == nil {
		return
	}
	if err := e.cache.SaveConversations(ctx, conversations); err != nil {
		e.logger.Debug().Err(err).Msg("conversation cache write failed")
	}
}

func (e *Engine) persistMessages(ctx context.Context, conversationID int64, messages []Message) {
	if e.cache == nil {
		return
	}
	if err := e.cache.SaveMessages(ctx, conversationID, messages); err != nil {
		e.logger.Debug().Err(err).Int64("conversation_id", conversationID).Msg("message cache write failed")
	}
}
