package chat

import (
	"sync"
	"time"
)

// MessageStore holds per-conversation message sequences together with the
// known-ID set used to detect new messages between polls.
//
// Snapshots are applied whole: once any novelty is detected the fetched
// sequence replaces the stored one and the known-ID set is rebuilt from it.
// A snapshot whose newest timestamp is older than the last applied one is
// dropped, so a slow response arriving after a fresher one cannot regress
// the displayed state.
type MessageStore struct {
	mu       sync.RWMutex
	messages map[int64][]Message
	knownIDs map[int64]map[int64]struct{}
	// maxSeen tracks the newest created-time applied per conversation.
	maxSeen map[int64]time.Time
	version uint64
}

// NewMessageStore creates an empty message store.
func NewMessageStore() *MessageStore {
	return &MessageStore{
		messages: make(map[int64][]Message),
		knownIDs: make(map[int64]map[int64]struct{}),
		maxSeen:  make(map[int64]time.Time),
	}
}

// ApplyResult describes what a snapshot application changed.
type ApplyResult struct {
	// Applied is true when the store was mutated.
	Applied bool

	// New holds the messages whose IDs were not previously known, in
	// snapshot order. Empty when Applied is false.
	New []Message

	// Stale is true when the snapshot was dropped as older than the last
	// applied one.
	Stale bool
}

// ApplySnapshot folds a full fetched snapshot into the store.
//
// The first snapshot for a conversation always replaces. Subsequent
// snapshots replace only when they contain at least one unknown ID; an
// unchanged snapshot leaves the store untouched and reports Applied=false,
// so callers can skip redundant re-renders.
func (s *MessageStore) ApplySnapshot(conversationID int64, fetched []Message) ApplyResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if newest := newestCreated(fetched); !newest.IsZero() {
		if last, ok := s.maxSeen[conversationID]; ok && newest.Before(last) {
			return ApplyResult{Stale: true}
		}
	}

	known, tracked := s.knownIDs[conversationID]

	var fresh []Message
	if tracked {
		for _, m := range fetched {
			if _, ok := known[m.ID]; !ok {
				fresh = append(fresh, m)
			}
		}
		if len(fresh) == 0 {
			return ApplyResult{}
		}
	} else {
		fresh = append(fresh, fetched...)
	}

	s.replaceLocked(conversationID, fetched)
	return ApplyResult{Applied: true, New: fresh}
}

// Reset discards any held state for the conversation and installs the
// snapshot unconditionally, rebasing the staleness watermark. Used on
// explicit selection.
func (s *MessageStore) Reset(conversationID int64, fetched []Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.maxSeen, conversationID)
	s.replaceLocked(conversationID, fetched)
}

// Append adds one message optimistically after a successful send and
// registers its ID so the next poll does not report it as new.
func (s *MessageStore) Append(conversationID int64, msg Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages[conversationID] = append(s.messages[conversationID], msg)
	known := s.knownIDs[conversationID]
	if known == nil {
		known = make(map[int64]struct{})
		s.knownIDs[conversationID] = known
	}
	known[msg.ID] = struct{}{}
	if created := msg.CreatedTime.Time; created.After(s.maxSeen[conversationID]) {
		s.maxSeen[conversationID] = created
	}
	s.version++
}

// Messages returns a copy of the stored sequence for the conversation, in
// applied (server) order.
func (s *MessageStore) Messages(conversationID int64) []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.messages[conversationID]
	out := make([]Message, len(stored))
	copy(out, stored)
	return out
}

// Known reports whether a message ID has been observed for the conversation.
func (s *MessageStore) Known(conversationID, messageID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	known, ok := s.knownIDs[conversationID]
	if !ok {
		return false
	}
	_, present := known[messageID]
	return present
}

// MarkLocalRead flips the stored read status for one message, mirroring a
// successful mark-as-read acknowledgment.
func (s *MessageStore) MarkLocalRead(conversationID, messageID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := s.messages[conversationID]
	for i := range stored {
		if stored[i].ID == messageID {
			stored[i].ReadStatus = ReadStatusRead
			s.version++
			return
		}
	}
}

// Drop discards all state for a conversation. Used on deselection; the next
// selection starts from a fresh snapshot.
func (s *MessageStore) Drop(conversationID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.messages, conversationID)
	delete(s.knownIDs, conversationID)
	delete(s.maxSeen, conversationID)
}

// Version increments on every observable change.
func (s *MessageStore) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

func (s *MessageStore) replaceLocked(conversationID int64, fetched []Message) {
	stored := make([]Message, len(fetched))
	copy(stored, fetched)
	s.messages[conversationID] = stored

	known := make(map[int64]struct{}, len(fetched))
	for _, m := range fetched {
		known[m.ID] = struct{}{}
	}
	s.knownIDs[conversationID] = known

	if newest := newestCreated(fetched); newest.After(s.maxSeen[conversationID]) {
		s.maxSeen[conversationID] = newest
	}
	s.version++
}

func newestCreated(msgs []Message) time.Time {
	var newest time.Time
	for _, m := range msgs {
		if m.CreatedTime.After(newest) {
			newest = m.CreatedTime.Time
		}
	}
	return newest
}
