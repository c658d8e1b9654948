package chat

import (
	"sort"
	"sync"
)

// ListStore holds the conversation-list snapshot. Each refresh from the
// portal is authoritative and replaces the collection wholesale; sends and
// closes patch individual entries in place between refreshes.
type ListStore struct {
	mu            sync.RWMutex
	conversations []Conversation
	index         map[int64]int
	version       uint64
}

// NewListStore creates an empty conversation list store.
func NewListStore() *ListStore {
	return &ListStore{
		index: make(map[int64]int),
	}
}

// Replace installs a full snapshot, discarding the previous collection.
func (s *ListStore) Replace(snapshot []Conversation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.conversations = make([]Conversation, len(snapshot))
	copy(s.conversations, snapshot)
	s.rebuildIndexLocked()
	s.version++
}

// All returns a copy of the current collection, most recently modified first.
func (s *ListStore) All() []Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Conversation, len(s.conversations))
	copy(out, s.conversations)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ModifiedTime.After(out[j].ModifiedTime.Time)
	})
	return out
}

// Get looks up one conversation by ID.
func (s *ListStore) Get(id int64) (Conversation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[id]
	if !ok {
		return Conversation{}, false
	}
	return s.conversations[i], true
}

// Len returns the number of conversations held.
func (s *ListStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conversations)
}

// PatchPreview updates one conversation's last-message preview and modified
// time, typically right after a send or a detected delta, ahead of the next
// full refresh.
func (s *ListStore) PatchPreview(id int64, preview string, modified Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return false
	}
	s.conversations[i].LastMessage = preview
	s.conversations[i].ModifiedTime = modified
	s.version++
	return true
}

// PatchState updates one conversation's open/closed state in place.
func (s *ListStore) PatchState(id int64, state int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return false
	}
	s.conversations[i].State = state
	s.version++
	return true
}

// Version increments on every observable change; pollers and views use it to
// skip redundant re-renders.
func (s *ListStore) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

func (s *ListStore) rebuildIndexLocked() {
	s.index = make(map[int64]int, len(s.conversations))
	for i, c := range s.conversations {
		s.index[c.ID] = i
	}
}
