package session

import (
	"context"
	"sync"
)

// MemoryStore keeps sessions in a process-local map. State is lost on
// restart; use the sqlite backend when that matters.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
	}
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}

	return copySession(sess), nil
}

func (s *MemoryStore) Put(_ context.Context, sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[sess.ID] = copySession(sess)

	return nil
}

// copySession detaches the stored session from caller mutations.
func copySession(sess *Session) *Session {
	clone := *sess
	clone.History = make([]Message, len(sess.History))
	copy(clone.History, sess.History)

	return &clone
}
