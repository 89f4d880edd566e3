package memory

import (
	"sync"

	"classquiz-engine/internal/engine"
)

// LiveStore is an in-memory implementation of engine.LiveRepository.
type LiveStore struct {
	mu       sync.RWMutex
	sessions map[int64]*engine.LiveSession
}

func NewLiveStore() *LiveStore {
	return &LiveStore{
		sessions: make(map[int64]*engine.LiveSession),
	}
}

func (s *LiveStore) GetOrCreate(sessionID int64) *engine.LiveSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	if live, ok := s.sessions[sessionID]; ok {
		return live
	}
	live := engine.NewLiveSession(sessionID)
	s.sessions[sessionID] = live
	return live
}

func (s *LiveStore) Get(sessionID int64) (*engine.LiveSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	live, ok := s.sessions[sessionID]
	return live, ok
}

func (s *LiveStore) Delete(sessionID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}
