package redis

import (
	"context"
	"strconv"
	"sync"
	"time"

	"classquiz-engine/internal/engine"
	"github.com/redis/go-redis/v9"
)

// LiveStore is a Redis-aware implementation of engine.LiveRepository.
// Notes:
//   - Streak counters and leaderboard subscribers stay in-process; they are
//     cheap to rebuild and bound to this instance's websocket clients.
//   - Redis marks live-session liveness so operators can see which sessions
//     have activity across instances (and it could be extended to route
//     cross-instance pub/sub).
type LiveStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[int64]*engine.LiveSession
}

func NewLiveStore(client *redis.Client, ttl time.Duration) *LiveStore {
	return &LiveStore{
		client:   client,
		ttl:      ttl,
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
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.key(sessionID), "1", s.ttl).Err()
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
	if _, ok := s.sessions[sessionID]; !ok {
		return
	}
	delete(s.sessions, sessionID)
	_ = s.client.Del(context.Background(), s.key(sessionID)).Err()
}

func (s *LiveStore) key(sessionID int64) string {
	return "quiz:live:" + strconv.FormatInt(sessionID, 10)
}
