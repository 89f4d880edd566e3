package memory

import (
	"context"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"classquiz-engine/internal/domain"
	"golang.org/x/sync/singleflight"
)

// QuestionSource loads a session's questions from the backing store.
type QuestionSource interface {
	ListQuestions(ctx context.Context, sessionID int64) ([]domain.Question, error)
}

// AnswerKeyCache caches per-session answer keys with TTL to keep the
// submission hot path off the store. Concurrent misses for the same session
// are collapsed through singleflight.
type AnswerKeyCache struct {
	source QuestionSource
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand

	mu    sync.RWMutex
	cache map[int64]cachedKeys
}

type cachedKeys struct {
	keys      map[int64]domain.AnswerKey
	expiresAt time.Time
}

func NewAnswerKeyCache(source QuestionSource, ttl time.Duration) *AnswerKeyCache {
	return &AnswerKeyCache{
		source: source,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[int64]cachedKeys),
	}
}

func (c *AnswerKeyCache) SessionKeys(ctx context.Context, sessionID int64) (map[int64]domain.AnswerKey, error) {
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.cache[sessionID]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return entry.keys, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do(sfKey(sessionID), func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.cache[sessionID]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return entry.keys, nil
		}
		c.mu.RUnlock()

		questions, err := c.source.ListQuestions(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		keys := buildKeys(questions)

		c.mu.Lock()
		c.cache[sessionID] = cachedKeys{
			keys:      keys,
			expiresAt: now.Add(c.ttlWithJitter()),
		}
		c.mu.Unlock()
		return keys, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(map[int64]domain.AnswerKey), nil
}

func (c *AnswerKeyCache) Invalidate(_ context.Context, sessionID int64) error {
	c.mu.Lock()
	delete(c.cache, sessionID)
	c.mu.Unlock()
	return nil
}

func buildKeys(questions []domain.Question) map[int64]domain.AnswerKey {
	keys := make(map[int64]domain.AnswerKey, len(questions))
	for _, q := range questions {
		keys[q.ID] = domain.AnswerKey{
			QuestionID:    q.ID,
			CorrectOption: q.CorrectOption,
			Points:        q.Points,
		}
	}
	return keys
}

func sfKey(sessionID int64) string {
	return "session:" + strconv.FormatInt(sessionID, 10)
}

func (c *AnswerKeyCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
