package redis

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"classquiz-engine/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// QuestionSource loads a session's questions from the backing store.
type QuestionSource interface {
	ListQuestions(ctx context.Context, sessionID int64) ([]domain.Question, error)
}

// AnswerKeyCache keeps per-session answer keys in a Redis hash and falls
// back to the source on a miss. The hash is:
//
//	HSET quiz:session:{id}:keys {questionID} {correctOption}|{points}
//
// so instances sharing the Redis can score submissions without touching the
// primary store on every answer.
type AnswerKeyCache struct {
	client *redis.Client
	source QuestionSource
	ttl    time.Duration
	sf     singleflight.Group

	// singleflight only serializes fills per session, so concurrent misses
	// on distinct sessions share rnd.
	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewAnswerKeyCache(client *redis.Client, source QuestionSource, ttl time.Duration) *AnswerKeyCache {
	return &AnswerKeyCache{
		client: client,
		source: source,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *AnswerKeyCache) SessionKeys(ctx context.Context, sessionID int64) (map[int64]domain.AnswerKey, error) {
	key := c.key(sessionID)

	fields, err := c.client.HGetAll(ctx, key).Result()
	if err == nil && len(fields) > 0 {
		return parseKeys(fields), nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check in case another goroutine filled the hash.
		fields, err := c.client.HGetAll(ctx, key).Result()
		if err == nil && len(fields) > 0 {
			return parseKeys(fields), nil
		}

		questions, err := c.source.ListQuestions(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		keys := make(map[int64]domain.AnswerKey, len(questions))

		pipe := c.client.Pipeline()
		for _, q := range questions {
			keys[q.ID] = domain.AnswerKey{
				QuestionID:    q.ID,
				CorrectOption: q.CorrectOption,
				Points:        q.Points,
			}
			pipe.HSet(ctx, key, strconv.FormatInt(q.ID, 10), fmt.Sprintf("%d|%d", q.CorrectOption, q.Points))
		}
		if ttl := c.ttlWithJitter(); ttl > 0 && len(questions) > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		_, _ = pipe.Exec(ctx)

		return keys, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(map[int64]domain.AnswerKey), nil
}

// Invalidate drops the cached hash so appended questions become scoreable.
func (c *AnswerKeyCache) Invalidate(ctx context.Context, sessionID int64) error {
	return c.client.Del(ctx, c.key(sessionID)).Err()
}

func (c *AnswerKeyCache) key(sessionID int64) string {
	return "quiz:session:" + strconv.FormatInt(sessionID, 10) + ":keys"
}

func parseKeys(fields map[string]string) map[int64]domain.AnswerKey {
	keys := make(map[int64]domain.AnswerKey, len(fields))
	for field, value := range fields {
		questionID, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			continue
		}
		parts := strings.SplitN(value, "|", 2)
		if len(parts) != 2 {
			continue
		}
		correct, err := strconv.Atoi(parts[0])
		if err != nil {
			continue
		}
		points, err := strconv.Atoi(parts[1])
		if err != nil {
			continue
		}
		keys[questionID] = domain.AnswerKey{
			QuestionID:    questionID,
			CorrectOption: correct,
			Points:        points,
		}
	}
	return keys
}

func (c *AnswerKeyCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
