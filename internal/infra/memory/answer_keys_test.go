package memory

import (
	"context"
	"testing"
	"time"

	"classquiz-engine/internal/domain"
)

func TestAnswerKeyCacheCaches(t *testing.T) {
	ctx := context.Background()
	source := &countingSource{questions: sampleQuestions()}
	cache := NewAnswerKeyCache(source, time.Minute)

	keys, err := cache.SessionKeys(ctx, 1)
	if err != nil {
		t.Fatalf("session keys: %v", err)
	}
	if source.calls != 1 {
		t.Fatalf("expected source loaded once, got %d", source.calls)
	}
	if key := keys[11]; key.CorrectOption != 2 || key.Points != 100 {
		t.Fatalf("unexpected key %+v", key)
	}

	if _, err := cache.SessionKeys(ctx, 1); err != nil {
		t.Fatalf("session keys 2: %v", err)
	}
	if source.calls != 1 {
		t.Fatalf("expected cache hit, source calls %d", source.calls)
	}
}

func TestAnswerKeyCacheInvalidateReloads(t *testing.T) {
	ctx := context.Background()
	source := &countingSource{questions: sampleQuestions()}
	cache := NewAnswerKeyCache(source, time.Minute)

	if _, err := cache.SessionKeys(ctx, 1); err != nil {
		t.Fatalf("session keys: %v", err)
	}

	source.questions = append(source.questions, domain.Question{
		ID: 13, SessionID: 1, CorrectOption: 0, Points: 100,
	})
	if err := cache.Invalidate(ctx, 1); err != nil {
		t.Fatalf("invalidate: %v", err)
	}

	keys, err := cache.SessionKeys(ctx, 1)
	if err != nil {
		t.Fatalf("session keys after invalidate: %v", err)
	}
	if source.calls != 2 {
		t.Fatalf("expected reload after invalidate, source calls %d", source.calls)
	}
	if _, ok := keys[13]; !ok {
		t.Fatalf("expected appended question in reloaded keys, got %v", keys)
	}
}

func TestAnswerKeyCacheExpires(t *testing.T) {
	ctx := context.Background()
	source := &countingSource{questions: sampleQuestions()}
	cache := NewAnswerKeyCache(source, time.Minute)

	current := time.Now()
	cache.clock = func() time.Time { return current }

	if _, err := cache.SessionKeys(ctx, 1); err != nil {
		t.Fatalf("session keys: %v", err)
	}
	current = current.Add(2 * time.Minute)
	if _, err := cache.SessionKeys(ctx, 1); err != nil {
		t.Fatalf("session keys after expiry: %v", err)
	}
	if source.calls != 2 {
		t.Fatalf("expected reload after TTL expiry, source calls %d", source.calls)
	}
}

type countingSource struct {
	questions []domain.Question
	calls     int
}

func (s *countingSource) ListQuestions(_ context.Context, sessionID int64) ([]domain.Question, error) {
	s.calls++
	var out []domain.Question
	for _, q := range s.questions {
		if q.SessionID == sessionID {
			out = append(out, q)
		}
	}
	return out, nil
}

func sampleQuestions() []domain.Question {
	return []domain.Question{
		{ID: 11, SessionID: 1, CorrectOption: 2, Points: 100},
		{ID: 12, SessionID: 1, CorrectOption: 0, Points: 200},
	}
}
