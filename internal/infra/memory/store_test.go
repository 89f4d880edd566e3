package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"classquiz-engine/internal/domain"
)

func TestActiveCodeUniqueness(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	first, err := store.CreateSession(ctx, domain.Session{
		Code:   "1234",
		Status: domain.SessionActive,
	})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	if _, err := store.CreateSession(ctx, domain.Session{
		Code:   "1234",
		Status: domain.SessionActive,
	}); !errors.Is(err, domain.ErrDuplicateCode) {
		t.Fatalf("expected duplicate code error, got %v", err)
	}

	// Ending the session releases the code.
	first.Status = domain.SessionEnded
	if _, err := store.UpdateSession(ctx, first); err != nil {
		t.Fatalf("update session: %v", err)
	}
	if _, err := store.CreateSession(ctx, domain.Session{
		Code:   "1234",
		Status: domain.SessionActive,
	}); err != nil {
		t.Fatalf("expected code reuse after end, got %v", err)
	}

	// Code lookup only resolves the currently active holder.
	got, err := store.GetActiveSessionByCode(ctx, "1234")
	if err != nil {
		t.Fatalf("lookup by code: %v", err)
	}
	if got.ID == first.ID {
		t.Fatalf("expected code to resolve to the new session, got %d", got.ID)
	}
}

func TestGetActiveSessionByCodeIgnoresEnded(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	session, err := store.CreateSession(ctx, domain.Session{Code: "4321", Status: domain.SessionActive})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	session.Status = domain.SessionEnded
	if _, err := store.UpdateSession(ctx, session); err != nil {
		t.Fatalf("update session: %v", err)
	}

	if _, err := store.GetActiveSessionByCode(ctx, "4321"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for ended session's code, got %v", err)
	}
}

func TestListQuestionsOrdered(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	session, _ := store.CreateSession(ctx, domain.Session{Code: "1111", Status: domain.SessionActive})
	for _, idx := range []int{2, 0, 1} {
		if _, err := store.CreateQuestion(ctx, domain.Question{
			SessionID:  session.ID,
			Text:       "q",
			Options:    []string{"A", "B", "C", "D"},
			OrderIndex: idx,
		}); err != nil {
			t.Fatalf("create question: %v", err)
		}
	}

	questions, err := store.ListQuestions(ctx, session.ID)
	if err != nil {
		t.Fatalf("list questions: %v", err)
	}
	for i, q := range questions {
		if q.OrderIndex != i {
			t.Fatalf("expected order index %d at position %d, got %d", i, i, q.OrderIndex)
		}
	}
}

func TestForeignKeyChecks(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	if _, err := store.CreateQuestion(ctx, domain.Question{SessionID: 7}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for question on missing session, got %v", err)
	}
	if _, err := store.CreateStudent(ctx, domain.Student{SessionID: 7}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for student on missing session, got %v", err)
	}
	if _, err := store.CreateResponse(ctx, domain.Response{StudentID: 7}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for response on missing student, got %v", err)
	}
	if _, err := store.GetTeacher(ctx, 7); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for missing teacher, got %v", err)
	}
}

func TestResponsesScopedBySessionAndStudent(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	session, _ := store.CreateSession(ctx, domain.Session{Code: "2222", Status: domain.SessionActive})
	other, _ := store.CreateSession(ctx, domain.Session{Code: "3333", Status: domain.SessionActive})
	alice, _ := store.CreateStudent(ctx, domain.Student{SessionID: session.ID, Name: "Alice"})
	bob, _ := store.CreateStudent(ctx, domain.Student{SessionID: other.ID, Name: "Bob"})

	now := time.Now()
	for i, st := range []domain.Student{alice, alice, bob} {
		if _, err := store.CreateResponse(ctx, domain.Response{
			StudentID:   st.ID,
			SessionID:   st.SessionID,
			QuestionID:  int64(i + 1),
			SubmittedAt: now,
		}); err != nil {
			t.Fatalf("create response: %v", err)
		}
	}

	bySession, err := store.ListResponsesBySession(ctx, session.ID)
	if err != nil {
		t.Fatalf("list by session: %v", err)
	}
	if len(bySession) != 2 {
		t.Fatalf("expected 2 responses in session, got %d", len(bySession))
	}
	byStudent, err := store.ListResponsesByStudent(ctx, bob.ID)
	if err != nil {
		t.Fatalf("list by student: %v", err)
	}
	if len(byStudent) != 1 {
		t.Fatalf("expected 1 response for bob, got %d", len(byStudent))
	}
}
