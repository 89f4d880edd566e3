package engine_test

import (
	"context"
	"testing"
)

func TestSessionStatsAggregates(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	session := startedSession(t, e)
	questions, _ := e.Questions(ctx, session.ID)

	alice, _ := e.JoinSession(ctx, session.Code, "Alice", nil)
	bob, _ := e.JoinSession(ctx, session.Code, "Bob", nil)

	// Both answer the first question; Alice is right in 4s, Bob is wrong in 8s.
	if _, err := e.SubmitResponse(ctx, alice.ID, questions[0].ID, questions[0].CorrectOption, 4); err != nil {
		t.Fatalf("alice submit: %v", err)
	}
	wrong := (questions[0].CorrectOption + 1) % 4
	if _, err := e.SubmitResponse(ctx, bob.ID, questions[0].ID, wrong, 8); err != nil {
		t.Fatalf("bob submit: %v", err)
	}

	stats, err := e.SessionStats(ctx, session.ID)
	if err != nil {
		t.Fatalf("session stats: %v", err)
	}
	if stats.TotalStudents != 2 || stats.TotalQuestions != 3 || stats.TotalResponses != 2 {
		t.Fatalf("unexpected totals %+v", stats)
	}
	if stats.CorrectRate != 0.5 {
		t.Fatalf("expected correct rate 0.5, got %v", stats.CorrectRate)
	}

	q0 := stats.Questions[0]
	if q0.TotalResponses != 2 || q0.CorrectResponses != 1 || q0.SuccessRate != 0.5 {
		t.Fatalf("unexpected question stats %+v", q0)
	}
	if q0.AverageTimeSeconds != 6 {
		t.Fatalf("expected average time 6s, got %v", q0.AverageTimeSeconds)
	}

	// Unanswered questions report zero rates rather than dividing by zero.
	if stats.Questions[1].TotalResponses != 0 || stats.Questions[1].SuccessRate != 0 {
		t.Fatalf("unexpected stats for unanswered question %+v", stats.Questions[1])
	}
}
