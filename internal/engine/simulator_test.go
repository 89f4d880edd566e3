package engine_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"classquiz-engine/internal/domain"
	"classquiz-engine/internal/engine"
	"classquiz-engine/internal/infra/memory"
)

// newSimEngine shrinks the simulator timings so a full cohort run completes
// in milliseconds.
func newSimEngine(t *testing.T, cohort int, minDelay, maxDelay time.Duration) (*engine.Engine, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	keys := memory.NewAnswerKeyCache(store, time.Minute)
	live := memory.NewLiveStore()
	opts := engine.Options{
		Simulator: engine.SimulatorOptions{
			CohortSize:     cohort,
			OffsetStep:     time.Millisecond,
			MinAnswerDelay: minDelay,
			MaxAnswerDelay: maxDelay,
		},
	}
	return engine.New(store, keys, live, opts), store
}

func simSession(t *testing.T, e *engine.Engine) domain.Session {
	t.Helper()
	ctx := context.Background()
	teacher, err := e.CreateTeacher(ctx, "sim@school.test", "Sim Teacher")
	if err != nil {
		t.Fatalf("create teacher: %v", err)
	}
	session, err := e.CreateSession(ctx, teacher.ID, "Simulated Session")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if _, err := e.AttachQuestions(ctx, session.ID, threeQuestions()); err != nil {
		t.Fatalf("attach questions: %v", err)
	}
	return session
}

func waitUntil(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestSimulationRunsFullCohort(t *testing.T) {
	e, store := newSimEngine(t, 5, time.Millisecond, 2*time.Millisecond)
	ctx := context.Background()
	session := simSession(t, e)

	started, err := e.StartSimulation(ctx, session.ID)
	if err != nil {
		t.Fatalf("start simulation: %v", err)
	}
	if !started {
		t.Fatal("expected simulation to start")
	}

	waitUntil(t, 5*time.Second, func() bool { return !e.IsSimulationRunning(session.ID) })

	students, err := store.ListStudents(ctx, session.ID)
	if err != nil {
		t.Fatalf("list students: %v", err)
	}
	if len(students) != 5 {
		t.Fatalf("expected 5 virtual students, got %d", len(students))
	}

	responses, err := store.ListResponsesBySession(ctx, session.ID)
	if err != nil {
		t.Fatalf("list responses: %v", err)
	}
	if len(responses) != 15 {
		t.Fatalf("expected 5 students x 3 questions = 15 responses, got %d", len(responses))
	}

	// Every (student, question) pair answered exactly once, each scored at
	// submission time.
	seen := make(map[[2]int64]bool)
	for _, r := range responses {
		pair := [2]int64{r.StudentID, r.QuestionID}
		if seen[pair] {
			t.Fatalf("duplicate response for student %d question %d", r.StudentID, r.QuestionID)
		}
		seen[pair] = true
		if r.Correct && r.Points == 0 {
			t.Fatalf("correct response with zero points: %+v", r)
		}
		if !r.Correct && r.Points != 0 {
			t.Fatalf("incorrect response with points: %+v", r)
		}
	}

	lb, err := e.Leaderboard(ctx, session.ID)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(lb.Entries) != 5 {
		t.Fatalf("expected 5 leaderboard entries, got %d", len(lb.Entries))
	}
}

func TestStopSimulationCancelsPendingAnswers(t *testing.T) {
	e, store := newSimEngine(t, 3, time.Hour, time.Hour)
	ctx := context.Background()
	session := simSession(t, e)

	started, err := e.StartSimulation(ctx, session.ID)
	if err != nil {
		t.Fatalf("start simulation: %v", err)
	}
	if !started {
		t.Fatal("expected simulation to start")
	}
	if !e.IsSimulationRunning(session.ID) {
		t.Fatal("expected simulation to be running")
	}

	if !e.StopSimulation(session.ID) {
		t.Fatal("expected stop to report a running simulation")
	}
	if e.IsSimulationRunning(session.ID) {
		t.Fatal("expected simulation stopped")
	}
	// Stopping again is a no-op.
	if e.StopSimulation(session.ID) {
		t.Fatal("expected second stop to return false")
	}

	// Answers were still an hour away; none should have landed.
	responses, err := store.ListResponsesBySession(ctx, session.ID)
	if err != nil {
		t.Fatalf("list responses: %v", err)
	}
	if len(responses) != 0 {
		t.Fatalf("expected no responses after immediate stop, got %d", len(responses))
	}
}

func TestStartSimulationReplacesRunningCohort(t *testing.T) {
	e, store := newSimEngine(t, 2, time.Hour, time.Hour)
	ctx := context.Background()
	session := simSession(t, e)

	if _, err := e.StartSimulation(ctx, session.ID); err != nil {
		t.Fatalf("first start: %v", err)
	}
	if _, err := e.StartSimulation(ctx, session.ID); err != nil {
		t.Fatalf("second start: %v", err)
	}

	// Both cohorts joined, but only the second is still scheduled.
	students, err := store.ListStudents(ctx, session.ID)
	if err != nil {
		t.Fatalf("list students: %v", err)
	}
	if len(students) != 4 {
		t.Fatalf("expected two cohorts of 2 joined, got %d students", len(students))
	}
	if !e.StopSimulation(session.ID) {
		t.Fatal("expected one running simulation to stop")
	}
	if e.StopSimulation(session.ID) {
		t.Fatal("expected no simulation left after stop")
	}
}

func TestConcurrentStartsLeaveOneStoppableCohort(t *testing.T) {
	e, store := newSimEngine(t, 2, 30*time.Millisecond, 40*time.Millisecond)
	ctx := context.Background()
	session := simSession(t, e)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := e.StartSimulation(ctx, session.ID); err != nil {
				t.Errorf("start simulation: %v", err)
			}
		}()
	}
	wg.Wait()

	for e.StopSimulation(session.ID) {
	}
	if e.IsSimulationRunning(session.ID) {
		t.Fatal("expected no running simulation after stop")
	}

	responses, err := store.ListResponsesBySession(ctx, session.ID)
	if err != nil {
		t.Fatalf("list responses: %v", err)
	}
	before := len(responses)

	// No cohort may keep answering once stop has drained every instance.
	time.Sleep(250 * time.Millisecond)
	responses, err = store.ListResponsesBySession(ctx, session.ID)
	if err != nil {
		t.Fatalf("list responses: %v", err)
	}
	if len(responses) != before {
		t.Fatalf("cohort still writing after stop: responses %d -> %d", before, len(responses))
	}
}

func TestStartSimulationEdgeCases(t *testing.T) {
	e, _ := newSimEngine(t, 2, time.Millisecond, time.Millisecond)
	ctx := context.Background()

	if _, err := e.StartSimulation(ctx, 42); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for missing session, got %v", err)
	}

	teacher, _ := e.CreateTeacher(ctx, "sim@school.test", "Sim Teacher")
	empty, err := e.CreateSession(ctx, teacher.ID, "No Questions")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	started, err := e.StartSimulation(ctx, empty.ID)
	if err != nil {
		t.Fatalf("start on empty session: %v", err)
	}
	if started {
		t.Fatal("expected no-op for session without questions")
	}

	session := simSession(t, e)
	if _, err := e.EndSession(ctx, session.ID); err != nil {
		t.Fatalf("end session: %v", err)
	}
	started, err = e.StartSimulation(ctx, session.ID)
	if err != nil {
		t.Fatalf("start on ended session: %v", err)
	}
	if started {
		t.Fatal("expected no-op for ended session")
	}
}

func TestSimulatedCohortUsesUniqueNames(t *testing.T) {
	e, store := newSimEngine(t, 30, time.Hour, time.Hour)
	ctx := context.Background()
	session := simSession(t, e)

	if _, err := e.StartSimulation(ctx, session.ID); err != nil {
		t.Fatalf("start simulation: %v", err)
	}
	defer e.StopSimulation(session.ID)

	students, err := store.ListStudents(ctx, session.ID)
	if err != nil {
		t.Fatalf("list students: %v", err)
	}
	names := make(map[string]bool, len(students))
	for _, s := range students {
		if names[s.Name] {
			t.Fatalf("duplicate cohort name %q", s.Name)
		}
		names[s.Name] = true
	}
}
