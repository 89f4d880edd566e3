package engine

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"classquiz-engine/internal/domain"
	"golang.org/x/sync/errgroup"
)

// defaultNamePool provides display names for virtual students. The simulator
// cycles through it with a numeric suffix when the cohort is larger.
var defaultNamePool = []string{
	"Alex", "Bianca", "Carlos", "Dana", "Elif", "Farid", "Grace", "Hana",
	"Ivan", "Jasmine", "Kofi", "Lena", "Mateo", "Nadia", "Omar", "Priya",
	"Quinn", "Rosa", "Sam", "Tara", "Umar", "Vera", "Wen", "Yusuf",
}

// simulation is one running synthetic cohort. Cancelling the context cancels
// every still-pending scheduled answer; done closes when the last virtual
// student's timeline has finished or bailed out.
type simulation struct {
	sessionID int64
	cancel    context.CancelFunc
	done      chan struct{}
}

// StartSimulation drives a cohort of virtual students through the session's
// quiz using the same join and submission paths as real clients. It returns
// immediately after scheduling; the run self-terminates once every timeline
// finishes. A session with a simulation already running has it stopped first.
// The returned bool reports whether a new run actually started: a missing
// session is an error, while an ended session or one with no questions is a
// no-op.
func (e *Engine) StartSimulation(ctx context.Context, sessionID int64) (bool, error) {
	session, err := e.store.GetSession(ctx, sessionID)
	if err != nil {
		return false, err
	}

	e.StopSimulation(sessionID)

	if session.Status != domain.SessionActive {
		return false, nil
	}
	questions, err := e.store.ListQuestions(ctx, sessionID)
	if err != nil {
		return false, err
	}
	if len(questions) == 0 {
		return false, nil
	}

	opts := e.opts.Simulator
	students := make([]domain.Student, 0, opts.CohortSize)
	for i := 0; i < opts.CohortSize; i++ {
		student, err := e.JoinSession(ctx, session.Code, cohortName(opts.Names, i), nil)
		if err != nil {
			return false, fmt.Errorf("register virtual student: %w", err)
		}
		students = append(students, student)
	}

	e.rndMu.Lock()
	seed := e.rnd.Int63()
	e.rndMu.Unlock()

	// The run outlives the request that started it.
	simCtx, cancel := context.WithCancel(context.Background())
	sim := &simulation{sessionID: sessionID, cancel: cancel, done: make(chan struct{})}

	g, runCtx := errgroup.WithContext(simCtx)
	for i, student := range students {
		i, student := i, student
		g.Go(func() error {
			e.runVirtualStudent(runCtx, student, questions, i, rand.New(rand.NewSource(seed+int64(i))))
			return nil
		})
	}

	// Register by swapping under the lock so concurrent starts can never
	// leave two cohorts running: whichever instance gets displaced is
	// cancelled, and only the registered one survives.
	e.simMu.Lock()
	prev := e.sims[sessionID]
	e.sims[sessionID] = sim
	e.simMu.Unlock()
	if prev != nil {
		prev.cancel()
		<-prev.done
	}

	go func() {
		_ = g.Wait()
		close(sim.done)
		e.simMu.Lock()
		if current, ok := e.sims[sessionID]; ok && current == sim {
			delete(e.sims, sessionID)
		}
		e.simMu.Unlock()
		cancel()
	}()
	return true, nil
}

// StopSimulation cancels all pending scheduled answers for the session and
// waits for in-flight timelines to settle. Stopping a session with no running
// simulation is a safe no-op returning false.
func (e *Engine) StopSimulation(sessionID int64) bool {
	e.simMu.Lock()
	sim, ok := e.sims[sessionID]
	if ok {
		delete(e.sims, sessionID)
	}
	e.simMu.Unlock()
	if !ok {
		return false
	}
	sim.cancel()
	<-sim.done
	return true
}

// IsSimulationRunning reports whether a cohort is still answering. It turns
// false as soon as the run completes, is cancelled, or bails out early
// because the session ended.
func (e *Engine) IsSimulationRunning(sessionID int64) bool {
	e.simMu.Lock()
	defer e.simMu.Unlock()
	_, ok := e.sims[sessionID]
	return ok
}

// runVirtualStudent walks one student's timeline: an initial stagger offset,
// then one answer per question in session order. Answers for the same student
// are never reordered because streak computation depends on submission order.
// Submission failures (typically the session ending mid-run) silently end the
// timeline; nobody is waiting on the result.
func (e *Engine) runVirtualStudent(ctx context.Context, student domain.Student, questions []domain.Question, index int, rnd *rand.Rand) {
	opts := e.opts.Simulator
	if !sleepCtx(ctx, time.Duration(index)*opts.OffsetStep) {
		return
	}
	for _, q := range questions {
		delay := opts.MinAnswerDelay
		if span := opts.MaxAnswerDelay - opts.MinAnswerDelay; span > 0 {
			delay += time.Duration(rnd.Int63n(int64(span) + 1))
		}
		if !sleepCtx(ctx, delay) {
			return
		}

		lo, hi := SuccessBand(q.Difficulty)
		successRate := lo + rnd.Float64()*(hi-lo)
		selected := q.CorrectOption
		if rnd.Float64() >= successRate {
			selected = wrongOption(rnd, q.CorrectOption, len(q.Options))
		}
		timeTaken := opts.MinTimeTaken + rnd.Intn(opts.MaxTimeTaken-opts.MinTimeTaken+1)

		if _, err := e.SubmitResponse(ctx, student.ID, q.ID, selected, timeTaken); err != nil {
			return
		}
	}
}

// wrongOption picks a uniformly random option other than the correct one.
func wrongOption(rnd *rand.Rand, correct, optionCount int) int {
	o := rnd.Intn(optionCount - 1)
	if o >= correct {
		o++
	}
	return o
}

func cohortName(pool []string, i int) string {
	name := pool[i%len(pool)]
	if cycle := i / len(pool); cycle > 0 {
		name = fmt.Sprintf("%s %d", name, cycle+1)
	}
	return name
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		select {
		case <-ctx.Done():
			return false
		default:
			return true
		}
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
