package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"sync"
	"time"

	"classquiz-engine/internal/domain"
)

const maxCodeAttempts = 100

// Options tune engine defaults. Zero values fall back to the documented
// defaults via normalize.
type Options struct {
	// BasePoints is applied to questions attached without an explicit
	// point value. Defaults to 100.
	BasePoints int
	Simulator  SimulatorOptions
}

// SimulatorOptions shape the synthetic cohort. Tests shrink the durations to
// keep runs fast; production uses the defaults.
type SimulatorOptions struct {
	CohortSize     int           // virtual students per run, default 21
	OffsetStep     time.Duration // per-student start stagger, default 150ms
	MinAnswerDelay time.Duration // lower bound of the per-question delay, default 7s
	MaxAnswerDelay time.Duration // upper bound of the per-question delay, default 12s
	MinTimeTaken   int           // reported answer seconds, lower bound, default 5
	MaxTimeTaken   int           // reported answer seconds, upper bound, default 15
	Names          []string      // display-name pool, cycled when smaller than the cohort
}

func (o Options) normalize() Options {
	if o.BasePoints <= 0 {
		o.BasePoints = 100
	}
	s := &o.Simulator
	if s.CohortSize <= 0 {
		s.CohortSize = 21
	}
	if s.OffsetStep <= 0 {
		s.OffsetStep = 150 * time.Millisecond
	}
	if s.MinAnswerDelay <= 0 {
		s.MinAnswerDelay = 7 * time.Second
	}
	if s.MaxAnswerDelay < s.MinAnswerDelay {
		s.MaxAnswerDelay = s.MinAnswerDelay + 5*time.Second
	}
	if s.MinTimeTaken <= 0 {
		s.MinTimeTaken = 5
	}
	if s.MaxTimeTaken < s.MinTimeTaken {
		s.MaxTimeTaken = s.MinTimeTaken + 10
	}
	if len(s.Names) == 0 {
		s.Names = defaultNamePool
	}
	return o
}

// Engine is the session lifecycle manager. It gates every external call into
// the store, invokes the scoring calculator once per submitted response, and
// hosts the synthetic load simulator.
type Engine struct {
	store Store
	keys  AnswerKeys
	live  LiveRepository
	opts  Options
	now   func() time.Time

	rndMu sync.Mutex
	rnd   *rand.Rand

	simMu sync.Mutex
	sims  map[int64]*simulation
}

func New(store Store, keys AnswerKeys, live LiveRepository, opts Options) *Engine {
	return NewWithClock(store, keys, live, opts, time.Now)
}

// NewWithClock allows deterministic timestamps in tests.
func NewWithClock(store Store, keys AnswerKeys, live LiveRepository, opts Options, now func() time.Time) *Engine {
	return &Engine{
		store: store,
		keys:  keys,
		live:  live,
		opts:  opts.normalize(),
		now:   now,
		rnd:   rand.New(rand.NewSource(time.Now().UnixNano())),
		sims:  make(map[int64]*simulation),
	}
}

// CreateTeacher registers a teacher record.
func (e *Engine) CreateTeacher(ctx context.Context, email, name string) (domain.Teacher, error) {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(name) == "" {
		return domain.Teacher{}, fmt.Errorf("teacher email and name are required: %w", domain.ErrValidation)
	}
	return e.store.CreateTeacher(ctx, domain.Teacher{
		Email:     email,
		Name:      name,
		CreatedAt: e.now(),
	})
}

// TeacherByEmail looks up a teacher for sign-in flows.
func (e *Engine) TeacherByEmail(ctx context.Context, email string) (domain.Teacher, error) {
	return e.store.GetTeacherByEmail(ctx, email)
}

// CreateSession opens a new active session with a fresh join code. Codes are
// rejection-sampled against currently active sessions; a collision with an
// ended session's former code is fine.
func (e *Engine) CreateSession(ctx context.Context, teacherID int64, title string) (domain.Session, error) {
	if strings.TrimSpace(title) == "" {
		return domain.Session{}, fmt.Errorf("session title is required: %w", domain.ErrValidation)
	}
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		session, err := e.store.CreateSession(ctx, domain.Session{
			TeacherID:  teacherID,
			Title:      title,
			Code:       e.newCode(),
			Status:     domain.SessionActive,
			QuizStatus: domain.QuizNotStarted,
			CreatedAt:  e.now(),
		})
		if errors.Is(err, domain.ErrDuplicateCode) {
			continue
		}
		return session, err
	}
	return domain.Session{}, fmt.Errorf("exhausted join code attempts: %w", domain.ErrDuplicateCode)
}

func (e *Engine) newCode() string {
	e.rndMu.Lock()
	defer e.rndMu.Unlock()
	return fmt.Sprintf("%04d", 1000+e.rnd.Intn(9000))
}

// Session returns a session by ID.
func (e *Engine) Session(ctx context.Context, sessionID int64) (domain.Session, error) {
	return e.store.GetSession(ctx, sessionID)
}

// Questions lists a session's questions in display order.
func (e *Engine) Questions(ctx context.Context, sessionID int64) ([]domain.Question, error) {
	if _, err := e.store.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}
	return e.store.ListQuestions(ctx, sessionID)
}

// AttachQuestions appends questions with contiguous order indices. There is
// no status restriction: the engine permits appending after the session has
// ended even though the UI does not expose it.
func (e *Engine) AttachQuestions(ctx context.Context, sessionID int64, drafts []domain.QuestionDraft) ([]domain.Question, error) {
	if _, err := e.store.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}
	for i, d := range drafts {
		if strings.TrimSpace(d.Text) == "" {
			return nil, fmt.Errorf("question %d: text is required: %w", i, domain.ErrValidation)
		}
		if len(d.Options) != 4 {
			return nil, fmt.Errorf("question %d: expected 4 options, got %d: %w", i, len(d.Options), domain.ErrValidation)
		}
		if d.CorrectOption < 0 || d.CorrectOption > 3 {
			return nil, fmt.Errorf("question %d: correct option %d out of range: %w", i, d.CorrectOption, domain.ErrValidation)
		}
		if d.Difficulty != "" && !d.Difficulty.Valid() {
			return nil, fmt.Errorf("question %d: unknown difficulty %q: %w", i, d.Difficulty, domain.ErrValidation)
		}
		if d.Points < 0 {
			return nil, fmt.Errorf("question %d: negative points: %w", i, domain.ErrValidation)
		}
	}

	existing, err := e.store.ListQuestions(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	created := make([]domain.Question, 0, len(drafts))
	for i, d := range drafts {
		difficulty := d.Difficulty
		if difficulty == "" {
			difficulty = domain.DifficultyApplication
		}
		points := d.Points
		if points == 0 {
			points = e.opts.BasePoints
		}
		q, err := e.store.CreateQuestion(ctx, domain.Question{
			SessionID:     sessionID,
			Text:          d.Text,
			Options:       d.Options,
			CorrectOption: d.CorrectOption,
			Topic:         d.Topic,
			Difficulty:    difficulty,
			Points:        points,
			OrderIndex:    len(existing) + i,
			CreatedAt:     e.now(),
		})
		if err != nil {
			return nil, err
		}
		created = append(created, q)
	}

	if err := e.keys.Invalidate(ctx, sessionID); err != nil {
		log.Printf("invalidate answer keys for session %d: %v", sessionID, err)
	}
	return created, nil
}

// ConfigureQuiz sets the per-question time limit and optionally the uploaded
// course text the questions were drawn from. If the quiz status was never
// initialized it is forced to not_started.
func (e *Engine) ConfigureQuiz(ctx context.Context, sessionID int64, courseText string, timeLimitSeconds int) (domain.Session, error) {
	if timeLimitSeconds <= 0 {
		return domain.Session{}, fmt.Errorf("time limit must be positive: %w", domain.ErrValidation)
	}
	session, err := e.store.GetSession(ctx, sessionID)
	if err != nil {
		return domain.Session{}, err
	}
	session.TimeLimitSeconds = timeLimitSeconds
	if courseText != "" {
		session.CourseText = courseText
	}
	if session.QuizStatus == "" {
		session.QuizStatus = domain.QuizNotStarted
	}
	return e.store.UpdateSession(ctx, session)
}

// StartQuiz flips the quiz to in_progress. It requires an active session, a
// not-yet-started quiz, at least one question, and a configured time limit.
func (e *Engine) StartQuiz(ctx context.Context, sessionID int64) (domain.Session, error) {
	session, err := e.store.GetSession(ctx, sessionID)
	if err != nil {
		return domain.Session{}, err
	}
	if session.Status != domain.SessionActive {
		return domain.Session{}, fmt.Errorf("cannot start quiz on %s session: %w", session.Status, domain.ErrInvalidState)
	}
	if session.QuizStatus != domain.QuizNotStarted {
		return domain.Session{}, fmt.Errorf("quiz already %s: %w", session.QuizStatus, domain.ErrInvalidState)
	}
	if session.TimeLimitSeconds <= 0 {
		return domain.Session{}, fmt.Errorf("quiz time limit not configured: %w", domain.ErrInvalidState)
	}
	questions, err := e.store.ListQuestions(ctx, sessionID)
	if err != nil {
		return domain.Session{}, err
	}
	if len(questions) == 0 {
		return domain.Session{}, fmt.Errorf("cannot start quiz without questions: %w", domain.ErrInvalidState)
	}

	now := e.now()
	session.QuizStatus = domain.QuizInProgress
	session.StartedAt = &now
	return e.store.UpdateSession(ctx, session)
}

// EndSession marks the session ended and frees its join code for reuse.
// Ending an already-ended session is a no-op success. An in-progress quiz is
// marked completed so that in_progress never outlives an active session;
// recorded responses are untouched.
func (e *Engine) EndSession(ctx context.Context, sessionID int64) (domain.Session, error) {
	session, err := e.store.GetSession(ctx, sessionID)
	if err != nil {
		return domain.Session{}, err
	}
	if session.Status == domain.SessionEnded {
		return session, nil
	}

	now := e.now()
	session.Status = domain.SessionEnded
	session.EndedAt = &now
	if session.QuizStatus == domain.QuizInProgress {
		session.QuizStatus = domain.QuizCompleted
	}
	updated, err := e.store.UpdateSession(ctx, session)
	if err != nil {
		return domain.Session{}, err
	}

	if live, ok := e.live.Get(sessionID); ok {
		live.Close()
		e.live.Delete(sessionID)
	}
	return updated, nil
}

// JoinSession registers a student against the active session holding the
// code. Joining succeeds regardless of quiz status so students can wait in a
// lobby before the quiz starts.
func (e *Engine) JoinSession(ctx context.Context, code, name string, interests []string) (domain.Student, error) {
	if !validCode(code) {
		return domain.Student{}, fmt.Errorf("join code must be 4 digits: %w", domain.ErrValidation)
	}
	if strings.TrimSpace(name) == "" {
		return domain.Student{}, fmt.Errorf("student name is required: %w", domain.ErrValidation)
	}
	session, err := e.store.GetActiveSessionByCode(ctx, code)
	if err != nil {
		return domain.Student{}, err
	}
	if session.Status != domain.SessionActive {
		return domain.Student{}, fmt.Errorf("session %d has ended: %w", session.ID, domain.ErrInvalidState)
	}
	return e.store.CreateStudent(ctx, domain.Student{
		SessionID: session.ID,
		Name:      name,
		Interests: interests,
		JoinedAt:  e.now(),
	})
}

func validCode(code string) bool {
	if len(code) != 4 {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// SubmitResponse is the single entry point for answers, real or simulated.
// It scores the answer, appends the response, advances the student's streak,
// and broadcasts the recomputed leaderboard. Within one student's timeline
// callers submit in question order; the engine does not reorder.
func (e *Engine) SubmitResponse(ctx context.Context, studentID, questionID int64, selectedOption, timeTakenSeconds int) (domain.AnswerResult, error) {
	if selectedOption < 0 || selectedOption > 3 {
		return domain.AnswerResult{}, fmt.Errorf("selected option %d out of range: %w", selectedOption, domain.ErrValidation)
	}
	if timeTakenSeconds < 0 {
		return domain.AnswerResult{}, fmt.Errorf("negative time taken: %w", domain.ErrValidation)
	}

	student, err := e.store.GetStudent(ctx, studentID)
	if err != nil {
		return domain.AnswerResult{}, err
	}
	session, err := e.store.GetSession(ctx, student.SessionID)
	if err != nil {
		return domain.AnswerResult{}, err
	}
	if session.Status != domain.SessionActive {
		return domain.AnswerResult{}, fmt.Errorf("session %d has ended: %w", session.ID, domain.ErrInvalidState)
	}

	keys, err := e.keys.SessionKeys(ctx, session.ID)
	if err != nil {
		return domain.AnswerResult{}, err
	}
	key, ok := keys[questionID]
	if !ok {
		return domain.AnswerResult{}, fmt.Errorf("question %d not in session %d: %w", questionID, session.ID, domain.ErrNotFound)
	}

	// Compute first (pure), then write once.
	live := e.live.GetOrCreate(session.ID)
	streak := live.Streak(studentID)
	correct := selectedOption == key.CorrectOption
	points := Score(correct, timeTakenSeconds, key.Points, streak)

	if _, err := e.store.CreateResponse(ctx, domain.Response{
		StudentID:        studentID,
		QuestionID:       questionID,
		SessionID:        session.ID,
		SelectedOption:   selectedOption,
		Correct:          correct,
		TimeTakenSeconds: timeTakenSeconds,
		Points:           points,
		SubmittedAt:      e.now(),
	}); err != nil {
		return domain.AnswerResult{}, err
	}

	newStreak := 0
	if correct {
		newStreak = streak + 1
	}
	live.SetStreak(studentID, newStreak)

	result := domain.AnswerResult{
		QuestionID: questionID,
		Correct:    correct,
		Points:     points,
		Streak:     newStreak,
	}

	lb, err := e.Leaderboard(ctx, session.ID)
	if err != nil {
		log.Printf("recompute leaderboard for session %d: %v", session.ID, err)
		return result, nil
	}
	for _, entry := range lb.Entries {
		if entry.StudentID == studentID {
			result.TotalPoints = entry.TotalPoints
			break
		}
	}
	live.Broadcast(lb)
	return result, nil
}

// Subscribe returns a channel receiving leaderboard updates for a session,
// primed with the current snapshot. The caller must invoke cancel.
func (e *Engine) Subscribe(ctx context.Context, sessionID int64) (<-chan domain.Leaderboard, func(), error) {
	if _, err := e.store.GetSession(ctx, sessionID); err != nil {
		return nil, nil, err
	}
	live := e.live.GetOrCreate(sessionID)
	ch, cancel := live.Subscribe()

	lb, err := e.Leaderboard(ctx, sessionID)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	live.Prime(ch, lb)
	return ch, cancel, nil
}
