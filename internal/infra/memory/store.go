package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"classquiz-engine/internal/domain"
)

// Store is an in-memory implementation of engine.Store, useful for demos and
// tests. Identifier sequences are owned by the store and guarded by its
// mutex; the active-code index mirrors the partial unique index the SQL
// store relies on.
type Store struct {
	mu          sync.RWMutex
	teachers    map[int64]domain.Teacher
	sessions    map[int64]domain.Session
	questions   map[int64]domain.Question
	students    map[int64]domain.Student
	responses   map[int64]domain.Response
	activeCodes map[string]int64 // code -> sessionID, active sessions only

	nextTeacher  int64
	nextSession  int64
	nextQuestion int64
	nextStudent  int64
	nextResponse int64
}

func NewStore() *Store {
	return &Store{
		teachers:    make(map[int64]domain.Teacher),
		sessions:    make(map[int64]domain.Session),
		questions:   make(map[int64]domain.Question),
		students:    make(map[int64]domain.Student),
		responses:   make(map[int64]domain.Response),
		activeCodes: make(map[string]int64),
	}
}

func (s *Store) CreateTeacher(_ context.Context, t domain.Teacher) (domain.Teacher, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextTeacher++
	t.ID = s.nextTeacher
	s.teachers[t.ID] = t
	return t, nil
}

func (s *Store) GetTeacher(_ context.Context, id int64) (domain.Teacher, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.teachers[id]
	if !ok {
		return domain.Teacher{}, fmt.Errorf("teacher %d: %w", id, domain.ErrNotFound)
	}
	return t, nil
}

func (s *Store) GetTeacherByEmail(_ context.Context, email string) (domain.Teacher, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.teachers {
		if t.Email == email {
			return t, nil
		}
	}
	return domain.Teacher{}, fmt.Errorf("teacher %q: %w", email, domain.ErrNotFound)
}

func (s *Store) CreateSession(_ context.Context, session domain.Session) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session.Status == domain.SessionActive {
		if _, taken := s.activeCodes[session.Code]; taken {
			return domain.Session{}, fmt.Errorf("code %s already active: %w", session.Code, domain.ErrDuplicateCode)
		}
	}
	s.nextSession++
	session.ID = s.nextSession
	s.sessions[session.ID] = session
	if session.Status == domain.SessionActive {
		s.activeCodes[session.Code] = session.ID
	}
	return session, nil
}

func (s *Store) GetSession(_ context.Context, id int64) (domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return domain.Session{}, fmt.Errorf("session %d: %w", id, domain.ErrNotFound)
	}
	return session, nil
}

func (s *Store) GetActiveSessionByCode(_ context.Context, code string) (domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.activeCodes[code]
	if !ok {
		return domain.Session{}, fmt.Errorf("no active session with code %s: %w", code, domain.ErrNotFound)
	}
	return s.sessions[id], nil
}

func (s *Store) UpdateSession(_ context.Context, session domain.Session) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.sessions[session.ID]
	if !ok {
		return domain.Session{}, fmt.Errorf("session %d: %w", session.ID, domain.ErrNotFound)
	}
	// Ended sessions release their code for reuse by new active sessions.
	if prev.Status == domain.SessionActive && session.Status != domain.SessionActive {
		if s.activeCodes[prev.Code] == session.ID {
			delete(s.activeCodes, prev.Code)
		}
	}
	s.sessions[session.ID] = session
	return session, nil
}

func (s *Store) CreateQuestion(_ context.Context, q domain.Question) (domain.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[q.SessionID]; !ok {
		return domain.Question{}, fmt.Errorf("session %d: %w", q.SessionID, domain.ErrNotFound)
	}
	s.nextQuestion++
	q.ID = s.nextQuestion
	s.questions[q.ID] = q
	return q, nil
}

func (s *Store) ListQuestions(_ context.Context, sessionID int64) ([]domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Question
	for _, q := range s.questions {
		if q.SessionID == sessionID {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderIndex < out[j].OrderIndex })
	return out, nil
}

func (s *Store) CreateStudent(_ context.Context, st domain.Student) (domain.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[st.SessionID]; !ok {
		return domain.Student{}, fmt.Errorf("session %d: %w", st.SessionID, domain.ErrNotFound)
	}
	s.nextStudent++
	st.ID = s.nextStudent
	s.students[st.ID] = st
	return st, nil
}

func (s *Store) GetStudent(_ context.Context, id int64) (domain.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.students[id]
	if !ok {
		return domain.Student{}, fmt.Errorf("student %d: %w", id, domain.ErrNotFound)
	}
	return st, nil
}

func (s *Store) ListStudents(_ context.Context, sessionID int64) ([]domain.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Student
	for _, st := range s.students {
		if st.SessionID == sessionID {
			out = append(out, st)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) CreateResponse(_ context.Context, r domain.Response) (domain.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.students[r.StudentID]; !ok {
		return domain.Response{}, fmt.Errorf("student %d: %w", r.StudentID, domain.ErrNotFound)
	}
	s.nextResponse++
	r.ID = s.nextResponse
	s.responses[r.ID] = r
	return r, nil
}

func (s *Store) ListResponsesBySession(_ context.Context, sessionID int64) ([]domain.Response, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Response
	for _, r := range s.responses {
		if r.SessionID == sessionID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) ListResponsesByStudent(_ context.Context, studentID int64) ([]domain.Response, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Response
	for _, r := range s.responses {
		if r.StudentID == studentID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
