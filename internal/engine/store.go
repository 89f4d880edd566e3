package engine

import (
	"context"

	"classquiz-engine/internal/domain"
)

// Store is the persistence collaborator contract. All operations are assumed
// atomic and immediately consistent. Implementations own their identifier
// sequences; callers never assign IDs.
type Store interface {
	CreateTeacher(ctx context.Context, t domain.Teacher) (domain.Teacher, error)
	GetTeacher(ctx context.Context, id int64) (domain.Teacher, error)
	GetTeacherByEmail(ctx context.Context, email string) (domain.Teacher, error)

	// CreateSession returns ErrDuplicateCode when the session's code is
	// already held by another active session.
	CreateSession(ctx context.Context, s domain.Session) (domain.Session, error)
	GetSession(ctx context.Context, id int64) (domain.Session, error)
	// GetActiveSessionByCode resolves a join code against active sessions
	// only; ended sessions are invisible to code lookup.
	GetActiveSessionByCode(ctx context.Context, code string) (domain.Session, error)
	UpdateSession(ctx context.Context, s domain.Session) (domain.Session, error)

	CreateQuestion(ctx context.Context, q domain.Question) (domain.Question, error)
	// ListQuestions returns a session's questions ordered by order index.
	ListQuestions(ctx context.Context, sessionID int64) ([]domain.Question, error)

	CreateStudent(ctx context.Context, s domain.Student) (domain.Student, error)
	GetStudent(ctx context.Context, id int64) (domain.Student, error)
	ListStudents(ctx context.Context, sessionID int64) ([]domain.Student, error)

	CreateResponse(ctx context.Context, r domain.Response) (domain.Response, error)
	ListResponsesBySession(ctx context.Context, sessionID int64) ([]domain.Response, error)
	ListResponsesByStudent(ctx context.Context, studentID int64) ([]domain.Response, error)
}

// AnswerKeys resolves per-question scoring material for a session,
// typically through a cache in front of the Store.
type AnswerKeys interface {
	SessionKeys(ctx context.Context, sessionID int64) (map[int64]domain.AnswerKey, error)
	// Invalidate drops cached keys after questions are appended.
	Invalidate(ctx context.Context, sessionID int64) error
}

// LiveRepository holds per-session live state: streak counters and
// leaderboard subscribers. Live state is process-local and rebuilt from
// scratch on restart.
type LiveRepository interface {
	GetOrCreate(sessionID int64) *LiveSession
	Get(sessionID int64) (*LiveSession, bool)
	Delete(sessionID int64)
}
