package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"classquiz-engine/internal/domain"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// Store is the Postgres implementation of engine.Store. Option lists and
// interest tags are kept as JSONB; join-code uniqueness among active sessions
// is enforced by a partial unique index and surfaced as ErrDuplicateCode.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) CreateTeacher(ctx context.Context, t domain.Teacher) (domain.Teacher, error) {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO teachers (email, name, created_at) VALUES ($1, $2, $3) RETURNING id`,
		t.Email, t.Name, t.CreatedAt,
	).Scan(&t.ID)
	if err != nil {
		return domain.Teacher{}, fmt.Errorf("create teacher: %w", err)
	}
	return t, nil
}

func (s *Store) GetTeacher(ctx context.Context, id int64) (domain.Teacher, error) {
	var t domain.Teacher
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, name, created_at FROM teachers WHERE id=$1`, id,
	).Scan(&t.ID, &t.Email, &t.Name, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Teacher{}, fmt.Errorf("teacher %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Teacher{}, fmt.Errorf("get teacher: %w", err)
	}
	return t, nil
}

func (s *Store) GetTeacherByEmail(ctx context.Context, email string) (domain.Teacher, error) {
	var t domain.Teacher
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, name, created_at FROM teachers WHERE email=$1`, email,
	).Scan(&t.ID, &t.Email, &t.Name, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Teacher{}, fmt.Errorf("teacher %q: %w", email, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Teacher{}, fmt.Errorf("get teacher by email: %w", err)
	}
	return t, nil
}

func (s *Store) CreateSession(ctx context.Context, session domain.Session) (domain.Session, error) {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO sessions (teacher_id, title, code, status, quiz_status, course_text, time_limit_seconds, created_at, started_at, ended_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`,
		session.TeacherID, session.Title, session.Code, session.Status, session.QuizStatus,
		session.CourseText, session.TimeLimitSeconds, session.CreatedAt, session.StartedAt, session.EndedAt,
	).Scan(&session.ID)
	if isUniqueViolation(err) {
		return domain.Session{}, fmt.Errorf("code %s already active: %w", session.Code, domain.ErrDuplicateCode)
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("create session: %w", err)
	}
	return session, nil
}

func (s *Store) GetSession(ctx context.Context, id int64) (domain.Session, error) {
	session, err := s.scanSession(s.pool.QueryRow(ctx, sessionColumns+` WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Session{}, fmt.Errorf("session %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("get session: %w", err)
	}
	return session, nil
}

func (s *Store) GetActiveSessionByCode(ctx context.Context, code string) (domain.Session, error) {
	session, err := s.scanSession(s.pool.QueryRow(ctx, sessionColumns+` WHERE code=$1 AND status='active'`, code))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Session{}, fmt.Errorf("no active session with code %s: %w", code, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("get session by code: %w", err)
	}
	return session, nil
}

func (s *Store) UpdateSession(ctx context.Context, session domain.Session) (domain.Session, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE sessions SET title=$2, status=$3, quiz_status=$4, course_text=$5, time_limit_seconds=$6, started_at=$7, ended_at=$8 WHERE id=$1`,
		session.ID, session.Title, session.Status, session.QuizStatus,
		session.CourseText, session.TimeLimitSeconds, session.StartedAt, session.EndedAt,
	)
	if err != nil {
		return domain.Session{}, fmt.Errorf("update session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.Session{}, fmt.Errorf("session %d: %w", session.ID, domain.ErrNotFound)
	}
	return session, nil
}

const sessionColumns = `SELECT id, teacher_id, title, code, status, quiz_status, course_text, time_limit_seconds, created_at, started_at, ended_at FROM sessions`

func (s *Store) scanSession(row pgx.Row) (domain.Session, error) {
	var session domain.Session
	err := row.Scan(&session.ID, &session.TeacherID, &session.Title, &session.Code,
		&session.Status, &session.QuizStatus, &session.CourseText, &session.TimeLimitSeconds,
		&session.CreatedAt, &session.StartedAt, &session.EndedAt)
	return session, err
}

func (s *Store) CreateQuestion(ctx context.Context, q domain.Question) (domain.Question, error) {
	options, err := json.Marshal(q.Options)
	if err != nil {
		return domain.Question{}, fmt.Errorf("marshal options: %w", err)
	}
	err = s.pool.QueryRow(ctx,
		`INSERT INTO questions (session_id, question_text, options, correct_option, topic, difficulty, points, order_index, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`,
		q.SessionID, q.Text, options, q.CorrectOption, q.Topic, q.Difficulty, q.Points, q.OrderIndex, q.CreatedAt,
	).Scan(&q.ID)
	if err != nil {
		return domain.Question{}, fmt.Errorf("create question: %w", err)
	}
	return q, nil
}

func (s *Store) ListQuestions(ctx context.Context, sessionID int64) ([]domain.Question, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, session_id, question_text, options, correct_option, topic, difficulty, points, order_index, created_at
		 FROM questions WHERE session_id=$1 ORDER BY order_index`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	var out []domain.Question
	for rows.Next() {
		var q domain.Question
		var options []byte
		if err := rows.Scan(&q.ID, &q.SessionID, &q.Text, &options, &q.CorrectOption,
			&q.Topic, &q.Difficulty, &q.Points, &q.OrderIndex, &q.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		if err := json.Unmarshal(options, &q.Options); err != nil {
			return nil, fmt.Errorf("unmarshal options: %w", err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *Store) CreateStudent(ctx context.Context, st domain.Student) (domain.Student, error) {
	interests, err := json.Marshal(st.Interests)
	if err != nil {
		return domain.Student{}, fmt.Errorf("marshal interests: %w", err)
	}
	err = s.pool.QueryRow(ctx,
		`INSERT INTO students (session_id, name, interests, joined_at) VALUES ($1, $2, $3, $4) RETURNING id`,
		st.SessionID, st.Name, interests, st.JoinedAt,
	).Scan(&st.ID)
	if err != nil {
		return domain.Student{}, fmt.Errorf("create student: %w", err)
	}
	return st, nil
}

func (s *Store) GetStudent(ctx context.Context, id int64) (domain.Student, error) {
	var st domain.Student
	var interests []byte
	err := s.pool.QueryRow(ctx,
		`SELECT id, session_id, name, interests, joined_at FROM students WHERE id=$1`, id,
	).Scan(&st.ID, &st.SessionID, &st.Name, &interests, &st.JoinedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Student{}, fmt.Errorf("student %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Student{}, fmt.Errorf("get student: %w", err)
	}
	if err := json.Unmarshal(interests, &st.Interests); err != nil {
		return domain.Student{}, fmt.Errorf("unmarshal interests: %w", err)
	}
	return st, nil
}

func (s *Store) ListStudents(ctx context.Context, sessionID int64) ([]domain.Student, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, session_id, name, interests, joined_at FROM students WHERE session_id=$1 ORDER BY id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	defer rows.Close()

	var out []domain.Student
	for rows.Next() {
		var st domain.Student
		var interests []byte
		if err := rows.Scan(&st.ID, &st.SessionID, &st.Name, &interests, &st.JoinedAt); err != nil {
			return nil, fmt.Errorf("scan student: %w", err)
		}
		if err := json.Unmarshal(interests, &st.Interests); err != nil {
			return nil, fmt.Errorf("unmarshal interests: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (s *Store) CreateResponse(ctx context.Context, r domain.Response) (domain.Response, error) {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO responses (student_id, question_id, session_id, selected_option, is_correct, time_taken_seconds, points, submitted_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		r.StudentID, r.QuestionID, r.SessionID, r.SelectedOption, r.Correct, r.TimeTakenSeconds, r.Points, r.SubmittedAt,
	).Scan(&r.ID)
	if err != nil {
		return domain.Response{}, fmt.Errorf("create response: %w", err)
	}
	return r, nil
}

func (s *Store) ListResponsesBySession(ctx context.Context, sessionID int64) ([]domain.Response, error) {
	return s.listResponses(ctx, `session_id`, sessionID)
}

func (s *Store) ListResponsesByStudent(ctx context.Context, studentID int64) ([]domain.Response, error) {
	return s.listResponses(ctx, `student_id`, studentID)
}

func (s *Store) listResponses(ctx context.Context, column string, id int64) ([]domain.Response, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, student_id, question_id, session_id, selected_option, is_correct, time_taken_seconds, points, submitted_at
		 FROM responses WHERE `+column+`=$1 ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	defer rows.Close()

	var out []domain.Response
	for rows.Next() {
		var r domain.Response
		if err := rows.Scan(&r.ID, &r.StudentID, &r.QuestionID, &r.SessionID,
			&r.SelectedOption, &r.Correct, &r.TimeTakenSeconds, &r.Points, &r.SubmittedAt); err != nil {
			return nil, fmt.Errorf("scan response: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
