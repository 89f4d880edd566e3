package domain

import "time"

// SessionStatus tracks whether a session still accepts joins.
type SessionStatus string

const (
	SessionActive SessionStatus = "active"
	SessionEnded  SessionStatus = "ended"
)

// QuizStatus is the sub-state of a session that governs answering. It is
// independent of SessionStatus except that an in-progress quiz always
// belongs to an active session.
type QuizStatus string

const (
	QuizNotStarted QuizStatus = "not_started"
	QuizInProgress QuizStatus = "in_progress"
	QuizCompleted  QuizStatus = "completed"
)

// Difficulty labels a question by cognitive depth.
type Difficulty string

const (
	DifficultyFoundation  Difficulty = "foundation"
	DifficultyApplication Difficulty = "application"
	DifficultyAnalysis    Difficulty = "analysis"
)

// Valid reports whether d is one of the known difficulty labels.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyFoundation, DifficultyApplication, DifficultyAnalysis:
		return true
	}
	return false
}

// Teacher owns sessions. Immutable after creation except the display name.
type Teacher struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Session is one teacher-run quiz instance, joinable by a 4-digit code.
// The code is unique among active sessions only; ended sessions free their
// code for reuse.
type Session struct {
	ID               int64         `json:"id"`
	TeacherID        int64         `json:"teacherId"`
	Title            string        `json:"title"`
	Code             string        `json:"code"`
	Status           SessionStatus `json:"status"`
	QuizStatus       QuizStatus    `json:"quizStatus"`
	CourseText       string        `json:"courseText,omitempty"`
	TimeLimitSeconds int           `json:"timeLimitSeconds,omitempty"`
	CreatedAt        time.Time     `json:"createdAt"`
	StartedAt        *time.Time    `json:"startedAt,omitempty"`
	EndedAt          *time.Time    `json:"endedAt,omitempty"`
}

// Question is a four-option MCQ. Immutable once created; order indices are
// zero-based and contiguous within a session.
type Question struct {
	ID            int64      `json:"id"`
	SessionID     int64      `json:"sessionId"`
	Text          string     `json:"text"`
	Options       []string   `json:"options"`
	CorrectOption int        `json:"correctOption"`
	Topic         string     `json:"topic"`
	Difficulty    Difficulty `json:"difficulty"`
	Points        int        `json:"points"`
	OrderIndex    int        `json:"orderIndex"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// QuestionDraft is the caller-supplied shape for attaching questions; the
// engine assigns IDs and order indices.
type QuestionDraft struct {
	Text          string     `json:"text"`
	Options       []string   `json:"options"`
	CorrectOption int        `json:"correctOption"`
	Topic         string     `json:"topic"`
	Difficulty    Difficulty `json:"difficulty"`
	Points        int        `json:"points"` // defaults to the configured base when zero
}

// Student belongs to exactly one session.
type Student struct {
	ID        int64     `json:"id"`
	SessionID int64     `json:"sessionId"`
	Name      string    `json:"name"`
	Interests []string  `json:"interests,omitempty"`
	JoinedAt  time.Time `json:"joinedAt"`
}

// Response records one submitted answer. Correctness and points are derived
// once at write time and never recomputed.
type Response struct {
	ID               int64     `json:"id"`
	StudentID        int64     `json:"studentId"`
	QuestionID       int64     `json:"questionId"`
	SessionID        int64     `json:"sessionId"`
	SelectedOption   int       `json:"selectedOption"`
	Correct          bool      `json:"correct"`
	TimeTakenSeconds int       `json:"timeTakenSeconds"`
	Points           int       `json:"points"`
	SubmittedAt      time.Time `json:"submittedAt"`
}

// AnswerKey is the cached per-question scoring material used on the
// submission hot path.
type AnswerKey struct {
	QuestionID    int64
	CorrectOption int
	Points        int
}

// AnswerResult summarizes the outcome of a submission for one student.
type AnswerResult struct {
	QuestionID  int64 `json:"questionId"`
	Correct     bool  `json:"correct"`
	Points      int   `json:"points"`
	Streak      int   `json:"streak"`
	TotalPoints int   `json:"totalPoints"`
}

// LeaderboardEntry is one ranked row of a session leaderboard.
type LeaderboardEntry struct {
	Rank          int    `json:"rank"`
	StudentID     int64  `json:"studentId"`
	Name          string `json:"name"`
	TotalPoints   int    `json:"totalPoints"`
	CorrectCount  int    `json:"correctCount"`
	TotalAnswered int    `json:"totalAnswered"`
	BestStreak    int    `json:"bestStreak"`
}

// Leaderboard captures the ordered scoreboard for a session.
type Leaderboard struct {
	SessionID int64              `json:"sessionId"`
	Entries   []LeaderboardEntry `json:"entries"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// QuestionStats aggregates responses for one question.
type QuestionStats struct {
	QuestionID         int64   `json:"questionId"`
	Text               string  `json:"text"`
	Topic              string  `json:"topic"`
	TotalResponses     int     `json:"totalResponses"`
	CorrectResponses   int     `json:"correctResponses"`
	SuccessRate        float64 `json:"successRate"`
	AverageTimeSeconds float64 `json:"averageTimeSeconds"`
}

// SessionStats is the teacher-facing analytics snapshot for a session.
type SessionStats struct {
	SessionID      int64           `json:"sessionId"`
	TotalStudents  int             `json:"totalStudents"`
	TotalQuestions int             `json:"totalQuestions"`
	TotalResponses int             `json:"totalResponses"`
	CorrectRate    float64         `json:"correctRate"`
	Questions      []QuestionStats `json:"questions"`
}
