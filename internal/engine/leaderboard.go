package engine

import (
	"context"
	"sort"
	"time"

	"classquiz-engine/internal/domain"
)

type standing struct {
	student      domain.Student
	totalPoints  int
	correct      int
	answered     int
	run          int
	bestStreak   int
	firstCorrect time.Time
}

// Leaderboard folds all of a session's responses into a ranked list of
// per-student totals. It is read-only and recomputes from scratch on every
// call; stored point values are summed, never rescored. Best streak is
// replayed from the responses in submission order. Ties on total points break
// toward the earlier first correct answer, then by name, so the ordering is
// deterministic regardless of how the store returns rows.
func (e *Engine) Leaderboard(ctx context.Context, sessionID int64) (domain.Leaderboard, error) {
	if _, err := e.store.GetSession(ctx, sessionID); err != nil {
		return domain.Leaderboard{}, err
	}
	students, err := e.store.ListStudents(ctx, sessionID)
	if err != nil {
		return domain.Leaderboard{}, err
	}
	responses, err := e.store.ListResponsesBySession(ctx, sessionID)
	if err != nil {
		return domain.Leaderboard{}, err
	}

	sort.Slice(responses, func(i, j int) bool {
		if !responses[i].SubmittedAt.Equal(responses[j].SubmittedAt) {
			return responses[i].SubmittedAt.Before(responses[j].SubmittedAt)
		}
		return responses[i].ID < responses[j].ID
	})

	standings := make(map[int64]*standing, len(students))
	for _, s := range students {
		standings[s.ID] = &standing{student: s}
	}
	for _, r := range responses {
		st, ok := standings[r.StudentID]
		if !ok {
			continue
		}
		st.totalPoints += r.Points
		st.answered++
		if r.Correct {
			st.correct++
			st.run++
			if st.run > st.bestStreak {
				st.bestStreak = st.run
			}
			if st.firstCorrect.IsZero() {
				st.firstCorrect = r.SubmittedAt
			}
		} else {
			st.run = 0
		}
	}

	ranked := make([]*standing, 0, len(standings))
	for _, st := range standings {
		ranked = append(ranked, st)
	}
	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.totalPoints != b.totalPoints {
			return a.totalPoints > b.totalPoints
		}
		if !a.firstCorrect.Equal(b.firstCorrect) {
			// a missing first-correct timestamp sorts last
			if a.firstCorrect.IsZero() {
				return false
			}
			if b.firstCorrect.IsZero() {
				return true
			}
			return a.firstCorrect.Before(b.firstCorrect)
		}
		if a.student.Name != b.student.Name {
			return a.student.Name < b.student.Name
		}
		return a.student.ID < b.student.ID
	})

	entries := make([]domain.LeaderboardEntry, 0, len(ranked))
	for i, st := range ranked {
		entries = append(entries, domain.LeaderboardEntry{
			Rank:          i + 1,
			StudentID:     st.student.ID,
			Name:          st.student.Name,
			TotalPoints:   st.totalPoints,
			CorrectCount:  st.correct,
			TotalAnswered: st.answered,
			BestStreak:    st.bestStreak,
		})
	}
	return domain.Leaderboard{
		SessionID: sessionID,
		Entries:   entries,
		UpdatedAt: e.now(),
	}, nil
}
