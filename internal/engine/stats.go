package engine

import (
	"context"

	"classquiz-engine/internal/domain"
)

// SessionStats aggregates per-question success rates and timings for the
// teacher dashboard.
func (e *Engine) SessionStats(ctx context.Context, sessionID int64) (domain.SessionStats, error) {
	if _, err := e.store.GetSession(ctx, sessionID); err != nil {
		return domain.SessionStats{}, err
	}
	students, err := e.store.ListStudents(ctx, sessionID)
	if err != nil {
		return domain.SessionStats{}, err
	}
	questions, err := e.store.ListQuestions(ctx, sessionID)
	if err != nil {
		return domain.SessionStats{}, err
	}
	responses, err := e.store.ListResponsesBySession(ctx, sessionID)
	if err != nil {
		return domain.SessionStats{}, err
	}

	stats := domain.SessionStats{
		SessionID:      sessionID,
		TotalStudents:  len(students),
		TotalQuestions: len(questions),
		TotalResponses: len(responses),
		Questions:      make([]domain.QuestionStats, 0, len(questions)),
	}

	correctTotal := 0
	byQuestion := make(map[int64][]domain.Response, len(questions))
	for _, r := range responses {
		if r.Correct {
			correctTotal++
		}
		byQuestion[r.QuestionID] = append(byQuestion[r.QuestionID], r)
	}
	if len(responses) > 0 {
		stats.CorrectRate = float64(correctTotal) / float64(len(responses))
	}

	for _, q := range questions {
		qs := domain.QuestionStats{
			QuestionID: q.ID,
			Text:       q.Text,
			Topic:      q.Topic,
		}
		rs := byQuestion[q.ID]
		qs.TotalResponses = len(rs)
		totalTime := 0
		for _, r := range rs {
			if r.Correct {
				qs.CorrectResponses++
			}
			totalTime += r.TimeTakenSeconds
		}
		if len(rs) > 0 {
			qs.SuccessRate = float64(qs.CorrectResponses) / float64(len(rs))
			qs.AverageTimeSeconds = float64(totalTime) / float64(len(rs))
		}
		stats.Questions = append(stats.Questions, qs)
	}
	return stats, nil
}
