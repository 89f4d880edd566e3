package engine

import "classquiz-engine/internal/domain"

// Score turns a single answer event into a point value. Incorrect answers
// score zero and the caller resets the student's streak. Correct answers earn
// the base points plus a speed bonus (+50 under 5s, +25 under 10s, boundaries
// fall into the lower tier) plus 10 points per consecutive correct answer
// already on the streak. The streak argument is the value before this answer;
// the caller increments it afterwards.
func Score(correct bool, timeTakenSeconds, basePoints, streak int) int {
	if !correct {
		return 0
	}
	points := basePoints
	switch {
	case timeTakenSeconds < 5:
		points += 50
	case timeTakenSeconds < 10:
		points += 25
	}
	return points + 10*streak
}

// SuccessBand returns the simulated success-probability band for a question
// difficulty. Centralized here so the simulator can never drift from the
// scoring semantics of real submissions.
func SuccessBand(d domain.Difficulty) (lo, hi float64) {
	switch d {
	case domain.DifficultyFoundation:
		return 0.70, 0.90
	case domain.DifficultyAnalysis:
		return 0.30, 0.50
	default:
		return 0.50, 0.70
	}
}
