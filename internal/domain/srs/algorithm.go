package srs

import (
	"time"

	"github.com/phrazzld/kanji-api/internal/domain"
)

// calculateNewLevel moves an item along the mastery ladder.
//
// Parameters:
//   - current: The item's mastery level before the review
//   - result: The learner's result (correct, hard, incorrect)
//   - params: Configuration parameters for the ladder
//
// Returns:
//   - The new level, always within [domain.MinMasteryLevel, domain.MaxMasteryLevel]
//
// Algorithm behavior:
//   - "correct" promotes by params.CorrectStep (default one box)
//   - "hard" keeps the item in its box
//   - "incorrect" demotes by params.IncorrectStep (default two boxes)
func calculateNewLevel(current int, result domain.ReviewResult, params *Params) int {
	switch result {
	case domain.ReviewCorrect:
		return clampLevel(current + params.CorrectStep)
	case domain.ReviewIncorrect:
		return clampLevel(current - params.IncorrectStep)
	default:
		return clampLevel(current)
	}
}

// calculateNextReviewAt returns when an item at level becomes due again,
// measured from now.
func calculateNextReviewAt(level int, now time.Time, params *Params) time.Time {
	return now.Add(params.Interval(level))
}

// calculateNextItem creates a new item with updated counters and schedule.
// The input item is never modified.
func calculateNextItem(
	item *domain.KanjiItem,
	result domain.ReviewResult,
	now time.Time,
	params *Params,
) *domain.KanjiItem {
	next := item.Clone()
	now = now.UTC()

	next.ReviewCount++
	if result == domain.ReviewCorrect {
		next.CorrectCount++
	}
	next.MasteryLevel = calculateNewLevel(item.MasteryLevel, result, params)
	next.LastReviewedAt = &now
	next.NextReviewAt = calculateNextReviewAt(next.MasteryLevel, now, params)
	next.UpdatedAt = now

	return next
}

func clampLevel(level int) int {
	if level < domain.MinMasteryLevel {
		return domain.MinMasteryLevel
	}
	if level > domain.MaxMasteryLevel {
		return domain.MaxMasteryLevel
	}
	return level
}
