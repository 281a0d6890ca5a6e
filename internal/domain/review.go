package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ReviewResult is the learner's self-reported outcome for one review.
type ReviewResult string

// Possible review result values
const (
	ReviewCorrect   ReviewResult = "correct"
	ReviewHard      ReviewResult = "hard"
	ReviewIncorrect ReviewResult = "incorrect"
)

// IsValid reports whether r is one of the known results.
func (r ReviewResult) IsValid() bool {
	switch r {
	case ReviewCorrect, ReviewHard, ReviewIncorrect:
		return true
	default:
		return false
	}
}

// ParseReviewResult normalizes s and returns the matching result, or a
// *ValidationError on field "result".
func ParseReviewResult(s string) (ReviewResult, error) {
	r := ReviewResult(strings.ToLower(strings.TrimSpace(s)))
	if !r.IsValid() {
		return "", NewValidationError("result",
			fmt.Sprintf("must be one of correct, hard, incorrect (got %q)", s),
			ErrInvalidReviewResult)
	}
	return r, nil
}

// ReviewFilter narrows the candidate set for next-item selection. At most
// one dimension may be set; the zero value matches every item.
type ReviewFilter struct {
	MasteryLevel *int
	GradeClass   *int
}

// Validate checks the filter's shape and ranges.
func (f ReviewFilter) Validate() error {
	if f.MasteryLevel != nil && f.GradeClass != nil {
		return NewValidationError("filter", "only one of level or class may be set", ErrInvalidFilter)
	}
	if f.MasteryLevel != nil && (*f.MasteryLevel < MinMasteryLevel || *f.MasteryLevel > MaxMasteryLevel) {
		return NewValidationError("level", "must be between 0 and 5", ErrInvalidFilter)
	}
	if f.GradeClass != nil && (*f.GradeClass < MinGradeClass || *f.GradeClass > MaxGradeClass) {
		return NewValidationError("class", "must be between 1 and 6", ErrInvalidFilter)
	}
	return nil
}

// Matches reports whether item belongs to the filtered set, ignoring due-ness.
func (f ReviewFilter) Matches(item *KanjiItem) bool {
	if f.MasteryLevel != nil && item.MasteryLevel != *f.MasteryLevel {
		return false
	}
	if f.GradeClass != nil && (item.GradeClass == nil || *item.GradeClass != *f.GradeClass) {
		return false
	}
	return true
}

// ReviewEvent is an append-only record of one applied review.
type ReviewEvent struct {
	ID            uuid.UUID    `json:"id"`
	KanjiID       uuid.UUID    `json:"kanji_id"`
	Result        ReviewResult `json:"result"`
	PreviousLevel int          `json:"previous_level"`
	NewLevel      int          `json:"new_level"`
	ReviewedAt    time.Time    `json:"reviewed_at"`
	NextReviewAt  time.Time    `json:"next_review_at"`
}

// NewReviewEvent records the transition from before to after.
func NewReviewEvent(before, after *KanjiItem, result ReviewResult) *ReviewEvent {
	reviewedAt := after.UpdatedAt
	if after.LastReviewedAt != nil {
		reviewedAt = *after.LastReviewedAt
	}
	return &ReviewEvent{
		ID:            uuid.New(),
		KanjiID:       after.ID,
		Result:        result,
		PreviousLevel: before.MasteryLevel,
		NewLevel:      after.MasteryLevel,
		ReviewedAt:    reviewedAt,
		NextReviewAt:  after.NextReviewAt,
	}
}
