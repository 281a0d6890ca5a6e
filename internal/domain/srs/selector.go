package srs

import (
	"time"

	"github.com/phrazzld/kanji-api/internal/domain"
)

// DueBefore reports whether a should be presented before b: the earlier
// next_review_at wins, then the lower mastery level, then the lower id.
func DueBefore(a, b *domain.KanjiItem) bool {
	if !a.NextReviewAt.Equal(b.NextReviewAt) {
		return a.NextReviewAt.Before(b.NextReviewAt)
	}
	if a.MasteryLevel != b.MasteryLevel {
		return a.MasteryLevel < b.MasteryLevel
	}
	return a.ID.String() < b.ID.String()
}

// PickNext returns the most overdue item matching filter at now, or nil when
// nothing is due. It has no side effects.
func PickNext(items []*domain.KanjiItem, filter domain.ReviewFilter, now time.Time) *domain.KanjiItem {
	var best *domain.KanjiItem
	for _, item := range items {
		if item == nil || !item.IsDue(now) || !filter.Matches(item) {
			continue
		}
		if best == nil || DueBefore(item, best) {
			best = item
		}
	}
	return best
}
