package srs

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/kanji-api/internal/domain"
)

// Stats is the dashboard summary of the whole item set.
type Stats struct {
	TotalKanji      int            `json:"total_kanji"`
	Mastered        int            `json:"mastered"`
	Learning        int            `json:"learning"`
	DueForReview    int            `json:"due_for_review"`
	MasteryProgress float64        `json:"mastery_progress"`
	MasteryLevels   []LevelSummary `json:"mastery_levels"`
	Streak          int            `json:"streak"`
}

// LevelSummary lists the items sitting in one box of the ladder.
type LevelSummary struct {
	Level int           `json:"level"`
	Count int           `json:"count"`
	Items []ItemSummary `json:"items"`
}

// ItemSummary is the per-item slice of a LevelSummary.
type ItemSummary struct {
	ID           uuid.UUID `json:"id"`
	Character    string    `json:"character"`
	Meaning      string    `json:"meaning"`
	ReviewCount  int       `json:"review_count"`
	CorrectCount int       `json:"correct_count"`
}

// ComputeStats aggregates items at now. Calendar days for the streak are
// taken in loc; a nil loc means UTC.
func ComputeStats(items []*domain.KanjiItem, now time.Time, loc *time.Location) Stats {
	if loc == nil {
		loc = time.UTC
	}

	stats := Stats{MasteryLevels: make([]LevelSummary, LevelCount)}
	for level := range stats.MasteryLevels {
		stats.MasteryLevels[level] = LevelSummary{Level: level, Items: []ItemSummary{}}
	}

	levelSum := 0
	reviewDays := make(map[civilDay]struct{})

	for _, item := range items {
		if item == nil {
			continue
		}
		level := clampLevel(item.MasteryLevel)

		stats.TotalKanji++
		levelSum += level
		switch {
		case level == domain.MaxMasteryLevel:
			stats.Mastered++
		case level > domain.MinMasteryLevel:
			stats.Learning++
		}
		if item.IsDue(now) {
			stats.DueForReview++
		}
		if item.LastReviewedAt != nil {
			reviewDays[dayOf(*item.LastReviewedAt, loc)] = struct{}{}
		}

		bucket := &stats.MasteryLevels[level]
		bucket.Count++
		bucket.Items = append(bucket.Items, ItemSummary{
			ID:           item.ID,
			Character:    item.Character,
			Meaning:      item.Meaning,
			ReviewCount:  item.ReviewCount,
			CorrectCount: item.CorrectCount,
		})
	}

	for i := range stats.MasteryLevels {
		bucketItems := stats.MasteryLevels[i].Items
		sort.SliceStable(bucketItems, func(a, b int) bool {
			if bucketItems[a].Character != bucketItems[b].Character {
				return bucketItems[a].Character < bucketItems[b].Character
			}
			return bucketItems[a].ID.String() < bucketItems[b].ID.String()
		})
	}

	stats.MasteryProgress = masteryProgress(levelSum, stats.TotalKanji)
	stats.Streak = streak(reviewDays, now, loc)
	return stats
}

// masteryProgress is the average level as a percentage of the top level,
// rounded to two decimals.
func masteryProgress(levelSum, total int) float64 {
	if total == 0 {
		return 0
	}
	pct := 100 * float64(levelSum) / float64(domain.MaxMasteryLevel*total)
	return math.Round(pct*100) / 100
}

// civilDay is a calendar date independent of time of day.
type civilDay struct {
	year  int
	month time.Month
	day   int
}

func dayOf(t time.Time, loc *time.Location) civilDay {
	y, m, d := t.In(loc).Date()
	return civilDay{y, m, d}
}

// streak counts consecutive days with a review, walking back from today.
func streak(days map[civilDay]struct{}, now time.Time, loc *time.Location) int {
	y, m, d := now.In(loc).Date()
	count := 0
	for {
		// Noon avoids DST edges when stepping back a day.
		day := time.Date(y, m, d-count, 12, 0, 0, 0, loc)
		if _, ok := days[dayOf(day, loc)]; !ok {
			return count
		}
		count++
	}
}
