package srs

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/kanji-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func statItem(char string, level int, due time.Time, reviewed *time.Time) *domain.KanjiItem {
	return &domain.KanjiItem{
		ID:             uuid.New(),
		Character:      char,
		Meaning:        "m-" + char,
		MasteryLevel:   level,
		NextReviewAt:   due,
		LastReviewedAt: reviewed,
	}
}

func at(t time.Time) *time.Time { return &t }

func TestComputeStats_Empty(t *testing.T) {
	t.Parallel()
	stats := ComputeStats(nil, time.Now(), nil)

	assert.Equal(t, 0, stats.TotalKanji)
	assert.Equal(t, 0.0, stats.MasteryProgress)
	assert.Equal(t, 0, stats.Streak)
	require.Len(t, stats.MasteryLevels, LevelCount)
	for level, bucket := range stats.MasteryLevels {
		assert.Equal(t, level, bucket.Level)
		assert.NotNil(t, bucket.Items, "empty buckets encode as [] not null")
	}
}

func TestComputeStats_Counts(t *testing.T) {
	t.Parallel()
	now := time.Date(2024, 7, 15, 18, 0, 0, 0, time.UTC)

	items := []*domain.KanjiItem{
		statItem("一", 0, now.Add(-time.Hour), nil),
		statItem("二", 2, now.Add(time.Hour), at(now.Add(-time.Hour))),
		statItem("三", 4, now, at(now.Add(-2*time.Hour))),
		statItem("四", 5, now.Add(48*time.Hour), at(now.Add(-3*time.Hour))),
	}

	stats := ComputeStats(items, now, time.UTC)

	assert.Equal(t, 4, stats.TotalKanji)
	assert.Equal(t, 1, stats.Mastered)
	assert.Equal(t, 2, stats.Learning)
	assert.Equal(t, 2, stats.DueForReview)
	// (0+2+4+5) / (5*4) = 55%
	assert.InDelta(t, 55.0, stats.MasteryProgress, 0.001)
	assert.Equal(t, 1, stats.MasteryLevels[2].Count)
	assert.Equal(t, "二", stats.MasteryLevels[2].Items[0].Character)
	assert.Equal(t, 0, stats.MasteryLevels[1].Count)
	assert.Equal(t, 1, stats.Streak)
}

func TestComputeStats_ProgressRounding(t *testing.T) {
	t.Parallel()
	now := time.Now().UTC()
	items := []*domain.KanjiItem{
		statItem("a", 1, now, nil),
		statItem("b", 0, now, nil),
		statItem("c", 0, now, nil),
	}
	// 1 / 15 = 6.666...%
	assert.Equal(t, 6.67, ComputeStats(items, now, nil).MasteryProgress)
}

func TestComputeStats_Streak(t *testing.T) {
	t.Parallel()
	d := time.Date(2024, 8, 1, 10, 0, 0, 0, time.UTC)
	day := 24 * time.Hour

	items := []*domain.KanjiItem{
		statItem("a", 1, d, at(d)),
		statItem("b", 1, d, at(d.Add(day))),
		statItem("c", 1, d, at(d.Add(2*day))),
	}

	assert.Equal(t, 3, ComputeStats(items, d.Add(2*day+5*time.Hour), time.UTC).Streak)
	assert.Equal(t, 0, ComputeStats(items, d.Add(3*day), time.UTC).Streak, "no review today breaks the streak")
	assert.Equal(t, 2, ComputeStats(items, d.Add(day), time.UTC).Streak)
}

func TestComputeStats_StreakUsesLocation(t *testing.T) {
	t.Parallel()
	tokyo := time.FixedZone("JST", 9*60*60)

	// 23:30 UTC on the 1st is already the 2nd in Tokyo.
	reviewed := time.Date(2024, 9, 1, 23, 30, 0, 0, time.UTC)
	now := time.Date(2024, 9, 2, 1, 0, 0, 0, time.UTC)
	items := []*domain.KanjiItem{statItem("a", 1, now, at(reviewed))}

	assert.Equal(t, 0, ComputeStats(items, now, time.UTC).Streak)
	assert.Equal(t, 1, ComputeStats(items, now, tokyo).Streak)
}
