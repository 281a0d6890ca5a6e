package srs

import (
	"testing"
	"time"

	"github.com/phrazzld/kanji-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestItem(t *testing.T, level int, now time.Time) *domain.KanjiItem {
	t.Helper()
	item, err := domain.NewKanjiItem(domain.NewKanjiParams{Character: "日", Meaning: "sun"}, now)
	require.NoError(t, err)
	item.MasteryLevel = level
	return item
}

func TestApplyReview(t *testing.T) {
	t.Parallel()
	service := NewDefaultService()
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	day := 24 * time.Hour

	testCases := []struct {
		name         string
		level        int
		result       domain.ReviewResult
		wantLevel    int
		wantCorrect  int
		wantInterval time.Duration
	}{
		{"correct from new", 0, domain.ReviewCorrect, 1, 1, day},
		{"correct at top stays", 5, domain.ReviewCorrect, 5, 1, 30 * day},
		{"hard keeps level", 2, domain.ReviewHard, 2, 0, 3 * day},
		{"incorrect from mastered", 5, domain.ReviewIncorrect, 3, 0, 7 * day},
		{"incorrect floors at zero", 1, domain.ReviewIncorrect, 0, 0, 0},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			item := newTestItem(t, tc.level, now.Add(-48*time.Hour))

			updated, err := service.ApplyReview(item, tc.result, now)

			require.NoError(t, err)
			assert.Equal(t, tc.wantLevel, updated.MasteryLevel)
			assert.Equal(t, 1, updated.ReviewCount)
			assert.Equal(t, tc.wantCorrect, updated.CorrectCount)
			require.NotNil(t, updated.LastReviewedAt)
			assert.Equal(t, now, *updated.LastReviewedAt)
			assert.Equal(t, now.Add(tc.wantInterval), updated.NextReviewAt)
			assert.Equal(t, item.ID, updated.ID)
			assert.Equal(t, item.Version, updated.Version, "version is advanced by the store, not the ladder")
		})
	}
}

func TestApplyReview_Errors(t *testing.T) {
	t.Parallel()
	service := NewDefaultService()
	now := time.Now().UTC()

	_, err := service.ApplyReview(nil, domain.ReviewCorrect, now)
	assert.ErrorIs(t, err, ErrNilItem)

	_, err = service.ApplyReview(newTestItem(t, 0, now), "easy", now)
	assert.ErrorIs(t, err, ErrInvalidResult)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestNewServiceWithParams(t *testing.T) {
	t.Parallel()
	params, err := NewParams(ParamsConfig{IncorrectStep: 1})
	require.NoError(t, err)
	service := NewServiceWithParams(params)
	now := time.Now().UTC()

	updated, err := service.ApplyReview(newTestItem(t, 5, now), domain.ReviewIncorrect, now)
	require.NoError(t, err)
	assert.Equal(t, 4, updated.MasteryLevel)
	assert.Equal(t, 1, service.Params().IncorrectStep)

	assert.Equal(t, *NewDefaultParams(), NewServiceWithParams(nil).Params())
}
