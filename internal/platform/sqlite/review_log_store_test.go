package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/kanji-api/internal/domain"
	"github.com/phrazzld/kanji-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReviewLogStore_AppendAndList(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	kanji := NewKanjiStore(db, nil)
	logs := NewReviewLogStore(db, nil)
	now := time.Date(2024, 4, 1, 8, 0, 0, 0, time.UTC)

	item := mustItem(t, "花", nil, now)
	require.NoError(t, kanji.Create(ctx, item))

	for i, result := range []domain.ReviewResult{domain.ReviewCorrect, domain.ReviewHard, domain.ReviewIncorrect} {
		require.NoError(t, logs.Append(ctx, &domain.ReviewEvent{
			ID:            uuid.New(),
			KanjiID:       item.ID,
			Result:        result,
			PreviousLevel: i,
			NewLevel:      i + 1,
			ReviewedAt:    now.Add(time.Duration(i) * time.Hour),
			NextReviewAt:  now.Add(24 * time.Hour),
		}))
	}

	all, err := logs.ListByKanji(ctx, item.ID, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, domain.ReviewIncorrect, all[0].Result)
	assert.Equal(t, now.Add(2*time.Hour), all[0].ReviewedAt)

	limited, err := logs.ListByKanji(ctx, item.ID, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	other, err := logs.ListByKanji(ctx, uuid.New(), 0)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestReviewLogStore_UnknownKanji(t *testing.T) {
	logs := NewReviewLogStore(openTestDB(t), nil)

	err := logs.Append(context.Background(), &domain.ReviewEvent{
		ID:           uuid.New(),
		KanjiID:      uuid.New(),
		Result:       domain.ReviewCorrect,
		ReviewedAt:   time.Now(),
		NextReviewAt: time.Now(),
	})
	assert.ErrorIs(t, err, store.ErrInvalidEntity)
}
