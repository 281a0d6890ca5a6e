//go:build integration

package postgres_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/phrazzld/kanji-api/internal/domain"
	"github.com/phrazzld/kanji-api/internal/platform/postgres"
	"github.com/phrazzld/kanji-api/internal/store"
	"github.com/phrazzld/kanji-api/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIntegrationItem(t *testing.T, character string, now time.Time) *domain.KanjiItem {
	t.Helper()
	class := 6
	item, err := domain.NewKanjiItem(domain.NewKanjiParams{
		Character:  character,
		Meaning:    "integration " + character,
		GradeClass: &class,
		Onyomi:     []string{"サク"},
		Examples:   []domain.Example{{Japanese: character + "る", Meaning: "example"}},
	}, now)
	require.NoError(t, err)
	return item
}

func TestPostgresKanjiStore_Integration(t *testing.T) {
	db := testdb.GetTestDBWithT(t)
	// Old timestamps keep these rows ahead of anything else already due.
	base := time.Date(2001, 3, 4, 5, 0, 0, 0, time.UTC)

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		ctx, cancel := context.WithTimeout(context.Background(), testdb.TestTimeout)
		defer cancel()

		kanji := postgres.NewPostgresKanjiStore(tx, nil)
		reviews := postgres.NewPostgresReviewLogStore(tx, nil)

		first := newIntegrationItem(t, "鑿", base)
		second := newIntegrationItem(t, "鬱", base.Add(-time.Hour))
		require.NoError(t, kanji.Create(ctx, first))
		require.NoError(t, kanji.Create(ctx, second))

		got, err := kanji.GetByID(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, "鑿", got.Character)
		assert.Equal(t, []string{"サク"}, got.Onyomi)
		assert.Empty(t, got.Kunyomi)
		require.NotNil(t, got.GradeClass)
		assert.Equal(t, 6, *got.GradeClass)
		assert.Equal(t, 1, got.Version)

		byChar, err := kanji.GetByCharacter(ctx, "鬱")
		require.NoError(t, err)
		assert.Equal(t, second.ID, byChar.ID)

		due, err := kanji.NextDue(ctx, domain.ReviewFilter{}, base.Add(time.Minute))
		require.NoError(t, err)
		require.NotNil(t, due)
		assert.Equal(t, second.ID, due.ID, "earliest next_review_at comes first")

		// Compare-and-swap: the first writer wins, the stale copy conflicts.
		stale := got.Clone()
		reviewedAt := base.Add(time.Minute)
		got.MasteryLevel = 1
		got.ReviewCount = 1
		got.CorrectCount = 1
		got.LastReviewedAt = &reviewedAt
		got.NextReviewAt = reviewedAt.Add(24 * time.Hour)
		got.UpdatedAt = reviewedAt
		require.NoError(t, kanji.Update(ctx, got))
		assert.Equal(t, 2, got.Version)

		stale.MasteryLevel = 0
		err = kanji.Update(ctx, stale)
		assert.ErrorIs(t, err, store.ErrVersionConflict)

		event := domain.NewReviewEvent(stale, got, domain.ReviewCorrect)
		require.NoError(t, reviews.Append(ctx, event))

		history, err := reviews.ListByKanji(ctx, first.ID, 10)
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Equal(t, domain.ReviewCorrect, history[0].Result)
		assert.Equal(t, 0, history[0].PreviousLevel)
		assert.Equal(t, 1, history[0].NewLevel)

		// A unique violation aborts the transaction, so it runs last.
		dup := newIntegrationItem(t, "鑿", base)
		err = kanji.Create(ctx, dup)
		assert.ErrorIs(t, err, store.ErrCharacterExists)
	})
}
