package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/kanji-api/internal/domain"
	"github.com/phrazzld/kanji-api/internal/platform/logger"
	"github.com/phrazzld/kanji-api/internal/store"
)

// PostgresReviewLogStore implements store.ReviewLogStore.
type PostgresReviewLogStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresReviewLogStore creates a review log store on db.
func NewPostgresReviewLogStore(db store.DBTX, logger *slog.Logger) *PostgresReviewLogStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresReviewLogStore{
		db:     db,
		logger: logger.With(slog.String("component", "review_log_store")),
	}
}

var _ store.ReviewLogStore = (*PostgresReviewLogStore)(nil)

// Append implements store.ReviewLogStore.Append
func (s *PostgresReviewLogStore) Append(ctx context.Context, event *domain.ReviewEvent) error {
	query := `
		INSERT INTO review_events (id, kanji_id, result, previous_level, new_level, reviewed_at, next_review_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		event.ID,
		event.KanjiID,
		string(event.Result),
		event.PreviousLevel,
		event.NewLevel,
		event.ReviewedAt.UTC(),
		event.NextReviewAt.UTC(),
	)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to append review event",
			slog.String("error", err.Error()),
			slog.String("kanji_id", event.KanjiID.String()))
		return MapError(err)
	}
	return nil
}

// ListByKanji implements store.ReviewLogStore.ListByKanji
func (s *PostgresReviewLogStore) ListByKanji(
	ctx context.Context,
	kanjiID uuid.UUID,
	limit int,
) ([]*domain.ReviewEvent, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, kanji_id, result, previous_level, new_level, reviewed_at, next_review_at
		FROM review_events
		WHERE kanji_id = $1
		ORDER BY reviewed_at DESC, id
	`
	args := []any{kanjiID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	events := []*domain.ReviewEvent{}
	for rows.Next() {
		var ev domain.ReviewEvent
		var result string
		if err := rows.Scan(&ev.ID, &ev.KanjiID, &result, &ev.PreviousLevel, &ev.NewLevel,
			&ev.ReviewedAt, &ev.NextReviewAt); err != nil {
			return nil, fmt.Errorf("failed to scan review event: %w", err)
		}
		ev.Result = domain.ReviewResult(result)
		ev.ReviewedAt = ev.ReviewedAt.UTC()
		ev.NextReviewAt = ev.NextReviewAt.UTC()
		events = append(events, &ev)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return events, nil
}
