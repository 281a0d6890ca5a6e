package sqlite

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/kanji-api/internal/domain"
	"github.com/phrazzld/kanji-api/internal/store"
)

// ReviewLogStore implements store.ReviewLogStore on SQLite.
type ReviewLogStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewReviewLogStore creates a SQLite review log store.
func NewReviewLogStore(db store.DBTX, logger *slog.Logger) *ReviewLogStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ReviewLogStore{db: db, logger: logger.With(slog.String("component", "sqlite_review_log_store"))}
}

var _ store.ReviewLogStore = (*ReviewLogStore)(nil)

// Append implements store.ReviewLogStore.Append
func (s *ReviewLogStore) Append(ctx context.Context, event *domain.ReviewEvent) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO review_events
		(id, kanji_id, result, previous_level, new_level, reviewed_at, next_review_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		event.ID.String(), event.KanjiID.String(), string(event.Result),
		event.PreviousLevel, event.NewLevel,
		formatTime(event.ReviewedAt), formatTime(event.NextReviewAt),
	)
	if err != nil {
		s.logger.Error("failed to append review event",
			slog.String("error", err.Error()),
			slog.String("kanji_id", event.KanjiID.String()))
		return MapError(err)
	}
	return nil
}

// ListByKanji implements store.ReviewLogStore.ListByKanji
func (s *ReviewLogStore) ListByKanji(ctx context.Context, kanjiID uuid.UUID, limit int) ([]*domain.ReviewEvent, error) {
	query := `SELECT id, kanji_id, result, previous_level, new_level, reviewed_at, next_review_at
		FROM review_events WHERE kanji_id = ? ORDER BY reviewed_at DESC, id`
	args := []any{kanjiID.String()}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	events := []*domain.ReviewEvent{}
	for rows.Next() {
		var (
			ev                                 domain.ReviewEvent
			id, kid, result, reviewed, nextDue string
		)
		if err := rows.Scan(&id, &kid, &result, &ev.PreviousLevel, &ev.NewLevel, &reviewed, &nextDue); err != nil {
			return nil, fmt.Errorf("failed to scan review event: %w", err)
		}
		if ev.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("sqlite: invalid review event id %q: %w", id, err)
		}
		if ev.KanjiID, err = uuid.Parse(kid); err != nil {
			return nil, fmt.Errorf("sqlite: invalid kanji id %q: %w", kid, err)
		}
		ev.Result = domain.ReviewResult(result)
		if ev.ReviewedAt, err = parseTime(reviewed); err != nil {
			return nil, err
		}
		if ev.NextReviewAt, err = parseTime(nextDue); err != nil {
			return nil, err
		}
		events = append(events, &ev)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return events, nil
}
