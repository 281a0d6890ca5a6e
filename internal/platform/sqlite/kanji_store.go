package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/kanji-api/internal/domain"
	"github.com/phrazzld/kanji-api/internal/platform/logger"
	"github.com/phrazzld/kanji-api/internal/store"
)

const kanjiColumns = `id, character, meaning, grade_class, difficulty, onyomi, kunyomi, examples,
	mastery_level, review_count, correct_count, last_reviewed_at, next_review_at,
	created_at, updated_at, version`

// KanjiStore implements store.KanjiStore on SQLite.
type KanjiStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewKanjiStore creates a SQLite kanji store. The caller owns db.
func NewKanjiStore(db store.DBTX, logger *slog.Logger) *KanjiStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &KanjiStore{
		db:     db,
		logger: logger.With(slog.String("component", "sqlite_kanji_store")),
	}
}

var _ store.KanjiStore = (*KanjiStore)(nil)

// WithTx implements store.KanjiStore.WithTx
func (s *KanjiStore) WithTx(tx *sql.Tx) store.KanjiStore {
	return &KanjiStore{db: tx, logger: s.logger}
}

// Create implements store.KanjiStore.Create
func (s *KanjiStore) Create(ctx context.Context, item *domain.KanjiItem) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := item.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}
	row, err := toRow(item)
	if err != nil {
		return err
	}
	if item.Version == 0 {
		item.Version = 1
	}

	query := `INSERT INTO kanji (` + kanjiColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = s.db.ExecContext(ctx, query,
		item.ID.String(), item.Character, item.Meaning, row.gradeClass, string(item.Difficulty),
		row.onyomi, row.kunyomi, row.examples,
		item.MasteryLevel, item.ReviewCount, item.CorrectCount,
		row.lastReviewedAt, formatTime(item.NextReviewAt),
		formatTime(item.CreatedAt), formatTime(item.UpdatedAt), item.Version,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", store.ErrCharacterExists, item.Character)
		}
		log.Error("failed to create kanji",
			slog.String("error", err.Error()),
			slog.String("kanji_id", item.ID.String()))
		return MapError(err)
	}

	log.Debug("kanji created",
		slog.String("kanji_id", item.ID.String()),
		slog.String("character", item.Character))
	return nil
}

// GetByID implements store.KanjiStore.GetByID
func (s *KanjiStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.KanjiItem, error) {
	return s.getOne(ctx, `SELECT `+kanjiColumns+` FROM kanji WHERE id = ?`, id.String())
}

// GetByCharacter implements store.KanjiStore.GetByCharacter
func (s *KanjiStore) GetByCharacter(ctx context.Context, character string) (*domain.KanjiItem, error) {
	return s.getOne(ctx, `SELECT `+kanjiColumns+` FROM kanji WHERE character = ?`, character)
}

func (s *KanjiStore) getOne(ctx context.Context, query string, arg any) (*domain.KanjiItem, error) {
	item, err := scanKanji(s.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrKanjiNotFound
		}
		return nil, MapError(err)
	}
	return item, nil
}

// Update implements store.KanjiStore.Update as a compare-and-swap on version.
func (s *KanjiStore) Update(ctx context.Context, item *domain.KanjiItem) error {
	if err := item.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}
	row, err := toRow(item)
	if err != nil {
		return err
	}

	query := `UPDATE kanji
		SET meaning = ?, grade_class = ?, difficulty = ?, onyomi = ?, kunyomi = ?, examples = ?,
			mastery_level = ?, review_count = ?, correct_count = ?, last_reviewed_at = ?,
			next_review_at = ?, updated_at = ?, version = version + 1
		WHERE id = ? AND version = ?`
	result, err := s.db.ExecContext(ctx, query,
		item.Meaning, row.gradeClass, string(item.Difficulty), row.onyomi, row.kunyomi, row.examples,
		item.MasteryLevel, item.ReviewCount, item.CorrectCount, row.lastReviewedAt,
		formatTime(item.NextReviewAt), formatTime(item.UpdatedAt),
		item.ID.String(), item.Version,
	)
	if err != nil {
		return MapError(err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		var exists bool
		if err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM kanji WHERE id = ?)`,
			item.ID.String()).Scan(&exists); err != nil {
			return MapError(err)
		}
		if !exists {
			return store.ErrKanjiNotFound
		}
		return store.ErrVersionConflict
	}

	item.Version++
	return nil
}

// List implements store.KanjiStore.List
func (s *KanjiStore) List(ctx context.Context, gradeClass *int) ([]*domain.KanjiItem, error) {
	query := `SELECT ` + kanjiColumns + ` FROM kanji`
	var args []any
	if gradeClass != nil {
		query += ` WHERE grade_class = ?`
		args = append(args, *gradeClass)
	}
	query += ` ORDER BY grade_class IS NULL, grade_class, character`
	return s.query(ctx, query, args...)
}

// NextDue implements store.KanjiStore.NextDue
func (s *KanjiStore) NextDue(ctx context.Context, filter domain.ReviewFilter, now time.Time) (*domain.KanjiItem, error) {
	conditions := []string{"next_review_at <= ?"}
	args := []any{formatTime(now)}
	if filter.MasteryLevel != nil {
		conditions = append(conditions, "mastery_level = ?")
		args = append(args, *filter.MasteryLevel)
	}
	if filter.GradeClass != nil {
		conditions = append(conditions, "grade_class = ?")
		args = append(args, *filter.GradeClass)
	}

	query := `SELECT ` + kanjiColumns + ` FROM kanji WHERE ` + strings.Join(conditions, " AND ") +
		` ORDER BY next_review_at, mastery_level, id LIMIT 1`
	items, err := s.query(ctx, query, args...)
	if err != nil || len(items) == 0 {
		return nil, err
	}
	return items[0], nil
}

// ListAll implements store.KanjiStore.ListAll
func (s *KanjiStore) ListAll(ctx context.Context) ([]*domain.KanjiItem, error) {
	return s.query(ctx, `SELECT `+kanjiColumns+` FROM kanji ORDER BY id`)
}

// Count implements store.KanjiStore.Count
func (s *KanjiStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM kanji`).Scan(&n); err != nil {
		return 0, MapError(err)
	}
	return n, nil
}

func (s *KanjiStore) query(ctx context.Context, query string, args ...any) ([]*domain.KanjiItem, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.FromContextOrDefault(ctx, s.logger).Error("failed to close rows",
				slog.String("error", err.Error()))
		}
	}()

	items := []*domain.KanjiItem{}
	for rows.Next() {
		item, err := scanKanji(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return items, nil
}

type kanjiRow struct {
	gradeClass                sql.NullInt64
	onyomi, kunyomi, examples string
	lastReviewedAt            sql.NullString
}

func toRow(item *domain.KanjiItem) (kanjiRow, error) {
	var row kanjiRow
	if item.GradeClass != nil {
		row.gradeClass = sql.NullInt64{Int64: int64(*item.GradeClass), Valid: true}
	}
	row.lastReviewedAt = nullableTime(item.LastReviewedAt)

	lists := []struct {
		dest *string
		v    any
	}{
		{&row.onyomi, orEmpty(item.Onyomi)},
		{&row.kunyomi, orEmpty(item.Kunyomi)},
		{&row.examples, orEmpty(item.Examples)},
	}
	for _, l := range lists {
		b, err := json.Marshal(l.v)
		if err != nil {
			return row, fmt.Errorf("failed to encode kanji lists: %w", err)
		}
		*l.dest = string(b)
	}
	return row, nil
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanKanji(r rowScanner) (*domain.KanjiItem, error) {
	var (
		item                               domain.KanjiItem
		id, difficulty                     string
		row                                kanjiRow
		nextReviewAt, createdAt, updatedAt string
	)
	err := r.Scan(
		&id, &item.Character, &item.Meaning, &row.gradeClass, &difficulty,
		&row.onyomi, &row.kunyomi, &row.examples,
		&item.MasteryLevel, &item.ReviewCount, &item.CorrectCount,
		&row.lastReviewedAt, &nextReviewAt, &createdAt, &updatedAt, &item.Version,
	)
	if err != nil {
		return nil, err
	}

	if item.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("sqlite: invalid kanji id %q: %w", id, err)
	}
	item.Difficulty = domain.Difficulty(difficulty)
	if row.gradeClass.Valid {
		v := int(row.gradeClass.Int64)
		item.GradeClass = &v
	}
	if row.lastReviewedAt.Valid {
		t, err := parseTime(row.lastReviewedAt.String)
		if err != nil {
			return nil, err
		}
		item.LastReviewedAt = &t
	}
	for _, ts := range []struct {
		raw  string
		dest *time.Time
	}{
		{nextReviewAt, &item.NextReviewAt},
		{createdAt, &item.CreatedAt},
		{updatedAt, &item.UpdatedAt},
	} {
		if *ts.dest, err = parseTime(ts.raw); err != nil {
			return nil, err
		}
	}

	item.Onyomi, item.Kunyomi, item.Examples = []string{}, []string{}, []domain.Example{}
	for _, l := range []struct {
		raw  string
		dest any
	}{
		{row.onyomi, &item.Onyomi},
		{row.kunyomi, &item.Kunyomi},
		{row.examples, &item.Examples},
	} {
		if err := json.Unmarshal([]byte(l.raw), l.dest); err != nil {
			return nil, fmt.Errorf("failed to decode kanji lists: %w", err)
		}
	}
	return &item, nil
}
