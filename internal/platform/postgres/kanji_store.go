package postgres

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

// PostgresKanjiStore implements the store.KanjiStore interface
// using a PostgreSQL database as the storage backend.
type PostgresKanjiStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresKanjiStore creates a new PostgreSQL implementation of the KanjiStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresKanjiStore(db store.DBTX, logger *slog.Logger) *PostgresKanjiStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresKanjiStore{
		db:     db,
		logger: logger.With(slog.String("component", "kanji_store")),
	}
}

// Ensure PostgresKanjiStore implements store.KanjiStore interface
var _ store.KanjiStore = (*PostgresKanjiStore)(nil)

// WithTx implements store.KanjiStore.WithTx
func (s *PostgresKanjiStore) WithTx(tx *sql.Tx) store.KanjiStore {
	return &PostgresKanjiStore{db: tx, logger: s.logger}
}

// Create implements store.KanjiStore.Create
func (s *PostgresKanjiStore) Create(ctx context.Context, item *domain.KanjiItem) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := item.Validate(); err != nil {
		log.Warn("kanji validation failed during create",
			slog.String("error", err.Error()),
			slog.String("kanji_id", item.ID.String()))
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	onyomi, kunyomi, examples, err := encodeLists(item)
	if err != nil {
		return err
	}
	if item.Version == 0 {
		item.Version = 1
	}

	query := `
		INSERT INTO kanji (` + kanjiColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	_, err = s.db.ExecContext(ctx, query,
		item.ID,
		item.Character,
		item.Meaning,
		nullableInt(item.GradeClass),
		string(item.Difficulty),
		onyomi,
		kunyomi,
		examples,
		item.MasteryLevel,
		item.ReviewCount,
		item.CorrectCount,
		nullableTime(item.LastReviewedAt),
		item.NextReviewAt.UTC(),
		item.CreatedAt.UTC(),
		item.UpdatedAt.UTC(),
		item.Version,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			log.Debug("duplicate character on create",
				slog.String("character", item.Character))
			return fmt.Errorf("%w: %s", store.ErrCharacterExists, item.Character)
		}
		log.Error("failed to create kanji",
			slog.String("error", err.Error()),
			slog.String("kanji_id", item.ID.String()))
		return MapError(err)
	}

	log.Info("kanji created successfully",
		slog.String("kanji_id", item.ID.String()),
		slog.String("character", item.Character))
	return nil
}

// GetByID implements store.KanjiStore.GetByID
func (s *PostgresKanjiStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.KanjiItem, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + kanjiColumns + ` FROM kanji WHERE id = $1`
	item, err := scanKanji(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("kanji not found", slog.String("kanji_id", id.String()))
			return nil, store.ErrKanjiNotFound
		}
		log.Error("failed to get kanji by ID",
			slog.String("error", err.Error()),
			slog.String("kanji_id", id.String()))
		return nil, MapError(err)
	}
	return item, nil
}

// GetByCharacter implements store.KanjiStore.GetByCharacter
func (s *PostgresKanjiStore) GetByCharacter(ctx context.Context, character string) (*domain.KanjiItem, error) {
	query := `SELECT ` + kanjiColumns + ` FROM kanji WHERE character = $1`
	item, err := scanKanji(s.db.QueryRowContext(ctx, query, character))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrKanjiNotFound
		}
		return nil, MapError(err)
	}
	return item, nil
}

// Update implements store.KanjiStore.Update as a compare-and-swap on version.
func (s *PostgresKanjiStore) Update(ctx context.Context, item *domain.KanjiItem) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := item.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	onyomi, kunyomi, examples, err := encodeLists(item)
	if err != nil {
		return err
	}

	query := `
		UPDATE kanji
		SET meaning = $1, grade_class = $2, difficulty = $3, onyomi = $4, kunyomi = $5,
			examples = $6, mastery_level = $7, review_count = $8, correct_count = $9,
			last_reviewed_at = $10, next_review_at = $11, updated_at = $12,
			version = version + 1
		WHERE id = $13 AND version = $14
	`
	result, err := s.db.ExecContext(ctx, query,
		item.Meaning,
		nullableInt(item.GradeClass),
		string(item.Difficulty),
		onyomi,
		kunyomi,
		examples,
		item.MasteryLevel,
		item.ReviewCount,
		item.CorrectCount,
		nullableTime(item.LastReviewedAt),
		item.NextReviewAt.UTC(),
		item.UpdatedAt.UTC(),
		item.ID,
		item.Version,
	)
	if err != nil {
		log.Error("failed to update kanji",
			slog.String("error", err.Error()),
			slog.String("kanji_id", item.ID.String()))
		return MapError(err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		var exists bool
		err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM kanji WHERE id = $1)`, item.ID).Scan(&exists)
		if err != nil {
			return MapError(err)
		}
		if !exists {
			return store.ErrKanjiNotFound
		}
		log.Debug("version conflict on kanji update",
			slog.String("kanji_id", item.ID.String()),
			slog.Int("expected_version", item.Version))
		return store.ErrVersionConflict
	}

	item.Version++
	return nil
}

// List implements store.KanjiStore.List
func (s *PostgresKanjiStore) List(ctx context.Context, gradeClass *int) ([]*domain.KanjiItem, error) {
	query := `SELECT ` + kanjiColumns + ` FROM kanji`
	var args []any
	if gradeClass != nil {
		query += ` WHERE grade_class = $1`
		args = append(args, *gradeClass)
	}
	query += ` ORDER BY grade_class NULLS LAST, character`
	return s.query(ctx, "list", query, args...)
}

// NextDue implements store.KanjiStore.NextDue
func (s *PostgresKanjiStore) NextDue(
	ctx context.Context,
	filter domain.ReviewFilter,
	now time.Time,
) (*domain.KanjiItem, error) {
	conditions := []string{"next_review_at <= $1"}
	args := []any{now.UTC()}
	if filter.MasteryLevel != nil {
		args = append(args, *filter.MasteryLevel)
		conditions = append(conditions, fmt.Sprintf("mastery_level = $%d", len(args)))
	}
	if filter.GradeClass != nil {
		args = append(args, *filter.GradeClass)
		conditions = append(conditions, fmt.Sprintf("grade_class = $%d", len(args)))
	}

	query := `SELECT ` + kanjiColumns + ` FROM kanji WHERE ` + strings.Join(conditions, " AND ") +
		` ORDER BY next_review_at, mastery_level, id LIMIT 1`

	items, err := s.query(ctx, "next_due", query, args...)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return items[0], nil
}

// ListAll implements store.KanjiStore.ListAll
func (s *PostgresKanjiStore) ListAll(ctx context.Context) ([]*domain.KanjiItem, error) {
	return s.query(ctx, "list_all", `SELECT `+kanjiColumns+` FROM kanji ORDER BY id`)
}

// Count implements store.KanjiStore.Count
func (s *PostgresKanjiStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM kanji`).Scan(&n); err != nil {
		return 0, MapError(err)
	}
	return n, nil
}

func (s *PostgresKanjiStore) query(ctx context.Context, op, query string, args ...any) ([]*domain.KanjiItem, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query kanji",
			slog.String("operation", op),
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	items := []*domain.KanjiItem{}
	for rows.Next() {
		item, err := scanKanji(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan kanji row: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return items, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanKanji(row rowScanner) (*domain.KanjiItem, error) {
	var (
		item                      domain.KanjiItem
		gradeClass                sql.NullInt32
		difficulty                string
		onyomi, kunyomi, examples []byte
		lastReviewedAt            sql.NullTime
	)

	err := row.Scan(
		&item.ID,
		&item.Character,
		&item.Meaning,
		&gradeClass,
		&difficulty,
		&onyomi,
		&kunyomi,
		&examples,
		&item.MasteryLevel,
		&item.ReviewCount,
		&item.CorrectCount,
		&lastReviewedAt,
		&item.NextReviewAt,
		&item.CreatedAt,
		&item.UpdatedAt,
		&item.Version,
	)
	if err != nil {
		return nil, err
	}

	item.Difficulty = domain.Difficulty(difficulty)
	if gradeClass.Valid {
		v := int(gradeClass.Int32)
		item.GradeClass = &v
	}
	if lastReviewedAt.Valid {
		t := lastReviewedAt.Time.UTC()
		item.LastReviewedAt = &t
	}
	item.NextReviewAt = item.NextReviewAt.UTC()
	item.CreatedAt = item.CreatedAt.UTC()
	item.UpdatedAt = item.UpdatedAt.UTC()

	if err := decodeLists(&item, onyomi, kunyomi, examples); err != nil {
		return nil, err
	}
	return &item, nil
}

func encodeLists(item *domain.KanjiItem) (onyomi, kunyomi, examples string, err error) {
	encode := func(v any) (string, error) {
		b, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("failed to encode kanji lists: %w", err)
		}
		return string(b), nil
	}
	if onyomi, err = encode(nonNilStrings(item.Onyomi)); err != nil {
		return
	}
	if kunyomi, err = encode(nonNilStrings(item.Kunyomi)); err != nil {
		return
	}
	if item.Examples == nil {
		examples = "[]"
		return
	}
	examples, err = encode(item.Examples)
	return
}

func decodeLists(item *domain.KanjiItem, onyomi, kunyomi, examples []byte) error {
	item.Onyomi, item.Kunyomi, item.Examples = []string{}, []string{}, []domain.Example{}
	for _, part := range []struct {
		raw  []byte
		dest any
	}{
		{onyomi, &item.Onyomi},
		{kunyomi, &item.Kunyomi},
		{examples, &item.Examples},
	} {
		if len(part.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(part.raw, part.dest); err != nil {
			return fmt.Errorf("failed to decode kanji lists: %w", err)
		}
	}
	return nil
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nullableInt(p *int) sql.NullInt32 {
	if p == nil {
		return sql.NullInt32{}
	}
	return sql.NullInt32{Int32: int32(*p), Valid: true}
}

func nullableTime(p *time.Time) sql.NullTime {
	if p == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: p.UTC(), Valid: true}
}
