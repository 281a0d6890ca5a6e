package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/kanji-api/internal/domain"
)

// KanjiStore defines the interface for kanji item persistence.
type KanjiStore interface {
	// Create saves a new item. It returns ErrCharacterExists when an item
	// for the same character is already stored, or ErrInvalidEntity when the
	// item fails validation.
	Create(ctx context.Context, item *domain.KanjiItem) error

	// GetByID retrieves an item by its unique ID.
	// Returns ErrKanjiNotFound if the item does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.KanjiItem, error)

	// GetByCharacter retrieves an item by its character.
	// Returns ErrKanjiNotFound if no item exists for the character.
	GetByCharacter(ctx context.Context, character string) (*domain.KanjiItem, error)

	// Update replaces the stored item if, and only if, the stored version
	// equals item.Version. On success the stored version and item.Version
	// are both incremented. It returns ErrVersionConflict when the versions
	// differ and ErrKanjiNotFound when the item no longer exists.
	Update(ctx context.Context, item *domain.KanjiItem) error

	// List returns all items, optionally restricted to a grade class,
	// ordered by grade class then character. An empty store yields an
	// empty slice.
	List(ctx context.Context, gradeClass *int) ([]*domain.KanjiItem, error)

	// NextDue returns the item to present next under filter at now: the
	// earliest next_review_at, then lowest mastery level, then lowest id.
	// It returns (nil, nil) when nothing is due.
	NextDue(ctx context.Context, filter domain.ReviewFilter, now time.Time) (*domain.KanjiItem, error)

	// ListAll returns every stored item.
	ListAll(ctx context.Context) ([]*domain.KanjiItem, error)

	// Count returns the number of stored items.
	Count(ctx context.Context) (int, error)

	// WithTx returns a KanjiStore that runs its queries inside tx.
	// Stores that are not backed by SQL return themselves.
	WithTx(tx *sql.Tx) KanjiStore
}

// ReviewLogStore defines the interface for the append-only review log.
type ReviewLogStore interface {
	// Append records one applied review.
	Append(ctx context.Context, event *domain.ReviewEvent) error

	// ListByKanji returns the most recent events for an item, newest first.
	// A non-positive limit returns all events.
	ListByKanji(ctx context.Context, kanjiID uuid.UUID, limit int) ([]*domain.ReviewEvent, error)
}
