package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/kanji-api/internal/domain"
	"github.com/phrazzld/kanji-api/internal/events"
	"github.com/phrazzld/kanji-api/internal/platform/logger"
	"github.com/phrazzld/kanji-api/internal/store"
)

// KanjiService provides kanji item operations.
type KanjiService interface {
	// CreateKanji validates params and stores a new item at mastery level 0,
	// due immediately. A character that is already stored is reported as a
	// *domain.ValidationError on field "character".
	CreateKanji(ctx context.Context, params domain.NewKanjiParams) (*domain.KanjiItem, error)

	// GetKanji returns the item with id, or store.ErrKanjiNotFound.
	GetKanji(ctx context.Context, id uuid.UUID) (*domain.KanjiItem, error)

	// ListKanji returns all items, optionally restricted to one grade class.
	ListKanji(ctx context.Context, gradeClass *int) ([]*domain.KanjiItem, error)

	// ReviewHistory returns the newest review events of an item.
	ReviewHistory(ctx context.Context, id uuid.UUID, limit int) ([]*domain.ReviewEvent, error)
}

// Option configures the services of this package.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

type kanjiServiceImpl struct {
	kanji   store.KanjiStore
	reviews store.ReviewLogStore
	emitter events.EventEmitter
	now     func() time.Time
	logger  *slog.Logger
}

// NewKanjiService creates a KanjiService. A nil emitter discards events.
func NewKanjiService(
	kanji store.KanjiStore,
	reviews store.ReviewLogStore,
	emitter events.EventEmitter,
	logger *slog.Logger,
	opts ...Option,
) (KanjiService, error) {
	if kanji == nil {
		return nil, fmt.Errorf("%w: kanji store", ErrNilDependency)
	}
	if reviews == nil {
		return nil, fmt.Errorf("%w: review log store", ErrNilDependency)
	}
	if emitter == nil {
		emitter = events.NopEmitter{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	o := buildOptions(opts)

	return &kanjiServiceImpl{
		kanji:   kanji,
		reviews: reviews,
		emitter: emitter,
		now:     o.now,
		logger:  logger.With(slog.String("component", "kanji_service")),
	}, nil
}

// CreateKanji implements KanjiService.CreateKanji
func (s *kanjiServiceImpl) CreateKanji(
	ctx context.Context,
	params domain.NewKanjiParams,
) (*domain.KanjiItem, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	item, err := domain.NewKanjiItem(params, s.now())
	if err != nil {
		log.Debug("rejected kanji", slog.String("error", err.Error()))
		return nil, err
	}

	if _, err := s.kanji.GetByCharacter(ctx, item.Character); err == nil {
		return nil, duplicateCharacter(item.Character)
	} else if !store.IsNotFoundError(err) {
		return nil, NewServiceError("create_kanji", "failed to check character", err)
	}

	if err := s.kanji.Create(ctx, item); err != nil {
		if store.IsDuplicateError(err) {
			return nil, duplicateCharacter(item.Character)
		}
		log.Error("failed to create kanji",
			slog.String("error", err.Error()),
			slog.String("character", item.Character))
		return nil, NewServiceError("create_kanji", "failed to save kanji", err)
	}

	log.Info("kanji created",
		slog.String("kanji_id", item.ID.String()),
		slog.String("character", item.Character))
	s.emit(ctx, events.TypeKanjiCreated, events.KanjiCreatedPayload{Item: item})
	return item, nil
}

func duplicateCharacter(character string) error {
	return domain.NewValidationError("character",
		fmt.Sprintf("kanji %q already exists", character), store.ErrCharacterExists)
}

// GetKanji implements KanjiService.GetKanji
func (s *kanjiServiceImpl) GetKanji(ctx context.Context, id uuid.UUID) (*domain.KanjiItem, error) {
	item, err := s.kanji.GetByID(ctx, id)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, store.ErrKanjiNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to get kanji",
			slog.String("error", err.Error()),
			slog.String("kanji_id", id.String()))
		return nil, NewServiceError("get_kanji", "failed to load kanji", err)
	}
	return item, nil
}

// ListKanji implements KanjiService.ListKanji
func (s *kanjiServiceImpl) ListKanji(ctx context.Context, gradeClass *int) ([]*domain.KanjiItem, error) {
	if gradeClass != nil {
		if err := domain.ValidateGradeClass(*gradeClass); err != nil {
			return nil, err
		}
	}
	items, err := s.kanji.List(ctx, gradeClass)
	if err != nil {
		return nil, NewServiceError("list_kanji", "failed to list kanji", err)
	}
	return items, nil
}

// ReviewHistory implements KanjiService.ReviewHistory
func (s *kanjiServiceImpl) ReviewHistory(
	ctx context.Context,
	id uuid.UUID,
	limit int,
) ([]*domain.ReviewEvent, error) {
	if _, err := s.GetKanji(ctx, id); err != nil {
		return nil, err
	}
	history, err := s.reviews.ListByKanji(ctx, id, limit)
	if err != nil {
		return nil, NewServiceError("review_history", "failed to load review log", err)
	}
	return history, nil
}

// emit publishes an event. The item is already stored, so handler failures
// are logged rather than returned.
func (s *kanjiServiceImpl) emit(ctx context.Context, eventType string, payload interface{}) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	event, err := events.NewEvent(eventType, payload)
	if err != nil {
		log.Error("failed to build event", slog.String("event_type", eventType), slog.String("error", err.Error()))
		return
	}
	if err := s.emitter.EmitEvent(ctx, event); err != nil {
		log.Warn("event handler failed",
			slog.String("event_type", eventType),
			slog.String("error", err.Error()))
	}
}
