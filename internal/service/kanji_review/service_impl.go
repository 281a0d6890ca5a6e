package kanji_review

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/kanji-api/internal/domain"
	"github.com/phrazzld/kanji-api/internal/domain/srs"
	"github.com/phrazzld/kanji-api/internal/events"
	"github.com/phrazzld/kanji-api/internal/platform/logger"
	"github.com/phrazzld/kanji-api/internal/store"
)

// DefaultMaxRetries is the number of attempts SubmitReview makes.
const DefaultMaxRetries = 5

// Verify interface compliance at compile time
var _ ReviewService = (*reviewServiceImpl)(nil)

type reviewServiceImpl struct {
	kanji      store.KanjiStore
	srs        srs.Service
	emitter    events.EventEmitter
	now        func() time.Time
	maxRetries int
	backoff    func(attempt int) time.Duration
	logger     *slog.Logger
}

// Option configures the review service.
type Option func(*reviewServiceImpl)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *reviewServiceImpl) {
		if now != nil {
			s.now = now
		}
	}
}

// WithMaxRetries sets the number of attempts; values below 1 mean 1.
func WithMaxRetries(n int) Option {
	return func(s *reviewServiceImpl) {
		if n < 1 {
			n = 1
		}
		s.maxRetries = n
	}
}

// WithBackoff replaces the delay before attempt number attempt (starting at 1
// for the first retry).
func WithBackoff(backoff func(attempt int) time.Duration) Option {
	return func(s *reviewServiceImpl) {
		if backoff != nil {
			s.backoff = backoff
		}
	}
}

// NewReviewService creates a ReviewService. It panics on a nil store or
// scheduler; a nil emitter discards events.
func NewReviewService(
	kanji store.KanjiStore,
	srsService srs.Service,
	emitter events.EventEmitter,
	logger *slog.Logger,
	opts ...Option,
) ReviewService {
	if kanji == nil {
		panic("kanji store cannot be nil")
	}
	if srsService == nil {
		panic("srsService cannot be nil")
	}
	if emitter == nil {
		emitter = events.NopEmitter{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &reviewServiceImpl{
		kanji:      kanji,
		srs:        srsService,
		emitter:    emitter,
		now:        time.Now,
		maxRetries: DefaultMaxRetries,
		backoff:    jitteredBackoff,
		logger:     logger.With(slog.String("component", "kanji_review_service")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// jitteredBackoff waits between 2ms and 4ms on the first retry and doubles
// from there.
func jitteredBackoff(attempt int) time.Duration {
	base := time.Duration(1<<min(attempt, 6)) * time.Millisecond
	return base + rand.N(base+1)
}

// NextDue implements ReviewService.NextDue
func (s *reviewServiceImpl) NextDue(ctx context.Context, filter domain.ReviewFilter) (*domain.KanjiItem, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := filter.Validate(); err != nil {
		return nil, err
	}

	item, err := s.kanji.NextDue(ctx, filter, s.now())
	if err != nil {
		log.Error("failed to get next due kanji", slog.String("error", err.Error()))
		return nil, NewNextDueError("failed to query due kanji", err)
	}
	if item == nil {
		log.Debug("no kanji due for review")
		return nil, ErrNoItemsDue
	}

	log.Debug("selected next kanji",
		slog.String("kanji_id", item.ID.String()),
		slog.Int("mastery_level", item.MasteryLevel))
	return item, nil
}

// SubmitReview implements ReviewService.SubmitReview
func (s *reviewServiceImpl) SubmitReview(
	ctx context.Context,
	id uuid.UUID,
	result domain.ReviewResult,
) (*domain.KanjiItem, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(slog.String("kanji_id", id.String()))

	parsed, err := domain.ParseReviewResult(string(result))
	if err != nil {
		log.Warn("invalid review result", slog.String("result", string(result)))
		return nil, err
	}

	for attempt := 0; attempt < s.maxRetries; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, s.backoff(attempt)); err != nil {
				return nil, NewSubmitReviewError("cancelled while retrying", err)
			}
		}

		before, err := s.kanji.GetByID(ctx, id)
		if err != nil {
			if store.IsNotFoundError(err) {
				return nil, store.ErrKanjiNotFound
			}
			log.Error("failed to load kanji for review", slog.String("error", err.Error()))
			return nil, NewSubmitReviewError("failed to load kanji", err)
		}

		after, err := s.srs.ApplyReview(before, parsed, s.now())
		if err != nil {
			return nil, NewSubmitReviewError("failed to apply review", err)
		}

		err = s.kanji.Update(ctx, after)
		if store.IsConflictError(err) {
			log.Debug("version conflict, retrying", slog.Int("attempt", attempt+1))
			continue
		}
		if err != nil {
			if store.IsNotFoundError(err) {
				return nil, store.ErrKanjiNotFound
			}
			log.Error("failed to save review", slog.String("error", err.Error()))
			return nil, NewSubmitReviewError("failed to save kanji", err)
		}

		log.Info("review applied",
			slog.String("result", string(parsed)),
			slog.Int("previous_level", before.MasteryLevel),
			slog.Int("mastery_level", after.MasteryLevel),
			slog.Time("next_review_at", after.NextReviewAt))
		s.emitApplied(ctx, before, after, parsed)
		return after, nil
	}

	log.Error("review failed after retries", slog.Int("attempts", s.maxRetries))
	return nil, ErrStoreContention
}

func (s *reviewServiceImpl) emitApplied(ctx context.Context, before, after *domain.KanjiItem, result domain.ReviewResult) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	event, err := events.NewEvent(events.TypeReviewApplied, events.ReviewAppliedPayload{
		Review: domain.NewReviewEvent(before, after, result),
		Item:   after,
	})
	if err != nil {
		log.Error("failed to build review event", slog.String("error", err.Error()))
		return
	}
	if err := s.emitter.EmitEvent(ctx, event); err != nil {
		log.Warn("review event handler failed", slog.String("error", err.Error()))
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
