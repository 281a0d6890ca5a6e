package mocks

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/kanji-api/internal/domain"
	"github.com/phrazzld/kanji-api/internal/domain/srs"
	"github.com/phrazzld/kanji-api/internal/service"
	"github.com/phrazzld/kanji-api/internal/service/kanji_review"
)

// MockKanjiService implements service.KanjiService for testing
type MockKanjiService struct {
	CreateKanjiFn   func(ctx context.Context, params domain.NewKanjiParams) (*domain.KanjiItem, error)
	GetKanjiFn      func(ctx context.Context, id uuid.UUID) (*domain.KanjiItem, error)
	ListKanjiFn     func(ctx context.Context, gradeClass *int) ([]*domain.KanjiItem, error)
	ReviewHistoryFn func(ctx context.Context, id uuid.UUID, limit int) ([]*domain.ReviewEvent, error)

	// Default values used when functions aren't explicitly defined
	Item    *domain.KanjiItem
	Items   []*domain.KanjiItem
	History []*domain.ReviewEvent
	Err     error

	mu            sync.Mutex
	CreatedParams []domain.NewKanjiParams
}

var _ service.KanjiService = (*MockKanjiService)(nil)

// CreateKanji implements service.KanjiService
func (m *MockKanjiService) CreateKanji(ctx context.Context, params domain.NewKanjiParams) (*domain.KanjiItem, error) {
	m.mu.Lock()
	m.CreatedParams = append(m.CreatedParams, params)
	m.mu.Unlock()

	if m.CreateKanjiFn != nil {
		return m.CreateKanjiFn(ctx, params)
	}
	return m.Item, m.Err
}

// GetKanji implements service.KanjiService
func (m *MockKanjiService) GetKanji(ctx context.Context, id uuid.UUID) (*domain.KanjiItem, error) {
	if m.GetKanjiFn != nil {
		return m.GetKanjiFn(ctx, id)
	}
	return m.Item, m.Err
}

// ListKanji implements service.KanjiService
func (m *MockKanjiService) ListKanji(ctx context.Context, gradeClass *int) ([]*domain.KanjiItem, error) {
	if m.ListKanjiFn != nil {
		return m.ListKanjiFn(ctx, gradeClass)
	}
	return m.Items, m.Err
}

// ReviewHistory implements service.KanjiService
func (m *MockKanjiService) ReviewHistory(ctx context.Context, id uuid.UUID, limit int) ([]*domain.ReviewEvent, error) {
	if m.ReviewHistoryFn != nil {
		return m.ReviewHistoryFn(ctx, id, limit)
	}
	return m.History, m.Err
}

// MockReviewService implements kanji_review.ReviewService for testing
type MockReviewService struct {
	NextDueFn      func(ctx context.Context, filter domain.ReviewFilter) (*domain.KanjiItem, error)
	SubmitReviewFn func(ctx context.Context, id uuid.UUID, result domain.ReviewResult) (*domain.KanjiItem, error)

	Item *domain.KanjiItem
	Err  error

	// Call tracking for verification
	mu        sync.Mutex
	Filters   []domain.ReviewFilter
	Submitted []domain.ReviewResult
}

var _ kanji_review.ReviewService = (*MockReviewService)(nil)

// NextDue implements kanji_review.ReviewService
func (m *MockReviewService) NextDue(ctx context.Context, filter domain.ReviewFilter) (*domain.KanjiItem, error) {
	m.mu.Lock()
	m.Filters = append(m.Filters, filter)
	m.mu.Unlock()

	if m.NextDueFn != nil {
		return m.NextDueFn(ctx, filter)
	}
	return m.Item, m.Err
}

// SubmitReview implements kanji_review.ReviewService
func (m *MockReviewService) SubmitReview(
	ctx context.Context,
	id uuid.UUID,
	result domain.ReviewResult,
) (*domain.KanjiItem, error) {
	m.mu.Lock()
	m.Submitted = append(m.Submitted, result)
	m.mu.Unlock()

	if m.SubmitReviewFn != nil {
		return m.SubmitReviewFn(ctx, id, result)
	}
	return m.Item, m.Err
}

// MockStatsService implements service.StatsService for testing
type MockStatsService struct {
	StatsFn func(ctx context.Context) (srs.Stats, error)
	Result  srs.Stats
	Err     error
}

var _ service.StatsService = (*MockStatsService)(nil)

// Stats implements service.StatsService
func (m *MockStatsService) Stats(ctx context.Context) (srs.Stats, error) {
	if m.StatsFn != nil {
		return m.StatsFn(ctx)
	}
	return m.Result, m.Err
}
