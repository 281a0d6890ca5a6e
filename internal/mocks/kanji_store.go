package mocks

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/kanji-api/internal/domain"
	"github.com/phrazzld/kanji-api/internal/store"
	"github.com/stretchr/testify/mock"
)

// MockKanjiStore mocks store.KanjiStore.
type MockKanjiStore struct {
	mock.Mock
}

var _ store.KanjiStore = (*MockKanjiStore)(nil)

func item(args mock.Arguments, i int) *domain.KanjiItem {
	if args.Get(i) == nil {
		return nil
	}
	return args.Get(i).(*domain.KanjiItem)
}

func items(args mock.Arguments, i int) []*domain.KanjiItem {
	if args.Get(i) == nil {
		return nil
	}
	return args.Get(i).([]*domain.KanjiItem)
}

// Create implements store.KanjiStore
func (m *MockKanjiStore) Create(ctx context.Context, k *domain.KanjiItem) error {
	return m.Called(ctx, k).Error(0)
}

// GetByID implements store.KanjiStore
func (m *MockKanjiStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.KanjiItem, error) {
	args := m.Called(ctx, id)
	return item(args, 0), args.Error(1)
}

// GetByCharacter implements store.KanjiStore
func (m *MockKanjiStore) GetByCharacter(ctx context.Context, character string) (*domain.KanjiItem, error) {
	args := m.Called(ctx, character)
	return item(args, 0), args.Error(1)
}

// Update implements store.KanjiStore. A successful call bumps k.Version
// like the real stores do.
func (m *MockKanjiStore) Update(ctx context.Context, k *domain.KanjiItem) error {
	err := m.Called(ctx, k).Error(0)
	if err == nil {
		k.Version++
	}
	return err
}

// List implements store.KanjiStore
func (m *MockKanjiStore) List(ctx context.Context, gradeClass *int) ([]*domain.KanjiItem, error) {
	args := m.Called(ctx, gradeClass)
	return items(args, 0), args.Error(1)
}

// NextDue implements store.KanjiStore
func (m *MockKanjiStore) NextDue(
	ctx context.Context,
	filter domain.ReviewFilter,
	now time.Time,
) (*domain.KanjiItem, error) {
	args := m.Called(ctx, filter, now)
	return item(args, 0), args.Error(1)
}

// ListAll implements store.KanjiStore
func (m *MockKanjiStore) ListAll(ctx context.Context) ([]*domain.KanjiItem, error) {
	args := m.Called(ctx)
	return items(args, 0), args.Error(1)
}

// Count implements store.KanjiStore
func (m *MockKanjiStore) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// WithTx implements store.KanjiStore by returning the mock itself.
func (m *MockKanjiStore) WithTx(*sql.Tx) store.KanjiStore {
	return m
}

// MockReviewLogStore mocks store.ReviewLogStore.
type MockReviewLogStore struct {
	mock.Mock
}

var _ store.ReviewLogStore = (*MockReviewLogStore)(nil)

// Append implements store.ReviewLogStore
func (m *MockReviewLogStore) Append(ctx context.Context, event *domain.ReviewEvent) error {
	return m.Called(ctx, event).Error(0)
}

// ListByKanji implements store.ReviewLogStore
func (m *MockReviewLogStore) ListByKanji(
	ctx context.Context,
	kanjiID uuid.UUID,
	limit int,
) ([]*domain.ReviewEvent, error) {
	args := m.Called(ctx, kanjiID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ReviewEvent), args.Error(1)
}
