// Package memory provides process-local implementations of the kanji and
// review log stores. Data does not survive a restart.
package memory

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/kanji-api/internal/domain"
	"github.com/phrazzld/kanji-api/internal/domain/srs"
	"github.com/phrazzld/kanji-api/internal/store"
)

// KanjiStore is a mutex-guarded map of items. Items are cloned on the way in
// and out so callers never share memory with the store.
type KanjiStore struct {
	mu          sync.RWMutex
	items       map[uuid.UUID]*domain.KanjiItem
	byCharacter map[string]uuid.UUID
}

// NewKanjiStore returns an empty store.
func NewKanjiStore() *KanjiStore {
	return &KanjiStore{
		items:       make(map[uuid.UUID]*domain.KanjiItem),
		byCharacter: make(map[string]uuid.UUID),
	}
}

var _ store.KanjiStore = (*KanjiStore)(nil)

// WithTx returns the store itself; the memory store has no transactions.
func (s *KanjiStore) WithTx(*sql.Tx) store.KanjiStore {
	return s
}

// Create implements store.KanjiStore.Create
func (s *KanjiStore) Create(_ context.Context, item *domain.KanjiItem) error {
	if err := item.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byCharacter[item.Character]; ok {
		return fmt.Errorf("%w: %s", store.ErrCharacterExists, item.Character)
	}
	if _, ok := s.items[item.ID]; ok {
		return fmt.Errorf("%w: id %s", store.ErrDuplicate, item.ID)
	}
	if item.Version == 0 {
		item.Version = 1
	}
	s.items[item.ID] = item.Clone()
	s.byCharacter[item.Character] = item.ID
	return nil
}

// GetByID implements store.KanjiStore.GetByID
func (s *KanjiStore) GetByID(_ context.Context, id uuid.UUID) (*domain.KanjiItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	if !ok {
		return nil, store.ErrKanjiNotFound
	}
	return item.Clone(), nil
}

// GetByCharacter implements store.KanjiStore.GetByCharacter
func (s *KanjiStore) GetByCharacter(_ context.Context, character string) (*domain.KanjiItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byCharacter[character]
	if !ok {
		return nil, store.ErrKanjiNotFound
	}
	return s.items[id].Clone(), nil
}

// Update implements store.KanjiStore.Update
func (s *KanjiStore) Update(_ context.Context, item *domain.KanjiItem) error {
	if err := item.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.items[item.ID]
	if !ok {
		return store.ErrKanjiNotFound
	}
	if current.Version != item.Version {
		return store.ErrVersionConflict
	}

	next := item.Clone()
	// Character and creation time are immutable.
	next.Character = current.Character
	next.CreatedAt = current.CreatedAt
	next.Version = current.Version + 1
	s.items[item.ID] = next
	item.Version = next.Version
	return nil
}

// List implements store.KanjiStore.List
func (s *KanjiStore) List(_ context.Context, gradeClass *int) ([]*domain.KanjiItem, error) {
	s.mu.RLock()
	out := make([]*domain.KanjiItem, 0, len(s.items))
	for _, item := range s.items {
		if gradeClass != nil && (item.GradeClass == nil || *item.GradeClass != *gradeClass) {
			continue
		}
		out = append(out, item.Clone())
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch {
		case a.GradeClass == nil && b.GradeClass != nil:
			return false
		case a.GradeClass != nil && b.GradeClass == nil:
			return true
		case a.GradeClass != nil && *a.GradeClass != *b.GradeClass:
			return *a.GradeClass < *b.GradeClass
		}
		return strings.Compare(a.Character, b.Character) < 0
	})
	return out, nil
}

// NextDue implements store.KanjiStore.NextDue
func (s *KanjiStore) NextDue(_ context.Context, filter domain.ReviewFilter, now time.Time) (*domain.KanjiItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]*domain.KanjiItem, 0, len(s.items))
	for _, item := range s.items {
		items = append(items, item)
	}
	next := srs.PickNext(items, filter, now)
	return next.Clone(), nil
}

// ListAll implements store.KanjiStore.ListAll
func (s *KanjiStore) ListAll(_ context.Context) ([]*domain.KanjiItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.KanjiItem, 0, len(s.items))
	for _, item := range s.items {
		out = append(out, item.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

// Count implements store.KanjiStore.Count
func (s *KanjiStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items), nil
}

// ReviewLogStore keeps review events in insertion order.
type ReviewLogStore struct {
	mu     sync.RWMutex
	events []*domain.ReviewEvent
}

// NewReviewLogStore returns an empty review log.
func NewReviewLogStore() *ReviewLogStore {
	return &ReviewLogStore{}
}

var _ store.ReviewLogStore = (*ReviewLogStore)(nil)

// Append implements store.ReviewLogStore.Append
func (s *ReviewLogStore) Append(_ context.Context, event *domain.ReviewEvent) error {
	ev := *event
	s.mu.Lock()
	s.events = append(s.events, &ev)
	s.mu.Unlock()
	return nil
}

// ListByKanji implements store.ReviewLogStore.ListByKanji
func (s *ReviewLogStore) ListByKanji(_ context.Context, kanjiID uuid.UUID, limit int) ([]*domain.ReviewEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*domain.ReviewEvent{}
	for i := len(s.events) - 1; i >= 0; i-- {
		if s.events[i].KanjiID != kanjiID {
			continue
		}
		ev := *s.events[i]
		out = append(out, &ev)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
