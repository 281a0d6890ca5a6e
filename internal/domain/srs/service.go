package srs

import (
	"errors"
	"fmt"
	"time"

	"github.com/phrazzld/kanji-api/internal/domain"
)

// Common errors
var (
	ErrNilItem       = errors.New("kanji item cannot be nil")
	ErrInvalidResult = domain.ErrInvalidReviewResult
)

// Service defines the interface for mastery ladder operations
type Service interface {
	// ApplyReview computes the item's next state for a review result at now.
	// It is a pure function of its arguments and never mutates item.
	ApplyReview(
		item *domain.KanjiItem,
		result domain.ReviewResult,
		now time.Time,
	) (*domain.KanjiItem, error)

	// Params exposes the ladder configuration in use.
	Params() Params
}

// defaultService is the standard implementation of the Service interface
type defaultService struct {
	params *Params
}

// NewDefaultService creates a new SRS service with default parameters
func NewDefaultService() Service {
	return &defaultService{
		params: NewDefaultParams(),
	}
}

// NewServiceWithParams creates a new SRS service with custom parameters
func NewServiceWithParams(params *Params) Service {
	if params == nil {
		params = NewDefaultParams()
	}
	return &defaultService{
		params: params,
	}
}

// ApplyReview implements the Service interface
func (s *defaultService) ApplyReview(
	item *domain.KanjiItem,
	result domain.ReviewResult,
	now time.Time,
) (*domain.KanjiItem, error) {
	if item == nil {
		return nil, ErrNilItem
	}

	if !result.IsValid() {
		return nil, domain.NewValidationError("result",
			fmt.Sprintf("unsupported review result %q", result), ErrInvalidResult)
	}

	return calculateNextItem(item, result, now, s.params), nil
}

// Params implements the Service interface
func (s *defaultService) Params() Params {
	return *s.params
}
