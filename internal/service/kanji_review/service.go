// Package kanji_review applies reviews to kanji items and picks the next item
// to study.
package kanji_review

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/phrazzld/kanji-api/internal/domain"
)

// ReviewService provides the review loop: fetch the next due item, then
// submit the learner's result for it.
type ReviewService interface {
	// NextDue returns the item that should be reviewed next under filter.
	//
	// Returns:
	//   - (*domain.KanjiItem, nil): the most overdue matching item
	//   - (nil, ErrNoItemsDue): nothing matching is due right now
	//   - (nil, *domain.ValidationError): the filter is malformed
	//   - (nil, error): any other error, typically from the store
	//
	// This method does not modify any data.
	NextDue(ctx context.Context, filter domain.ReviewFilter) (*domain.KanjiItem, error)

	// SubmitReview applies result to the item with id and persists the new
	// schedule. The read-modify-write is atomic per item: concurrent reviews
	// of the same item are serialized by a version check and retried.
	//
	// Returns:
	//   - (*domain.KanjiItem, nil): the updated item
	//   - (nil, *domain.ValidationError): result is not correct, hard or incorrect
	//   - (nil, store.ErrKanjiNotFound): the item does not exist
	//   - (nil, ErrStoreContention): every attempt lost the version race
	//   - (nil, error): any other error, wrapped in a *ServiceError
	SubmitReview(ctx context.Context, id uuid.UUID, result domain.ReviewResult) (*domain.KanjiItem, error)
}

// Common error types for ReviewService
var (
	// ErrNoItemsDue indicates that nothing matching the filter is due. It is
	// an expected outcome, not a failure.
	ErrNoItemsDue = errors.New("no kanji due for review")

	// ErrStoreContention indicates the item kept changing underneath the
	// review until the retry budget ran out.
	ErrStoreContention = errors.New("kanji was modified concurrently, retries exhausted")
)

// ServiceError wraps errors from the review service with additional context.
type ServiceError struct {
	// Operation is the operation that failed (e.g., "next_due", "submit_review")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewSubmitReviewError returns a new ServiceError for the submit_review operation.
func NewSubmitReviewError(message string, err error) *ServiceError {
	return &ServiceError{Operation: "submit_review", Message: message, Err: err}
}

// NewNextDueError returns a new ServiceError for the next_due operation.
func NewNextDueError(message string, err error) *ServiceError {
	return &ServiceError{Operation: "next_due", Message: message, Err: err}
}
