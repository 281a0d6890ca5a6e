// Package mocks provides centralized mock implementations for testing.
//
// Store mocks are built on testify's mock.Mock so tests can set expectations
// per call. Service mocks use function fields with default return values,
// which keeps handler tests short:
//
//	reviews := &mocks.MockReviewService{
//	    NextDueFn: func(ctx context.Context, f domain.ReviewFilter) (*domain.KanjiItem, error) {
//	        return nil, kanji_review.ErrNoItemsDue
//	    },
//	}
package mocks
