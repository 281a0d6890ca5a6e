package api

import (
	"errors"
	"net/http"

	"github.com/phrazzld/kanji-api/internal/api/shared"
	"github.com/phrazzld/kanji-api/internal/domain"
	"github.com/phrazzld/kanji-api/internal/service/kanji_review"
	"github.com/phrazzld/kanji-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes without
// leaking internal error types to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, kanji_review.ErrNoItemsDue):
		return http.StatusNoContent

	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, kanji_review.ErrStoreContention):
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a client-safe message for err.
//
// Validation messages are built from user input and domain rules, so they are
// passed through. Everything else is replaced by a fixed message.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return verr.Message
	case errors.Is(err, domain.ErrValidation), errors.Is(err, store.ErrInvalidEntity):
		return "Invalid request"
	case errors.Is(err, store.ErrNotFound):
		return "Kanji not found"
	case errors.Is(err, kanji_review.ErrStoreContention):
		return "Kanji is busy, try again"
	case errors.Is(err, kanji_review.ErrNoItemsDue):
		return "No kanji due for review"
	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError writes the error response for err. fallback replaces the
// generic message on 500s when non-empty.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status := MapErrorToStatusCode(err)
	message := GetSafeErrorMessage(err)
	if status == http.StatusInternalServerError && fallback != "" {
		message = fallback
	}

	var opts []shared.ResponseOption
	var verr *domain.ValidationError
	if errors.As(err, &verr) && verr.Field != "" {
		opts = append(opts, shared.WithField(verr.Field))
	}
	if status == http.StatusServiceUnavailable {
		opts = append(opts, shared.WithElevatedLogLevel())
	}

	shared.RespondWithErrorAndLog(w, r, status, message, err, opts...)
}

// handleValidatorError answers a request body that failed struct validation.
func handleValidatorError(w http.ResponseWriter, r *http.Request, err error) {
	field, message := shared.DescribeValidationError(err)
	var opts []shared.ResponseOption
	if field != "" {
		opts = append(opts, shared.WithField(field))
	}
	shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, message, err, opts...)
}
