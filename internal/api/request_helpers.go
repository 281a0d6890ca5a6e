package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/kanji-api/internal/domain"
)

// getPathUUID extracts and parses a UUID path parameter. Failures are
// ValidationErrors on paramName.
func getPathUUID(r *http.Request, paramName string) (uuid.UUID, error) {
	pathParam := chi.URLParam(r, paramName)
	if pathParam == "" {
		return uuid.Nil, domain.NewValidationError(paramName, "is required", domain.ErrValidation)
	}

	id, err := uuid.Parse(pathParam)
	if err != nil {
		return uuid.Nil, domain.NewValidationError(paramName, "has invalid format", domain.ErrInvalidID)
	}

	return id, nil
}

// getOptionalIntQuery parses an optional integer query parameter. An absent
// or empty parameter yields nil.
func getOptionalIntQuery(r *http.Request, name string) (*int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, domain.NewValidationError(name, "must be an integer", domain.ErrInvalidFormat)
	}
	return &n, nil
}

// getLimitQuery parses ?limit, falling back to def and capping at maxLimit.
func getLimitQuery(r *http.Request, def, maxLimit int) (int, error) {
	limit, err := getOptionalIntQuery(r, "limit")
	if err != nil {
		return 0, err
	}
	if limit == nil {
		return def, nil
	}
	if *limit < 1 {
		return 0, domain.NewValidationError("limit", "must be at least 1", domain.ErrValidation)
	}
	if *limit > maxLimit {
		return maxLimit, nil
	}
	return *limit, nil
}
