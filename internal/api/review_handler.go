package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/phrazzld/kanji-api/internal/api/shared"
	"github.com/phrazzld/kanji-api/internal/domain"
	"github.com/phrazzld/kanji-api/internal/platform/logger"
	"github.com/phrazzld/kanji-api/internal/redact"
	"github.com/phrazzld/kanji-api/internal/service/kanji_review"
)

// ReviewHandler serves the /api/review routes.
type ReviewHandler struct {
	reviewService kanji_review.ReviewService
	logger        *slog.Logger
}

// NewReviewHandler creates a new ReviewHandler
func NewReviewHandler(reviewService kanji_review.ReviewService, logger *slog.Logger) *ReviewHandler {
	if reviewService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("reviewService cannot be nil for ReviewHandler")
	}
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for ReviewHandler")
	}
	return &ReviewHandler{
		reviewService: reviewService,
		logger:        logger.With(slog.String("component", "review_handler")),
	}
}

// NextDue handles GET /api/review. ?level and ?class restrict the candidates;
// at most one may be given. Nothing due is a 204.
func (h *ReviewHandler) NextDue(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	level, err := getOptionalIntQuery(r, "level")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	class, err := getOptionalIntQuery(r, "class")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	item, err := h.reviewService.NextDue(r.Context(), domain.ReviewFilter{MasteryLevel: level, GradeClass: class})
	if errors.Is(err, kanji_review.ErrNoItemsDue) {
		log.Debug("no kanji due for review")
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get next review kanji")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, kanjiToResponse(item))
}

// SubmitReview handles POST /api/review.
func (h *ReviewHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req SubmitReviewRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("invalid request format", slog.String("error", redact.Error(err)))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		handleValidatorError(w, r, err)
		return
	}

	id, err := uuid.Parse(req.KanjiID)
	if err != nil {
		HandleAPIError(w, r, domain.NewValidationError("kanji_id", "must be a UUID", domain.ErrInvalidID), "")
		return
	}
	item, err := h.reviewService.SubmitReview(r.Context(), id, domain.ReviewResult(req.Result))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to submit review")
		return
	}

	log.Debug("review submitted",
		slog.String("kanji_id", id.String()),
		slog.String("result", req.Result),
		slog.Int("mastery_level", item.MasteryLevel))
	shared.RespondWithJSON(w, r, http.StatusOK, kanjiToResponse(item))
}
