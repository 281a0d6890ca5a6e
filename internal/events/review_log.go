package events

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/kanji-api/internal/store"
)

// ReviewLogHandler appends every applied review to the review log.
type ReviewLogHandler struct {
	log    store.ReviewLogStore
	logger *slog.Logger
}

// NewReviewLogHandler creates a handler writing to log.
func NewReviewLogHandler(log store.ReviewLogStore, logger *slog.Logger) *ReviewLogHandler {
	if log == nil {
		panic("review log store cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ReviewLogHandler{log: log, logger: logger.With("component", "review_log_handler")}
}

var _ EventHandler = (*ReviewLogHandler)(nil)

// HandleEvent implements EventHandler. Events of other types are ignored.
func (h *ReviewLogHandler) HandleEvent(ctx context.Context, event *Event) error {
	if event.Type != TypeReviewApplied {
		return nil
	}

	var payload ReviewAppliedPayload
	if err := event.UnmarshalPayload(&payload); err != nil {
		return fmt.Errorf("failed to unmarshal review payload: %w", err)
	}
	if payload.Review == nil {
		return fmt.Errorf("review payload of event %s has no review", event.ID)
	}

	if err := h.log.Append(ctx, payload.Review); err != nil {
		return fmt.Errorf("failed to append review event: %w", err)
	}
	h.logger.Debug("review logged",
		"kanji_id", payload.Review.KanjiID,
		"result", payload.Review.Result)
	return nil
}
