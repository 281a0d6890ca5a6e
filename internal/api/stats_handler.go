package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/kanji-api/internal/api/shared"
	"github.com/phrazzld/kanji-api/internal/service"
)

// StatsHandler serves GET /api/stats.
type StatsHandler struct {
	statsService service.StatsService
	logger       *slog.Logger
}

// NewStatsHandler creates a new StatsHandler
func NewStatsHandler(statsService service.StatsService, logger *slog.Logger) *StatsHandler {
	if statsService == nil || logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("statsService and logger are required for StatsHandler")
	}
	return &StatsHandler{
		statsService: statsService,
		logger:       logger.With(slog.String("component", "stats_handler")),
	}
}

// GetStats computes progress statistics over the whole collection.
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.statsService.Stats(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to compute statistics")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, stats)
}
